package domain

import "strings"

// UnresolvedKeyPrefix marks persisted record keys that never resolved to a
// durable identifier.
const UnresolvedKeyPrefix = "unresolved:"

// Identity is a tagged identity variant: either a durable platform
// identifier, or a provisional lower-cased display name for observations
// that carried no identifier. Identity is a comparable value type so it can
// key the aggregation map directly.
type Identity struct {
	durable string
	name    string
}

// ResolvedIdentity returns the identity for a durable identifier.
func ResolvedIdentity(id string) Identity {
	return Identity{durable: id}
}

// ProvisionalIdentity returns a name-keyed identity. Names are compared
// case-insensitively, so the key is lower-cased.
func ProvisionalIdentity(name string) Identity {
	return Identity{name: strings.ToLower(name)}
}

// Resolved reports whether the identity carries a durable identifier.
func (i Identity) Resolved() bool { return i.durable != "" }

// DurableID returns the durable identifier, or "" for provisional identities.
func (i Identity) DurableID() string { return i.durable }

// Name returns the lower-cased name key, or "" for resolved identities.
func (i Identity) Name() string { return i.name }

// Key returns the persistence key: the durable identifier itself, or the
// synthetic unresolved-name key for provisional identities.
func (i Identity) Key() string {
	if i.durable != "" {
		return i.durable
	}
	return UnresolvedKeyPrefix + i.name
}

func (i Identity) String() string { return i.Key() }
