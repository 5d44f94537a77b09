package collector

import "strings"

// Damage-source categories
const (
	CategoryDogZombie   = "Dog Zombie"
	CategoryZombieBear  = "Zombie Bear"
	CategoryMutant      = "Mutant"
	CategoryRunnerBrute = "Runner Brute"
	CategoryRunner      = "Runner"
	CategoryBrute       = "Brute"
	CategoryBloater     = "Bloater"
	CategoryArmoured    = "Armoured"
	CategoryZombie      = "Zombie"
	CategoryBandit      = "Bandit"
	CategoryWolf        = "Wolf"
	CategoryBear        = "Bear"
	CategoryDeer        = "Deer"
	CategorySnake       = "Snake"
	CategorySpider      = "Spider"
	CategoryNPC         = "NPC"
	CategoryPlayer      = "Player"
	CategoryOther       = "Other"
)

// taxonomyRule maps a case-insensitive substring of a raw attacker token to
// a category. Rules are evaluated strictly in order with first-match-wins
// semantics: compound creatures ("Runner Brute", "Zombie Bear", "Dog
// Zombie") must be listed before the plain tokens they contain.
type taxonomyRule struct {
	Match    string
	Category string
}

var damageTaxonomy = []taxonomyRule{
	{"dog zombie", CategoryDogZombie},
	{"zombie bear", CategoryZombieBear},
	{"mutant", CategoryMutant},
	{"runner brute", CategoryRunnerBrute},
	{"runner", CategoryRunner},
	{"brute", CategoryBrute},
	{"bloater", CategoryBloater},
	{"armoured", CategoryArmoured},
	{"zombie", CategoryZombie},
	{"bandit", CategoryBandit},
	{"wolf", CategoryWolf},
	{"bear", CategoryBear},
	{"deer", CategoryDeer},
	{"snake", CategorySnake},
	{"spider", CategorySpider},
	{"npc", CategoryNPC},
}

// environmentActors are building attackers that are neither players nor
// creatures; raid events from these are filtered, not attributed.
var environmentActors = []string{
	"decay",
	"raid protection",
}

// CategorizeDamageSource maps a raw attacker token to its category. A token
// matching no creature rule is a player, unless it carries the structural
// blueprint prefix, in which case it falls to Other.
func CategorizeDamageSource(source string) string {
	s := strings.ToLower(source)
	for _, rule := range damageTaxonomy {
		if strings.Contains(s, rule.Match) {
			return rule.Category
		}
	}
	if strings.HasPrefix(source, itemPrefix) {
		return CategoryOther
	}
	return CategoryPlayer
}

// IsEnvironmentAttacker reports whether a raw building-damage attacker name
// is a known non-player decay/environment actor or any non-player creature.
func IsEnvironmentAttacker(name string) bool {
	s := strings.ToLower(name)
	for _, actor := range environmentActors {
		if strings.Contains(s, actor) {
			return true
		}
	}
	return CategorizeDamageSource(name) != CategoryPlayer
}
