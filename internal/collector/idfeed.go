package collector

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// Matches one identifier-feed entry:
//
//	76561198000000001_+_|opaque-token@Bob
var idFeedRegex = regexp.MustCompile(`^(\d{17})_\+_\|[^@]*@(.+)$`)

// ParseIdentityFeed reads the external identifier-mapping feed and returns
// lower-cased display name to durable identifier. An earlier entry for the
// same name wins. Malformed lines are ignored; a missing feed degrades to
// an empty map upstream.
func ParseIdentityFeed(r io.Reader) (map[string]string, error) {
	mapping := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		if line == "" {
			continue
		}
		match := idFeedRegex.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(match[2]))
		if name == "" {
			continue
		}
		if _, ok := mapping[name]; !ok {
			mapping[name] = match[1]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return mapping, nil
}
