package collector

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/mvolk/zedstats/internal/domain"
)

// Matches one connect-log line:
//
//	Player Connected Bob NetID(76561198000000001abc) (5/6/2024 14:30)
var connectRegex = regexp.MustCompile(`^Player (Connected|Disconnected) (.+?) NetID\((\d{17})[^)]*\) \((\d{1,2})/(\d{1,2})/(\d{4}) (\d{1,2}):(\d{1,2})\)$`)

// ParseConnectLog reads the connect/disconnect feed and returns its events
// in file order, plus the number of lines that did not match.
func ParseConnectLog(r io.Reader) ([]domain.SessionEvent, int, error) {
	var events []domain.SessionEvent
	skipped := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		if line == "" {
			continue
		}
		event, ok := ParseConnectLine(line)
		if !ok {
			skipped++
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, err
	}
	return events, skipped, nil
}

// ParseConnectLine parses a single connect-log line.
func ParseConnectLine(line string) (domain.SessionEvent, bool) {
	match := connectRegex.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return domain.SessionEvent{}, false
	}
	return domain.SessionEvent{
		Action:    domain.SessionAction(match[1]),
		Name:      match[2],
		DurableID: match[3],
		Instant:   envelopeTime(match[4], match[5], match[6], match[7], match[8]),
	}, true
}
