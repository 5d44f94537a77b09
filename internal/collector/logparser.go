package collector

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LogEvent represents a parsed event from the raw game log.
type LogEvent struct {
	Timestamp time.Time
	Type      string
	Data      interface{}
}

// Event types
const (
	EventTypeDeath       = "death"
	EventTypeBuild       = "build"
	EventTypeDamage      = "damage"
	EventTypeLoot        = "loot"
	EventTypeRaid        = "raid"
	EventTypeAdminAccess = "admin_access"
	EventTypeCheatFlag   = "cheat_flag"
)

// Cheat flag types
const (
	CheatTypeTeleport  = "teleport"
	CheatTypeItemSpawn = "itemspawn"
)

// Event data structures
type DeathData struct {
	Name string
}

type BuildData struct {
	Name     string
	PlayerID string
	RawItem  string
	Item     string // simplified item name
}

type DamageData struct {
	Name     string
	Amount   float64
	Source   string
	Category string
}

type LootData struct {
	Name     string
	PlayerID string
	OwnerID  string
}

type RaidData struct {
	Description string
	OwnerID     string
	Amount      float64
	Attacker    string
	AttackerID  string // empty when the log line carries no identifier
	Destroyed   bool
}

type AdminAccessData struct {
	Name string
}

type CheatFlagData struct {
	Name     string
	PlayerID string
	FlagType string
}

// Regular expressions for parsing log lines
var (
	// Matches the fixed envelope: (DD/MM/YYYY HH:MM) <body>
	// Day, month, hour and minute are not zero-padded by the server.
	envelopeRegex = regexp.MustCompile(`^\((\d{1,2})/(\d{1,2})/(\d{4}) (\d{1,2}):(\d{1,2})\) (.*)$`)

	// Event patterns (after the envelope is stripped)
	deathRegex       = regexp.MustCompile(`^Player died \((.+)\)$`)
	buildRegex       = regexp.MustCompile(`^(.+?)\((\d{17})[^)]*\) finished building (.+)$`)
	damageRegex      = regexp.MustCompile(`^(.+?) took (-?[0-9.]+) damage from (.+)$`)
	lootRegex        = regexp.MustCompile(`^(.+?)\((\d{17})[^)]*\) looted a container \((.*?)\) owner by (\d+)`)
	raidRegex        = regexp.MustCompile(`^Building \((.+?)\) owned by \(([^)]*)\) damaged \((-?[0-9.]+)\) by (.+?)( \(Destroyed\))?$`)
	adminRegex       = regexp.MustCompile(`^(.+?) gained admin access!$`)
	cheatRegex       = regexp.MustCompile(`^(Teleport anomaly detected|Item spawn anomaly detected).*\((.+?) - (\d{17})`)
	attackerIDRegex  = regexp.MustCompile(`^(.*?)\((\d{17})[^)]*\)$`)
	durableIDRegex   = regexp.MustCompile(`^(\d{17})`)
	itemVariantRegex = regexp.MustCompile(`(?:_C)?(?:_\d+)?$`)
)

// itemPrefix is the structural blueprint prefix carried by raw item names.
const itemPrefix = "BP_"

// ParseStats counts line-level coverage for one log pass.
type ParseStats struct {
	Lines     int // non-empty lines seen
	Parsed    int // lines classified into an event
	Skipped   int // lines that did not match the envelope
	Unmodeled int // valid envelope, unrecognized body (intentionally tolerated)
}

// ParseLog reads a complete log snapshot and returns the classified events
// in file order. Lines that do not match the envelope are counted as
// skipped; bodies that match no known pattern are counted but otherwise
// ignored. Neither is an error.
func ParseLog(r io.Reader) ([]LogEvent, ParseStats, error) {
	var events []LogEvent
	var stats ParseStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		if line == "" {
			continue
		}
		stats.Lines++

		event, ok := ParseLine(line)
		if !ok {
			stats.Skipped++
			continue
		}
		if event == nil {
			stats.Unmodeled++
			continue
		}
		stats.Parsed++
		events = append(events, *event)
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, err
	}
	return events, stats, nil
}

// ParseLine parses a single log line. The second return value is false when
// the line does not match the timestamp envelope. A (nil, true) result means
// the envelope was valid but the body matched no known event pattern.
func ParseLine(line string) (*LogEvent, bool) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "\uFEFF"))

	match := envelopeRegex.FindStringSubmatch(line)
	if match == nil {
		return nil, false
	}
	timestamp := envelopeTime(match[1], match[2], match[3], match[4], match[5])
	body := match[6]

	event := classifyBody(body)
	if event == nil {
		return nil, true
	}
	event.Timestamp = timestamp
	return event, true
}

// classifyBody applies the ordered body-pattern rules. First match wins;
// later rules are never attempted once one matches.
func classifyBody(body string) *LogEvent {
	if match := deathRegex.FindStringSubmatch(body); match != nil {
		return &LogEvent{Type: EventTypeDeath, Data: DeathData{Name: match[1]}}
	}

	if match := buildRegex.FindStringSubmatch(body); match != nil {
		return &LogEvent{Type: EventTypeBuild, Data: BuildData{
			Name:     match[1],
			PlayerID: match[2],
			RawItem:  match[3],
			Item:     SimplifyItemName(match[3]),
		}}
	}

	if match := damageRegex.FindStringSubmatch(body); match != nil {
		amount, _ := strconv.ParseFloat(match[2], 64)
		return &LogEvent{Type: EventTypeDamage, Data: DamageData{
			Name:     match[1],
			Amount:   amount,
			Source:   match[3],
			Category: CategorizeDamageSource(match[3]),
		}}
	}

	if match := lootRegex.FindStringSubmatch(body); match != nil {
		return &LogEvent{Type: EventTypeLoot, Data: LootData{
			Name:     match[1],
			PlayerID: match[2],
			OwnerID:  match[4],
		}}
	}

	if match := raidRegex.FindStringSubmatch(body); match != nil {
		amount, _ := strconv.ParseFloat(match[3], 64)
		data := RaidData{
			Description: match[1],
			Amount:      amount,
			Attacker:    match[4],
			Destroyed:   match[5] != "",
		}
		// Owner field may be malformed; a missing identifier suppresses the
		// event downstream rather than failing the line.
		if owner := durableIDRegex.FindStringSubmatch(match[2]); owner != nil {
			data.OwnerID = owner[1]
		}
		if attacker := attackerIDRegex.FindStringSubmatch(data.Attacker); attacker != nil {
			data.Attacker = strings.TrimSpace(attacker[1])
			data.AttackerID = attacker[2]
		}
		return &LogEvent{Type: EventTypeRaid, Data: data}
	}

	if match := adminRegex.FindStringSubmatch(body); match != nil {
		return &LogEvent{Type: EventTypeAdminAccess, Data: AdminAccessData{Name: match[1]}}
	}

	if match := cheatRegex.FindStringSubmatch(body); match != nil {
		flag := CheatTypeTeleport
		if strings.HasPrefix(match[1], "Item spawn") {
			flag = CheatTypeItemSpawn
		}
		return &LogEvent{Type: EventTypeCheatFlag, Data: CheatFlagData{
			Name:     match[2],
			PlayerID: match[3],
			FlagType: flag,
		}}
	}

	// Unmodeled log content, intentionally tolerated
	return nil
}

// SimplifyItemName reduces a raw blueprint item name to a display name:
// the structural prefix is stripped, the trailing class marker and numeric
// variant tag removed, and separators replaced with spaces.
func SimplifyItemName(raw string) string {
	s := strings.TrimPrefix(raw, itemPrefix)
	s = itemVariantRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.TrimSpace(s)
}

// envelopeTime builds the UTC instant from envelope fields. The server
// writes local-free wall time; it is treated as UTC regardless of locale.
func envelopeTime(day, month, year, hour, minute string) time.Time {
	d, _ := strconv.Atoi(day)
	m, _ := strconv.Atoi(month)
	y, _ := strconv.Atoi(year)
	h, _ := strconv.Atoi(hour)
	min, _ := strconv.Atoi(minute)
	return time.Date(y, time.Month(m), d, h, min, 0, 0, time.UTC)
}
