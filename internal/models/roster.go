// internal/models/roster.go
package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/codr1/futbolito/internal/balancer"
)

const (
	MinLevel            = 1
	MaxLevel            = 3
	MaxPositions        = 2
	maxPlayerNameLength = 60
	positionSeparator   = ","
)

var (
	ErrInvalidName        = errors.New("invalid player name")
	ErrInvalidLevel       = errors.New("level must be 1, 2 or 3")
	ErrInvalidPosition    = errors.New("invalid position")
	ErrTooManyPositions   = fmt.Errorf("at most %d positions may be declared", MaxPositions)
	ErrDuplicatePosition  = errors.New("position declared twice")
	playerNameControlChar = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if len(trimmed) > maxPlayerNameLength {
		return fmt.Errorf("%w: name must be %d characters or fewer", ErrInvalidName, maxPlayerNameLength)
	}
	if playerNameControlChar.MatchString(trimmed) {
		return fmt.Errorf("%w: name must not contain control characters", ErrInvalidName)
	}
	return nil
}

func ValidateLevel(level int) error {
	if level < MinLevel || level > MaxLevel {
		return fmt.Errorf("%w (got %d)", ErrInvalidLevel, level)
	}
	return nil
}

// ParsePositions converts raw tags into positions. Blank entries are ignored;
// unknown tags, duplicates and more than MaxPositions entries are rejected.
func ParsePositions(raw []string) ([]balancer.Position, error) {
	positions := make([]balancer.Position, 0, len(raw))
	for _, tag := range raw {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		position, err := balancer.ParsePosition(tag)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPosition, tag)
		}
		for _, existing := range positions {
			if existing == position {
				return nil, fmt.Errorf("%w: %s", ErrDuplicatePosition, position)
			}
		}
		positions = append(positions, position)
	}
	if len(positions) > MaxPositions {
		return nil, ErrTooManyPositions
	}
	return positions, nil
}

// EncodePositions renders positions in their stored comma-separated form.
func EncodePositions(positions []balancer.Position) string {
	return strings.Join(PositionTags(positions), positionSeparator)
}

// DecodePositions parses the stored comma-separated form.
func DecodePositions(stored string) ([]balancer.Position, error) {
	if strings.TrimSpace(stored) == "" {
		return []balancer.Position{}, nil
	}
	return ParsePositions(strings.Split(stored, positionSeparator))
}

func PositionTags(positions []balancer.Position) []string {
	tags := make([]string, 0, len(positions))
	for _, position := range positions {
		tags = append(tags, position.String())
	}
	return tags
}

// RosterEntry is unvalidated player input from an API request or a roster
// file.
type RosterEntry struct {
	Name      string   `json:"name" yaml:"name"`
	Level     int      `json:"level" yaml:"level"`
	Positions []string `json:"positions" yaml:"positions"`
}

// ToBalancerPlayer validates the entry and converts it for balancing.
func (e RosterEntry) ToBalancerPlayer() (balancer.Player, error) {
	if err := ValidateName(e.Name); err != nil {
		return balancer.Player{}, err
	}
	if err := ValidateLevel(e.Level); err != nil {
		return balancer.Player{}, err
	}
	positions, err := ParsePositions(e.Positions)
	if err != nil {
		return balancer.Player{}, err
	}
	return balancer.Player{
		Name:      strings.TrimSpace(e.Name),
		Level:     e.Level,
		Positions: positions,
	}, nil
}

// BuildRoster converts entries in order, reporting the first invalid one by
// its position in the list.
func BuildRoster(entries []RosterEntry) ([]balancer.Player, error) {
	players := make([]balancer.Player, 0, len(entries))
	for idx, entry := range entries {
		player, err := entry.ToBalancerPlayer()
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", idx+1, err)
		}
		players = append(players, player)
	}
	return players, nil
}
