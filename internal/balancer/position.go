// internal/balancer/position.go
package balancer

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPosition = errors.New("unknown position")

// Position is a declared playing role. The zero value is not a valid position.
type Position uint8

const (
	Goalkeeper Position = iota + 1
	Defender
	Midfielder
	Forward
)

var positionTags = map[Position]string{
	Goalkeeper: "GK",
	Defender:   "DEF",
	Midfielder: "MID",
	Forward:    "FWD",
}

// Positions lists every valid position in tag order.
func Positions() []Position {
	return []Position{Goalkeeper, Defender, Midfielder, Forward}
}

// ParsePosition accepts a tag (GK, DEF, MID, FWD), case-insensitively.
func ParsePosition(raw string) (Position, error) {
	tag := strings.ToUpper(strings.TrimSpace(raw))
	for position, name := range positionTags {
		if name == tag {
			return position, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPosition, raw)
}

func (p Position) Valid() bool {
	_, ok := positionTags[p]
	return ok
}

func (p Position) String() string {
	if tag, ok := positionTags[p]; ok {
		return tag
	}
	return fmt.Sprintf("Position(%d)", uint8(p))
}

func (p Position) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPosition, uint8(p))
	}
	return []byte(positionTags[p]), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
