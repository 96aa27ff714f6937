package models

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/codr1/futbolito/internal/balancer"
)

func TestParsePositions(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    []balancer.Position
		wantErr error
	}{
		{name: "none", raw: nil, want: []balancer.Position{}},
		{name: "blank_entries_ignored", raw: []string{"", "  "}, want: []balancer.Position{}},
		{name: "single", raw: []string{"gk"}, want: []balancer.Position{balancer.Goalkeeper}},
		{name: "two_keep_order", raw: []string{"FWD", "DEF"}, want: []balancer.Position{balancer.Forward, balancer.Defender}},
		{name: "three", raw: []string{"GK", "DEF", "MID"}, wantErr: ErrTooManyPositions},
		{name: "duplicate", raw: []string{"MID", "mid"}, wantErr: ErrDuplicatePosition},
		{name: "unknown", raw: []string{"WINGER"}, wantErr: ErrInvalidPosition},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParsePositions(test.raw)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("ParsePositions(%q) error = %v, want %v", test.raw, err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePositions(%q) unexpected error: %v", test.raw, err)
			}
			if !reflect.DeepEqual(got, test.want) {
				t.Fatalf("ParsePositions(%q) = %v, want %v", test.raw, got, test.want)
			}
		})
	}
}

func TestPositionsStoredFormRoundTrip(t *testing.T) {
	encoded := EncodePositions([]balancer.Position{balancer.Midfielder, balancer.Goalkeeper})
	if encoded != "MID,GK" {
		t.Fatalf("EncodePositions = %q, want MID,GK", encoded)
	}
	decoded, err := DecodePositions(encoded)
	if err != nil {
		t.Fatalf("DecodePositions(%q): %v", encoded, err)
	}
	if !reflect.DeepEqual(decoded, []balancer.Position{balancer.Midfielder, balancer.Goalkeeper}) {
		t.Fatalf("DecodePositions(%q) = %v", encoded, decoded)
	}

	empty, err := DecodePositions("")
	if err != nil || len(empty) != 0 {
		t.Fatalf("DecodePositions(\"\") = %v, %v; want empty", empty, err)
	}
}

func TestValidateLevel(t *testing.T) {
	for _, level := range []int{1, 2, 3} {
		if err := ValidateLevel(level); err != nil {
			t.Fatalf("ValidateLevel(%d) unexpected error: %v", level, err)
		}
	}
	for _, level := range []int{-1, 0, 4} {
		if err := ValidateLevel(level); !errors.Is(err, ErrInvalidLevel) {
			t.Fatalf("ValidateLevel(%d) error = %v, want ErrInvalidLevel", level, err)
		}
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "simple", value: "Ana"},
		{name: "accented", value: "José María"},
		{name: "empty", value: "", wantErr: true},
		{name: "whitespace", value: "   ", wantErr: true},
		{name: "too_long", value: strings.Repeat("x", maxPlayerNameLength+1), wantErr: true},
		{name: "control_char", value: "Ana\tBeto", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := ValidateName(test.value)
			if test.wantErr && !errors.Is(err, ErrInvalidName) {
				t.Fatalf("ValidateName(%q) error = %v, want ErrInvalidName", test.value, err)
			}
			if !test.wantErr && err != nil {
				t.Fatalf("ValidateName(%q) unexpected error: %v", test.value, err)
			}
		})
	}
}

func TestBuildRosterReportsEntryNumber(t *testing.T) {
	_, err := BuildRoster([]RosterEntry{
		{Name: "Ana", Level: 3, Positions: []string{"GK"}},
		{Name: "Beto", Level: 5},
	})
	if !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("BuildRoster error = %v, want ErrInvalidLevel", err)
	}
	if !strings.HasPrefix(err.Error(), "player 2:") {
		t.Fatalf("BuildRoster error = %q, want prefix %q", err.Error(), "player 2:")
	}
}

func TestBuildRosterTrimsNames(t *testing.T) {
	players, err := BuildRoster([]RosterEntry{{Name: "  Ana ", Level: 2, Positions: []string{"DEF"}}})
	if err != nil {
		t.Fatalf("BuildRoster: %v", err)
	}
	if players[0].Name != "Ana" {
		t.Fatalf("name = %q, want Ana", players[0].Name)
	}
}

func TestMatchValidate(t *testing.T) {
	kickoff := time.Date(2026, 10, 20, 20, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		match   Match
		wantErr bool
	}{
		{name: "valid", match: Match{Title: "Jueves 8pm", StartsAt: kickoff, MaxPlayers: 14, OrganizerEmail: "org@example.com"}},
		{name: "missing_title", match: Match{StartsAt: kickoff}, wantErr: true},
		{name: "missing_start", match: Match{Title: "Jueves"}, wantErr: true},
		{name: "negative_capacity", match: Match{Title: "Jueves", StartsAt: kickoff, MaxPlayers: -1}, wantErr: true},
		{name: "bad_email", match: Match{Title: "Jueves", StartsAt: kickoff, OrganizerEmail: "nope"}, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.match.Validate()
			if (err != nil) != test.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %t", err, test.wantErr)
			}
		})
	}
}

func TestMatchFull(t *testing.T) {
	if (Match{MaxPlayers: 0}).Full(100) {
		t.Fatal("unlimited match reported full")
	}
	if (Match{MaxPlayers: 10}).Full(9) {
		t.Fatal("match with a free spot reported full")
	}
	if !(Match{MaxPlayers: 10}).Full(10) {
		t.Fatal("match at capacity not reported full")
	}
}

func TestParseMatchStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    MatchStatus
		wantErr bool
	}{
		{raw: "scheduled", want: MatchScheduled},
		{raw: " Closed ", want: MatchClosed},
		{raw: "CANCELLED", want: MatchCancelled},
		{raw: "", wantErr: true},
		{raw: "postponed", wantErr: true},
	}

	for _, test := range tests {
		got, err := ParseMatchStatus(test.raw)
		if test.wantErr {
			if !errors.Is(err, ErrInvalidMatchStatus) {
				t.Fatalf("ParseMatchStatus(%q) error = %v, want ErrInvalidMatchStatus", test.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseMatchStatus(%q): %v", test.raw, err)
		}
		if got != test.want {
			t.Fatalf("ParseMatchStatus(%q) = %q, want %q", test.raw, got, test.want)
		}
	}
}
