// internal/models/match.go
package models

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/codr1/futbolito/internal/balancer"
	"github.com/codr1/futbolito/internal/db"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchClosed    MatchStatus = "closed"
	MatchCancelled MatchStatus = "cancelled"
)

var ErrInvalidMatchStatus = errors.New("status must be scheduled, closed or cancelled")

// ParseMatchStatus accepts a status in any case with surrounding spaces.
func ParseMatchStatus(raw string) (MatchStatus, error) {
	switch status := MatchStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case MatchScheduled, MatchClosed, MatchCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMatchStatus, raw)
	}
}

type AttendanceStatus string

const (
	AttendanceInvited   AttendanceStatus = "invited"
	AttendanceConfirmed AttendanceStatus = "confirmed"
	AttendanceDeclined  AttendanceStatus = "declined"
)

const maxMatchTitleLength = 120

type Match struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Location        string      `json:"location"`
	StartsAt        time.Time   `json:"startsAt"`
	Status          MatchStatus `json:"status"`
	MaxPlayers      int         `json:"maxPlayers"`
	OrganizerEmail  string      `json:"organizerEmail,omitempty"`
	TeamsAssignedAt *time.Time  `json:"teamsAssignedAt,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

func (m Match) Validate() error {
	title := strings.TrimSpace(m.Title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if len(title) > maxMatchTitleLength {
		return fmt.Errorf("title must be %d characters or fewer", maxMatchTitleLength)
	}
	if m.StartsAt.IsZero() {
		return fmt.Errorf("starts_at is required")
	}
	if m.MaxPlayers < 0 {
		return fmt.Errorf("max_players must be 0 or greater")
	}
	if m.OrganizerEmail != "" {
		if _, err := mail.ParseAddress(m.OrganizerEmail); err != nil {
			return fmt.Errorf("organizer_email must be a valid address")
		}
	}
	return nil
}

// Full reports whether confirmed attendance has reached MaxPlayers. Zero
// MaxPlayers means no limit.
func (m Match) Full(confirmed int) bool {
	return m.MaxPlayers > 0 && confirmed >= m.MaxPlayers
}

func MatchFromDB(row db.Match) Match {
	var assignedAt *time.Time
	if row.TeamsAssignedAt.Valid {
		at := row.TeamsAssignedAt.Time
		assignedAt = &at
	}
	return Match{
		ID:              row.ID,
		Title:           row.Title,
		Location:        row.Location,
		StartsAt:        row.StartsAt,
		Status:          MatchStatus(row.Status),
		MaxPlayers:      int(row.MaxPlayers),
		OrganizerEmail:  row.OrganizerEmail,
		TeamsAssignedAt: assignedAt,
		CreatedAt:       row.CreatedAt,
	}
}

type Player struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email,omitempty"`
	Level     int                 `json:"level"`
	Positions []balancer.Position `json:"positions"`
	CreatedAt time.Time           `json:"createdAt"`
}

func PlayerFromDB(row db.Player) (Player, error) {
	positions, err := DecodePositions(row.Positions)
	if err != nil {
		return Player{}, fmt.Errorf("player %d positions: %w", row.ID, err)
	}
	return Player{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email.String,
		Level:     int(row.Level),
		Positions: positions,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Attendee is a player or a guest on a match roster.
type Attendee struct {
	ID          int64               `json:"id"`
	MatchID     int64               `json:"matchId"`
	PlayerID    *int64              `json:"playerId,omitempty"`
	GuestOf     *int64              `json:"guestOf,omitempty"`
	Name        string              `json:"name"`
	Level       int                 `json:"level"`
	Positions   []balancer.Position `json:"positions"`
	Status      AttendanceStatus    `json:"status"`
	RespondedAt *time.Time          `json:"respondedAt,omitempty"`
}

func (a Attendee) IsGuest() bool {
	return a.PlayerID == nil
}

// ToBalancerPlayer carries the attendee ID through balancing so assignments
// can be stored without relying on names.
func (a Attendee) ToBalancerPlayer() balancer.Player {
	return balancer.Player{
		ID:        a.ID,
		Name:      a.Name,
		Level:     a.Level,
		Positions: a.Positions,
	}
}

func AttendeeFromDB(row db.MatchAttendee) (Attendee, error) {
	positions, err := DecodePositions(row.Positions)
	if err != nil {
		return Attendee{}, fmt.Errorf("attendee %d positions: %w", row.ID, err)
	}
	attendee := Attendee{
		ID:        row.ID,
		MatchID:   row.MatchID,
		Name:      row.Name,
		Level:     int(row.Level),
		Positions: positions,
		Status:    AttendanceStatus(row.Status),
	}
	if row.PlayerID.Valid {
		id := row.PlayerID.Int64
		attendee.PlayerID = &id
	}
	if row.GuestOfPlayerID.Valid {
		id := row.GuestOfPlayerID.Int64
		attendee.GuestOf = &id
	}
	if row.RespondedAt.Valid {
		at := row.RespondedAt.Time
		attendee.RespondedAt = &at
	}
	return attendee, nil
}

func AttendeesFromDB(rows []db.MatchAttendee) ([]Attendee, error) {
	attendees := make([]Attendee, 0, len(rows))
	for _, row := range rows {
		attendee, err := AttendeeFromDB(row)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, attendee)
	}
	return attendees, nil
}
