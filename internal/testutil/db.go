package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/codr1/futbolito/internal/db"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// CreateMatch inserts a scheduled match kicking off at startsAt.
func CreateMatch(t *testing.T, database *db.DB, title string, startsAt time.Time) db.Match {
	t.Helper()

	match, err := database.Queries.CreateMatch(context.Background(), db.CreateMatchParams{
		Title:          title,
		Location:       "Cancha 3",
		StartsAt:       startsAt,
		OrganizerEmail: "organizer@example.com",
	})
	if err != nil {
		t.Fatalf("create match %q: %v", title, err)
	}
	return match
}

// CreatePlayer inserts a player; positions is the stored comma-separated form.
func CreatePlayer(t *testing.T, database *db.DB, name string, level int64, positions string) db.Player {
	t.Helper()

	player, err := database.Queries.CreatePlayer(context.Background(), db.CreatePlayerParams{
		Name:      name,
		Level:     level,
		Positions: positions,
	})
	if err != nil {
		t.Fatalf("create player %q: %v", name, err)
	}
	return player
}

// ConfirmPlayer records player as confirmed for match at respondedAt.
func ConfirmPlayer(t *testing.T, database *db.DB, match db.Match, player db.Player, respondedAt time.Time) db.MatchAttendee {
	t.Helper()

	attendee, err := database.Queries.CreateAttendee(context.Background(), db.CreateAttendeeParams{
		MatchID:     match.ID,
		PlayerID:    sql.NullInt64{Int64: player.ID, Valid: true},
		Name:        player.Name,
		Level:       player.Level,
		Positions:   player.Positions,
		Status:      "confirmed",
		RespondedAt: sql.NullTime{Time: respondedAt, Valid: true},
	})
	if err != nil {
		t.Fatalf("confirm player %q: %v", player.Name, err)
	}
	return attendee
}
