package matches

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codr1/futbolito/internal/balancer"
	"github.com/codr1/futbolito/internal/db"
	"github.com/codr1/futbolito/internal/models"
	"github.com/codr1/futbolito/internal/testutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu      sync.Mutex
	lineups []Lineup
}

func (n *recordingNotifier) NotifyLineup(_ context.Context, lineup Lineup) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lineups = append(n.lineups, lineup)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.lineups)
}

var testNow = time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *db.DB, *fakeClock, *recordingNotifier) {
	t.Helper()

	database := testutil.NewTestDB(t)
	clock := &fakeClock{now: testNow}
	notifier := &recordingNotifier{}
	engine, err := NewEngine(database, Options{Clock: clock, Notifier: notifier, LeadTime: time.Hour})
	require.NoError(t, err)
	return engine, database, clock, notifier
}

func confirmAll(t *testing.T, engine *Engine, clock *fakeClock, match db.Match, players ...db.Player) []models.Attendee {
	t.Helper()

	attendees := make([]models.Attendee, 0, len(players))
	for _, player := range players {
		clock.Advance(time.Minute)
		attendee, err := engine.ConfirmAttendance(context.Background(), match.ID, player.ID)
		require.NoError(t, err)
		attendees = append(attendees, attendee)
	}
	return attendees
}

func playerNames(players []LineupPlayer) []string {
	names := make([]string, 0, len(players))
	for _, player := range players {
		names = append(names, player.Name)
	}
	return names
}

func TestNewEngineRequiresDatabase(t *testing.T) {
	_, err := NewEngine(nil, Options{})
	require.Error(t, err)
}

func TestBalanceMatchPersistsLineup(t *testing.T) {
	ctx := context.Background()
	engine, database, clock, notifier := newTestEngine(t)

	match := testutil.CreateMatch(t, database, "Jueves", testNow.Add(48*time.Hour))
	ana := testutil.CreatePlayer(t, database, "Ana", 3, "GK")
	beto := testutil.CreatePlayer(t, database, "Beto", 2, "GK")
	caro := testutil.CreatePlayer(t, database, "Caro", 3, "DEF")
	dani := testutil.CreatePlayer(t, database, "Dani", 1, "MID")
	confirmAll(t, engine, clock, match, ana, beto, caro, dani)

	lineup, err := engine.BalanceMatch(ctx, match.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"Ana", "Dani"}, playerNames(lineup.TeamA.Players))
	assert.Equal(t, []string{"Beto", "Caro"}, playerNames(lineup.TeamB.Players))
	assert.Equal(t, 4, lineup.TeamA.Score)
	assert.Equal(t, 5, lineup.TeamB.Score)
	assert.Equal(t, 1, lineup.Difference())
	assert.Empty(t, lineup.Warnings)
	assert.Equal(t, SourceManual, lineup.Source)
	require.NotNil(t, lineup.Match.TeamsAssignedAt)

	stored, err := engine.Lineup(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, lineup.TeamA, stored.TeamA)
	assert.Equal(t, lineup.TeamB, stored.TeamB)
	assert.Equal(t, []string{}, stored.Warnings)
	assert.Equal(t, SourceManual, stored.Source)
	assert.True(t, stored.AssignedAt.Equal(lineup.AssignedAt))

	assert.Equal(t, 1, notifier.count())
}

func TestBalanceMatchRecordsWarnings(t *testing.T) {
	ctx := context.Background()
	engine, database, clock, _ := newTestEngine(t)

	match := testutil.CreateMatch(t, database, "Sin arquero", testNow.Add(24*time.Hour))
	confirmAll(t, engine, clock, match,
		testutil.CreatePlayer(t, database, "Ana", 2, "DEF"),
		testutil.CreatePlayer(t, database, "Beto", 2, "FWD"),
	)

	_, err := engine.BalanceMatch(ctx, match.ID)
	require.NoError(t, err)

	stored, err := engine.Lineup(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{balancer.WarningNoGoalkeepers}, stored.Warnings)
}

func TestBalanceMatchIncludesGuestsWithSharedNames(t *testing.T) {
	ctx := context.Background()
	engine, database, clock, _ := newTestEngine(t)

	match := testutil.CreateMatch(t, database, "Con invitados", testNow.Add(24*time.Hour))
	ana := testutil.CreatePlayer(t, database, "Ana", 2, "MID")
	confirmAll(t, engine, clock, match, ana)
	_, err := engine.AddGuest(ctx, match.ID, Guest{Name: "Ana", Level: 2, Positions: []balancer.Position{balancer.Midfielder}, GuestOf: ana.ID})
	require.NoError(t, err)

	lineup, err := engine.BalanceMatch(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, lineup.TeamA.Players, 1)
	require.Len(t, lineup.TeamB.Players, 1)
	assert.NotEqual(t, lineup.TeamA.Players[0].AttendeeID, lineup.TeamB.Players[0].AttendeeID)
}

func TestBalanceMatchReplacesPreviousAssignment(t *testing.T) {
	ctx := context.Background()
	engine, database, clock, notifier := newTestEngine(t)

	match := testutil.CreateMatch(t, database, "Rebalanceo", testNow.Add(24*time.Hour))
	ana := testutil.CreatePlayer(t, database, "Ana", 3, "GK")
	beto := testutil.CreatePlayer(t, database, "Beto", 2, "GK")
	caro := testutil.CreatePlayer(t, database, "Caro", 1, "FWD")
	confirmAll(t, engine, clock, match, ana, beto, caro)

	_, err := engine.BalanceMatch(ctx, match.ID)
	require.NoError(t, err)

	_, err = engine.DeclineAttendance(ctx, match.ID, caro.ID)
	require.NoError(t, err)

	lineup, err := engine.BalanceMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana"}, playerNames(lineup.TeamA.Players))
	assert.Equal(t, []string{"Beto"}, playerNames(lineup.TeamB.Players))

	stored, err := engine.Lineup(ctx, match.ID)
	require.NoError(t, err)
	assert.Len(t, stored.TeamA.Players, 1)
	assert.Len(t, stored.TeamB.Players, 1)
	assert.Equal(t, 2, notifier.count())
}

func TestBalanceMatchEmptyRoster(t *testing.T) {
	ctx := context.Background()
	engine, database, _, _ := newTestEngine(t)

	match := testutil.CreateMatch(t, database, "Vacio", testNow.Add(24*time.Hour))
	lineup, err := engine.BalanceMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Empty(t, lineup.TeamA.Players)
	assert.Empty(t, lineup.TeamB.Players)
	assert.Equal(t, []string{balancer.WarningNoGoalkeepers}, lineup.Warnings)
}

func TestBalanceMatchRejectsUnknownOrClosedMatch(t *testing.T) {
	ctx := context.Background()
	engine, database, _, notifier := newTestEngine(t)

	_, err := engine.BalanceMatch(ctx, 999)
	require.ErrorIs(t, err, ErrMatchNotFound)

	match := testutil.CreateMatch(t, database, "Suspendido", testNow.Add(24*time.Hour))
	_, err = database.Queries.UpdateMatchStatus(ctx, db.UpdateMatchStatusParams{ID: match.ID, Status: string(models.MatchCancelled)})
	require.NoError(t, err)

	_, err = engine.BalanceMatch(ctx, match.ID)
	require.ErrorIs(t, err, ErrMatchNotScheduled)
	assert.Equal(t, 0, notifier.count())
}

func TestLineupBeforeBalancing(t *testing.T) {
	ctx := context.Background()
	engine, database, _, _ := newTestEngine(t)

	match := testutil.CreateMatch(t, database, "Pendiente", testNow.Add(24*time.Hour))
	_, err := engine.Lineup(ctx, match.ID)
	require.ErrorIs(t, err, ErrTeamsNotAssigned)

	_, err = engine.Lineup(ctx, 999)
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestBalanceMatchesApproachingKickoff(t *testing.T) {
	ctx := context.Background()
	engine, database, clock, _ := newTestEngine(t)

	soon := testutil.CreateMatch(t, database, "Pronto", testNow.Add(30*time.Minute))
	later := testutil.CreateMatch(t, database, "Despues", testNow.Add(2*time.Hour))
	past := testutil.CreateMatch(t, database, "Pasado", testNow.Add(-10*time.Minute))
	cancelled := testutil.CreateMatch(t, database, "Cancelado", testNow.Add(20*time.Minute))
	_, err := database.Queries.UpdateMatchStatus(ctx, db.UpdateMatchStatusParams{ID: cancelled.ID, Status: string(models.MatchCancelled)})
	require.NoError(t, err)

	confirmAll(t, engine, clock, soon, testutil.CreatePlayer(t, database, "Ana", 2, "GK"))

	balanced, err := engine.BalanceMatchesApproachingKickoff(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, balanced)

	lineup, err := engine.Lineup(ctx, soon.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceAuto, lineup.Source)
	assert.Equal(t, []string{"Ana"}, playerNames(lineup.TeamA.Players))

	for _, id := range []int64{later.ID, past.ID, cancelled.ID} {
		_, err := engine.Lineup(ctx, id)
		assert.ErrorIs(t, err, ErrTeamsNotAssigned)
	}

	balanced, err = engine.BalanceMatchesApproachingKickoff(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, balanced)
}

func TestLineupReportsScoresOfBalanceRun(t *testing.T) {
	ctx := context.Background()
	engine, database, clock, _ := newTestEngine(t)

	match := testutil.CreateMatch(t, database, "Puntajes", testNow.Add(24*time.Hour))
	confirmAll(t, engine, clock, match,
		testutil.CreatePlayer(t, database, "Ana", 3, "GK"),
		testutil.CreatePlayer(t, database, "Beto", 2, "GK"),
	)
	lineup, err := engine.BalanceMatch(ctx, match.ID)
	require.NoError(t, err)

	_, err = database.ExecContext(ctx, `UPDATE match_attendees SET level = 1 WHERE match_id = ?`, match.ID)
	require.NoError(t, err)

	stored, err := engine.Lineup(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, lineup.TeamA.Score, stored.TeamA.Score)
	assert.Equal(t, lineup.TeamB.Score, stored.TeamB.Score)
	assert.Equal(t, 1, stored.Difference())
}

func TestSetMatchStatus(t *testing.T) {
	ctx := context.Background()
	engine, database, clock, _ := newTestEngine(t)

	match := testutil.CreateMatch(t, database, "Pronto", testNow.Add(30*time.Minute))
	ana := testutil.CreatePlayer(t, database, "Ana", 2, "GK")
	confirmAll(t, engine, clock, match, ana)

	cancelled, err := engine.SetMatchStatus(ctx, match.ID, models.MatchCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCancelled, cancelled.Status)

	_, err = engine.DeclineAttendance(ctx, match.ID, ana.ID)
	require.ErrorIs(t, err, ErrMatchNotScheduled)

	balanced, err := engine.BalanceMatchesApproachingKickoff(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, balanced)

	again, err := engine.SetMatchStatus(ctx, match.ID, models.MatchCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCancelled, again.Status)

	reopened, err := engine.SetMatchStatus(ctx, match.ID, models.MatchScheduled)
	require.NoError(t, err)
	assert.Equal(t, models.MatchScheduled, reopened.Status)

	balanced, err = engine.BalanceMatchesApproachingKickoff(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, balanced)
}

func TestSetMatchStatusErrors(t *testing.T) {
	ctx := context.Background()
	engine, database, _, _ := newTestEngine(t)

	match := testutil.CreateMatch(t, database, "Jueves", testNow.Add(24*time.Hour))

	_, err := engine.SetMatchStatus(ctx, match.ID, models.MatchStatus("postponed"))
	require.ErrorIs(t, err, models.ErrInvalidMatchStatus)

	_, err = engine.SetMatchStatus(ctx, 999, models.MatchClosed)
	require.ErrorIs(t, err, ErrMatchNotFound)

	row, err := database.Queries.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.MatchScheduled), row.Status)
}
