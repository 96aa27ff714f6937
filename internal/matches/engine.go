// internal/matches/engine.go
package matches

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/futbolito/internal/balancer"
	"github.com/codr1/futbolito/internal/db"
	"github.com/codr1/futbolito/internal/models"
)

const (
	SourceManual = "manual"
	SourceAuto   = "auto"

	teamACode = "A"
	teamBCode = "B"

	DefaultLeadTime = time.Hour
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchNotScheduled = errors.New("match is not scheduled")
	ErrMatchFull         = errors.New("match is full")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrTeamsNotAssigned  = errors.New("teams have not been assigned")
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Notifier is told about every persisted lineup. Implementations must not
// block the caller.
type Notifier interface {
	NotifyLineup(ctx context.Context, lineup Lineup)
}

type Options struct {
	Clock    Clock
	Notifier Notifier
	// LeadTime is how long before kickoff automatic balancing picks a match up.
	LeadTime time.Duration
}

type Engine struct {
	db       *db.DB
	clock    Clock
	notifier Notifier
	leadTime time.Duration
}

func NewEngine(database *db.DB, opts Options) (*Engine, error) {
	if database == nil {
		return nil, errors.New("match engine requires a database")
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.LeadTime <= 0 {
		opts.LeadTime = DefaultLeadTime
	}
	return &Engine{
		db:       database,
		clock:    opts.Clock,
		notifier: opts.Notifier,
		leadTime: opts.LeadTime,
	}, nil
}

func (e *Engine) LeadTime() time.Duration {
	return e.leadTime
}

// LineupPlayer is a confirmed attendee placed on a team.
type LineupPlayer struct {
	AttendeeID int64               `json:"attendeeId"`
	Name       string              `json:"name"`
	Level      int                 `json:"level"`
	Positions  []balancer.Position `json:"positions"`
}

type LineupTeam struct {
	Name    string         `json:"name"`
	Score   int            `json:"score"`
	Players []LineupPlayer `json:"players"`
}

// Lineup is the persisted team assignment of a match.
type Lineup struct {
	Match      models.Match `json:"match"`
	TeamA      LineupTeam   `json:"teamA"`
	TeamB      LineupTeam   `json:"teamB"`
	Warnings   []string     `json:"warnings"`
	Source     string       `json:"source"`
	AssignedAt time.Time    `json:"assignedAt"`
}

func (l Lineup) Difference() int {
	diff := l.TeamA.Score - l.TeamB.Score
	if diff < 0 {
		return -diff
	}
	return diff
}

// BalanceMatch splits the confirmed attendees of a scheduled match into two
// teams and replaces any previous assignment.
func (e *Engine) BalanceMatch(ctx context.Context, matchID int64) (Lineup, error) {
	return e.balanceMatch(ctx, matchID, SourceManual)
}

func (e *Engine) balanceMatch(ctx context.Context, matchID int64, source string) (Lineup, error) {
	if e == nil || e.db == nil || e.db.Queries == nil {
		return Lineup{}, errors.New("match engine not initialized")
	}

	logger := log.Ctx(ctx).With().
		Str("component", "match_engine").
		Int64("match_id", matchID).
		Str("source", source).
		Logger()

	var lineup Lineup
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		match, err := loadScheduledMatch(ctx, txdb.Queries, matchID)
		if err != nil {
			return err
		}

		rows, err := txdb.Queries.ListConfirmedAttendees(ctx, matchID)
		if err != nil {
			return fmt.Errorf("list confirmed attendees: %w", err)
		}
		attendees, err := models.AttendeesFromDB(rows)
		if err != nil {
			return err
		}
		players := make([]balancer.Player, 0, len(attendees))
		for _, attendee := range attendees {
			players = append(players, attendee.ToBalancerPlayer())
		}

		result := balancer.Balance(players)
		assignedAt := e.clock.Now().UTC()

		if err := txdb.Queries.DeleteTeamAssignments(ctx, matchID); err != nil {
			return fmt.Errorf("clear team assignments: %w", err)
		}
		if err := storeTeam(ctx, txdb.Queries, matchID, teamACode, result.TeamA); err != nil {
			return err
		}
		if err := storeTeam(ctx, txdb.Queries, matchID, teamBCode, result.TeamB); err != nil {
			return err
		}

		warnings, err := json.Marshal(result.Warnings)
		if err != nil {
			return fmt.Errorf("encode warnings: %w", err)
		}
		if _, err := txdb.Queries.CreateBalanceRun(ctx, db.CreateBalanceRunParams{
			MatchID:   matchID,
			ScoreA:    int64(result.TeamA.Score),
			ScoreB:    int64(result.TeamB.Score),
			Warnings:  string(warnings),
			Source:    source,
			CreatedAt: assignedAt,
		}); err != nil {
			return fmt.Errorf("record balance run: %w", err)
		}

		if err := txdb.Queries.MarkTeamsAssigned(ctx, db.MarkTeamsAssignedParams{
			ID:         matchID,
			AssignedAt: assignedAt,
		}); err != nil {
			return fmt.Errorf("mark teams assigned: %w", err)
		}
		match.TeamsAssignedAt = &assignedAt

		lineup = Lineup{
			Match:      match,
			TeamA:      lineupTeam(result.TeamA),
			TeamB:      lineupTeam(result.TeamB),
			Warnings:   result.Warnings,
			Source:     source,
			AssignedAt: assignedAt,
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to balance match")
		return Lineup{}, err
	}

	logger.Info().
		Str("decision", "teams_assigned").
		Int("team_a_score", lineup.TeamA.Score).
		Int("team_b_score", lineup.TeamB.Score).
		Int("team_a_size", len(lineup.TeamA.Players)).
		Int("team_b_size", len(lineup.TeamB.Players)).
		Strs("warnings", lineup.Warnings).
		Msg("Balanced match")

	if e.notifier != nil {
		e.notifier.NotifyLineup(ctx, lineup)
	}
	return lineup, nil
}

func storeTeam(ctx context.Context, q *db.Queries, matchID int64, code string, team balancer.Team) error {
	for slot, player := range team.Players {
		if err := q.CreateTeamAssignment(ctx, db.TeamAssignment{
			MatchID:    matchID,
			AttendeeID: player.ID,
			Team:       code,
			Slot:       int64(slot),
		}); err != nil {
			return fmt.Errorf("assign attendee %d to team %s: %w", player.ID, code, err)
		}
	}
	return nil
}

func lineupTeam(team balancer.Team) LineupTeam {
	players := make([]LineupPlayer, 0, len(team.Players))
	for _, player := range team.Players {
		players = append(players, LineupPlayer{
			AttendeeID: player.ID,
			Name:       player.Name,
			Level:      player.Level,
			Positions:  player.Positions,
		})
	}
	return LineupTeam{Name: team.Name, Score: team.Score, Players: players}
}

// Lineup returns the stored assignment of a match. Team scores come from the
// balance run that produced it.
func (e *Engine) Lineup(ctx context.Context, matchID int64) (Lineup, error) {
	row, err := e.db.Queries.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lineup{}, ErrMatchNotFound
		}
		return Lineup{}, fmt.Errorf("load match %d: %w", matchID, err)
	}
	match := models.MatchFromDB(row)
	if match.TeamsAssignedAt == nil {
		return Lineup{}, ErrTeamsNotAssigned
	}

	run, err := e.db.Queries.GetLatestBalanceRun(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lineup{}, ErrTeamsNotAssigned
		}
		return Lineup{}, fmt.Errorf("load balance run: %w", err)
	}
	warnings := []string{}
	if err := json.Unmarshal([]byte(run.Warnings), &warnings); err != nil {
		return Lineup{}, fmt.Errorf("decode warnings of balance run %d: %w", run.ID, err)
	}

	assignments, err := e.db.Queries.ListTeamAssignments(ctx, matchID)
	if err != nil {
		return Lineup{}, fmt.Errorf("list team assignments: %w", err)
	}

	lineup := Lineup{
		Match:      match,
		TeamA:      LineupTeam{Name: balancer.TeamAName, Score: int(run.ScoreA), Players: []LineupPlayer{}},
		TeamB:      LineupTeam{Name: balancer.TeamBName, Score: int(run.ScoreB), Players: []LineupPlayer{}},
		Warnings:   warnings,
		Source:     run.Source,
		AssignedAt: *match.TeamsAssignedAt,
	}
	for _, assignment := range assignments {
		positions, err := models.DecodePositions(assignment.Positions)
		if err != nil {
			return Lineup{}, fmt.Errorf("attendee %d positions: %w", assignment.AttendeeID, err)
		}
		player := LineupPlayer{
			AttendeeID: assignment.AttendeeID,
			Name:       assignment.Name,
			Level:      int(assignment.Level),
			Positions:  positions,
		}
		team := &lineup.TeamA
		if assignment.Team == teamBCode {
			team = &lineup.TeamB
		}
		team.Players = append(team.Players, player)
	}
	return lineup, nil
}

// BalanceMatchesApproachingKickoff assigns teams for every scheduled match
// without a lineup that kicks off within the lead time after now. A failing
// match is logged and skipped. It returns the number of matches balanced.
func (e *Engine) BalanceMatchesApproachingKickoff(ctx context.Context, now time.Time) (int, error) {
	if e == nil || e.db == nil || e.db.Queries == nil {
		return 0, errors.New("match engine not initialized")
	}
	if now.IsZero() {
		now = e.clock.Now()
	}

	logger := log.Ctx(ctx).With().
		Str("component", "match_engine").
		Time("comparison_time", now).
		Dur("lead_time", e.leadTime).
		Logger()

	upcoming, err := e.db.Queries.ListUnassignedMatchesStartingBetween(ctx, db.ListUnassignedMatchesStartingBetweenParams{
		StartsAfter:  now,
		StartsBefore: now.Add(e.leadTime),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list matches approaching kickoff")
		return 0, fmt.Errorf("list matches approaching kickoff: %w", err)
	}
	logger.Info().Int("match_count", len(upcoming)).Msg("Found matches approaching kickoff")

	balanced := 0
	for _, match := range upcoming {
		if _, err := e.balanceMatch(ctx, match.ID, SourceAuto); err != nil {
			logger.Warn().
				Err(err).
				Int64("match_id", match.ID).
				Str("decision", "skip_match").
				Msg("Automatic balancing failed")
			continue
		}
		balanced++
	}
	return balanced, nil
}

// SetMatchStatus moves a match between scheduled, closed and cancelled.
// Closed and cancelled matches accept no attendance changes and are skipped
// by automatic balancing. A stored lineup is kept.
func (e *Engine) SetMatchStatus(ctx context.Context, matchID int64, status models.MatchStatus) (models.Match, error) {
	if e == nil || e.db == nil || e.db.Queries == nil {
		return models.Match{}, errors.New("match engine not initialized")
	}
	status, err := models.ParseMatchStatus(string(status))
	if err != nil {
		return models.Match{}, err
	}

	logger := log.Ctx(ctx).With().
		Str("component", "match_engine").
		Int64("match_id", matchID).
		Str("status", string(status)).
		Logger()

	var (
		match    models.Match
		previous models.MatchStatus
	)
	err = e.db.RunInTx(ctx, func(txdb *db.DB) error {
		row, err := txdb.Queries.GetMatch(ctx, matchID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("load match %d: %w", matchID, err)
		}
		match = models.MatchFromDB(row)
		previous = match.Status
		if previous == status {
			return nil
		}

		row, err = txdb.Queries.UpdateMatchStatus(ctx, db.UpdateMatchStatusParams{ID: matchID, Status: string(status)})
		if err != nil {
			return fmt.Errorf("update match status: %w", err)
		}
		match = models.MatchFromDB(row)
		return nil
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to change match status")
		return models.Match{}, err
	}

	if previous == status {
		logger.Debug().Str("decision", "unchanged").Msg("Match already has status")
		return match, nil
	}
	logger.Info().
		Str("decision", "status_changed").
		Str("previous_status", string(previous)).
		Msg("Changed match status")
	return match, nil
}

func loadScheduledMatch(ctx context.Context, q *db.Queries, matchID int64) (models.Match, error) {
	row, err := q.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Match{}, ErrMatchNotFound
		}
		return models.Match{}, fmt.Errorf("load match %d: %w", matchID, err)
	}
	match := models.MatchFromDB(row)
	if match.Status != models.MatchScheduled {
		return models.Match{}, fmt.Errorf("%w: status is %s", ErrMatchNotScheduled, match.Status)
	}
	return match, nil
}
