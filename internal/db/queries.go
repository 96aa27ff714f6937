// internal/db/queries.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type Player struct {
	ID        int64
	Name      string
	Email     sql.NullString
	Level     int64
	Positions string
	CreatedAt time.Time
}

type Match struct {
	ID              int64
	Title           string
	Location        string
	StartsAt        time.Time
	Status          string
	MaxPlayers      int64
	OrganizerEmail  string
	TeamsAssignedAt sql.NullTime
	CreatedAt       time.Time
}

type MatchAttendee struct {
	ID              int64
	MatchID         int64
	PlayerID        sql.NullInt64
	GuestOfPlayerID sql.NullInt64
	Name            string
	Level           int64
	Positions       string
	Status          string
	RespondedAt     sql.NullTime
	CreatedAt       time.Time
}

type TeamAssignment struct {
	MatchID    int64
	AttendeeID int64
	Team       string
	Slot       int64
}

type BalanceRun struct {
	ID        int64
	MatchID   int64
	ScoreA    int64
	ScoreB    int64
	Warnings  string
	Source    string
	CreatedAt time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

const playerColumns = `id, name, email, level, positions, created_at`

func scanPlayer(row rowScanner) (Player, error) {
	var p Player
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Level, &p.Positions, &p.CreatedAt)
	return p, err
}

type CreatePlayerParams struct {
	Name      string
	Email     sql.NullString
	Level     int64
	Positions string
}

func (q *Queries) CreatePlayer(ctx context.Context, arg CreatePlayerParams) (Player, error) {
	id, err := q.insert(ctx,
		`INSERT INTO players (name, email, level, positions) VALUES (?, ?, ?, ?)`,
		arg.Name, arg.Email, arg.Level, arg.Positions,
	)
	if err != nil {
		return Player{}, err
	}
	return q.GetPlayer(ctx, id)
}

func (q *Queries) GetPlayer(ctx context.Context, id int64) (Player, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	return scanPlayer(row)
}

func (q *Queries) ListPlayers(ctx context.Context) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const matchColumns = `id, title, location, starts_at, status, max_players, organizer_email, teams_assigned_at, created_at`

func scanMatch(row rowScanner) (Match, error) {
	var m Match
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Location,
		&m.StartsAt,
		&m.Status,
		&m.MaxPlayers,
		&m.OrganizerEmail,
		&m.TeamsAssignedAt,
		&m.CreatedAt,
	)
	return m, err
}

type CreateMatchParams struct {
	Title          string
	Location       string
	StartsAt       time.Time
	MaxPlayers     int64
	OrganizerEmail string
}

func (q *Queries) CreateMatch(ctx context.Context, arg CreateMatchParams) (Match, error) {
	id, err := q.insert(ctx,
		`INSERT INTO matches (title, location, starts_at, max_players, organizer_email) VALUES (?, ?, ?, ?, ?)`,
		arg.Title, arg.Location, arg.StartsAt.UTC(), arg.MaxPlayers, arg.OrganizerEmail,
	)
	if err != nil {
		return Match{}, err
	}
	return q.GetMatch(ctx, id)
}

func (q *Queries) GetMatch(ctx context.Context, id int64) (Match, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)
	return scanMatch(row)
}

type ListUnassignedMatchesStartingBetweenParams struct {
	StartsAfter  time.Time
	StartsBefore time.Time
}

// ListUnassignedMatchesStartingBetween returns scheduled matches with no team
// assignment whose kickoff falls in [StartsAfter, StartsBefore).
func (q *Queries) ListUnassignedMatchesStartingBetween(ctx context.Context, arg ListUnassignedMatchesStartingBetweenParams) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches
		 WHERE status = 'scheduled'
		   AND teams_assigned_at IS NULL
		   AND starts_at >= ?
		   AND starts_at < ?
		 ORDER BY starts_at, id`,
		arg.StartsAfter.UTC(), arg.StartsBefore.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type UpdateMatchStatusParams struct {
	ID     int64
	Status string
}

func (q *Queries) UpdateMatchStatus(ctx context.Context, arg UpdateMatchStatusParams) (Match, error) {
	if err := q.update(ctx, `UPDATE matches SET status = ? WHERE id = ?`, arg.Status, arg.ID); err != nil {
		return Match{}, err
	}
	return q.GetMatch(ctx, arg.ID)
}

type MarkTeamsAssignedParams struct {
	ID         int64
	AssignedAt time.Time
}

func (q *Queries) MarkTeamsAssigned(ctx context.Context, arg MarkTeamsAssignedParams) error {
	return q.update(ctx,
		`UPDATE matches SET teams_assigned_at = ? WHERE id = ?`,
		arg.AssignedAt.UTC(), arg.ID,
	)
}

const attendeeColumns = `id, match_id, player_id, guest_of_player_id, name, level, positions, status, responded_at, created_at`

func scanAttendee(row rowScanner) (MatchAttendee, error) {
	var a MatchAttendee
	err := row.Scan(
		&a.ID,
		&a.MatchID,
		&a.PlayerID,
		&a.GuestOfPlayerID,
		&a.Name,
		&a.Level,
		&a.Positions,
		&a.Status,
		&a.RespondedAt,
		&a.CreatedAt,
	)
	return a, err
}

func (q *Queries) listAttendees(ctx context.Context, query string, args ...any) ([]MatchAttendee, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MatchAttendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

type GetAttendeeByPlayerParams struct {
	MatchID  int64
	PlayerID int64
}

func (q *Queries) GetAttendeeByPlayer(ctx context.Context, arg GetAttendeeByPlayerParams) (MatchAttendee, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+attendeeColumns+` FROM match_attendees WHERE match_id = ? AND player_id = ?`,
		arg.MatchID, arg.PlayerID,
	)
	return scanAttendee(row)
}

type CreateAttendeeParams struct {
	MatchID         int64
	PlayerID        sql.NullInt64
	GuestOfPlayerID sql.NullInt64
	Name            string
	Level           int64
	Positions       string
	Status          string
	RespondedAt     sql.NullTime
}

func (q *Queries) CreateAttendee(ctx context.Context, arg CreateAttendeeParams) (MatchAttendee, error) {
	id, err := q.insert(ctx,
		`INSERT INTO match_attendees (match_id, player_id, guest_of_player_id, name, level, positions, status, responded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.MatchID, arg.PlayerID, arg.GuestOfPlayerID, arg.Name, arg.Level, arg.Positions, arg.Status, utcNullTime(arg.RespondedAt),
	)
	if err != nil {
		return MatchAttendee{}, err
	}
	return q.GetAttendee(ctx, id)
}

func (q *Queries) GetAttendee(ctx context.Context, id int64) (MatchAttendee, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+attendeeColumns+` FROM match_attendees WHERE id = ?`, id)
	return scanAttendee(row)
}

type UpdateAttendeeResponseParams struct {
	ID          int64
	Name        string
	Level       int64
	Positions   string
	Status      string
	RespondedAt sql.NullTime
}

// UpdateAttendeeResponse records a new attendance answer and refreshes the
// roster snapshot.
func (q *Queries) UpdateAttendeeResponse(ctx context.Context, arg UpdateAttendeeResponseParams) (MatchAttendee, error) {
	if err := q.update(ctx,
		`UPDATE match_attendees
		 SET name = ?, level = ?, positions = ?, status = ?, responded_at = ?
		 WHERE id = ?`,
		arg.Name, arg.Level, arg.Positions, arg.Status, utcNullTime(arg.RespondedAt), arg.ID,
	); err != nil {
		return MatchAttendee{}, err
	}
	return q.GetAttendee(ctx, arg.ID)
}

func (q *Queries) ListMatchAttendees(ctx context.Context, matchID int64) ([]MatchAttendee, error) {
	return q.listAttendees(ctx,
		`SELECT `+attendeeColumns+` FROM match_attendees WHERE match_id = ? ORDER BY id`,
		matchID,
	)
}

// ListConfirmedAttendees returns confirmed attendees in the order they
// confirmed.
func (q *Queries) ListConfirmedAttendees(ctx context.Context, matchID int64) ([]MatchAttendee, error) {
	return q.listAttendees(ctx,
		`SELECT `+attendeeColumns+` FROM match_attendees
		 WHERE match_id = ? AND status = 'confirmed'
		 ORDER BY responded_at, id`,
		matchID,
	)
}

func (q *Queries) CountConfirmedAttendees(ctx context.Context, matchID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM match_attendees WHERE match_id = ? AND status = 'confirmed'`,
		matchID,
	).Scan(&count)
	return count, err
}

func (q *Queries) DeleteTeamAssignments(ctx context.Context, matchID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM match_team_assignments WHERE match_id = ?`, matchID)
	return err
}

func (q *Queries) CreateTeamAssignment(ctx context.Context, arg TeamAssignment) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO match_team_assignments (match_id, attendee_id, team, slot) VALUES (?, ?, ?, ?)`,
		arg.MatchID, arg.AttendeeID, arg.Team, arg.Slot,
	)
	return err
}

type ListTeamAssignmentsRow struct {
	TeamAssignment
	Name      string
	Level     int64
	Positions string
}

func (q *Queries) ListTeamAssignments(ctx context.Context, matchID int64) ([]ListTeamAssignmentsRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT t.match_id, t.attendee_id, t.team, t.slot, a.name, a.level, a.positions
		 FROM match_team_assignments t
		 JOIN match_attendees a ON a.id = t.attendee_id
		 WHERE t.match_id = ?
		 ORDER BY t.team, t.slot`,
		matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListTeamAssignmentsRow
	for rows.Next() {
		var r ListTeamAssignmentsRow
		if err := rows.Scan(&r.MatchID, &r.AttendeeID, &r.Team, &r.Slot, &r.Name, &r.Level, &r.Positions); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type CreateBalanceRunParams struct {
	MatchID   int64
	ScoreA    int64
	ScoreB    int64
	Warnings  string
	Source    string
	CreatedAt time.Time
}

const balanceRunColumns = `id, match_id, score_a, score_b, warnings, source, created_at`

func scanBalanceRun(row rowScanner) (BalanceRun, error) {
	var r BalanceRun
	err := row.Scan(&r.ID, &r.MatchID, &r.ScoreA, &r.ScoreB, &r.Warnings, &r.Source, &r.CreatedAt)
	return r, err
}

func (q *Queries) CreateBalanceRun(ctx context.Context, arg CreateBalanceRunParams) (BalanceRun, error) {
	id, err := q.insert(ctx,
		`INSERT INTO balance_runs (match_id, score_a, score_b, warnings, source, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		arg.MatchID, arg.ScoreA, arg.ScoreB, arg.Warnings, arg.Source, arg.CreatedAt.UTC(),
	)
	if err != nil {
		return BalanceRun{}, err
	}
	row := q.db.QueryRowContext(ctx, `SELECT `+balanceRunColumns+` FROM balance_runs WHERE id = ?`, id)
	return scanBalanceRun(row)
}

func (q *Queries) GetLatestBalanceRun(ctx context.Context, matchID int64) (BalanceRun, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+balanceRunColumns+` FROM balance_runs WHERE match_id = ? ORDER BY id DESC LIMIT 1`,
		matchID,
	)
	return scanBalanceRun(row)
}

func (q *Queries) insert(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// update returns sql.ErrNoRows when no row matched.
func (q *Queries) update(ctx context.Context, query string, args ...any) error {
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func utcNullTime(value sql.NullTime) sql.NullTime {
	if !value.Valid {
		return value
	}
	return sql.NullTime{Time: value.Time.UTC(), Valid: true}
}
