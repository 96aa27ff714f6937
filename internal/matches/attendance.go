// internal/matches/attendance.go
package matches

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codr1/futbolito/internal/balancer"
	"github.com/codr1/futbolito/internal/db"
	"github.com/codr1/futbolito/internal/models"
)

// ConfirmAttendance marks a registered player as attending. Confirming twice
// keeps the original confirmation time, so the player keeps their place in
// the roster order.
func (e *Engine) ConfirmAttendance(ctx context.Context, matchID, playerID int64) (models.Attendee, error) {
	return e.respond(ctx, matchID, playerID, models.AttendanceConfirmed)
}

// DeclineAttendance marks a registered player as not attending.
func (e *Engine) DeclineAttendance(ctx context.Context, matchID, playerID int64) (models.Attendee, error) {
	return e.respond(ctx, matchID, playerID, models.AttendanceDeclined)
}

func (e *Engine) respond(ctx context.Context, matchID, playerID int64, status models.AttendanceStatus) (models.Attendee, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "match_attendance").
		Int64("match_id", matchID).
		Int64("player_id", playerID).
		Str("status", string(status)).
		Logger()

	var attendee models.Attendee
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		q := txdb.Queries
		match, err := loadScheduledMatch(ctx, q, matchID)
		if err != nil {
			return err
		}

		player, err := q.GetPlayer(ctx, playerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPlayerNotFound
			}
			return fmt.Errorf("load player %d: %w", playerID, err)
		}

		existing, err := q.GetAttendeeByPlayer(ctx, db.GetAttendeeByPlayerParams{MatchID: matchID, PlayerID: playerID})
		found := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load attendance: %w", err)
		}

		if found && existing.Status == string(status) {
			logger.Debug().Str("decision", "unchanged").Msg("Attendance already recorded")
			attendee, err = models.AttendeeFromDB(existing)
			return err
		}

		if status == models.AttendanceConfirmed {
			if err := ensureCapacity(ctx, q, match); err != nil {
				return err
			}
		}

		respondedAt := sql.NullTime{Time: e.clock.Now().UTC(), Valid: true}
		var row db.MatchAttendee
		if found {
			row, err = q.UpdateAttendeeResponse(ctx, db.UpdateAttendeeResponseParams{
				ID:          existing.ID,
				Name:        player.Name,
				Level:       player.Level,
				Positions:   player.Positions,
				Status:      string(status),
				RespondedAt: respondedAt,
			})
		} else {
			row, err = q.CreateAttendee(ctx, db.CreateAttendeeParams{
				MatchID:     matchID,
				PlayerID:    sql.NullInt64{Int64: playerID, Valid: true},
				Name:        player.Name,
				Level:       player.Level,
				Positions:   player.Positions,
				Status:      string(status),
				RespondedAt: respondedAt,
			})
		}
		if err != nil {
			return fmt.Errorf("record attendance: %w", err)
		}

		attendee, err = models.AttendeeFromDB(row)
		return err
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to record attendance")
		return models.Attendee{}, err
	}

	logger.Info().Str("decision", "recorded").Msg("Recorded attendance")
	return attendee, nil
}

// InvitePlayer lists a registered player on the match roster without an
// answer. Inviting a player who is already on the roster returns the existing
// entry unchanged.
func (e *Engine) InvitePlayer(ctx context.Context, matchID, playerID int64) (models.Attendee, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "match_attendance").
		Int64("match_id", matchID).
		Int64("player_id", playerID).
		Logger()

	var (
		attendee models.Attendee
		created  bool
	)
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		q := txdb.Queries
		if _, err := loadScheduledMatch(ctx, q, matchID); err != nil {
			return err
		}

		player, err := q.GetPlayer(ctx, playerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPlayerNotFound
			}
			return fmt.Errorf("load player %d: %w", playerID, err)
		}

		existing, err := q.GetAttendeeByPlayer(ctx, db.GetAttendeeByPlayerParams{MatchID: matchID, PlayerID: playerID})
		if err == nil {
			attendee, err = models.AttendeeFromDB(existing)
			return err
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load attendance: %w", err)
		}

		row, err := q.CreateAttendee(ctx, db.CreateAttendeeParams{
			MatchID:   matchID,
			PlayerID:  sql.NullInt64{Int64: playerID, Valid: true},
			Name:      player.Name,
			Level:     player.Level,
			Positions: player.Positions,
			Status:    string(models.AttendanceInvited),
		})
		if err != nil {
			return fmt.Errorf("invite player: %w", err)
		}
		created = true
		attendee, err = models.AttendeeFromDB(row)
		return err
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to invite player")
		return models.Attendee{}, err
	}

	if !created {
		logger.Debug().Str("decision", "already_listed").Msg("Player already on roster")
		return attendee, nil
	}
	logger.Info().Int64("attendee_id", attendee.ID).Str("decision", "invited").Msg("Invited player")
	return attendee, nil
}

// Guest is a non-registered player brought by a registered one.
type Guest struct {
	Name      string
	Level     int
	Positions []balancer.Position
	GuestOf   int64
}

// AddGuest adds a confirmed guest to the match roster.
func (e *Engine) AddGuest(ctx context.Context, matchID int64, guest Guest) (models.Attendee, error) {
	name := strings.TrimSpace(guest.Name)
	if err := models.ValidateName(name); err != nil {
		return models.Attendee{}, err
	}
	if err := models.ValidateLevel(guest.Level); err != nil {
		return models.Attendee{}, err
	}
	if len(guest.Positions) > models.MaxPositions {
		return models.Attendee{}, models.ErrTooManyPositions
	}

	logger := log.Ctx(ctx).With().
		Str("component", "match_attendance").
		Int64("match_id", matchID).
		Int64("guest_of", guest.GuestOf).
		Logger()

	var attendee models.Attendee
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		q := txdb.Queries
		match, err := loadScheduledMatch(ctx, q, matchID)
		if err != nil {
			return err
		}
		if _, err := q.GetPlayer(ctx, guest.GuestOf); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPlayerNotFound
			}
			return fmt.Errorf("load host player %d: %w", guest.GuestOf, err)
		}
		if err := ensureCapacity(ctx, q, match); err != nil {
			return err
		}

		row, err := q.CreateAttendee(ctx, db.CreateAttendeeParams{
			MatchID:         matchID,
			GuestOfPlayerID: sql.NullInt64{Int64: guest.GuestOf, Valid: true},
			Name:            name,
			Level:           int64(guest.Level),
			Positions:       models.EncodePositions(guest.Positions),
			Status:          string(models.AttendanceConfirmed),
			RespondedAt:     sql.NullTime{Time: e.clock.Now().UTC(), Valid: true},
		})
		if err != nil {
			return fmt.Errorf("add guest: %w", err)
		}
		attendee, err = models.AttendeeFromDB(row)
		return err
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to add guest")
		return models.Attendee{}, err
	}

	logger.Info().Int64("attendee_id", attendee.ID).Str("decision", "guest_added").Msg("Added guest")
	return attendee, nil
}

func ensureCapacity(ctx context.Context, q *db.Queries, match models.Match) error {
	confirmed, err := q.CountConfirmedAttendees(ctx, match.ID)
	if err != nil {
		return fmt.Errorf("count confirmed attendees: %w", err)
	}
	if match.Full(int(confirmed)) {
		return fmt.Errorf("%w: %d of %d places taken", ErrMatchFull, confirmed, match.MaxPlayers)
	}
	return nil
}

// Attendees lists the full roster of a match, including declined players.
func (e *Engine) Attendees(ctx context.Context, matchID int64) ([]models.Attendee, error) {
	if _, err := e.db.Queries.GetMatch(ctx, matchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("load match %d: %w", matchID, err)
	}
	rows, err := e.db.Queries.ListMatchAttendees(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return models.AttendeesFromDB(rows)
}
