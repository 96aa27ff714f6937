// internal/api/matches/handlers.go
package matches

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/futbolito/internal/api/apiutil"
	"github.com/codr1/futbolito/internal/db"
	matchengine "github.com/codr1/futbolito/internal/matches"
	"github.com/codr1/futbolito/internal/models"
)

const matchesQueryTimeout = 5 * time.Second

var (
	queries *db.Queries
	engine  *matchengine.Engine
	stateMu sync.RWMutex
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *db.DB, matchEngine *matchengine.Engine) {
	if database == nil || matchEngine == nil {
		return
	}
	stateMu.Lock()
	defer stateMu.Unlock()
	queries = database.Queries
	engine = matchEngine
}

func loadState() (*db.Queries, *matchengine.Engine) {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return queries, engine
}

func notInitialized(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Error().Msg("Match handlers not initialized")
	apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Internal Server Error"})
}

// engineError maps engine and validation failures to HTTP responses.
func engineError(err error) error {
	switch {
	case errors.Is(err, matchengine.ErrMatchNotFound):
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Match not found", Err: err}
	case errors.Is(err, matchengine.ErrPlayerNotFound):
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Player not found", Err: err}
	case errors.Is(err, matchengine.ErrTeamsNotAssigned):
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Teams have not been assigned", Err: err}
	case errors.Is(err, matchengine.ErrMatchNotScheduled):
		return apiutil.HandlerError{Status: http.StatusConflict, Message: "Match is not open", Err: err}
	case errors.Is(err, matchengine.ErrMatchFull):
		return apiutil.HandlerError{Status: http.StatusConflict, Message: "Match is full", Err: err}
	case errors.Is(err, models.ErrInvalidMatchStatus),
		errors.Is(err, models.ErrInvalidName),
		errors.Is(err, models.ErrInvalidLevel),
		errors.Is(err, models.ErrInvalidPosition),
		errors.Is(err, models.ErrTooManyPositions),
		errors.Is(err, models.ErrDuplicatePosition):
		return apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	default:
		return err
	}
}

type createMatchRequest struct {
	Title          string    `json:"title" validate:"required,max=120"`
	Location       string    `json:"location" validate:"max=120"`
	StartsAt       time.Time `json:"startsAt" validate:"required"`
	MaxPlayers     int       `json:"maxPlayers" validate:"min=0,max=40"`
	OrganizerEmail string    `json:"organizerEmail" validate:"omitempty,email"`
}

// POST /api/v1/matches
func HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q, _ := loadState()
	if q == nil {
		notInitialized(w, r)
		return
	}

	var req createMatchRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err})
		return
	}
	if err := apiutil.ValidateStruct(req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	match := models.Match{
		Title:          strings.TrimSpace(req.Title),
		Location:       strings.TrimSpace(req.Location),
		StartsAt:       req.StartsAt.UTC(),
		MaxPlayers:     req.MaxPlayers,
		OrganizerEmail: strings.TrimSpace(req.OrganizerEmail),
	}
	if err := match.Validate(); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), matchesQueryTimeout)
	defer cancel()

	row, err := q.CreateMatch(ctx, db.CreateMatchParams{
		Title:          match.Title,
		Location:       match.Location,
		StartsAt:       match.StartsAt,
		MaxPlayers:     int64(match.MaxPlayers),
		OrganizerEmail: match.OrganizerEmail,
	})
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to create match", Err: err})
		return
	}
	created := models.MatchFromDB(row)

	logger.Info().Int64("match_id", created.ID).Time("starts_at", created.StartsAt).Msg("Match created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		logger.Error().Err(err).Msg("Failed to write match response")
	}
}

type matchDetailResponse struct {
	Match     models.Match      `json:"match"`
	Attendees []models.Attendee `json:"attendees"`
	Confirmed int               `json:"confirmed"`
}

// GET /api/v1/matches/{id}
func HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q, eng := loadState()
	if q == nil || eng == nil {
		notInitialized(w, r)
		return
	}
	matchID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), matchesQueryTimeout)
	defer cancel()

	attendees, err := eng.Attendees(ctx, matchID)
	if err != nil {
		apiutil.WriteError(w, r, engineError(err))
		return
	}
	row, err := q.GetMatch(ctx, matchID)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to load match", Err: err})
		return
	}

	confirmed := 0
	for _, attendee := range attendees {
		if attendee.Status == models.AttendanceConfirmed {
			confirmed++
		}
	}

	response := matchDetailResponse{
		Match:     models.MatchFromDB(row),
		Attendees: attendees,
		Confirmed: confirmed,
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("Failed to write match response")
	}
}

type matchStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled closed cancelled"`
}

// PATCH /api/v1/matches/{id}
func HandleUpdateMatchStatus(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	_, eng := loadState()
	if eng == nil {
		notInitialized(w, r)
		return
	}
	matchID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req matchStatusRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err})
		return
	}
	if err := apiutil.ValidateStruct(req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), matchesQueryTimeout)
	defer cancel()

	match, err := eng.SetMatchStatus(ctx, matchID, models.MatchStatus(req.Status))
	if err != nil {
		apiutil.WriteError(w, r, engineError(err))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, match); err != nil {
		logger.Error().Err(err).Msg("Failed to write match response")
	}
}

type invitationRequest struct {
	PlayerID int64 `json:"playerId" validate:"required,gt=0"`
}

// POST /api/v1/matches/{id}/invitations
func HandleInvitePlayer(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	_, eng := loadState()
	if eng == nil {
		notInitialized(w, r)
		return
	}
	matchID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req invitationRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err})
		return
	}
	if err := apiutil.ValidateStruct(req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), matchesQueryTimeout)
	defer cancel()

	attendee, err := eng.InvitePlayer(ctx, matchID, req.PlayerID)
	if err != nil {
		apiutil.WriteError(w, r, engineError(err))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, attendee); err != nil {
		logger.Error().Err(err).Msg("Failed to write invitation response")
	}
}

type attendanceRequest struct {
	PlayerID int64  `json:"playerId" validate:"required,gt=0"`
	Status   string `json:"status" validate:"required,oneof=confirmed declined"`
}

// POST /api/v1/matches/{id}/attendance
func HandleAttendance(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	_, eng := loadState()
	if eng == nil {
		notInitialized(w, r)
		return
	}
	matchID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req attendanceRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err})
		return
	}
	if err := apiutil.ValidateStruct(req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), matchesQueryTimeout)
	defer cancel()

	var attendee models.Attendee
	if models.AttendanceStatus(req.Status) == models.AttendanceConfirmed {
		attendee, err = eng.ConfirmAttendance(ctx, matchID, req.PlayerID)
	} else {
		attendee, err = eng.DeclineAttendance(ctx, matchID, req.PlayerID)
	}
	if err != nil {
		apiutil.WriteError(w, r, engineError(err))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, attendee); err != nil {
		logger.Error().Err(err).Msg("Failed to write attendance response")
	}
}

type guestRequest struct {
	Name      string   `json:"name" validate:"required,max=60"`
	Level     int      `json:"level" validate:"required,min=1,max=3"`
	Positions []string `json:"positions" validate:"max=2"`
	GuestOf   int64    `json:"guestOf" validate:"required,gt=0"`
}

// POST /api/v1/matches/{id}/guests
func HandleAddGuest(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	_, eng := loadState()
	if eng == nil {
		notInitialized(w, r)
		return
	}
	matchID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req guestRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err})
		return
	}
	if err := apiutil.ValidateStruct(req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	positions, err := models.ParsePositions(req.Positions)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "positions", Reason: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), matchesQueryTimeout)
	defer cancel()

	attendee, err := eng.AddGuest(ctx, matchID, matchengine.Guest{
		Name:      req.Name,
		Level:     req.Level,
		Positions: positions,
		GuestOf:   req.GuestOf,
	})
	if err != nil {
		apiutil.WriteError(w, r, engineError(err))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, attendee); err != nil {
		logger.Error().Err(err).Msg("Failed to write guest response")
	}
}

// POST /api/v1/matches/{id}/teams/balance
func HandleBalanceTeams(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	_, eng := loadState()
	if eng == nil {
		notInitialized(w, r)
		return
	}
	matchID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), matchesQueryTimeout)
	defer cancel()

	lineup, err := eng.BalanceMatch(ctx, matchID)
	if err != nil {
		apiutil.WriteError(w, r, engineError(err))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, lineup); err != nil {
		logger.Error().Err(err).Msg("Failed to write lineup response")
	}
}

// GET /api/v1/matches/{id}/teams
func HandleGetTeams(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	_, eng := loadState()
	if eng == nil {
		notInitialized(w, r)
		return
	}
	matchID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), matchesQueryTimeout)
	defer cancel()

	lineup, err := eng.Lineup(ctx, matchID)
	if err != nil {
		apiutil.WriteError(w, r, engineError(err))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, lineup); err != nil {
		logger.Error().Err(err).Msg("Failed to write lineup response")
	}
}
