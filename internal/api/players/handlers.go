// internal/api/players/handlers.go
package players

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/futbolito/internal/api/apiutil"
	"github.com/codr1/futbolito/internal/db"
	"github.com/codr1/futbolito/internal/models"
)

const playersQueryTimeout = 5 * time.Second

var (
	queries   *db.Queries
	queriesMu sync.RWMutex
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *db.DB) {
	if database == nil {
		return
	}
	queriesMu.Lock()
	defer queriesMu.Unlock()
	queries = database.Queries
}

func loadQueries() *db.Queries {
	queriesMu.RLock()
	defer queriesMu.RUnlock()
	return queries
}

type createPlayerRequest struct {
	Name      string   `json:"name" validate:"required,max=60"`
	Email     string   `json:"email" validate:"omitempty,email"`
	Level     int      `json:"level" validate:"required,min=1,max=3"`
	Positions []string `json:"positions" validate:"max=2"`
}

// POST /api/v1/players
func HandleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Internal Server Error"})
		return
	}

	var req createPlayerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err})
		return
	}
	if err := apiutil.ValidateStruct(req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := models.ValidateName(req.Name); err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "name", Reason: "must be a printable name"})
		return
	}
	positions, err := models.ParsePositions(req.Positions)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "positions", Reason: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), playersQueryTimeout)
	defer cancel()

	email := strings.TrimSpace(req.Email)
	row, err := q.CreatePlayer(ctx, db.CreatePlayerParams{
		Name:      strings.TrimSpace(req.Name),
		Email:     sql.NullString{String: email, Valid: email != ""},
		Level:     int64(req.Level),
		Positions: models.EncodePositions(positions),
	})
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to create player", Err: err})
		return
	}
	player, err := models.PlayerFromDB(row)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	logger.Info().Int64("player_id", player.ID).Msg("Player created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, player); err != nil {
		logger.Error().Err(err).Msg("Failed to write player response")
	}
}

// GET /api/v1/players
func HandleListPlayers(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Internal Server Error"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), playersQueryTimeout)
	defer cancel()

	rows, err := q.ListPlayers(ctx)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to list players", Err: err})
		return
	}

	players := make([]models.Player, 0, len(rows))
	for _, row := range rows {
		player, err := models.PlayerFromDB(row)
		if err != nil {
			apiutil.WriteError(w, r, err)
			return
		}
		players = append(players, player)
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"players": players}); err != nil {
		logger.Error().Err(err).Msg("Failed to write players response")
	}
}
