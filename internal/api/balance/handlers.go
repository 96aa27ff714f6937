// internal/api/balance/handlers.go
package balance

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/codr1/futbolito/internal/api/apiutil"
	"github.com/codr1/futbolito/internal/balancer"
	"github.com/codr1/futbolito/internal/models"
)

type playerInput struct {
	Name      string   `json:"name" validate:"required,max=60"`
	Level     int      `json:"level" validate:"required,min=1,max=3"`
	Positions []string `json:"positions" validate:"max=2"`
}

type balanceRequest struct {
	Players []playerInput `json:"players" validate:"required,dive"`
}

type PlayerResponse struct {
	Name      string              `json:"name"`
	Level     int                 `json:"level"`
	Positions []balancer.Position `json:"positions"`
}

type TeamResponse struct {
	Name    string           `json:"name"`
	Score   int              `json:"score"`
	Players []PlayerResponse `json:"players"`
}

type Response struct {
	TeamA      TeamResponse `json:"teamA"`
	TeamB      TeamResponse `json:"teamB"`
	Difference int          `json:"difference"`
	Warnings   []string     `json:"warnings"`
}

func NewResponse(result balancer.Result) Response {
	return Response{
		TeamA:      newTeamResponse(result.TeamA),
		TeamB:      newTeamResponse(result.TeamB),
		Difference: result.Difference(),
		Warnings:   result.Warnings,
	}
}

func newTeamResponse(team balancer.Team) TeamResponse {
	return TeamResponse{
		Name:  team.Name,
		Score: team.Score,
		Players: lo.Map(team.Players, func(player balancer.Player, _ int) PlayerResponse {
			return PlayerResponse{Name: player.Name, Level: player.Level, Positions: player.Positions}
		}),
	}
}

// POST /api/v1/balance
//
// Splits the posted roster without storing anything.
func HandleBalancePreview(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req balanceRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err})
		return
	}
	if err := apiutil.ValidateStruct(req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	entries := lo.Map(req.Players, func(input playerInput, _ int) models.RosterEntry {
		return models.RosterEntry{Name: input.Name, Level: input.Level, Positions: input.Positions}
	})
	players, err := models.BuildRoster(entries)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err})
		return
	}

	result := balancer.Balance(players)
	logger.Debug().
		Int("player_count", len(players)).
		Int("difference", result.Difference()).
		Strs("warnings", result.Warnings).
		Msg("Balanced roster preview")

	if err := apiutil.WriteJSON(w, http.StatusOK, NewResponse(result)); err != nil {
		logger.Error().Err(err).Msg("Failed to write balance response")
	}
}
