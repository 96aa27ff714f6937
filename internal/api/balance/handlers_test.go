package balance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codr1/futbolito/internal/balancer"
)

func postPreview(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/balance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	HandleBalancePreview(rec, req)
	return rec
}

func TestHandleBalancePreview(t *testing.T) {
	rec := postPreview(t, `{"players":[
		{"name":"Ana","level":3,"positions":["GK"]},
		{"name":"Beto","level":2,"positions":["gk"]},
		{"name":"Caro","level":3,"positions":["DEF"]},
		{"name":"Dani","level":1,"positions":["MID","FWD"]}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	want := Response{
		TeamA: TeamResponse{
			Name:  balancer.TeamAName,
			Score: 4,
			Players: []PlayerResponse{
				{Name: "Ana", Level: 3, Positions: []balancer.Position{balancer.Goalkeeper}},
				{Name: "Dani", Level: 1, Positions: []balancer.Position{balancer.Midfielder, balancer.Forward}},
			},
		},
		TeamB: TeamResponse{
			Name:  balancer.TeamBName,
			Score: 5,
			Players: []PlayerResponse{
				{Name: "Beto", Level: 2, Positions: []balancer.Position{balancer.Goalkeeper}},
				{Name: "Caro", Level: 3, Positions: []balancer.Position{balancer.Defender}},
			},
		},
		Difference: 1,
		Warnings:   []string{},
	}
	assert.Equal(t, want, got)
}

func TestHandleBalancePreviewEmptyRoster(t *testing.T) {
	rec := postPreview(t, `{"players":[]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"teamA":{"name":"Equipo A","score":0,"players":[]},
		"teamB":{"name":"Equipo B","score":0,"players":[]},
		"difference":0,
		"warnings":["no confirmed goalkeepers"]
	}`, rec.Body.String())
}

func TestHandleBalancePreviewRejectsBadInput(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{name: "invalid_json", body: `{"players":`, wantError: "Invalid JSON body"},
		{name: "unknown_field", body: `{"players":[],"seed":4}`, wantError: "Invalid JSON body"},
		{name: "missing_players", body: `{}`, wantError: "players is required"},
		{name: "level_out_of_range", body: `{"players":[{"name":"Ana","level":4}]}`, wantError: "players[0].level must be at most 3"},
		{name: "missing_name", body: `{"players":[{"level":2}]}`, wantError: "players[0].name is required"},
		{name: "three_positions", body: `{"players":[{"name":"Ana","level":2,"positions":["GK","DEF","MID"]}]}`, wantError: "players[0].positions must be at most 2 entries"},
		{name: "unknown_position", body: `{"players":[{"name":"Ana","level":2,"positions":["WING"]}]}`, wantError: `player 1: invalid position: "WING"`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := postPreview(t, test.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var body struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, test.wantError, body.Error)
		})
	}
}
