// internal/api/routes.go
package api

import (
	"net/http"

	"github.com/codr1/futbolito/internal/api/balance"
	"github.com/codr1/futbolito/internal/api/matches"
	"github.com/codr1/futbolito/internal/api/players"
	"github.com/codr1/futbolito/internal/ratelimit"
)

// RegisterRoutes mounts the JSON API on mux. Handler packages must have been
// initialized with InitHandlers first.
func RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Stateless preview
	mux.HandleFunc("POST /api/v1/balance", balance.HandleBalancePreview)

	// Players
	mux.HandleFunc("POST /api/v1/players", players.HandleCreatePlayer)
	mux.HandleFunc("GET /api/v1/players", players.HandleListPlayers)

	// Matches
	mux.HandleFunc("POST /api/v1/matches", matches.HandleCreateMatch)
	mux.HandleFunc("GET /api/v1/matches/{id}", matches.HandleGetMatch)
	mux.HandleFunc("PATCH /api/v1/matches/{id}", matches.HandleUpdateMatchStatus)
	mux.HandleFunc("POST /api/v1/matches/{id}/invitations", matches.HandleInvitePlayer)
	mux.HandleFunc("POST /api/v1/matches/{id}/attendance", matches.HandleAttendance)
	mux.HandleFunc("POST /api/v1/matches/{id}/guests", matches.HandleAddGuest)
	mux.HandleFunc("POST /api/v1/matches/{id}/teams/balance", matches.HandleBalanceTeams)
	mux.HandleFunc("GET /api/v1/matches/{id}/teams", matches.HandleGetTeams)
}

// NewHandler returns the routed API wrapped in the standard middleware chain.
// A nil limiter disables write throttling.
func NewHandler(limiter *ratelimit.Limiter) http.Handler {
	router := http.NewServeMux()
	RegisterRoutes(router)

	var handler http.Handler = router
	if limiter != nil {
		handler = WithWriteLimit(limiter)(handler)
	}

	return ChainMiddleware(
		handler,
		WithLogging,
		WithRecovery,
		WithRequestID,
		WithContentType,
	)
}
