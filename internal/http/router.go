package httpserver

import (
	"net/http"

	"carburapp/internal/http/handlers"
	"carburapp/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	AuthHandlers        *handlers.AuthHandlers
	StationsHandlers    *handlers.StationsHandlers
	PricesHandlers      *handlers.PricesHandlers
	LeaderboardHandlers *handlers.LeaderboardHandlers
	PriceFeedHandler    http.HandlerFunc
	HealthHandler       http.HandlerFunc
	RateLimiter         *middleware.RateLimiter
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", deps.HealthHandler)

	mux.Handle("POST /api/auth/signup", http.HandlerFunc(deps.AuthHandlers.Signup))
	mux.Handle("POST /api/auth/login", http.HandlerFunc(deps.AuthHandlers.Login))

	mux.Handle("GET /api/stations", http.HandlerFunc(deps.StationsHandlers.Search))
	mux.Handle("GET /api/leaderboard", http.HandlerFunc(deps.LeaderboardHandlers.Top))
	mux.Handle("GET /ws/prices", deps.PriceFeedHandler)

	authenticated := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, authMiddleware)
	}
	limited := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, authMiddleware, deps.RateLimiter.Middleware)
	}

	mux.Handle("GET /api/users/me", authenticated(deps.AuthHandlers.Me))
	mux.Handle("POST /api/auth/verify/send", authenticated(deps.AuthHandlers.SendVerification))
	mux.Handle("POST /api/auth/verify/confirm", authenticated(deps.AuthHandlers.ConfirmVerification))
	mux.Handle("DELETE /api/auth/account", authenticated(deps.AuthHandlers.DeleteAccount))

	mux.Handle("POST /api/stations/{id}/prices", limited(deps.PricesHandlers.Submit))
	mux.Handle("POST /api/stations/{id}/prices/confirm", limited(deps.PricesHandlers.Confirm))

	return mux
}
