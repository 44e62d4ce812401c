package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/healthchat/backend/internal/config"
	"github.com/healthchat/backend/internal/handler/chat"
	"github.com/healthchat/backend/internal/handler/health"
	"github.com/healthchat/backend/internal/handler/session"
	"github.com/healthchat/backend/internal/handler/topics"
	middlewarePkg "github.com/healthchat/backend/internal/middleware"
	"github.com/healthchat/backend/internal/model/content"
	chatService "github.com/healthchat/backend/internal/service/chat"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(store content.Store, resolver chatService.Resolver, httpCfg config.HTTPConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(httpCfg.AllowedOrigins))

	limiter := middlewarePkg.NewRateLimiter(httpCfg.RateLimitRPS, httpCfg.RateLimitBurst)
	table := store.Table()

	// Create handlers
	chatHandler := chat.New()
	healthHandler := health.New()
	topicsHandler := topics.New(store)
	sessionHandler := session.NewWebSocketHandler(resolver, table.Greeting, table.ConnectionError)

	r.Route("/api", func(api chi.Router) {
		healthHandler.RegisterRoutes(api)
		topicsHandler.RegisterRoutes(api)

		// Message endpoints are rate limited per client address
		api.Group(func(limited chi.Router) {
			limited.Use(limiter.Handler)
			chatHandler.RegisterRoutes(limited)
			sessionHandler.RegisterRoutes(limited)
		})
	})

	return r
}
