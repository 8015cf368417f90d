// Package handler wires HTTP routes to core services.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	authHandler "github.com/aivy-lab/aivy/backend/internal/handler/auth"
	chatHandler "github.com/aivy-lab/aivy/backend/internal/handler/chat"
	"github.com/aivy-lab/aivy/backend/internal/handler/events"
	middlewarePkg "github.com/aivy-lab/aivy/backend/internal/middleware"
	authService "github.com/aivy-lab/aivy/backend/internal/service/auth"
	"github.com/aivy-lab/aivy/backend/internal/service/session"
	"github.com/aivy-lab/aivy/backend/internal/sessionid"
	"github.com/aivy-lab/aivy/backend/web"
)

// NewRouter assembles the API routes, the websocket event stream, and the
// embedded frontend. replier and archiver may be nil; the chat handler
// degrades accordingly.
func NewRouter(authSvc *authService.Service, sessions *session.Manager, replier chatHandler.Replier, archiver chatHandler.Archiver) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS([]string{"*"}))
	r.Use(sessionid.Middleware)

	hub := events.NewHub()

	r.Route("/api", func(api chi.Router) {
		authHandler.New(authSvc, sessions, hub).RegisterRoutes(api)
		chatHandler.New(sessions, replier, archiver, hub).RegisterRoutes(api)
		hub.RegisterRoutes(api)
	})

	r.NotFound(web.SPAHandler().ServeHTTP)

	return r
}
