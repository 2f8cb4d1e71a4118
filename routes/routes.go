package routes

import (
	"net/http"

	"github.com/bloxevents/event-system/config"
	"github.com/bloxevents/event-system/handlers"
	"github.com/bloxevents/event-system/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	router *chi.Mux,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	eventHandler *handlers.EventHandler,
	bracketHandler *handlers.BracketHandler,
	teamHandler *handlers.TeamHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Get("/ws/events/{eventID}", webSocketHandler.ServeWs)

	authenticate := middleware.Authenticate([]byte(cfg.JWTSecretKey))

	router.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.List)
		r.Get("/{eventID}", eventHandler.Get)
		r.Get("/{eventID}/bracket/layout", bracketHandler.Layout)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", eventHandler.Create)
			r.Delete("/{eventID}", eventHandler.Delete)
			r.Post("/{eventID}/join", eventHandler.Join)
			r.Post("/{eventID}/leave", eventHandler.Leave)
			r.Post("/{eventID}/draw", eventHandler.DrawGiveaway)
			r.Put("/{eventID}/banner", eventHandler.UploadBanner)

			r.Post("/{eventID}/bracket", bracketHandler.Generate)
			r.Post("/{eventID}/bracket/advance", bracketHandler.Advance)
			r.Delete("/{eventID}/bracket", bracketHandler.Reset)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", teamHandler.Create)
			r.Delete("/{teamID}", teamHandler.Delete)
			r.Post("/{teamID}/members", teamHandler.AddMember)
			r.Delete("/{teamID}/members", teamHandler.RemoveMember)
		})
	})
}
