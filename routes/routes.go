package routes

import (
	"net/http"

	"github.com/courtside/league-system/handlers"
	"github.com/courtside/league-system/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Cup       *handlers.CupHandler
	Event     *handlers.EventHandler
	Voting    *handlers.VotingHandler
	WebSocket *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret []byte) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "docs/swagger.json")
	})
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Get("/ws/cups/{cupID}", h.WebSocket.SubscribeCup)
	router.Get("/ws/events/{publicID}", h.WebSocket.SubscribeEvent)

	router.Route("/cups", func(r chi.Router) {
		r.Get("/", h.Cup.List)
		r.Get("/{cupID}", h.Cup.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))

			r.Post("/", h.Cup.Create)
			r.Post("/{cupID}/start", h.Cup.Start)
			r.Post("/{cupID}/logo", h.Cup.UploadLogo)
			r.Delete("/{cupID}", h.Cup.Delete)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Post("/matches/{matchID}/winner", h.Cup.RecordWinner)
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/public/{publicID}", h.Event.GetByPublicID)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))

			r.Post("/", h.Event.Create)
			r.Get("/{eventID}", h.Event.Get)
			r.Post("/{eventID}/respond", h.Event.Respond)
			r.Post("/{eventID}/waitlist/promote", h.Event.PromoteFromWaitlist)
			r.Post("/{eventID}/proposals", h.Voting.Propose)
			r.Post("/{eventID}/proposals/{proposalID}/vote", h.Voting.Vote)
		})
	})

	return router
}
