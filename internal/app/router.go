package app

import (
	"net/http"

	"busyness/internal/handlers"
	"busyness/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (a *App) initRouter() {
	taskHandler := handlers.NewTaskHandler(a.tasks)
	authHandler := handlers.NewAuthHandler(a.users)
	requireUser := middleware.Authenticate(a.users)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{a.config.App.URL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(a.config.RateLimit.RequestsPerMinute))
	r.Use(chimw.Timeout(a.config.Server.RequestTimeout))

	r.Get("/health", taskHandler.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/google", authHandler.GoogleLogin)
			r.With(requireUser).Get("/me", authHandler.Me)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/", taskHandler.ListActiveTasks)             // GET /api/tasks
			r.Post("/", taskHandler.PostTask)                   // POST /api/tasks
			r.Get("/completed", taskHandler.ListCompletedTasks) // GET /api/tasks/completed

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTaskByID)
				r.Put("/", taskHandler.UpdateTaskByID)
				r.Delete("/", taskHandler.DeleteTaskByID)
				r.Post("/complete", taskHandler.CompleteTask)
				r.Get("/logs", taskHandler.GetTaskLogs)
			})
		})
	})

	a.router = r
}
