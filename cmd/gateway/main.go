package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/securelearn/securelearn-backend/internal/api/http"
	auth "github.com/securelearn/securelearn-backend/internal/auth/middleware"
	"github.com/securelearn/securelearn-backend/internal/config"
	"github.com/securelearn/securelearn-backend/internal/db"
	"github.com/securelearn/securelearn-backend/internal/progress"
	"github.com/securelearn/securelearn-backend/internal/rbac"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	store := progress.NewSQLStore(dbh, cfg.DBDriver)
	svc := progress.NewService(store)
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/register", auth.RegisterHandler(authSvc, dbh))
	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → subject+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("result:submit")).
			Post("/results/quiz", api.SubmitQuizResultHandler(svc))
		pr.With(rbac.Require("result:submit")).
			Post("/results/challenge", api.SubmitChallengeResultHandler(svc))
		pr.With(rbac.Require("result:submit")).
			Post("/results/scenario", api.SubmitScenarioResultHandler(svc))
		pr.With(rbac.Require("result:submit")).
			Post("/results/question", api.SubmitQuestionResultHandler(svc))

		pr.With(rbac.Require("progress:view-own")).
			Get("/progress/quizzes", api.QuizProgressHandler(svc))
		pr.With(rbac.Require("progress:view-own")).
			Get("/progress/challenges", api.ChallengeProgressHandler(svc))
		pr.With(rbac.Require("progress:view-own")).
			Get("/progress/scenarios", api.ScenarioProgressHandler(svc))

		pr.With(rbac.Require("progress:view-own")).
			Get("/learning-paths", api.ListLearningPathsHandler(svc))
		pr.With(rbac.Require("progress:view-own")).
			Get("/learning-paths/progress", api.PathProgressMapHandler(svc))
		pr.With(rbac.Require("progress:view-own")).
			Get("/learning-paths/{pathID}/modules/progress", api.PathModuleProgressHandler(svc))

		pr.With(rbac.Require("module:complete")).
			Post("/modules/complete", api.CompleteModuleHandler(svc))

		pr.With(rbac.Require("progress:view-own")).
			Get("/users/me/progress", api.UserProgressSummaryHandler(svc))

		pr.With(rbac.Require("admin:view")).
			Get("/admin/overview", api.AdminOverviewHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
