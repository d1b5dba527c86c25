package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/mind-engage/mindengage-sheetgrader/internal/api/http"
	auth "github.com/mind-engage/mindengage-sheetgrader/internal/auth/middleware"
	"github.com/mind-engage/mindengage-sheetgrader/internal/config"
	"github.com/mind-engage/mindengage-sheetgrader/internal/db"
	"github.com/mind-engage/mindengage-sheetgrader/internal/exam"
	"github.com/mind-engage/mindengage-sheetgrader/internal/extract"
	"github.com/mind-engage/mindengage-sheetgrader/internal/grading"
	rbac "github.com/mind-engage/mindengage-sheetgrader/internal/rbac"
	storage "github.com/mind-engage/mindengage-sheetgrader/internal/storage"
	syncx "github.com/mind-engage/mindengage-sheetgrader/internal/sync"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf(".env: %v", err)
	}
	cfg := config.FromEnv()

	// --- Storage ---
	var (
		store  exam.Store
		events syncx.Log
	)
	if cfg.DBDriver == "memory" {
		store = exam.NewInMemoryStore()
		events = syncx.NewMemoryLog()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		cancel()
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		defer func(dbh *sql.DB) { _ = dbh.Close() }(dbh)
		store = exam.NewSQLStore(dbh, cfg.DBDriver)
		events = syncx.NewEventRepo(dbh)
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Grading ---
	evaluator := grading.NewEvaluator(
		grading.WithDefaultMarks(cfg.DefaultMarks),
		grading.WithLenientSingleAnswer(cfg.LenientSingleAnswer),
	)
	svc := exam.NewService(store, events, evaluator)

	var ext extract.Extractor
	switch cfg.OCREngine {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Fatalf("OCR_ENGINE=gemini needs GEMINI_API_KEY")
		}
		ext = extract.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	case "tesseract":
		ext = extract.NewTesseract(cfg.TesseractLang)
	case "none", "":
		// scan endpoints answer 501
	default:
		log.Fatalf("unknown OCR_ENGINE %q", cfg.OCREngine)
	}

	// --- Auth ---
	users, err := auth.ParseUsers(cfg.Users)
	if err != nil {
		log.Fatalf("USERS: %v", err)
	}
	users.Add(cfg.AdminUser, "admin", cfg.AdminPassHash)
	if len(users) == 0 {
		log.Printf("no accounts configured; set ADMIN_PASS_HASH or USERS to log in")
	}
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, users))

	// scan images (protected)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc), rbac.RequireAny(rbac.PermEvaluationView, rbac.PermSheetEvaluate))
		pr.Route("/scans", func(sr chi.Router) {
			api.MountScans(sr, bs)
		})
	})

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Answer keys
		pr.With(rbac.Require(rbac.PermKeyCreate)).
			Post("/keys", api.CreateKeyHandler(svc))
		pr.With(rbac.Require(rbac.PermKeyCreate)).
			Post("/keys/scan", api.ScanKeyHandler(svc, ext))
		pr.With(rbac.Require(rbac.PermKeyView)).
			Get("/keys", api.ListKeysHandler(svc))
		pr.With(rbac.Require(rbac.PermKeyView)).
			Get("/keys/{keyID}", api.GetKeyHandler(svc))

		// Grading
		pr.With(rbac.Require(rbac.PermSheetEvaluate)).
			Post("/keys/{keyID}/evaluations", api.GradeSheetHandler(svc))
		pr.With(rbac.Require(rbac.PermSheetEvaluate)).
			Post("/keys/{keyID}/scans", api.ScanSheetHandler(svc, ext, bs))
		pr.With(rbac.Require(rbac.PermSheetEvaluate)).
			Post("/evaluate", api.PreviewHandler(svc))

		// Results
		pr.With(rbac.Require(rbac.PermEvaluationView)).
			Get("/keys/{keyID}/evaluations", api.ListKeyEvaluationsHandler(svc))
		pr.With(rbac.Require(rbac.PermEvaluationView)).
			Get("/evaluations/{evaluationID}", api.GetEvaluationHandler(svc))
		pr.With(rbac.Require(rbac.PermEvaluationView)).
			Get("/evaluations/{evaluationID}/report", api.EvaluationReportHandler(svc))

		// events carry key summaries and scores
		pr.With(rbac.RequireAll(rbac.PermEventsView, rbac.PermKeyView, rbac.PermEvaluationView)).
			Get("/events", api.ListEventsHandler(events))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	engine := "none"
	if ext != nil {
		engine = ext.Name()
	}
	log.Printf("listening on %s (mode=%s, db=%s, ocr=%s, default_marks=%g, lenient=%v)",
		cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, engine, cfg.DefaultMarks, cfg.LenientSingleAnswer)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
