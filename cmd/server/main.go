package main

import (
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"

	"medmarket-ai/internal/consultation"
	"medmarket-ai/internal/inference"
	"medmarket-ai/internal/ocr"
	"medmarket-ai/internal/platform/telegram"
	"medmarket-ai/internal/registry"
	"medmarket-ai/internal/report"
	"medmarket-ai/pkg/config"
	"medmarket-ai/pkg/db"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	cfg := config.Load()

	// 1. Infrastructure
	database, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Could not connect to DB: %v", err)
	}
	defer database.Close()

	m, err := migrate.New("file://migrations", cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Migration init failed: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logrus.Fatalf("Migration up failed: %v", err)
	}
	logrus.Info("Migrations applied")

	// 2. Clients
	var aiClient inference.Client
	switch cfg.AIProvider {
	case "openai":
		aiClient = inference.NewOpenAIClient(cfg.OpenAIKey, cfg.AIModel)
		logrus.Info("Using OpenAI inference backend")
	default:
		aiClient = inference.NewOllamaClient(cfg.OllamaBaseURL, cfg.AIModel)
		logrus.Infof("Using Ollama inference backend at %s", cfg.OllamaBaseURL)
	}

	var extractor ocr.TextExtractor
	if cfg.OCRServiceURL != "" {
		extractor = ocr.NewHTTPClient(cfg.OCRServiceURL)
	} else {
		logrus.Warn("OCR_SERVICE_URL not set, prescription uploads use the stub extractor")
		extractor = ocr.StubExtractor{}
	}

	var registryClient registry.Client
	if cfg.RegistryBaseURL != "" {
		registryClient = registry.NewClient(cfg.RegistryBaseURL)
	} else {
		logrus.Warn("REGISTRY_BASE_URL not set, medicines will not be matched against the registry")
		registryClient = registry.NoopClient{}
	}

	// 3. Services
	repo := consultation.NewRepository(database)

	var reportSvc consultation.ReportService
	pharmacistChatID, _ := strconv.ParseInt(cfg.PharmacistChatID, 10, 64)
	if cfg.TelegramToken != "" && pharmacistChatID != 0 {
		tgClient := telegram.NewClient(cfg.TelegramToken)
		reportSvc = report.NewService(tgClient, pharmacistChatID)
	} else {
		logrus.Warn("Telegram alerting not configured, high-severity consultations will not notify the pharmacist")
	}

	consultationSvc := consultation.NewService(repo, aiClient, registryClient, reportSvc)
	consultationHandler := consultation.NewHandler(consultationSvc, extractor)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for the marketplace frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
			if r.Method == "OPTIONS" {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		consultation.RegisterRoutes(r, consultationHandler)
	})

	logrus.Infof("Server starting on port %s", cfg.ServerPort)
	if err := http.ListenAndServe(":"+cfg.ServerPort, r); err != nil {
		logrus.Fatal(err)
	}
}
