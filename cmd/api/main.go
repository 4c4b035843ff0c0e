package main

import (
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"prevalence/adapters/postgres"
	"prevalence/app"
	"prevalence/internal"
	"prevalence/internal/config"
	"prevalence/internal/testkit"
	"prevalence/ports"
	"prevalence/ui"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := internal.NewDefaultLogger()

	var repo ports.AnalysisRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			log.Fatalf("migration: %v", err)
		}
		repo = postgres.NewAnalysisRepository(db)
		logger.Info("using postgres storage")
	} else {
		repo = testkit.NewInMemoryAnalysisRepository()
		logger.Warn("DATABASE_URL not set, analyses are kept in memory only")
	}

	service := app.NewAnalysisService(repo, logger)
	application := ui.NewApp(service, repo, logger)
	if err := application.Serve(cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
