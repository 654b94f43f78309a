package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"difcregistry/adapters/api"
	"difcregistry/adapters/postgres"
	appsvc "difcregistry/app"
	"difcregistry/internal"
	"difcregistry/internal/config"
	"difcregistry/ports"
	"difcregistry/ui"
)

// initDatabase connects the optional run-history database. A missing
// DATABASE_URL disables history; a broken one is a startup error.
func initDatabase(cfg *config.Config) (*sqlx.DB, ports.RunRepository, error) {
	if cfg.Database.URL == "" {
		return nil, nil, nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}

	repo := postgres.NewRunRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, repo, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, history, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize run-history database: %v", err)
	}
	if db != nil {
		defer db.Close()
		logger.Info("run history enabled")
	} else {
		logger.Info("no DATABASE_URL configured, run history disabled")
	}

	client := api.NewClient(api.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	})
	lister := appsvc.NewListerService(client, appsvc.ListerConfig{
		PageSize:     cfg.Fetch.PageSize,
		RequestDelay: cfg.Fetch.RequestDelay,
	})
	detailer := appsvc.NewDetailService(client, appsvc.DetailConfig{
		RequestDelay: cfg.Fetch.RequestDelay,
		Workers:      cfg.Fetch.DetailWorkers,
	})

	webApp, err := ui.NewApp(ui.Config{
		Port:    cfg.Server.Port,
		History: history,
		Logger:  logger,
	}, lister, detailer)
	if err != nil {
		log.Fatalf("Failed to create web app: %v", err)
	}

	log.Fatal(webApp.Start())
}
