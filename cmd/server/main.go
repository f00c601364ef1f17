package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "github.com/osmanasaf/reindecar-sub001/internal/api/http"
	"github.com/osmanasaf/reindecar-sub001/internal/availability"
	"github.com/osmanasaf/reindecar-sub001/internal/config"
	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
	"github.com/osmanasaf/reindecar-sub001/internal/repository/postgres"
	"github.com/osmanasaf/reindecar-sub001/internal/security"
	"github.com/osmanasaf/reindecar-sub001/internal/service"
	"github.com/osmanasaf/reindecar-sub001/internal/validation"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	envFile := flag.String("env-file", ".env", "Optional dotenv file loaded before the configuration")
	migrate := flag.Bool("migrate", true, "Apply pending schema migrations on startup")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.SetErrorClassifier(domain.IsBusinessError)
	logger.Info("Starting rental backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if *migrate {
		if err := postgres.Migrate(context.Background(), db); err != nil {
			logger.Error("Failed to apply migrations", "error", err)
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	}

	// Initialize Repositories
	store := postgres.NewStore(db, cfg.LockTimeout())
	repos := service.Repositories{
		Tx:        store.TransactionManager,
		Rentals:   store.Rentals,
		Sequences: store.Sequences,
		Leasing:   store.Leasing,
		Invoices:  store.Invoices,
		Vehicles:  store.Vehicles,
		Contracts: store.Contracts,
		Packages:  store.Packages,
		Customers: store.Customers,
	}
	opts := service.Options{
		RentalNumberPrefix:  cfg.Rental.RentalNumberPrefix,
		InvoiceNumberPrefix: cfg.Rental.InvoiceNumberPrefix,
	}

	// Initialize Services
	pipeline := validation.NewRentalPipeline(validation.Dependencies{
		Customers: store.Customers,
		Branches:  store.Branches,
		Rentals:   store.Rentals,
		Checker:   availability.NewChecker(store.Rentals),
	})
	logger.Info("Validation pipeline ready", "rules", pipeline.RuleNames())

	rentalSvc := service.NewRentalService(repos, pipeline, opts)
	leasingSvc := service.NewLeasingService(repos, opts)

	// Initialize HTTP API
	auth := httpapi.NewAuthMiddleware(security.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer))
	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      httpapi.NewRouter(rentalSvc, leasingSvc, auth),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped. Goodbye!")
}
