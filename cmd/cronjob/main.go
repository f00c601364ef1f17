package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/osmanasaf/reindecar-sub001/internal/availability"
	"github.com/osmanasaf/reindecar-sub001/internal/config"
	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/jobs"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
	"github.com/osmanasaf/reindecar-sub001/internal/repository/postgres"
	"github.com/osmanasaf/reindecar-sub001/internal/scheduler"
	"github.com/osmanasaf/reindecar-sub001/internal/service"
	"github.com/osmanasaf/reindecar-sub001/internal/validation"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	envFile := flag.String("env-file", ".env", "Optional dotenv file loaded before the configuration")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'report-overdue-rentals', 'all-nightly', 'all-monthly')")
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
	logger.Info("Starting rental cronjob runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

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
	pipeline := validation.NewRentalPipeline(validation.Dependencies{
		Customers: store.Customers,
		Branches:  store.Branches,
		Rentals:   store.Rentals,
		Checker:   availability.NewChecker(store.Rentals),
	})

	jobServices := &jobs.Services{
		Rental:  service.NewRentalService(repos, pipeline, opts),
		Leasing: service.NewLeasingService(repos, opts),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "report-overdue-rentals":
		jobRunner.ReportOverdueRentals()
	case "generate-leasing-invoices":
		jobRunner.GenerateLeasingInvoices()
	case "all-nightly":
		jobRunner.RunAllNightlyJobs()
	case "all-monthly":
		jobRunner.RunAllMonthlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - report-overdue-rentals\n")
		fmt.Printf("  - generate-leasing-invoices\n")
		fmt.Printf("  - all-nightly\n")
		fmt.Printf("  - all-monthly\n")
		os.Exit(1)
	}
}
