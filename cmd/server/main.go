package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/rpattn/reportql/internal/config"
	"github.com/rpattn/reportql/internal/db"
	"github.com/rpattn/reportql/internal/middleware"
	"github.com/rpattn/reportql/internal/query"
	"github.com/rpattn/reportql/internal/report"
	"github.com/rpattn/reportql/internal/repository"
	"github.com/rpattn/reportql/internal/schema"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath, cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Load the report schema
	reportSchema, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		log.Fatalf("Failed to load report schema: %v", err)
	}

	// Wire the query pipeline
	validator := query.NewValidator(reportSchema)
	compiler := query.NewCompiler()
	source := repository.NewPostgresDataSource(conn.Pool)
	executor := query.NewExecutor(source)
	merger := report.NewMerger(validator, compiler, executor)
	reportRepo := repository.NewReportRepository(conn.Pool)

	handler := report.NewHTTPHandler(reportSchema, validator, compiler, source, executor, merger, reportRepo)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	http.Handle("/reports", corsHandler.Handler(middleware.LoggingMiddleware(handler)))
	http.Handle("/reports/", corsHandler.Handler(middleware.LoggingMiddleware(handler)))

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting report server on %s", cfg.ServerAddr)
		log.Printf("Report endpoints available under http://localhost%s/reports", cfg.ServerAddr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
