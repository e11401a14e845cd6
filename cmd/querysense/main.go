// QuerySense server: converts natural-language questions into safe,
// read-only SQL, executes them, and streams stage events to clients.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/querysense/querysense/pkg/ai"
	"github.com/querysense/querysense/pkg/api"
	"github.com/querysense/querysense/pkg/auth"
	"github.com/querysense/querysense/pkg/database"
	"github.com/querysense/querysense/pkg/events"
	"github.com/querysense/querysense/pkg/executor"
	"github.com/querysense/querysense/pkg/llm"
	"github.com/querysense/querysense/pkg/orchestrator"
	"github.com/querysense/querysense/pkg/services"
	"github.com/querysense/querysense/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment", "error", err)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	slog.Info("Starting QuerySense", "version", version.Full(), "http_port", httpPort)

	ctx := context.Background()

	// 1. Database (runs embedded migrations on startup)
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	// 2. Domain services
	userService := services.NewUserService(dbClient.DB())
	queryService := services.NewQueryService(dbClient.DB())
	adminService := services.NewAdminService(dbClient.DB())
	slog.Info("Services initialized")

	// 3. Auth
	tokenService, err := auth.NewTokenServiceFromEnv()
	if err != nil {
		slog.Error("Failed to initialize token service", "error", err)
		os.Exit(1)
	}

	// 4. AI adapters over the completion client
	llmConfig := llm.LoadConfigFromEnv()
	if llmConfig.APIKey == "" {
		slog.Warn("AI_API_KEY is not set, model calls will fail")
	}
	completer := llm.NewClient(llmConfig)
	converter := ai.NewConverter(completer)
	summarizer := ai.NewSummarizer(completer)
	explainer := ai.NewExplainer(completer)
	slog.Info("AI adapters initialized", "model", llmConfig.Model)

	// 5. Event streaming
	connManager := events.NewConnectionManager(10 * time.Second)
	emitter := events.NewEmitter(connManager, nil)
	slog.Info("Streaming infrastructure initialized")

	// 6. Query pipeline
	exec := executor.New(dbClient.DB(), executor.DefaultStatementTimeout)
	pipeline := orchestrator.New(queryService, converter, exec, summarizer, emitter)

	// 7. HTTP server
	httpServer := api.NewServer(
		dbClient,
		tokenService,
		userService,
		queryService,
		adminService,
		pipeline,
		explainer,
		connManager,
		emitter,
	)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + httpPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("QuerySense started successfully")

	// 8. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
