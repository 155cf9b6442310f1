package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"pair-chat/auth"
	"pair-chat/infrastructure/gateway"
	"pair-chat/infrastructure/grpc/chatv1"
	"pair-chat/infrastructure/grpc/server"
	"pair-chat/internal"
	"pair-chat/observability"
	"pair-chat/repositories"
	"pair-chat/runtime"
	"pair-chat/runtime/workers"
	"pair-chat/services"
	"pair-chat/sink"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const (
	inspectEndpoint = "/inspect"
	shutdownTimeout = 10 * time.Second
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Deferred cleanups (BadgerDB) run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(ctx, config, logger))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if config.DebugPort > 0 {
		url := fmt.Sprintf("http://localhost:%d%s", config.DebugPort, inspectEndpoint)
		logger.Info("Debug Badger inspector available", "url", url)
		database.StartDebugServer(db, config.DebugPort, inspectEndpoint, repositories.InspectMapper)
	}

	// 3. Repositories, supervision & orchestration
	historyRepository := repositories.NewHistoryRepository(db, logger, config.HistoryPageSize)
	profileRepository := repositories.NewProfileRepository(db)
	pairingRepository := repositories.NewPairingRepository(db, logger)

	sup := workers.NewSupervisor(logger, config.RestartInterval)
	orchestrator, err := runtime.NewOrchestrator(logger, sup,
		historyRepository, profileRepository, pairingRepository,
		runtime.Options{
			TelemetryBufferSize: config.TelemetryBufferSize,
			SinkTimeout:         config.SinkTimeout,
			MaxContentLength:    config.MaxContentLength,
			QueueIdleTimeout:    config.QueueIdleTimeout,
			AbandonTimeout:      config.AbandonTimeout,
			ReaperInterval:      config.ReaperInterval,
			SnapshotInterval:    config.SnapshotInterval,
			MetricInterval:      config.MetricInterval,
			ModerationEnabled:   config.ModerationEnabled,
			CharReplacement:     charReplacement,
		})
	if err != nil {
		return exitConfig, fmt.Errorf("orchestrator setup failed: %w", err)
	}

	// 4. Observability
	metrics := observability.NewMetrics()
	monitoring, err := observability.NewMonitoringManager(logger, metrics)
	if err != nil {
		return exitRuntime, fmt.Errorf("monitoring setup failed: %w", err)
	}
	orchestrator.WithMetrics(metrics)
	orchestrator.AddSinks(sink.NewMetricsSink(metrics), sink.NewLogSink(logger))
	orchestrator.AddWorkers(workers.NewMonitoringWorker(logger, monitoring, orchestrator.Counts, config.MetricInterval))

	// 5. Start the Engine
	if err := orchestrator.Start(ctx); err != nil {
		return exitRuntime, fmt.Errorf("orchestrator failed to start: %w", err)
	}

	chatService := services.NewChatService(orchestrator)
	profileService := services.NewProfileService(profileRepository)
	errChan := make(chan error, 2)

	// 6. gRPC Server Setup
	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GrpcPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(logger),
			auth.IdentityInterceptor,
		),
		grpc.ChainStreamInterceptor(auth.IdentityStreamInterceptor),
	)
	chatv1.RegisterChatServiceServer(s, server.NewChatServer(logger, chatService, config.ConnectionBufferSize))

	go func() {
		logger.Info("Starting gRPC server", "address", grpcAddress, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. HTTP gateway (REST, websocket, metrics, health)
	if !logger.Enabled(ctx, slog.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}
	httpAddress := fmt.Sprintf("%s:%d", config.Host, config.HttpPort)
	httpServer := &http.Server{
		Addr: httpAddress,
		Handler: gateway.NewRouter(logger, chatService, profileService, metrics, monitoring,
			gateway.Options{ConnectionBufferSize: config.ConnectionBufferSize}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Starting HTTP gateway", "address", httpAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		orchestrator.Stop()
		s.Stop()
		return exitRuntime, err
	}

	// 9. Final Cleanup (Graceful Shutdown)
	// Stopping the orchestrator closes every handle, which ends the open streams.
	logger.Info("Shutting down gracefully...")
	orchestrator.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP gateway shutdown failed", "error", err)
	}
	s.GracefulStop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(ctx context.Context, config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.INFO)
}
