package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bluecollar-chat/auth"
	"bluecollar-chat/bridge"
	"bluecollar-chat/contract"
	"bluecollar-chat/internal"
	"bluecollar-chat/moderation"
	"bluecollar-chat/projection"
	"bluecollar-chat/repositories"
	"bluecollar-chat/runtime"
	"bluecollar-chat/runtime/workers"
	"bluecollar-chat/search"
	"bluecollar-chat/services"
	"bluecollar-chat/ws"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	censoredChar, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Moderation
	words, err := moderation.LoadWords()
	if err != nil {
		return fmt.Errorf("loading word lists failed: %w", err)
	}
	moderator, err := moderation.NewModerator(words.Words, censoredChar, log)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	// 4. Setup Supervision & Orchestration
	clock := contract.NewSystemClock()
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry()
	store := projection.NewStore(clock)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	conversationRepository := repositories.NewConversationRepository(db)

	orchestrator := runtime.NewOrchestrator(
		log, sup, registry, store, &moderator,
		messageRepository, conversationRepository,
		clock, runtime.Options{
			Shards:         config.NumberOfShards,
			BufferSize:     config.BufferSize,
			SinkTimeout:    config.SinkTimeout,
			StorageRetries: config.StorageRetries,
			RetryDelay:     config.RetryDelay,
			MetricInterval: config.MetricInterval,
		},
	)
	if err = orchestrator.Rebuild(); err != nil {
		return fmt.Errorf("projection rebuild failed: %w", err)
	}

	presence := runtime.NewPresenceTracker(log, clock, config.PresenceWindow, store, orchestrator.Events())

	// 5. Permanent sinks: search index, optional broker bridge
	index, err := search.NewIndex(config.BlugeFilepath, log)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() { _ = index.Close() }()
	orchestrator.Add(index)

	if config.AmqpURL != "" {
		publisher, err := bridge.NewPublisher(config.AmqpURL, config.AmqpExchange, log)
		if err != nil {
			return fmt.Errorf("broker connection failed: %w", err)
		}
		defer func() { _ = publisher.Close() }()
		orchestrator.Add(bridge.NewSink(publisher, log))
	}

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Start the Engine
	orchestrator.Start(ctx)

	if config.DebugPort > 0 {
		internal.StartDebugServer(db, config.DebugPort, "/inspect", internal.MessageMapper, nil)
		log.Info("Debug server started", "port", config.DebugPort)
	}

	// 8. HTTP & Websocket Server Setup
	tokens := auth.NewTokenManager(config.AuthSecret, config.AuthTokenDuration)
	chatService := services.NewChatService(orchestrator, registry, presence, index)
	authService := services.NewAuthService(repositories.NewUserRepository(db), tokens)

	mux := http.NewServeMux()
	ws.Routes(mux, ws.NewHandler(log, tokens, chatService, config.ConnectionBufferSize), authService)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	// Use an error channel to capture Serve() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 10. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	orchestrator.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
