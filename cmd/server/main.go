package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"skein/internal/auth"
	"skein/internal/config"
	chatSvcIface "skein/internal/domain/services/chat"
	"skein/internal/handler"
	"skein/internal/middleware"
	"skein/internal/provider"
	"skein/internal/provider/anthropic"
	"skein/internal/provider/lorem"
	"skein/internal/provider/openai"
	"skein/internal/provider/openrouter"
	"skein/internal/repository/postgres"
	postgresChat "skein/internal/repository/postgres/chat"
	serviceChat "skein/internal/service/chat"
	serviceStreaming "skein/internal/service/streaming"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	convRepo := postgresChat.NewConversationRepository(repoConfig)
	turnRepo := postgresChat.NewTurnRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	registry, err := setupProviders(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup providers: %v", err)
	}

	conversationService := serviceChat.NewConversationService(convRepo, turnRepo, registry, txManager, cfg.DefaultModel, logger)
	titleSynthesizer := serviceStreaming.NewTitleSynthesizer(registry, cfg.TitleModel, logger)
	streamingService := serviceStreaming.NewService(convRepo, turnRepo, registry, titleSynthesizer, logger)

	serviceChat.StartCleanup(ctx, conversationService, cfg.CleanupInterval, cfg.CleanupMaxAge, logger)

	conversationHandler := handler.NewConversationHandler(conversationService, logger)
	chatHandler := handler.NewChatHandler(streamingService, logger)
	modelsHandler := handler.NewModelsHandler(registry, logger)

	logger.Info("services initialized")

	// Go 1.22+ enhanced routing patterns
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	mux.HandleFunc("POST /api/conversations", conversationHandler.CreateConversation)
	mux.HandleFunc("GET /api/conversations", conversationHandler.ListConversations)
	mux.HandleFunc("GET /api/conversations/{id}", conversationHandler.GetConversation)
	mux.HandleFunc("PATCH /api/conversations/{id}", conversationHandler.UpdateConversation)
	mux.HandleFunc("DELETE /api/conversations/{id}", conversationHandler.DeleteConversation)
	mux.HandleFunc("GET /api/conversations/{id}/turns", conversationHandler.ListTurns)

	mux.HandleFunc("POST /api/conversations/{id}/chat", chatHandler.Chat)

	mux.HandleFunc("GET /api/models", modelsHandler.ListModels)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	var h http.Handler = mux
	h = middleware.Auth(jwtVerifier)(h)
	h = middleware.Recovery(logger)(h)

	// CORS must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived event streams
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupProviders registers every provider whose credentials are present.
// Lorem is always available so the server works without any API keys.
func setupProviders(cfg *config.Config, logger *slog.Logger) (*provider.Registry, error) {
	registry, err := provider.NewRegistry()
	if err != nil {
		return nil, err
	}

	registry.Register(chatSvcIface.KindLorem, lorem.NewProvider())

	if cfg.AnthropicAPIKey != "" {
		p, err := anthropic.NewProvider(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, err
		}
		registry.Register(chatSvcIface.KindAnthropic, p)
		logger.Info("provider registered", "provider", "anthropic")
	}

	if cfg.OpenAIAPIKey != "" {
		p, err := openai.NewProvider("openai", cfg.OpenAIAPIKey)
		if err != nil {
			return nil, err
		}
		registry.Register(chatSvcIface.KindOpenAI, p)
		logger.Info("provider registered", "provider", "openai")
	}

	if cfg.OpenRouterAPIKey != "" {
		p, err := openrouter.NewProvider(cfg.OpenRouterAPIKey)
		if err != nil {
			return nil, err
		}
		registry.Register(chatSvcIface.KindOpenRouter, p)
		logger.Info("provider registered", "provider", "openrouter")
	}

	return registry, nil
}
