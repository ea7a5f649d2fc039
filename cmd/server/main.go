package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"parley/internal/auth"
	"parley/internal/config"
	"parley/internal/db"
	"parley/internal/domain/repositories"
	"parley/internal/handler"
	"parley/internal/middleware"
	"parley/internal/repository/memory"
	"parley/internal/repository/postgres"
	chatservice "parley/internal/service/chat"
	"parley/internal/service/reply"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
		"provider", cfg.Provider,
		"model", cfg.Model,
	)

	// JWT verifier for Supabase-issued tokens. With AUTH_OPTIONAL the
	// verifier is still created when a JWKS URL is configured, so tokens
	// that are present get verified.
	var verifier auth.TokenVerifier
	if cfg.SupabaseJWKSURL != "" {
		v, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer v.Close()
		verifier = v
	} else if !cfg.AuthOptional {
		log.Fatal("SUPABASE_JWKS_URL is required unless AUTH_OPTIONAL is set")
	}

	// Chat store backend
	var chatRepo repositories.ChatRepository
	switch cfg.StoreBackend {
	case "postgres":
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		ctx := context.Background()
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		logger.Info("database connected",
			"max_conns", 25,
			"min_conns", 5,
		)
		chatRepo = postgres.NewChatRepository(pool, logger)
	case "memory":
		logger.Warn("using in-memory chat store; data is lost on restart")
		chatRepo = memory.NewChatRepository()
	default:
		log.Fatalf("Unknown STORE_BACKEND: %q", cfg.StoreBackend)
	}

	// Reply generator
	generator, err := reply.SetupGenerator(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup reply generator: %v", err)
	}

	// Services
	chatService := chatservice.NewService(chatRepo, generator, chatservice.Timeouts{
		Store:    cfg.StoreTimeout,
		Generate: cfg.GenerateTimeout,
	}, logger)

	credentials := auth.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)

	// Handlers
	chatHandler := handler.NewChatHandler(chatService, logger)
	authHandler := handler.NewAuthHandler(credentials, logger)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", chatHandler.HealthCheck)

	// Account routes (public)
	mux.HandleFunc("POST /signup", authHandler.Signup)
	mux.HandleFunc("POST /login", authHandler.Login)

	// Chat routes
	mux.HandleFunc("POST /create_chat", chatHandler.CreateChat)
	mux.HandleFunc("GET /list_chats", chatHandler.ListChats)
	mux.HandleFunc("GET /get_chat/{chat_id}", chatHandler.GetChat)
	mux.HandleFunc("POST /add_message_to_chat/{chat_id}", chatHandler.AddMessage)
	mux.HandleFunc("PUT /rename_chat/{chat_id}", chatHandler.RenameChat)
	mux.HandleFunc("DELETE /delete_chat/{chat_id}", chatHandler.DeleteChat)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.Auth(verifier, middleware.Options{
		Optional:       cfg.AuthOptional,
		FallbackUserID: cfg.DevUserID,
	}, logger)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GenerateTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
