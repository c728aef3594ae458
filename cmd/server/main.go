package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nick-ui911/Nova-AI/internal/database"
	"github.com/Nick-ui911/Nova-AI/internal/handlers"
	"github.com/Nick-ui911/Nova-AI/internal/middleware"
	"github.com/Nick-ui911/Nova-AI/internal/services"
	"github.com/Nick-ui911/Nova-AI/pkg/cache"
	"github.com/Nick-ui911/Nova-AI/pkg/config"
)

func main() {
	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Server.IsProduction() {
		// JSON logs in production, console output is for development only
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	log.Info().
		Str("env", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("Starting chat service")

	// Initialize PostgreSQL
	postgresDB, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer postgresDB.Close()

	// Run migrations
	migrationSQL := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255),
			password_hash TEXT,
			picture_url TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS chat_sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_chat_sessions_user_id ON chat_sessions(user_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			chat_id UUID NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
			role VARCHAR(10) NOT NULL CHECK (role IN ('user', 'ai')),
			content TEXT NOT NULL,
			seq BIGSERIAL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_messages_chat_id ON messages(chat_id, created_at, seq);
	`
	if err := postgresDB.RunMigrations(context.Background(), migrationSQL); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize Redis
	redisDB, err := database.NewRedisDB(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisDB.Close()

	// Initialize cache
	appCache := cache.NewCache(redisDB.Client())
	var userCache *cache.UserCache
	var listCache *cache.Cache
	if cfg.Cache.Enabled {
		userCache = cache.NewUserCache(appCache, postgresDB, cfg.Cache.UserTTL)
		listCache = appCache
	}

	// Initialize services
	tokenSvc := services.NewTokenService(&cfg.Auth)
	googleSvc := services.NewGoogleService(&cfg.Google)
	gemini := services.NewGeminiClient(&cfg.Gemini)
	gemini.OnResult = middleware.RecordCompletion

	chatSvc := services.NewChatService(postgresDB, gemini, listCache, cfg.Cache.UserTTL)
	chatSvc.OnMessageStored = middleware.IncrementChatMessages

	// The auth middleware resolves users through the cache when enabled.
	var userResolver middleware.UserResolver = postgresDB
	var userStore handlers.UserStore = postgresDB
	if userCache != nil {
		userResolver = userCache
		userStore = userCache
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userStore, tokenSvc, googleSvc, cfg.Server.IsProduction())
	chatHandler := handlers.NewChatHandler(chatSvc)
	healthHandler := handlers.NewHealthHandler(postgresDB, redisDB)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.PageGuard(tokenSvc))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Health check endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", middleware.MetricsHandler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/google-login", authHandler.GoogleLogin)
		r.Post("/logout", authHandler.Logout)

		// Protected endpoints (require a valid token and a live user)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(tokenSvc, userResolver))
			r.Get("/profile", authHandler.Profile)
			r.Get("/chat", chatHandler.List)
			r.Post("/chat", chatHandler.Send)
			r.Get("/chat/{chatID}", chatHandler.Messages)
			r.Delete("/chat/{chatID}", chatHandler.Delete)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // completion calls can take a while
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped gracefully")
}
