package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mechat/internal/auth"
	"mechat/internal/config"
	"mechat/internal/handler"
	"mechat/internal/inflight"
	"mechat/internal/middleware"
	"mechat/internal/promptstore"
	"mechat/internal/repository/postgres"
	"mechat/internal/service"
	serviceAuth "mechat/internal/service/auth"
	"mechat/internal/service/chat"
	"mechat/internal/service/prompt"
	"mechat/internal/storage"
	"mechat/internal/webhook"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer func() { _ = jwtVerifier.Close() }()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("database ready", "tables", tables.All())

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	sessionRepo := postgres.NewChatSessionRepository(repoConfig)
	userPrefsRepo := postgres.NewUserPreferencesRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	if cfg.PromptStoreURL == "" {
		logger.Warn("PROMPT_STORE_URL not set, prompt library requests will fail")
	}
	promptStore := promptstore.NewClient(cfg.PromptStoreURL, cfg.PromptStoreAuth, logger)

	guard, closeGuard, err := newGuard(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create in-flight guard: %v", err)
	}
	defer closeGuard()

	files, err := newStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create attachment storage: %v", err)
	}
	logger.Info("attachment storage ready", "backend", cfg.StorageBackend)

	exportLocation, err := time.LoadLocation(cfg.ExportTimezone)
	if err != nil {
		logger.Warn("unknown EXPORT_TIMEZONE, using UTC", "timezone", cfg.ExportTimezone, "error", err)
		exportLocation = time.UTC
	}

	backend := webhook.NewClient(cfg.WebhookBaseURL, cfg.WebhookToken, cfg.WebhookTimeout, logger)
	authorizer := serviceAuth.NewOwnerBasedAuthorizer(promptStore)

	// Services
	chatService := chat.NewChatService(sessionRepo, txManager, backend, guard, files, exportLocation, logger)
	promptService := prompt.NewPromptService(promptStore, authorizer, logger)
	userPrefsService := service.NewUserPreferencesService(userPrefsRepo, logger)

	// Handlers
	chatHandler := handler.NewChatHandler(chatService, logger)
	promptHandler := handler.NewPromptHandler(promptService, logger)
	userPrefsHandler := handler.NewUserPreferencesHandler(userPrefsService, logger)
	fileHandler := handler.NewFileHandler(files, authorizer, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health)

	// Session routes
	mux.HandleFunc("GET /api/sessions", chatHandler.ListSessions)
	mux.HandleFunc("POST /api/sessions", chatHandler.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", chatHandler.GetSession)
	mux.HandleFunc("POST /api/sessions/{id}/messages", chatHandler.SendToSession)
	mux.HandleFunc("GET /api/sessions/{id}/export", chatHandler.ExportSession)
	mux.HandleFunc("POST /api/messages", chatHandler.SendMessage)

	// Prompt library routes
	mux.HandleFunc("GET /api/prompts", promptHandler.ListPrompts)
	mux.HandleFunc("POST /api/prompts", promptHandler.CreatePrompt)
	mux.HandleFunc("PUT /api/prompts/{id}", promptHandler.UpdatePrompt)
	mux.HandleFunc("GET /api/favorites", promptHandler.ListFavorites)
	mux.HandleFunc("PUT /api/favorites/{promptId}", promptHandler.AddFavorite)
	mux.HandleFunc("DELETE /api/favorites/{promptId}", promptHandler.RemoveFavorite)

	// User preferences routes
	mux.HandleFunc("GET /api/users/me/preferences", userPrefsHandler.GetPreferences)
	mux.HandleFunc("PATCH /api/users/me/preferences", userPrefsHandler.UpdatePreferences)

	// Attachments (local storage links point here)
	mux.HandleFunc("GET /files/{key...}", fileHandler.GetFile)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	h = middleware.AuthMiddleware(jwtVerifier, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WebhookTimeout + 30*time.Second, // A send waits on the webhook
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// newGuard picks the Redis guard when REDIS_URL is set so several replicas
// share one view of in-flight sends.
func newGuard(ctx context.Context, cfg *config.Config, logger *slog.Logger) (inflight.Guard, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("in-flight guard: memory")
		return inflight.NewMemoryGuard(), func() {}, nil
	}

	guard, err := inflight.NewRedisGuard(ctx, cfg.RedisURL, inflight.TTLFor(cfg.WebhookTimeout), logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("in-flight guard: redis")
	return guard, func() { _ = guard.Close() }, nil
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			UsePathStyle:    cfg.S3UsePathStyle,
			PublicURL:       cfg.S3PublicURL,
		})
	case "local", "":
		return storage.NewLocalStorage(cfg.StorageLocalPath, strings.TrimSuffix(cfg.PublicURL, "/")+"/files")
	default:
		return nil, errors.New("unknown STORAGE_BACKEND " + cfg.StorageBackend)
	}
}
