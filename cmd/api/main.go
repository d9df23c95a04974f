package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/phototrail/phototrail-api/internal/config"
	"github.com/phototrail/phototrail-api/internal/domain/photo"
	"github.com/phototrail/phototrail-api/internal/middleware"
	"github.com/phototrail/phototrail-api/internal/pkg/database"
	"github.com/phototrail/phototrail-api/internal/pkg/docstore"
	"github.com/phototrail/phototrail-api/internal/pkg/identity"
	"github.com/phototrail/phototrail-api/internal/pkg/imaging"
	pkgresponse "github.com/phototrail/phototrail-api/internal/pkg/response"
	"github.com/phototrail/phototrail-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting PhotoTrail API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	// ---------- Document store ----------
	store := docstore.NewPostgresStore(db)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare document store schema")
		}
	}

	// ---------- Storage backends ----------
	// The bearer token of the signed-in user rides along on the request
	// context; REST backends read it from there.
	tokens := requestTokenSource{}

	var backends []storage.Backend
	if cfg.FirebaseBucket != "" {
		fb, err := storage.NewFirebaseBackend(storage.FirebaseConfig{
			Bucket:   cfg.FirebaseBucket,
			Endpoint: cfg.FirebaseEndpoint,
			Tokens:   tokens,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Firebase storage backend")
		}
		backends = append(backends, fb)
	}
	if cfg.GCSProjectID != "" && cfg.GCSBucket != "" {
		gb, err := storage.NewGCSBrowserBackend(storage.GCSBrowserConfig{
			ProjectID: cfg.GCSProjectID,
			Bucket:    cfg.GCSBucket,
			Endpoint:  cfg.GCSEndpoint,
			Tokens:    tokens,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS browser storage backend")
		}
		backends = append(backends, gb)
	}
	if cfg.GCSBucket != "" && cfg.GCSAccessKey != "" && cfg.GCSSecretKey != "" {
		gs, err := storage.NewGCSServerBackend(storage.GCSServerConfig{
			Bucket:    cfg.GCSBucket,
			AccessKey: cfg.GCSAccessKey,
			SecretKey: cfg.GCSSecretKey,
			Endpoint:  cfg.GCSInteropEndpoint,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS server storage backend")
		}
		backends = append(backends, gs)
	}
	if len(backends) == 0 {
		log.Fatal().Msg("No storage backend configured")
	}
	router := storage.NewRouter(backends...)

	// ---------- Services ----------
	photoRepo := photo.NewRepository(store)
	thumbnailer := imaging.NewThumbnailer(imaging.Config{
		MaxWidth:  cfg.ThumbnailSize,
		MaxHeight: cfg.ThumbnailSize,
		Quality:   cfg.ThumbnailQuality,
	})
	photoCache := photo.NewCache(redis)
	photoService := photo.NewService(photoRepo, router, thumbnailer, photoCache)

	// ---------- Handlers ----------
	photoHandler := photo.NewHandler(photoService)

	authMiddleware := middleware.Auth()
	if cfg.MockAuth {
		log.Warn().Msg("Mock authentication enabled, all requests share one identity")
		authMiddleware = middleware.MockAuth(&identity.Profile{
			ID:   "mock-user",
			Name: cfg.MockAuthName,
		})
	}

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/photos", photoHandler.Routes(authMiddleware))
		r.Mount("/storage", photoHandler.StorageRoutes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}

// requestTokenSource reads the signed-in user's bearer token from the
// request context. Anonymous requests yield the empty token, which the
// backends treat as "no credential".
type requestTokenSource struct{}

func (requestTokenSource) Token(ctx context.Context) (string, error) {
	return middleware.GetToken(ctx), nil
}
