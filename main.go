package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/yroh0840/manga-relay/config"
	"github.com/yroh0840/manga-relay/database"
	"github.com/yroh0840/manga-relay/handlers"
	"github.com/yroh0840/manga-relay/logger"
	"github.com/yroh0840/manga-relay/media"
	"github.com/yroh0840/manga-relay/notify"
	"github.com/yroh0840/manga-relay/services"
	"github.com/yroh0840/manga-relay/workers"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := logger.New("info", "")
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.Env)
	if envErr != nil {
		log.Info().Err(envErr).Msg("no .env file loaded")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("failed to create database directory")
	}

	db, err := database.InitGormDB(cfg.DatabasePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get database handle")
	}
	defer sqlDB.Close()

	store, processor, assets := setupStorage(cfg, log)

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.NotifyEnabled() {
		notifier = notify.NewLineNotifier(cfg.LineToken, cfg.LineUserID, log)
		log.Info().Msg("LINE notifications enabled")
	} else {
		log.Info().Msg("LINE credentials not set, notifications disabled")
	}
	dispatcher := workers.NewNotificationDispatcher(notifier, cfg.NotifyQueueSize, cfg.NumNotifyWorker, log)

	if !cfg.AdminEnabled() {
		log.Warn().Msg("ADMIN_USERNAME or ADMIN_PASSWORD not set, admin pages will refuse every request")
	}

	comicService := services.NewComicService(db, log)
	server := &handlers.Server{
		Comic: &handlers.ComicHandler{
			Comics:         comicService,
			Posting:        services.NewPostingService(db, store, processor, dispatcher, cfg.PublicBaseURL, log),
			MaxUploadBytes: cfg.MaxUploadBytes,
			Log:            log,
		},
		Admin:    &handlers.AdminHandler{Comics: comicService, Log: log},
		Feedback: &handlers.FeedbackHandler{Feedback: services.NewFeedbackService(db, log), Log: log},
		Assets:   assets,
	}
	router := handlers.NewRouter(server.Routes(), handlers.NewAdminAuth(cfg.AdminUsername, cfg.AdminPasswordHash, log), cfg.CORSAllowedOrigins, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("database", cfg.DatabasePath).Str("storage", cfg.StorageBackend).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	dispatcher.Stop()
}

// setupStorage picks the image store. thumbnails and the /uploads route only
// exist for local storage.
func setupStorage(cfg config.Config, log zerolog.Logger) (media.Store, *media.Processor, http.HandlerFunc) {
	if cfg.StorageBackend == config.StorageCloudinary {
		store, err := media.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryFolder, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize cloudinary storage")
		}
		log.Info().Str("folder", cfg.CloudinaryFolder).Msg("storing images on cloudinary")
		return store, nil, nil
	}

	store, err := media.NewLocalStorage(cfg.UploadDir, cfg.ThumbnailsSubDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize media store")
	}
	log.Info().Str("path", cfg.UploadDir).Int("thumbnail_max_size", cfg.ThumbnailMaxSize).Msg("storing images locally")
	return store, media.NewProcessor(store, cfg.ThumbnailMaxSize, log), handlers.AssetServer(store, handlers.UploadsRoute, log)
}
