package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"motiongen/internal/http/handlers"
	httpapi "motiongen/internal/http/httpapi"
	"motiongen/internal/infra"
	"motiongen/internal/providers/video"
	"motiongen/internal/storage"
	"motiongen/internal/videogen"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	veo, err := video.NewVEO(ctx, video.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create video provider")
	}

	generator, err := videogen.New(videogen.Options{
		APIKey:       cfg.GeminiAPIKey,
		Model:        cfg.VideoModel,
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.GenerationTimeout,
		Service:      veo,
		Logger:       &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create video generator")
	}

	var store storage.Store = storage.NewMemoryStore()
	if cfg.BlobStoragePath != "" {
		fileStore, err := storage.NewFileStore(cfg.BlobStoragePath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.BlobStoragePath).Msg("failed to open blob storage")
		}
		store = fileStore
	}
	blobs := storage.NewBlobs(store, cfg.BlobTTL, &logger)
	go blobs.RunJanitor(ctx, time.Minute)

	app := handlers.NewApp(cfg, generator, blobs, &logger)
	router := httpapi.NewRouter(cfg, app, &logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("model", generator.Model()).
			Str("reference_mode", cfg.ReferenceMode).
			Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
