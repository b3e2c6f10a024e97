package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/tembea/server/adapters/llm"
	"github.com/tembea/server/adapters/storage"
	"github.com/tembea/server/adapters/stt"
	"github.com/tembea/server/domain/repositories"
	"github.com/tembea/server/internal/api"
	"github.com/tembea/server/internal/config"
	"github.com/tembea/server/internal/recording"
	"github.com/tembea/server/internal/websocket"
	"github.com/tembea/server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load .env if present; the environment itself wins
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file loaded", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Remote collaborators; fall back to mocks when the deployment has
	// no cloud credentials so the server stays runnable locally.
	var blobStore repositories.BlobStorage
	var speechToText repositories.SpeechToText

	if cfg.Bucket == "" {
		logger.Warn("GCS_BUCKET not set, using in-memory storage and mock transcription")
		blobStore = storage.NewMockBlobStorage(logger)
		speechToText = stt.NewMockSpeechToText(logger)
	} else {
		gcsStore, err := storage.NewGoogleCloudStorage(ctx, cfg.Bucket)
		if err != nil {
			logger.Fatal("Failed to create storage client", zap.Error(err))
		}
		defer gcsStore.Close()
		blobStore = gcsStore

		googleSTT, err := stt.NewGoogleSpeechToText(ctx)
		if err != nil {
			logger.Fatal("Failed to create speech client", zap.Error(err))
		}
		defer googleSTT.Close()
		speechToText = googleSTT
	}

	var languageModel repositories.LargeLanguageModel
	languageModel, err = llm.NewGeminiLLM(logger)
	if err != nil {
		logger.Warn("Gemini unavailable, using mock language model", zap.Error(err))
		languageModel = llm.NewMockGeminiClient()
	}

	// Recording pipeline
	recorder := recording.NewManager(blobStore, speechToText, recording.Options{
		SpoolDir:              cfg.SpoolDir,
		Audio:                 cfg.Audio,
		RetainRemoteArtifacts: cfg.RetainRemoteArtifacts,
	}, logger)

	janitor := recording.NewJanitor(recorder, cfg.MaxSessionAge, time.Minute, logger)
	janitor.Start()
	defer janitor.Stop()

	placeService := usecase.NewPlaceService(languageModel)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize WebSocket hub
	hub := websocket.NewHub(recorder, logger)
	go hub.Run()

	// Initialize API routes
	api.InitRoutes(e, hub, placeService, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("spoolDir", cfg.SpoolDir),
		zap.String("bucket", cfg.Bucket))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
