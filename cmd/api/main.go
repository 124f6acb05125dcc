package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/history"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/http/handlers"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/http/httpapi"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/infra"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/prefs"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/providers/ai"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/providers/gemini"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/providers/openai"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/storage"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/studio"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize file store")
	}

	prefsStore, err := prefs.Open(cfg.PrefsDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open prefs database")
	}
	defer prefsStore.Close()

	var svc ai.Service
	switch cfg.AIProvider {
	case "openai":
		svc, err = openai.NewClient(openai.Options{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			TextModel:  cfg.OpenAIModel,
			ImageModel: cfg.OpenAIImageModel,
			Logger:     logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize openai provider")
		}
	default:
		svc = gemini.NewClient(gemini.Options{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
			Logger:  logger,
		})
	}

	ctrl := studio.NewController(studio.Options{
		AI:      svc,
		Files:   files,
		BaseURL: cfg.StorageBaseURL,
		History: history.NewStore(),
		Logger:  logger,
	})

	app := handlers.NewApp(ctrl, prefsStore, logger)
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		StaticDir:   files.BasePath(),
		Log:         logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("provider", cfg.AIProvider).Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
