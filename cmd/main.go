package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kdduha/code-explainer/backend/internal/config"
	"github.com/kdduha/code-explainer/backend/internal/failure"
	"github.com/kdduha/code-explainer/backend/internal/handler"
	"github.com/kdduha/code-explainer/backend/internal/models"
	"github.com/kdduha/code-explainer/backend/internal/provider"
	"github.com/kdduha/code-explainer/backend/internal/service"

	_ "github.com/kdduha/code-explainer/backend/docs"
)

// @title Code Explainer API
// @version 1.0
// @description Explains selected source code with a streaming LLM provider.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.Default()
	if cfg.Provider.APIKey == "" {
		logger.Println("warning: no provider token set (PROVIDER_API_KEY, HF_TOKEN or HF_API_KEY); /explain calls will fail")
	}

	explainService := service.NewExplainService(
		logger,
		newProvider(ctx, logger, cfg.Provider),
		models.GenerationParams{
			Model:       cfg.Explain.Model,
			MaxTokens:   cfg.Explain.MaxTokens,
			Temperature: cfg.Explain.Temperature,
		})

	e := handler.NewExplainHandler(
		logger,
		explainService,
		failure.NewClassifier(cfg.Explain.Model),
		handler.Options{
			MaxInputChars: cfg.Explain.MaxInputChars,
			MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		})

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: handler.NewRouter(logger, e, handler.RouterConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			ThrottleLimit:  cfg.Server.ThrottleLimit,
			Timeout:        cfg.Server.Timeout,
		}),
	}

	go func() {
		logger.Printf("server listening on http://localhost:%s (model %s via %s)\n", cfg.Server.Port, cfg.Explain.Model, cfg.Provider.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Println("server stopped")
}

// newProvider never fails: a provider that cannot be built is replaced by
// one that fails every call, so startup is not blocked.
func newProvider(ctx context.Context, logger *log.Logger, cfg config.ProviderConfig) provider.Provider {
	switch cfg.Backend {
	case config.BackendGemini:
		p, err := provider.NewGemini(ctx, provider.GeminiConfig{
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			logger.Printf("warning: gemini client unavailable: %v\n", err)
			return provider.Unavailable{Err: fmt.Errorf("gemini client: %w", err)}
		}
		return p
	case config.BackendOpenAI:
		return provider.NewOpenAI(provider.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	default:
		logger.Printf("warning: unknown provider backend %q\n", cfg.Backend)
		return provider.Unavailable{Err: fmt.Errorf("unknown provider backend %q", cfg.Backend)}
	}
}
