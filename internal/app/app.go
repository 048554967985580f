package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"propertyagent/internal/config"
	"propertyagent/internal/observability"
	"propertyagent/internal/repository"
	"propertyagent/internal/service"
)

// App holds the wired services shared by the HTTP server and the CLI
type App struct {
	Config    *config.Config
	Metrics   *observability.Metrics // nil when METRICS_ENABLED=false
	Sessions  repository.SessionStore
	Catalog   *repository.CatalogRepository
	AI        *service.OpenAIClient
	Extractor *service.Extractor
	Memory    *service.SessionMemory
	Uploader  *service.Uploader
	Agent     *service.UploadAgent
}

// Build connects the stores and wires every service from cfg
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if strings.EqualFold(cfg.Logging.Level, "debug") {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	vocab, err := config.LoadVocabulary(cfg.Extractor.VocabFile)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg}
	if cfg.Metrics.Enabled {
		a.Metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	a.Sessions, err = repository.NewSessionStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.Catalog, err = repository.NewCatalogRepository(ctx, cfg)
	if err != nil {
		a.Sessions.Close()
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	log.Printf("✅ Connected to %s catalog", cfg.Catalog.Driver)

	a.AI = service.NewOpenAIClient(&cfg.OpenAI)
	a.Extractor = service.NewDefaultExtractor(vocab, a.AI, cfg.Extractor.LLMTimeout, a.Metrics)
	a.Memory = service.NewSessionMemory(a.Sessions, a.Metrics)
	a.Uploader = service.NewUploader(a.Catalog, a.AI.Embedder(), a.Memory, cfg.Upload, a.Metrics)
	a.Agent = service.NewUploadAgent(a.Extractor, a.Memory, a.Uploader, vocab.ResetPhrases, a.Metrics)

	log.Println("✅ Services initialized")
	return a, nil
}

// Close waits for running uploads (bounded by ctx) and releases the stores
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Uploader.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("uploader: %w", err))
	}
	if err := a.Sessions.Close(); err != nil {
		errs = append(errs, fmt.Errorf("session store: %w", err))
	}
	if err := a.Catalog.Close(); err != nil {
		errs = append(errs, fmt.Errorf("catalog: %w", err))
	}
	return errors.Join(errs...)
}
