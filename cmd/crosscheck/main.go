// Command crosscheck is the entry point for the conflict-detection
// engine: a CLI plus an MCP server over an already-indexed corpus.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	configfile "github.com/custodia-labs/crosscheck/internal/adapters/driven/config/file"
	embeddingollama "github.com/custodia-labs/crosscheck/internal/adapters/driven/embedding/ollama"
	llmanthropic "github.com/custodia-labs/crosscheck/internal/adapters/driven/llm/anthropic"
	llmollama "github.com/custodia-labs/crosscheck/internal/adapters/driven/llm/ollama"
	vectorqdrant "github.com/custodia-labs/crosscheck/internal/adapters/driven/vector/qdrant"
	vectorsqlite "github.com/custodia-labs/crosscheck/internal/adapters/driven/vector/sqlite"
	"github.com/custodia-labs/crosscheck/internal/adapters/driving/cli"
	"github.com/custodia-labs/crosscheck/internal/core/domain"
	"github.com/custodia-labs/crosscheck/internal/core/ports/driven"
	"github.com/custodia-labs/crosscheck/internal/core/ports/driving"
	"github.com/custodia-labs/crosscheck/internal/core/services"
	"github.com/custodia-labs/crosscheck/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgStore, err := configfile.NewConfigStore(os.Getenv("CROSSCHECK_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	settings, err := configfile.SettingsFromStore(cfgStore)
	if err != nil {
		logger.Warn("Invalid analysis settings, using defaults: %v", err)
	}

	store, err := buildVectorStore(cfgStore)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	embedder := embeddingollama.NewEmbeddingService(embeddingollama.Config{
		BaseURL: cfgStore.GetString("embedding.base_url"),
		Model:   cfgStore.GetString("embedding.model"),
	})
	defer embedder.Close() //nolint:errcheck

	judge, err := buildJudge(cfgStore)
	if err != nil {
		return err
	}
	if judge != nil {
		defer judge.Close() //nolint:errcheck
	}

	// Unreachable providers are reported, not fatal: retrieval fails
	// per query and judgments degrade to skipped pairs.
	for _, checkErr := range services.CheckProviders(ctx, embedder, judge) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", checkErr)
	}

	svc := &reloadableConflictService{
		inner: services.NewConflictAnalysisService(store, embedder, judge, settings),
	}

	// Settings changes on disk take effect without a restart. Adapters
	// keep their connections; only the pipeline is rebuilt.
	go func() {
		err := cfgStore.Watch(ctx, func() {
			reloaded, err := configfile.SettingsFromStore(cfgStore)
			if err != nil {
				logger.Warn("Ignoring invalid settings after reload: %v", err)
				return
			}
			svc.swap(services.NewConflictAnalysisService(store, embedder, judge, reloaded))
			logger.Info("Analysis settings reloaded")
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("Config watcher stopped: %v", err)
		}
	}()

	cli.SetServices(svc, cfgStore)
	cli.SetVersion(version)
	return cli.ExecuteContext(ctx)
}

// buildVectorStore picks the vector backend from configuration.
// Default is the local SQLite store, which needs no server.
func buildVectorStore(cfg driven.ConfigStore) (driven.VectorStore, error) {
	backend := cfg.GetString("vector.backend")
	switch backend {
	case "qdrant":
		store, err := vectorqdrant.NewVectorStore(vectorqdrant.Config{
			Host:       cfg.GetString("vector.qdrant.host"),
			Port:       cfg.GetInt("vector.qdrant.port"),
			Collection: cfg.GetString("vector.qdrant.collection"),
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		return store, nil
	case "", "sqlite":
		store, err := vectorsqlite.NewVectorStore(cfg.GetString("vector.sqlite.data_dir"))
		if err != nil {
			return nil, fmt.Errorf("opening local vector store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q (want qdrant or sqlite)", backend)
	}
}

// buildJudge picks the conflict judge from configuration. A missing
// provider is not fatal: analysis degrades to clustering with every
// pair skipped.
func buildJudge(cfg driven.ConfigStore) (driven.ConflictJudge, error) {
	provider := cfg.GetString("llm.provider")
	switch provider {
	case "anthropic":
		apiKey := cfg.GetString("llm.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		judge, err := llmanthropic.NewConflictJudge(llmanthropic.Config{
			APIKey:  apiKey,
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		})
		if err != nil {
			return nil, fmt.Errorf("configuring anthropic judge: %w", err)
		}
		return judge, nil
	case "", "ollama":
		return llmollama.NewConflictJudge(llmollama.Config{
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		}), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want anthropic, ollama, or none)", provider)
	}
}

// reloadableConflictService lets the config watcher swap in a pipeline
// built from fresh settings while callers keep one stable handle.
type reloadableConflictService struct {
	mu    sync.RWMutex
	inner *services.ConflictAnalysisService
}

var _ driving.ConflictService = (*reloadableConflictService)(nil)

func (r *reloadableConflictService) current() *services.ConflictAnalysisService {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inner
}

func (r *reloadableConflictService) swap(svc *services.ConflictAnalysisService) {
	r.mu.Lock()
	r.inner = svc
	r.mu.Unlock()
}

// DetectConflicts implements driving.ConflictService.
func (r *reloadableConflictService) DetectConflicts(
	ctx context.Context, query string, opts domain.AnalysisOptions,
) (*domain.Report, error) {
	return r.current().DetectConflicts(ctx, query, opts)
}

// Settings implements driving.ConflictService.
func (r *reloadableConflictService) Settings() domain.AnalysisSettings {
	return r.current().Settings()
}
