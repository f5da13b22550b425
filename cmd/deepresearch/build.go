package main

import (
	"context"
	"fmt"

	"github.com/smallnest/deepresearch/config"
	"github.com/smallnest/deepresearch/extract"
	"github.com/smallnest/deepresearch/llm"
	"github.com/smallnest/deepresearch/log"
	"github.com/smallnest/deepresearch/research"
	"github.com/smallnest/deepresearch/search"
	"github.com/smallnest/deepresearch/store"
	"github.com/smallnest/deepresearch/store/memory"
	"github.com/smallnest/deepresearch/store/postgres"
	"github.com/smallnest/deepresearch/store/redis"
	"github.com/smallnest/deepresearch/store/sqlite"
)

func newModel(ctx context.Context, cfg config.LLMConfig, logger log.Logger) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.Provider {
	case "googleai":
		client, err = llm.NewGoogleAI(ctx, cfg.APIKey, cfg.Model)
	case "genai":
		client, err = llm.NewGenAI(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		client = llm.NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "langchain-openai":
		client, err = llm.NewLangChainOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", config.ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", cfg.Provider, err)
	}
	return llm.WithRetry(client, llm.RetryConfig{
		Retries: cfg.Retries,
		Delay:   cfg.RetryDelay,
		Logger:  logger,
	}), nil
}

func newSearcher(cfg config.SearchConfig) (search.Client, error) {
	switch cfg.Provider {
	case "duckduckgo":
		var opts []search.DuckDuckGoOption
		if cfg.Endpoint != "" {
			opts = append(opts, search.WithDuckDuckGoEndpoint(cfg.Endpoint))
		}
		return search.NewDuckDuckGo(opts...), nil
	case "brave":
		var opts []search.BraveOption
		if cfg.Endpoint != "" {
			opts = append(opts, search.WithBraveBaseURL(cfg.Endpoint))
		}
		return search.NewBrave(cfg.BraveAPIKey, opts...)
	case "tavily":
		var opts []search.TavilyOption
		if cfg.Endpoint != "" {
			opts = append(opts, search.WithTavilyBaseURL(cfg.Endpoint))
		}
		return search.NewTavily(cfg.TavilyAPIKey, opts...)
	}
	return nil, fmt.Errorf("%w: unknown search provider %q", config.ErrInvalidConfig, cfg.Provider)
}

func newStore(ctx context.Context, cfg config.StoreConfig) (store.ReportStore, error) {
	switch cfg.Backend {
	case "memory":
		return memory.NewReportStore(), nil
	case "sqlite":
		return sqlite.New(sqlite.Options{Path: cfg.DSN})
	case "postgres":
		return postgres.New(ctx, postgres.Options{ConnString: cfg.DSN})
	case "redis":
		return redis.NewFromURL(cfg.DSN, "")
	}
	return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.Backend)
}

// newEngine builds the research engine from a validated config.
func newEngine(ctx context.Context, cfg *config.Config, logger log.Logger, extra ...research.Option) (*research.Engine, error) {
	model, err := newModel(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	searcher, err := newSearcher(cfg.Search)
	if err != nil {
		return nil, err
	}

	opts := []research.Option{
		research.WithLogger(logger),
		research.WithMaxQueries(cfg.Research.MaxQueries),
		research.WithMaxResults(cfg.Research.MaxResults),
		research.WithMaxDocumentChars(cfg.Research.MaxDocumentChars),
		research.WithNodeTimeout(cfg.Research.NodeTimeout),
	}
	return research.NewEngine(model, searcher, extract.NewReadability(), append(opts, extra...)...)
}
