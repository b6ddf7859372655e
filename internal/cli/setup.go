package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Zavosh/ClearVote2.0/internal/analysis"
	"github.com/Zavosh/ClearVote2.0/internal/cache"
	"github.com/Zavosh/ClearVote2.0/internal/llm"
	"github.com/Zavosh/ClearVote2.0/internal/model"
	"github.com/Zavosh/ClearVote2.0/internal/news"
	"github.com/Zavosh/ClearVote2.0/internal/pipeline"
	"github.com/Zavosh/ClearVote2.0/internal/semantic"
	"github.com/Zavosh/ClearVote2.0/internal/store"
	"github.com/Zavosh/ClearVote2.0/internal/worker"
)

// loadConfig builds the effective configuration: defaults, overridden by the
// config file, overridden by flags. API credentials come from the
// environment only.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: ignoring invalid config file %s: %v\n", path, err)
				cfg = model.DefaultConfig()
			}
		}
	}

	if viper.GetBool("verbose") {
		cfg.Output.Verbose = true
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if base := os.Getenv("OLLAMA_BASE_URL"); base != "" && cfg.LLM.Provider == "ollama" {
		cfg.LLM.BaseURL = base
	}

	if cfg.Cache.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Cache.Dir = home + "/.clearvote/cache"
		}
	}

	return cfg
}

// openStore opens the SQLite database named by the config.
func openStore(cfg *model.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
	}
	return st, nil
}

// newLLMClient creates the configured reasoning client and verifies it is
// usable before the pipeline spends any effort.
func newLLMClient(cfg *model.Config) (llm.Client, error) {
	client, err := llm.NewClient(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.LLM.Provider, err)
	}
	if client == nil {
		return nil, fmt.Errorf("no reasoning provider configured (set llm.provider to openai or ollama)")
	}
	return client, nil
}

// buildScraper assembles the article scraper with its cache and per-domain
// rate limiter.
func buildScraper(cfg *model.Config) *news.Scraper {
	var articleCache cache.Cache
	if cfg.Cache.Enabled {
		articleCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	return news.NewScraper(news.ScraperConfig{
		Timeout:       cfg.HTTP.Timeout,
		UserAgent:     cfg.HTTP.UserAgent,
		MaxBodyBytes:  cfg.HTTP.MaxBodyBytes,
		RespectRobots: cfg.News.RespectRobot,
		ScrapeDelay:   cfg.News.ScrapeDelay,
		Cache:         articleCache,
		Limiter:       worker.NewLimiter(cfg.Analysis.RequestsPerSec, 2),
		Verbose:       cfg.Output.Verbose,
	})
}

// buildPipeline wires the full pipeline for a run.
func buildPipeline(cfg *model.Config, st *store.Store, client llm.Client) *pipeline.Pipeline {
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	searcher := news.NewMultiSearcher(
		news.NewDuckDuckGoSearcher(httpClient, cfg.HTTP.UserAgent, cfg.News.MaxResults, cfg.News.Region),
	)

	enricher := semantic.NewEnricher(client, cfg.Analysis.BatchSize,
		worker.NewPacer(cfg.Analysis.BatchDelay), cfg.Output.Verbose)
	classifier := analysis.NewClassifier(client, cfg.Output.Verbose)

	return pipeline.New(pipeline.Options{
		Searcher:    searcher,
		Scraper:     buildScraper(cfg),
		Enricher:    enricher,
		Classifier:  classifier,
		Store:       st,
		Pacer:       worker.NewPacer(cfg.Analysis.CallDelay),
		MaxArticles: cfg.News.MaxArticles,
		Verbose:     cfg.Output.Verbose,
	})
}

// resolveSubject looks up a subject by name, creating it when --create is
// allowed by the calling command.
func resolveSubject(st *store.Store, name string, create bool) (*model.Subject, error) {
	subject, err := st.GetSubjectByName(name)
	if err != nil {
		return nil, fmt.Errorf("look up subject: %w", err)
	}
	if subject != nil {
		return subject, nil
	}
	if !create {
		return nil, fmt.Errorf("unknown subject %q (seed it first, or pass --create)", name)
	}

	subject = &model.Subject{Name: name}
	if err := st.UpsertSubject(subject); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return subject, nil
}
