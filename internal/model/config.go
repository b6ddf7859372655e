package model

import "time"

// Config holds the complete ClearVote configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Cache    CacheConfig    `yaml:"cache"`
	LLM      LLMConfig      `yaml:"llm"`
	News     NewsConfig     `yaml:"news"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Store    StoreConfig    `yaml:"store"`
	Output   OutputConfig   `yaml:"output"`
}

// HTTPConfig controls outbound HTTP behavior for search and scraping.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty"`
	NoProxy      string        `yaml:"no_proxy,omitempty"`
}

// CacheConfig controls the scraped-article cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// LLMConfig holds reasoning-service configuration.
type LLMConfig struct {
	Provider   string `yaml:"provider"` // "openai" or "ollama"
	Model      string `yaml:"model"`
	APIKey     string `yaml:"-"` // From environment only, never written to disk
	BaseURL    string `yaml:"base_url,omitempty"`
	Timeout    int    `yaml:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens"`
	HTTPProxy  string `yaml:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty"`
	NoProxy    string `yaml:"no_proxy,omitempty"`
}

// NewsConfig controls article search and statement extraction.
type NewsConfig struct {
	MaxArticles  int           `yaml:"max_articles"`  // Articles scraped per subject
	MaxResults   int           `yaml:"max_results"`   // Search results requested per provider
	Region       string        `yaml:"region"`        // Search query suffix, e.g. "California legislature"
	ScrapeDelay  time.Duration `yaml:"scrape_delay"`  // Pause between article fetches
	RespectRobot bool          `yaml:"respect_robots"`
}

// AnalysisConfig controls enrichment, filtering, and classification pacing.
type AnalysisConfig struct {
	BatchSize      int           `yaml:"batch_size"`       // Statements per enrichment call, max 4
	CallDelay      time.Duration `yaml:"call_delay"`       // Pause between classification calls
	BatchDelay     time.Duration `yaml:"batch_delay"`      // Pause between enrichment batches
	RequestsPerSec float64       `yaml:"requests_per_sec"` // Scrape limiter rate, per domain
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig controls operator-facing output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "ClearVote/2.0 (+https://github.com/Zavosh/ClearVote2.0)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // Resolved to ~/.clearvote/cache by the CLI
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   30,
			MaxTokens: 1500,
		},
		News: NewsConfig{
			MaxArticles:  10,
			MaxResults:   15,
			Region:       "California legislature",
			ScrapeDelay:  500 * time.Millisecond,
			RespectRobot: true,
		},
		Analysis: AnalysisConfig{
			BatchSize:      4,
			CallDelay:      300 * time.Millisecond,
			BatchDelay:     2 * time.Second,
			RequestsPerSec: 1,
		},
		Store: StoreConfig{
			Path: "clearvote.db",
		},
		Output: OutputConfig{},
	}
}
