package model

import (
	"path/filepath"
	"time"
)

// Config is the complete claimcheck configuration.
// Loaded by viper from (highest to lowest priority) flags, CLAIMCHECK_* env vars,
// ~/.claimcheck/config.yaml and DefaultConfig.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
	Ledger    LedgerConfig    `yaml:"ledger" mapstructure:"ledger"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Evidence  EvidenceConfig  `yaml:"evidence" mapstructure:"evidence"`
	Policy    PolicyConfig    `yaml:"policy" mapstructure:"policy"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
}

// WorkspaceConfig locates research documents
type WorkspaceConfig struct {
	Root         string `yaml:"root" mapstructure:"root"`                   // Workspace root (default: current directory)
	DocumentsDir string `yaml:"documents_dir" mapstructure:"documents_dir"` // Relative to Root unless absolute
}

// SessionConfig selects where document state is persisted
type SessionConfig struct {
	Backend    string `yaml:"backend" mapstructure:"backend"` // file, badger, sqlite, memory
	Path       string `yaml:"path" mapstructure:"path"`       // JSON session file for the file backend
	BadgerDir  string `yaml:"badger_dir" mapstructure:"badger_dir"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LedgerConfig configures the external claim ledger (vector store)
type LedgerConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // qdrant, weaviate, memory
	Host       string `yaml:"host" mapstructure:"host"`
	Port       int    `yaml:"port" mapstructure:"port"`
	Scheme     string `yaml:"scheme" mapstructure:"scheme"` // http or https (https enables TLS for qdrant gRPC)
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Collection string `yaml:"collection" mapstructure:"collection"` // Qdrant collection or Weaviate class
	Dimension  int    `yaml:"dimension" mapstructure:"dimension"`
}

// EmbeddingConfig selects how ledger record vectors are produced
type EmbeddingConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // placeholder, openai, ollama
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// SearchConfig configures the web search provider used for validation
type SearchConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"` // tavily
	APIKey            string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	MaxResults        int           `yaml:"max_results" mapstructure:"max_results"`
	SearchDepth       string        `yaml:"search_depth" mapstructure:"search_depth"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	Cache             CacheConfig   `yaml:"cache" mapstructure:"cache"`
}

// CacheConfig configures the layered search result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// EvidenceConfig controls optional page fetching for results without content
type EvidenceConfig struct {
	FetchMissingContent bool          `yaml:"fetch_missing_content" mapstructure:"fetch_missing_content"`
	Workers             int           `yaml:"workers" mapstructure:"workers"`
	Timeout             time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxContentBytes     int           `yaml:"max_content_bytes" mapstructure:"max_content_bytes"`
	RespectRobots       bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	RequestsPerSecond   float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst               int           `yaml:"burst" mapstructure:"burst"`
}

// PolicyConfig holds the vocabulary tables used by extraction, filtering and scoring.
// All matching is case-insensitive substring matching.
type PolicyConfig struct {
	MinParagraphLength  int      `yaml:"min_paragraph_length" mapstructure:"min_paragraph_length"`
	MinSentenceLength   int      `yaml:"min_sentence_length" mapstructure:"min_sentence_length"`
	UncertaintyMarkers  []string `yaml:"uncertainty_markers" mapstructure:"uncertainty_markers"`
	StatementIndicators []string `yaml:"statement_indicators" mapstructure:"statement_indicators"` // include surrounding spaces
	StopWords           []string `yaml:"stop_words" mapstructure:"stop_words"`
	SupportPhrases      []string `yaml:"support_phrases" mapstructure:"support_phrases"`
	ContradictPhrases   []string `yaml:"contradiction_phrases" mapstructure:"contradiction_phrases"`
	BlockedDomains      []string `yaml:"blocked_domains" mapstructure:"blocked_domains"`
	TrustedMarkers      []string `yaml:"trusted_markers" mapstructure:"trusted_markers"`
	ReputableDomains    []string `yaml:"reputable_domains" mapstructure:"reputable_domains"`
}

// ScoringConfig holds the weights and thresholds of the evidence scorer
type ScoringConfig struct {
	ScoreWeight          float64 `yaml:"score_weight" mapstructure:"score_weight"`
	RelevanceWeight      float64 `yaml:"relevance_weight" mapstructure:"relevance_weight"`
	SupportBonus         float64 `yaml:"support_bonus" mapstructure:"support_bonus"`
	ContradictionPenalty float64 `yaml:"contradiction_penalty" mapstructure:"contradiction_penalty"`
	MinConfidence        float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	ValidThreshold       float64 `yaml:"valid_threshold" mapstructure:"valid_threshold"`
	StrongThreshold      float64 `yaml:"strong_threshold" mapstructure:"strong_threshold"`
	NoSourcesCorrection  string  `yaml:"no_sources_correction" mapstructure:"no_sources_correction"`
	FallbackCorrection   string  `yaml:"fallback_correction" mapstructure:"fallback_correction"`
}

// HTTPConfig is shared by every outbound HTTP client
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// MetricsConfig controls the Prometheus endpoint exposed by `serve --http`
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Root:         ".",
			DocumentsDir: filepath.Join("docs", "research"),
		},
		Session: SessionConfig{
			Backend:    "file",
			Path:       ".document_processor_session.json",
			BadgerDir:  filepath.Join(".claimcheck", "session.badger"),
			SQLitePath: filepath.Join(".claimcheck", "session.db"),
		},
		Ledger: LedgerConfig{
			Provider:   "qdrant",
			Host:       "localhost",
			Port:       6334,
			Scheme:     "http",
			Collection: "claims",
			Dimension:  1536,
		},
		Embedding: EmbeddingConfig{
			Provider: "placeholder",
			Timeout:  30,
		},
		Search: SearchConfig{
			Provider:          "tavily",
			BaseURL:           "https://api.tavily.com",
			MaxResults:        3,
			SearchDepth:       "basic",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 1,
			Burst:             2,
			Cache: CacheConfig{
				Enabled:   true,
				MemoryTTL: time.Hour,
				DiskDir:   filepath.Join(".claimcheck", "cache"),
				DiskTTL:   24 * time.Hour,
			},
		},
		Evidence: EvidenceConfig{
			FetchMissingContent: false,
			Workers:             4,
			Timeout:             10 * time.Second,
			MaxContentBytes:     20_000,
			RespectRobots:       true,
			RequestsPerSecond:   2,
			Burst:               2,
		},
		Policy:  DefaultPolicy(),
		Scoring: DefaultScoring(),
		HTTP: HTTPConfig{
			UserAgent: "claimcheck/0.1 (+https://github.com/ppiankov/claimcheck)",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// DefaultPolicy returns the stock vocabulary tables
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		MinParagraphLength: 10,
		MinSentenceLength:  10,
		UncertaintyMarkers: []string{
			"i think", "maybe", "perhaps", "possibly", "might", "could", "may",
			"in my opinion", "i believe", "i feel",
		},
		StatementIndicators: []string{
			" is ", " are ", " was ", " were ", " will ", " has ", " have ", " can ",
			" must ", " should ", " would ", " does ", " do ", " causes ", " means ",
			" shows ", " proves ", " demonstrates ", " indicates ",
		},
		StopWords: []string{"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for"},
		SupportPhrases: []string{
			"proven", "confirmed", "demonstrated", "shown", "verified", "established",
			"evidence shows", "research indicates", "studies confirm", "data shows",
		},
		ContradictPhrases: []string{
			"false", "incorrect", "myth", "debunked", "disproven", "wrong",
			"no evidence", "lacks support", "contrary to", "disputes",
		},
		BlockedDomains: []string{"reddit.com", "facebook.com", "twitter.com", "tiktok.com"},
		TrustedMarkers: []string{".edu", ".gov", ".org"},
		ReputableDomains: []string{
			"nature.com", "science.org", "sciencedirect.com", "springer.com", "ieee.org",
			"acm.org", "cell.com", "nejm.org", "nih.gov", "cdc.gov", "who.int", "arxiv.org",
		},
	}
}

// DefaultScoring returns the stock scoring weights and thresholds
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		ScoreWeight:          0.7,
		RelevanceWeight:      0.3,
		SupportBonus:         0.3,
		ContradictionPenalty: 0.3,
		MinConfidence:        0.1,
		ValidThreshold:       0.4,
		StrongThreshold:      0.7,
		NoSourcesCorrection:  "Unable to verify claim due to lack of credible sources",
		FallbackCorrection:   "Consider revising based on available evidence",
	}
}

// DocumentsPath returns the absolute-or-relative root for research documents
func (c *Config) DocumentsPath() string {
	return c.resolve(c.Workspace.DocumentsDir)
}

// SessionPath returns the JSON session file location
func (c *Config) SessionPath() string {
	return c.resolve(c.Session.Path)
}

// BadgerPath returns the badger session directory
func (c *Config) BadgerPath() string {
	return c.resolve(c.Session.BadgerDir)
}

// SQLitePath returns the sqlite session database file
func (c *Config) SQLitePath() string {
	return c.resolve(c.Session.SQLitePath)
}

// CacheDir returns the on-disk search cache directory
func (c *Config) CacheDir() string {
	return c.resolve(c.Search.Cache.DiskDir)
}

// resolve anchors relative paths at the workspace root
func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	root := c.Workspace.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, p)
}
