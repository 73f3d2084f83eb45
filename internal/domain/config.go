package domain

import "time"

// Config holds the complete Deviza configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Tier determines which backing services are used
	Tier Tier `json:"tier"`

	// Analysis pipeline
	Extraction ExtractionConfig `json:"extraction"`
	Matching   MatchingConfig   `json:"matching"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// ExtractionConfig tunes the clause extractor.
type ExtractionConfig struct {
	// DefaultLanguage is the pattern set used for languages without one.
	DefaultLanguage Language `json:"defaultLanguage"`

	// ContextRadius is the number of characters kept on each side of a match.
	ContextRadius ContextRadius `json:"contextRadius"`

	// MaxWorkers bounds the category extractions running at once.
	MaxWorkers int `json:"maxWorkers"`

	// PatternsFile is an optional YAML pattern pack merged at start.
	PatternsFile string `json:"patternsFile,omitempty"`
}

// ContextRadius holds the per-category context window radius.
type ContextRadius struct {
	FXRisk       int `json:"fxRisk"`
	Transparency int `json:"transparency"`
	InterestRate int `json:"interestRate"`
	Penalty      int `json:"penalty"`
	Contextual   int `json:"contextual"`
}

// DefaultContextRadius returns the stock radii.
func DefaultContextRadius() ContextRadius {
	return ContextRadius{
		FXRisk:       100,
		Transparency: 75,
		InterestRate: 60,
		Penalty:      50,
		Contextual:   90,
	}
}

// For returns the radius configured for a category.
func (r ContextRadius) For(c Category) int {
	switch c {
	case CategoryFXRisk:
		return r.FXRisk
	case CategoryTransparency:
		return r.Transparency
	case CategoryInterestRate:
		return r.InterestRate
	case CategoryPenalty:
		return r.Penalty
	case CategoryUnfairTerm:
		return r.Contextual
	}
	return 0
}

// MatchingConfig tunes the precedent matcher.
type MatchingConfig struct {
	TopN              int           `json:"topN"`
	MinCaseScore      float64       `json:"minCaseScore"`      // per clause-case pair, exclusive
	MinAggregateScore float64       `json:"minAggregateScore"` // normalized case level, exclusive
	CorpusTTL         time.Duration `json:"corpusTtl"`
	ResultTTL         time.Duration `json:"resultTtl"`
}

// DefaultMatchingConfig returns the stock matcher settings.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		TopN:              5,
		MinCaseScore:      0.2,
		MinAggregateScore: 0.3,
		CorpusTTL:         10 * time.Minute,
		ResultTTL:         time.Hour,
	}
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool   `json:"enabled"`
	ServiceName  string `json:"serviceName"`
	ExporterType string `json:"exporterType"` // stdout, otlp, jaeger
	Endpoint     string `json:"endpoint"`
}

// Tier represents the deployment tier.
type Tier string

const (
	// TierCommunity runs on SQLite + channels + in-memory cache
	TierCommunity Tier = "community"

	// TierPro runs on PostgreSQL + NATS + Redis
	TierPro Tier = "pro"
)

// DefaultConfig returns a default configuration for Community tier.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Tier: TierCommunity,
		Extraction: ExtractionConfig{
			DefaultLanguage: DefaultLanguage,
			ContextRadius:   DefaultContextRadius(),
			MaxWorkers:      len(AllCategories),
		},
		Matching: DefaultMatchingConfig(),
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./deviza.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "deviza",
		},
	}
}

// ProConfig returns a configuration for Pro tier.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "deviza",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
