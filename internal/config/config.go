// Package config loads application configuration and wires the global
// logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Tavily    TavilyConfig    `mapstructure:"tavily"`
	Docstore  DocstoreConfig  `mapstructure:"docstore"`
	Store     StoreConfig     `mapstructure:"store"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Log       LogConfig       `mapstructure:"log"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key            string `mapstructure:"key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `mapstructure:"key"`
	Model string `mapstructure:"model"`
}

// TavilyConfig holds web-search API settings.
type TavilyConfig struct {
	Key               string  `mapstructure:"key"`
	BaseURL           string  `mapstructure:"base_url"`
	MaxResults        int     `mapstructure:"max_results"`
	MaxRetries        int     `mapstructure:"max_retries"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// DocstoreConfig configures the embedded vector store.
type DocstoreConfig struct {
	Path         string `mapstructure:"path"`
	Collection   string `mapstructure:"collection"`
	ChunkWords   int    `mapstructure:"chunk_words"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
}

// StoreConfig configures the run-log database.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ExtractorConfig configures the extraction workflow.
type ExtractorConfig struct {
	Provider                  string  `mapstructure:"provider"`
	ModelName                 string  `mapstructure:"model_name"`
	MaxMissingFeatureAttempts int     `mapstructure:"max_missing_feature_attempts"`
	MaxLowConfidenceAttempts  int     `mapstructure:"max_low_confidence_attempts"`
	ConfidenceThreshold       float64 `mapstructure:"confidence_threshold"`
	MaxNoProgressAttempts     int     `mapstructure:"max_no_progress_attempts"`
	MaxConcurrentRuns         int     `mapstructure:"max_concurrent_runs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EXTRACTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("tavily.max_results", 10)
	v.SetDefault("tavily.max_retries", 3)
	v.SetDefault("tavily.requests_per_second", 1.0)
	v.SetDefault("docstore.collection", "product_chunks")
	v.SetDefault("docstore.chunk_words", 200)
	v.SetDefault("docstore.chunk_overlap", 40)
	v.SetDefault("store.path", "extractor.db")
	v.SetDefault("extractor.provider", "openai")
	v.SetDefault("extractor.model_name", "gpt-4o")
	v.SetDefault("extractor.max_missing_feature_attempts", 3)
	v.SetDefault("extractor.max_low_confidence_attempts", 3)
	v.SetDefault("extractor.confidence_threshold", 0.7)
	v.SetDefault("extractor.max_no_progress_attempts", 2)
	v.SetDefault("extractor.max_concurrent_runs", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
