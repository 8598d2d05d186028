package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults, plus an optional
// YAML file overlay applied after the environment is read.
//
// Environment Variables:
// LLM Configuration:
// - LLM_API_KEY: API key for the hosted model provider (required)
// - LLM_API_URL: API endpoint URL (default: https://api.venice.ai/api/v1)
// - LLM_MODEL: Default completion model (default: venice-uncensored)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 500)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.7)
// - LLM_TIMEOUT: Request timeout in seconds (default: 30)
//
// Speech Configuration:
// - TTS_MODEL: Speech synthesis model (default: tts-kokoro)
// - TTS_VOICE_EN: English voice (default: af_sky)
// - TTS_VOICE_PT: Portuguese voice (default: pf_dora)
//
// Cache Configuration:
// - CACHE_DB_PATH: SQLite database path (default: data/civics-tutor.db)
//
// Server Configuration:
// - LISTEN_ADDR: HTTP listen address (default: :8080)
//
// Current-Answer Configuration:
// - CURRENT_ANSWER_MODELS: Comma-separated ordered model chain
// - CURRENT_ANSWER_FALLBACK_MODEL: Model for the disclaimed fallback
// - CURRENT_ANSWER_REFRESH_CRON: Cron expression for the scheduled refresh
//
// Question Configuration:
// - QUESTION_BANK_PATH: Optional JSON file overriding the embedded bank
//
// Log Configuration:
// - LOG_LEVEL: DEBUG, INFO, WARN, ERROR (default: INFO)
// - LOG_FILE: Optional file path; empty logs to stdout
type Config struct {
	LLM           LLMConfig           `yaml:"llm"`
	TTS           TTSConfig           `yaml:"tts"`
	Cache         CacheConfig         `yaml:"cache"`
	Server        ServerConfig        `yaml:"server"`
	Translate     TranslateConfig     `yaml:"translate"`
	CurrentAnswer CurrentAnswerConfig `yaml:"current_answer"`
	Questions     QuestionsConfig     `yaml:"questions"`
	Log           LogConfig           `yaml:"log"`
}

// LLMConfig holds the configuration for the remote completion provider.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	APIURL      string  `yaml:"api_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Timeout     int     `yaml:"timeout"`
}

// TTSConfig holds the configuration for speech synthesis.
type TTSConfig struct {
	Model   string `yaml:"model"`
	VoiceEN string `yaml:"voice_en"`
	VoicePT string `yaml:"voice_pt"`
}

// CacheConfig holds the configuration for the content cache.
type CacheConfig struct {
	DBPath string `yaml:"db_path"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// TranslateConfig holds the translation pipeline configuration.
// TargetLanguage is fixed to European Portuguese for this application;
// the dialect instruction steers the model away from the Brazilian variant.
type TranslateConfig struct {
	TargetLanguage     language.Tag `yaml:"-"`
	DialectInstruction string       `yaml:"dialect_instruction"`
}

// CurrentAnswerConfig holds the configuration for the current-answer
// resolver. Models is an ordered fallback chain; the roster is deployment
// configuration, not a behavioral contract.
type CurrentAnswerConfig struct {
	Models        []string `yaml:"models"`
	FallbackModel string   `yaml:"fallback_model"`
	RefreshCron   string   `yaml:"refresh_cron"`
}

// QuestionsConfig holds the question bank configuration.
type QuestionsConfig struct {
	BankPath string `yaml:"bank_path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

const defaultDialectInstruction = "Translate to European Portuguese (NOT Brazilian Portuguese)"

var defaultCurrentAnswerModels = []string{
	"claude-3-sonnet-20240229",
	"claude-3-haiku-20240307",
	"gpt-4o",
	"gpt-4-turbo",
	"venice-uncensored",
}

// Option is a function type for configuring Config
type Option func(*Config) error

// WithFile returns an Option that overlays values from a YAML file.
// Keys absent from the file keep their environment-derived values.
func WithFile(path string) Option {
	return func(c *Config) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
		return nil
	}
}

// NewFromEnv creates a new Config instance with values from environment
// variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://api.venice.ai/api/v1"),
			Model:       getEnvString("LLM_MODEL", "venice-uncensored"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 500),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvInt("LLM_TIMEOUT", 30),
		},
		TTS: TTSConfig{
			Model:   getEnvString("TTS_MODEL", "tts-kokoro"),
			VoiceEN: getEnvString("TTS_VOICE_EN", "af_sky"),
			VoicePT: getEnvString("TTS_VOICE_PT", "pf_dora"),
		},
		Cache: CacheConfig{
			DBPath: getEnvString("CACHE_DB_PATH", "data/civics-tutor.db"),
		},
		Server: ServerConfig{
			ListenAddr: getEnvString("LISTEN_ADDR", ":8080"),
		},
		Translate: TranslateConfig{
			TargetLanguage:     language.EuropeanPortuguese,
			DialectInstruction: getEnvString("DIALECT_INSTRUCTION", defaultDialectInstruction),
		},
		CurrentAnswer: CurrentAnswerConfig{
			Models:        getEnvStringSlice("CURRENT_ANSWER_MODELS", defaultCurrentAnswerModels),
			FallbackModel: getEnvString("CURRENT_ANSWER_FALLBACK_MODEL", "venice-uncensored"),
			RefreshCron:   getEnvString("CURRENT_ANSWER_REFRESH_CRON", "0 6 * * *"),
		},
		Questions: QuestionsConfig{
			BankPath: getEnvString("QUESTION_BANK_PATH", ""),
		},
		Log: LogConfig{
			Level: getEnvString("LOG_LEVEL", "INFO"),
			File:  getEnvString("LOG_FILE", ""),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.LLM.APIURL == "" {
		return fmt.Errorf("LLM API URL is required")
	}
	if c.LLM.Timeout < 1 {
		return fmt.Errorf("LLM timeout must be greater than 0")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM temperature must be between 0 and 2")
	}
	if len(c.CurrentAnswer.Models) == 0 {
		return fmt.Errorf("current-answer model chain must not be empty")
	}
	if c.CurrentAnswer.FallbackModel == "" {
		return fmt.Errorf("current-answer fallback model is required")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvStringSlice gets a comma-separated list from environment variables
// with default. Blank elements are dropped.
func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	ret := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ret = append(ret, trimmed)
		}
	}
	if len(ret) == 0 {
		return defaultValue
	}
	return ret
}
