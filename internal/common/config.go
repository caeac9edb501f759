package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// LLMConfig holds provider-related configuration
type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// PipelineConfig holds batch-processing configuration
type PipelineConfig struct {
	Workers            int
	CheckpointEvery    int
	MinRequestInterval time.Duration
	MaxTextChars       int
}

// Known providers. Both expose the OpenAI chat/completions surface, so a
// single HTTP client covers them through BaseURL.
const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

// DefaultBaseURL returns the chat/completions root for a provider,
// or "" for an unknown one.
func DefaultBaseURL(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	case ProviderGroq:
		return "https://api.groq.com/openai/v1"
	default:
		return ""
	}
}

// DefaultModel returns the default model for a provider.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return "llama-3.3-70b-versatile"
	}
}

// APIKeyEnvVar returns the environment variable holding the provider's key.
func APIKeyEnvVar(provider string) string {
	switch provider {
	case ProviderGroq:
		return "GROQ_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig(provider string) *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       getEnv("LLM_MODEL", DefaultModel(provider)),
			APIKey:      getEnv(APIKeyEnvVar(provider), ""),
			BaseURL:     getEnv("LLM_BASE_URL", DefaultBaseURL(provider)),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 90*time.Second),
		},
		Pipeline: PipelineConfig{
			Workers:            getEnvAsInt("PIPELINE_WORKERS", 4),
			CheckpointEvery:    getEnvAsInt("PIPELINE_CHECKPOINT_EVERY", 20),
			MinRequestInterval: getEnvAsDuration("PIPELINE_MIN_REQUEST_INTERVAL", 500*time.Millisecond),
			MaxTextChars:       getEnvAsInt("PIPELINE_MAX_TEXT_CHARS", 8000),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "unsupported provider "+c.LLM.Provider, ErrProviderFatal)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", APIKeyEnvVar(c.LLM.Provider)+" is required", ErrProviderFatal)
	}
	if c.Pipeline.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_WORKERS must be >= 1", ErrProviderFatal)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
