// Package config loads the service configuration from a .env file and the
// process environment, layered over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var ErrConfiguration = errors.New("invalid configuration")

type Config struct {
	Server ServerConfig `koanf:"server"`
	LLM    LLMConfig    `koanf:"llm"`
	OpenAI OpenAIConfig `koanf:"openai"`
	Gemini GeminiConfig `koanf:"gemini"`
	Redis  RedisConfig  `koanf:"redis"`
	Log    LogConfig    `koanf:"log"`
}

type ServerConfig struct {
	Port            string        `koanf:"port" validate:"required,numeric"`
	Env             string        `koanf:"env"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

type LLMConfig struct {
	Provider    string        `koanf:"provider" validate:"oneof=openai gemini"`
	MaxTokens   int           `koanf:"max_tokens" validate:"gt=0"`
	Temperature float64       `koanf:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `koanf:"timeout" validate:"gte=0"` // zero: no explicit timeout
}

type OpenAIConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
	Model   string `koanf:"model" validate:"required"`
}

// GeminiConfig selects Vertex AI when Project is set, the Gemini API otherwise.
type GeminiConfig struct {
	APIKey   string `koanf:"api_key"`
	Project  string `koanf:"project"`
	Location string `koanf:"location"`
	Model    string `koanf:"model" validate:"required"`
}

// RedisConfig enables the reply cache when Addr is set.
type RedisConfig struct {
	Addr     string        `koanf:"addr" validate:"omitempty,hostname_port"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	TTL      time.Duration `koanf:"ttl" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	File   string `koanf:"file"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			Env:             "development",
			ShutdownTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			MaxTokens:   500,
			Temperature: 0.7,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-3.5-turbo",
		},
		Gemini: GeminiConfig{
			Location: "us-central1",
			Model:    "gemini-2.5-flash",
		},
		Redis: RedisConfig{
			TTL: 10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// A missing OpenAI key is not fatal: every chat then gets the fallback
	// reply. The Gemini client cannot be constructed without credentials.
	if c.LLM.Provider == ProviderGemini && c.Gemini.APIKey == "" && c.Gemini.Project == "" {
		return fmt.Errorf("GOOGLE_API_KEY or GOOGLE_CLOUD_PROJECT is required for the %s provider", ProviderGemini)
	}
	return nil
}

// Model is the upstream model name of the selected provider.
func (c *Config) Model() string {
	if c.LLM.Provider == ProviderGemini {
		return c.Gemini.Model
	}
	return c.OpenAI.Model
}

func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}
