package config

import (
	"fmt"
	"strings"

	"cultura-chat/internal/logging"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envKeys maps environment variable names to koanf paths. Variables not
// listed here are ignored.
var envKeys = map[string]string{
	"PORT":                  "server.port",
	"APP_ENV":               "server.env",
	"SHUTDOWN_TIMEOUT":      "server.shutdown_timeout",
	"LLM_PROVIDER":          "llm.provider",
	"LLM_MAX_TOKENS":        "llm.max_tokens",
	"LLM_TEMPERATURE":       "llm.temperature",
	"LLM_TIMEOUT":           "llm.timeout",
	"OPENAI_API_KEY":        "openai.api_key",
	"OPENAI_BASE_URL":       "openai.base_url",
	"OPENAI_MODEL":          "openai.model",
	"GOOGLE_API_KEY":        "gemini.api_key",
	"GOOGLE_CLOUD_PROJECT":  "gemini.project",
	"GOOGLE_CLOUD_LOCATION": "gemini.location",
	"GEMINI_MODEL":          "gemini.model",
	"REDIS_ADDR":            "redis.addr",
	"REDIS_PASSWORD":        "redis.password",
	"REDIS_DB":              "redis.db",
	"REPLY_CACHE_TTL":       "redis.ttl",
	"LOG_LEVEL":             "log.level",
	"LOG_FORMAT":            "log.format",
	"LOG_FILE":              "log.file",
}

// Load reads the given dotenv files (default ".env") into the process
// environment, then builds and validates the Config. Variables already set
// in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			logging.Warn().Str("file", f).Msg("env file not found, using system environment variables")
		}
	}
	return fromEnvironment()
}

func fromEnvironment() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("%w: load defaults: %v", ErrConfiguration, err)
	}

	if err := k.Load(env.ProviderWithValue("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("%w: load environment: %v", ErrConfiguration, err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// envTransform drops unknown and empty variables so they never shadow a
// default.
func envTransform(key, value string) (string, interface{}) {
	path, ok := envKeys[key]
	if !ok || strings.TrimSpace(value) == "" {
		return "", nil
	}
	return path, strings.TrimSpace(value)
}
