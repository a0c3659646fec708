package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
)

type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Explain  ExplainConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"5000"`
	Timeout         time.Duration `env:"SERVER_TIMEOUT" envDefault:"0s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ThrottleLimit   int           `env:"SERVER_THROTTLE_LIMIT" envDefault:"0"`
	MaxBodyBytes    int64         `env:"SERVER_MAX_BODY_BYTES" envDefault:"1048576"`
}

// ProviderConfig describes the inference provider. APIKey is resolved from
// PROVIDER_API_KEY, then HF_TOKEN, then HF_API_KEY.
type ProviderConfig struct {
	Backend string        `env:"PROVIDER_BACKEND" envDefault:"openai"`
	BaseURL string        `env:"PROVIDER_BASE_URL" envDefault:"https://router.huggingface.co/v1"`
	Timeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"0s"`
	APIKey  string        `env:"PROVIDER_API_KEY"`

	HFToken  string `env:"HF_TOKEN"`
	HFAPIKey string `env:"HF_API_KEY"`
}

type ExplainConfig struct {
	Model         string  `env:"MODEL_NAME" envDefault:"meta-llama/Llama-3.1-8B-Instruct"`
	MaxTokens     int     `env:"MAX_TOKENS" envDefault:"600"`
	Temperature   float64 `env:"TEMPERATURE" envDefault:"0.1"`
	MaxInputChars int     `env:"MAX_INPUT_CHARS" envDefault:"6000"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads an optional .env file from the working directory and then
// parses the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse(env.ToMap(os.Environ()))
}

func parse(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, err
	}

	cfg.Provider.APIKey = firstNonEmpty(cfg.Provider.APIKey, cfg.Provider.HFToken, cfg.Provider.HFAPIKey)
	cfg.Provider.Backend = strings.ToLower(strings.TrimSpace(cfg.Provider.Backend))
	cfg.Server.Port = strings.TrimPrefix(strings.TrimSpace(cfg.Server.Port), ":")
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
