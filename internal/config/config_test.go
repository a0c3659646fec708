package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, time.Duration(0), cfg.Server.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 0, cfg.Server.ThrottleLimit)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)

	assert.Equal(t, BackendOpenAI, cfg.Provider.Backend)
	assert.Equal(t, "https://router.huggingface.co/v1", cfg.Provider.BaseURL)
	assert.Empty(t, cfg.Provider.APIKey)

	assert.Equal(t, "meta-llama/Llama-3.1-8B-Instruct", cfg.Explain.Model)
	assert.Equal(t, 600, cfg.Explain.MaxTokens)
	assert.InDelta(t, 0.1, cfg.Explain.Temperature, 1e-9)
	assert.Equal(t, 6000, cfg.Explain.MaxInputChars)

	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := parse(map[string]string{
		"PORT":                 ":8081",
		"PROVIDER_BACKEND":     " Gemini ",
		"PROVIDER_TIMEOUT":     "45s",
		"MODEL_NAME":           "gpt2",
		"MAX_INPUT_CHARS":      "100",
		"TEMPERATURE":          "0",
		"CORS_ALLOWED_ORIGINS": "chrome-extension://abc,http://localhost:5173",
	})
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, BackendGemini, cfg.Provider.Backend)
	assert.Equal(t, 45*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, "gpt2", cfg.Explain.Model)
	assert.Equal(t, 100, cfg.Explain.MaxInputChars)
	assert.Zero(t, cfg.Explain.Temperature)
	assert.Equal(t, []string{"chrome-extension://abc", "http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestParseTokenFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		want    string
	}{
		{
			name:    "provider key wins",
			environ: map[string]string{"PROVIDER_API_KEY": "p", "HF_TOKEN": "t", "HF_API_KEY": "k"},
			want:    "p",
		},
		{
			name:    "hf token",
			environ: map[string]string{"HF_TOKEN": "t", "HF_API_KEY": "k"},
			want:    "t",
		},
		{
			name:    "hf api key",
			environ: map[string]string{"HF_API_KEY": "k"},
			want:    "k",
		},
		{
			name:    "blank values skipped",
			environ: map[string]string{"PROVIDER_API_KEY": "  ", "HF_API_KEY": "k"},
			want:    "k",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parse(tt.environ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Provider.APIKey)
		})
	}
}

func TestParseInvalidValue(t *testing.T) {
	_, err := parse(map[string]string{"MAX_INPUT_CHARS": "lots"})
	require.Error(t, err)
}
