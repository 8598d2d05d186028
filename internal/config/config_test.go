package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewFromEnvDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, "https://api.venice.ai/api/v1", cfg.LLM.APIURL)
	assert.Equal(t, "venice-uncensored", cfg.LLM.Model)
	assert.Equal(t, 500, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 30, cfg.LLM.Timeout)

	assert.Equal(t, "tts-kokoro", cfg.TTS.Model)
	assert.Equal(t, "af_sky", cfg.TTS.VoiceEN)
	assert.Equal(t, "pf_dora", cfg.TTS.VoicePT)

	assert.Equal(t, "data/civics-tutor.db", cfg.Cache.DBPath)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)

	assert.Equal(t, language.EuropeanPortuguese, cfg.Translate.TargetLanguage)
	assert.Contains(t, cfg.Translate.DialectInstruction, "European Portuguese")
	assert.Contains(t, cfg.Translate.DialectInstruction, "NOT Brazilian")

	assert.Equal(t, defaultCurrentAnswerModels, cfg.CurrentAnswer.Models)
	assert.Equal(t, "venice-uncensored", cfg.CurrentAnswer.FallbackModel)
	assert.Equal(t, "0 6 * * *", cfg.CurrentAnswer.RefreshCron)

	assert.Empty(t, cfg.Questions.BankPath)
	assert.Equal(t, "INFO", cfg.Log.Level)
}

func TestNewFromEnvOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LLM_MODEL", "other-model")
	t.Setenv("LLM_MAX_TOKENS", "750")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("CURRENT_ANSWER_MODELS", "model-a, model-b ,model-c")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "other-model", cfg.LLM.Model)
	assert.Equal(t, 750, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, []string{"model-a", "model-b", "model-c"}, cfg.CurrentAnswer.Models)
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
}

func TestNewFromEnvRequiresAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")
}

func TestNewFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	t.Run("temperature out of range", func(t *testing.T) {
		t.Setenv("LLM_TEMPERATURE", "3.5")
		_, err := NewFromEnv()
		assert.Error(t, err)
	})

	t.Run("zero timeout", func(t *testing.T) {
		t.Setenv("LLM_TIMEOUT", "0")
		_, err := NewFromEnv()
		assert.Error(t, err)
	})
}

func TestNewFromEnvMalformedNumbersKeepDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")
	t.Setenv("LLM_TEMPERATURE", "warm")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
}

func TestWithFileOverlay(t *testing.T) {
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("LLM_MODEL", "env-model")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
llm:
  model: file-model
server:
  listen_addr: ":7070"
current_answer:
  refresh_cron: "30 5 * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := NewFromEnv(WithFile(path))
	require.NoError(t, err)

	// File values win over environment values; untouched keys keep the
	// environment-derived values.
	assert.Equal(t, "file-model", cfg.LLM.Model)
	assert.Equal(t, ":7070", cfg.Server.ListenAddr)
	assert.Equal(t, "30 5 * * *", cfg.CurrentAnswer.RefreshCron)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
}

func TestWithFileMissing(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	_, err := NewFromEnv(WithFile(filepath.Join(t.TempDir(), "absent.yaml")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestWithFileInvalidYAML(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [broken"), 0o644))

	_, err := NewFromEnv(WithFile(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestGetEnvStringSlice(t *testing.T) {
	t.Setenv("TEST_SLICE", "")
	assert.Equal(t, []string{"a"}, getEnvStringSlice("TEST_SLICE", []string{"a"}))

	t.Setenv("TEST_SLICE", "x,y")
	assert.Equal(t, []string{"x", "y"}, getEnvStringSlice("TEST_SLICE", []string{"a"}))

	t.Setenv("TEST_SLICE", " , ,")
	assert.Equal(t, []string{"a"}, getEnvStringSlice("TEST_SLICE", []string{"a"}))
}
