package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/feature"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	v := cfg.Vocabulary()
	assert.Equal(t, 15, v.Len())
	l, err := v.Index("cafe/restaurant")
	require.NoError(t, err)
	assert.Equal(t, "cafe/restaurant", v.Name(l))

	key := cfg.FilterBankKey()
	assert.Equal(t, 44100, key.SampleRate)
	assert.Equal(t, 513, key.Bins())
	assert.Equal(t, 22100.0, key.FMax)
}

func TestDefaultFilterBankKeyMatchesConfig(t *testing.T) {
	cfg := Default()
	key := feature.DefaultFilterBankKey(cfg.Audio.SampleRate, cfg.Audio.NFFT, cfg.Features.NMels)
	require.Equal(t, cfg.FilterBankKey(), key)
	assert.Equal(t, 22100.0, key.FMax, "fmax is above Nyquist at 44100 Hz and must not be clamped")

	assert.True(t, mat.Equal(feature.NewFilterBank(cfg.FilterBankKey()), feature.NewFilterBank(key)))

	clamped := key
	clamped.FMax = float64(cfg.Audio.SampleRate) / 2
	assert.False(t, mat.Equal(feature.NewFilterBank(clamped), feature.NewFilterBank(key)))
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Audio, cfg.Audio)
	assert.Equal(t, Default().Features, cfg.Features)
	assert.Equal(t, SceneLabels, cfg.Labels)
}

func TestWriteThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	cfg := Default()
	cfg.Features.ContextLength = 5
	cfg.Labels = []string{"indoor", "outdoor"}
	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Features.ContextLength)
	assert.Equal(t, []string{"indoor", "outdoor"}, loaded.Labels)
	assert.Equal(t, 2, loaded.Vocabulary().Len())
}

func TestEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Default().Write(path))
	t.Setenv("ACOUSTIC_AUDIO_SAMPLE_RATE", "16000")
	t.Setenv("ACOUSTIC_WORKERS", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16000, cfg.Audio.SampleRate)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.Audio.SampleRate = 0 }},
		{"negative hop", func(c *Config) { c.Features.Hop = -1 }},
		{"fmax below fmin", func(c *Config) { c.Features.FMin = 100; c.Features.FMax = 50 }},
		{"duplicate label", func(c *Config) { c.Labels = []string{"a", "a"} }},
		{"no labels", func(c *Config) { c.Labels = nil }},
		{"no scaler name", func(c *Config) { c.Scaler.Name = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("features:\n  context_length: 0\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
