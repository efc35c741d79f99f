// Package config loads and validates pipeline settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/himanishpuri/AcousticScene/internal/dataset"
	"github.com/himanishpuri/AcousticScene/internal/feature"
	"github.com/himanishpuri/AcousticScene/pkg/utils"
)

const EnvPrefix = "ACOUSTIC"

type Audio struct {
	SampleRate int `mapstructure:"sample_rate" yaml:"sample_rate"`
	NFFT       int `mapstructure:"n_fft" yaml:"n_fft"`
}

type Features struct {
	NMels         int     `mapstructure:"n_mels" yaml:"n_mels"`
	FMin          float64 `mapstructure:"fmin" yaml:"fmin"`
	FMax          float64 `mapstructure:"fmax" yaml:"fmax"`
	ContextLength int     `mapstructure:"context_length" yaml:"context_length"`
	Hop           int     `mapstructure:"hop" yaml:"hop"`
}

type Scaler struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	WithMean bool   `mapstructure:"with_mean" yaml:"with_mean"`
	WithStd  bool   `mapstructure:"with_std" yaml:"with_std"`
	Name     string `mapstructure:"name" yaml:"name"`
}

type Paths struct {
	DevWav      string `mapstructure:"dev_wav" yaml:"dev_wav"`
	EvaWav      string `mapstructure:"eva_wav" yaml:"eva_wav"`
	FeaturesDB  string `mapstructure:"features_db" yaml:"features_db"`
	DevManifest string `mapstructure:"dev_manifest" yaml:"dev_manifest"`
	EvaManifest string `mapstructure:"eva_manifest" yaml:"eva_manifest"`
	Model       string `mapstructure:"model" yaml:"model"`
}

type Config struct {
	Audio    Audio    `mapstructure:"audio" yaml:"audio"`
	Features Features `mapstructure:"features" yaml:"features"`
	Scaler   Scaler   `mapstructure:"scaler" yaml:"scaler"`
	Labels   []string `mapstructure:"labels" yaml:"labels"`
	Paths    Paths    `mapstructure:"paths" yaml:"paths"`
	Workers  int      `mapstructure:"workers" yaml:"workers"`
	LogLevel string   `mapstructure:"log_level" yaml:"log_level"`

	vocab *dataset.Vocabulary
}

// SceneLabels is the DCASE2016 acoustic scene vocabulary.
var SceneLabels = []string{
	"beach", "bus", "cafe/restaurant", "car", "city_center",
	"forest_path", "grocery_store", "home", "library", "metro_station",
	"office", "park", "residential_area", "train", "tram",
}

func Default() *Config {
	return &Config{
		Audio: Audio{SampleRate: feature.DefaultSampleRate, NFFT: feature.DefaultNFFT},
		Features: Features{
			NMels:         feature.DefaultNMels,
			FMin:          0,
			FMax:          feature.DefaultFMax,
			ContextLength: 11,
			Hop:           1,
		},
		Scaler: Scaler{Enabled: true, WithMean: true, WithStd: true, Name: "default"},
		Labels: append([]string(nil), SceneLabels...),
		Paths: Paths{
			DevWav:      "data/development/audio",
			EvaWav:      "data/evaluation/audio",
			FeaturesDB:  "data/features.sqlite3",
			DevManifest: "data/development/meta.txt",
			EvaManifest: "data/evaluation/meta.txt",
			Model:       "models/scene.onnx",
		},
		Workers:  4,
		LogLevel: "INFO",
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.n_fft", d.Audio.NFFT)
	v.SetDefault("features.n_mels", d.Features.NMels)
	v.SetDefault("features.fmin", d.Features.FMin)
	v.SetDefault("features.fmax", d.Features.FMax)
	v.SetDefault("features.context_length", d.Features.ContextLength)
	v.SetDefault("features.hop", d.Features.Hop)
	v.SetDefault("scaler.enabled", d.Scaler.Enabled)
	v.SetDefault("scaler.with_mean", d.Scaler.WithMean)
	v.SetDefault("scaler.with_std", d.Scaler.WithStd)
	v.SetDefault("scaler.name", d.Scaler.Name)
	v.SetDefault("labels", d.Labels)
	v.SetDefault("paths.dev_wav", d.Paths.DevWav)
	v.SetDefault("paths.eva_wav", d.Paths.EvaWav)
	v.SetDefault("paths.features_db", d.Paths.FeaturesDB)
	v.SetDefault("paths.dev_manifest", d.Paths.DevManifest)
	v.SetDefault("paths.eva_manifest", d.Paths.EvaManifest)
	v.SetDefault("paths.model", d.Paths.Model)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("log_level", d.LogLevel)
}

// Load reads configuration from path, or from config/<CONFIG_ENV>/config.yaml
// when path is empty. A missing default file is not an error. Environment
// variables prefixed ACOUSTIC_ override file values, e.g.
// ACOUSTIC_AUDIO_SAMPLE_RATE.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join("config", env))
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every numeric setting and freezes the label vocabulary.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	positive("audio.sample_rate", c.Audio.SampleRate)
	positive("audio.n_fft", c.Audio.NFFT)
	positive("features.n_mels", c.Features.NMels)
	positive("features.context_length", c.Features.ContextLength)
	positive("features.hop", c.Features.Hop)
	positive("workers", c.Workers)
	if c.Features.FMin < 0 {
		errs = append(errs, fmt.Errorf("features.fmin must be non-negative, got %g", c.Features.FMin))
	}
	if c.Features.FMax <= c.Features.FMin {
		errs = append(errs, fmt.Errorf("features.fmax (%g) must exceed fmin (%g)", c.Features.FMax, c.Features.FMin))
	}
	if c.Scaler.Enabled && c.Scaler.Name == "" {
		errs = append(errs, errors.New("scaler.name is required when scaling is enabled"))
	}

	vocab, err := dataset.NewVocabulary(c.Labels)
	if err != nil {
		errs = append(errs, fmt.Errorf("labels: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	c.vocab = vocab
	return nil
}

// Vocabulary returns the label set frozen by Validate.
func (c *Config) Vocabulary() *dataset.Vocabulary {
	if c.vocab == nil {
		if err := c.Validate(); err != nil {
			panic(err)
		}
	}
	return c.vocab
}

func (c *Config) FilterBankKey() feature.FilterBankKey {
	return feature.FilterBankKey{
		SampleRate: c.Audio.SampleRate,
		NFFT:       c.Audio.NFFT,
		NMels:      c.Features.NMels,
		FMin:       c.Features.FMin,
		FMax:       c.Features.FMax,
	}
}

func (c *Config) Windower() *dataset.Windower {
	return &dataset.Windower{ContextLength: c.Features.ContextLength, Hop: c.Features.Hop}
}

// Write saves c as YAML, creating parent directories.
func (c *Config) Write(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
