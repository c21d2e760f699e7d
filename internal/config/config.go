package config

import (
	"bytes"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is a uniform configuration structure for pageblocks.
// It should unify all past, current, and future config versions.
type Config struct {
	Version string

	// Log related fields.
	LogEnabled bool
	LogPath    string
	LogVerbose bool

	// Markup related fields.
	MarkupSanitize    bool
	MarkupMinify      bool
	MarkupEmitIDs     bool
	MarkupPreserveIDs bool

	// Session related fields.
	SessionHistoryLimit int

	// Media related fields.
	MediaDir      string
	MediaBaseURL  string
	MediaMaxBytes int64
}

type configV1 struct {
	Version string `yaml:"version"`

	Log struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" validate:"required_if=Enabled true"`
		Verbose bool   `yaml:"verbose"`
	} `yaml:"log"`

	Markup struct {
		Sanitize    bool `yaml:"sanitize"`
		Minify      bool `yaml:"minify"`
		EmitIDs     bool `yaml:"emit_ids"`
		PreserveIDs bool `yaml:"preserve_ids"`
	} `yaml:"markup"`

	Session struct {
		HistoryLimit int `yaml:"history_limit" validate:"min=1,max=1000"`
	} `yaml:"session"`

	Media struct {
		Dir      string `yaml:"dir" validate:"required"`
		BaseURL  string `yaml:"base_url" validate:"required"`
		MaxBytes int64  `yaml:"max_bytes" validate:"min=1"`
	} `yaml:"media"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseYAML parses a configuration file. Fields missing from data keep
// their default values.
func ParseYAML(data []byte) (*Config, error) {
	version, err := parseVersionFromYAML(data)
	if err != nil {
		return nil, err
	}
	switch version {
	case "v1":
		cfg, err := parseYAMLv1(data)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse v1 config")
		}

		if err := validate.Struct(cfg); err != nil {
			return nil, errors.Wrap(err, "failed to validate v1 config")
		}

		return configV1ToConfig(cfg), nil
	default:
		return nil, errors.Errorf("unknown version: %s", version)
	}
}

type versionOnly struct {
	Version string `yaml:"version"`
}

func parseVersionFromYAML(data []byte) (string, error) {
	var result versionOnly

	if err := yaml.Unmarshal(data, &result); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal version")
	}

	return result.Version, nil
}

func parseYAMLv1(data []byte) (*configV1, error) {
	cfg := defaultsV1

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to unmarshal yaml")
	}

	return &cfg, nil
}

func configV1ToConfig(c *configV1) *Config {
	return &Config{
		Version: c.Version,

		LogEnabled: c.Log.Enabled,
		LogPath:    c.Log.Path,
		LogVerbose: c.Log.Verbose,

		MarkupSanitize:    c.Markup.Sanitize,
		MarkupMinify:      c.Markup.Minify,
		MarkupEmitIDs:     c.Markup.EmitIDs,
		MarkupPreserveIDs: c.Markup.PreserveIDs,

		SessionHistoryLimit: c.Session.HistoryLimit,

		MediaDir:      c.Media.Dir,
		MediaBaseURL:  c.Media.BaseURL,
		MediaMaxBytes: c.Media.MaxBytes,
	}
}
