package config

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed pageblocks.default.yaml
var defaultsRaw []byte

var (
	defaultsV1 configV1
	defaults   Config
)

func init() {
	if err := yaml.Unmarshal(defaultsRaw, &defaultsV1); err != nil {
		panic(err)
	}

	cfg, err := ParseYAML(defaultsRaw)
	if err != nil {
		panic(err)
	}

	defaults = *cfg
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	cfg := defaults
	return &cfg
}
