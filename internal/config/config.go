// Package config loads rp-exporter settings from flags, environment and an
// optional YAML file, layered through viper.
package config

import "github.com/spf13/viper"

// Config is a nil-safe read view over a viper instance.
type Config struct {
	v *viper.Viper
}

// New wraps v. A nil v yields a Config that returns zero values.
func New(v *viper.Viper) *Config {
	if v == nil {
		v = viper.New()
	}
	return &Config{v: v}
}

// GetString returns the value of key as a string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetBool returns the value of key as a bool.
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// Unmarshal decodes the full configuration into target using mapstructure tags.
func (c *Config) Unmarshal(target any) error {
	return c.v.Unmarshal(target)
}
