// Package settings is the optional viper-backed config overlay of spec.md
// §6: a --config=<file> YAML file and GITWATCH_* environment variables
// supply defaults that CLI flags may still override, the same override
// order the teacher's internal/app/config.go documents for its own viper
// use (defaults loaded first, explicit flags win).
package settings

import (
	"time"

	"github.com/spf13/viper"
)

// Settings wraps a viper instance scoped to one process invocation; it is
// read-only once built.
type Settings struct {
	v *viper.Viper
}

// Load builds a Settings from GITWATCH_* environment variables and,
// if configPath is non-empty, a YAML file. A missing configPath is not an
// error by itself — "no config file" just means no file-backed defaults.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("GITWATCH")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return &Settings{v: v}, nil
}

// String returns the configured value for key, or fallback if unset. Used
// as a kingpin flag's .Default() so an explicit CLI flag still overrides it.
func (s *Settings) String(key, fallback string) string {
	if s.v.IsSet(key) {
		return s.v.GetString(key)
	}
	return fallback
}

func (s *Settings) Duration(key string, fallback time.Duration) time.Duration {
	if s.v.IsSet(key) {
		return s.v.GetDuration(key)
	}
	return fallback
}

func (s *Settings) Int(key string, fallback int) int {
	if s.v.IsSet(key) {
		return s.v.GetInt(key)
	}
	return fallback
}

func (s *Settings) Bool(key string, fallback bool) bool {
	if s.v.IsSet(key) {
		return s.v.GetBool(key)
	}
	return fallback
}

func (s *Settings) StringSlice(key string) []string {
	return s.v.GetStringSlice(key)
}
