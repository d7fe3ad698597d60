// Package config loads the yaml settings file into gconfig.Shared.
package config

import (
	"path/filepath"
	"time"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-portfolio/library/log"
)

// LoadFromFile loads settings from cfgPath, panics on failure
func LoadFromFile(cfgPath string) {
	gconfig.Shared.Set("cfg_dir", filepath.Dir(cfgPath))
	if err := gconfig.Shared.LoadFromFile(cfgPath); err != nil {
		log.Logger.Panic("load configuration",
			zap.Error(err),
			zap.String("config", cfgPath))
	}

	log.Logger.Info("load configuration",
		zap.String("config", cfgPath))
}

// ResolvePath resolves path relative to the directory of the loaded config file
func ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	if dir := gconfig.Shared.GetString("cfg_dir"); dir != "" {
		return filepath.Join(dir, path)
	}

	return path
}

// IntOr returns the integer setting at key, or def when unset or not positive
func IntOr(key string, def int) int {
	if v := gconfig.Shared.GetInt(key); v > 0 {
		return v
	}

	return def
}

// DurationSecOr reads key as seconds, falling back to def
func DurationSecOr(key string, def time.Duration) time.Duration {
	if v := gconfig.Shared.GetInt(key); v > 0 {
		return time.Duration(v) * time.Second
	}

	return def
}
