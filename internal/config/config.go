/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int               `yaml:"config_version"`
	Document      DocumentConfig    `yaml:"document"`
	Attribution   AttributionConfig `yaml:"attribution"`
	History       HistoryConfig     `yaml:"history"`
	Logging       LoggingConfig     `yaml:"logging"`
}

type DocumentConfig struct {
	UndoLimit     int    `yaml:"undo_limit"`
	DefaultFormat string `yaml:"default_format"` // "SSA" | "ASS" | "ASS2"
	Encoding      string `yaml:"encoding"`
}

// AttributionConfig feeds the comment lines written at the top of Script Info.
type AttributionConfig struct {
	App string `yaml:"app"`
	URL string `yaml:"url"`
}

type HistoryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Driver   string `yaml:"driver"` // "sqlite" | "postgres"
	DSN      string `yaml:"dsn"`
	Dir      string `yaml:"dir"`
	KeepLast int    `yaml:"keep_last"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Document:      DocumentConfig{UndoLimit: 20, DefaultFormat: "ASS", Encoding: "UTF-8"},
		Attribution:   AttributionConfig{App: "subkit", URL: ""},
		History:       HistoryConfig{Enabled: false, Driver: "sqlite", KeepLast: 50},
		Logging:       LoggingConfig{Level: "info", Format: "auto"},
	}
}

// Env var names used as overrides.
const (
	EnvUndoLimit     = "SUBKIT_UNDO_LIMIT"
	EnvDefaultFormat = "SUBKIT_DEFAULT_FORMAT"
	EnvEncoding      = "SUBKIT_ENCODING"
	EnvHistory       = "SUBKIT_HISTORY"
	EnvHistoryDriver = "SUBKIT_HISTORY_DRIVER"
	EnvHistoryDSN    = "SUBKIT_HISTORY_DSN"
	EnvHistoryDir    = "SUBKIT_HISTORY_DIR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "SUBKIT_LOG_LEVEL"
	EnvLogFormat = "SUBKIT_LOG_FORMAT"
	EnvLogSource = "SUBKIT_LOG_SOURCE"
	EnvLogFile   = "SUBKIT_LOG_FILE"
)

// baseDir returns the per-user application directory.
func baseDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "subkit")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "subkit")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "subkit")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "subkit")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	base, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// HistoryDir returns the configured history directory or the default under the user dir.
func (c AppConfig) HistoryDir() (string, error) {
	if strings.TrimSpace(c.History.Dir) != "" {
		return c.History.Dir, nil
	}
	base, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "history"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file. A missing file is not an error;
// a malformed one is.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML to the default path.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg as YAML to path, creating parent directories.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Document.UndoLimit > 0 {
		dst.Document.UndoLimit = src.Document.UndoLimit
	}
	if v := strings.TrimSpace(src.Document.DefaultFormat); v != "" {
		dst.Document.DefaultFormat = strings.ToUpper(v)
	}
	if v := strings.TrimSpace(src.Document.Encoding); v != "" {
		dst.Document.Encoding = v
	}
	if v := strings.TrimSpace(src.Attribution.App); v != "" {
		dst.Attribution.App = v
	}
	dst.Attribution.URL = strings.TrimSpace(src.Attribution.URL)
	// booleans: copy directly from src (file) so user preferences persist
	dst.History.Enabled = src.History.Enabled
	if v := strings.ToLower(strings.TrimSpace(src.History.Driver)); v != "" {
		dst.History.Driver = v
	}
	if v := strings.TrimSpace(src.History.DSN); v != "" {
		dst.History.DSN = v
	}
	if v := strings.TrimSpace(src.History.Dir); v != "" {
		dst.History.Dir = v
	}
	if src.History.KeepLast > 0 {
		dst.History.KeepLast = src.History.KeepLast
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvUndoLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Document.UndoLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDefaultFormat)); v != "" {
		cfg.Document.DefaultFormat = strings.ToUpper(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvEncoding)); v != "" {
		cfg.Document.Encoding = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistory)); v != "" {
		cfg.History.Enabled = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDriver)); v != "" {
		cfg.History.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDSN)); v != "" {
		cfg.History.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDir)); v != "" {
		cfg.History.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var overrideEnv = map[string]string{
	"document.undo_limit":     EnvUndoLimit,
	"document.default_format": EnvDefaultFormat,
	"document.encoding":       EnvEncoding,
	"history.enabled":         EnvHistory,
	"history.driver":          EnvHistoryDriver,
	"history.dsn":             EnvHistoryDSN,
	"history.dir":             EnvHistoryDir,
	"logging.level":           EnvLogLevel,
	"logging.format":          EnvLogFormat,
	"logging.source":          EnvLogSource,
	"logging.file":            EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := overrideEnv[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
