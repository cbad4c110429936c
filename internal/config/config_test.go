/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.Document.UndoLimit != 20 || cfg.Document.DefaultFormat != "ASS" || cfg.History.Driver != "sqlite" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	in := Defaults()
	in.Document.UndoLimit = 7
	in.Attribution.URL = "https://example.test/subkit"
	in.History.Enabled = true
	if err := SaveTo(path, in); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}
	out, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if out.Document.UndoLimit != 7 || out.Attribution.URL != in.Attribution.URL || !out.History.Enabled {
		t.Fatalf("round trip mismatch: %#v", out)
	}
}

func TestLoadFromMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("document: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFrom(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Document.UndoLimit != 20 {
		t.Fatalf("defaults should still be returned: %#v", cfg.Document)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/subkit.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/subkit.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestMergeKeepsDefaultsForZeroValues(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Document: DocumentConfig{DefaultFormat: "ssa"}}
	mergeInto(&dst, &src)
	if dst.Document.UndoLimit != 20 || dst.Document.DefaultFormat != "SSA" || dst.Attribution.App != "subkit" {
		t.Fatalf("merge clobbered defaults: %#v", dst.Document)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvUndoLimit, "3")
	t.Setenv(EnvDefaultFormat, "ass2")
	t.Setenv(EnvHistory, "yes")
	t.Setenv(EnvHistoryDriver, "Postgres")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogSource, "1")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.Document.UndoLimit != 3 || cfg.Document.DefaultFormat != "ASS2" {
		t.Fatalf("document overrides not applied: %#v", cfg.Document)
	}
	if !cfg.History.Enabled || cfg.History.Driver != "postgres" {
		t.Fatalf("history overrides not applied: %#v", cfg.History)
	}
	if cfg.Logging.Level != "error" || !cfg.Logging.Source {
		t.Fatalf("logging overrides not applied: %#v", cfg.Logging)
	}
	if env, ok := EnvOverrideFor("document.undo_limit"); !ok || env != EnvUndoLimit {
		t.Fatalf("EnvOverrideFor = %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("history.dsn"); ok {
		t.Fatalf("history.dsn should not be overridden")
	}
}

func TestInvalidUndoLimitEnvIgnored(t *testing.T) {
	t.Setenv(EnvUndoLimit, "zero")
	cfg, _ := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if cfg.Document.UndoLimit != 20 {
		t.Fatalf("UndoLimit = %d, want 20", cfg.Document.UndoLimit)
	}
}

func TestHistoryDir(t *testing.T) {
	cfg := Defaults()
	cfg.History.Dir = "/var/tmp/h"
	if d, err := cfg.HistoryDir(); err != nil || d != "/var/tmp/h" {
		t.Fatalf("HistoryDir() = %q, %v", d, err)
	}
}
