/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"subkit/internal/config"
	"subkit/internal/controller"
	"subkit/internal/document"
	"subkit/internal/format"
	applog "subkit/internal/log"
	"subkit/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.AppConfig
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the configuration once and initialises logging from it.
func (c *commandContext) ensureConfig() (*config.AppConfig, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		var (
			cfg config.AppConfig
			err error
		)
		if path != "" {
			cfg, err = config.LoadFrom(path)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			c.configErr = fmt.Errorf("load configuration: %w", err)
			return
		}
		applog.Init(applog.Options{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.Source,
			File:      cfg.Logging.File,
		})
		c.config = &cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) registry() *format.Registry {
	opts := format.Options{}
	if c.config != nil {
		opts.App = c.config.Attribution.App
		opts.URL = c.config.Attribution.URL
	}
	return format.DefaultRegistry(opts)
}

// newController returns an empty document set up from the configuration.
func (c *commandContext) newController() (*controller.Controller, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return controller.New(controller.Options{
		Registry:      c.registry(),
		DefaultFormat: cfg.Document.DefaultFormat,
		Encoding:      cfg.Document.Encoding,
		UndoLimit:     cfg.Document.UndoLimit,
	})
}

// lookupFormat resolves a --format flag value; empty means autodetect.
func lookupFormat(ctrl *controller.Controller, name string) (document.Format, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	return ctrl.Registry().ByName(strings.TrimSpace(name))
}

// openDocument loads path into a fresh controller.
func (c *commandContext) openDocument(path, formatName, encoding string) (*controller.Controller, error) {
	ctrl, err := c.newController()
	if err != nil {
		return nil, err
	}
	f, err := lookupFormat(ctrl, formatName)
	if err != nil {
		return nil, err
	}
	if err := ctrl.LoadFile(path, f, encoding); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func (c *commandContext) openHistory(ctx context.Context) (*storage.History, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	dir, err := cfg.HistoryDir()
	if err != nil {
		return nil, err
	}
	return storage.Open(ctx, storage.Options{Driver: cfg.History.Driver, DSN: cfg.History.DSN, Dir: dir})
}

// watchHistory attaches an autosaver to ctrl when history is enabled. The
// returned func closes the store and is never nil.
func (c *commandContext) watchHistory(ctx context.Context, ctrl *controller.Controller, path string) func() {
	cfg, err := c.ensureConfig()
	if err != nil || !cfg.History.Enabled {
		return func() {}
	}
	l := applog.WithComponent("cli")
	h, err := c.openHistory(ctx)
	if err != nil {
		l.Warn("history unavailable", slog.Any("err", err))
		return func() {}
	}
	ctrl.AddListener(storage.NewAutosaver(h, documentKey(path), cfg.History.KeepLast))
	return func() {
		if err := h.Close(); err != nil {
			l.Warn("close history", slog.Any("err", err))
		}
	}
}

// documentKey names a document in the history store.
func documentKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("usage: %s", usage)
		}
		return nil
	}
}
