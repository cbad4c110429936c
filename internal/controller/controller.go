/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package controller is the entry point editors and tools use to work on a
// subtitle document: loading and saving through the format registry, batch
// edits, undo and redo, and cloned reads of the document's entries.
package controller

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"subkit/internal/docerr"
	"subkit/internal/document"
	"subkit/internal/format"
	applog "subkit/internal/log"
	"subkit/internal/subtitle"
	"subkit/internal/textio"
)

// Options configures a Controller. Zero values mean the package defaults.
type Options struct {
	Registry *format.Registry
	// DefaultFormat names the format of a new document, "ASS" if empty.
	DefaultFormat string
	// Encoding is used when Load/Save are given an empty encoding.
	Encoding  string
	UndoLimit int
}

// Controller owns one document.
type Controller struct {
	model    *document.Model
	registry *format.Registry
	encoding string
	path     string
}

// New returns a controller holding an empty, valid document.
func New(opts Options) (*Controller, error) {
	reg := opts.Registry
	if reg == nil {
		reg = format.DefaultRegistry(format.Options{})
	}
	name := opts.DefaultFormat
	if name == "" {
		name = "ASS"
	}
	f, err := reg.ByName(name)
	if err != nil {
		return nil, err
	}
	m, err := reg.Load(textio.NewReader("", ""), f)
	if err != nil {
		return nil, fmt.Errorf("create empty document: %w", err)
	}
	m.SetUndoLimit(opts.UndoLimit)
	return &Controller{model: m, registry: reg, encoding: opts.Encoding}, nil
}

// Model exposes the underlying document.
func (c *Controller) Model() *document.Model { return c.model }

func (c *Controller) Registry() *format.Registry { return c.registry }

// Format returns the format the document is bound to.
func (c *Controller) Format() document.Format { return c.model.Format() }

// Path is the file last loaded or saved, empty for a new document.
func (c *Controller) Path() string { return c.path }

func (c *Controller) AddListener(l document.Listener) { c.model.AddListener(l) }

func (c *Controller) CreateActionList(name, owner string, undoable bool) *document.ActionList {
	return c.model.NewActionList(name, owner, undoable)
}

func (c *Controller) CreateSelection(ranges ...document.Range) *document.Selection {
	return document.NewSelection(ranges...)
}

func (c *Controller) encodingOr(enc string) string {
	if enc != "" {
		return enc
	}
	return c.encoding
}

// LoadFile replaces the document with the file at path. A nil format means
// autodetect; encoding "" falls back to the controller default.
func (c *Controller) LoadFile(path string, f document.Format, encoding string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	if err := c.Load(file, filepath.Base(path), f, encoding); err != nil {
		return err
	}
	c.path = path
	return nil
}

// Load replaces the document with the contents of r. name is used for
// extension matching during autodetection.
func (c *Controller) Load(r io.Reader, name string, f document.Format, encoding string) error {
	start := time.Now()
	rd, err := textio.ReadAll(r, name, c.encodingOr(encoding))
	if err != nil {
		return err
	}
	loaded, err := c.registry.Load(rd, f)
	if err != nil {
		return err
	}
	c.model.Adopt(loaded)
	applog.WithComponent("controller").Info("document loaded",
		slog.String("name", name),
		slog.String("format", c.model.Format().Name()),
		slog.Int("sections", c.model.SectionCount()),
		slog.Duration("took", time.Since(start)))
	return nil
}

// SaveFile writes the document to path through a temp file that replaces
// the target only once fully written. A nil format keeps the bound one;
// any other format becomes the bound one.
func (c *Controller) SaveFile(path string, f document.Format, encoding string) error {
	var buf bytes.Buffer
	if err := c.Save(&buf, f, encoding); err != nil {
		return err
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return err
	}
	c.path = path
	return nil
}

// Save writes the document to w.
func (c *Controller) Save(w io.Writer, f document.Format, encoding string) error {
	if f == nil {
		f = c.model.Format()
	}
	tw, err := textio.NewWriter(w, c.encodingOr(encoding))
	if err != nil {
		return err
	}
	if err := c.registry.Save(c.model, tw, f); err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if f != c.model.Format() {
		c.model.SetFormat(f)
	}
	applog.WithComponent("controller").Info("document saved", slog.String("format", f.Name()))
	return nil
}

func (c *Controller) CanUndo(owner string) bool { return c.model.CanUndo(owner) }
func (c *Controller) CanRedo(owner string) bool { return c.model.CanRedo(owner) }
func (c *Controller) Undo(owner string) error   { return c.model.Undo(owner) }
func (c *Controller) Redo(owner string) error   { return c.model.Redo(owner) }

// CreateDialogue returns a new line of the bound format.
func (c *Controller) CreateDialogue() (*subtitle.Dialogue, error) {
	f := c.model.Format()
	if f == nil || !f.CanStoreText() {
		return nil, docerr.New(docerr.UnsupportedFeature, "create dialogue", "format cannot store text")
	}
	return f.CreateDialogue(), nil
}

// CreateStyle returns a new style of the bound format.
func (c *Controller) CreateStyle() (*subtitle.Style, error) {
	f := c.model.Format()
	if f == nil || !f.HasStyles() {
		return nil, docerr.New(docerr.UnsupportedFeature, "create style", "format has no styles")
	}
	return f.CreateStyle(), nil
}

// GetEntry returns a copy of line n of section.
func (c *Controller) GetEntry(n int, section string) (subtitle.Entry, error) {
	sec, err := c.model.Section(section)
	if err != nil {
		return nil, err
	}
	e, err := sec.Entry(n)
	if err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

// GetDialogue returns a copy of line n of the events section, which must
// be a dialogue line.
func (c *Controller) GetDialogue(n int) (*subtitle.Dialogue, error) {
	e, err := c.GetEntry(n, subtitle.SectionEvents)
	if err != nil {
		return nil, err
	}
	dl, ok := e.(*subtitle.Dialogue)
	if !ok {
		return nil, docerr.New(docerr.InvalidSection, "get dialogue", "line %d is a %s entry", n, e.Kind())
	}
	return dl, nil
}

// GetStyle returns a copy of line n of the styles section.
func (c *Controller) GetStyle(n int) (*subtitle.Style, error) {
	e, err := c.GetEntry(n, subtitle.SectionStyles)
	if err != nil {
		return nil, err
	}
	st, ok := e.(*subtitle.Style)
	if !ok {
		return nil, docerr.New(docerr.InvalidSection, "get style", "line %d is a %s entry", n, e.Kind())
	}
	return st, nil
}

// GetStyleByName returns a copy of the first style called name.
func (c *Controller) GetStyleByName(name string) (*subtitle.Style, error) {
	sec, err := c.model.Section(subtitle.SectionStyles)
	if err != nil {
		return nil, err
	}
	e, ok := sec.GetFromIndex(name)
	if !ok {
		return nil, docerr.New(docerr.OutOfRange, "get style", "no style named %q", name)
	}
	return e.Clone().(*subtitle.Style), nil
}

// StyleLine is the line number of the style called name, or -1.
func (c *Controller) StyleLine(name string) int {
	sec, err := c.model.Section(subtitle.SectionStyles)
	if err != nil {
		return -1
	}
	for i, e := range sec.Entries() {
		if e.IsIndexable() && e.IndexName() == name {
			return i
		}
	}
	return -1
}

// DialogueSelection selects every dialogue line of the events section.
func (c *Controller) DialogueSelection() *document.Selection {
	sel := document.NewSelection()
	sec, err := c.model.Section(subtitle.SectionEvents)
	if err != nil {
		return sel
	}
	for i, e := range sec.Entries() {
		if _, ok := e.(*subtitle.Dialogue); ok {
			sel.AddLine(i)
		}
	}
	sel.NormalizeRanges()
	return sel
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", err)
	}
	// Windows will not rename over an existing file.
	if runtime.GOOS == "windows" {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
