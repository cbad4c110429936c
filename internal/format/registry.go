/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package format

import (
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"subkit/internal/docerr"
	"subkit/internal/document"
	applog "subkit/internal/log"
)

// Registry holds the formats a document can be loaded from or saved to.
type Registry struct {
	formats []document.Format
}

// NewRegistry returns a registry holding fs in registration order.
func NewRegistry(fs ...document.Format) *Registry {
	r := &Registry{}
	for _, f := range fs {
		r.Register(f)
	}
	return r
}

// DefaultRegistry registers the SSA, ASS and ASS2 formats.
func DefaultRegistry(opts Options) *Registry {
	return NewRegistry(NewFamily(opts).Formats()...)
}

func (r *Registry) Register(f document.Format) { r.formats = append(r.formats, f) }

// Formats returns the registered formats in registration order.
func (r *Registry) Formats() []document.Format { return slices.Clone(r.formats) }

// ByName finds a format by its case-insensitive name or short name.
func (r *Registry) ByName(name string) (document.Format, error) {
	for _, f := range r.formats {
		if strings.EqualFold(f.Name(), name) {
			return f, nil
		}
		if s, ok := f.(interface{ ShortName() string }); ok && strings.EqualFold(s.ShortName(), name) {
			return f, nil
		}
	}
	return nil, docerr.New(docerr.NoFormatHandler, "format lookup", "no format named %q", name)
}

// ByExtension returns the first format that writes ext, which includes the dot.
func (r *Registry) ByExtension(ext string) (document.Format, error) {
	ext = strings.ToLower(ext)
	for _, f := range r.formats {
		if slices.Contains(f.WriteExtensions(), ext) {
			return f, nil
		}
	}
	return nil, docerr.New(docerr.NoFormatHandler, "format lookup", "no format writes %q", ext)
}

// Candidate is a format together with its sniffing score.
type Candidate struct {
	Format document.Format
	Score  float64
}

// GetCompatibleFormatList scores every format against rd, doubling the
// score when the reader's file extension is one the format reads. Formats
// scoring zero are left out; ties keep registration order.
func (r *Registry) GetCompatibleFormatList(rd document.Reader) []Candidate {
	ext := strings.ToLower(filepath.Ext(rd.Name()))
	var out []Candidate
	for _, f := range r.formats {
		score := f.CanReadFile(rd)
		rd.Rewind()
		if score <= 0 {
			continue
		}
		if ext != "" && slices.Contains(f.ReadExtensions(), ext) {
			score *= 2
		}
		out = append(out, Candidate{Format: f, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Load parses rd into a new model. With an explicit format only that
// format's handler runs and its error is returned as is. Otherwise the
// candidates are tried best first and the first full parse wins; when all
// fail the result is a NoFormatHandler error carrying every attempt's cause.
func (r *Registry) Load(rd document.Reader, explicit document.Format) (*document.Model, error) {
	logger := applog.WithComponent("format")
	if explicit != nil {
		m := document.NewModel(explicit)
		rd.Rewind()
		if err := explicit.Handler().Load(m, rd); err != nil {
			return nil, err
		}
		return m, nil
	}
	candidates := r.GetCompatibleFormatList(rd)
	if len(candidates) == 0 {
		return nil, docerr.New(docerr.NoFormatHandler, "load", "no format recognises %q", rd.Name())
	}
	var errs error
	for _, c := range candidates {
		m := document.NewModel(c.Format)
		rd.Rewind()
		err := c.Format.Handler().Load(m, rd)
		if err == nil {
			logger.Debug("format detected", slog.String("name", rd.Name()), slog.String("format", m.Format().Name()), slog.Float64("score", c.Score))
			return m, nil
		}
		logger.Debug("candidate rejected", slog.String("format", c.Format.Name()), slog.Any("err", err))
		errs = multierr.Append(errs, err)
	}
	return nil, docerr.Wrap(docerr.NoFormatHandler, "load", errs)
}

// Save writes m with f, or with the model's own format when f is nil.
func (r *Registry) Save(m *document.Model, w document.Writer, f document.Format) error {
	if f == nil {
		f = m.Format()
	}
	if f == nil {
		return docerr.New(docerr.NoFormatHandler, "save", "document has no format")
	}
	return f.Handler().Save(m, w)
}
