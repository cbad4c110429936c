/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package format implements the SSA/ASS/ASS2 family of subtitle text
// formats and the registry that ranks formats for an input.
package format

import (
	"strings"

	"subkit/internal/document"
	"subkit/internal/subtitle"
)

// Options carries what the writers put into the attribution comments.
type Options struct {
	App string
	URL string
}

// Family groups the three dialect formats so a loader can rebind a document
// to the dialect its file declares.
type Family struct {
	opts    Options
	formats [3]*ASSFormat
}

// NewFamily builds the SSA, ASS and ASS2 formats.
func NewFamily(opts Options) *Family {
	if opts.App == "" {
		opts.App = "subkit"
	}
	f := &Family{opts: opts}
	for _, d := range subtitle.Dialects {
		f.formats[d] = &ASSFormat{dialect: d, family: f}
	}
	return f
}

// Format returns the format of dialect d.
func (f *Family) Format(d subtitle.Dialect) *ASSFormat { return f.formats[d] }

// Formats returns SSA, ASS and ASS2 in that order.
func (f *Family) Formats() []document.Format {
	return []document.Format{f.formats[0], f.formats[1], f.formats[2]}
}

// ASSFormat is one dialect of the family.
type ASSFormat struct {
	dialect subtitle.Dialect
	family  *Family
}

var _ document.Format = (*ASSFormat)(nil)

func (f *ASSFormat) Dialect() subtitle.Dialect { return f.dialect }

func (f *ASSFormat) Name() string {
	switch f.dialect {
	case subtitle.DialectSSA:
		return "Substation Alpha"
	case subtitle.DialectASS2:
		return "Advanced Substation Alpha 2"
	}
	return "Advanced Substation Alpha"
}

// ShortName is the dialect tag, e.g. "ASS".
func (f *ASSFormat) ShortName() string { return f.dialect.String() }

func (f *ASSFormat) ReadExtensions() []string {
	if f.dialect == subtitle.DialectSSA {
		return []string{".ssa"}
	}
	return []string{".ass"}
}

func (f *ASSFormat) WriteExtensions() []string { return f.ReadExtensions() }

func (f *ASSFormat) Handler() document.FormatHandler { return &assHandler{format: f} }

func (f *ASSFormat) CreateDialogue() *subtitle.Dialogue { return subtitle.NewDialogue(f.dialect) }
func (f *ASSFormat) CreateStyle() *subtitle.Style       { return subtitle.NewStyle(f.dialect) }

func (*ASSFormat) CanStoreText() bool            { return true }
func (*ASSFormat) CanUseTime() bool              { return true }
func (*ASSFormat) CanUseFrames() bool            { return false }
func (*ASSFormat) HasStyles() bool               { return true }
func (*ASSFormat) HasMargins() bool              { return true }
func (*ASSFormat) HasActors() bool               { return true }
func (*ASSFormat) UserFieldName() string         { return "Effect" }
func (*ASSFormat) IsBinary() bool                { return false }
func (*ASSFormat) IsTextBased() bool             { return true }
func (*ASSFormat) TimingPrecision() subtitle.Time { return 10 }
func (*ASSFormat) MaxTime() subtitle.Time        { return subtitle.MaxTime }

// sniffLines bounds how far CanReadFile looks past the first line.
const sniffLines = 100

// CanReadFile scores r: 0.25 for a leading [Script Info] header, 0.5 more
// for a ScriptType naming this dialect exactly (0.25 when it only ends with
// it), and 0.25 for reaching [Events]. A ScriptType naming another dialect
// of the family drops the score to 0.1.
func (f *ASSFormat) CanReadFile(r document.Reader) float64 {
	r.Rewind()
	defer r.Rewind()
	first, ok := r.ReadLine()
	if !ok || !strings.EqualFold(strings.TrimSpace(first), "[script info]") {
		return 0
	}
	score := 0.25
	inInfo := true
	want := f.dialect.ScriptType()
	for i := 0; i < sniffLines; i++ {
		line, ok := r.ReadLine()
		if !ok {
			break
		}
		lower := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lower, "[") {
			if lower == "[events]" {
				score += 0.25
				break
			}
			inInfo = false
			continue
		}
		if !inInfo || !strings.HasPrefix(lower, "scripttype:") {
			continue
		}
		value := strings.TrimSpace(lower[len("scripttype:"):])
		switch {
		case value == want:
			score += 0.5
		case knownScriptType(value):
			return 0.1
		case strings.HasSuffix(value, want):
			score += 0.25
		}
	}
	return score
}

func knownScriptType(v string) bool {
	_, ok := dialectForScriptType(v)
	return ok
}

func dialectForScriptType(v string) (subtitle.Dialect, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, d := range subtitle.Dialects {
		if v == d.ScriptType() {
			return d, true
		}
	}
	return 0, false
}
