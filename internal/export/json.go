/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export dumps a document as JSON for tooling that does not speak
// the subtitle formats. Every dump is checked against an embedded JSON
// schema before it is written.
package export

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"subkit/internal/document"
	"subkit/internal/subtitle"
)

//go:embed schema.json
var schemaJSON []byte

// Schema returns the JSON schema dumps conform to.
func Schema() []byte { return append([]byte(nil), schemaJSON...) }

type Document struct {
	Format   string    `json:"format"`
	Sections []Section `json:"sections"`
}

type Section struct {
	Name       string            `json:"name"`
	Properties map[string]string `json:"properties,omitempty"`
	Entries    []Entry           `json:"entries"`
}

// Entry carries exactly one of Text, Dialogue, Style or File, per Kind.
type Entry struct {
	Kind     string    `json:"kind"`
	Text     string    `json:"text,omitempty"`
	Dialogue *Dialogue `json:"dialogue,omitempty"`
	Style    *Style    `json:"style,omitempty"`
	File     *File     `json:"file,omitempty"`
}

type Dialogue struct {
	Comment bool   `json:"comment,omitempty"`
	Layer   int    `json:"layer"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Style   string `json:"style"`
	Actor   string `json:"actor"`
	Effect  string `json:"effect"`
	Text    string `json:"text"`
	Margins [4]int `json:"margins"`
}

type Style struct {
	Name         string  `json:"name"`
	Font         string  `json:"font"`
	Size         float64 `json:"size"`
	Primary      string  `json:"primary"`
	Secondary    string  `json:"secondary"`
	Outline      string  `json:"outline"`
	Shadow       string  `json:"shadow"`
	Bold         bool    `json:"bold"`
	Italic       bool    `json:"italic"`
	Underline    bool    `json:"underline"`
	StrikeOut    bool    `json:"strikeout"`
	ScaleX       float64 `json:"scale_x"`
	ScaleY       float64 `json:"scale_y"`
	Spacing      float64 `json:"spacing"`
	Angle        float64 `json:"angle"`
	BorderStyle  int     `json:"border_style"`
	OutlineWidth float64 `json:"outline_width"`
	ShadowWidth  float64 `json:"shadow_width"`
	Alignment    int     `json:"alignment"`
	Margins      [4]int  `json:"margins"`
	Encoding     int     `json:"encoding"`
}

type File struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Build converts m. Attachments are summarised by name and decoded size.
func Build(m *document.Model) (Document, error) {
	doc := Document{Sections: []Section{}}
	if f := m.Format(); f != nil {
		doc.Format = f.Name()
	}
	for _, sec := range m.Sections() {
		out := Section{Name: sec.Name(), Entries: []Entry{}}
		if keys := sec.PropertyKeys(); len(keys) > 0 {
			out.Properties = make(map[string]string, len(keys))
			for _, k := range keys {
				out.Properties[k] = sec.GetProperty(k)
			}
		}
		for _, e := range sec.Entries() {
			entry, err := buildEntry(e)
			if err != nil {
				return Document{}, fmt.Errorf("section %s: %w", sec.Name(), err)
			}
			out.Entries = append(out.Entries, entry)
		}
		doc.Sections = append(doc.Sections, out)
	}
	return doc, nil
}

func buildEntry(e subtitle.Entry) (Entry, error) {
	out := Entry{Kind: e.Kind().String()}
	switch v := e.(type) {
	case *subtitle.Plain:
		out.Text = v.Text
	case *subtitle.Raw:
		out.Text = v.Text
	case *subtitle.Dialogue:
		d := &Dialogue{
			Comment: v.Comment, Layer: v.Layer,
			StartMS: int64(v.Start), EndMS: int64(v.End),
			Start: v.Start.String(), End: v.End.String(),
			Style: v.Style, Actor: v.Actor, Effect: v.Effect, Text: v.Text,
		}
		for i := range d.Margins {
			d.Margins[i], _ = v.Margin(i)
		}
		out.Dialogue = d
	case *subtitle.Style:
		out.Style = &Style{
			Name: v.Name, Font: v.Font, Size: v.Size,
			Primary: v.Primary.ASS(), Secondary: v.Secondary.ASS(),
			Outline: v.Outline.ASS(), Shadow: v.Shadow.ASS(),
			Bold: v.Bold, Italic: v.Italic, Underline: v.Underline, StrikeOut: v.StrikeOut,
			ScaleX: v.ScaleX, ScaleY: v.ScaleY, Spacing: v.Spacing, Angle: v.Angle,
			BorderStyle: v.BorderStyle, OutlineWidth: v.OutlineWidth, ShadowWidth: v.ShadowWidth,
			Alignment: v.Alignment, Margins: v.Margins, Encoding: v.Encoding,
		}
	case *subtitle.File:
		data, err := v.Decode()
		if err != nil {
			return Entry{}, fmt.Errorf("attachment %s: %w", v.Name, err)
		}
		out.File = &File{Name: v.Name, Size: len(data)}
	}
	return out, nil
}

// WriteJSON writes the indented dump of m to w after validating it.
func WriteJSON(w io.Writer, m *document.Model) error {
	doc, err := Build(m)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dump: %w", err)
	}
	if err := Validate(data); err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Validate checks data against the dump schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("dump does not conform to schema: %s", strings.Join(msgs, "; "))
}
