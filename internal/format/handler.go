/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package format

import (
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"subkit/internal/docerr"
	"subkit/internal/document"
	applog "subkit/internal/log"
	"subkit/internal/subtitle"
)

// Script Info defaults added when a file omits them.
const (
	defaultPlayResX = "384"
	defaultPlayResY = "288"
)

// infoOrder is the write order of well-known Script Info keys. Other keys
// follow alphabetically.
var infoOrder = []string{
	"Title", "Original Script", "Original Translation", "Original Editing",
	"Original Timing", "Synch Point", "Script Updated By", "Update Details",
	"ScriptType", "Collisions", "PlayResX", "PlayResY", "PlayDepth", "Timer",
	"WrapStyle", "ScaledBorderAndShadow", "YCbCr Matrix",
}

// sectionOrder is the write order of known sections. Others follow in the
// order they appear in the document.
var sectionOrder = []string{
	subtitle.SectionInfo, subtitle.SectionStyles, subtitle.SectionEvents,
	subtitle.SectionFonts, subtitle.SectionGraphics,
}

type assHandler struct {
	format *ASSFormat
}

// loadState tracks the dialect while reading. An explicit ScriptType line
// pins it; a styles header only suggests it.
type loadState struct {
	version  subtitle.Dialect
	explicit bool
	section  *document.Section
	file     *subtitle.File
}

func (h *assHandler) Load(m *document.Model, r document.Reader) error {
	logger := applog.WithComponent("format").With(slog.String("handler", h.format.Name()))
	st := &loadState{version: h.format.dialect}
	r.Rewind()
	n := 0
	for {
		line, ok := r.ReadLine()
		if !ok {
			break
		}
		n++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			if err := st.openSection(m, trimmed[1:len(trimmed)-1]); err != nil {
				return err
			}
			continue
		}
		if st.section == nil {
			return docerr.New(docerr.Parse, "load", "line %d: data before the first section", n)
		}
		if err := st.record(line); err != nil {
			var de *docerr.Error
			if errors.As(err, &de) {
				de.Msg = "line " + strconv.Itoa(n) + ": " + de.Msg
			}
			return err
		}
	}
	if err := makeValid(m, st.version); err != nil {
		return err
	}
	m.SetFormat(h.format.family.Format(st.version))
	logger.Debug("loaded", slog.String("name", r.Name()), slog.String("dialect", st.version.String()), slog.Int("lines", n))
	return nil
}

func (st *loadState) openSection(m *document.Model, raw string) error {
	lower := strings.ToLower(raw)
	name := titleCase(lower)
	switch lower {
	case "v4 styles":
		st.suggest(subtitle.DialectSSA)
		name = subtitle.SectionStyles
	case "v4+ styles":
		st.suggest(subtitle.DialectASS)
		name = subtitle.SectionStyles
	case "v4++ styles":
		st.suggest(subtitle.DialectASS2)
		name = subtitle.SectionStyles
	}
	st.file = nil
	sec, err := m.Section(name)
	if err != nil {
		if sec, err = m.AddSection(name); err != nil {
			return err
		}
	}
	st.section = sec
	return nil
}

func (st *loadState) suggest(d subtitle.Dialect) {
	if !st.explicit {
		st.version = d
	}
}

func (st *loadState) record(line string) error {
	sec := st.section
	switch sec.Name() {
	case subtitle.SectionInfo:
		if strings.HasPrefix(line, ";") {
			return nil
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return add(sec, &subtitle.Plain{Text: line, Group: sec.Name()})
		}
		key = strings.TrimSpace(key)
		value = strings.TrimLeft(value, " ")
		if strings.EqualFold(key, "ScriptType") {
			d, ok := dialectForScriptType(value)
			if !ok {
				return docerr.New(docerr.UnknownFormat, "load", "script type %q", value)
			}
			st.version, st.explicit = d, true
			key = "ScriptType"
		}
		sec.SetProperty(key, value)
		return nil

	case subtitle.SectionStyles:
		if body, ok := cutPrefixFold(line, "Format:"); ok {
			sec.SetProperty("Format", strings.TrimSpace(body))
			return nil
		}
		if _, ok := cutPrefixFold(line, "Style:"); ok {
			s, err := parseStyleLine(line, st.version)
			if err != nil {
				return err
			}
			return add(sec, s)
		}
		return add(sec, &subtitle.Plain{Text: line, Group: sec.Name()})

	case subtitle.SectionEvents:
		if body, ok := cutPrefixFold(line, "Format:"); ok {
			sec.SetProperty("Format", strings.TrimSpace(body))
			return nil
		}
		_, isDialogue := cutPrefixFold(line, "Dialogue:")
		_, isComment := cutPrefixFold(line, "Comment:")
		if isDialogue || isComment {
			dl, err := parseDialogueLine(line, st.version)
			if err != nil {
				return err
			}
			return add(sec, dl)
		}
		return add(sec, &subtitle.Plain{Text: line, Group: sec.Name()})

	case subtitle.SectionFonts, subtitle.SectionGraphics:
		key, value, ok := strings.Cut(line, ":")
		if ok {
			k := strings.ToLower(strings.TrimSpace(key))
			if k == "fontname" || k == "filename" {
				st.file = &subtitle.File{Name: strings.TrimSpace(value), Group: sec.Name()}
				return add(sec, st.file)
			}
		}
		if st.file == nil {
			return docerr.New(docerr.Parse, "load", "attachment data without a name in [%s]", sec.Name())
		}
		st.file.Lines = append(st.file.Lines, strings.TrimSpace(line))
		return nil
	}
	return add(sec, &subtitle.Raw{Text: line, Group: sec.Name()})
}

func add(sec *document.Section, e subtitle.Entry) error {
	_, err := sec.AddEntry(e, -1)
	return err
}

// makeValid adds what every document of the family needs: the three core
// sections, the play resolution and the Format declarations for d.
func makeValid(m *document.Model, d subtitle.Dialect) error {
	for _, name := range sectionOrder[:3] {
		if _, err := m.Section(name); err != nil {
			if _, err := m.AddSection(name); err != nil {
				return err
			}
		}
	}
	info, _ := m.Section(subtitle.SectionInfo)
	if !info.HasProperty("PlayResX") {
		info.SetProperty("PlayResX", defaultPlayResX)
	}
	if !info.HasProperty("PlayResY") {
		info.SetProperty("PlayResY", defaultPlayResY)
	}
	info.SetProperty("ScriptType", d.ScriptType())
	styles, _ := m.Section(subtitle.SectionStyles)
	styles.SetProperty("Format", styleFormats[d])
	events, _ := m.Section(subtitle.SectionEvents)
	events.SetProperty("Format", eventFormats[d])
	return nil
}

func (h *assHandler) Save(m *document.Model, w document.Writer) error {
	d := h.format.dialect
	first := true
	for _, sec := range orderedSections(m) {
		if !first {
			if err := w.WriteLine(""); err != nil {
				return err
			}
		}
		first = false
		var lines []string
		switch sec.Name() {
		case subtitle.SectionInfo:
			lines = h.infoLines(sec)
		case subtitle.SectionStyles:
			lines = append(lines, "[V4"+strings.Repeat("+", int(d))+" Styles]", "Format: "+styleFormats[d])
			lines = append(lines, entryLines(sec, d)...)
		case subtitle.SectionEvents:
			lines = append(lines, "[Events]", "Format: "+eventFormats[d])
			lines = append(lines, entryLines(sec, d)...)
		default:
			lines = append(lines, "["+sec.Name()+"]")
			lines = append(lines, entryLines(sec, d)...)
		}
		for _, l := range lines {
			if err := w.WriteLine(l); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *assHandler) infoLines(sec *document.Section) []string {
	opts := h.format.family.opts
	lines := []string{"[Script Info]", "; Script generated by " + opts.App}
	if opts.URL != "" {
		lines = append(lines, "; "+opts.URL)
	}
	written := map[string]bool{}
	emit := func(key, value string) {
		lines = append(lines, key+": "+value)
		written[key] = true
	}
	for _, key := range infoOrder {
		switch {
		case key == "ScriptType":
			emit(key, h.format.dialect.ScriptType())
		case sec.HasProperty(key):
			emit(key, sec.GetProperty(key))
		}
	}
	for _, key := range sec.PropertyKeys() {
		if !written[key] {
			emit(key, sec.GetProperty(key))
		}
	}
	return append(lines, entryLines(sec, h.format.dialect)...)
}

// orderedSections puts the known sections first in their fixed order.
func orderedSections(m *document.Model) []*document.Section {
	var out []*document.Section
	for _, name := range sectionOrder {
		if sec, err := m.Section(name); err == nil {
			out = append(out, sec)
		}
	}
	for _, sec := range m.Sections() {
		if !slices.Contains(sectionOrder, sec.Name()) {
			out = append(out, sec)
		}
	}
	return out
}

func entryLines(sec *document.Section, d subtitle.Dialect) []string {
	var lines []string
	for _, e := range sec.Entries() {
		switch v := e.(type) {
		case *subtitle.Dialogue:
			lines = append(lines, formatDialogue(v, d))
		case *subtitle.Style:
			lines = append(lines, formatStyle(v, d))
		case *subtitle.File:
			lines = append(lines, v.HeaderKey()+": "+v.Name)
			lines = append(lines, v.Lines...)
		case *subtitle.Plain:
			lines = append(lines, v.Text)
		case *subtitle.Raw:
			lines = append(lines, v.Text)
		}
	}
	return lines
}

// titleCase upper-cases the first letter of every space separated word.
func titleCase(s string) string {
	b := []byte(s)
	raise := true
	for i, c := range b {
		if raise && c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
		raise = c == ' '
	}
	return string(b)
}
