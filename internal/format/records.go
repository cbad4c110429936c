/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package format

import (
	"fmt"
	"strconv"
	"strings"

	"subkit/internal/docerr"
	"subkit/internal/subtitle"
)

// Canonical Format: lines per dialect.
var (
	styleFormats = [3]string{
		"Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, TertiaryColour, BackColour, Bold, Italic, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, AlphaLevel, Encoding",
		"Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding",
		"Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginT, MarginB, Encoding, RelativeTo",
	}
	eventFormats = [3]string{
		"Marked, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text",
		"Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text",
		"Layer, Start, End, Style, Name, MarginL, MarginR, MarginT, MarginB, Effect, Text",
	}
	styleFieldCount = [3]int{18, 23, 25}
)

// attemptOrder is d followed by the other dialects in version order.
func attemptOrder(d subtitle.Dialect) []subtitle.Dialect {
	out := []subtitle.Dialect{d}
	for _, o := range subtitle.Dialects {
		if o != d {
			out = append(out, o)
		}
	}
	return out
}

// cutPrefixFold strips a case-insensitive prefix.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// parseDialogueLine reads a Dialogue: or Comment: record, trying dialect d
// first and then the other two.
func parseDialogueLine(line string, d subtitle.Dialect) (*subtitle.Dialogue, error) {
	body, ok := cutPrefixFold(line, "Dialogue:")
	comment := false
	if !ok {
		if body, ok = cutPrefixFold(line, "Comment:"); !ok {
			return nil, docerr.New(docerr.Parse, "parse dialogue", "not a dialogue line: %q", line)
		}
		comment = true
	}
	body = strings.TrimLeft(body, " ")
	for _, try := range attemptOrder(d) {
		if dl, ok := parseDialogueFields(body, try); ok {
			dl.Comment = comment
			return dl, nil
		}
	}
	return nil, docerr.New(docerr.Parse, "parse dialogue", "no dialect fits %q", line)
}

func parseDialogueFields(body string, d subtitle.Dialect) (*subtitle.Dialogue, bool) {
	margins := 3
	if d.HasFourMargins() {
		margins = 4
	}
	n := 7 + margins
	f := strings.SplitN(body, ",", n)
	if len(f) != n {
		return nil, false
	}
	dl := subtitle.NewDialogue(d)
	head := strings.TrimSpace(f[0])
	if d == subtitle.DialectSSA {
		if _, ok := cutPrefixFold(head, "marked="); !ok {
			return nil, false
		}
	} else {
		layer, err := strconv.Atoi(head)
		if err != nil {
			return nil, false
		}
		dl.Layer = layer
	}
	var err error
	if dl.Start, err = subtitle.ParseTime(f[1]); err != nil {
		return nil, false
	}
	if dl.End, err = subtitle.ParseTime(f[2]); err != nil {
		return nil, false
	}
	dl.Style = strings.TrimSpace(f[3])
	dl.Actor = f[4]
	for i := 0; i < margins; i++ {
		v, ok := parseMargin(f[5+i])
		if !ok {
			return nil, false
		}
		_ = dl.SetMargin(i, v)
	}
	dl.Effect = f[5+margins]
	dl.Text = f[6+margins]
	return dl, true
}

// parseMargin accepts only non-empty runs of digits, optionally space padded.
func parseMargin(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return subtitle.MaxMargin, true
	}
	return v, true
}

// formatDialogue renders dl in dialect d.
func formatDialogue(dl *subtitle.Dialogue, d subtitle.Dialect) string {
	var b strings.Builder
	if dl.Comment {
		b.WriteString("Comment: ")
	} else {
		b.WriteString("Dialogue: ")
	}
	if d == subtitle.DialectSSA {
		b.WriteString("Marked=0")
	} else {
		b.WriteString(strconv.Itoa(dl.Layer))
	}
	fields := []string{dl.Start.String(), dl.End.String(), noCommas(dl.Style), noCommas(dl.Actor)}
	margins := 3
	if d.HasFourMargins() {
		margins = 4
	}
	for i := 0; i < margins; i++ {
		m, _ := dl.Margin(i)
		fields = append(fields, strconv.Itoa(m))
	}
	fields = append(fields, noCommas(dl.Effect), oneLine(dl.Text))
	for _, s := range fields {
		b.WriteByte(',')
		b.WriteString(s)
	}
	return b.String()
}

// parseStyleLine reads a Style: record, trying dialect d first. The field
// count must match the dialect exactly.
func parseStyleLine(line string, d subtitle.Dialect) (*subtitle.Style, error) {
	body, ok := cutPrefixFold(line, "Style:")
	if !ok {
		return nil, docerr.New(docerr.Parse, "parse style", "not a style line: %q", line)
	}
	f := strings.Split(strings.TrimLeft(body, " "), ",")
	for _, try := range attemptOrder(d) {
		if len(f) != styleFieldCount[try] {
			continue
		}
		if st, err := parseStyleFields(f, try); err == nil {
			return st, nil
		}
	}
	return nil, docerr.New(docerr.Parse, "parse style", "no dialect fits %q", line)
}

type fieldReader struct {
	f   []string
	i   int
	err error
}

func (r *fieldReader) str() string {
	s := strings.TrimSpace(r.f[r.i])
	r.i++
	return s
}

func (r *fieldReader) float() float64 {
	s := r.str()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("field %d: %q is not a number", r.i, s)
	}
	return v
}

func (r *fieldReader) int() int {
	s := r.str()
	v, err := strconv.Atoi(s)
	if err != nil {
		fv, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil && r.err == nil {
			r.err = fmt.Errorf("field %d: %q is not an integer", r.i, s)
		}
		v = int(fv)
	}
	return v
}

func (r *fieldReader) bool() bool { return r.int() != 0 }

func (r *fieldReader) colour() subtitle.Colour {
	s := r.str()
	c, err := subtitle.ParseColour(s)
	if err != nil && r.err == nil {
		r.err = err
	}
	return c
}

func (r *fieldReader) margin() int {
	s := r.str()
	v, ok := parseMargin(s)
	if !ok && r.err == nil {
		r.err = fmt.Errorf("field %d: %q is not a margin", r.i, s)
	}
	return v
}

func parseStyleFields(f []string, d subtitle.Dialect) (*subtitle.Style, error) {
	r := &fieldReader{f: f}
	st := subtitle.NewStyle(d)
	st.Name = r.str()
	st.Font = r.str()
	st.Size = r.float()
	st.Primary = r.colour()
	st.Secondary = r.colour()
	st.Outline = r.colour()
	st.Shadow = r.colour()
	st.Bold = r.bool()
	st.Italic = r.bool()
	if d != subtitle.DialectSSA {
		st.Underline = r.bool()
		st.StrikeOut = r.bool()
		st.ScaleX = r.float()
		st.ScaleY = r.float()
		st.Spacing = r.float()
		st.Angle = r.float()
	} else {
		st.ScaleX, st.ScaleY, st.Spacing, st.Angle = 100, 100, 0, 0
	}
	st.BorderStyle = r.int()
	st.OutlineWidth = r.float()
	st.ShadowWidth = r.float()
	if d == subtitle.DialectSSA {
		st.Alignment = subtitle.AlignSSAtoASS(r.int())
	} else {
		st.Alignment = r.int()
	}
	st.Margins[0] = r.margin()
	st.Margins[1] = r.margin()
	st.Margins[2] = r.margin()
	if d.HasFourMargins() {
		st.Margins[3] = r.margin()
	} else {
		st.Margins[3] = st.Margins[2]
	}
	if d == subtitle.DialectSSA {
		r.str() // alpha level, unused
	}
	st.Encoding = r.int()
	if d == subtitle.DialectASS2 {
		st.RelativeTo = r.int()
	}
	if r.err != nil {
		return nil, r.err
	}
	for i := range st.Margins {
		st.Margins[i] = min(st.Margins[i], subtitle.MaxMargin)
	}
	return st, nil
}

// formatStyle renders st in dialect d.
func formatStyle(st *subtitle.Style, d subtitle.Dialect) string {
	colour := subtitle.Colour.ASS
	if d == subtitle.DialectSSA {
		colour = subtitle.Colour.SSA
	}
	f := []string{
		noCommas(st.Name), noCommas(st.Font), pretty(st.Size),
		colour(st.Primary), colour(st.Secondary), colour(st.Outline), colour(st.Shadow),
		flag(st.Bold), flag(st.Italic),
	}
	if d != subtitle.DialectSSA {
		f = append(f, flag(st.Underline), flag(st.StrikeOut),
			pretty(st.ScaleX), pretty(st.ScaleY), pretty(st.Spacing), pretty(st.Angle))
	}
	f = append(f, strconv.Itoa(st.BorderStyle), pretty(st.OutlineWidth), pretty(st.ShadowWidth))
	if d == subtitle.DialectSSA {
		f = append(f, strconv.Itoa(subtitle.AlignASStoSSA(st.Alignment)))
	} else {
		f = append(f, strconv.Itoa(st.Alignment))
	}
	f = append(f, strconv.Itoa(st.Margins[0]), strconv.Itoa(st.Margins[1]), strconv.Itoa(st.Margins[2]))
	if d.HasFourMargins() {
		f = append(f, strconv.Itoa(st.Margins[3]))
	}
	if d == subtitle.DialectSSA {
		f = append(f, "0")
	}
	f = append(f, strconv.Itoa(st.Encoding))
	if d == subtitle.DialectASS2 {
		f = append(f, strconv.Itoa(st.RelativeTo))
	}
	return "Style: " + strings.Join(f, ",")
}

func pretty(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func flag(b bool) string {
	if b {
		return "-1"
	}
	return "0"
}

func noCommas(s string) string { return strings.ReplaceAll(s, ",", ";") }

func oneLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

// StyleLine renders st as a Style: record of dialect d.
func StyleLine(st *subtitle.Style, d subtitle.Dialect) string { return formatStyle(st, d) }

// ParseStyle reads a Style: record, preferring dialect d.
func ParseStyle(line string, d subtitle.Dialect) (*subtitle.Style, error) { return parseStyleLine(line, d) }
