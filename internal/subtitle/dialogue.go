/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package subtitle

import "subkit/internal/docerr"

// MaxMargin is the largest value a margin may hold.
const MaxMargin = 9999

// Dialogue is one Dialogue: or Comment: line of the events section.
type Dialogue struct {
	Comment bool
	Layer   int
	Start   Time
	End     Time
	Style   string
	Actor   string
	Effect  string
	Text    string
	// Dialect decides whether margin 3 is independent and which delta bits apply.
	Dialect Dialect

	margins [4]int
}

// NewDialogue returns an empty line for d with the Default style.
func NewDialogue(d Dialect) *Dialogue {
	return &Dialogue{Dialect: d, Style: "Default"}
}

func (*Dialogue) entry()               {}
func (*Dialogue) Kind() Kind           { return KindDialogue }
func (*Dialogue) DefaultGroup() string { return SectionEvents }
func (*Dialogue) IsIndexable() bool    { return false }
func (*Dialogue) IndexName() string    { return "" }

func (d *Dialogue) Clone() Entry {
	c := *d
	return &c
}

// Capabilities of this dialogue variant.
func (*Dialogue) HasText() bool    { return true }
func (*Dialogue) HasTime() bool    { return true }
func (*Dialogue) HasFrame() bool   { return false }
func (*Dialogue) HasStyle() bool   { return true }
func (*Dialogue) HasActor() bool   { return true }
func (*Dialogue) HasMargins() bool { return true }
func (*Dialogue) HasImage() bool   { return false }

// StartFrame is not stored by this family; times are authoritative.
func (*Dialogue) StartFrame() (int, error) {
	return 0, docerr.New(docerr.UnsupportedFeature, "dialogue start frame", "frames are not stored")
}

func (*Dialogue) EndFrame() (int, error) {
	return 0, docerr.New(docerr.UnsupportedFeature, "dialogue end frame", "frames are not stored")
}

func (*Dialogue) Image() (string, error) {
	return "", docerr.New(docerr.UnsupportedFeature, "dialogue image", "text dialects carry no images")
}

// Margin returns margin i: 0 left, 1 right, 2 vertical (top), 3 bottom.
func (d *Dialogue) Margin(i int) (int, error) {
	if i < 0 || i > 3 {
		return 0, docerr.New(docerr.OutOfRange, "dialogue margin", "index %d", i)
	}
	if i == 3 && !d.Dialect.HasFourMargins() {
		return d.margins[2], nil
	}
	return d.margins[i], nil
}

// SetMargin clamps v to [0, MaxMargin]. In dialects without an independent
// bottom margin, setting margin 2 also sets margin 3 and setting 3 directly fails.
func (d *Dialogue) SetMargin(i, v int) error {
	if i < 0 || i > 3 {
		return docerr.New(docerr.OutOfRange, "dialogue margin", "index %d", i)
	}
	if i == 3 && !d.Dialect.HasFourMargins() {
		return docerr.New(docerr.UnsupportedFeature, "dialogue margin", "%s has no bottom margin", d.Dialect)
	}
	v = clampMargin(v)
	d.margins[i] = v
	if i == 2 && !d.Dialect.HasFourMargins() {
		d.margins[3] = v
	}
	return nil
}

func (d *Dialogue) setMarginRaw(i, v int) { d.margins[i] = clampMargin(v) }

func clampMargin(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxMargin {
		return MaxMargin
	}
	return v
}
