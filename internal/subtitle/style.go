/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package subtitle

// Style is a named style definition. Alignment is always the canonical
// numpad code 1-9; legacy codes are remapped on read and write.
type Style struct {
	Name         string
	Font         string
	Size         float64
	Primary      Colour
	Secondary    Colour
	Outline      Colour // tertiary in the legacy dialect
	Shadow       Colour // back colour
	Bold         bool
	Italic       bool
	Underline    bool
	StrikeOut    bool
	ScaleX       float64
	ScaleY       float64
	Spacing      float64
	Angle        float64
	BorderStyle  int
	OutlineWidth float64
	ShadowWidth  float64
	Alignment    int
	// Margins are left, right, top and bottom. Bottom mirrors top unless
	// the dialect stores four margins.
	Margins    [4]int
	Encoding   int
	RelativeTo int
	Dialect    Dialect
}

// NewStyle returns the default style for d.
func NewStyle(d Dialect) *Style {
	return &Style{
		Name:         "Default",
		Font:         "Arial",
		Size:         20,
		Primary:      Colour{R: 255, G: 255, B: 255},
		Secondary:    Colour{R: 255},
		ScaleX:       100,
		ScaleY:       100,
		BorderStyle:  1,
		OutlineWidth: 2,
		ShadowWidth:  2,
		Alignment:    2,
		Margins:      [4]int{10, 10, 10, 10},
		Encoding:     1,
		Dialect:      d,
	}
}

func (*Style) entry()               {}
func (*Style) Kind() Kind           { return KindStyle }
func (*Style) DefaultGroup() string { return SectionStyles }
func (*Style) IsIndexable() bool    { return true }
func (s *Style) IndexName() string  { return s.Name }

func (s *Style) Clone() Entry {
	c := *s
	return &c
}

// legacy numpad-style codes to canonical.
var ssaToASS = map[int]int{1: 1, 2: 2, 3: 3, 5: 7, 6: 8, 7: 9, 9: 4, 10: 5, 11: 6}

var assToSSA = func() map[int]int {
	m := make(map[int]int, len(ssaToASS))
	for k, v := range ssaToASS {
		m[v] = k
	}
	return m
}()

// AlignSSAtoASS maps a legacy alignment code to the canonical one; unknown codes give 2.
func AlignSSAtoASS(a int) int {
	if v, ok := ssaToASS[a]; ok {
		return v
	}
	return 2
}

// AlignASStoSSA is the inverse of AlignSSAtoASS; unknown codes give 2.
func AlignASStoSSA(a int) int {
	if v, ok := assToSSA[a]; ok {
		return v
	}
	return 2
}
