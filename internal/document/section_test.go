/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"errors"
	"testing"

	"subkit/internal/docerr"
	"subkit/internal/subtitle"
)

func style(name string) *subtitle.Style {
	s := subtitle.NewStyle(subtitle.DialectASS)
	s.Name = name
	return s
}

func TestSectionAddRemoveAndIndex(t *testing.T) {
	s := NewSection(subtitle.SectionStyles)
	if _, err := s.AddEntry(style("A"), -1); err != nil {
		t.Fatalf("AddEntry error: %v", err)
	}
	if _, err := s.AddEntry(style("B"), -1); err != nil {
		t.Fatalf("AddEntry error: %v", err)
	}
	c := style("C")
	if _, err := s.AddEntry(c, 0); err != nil {
		t.Fatalf("AddEntry error: %v", err)
	}
	if _, err := s.AddEntry(style("X"), 9); !errors.Is(err, docerr.ErrOutOfRange) {
		t.Fatalf("AddEntry past end err = %v", err)
	}
	names := ""
	for _, e := range s.Entries() {
		names += e.IndexName()
	}
	if names != "CAB" {
		t.Fatalf("order = %q, want CAB", names)
	}
	if e, ok := s.GetFromIndex("C"); !ok || e != c {
		t.Fatalf("GetFromIndex(C) = %v, %v", e, ok)
	}
	if err := s.RemoveEntry(c); err != nil {
		t.Fatalf("RemoveEntry error: %v", err)
	}
	if _, ok := s.GetFromIndex("C"); ok {
		t.Fatalf("index still holds removed entry")
	}
	if err := s.RemoveEntry(c); !errors.Is(err, docerr.ErrOutOfRange) {
		t.Fatalf("second RemoveEntry err = %v", err)
	}
	if _, err := s.RemoveEntryByIndex(2); !errors.Is(err, docerr.ErrOutOfRange) {
		t.Fatalf("RemoveEntryByIndex(2) err = %v", err)
	}
}

func TestSectionDuplicateIndexKeys(t *testing.T) {
	s := NewSection(subtitle.SectionStyles)
	first, second := style("Dup"), style("Dup")
	_, _ = s.AddEntry(first, -1)
	_, _ = s.AddEntry(second, -1)
	if e, _ := s.GetFromIndex("Dup"); e != first {
		t.Fatalf("first line should own the key")
	}
	_, _ = s.RemoveEntryByIndex(0)
	if e, ok := s.GetFromIndex("Dup"); !ok || e != second {
		t.Fatalf("index should fall back to the surviving duplicate")
	}
	earlier := style("Dup")
	_, _ = s.AddEntry(earlier, 0)
	if e, _ := s.GetFromIndex("Dup"); e != earlier {
		t.Fatalf("an earlier line should take the key over")
	}
}

func TestSectionReplaceKeepsHandleAndReindexes(t *testing.T) {
	s := NewSection(subtitle.SectionStyles)
	_, _ = s.AddEntry(style("Old"), -1)
	h, _ := s.Handle(0)
	if _, err := s.replace(0, style("New")); err != nil {
		t.Fatalf("replace error: %v", err)
	}
	if h2, _ := s.Handle(0); h2 != h {
		t.Fatalf("handle changed from %d to %d", h, h2)
	}
	if _, ok := s.GetFromIndex("Old"); ok {
		t.Fatalf("stale key kept")
	}
	if _, ok := s.GetFromIndex("New"); !ok {
		t.Fatalf("new key missing")
	}
	if s.Line(h) != 0 || s.Line(h+100) != -1 {
		t.Fatalf("Line lookup wrong")
	}
}

func TestSectionProperties(t *testing.T) {
	s := NewSection(subtitle.SectionInfo)
	if got := s.GetProperty("PlayResX"); got != "" {
		t.Fatalf("missing property = %q, want empty", got)
	}
	s.SetProperty("PlayResY", "288")
	s.SetProperty("PlayResX", "384")
	if keys := s.PropertyKeys(); len(keys) != 2 || keys[0] != "PlayResX" {
		t.Fatalf("PropertyKeys() = %v", keys)
	}
	s.UnsetProperty("PlayResX")
	if s.HasProperty("PlayResX") {
		t.Fatalf("property not unset")
	}
}

func TestSelectionNormalize(t *testing.T) {
	sel := NewSelection(Range{0, 5}, Range{3, 8})
	sel.NormalizeRanges()
	if r := sel.Ranges(); len(r) != 1 || r[0] != (Range{0, 8}) {
		t.Fatalf("Ranges() = %v, want [{0 8}]", r)
	}
	if sel.Count() != 8 {
		t.Fatalf("Count() = %d, want 8", sel.Count())
	}

	sel = NewSelection(Range{10, 12}, Range{2, 4}, Range{4, 5}, Range{7, 7}, Range{-1, 3})
	sel.NormalizeRanges()
	want := []Range{{2, 5}, {10, 12}}
	got := sel.Ranges()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Ranges() = %v, want %v", got, want)
	}
	sel.RemoveRange(Range{3, 11})
	if got := sel.Lines(); len(got) != 2 || got[0] != 2 || got[1] != 11 {
		t.Fatalf("Lines() after remove = %v", got)
	}
	if !sel.Contains(11) || sel.Contains(3) {
		t.Fatalf("Contains wrong")
	}
	sel.AddLine(0)
	if sel.NumberOfRanges() != 3 || sel.Count() != 3 {
		t.Fatalf("after AddLine: %d ranges, %d lines", sel.NumberOfRanges(), sel.Count())
	}
}
