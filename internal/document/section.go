/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"slices"

	"subkit/internal/docerr"
	"subkit/internal/subtitle"
)

// Handle identifies an entry slot within one Section. Handles are never
// reused, and modifying a line keeps its handle.
type Handle uint32

// Section is a named, ordered run of entries with a property bag and a
// name index over indexable entries.
type Section struct {
	name  string
	props map[string]string
	order []Handle
	arena map[Handle]subtitle.Entry
	next  Handle
	index map[string]Handle
}

// NewSection returns an empty section.
func NewSection(name string) *Section {
	return &Section{
		name:  name,
		props: make(map[string]string),
		arena: make(map[Handle]subtitle.Entry),
		index: make(map[string]Handle),
	}
}

func (s *Section) Name() string { return s.name }

// Len is the number of entries.
func (s *Section) Len() int { return len(s.order) }

// AddEntry inserts e before position pos, or appends when pos is -1.
func (s *Section) AddEntry(e subtitle.Entry, pos int) (Handle, error) {
	if pos == -1 {
		pos = len(s.order)
	}
	if pos < 0 || pos > len(s.order) {
		return 0, docerr.New(docerr.OutOfRange, "add entry", "position %d in %q (len %d)", pos, s.name, len(s.order))
	}
	s.next++
	h := s.next
	s.arena[h] = e
	s.order = slices.Insert(s.order, pos, h)
	if e.IsIndexable() {
		s.claim(e.IndexName(), h)
	}
	return h, nil
}

// RemoveEntryByIndex removes and returns the entry at line i.
func (s *Section) RemoveEntryByIndex(i int) (subtitle.Entry, error) {
	if i < 0 || i >= len(s.order) {
		return nil, docerr.New(docerr.OutOfRange, "remove entry", "line %d in %q (len %d)", i, s.name, len(s.order))
	}
	h := s.order[i]
	e := s.arena[h]
	s.order = slices.Delete(s.order, i, i+1)
	delete(s.arena, h)
	if e.IsIndexable() {
		s.dropIndex(e.IndexName(), h)
	}
	return e, nil
}

// RemoveEntry removes e by identity.
func (s *Section) RemoveEntry(e subtitle.Entry) error {
	for i, h := range s.order {
		if s.arena[h] == e {
			_, err := s.RemoveEntryByIndex(i)
			return err
		}
	}
	return docerr.New(docerr.OutOfRange, "remove entry", "entry not in %q", s.name)
}

// Entry returns the live entry at line i. Callers outside the engine should
// clone before keeping it.
func (s *Section) Entry(i int) (subtitle.Entry, error) {
	if i < 0 || i >= len(s.order) {
		return nil, docerr.New(docerr.OutOfRange, "get entry", "line %d in %q (len %d)", i, s.name, len(s.order))
	}
	return s.arena[s.order[i]], nil
}

// Handle returns the slot handle of line i.
func (s *Section) Handle(i int) (Handle, error) {
	if i < 0 || i >= len(s.order) {
		return 0, docerr.New(docerr.OutOfRange, "get handle", "line %d in %q (len %d)", i, s.name, len(s.order))
	}
	return s.order[i], nil
}

// Line returns the current line of h, or -1 when h is gone.
func (s *Section) Line(h Handle) int {
	return slices.Index(s.order, h)
}

// Entries returns the live entries in order.
func (s *Section) Entries() []subtitle.Entry {
	out := make([]subtitle.Entry, len(s.order))
	for i, h := range s.order {
		out[i] = s.arena[h]
	}
	return out
}

// GetFromIndex resolves an indexable entry by key. With duplicate keys the
// first one in line order wins.
func (s *Section) GetFromIndex(key string) (subtitle.Entry, bool) {
	h, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return s.arena[h], true
}

// replace swaps the content of line i keeping its handle and returns the old entry.
func (s *Section) replace(i int, e subtitle.Entry) (subtitle.Entry, error) {
	if i < 0 || i >= len(s.order) {
		return nil, docerr.New(docerr.OutOfRange, "replace entry", "line %d in %q (len %d)", i, s.name, len(s.order))
	}
	h := s.order[i]
	old := s.arena[h]
	s.arena[h] = e
	s.reindex(e, h)
	return old, nil
}

// reindex updates the name index after the entry behind h became cur.
// cur may be the previous entry patched in place, so stale keys are found
// by scanning the index.
func (s *Section) reindex(cur subtitle.Entry, h Handle) {
	var stale []string
	for k, ih := range s.index {
		if ih == h && (!cur.IsIndexable() || k != cur.IndexName()) {
			stale = append(stale, k)
		}
	}
	for _, k := range stale {
		s.dropIndex(k, h)
	}
	if cur.IsIndexable() {
		s.claim(cur.IndexName(), h)
	}
}

// claim points key at h unless an earlier line already holds it.
func (s *Section) claim(key string, h Handle) {
	if cur, taken := s.index[key]; taken && cur != h && s.Line(cur) < s.Line(h) {
		return
	}
	s.index[key] = h
}

func (s *Section) dropIndex(key string, h Handle) {
	if s.index[key] != h {
		return
	}
	delete(s.index, key)
	for _, oh := range s.order {
		if e := s.arena[oh]; e.IsIndexable() && e.IndexName() == key {
			s.index[key] = oh
			return
		}
	}
}

// GetProperty returns the property value or "" when unset.
func (s *Section) GetProperty(key string) string { return s.props[key] }

func (s *Section) HasProperty(key string) bool {
	_, ok := s.props[key]
	return ok
}

func (s *Section) SetProperty(key, value string) { s.props[key] = value }

func (s *Section) UnsetProperty(key string) { delete(s.props, key) }

// PropertyKeys returns the property names sorted.
func (s *Section) PropertyKeys() []string {
	keys := make([]string, 0, len(s.props))
	for k := range s.props {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
