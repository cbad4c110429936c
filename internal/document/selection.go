/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

// Range is the half-open line interval [Start, End).
type Range struct {
	Start, End int
}

func (r Range) Len() int { return r.End - r.Start }

// Selection is a set of line ranges. After NormalizeRanges the ranges are
// disjoint, ascending and non-adjacent.
type Selection struct {
	ranges []Range
}

// NewSelection returns a selection holding the given ranges.
func NewSelection(ranges ...Range) *Selection {
	s := &Selection{}
	for _, r := range ranges {
		s.AddRange(r)
	}
	return s
}

// AddRange adds r as is; empty or negative ranges are ignored.
// Call NormalizeRanges to merge overlaps.
func (s *Selection) AddRange(r Range) {
	if r.Start < 0 || r.End <= r.Start {
		return
	}
	s.ranges = append(s.ranges, r)
}

// AddLine adds the single line n.
func (s *Selection) AddLine(n int) { s.AddRange(Range{n, n + 1}) }

// RemoveRange removes the lines of r and leaves the selection normalized.
func (s *Selection) RemoveRange(r Range) {
	if r.Start < 0 {
		r.Start = 0
	}
	s.rebuild(func(member []bool) {
		for i := r.Start; i < r.End && i < len(member); i++ {
			member[i] = false
		}
	})
}

// NormalizeRanges merges overlapping and touching ranges.
func (s *Selection) NormalizeRanges() { s.rebuild(nil) }

func (s *Selection) rebuild(edit func(member []bool)) {
	maxEnd := 0
	for _, r := range s.ranges {
		maxEnd = max(maxEnd, r.End)
	}
	member := make([]bool, maxEnd)
	for _, r := range s.ranges {
		for i := r.Start; i < r.End; i++ {
			member[i] = true
		}
	}
	if edit != nil {
		edit(member)
	}
	s.ranges = s.ranges[:0]
	start := -1
	for i, in := range member {
		switch {
		case in && start < 0:
			start = i
		case !in && start >= 0:
			s.ranges = append(s.ranges, Range{start, i})
			start = -1
		}
	}
	if start >= 0 {
		s.ranges = append(s.ranges, Range{start, len(member)})
	}
}

// Ranges returns a copy of the stored ranges.
func (s *Selection) Ranges() []Range { return append([]Range(nil), s.ranges...) }

// NumberOfRanges is the number of stored ranges.
func (s *Selection) NumberOfRanges() int { return len(s.ranges) }

// Count is the number of distinct selected lines.
func (s *Selection) Count() int { return len(s.Lines()) }

// Lines returns the distinct selected lines in ascending order.
func (s *Selection) Lines() []int {
	n := &Selection{ranges: s.Ranges()}
	n.NormalizeRanges()
	var out []int
	for _, r := range n.ranges {
		for i := r.Start; i < r.End; i++ {
			out = append(out, i)
		}
	}
	return out
}

// Contains reports whether line n is selected.
func (s *Selection) Contains(n int) bool {
	for _, r := range s.ranges {
		if n >= r.Start && n < r.End {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (s *Selection) Clone() *Selection {
	if s == nil {
		return nil
	}
	return &Selection{ranges: s.Ranges()}
}
