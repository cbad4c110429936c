/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package subtitle holds the entry values a subtitle document is made of:
// dialogue lines, styles, plain and raw lines and attached files, together
// with the time and colour primitives and the binary delta codec used to
// patch dialogue lines in place.
//
// Entry is a closed sum type. The concrete variants are *Plain, *Dialogue,
// *Style, *File and *Raw; callers dispatch with a type switch.
package subtitle

import "fmt"

// Well-known section names.
const (
	SectionInfo     = "Script Info"
	SectionStyles   = "V4+ Styles"
	SectionEvents   = "Events"
	SectionFonts    = "Fonts"
	SectionGraphics = "Graphics"
)

// Kind tags an Entry variant.
type Kind int

const (
	KindPlain Kind = iota
	KindDialogue
	KindStyle
	KindFile
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "Plain"
	case KindDialogue:
		return "Dialogue"
	case KindStyle:
		return "Style"
	case KindFile:
		return "File"
	case KindRaw:
		return "Raw"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Entry is one record of a section.
type Entry interface {
	Kind() Kind
	// DefaultGroup is the section the entry lands in when none is given.
	DefaultGroup() string
	// Clone returns a deep copy sharing no mutable state with the receiver.
	Clone() Entry
	IsIndexable() bool
	IndexName() string

	entry()
}

// Dialect is one of the three versions of the SSA/ASS text family.
type Dialect int

const (
	DialectSSA  Dialect = 0 // v4.00, legacy
	DialectASS  Dialect = 1 // v4.00+, canonical
	DialectASS2 Dialect = 2 // v4.00++, extended
)

// Dialects lists every dialect in version order.
var Dialects = []Dialect{DialectSSA, DialectASS, DialectASS2}

// ScriptType is the value written to the ScriptType property.
func (d Dialect) ScriptType() string {
	switch d {
	case DialectSSA:
		return "v4.00"
	case DialectASS:
		return "v4.00+"
	case DialectASS2:
		return "v4.00++"
	}
	return ""
}

func (d Dialect) String() string {
	switch d {
	case DialectSSA:
		return "SSA"
	case DialectASS:
		return "ASS"
	case DialectASS2:
		return "ASS2"
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

func (d Dialect) Valid() bool { return d >= DialectSSA && d <= DialectASS2 }

// HasFourMargins reports whether the bottom margin is stored independently.
func (d Dialect) HasFourMargins() bool { return d == DialectASS2 }

// CoderFor returns the delta codec for e, if its variant has one.
func CoderFor(e Entry) (DeltaCoder, bool) {
	switch e.(type) {
	case *Dialogue:
		return dialogueCoder{}, true
	}
	return nil, false
}
