/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package subtitle

import (
	"slices"
	"strings"

	"subkit/internal/docerr"
)

// Plain is a free text line inside a known section, kept verbatim.
type Plain struct {
	Text  string
	Group string
}

func (*Plain) entry()      {}
func (*Plain) Kind() Kind  { return KindPlain }
func (p *Plain) DefaultGroup() string {
	if p.Group == "" {
		return SectionEvents
	}
	return p.Group
}
func (*Plain) IsIndexable() bool { return false }
func (*Plain) IndexName() string { return "" }
func (p *Plain) Clone() Entry    { c := *p; return &c }

// Raw is a line of a section the engine does not understand.
type Raw struct {
	Text  string
	Group string
}

func (*Raw) entry()                 {}
func (*Raw) Kind() Kind             { return KindRaw }
func (r *Raw) DefaultGroup() string { return r.Group }
func (*Raw) IsIndexable() bool      { return false }
func (*Raw) IndexName() string      { return "" }
func (r *Raw) Clone() Entry         { c := *r; return &c }

// File is an attachment from the Fonts or Graphics section: a name header
// followed by data lines in the family's uuencoding.
type File struct {
	Name  string
	Group string
	Lines []string
}

const fileLineLen = 80

// NewFile encodes data as an attachment of group.
func NewFile(group, name string, data []byte) *File {
	enc := uuencode(data)
	f := &File{Name: name, Group: group}
	for len(enc) > fileLineLen {
		f.Lines = append(f.Lines, enc[:fileLineLen])
		enc = enc[fileLineLen:]
	}
	if enc != "" {
		f.Lines = append(f.Lines, enc)
	}
	return f
}

func (*File) entry()     {}
func (*File) Kind() Kind { return KindFile }
func (f *File) DefaultGroup() string {
	if f.Group == "" {
		return SectionFonts
	}
	return f.Group
}
func (*File) IsIndexable() bool { return false }
func (*File) IndexName() string { return "" }

func (f *File) Clone() Entry {
	c := *f
	c.Lines = slices.Clone(f.Lines)
	return &c
}

// HeaderKey is the property-style key that opens the attachment in its section.
func (f *File) HeaderKey() string {
	if f.DefaultGroup() == SectionGraphics {
		return "filename"
	}
	return "fontname"
}

// Decode returns the attachment bytes.
func (f *File) Decode() ([]byte, error) {
	return uudecode(strings.Join(f.Lines, ""))
}

func uuencode(src []byte) string {
	var b strings.Builder
	b.Grow((len(src) + 2) / 3 * 4)
	for i := 0; i < len(src); i += 3 {
		var in [3]byte
		n := copy(in[:], src[i:])
		out := [4]byte{
			in[0] >> 2,
			(in[0]&0x3)<<4 | in[1]>>4,
			(in[1]&0xF)<<2 | in[2]>>6,
			in[2] & 0x3F,
		}
		for k := 0; k < n+1; k++ {
			b.WriteByte(out[k] + 33)
		}
	}
	return b.String()
}

func uudecode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)*3/4)
	for i := 0; i < len(s); i += 4 {
		var in [4]byte
		n := 0
		for k := 0; k < 4 && i+k < len(s); k++ {
			c := s[i+k]
			if c < 33 || c > 33+63 {
				return nil, docerr.New(docerr.Parse, "decode attachment", "invalid byte %q at %d", c, i+k)
			}
			in[k] = c - 33
			n++
		}
		if n == 1 {
			return nil, docerr.New(docerr.Parse, "decode attachment", "truncated group at %d", i)
		}
		dec := [3]byte{
			in[0]<<2 | in[1]>>4,
			(in[1]&0xF)<<4 | in[2]>>2,
			(in[2]&0x3)<<6 | in[3],
		}
		out = append(out, dec[:n-1]...)
	}
	return out, nil
}
