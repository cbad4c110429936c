/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package subtitle

import (
	"bytes"
	"encoding/binary"
	"io"

	"subkit/internal/docerr"
)

// DeltaCoder diffs and patches entries of one variant.
//
// A delta is a little-endian uint16 field mask followed by the new values of
// the flagged fields in mask bit order. Widths are fixed per field: layer
// and times are int32, margins int16, text fields a uint32 byte length
// followed by UTF-8 bytes. The comment bit carries no payload and toggles
// the flag.
type DeltaCoder interface {
	// EncodeDelta describes how to turn from into to. With withTextFields
	// false, style, actor, effect and text are never included.
	EncodeDelta(from, to Entry, withTextFields bool) ([]byte, error)
	// EncodeReverseDelta returns the delta undoing delta, given the value the
	// entry has before delta is applied.
	EncodeReverseDelta(delta []byte, current Entry) ([]byte, error)
	// ApplyDelta patches target in place.
	ApplyDelta(delta []byte, target Entry) error
}

// Dialogue delta mask bits.
const (
	DeltaComment uint16 = 1 << iota
	DeltaLayer
	DeltaStart
	DeltaEnd
	DeltaMargin0
	DeltaMargin1
	DeltaMargin2
	DeltaMargin3
	DeltaStyle
	DeltaActor
	DeltaEffect
	DeltaText

	deltaAll      = DeltaText<<1 - 1
	deltaTextBits = DeltaStyle | DeltaActor | DeltaEffect | DeltaText
)

type dialogueCoder struct{}

func asDialogue(op string, e Entry) (*Dialogue, error) {
	d, ok := e.(*Dialogue)
	if !ok || d == nil {
		return nil, docerr.New(docerr.Internal, op, "dialogue coder given %T", e)
	}
	return d, nil
}

func (dialogueCoder) EncodeDelta(from, to Entry, withTextFields bool) ([]byte, error) {
	a, err := asDialogue("encode delta", from)
	if err != nil {
		return nil, err
	}
	b, err := asDialogue("encode delta", to)
	if err != nil {
		return nil, err
	}
	var mask uint16
	if a.Comment != b.Comment {
		mask |= DeltaComment
	}
	if a.Layer != b.Layer {
		mask |= DeltaLayer
	}
	if a.Start != b.Start {
		mask |= DeltaStart
	}
	if a.End != b.End {
		mask |= DeltaEnd
	}
	for i := 0; i < 4; i++ {
		if a.margins[i] != b.margins[i] {
			mask |= DeltaMargin0 << i
		}
	}
	if !b.Dialect.HasFourMargins() {
		mask &^= DeltaMargin3
	}
	if withTextFields {
		if a.Style != b.Style {
			mask |= DeltaStyle
		}
		if a.Actor != b.Actor {
			mask |= DeltaActor
		}
		if a.Effect != b.Effect {
			mask |= DeltaEffect
		}
		if a.Text != b.Text {
			mask |= DeltaText
		}
	}
	return encodeFields(mask, b), nil
}

func (dialogueCoder) EncodeReverseDelta(delta []byte, current Entry) ([]byte, error) {
	cur, err := asDialogue("encode reverse delta", current)
	if err != nil {
		return nil, err
	}
	mask, _, err := readMask(delta, cur.Dialect)
	if err != nil {
		return nil, err
	}
	return encodeFields(mask, cur), nil
}

func (dialogueCoder) ApplyDelta(delta []byte, target Entry) error {
	d, err := asDialogue("apply delta", target)
	if err != nil {
		return err
	}
	mask, r, err := readMask(delta, d.Dialect)
	if err != nil {
		return err
	}
	// decode into a copy so a truncated delta leaves target untouched
	next := *d
	if mask&DeltaComment != 0 {
		next.Comment = !next.Comment
	}
	if mask&DeltaLayer != 0 {
		v, err := readInt32(r)
		if err != nil {
			return err
		}
		next.Layer = int(v)
	}
	if mask&DeltaStart != 0 {
		v, err := readInt32(r)
		if err != nil {
			return err
		}
		next.Start = Time(v)
	}
	if mask&DeltaEnd != 0 {
		v, err := readInt32(r)
		if err != nil {
			return err
		}
		next.End = Time(v)
	}
	for i := 0; i < 4; i++ {
		if mask&(DeltaMargin0<<i) == 0 {
			continue
		}
		var v int16
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return truncated(err)
		}
		next.setMarginRaw(i, int(v))
		if i == 2 && !next.Dialect.HasFourMargins() {
			next.setMarginRaw(3, int(v))
		}
	}
	for _, f := range []struct {
		bit uint16
		dst *string
	}{{DeltaStyle, &next.Style}, {DeltaActor, &next.Actor}, {DeltaEffect, &next.Effect}, {DeltaText, &next.Text}} {
		if mask&f.bit == 0 {
			continue
		}
		s, err := readString(r)
		if err != nil {
			return err
		}
		*f.dst = s
	}
	if r.Len() != 0 {
		return docerr.New(docerr.Internal, "apply delta", "%d trailing bytes", r.Len())
	}
	*d = next
	return nil
}

func readMask(delta []byte, dialect Dialect) (uint16, *bytes.Reader, error) {
	if len(delta) < 2 {
		return 0, nil, docerr.New(docerr.Internal, "read delta", "missing field mask")
	}
	mask := binary.LittleEndian.Uint16(delta)
	if mask&^deltaAll != 0 {
		return 0, nil, docerr.New(docerr.Internal, "read delta", "unknown field bits %#04x", mask&^deltaAll)
	}
	if mask&DeltaMargin3 != 0 && !dialect.HasFourMargins() {
		return 0, nil, docerr.New(docerr.Internal, "read delta", "bottom margin bit set for %s", dialect)
	}
	return mask, bytes.NewReader(delta[2:]), nil
}

func encodeFields(mask uint16, d *Dialogue) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, mask)
	if mask&DeltaLayer != 0 {
		_ = binary.Write(&buf, binary.LittleEndian, int32(d.Layer))
	}
	if mask&DeltaStart != 0 {
		_ = binary.Write(&buf, binary.LittleEndian, int32(d.Start))
	}
	if mask&DeltaEnd != 0 {
		_ = binary.Write(&buf, binary.LittleEndian, int32(d.End))
	}
	for i := 0; i < 4; i++ {
		if mask&(DeltaMargin0<<i) != 0 {
			_ = binary.Write(&buf, binary.LittleEndian, int16(d.margins[i]))
		}
	}
	for _, f := range []struct {
		bit uint16
		s   string
	}{{DeltaStyle, d.Style}, {DeltaActor, d.Actor}, {DeltaEffect, d.Effect}, {DeltaText, d.Text}} {
		if mask&f.bit != 0 {
			_ = binary.Write(&buf, binary.LittleEndian, uint32(len(f.s)))
			buf.WriteString(f.s)
		}
	}
	return buf.Bytes()
}

func readInt32(r *bytes.Reader) (int32, error) {
	var v int32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, truncated(err)
	}
	return v, nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", truncated(err)
	}
	if int64(n) > int64(r.Len()) {
		return "", docerr.New(docerr.Internal, "apply delta", "text field of %d bytes exceeds payload", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", truncated(err)
	}
	return string(b), nil
}

func truncated(err error) error {
	return docerr.Wrap(docerr.Internal, "apply delta", err)
}
