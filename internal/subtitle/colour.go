/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package subtitle

import (
	"fmt"
	"strconv"
	"strings"

	"subkit/internal/docerr"
)

// Colour is an RGBA value. A is transparency as the format stores it:
// 0 is opaque, 255 fully transparent.
type Colour struct {
	R, G, B, A uint8
}

func colourFromUint(v uint32) Colour {
	return Colour{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), A: uint8(v >> 24)}
}

func (c Colour) uint() uint32 {
	return uint32(c.A)<<24 | uint32(c.B)<<16 | uint32(c.G)<<8 | uint32(c.R)
}

// ParseColour accepts the hex form (&HAABBGGRR, optionally with a trailing &)
// and the decimal form used by the legacy dialect.
func ParseColour(s string) (Colour, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '&' && (s[1] == 'H' || s[1] == 'h')) {
		hex := strings.TrimSuffix(s[2:], "&")
		if hex == "" || len(hex) > 8 {
			return Colour{}, docerr.New(docerr.Parse, "parse colour", "%q", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Colour{}, docerr.New(docerr.Parse, "parse colour", "%q", s)
		}
		return colourFromUint(uint32(v)), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < -(1<<31) || v > 1<<32-1 {
		return Colour{}, docerr.New(docerr.Parse, "parse colour", "%q", s)
	}
	return colourFromUint(uint32(v)), nil
}

// ASS renders &HAABBGGRR.
func (c Colour) ASS() string {
	return fmt.Sprintf("&H%02X%02X%02X%02X", c.A, c.B, c.G, c.R)
}

// SSA renders the decimal form.
func (c Colour) SSA() string {
	return strconv.FormatUint(uint64(c.uint()), 10)
}
