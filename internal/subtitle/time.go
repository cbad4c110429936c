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

// Time is a position in milliseconds.
type Time int

// MaxTime is the largest time the H:MM:SS.cc notation can hold with one hour digit.
const MaxTime Time = ((9*60+59)*60+59)*1000 + 990

// ParseTime reads H:MM:SS.cc. Hours and minutes may be omitted and the
// fraction may have one to three digits.
func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, docerr.New(docerr.Parse, "parse time", "empty value")
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, docerr.New(docerr.Parse, "parse time", "%q", s)
	}
	secPart := parts[len(parts)-1]
	frac := ""
	if i := strings.IndexByte(secPart, '.'); i >= 0 {
		secPart, frac = secPart[:i], secPart[i+1:]
	}
	total := 0
	mul := []int{1000, 60 * 1000, 3600 * 1000}
	nums := append(parts[:len(parts)-1:len(parts)-1], secPart)
	for i := len(nums) - 1; i >= 0; i-- {
		n, err := strconv.Atoi(nums[i])
		if err != nil || n < 0 {
			return 0, docerr.New(docerr.Parse, "parse time", "%q", s)
		}
		total += n * mul[len(nums)-1-i]
	}
	if frac != "" {
		if len(frac) > 3 {
			frac = frac[:3]
		}
		n, err := strconv.Atoi(frac)
		if err != nil || n < 0 {
			return 0, docerr.New(docerr.Parse, "parse time", "%q", s)
		}
		for k := len(frac); k < 3; k++ {
			n *= 10
		}
		total += n
	}
	return Time(total), nil
}

// String formats as H:MM:SS.cc, rounding to centiseconds and clamping to [0, MaxTime].
func (t Time) String() string {
	ms := int(t)
	if ms < 0 {
		ms = 0
	}
	cs := (ms + 5) / 10
	if cs > int(MaxTime)/10 {
		cs = int(MaxTime) / 10
	}
	h := cs / 360000
	m := cs / 6000 % 60
	sec := cs / 100 % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, sec, cs%100)
}
