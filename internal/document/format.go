/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import "subkit/internal/subtitle"

// Reader is a rewindable source of text lines.
type Reader interface {
	// Name is the file name the lines came from; may be empty.
	Name() string
	// ReadLine returns the next line without its terminator.
	ReadLine() (line string, ok bool)
	// Rewind restarts reading from the first line.
	Rewind()
}

// Writer is a sink of text lines.
type Writer interface {
	WriteLine(line string) error
}

// FormatHandler loads and saves one concrete dialect.
type FormatHandler interface {
	// Load fills m, which is empty, from r.
	Load(m *Model, r Reader) error
	Save(m *Model, w Writer) error
}

// Format describes a subtitle file format and its capabilities.
type Format interface {
	Name() string
	ReadExtensions() []string
	WriteExtensions() []string
	// CanReadFile sniffs r and returns a confidence in [0,1].
	CanReadFile(r Reader) float64
	Handler() FormatHandler

	CreateDialogue() *subtitle.Dialogue
	CreateStyle() *subtitle.Style

	CanStoreText() bool
	CanUseTime() bool
	CanUseFrames() bool
	HasStyles() bool
	HasMargins() bool
	HasActors() bool
	// UserFieldName names the free per-line field, "" when absent.
	UserFieldName() string
	IsBinary() bool
	IsTextBased() bool
	// TimingPrecision is the smallest representable time step.
	TimingPrecision() subtitle.Time
	MaxTime() subtitle.Time
}
