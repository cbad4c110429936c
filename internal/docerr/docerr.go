/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package docerr defines the error kinds reported by the subtitle document
// engine. Every engine error is an *Error carrying one Kind; callers match
// with errors.Is against the Err* sentinels or read the kind with KindOf.
package docerr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure.
type Kind int

const (
	// Internal is the zero kind so that an unclassified error never looks benign.
	Internal Kind = iota
	NoFormatHandler
	UnknownFormat
	Parse
	UnsupportedFeature
	SectionExists
	InvalidSection
	OutOfRange
)

var kindNames = [...]string{
	Internal:           "Internal_Error",
	NoFormatHandler:    "No_Format_Handler",
	UnknownFormat:      "Unknown_Format",
	Parse:              "Parse_Error",
	UnsupportedFeature: "Unsupported_Format_Feature",
	SectionExists:      "Section_Already_Exists",
	InvalidSection:     "Invalid_Section",
	OutOfRange:         "Out_Of_Range",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Sentinels for errors.Is.
var (
	ErrInternal           = &Error{Kind: Internal}
	ErrNoFormatHandler    = &Error{Kind: NoFormatHandler}
	ErrUnknownFormat      = &Error{Kind: UnknownFormat}
	ErrParse              = &Error{Kind: Parse}
	ErrUnsupportedFeature = &Error{Kind: UnsupportedFeature}
	ErrSectionExists      = &Error{Kind: SectionExists}
	ErrInvalidSection     = &Error{Kind: InvalidSection}
	ErrOutOfRange         = &Error{Kind: OutOfRange}
)

// Error is an engine failure. Op names the failing operation, Msg adds
// detail and Err is an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels work through wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an *Error with a formatted message.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error around cause.
func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// KindOf reports the kind of the first *Error in err's chain.
// ok is false when err carries no engine error.
func KindOf(err error) (kind Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return Internal, false
}
