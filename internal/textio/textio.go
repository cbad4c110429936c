/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textio reads and writes subtitle text files line by line, decoding
// from and encoding to the requested character set.
package textio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Auto asks the reader to detect the encoding: a byte order mark wins, then
// valid UTF-8, then Windows-1252.
const Auto = "auto"

// Resolve maps a charset label to an encoding. "" and Auto mean UTF-8.
func Resolve(label string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8", Auto:
		return unicode.UTF8, nil
	case "utf-16", "utf16", "utf-16le", "utf16le", "ucs-2":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be", "utf16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unknown character set %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported character set %q", label)
	}
	return enc, nil
}

// Decode turns raw file bytes into text. A byte order mark always overrides label.
func Decode(data []byte, label string) (string, error) {
	var fallback encoding.Encoding
	if strings.EqualFold(strings.TrimSpace(label), Auto) {
		if utf8.Valid(bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))) {
			fallback = unicode.UTF8
		} else {
			fallback = charmap.Windows1252
		}
	} else {
		enc, err := Resolve(label)
		if err != nil {
			return "", err
		}
		fallback = enc
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(fallback.NewDecoder()), data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

// Reader serves the lines of an in-memory text. It implements document.Reader.
type Reader struct {
	name  string
	lines []string
	pos   int
}

// NewReader splits text into lines, dropping CR before LF and a leading BOM.
func NewReader(name, text string) *Reader {
	text = strings.TrimPrefix(text, "\uFEFF")
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return &Reader{name: name, lines: lines}
}

// ReadAll decodes r fully with label and returns a Reader named name.
func ReadAll(r io.Reader, name, label string) (*Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	text, err := Decode(data, label)
	if err != nil {
		return nil, err
	}
	return NewReader(name, text), nil
}

// Open reads the file at path.
func Open(path, label string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAll(f, filepath.Base(path), label)
}

func (r *Reader) Name() string { return r.name }

func (r *Reader) ReadLine() (string, bool) {
	if r.pos >= len(r.lines) {
		return "", false
	}
	l := r.lines[r.pos]
	r.pos++
	return l, true
}

func (r *Reader) Rewind() { r.pos = 0 }

// Len is the number of lines.
func (r *Reader) Len() int { return len(r.lines) }

// Writer encodes lines to an io.Writer, terminating each with LF.
// It implements document.Writer. Call Flush when done.
type Writer struct {
	bw  *bufio.Writer
	enc io.WriteCloser
}

// NewWriter encodes with label. UTF-16 output starts with a byte order mark,
// UTF-8 output does not. Characters the charset cannot hold become '?'-like
// replacements rather than failing the save.
func NewWriter(w io.Writer, label string) (*Writer, error) {
	enc, err := Resolve(label)
	if err != nil {
		return nil, err
	}
	var tw io.WriteCloser
	if enc == unicode.UTF8 {
		tw = nopCloser{w}
	} else {
		tw = transform.NewWriter(w, encoding.ReplaceUnsupported(enc.NewEncoder()))
	}
	return &Writer{bw: bufio.NewWriter(tw), enc: tw}, nil
}

func (w *Writer) WriteLine(line string) error {
	if _, err := w.bw.WriteString(line); err != nil {
		return err
	}
	return w.bw.WriteByte('\n')
}

// Flush writes out buffered data and completes the encoding.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	return w.enc.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
