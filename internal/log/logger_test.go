/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func lastJSONLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	return m
}

// TestInitAndStructuredLoggingToFile verifies that Init with a file handler writes JSON logs
// carrying the static, contextual and document attributes.
func TestInitAndStructuredLoggingToFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "subkit.log")
	var console bytes.Buffer
	Init(Options{Level: "debug", Format: "json", File: fpath, Writer: &console})

	l := WithOperation(WithComponent("testcomp"), "op1")
	l.InfoContext(WithDocument(context.Background(), "/tmp/a.ass"), "hello world", slog.String("k", "v"))

	time.Sleep(20 * time.Millisecond)
	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, src := range [][]byte{b, console.Bytes()} {
		m := lastJSONLine(t, src)
		if m["app"] != "subkit" {
			t.Fatalf("missing app attr: %v", m["app"])
		}
		if _, ok := m["ver"].(string); !ok {
			t.Fatalf("missing ver attr")
		}
		if m["component"] != "testcomp" || m["op"] != "op1" {
			t.Fatalf("component/op mismatch: %v %v", m["component"], m["op"])
		}
		if m["doc"] != "/tmp/a.ass" {
			t.Fatalf("doc attr mismatch: %v", m["doc"])
		}
		if m["msg"] != "hello world" {
			t.Fatalf("msg mismatch: %v", m["msg"])
		}
	}
}

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv("SUBKIT_LOG_LEVEL", "warn")
	t.Setenv("SUBKIT_LOG_FORMAT", "json")
	t.Setenv("SUBKIT_LOG_SOURCE", "true")
	t.Setenv("SUBKIT_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("SUBKIT_SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestResolveFormat(t *testing.T) {
	var buf bytes.Buffer
	if got := resolveFormat("JSON", &buf); got != "json" {
		t.Fatalf("explicit json resolved to %q", got)
	}
	if got := resolveFormat("auto", &buf); got != "console" {
		t.Fatalf("auto on a buffer resolved to %q", got)
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if got := resolveFormat("", f); got != "json" {
		t.Fatalf("auto on a regular file resolved to %q", got)
	}
}

func TestPrettyTextHandler_Behavior(t *testing.T) {
	var buf bytes.Buffer
	h := &prettyTextHandler{opts: prettyOpts{Level: slog.LevelWarn}, w: &buf}

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("grp")
	r := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("pi", 3.14), slog.Bool("ok", true), slog.String("s", "two words"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ERR boom", "grp.k=v", "grp.n=42", "grp.pi=3.14", "grp.ok=true", `grp.s="two words"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestPrettyTextHandler_ComponentTagAndDocBase(t *testing.T) {
	var buf bytes.Buffer
	h := (&prettyTextHandler{opts: prettyOpts{Level: slog.LevelInfo}, w: &buf}).
		WithAttrs([]slog.Attr{slog.String("component", "format"), slog.String("op", "load")})
	l := slog.New(withEnricher(h))
	l.InfoContext(WithDocument(context.Background(), filepath.Join("some", "dir", "ep01.ass")), "loaded")

	out := buf.String()
	for _, want := range []string{"INF [format] loaded", "op=load", "doc=ep01.ass"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "component=") {
		t.Fatalf("component printed as attr: %q", out)
	}
}

func TestPrettyTextHandler_AddSource(t *testing.T) {
	var buf bytes.Buffer
	h := &prettyTextHandler{opts: prettyOpts{Level: slog.LevelInfo, AddSource: true}, w: &buf}

	if err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "no pc", 0)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if strings.Contains(buf.String(), "src=") {
		t.Fatalf("record without pc printed a source: %q", buf.String())
	}

	buf.Reset()
	var pcs [1]uintptr
	runtime.Callers(1, pcs[:])
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "with pc", pcs[0])
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "with pc") {
		t.Fatalf("message missing: %q", out)
	}
	// older toolchains have no Record.Source and print no location
	if _, ok := any(r).(interface{ Source() *slog.Source }); ok && !strings.Contains(out, "logger_test.go:") {
		t.Fatalf("source missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "WARNING": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo, "bogus": slog.LevelInfo}
	for in, want := range cases {
		if got := parseLevel(in).Level(); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
