/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestClient_EventAndUploadCrash(t *testing.T) {
	var mu sync.Mutex
	var events, crashes [][]byte

	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		events = append(events, b)
		mu.Unlock()
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		crashes = append(crashes, b)
		mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: 2 * time.Second})
	defer c.Close()
	if !c.Enabled() {
		t.Fatalf("expected client to be enabled")
	}

	c.Event("command", map[string]any{"command": "convert"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Flush(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("events sent = %d", len(events))
	}
	var m map[string]any
	if err := json.Unmarshal(events[0], &m); err != nil {
		t.Fatalf("bad event json: %v", err)
	}
	if m["name"] != "command" || m["command"] != "convert" {
		t.Fatalf("event = %v", m)
	}
	if _, ok := m["ts"].(string); !ok {
		t.Fatalf("missing ts field")
	}
	mu.Unlock()

	if err := c.UploadCrash(ctx, []byte("STACKTRACE")); err != nil {
		t.Fatalf("UploadCrash: %v", err)
	}
	mu.Lock()
	if len(crashes) != 1 || string(crashes[0]) != "STACKTRACE" {
		t.Fatalf("crashes = %q", crashes)
	}
}

func TestDisabledClientSendsNothing(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hit = true }))
	defer srv.Close()

	c := New(Config{EventsURL: srv.URL, CrashURL: srv.URL})
	defer c.Close()
	c.Event("command", nil)
	c.Flush(context.Background())
	if err := c.UploadCrash(context.Background(), []byte("x")); err != nil {
		t.Fatalf("UploadCrash: %v", err)
	}
	if hit || c.Enabled() {
		t.Fatalf("client without opt-in contacted the server")
	}
}

func TestCloseDropsQueuedEvents(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		<-release
	}))
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: 5 * time.Second})
	for i := 0; i < 4; i++ {
		c.Event("command", nil)
	}
	c.Close()
	close(release)
	c.Event("after close", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	c.Flush(ctx)
	if ctx.Err() != nil {
		t.Fatalf("Flush after Close waited for the deadline")
	}
	mu.Lock()
	defer mu.Unlock()
	if hits > 4 {
		t.Fatalf("server hit %d times, event after Close was sent", hits)
	}
}

func TestUploadCrashReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := New(Config{OptIn: true, CrashURL: srv.URL, DebugLogging: true})
	defer c.Close()
	if err := c.UploadCrash(context.Background(), []byte("x")); err == nil {
		t.Fatalf("expected error for 500 response")
	}
	// events need an events URL
	if c.Enabled() {
		t.Fatalf("client without events URL reports enabled")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SUBKIT_TELEMETRY_OPT_IN", "yes")
	t.Setenv("SUBKIT_TELEMETRY_URL", "http://127.0.0.1:0")
	t.Setenv("SUBKIT_CRASH_UPLOAD_URL", "")
	t.Setenv("SUBKIT_TELEMETRY_TIMEOUT_MS", "100")

	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL == "" || cfg.Timeout != 100*time.Millisecond {
		t.Fatalf("FromEnv = %+v", cfg)
	}
	c := New(cfg)
	SetDefault(c)
	defer SetDefault(nil)
	if !Default().Enabled() {
		t.Fatalf("default client should be enabled")
	}
}
