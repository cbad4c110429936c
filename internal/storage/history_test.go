/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"subkit/internal/format"
	"subkit/internal/subtitle"
	"subkit/internal/textio"
)

func openTemp(t *testing.T) *History {
	t.Helper()
	h, err := Open(context.Background(), Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestSnapshotsRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := openTemp(t)
	if _, ok, err := h.Latest(ctx, "a.ass"); err != nil || ok {
		t.Fatalf("Latest on empty history = %v, %v", ok, err)
	}
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	session := uuid.New()
	for i, text := range []string{"one", "two", "three"} {
		s := Snapshot{Session: session, Document: "a.ass", Format: "ASS", Text: text, TS: base.Add(time.Duration(i) * time.Second)}
		if err := h.SaveSnapshot(ctx, s); err != nil {
			t.Fatalf("SaveSnapshot error: %v", err)
		}
	}
	if err := h.SaveSnapshot(ctx, Snapshot{Document: "b.ass", Text: "other"}); err != nil {
		t.Fatalf("SaveSnapshot error: %v", err)
	}
	latest, ok, err := h.Latest(ctx, "a.ass")
	if err != nil || !ok || latest.Text != "three" || latest.Session != session || !latest.TS.Equal(base.Add(2*time.Second)) {
		t.Fatalf("Latest = %+v, %v, %v", latest, ok, err)
	}
	list, err := h.List(ctx, "a.ass", 10)
	if err != nil || len(list) != 3 || list[0].Text != "three" || list[2].Text != "one" {
		t.Fatalf("List = %+v, %v", list, err)
	}
	if all, _ := h.List(ctx, "", 10); len(all) != 4 {
		t.Fatalf("List all = %d entries, want 4", len(all))
	}
	removed, err := h.Prune(ctx, "a.ass", 2)
	if err != nil || removed != 1 {
		t.Fatalf("Prune = %d, %v", removed, err)
	}
	list, _ = h.List(ctx, "a.ass", 10)
	if len(list) != 2 || list[1].Text != "two" {
		t.Fatalf("after prune List = %+v", list)
	}
	got, err := h.Get(ctx, list[0].ID)
	if err != nil || got.Text != "three" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if _, err := h.Get(ctx, 9999); err == nil {
		t.Fatalf("Get of a missing id should fail")
	}
	if other, _ := h.List(ctx, "b.ass", 10); len(other) != 1 {
		t.Fatalf("prune touched another document")
	}
}

func TestHistoryDirIsLocked(t *testing.T) {
	dir := t.TempDir()
	h, err := Open(context.Background(), Options{Dir: dir})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if _, err := Open(context.Background(), Options{Dir: dir}); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Open err = %v, want ErrLocked", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	again, err := Open(context.Background(), Options{Dir: dir})
	if err != nil {
		t.Fatalf("reopen after Close: %v", err)
	}
	_ = again.Close()
}

func TestOpenRejectsBadOptions(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, Options{Driver: "mysql"}); err == nil {
		t.Fatalf("unknown driver accepted")
	}
	if _, err := Open(ctx, Options{}); err == nil {
		t.Fatalf("sqlite without dir accepted")
	}
	if _, err := Open(ctx, Options{Driver: DriverPostgres}); err == nil {
		t.Fatalf("postgres without DSN accepted")
	}
}

func TestAutosaverRecordsEdits(t *testing.T) {
	h := openTemp(t)
	reg := format.DefaultRegistry(format.Options{})
	ass, _ := reg.ByName("ASS")
	m, err := reg.Load(textio.NewReader("", ""), ass)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	saver := NewAutosaver(h, "edit.ass", 2)
	m.AddListener(saver)

	for i := 0; i < 3; i++ {
		dl := subtitle.NewDialogue(subtitle.DialectASS)
		dl.Text = "line"
		l := m.NewActionList("insert", "", true)
		l.InsertLine(dl, -1, subtitle.SectionEvents)
		if err := l.Finish(); err != nil {
			t.Fatalf("Finish error: %v", err)
		}
	}
	if err := m.Undo(""); err != nil {
		t.Fatalf("Undo error: %v", err)
	}
	list, err := h.List(context.Background(), "edit.ass", 10)
	if err != nil || len(list) != 2 {
		t.Fatalf("List = %d snapshots, %v; want 2 after pruning", len(list), err)
	}
	if strings.Count(list[0].Text, "Dialogue: ") != 2 || list[0].Session != saver.Session() {
		t.Fatalf("latest snapshot should hold the undone state:\n%s", list[0].Text)
	}
	if list[0].Format != "Advanced Substation Alpha" {
		t.Fatalf("format = %q", list[0].Format)
	}

	m.Clear()
	if after, _ := h.List(context.Background(), "edit.ass", 10); len(after) != 2 || after[0].ID != list[0].ID {
		t.Fatalf("Clear should not be recorded")
	}
}

func TestPostgresHistory(t *testing.T) {
	dsn := os.Getenv("SUBKIT_PG_DSN")
	if dsn == "" {
		t.Skip("SUBKIT_PG_DSN not set")
	}
	ctx := context.Background()
	h, err := Open(ctx, Options{Driver: DriverPostgres, DSN: dsn})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer h.Close()
	doc := "pg-" + uuid.NewString() + ".ass"
	for _, text := range []string{"a", "b", "c"} {
		if err := h.SaveSnapshot(ctx, Snapshot{Document: doc, Format: "ASS", Text: text}); err != nil {
			t.Fatalf("SaveSnapshot error: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	if n, err := h.Prune(ctx, doc, 1); err != nil || n != 2 {
		t.Fatalf("Prune = %d, %v", n, err)
	}
	latest, ok, err := h.Latest(ctx, doc)
	if err != nil || !ok || latest.Text != "c" {
		t.Fatalf("Latest = %+v, %v, %v", latest, ok, err)
	}
	_, _ = h.exec(ctx, `DELETE FROM snapshots WHERE document = ?`, doc)
}
