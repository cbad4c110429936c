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
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// tsLayout is fixed width so timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Snapshot is one recorded state of a document.
type Snapshot struct {
	ID       int64
	Session  uuid.UUID
	Document string
	Format   string
	Text     string
	TS       time.Time
}

// language=SQL
const insertSnapshotSQL = `INSERT INTO snapshots(session, document, format, ts, text) VALUES (?, ?, ?, ?, ?)`

// language=SQL
const selectSnapshotColumns = `SELECT id, session, document, format, ts, text FROM snapshots`

// language=SQL
const pruneSnapshotsSQL = `DELETE FROM snapshots WHERE document = ? AND id NOT IN (
	SELECT id FROM (
		SELECT id FROM snapshots WHERE document = ? ORDER BY ts DESC, id DESC LIMIT ?
	) AS keep
)`

// SaveSnapshot records s. A zero TS means now; a nil session gets a fresh id.
func (h *History) SaveSnapshot(ctx context.Context, s Snapshot) error {
	if s.Document == "" {
		return errors.New("snapshot needs a document name")
	}
	if s.TS.IsZero() {
		s.TS = time.Now()
	}
	if s.Session == uuid.Nil {
		s.Session = uuid.New()
	}
	_, err := h.exec(ctx, insertSnapshotSQL, s.Session.String(), s.Document, s.Format, s.TS.UTC().Format(tsLayout), s.Text)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the newest snapshot of document; ok is false when there is none.
func (h *History) Latest(ctx context.Context, document string) (s Snapshot, ok bool, err error) {
	row := h.db.QueryRowContext(ctx, h.rebind(selectSnapshotColumns+` WHERE document = ? ORDER BY ts DESC, id DESC LIMIT 1`), document)
	s, err = scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	return s, true, nil
}

// Get returns the snapshot with id.
func (h *History) Get(ctx context.Context, id int64) (Snapshot, error) {
	row := h.db.QueryRowContext(ctx, h.rebind(selectSnapshotColumns+` WHERE id = ?`), id)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("snapshot %d not found", id)
	}
	return s, err
}

// List returns up to limit snapshots of document, newest first. An empty
// document lists every document.
func (h *History) List(ctx context.Context, document string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		rows *sql.Rows
		err  error
	)
	if document == "" {
		rows, err = h.db.QueryContext(ctx, h.rebind(selectSnapshotColumns+` ORDER BY ts DESC, id DESC LIMIT ?`), limit)
	} else {
		rows, err = h.db.QueryContext(ctx, h.rebind(selectSnapshotColumns+` WHERE document = ? ORDER BY ts DESC, id DESC LIMIT ?`), document, limit)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Prune keeps the keepLast newest snapshots of document and deletes the rest.
func (h *History) Prune(ctx context.Context, document string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := h.exec(ctx, pruneSnapshotsSQL, document, document, keepLast)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(sc scanner) (Snapshot, error) {
	var (
		s       Snapshot
		session string
		ts      string
	)
	if err := sc.Scan(&s.ID, &session, &s.Document, &s.Format, &ts, &s.Text); err != nil {
		return Snapshot{}, err
	}
	s.Session, _ = uuid.Parse(session)
	s.TS, _ = time.Parse(tsLayout, ts)
	return s, nil
}
