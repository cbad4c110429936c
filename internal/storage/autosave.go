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
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"subkit/internal/document"
	applog "subkit/internal/log"
)

// Autosaver records a snapshot of the document after every edit, undo and
// redo. Failures are logged and never reach the editing operation.
type Autosaver struct {
	history  *History
	document string
	session  uuid.UUID
	keepLast int
	timeout  time.Duration
	log      *slog.Logger
}

// NewAutosaver stores snapshots of the document called name, keeping the
// keepLast newest (all of them when keepLast <= 0).
func NewAutosaver(h *History, name string, keepLast int) *Autosaver {
	session := uuid.New()
	return &Autosaver{
		history:  h,
		document: name,
		session:  session,
		keepLast: keepLast,
		timeout:  5 * time.Second,
		log: applog.WithComponent("autosave").With(
			slog.String("doc", name),
			slog.String("session", session.String()),
		),
	}
}

// Session identifies the snapshots written by this autosaver.
func (a *Autosaver) Session() uuid.UUID { return a.session }

var _ document.Listener = (*Autosaver)(nil)

func (a *Autosaver) OnDocumentChanged(m *document.Model, n document.Notification) {
	switch n.Kind {
	case document.NotifyChanged, document.NotifyUndo, document.NotifyRedo:
	default:
		return
	}
	if err := a.Snapshot(m); err != nil {
		a.log.Warn("autosave failed", slog.String("after", n.Name), slog.Any("err", err))
	}
}

// Snapshot serializes m through its bound format and stores it.
func (a *Autosaver) Snapshot(m *document.Model) error {
	f := m.Format()
	if f == nil {
		return nil
	}
	var sink lineBuffer
	if err := f.Handler().Save(m, &sink); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	err := a.history.SaveSnapshot(ctx, Snapshot{
		Session:  a.session,
		Document: a.document,
		Format:   f.Name(),
		Text:     sink.String(),
	})
	if err != nil {
		return err
	}
	if a.keepLast > 0 {
		if n, err := a.history.Prune(ctx, a.document, a.keepLast); err != nil {
			return err
		} else if n > 0 {
			a.log.Debug("history pruned", slog.Int64("removed", n))
		}
	}
	return nil
}

type lineBuffer struct{ b strings.Builder }

func (l *lineBuffer) WriteLine(s string) error {
	l.b.WriteString(s)
	l.b.WriteByte('\n')
	return nil
}

func (l *lineBuffer) String() string { return l.b.String() }
