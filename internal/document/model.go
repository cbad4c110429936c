/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package document is the editable in-memory subtitle document: sections of
// entries, transactional action lists with computed inverses, and bounded
// undo and redo stacks.
//
// A Model is not safe for concurrent use. Listeners run synchronously after
// each commit and must not mutate the model they are notified about.
package document

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"subkit/internal/docerr"
	applog "subkit/internal/log"
	"subkit/internal/undo"
)

// DefaultUndoLimit bounds the undo and redo stacks unless configured otherwise.
const DefaultUndoLimit = 20

// Model is a subtitle document.
type Model struct {
	sections  []*Section
	byName    map[string]*Section
	undo      *undo.Stack[*ActionList]
	redo      *undo.Stack[*ActionList]
	listeners []Listener
	format    Format
	notifying bool
}

// NewModel returns an empty document bound to f, which may be nil.
func NewModel(f Format) *Model {
	m := &Model{
		byName: make(map[string]*Section),
		undo:   undo.NewStack[*ActionList](DefaultUndoLimit),
		redo:   undo.NewStack[*ActionList](DefaultUndoLimit),
		format: f,
	}
	drop := func(l *ActionList) {
		applog.WithComponent("document").Debug("undo history dropped", slog.String("name", l.name), slog.String("id", l.id.String()))
	}
	m.undo.OnDrop = drop
	m.redo.OnDrop = drop
	return m
}

// Format returns the bound format.
func (m *Model) Format() Format { return m.format }

// SetFormat rebinds the document to f.
func (m *Model) SetFormat(f Format) { m.format = f }

// AddSection appends an empty section.
func (m *Model) AddSection(name string) (*Section, error) {
	if _, ok := m.byName[name]; ok {
		return nil, docerr.New(docerr.SectionExists, "add section", "%q", name)
	}
	s := NewSection(name)
	m.sections = append(m.sections, s)
	m.byName[name] = s
	return s, nil
}

// Section returns the section called name.
func (m *Model) Section(name string) (*Section, error) {
	if s := m.sectionByName(name); s != nil {
		return s, nil
	}
	return nil, docerr.New(docerr.InvalidSection, "get section", "%q", name)
}

func (m *Model) sectionByName(name string) *Section { return m.byName[name] }

// SectionAt returns the i-th section in document order.
func (m *Model) SectionAt(i int) (*Section, error) {
	if i < 0 || i >= len(m.sections) {
		return nil, docerr.New(docerr.OutOfRange, "get section", "index %d (count %d)", i, len(m.sections))
	}
	return m.sections[i], nil
}

func (m *Model) SectionCount() int { return len(m.sections) }

// Sections returns the sections in document order.
func (m *Model) Sections() []*Section { return append([]*Section(nil), m.sections...) }

// NewActionList starts a batch of edits against m.
func (m *Model) NewActionList(name, owner string, undoable bool) *ActionList {
	return &ActionList{id: uuid.New(), name: name, owner: owner, undoable: undoable, model: m}
}

// UndoLimit returns the stack bound.
func (m *Model) UndoLimit() int { return m.undo.Limit() }

// SetUndoLimit rebounds both stacks, dropping the oldest entries at once.
func (m *Model) SetUndoLimit(n int) {
	if n <= 0 {
		n = DefaultUndoLimit
	}
	m.undo.SetLimit(n)
	m.redo.SetLimit(n)
}

// CanUndo reports whether Undo(owner) would do something. An empty owner
// matches any list; otherwise the top list must belong to owner.
func (m *Model) CanUndo(owner string) bool { return canPop(m.undo, owner) }

func (m *Model) CanRedo(owner string) bool { return canPop(m.redo, owner) }

// UndoMessage is the name of the list Undo(owner) would revert.
func (m *Model) UndoMessage(owner string) string { return topName(m.undo, owner) }

func (m *Model) RedoMessage(owner string) string { return topName(m.redo, owner) }

func canPop(s *undo.Stack[*ActionList], owner string) bool {
	top, ok := s.Peek()
	return ok && (owner == "" || top.owner == owner)
}

func topName(s *undo.Stack[*ActionList], owner string) string {
	if !canPop(s, owner) {
		return ""
	}
	top, _ := s.Peek()
	return top.name
}

// Undo reverts the newest undoable list and makes it redoable.
func (m *Model) Undo(owner string) error {
	return m.popAndRun(m.undo, owner, commitUndo)
}

// Redo reapplies the newest undone list.
func (m *Model) Redo(owner string) error {
	return m.popAndRun(m.redo, owner, commitRedo)
}

func (m *Model) popAndRun(s *undo.Stack[*ActionList], owner string, mode commitMode) error {
	if !canPop(s, owner) {
		return docerr.New(docerr.OutOfRange, mode.String(), "nothing to %s for owner %q", mode, owner)
	}
	l, _ := s.Pop()
	if err := m.commit(l, mode); err != nil {
		s.Push(l)
		return err
	}
	return nil
}

// ClearHistory empties both stacks.
func (m *Model) ClearHistory() {
	m.undo.Clear()
	m.redo.Clear()
}

// Adopt takes over the sections and format of src, which must not be used
// afterwards, clears the history and notifies listeners with NotifyLoaded.
func (m *Model) Adopt(src *Model) {
	m.sections = src.sections
	m.byName = src.byName
	m.format = src.format
	m.ClearHistory()
	m.notify(Notification{Kind: NotifyLoaded})
}

// Clear drops all sections and history.
func (m *Model) Clear() {
	m.sections = nil
	m.byName = make(map[string]*Section)
	m.ClearHistory()
	m.notify(Notification{Kind: NotifyCleared})
}

type commitMode int

const (
	commitDirect commitMode = iota
	commitUndo
	commitRedo
)

func (c commitMode) String() string {
	switch c {
	case commitUndo:
		return "undo"
	case commitRedo:
		return "redo"
	}
	return "commit"
}

// commit runs l and files its inverse: fresh lists and redos go to the undo
// stack, undos to the redo stack. A fresh commit clears the redo stack.
func (m *Model) commit(l *ActionList, mode commitMode) error {
	if m.notifying {
		return docerr.New(docerr.Internal, mode.String(), "model changed from inside a listener")
	}
	anti, err := m.run(l)
	if err != nil {
		return err
	}
	switch mode {
	case commitDirect:
		if l.undoable {
			m.undo.Push(anti)
			m.redo.Clear()
		}
	case commitUndo:
		m.redo.Push(anti)
	case commitRedo:
		m.undo.Push(anti)
	}
	applog.WithOperation(applog.WithComponent("document"), mode.String()).Debug("action list committed",
		slog.String("name", l.name), slog.String("owner", l.owner), slog.Int("actions", len(l.actions)),
		slog.Int("undo_depth", m.undo.Len()), slog.Int("redo_depth", m.redo.Len()))

	kind := NotifyChanged
	if mode == commitUndo {
		kind = NotifyUndo
	} else if mode == commitRedo {
		kind = NotifyRedo
	}
	m.notify(Notification{Kind: kind, Name: l.name, Owner: l.owner})
	return nil
}

// run executes every action in order and returns the inverse list, whose
// actions are in reverse order. A failing action rolls back the ones before it.
func (m *Model) run(l *ActionList) (*ActionList, error) {
	inverse := make([]Action, 0, len(l.actions))
	for i, a := range l.actions {
		inv, err := a.executeAndRecord(m)
		if err == nil {
			inverse = append(inverse, inv)
			continue
		}
		err = fmt.Errorf("action list %q, action %d (%s): %w", l.name, i, a.Kind, err)
		for j := len(inverse) - 1; j >= 0; j-- {
			if _, rerr := inverse[j].executeAndRecord(m); rerr != nil {
				err = multierr.Append(err, docerr.Wrap(docerr.Internal, "roll back", rerr))
			}
		}
		return nil, err
	}
	anti := &ActionList{id: uuid.New(), name: l.name, owner: l.owner, undoable: true, model: m, done: true}
	anti.actions = make([]Action, len(inverse))
	for i, inv := range inverse {
		anti.actions[len(inverse)-1-i] = inv
	}
	return anti, nil
}

func (m *Model) notify(n Notification) {
	if len(m.listeners) == 0 {
		return
	}
	m.notifying = true
	defer func() { m.notifying = false }()
	for _, l := range m.listeners {
		l.OnDocumentChanged(m, n)
	}
}

// AddListener registers l for change notifications.
func (m *Model) AddListener(l Listener) { m.listeners = append(m.listeners, l) }
