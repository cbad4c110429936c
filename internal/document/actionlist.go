/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"github.com/google/uuid"

	"subkit/internal/docerr"
	"subkit/internal/subtitle"
)

// ActionList is a named batch of actions applied atomically by Finish.
type ActionList struct {
	id       uuid.UUID
	name     string
	owner    string
	undoable bool
	actions  []Action
	model    *Model
	done     bool
}

// ID identifies the list in logs and history records.
func (l *ActionList) ID() uuid.UUID   { return l.id }
func (l *ActionList) Name() string    { return l.name }
func (l *ActionList) Owner() string   { return l.owner }
func (l *ActionList) Undoable() bool  { return l.undoable }
func (l *ActionList) Len() int        { return len(l.actions) }
func (l *ActionList) Finished() bool  { return l.done }
func (l *ActionList) Actions() []Action {
	return append([]Action(nil), l.actions...)
}

// Add appends a prepared action.
func (l *ActionList) Add(a Action) { l.actions = append(l.actions, a) }

// InsertLine inserts e at line of section; line -1 appends and an empty
// section means e's default group.
func (l *ActionList) InsertLine(e subtitle.Entry, line int, section string) {
	l.Add(Action{Kind: ActionInsert, Entry: e, Line: line, Section: section})
}

// RemoveLine removes line of section.
func (l *ActionList) RemoveLine(line int, section string) {
	l.Add(Action{Kind: ActionRemove, Line: line, Section: section})
}

// ModifyLine replaces line of section with e. With noText the target keeps
// its text fields.
func (l *ActionList) ModifyLine(e subtitle.Entry, line int, section string, noText bool) {
	l.Add(Action{Kind: ActionModify, Entry: e, Line: line, Section: section, NoText: noText})
}

// ModifyLineDelta patches line of section with delta.
func (l *ActionList) ModifyLineDelta(delta []byte, line int, section string) {
	l.Add(Action{Kind: ActionModify, Delta: delta, Line: line, Section: section})
}

// ModifyLines replaces every selected line, entries[i] going to the i-th
// selected line in ascending order.
func (l *ActionList) ModifyLines(entries []subtitle.Entry, sel *Selection, section string, noText bool) {
	l.Add(Action{Kind: ActionModifyBatch, Entries: entries, Selection: sel.Clone(), Section: section, NoText: noText})
}

// ModifyLinesDelta is ModifyLines with one delta per selected line.
func (l *ActionList) ModifyLinesDelta(deltas [][]byte, sel *Selection, section string) {
	l.Add(Action{Kind: ActionModifyBatch, Deltas: deltas, Selection: sel.Clone(), Section: section})
}

// Finish executes the list against its model and commits it. On error the
// model is left as it was and no stack changes.
func (l *ActionList) Finish() error {
	if l.done {
		return docerr.New(docerr.Internal, "finish action list", "%q already finished", l.name)
	}
	if l.model == nil {
		return docerr.New(docerr.Internal, "finish action list", "%q has no model", l.name)
	}
	if err := l.model.commit(l, commitDirect); err != nil {
		return err
	}
	l.done = true
	return nil
}
