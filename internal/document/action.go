/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"fmt"

	"subkit/internal/docerr"
	"subkit/internal/subtitle"
)

// ActionKind tags an Action.
type ActionKind int

const (
	ActionInsert ActionKind = iota
	ActionRemove
	ActionModify
	ActionModifyBatch
)

func (k ActionKind) String() string {
	switch k {
	case ActionInsert:
		return "insert"
	case ActionRemove:
		return "remove"
	case ActionModify:
		return "modify"
	case ActionModifyBatch:
		return "modify batch"
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action is one atomic edit. Which fields matter depends on Kind:
//
//	Insert:      Entry, Line (-1 appends), Section
//	Remove:      Line, Section
//	Modify:      Entry or Delta, Line, Section, NoText
//	ModifyBatch: Entries or Deltas (one per selected line), Selection, Section, NoText
//
// An empty Section means the entry's default group for Insert and Modify
// with a full entry; the other kinds require it.
type Action struct {
	Kind      ActionKind
	Section   string
	Line      int
	Entry     subtitle.Entry
	Delta     []byte
	Entries   []subtitle.Entry
	Deltas    [][]byte
	Selection *Selection
	// NoText keeps the style, actor, effect and text of the target.
	NoText bool
}

func (a Action) sectionName() string {
	if a.Section != "" || a.Entry == nil {
		return a.Section
	}
	return a.Entry.DefaultGroup()
}

// executeAndRecord applies a to m and returns the action restoring the
// state m had before. The inverse is always derived before anything changes.
func (a Action) executeAndRecord(m *Model) (Action, error) {
	name := a.sectionName()
	sec := m.sectionByName(name)
	if sec == nil {
		return Action{}, docerr.New(docerr.InvalidSection, "execute "+a.Kind.String(), "no section %q", name)
	}
	switch a.Kind {
	case ActionInsert:
		if a.Entry == nil {
			return Action{}, docerr.New(docerr.Internal, "execute insert", "nil entry")
		}
		line := a.Line
		if line == -1 {
			line = sec.Len()
		}
		if _, err := sec.AddEntry(a.Entry.Clone(), line); err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionRemove, Line: line, Section: name}, nil

	case ActionRemove:
		old, err := sec.RemoveEntryByIndex(a.Line)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionInsert, Entry: old, Line: a.Line, Section: name}, nil

	case ActionModify:
		return modifyLine(sec, a.Line, a.Entry, a.Delta, a.NoText)

	case ActionModifyBatch:
		return modifyBatch(sec, a)
	}
	return Action{}, docerr.New(docerr.Internal, "execute", "unknown action kind %d", int(a.Kind))
}

// modifyLine replaces or patches one line. With a full entry and noText,
// the change is carried as a delta that skips the text fields, so the
// line's text survives.
func modifyLine(sec *Section, line int, e subtitle.Entry, delta []byte, noText bool) (Action, error) {
	cur, err := sec.Entry(line)
	if err != nil {
		return Action{}, err
	}
	if e == nil && delta == nil {
		return Action{}, docerr.New(docerr.Internal, "execute modify", "neither entry nor delta given")
	}
	coder, hasCoder := subtitle.CoderFor(cur)
	if e != nil && hasCoder && noText {
		if e.Kind() != cur.Kind() {
			return Action{}, docerr.New(docerr.Internal, "execute modify", "cannot patch %s with %s", cur.Kind(), e.Kind())
		}
		if delta, err = coder.EncodeDelta(cur, e, false); err != nil {
			return Action{}, err
		}
		e = nil
	}
	if e != nil {
		old, err := sec.replace(line, e.Clone())
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionModify, Entry: old, Line: line, Section: sec.Name()}, nil
	}
	if !hasCoder {
		return Action{}, docerr.New(docerr.UnsupportedFeature, "execute modify", "%s lines cannot take a delta", cur.Kind())
	}
	rev, err := coder.EncodeReverseDelta(delta, cur)
	if err != nil {
		return Action{}, err
	}
	if err := coder.ApplyDelta(delta, cur); err != nil {
		return Action{}, err
	}
	h, _ := sec.Handle(line)
	sec.reindex(cur, h)
	return Action{Kind: ActionModify, Delta: rev, Line: line, Section: sec.Name()}, nil
}

func modifyBatch(sec *Section, a Action) (Action, error) {
	if a.Selection == nil {
		return Action{}, docerr.New(docerr.Internal, "execute modify batch", "nil selection")
	}
	lines := a.Selection.Lines()
	useDeltas := a.Deltas != nil
	n := len(a.Entries)
	if useDeltas {
		n = len(a.Deltas)
	}
	if n != len(lines) {
		return Action{}, docerr.New(docerr.Internal, "execute modify batch", "%d values for %d selected lines", n, len(lines))
	}
	if len(lines) > 0 && lines[len(lines)-1] >= sec.Len() {
		return Action{}, docerr.New(docerr.OutOfRange, "execute modify batch", "line %d in %q (len %d)", lines[len(lines)-1], sec.Name(), sec.Len())
	}
	anti := Action{Kind: ActionModifyBatch, Section: sec.Name(), Selection: a.Selection.Clone()}
	if useDeltas {
		anti.Deltas = make([][]byte, len(lines))
	} else {
		anti.Entries = make([]subtitle.Entry, len(lines))
	}
	for i, line := range lines {
		var e subtitle.Entry
		var d []byte
		if useDeltas {
			d = a.Deltas[i]
		} else {
			e = a.Entries[i]
		}
		inv, err := modifyLine(sec, line, e, d, a.NoText)
		if err != nil {
			// undo the lines already done, newest first
			for j := i - 1; j >= 0; j-- {
				_, _ = modifyLine(sec, lines[j], batchEntry(anti, j), batchDelta(anti, j), false)
			}
			return Action{}, err
		}
		if inv.Delta != nil && !useDeltas {
			// a noText patch of a full entry inverts to a delta; keep the batch uniform
			old, _ := sec.Entry(line)
			snapshot := old.Clone()
			coder, _ := subtitle.CoderFor(snapshot)
			if err := coder.ApplyDelta(inv.Delta, snapshot); err != nil {
				return Action{}, docerr.Wrap(docerr.Internal, "execute modify batch", err)
			}
			inv = Action{Entry: snapshot}
		}
		if useDeltas {
			if inv.Delta == nil {
				return Action{}, docerr.New(docerr.Internal, "execute modify batch", "line %d produced no reverse delta", line)
			}
			anti.Deltas[i] = inv.Delta
		} else {
			anti.Entries[i] = inv.Entry
		}
	}
	return anti, nil
}

func batchEntry(a Action, i int) subtitle.Entry {
	if a.Entries == nil {
		return nil
	}
	return a.Entries[i]
}

func batchDelta(a Action, i int) []byte {
	if a.Deltas == nil {
		return nil
	}
	return a.Deltas[i]
}
