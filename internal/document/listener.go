/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

// NotifyKind says what happened to a model.
type NotifyKind int

const (
	NotifyChanged NotifyKind = iota
	NotifyUndo
	NotifyRedo
	NotifyLoaded
	NotifyCleared
)

func (k NotifyKind) String() string {
	switch k {
	case NotifyChanged:
		return "changed"
	case NotifyUndo:
		return "undo"
	case NotifyRedo:
		return "redo"
	case NotifyLoaded:
		return "loaded"
	case NotifyCleared:
		return "cleared"
	}
	return "unknown"
}

// Notification describes one committed change. Name and Owner are those of
// the action list involved, empty for loads and clears.
type Notification struct {
	Kind  NotifyKind
	Name  string
	Owner string
}

// Listener observes a model. It is called synchronously and must not
// modify the model.
type Listener interface {
	OnDocumentChanged(m *Model, n Notification)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(m *Model, n Notification)

func (f ListenerFunc) OnDocumentChanged(m *Model, n Notification) { f(m, n) }
