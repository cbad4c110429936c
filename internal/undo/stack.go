/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo provides the bounded LIFO stack backing document undo and redo.
package undo

// Stack keeps at most Limit items; pushing onto a full stack drops the oldest
// item without error. A Limit of zero or less means unbounded.
//
// Stack is not safe for concurrent use.
type Stack[T any] struct {
	items []T
	limit int
	// OnDrop, if set, is called for every item evicted by the limit.
	OnDrop func(T)
}

// NewStack returns an empty stack holding at most limit items.
func NewStack[T any](limit int) *Stack[T] {
	return &Stack[T]{limit: limit}
}

// Push adds v on top and evicts from the bottom while over the limit.
func (s *Stack[T]) Push(v T) {
	s.items = append(s.items, v)
	s.enforce()
}

// Pop removes and returns the top item.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	n := len(s.items)
	if n == 0 {
		return zero, false
	}
	v := s.items[n-1]
	s.items[n-1] = zero
	s.items = s.items[:n-1]
	return v, true
}

// Peek returns the top item without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Stack[T]) Len() int { return len(s.items) }

func (s *Stack[T]) Limit() int { return s.limit }

// SetLimit changes the bound and trims immediately.
func (s *Stack[T]) SetLimit(limit int) {
	s.limit = limit
	s.enforce()
}

// Clear drops every item without calling OnDrop.
func (s *Stack[T]) Clear() {
	clear(s.items)
	s.items = s.items[:0]
}

// Items returns the stack contents from bottom to top.
func (s *Stack[T]) Items() []T {
	return append([]T(nil), s.items...)
}

func (s *Stack[T]) enforce() {
	if s.limit <= 0 || len(s.items) <= s.limit {
		return
	}
	drop := len(s.items) - s.limit
	if s.OnDrop != nil {
		for _, v := range s.items[:drop] {
			s.OnDrop(v)
		}
	}
	s.items = append(s.items[:0:0], s.items[drop:]...)
}
