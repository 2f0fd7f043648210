// Copyright 2016 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package smt

import "sort"

// Pair is one (key, value) leaf staged for proof evaluation. order is an
// internal tie-breaker that Normalize sets and clears again before it
// returns; callers never set it.
type Pair struct {
	Key   Key
	Value Value
	order uint32
}

// State is a bounded, append-with-overwrite staging buffer for leaves,
// mirroring the original smt_state_t: fixed capacity, O(1) appends while
// there's room, linear-scan overwrite once full. It is not safe for
// concurrent mutation; each goroutine verifying a proof needs its own
// State (see package batch for a pool built on that rule).
type State struct {
	pairs    []Pair
	len      int
	capacity int
}

// NewState allocates a State with room for capacity pairs.
func NewState(capacity int) *State {
	s := &State{capacity: capacity}
	s.pairs = make([]Pair, capacity)
	return s
}

// Init (re-)binds the backing storage and resets len to zero, matching
// smt_state_init. Most callers should prefer NewState; Init exists so a
// buffer can be reused across calls without reallocating.
func (s *State) Init(buffer []Pair, capacity int) {
	s.pairs = buffer
	s.len = 0
	s.capacity = capacity
}

// Len reports the number of staged pairs.
func (s *State) Len() int { return s.len }

// Insert appends (key, value) if there's room, otherwise overwrites the
// value of an existing pair with the same key, scanning from the most
// recently inserted entry backward so the latest write always wins before
// Normalize runs. Returns InsufficientCapacity if the state is full and no
// matching key exists.
func (s *State) Insert(key Key, value Value) error {
	if s.len < s.capacity {
		s.pairs[s.len] = Pair{Key: key, Value: value}
		s.len++
		return nil
	}
	for i := s.len - 1; i >= 0; i-- {
		if s.pairs[i].Key == key {
			s.pairs[i].Value = value
			return nil
		}
	}
	return InsufficientCapacity
}

// Fetch returns the value most recently inserted for key, scanning from the
// end of the buffer so it agrees with Insert's overwrite semantics even
// before Normalize has run. Returns NotFound if key was never inserted.
func (s *State) Fetch(key Key) (Value, error) {
	for i := s.len - 1; i >= 0; i-- {
		if s.pairs[i].Key == key {
			return s.pairs[i].Value, nil
		}
	}
	return Value{}, NotFound
}

// keyLess compares two keys as 256-bit integers in byte-reverse order:
// byte 31 first, byte 0 last. This is the traversal order the stack
// program expects and must not be replaced with byte-0-first comparison.
func keyLess(a, b Key) int {
	for i := KeyBytes - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Normalize sorts the staged pairs into the canonical order a proof was
// generated against, and collapses duplicate keys to their most recent
// write. Idempotent: calling it again on an already-normalized state is a
// no-op.
func (s *State) Normalize() {
	for i := 0; i < s.len; i++ {
		s.pairs[i].order = uint32(s.len - i)
	}
	view := s.pairs[:s.len]
	sort.SliceStable(view, func(i, j int) bool {
		if c := keyLess(view[i].Key, view[j].Key); c != 0 {
			return c < 0
		}
		return view[i].order < view[j].order
	})

	// Collapse runs of equal keys, keeping the first of each run: by the
	// order assignment above, the first entry in a sorted run of equal
	// keys is the one with the smallest order, i.e. the most recently
	// inserted occurrence.
	sorted, next := 0, 0
	for next < s.len {
		item := next
		next++
		for next < s.len && view[item].Key == view[next].Key {
			next++
		}
		if item != sorted {
			view[sorted].Key = view[item].Key
			view[sorted].Value = view[item].Value
		}
		view[sorted].order = 0
		sorted++
	}
	s.len = sorted
}
