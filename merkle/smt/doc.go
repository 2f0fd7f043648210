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

// Package smt verifies compact proofs against a sparse Merkle tree of fixed
// height 256. Given a set of 32-byte key/value leaves and a proof encoded as
// a small stack program, it recomputes the tree root and, optionally,
// compares it against an expected value.
//
// The package is a pure, synchronous function set: it performs no I/O, holds
// no state across calls, and keeps its evaluation stack in a fixed-size
// array. It is not allocation-free: every leaf hash and every non-trivial
// merge creates a new BLAKE2b hasher. Concurrent calls are safe provided
// each uses its own State.
package smt
