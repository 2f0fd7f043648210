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

import "golang.org/x/crypto/blake2b"

// leafDigest computes the frame digest for a (key, value) pair. A zero
// value is absent and hashes to the zero digest; it never enters the hash
// chain, matching the merge rule's absorbing identity.
func leafDigest(k Key, v Value) Digest {
	if v.isZero() {
		return Digest{}
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 with a nil key only fails on a bad key length;
		// nil is always valid, so this is unreachable.
		panic(err)
	}
	h.Write(k[:])
	h.Write(v[:])
	var out Digest
	h.Sum(out[:0])
	return out
}

// hashPair computes BLAKE2b-256(lhs || rhs), the non-trivial branch of
// merge. Scoped per call; the hasher never escapes this function.
func hashPair(lhs, rhs Digest) Digest {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	h.Write(lhs[:])
	h.Write(rhs[:])
	var out Digest
	h.Sum(out[:0])
	return out
}
