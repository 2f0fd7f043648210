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

import (
	"bytes"
	"testing"
)

func opL() []byte { return []byte{opPushLeaf} }

func opP(height byte, sib Digest) []byte {
	b := make([]byte, 0, 34)
	b = append(b, opPushSibling, height)
	return append(b, sib[:]...)
}

func opH(height byte) []byte { return []byte{opMergeTop, height} }

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// S1 — an empty tree with an empty proof must fail InvalidStack, not
// produce a root.
func TestEmptyProofIsInvalidStack(t *testing.T) {
	s := NewState(0)
	s.Normalize()
	_, err := CalculateRoot(s, nil)
	if err != InvalidStack {
		t.Fatalf("CalculateRoot(empty) = %v, want InvalidStack", err)
	}
}

// S2 — single leaf, proof absorbing 256 zero siblings ascending from
// height 0, should reduce to the bare leaf digest.
func TestSingleLeafAbsorbsZeroSiblings(t *testing.T) {
	s := NewState(1)
	k := Key{}
	v := valueOf(0x01)
	if err := s.Insert(k, v); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	s.Normalize()

	proof := concat(opL())
	for h := 0; h < 256; h++ {
		proof = append(proof, opP(byte(h), Digest{})...)
	}

	got, err := CalculateRoot(s, proof)
	if err != nil {
		t.Fatalf("CalculateRoot: %v", err)
	}
	want := leafDigest(k, v)
	if got != want {
		t.Errorf("root = %x, want %x", got, want)
	}
}

// S3 — two leaves sharing all bits above bit 0, merged at height 0, then
// absorbing zero siblings up to the root.
func TestTwoLeavesSharedPrefix(t *testing.T) {
	s := NewState(2)
	k1, k2 := Key{}, Key{}
	k2[0] = 0x01 // differs from k1 only at bit 0
	v1, v2 := valueOf(0xA1), valueOf(0xB2)
	s.Insert(k1, v1)
	s.Insert(k2, v2)
	s.Normalize()

	proof := concat(opL(), opL(), opH(0))
	for h := 1; h < 256; h++ {
		proof = append(proof, opP(byte(h), Digest{})...)
	}

	got, err := CalculateRoot(s, proof)
	if err != nil {
		t.Fatalf("CalculateRoot: %v", err)
	}
	want := hashPair(leafDigest(k1, v1), leafDigest(k2, v2))
	if got != want {
		t.Errorf("root = %x, want %x", got, want)
	}
}

// S4 — the same two leaves pushed in the wrong order must fail the
// sibling/parity check in the H opcode.
func TestSwappedLeavesInvalidSibling(t *testing.T) {
	s := NewState(2)
	k1, k2 := Key{}, Key{}
	k2[0] = 0x01
	// Insert in reverse; Normalize still sorts ascending, so force the
	// wrong stack order directly against the raw, unsorted state.
	s.pairs = []Pair{{Key: k2, Value: valueOf(2)}, {Key: k1, Value: valueOf(1)}}
	s.len = 2
	s.capacity = 2

	proof := concat(opL(), opL(), opH(0))
	_, err := CalculateRoot(s, proof)
	if err != InvalidSibling {
		t.Fatalf("CalculateRoot(swapped) = %v, want InvalidSibling", err)
	}
}

// S5 — a proof truncated mid-operand must fail InvalidProof, not panic.
func TestTruncatedProofInvalidProof(t *testing.T) {
	s := NewState(1)
	s.Insert(Key{}, valueOf(1))
	s.Normalize()

	proof := concat(opL(), []byte{opPushSibling, 0}, bytes.Repeat([]byte{0}, 20))
	_, err := CalculateRoot(s, proof)
	if err != InvalidProof {
		t.Fatalf("CalculateRoot(truncated) = %v, want InvalidProof", err)
	}
}

// S6 — verify must reject a valid proof against a mismatched root.
func TestVerifyRootMismatch(t *testing.T) {
	s := NewState(1)
	k, v := Key{}, valueOf(0x01)
	s.Insert(k, v)
	s.Normalize()

	proof := concat(opL())
	for h := 0; h < 256; h++ {
		proof = append(proof, opP(byte(h), Digest{})...)
	}

	root, err := CalculateRoot(s, proof)
	if err != nil {
		t.Fatalf("CalculateRoot: %v", err)
	}
	bad := root
	bad[0] ^= 0xFF
	if err := Verify(bad, s, proof); err != InvalidProof {
		t.Errorf("Verify(mismatched root) = %v, want InvalidProof", err)
	}
	if err := Verify(root, s, proof); err != nil {
		t.Errorf("Verify(correct root) = %v, want nil", err)
	}
}

func TestMergeIdentity(t *testing.T) {
	var x Digest
	for i := range x {
		x[i] = byte(i + 1)
	}
	if got := merge(Digest{}, x); got != x {
		t.Errorf("merge(0, x) = %x, want %x", got, x)
	}
	if got := merge(x, Digest{}); got != x {
		t.Errorf("merge(x, 0) = %x, want %x", got, x)
	}
	var y Digest
	for i := range y {
		y[i] = byte(255 - i)
	}
	if got, want := merge(x, y), hashPair(x, y); got != want {
		t.Errorf("merge(x, y) = %x, want %x", got, want)
	}
}

func TestAbsenceProofOverEmptyTree(t *testing.T) {
	// A single absent leaf (zero value) hashes to the zero digest and
	// must absorb away entirely, yielding the all-zero empty-tree root.
	s := NewState(1)
	s.Insert(Key{}, Value{})
	s.Normalize()

	proof := concat(opL())
	for h := 0; h < 256; h++ {
		proof = append(proof, opP(byte(h), Digest{})...)
	}
	got, err := CalculateRoot(s, proof)
	if err != nil {
		t.Fatalf("CalculateRoot: %v", err)
	}
	if got != (Digest{}) {
		t.Errorf("root over absent leaf = %x, want all-zero", got)
	}
}

func TestTamperSingleBitNeverVerifiesOk(t *testing.T) {
	s := NewState(1)
	k, v := Key{}, valueOf(0x7A)
	s.Insert(k, v)
	s.Normalize()

	proof := concat(opL())
	for h := 0; h < 256; h++ {
		proof = append(proof, opP(byte(h), Digest{})...)
	}
	root, err := CalculateRoot(s, proof)
	if err != nil {
		t.Fatalf("CalculateRoot: %v", err)
	}

	// Flip one bit in the leaf value staged in the state and re-verify;
	// a tampered leaf must never re-validate against the original root.
	tampered := NewState(1)
	badValue := v
	badValue[0] ^= 0x01
	tampered.Insert(k, badValue)
	tampered.Normalize()
	if err := Verify(root, tampered, proof); err == nil {
		t.Errorf("Verify(tampered value) = nil, want an error")
	}
}

func TestStackNeverExceedsCapacity(t *testing.T) {
	// A proof that pushes more leaves than the stack can hold must fail
	// InvalidStack rather than grow past the 32-frame bound.
	n := stackSize + 1
	s := NewState(n)
	for i := 0; i < n; i++ {
		var k Key
		k[0] = byte(i)
		k[1] = byte(i >> 8)
		s.Insert(k, valueOf(byte(i+1)))
	}
	s.Normalize()
	proof := bytes.Repeat([]byte{opPushLeaf}, n)
	_, err := CalculateRoot(s, proof)
	if err != InvalidStack {
		t.Fatalf("CalculateRoot(overflow) = %v, want InvalidStack", err)
	}
}
