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

// Proof opcodes. No length prefix: the byte string is framed entirely by
// opcode arity.
const (
	opPushLeaf    byte = 0x4C // 'L': push the next staged leaf. Operand: none.
	opPushSibling byte = 0x50 // 'P': absorb a sibling digest. Operand: height, sibling[32].
	opMergeTop    byte = 0x48 // 'H': merge the top two frames. Operand: height.
)

// frame is one (subtree path, digest) entry on the evaluation stack. key
// denotes the path of the subtree digest represents; bits below the
// frame's current height are zero.
type frame struct {
	key    Key
	digest Digest
}

// CalculateRoot executes proof against state's normalized leaves and
// returns the reconstructed root. state must already be normalized
// (Normalize called) in the order the proof was generated against.
func CalculateRoot(state *State, proof []byte) (Digest, error) {
	var stack [stackSize]frame
	stackTop := 0
	leafIndex := 0
	proofIndex := 0

	for proofIndex < len(proof) {
		op := proof[proofIndex]
		proofIndex++

		switch op {
		case opPushLeaf:
			if stackTop >= stackSize {
				return Digest{}, InvalidStack
			}
			if leafIndex >= state.len {
				return Digest{}, InvalidProof
			}
			p := state.pairs[leafIndex]
			stack[stackTop] = frame{key: p.Key, digest: leafDigest(p.Key, p.Value)}
			stackTop++
			leafIndex++

		case opPushSibling:
			if stackTop == 0 {
				return Digest{}, InvalidStack
			}
			if proofIndex+33 > len(proof) {
				return Digest{}, InvalidProof
			}
			height := int(proof[proofIndex])
			proofIndex++
			var sibling Digest
			copy(sibling[:], proof[proofIndex:proofIndex+32])
			proofIndex += 32

			f := &stack[stackTop-1]
			if f.key.bit(height) == 1 {
				f.digest = merge(sibling, f.digest)
			} else {
				f.digest = merge(f.digest, sibling)
			}
			f.key.parentPath(height)

		case opMergeTop:
			if stackTop < 2 {
				return Digest{}, InvalidStack
			}
			if proofIndex >= len(proof) {
				return Digest{}, InvalidProof
			}
			height := int(proof[proofIndex])
			proofIndex++

			a := stack[stackTop-2]
			b := stack[stackTop-1]
			stackTop -= 2

			aBit := a.key.bit(height)
			bBit := b.key.bit(height)
			a.key.copyBits(height)
			b.key.copyBits(height)

			expectedSibling := a.key
			if aBit == 0 {
				expectedSibling.setBit(height)
			}
			if expectedSibling != b.key || aBit == bBit {
				return Digest{}, InvalidSibling
			}

			var merged Digest
			if aBit == 1 {
				merged = merge(b.digest, a.digest)
			} else {
				merged = merge(a.digest, b.digest)
			}
			// a.key already represents the parent path: its low height+1
			// bits are zero since the two siblings differ only at height.
			stack[stackTop] = frame{key: a.key, digest: merged}
			stackTop++

		default:
			return Digest{}, InvalidProof
		}
	}

	if leafIndex != state.len {
		return Digest{}, InvalidProof
	}
	if stackTop != 1 {
		return Digest{}, InvalidStack
	}
	return stack[0].digest, nil
}

// Verify recomputes the root from state and proof and compares it against
// expected. Roots are public, so no constant-time comparison is required.
func Verify(expected Digest, state *State, proof []byte) error {
	got, err := CalculateRoot(state, proof)
	if err != nil {
		return err
	}
	if got != expected {
		return InvalidProof
	}
	return nil
}
