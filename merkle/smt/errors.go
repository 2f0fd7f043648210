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

import "fmt"

// Code is one of the verifier's stable integer error identifiers. Zero is
// reserved for success and is never returned as an error.
type Code int

// The five error codes the verifier can produce, matching the original
// C implementation's enum values exactly so callers that persist or compare
// the integer codes across language boundaries keep working.
const (
	InsufficientCapacity Code = 80
	NotFound             Code = 81
	InvalidStack         Code = 82
	InvalidSibling       Code = 83
	InvalidProof         Code = 84
)

func (c Code) String() string {
	switch c {
	case InsufficientCapacity:
		return "InsufficientCapacity"
	case NotFound:
		return "NotFound"
	case InvalidStack:
		return "InvalidStack"
	case InvalidSibling:
		return "InvalidSibling"
	case InvalidProof:
		return "InvalidProof"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error implements the error interface directly on Code so a Code value can
// be returned, compared with errors.Is, and printed without a wrapper type.
func (c Code) Error() string {
	return c.String()
}
