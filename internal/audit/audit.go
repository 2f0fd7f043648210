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

// Package audit records the outcome of verifier calls against a pluggable
// backing store, the way trillian's own tree storage is pluggable across
// MySQL and Cloud Spanner. The verifier engine itself never depends on
// this package; it is wired in by the HTTP service and cmd/smtverify.
package audit

import (
	"context"
	"time"

	"github.com/google/smtverify/merkle/smt"
)

// Record is one verification attempt worth persisting.
type Record struct {
	Root      smt.Digest
	Code      smt.Code // zero means success
	CheckedAt time.Time
	Caller    string // free-form tag identifying the requester
}

// Store records verification attempts. Implementations must be safe for
// concurrent use; internal/service calls Record from concurrent HTTP
// handlers.
type Store interface {
	Record(ctx context.Context, r Record) error
	Close() error
}

// Nop is a Store that discards every record, used when no audit backend is
// configured.
type Nop struct{}

// Record implements Store.
func (Nop) Record(context.Context, Record) error { return nil }

// Close implements Store.
func (Nop) Close() error { return nil }
