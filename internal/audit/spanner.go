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

package audit

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
)

// SpannerStore persists audit records to Cloud Spanner, trillian's other
// production tree-storage backend alongside MySQL.
type SpannerStore struct {
	client *spanner.Client
	table  string
}

// NewSpannerStore dials the given Spanner database
// ("projects/P/instances/I/databases/D"). The table is assumed to already
// exist with columns (Root STRING(64), Code INT64, CheckedAt TIMESTAMP,
// Caller STRING(MAX)), Root keyed as a hex string.
func NewSpannerStore(ctx context.Context, db, table string) (*SpannerStore, error) {
	client, err := spanner.NewClient(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("audit: dialing spanner: %w", err)
	}
	return &SpannerStore{client: client, table: table}, nil
}

// Record implements Store.
func (s *SpannerStore) Record(ctx context.Context, r Record) error {
	m := spanner.InsertOrUpdateMap(s.table, map[string]interface{}{
		"Root":      fmt.Sprintf("%x", r.Root),
		"Code":      int64(r.Code),
		"CheckedAt": r.CheckedAt,
		"Caller":    r.Caller,
	})
	if _, err := s.client.Apply(ctx, []*spanner.Mutation{m}); err != nil {
		return fmt.Errorf("audit: spanner apply: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SpannerStore) Close() error {
	s.client.Close()
	return nil
}
