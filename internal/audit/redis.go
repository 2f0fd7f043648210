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
	"time"

	"github.com/go-redis/redis"
)

// RedisStore is a third audit backend and doubles as a dedup cache: a
// root already recorded within dedupTTL of a prior call is skipped, since
// repeated verification of the same root by a flapping client is not
// worth a new row.
type RedisStore struct {
	client  *redis.Client
	dedup   time.Duration
	keySpan string
}

// NewRedisStore connects to addr (host:port) and applies dedupTTL to the
// SETNX-based skip check. A zero dedupTTL disables deduplication.
func NewRedisStore(addr string, dedupTTL time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping().Err(); err != nil {
		return nil, fmt.Errorf("audit: connecting to redis: %w", err)
	}
	return &RedisStore{client: client, dedup: dedupTTL, keySpan: "smtverify:audit:"}, nil
}

// Record implements Store. It is a no-op (but not an error) when the root
// was already recorded within the dedup window.
func (s *RedisStore) Record(_ context.Context, r Record) error {
	key := s.keySpan + fmt.Sprintf("%x", r.Root)
	if s.dedup > 0 {
		ok, err := s.client.SetNX(key, 1, s.dedup).Result()
		if err != nil {
			return fmt.Errorf("audit: redis setnx: %w", err)
		}
		if !ok {
			return nil // already recorded recently
		}
	}
	entry := fmt.Sprintf("%d@%s by %s", r.Code, r.CheckedAt.Format(time.RFC3339), r.Caller)
	if err := s.client.Set(key+":last", entry, 0).Err(); err != nil {
		return fmt.Errorf("audit: redis set: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
