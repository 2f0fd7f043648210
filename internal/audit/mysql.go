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
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore persists audit records to a single table, the same role
// MySQL plays as one of trillian's two production tree-storage backends.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool against dsn. The table is assumed
// to already exist:
//
//	CREATE TABLE verify_audit (
//	  root        BINARY(32) NOT NULL,
//	  code        SMALLINT NOT NULL,
//	  checked_at  DATETIME NOT NULL,
//	  caller      VARCHAR(255) NOT NULL
//	);
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: opening mysql: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: pinging mysql: %w", err)
	}
	return &MySQLStore{db: db}, nil
}

// Record implements Store.
func (s *MySQLStore) Record(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO verify_audit (root, code, checked_at, caller) VALUES (?, ?, ?, ?)`,
		r.Root[:], int(r.Code), r.CheckedAt, r.Caller)
	if err != nil {
		return fmt.Errorf("audit: mysql insert: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
