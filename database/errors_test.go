/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   bool
		kind SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", fmt.Errorf("find: %w", sql.ErrNoRows), true, NoRowsErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, DuplicateKeyErr},
		{"mysql fk", &mysql.MySQLError{Number: 1452}, true, ForeignKeyViolationErr},
		{"mysql other", &mysql.MySQLError{Number: 1}, true, UnknownErr},
		{"postgres not null", &pq.Error{Code: "23502"}, true, NotNullViolationErr},
		{"postgres wrapped unique", fmt.Errorf("persist: %w", &pq.Error{Code: "23505"}), true, DuplicateKeyErr},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: team.name (2067)"), true, DuplicateKeyErr},
		{"sqlite fk", errors.New("FOREIGN KEY constraint failed"), true, ForeignKeyViolationErr},
		{"sqlite no table", errors.New("no such table: member"), true, NoTableErr},
		{"plain", errors.New("boom"), false, UnknownErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is, kind := IsSqlError(tt.err)
			assert.Equal(t, tt.is, is)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestIsConstraintViolation(t *testing.T) {
	assert.True(t, IsConstraintViolation(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsConstraintViolation(&pq.Error{Code: "23514"}))
	assert.True(t, IsConstraintViolation(errors.New("NOT NULL constraint failed: member.age")))
	assert.False(t, IsConstraintViolation(sql.ErrNoRows))
	assert.False(t, IsConstraintViolation(nil))
}

func TestSQLErrorString(t *testing.T) {
	assert.Equal(t, "duplicate_key", DuplicateKeyErr.String())
	assert.Equal(t, "unknown", SQLError(99).String())
}

func TestToFields(t *testing.T) {
	assert.Nil(t, toFields(nil))

	fields := toFields([]interface{}{"table", "member", "rows", 3, "dangling"})
	assert.Equal(t, "member", fields["table"])
	assert.Equal(t, 3, fields["rows"])
	assert.Equal(t, "dangling", fields["extra"])
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN(""))
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x?mode=memory", sqliteDSN("file:x?mode=memory"))
	assert.Equal(t, "data/app.db", sqliteDSN("data/app"))
}

func TestLookupDriver(t *testing.T) {
	pg, err := lookupDriver("postgresql")
	assert.NoError(t, err)
	assert.Equal(t, "postgres", pg.name)
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable&connect_timeout=0",
		pg.dsn(&ConnectionConfig{Username: "u", Password: "p", Host: "h", Port: 5432, DBName: "d"}))

	lite, err := lookupDriver("sqlite3")
	assert.NoError(t, err)
	assert.Equal(t, "file::memory:?cache=shared", lite.dsn(&ConnectionConfig{}))

	_, err = lookupDriver("oracle")
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("DB_RECONNECT_INTERVAL", "7")
	t.Setenv("DB_ENABLE_QUERY_LOG", "yes")

	cfg := DefaultConnectionConfig()
	overrideFromEnv(cfg)

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, "7s", cfg.ReconnectInterval.String())
	assert.True(t, cfg.EnableQueryLog)
}
