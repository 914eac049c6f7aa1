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

// Package testdb opens private in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/querydsl/database"
	_ "github.com/tomoncle/querydsl/entity"
	"github.com/uptrace/bun"
)

// Config returns a migrated in-memory SQLite config with a database name
// unique to the call. The pool keeps exactly one connection open, since an
// in-memory database vanishes with its last connection.
func Config() *database.Config {
	return &database.Config{
		ConnectionConfig: database.ConnectionConfig{
			Type:           "sqlite",
			DBName:         fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
			MaxIdleConns:   1,
			MaxOpenConns:   1,
			ConnectTimeout: 5 * time.Second,
		},
		DataMigrateConfig: database.DataMigrateConfig{
			EnableMigrateOnStartup: true,
			EnableForeignKey:       true,
		},
	}
}

// Open returns a fresh database with the entity tables created. It is
// closed when t finishes.
func Open(t testing.TB) *bun.DB {
	t.Helper()
	factory, err := database.Open(context.Background(), Config())
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })
	return factory.GetDB()
}
