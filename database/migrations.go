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
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// MigrationManager creates the tables of registered models and their
// foreign keys, recording each applied step in the migrations table.
type MigrationManager struct {
	db     *bun.DB
	logger Logger
	config DataMigrateConfig
}

// Migration represents an applied migration record.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

func NewMigrationManager(db *bun.DB, logger Logger, cfg DataMigrateConfig) *MigrationManager {
	return &MigrationManager{db: db, logger: orNop(logger), config: cfg}
}

// RunMigrations executes every pending migration in ascending version order.
// Already recorded versions are skipped, so the call is idempotent.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		EnableSilentQueries(true)
		defer EnableSilentQueries(false)
	}

	if _, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := mm.migrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	for _, m := range migrations {
		if err := mm.runMigration(ctx, m); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}
	}

	mm.logger.Info("Database migrations completed")
	return nil
}

func (mm *MigrationManager) migrations() []MigrationItem {
	items := []MigrationItem{{
		Version:     "001",
		Name:        "create_entity_tables",
		Description: "Create tables for registered models",
		Up:          mm.createEntityTables,
	}}
	// sqlite cannot ALTER TABLE ADD CONSTRAINT; its keys are declared inline
	// by createEntityTables instead.
	if mm.config.EnableForeignKey && mm.db.Dialect().Name() != dialect.SQLite {
		items = append(items, MigrationItem{
			Version:     "002",
			Name:        "add_foreign_keys",
			Description: "Add foreign key constraints",
			Up:          mm.addForeignKeys,
		})
	}
	return items
}

func (mm *MigrationManager) runMigration(ctx context.Context, m MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", m.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := m.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&Migration{
			Version:     m.Version,
			Name:        m.Name,
			AppliedAt:   time.Now(),
			Description: m.Description,
		}).Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	mm.logger.Info("Migration applied", "version", m.Version, "name", m.Name)
	return nil
}

func (mm *MigrationManager) createEntityTables(ctx context.Context, db bun.IDB) error {
	inlineFK := mm.config.EnableForeignKey && db.Dialect().Name() == dialect.SQLite
	for _, model := range RegisteredModelInstances() {
		q := db.NewCreateTable().Model(model).IfNotExists()
		if inlineFK {
			q = q.WithForeignKeys()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

func (mm *MigrationManager) addForeignKeys(ctx context.Context, db bun.IDB) error {
	fkm := NewForeignKeyManager(mm.logger)
	if path := mm.config.ForeignKeyFile; path != "" {
		fromFile, err := NewForeignKeyManagerFromFile(mm.logger, path)
		if err != nil {
			mm.logger.Warn("Falling back to code-defined foreign keys", "file", path, "error", err)
		} else {
			fkm = fromFile
		}
	}
	if errs := fkm.Validate(); len(errs) > 0 {
		for _, err := range errs {
			mm.logger.Error("Invalid foreign key constraint", "error", err)
		}
		return fmt.Errorf("foreign key validation failed, %d errors in total", len(errs))
	}
	applied := fkm.Apply(ctx, db)
	mm.logger.Debug("Foreign key constraints applied", "applied", applied, "total", len(fkm.Constraints()))
	return nil
}

// AppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) AppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}
