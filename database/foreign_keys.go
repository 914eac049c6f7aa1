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
	"path/filepath"
	"strings"
	"sync"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

// ForeignKeyConstraint describes a foreign key relationship between tables.
type ForeignKeyConstraint struct {
	Table           string `yaml:"table"`
	Column          string `yaml:"column"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	OnDelete        string `yaml:"on_delete,omitempty"` // CASCADE, RESTRICT, SET NULL, NO ACTION
	OnUpdate        string `yaml:"on_update,omitempty"`
	ConstraintName  string `yaml:"constraint_name,omitempty"`
}

// ForeignKeyConfig is the YAML document listing foreign key constraints.
type ForeignKeyConfig struct {
	ForeignKeys []ForeignKeyConstraint `yaml:"foreign_keys"`
}

var (
	codeConstraintsMu sync.RWMutex
	codeConstraints   []ForeignKeyConstraint
)

// RegisterForeignKey adds a code-defined constraint, used when no YAML file
// is configured.
func RegisterForeignKey(fk ForeignKeyConstraint) {
	codeConstraintsMu.Lock()
	defer codeConstraintsMu.Unlock()
	codeConstraints = append(codeConstraints, fk)
}

func registeredForeignKeys() []ForeignKeyConstraint {
	codeConstraintsMu.RLock()
	defer codeConstraintsMu.RUnlock()
	out := make([]ForeignKeyConstraint, len(codeConstraints))
	copy(out, codeConstraints)
	return out
}

// Name returns the explicit constraint name or "fk_<table>_<column>".
func (fk *ForeignKeyConstraint) Name() string {
	if fk.ConstraintName != "" {
		return fk.ConstraintName
	}
	return fmt.Sprintf("fk_%s_%s", fk.Table, fk.Column)
}

// AppendSQL renders the ALTER TABLE statement using the dialect's quoting.
func (fk *ForeignKeyConstraint) AppendSQL(db bun.IDB) string {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdent(db, fk.Table), quoteIdent(db, fk.Name()), quoteIdent(db, fk.Column),
		quoteIdent(db, fk.ReferenceTable), quoteIdent(db, fk.ReferenceColumn))
	if fk.OnDelete != "" {
		stmt += " ON DELETE " + strings.ToUpper(fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		stmt += " ON UPDATE " + strings.ToUpper(fk.OnUpdate)
	}
	return stmt
}

func quoteIdent(db bun.IDB, ident string) string {
	q := string(db.Dialect().IdentQuote())
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// ForeignKeyManager validates and applies foreign key constraints.
type ForeignKeyManager struct {
	constraints []ForeignKeyConstraint
	logger      Logger
}

// NewForeignKeyManager uses the code-registered constraints.
func NewForeignKeyManager(logger Logger) *ForeignKeyManager {
	return &ForeignKeyManager{constraints: registeredForeignKeys(), logger: orNop(logger)}
}

// NewForeignKeyManagerFromFile loads constraints from a YAML file.
func NewForeignKeyManagerFromFile(logger Logger, path string) (*ForeignKeyManager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign key file: %w", err)
	}
	var cfg ForeignKeyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse foreign key file: %w", err)
	}
	return &ForeignKeyManager{constraints: cfg.ForeignKeys, logger: orNop(logger)}, nil
}

// Constraints returns the managed constraints.
func (fkm *ForeignKeyManager) Constraints() []ForeignKeyConstraint {
	return fkm.constraints
}

// ConstraintsOf returns the constraints declared on table.
func (fkm *ForeignKeyManager) ConstraintsOf(table string) []ForeignKeyConstraint {
	var result []ForeignKeyConstraint
	for _, c := range fkm.constraints {
		if strings.EqualFold(c.Table, table) {
			result = append(result, c)
		}
	}
	return result
}

var validReferentialActions = []string{"CASCADE", "RESTRICT", "SET NULL", "NO ACTION"}

func validAction(action string) bool {
	if action == "" {
		return true
	}
	for _, a := range validReferentialActions {
		if strings.EqualFold(action, a) {
			return true
		}
	}
	return false
}

// Validate checks the constraints for missing names and unknown actions.
func (fkm *ForeignKeyManager) Validate() []error {
	var errs []error
	for _, c := range fkm.constraints {
		switch {
		case c.Table == "":
			errs = append(errs, fmt.Errorf("table name cannot be empty"))
			continue
		case c.Column == "":
			errs = append(errs, fmt.Errorf("column name cannot be empty: %s", c.Table))
		case c.ReferenceTable == "" || c.ReferenceColumn == "":
			errs = append(errs, fmt.Errorf("reference cannot be empty: %s.%s", c.Table, c.Column))
		}
		if !validAction(c.OnDelete) {
			errs = append(errs, fmt.Errorf("invalid delete policy %q on %s", c.OnDelete, c.Name()))
		}
		if !validAction(c.OnUpdate) {
			errs = append(errs, fmt.Errorf("invalid update policy %q on %s", c.OnUpdate, c.Name()))
		}
	}
	return errs
}

// Apply adds every constraint. Failures are logged and skipped so an
// already existing constraint does not abort the migration.
func (fkm *ForeignKeyManager) Apply(ctx context.Context, db bun.IDB) int {
	applied := 0
	for _, c := range fkm.constraints {
		if _, err := db.ExecContext(ctx, c.AppendSQL(db)); err != nil {
			fkm.logger.Debug("Failed to add foreign key constraint", "constraint", c.Name(), "error", err)
			continue
		}
		applied++
		fkm.logger.Debug("Added foreign key constraint", "constraint", c.Name())
	}
	return applied
}

// Export writes the constraints to a YAML file, creating directories as needed.
func (fkm *ForeignKeyManager) Export(path string) error {
	data, err := yaml.Marshal(&ForeignKeyConfig{ForeignKeys: fkm.constraints})
	if err != nil {
		return fmt.Errorf("failed to serialize foreign keys: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write foreign key file: %w", err)
	}
	return nil
}
