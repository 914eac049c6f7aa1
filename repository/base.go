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

package repository

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/tomoncle/querydsl/query"
	"github.com/tomoncle/querydsl/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db      bun.IDB
	path    query.EntityPath[T]
	factory *query.Factory
}

// NewRepository returns a generic repository backed by db, which may be a
// *bun.DB or a bun.Tx. path is the typed root used by Query.
func NewRepository[T any](db bun.IDB, path query.EntityPath[T]) Repository[T] {
	return &baseRepositoryImpl[T]{db: db, path: path, factory: query.NewFactory(db)}
}

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) Factory() *query.Factory { return r.factory }

func (r *baseRepositoryImpl[T]) Query() query.Query[T] {
	return query.SelectFrom(r.factory, r.path)
}

// pk returns the name of the first primary key column of T.
func (r *baseRepositoryImpl[T]) pk() (string, error) {
	table := r.db.Dialect().Tables().Get(reflect.TypeFor[T]())
	if table == nil || len(table.PKs) == 0 {
		return "", fmt.Errorf("model %T has no primary key", *new(T))
	}
	return table.PKs[0].Name, nil
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, id any) (*T, error) {
	pk, err := r.pk()
	if err != nil {
		return nil, err
	}
	entity := new(T)
	if err := r.db.NewSelect().Model(entity).Where("? = ?", bun.Ident(pk), id).Scan(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) FindAll(ctx context.Context) ([]*T, error) {
	return r.Query().Fetch(ctx)
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	if filter == nil {
		return r.FindAll(ctx)
	}
	return r.Where(ctx, filter.Schema, filter.Args...)
}

func (r *baseRepositoryImpl[T]) Where(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	entities := make([]*T, 0)
	if err := r.db.NewSelect().Model(&entities).Where(query, args...).Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context) (int, error) {
	return r.Query().FetchCount(ctx)
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, offset, limit int) (*types.QueryResults[T], error) {
	return r.Query().Offset(offset).Limit(limit).FetchResults(ctx)
}

func (r *baseRepositoryImpl[T]) Persist(ctx context.Context, entity ...*T) error {
	return r.persist(ctx, r.db, entity)
}

func (r *baseRepositoryImpl[T]) persist(ctx context.Context, db bun.IDB, entities []*T) error {
	switch len(entities) {
	case 0:
		return nil
	case 1:
		_, err := db.NewInsert().Model(entities[0]).Exec(ctx)
		return err
	}
	// one row per statement so every dialect reports generated keys back;
	// the batch still commits or fails as a whole, nested in a savepoint
	// when db is already a transaction
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, entity := range entities {
			if _, err := tx.NewInsert().Model(entity).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, r.db, fields, duplicateKeys, entity)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) error {
	_, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) error {
	return r.delete(ctx, r.db, id)
}

func (r *baseRepositoryImpl[T]) delete(ctx context.Context, db bun.IDB, id any) error {
	pk, err := r.pk()
	if err != nil {
		return err
	}
	_, err = db.NewDelete().Model((*T)(nil)).Where("? = ?", bun.Ident(pk), id).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) PersistWithTx(ctx context.Context, tx *bun.Tx, entity ...*T) error {
	return r.persist(ctx, tx, entity)
}

func (r *baseRepositoryImpl[T]) UpsertWithTx(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, tx, fields, duplicateKeys, entity)
}

func (r *baseRepositoryImpl[T]) UpdateWithTx(ctx context.Context, tx *bun.Tx, entity *T) error {
	_, err := tx.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) error {
	return r.delete(ctx, tx, id)
}

// RunInTx runs fn in a transaction that commits when fn returns nil and
// rolls back otherwise.
func (r *baseRepositoryImpl[T]) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, nil, fn)
}

func (r *baseRepositoryImpl[T]) multipleUpsert(ctx context.Context, db bun.IDB, fields []string, duplicateKeys []string, entities []*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	if len(entities) == 0 {
		return nil
	}

	features := r.db.Dialect().Features()
	switch {
	case features.Has(feature.InsertOnConflict):
		if len(duplicateKeys) == 0 {
			pk, err := r.pk()
			if err != nil {
				return err
			}
			duplicateKeys = []string{pk}
		}
		return r.upsertOnConflict(ctx, db.NewInsert(), fields, duplicateKeys, entities)
	case features.Has(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, db.NewInsert(), fields, entities)
	default:
		return r.upsertFallback(ctx, db, entities)
	}
}

func (r *baseRepositoryImpl[T]) upsertOnDuplicateKey(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, entities []*T) error {
	var sets []string
	for _, field := range fields {
		sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", field, field))
	}
	_, err := insertQuery.
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, duplicateKeys []string, entities []*T) error {
	var sets []string
	for _, field := range fields {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", field, field))
	}
	_, err := insertQuery.
		Model(&entities).
		On("CONFLICT (" + strings.Join(duplicateKeys, ", ") + ") DO UPDATE").
		Set(strings.Join(sets, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, db bun.IDB, entities []*T) error {
	for _, entity := range entities {
		if _, err := db.NewInsert().Model(entity).Exec(ctx); err != nil {
			if _, updateErr := db.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
				return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %w", err, updateErr)
			}
		}
	}
	return nil
}
