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

package query

import (
	"fmt"
	"math"
	"slices"

	"github.com/tomoncle/querydsl/database"
	"github.com/uptrace/bun"
)

// Factory starts typed queries against a bun database or transaction.
// It is safe for concurrent use.
type Factory struct {
	db     bun.IDB
	logger database.Logger
}

// NewFactory returns a factory logging through the database logger.
func NewFactory(db bun.IDB) *Factory {
	return &Factory{db: db, logger: database.GetLogger()}
}

// WithLogger returns a copy of f that logs through logger.
func (f *Factory) WithLogger(logger database.Logger) *Factory {
	return &Factory{db: f.db, logger: logger}
}

// WithTx returns a copy of f whose queries run inside tx.
func (f *Factory) WithTx(tx bun.Tx) *Factory {
	return &Factory{db: tx, logger: f.logger}
}

func (f *Factory) DB() bun.IDB {
	return f.db
}

// Projection is the select clause of a query that still needs its source.
type Projection[E any] struct {
	factory *Factory
	target  EntityPath[E]
}

// Select starts a query projecting target.
func Select[E any](f *Factory, target EntityPath[E]) Projection[E] {
	return Projection[E]{factory: f, target: target}
}

// From completes the projection with its source entity.
func (p Projection[E]) From(src EntityPath[E]) Query[E] {
	return Query[E]{factory: p.factory, entity: src}
}

// SelectFrom starts a query selecting whole rows of src.
func SelectFrom[E any](f *Factory, src EntityPath[E]) Query[E] {
	return Select(f, src).From(src)
}

// Query is an immutable draft of a select over E. Every builder method
// returns a new value, so a draft can be branched and reused freely; it is
// turned into a statement only by a terminal Fetch call.
type Query[E any] struct {
	factory *Factory
	entity  EntityPath[E]
	where   Predicate[E]
	orders  []OrderSpecifier[E]
	joins   []string
	offset  int
	limit   int
	limited bool
	err     error
}

// Where adds conditions; several predicates in one call, or several calls,
// are joined with AND. Zero predicates are ignored.
func (q Query[E]) Where(preds ...Predicate[E]) Query[E] {
	q.where = AllOf(append([]Predicate[E]{q.where}, preds...)...)
	return q
}

// OrderBy appends sort keys; earlier keys take precedence.
func (q Query[E]) OrderBy(orders ...OrderSpecifier[E]) Query[E] {
	q.orders = slices.Concat(q.orders, orders)
	return q
}

func (q Query[E]) Offset(n int) Query[E] {
	if n < 0 {
		q.err = fmt.Errorf("%w: offset %d", ErrInvalidPaging, n)
		return q
	}
	q.offset = n
	return q
}

// Limit caps the number of rows. Limit(0) fetches nothing.
func (q Query[E]) Limit(n int) Query[E] {
	if n < 0 {
		q.err = fmt.Errorf("%w: limit %d", ErrInvalidPaging, n)
		return q
	}
	q.limit = n
	q.limited = true
	return q
}

// FetchJoin loads rel together with the rows instead of leaving it unset.
func (q Query[E]) FetchJoin(rel Relation[E]) Query[E] {
	if slices.Contains(q.joins, rel.name) {
		return q
	}
	q.joins = slices.Concat(q.joins, []string{rel.name})
	return q
}

// Entity returns the source of q.
func (q Query[E]) Entity() EntityPath[E] {
	return q.entity
}

// Err reports the first builder error, including invalid predicates.
func (q Query[E]) Err() error {
	if q.err != nil {
		return q.err
	}
	return q.where.err
}

// String renders the row statement q would execute.
func (q Query[E]) String() string {
	if err := q.Err(); err != nil {
		return "invalid query: " + err.Error()
	}
	return q.selectRows((*E)(nil), q.limit, q.limited).String()
}

func (q Query[E]) filtered(model interface{}) *bun.SelectQuery {
	sq := q.factory.db.NewSelect().Model(model)
	if !q.where.IsZero() {
		sq = sq.Where(q.where.expr, q.where.args...)
	}
	return sq
}

func (q Query[E]) selectRows(model interface{}, limit int, limited bool) *bun.SelectQuery {
	sq := q.filtered(model)
	for _, rel := range q.joins {
		sq = sq.Relation(rel)
	}
	for _, o := range q.orders {
		sq = o.apply(sq)
	}
	switch {
	case limited:
		sq = sq.Limit(limit)
	case q.offset > 0:
		// MySQL and SQLite reject OFFSET without LIMIT.
		sq = sq.Limit(math.MaxInt32)
	}
	if q.offset > 0 {
		sq = sq.Offset(q.offset)
	}
	return sq
}
