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
	"context"
	"fmt"

	"github.com/tomoncle/querydsl/types"
)

// Fetch returns every matching row in query order. The result is never nil.
func (q Query[E]) Fetch(ctx context.Context) ([]*E, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}
	return q.fetch(ctx, "fetch", q.limit, q.limited)
}

// FetchFirst returns the first row in query order, or nil when none match.
func (q Query[E]) FetchFirst(ctx context.Context) (*E, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}
	limit := 1
	if q.limited {
		limit = min(limit, q.limit)
	}
	rows, err := q.fetch(ctx, "fetchFirst", limit, true)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// FetchOne returns the single matching row, nil when none match, or
// ErrTooManyResults when more than one does.
func (q Query[E]) FetchOne(ctx context.Context) (*E, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}
	// Two rows are enough to tell "one" from "many".
	limit := 2
	if q.limited {
		limit = min(limit, q.limit)
	}
	rows, err := q.fetch(ctx, "fetchOne", limit, true)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrTooManyResults, q.entity)
	}
}

// FetchCount returns the number of rows matching the conditions,
// ignoring ordering and paging.
func (q Query[E]) FetchCount(ctx context.Context) (int, error) {
	if err := q.Err(); err != nil {
		return 0, err
	}
	q.debug("fetchCount")
	return q.filtered((*E)(nil)).Count(ctx)
}

// FetchResults returns one window of rows together with the total count.
// The count and the window are read by separate statements.
func (q Query[E]) FetchResults(ctx context.Context) (*types.QueryResults[E], error) {
	if err := q.Err(); err != nil {
		return nil, err
	}
	results := types.NewQueryResults[E](q.limit, q.offset)

	total, err := q.FetchCount(ctx)
	if err != nil {
		return nil, err
	}
	results.Total = total
	if total == 0 {
		return results, nil
	}

	rows, err := q.fetch(ctx, "fetchResults", q.limit, q.limited)
	if err != nil {
		return nil, err
	}
	results.Results = rows
	return results, nil
}

func (q Query[E]) fetch(ctx context.Context, op string, limit int, limited bool) ([]*E, error) {
	rows := make([]*E, 0)
	if limited && limit == 0 {
		return rows, nil
	}
	q.debug(op)
	if err := q.selectRows(&rows, limit, limited).Scan(ctx); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = make([]*E, 0)
	}
	return rows, nil
}

func (q Query[E]) debug(op string) {
	if q.factory.logger == nil {
		return
	}
	q.factory.logger.Debug("Executing query",
		"op", op,
		"entity", q.entity.String(),
		"where", q.where.expr,
		"offset", q.offset,
		"limit", q.limit,
	)
}
