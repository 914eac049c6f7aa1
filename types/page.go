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

package types

// QueryFilter describes a raw WHERE clause and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// QueryResults is one window of a result set together with the total
// number of rows matching the filter. Limit is zero when the query was
// unbounded.
type QueryResults[T any] struct {
	Results []*T `json:"results"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
}

// NewQueryResults returns an empty window with the given bounds.
func NewQueryResults[T any](limit, offset int) *QueryResults[T] {
	return &QueryResults[T]{Results: make([]*T, 0), Limit: limit, Offset: offset}
}

// IsEmpty reports whether the window holds no rows.
func (r *QueryResults[T]) IsEmpty() bool {
	return len(r.Results) == 0
}

// HasMore reports whether rows exist beyond the window.
func (r *QueryResults[T]) HasMore() bool {
	return r.Offset+len(r.Results) < r.Total
}
