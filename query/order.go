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
	"strings"

	"github.com/tomoncle/querydsl/types"
	"github.com/uptrace/bun"
)

// Direction is the sort direction of an order key.
type Direction int

const (
	Asc Direction = iota
	Desc
)

var directions = types.EnumTable{
	{Name: "ASC", Desc: "ascending"},
	{Name: "DESC", Desc: "descending"},
}

var _ types.BaseEnum = Asc

func (d Direction) IsValid() bool  { return directions.Valid(int(d)) }
func (d Direction) Number() int    { return directions.Number(int(d)) }
func (d Direction) Name() string   { return directions.Name(int(d)) }
func (d Direction) String() string { return d.Name() }
func (d Direction) Desc() string   { return directions.Desc(int(d)) }

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(s string) (Direction, error) {
	n, ok := directions.Parse(strings.ToUpper(strings.TrimSpace(s)))
	if !ok {
		return Asc, fmt.Errorf("unknown sort direction %q", s)
	}
	return Direction(n), nil
}

// NullHandling places rows whose key is null. NullsDefault leaves it to
// the backend.
type NullHandling int

const (
	NullsDefault NullHandling = iota
	NullsFirst
	NullsLast
)

var nullHandlings = types.EnumTable{
	{Name: "DEFAULT", Desc: "backend default"},
	{Name: "NULLS FIRST", Desc: "nulls before values"},
	{Name: "NULLS LAST", Desc: "nulls after values"},
}

var _ types.BaseEnum = NullsDefault

func (n NullHandling) IsValid() bool  { return nullHandlings.Valid(int(n)) }
func (n NullHandling) Number() int    { return nullHandlings.Number(int(n)) }
func (n NullHandling) Name() string   { return nullHandlings.Name(int(n)) }
func (n NullHandling) String() string { return n.Name() }
func (n NullHandling) Desc() string   { return nullHandlings.Desc(int(n)) }

// OrderSpecifier is one sort key of a query over E.
type OrderSpecifier[E any] struct {
	column    string
	direction Direction
	nulls     NullHandling
}

func (o OrderSpecifier[E]) NullsFirst() OrderSpecifier[E] {
	o.nulls = NullsFirst
	return o
}

func (o OrderSpecifier[E]) NullsLast() OrderSpecifier[E] {
	o.nulls = NullsLast
	return o
}

func (o OrderSpecifier[E]) Column() string             { return o.column }
func (o OrderSpecifier[E]) Direction() Direction       { return o.direction }
func (o OrderSpecifier[E]) NullHandling() NullHandling { return o.nulls }

func (o OrderSpecifier[E]) String() string {
	s := o.column + " " + o.direction.Name()
	if o.nulls != NullsDefault {
		s += " " + o.nulls.Name()
	}
	return s
}

// apply appends the key to q. Null placement is emitted as a leading
// CASE key so it behaves alike on every dialect, including MySQL which
// lacks NULLS FIRST/LAST.
func (o OrderSpecifier[E]) apply(q *bun.SelectQuery) *bun.SelectQuery {
	col := bun.Ident(o.column)
	switch o.nulls {
	case NullsFirst:
		q = q.OrderExpr("CASE WHEN ? IS NULL THEN 0 ELSE 1 END ASC", col)
	case NullsLast:
		q = q.OrderExpr("CASE WHEN ? IS NULL THEN 1 ELSE 0 END ASC", col)
	}
	if o.direction == Desc {
		return q.OrderExpr("? DESC", col)
	}
	return q.OrderExpr("? ASC", col)
}
