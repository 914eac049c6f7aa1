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

	"github.com/uptrace/bun"
)

// EntityPath is the root of the typed paths of entity E. Alias must match
// the alias declared in E's bun table tag.
type EntityPath[E any] struct {
	alias string
}

func NewEntityPath[E any](alias string) EntityPath[E] {
	return EntityPath[E]{alias: alias}
}

func (e EntityPath[E]) Alias() string {
	return e.alias
}

func (e EntityPath[E]) String() string {
	var zero E
	return fmt.Sprintf("%T as %s", zero, e.alias)
}

// Relation names an association of E that FetchJoin can load eagerly.
type Relation[E any] struct {
	name string
}

// NewRelation takes the Go field name of the bun relation, e.g. "Team".
func NewRelation[E any](name string) Relation[E] {
	return Relation[E]{name: name}
}

func (r Relation[E]) Name() string {
	return r.name
}

// Path is a typed handle to column of entity E holding values of type V.
type Path[E any, V any] struct {
	entity EntityPath[E]
	column string
}

func NewPath[E any, V any](entity EntityPath[E], column string) Path[E, V] {
	return Path[E, V]{entity: entity, column: column}
}

func (p Path[E, V]) Column() string {
	return p.column
}

// Qualified returns the column prefixed with the entity alias.
func (p Path[E, V]) Qualified() string {
	return p.entity.alias + "." + p.column
}

func (p Path[E, V]) ident() bun.Ident {
	return bun.Ident(p.Qualified())
}

func (p Path[E, V]) compare(op string, value V) Predicate[E] {
	return newPredicate[E]("? "+op+" ?", p.ident(), value)
}

func (p Path[E, V]) Eq(value V) Predicate[E] {
	return p.compare("=", value)
}

// EqOpt compares against an optional operand. A nil operand yields an
// invalid predicate; use IsNull to match missing values.
func (p Path[E, V]) EqOpt(value *V) Predicate[E] {
	if value == nil {
		return invalidPredicate[E](fmt.Errorf("%w: %s = null, use IsNull", ErrInvalidPredicate, p.Qualified()))
	}
	return p.Eq(*value)
}

func (p Path[E, V]) Ne(value V) Predicate[E] {
	return p.compare("<>", value)
}

// In matches any of values. An empty list matches no row.
func (p Path[E, V]) In(values ...V) Predicate[E] {
	if len(values) == 0 {
		return newPredicate[E]("1 = 0")
	}
	return newPredicate[E]("? IN (?)", p.ident(), bun.In(values))
}

// NotIn excludes values. An empty list adds no condition.
func (p Path[E, V]) NotIn(values ...V) Predicate[E] {
	if len(values) == 0 {
		return Predicate[E]{}
	}
	return newPredicate[E]("? NOT IN (?)", p.ident(), bun.In(values))
}

func (p Path[E, V]) IsNull() Predicate[E] {
	return newPredicate[E]("? IS NULL", p.ident())
}

func (p Path[E, V]) IsNotNull() Predicate[E] {
	return newPredicate[E]("? IS NOT NULL", p.ident())
}

func (p Path[E, V]) Asc() OrderSpecifier[E] {
	return OrderSpecifier[E]{column: p.Qualified(), direction: Asc}
}

func (p Path[E, V]) Desc() OrderSpecifier[E] {
	return OrderSpecifier[E]{column: p.Qualified(), direction: Desc}
}

// Number is the set of value types NumberPath accepts.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// NumberPath adds range comparisons to a numeric column.
type NumberPath[E any, V Number] struct {
	Path[E, V]
}

func NewNumberPath[E any, V Number](entity EntityPath[E], column string) NumberPath[E, V] {
	return NumberPath[E, V]{Path: NewPath[E, V](entity, column)}
}

func (p NumberPath[E, V]) Gt(value V) Predicate[E] {
	return p.compare(">", value)
}

func (p NumberPath[E, V]) Goe(value V) Predicate[E] {
	return p.compare(">=", value)
}

func (p NumberPath[E, V]) Lt(value V) Predicate[E] {
	return p.compare("<", value)
}

func (p NumberPath[E, V]) Loe(value V) Predicate[E] {
	return p.compare("<=", value)
}

// Between is inclusive on both ends.
func (p NumberPath[E, V]) Between(from, to V) Predicate[E] {
	return newPredicate[E]("? BETWEEN ? AND ?", p.ident(), from, to)
}

// StringPath adds pattern matching to a text column.
type StringPath[E any] struct {
	Path[E, string]
}

func NewStringPath[E any](entity EntityPath[E], column string) StringPath[E] {
	return StringPath[E]{Path: NewPath[E, string](entity, column)}
}

// Like matches a raw pattern where % and _ keep their wildcard meaning.
func (p StringPath[E]) Like(pattern string) Predicate[E] {
	return newPredicate[E]("? LIKE ?", p.ident(), pattern)
}

func (p StringPath[E]) StartsWith(prefix string) Predicate[E] {
	return p.likeEscaped(escapeLike(prefix) + "%")
}

func (p StringPath[E]) Contains(s string) Predicate[E] {
	return p.likeEscaped("%" + escapeLike(s) + "%")
}

func (p StringPath[E]) likeEscaped(pattern string) Predicate[E] {
	return newPredicate[E]("? LIKE ? ESCAPE '!'", p.ident(), pattern)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
