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
	"errors"
	"fmt"
	"slices"
)

// Predicate is a boolean condition over entity E. It is an immutable value:
// combinators return new predicates and never touch their operands.
//
// The zero Predicate means "no condition" and is dropped by And, Or and
// Query.Where.
type Predicate[E any] struct {
	expr string
	args []interface{}
	err  error
}

func newPredicate[E any](expr string, args ...interface{}) Predicate[E] {
	return Predicate[E]{expr: expr, args: args}
}

func invalidPredicate[E any](err error) Predicate[E] {
	return Predicate[E]{err: err}
}

// IsZero reports whether p adds no condition.
func (p Predicate[E]) IsZero() bool {
	return p.expr == "" && p.err == nil
}

// Err returns the reason p cannot be rendered, if any.
func (p Predicate[E]) Err() error {
	return p.err
}

// Expr returns the bun query fragment and its arguments.
func (p Predicate[E]) Expr() (string, []interface{}) {
	return p.expr, slices.Clone(p.args)
}

func (p Predicate[E]) String() string {
	if p.err != nil {
		return "invalid(" + p.err.Error() + ")"
	}
	return fmt.Sprintf("%s %v", p.expr, p.args)
}

func (p Predicate[E]) And(others ...Predicate[E]) Predicate[E] {
	return combine("AND", append([]Predicate[E]{p}, others...))
}

func (p Predicate[E]) Or(others ...Predicate[E]) Predicate[E] {
	return combine("OR", append([]Predicate[E]{p}, others...))
}

// Not negates p. Negating the zero predicate yields the zero predicate.
func (p Predicate[E]) Not() Predicate[E] {
	if p.IsZero() || p.err != nil {
		return p
	}
	return Predicate[E]{expr: "NOT (" + p.expr + ")", args: p.args}
}

// AllOf joins predicates with AND, skipping zero values.
func AllOf[E any](preds ...Predicate[E]) Predicate[E] {
	return combine("AND", preds)
}

// AnyOf joins predicates with OR, skipping zero values.
func AnyOf[E any](preds ...Predicate[E]) Predicate[E] {
	return combine("OR", preds)
}

func combine[E any](op string, preds []Predicate[E]) Predicate[E] {
	var (
		parts []Predicate[E]
		errs  []error
	)
	for _, p := range preds {
		switch {
		case p.err != nil:
			errs = append(errs, p.err)
		case !p.IsZero():
			parts = append(parts, p)
		}
	}
	if len(errs) > 0 {
		return invalidPredicate[E](errors.Join(errs...))
	}
	switch len(parts) {
	case 0:
		return Predicate[E]{}
	case 1:
		return parts[0]
	}

	var (
		expr string
		args []interface{}
	)
	for i, p := range parts {
		if i > 0 {
			expr += " " + op + " "
		}
		expr += "(" + p.expr + ")"
		args = append(args, p.args...)
	}
	return Predicate[E]{expr: expr, args: args}
}
