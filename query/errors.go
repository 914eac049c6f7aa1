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

import "errors"

var (
	// ErrTooManyResults is returned by FetchOne when more than one row matches.
	ErrTooManyResults = errors.New("query: more than one row matched")

	// ErrInvalidPredicate marks a predicate that cannot be rendered, such as
	// equality against a null operand. It surfaces at the terminal call,
	// before any statement is sent.
	ErrInvalidPredicate = errors.New("query: invalid predicate")

	// ErrInvalidPaging is returned for a negative offset or limit.
	ErrInvalidPaging = errors.New("query: invalid paging")
)
