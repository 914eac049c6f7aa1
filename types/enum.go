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

// Values reported by enums outside their declared range.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum is implemented by the small integer enums of the query layer.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// EnumEntry names one enum constant.
type EnumEntry struct {
	Name string
	Desc string
}

// EnumTable maps enum ordinals, starting at zero, to their names. Enum
// types back their BaseEnum methods with a package-level table.
type EnumTable []EnumEntry

func (t EnumTable) Valid(n int) bool { return n >= 0 && n < len(t) }

func (t EnumTable) Number(n int) int {
	if !t.Valid(n) {
		return IllegalValue
	}
	return n
}

func (t EnumTable) Name(n int) string {
	if !t.Valid(n) {
		return IllegalName
	}
	return t[n].Name
}

func (t EnumTable) Desc(n int) string {
	if !t.Valid(n) {
		return IllegalDesc
	}
	return t[n].Desc
}

// Parse returns the ordinal whose name is name.
func (t EnumTable) Parse(name string) (int, bool) {
	for i, e := range t {
		if e.Name == name {
			return i, true
		}
	}
	return IllegalValue, false
}
