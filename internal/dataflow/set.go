/*
 * Copyright 2024 CloudWeGo Authors
 *
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

package dataflow

import (
	"fmt"
	"sort"
	"strings"
)

// Set is a set of dataflow facts.
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](vs ...T) Set[T] {
	ret := make(Set[T], len(vs))
	for _, v := range vs {
		ret[v] = struct{}{}
	}
	return ret
}

func (self Set[T]) Add(v T) bool {
	if _, ok := self[v]; ok {
		return false
	} else {
		self[v] = struct{}{}
		return true
	}
}

func (self Set[T]) Has(v T) bool {
	_, ok := self[v]
	return ok
}

func (self Set[T]) Remove(v T) bool {
	if _, ok := self[v]; !ok {
		return false
	} else {
		delete(self, v)
		return true
	}
}

func (self Set[T]) Clone() Set[T] {
	ret := make(Set[T], len(self))
	for v := range self {
		ret[v] = struct{}{}
	}
	return ret
}

// Union adds every member of other into the set.
func (self Set[T]) Union(other Set[T]) Set[T] {
	for v := range other {
		self[v] = struct{}{}
	}
	return self
}

// Intersect removes every member not found in other.
func (self Set[T]) Intersect(other Set[T]) Set[T] {
	for v := range self {
		if _, ok := other[v]; !ok {
			delete(self, v)
		}
	}
	return self
}

// Subtract removes every member of other.
func (self Set[T]) Subtract(other Set[T]) Set[T] {
	for v := range other {
		delete(self, v)
	}
	return self
}

func (self Set[T]) Equal(other Set[T]) bool {
	if len(self) != len(other) {
		return false
	}
	for v := range self {
		if _, ok := other[v]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the members sorted by their textual form.
func (self Set[T]) Sorted() []T {
	ret := make([]T, 0, len(self))
	for v := range self {
		ret = append(ret, v)
	}
	sort.Slice(ret, func(i int, j int) bool {
		return fmt.Sprint(ret[i]) < fmt.Sprint(ret[j])
	})
	return ret
}

func (self Set[T]) String() string {
	vs := self.Sorted()
	rs := make([]string, 0, len(vs))

	/* convert every member */
	for _, v := range vs {
		rs = append(rs, fmt.Sprint(v))
	}

	/* join them together */
	return fmt.Sprintf(
		"{%s}",
		strings.Join(rs, ", "),
	)
}
