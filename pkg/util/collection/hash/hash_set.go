// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package hash

import (
	"fmt"
	"strings"
)

// Set is a hashed set over item types implementing Hasher.  Items whose
// hashcodes collide are chained within a bucket and told apart by Equals,
// so a weak hash costs lookup time, never correctness.
type Set[T Hasher[T]] struct {
	// buckets chains items sharing a hashcode.
	buckets map[uint64][]T
	// count of items across all buckets.
	count uint
}

// NewSet creates an empty set sized for the expected number of items.
func NewSet[T Hasher[T]](capacity uint) *Set[T] {
	return &Set[T]{make(map[uint64][]T, capacity), 0}
}

// Size returns the number of (unique) items held.
func (p *Set[T]) Size() uint {
	return p.count
}

// Insert an item, reporting whether an equal item was already present.
func (p *Set[T]) Insert(item T) bool {
	code := item.Hash()
	//
	for _, existing := range p.buckets[code] {
		if item.Equals(existing) {
			return true
		}
	}
	//
	p.buckets[code] = append(p.buckets[code], item)
	p.count++
	//
	return false
}

// Contains checks whether an equal item is present.
func (p *Set[T]) Contains(item T) bool {
	for _, existing := range p.buckets[item.Hash()] {
		if item.Equals(existing) {
			return true
		}
	}
	//
	return false
}

// Each applies the given function to every item, in no particular order.
func (p *Set[T]) Each(fn func(T)) {
	for _, bucket := range p.buckets {
		for _, item := range bucket {
			fn(item)
		}
	}
}

func (p *Set[T]) String() string {
	var (
		builder strings.Builder
		first   = true
	)
	//
	builder.WriteString("{")
	//
	p.Each(func(item T) {
		if !first {
			builder.WriteString(",")
		}
		//
		first = false
		//
		builder.WriteString(fmt.Sprintf("%v", item))
	})
	//
	builder.WriteString("}")
	//
	return builder.String()
}
