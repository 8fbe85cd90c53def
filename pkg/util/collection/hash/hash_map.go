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

// Map is a hashed map over key types implementing Hasher.  Keys whose
// hashcodes collide are chained within a bucket and told apart by Equals,
// so a weak hash costs lookup time, never correctness.
type Map[K Hasher[K], V any] struct {
	// buckets chains entries whose keys share a hashcode.
	buckets map[uint64][]entry[K, V]
	// count of entries across all buckets.
	count uint
}

// entry pairs one key with its value.
type entry[K Hasher[K], V any] struct {
	key   K
	value V
}

// NewMap creates an empty map sized for the expected number of entries.
func NewMap[K Hasher[K], V any](capacity uint) *Map[K, V] {
	return &Map[K, V]{make(map[uint64][]entry[K, V], capacity), 0}
}

// Size returns the number of entries held.
func (p *Map[K, V]) Size() uint {
	return p.count
}

// Insert a key-value pair, overwriting the value held against an equal key
// and reporting whether one was already present.
func (p *Map[K, V]) Insert(key K, value V) bool {
	code := key.Hash()
	bucket := p.buckets[code]
	//
	for i := range bucket {
		if key.Equals(bucket[i].key) {
			bucket[i].value = value
			return true
		}
	}
	//
	p.buckets[code] = append(bucket, entry[K, V]{key, value})
	p.count++
	//
	return false
}

// ContainsKey checks whether a value is held against an equal key.
func (p *Map[K, V]) ContainsKey(key K) bool {
	for _, e := range p.buckets[key.Hash()] {
		if key.Equals(e.key) {
			return true
		}
	}
	//
	return false
}

// Get the value held against an equal key, if there is one.
func (p *Map[K, V]) Get(key K) (V, bool) {
	for _, e := range p.buckets[key.Hash()] {
		if key.Equals(e.key) {
			return e.value, true
		}
	}
	//
	var empty V
	//
	return empty, false
}

// Each applies the given function to every key-value pair, in no particular
// order.
func (p *Map[K, V]) Each(fn func(K, V)) {
	for _, bucket := range p.buckets {
		for _, e := range bucket {
			fn(e.key, e.value)
		}
	}
}

func (p *Map[K, V]) String() string {
	var (
		builder strings.Builder
		first   = true
	)
	//
	builder.WriteString("{")
	//
	p.Each(func(key K, value V) {
		if !first {
			builder.WriteString(",")
		}
		//
		first = false
		//
		builder.WriteString(fmt.Sprintf("%v:=%v", key, value))
	})
	//
	builder.WriteString("}")
	//
	return builder.String()
}
