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
	"math/rand/v2"
	"testing"
)

func Test_HashSet_01(t *testing.T) {
	set := NewSet[weakKey](0)
	//
	if set.Size() != 0 || set.Contains(weakKey{1}) {
		t.Errorf("empty set misbehaves: %s", set.String())
	}
}

func Test_HashSet_02(t *testing.T) {
	check_HashSet(t, []uint{1, 2, 3, 4, 3, 2, 1})
}

func Test_HashSet_03(t *testing.T) {
	check_HashSet(t, randomUints(100, 32))
}

func Test_HashSet_04(t *testing.T) {
	check_HashSet(t, randomUints(1000, 256))
}

func Test_HashSet_05(t *testing.T) {
	check_HashSet(t, randomUints(100000, 1024))
}

// ===================================================================
// Test Helpers
// ===================================================================

// Generate n random values in the range 0..m.  Small ranges force
// duplicates, which is exactly what these tests want.
func randomUints(n, m uint) []uint {
	items := make([]uint, n)
	//
	for i := range items {
		items[i] = rand.UintN(m)
	}
	//
	return items
}

// Check a set against a reference built from the builtin map: unique count,
// duplicate reporting, membership and iteration must all agree.
func check_HashSet(t *testing.T, items []uint) {
	var (
		set       = NewSet[weakKey](0)
		reference = make(map[uint]bool)
		dups      = uint(0)
	)
	//
	for _, item := range items {
		if set.Insert(weakKey{item}) {
			dups++
		}
		//
		reference[item] = true
	}
	// Unique count must agree with the reference
	if set.Size() != uint(len(reference)) {
		t.Errorf("expected %d unique items, got %d: %s", len(reference), set.Size(), set.String())
	}
	// Every insertion beyond the first of an item is a duplicate
	if dups != uint(len(items))-uint(len(reference)) {
		t.Errorf("incorrect number of duplicates %d: %s", dups, set.String())
	}
	// Membership must agree with the reference
	for item := range reference {
		if !set.Contains(weakKey{item}) {
			t.Errorf("missing item %d: %s", item, set.String())
		}
	}
	// Iteration must visit every item exactly once
	visited := make(map[uint]uint)
	//
	set.Each(func(item weakKey) {
		visited[item.value]++
	})
	//
	for item, n := range visited {
		if n != 1 {
			t.Errorf("item %d visited %d times", item, n)
		} else if !reference[item] {
			t.Errorf("iteration produced unknown item %d", item)
		}
	}
	//
	if len(visited) != len(reference) {
		t.Errorf("iteration visited %d items, expected %d", len(visited), len(reference))
	}
}

// A uint wrapper whose hash deliberately collapses values onto a handful of
// codes, so bucket chaining sees real collisions.
type weakKey struct {
	value uint
}

func (p weakKey) Equals(other weakKey) bool {
	return p.value == other.value
}

func (p weakKey) Hash() uint64 {
	return uint64(p.value % 16)
}

func (p weakKey) String() string {
	return fmt.Sprintf("%d", p.value)
}
