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
	"testing"
)

func Test_HashMap_01(t *testing.T) {
	check_HashMap(t, []uint{1, 2, 3, 4, 3, 2, 1})
}

func Test_HashMap_02(t *testing.T) {
	hmap := NewMap[weakKey, string](0)
	// First insertion of a key is new
	if hmap.Insert(weakKey{7}, "a") {
		t.Errorf("insertion of a fresh key reported as present")
	}
	// Second insertion overwrites
	if !hmap.Insert(weakKey{7}, "b") {
		t.Errorf("insertion of a held key reported as fresh")
	}
	//
	if v, ok := hmap.Get(weakKey{7}); !ok || v != "b" {
		t.Errorf("expected overwritten value b, got %s", v)
	}
	//
	if hmap.Size() != 1 {
		t.Errorf("expected 1 entry, got %d", hmap.Size())
	}
	// Colliding key (7 and 23 share a hashcode) must stay distinct
	if hmap.ContainsKey(weakKey{23}) {
		t.Errorf("colliding key wrongly reported as present")
	}
}

func Test_HashMap_03(t *testing.T) {
	check_HashMap(t, randomUints(100, 32))
}

func Test_HashMap_04(t *testing.T) {
	check_HashMap(t, randomUints(1000, 256))
}

func Test_HashMap_05(t *testing.T) {
	check_HashMap(t, randomUints(100000, 1024))
}

// ===================================================================
// Test Helpers
// ===================================================================

// Check a map against occurrence counts built with the builtin map: size,
// lookups and iteration must all agree.
func check_HashMap(t *testing.T, items []uint) {
	var (
		hmap      = NewMap[weakKey, uint](0)
		reference = make(map[uint]uint)
	)
	// Count occurrences through both maps
	for _, item := range items {
		count, _ := hmap.Get(weakKey{item})
		hmap.Insert(weakKey{item}, count+1)
		//
		reference[item]++
	}
	//
	if hmap.Size() != uint(len(reference)) {
		t.Errorf("expected %d entries, got %d: %s", len(reference), hmap.Size(), hmap.String())
	}
	// Lookups must agree with the reference
	for item, count := range reference {
		if !hmap.ContainsKey(weakKey{item}) {
			t.Errorf("missing key %d: %s", item, hmap.String())
		} else if v, ok := hmap.Get(weakKey{item}); !ok || v != count {
			t.Errorf("expected %d=>%d, got %d: %s", item, count, v, hmap.String())
		}
	}
	// Iteration must visit every entry exactly once
	visited := make(map[uint]uint)
	//
	hmap.Each(func(key weakKey, value uint) {
		visited[key.value] = value
	})
	//
	if len(visited) != len(reference) {
		t.Errorf("iteration visited %d entries, expected %d", len(visited), len(reference))
	}
	//
	for item, count := range visited {
		if reference[item] != count {
			t.Errorf("iteration produced %d=>%d, expected %d", item, count, reference[item])
		}
	}
}
