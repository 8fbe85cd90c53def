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

// Hasher is implemented by types which provide their own hashcode and
// equality, making them usable as Set members and Map keys.  Equality is
// required alongside the hashcode because keys whose hashcodes collide are
// kept and told apart, not discarded.  That rules out off-the-shelf hashed
// collections (e.g. hashicorp's go-set), which take the hashcode as the
// identity of the item.
type Hasher[T any] interface {
	// Check whether two items are equal (or not).
	Equals(T) bool
	// Return a suitable hashcode.
	Hash() uint64
}

// Constants for the 64bit FNV1a hash.
const (
	// Offset64 is the initial state of a 64bit FNV1a hash.
	Offset64 uint64 = 14695981039346656037
	// Prime64 is the multiplier folded in after each byte of a 64bit FNV1a
	// hash.
	Prime64 uint64 = 1099511628211
)

// FoldString folds the bytes of a string into a running 64bit FNV1a hash,
// returning the updated state.  Seed the first call with Offset64.
func FoldString(code uint64, str string) uint64 {
	for i := 0; i < len(str); i++ {
		code = (code ^ uint64(str[i])) * Prime64
	}
	//
	return code
}
