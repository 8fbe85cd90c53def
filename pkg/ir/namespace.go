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
package ir

import (
	"sort"
	"strings"

	"github.com/vinelang/go-vine/pkg/util/collection/hash"
)

// weakMark prefixes the identifiers of weak namespaces.  Namespace
// identifiers are always allocated by the compiler, hence the marker cannot
// collide with a genuine identifier.
const weakMark = "*"

// WeakNamespace marks a namespace identifier as weak.  Weak namespaces hide
// paths from factoring just like regular ones, but can be stripped in bulk
// when a binding is deliberately re-exposed to its consumers.
func WeakNamespace(ns string) string {
	return weakMark + ns
}

// IsWeakNamespace checks whether a namespace identifier carries the weak
// marker.
func IsWeakNamespace(ns string) bool {
	return strings.HasPrefix(ns, weakMark)
}

// BareNamespace strips the weak marker (if any) from a namespace identifier.
func BareNamespace(ns string) string {
	return strings.TrimPrefix(ns, weakMark)
}

// NamespaceSet is a set of namespace identifiers under which a path is
// hidden.  Sets are treated as immutable once constructed: every operation
// returns either a fresh set or (where the result is provably unchanged) one
// of its operands.  The zero value is the empty set.
type NamespaceSet map[string]struct{}

// NewNamespaceSet constructs a set from the given identifiers.
func NewNamespaceSet(items ...string) NamespaceSet {
	if len(items) == 0 {
		return nil
	}
	//
	ns := make(NamespaceSet, len(items))
	//
	for _, item := range items {
		ns[item] = struct{}{}
	}
	//
	return ns
}

// IsEmpty checks whether this set contains no identifiers.
func (p NamespaceSet) IsEmpty() bool {
	return len(p) == 0
}

// Size returns the number of identifiers in this set.
func (p NamespaceSet) Size() uint {
	return uint(len(p))
}

// Contains checks whether a given identifier is in this set.
func (p NamespaceSet) Contains(ns string) bool {
	_, ok := p[ns]
	return ok
}

// IsSubsetOf checks whether every identifier of this set is also in another.
func (p NamespaceSet) IsSubsetOf(other NamespaceSet) bool {
	if len(p) > len(other) {
		return false
	}
	//
	for ns := range p {
		if !other.Contains(ns) {
			return false
		}
	}
	//
	return true
}

// Equals checks whether two sets hold exactly the same identifiers.
func (p NamespaceSet) Equals(other NamespaceSet) bool {
	return len(p) == len(other) && p.IsSubsetOf(other)
}

// Union determines the union of two sets, returning the receiver unchanged
// when the other set adds nothing.
func (p NamespaceSet) Union(other NamespaceSet) NamespaceSet {
	if other.IsSubsetOf(p) {
		return p
	} else if p.IsSubsetOf(other) {
		return other
	}
	//
	ns := make(NamespaceSet, len(p)+len(other))
	//
	for item := range p {
		ns[item] = struct{}{}
	}
	//
	for item := range other {
		ns[item] = struct{}{}
	}
	//
	return ns
}

// Diff determines the set of identifiers in this set but not the other.
func (p NamespaceSet) Diff(other NamespaceSet) NamespaceSet {
	if len(p) == 0 || len(other) == 0 {
		return p
	}
	//
	var ns NamespaceSet
	//
	for item := range p {
		if !other.Contains(item) {
			if ns == nil {
				ns = make(NamespaceSet)
			}
			//
			ns[item] = struct{}{}
		}
	}
	//
	return ns
}

// Intersect determines the set of identifiers common to both sets.
func (p NamespaceSet) Intersect(other NamespaceSet) NamespaceSet {
	var ns NamespaceSet
	//
	for item := range p {
		if other.Contains(item) {
			if ns == nil {
				ns = make(NamespaceSet)
			}
			//
			ns[item] = struct{}{}
		}
	}
	//
	return ns
}

// StripWeak determines the subset of identifiers not marked weak.
func (p NamespaceSet) StripWeak() NamespaceSet {
	var ns NamespaceSet
	//
	for item := range p {
		if !IsWeakNamespace(item) {
			if ns == nil {
				ns = make(NamespaceSet)
			}
			//
			ns[item] = struct{}{}
		}
	}
	//
	return ns
}

// Elements returns the identifiers of this set, sorted by their bare name so
// the result is deterministic and weakness does not affect ordering.
func (p NamespaceSet) Elements() []string {
	items := make([]string, 0, len(p))
	//
	for item := range p {
		items = append(items, item)
	}
	//
	sort.Slice(items, func(i, j int) bool {
		return BareNamespace(items[i]) < BareNamespace(items[j])
	})
	//
	return items
}

// Hash generates an order-independent hashcode by folding the identifiers'
// individual FNV1a hashes together with exclusive or.
func (p NamespaceSet) Hash() uint64 {
	var code uint64
	//
	for item := range p {
		code ^= hash.FoldString(hash.Offset64, item)
	}
	//
	return code
}

func (p NamespaceSet) String() string {
	return strings.Join(p.Elements(), "@")
}
