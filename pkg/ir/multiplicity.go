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

// Multiplicity describes whether the values produced by an expression are
// pairwise distinct.  As with Cardinality, the numeric maximum of two
// multiplicities is the worst case of the pair.
type Multiplicity uint8

const (
	// MultUnknown indicates multiplicity has not yet been inferred.
	MultUnknown Multiplicity = iota
	// MultEmpty indicates the expression always produces the empty set.
	MultEmpty
	// MultUnique indicates all produced values are pairwise distinct.
	MultUnique
	// MultDuplicate indicates values may repeat.
	MultDuplicate
)

// IsEmpty checks whether this is the empty multiplicity.
func (p Multiplicity) IsEmpty() bool {
	return p == MultEmpty
}

// IsUnique checks whether values are known to be pairwise distinct.
func (p Multiplicity) IsUnique() bool {
	return p == MultUnique
}

// IsDuplicate checks whether values may repeat.
func (p Multiplicity) IsDuplicate() bool {
	return p == MultDuplicate
}

func (p Multiplicity) String() string {
	switch p {
	case MultEmpty:
		return "Empty"
	case MultUnique:
		return "Unique"
	case MultDuplicate:
		return "Duplicate"
	default:
		return "Unknown"
	}
}

// MultiplicityInfo packages a multiplicity value together with qualifying
// flags which refine how that value may be combined with others.  For
// example, two unique sets tagged as disjoint unions can be unioned without
// losing uniqueness, whereas two arbitrary unique sets cannot.
type MultiplicityInfo struct {
	// Own multiplicity of the expression itself.
	Own Multiplicity
	// DisjointUnion indicates the expression is a union of provably
	// disjoint parts, such as a sequence of inserts or a set of filters
	// correlated with a distinct iterator.
	DisjointUnion bool
	// FreshFreeObject indicates the expression constructs a free object
	// directly, and hence is trivially distinct from everything else.
	FreshFreeObject bool
	// Elements holds per-element multiplicity for expressions returning
	// containers, such as tuples or calls to enumerate.
	Elements []MultiplicityInfo
}

// IsEmpty checks whether the underlying multiplicity is empty.
func (p MultiplicityInfo) IsEmpty() bool {
	return p.Own.IsEmpty()
}

// IsUnique checks whether the underlying multiplicity is unique.
func (p MultiplicityInfo) IsUnique() bool {
	return p.Own.IsUnique()
}

// IsDuplicate checks whether the underlying multiplicity admits duplicates.
func (p MultiplicityInfo) IsDuplicate() bool {
	return p.Own.IsDuplicate()
}

func (p MultiplicityInfo) String() string {
	str := p.Own.String()
	//
	if p.DisjointUnion {
		str = str + "(disjoint)"
	}
	//
	if p.FreshFreeObject {
		str = str + "(fresh)"
	}
	//
	return str
}
