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
	"strings"

	"github.com/google/uuid"
)

// Direction indicates which way a pointer is being traversed.
type Direction uint8

const (
	// DirOutbound follows the pointer from source to target.
	DirOutbound Direction = iota
	// DirInbound follows the pointer backwards, from target to source.
	DirInbound
)

func (p Direction) String() string {
	if p == DirInbound {
		return "<"
	}
	//
	return ">"
}

// Names reserved for the compiler-generated pointers modelling type
// intersections, such as "expr[IS Type]".
const (
	// TypeIntersectionName is the short name of a mandatory intersection.
	TypeIntersectionName = "__type__::indirection"
	// OptTypeIntersectionName is the short name of an optional
	// intersection.
	OptTypeIntersectionName = "__type__::optindirection"
)

// PtrRef is an immutable, schema-independent description of a pointer, in the
// same way TypeRef describes a type.  The concrete variants distinguish plain
// schema pointers from the synthetic pointers generated for tuple access and
// type intersections.
type PtrRef interface {
	// Base returns the descriptor fields common to all pointer refs.
	Base() *BasePointerRef
}

// BasePointerRef holds the fields shared by every pointer reference variant.
type BasePointerRef struct {
	// ID of the described pointer.
	ID uuid.UUID
	// Name is the fully qualified name, including the source type.
	Name string
	// ShortName is the qualified name without the source type.
	ShortName string
	// PathIDName overrides Name for path identity purposes, used when a
	// derived pointer must alias its ancestor's paths.
	PathIDName string
	// OutSource is the source type for outbound traversal, or nil for a
	// generic pointer not yet bound to a source.
	OutSource *TypeRef
	// OutTarget is the target type for outbound traversal.
	OutTarget *TypeRef
	// SourcePtr is the enclosing link when this ref describes a link
	// property, and nil otherwise.
	SourcePtr PtrRef
	// MaterialPtr is the nearest non-derived ancestor ref, or nil when
	// this ref is itself material.
	MaterialPtr PtrRef
	// UnionComponents are the refs this pointer is a union of, if any.
	UnionComponents []PtrRef
	// HasProperties indicates the pointer carries link properties.
	HasProperties bool
	// IsDerived indicates a compiler-derived pointer.
	IsDerived bool
	// IsComputable indicates the pointer is computed from an expression
	// rather than stored.
	IsComputable bool
	// OutCardinality bounds outbound traversal.
	OutCardinality Cardinality
	// InCardinality bounds inbound traversal.
	InCardinality Cardinality
}

// Base implementation for the PtrRef interface.
func (p *BasePointerRef) Base() *BasePointerRef {
	return p
}

// DirCardinality determines the traversal cardinality in a given direction.
func (p *BasePointerRef) DirCardinality(direction Direction) Cardinality {
	if direction == DirInbound {
		return p.InCardinality
	}
	//
	return p.OutCardinality
}

// DirSource determines the type traversal starts from in a given direction.
func (p *BasePointerRef) DirSource(direction Direction) *TypeRef {
	if direction == DirInbound {
		return p.OutTarget
	}
	//
	return p.OutSource
}

// DirTarget determines the type traversal arrives at in a given direction.
func (p *BasePointerRef) DirTarget(direction Direction) *TypeRef {
	if direction == DirInbound {
		return p.OutSource
	}
	//
	return p.OutTarget
}

// IsLinkProperty checks whether this ref describes a property of a link
// rather than of an object type.
func (p *BasePointerRef) IsLinkProperty() bool {
	return p.SourcePtr != nil
}

// PathIDRefName determines the name under which this pointer participates in
// path identity.
func (p *BasePointerRef) PathIDRefName() string {
	if p.PathIDName != "" {
		return p.PathIDName
	}
	//
	return p.Name
}

// UnqualifiedName strips the module qualification from the short name.
func (p *BasePointerRef) UnqualifiedName() string {
	if i := strings.LastIndex(p.ShortName, "::"); i >= 0 {
		return p.ShortName[i+2:]
	}
	//
	return p.ShortName
}

// PointerRef describes a regular schema pointer.
type PointerRef struct {
	BasePointerRef
}

// TupleIndirectionPointerRef describes the synthetic pointer generated for
// accessing one element of a tuple.
type TupleIndirectionPointerRef struct {
	BasePointerRef
}

// TypeIntersectionPointerRef describes the synthetic pointer generated for a
// type intersection step.
type TypeIntersectionPointerRef struct {
	BasePointerRef
	// Optional indicates the optional intersection form, which produces
	// an empty set rather than filtering when the narrowing fails.
	Optional bool
	// IsEmpty indicates the intersection is statically empty.
	IsEmpty bool
	// IsSubtype indicates the intersection narrows to a strict subtype.
	IsSubtype bool
	// RPtrSpecialization holds the specialized forms of the pointer being
	// narrowed, one per union component it was narrowed from.
	RPtrSpecialization []*PointerRef
}

// MaterialPtrRef determines the material ref underlying a given ref, which is
// the ref itself unless it is derived.
func MaterialPtrRef(ref PtrRef) PtrRef {
	if mat := ref.Base().MaterialPtr; mat != nil {
		return mat
	}
	//
	return ref
}

// IsTypeIntersectionRef checks whether a given ref describes a type
// intersection step.
func IsTypeIntersectionRef(ref PtrRef) bool {
	switch ref.Base().ShortName {
	case TypeIntersectionName, OptTypeIntersectionName:
		return true
	}
	//
	_, ok := ref.(*TypeIntersectionPointerRef)
	//
	return ok
}
