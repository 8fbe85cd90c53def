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
	"fmt"

	"github.com/google/uuid"

	"github.com/vinelang/go-vine/pkg/schema"
)

// TupleTypeName identifies tuple collection types.
const TupleTypeName = "tuple"

// ArrayTypeName identifies array collection types.
const ArrayTypeName = "array"

// TypeToTypeRef translates a schema type into its type descriptor, reusing
// descriptors from the cache so that the same schema type always yields the
// same descriptor within one analysis.
func TypeToTypeRef(t *schema.Type, cache map[uuid.UUID]*TypeRef) *TypeRef {
	if ref, ok := cache[t.ID]; ok {
		return ref
	}
	//
	ref := &TypeRef{
		ID:         t.ID,
		Name:       t.Name,
		IsScalar:   t.Kind == schema.ScalarKind,
		IsAbstract: t.Abstract,
	}
	//
	if cache != nil {
		cache[t.ID] = ref
	}
	//
	return ref
}

// PointerRefFromSchema translates a schema pointer into a pointer
// descriptor.  The inward cardinality is derived from exclusivity: a pointer
// whose values are exclusive to one source admits at most one source per
// target, anything else admits many.
func PointerRefFromSchema(ptr *schema.Pointer, cache map[uuid.UUID]*TypeRef) *PointerRef {
	inCard := CardMany
	//
	if ptr.HasExclusiveConstraint() {
		inCard = CardAtMostOne
	}
	//
	return &PointerRef{BasePointerRef{
		ID:             ptr.ID,
		Name:           ptr.QualifiedName(),
		ShortName:      ptr.Name,
		OutSource:      TypeToTypeRef(ptr.Source, cache),
		OutTarget:      TypeToTypeRef(ptr.Target, cache),
		OutCardinality: CardinalityFromSchemaValue(ptr.Required, ptr.Cardinality),
		InCardinality:  inCard,
	}}
}

// LinkPropertyRefFromSchema translates a link property into a pointer
// descriptor attached to the descriptor of its owning link.
func LinkPropertyRefFromSchema(prop *schema.Pointer, link PtrRef, cache map[uuid.UUID]*TypeRef) *PointerRef {
	ref := PointerRefFromSchema(prop, cache)
	ref.OutSource = link.Base().OutSource
	ref.SourcePtr = link
	//
	return ref
}

// NewTupleIndirectionRef constructs the pointer descriptor for accessing one
// element of a tuple type.
func NewTupleIndirectionRef(source *TypeRef, element string, target *TypeRef) *TupleIndirectionPointerRef {
	name := fmt.Sprintf("%s.%s", source.DisplayName(), element)
	//
	return &TupleIndirectionPointerRef{BasePointerRef{
		ID:             schema.NameToID(name),
		Name:           name,
		ShortName:      element,
		OutSource:      source,
		OutTarget:      target,
		OutCardinality: CardOne,
		InCardinality:  CardMany,
	}}
}

// NewTypeIntersectionRef constructs the pointer descriptor for narrowing a
// set to a given type ([IS Type]).  The specialization records which
// concrete pointers can still contribute values after the narrowing, which
// cardinality analysis consults when the narrowing sits on top of another
// pointer traversal.
func NewTypeIntersectionRef(source *TypeRef, target *TypeRef, optional bool,
	spec []*PointerRef) *TypeIntersectionPointerRef {
	//
	shortName := TypeIntersectionName
	//
	if optional {
		shortName = OptTypeIntersectionName
	}
	//
	name := fmt.Sprintf("%s(%s, %s)", shortName, source.Name, target.Name)
	//
	return &TypeIntersectionPointerRef{
		BasePointerRef: BasePointerRef{
			ID:             schema.NameToID(name),
			Name:           name,
			ShortName:      shortName,
			OutSource:      source,
			OutTarget:      target,
			OutCardinality: CardAtMostOne,
			InCardinality:  CardMany,
		},
		Optional:           optional,
		RPtrSpecialization: spec,
	}
}

// GetPathRoot walks to the root of the pointer-traversal chain a set sits
// on, i.e. the set the whole path starts from.
func GetPathRoot(set *Set) *Set {
	for set.RPtr != nil {
		set = set.RPtr.Source
	}
	//
	return set
}

// CollapseTypeIntersection walks down through a chain of type-intersection
// traversals, returning the first set below the chain together with the
// intersection pointers crossed (outermost first).
func CollapseTypeIntersection(set *Set) (*Set, []*Pointer) {
	var ptrs []*Pointer
	//
	for set.RPtr != nil && IsTypeIntersectionRef(set.RPtr.Ref) {
		ptrs = append(ptrs, set.RPtr)
		set = set.RPtr.Source
	}
	//
	return set, ptrs
}

// IsObjectType determines whether a type descriptor denotes an object type.
func IsObjectType(ref *TypeRef) bool {
	return ref != nil && !ref.IsScalar && ref.Collection == ""
}

// IsTupleType determines whether a type descriptor denotes a tuple type.
func IsTupleType(ref *TypeRef) bool {
	return ref != nil && ref.Collection == TupleTypeName
}

// IsArrayType determines whether a type descriptor denotes an array type.
func IsArrayType(ref *TypeRef) bool {
	return ref != nil && ref.Collection == ArrayTypeName
}

// IsFreeObject determines whether a type descriptor denotes the free object
// type.
func IsFreeObject(ref *TypeRef) bool {
	return ref != nil && ref.Material().Name == schema.FreeObjectName
}

// IsTrivialFreeObject determines whether a set is a freshly constructed free
// object, i.e. a bare free object root rather than a reference to one
// computed elsewhere.
func IsTrivialFreeObject(set *Set) bool {
	return IsFreeObject(set.TypeRef) && set.Expr == nil && set.RPtr == nil
}

// TupleElementIndex resolves a tuple element name to its position within the
// tuple type, or -1 when the type has no such element.
func TupleElementIndex(ref *TypeRef, name string) int {
	for i, sub := range ref.Subtypes {
		if sub.ElementName == name || (sub.ElementName == "" && fmt.Sprintf("%d", i) == name) {
			return i
		}
	}
	//
	return -1
}

// UnionComponentRefs returns the component descriptors of a union type, or
// the type itself when it is not a union.
func UnionComponentRefs(ref *TypeRef) []*TypeRef {
	if len(ref.Union) > 0 {
		return ref.Union
	}
	//
	return []*TypeRef{ref}
}
