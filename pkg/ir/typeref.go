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

// TypeRef is an immutable, schema-independent description of a type, carrying
// just enough information for the analysis passes to operate without chasing
// back into the schema on every step.  Type refs are constructed once per
// compilation (see typeutils.go) and shared freely thereafter, hence must
// never be mutated.
type TypeRef struct {
	// ID of the type this reference describes.
	ID uuid.UUID
	// Name is the fully qualified schema name.
	Name string
	// NameHint overrides the displayed name for derived views.
	NameHint string
	// MaterialType is the nearest non-view ancestor, or nil when this
	// reference is itself material.
	MaterialType *TypeRef
	// Union components for union types.
	Union []*TypeRef
	// UnionIsConcrete indicates the union arose from concrete types
	// rather than an abstract common ancestor.
	UnionIsConcrete bool
	// Intersection components for intersection types.
	Intersection []*TypeRef
	// Collection is the collection kind ("tuple", "array"), or empty for
	// non-collection types.
	Collection string
	// Subtypes are the element types of a collection.
	Subtypes []*TypeRef
	// ElementName names this reference within an enclosing named tuple.
	ElementName string
	// IsScalar indicates a scalar type.
	IsScalar bool
	// IsView indicates a compiler-derived view over a material type.
	IsView bool
	// IsAbstract indicates an abstract type.
	IsAbstract bool
	// IsOpaqueUnion indicates a union whose components are not tracked.
	IsOpaqueUnion bool
}

// Material determines the material type underlying this reference, which is
// the reference itself unless it describes a view.
func (p *TypeRef) Material() *TypeRef {
	if p.MaterialType != nil {
		return p.MaterialType
	}
	//
	return p
}

// DisplayName determines the name to show in user-facing output, preferring
// the hint carried by derived views.
func (p *TypeRef) DisplayName() string {
	if p.NameHint != "" {
		return p.NameHint
	}
	//
	return p.Name
}

// ShortName strips the module qualification from the display name.
func (p *TypeRef) ShortName() string {
	name := p.DisplayName()
	//
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}
	//
	return name
}

func (p *TypeRef) String() string {
	return p.DisplayName()
}
