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
package compiler

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/vinelang/go-vine/pkg/ir"
	"github.com/vinelang/go-vine/pkg/schema"
	"github.com/vinelang/go-vine/pkg/util/collection/hash"
	"github.com/vinelang/go-vine/pkg/util/source"
)

// Environment carries everything shared by the analysis passes over one
// compiled query: the schema handle, the source maps locating IR nodes in the
// query text, the memoization caches, and the out-of-band annotation tables
// for call arguments.  An environment must be used for exactly one
// compilation: its caches are keyed by node identity and remain valid only
// for the IR and scope tree they were computed against.
type Environment struct {
	// Schema the query is analyzed against.
	Schema *schema.Schema
	// Singletons are paths assumed bound to a single value regardless of
	// what the scope tree says, used for hypothetical analysis.
	Singletons *hash.Set[*ir.PathId]
	// SrcMap locates IR nodes in the original query text.
	SrcMap *source.Maps[ir.Node]
	// ArgCardinality records the inferred cardinality of every call
	// argument visited by cardinality inference.
	ArgCardinality map[*ir.CallArg]ir.Cardinality
	// ArgMultiplicity records the inferred multiplicity of every call
	// argument visited by multiplicity inference.
	ArgMultiplicity map[*ir.CallArg]ir.MultiplicityInfo
	// typeRefs caches type conversions, one shared ref per schema type.
	typeRefs map[uuid.UUID]*ir.TypeRef
	// ptrRefs caches pointer conversions, one shared ref per schema
	// pointer.
	ptrRefs map[uuid.UUID]*ir.PointerRef
	// cardinality memoizes cardinality inference per (node, scope).
	cardinality map[cardinalityKey]ir.Cardinality
	// multiplicity memoizes multiplicity inference per (node, scope,
	// distinct iterator).
	multiplicity map[multiplicityKey]ir.MultiplicityInfo
	// volatility memoizes volatility inference per node.
	volatility map[ir.Node]ir.VolatilityInfo
	// lastScopeId is the most recently allocated scope identifier.
	lastScopeId int
}

type cardinalityKey struct {
	node  ir.Node
	scope *ir.ScopeTreeNode
}

type multiplicityKey struct {
	node             ir.Node
	scope            *ir.ScopeTreeNode
	distinctIterator *ir.PathId
}

// NewEnvironment constructs a fresh environment for one compilation against
// the given schema.
func NewEnvironment(sch *schema.Schema) *Environment {
	return &Environment{
		Schema:          sch,
		Singletons:      hash.NewSet[*ir.PathId](16),
		SrcMap:          source.NewSourceMaps[ir.Node](),
		ArgCardinality:  make(map[*ir.CallArg]ir.Cardinality),
		ArgMultiplicity: make(map[*ir.CallArg]ir.MultiplicityInfo),
		typeRefs:        make(map[uuid.UUID]*ir.TypeRef),
		ptrRefs:         make(map[uuid.UUID]*ir.PointerRef),
		cardinality:     make(map[cardinalityKey]ir.Cardinality),
		multiplicity:    make(map[multiplicityKey]ir.MultiplicityInfo),
		volatility:      make(map[ir.Node]ir.VolatilityInfo),
	}
}

// TypeRef converts a schema type into its analysis-time descriptor.
// Conversions are cached, so every use of a given type shares one ref.
func (p *Environment) TypeRef(t *schema.Type) *ir.TypeRef {
	return ir.TypeToTypeRef(t, p.typeRefs)
}

// PointerRef converts a schema pointer into its analysis-time descriptor.
// Conversions are cached, so every traversal of a given pointer shares one
// ref.
func (p *Environment) PointerRef(ptr *schema.Pointer) *ir.PointerRef {
	if ref, ok := p.ptrRefs[ptr.ID]; ok {
		return ref
	}
	//
	ref := ir.PointerRefFromSchema(ptr, p.typeRefs)
	p.ptrRefs[ptr.ID] = ref
	//
	return ref
}

// LinkPropertyRef converts a link property into its analysis-time
// descriptor, anchored on the ref of the link carrying it.
func (p *Environment) LinkPropertyRef(prop *schema.Pointer, link ir.PtrRef) *ir.PointerRef {
	if ref, ok := p.ptrRefs[prop.ID]; ok {
		return ref
	}
	//
	ref := ir.LinkPropertyRefFromSchema(prop, link, p.typeRefs)
	p.ptrRefs[prop.ID] = ref
	//
	return ref
}

// AllocateScopeId returns the next free scope tree identifier.  Identifiers
// are strictly positive; zero on a set means it introduces no scope.
func (p *Environment) AllocateScopeId() int {
	p.lastScopeId++
	return p.lastScopeId
}

// SchemaPointer resolves a pointer ref back to the schema pointer it was
// derived from, or nil for purely synthetic refs.
func (p *Environment) SchemaPointer(ref ir.PtrRef) *schema.Pointer {
	base := ir.MaterialPtrRef(ref).Base()
	ptr, _ := p.Schema.PointerByID(base.ID)
	//
	return ptr
}

// queryError builds a user-facing error located at the given node.  Nodes
// built programmatically rather than compiled from text carry no span, in
// which case the error is unlocated.
func (p *Environment) queryError(node ir.Node, msg string) *source.SyntaxError {
	if p.SrcMap.Has(node) {
		return p.SrcMap.SyntaxError(node, msg)
	}
	//
	srcfile := source.NewSourceFile("<query>", nil)
	//
	return srcfile.SyntaxError(source.NewSpan(0, 0), msg)
}

// setScope resolves the scope governing the evaluation of a set's
// expression: sets carrying a scope identifier evaluate under the node
// registered with it, all others under the current scope.
func setScope(set *ir.Set, scope *ir.ScopeTreeNode) *ir.ScopeTreeNode {
	if set.PathScopeId != 0 {
		if node := scope.Root().FindByUniqueId(set.PathScopeId); node != nil {
			return node
		}
		//
		panic(fmt.Sprintf("invalid path scope id: %d", set.PathScopeId))
	}
	//
	return scope
}
