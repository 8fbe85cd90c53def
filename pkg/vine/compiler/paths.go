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
	"sort"
	"strings"

	"github.com/vinelang/go-vine/pkg/ir"
	"github.com/vinelang/go-vine/pkg/schema"
	"github.com/vinelang/go-vine/pkg/vine/ast"
)

// compilePathAttached lowers a path expression and attaches its identity to
// the scope it appears under.  Attachment happens once per complete path,
// so prefixes shared with an already attached path fuse rather than
// conflict.
func (p *compiler) compilePathAttached(expr ast.Expr, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	set, errs := p.compilePathExpr(expr, scope)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if attachable(set) {
		if err := scope.AttachPath(set.PathId, false); err != nil {
			return nil, p.scopeError(expr, err)
		}
	}
	//
	return set, nil
}

// attachable determines whether a path participates in scope tree
// factoring.  Paths rooted in a name binding do not: the binding's value
// computes under its own scope, and mentions of the name must not project
// it into the scopes they appear under.
func attachable(set *ir.Set) bool {
	return ir.GetPathRoot(set).Binding != ir.BindWith
}

// compilePathExpr lowers a path expression without attaching it.  Non-path
// bases compile as ordinary expressions, whose own paths attach internally.
func (p *compiler) compilePathExpr(expr ast.Expr, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	switch e := expr.(type) {
	case *ast.Ident:
		set, err := p.resolveName(e)
		if err != nil {
			return nil, []SyntaxError{*err}
		}
		//
		return set, nil
	case *ast.Path:
		base, errs := p.compilePathExpr(e.Base, scope)
		if len(errs) > 0 {
			return nil, errs
		}
		//
		for _, step := range e.Steps {
			next, err := p.compileStep(base, step)
			if err != nil {
				return nil, []SyntaxError{*err}
			}
			//
			base = next
		}
		//
		return base, nil
	case *ast.TypeIntersection:
		return p.compileTypeIntersection(e, scope)
	default:
		return p.compileExpr(expr, scope)
	}
}

// resolveName lowers a bare identifier: either a name binding in scope, or
// a schema object type.  Each mention of a binding compiles into a fresh
// set sharing the binding's path, so the analysis passes treat all mentions
// as the one bound set.
func (p *compiler) resolveName(id *ast.Ident) (*ir.Set, *SyntaxError) {
	if b := p.lookupBinding(id.Name, 0); b != nil {
		set := &ir.Set{
			PathId:      b.path,
			TypeRef:     b.typeRef,
			Expr:        b.value,
			Binding:     b.kind,
			PathScopeId: b.scopeId,
		}
		p.register(set, id)
		//
		return set, nil
	}
	//
	styp, ok := p.lookupType(id.Name)
	if !ok {
		return nil, p.syntaxError(id, fmt.Sprintf("unknown name '%s'", id.Name))
	} else if !styp.IsObject() {
		return nil, p.syntaxError(id, fmt.Sprintf("'%s' is not an object type", id.Name))
	}
	//
	ref := p.env.TypeRef(styp)
	set := &ir.Set{PathId: ir.NewPathId(ref, nil), TypeRef: ref}
	p.register(set, id)
	//
	return set, nil
}

// compileStep lowers one step of a path against the set reached so far.
func (p *compiler) compileStep(base *ir.Set, step *ast.PathStep) (*ir.Set, *SyntaxError) {
	var (
		set *ir.Set
		err *SyntaxError
	)
	//
	switch step.Kind {
	case ast.StepForward:
		set, err = p.compileForwardStep(base, step)
	case ast.StepBackward:
		set, err = p.compileBackwardStep(base, step)
	case ast.StepLinkProp:
		set, err = p.compileLinkPropStep(base, step)
	default:
		panic(fmt.Sprintf("unknown path step kind (%d)", step.Kind))
	}
	//
	if err != nil {
		return nil, err
	}
	//
	p.register(set, step)
	//
	return set, nil
}

// compileForwardStep follows a pointer (or tuple element) outwards.
func (p *compiler) compileForwardStep(base *ir.Set, step *ast.PathStep) (*ir.Set, *SyntaxError) {
	if ir.IsTupleType(base.TypeRef) {
		return p.compileTupleStep(base, step)
	}
	//
	styp := p.schemaType(base.TypeRef)
	if styp == nil || !styp.IsObject() {
		msg := fmt.Sprintf("type '%s' has no pointer '%s'", base.TypeRef.DisplayName(), step.Name)
		return nil, p.syntaxError(step, msg)
	}
	//
	ptr, ok := styp.Pointer(step.Name)
	if !ok {
		msg := fmt.Sprintf("type '%s' has no pointer '%s'", styp.Name, step.Name)
		return nil, p.syntaxError(step, msg)
	}
	//
	ref := p.env.PointerRef(ptr)
	//
	return &ir.Set{
		PathId:  base.PathId.Extend(ref, ir.DirOutbound, nil),
		TypeRef: p.env.TypeRef(ptr.Target),
		RPtr: &ir.Pointer{
			Source:         base,
			Ref:            ref,
			Direction:      ir.DirOutbound,
			SchemaComputed: ptr.Computed,
		},
	}, nil
}

// compileTupleStep follows a tuple element.  The step carries both the
// indirection expression and a pointer descriptor, so the analysis passes
// see element multiplicities through the pointer while evaluation follows
// the expression.
func (p *compiler) compileTupleStep(base *ir.Set, step *ast.PathStep) (*ir.Set, *SyntaxError) {
	idx := ir.TupleElementIndex(base.TypeRef, step.Name)
	if idx < 0 {
		msg := fmt.Sprintf("tuple type '%s' has no element '%s'", base.TypeRef.DisplayName(), step.Name)
		return nil, p.syntaxError(step, msg)
	}
	//
	target := base.TypeRef.Subtypes[idx]
	ref := ir.NewTupleIndirectionRef(base.TypeRef, step.Name, target)
	//
	return &ir.Set{
		PathId:  base.PathId.Extend(ref, ir.DirOutbound, nil),
		TypeRef: target,
		Expr:    &ir.TupleIndirection{Expr: base, Name: step.Name},
		RPtr: &ir.Pointer{
			Source:    base,
			Ref:       ref,
			Direction: ir.DirOutbound,
		},
	}, nil
}

// compileBackwardStep follows a link backwards to its sources.  When more
// than one link matches, the step resolves to a union over all of them.
func (p *compiler) compileBackwardStep(base *ir.Set, step *ast.PathStep) (*ir.Set, *SyntaxError) {
	styp := p.schemaType(base.TypeRef)
	if styp == nil || !styp.IsObject() {
		msg := fmt.Sprintf("cannot follow a backlink from '%s'", base.TypeRef.DisplayName())
		return nil, p.syntaxError(step, msg)
	}
	//
	ptrs := p.inboundLinks(styp, step.Name)
	//
	var (
		ref    ir.PtrRef
		target *ir.TypeRef
	)
	//
	switch len(ptrs) {
	case 0:
		msg := fmt.Sprintf("no link '%s' targets '%s'", step.Name, styp.Name)
		return nil, p.syntaxError(step, msg)
	case 1:
		ref = p.env.PointerRef(ptrs[0])
		target = p.env.TypeRef(ptrs[0].Source)
	default:
		ref, target = p.unionLinkRef(ptrs, base.TypeRef, step.Name)
	}
	//
	return &ir.Set{
		PathId:  base.PathId.Extend(ref, ir.DirInbound, nil),
		TypeRef: target,
		RPtr: &ir.Pointer{
			Source:    base,
			Ref:       ref,
			Direction: ir.DirInbound,
		},
	}, nil
}

// inboundLinks finds every link in the schema with the given name whose
// target is compatible with the given type.  Inherited copies resolve to
// their defining type, and the result is deterministically ordered.
func (p *compiler) inboundLinks(styp *schema.Type, name string) []*schema.Pointer {
	var ptrs []*schema.Pointer
	//
	for _, owner := range p.env.Schema.Types() {
		ptr, ok := owner.Pointer(name)
		if !ok || ptr.Source != owner || ptr.Kind != schema.Link {
			continue
		}
		//
		if styp.IssubclassOf(ptr.Target) || ptr.Target.IssubclassOf(styp) {
			ptrs = append(ptrs, ptr)
		}
	}
	//
	sort.Slice(ptrs, func(i, j int) bool {
		return ptrs[i].QualifiedName() < ptrs[j].QualifiedName()
	})
	//
	return ptrs
}

// unionLinkRef builds the synthetic descriptor of a backlink matched by
// several links, whose source is the union of all their owners.
func (p *compiler) unionLinkRef(ptrs []*schema.Pointer, target *ir.TypeRef, name string) (ir.PtrRef, *ir.TypeRef) {
	var (
		components []ir.PtrRef
		owners     []*ir.TypeRef
		parts      []string
		names      []string
		concrete   = true
	)
	//
	for _, ptr := range ptrs {
		components = append(components, p.env.PointerRef(ptr))
		owners = append(owners, p.env.TypeRef(ptr.Source))
		parts = append(parts, ptr.QualifiedName())
		names = append(names, ptr.Source.Name)
		concrete = concrete && !ptr.Source.Abstract
	}
	//
	qualified := fmt.Sprintf("(%s)", strings.Join(parts, " | "))
	ownerName := fmt.Sprintf("(%s)", strings.Join(names, " | "))
	//
	ownerUnion := &ir.TypeRef{
		ID:              schema.NameToID(ownerName),
		Name:            ownerName,
		Union:           owners,
		UnionIsConcrete: concrete,
	}
	//
	ref := &ir.PointerRef{
		BasePointerRef: ir.BasePointerRef{
			ID:              schema.NameToID(qualified),
			Name:            qualified,
			ShortName:       name,
			OutSource:       ownerUnion,
			OutTarget:       target,
			OutCardinality:  ir.CardMany,
			InCardinality:   ir.CardMany,
			UnionComponents: components,
		},
	}
	//
	return ref, ownerUnion
}

// compileLinkPropStep accesses a property of the link the base set was
// arrived by.
func (p *compiler) compileLinkPropStep(base *ir.Set, step *ast.PathStep) (*ir.Set, *SyntaxError) {
	if base.RPtr == nil {
		msg := fmt.Sprintf("link property '%s' requires a link path", step.Name)
		return nil, p.syntaxError(step, msg)
	}
	//
	link := p.env.SchemaPointer(base.RPtr.Ref)
	if link == nil || link.Kind != schema.Link {
		msg := fmt.Sprintf("link property '%s' requires a link path", step.Name)
		return nil, p.syntaxError(step, msg)
	}
	//
	prop, ok := link.Property(step.Name)
	if !ok {
		msg := fmt.Sprintf("link '%s' has no property '%s'", link.QualifiedName(), step.Name)
		return nil, p.syntaxError(step, msg)
	}
	//
	ref := p.env.LinkPropertyRef(prop, base.RPtr.Ref)
	//
	return &ir.Set{
		PathId:  base.PathId.Extend(ref, ir.DirOutbound, nil),
		TypeRef: p.env.TypeRef(prop.Target),
		RPtr: &ir.Pointer{
			Source:    base,
			Ref:       ref,
			Direction: ir.DirOutbound,
		},
	}, nil
}

// compileTypeIntersection narrows a path to a type.  Narrowing a pointer
// step records the pointer as the specialization, which cardinality
// analysis consults when collapsing the intersection.
func (p *compiler) compileTypeIntersection(expr *ast.TypeIntersection,
	scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	//
	base, errs := p.compilePathExpr(expr.Base, scope)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	styp, ok := p.lookupType(expr.Type.Name)
	if !ok {
		return nil, p.errorAt(expr.Type, "unknown type '%s'", expr.Type.Name)
	} else if !styp.IsObject() {
		return nil, p.errorAt(expr.Type, "'%s' is not an object type", expr.Type.Name)
	}
	// Unions arise from multi-link backlinks and narrow like objects.
	if p.schemaType(base.TypeRef) == nil && base.TypeRef.Union == nil {
		return nil, p.errorAt(expr, "cannot apply a type intersection to '%s'", base.TypeRef.DisplayName())
	}
	//
	var specialization []*ir.PointerRef
	//
	if base.RPtr != nil {
		if mat, ok := ir.MaterialPtrRef(base.RPtr.Ref).(*ir.PointerRef); ok {
			specialization = []*ir.PointerRef{mat}
		}
	}
	//
	target := p.env.TypeRef(styp)
	ref := ir.NewTypeIntersectionRef(base.TypeRef, target, false, specialization)
	//
	set := &ir.Set{
		PathId:  base.PathId.Extend(ref, ir.DirOutbound, nil),
		TypeRef: target,
		RPtr: &ir.Pointer{
			Source:    base,
			Ref:       ref,
			Direction: ir.DirOutbound,
		},
	}
	p.register(set, expr)
	//
	return set, nil
}

// ============================================================================
// Shapes
// ============================================================================

// compileShape lowers the shape applied to a subject set.  Fetch elements
// share the subject's scope; computed elements evaluate under their own
// branch of the statement fence.  Within a mutation every element must
// target a schema pointer.
func (p *compiler) compileShape(subject *ir.Set, elements []*ast.ShapeElement,
	fence *ir.ScopeTreeNode, mutation bool) ([]*ir.ShapeElement, []SyntaxError) {
	//
	if len(elements) == 0 {
		return nil, nil
	}
	//
	styp := p.schemaType(subject.TypeRef)
	if styp == nil || !styp.IsObject() {
		return nil, p.errorAt(elements[0], "cannot apply a shape to '%s'", subject.TypeRef.DisplayName())
	}
	//
	var (
		shape []*ir.ShapeElement
		errs  []SyntaxError
	)
	//
	for _, element := range elements {
		compiled, eerrs := p.compileShapeElement(subject, styp, element, fence, mutation)
		if len(eerrs) > 0 {
			errs = append(errs, eerrs...)
			continue
		}
		//
		shape = append(shape, compiled)
	}
	//
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return shape, nil
}

func (p *compiler) compileShapeElement(subject *ir.Set, styp *schema.Type, el *ast.ShapeElement,
	fence *ir.ScopeTreeNode, mutation bool) (*ir.ShapeElement, []SyntaxError) {
	//
	if el.Value == nil {
		return p.compileFetchElement(subject, styp, el, fence, mutation)
	}
	//
	return p.compileComputedElement(subject, styp, el, fence, mutation)
}

// compileFetchElement lowers a plain pointer fetch, optionally carrying a
// nested shape.
func (p *compiler) compileFetchElement(subject *ir.Set, styp *schema.Type, el *ast.ShapeElement,
	fence *ir.ScopeTreeNode, mutation bool) (*ir.ShapeElement, []SyntaxError) {
	//
	ptr, ok := styp.Pointer(el.Name.Name)
	if !ok {
		return nil, p.errorAt(el.Name, "type '%s' has no pointer '%s'", styp.Name, el.Name.Name)
	}
	//
	ref := p.env.PointerRef(ptr)
	set := &ir.Set{
		PathId:  subject.PathId.Extend(ref, ir.DirOutbound, nil),
		TypeRef: p.env.TypeRef(ptr.Target),
		RPtr: &ir.Pointer{
			Source:         subject,
			Ref:            ref,
			Direction:      ir.DirOutbound,
			SchemaComputed: ptr.Computed,
		},
	}
	p.register(set, el)
	//
	if len(el.Shape) > 0 {
		nested, errs := p.compileShape(set, el.Shape, fence, mutation)
		if len(errs) > 0 {
			return nil, errs
		}
		//
		set.Shape = nested
	}
	//
	return &ir.ShapeElement{Set: set, Op: shapeOp(el.Op)}, nil
}

// compileComputedElement lowers a computed pointer.  Apart from mutations,
// the pointer need not exist in the schema, in which case a derived
// descriptor is synthesized for it.
func (p *compiler) compileComputedElement(subject *ir.Set, styp *schema.Type, el *ast.ShapeElement,
	fence *ir.ScopeTreeNode, mutation bool) (*ir.ShapeElement, []SyntaxError) {
	//
	branch := fence.AttachBranch()
	branch.SetUniqueId(p.env.AllocateScopeId())
	//
	value, errs := p.compileExpr(el.Value, branch)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	var ref ir.PtrRef
	//
	if ptr, ok := styp.Pointer(el.Name.Name); ok {
		ref = p.env.PointerRef(ptr)
	} else if mutation {
		return nil, p.errorAt(el.Name, "type '%s' has no pointer '%s'", styp.Name, el.Name.Name)
	} else {
		ref = derivedRef(styp, subject, value, el.Name.Name)
	}
	//
	set := &ir.Set{
		PathId:      subject.PathId.Extend(ref, ir.DirOutbound, nil),
		TypeRef:     value.TypeRef,
		Expr:        value,
		PathScopeId: branch.UniqueId(),
		RPtr: &ir.Pointer{
			Source:    subject,
			Ref:       ref,
			Direction: ir.DirOutbound,
			Expr:      value,
		},
	}
	p.register(set, el)
	//
	return &ir.ShapeElement{Set: set, Op: shapeOp(el.Op)}, nil
}

// derivedRef synthesizes the descriptor of a computed pointer absent from
// the schema.
func derivedRef(styp *schema.Type, subject *ir.Set, value *ir.Set, name string) *ir.PointerRef {
	qualified := fmt.Sprintf("%s.%s", styp.Name, name)
	//
	return &ir.PointerRef{
		BasePointerRef: ir.BasePointerRef{
			ID:             schema.NameToID(qualified),
			Name:           qualified,
			ShortName:      name,
			OutSource:      subject.TypeRef,
			OutTarget:      value.TypeRef,
			OutCardinality: ir.CardMany,
			IsComputable:   true,
			IsDerived:      true,
		},
	}
}

// shapeOp translates a surface shape operator.
func shapeOp(op ast.ShapeOp) ir.ShapeOp {
	switch op {
	case ast.ShapeAppend:
		return ir.ShapeAppend
	case ast.ShapeSubtract:
		return ir.ShapeSubtract
	default:
		return ir.ShapeAssign
	}
}
