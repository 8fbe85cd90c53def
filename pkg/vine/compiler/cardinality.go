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

	"github.com/vinelang/go-vine/pkg/ir"
	"github.com/vinelang/go-vine/pkg/util/source"
)

// InferCardinality determines an upper bound on the number of values the
// given expression can produce: exactly one, or possibly many.  Results are
// memoized in the environment per (node, scope) pair, hence repeated queries
// against the same environment are cheap.
func InferCardinality(node ir.Node, scope *ir.ScopeTreeNode, env *Environment) (ir.Cardinality,
	*source.SyntaxError) {
	//
	p := cardinalityInferer{env}
	//
	return p.infer(node, scope)
}

// cardinalityInferer computes cardinality bottom-up over the expression
// graph, consulting scope visibility for path references.
type cardinalityInferer struct {
	// env holds the schema, caches and source maps for this compilation.
	env *Environment
}

func (p *cardinalityInferer) infer(n ir.Node, scope *ir.ScopeTreeNode) (ir.Cardinality, *source.SyntaxError) {
	key := cardinalityKey{n, scope}
	if card, ok := p.env.cardinality[key]; ok {
		return card, nil
	}
	//
	card, err := p.inferNode(n, scope)
	// Every inferred cardinality must narrow to one of the two concrete
	// answers before anything downstream may rely on it.
	if err != nil {
		return ir.CardUnknown, err
	} else if card != ir.CardOne && card != ir.CardMany {
		return ir.CardUnknown, p.env.queryError(n,
			"could not determine the cardinality of set produced by expression")
	}
	// Done
	p.env.cardinality[key] = card
	//
	return card, nil
}

func (p *cardinalityInferer) inferNode(n ir.Node, scope *ir.ScopeTreeNode) (ir.Cardinality, *source.SyntaxError) {
	switch n := n.(type) {
	case *ir.EmptySet:
		return ir.CardOne, nil
	case *ir.Set:
		return p.inferSet(n, scope)
	case *ir.Constant:
		return ir.CardOne, nil
	case *ir.ConstantSet:
		if len(n.Elements) == 1 {
			return ir.CardOne, nil
		}
		//
		return ir.CardMany, nil
	case *ir.Parameter:
		return ir.CardOne, nil
	case *ir.ClearedExpr:
		return ir.CardMany, nil
	case *ir.TypeRef:
		return ir.CardOne, nil
	case *ir.TypeIntrospection:
		return ir.CardOne, nil
	case *ir.TriggerAnchor:
		return ir.CardMany, nil
	case *ir.TypeCheckOp:
		return p.infer(n.Left, scope)
	case *ir.TypeCast:
		return p.infer(n.Expr, scope)
	case *ir.TupleIndirection:
		return p.infer(n.Expr, scope)
	case *ir.SliceIndirection:
		return p.inferParts(scope, n.Expr, n.Start, n.Stop)
	case *ir.IndexIndirection:
		return p.inferParts(scope, n.Expr, n.Index)
	case *ir.Array:
		return p.inferParts(scope, n.Elements...)
	case *ir.Tuple:
		parts := make([]*ir.Set, len(n.Elements))
		for i, el := range n.Elements {
			parts[i] = el.Val
		}
		//
		return p.inferParts(scope, parts...)
	case *ir.FTSDocument:
		return p.inferParts(scope, n.Text, n.Language)
	case *ir.FunctionCall:
		return p.inferCall(&n.Call, scope)
	case *ir.OperatorCall:
		return p.inferOperator(n, scope)
	case *ir.SelectStmt:
		return p.inferSelect(n, scope)
	case *ir.InsertStmt:
		return p.inferInsert(n, scope)
	case *ir.UpdateStmt:
		return p.inferUpdate(n, scope)
	case *ir.DeleteStmt:
		return p.inferDelete(n, scope)
	case *ir.GroupStmt:
		return p.inferStmt(&n.Stmt, scope)
	case *ir.Stmt:
		return p.inferStmt(n, scope)
	case *ir.Statement:
		return p.infer(n.Expr, scope)
	case *ir.ConfigSet:
		return p.infer(n.Expr, scope)
	case *ir.ConfigReset:
		return ir.CardOne, nil
	case *ir.ConfigInsert:
		return p.infer(n.Expr, scope)
	default:
		panic(fmt.Sprintf("unknown expression (%T)", n))
	}
}

// inferSet determines the cardinality of a path step or wrapped
// sub-expression.  Visible paths are singular since each binding in scope
// denotes exactly one value at a time.
func (p *cardinalityInferer) inferSet(set *ir.Set, scope *ir.ScopeTreeNode) (ir.Cardinality, *source.SyntaxError) {
	if p.isVisible(set.PathId, scope) {
		return ir.CardOne, nil
	}
	// Expressions evaluate under the scope their set was registered with,
	// not necessarily the scope it is referenced from.
	newScope := setScope(set, scope)
	//
	if rptr := set.RPtr; rptr != nil {
		if ir.IsTypeIntersectionRef(rptr.Ref) {
			return p.inferTypeIntersection(set, newScope)
		}
		// A singular pointer yields at most one target per source, so
		// the source bounds the result.
		if dirCardinality(rptr.Ref, rptr.Direction).IsSingle() {
			return p.infer(rptr.Source, newScope)
		}
		//
		return ir.CardMany, nil
	} else if set.Expr != nil {
		return p.infer(set.Expr, newScope)
	}
	// A bare path root ranges over every object of its type.
	return ir.CardMany, nil
}

// inferTypeIntersection determines the cardinality of a path step through
// one or more type intersections, e.g. a backlink narrowed to a subtype.
func (p *cardinalityInferer) inferTypeIntersection(set *ir.Set, scope *ir.ScopeTreeNode) (ir.Cardinality,
	*source.SyntaxError) {
	//
	prefix, ptrs := ir.CollapseTypeIntersection(set)
	// A prefix which is not itself a pointer traversal is inferred by the
	// normal machinery.
	if prefix.RPtr == nil {
		return p.infer(prefix, scope)
	} else if p.isVisible(prefix.PathId, scope) {
		return ir.CardOne, nil
	}
	// The intersection narrows a pointer which may be a union of concrete
	// links, so every specialization it can resolve to must be singular.
	for _, ptr := range ptrs {
		iref, ok := ptr.Ref.(*ir.TypeIntersectionPointerRef)
		if !ok {
			continue
		}
		//
		for _, spec := range iref.RPtrSpecialization {
			if !spec.DirCardinality(prefix.RPtr.Direction).IsSingle() {
				return ir.CardMany, nil
			}
		}
	}
	//
	return p.infer(prefix.RPtr.Source, scope)
}

// inferCall determines the cardinality of a function or operator
// application.  Arguments declared SET OF are aggregated by the callee and
// do not contribute; the cardinality of every argument is recorded in the
// environment along the way.
func (p *cardinalityInferer) inferCall(call *ir.Call, scope *ir.ScopeTreeNode) (ir.Cardinality, *source.SyntaxError) {
	result := ir.CardOne
	//
	for _, arg := range call.Args {
		card, err := p.infer(arg.Expr, scope)
		if err != nil {
			return ir.CardUnknown, err
		}
		//
		p.env.ArgCardinality[arg] = card
		//
		if arg.TypeMod != ir.ModSetOf {
			result = maxCardinality(result, card)
		}
	}
	// A callee returning SET OF may produce any number of values
	// regardless of its inputs.
	if call.TypeMod == ir.ModSetOf {
		return ir.CardMany, nil
	}
	//
	return result, nil
}

func (p *cardinalityInferer) inferOperator(call *ir.OperatorCall, scope *ir.ScopeTreeNode) (ir.Cardinality,
	*source.SyntaxError) {
	//
	card, err := p.inferCall(&call.Call, scope)
	if err != nil {
		return ir.CardUnknown, err
	}
	// A union produces as many values as all operands combined.
	if call.Operator == opUnion {
		return ir.CardMany, nil
	}
	//
	return card, nil
}

// inferStmt handles statements with no dedicated analysis: a pre-computed
// cardinality is authoritative, otherwise the statement produces whatever
// its result clause produces.
func (p *cardinalityInferer) inferStmt(stmt *ir.Stmt, scope *ir.ScopeTreeNode) (ir.Cardinality, *source.SyntaxError) {
	if stmt.Cardinality.IsKnown() {
		return stmt.Cardinality, nil
	}
	//
	return p.infer(stmt.Result, scope)
}

func (p *cardinalityInferer) inferSelect(stmt *ir.SelectStmt, scope *ir.ScopeTreeNode) (ir.Cardinality,
	*source.SyntaxError) {
	//
	if stmt.CardInferenceOverride.IsKnown() {
		return stmt.CardInferenceOverride, nil
	} else if stmt.Cardinality.IsKnown() {
		return stmt.Cardinality, nil
	}
	//
	var (
		card ir.Cardinality
		err  *source.SyntaxError
	)
	// An explicit LIMIT 1 clause pins the result to at most one value.
	if limitsToOne(stmt.Limit) {
		card = ir.CardOne
	} else if card, err = p.inferFilteredStmt(stmt.Result, stmt.Where, scope); err != nil {
		return ir.CardUnknown, err
	}
	//
	return p.maxWithIterator(card, stmt.Iterator, scope)
}

func (p *cardinalityInferer) inferInsert(stmt *ir.InsertStmt, scope *ir.ScopeTreeNode) (ir.Cardinality,
	*source.SyntaxError) {
	//
	if stmt.Cardinality.IsKnown() {
		return stmt.Cardinality, nil
	}
	// Each iteration inserts exactly one object.
	if stmt.Iterator != nil {
		return p.infer(stmt.Iterator, scope)
	}
	//
	return ir.CardOne, nil
}

func (p *cardinalityInferer) inferUpdate(stmt *ir.UpdateStmt, scope *ir.ScopeTreeNode) (ir.Cardinality,
	*source.SyntaxError) {
	//
	if stmt.Cardinality.IsKnown() {
		return stmt.Cardinality, nil
	}
	//
	card, err := p.inferFilteredStmt(stmt.Subject, stmt.Where, scope)
	if err != nil {
		return ir.CardUnknown, err
	}
	//
	return p.maxWithIterator(card, stmt.Iterator, scope)
}

func (p *cardinalityInferer) inferDelete(stmt *ir.DeleteStmt, scope *ir.ScopeTreeNode) (ir.Cardinality,
	*source.SyntaxError) {
	//
	if stmt.Cardinality.IsKnown() {
		return stmt.Cardinality, nil
	}
	//
	card, err := p.inferFilteredStmt(stmt.Subject, nil, scope)
	if err != nil {
		return ir.CardUnknown, err
	}
	//
	return p.maxWithIterator(card, stmt.Iterator, scope)
}

// inferFilteredStmt determines the cardinality of a statement's subject
// combined with its filter clause.  A filter can restrict a multi-valued
// subject down to a single value when it pins an exclusive pointer.
func (p *cardinalityInferer) inferFilteredStmt(subject *ir.Set, where *ir.Set,
	scope *ir.ScopeTreeNode) (ir.Cardinality, *source.SyntaxError) {
	//
	card, err := p.infer(subject, scope)
	if err != nil {
		return ir.CardUnknown, err
	} else if card == ir.CardOne || where == nil {
		return card, nil
	}
	//
	filtered, err := p.extractFilters(subject, where, scope)
	if err != nil {
		return ir.CardUnknown, err
	}
	// An equality over any exclusive pointer (or over the subject's own
	// identity) matches at most one subject.
	for _, flt := range filtered {
		if p.exclusivePointer(flt.ref) {
			return ir.CardOne, nil
		}
	}
	//
	return ir.CardMany, nil
}

// maxWithIterator folds the cardinality of an optional iterator clause into
// a statement's own, since the statement body runs once per iteration.
func (p *cardinalityInferer) maxWithIterator(card ir.Cardinality, iterator *ir.Set,
	scope *ir.ScopeTreeNode) (ir.Cardinality, *source.SyntaxError) {
	//
	if iterator == nil {
		return card, nil
	}
	//
	itCard, err := p.infer(iterator, scope)
	if err != nil {
		return ir.CardUnknown, err
	}
	//
	return maxCardinality(card, itCard), nil
}

// inferParts determines the combined cardinality of a group of sub-parts,
// which is singular exactly when every part is.
func (p *cardinalityInferer) inferParts(scope *ir.ScopeTreeNode, parts ...*ir.Set) (ir.Cardinality,
	*source.SyntaxError) {
	//
	result := ir.CardOne
	//
	for _, part := range parts {
		if part == nil {
			continue
		}
		//
		card, err := p.infer(part, scope)
		if err != nil {
			return ir.CardUnknown, err
		}
		//
		result = maxCardinality(result, card)
	}
	//
	return result, nil
}

// isVisible reports whether a path is in scope at the given node, either
// via the scope tree or the ambient singleton assumptions.
func (p *cardinalityInferer) isVisible(pathID *ir.PathId, scope *ir.ScopeTreeNode) bool {
	if pathID == nil {
		return false
	}
	//
	return p.env.Singletons.Contains(pathID) || scope.IsVisible(pathID)
}

// exclusivePointer checks whether an equality test over the given pointer
// identifies at most one source object.  A nil ref denotes a test against
// the subject itself.
func (p *cardinalityInferer) exclusivePointer(ref ir.PtrRef) bool {
	if ref == nil {
		return true
	}
	//
	ptr := p.env.SchemaPointer(ref)
	//
	return ptr != nil && (ptr.IsID() || ptr.HasExclusiveConstraint())
}

// filteredPointer pairs a pointer pinned by an equality filter with the
// expression it is compared against.
type filteredPointer struct {
	// ref is the pointer being constrained, or nil when the filter
	// constrains the subject itself.
	ref ir.PtrRef
	// expr is the other side of the equality.
	expr *ir.Set
}

// extractFilters walks a filter clause looking for equality tests which pin
// a pointer of the statement subject to a single value.  Conjunctions
// contribute the filters of both operands; anything else contributes none.
func (p *cardinalityInferer) extractFilters(subject *ir.Set, where *ir.Set,
	scope *ir.ScopeTreeNode) ([]filteredPointer, *source.SyntaxError) {
	//
	expr := where.Expr
	// Look through one level of implicit wrapping.
	if sel, ok := expr.(*ir.SelectStmt); ok && sel.ImplicitWrapper {
		expr = sel.Result.Expr
	}
	//
	op, ok := expr.(*ir.OperatorCall)
	if !ok || len(op.Args) != 2 {
		return nil, nil
	}
	//
	switch op.Operator {
	case opEquals:
		return p.extractComparison(subject, op.Args[0].Expr, op.Args[1].Expr, scope)
	case opAnd:
		left, err := p.extractFilters(subject, op.Args[0].Expr, scope)
		if err != nil {
			return nil, err
		}
		//
		right, err := p.extractFilters(subject, op.Args[1].Expr, scope)
		if err != nil {
			return nil, err
		}
		//
		return append(left, right...), nil
	}
	//
	return nil, nil
}

// extractComparison matches a single equality test against the subject,
// trying the test both ways around.
func (p *cardinalityInferer) extractComparison(subject *ir.Set, left *ir.Set, right *ir.Set,
	scope *ir.ScopeTreeNode) ([]filteredPointer, *source.SyntaxError) {
	//
	if ref, ok := pinnedPointer(subject, left); ok {
		return p.checkPinned(ref, right, scope)
	} else if ref, ok := pinnedPointer(subject, right); ok {
		return p.checkPinned(ref, left, scope)
	}
	//
	return nil, nil
}

// pinnedPointer determines whether one side of an equality directly
// references the subject or one of its pointers, yielding the pointer being
// pinned (nil for the subject itself).
func pinnedPointer(subject *ir.Set, side *ir.Set) (ir.PtrRef, bool) {
	if subject.PathId == nil || side.PathId == nil {
		return nil, false
	} else if side.PathId.Equals(subject.PathId) {
		return nil, true
	} else if side.RPtr != nil && side.RPtr.Source.PathId != nil &&
		side.RPtr.Source.PathId.Equals(subject.PathId) {
		//
		return side.RPtr.Ref, true
	}
	//
	return nil, false
}

// checkPinned admits a pinned pointer only when the value it is compared
// against is itself singular.
func (p *cardinalityInferer) checkPinned(ref ir.PtrRef, value *ir.Set,
	scope *ir.ScopeTreeNode) ([]filteredPointer, *source.SyntaxError) {
	//
	card, err := p.infer(value, scope)
	if err != nil {
		return nil, err
	} else if card != ir.CardOne {
		return nil, nil
	}
	//
	return []filteredPointer{{ref, value}}, nil
}

// dirCardinality determines traversal cardinality for a pointer in a given
// direction.  A pointer which is itself a union of concrete pointers is
// singular exactly when every component is, since any specific source
// object traverses just one component.
func dirCardinality(ref ir.PtrRef, direction ir.Direction) ir.Cardinality {
	base := ref.Base()
	//
	if len(base.UnionComponents) > 0 {
		for _, comp := range base.UnionComponents {
			if !comp.Base().DirCardinality(direction).IsSingle() {
				return ir.CardMany
			}
		}
		//
		return ir.CardOne
	}
	//
	return base.DirCardinality(direction)
}

// limitsToOne checks for a literal LIMIT 1 clause.
func limitsToOne(limit *ir.Set) bool {
	if limit == nil {
		return false
	}
	//
	c, ok := limit.Expr.(*ir.Constant)
	//
	return ok && c.Value == "1"
}

// maxCardinality computes the upper bound of two cardinalities.
func maxCardinality(l ir.Cardinality, r ir.Cardinality) ir.Cardinality {
	if l.IsMulti() || r.IsMulti() {
		return ir.CardMany
	}
	//
	return ir.CardOne
}
