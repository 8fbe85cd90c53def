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
	"github.com/vinelang/go-vine/pkg/util/source"
)

var (
	multEmpty     = ir.MultiplicityInfo{Own: ir.MultEmpty}
	multUnique    = ir.MultiplicityInfo{Own: ir.MultUnique}
	multDuplicate = ir.MultiplicityInfo{Own: ir.MultDuplicate}
	// multDistinctUnion marks a unique set additionally known to be
	// disjoint between iterations of the governing iterator.
	multDistinctUnion = ir.MultiplicityInfo{Own: ir.MultUnique, DisjointUnion: true}
)

// InferMultiplicity determines whether the values produced by the given
// expression are pairwise distinct, validating computed shape elements
// along the way.  Results are memoized in the environment.
func InferMultiplicity(node ir.Node, scope *ir.ScopeTreeNode, env *Environment) (ir.MultiplicityInfo,
	*source.SyntaxError) {
	//
	p := multiplicityInferer{env}
	//
	return p.infer(node, scope, multContext{})
}

// multContext carries inference state threaded through the walk.
type multContext struct {
	// distinctIterator is the path of the nearest enclosing iterator known
	// to range over distinct values, if any.
	distinctIterator *ir.PathId
	// mutation is set while visiting the body of a mutation statement,
	// where shapes describe stored pointers rather than computed ones.
	mutation bool
}

// multiplicityInferer computes multiplicity bottom-up over the expression
// graph.  Cardinality is inferred along the way, since a singular
// expression is trivially free of duplicates.
type multiplicityInferer struct {
	// env holds the schema, caches and source maps for this compilation.
	env *Environment
}

func (p *multiplicityInferer) infer(n ir.Node, scope *ir.ScopeTreeNode, ctx multContext) (ir.MultiplicityInfo,
	*source.SyntaxError) {
	//
	key := multiplicityKey{n, scope, ctx.distinctIterator}
	if mult, ok := p.env.multiplicity[key]; ok {
		return mult, nil
	}
	//
	card, err := p.cardinality(n, scope)
	if err != nil {
		return multDuplicate, err
	}
	//
	var result ir.MultiplicityInfo
	//
	switch n := n.(type) {
	case *ir.EmptySet:
		result = multEmpty
	case *ir.Set:
		result, err = p.inferSet(n, scope, ctx)
	default:
		result, err = p.inferNode(n, scope, ctx)
	}
	//
	if err != nil {
		return multDuplicate, err
	}
	// Sub-expressions are validated by now, so a singular result can be
	// upgraded regardless of what the dispatch concluded.
	if card.IsSingle() && result.IsDuplicate() {
		result.Own = ir.MultUnique
	}
	//
	if !validMultiplicity(result.Own) {
		return multDuplicate, p.env.queryError(n,
			"could not determine the multiplicity of set produced by expression")
	}
	// Done
	p.env.multiplicity[key] = result
	//
	return result, nil
}

func (p *multiplicityInferer) inferNode(n ir.Node, scope *ir.ScopeTreeNode, ctx multContext) (ir.MultiplicityInfo,
	*source.SyntaxError) {
	switch n := n.(type) {
	case *ir.Constant:
		return multUnique, nil
	case *ir.ConstantSet:
		return p.inferConstantSet(n), nil
	case *ir.Parameter:
		return multUnique, nil
	case *ir.ClearedExpr:
		return multDuplicate, nil
	case *ir.TypeRef:
		return multUnique, nil
	case *ir.TypeIntrospection:
		return multUnique, nil
	case *ir.TriggerAnchor:
		return multUnique, nil
	case *ir.TypeCheckOp:
		if _, err := p.infer(n.Left, scope, ctx); err != nil {
			return multDuplicate, err
		}
		//
		return p.uniqueWhenSingle(n, scope)
	case *ir.TypeCast:
		return p.infer(n.Expr, scope, ctx)
	case *ir.TupleIndirection:
		return p.infer(n.Expr, scope, ctx)
	case *ir.SliceIndirection:
		return p.inferSubscript(n, scope, ctx, n.Expr, n.Start, n.Stop)
	case *ir.IndexIndirection:
		return p.inferSubscript(n, scope, ctx, n.Expr, n.Index)
	case *ir.Array:
		return p.inferArray(n, scope, ctx)
	case *ir.Tuple:
		return p.inferTuple(n, scope, ctx)
	case *ir.FTSDocument:
		return p.inferSubscript(n, scope, ctx, n.Text, n.Language)
	case *ir.FunctionCall:
		return p.inferFunctionCall(n, scope, ctx)
	case *ir.OperatorCall:
		return p.inferOperatorCall(n, scope, ctx)
	case *ir.SelectStmt:
		return p.inferSelect(n, scope, ctx)
	case *ir.InsertStmt:
		return p.inferInsert(n, scope, ctx)
	case *ir.UpdateStmt:
		return p.inferMutation(&n.MutatingStmt, scope, ctx)
	case *ir.DeleteStmt:
		return p.inferMutation(&n.MutatingStmt, scope, ctx)
	case *ir.GroupStmt:
		return p.inferGroup(n, scope, ctx)
	case *ir.Stmt:
		return p.stmtMultiplicity(n.Result, nil, n.Bindings, scope, ctx)
	case *ir.Statement:
		return p.infer(n.Expr, scope, ctx)
	case *ir.ConfigSet:
		return p.infer(n.Expr, scope, ctx)
	case *ir.ConfigInsert:
		return p.infer(n.Expr, scope, ctx)
	case *ir.ConfigReset:
		if n.Where != nil {
			if _, err := p.infer(n.Where, scope, ctx); err != nil {
				return multDuplicate, err
			}
		}
		//
		return multUnique, nil
	default:
		panic(fmt.Sprintf("unknown expression (%T)", n))
	}
}

// inferSet determines the multiplicity of a path step or wrapped
// sub-expression, then validates any shape attached to the set.  The result
// is cached before the shape walk so that self-referential shapes
// terminate.
func (p *multiplicityInferer) inferSet(set *ir.Set, scope *ir.ScopeTreeNode, ctx multContext) (ir.MultiplicityInfo,
	*source.SyntaxError) {
	//
	result, err := p.inferSetInner(set, scope, ctx)
	if err != nil {
		return result, err
	}
	//
	p.env.multiplicity[multiplicityKey{set, scope, ctx.distinctIterator}] = result
	// The shape does not affect multiplicity, but requires validation.
	if err := p.validateShape(set, scope, ctx); err != nil {
		return result, err
	}
	//
	return result, nil
}

func (p *multiplicityInferer) inferSetInner(set *ir.Set, scope *ir.ScopeTreeNode,
	ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	newScope := setScope(set, scope)
	//
	var (
		exprMult ir.MultiplicityInfo
		haveExpr bool
		result   ir.MultiplicityInfo
		err      *source.SyntaxError
	)
	//
	if set.Expr != nil {
		if exprMult, err = p.infer(set.Expr, newScope, ctx); err != nil {
			return multDuplicate, err
		}
		//
		haveExpr = true
	}
	//
	if rptr := set.RPtr; rptr != nil {
		if result, err = p.inferPointer(set, exprMult, haveExpr, newScope, ctx); err != nil {
			return multDuplicate, err
		}
	} else if haveExpr {
		result = exprMult
	} else {
		// A bare path root ranges over distinct objects.
		result = multUnique
	}
	// A unique set rooted at the governing iterator is disjoint between
	// iterations by construction.
	if !result.IsDuplicate() && ctx.distinctIterator != nil {
		if root := ir.GetPathRoot(set); root.PathId != nil && root.PathId.Equals(ctx.distinctIterator) {
			result.DisjointUnion = true
		}
	}
	// Freshly constructed free objects are trivially distinct from
	// everything else, until bound to a name.
	if ir.IsTrivialFreeObject(set) {
		result.FreshFreeObject = true
	}
	//
	if set.Binding == ir.BindWith && result.FreshFreeObject {
		result.FreshFreeObject = false
	}
	//
	return result, nil
}

// inferPointer determines the multiplicity of one pointer traversal.
// Object paths yield distinct objects, whilst property paths preserve
// whatever duplication their values have at the source.
func (p *multiplicityInferer) inferPointer(set *ir.Set, exprMult ir.MultiplicityInfo, haveExpr bool,
	scope *ir.ScopeTreeNode, ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	rptr := set.RPtr
	//
	if _, ok := rptr.Ref.(*ir.TupleIndirectionPointerRef); ok {
		srcMult, err := p.infer(rptr.Source, scope, ctx)
		if err != nil {
			return multDuplicate, err
		}
		// All bets are off for elements coming out of opaque tuples.
		if srcMult.Elements == nil {
			return multDuplicate, nil
		}
		//
		idx := ir.TupleElementIndex(rptr.Source.TypeRef, rptr.Ref.Base().UnqualifiedName())
		if idx < 0 || idx >= len(srcMult.Elements) {
			return multDuplicate, nil
		}
		//
		return srcMult.Elements[idx], nil
	} else if !ir.IsObjectType(set.TypeRef) {
		// A computed property evaluated once per visible source keeps
		// the multiplicity of its expression.  Stored properties admit
		// duplicates unless constrained exclusive.
		if haveExpr && rptr.Source.PathId != nil && scope.FindVisible(rptr.Source.PathId) != nil {
			return exprMult, nil
		} else if ptr := p.env.SchemaPointer(rptr.Ref); ptr != nil && ptr.HasExclusiveConstraint() {
			return multUnique, nil
		}
		//
		return multDuplicate, nil
	}
	//
	return multUnique, nil
}

// validateShape checks every computed element of a shape in turn, rejecting
// object-valued expressions which may contain duplicates.
func (p *multiplicityInferer) validateShape(set *ir.Set, scope *ir.ScopeTreeNode, ctx multContext) *source.SyntaxError {
	for _, el := range set.Shape {
		elScope := setScope(el.Set, scope)
		//
		if el.Set.Expr != nil && el.Set.PathId != nil && el.Set.PathId.IsObjectPath() {
			mult, err := p.infer(el.Set.Expr, elScope, ctx)
			if err != nil {
				return err
			}
			//
			if mult.IsDuplicate() && el.Op != ir.ShapeAppend && el.Op != ir.ShapeSubtract {
				return p.shapeError(el.Set, ctx)
			}
		}
		// Nested shapes require validation too.
		if err := p.validateShape(el.Set, scope, ctx); err != nil {
			return err
		}
	}
	//
	return nil
}

func (p *multiplicityInferer) shapeError(el *ir.Set, ctx multContext) *source.SyntaxError {
	desc := p.describePointer(el)
	if !ctx.mutation {
		desc = "computed " + desc
	}
	//
	err := p.env.queryError(el, fmt.Sprintf("possibly not a distinct set returned by an expression for a %s", desc))
	//
	return err.WithHint("You can use assert_distinct() around the expression to turn this into a runtime " +
		"assertion, or the DISTINCT operator to silently discard duplicate elements.")
}

// describePointer renders the pointer a shape element is bound to the way
// users refer to it.
func (p *multiplicityInferer) describePointer(el *ir.Set) string {
	var ref ir.PtrRef
	//
	if el.RPtr != nil {
		ref = el.RPtr.Ref
	} else if el.PathId != nil {
		ref = el.PathId.RPtr()
	}
	//
	if ref == nil {
		return "pointer"
	} else if ptr := p.env.SchemaPointer(ref); ptr != nil {
		return ptr.VerboseName()
	}
	//
	return fmt.Sprintf("pointer '%s'", ref.Base().UnqualifiedName())
}

// inferConstantSet checks whether a literal set can be proven duplicate
// free, which holds when every element is a literal and no two are equal.
func (p *multiplicityInferer) inferConstantSet(n *ir.ConstantSet) ir.MultiplicityInfo {
	seen := make(map[string]bool, len(n.Elements))
	//
	for _, el := range n.Elements {
		c, ok := el.(*ir.Constant)
		if !ok || seen[c.Value] {
			return multDuplicate
		}
		//
		seen[c.Value] = true
	}
	//
	return multUnique
}

// inferSubscript covers expressions which compute a single value from
// sub-parts, such as indexing: distinct only in the singular case.
func (p *multiplicityInferer) inferSubscript(n ir.Node, scope *ir.ScopeTreeNode, ctx multContext,
	parts ...*ir.Set) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	for _, part := range parts {
		if part == nil {
			continue
		}
		//
		if _, err := p.infer(part, scope, ctx); err != nil {
			return multDuplicate, err
		}
	}
	//
	return p.uniqueWhenSingle(n, scope)
}

func (p *multiplicityInferer) inferArray(n *ir.Array, scope *ir.ScopeTreeNode, ctx multContext) (ir.MultiplicityInfo,
	*source.SyntaxError) {
	//
	els := make([]ir.MultiplicityInfo, len(n.Elements))
	//
	for i, el := range n.Elements {
		mult, err := p.infer(el, scope, ctx)
		if err != nil {
			return multDuplicate, err
		}
		//
		els[i] = mult
	}
	//
	return maxMultiplicity(els...), nil
}

// inferTuple determines both the multiplicity of a tuple constructor and a
// per-element breakdown for later indirections.  The tuple itself is as
// duplicate prone as its worst element, but individual elements degrade
// once several elements vary: the cross product repeats each value of one
// element for every value of the others.
func (p *multiplicityInferer) inferTuple(tuple *ir.Tuple, scope *ir.ScopeTreeNode, ctx multContext) (ir.MultiplicityInfo,
	*source.SyntaxError) {
	//
	els := make([]ir.MultiplicityInfo, len(tuple.Elements))
	cards := make([]ir.Cardinality, len(tuple.Elements))
	numMulti := 0
	//
	for i, el := range tuple.Elements {
		mult, err := p.infer(el.Val, scope, ctx)
		if err != nil {
			return multDuplicate, err
		}
		//
		card, err := p.cardinality(el.Val, scope)
		if err != nil {
			return multDuplicate, err
		}
		//
		els[i], cards[i] = mult, card
		//
		if card.IsMulti() {
			numMulti++
		}
	}
	//
	own := maxMultiplicity(els...).Own
	adjusted := make([]ir.MultiplicityInfo, len(els))
	copy(adjusted, els)
	//
	switch {
	case numMulti > 1:
		for i := range adjusted {
			adjusted[i] = multDuplicate
		}
	case numMulti == 1:
		for i := range adjusted {
			if !cards[i].IsMulti() {
				adjusted[i] = multDuplicate
			}
		}
	}
	//
	return ir.MultiplicityInfo{Own: own, Elements: adjusted}, nil
}

// inferFunctionCall determines the multiplicity of a function application,
// recording the multiplicity of every argument in the environment along the
// way.  A handful of standard functions have stronger guarantees than the
// general case.
func (p *multiplicityInferer) inferFunctionCall(call *ir.FunctionCall, scope *ir.ScopeTreeNode,
	ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	args := make([]ir.MultiplicityInfo, len(call.Args))
	//
	for i, arg := range call.Args {
		mult, err := p.infer(arg.Expr, scope, ctx)
		if err != nil {
			return multDuplicate, err
		}
		//
		args[i] = mult
		p.env.ArgMultiplicity[arg] = mult
	}
	//
	card, err := p.cardinality(call, scope)
	if err != nil {
		return multDuplicate, err
	}
	//
	switch {
	case card.IsSingle():
		return multUnique, nil
	case call.FuncShortName == fnAssertDistinct:
		return multUnique, nil
	case call.FuncShortName == fnAssertExists && len(args) > 1:
		return args[1], nil
	case call.FuncShortName == fnEnumerate:
		// Tuples produced by enumeration are distinct thanks to their
		// counter element.
		elements := append([]ir.MultiplicityInfo{multUnique}, args...)
		//
		return ir.MultiplicityInfo{Own: ir.MultUnique, Elements: elements}, nil
	}
	// A callee returning a set could produce anything.
	return multDuplicate, nil
}

func (p *multiplicityInferer) inferOperatorCall(call *ir.OperatorCall, scope *ir.ScopeTreeNode,
	ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	switch call.Operator {
	case opUnion:
		return p.inferUnion(call, scope, ctx)
	case opExcept:
		// Removing elements cannot introduce duplicates into the first
		// operand.
		first, err := p.infer(call.Args[0].Expr, scope, ctx)
		if err != nil {
			return multDuplicate, err
		}
		//
		if _, err := p.infer(call.Args[1].Expr, scope, ctx); err != nil {
			return multDuplicate, err
		}
		//
		return first, nil
	case opIntersect:
		// The intersection keeps the fewest duplicates either operand
		// has.
		left, err := p.infer(call.Args[0].Expr, scope, ctx)
		if err != nil {
			return multDuplicate, err
		}
		//
		right, err := p.infer(call.Args[1].Expr, scope, ctx)
		if err != nil {
			return multDuplicate, err
		}
		//
		return minMultiplicity(left, right), nil
	case opDistinct:
		operand, err := p.infer(call.Args[0].Expr, scope, ctx)
		if err != nil {
			return multDuplicate, err
		} else if operand.IsEmpty() {
			return multEmpty, nil
		}
		//
		return multUnique, nil
	case opIf:
		return p.inferIf(call, scope, ctx)
	case opCoalesce:
		left, err := p.infer(call.Args[0].Expr, scope, ctx)
		if err != nil {
			return multDuplicate, err
		}
		//
		right, err := p.infer(call.Args[1].Expr, scope, ctx)
		if err != nil {
			return multDuplicate, err
		}
		//
		return maxMultiplicity(left, right), nil
	}
	// Remaining operators validate their operands like any call.
	for _, arg := range call.Args {
		mult, err := p.infer(arg.Expr, scope, ctx)
		if err != nil {
			return multDuplicate, err
		}
		//
		p.env.ArgMultiplicity[arg] = mult
	}
	//
	card, err := p.cardinality(call, scope)
	if err != nil {
		return multDuplicate, err
	} else if card.IsSingle() {
		return multUnique, nil
	}
	// Concatenation is injective, so its output is as distinct as its
	// inputs provided at most one side varies.
	if call.Operator == opConcat {
		return p.inferInjective(call, scope, ctx)
	}
	//
	return multDuplicate, nil
}

// inferUnion determines whether a union can be proven duplicate free, which
// holds only when every operand is and the operands are provably disjoint
// from one another.
func (p *multiplicityInferer) inferUnion(call *ir.OperatorCall, scope *ir.ScopeTreeNode,
	ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	disjointTypes := p.disjointOperandTypes(call)
	result := multEmpty
	//
	for _, arg := range call.Args {
		mult, err := p.infer(arg.Expr, scope, ctx)
		if err != nil {
			return multDuplicate, err
		}
		//
		p.env.ArgMultiplicity[arg] = mult
		//
		switch {
		case result.IsDuplicate() || mult.IsDuplicate():
			result = multDuplicate
		case mult.IsEmpty():
			// Contributes nothing.
		case result.IsEmpty():
			result = mult
		case disjointTypes || (result.DisjointUnion && mult.DisjointUnion):
			result = ir.MultiplicityInfo{
				Own:           ir.MultUnique,
				DisjointUnion: result.DisjointUnion && mult.DisjointUnion,
			}
		default:
			result = multDuplicate
		}
	}
	//
	return result, nil
}

// disjointOperandTypes checks whether the operands of a union denote object
// sets which cannot overlap: every operand must be object typed, and no
// type or descendant thereof may occur under two operands.
func (p *multiplicityInferer) disjointOperandTypes(call *ir.OperatorCall) bool {
	seen := make(map[uuid.UUID]bool)
	//
	for _, arg := range call.Args {
		typeref := arg.Expr.TypeRef
		if typeref == nil {
			return false
		}
		//
		for _, comp := range ir.UnionComponentRefs(typeref.Material()) {
			mat := comp.Material()
			if !ir.IsObjectType(mat) {
				return false
			}
			//
			styp, ok := p.env.Schema.TypeByID(mat.ID)
			if !ok {
				return false
			}
			//
			for _, desc := range append([]*schema.Type{styp}, styp.Descendants()...) {
				if seen[desc.ID] {
					return false
				}
				//
				seen[desc.ID] = true
			}
		}
	}
	//
	return true
}

// inferIf determines the multiplicity of a conditional.  With a singular
// condition exactly one branch is selected, so the worst branch bounds the
// result; otherwise elements from both branches mix.
func (p *multiplicityInferer) inferIf(call *ir.OperatorCall, scope *ir.ScopeTreeNode,
	ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	condCard, err := p.cardinality(call.Args[1].Expr, scope)
	if err != nil {
		return multDuplicate, err
	} else if condCard.IsMulti() {
		return multDuplicate, nil
	}
	//
	thenMult, err := p.infer(call.Args[0].Expr, scope, ctx)
	if err != nil {
		return multDuplicate, err
	}
	//
	elseMult, err := p.infer(call.Args[2].Expr, scope, ctx)
	if err != nil {
		return multDuplicate, err
	}
	//
	return maxMultiplicity(thenMult, elseMult), nil
}

func (p *multiplicityInferer) inferInjective(call *ir.OperatorCall, scope *ir.ScopeTreeNode,
	ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	numMulti := 0
	mults := make([]ir.MultiplicityInfo, len(call.Args))
	//
	for i, arg := range call.Args {
		card, err := p.cardinality(arg.Expr, scope)
		if err != nil {
			return multDuplicate, err
		} else if card.IsMulti() {
			numMulti++
		}
		//
		mults[i] = p.env.ArgMultiplicity[arg]
	}
	//
	if numMulti > 1 {
		return multDuplicate, nil
	}
	//
	return maxMultiplicity(mults...), nil
}

func (p *multiplicityInferer) inferSelect(stmt *ir.SelectStmt, scope *ir.ScopeTreeNode,
	ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	if stmt.CardInferenceOverride.IsKnown() {
		if stmt.CardInferenceOverride.IsSingle() {
			return multUnique, nil
		}
		//
		return multDuplicate, nil
	}
	//
	if stmt.Iterator != nil {
		return p.inferFor(stmt, scope, ctx)
	}
	//
	result, err := p.stmtMultiplicity(stmt.Result, stmt.Where, stmt.Bindings, scope, ctx)
	if err != nil {
		return result, err
	}
	// Paging and ordering clauses leave multiplicity unchanged, but still
	// require validation.
	clauses := append([]*ir.Set{stmt.Limit, stmt.Offset}, sortExprs(stmt.OrderBy)...)
	for _, clause := range clauses {
		if clause == nil {
			continue
		}
		//
		if _, err := p.infer(clause, setScope(clause, scope), ctx); err != nil {
			return result, err
		}
	}
	//
	return result, nil
}

// inferFor determines the multiplicity of an iterated statement.  The union
// of per-iteration results is unique only when the iterator itself is
// duplicate free and each iteration provably contributes a disjoint slice.
func (p *multiplicityInferer) inferFor(stmt *ir.SelectStmt, scope *ir.ScopeTreeNode,
	ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	itMult, err := p.infer(stmt.Iterator, scope, ctx)
	if err != nil {
		return multDuplicate, err
	}
	//
	var bodyMult ir.MultiplicityInfo
	//
	if !itMult.IsDuplicate() {
		bodyCtx := ctx
		// Only the innermost distinct iterator governs disjointness;
		// iterating a second distinct set inside voids the analysis.
		if ctx.distinctIterator == nil {
			bodyCtx.distinctIterator = stmt.Iterator.PathId
		} else {
			bodyCtx.distinctIterator = nil
		}
		//
		if bodyMult, err = p.infer(stmt.Result, scope, bodyCtx); err != nil {
			return multDuplicate, err
		}
	}
	// A union of inserts is always unique, whatever the iterator.
	if _, ok := stmt.Result.Expr.(*ir.InsertStmt); ok {
		return multUnique, nil
	} else if itMult.IsDuplicate() {
		return multDuplicate, nil
	} else if bodyMult.DisjointUnion || bodyMult.FreshFreeObject {
		return bodyMult, nil
	}
	//
	return multDuplicate, nil
}

// stmtMultiplicity determines the multiplicity of a statement subject after
// filtering.  A filter correlated with the governing distinct iterator
// proves disjointness between iterations.
func (p *multiplicityInferer) stmtMultiplicity(subject *ir.Set, where *ir.Set, bindings []*ir.Set,
	scope *ir.ScopeTreeNode, ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	// Bindings need not be unique themselves, but must be valid.
	for _, binding := range bindings {
		if _, err := p.infer(binding, scope, ctx); err != nil {
			return multDuplicate, err
		}
	}
	//
	result, err := p.infer(subject, scope, ctx)
	if err != nil || where == nil {
		return result, err
	}
	//
	if _, err := p.infer(where, scope, ctx); err != nil {
		return result, err
	}
	//
	c := cardinalityInferer{p.env}
	//
	filtered, err := c.extractFilters(subject, where, scope)
	if err != nil {
		return result, err
	}
	//
	for _, flt := range filtered {
		if ctx.distinctIterator == nil {
			break
		}
		//
		root := ir.GetPathRoot(flt.expr)
		if root.PathId == nil || !root.PathId.Equals(ctx.distinctIterator) {
			continue
		}
		//
		mult, err := p.infer(flt.expr, scope, ctx)
		if err != nil {
			return result, err
		} else if !mult.IsDuplicate() {
			return multDistinctUnion, nil
		}
	}
	//
	return result, nil
}

func (p *multiplicityInferer) inferInsert(stmt *ir.InsertStmt, scope *ir.ScopeTreeNode,
	ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	mutCtx := ctx
	mutCtx.mutation = true
	// An insert returns exactly the objects it creates, but its body
	// still requires validation.
	if _, err := p.infer(stmt.Subject, scope, mutCtx); err != nil {
		return multDuplicate, err
	}
	//
	if _, err := p.infer(stmt.Result, setScope(stmt.Result, scope), mutCtx); err != nil {
		return multDuplicate, err
	}
	//
	for _, binding := range stmt.Bindings {
		if _, err := p.infer(binding, scope, ctx); err != nil {
			return multDuplicate, err
		}
	}
	//
	if oc := stmt.OnConflict; oc != nil {
		if oc.Select != nil {
			if _, err := p.infer(oc.Select, scope, ctx); err != nil {
				return multDuplicate, err
			}
		}
		//
		if oc.Else != nil {
			if _, err := p.infer(oc.Else, scope, ctx); err != nil {
				return multDuplicate, err
			}
		}
	}
	//
	return multDistinctUnion, nil
}

// inferMutation covers updates and deletes, which return a subset of the
// objects their subject matched and hence cannot contain duplicates.
func (p *multiplicityInferer) inferMutation(stmt *ir.MutatingStmt, scope *ir.ScopeTreeNode,
	ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	mutCtx := ctx
	mutCtx.mutation = true
	//
	if _, err := p.infer(stmt.Result, scope, mutCtx); err != nil {
		return multDuplicate, err
	}
	//
	result, err := p.stmtMultiplicity(stmt.Subject, stmt.Where, stmt.Bindings, scope, ctx)
	if err != nil {
		return multDuplicate, err
	} else if result.IsEmpty() {
		return multEmpty, nil
	}
	//
	return multUnique, nil
}

func (p *multiplicityInferer) inferGroup(stmt *ir.GroupStmt, scope *ir.ScopeTreeNode,
	ctx multContext) (ir.MultiplicityInfo, *source.SyntaxError) {
	//
	if _, err := p.infer(stmt.Subject, scope, ctx); err != nil {
		return multDuplicate, err
	}
	//
	for _, using := range stmt.Using {
		if _, err := p.infer(using, scope, ctx); err != nil {
			return multDuplicate, err
		}
	}
	//
	result, err := p.stmtMultiplicity(stmt.Result, stmt.Where, stmt.Bindings, scope, ctx)
	if err != nil {
		return multDuplicate, err
	}
	//
	for _, clause := range sortExprs(stmt.OrderBy) {
		if _, err := p.infer(clause, setScope(clause, scope), ctx); err != nil {
			return multDuplicate, err
		}
	}
	// Each group is materialized as a fresh free object.
	if result.FreshFreeObject {
		return result, nil
	}
	//
	return multDuplicate, nil
}

// uniqueWhenSingle narrows to UNIQUE for expressions already known to be
// singular.
func (p *multiplicityInferer) uniqueWhenSingle(n ir.Node, scope *ir.ScopeTreeNode) (ir.MultiplicityInfo,
	*source.SyntaxError) {
	//
	card, err := p.cardinality(n, scope)
	if err != nil {
		return multDuplicate, err
	} else if card.IsSingle() {
		return multUnique, nil
	}
	//
	return multDuplicate, nil
}

func (p *multiplicityInferer) cardinality(n ir.Node, scope *ir.ScopeTreeNode) (ir.Cardinality, *source.SyntaxError) {
	c := cardinalityInferer{p.env}
	//
	return c.infer(n, scope)
}

// sortExprs projects the sort keys out of an ORDER BY clause.
func sortExprs(orderBy []*ir.SortExpr) []*ir.Set {
	exprs := make([]*ir.Set, len(orderBy))
	//
	for i, sort := range orderBy {
		exprs[i] = sort.Expr
	}
	//
	return exprs
}

// validMultiplicity checks an inference result narrowed to one of the three
// concrete answers.
func validMultiplicity(m ir.Multiplicity) bool {
	return m == ir.MultEmpty || m == ir.MultUnique || m == ir.MultDuplicate
}

// maxMultiplicity computes the upper bound of the given multiplicities,
// where EMPTY < UNIQUE < DUPLICATE.  Qualifying flags do not survive
// combination.
func maxMultiplicity(infos ...ir.MultiplicityInfo) ir.MultiplicityInfo {
	if len(infos) == 0 {
		return multUnique
	}
	//
	result := ir.MultEmpty
	//
	for _, info := range infos {
		if info.Own > result {
			result = info.Own
		}
	}
	//
	return ir.MultiplicityInfo{Own: result}
}

// minMultiplicity computes the lower bound of two multiplicities.
func minMultiplicity(l ir.MultiplicityInfo, r ir.MultiplicityInfo) ir.MultiplicityInfo {
	if r.Own < l.Own {
		return ir.MultiplicityInfo{Own: r.Own}
	}
	//
	return ir.MultiplicityInfo{Own: l.Own}
}
