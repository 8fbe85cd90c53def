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
	"strings"

	"github.com/vinelang/go-vine/pkg/ir"
	"github.com/vinelang/go-vine/pkg/schema"
	"github.com/vinelang/go-vine/pkg/vine/ast"
)

// compileExpr lowers an arbitrary expression into the set standing for it,
// dispatching over the (closed) surface taxonomy.
func (p *compiler) compileExpr(expr ast.Expr, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	switch e := expr.(type) {
	case *ast.Ident, *ast.Path, *ast.TypeIntersection:
		return p.compilePathAttached(expr, scope)
	case *ast.Param:
		return p.compileParam(e)
	case *ast.IntLit:
		return p.compileConstant(e.Value, "std::int64", e), nil
	case *ast.FloatLit:
		return p.compileConstant(e.Value, "std::float64", e), nil
	case *ast.BoolLit:
		return p.compileConstant(fmt.Sprintf("%t", e.Value), "std::bool", e), nil
	case *ast.StringLit:
		return p.compileConstant(e.Value, "std::str", e), nil
	case *ast.SetExpr:
		return p.compileSet(e, scope)
	case *ast.TupleExpr:
		return p.compileTuple(e, scope)
	case *ast.ArrayExpr:
		return p.compileArray(e, scope)
	case *ast.Slice:
		return p.compileSlice(e, scope)
	case *ast.Index:
		return p.compileIndex(e, scope)
	case *ast.Call:
		return p.compileCall(e, scope)
	case *ast.Operator:
		return p.compileOperator(e, scope)
	case *ast.If:
		return p.compileIf(e, scope)
	case *ast.Cast:
		return p.compileCast(e, scope)
	case *ast.TypeCheck:
		return p.compileTypeCheck(e, scope)
	case *ast.Introspect:
		return p.compileIntrospect(e, scope)
	case *ast.Select:
		return p.compileSelect(e, scope)
	case *ast.For:
		return p.compileFor(e, scope)
	case *ast.With:
		return p.compileWith(e, scope)
	case *ast.Insert:
		return p.compileInsert(e, scope)
	case *ast.Update:
		return p.compileUpdate(e, scope)
	case *ast.Delete:
		return p.compileDelete(e, scope)
	case *ast.Group:
		return p.compileGroup(e, scope)
	default:
		return nil, p.errorAt(expr, "unsupported expression")
	}
}

// scalarRef resolves a standard scalar type, which every loaded schema
// carries.
func (p *compiler) scalarRef(name string) *ir.TypeRef {
	styp, ok := p.env.Schema.Type(name)
	if !ok {
		panic(fmt.Sprintf("missing standard type %s", name))
	}
	//
	return p.env.TypeRef(styp)
}

// compileConstant lowers a literal.
func (p *compiler) compileConstant(value string, typeName string, from ast.Node) *ir.Set {
	ref := p.scalarRef(typeName)
	//
	return p.wrapExpr(&ir.Constant{Value: value, TypeRef: ref}, ref, from)
}

// compileParam lowers a parameter reference against its declaration.
func (p *compiler) compileParam(param *ast.Param) (*ir.Set, []SyntaxError) {
	decl, ok := p.params[param.Name]
	if !ok {
		return nil, p.errorAt(param, "unknown parameter '$%s'", param.Name)
	}
	//
	styp, ok := p.lookupType(decl.Type.Name)
	if !ok {
		return nil, p.errorAt(decl.Type, "unknown type '%s'", decl.Type.Name)
	}
	//
	ref := p.env.TypeRef(styp)
	node := &ir.Parameter{
		Name:     param.Name,
		Required: !decl.Optional,
		IsGlobal: decl.Global,
		TypeRef:  ref,
	}
	//
	return p.wrapExpr(node, ref, param), nil
}

// compileSet lowers a set literal.  A literal of constants stays a constant
// set; anything else folds into a chain of unions.
func (p *compiler) compileSet(set *ast.SetExpr, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	if len(set.Elements) == 0 {
		return nil, p.errorAt(set, "expression returns value of indeterminate type")
	}
	//
	var (
		sets []*ir.Set
		errs []SyntaxError
	)
	//
	for _, element := range set.Elements {
		compiled, eerrs := p.compileExpr(element, scope)
		if len(eerrs) > 0 {
			errs = append(errs, eerrs...)
			continue
		}
		//
		sets = append(sets, compiled)
	}
	//
	if len(errs) > 0 {
		return nil, errs
	}
	//
	constant := true
	for _, compiled := range sets {
		switch compiled.Expr.(type) {
		case *ir.Constant, *ir.Parameter:
		default:
			constant = false
		}
	}
	//
	if constant {
		elements := make([]ir.Node, len(sets))
		for i, compiled := range sets {
			elements[i] = compiled
		}
		//
		return p.wrapExpr(&ir.ConstantSet{Elements: elements}, sets[0].TypeRef, set), nil
	}
	//
	op := mustOperator("union", 2)
	result := sets[0]
	//
	for _, compiled := range sets[1:] {
		result = p.applyOperator(op, []*ir.Set{result, compiled}, set)
	}
	//
	return result, nil
}

// mustOperator resolves a standard operator the compiler itself lowers
// surface forms into.
func mustOperator(symbol string, arity int) *StdOperator {
	op, ok := LookupOperator(symbol, arity)
	if !ok {
		panic(fmt.Sprintf("missing standard operator %s/%d", symbol, arity))
	}
	//
	return op
}

// returnRef determines the type a call produces.  An empty return type
// propagates the last argument's type, which covers the polymorphic
// operators (arithmetic, concatenation, union, coalescing and
// conditionals all produce their last operand's type).
func (p *compiler) returnRef(name string, args []*ir.Set) *ir.TypeRef {
	if name == "" {
		return args[len(args)-1].TypeRef
	}
	//
	return p.scalarRef(name)
}

// applyOperator lowers one application of a standard operator over already
// compiled arguments.
func (p *compiler) applyOperator(op *StdOperator, args []*ir.Set, from ast.Node) *ir.Set {
	callArgs := make([]*ir.CallArg, len(args))
	for i, arg := range args {
		callArgs[i] = &ir.CallArg{Expr: arg, TypeMod: op.ArgMods[i]}
	}
	//
	typeRef := p.returnRef(op.ReturnType, args)
	node := &ir.OperatorCall{
		Call: ir.Call{
			Args:          callArgs,
			FuncShortName: op.Symbol,
			TypeRef:       typeRef,
			TypeMod:       op.ReturnMod,
			Volatility:    op.Volatility,
		},
		Operator: op.Name,
		Kind:     op.Kind,
	}
	//
	return p.wrapExpr(node, typeRef, from)
}

// compileArgs lowers a list of argument expressions, accumulating errors
// across all of them.
func (p *compiler) compileArgs(exprs []ast.Expr, scope *ir.ScopeTreeNode) ([]*ir.Set, []SyntaxError) {
	var (
		args []*ir.Set
		errs []SyntaxError
	)
	//
	for _, expr := range exprs {
		arg, aerrs := p.compileExpr(expr, scope)
		if len(aerrs) > 0 {
			errs = append(errs, aerrs...)
			continue
		}
		//
		args = append(args, arg)
	}
	//
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return args, nil
}

// compileOperator lowers an operator application.  Variadic surface forms
// of the binary operators fold left, except coalescing which associates to
// the right.
func (p *compiler) compileOperator(opExpr *ast.Operator, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	args, errs := p.compileArgs(opExpr.Args, scope)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if op, ok := LookupOperator(opExpr.Name, len(args)); ok {
		return p.applyOperator(op, args, opExpr), nil
	}
	//
	op, ok := LookupOperator(opExpr.Name, 2)
	if !ok || len(args) < 2 {
		return nil, p.errorAt(opExpr, "unknown operator '%s'", opExpr.Name)
	}
	//
	if op.Name == opCoalesce {
		result := args[len(args)-1]
		for i := len(args) - 2; i >= 0; i-- {
			result = p.applyOperator(op, []*ir.Set{args[i], result}, opExpr)
		}
		//
		return result, nil
	}
	//
	result := args[0]
	for _, arg := range args[1:] {
		result = p.applyOperator(op, []*ir.Set{result, arg}, opExpr)
	}
	//
	return result, nil
}

// compileIf lowers a conditional into the standard ternary, whose operand
// order is (then, cond, else).
func (p *compiler) compileIf(ifExpr *ast.If, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	args, errs := p.compileArgs([]ast.Expr{ifExpr.Then, ifExpr.Cond, ifExpr.Else}, scope)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return p.applyOperator(mustOperator("if", 3), args, ifExpr), nil
}

// shortName strips any namespace qualification from a function name.
func shortName(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}
	//
	return name
}

// compileCall lowers a function call against the standard registry.
func (p *compiler) compileCall(call *ast.Call, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	fn, ok := LookupFunction(shortName(call.Name))
	if !ok || (strings.Contains(call.Name, "::") && fn.Name != call.Name) {
		return nil, p.errorAt(call, "unknown function '%s'", call.Name)
	}
	//
	args, errs := p.compileArgs(call.Args, scope)
	if len(errs) > 0 {
		return nil, errs
	}
	// The assertions accept an optional leading message in surface syntax,
	// but their registered signature puts the message first.
	if fn.Name == fnAssertDistinct || fn.Name == fnAssertExists {
		switch len(args) {
		case 1:
			args = []*ir.Set{p.emptyStringSet(call), args[0]}
		case 2:
			args = []*ir.Set{args[1], args[0]}
		}
	}
	//
	if len(args) != len(fn.ArgMods) {
		return nil, p.errorAt(call, "wrong number of arguments for '%s'", fn.Name)
	}
	//
	callArgs := make([]*ir.CallArg, len(args))
	for i, arg := range args {
		callArgs[i] = &ir.CallArg{Expr: arg, TypeMod: fn.ArgMods[i]}
	}
	//
	typeRef := p.returnRef(fn.ReturnType, args)
	if fn.Name == fnEnumerate {
		typeRef = p.enumerateRef(args[0].TypeRef)
	}
	//
	node := &ir.FunctionCall{
		Call: ir.Call{
			Args:          callArgs,
			FuncShortName: fn.ShortName,
			TypeRef:       typeRef,
			TypeMod:       fn.ReturnMod,
			Volatility:    fn.Volatility,
		},
		FuncName: fn.Name,
	}
	//
	return p.wrapExpr(node, typeRef, call), nil
}

// emptyStringSet synthesizes the empty message the assertions default to.
func (p *compiler) emptyStringSet(from ast.Node) *ir.Set {
	strRef := p.scalarRef("std::str")
	//
	empty := &ir.EmptySet{}
	empty.PathId = ir.NewNamedPathId(strRef, p.freshName("expr"), nil)
	empty.TypeRef = strRef
	//
	return p.wrapExpr(empty, strRef, from)
}

// enumerateRef builds the pair type enumeration produces.
func (p *compiler) enumerateRef(element *ir.TypeRef) *ir.TypeRef {
	int64Ref := p.scalarRef("std::int64")
	name := fmt.Sprintf("tuple<%s, %s>", int64Ref.DisplayName(), element.DisplayName())
	//
	return &ir.TypeRef{
		ID:         schema.NameToID(name),
		Name:       name,
		Collection: "tuple",
		Subtypes:   []*ir.TypeRef{int64Ref, element},
	}
}

// compileTuple lowers a tuple literal.  Elements are all named or all
// positional.
func (p *compiler) compileTuple(tuple *ast.TupleExpr, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	named := len(tuple.Elements) > 0 && tuple.Elements[0].Name != nil
	//
	var (
		elements []*ir.TupleElement
		subtypes []*ir.TypeRef
		errs     []SyntaxError
	)
	//
	for _, item := range tuple.Elements {
		if (item.Name != nil) != named {
			errs = append(errs, *p.syntaxError(item, "cannot mix named and positional tuple elements"))
			continue
		}
		//
		value, verrs := p.compileExpr(item.Value, scope)
		if len(verrs) > 0 {
			errs = append(errs, verrs...)
			continue
		}
		//
		element := &ir.TupleElement{Val: value}
		sub := value.TypeRef
		//
		if named {
			element.Name = item.Name.Name
			// Copy before naming, since the ref may be shared.
			copied := *value.TypeRef
			copied.ElementName = item.Name.Name
			sub = &copied
		}
		//
		elements = append(elements, element)
		subtypes = append(subtypes, sub)
	}
	//
	if len(errs) > 0 {
		return nil, errs
	}
	//
	typeRef := tupleRef(subtypes)
	//
	return p.wrapExpr(&ir.Tuple{Named: named, Elements: elements, TypeRef: typeRef}, typeRef, tuple), nil
}

// tupleRef builds the structural type of a tuple from its element types.
func tupleRef(subtypes []*ir.TypeRef) *ir.TypeRef {
	parts := make([]string, len(subtypes))
	//
	for i, sub := range subtypes {
		if sub.ElementName != "" {
			parts[i] = fmt.Sprintf("%s: %s", sub.ElementName, sub.DisplayName())
		} else {
			parts[i] = sub.DisplayName()
		}
	}
	//
	name := fmt.Sprintf("tuple<%s>", strings.Join(parts, ", "))
	//
	return &ir.TypeRef{
		ID:         schema.NameToID(name),
		Name:       name,
		Collection: "tuple",
		Subtypes:   subtypes,
	}
}

// compileArray lowers an array literal.
func (p *compiler) compileArray(array *ast.ArrayExpr, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	if len(array.Elements) == 0 {
		return nil, p.errorAt(array, "expression returns value of indeterminate type")
	}
	//
	elements, errs := p.compileArgs(array.Elements, scope)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	element := elements[0].TypeRef
	name := fmt.Sprintf("array<%s>", element.DisplayName())
	typeRef := &ir.TypeRef{
		ID:         schema.NameToID(name),
		Name:       name,
		Collection: "array",
		Subtypes:   []*ir.TypeRef{element},
	}
	//
	return p.wrapExpr(&ir.Array{Elements: elements, TypeRef: typeRef}, typeRef, array), nil
}

// compileSlice lowers a slice over a string, bytes or array value.
func (p *compiler) compileSlice(slice *ast.Slice, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	inner, errs := p.compileExpr(slice.Expr, scope)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	node := &ir.SliceIndirection{Expr: inner}
	//
	if slice.Start != nil {
		if node.Start, errs = p.compileExpr(slice.Start, scope); len(errs) > 0 {
			return nil, errs
		}
	}
	//
	if slice.Stop != nil {
		if node.Stop, errs = p.compileExpr(slice.Stop, scope); len(errs) > 0 {
			return nil, errs
		}
	}
	//
	return p.wrapExpr(node, inner.TypeRef, slice), nil
}

// indexable determines whether values of a type support indexing.
func indexable(ref *ir.TypeRef) bool {
	if ir.IsArrayType(ref) {
		return true
	}
	//
	switch ref.Material().Name {
	case "std::str", "std::bytes", "std::json":
		return true
	}
	//
	return false
}

// compileIndex lowers an element access.  Indexing an array produces its
// element type; strings, bytes and json produce themselves.
func (p *compiler) compileIndex(index *ast.Index, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	inner, errs := p.compileExpr(index.Expr, scope)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	idx, errs := p.compileExpr(index.Index, scope)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	typeRef := inner.TypeRef
	//
	if ir.IsArrayType(typeRef) {
		typeRef = typeRef.Subtypes[0]
	} else if !indexable(typeRef) {
		return nil, p.errorAt(index, "cannot index a value of type '%s'", typeRef.DisplayName())
	}
	//
	return p.wrapExpr(&ir.IndexIndirection{Expr: inner, Index: idx}, typeRef, index), nil
}

// compileCast lowers a type cast.  Casting an empty literal is the
// canonical spelling of a typed empty set.
func (p *compiler) compileCast(cast *ast.Cast, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	styp, ok := p.lookupType(cast.Type.Name)
	if !ok {
		return nil, p.errorAt(cast.Type, "unknown type '%s'", cast.Type.Name)
	}
	//
	ref := p.env.TypeRef(styp)
	//
	if set, ok := cast.Expr.(*ast.SetExpr); ok && len(set.Elements) == 0 {
		empty := &ir.EmptySet{}
		empty.PathId = ir.NewNamedPathId(ref, p.freshName("expr"), nil)
		empty.TypeRef = ref
		//
		return p.wrapExpr(empty, ref, cast), nil
	}
	//
	inner, errs := p.compileExpr(cast.Expr, scope)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return p.wrapExpr(&ir.TypeCast{Expr: inner, ToType: ref}, ref, cast), nil
}

// compileTypeCheck lowers a type test.
func (p *compiler) compileTypeCheck(check *ast.TypeCheck, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	inner, errs := p.compileExpr(check.Expr, scope)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	styp, ok := p.lookupType(check.Type.Name)
	if !ok {
		return nil, p.errorAt(check.Type, "unknown type '%s'", check.Type.Name)
	}
	//
	node := &ir.TypeCheckOp{
		Left:    inner,
		Right:   p.env.TypeRef(styp),
		Negated: check.Negated,
	}
	//
	return p.wrapExpr(node, p.scalarRef("std::bool"), check), nil
}

// compileIntrospect lowers a type introspection, whose result is modelled
// as a free object describing the type.
func (p *compiler) compileIntrospect(intro *ast.Introspect, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	styp, ok := p.lookupType(intro.Type.Name)
	if !ok {
		return nil, p.errorAt(intro.Type, "unknown type '%s'", intro.Type.Name)
	}
	//
	freeType, _ := p.env.Schema.Type(schema.FreeObjectName)
	node := &ir.TypeIntrospection{Output: p.env.TypeRef(styp)}
	//
	return p.wrapExpr(node, p.env.TypeRef(freeType), intro), nil
}
