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
package ast

import (
	"github.com/vinelang/go-vine/pkg/util/source/sexp"
)

// Node is implemented by every element of the surface syntax tree.  The
// taxonomy is closed: the compiler dispatches over it with exhaustive type
// switches, and every node is registered in the source map by the parser.
type Node interface {
	// Convert this node into its lisp representation.  This is primarily used
	// for debugging purposes.
	Lisp() sexp.SExp
}

// Expr is implemented by all expression forms, statements included (any
// statement can appear nested as a subquery).
type Expr interface {
	Node
	isExpr()
}

// Statement is implemented by the expression forms which may also stand on
// their own at the top level of a script.
type Statement interface {
	Expr
	isStatement()
}

// Script is the parsed form of one source file: zero or more parameter
// declarations followed by zero or more statements.
type Script struct {
	// Params declared for the statements of this script.
	Params []*ParamDecl
	// Statements of this script, in source order.
	Statements []Statement
}

// ParamDecl declares a single externally supplied query parameter.
type ParamDecl struct {
	// Name of the parameter, without the $ prefix.
	Name *Ident
	// Type of the parameter.
	Type *TypeName
	// Optional parameters may be passed an empty set.
	Optional bool
	// Global marks session-global parameters.
	Global bool
}

// Lisp converts this declaration into its lisp representation.
func (p *ParamDecl) Lisp() sexp.SExp {
	elements := []sexp.SExp{p.Name.Lisp(), p.Type.Lisp()}
	//
	if p.Optional {
		elements = append(elements, sexp.NewSymbol(":optional"))
	}
	//
	if p.Global {
		elements = append(elements, sexp.NewSymbol(":global"))
	}
	//
	return sexp.NewList(elements)
}

// ============================================================================
// Select
// ============================================================================

// Select is a select statement, e.g. (select User :filter ... :limit 1).
type Select struct {
	// Result is the expression being selected.
	Result Expr
	// Shape projected over the result, if any.
	Shape []*ShapeElement
	// Filter condition, if any.
	Filter Expr
	// OrderBy keys, if any.
	OrderBy []*SortKey
	// Offset clause, if any.
	Offset Expr
	// Limit clause, if any.
	Limit Expr
	// Implicit marks selects synthesized around a bare expression rather
	// than written by the user.
	Implicit bool
}

func (p *Select) isExpr()      {}
func (p *Select) isStatement() {}

// Lisp converts this statement into its lisp representation.
func (p *Select) Lisp() sexp.SExp {
	list := sexp.NewList([]sexp.SExp{sexp.NewSymbol("select"), p.Result.Lisp()})
	//
	appendShape(list, ":shape", p.Shape)
	appendClause(list, ":filter", p.Filter)
	appendOrder(list, p.OrderBy)
	appendClause(list, ":offset", p.Offset)
	appendClause(list, ":limit", p.Limit)
	//
	return list
}

// SortKey is a single ordering key of a select or delete statement.
type SortKey struct {
	// Key expression to order by.
	Key Expr
	// Descending inverts the default ascending order.
	Descending bool
}

// Lisp converts this key into its lisp representation.
func (p *SortKey) Lisp() sexp.SExp {
	if p.Descending {
		return sexp.NewList([]sexp.SExp{sexp.NewSymbol("desc"), p.Key.Lisp()})
	}
	//
	return p.Key.Lisp()
}

// ============================================================================
// For
// ============================================================================

// For is an iteration statement, e.g. (for x (set 1 2 3) (+ x 1)).
type For struct {
	// Name of the iterator variable.
	Name *Ident
	// Iterator is the set being iterated.
	Iterator Expr
	// Body evaluated once per iterator element.
	Body Expr
}

func (p *For) isExpr()      {}
func (p *For) isStatement() {}

// Lisp converts this statement into its lisp representation.
func (p *For) Lisp() sexp.SExp {
	return sexp.NewList([]sexp.SExp{
		sexp.NewSymbol("for"), p.Name.Lisp(), p.Iterator.Lisp(), p.Body.Lisp(),
	})
}

// ============================================================================
// With
// ============================================================================

// With introduces named bindings over a body expression, e.g.
// (with ((x (select User))) (count x)).
type With struct {
	// Bindings introduced, in declaration order.
	Bindings []*Alias
	// Body evaluated with the bindings in scope.
	Body Expr
}

func (p *With) isExpr()      {}
func (p *With) isStatement() {}

// Lisp converts this statement into its lisp representation.
func (p *With) Lisp() sexp.SExp {
	bindings := sexp.EmptyList()
	//
	for _, b := range p.Bindings {
		bindings.Append(b.Lisp())
	}
	//
	return sexp.NewList([]sexp.SExp{sexp.NewSymbol("with"), bindings, p.Body.Lisp()})
}

// Alias binds a name to an expression within a with or group statement.
type Alias struct {
	// Name being bound.
	Name *Ident
	// Value the name is bound to.
	Value Expr
}

// Lisp converts this binding into its lisp representation.
func (p *Alias) Lisp() sexp.SExp {
	return sexp.NewList([]sexp.SExp{p.Name.Lisp(), p.Value.Lisp()})
}

// ============================================================================
// Insert
// ============================================================================

// Insert is an insert statement, e.g. (insert User :shape ((:= name "bob"))).
type Insert struct {
	// Target type being inserted.
	Target *TypeName
	// Shape assigning the pointers of the new object.
	Shape []*ShapeElement
	// Conflict is the unless-conflict clause, if any.
	Conflict *OnConflict
}

func (p *Insert) isExpr()      {}
func (p *Insert) isStatement() {}

// Lisp converts this statement into its lisp representation.
func (p *Insert) Lisp() sexp.SExp {
	list := sexp.NewList([]sexp.SExp{sexp.NewSymbol("insert"), p.Target.Lisp()})
	//
	appendShape(list, ":shape", p.Shape)
	//
	if p.Conflict != nil {
		list.Append(sexp.NewSymbol(":unless-conflict"))
		list.Append(p.Conflict.Lisp())
	}
	//
	return list
}

// OnConflict is the unless-conflict clause of an insert statement.
type OnConflict struct {
	// On selects the pointer checked for conflicts, if any.
	On Expr
	// Else computes the result when a conflict occurs, if any.
	Else Expr
}

// Lisp converts this clause into its lisp representation.
func (p *OnConflict) Lisp() sexp.SExp {
	list := sexp.EmptyList()
	//
	if p.On != nil {
		list.Append(p.On.Lisp())
	}
	//
	if p.Else != nil {
		list.Append(p.Else.Lisp())
	}
	//
	return list
}

// ============================================================================
// Update
// ============================================================================

// Update is an update statement, e.g.
// (update User :filter (= (. User name) "x") :set ((:= name "y"))).
type Update struct {
	// Subject being updated.
	Subject Expr
	// Filter condition, if any.
	Filter Expr
	// Shape assigning the pointers being updated.
	Shape []*ShapeElement
}

func (p *Update) isExpr()      {}
func (p *Update) isStatement() {}

// Lisp converts this statement into its lisp representation.
func (p *Update) Lisp() sexp.SExp {
	list := sexp.NewList([]sexp.SExp{sexp.NewSymbol("update"), p.Subject.Lisp()})
	//
	appendClause(list, ":filter", p.Filter)
	appendShape(list, ":set", p.Shape)
	//
	return list
}

// ============================================================================
// Delete
// ============================================================================

// Delete is a delete statement, e.g. (delete User :filter ...).
type Delete struct {
	// Subject being deleted.
	Subject Expr
	// Filter condition, if any.
	Filter Expr
	// OrderBy keys, if any.
	OrderBy []*SortKey
	// Offset clause, if any.
	Offset Expr
	// Limit clause, if any.
	Limit Expr
}

func (p *Delete) isExpr()      {}
func (p *Delete) isStatement() {}

// Lisp converts this statement into its lisp representation.
func (p *Delete) Lisp() sexp.SExp {
	list := sexp.NewList([]sexp.SExp{sexp.NewSymbol("delete"), p.Subject.Lisp()})
	//
	appendClause(list, ":filter", p.Filter)
	appendOrder(list, p.OrderBy)
	appendClause(list, ":offset", p.Offset)
	appendClause(list, ":limit", p.Limit)
	//
	return list
}

// ============================================================================
// Group
// ============================================================================

// Group is a grouping statement, e.g.
// (group User :using ((l (len (. User name)))) :by (l)).
type Group struct {
	// Subject being grouped.
	Subject Expr
	// Using holds the grouping key bindings.
	Using []*Alias
	// By names the keys to group by.
	By []*Ident
}

func (p *Group) isExpr()      {}
func (p *Group) isStatement() {}

// Lisp converts this statement into its lisp representation.
func (p *Group) Lisp() sexp.SExp {
	list := sexp.NewList([]sexp.SExp{sexp.NewSymbol("group"), p.Subject.Lisp()})
	//
	if len(p.Using) > 0 {
		using := sexp.EmptyList()
		//
		for _, alias := range p.Using {
			using.Append(alias.Lisp())
		}
		//
		list.Append(sexp.NewSymbol(":using"))
		list.Append(using)
	}
	//
	if len(p.By) > 0 {
		by := sexp.EmptyList()
		//
		for _, key := range p.By {
			by.Append(key.Lisp())
		}
		//
		list.Append(sexp.NewSymbol(":by"))
		list.Append(by)
	}
	//
	return list
}

// ============================================================================
// Shapes
// ============================================================================

// ShapeOp determines how a shape element combines with the pointer it names.
type ShapeOp uint8

const (
	// ShapeGet fetches the existing value of the pointer.
	ShapeGet ShapeOp = iota
	// ShapeAssign overwrites the pointer with the element value.
	ShapeAssign
	// ShapeAppend adds the element value to the pointer.
	ShapeAppend
	// ShapeSubtract removes the element value from the pointer.
	ShapeSubtract
)

func (p ShapeOp) String() string {
	switch p {
	case ShapeAssign:
		return ":="
	case ShapeAppend:
		return "+="
	case ShapeSubtract:
		return "-="
	}
	//
	return ""
}

// ShapeElement is one element of a shape: a plain pointer fetch (optionally
// with a nested shape), or a computed pointer built from an expression.
type ShapeElement struct {
	// Name of the pointer this element targets.
	Name *Ident
	// Op determines how the element combines with the pointer.
	Op ShapeOp
	// Value computing the element, or nil for a plain fetch.
	Value Expr
	// Shape nested below a plain link fetch, if any.
	Shape []*ShapeElement
}

// Lisp converts this element into its lisp representation.
func (p *ShapeElement) Lisp() sexp.SExp {
	switch {
	case p.Value != nil:
		return sexp.NewList([]sexp.SExp{
			sexp.NewSymbol(p.Op.String()), p.Name.Lisp(), p.Value.Lisp(),
		})
	case len(p.Shape) > 0:
		nested := sexp.EmptyList()
		//
		for _, el := range p.Shape {
			nested.Append(el.Lisp())
		}
		//
		return sexp.NewList([]sexp.SExp{p.Name.Lisp(), nested})
	}
	//
	return p.Name.Lisp()
}

// ============================================================================
// Helpers
// ============================================================================

func appendClause(list *sexp.List, keyword string, clause Expr) {
	if clause != nil {
		list.Append(sexp.NewSymbol(keyword))
		list.Append(clause.Lisp())
	}
}

func appendShape(list *sexp.List, keyword string, shape []*ShapeElement) {
	if len(shape) == 0 {
		return
	}
	//
	elements := sexp.EmptyList()
	//
	for _, el := range shape {
		elements.Append(el.Lisp())
	}
	//
	list.Append(sexp.NewSymbol(keyword))
	list.Append(elements)
}

func appendOrder(list *sexp.List, keys []*SortKey) {
	if len(keys) == 0 {
		return
	}
	//
	order := sexp.EmptyList()
	//
	for _, key := range keys {
		order.Append(key.Lisp())
	}
	//
	list.Append(sexp.NewSymbol(":order"))
	list.Append(order)
}
