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
	"fmt"

	"github.com/vinelang/go-vine/pkg/util/source/sexp"
)

// ============================================================================
// Names
// ============================================================================

// Ident is a bare name: a schema type, a binding introduced by an enclosing
// statement, or a pointer name within a shape.
type Ident struct {
	Name string
}

func (p *Ident) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *Ident) Lisp() sexp.SExp {
	return sexp.NewSymbol(p.Name)
}

// Param is a reference to a declared query parameter, e.g. $name.
type Param struct {
	// Name of the parameter, without the $ prefix.
	Name string
}

func (p *Param) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *Param) Lisp() sexp.SExp {
	return sexp.NewSymbol("$" + p.Name)
}

// TypeName names a schema type where the syntax demands one, e.g. the target
// of an insert or cast.
type TypeName struct {
	Name string
}

func (p *TypeName) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *TypeName) Lisp() sexp.SExp {
	return sexp.NewSymbol(p.Name)
}

// ============================================================================
// Literals
// ============================================================================

// IntLit is an integer literal, held in its lexical form.
type IntLit struct {
	Value string
}

func (p *IntLit) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *IntLit) Lisp() sexp.SExp {
	return sexp.NewSymbol(p.Value)
}

// FloatLit is a floating point literal, held in its lexical form.
type FloatLit struct {
	Value string
}

func (p *FloatLit) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *FloatLit) Lisp() sexp.SExp {
	return sexp.NewSymbol(p.Value)
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
}

func (p *BoolLit) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *BoolLit) Lisp() sexp.SExp {
	return sexp.NewSymbol(fmt.Sprintf("%t", p.Value))
}

// StringLit is a string literal, held with quotes and escapes removed.
type StringLit struct {
	Value string
}

func (p *StringLit) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *StringLit) Lisp() sexp.SExp {
	return sexp.NewSymbol(fmt.Sprintf("%q", p.Value))
}

// ============================================================================
// Sets and containers
// ============================================================================

// SetExpr is a set literal, e.g. (set 1 2 3) or {} for the empty set.
type SetExpr struct {
	Elements []Expr
}

func (p *SetExpr) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *SetExpr) Lisp() sexp.SExp {
	list := sexp.NewList([]sexp.SExp{sexp.NewSymbol("set")})
	//
	for _, el := range p.Elements {
		list.Append(el.Lisp())
	}
	//
	return list
}

// TupleExpr is a tuple constructor, positional or named.
type TupleExpr struct {
	Elements []*TupleItem
}

func (p *TupleExpr) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *TupleExpr) Lisp() sexp.SExp {
	list := sexp.NewList([]sexp.SExp{sexp.NewSymbol("tuple")})
	//
	for _, el := range p.Elements {
		if el.Name == nil {
			list.Append(el.Value.Lisp())
		} else {
			list.Append(sexp.NewList([]sexp.SExp{
				sexp.NewSymbol(":="), el.Name.Lisp(), el.Value.Lisp(),
			}))
		}
	}
	//
	return list
}

// TupleItem is a single element of a tuple constructor.
type TupleItem struct {
	// Name of the element, or nil for positional elements.
	Name *Ident
	// Value of the element.
	Value Expr
}

// Lisp converts this item into its lisp representation.
func (p *TupleItem) Lisp() sexp.SExp {
	if p.Name == nil {
		return p.Value.Lisp()
	}
	//
	return sexp.NewList([]sexp.SExp{sexp.NewSymbol(":="), p.Name.Lisp(), p.Value.Lisp()})
}

// ArrayExpr is an array constructor, e.g. (array 1 2 3) or [1 2 3].
type ArrayExpr struct {
	Elements []Expr
}

func (p *ArrayExpr) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *ArrayExpr) Lisp() sexp.SExp {
	var elements []sexp.SExp
	//
	for _, el := range p.Elements {
		elements = append(elements, el.Lisp())
	}
	//
	return sexp.NewArray(elements)
}

// Slice takes a subsequence of a string or array value.
type Slice struct {
	Expr  Expr
	Start Expr
	Stop  Expr
}

func (p *Slice) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *Slice) Lisp() sexp.SExp {
	return sexp.NewList([]sexp.SExp{
		sexp.NewSymbol("slice"), p.Expr.Lisp(), p.Start.Lisp(), p.Stop.Lisp(),
	})
}

// Index accesses one element of a string, array or JSON value.
type Index struct {
	Expr  Expr
	Index Expr
}

func (p *Index) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *Index) Lisp() sexp.SExp {
	return sexp.NewList([]sexp.SExp{sexp.NewSymbol("index"), p.Expr.Lisp(), p.Index.Lisp()})
}

// ============================================================================
// Paths
// ============================================================================

// StepKind distinguishes the flavours of path steps.
type StepKind uint8

const (
	// StepForward follows a pointer from source to target.
	StepForward StepKind = iota
	// StepBackward follows a pointer from target back to source.
	StepBackward
	// StepLinkProp accesses a property of the link arrived by.
	StepLinkProp
)

// Path is a pointer traversal starting from a base expression, e.g.
// (. User name) or (.< User owner).
type Path struct {
	// Base the traversal starts from.
	Base Expr
	// Steps of the traversal, in order.
	Steps []*PathStep
}

func (p *Path) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *Path) Lisp() sexp.SExp {
	head := "."
	//
	if len(p.Steps) > 0 {
		switch p.Steps[0].Kind {
		case StepBackward:
			head = ".<"
		case StepLinkProp:
			head = "@"
		}
	}
	//
	list := sexp.NewList([]sexp.SExp{sexp.NewSymbol(head), p.Base.Lisp()})
	//
	for _, step := range p.Steps {
		list.Append(sexp.NewSymbol(step.Name))
	}
	//
	return list
}

// PathStep is a single step of a path.
type PathStep struct {
	// Name of the pointer (or tuple element) being followed.
	Name string
	// Kind of traversal this step performs.
	Kind StepKind
}

// Lisp converts this step into its lisp representation.
func (p *PathStep) Lisp() sexp.SExp {
	return sexp.NewSymbol(p.Name)
}

// TypeIntersection narrows the base set to a given type, e.g.
// (.is (.< User owner) Post).
type TypeIntersection struct {
	// Base set being narrowed.
	Base Expr
	// Type being narrowed to.
	Type *TypeName
}

func (p *TypeIntersection) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *TypeIntersection) Lisp() sexp.SExp {
	return sexp.NewList([]sexp.SExp{sexp.NewSymbol(".is"), p.Base.Lisp(), p.Type.Lisp()})
}

// ============================================================================
// Calls and operators
// ============================================================================

// Call invokes a named function, e.g. (count (. User friends)).
type Call struct {
	// Name of the function being called.
	Name string
	// Args passed, in order.
	Args []Expr
}

func (p *Call) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *Call) Lisp() sexp.SExp {
	list := sexp.NewList([]sexp.SExp{sexp.NewSymbol(p.Name)})
	//
	for _, arg := range p.Args {
		list.Append(arg.Lisp())
	}
	//
	return list
}

// Operator applies a standard operator, e.g. (= (. User name) "alice").
type Operator struct {
	// Name is the surface symbol of the operator.
	Name string
	// Args passed, in order.
	Args []Expr
}

func (p *Operator) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *Operator) Lisp() sexp.SExp {
	list := sexp.NewList([]sexp.SExp{sexp.NewSymbol(p.Name)})
	//
	for _, arg := range p.Args {
		list.Append(arg.Lisp())
	}
	//
	return list
}

// If is the conditional expression (if cond then else).
type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (p *If) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *If) Lisp() sexp.SExp {
	return sexp.NewList([]sexp.SExp{
		sexp.NewSymbol("if"), p.Cond.Lisp(), p.Then.Lisp(), p.Else.Lisp(),
	})
}

// ============================================================================
// Type operations
// ============================================================================

// Cast converts a value to another type, e.g. (cast std::str 42).
type Cast struct {
	// Type being cast to.
	Type *TypeName
	// Expr being cast.
	Expr Expr
}

func (p *Cast) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *Cast) Lisp() sexp.SExp {
	return sexp.NewList([]sexp.SExp{sexp.NewSymbol("cast"), p.Type.Lisp(), p.Expr.Lisp()})
}

// TypeCheck tests whether a value is an instance of a type, e.g.
// (is x Post) or (is-not x Post).
type TypeCheck struct {
	// Expr being tested.
	Expr Expr
	// Type tested against.
	Type *TypeName
	// Negated distinguishes is-not from is.
	Negated bool
}

func (p *TypeCheck) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *TypeCheck) Lisp() sexp.SExp {
	head := "is"
	//
	if p.Negated {
		head = "is-not"
	}
	//
	return sexp.NewList([]sexp.SExp{sexp.NewSymbol(head), p.Expr.Lisp(), p.Type.Lisp()})
}

// Introspect produces the schema descriptor of a type, e.g.
// (introspect User).
type Introspect struct {
	// Type being introspected.
	Type *TypeName
}

func (p *Introspect) isExpr() {}

// Lisp converts this expression into its lisp representation.
func (p *Introspect) Lisp() sexp.SExp {
	return sexp.NewList([]sexp.SExp{sexp.NewSymbol("introspect"), p.Type.Lisp()})
}
