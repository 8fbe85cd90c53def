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

// Node is implemented by all expression forms of the intermediate
// representation.  The taxonomy is closed: inference passes dispatch over it
// with exhaustive type switches, and an unrecognized form reaching such a
// switch is an internal error rather than something to recover from.
type Node interface {
	isNode()
}

// ============================================================================
// Sets
// ============================================================================

// BindingKind records how a set came to be bound to a name, if at all.
type BindingKind uint8

const (
	// BindNone marks a set which is not a binding.
	BindNone BindingKind = iota
	// BindWith marks a set bound by a WITH clause.
	BindWith
	// BindFor marks a set bound as a FOR iterator variable.
	BindFor
	// BindSelect marks a set bound implicitly by a SELECT clause.
	BindSelect
	// BindSchema marks a set bound by a schema-defined computed pointer.
	BindSchema
)

func (p BindingKind) String() string {
	switch p {
	case BindNone:
		return "none"
	case BindWith:
		return "with"
	case BindFor:
		return "for"
	case BindSelect:
		return "select"
	case BindSchema:
		return "schema"
	}
	//
	return "?"
}

// ShapeOp determines how a shape element combines with the pointer it
// targets.
type ShapeOp uint8

const (
	// ShapeAssign overwrites the target pointer with the element value.
	ShapeAssign ShapeOp = iota
	// ShapeAppend adds the element value to the target pointer.
	ShapeAppend
	// ShapeSubtract removes the element value from the target pointer.
	ShapeSubtract
	// ShapeMaterialize marks an element injected for materialization rather
	// than written by the user.
	ShapeMaterialize
)

// Set is the central node of the representation: every expression is wrapped
// in a Set carrying the identity of the value it produces.  Exactly which of
// the optional fields are populated determines its meaning: a pointer
// traversal has RPtr, a computed expression has Expr, and a bare type root
// has neither.
type Set struct {
	// PathId is the identity of this set.
	PathId *PathId
	// TypeRef is the type of the values this set produces.  It is always
	// populated on well-formed input.
	TypeRef *TypeRef
	// Expr is the expression computing this set, if any.
	Expr Node
	// RPtr records the pointer traversal producing this set, if any.
	RPtr *Pointer
	// Shape are the projected elements of an object-typed set.
	Shape []*ShapeElement
	// PathScopeId keys the scope tree node governing the evaluation of Expr,
	// or zero when this set introduces no scope of its own.
	PathScopeId int
	// Binding records whether (and how) this set is a named binding.
	Binding BindingKind
}

func (p *Set) isNode() {}

// EmptySet is the explicitly empty set, e.g. an empty literal or an elided
// optional argument.
type EmptySet struct {
	Set
}

// ShapeElement is one projected pointer of an object shape.  The element set
// carries the pointer being targeted as its RPtr, and the computing
// expression (when the element is not a plain pointer reference) as its Expr.
type ShapeElement struct {
	// Set holding the element value.
	Set *Set
	// Op determines how the value combines with the target pointer.
	Op ShapeOp
}

// Pointer records a single pointer traversal: the source set the traversal
// starts from, the pointer followed and its direction.  For computed
// pointers, Expr holds the computing expression.
type Pointer struct {
	// Source is the set this traversal starts from.
	Source *Set
	// Ref identifies the pointer being followed.
	Ref PtrRef
	// Direction of the traversal.
	Direction Direction
	// Expr is the expression computing this pointer, if any.
	Expr Node
	// SchemaComputed marks pointers whose computing expression is defined in
	// the schema rather than the query.
	SchemaComputed bool
}

// ============================================================================
// Primary expressions
// ============================================================================

// Constant is a literal scalar value, held in its lexical form.
type Constant struct {
	// Value is the lexical form of the literal.
	Value string
	// TypeRef is the scalar type of the literal.
	TypeRef *TypeRef
}

func (p *Constant) isNode() {}

// ConstantSet is a literal set of constants (or parameters), e.g. {1, 2, 3}.
type ConstantSet struct {
	Elements []Node
}

func (p *ConstantSet) isNode() {}

// Parameter is a reference to an externally supplied query parameter or
// global.
type Parameter struct {
	// Name of the parameter.
	Name string
	// Required parameters cannot be passed an empty set.
	Required bool
	// IsGlobal marks query-global parameters.
	IsGlobal bool
	// TypeRef is the declared type of the parameter.
	TypeRef *TypeRef
}

func (p *Parameter) isNode() {}

// ClearedExpr is the placeholder left where an expression was erased after
// being computed elsewhere.  Nothing about the original expression can be
// recovered from it.
type ClearedExpr struct {
	TypeRef *TypeRef
}

func (p *ClearedExpr) isNode() {}

// TriggerAnchor references the affected-row set of an enclosing trigger.
type TriggerAnchor struct {
	TypeRef *TypeRef
}

func (p *TriggerAnchor) isNode() {}

// TypeIntrospection produces the schema descriptor of a type.
type TypeIntrospection struct {
	// Output is the introspected type.
	Output *TypeRef
}

func (p *TypeIntrospection) isNode() {}

func (p *TypeRef) isNode() {}

// ============================================================================
// Containers and indirection
// ============================================================================

// Tuple is a tuple constructor.
type Tuple struct {
	// Named distinguishes (a := 1, b := 2) from (1, 2).
	Named bool
	// Elements of the tuple, in declaration order.
	Elements []*TupleElement
	// TypeRef is the resulting tuple type.
	TypeRef *TypeRef
}

func (p *Tuple) isNode() {}

// TupleElement is a single element of a tuple constructor.
type TupleElement struct {
	// Name of the element (empty for positional elements).
	Name string
	// Val holds the element value.
	Val *Set
}

// Array is an array constructor.
type Array struct {
	Elements []*Set
	TypeRef  *TypeRef
}

func (p *Array) isNode() {}

// TupleIndirection accesses a single element of a tuple-valued expression.
type TupleIndirection struct {
	// Expr is the tuple being accessed.
	Expr *Set
	// Name of the element being accessed.
	Name string
}

func (p *TupleIndirection) isNode() {}

// SliceIndirection takes a subsequence of a string or array value.
type SliceIndirection struct {
	Expr  *Set
	Start *Set
	Stop  *Set
}

func (p *SliceIndirection) isNode() {}

// IndexIndirection accesses one element of a string, array or JSON value.
type IndexIndirection struct {
	Expr  *Set
	Index *Set
}

func (p *IndexIndirection) isNode() {}

// ============================================================================
// Type operations
// ============================================================================

// TypeCheckOp tests whether a value is an instance of a type (IS / IS NOT).
type TypeCheckOp struct {
	// Left is the expression being tested.
	Left *Set
	// Right is the type being tested against.
	Right *TypeRef
	// Negated distinguishes IS NOT from IS.
	Negated bool
}

func (p *TypeCheckOp) isNode() {}

// TypeCast converts a value to another type.
type TypeCast struct {
	// Expr is the expression being cast.
	Expr *Set
	// ToType is the type being cast to.
	ToType *TypeRef
}

func (p *TypeCast) isNode() {}

// ============================================================================
// Calls
// ============================================================================

// TypeModifier describes how a call treats one of its argument (or return)
// positions with respect to set-valued inputs.
type TypeModifier uint8

const (
	// ModSingleton positions receive exactly one value.
	ModSingleton TypeModifier = iota
	// ModOptional positions receive at most one value.
	ModOptional
	// ModSetOf positions receive a whole set at once.
	ModSetOf
)

func (p TypeModifier) String() string {
	switch p {
	case ModSingleton:
		return "singleton"
	case ModOptional:
		return "optional"
	case ModSetOf:
		return "set of"
	}
	//
	return "?"
}

// OperatorKind distinguishes the syntactic forms an operator can take.
type OperatorKind uint8

const (
	// Infix operators sit between two operands.
	Infix OperatorKind = iota
	// Prefix operators precede a single operand.
	Prefix
	// Ternary operators take three operands (IF / ELSE).
	Ternary
)

// CallArg is one argument of a function or operator call.  Inferred
// cardinality and multiplicity of arguments are recorded out-of-band in the
// analysis environment rather than on the argument itself, keeping the
// representation immutable once built.
type CallArg struct {
	// Expr holds the argument value.
	Expr *Set
	// TypeMod is the declared modifier of this argument position.
	TypeMod TypeModifier
}

// Call carries the parts common to function and operator calls.  The
// signature facts needed by analysis (type modifiers, declared volatility)
// are resolved against the standard library when the call is built, so the
// call is self-contained thereafter.
type Call struct {
	// Args are the call arguments, in signature order.
	Args []*CallArg
	// FuncShortName is the unqualified name of the callee.
	FuncShortName string
	// TypeRef is the return type.
	TypeRef *TypeRef
	// TypeMod is the declared modifier of the return.
	TypeMod TypeModifier
	// Volatility declared for (or inferred from the body of) the callee.
	Volatility Volatility
	// Body is the inlined body of the callee, when it has one.
	Body *Set
}

// FunctionCall is a call to a named function.
type FunctionCall struct {
	Call
	// FuncName is the qualified name of the function.
	FuncName string
}

func (p *FunctionCall) isNode() {}

// OperatorCall is a use of an infix, prefix or ternary operator.
type OperatorCall struct {
	Call
	// Operator is the qualified operator name, e.g. "std::=".
	Operator string
	// Kind is the syntactic form of the operator.
	Kind OperatorKind
}

func (p *OperatorCall) isNode() {}

// ============================================================================
// Statements
// ============================================================================

// Stmt carries the parts common to all statement forms.
type Stmt struct {
	// Result is the set produced by this statement.
	Result *Set
	// Cardinality already known for this statement from the schema, if any.
	// When known it is authoritative and inference does not recompute it.
	Cardinality Cardinality
	// Iterator is the FOR iterator binding, if any.
	Iterator *Set
	// Bindings introduced by WITH clauses of this statement.
	Bindings []*Set
}

func (p *Stmt) isNode() {}

// FilteredStmt is a statement with an optional filter clause.
type FilteredStmt struct {
	Stmt
	// Where is the filter clause, if any.
	Where *Set
}

// SortExpr is a single ORDER BY key.
type SortExpr struct {
	// Expr is the sort key.
	Expr *Set
	// Descending inverts the default ascending order.
	Descending bool
}

// SelectStmt is a SELECT (or FOR ... UNION) statement.
type SelectStmt struct {
	FilteredStmt
	// OrderBy keys, if any.
	OrderBy []*SortExpr
	// Offset clause, if any.
	Offset *Set
	// Limit clause, if any.
	Limit *Set
	// ImplicitWrapper marks statements synthesized around an expression
	// rather than written by the user.
	ImplicitWrapper bool
	// CardInferenceOverride forces the inferred cardinality of this
	// statement, taking precedence over all analysis.  Used by internal
	// rewrites which know more than the statement's structure shows.
	CardInferenceOverride Cardinality
}

// GroupStmt is a GROUP statement.
type GroupStmt struct {
	FilteredStmt
	// Subject is the set being grouped.
	Subject *Set
	// Using holds the grouping key bindings.
	Using []*Set
	// OrderBy keys, if any.
	OrderBy []*SortExpr
}

// MutatingStmt carries the parts common to INSERT, UPDATE and DELETE.
type MutatingStmt struct {
	FilteredStmt
	// Subject is the set being mutated.
	Subject *Set
}

// OnConflictClause is the UNLESS CONFLICT clause of an INSERT.
type OnConflictClause struct {
	// Select computes the conflicting set.
	Select *Set
	// Else computes the result when a conflict occurs, if any.
	Else *Set
}

// InsertStmt is an INSERT statement.
type InsertStmt struct {
	MutatingStmt
	// OnConflict is the UNLESS CONFLICT clause, if any.
	OnConflict *OnConflictClause
}

// UpdateStmt is an UPDATE statement.
type UpdateStmt struct {
	MutatingStmt
}

// DeleteStmt is a DELETE statement.
type DeleteStmt struct {
	MutatingStmt
}

// ============================================================================
// Session configuration
// ============================================================================

// ConfigSet assigns a session configuration setting.
type ConfigSet struct {
	// Name of the setting.
	Name string
	// Expr computes the new value.
	Expr *Set
}

func (p *ConfigSet) isNode() {}

// ConfigReset restores a session configuration setting to its default.
type ConfigReset struct {
	// Name of the setting.
	Name string
	// Where selects which config objects to reset, if any.
	Where *Set
}

func (p *ConfigReset) isNode() {}

// ConfigInsert inserts a configuration object.
type ConfigInsert struct {
	// Name of the setting.
	Name string
	// Expr computes the inserted object.
	Expr *Set
}

func (p *ConfigInsert) isNode() {}

// ============================================================================
// Top level
// ============================================================================

// Statement is the top-level wrapper around one fully compiled query.
type Statement struct {
	// Expr is the compiled query body.
	Expr *Set
	// ScopeTree is the root of the scope tree built alongside Expr.
	ScopeTree *ScopeTreeNode
	// Cardinality of the overall result, as determined by inference.
	Cardinality Cardinality
	// Multiplicity of the overall result, as determined by inference.
	Multiplicity MultiplicityInfo
	// Volatility of the overall query, as determined by inference.
	Volatility VolatilityInfo
}

func (p *Statement) isNode() {}

// FTSDocument wraps an expression indexed for full-text search, together
// with its language.
type FTSDocument struct {
	// Text being indexed.
	Text *Set
	// Language of the text.
	Language *Set
}

func (p *FTSDocument) isNode() {}
