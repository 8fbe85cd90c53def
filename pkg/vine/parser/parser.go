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
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/vinelang/go-vine/pkg/util/source"
	"github.com/vinelang/go-vine/pkg/util/source/sexp"
	"github.com/vinelang/go-vine/pkg/vine/ast"
)

// SyntaxError is raised for malformed query text.
type SyntaxError = source.SyntaxError

// ===================================================================
// Public
// ===================================================================

// ParseSourceFile parses the contents of a single query file into a script:
// zero or more parameter declarations followed by zero or more statements.  A
// bare expression at the top level is wrapped into an implicit select
// statement.  Every node of the resulting tree is registered in the returned
// source map.
func ParseSourceFile(srcfile *source.File) (*ast.Script, *source.Map[ast.Node], []SyntaxError) {
	var (
		script ast.Script
		errors []SyntaxError
	)
	// Parse bytes into S-expressions
	terms, srcmap, err := sexp.ParseAll(srcfile)
	// Check the file parsed ok
	if err != nil {
		return &script, nil, []SyntaxError{*err}
	}
	// Construct parser for the query syntax
	p := NewParser(srcfile, srcmap)
	//
	for _, term := range terms {
		if l := term.AsList(); l != nil && l.MatchSymbols(1, "params") {
			decls, errs := p.parseParams(l)
			//
			script.Params = append(script.Params, decls...)
			errors = append(errors, errs...)
			//
			continue
		}
		//
		stmt, errs := p.parseStatement(term)
		//
		if len(errs) > 0 {
			errors = append(errors, errs...)
			continue
		}
		//
		script.Statements = append(script.Statements, stmt)
	}
	//
	if len(errors) > 0 {
		return &script, nil, errors
	}
	//
	return &script, p.NodeMap(), nil
}

// ParseString parses query text not backed by a file on disk.
func ParseString(text string) (*ast.Script, *source.Map[ast.Node], []SyntaxError) {
	return ParseSourceFile(source.NewSourceFile("<query>", []byte(text)))
}

// ===================================================================
// Parser
// ===================================================================

// Parser implements a parser for the query language.  The parser itself is
// relatively simplistic and simply packages up the relevant lisp constructs
// into their corresponding AST forms.  This can fail in various ways, such as
// e.g. a for statement not having exactly three arguments, etc.  However, the
// parser does not attempt to perform more complex forms of validation (e.g.
// ensuring that names resolve against the schema, etc) --- that is left up to
// the compiler.
type Parser struct {
	// Translator used for recursive expressions.
	translator *sexp.Translator[ast.Expr]
	// Mapping from constructed AST nodes to their spans in the original text.
	nodemap *source.Map[ast.Node]
}

// NewParser constructs a new parser using a given mapping from S-Expressions
// to spans in the underlying source file.
func NewParser(srcfile *source.File, srcmap *source.Map[sexp.SExp]) *Parser {
	t := sexp.NewTranslator[ast.Expr](srcfile, srcmap)
	// Construct (initially empty) node map
	nodemap := source.NewSourceMap[ast.Node](srcmap.Source())
	// Construct parser
	parser := &Parser{t, nodemap}
	// Literals and names
	t.AddSymbolRule(literalParserRule)
	t.AddSymbolRule(nameParserRule)
	// Statement forms
	t.AddListRule("select", selectParserRule(parser))
	t.AddListRule("for", forParserRule(parser))
	t.AddListRule("with", withParserRule(parser))
	t.AddListRule("insert", insertParserRule(parser))
	t.AddListRule("update", updateParserRule(parser))
	t.AddListRule("delete", deleteParserRule(parser))
	t.AddListRule("group", groupParserRule(parser))
	// Paths
	t.AddListRule(".", pathParserRule(parser, ast.StepForward))
	t.AddListRule(".<", pathParserRule(parser, ast.StepBackward))
	t.AddListRule("@", pathParserRule(parser, ast.StepLinkProp))
	t.AddListRule(".is", intersectionParserRule(parser))
	// Type operations
	t.AddListRule("cast", castParserRule(parser))
	t.AddListRule("is", typeCheckParserRule(parser, false))
	t.AddListRule("is-not", typeCheckParserRule(parser, true))
	t.AddListRule("introspect", introspectParserRule(parser))
	// Containers and control
	t.AddListRule("tuple", tupleParserRule(parser))
	t.AddRecursiveListRule("set", setParserRule)
	t.AddRecursiveListRule("array", arrayParserRule)
	t.AddRecursiveListRule("if", ifParserRule)
	t.AddRecursiveListRule("slice", sliceParserRule)
	t.AddRecursiveListRule("index", indexParserRule)
	// Operators
	for _, op := range operatorSymbols {
		t.AddRecursiveListRule(op, operatorParserRule)
	}
	// Everything else is a function call
	t.AddDefaultListRule(invokeParserRule(parser))
	t.AddDefaultSetRule(setLiteralParserRule(parser))
	t.AddDefaultArrayRule(arrayLiteralParserRule(parser))
	//
	return parser
}

// NodeMap extracts the node map constructed by this parser.  A key task here
// is to copy all mappings from the expression translator, which maintains its
// own map.
func (p *Parser) NodeMap() *source.Map[ast.Node] {
	// Copy all mappings from translator's source map into this map.  A mapping
	// function is required to coerce the types.
	source.JoinMaps(p.nodemap, p.translator.SourceMap(), func(e ast.Expr) ast.Node { return e })
	// Done
	return p.nodemap
}

// Register a source mapping from a given S-Expression to a given target node.
func (p *Parser) mapSourceNode(from sexp.SExp, to ast.Node) {
	span := p.translator.SpanOf(from)
	p.nodemap.Put(to, span)
}

// Parse a top-level term into a statement, wrapping bare expressions into an
// implicit select.
func (p *Parser) parseStatement(term sexp.SExp) (ast.Statement, []SyntaxError) {
	expr, errors := p.translator.Translate(term)
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	if stmt, ok := expr.(ast.Statement); ok {
		return stmt, nil
	}
	// Wrap bare expression
	stmt := &ast.Select{Result: expr, Implicit: true}
	p.mapSourceNode(term, stmt)
	//
	return stmt, nil
}

// Parse a parameter declaration block of the form
// (params (name Type attrs...) ...).
func (p *Parser) parseParams(l *sexp.List) ([]*ast.ParamDecl, []SyntaxError) {
	var (
		decls  []*ast.ParamDecl
		errors []SyntaxError
	)
	//
	for i := 1; i < l.Len(); i++ {
		dl := l.Get(i).AsList()
		//
		if dl == nil || dl.Len() < 2 {
			errors = append(errors, *p.translator.SyntaxError(l.Get(i), "malformed parameter declaration"))
			continue
		}
		//
		name, err := p.parseIdent(dl.Get(0))
		if err != nil {
			errors = append(errors, *err)
			continue
		}
		//
		typename, err := p.parseTypeName(dl.Get(1))
		if err != nil {
			errors = append(errors, *err)
			continue
		}
		//
		decl := &ast.ParamDecl{Name: name, Type: typename}
		//
		for j := 2; j < dl.Len(); j++ {
			symbol := dl.Get(j).AsSymbol()
			//
			switch {
			case symbol != nil && symbol.Value == ":optional":
				decl.Optional = true
			case symbol != nil && symbol.Value == ":global":
				decl.Global = true
			default:
				errors = append(errors, *p.translator.SyntaxError(dl.Get(j), "unknown parameter attribute"))
			}
		}
		//
		p.mapSourceNode(l.Get(i), decl)
		decls = append(decls, decl)
	}
	//
	return decls, errors
}

// ===================================================================
// Statement rules
// ===================================================================

// attributeHandler consumes the value term of one :keyword attribute.
type attributeHandler = func(sexp.SExp) []SyntaxError

// Scan the attribute section of a statement form, which is a sequence of
// :keyword value pairs following the positional arguments.
func (p *Parser) parseAttributes(l *sexp.List, start int, handlers map[string]attributeHandler) []SyntaxError {
	var (
		errors []SyntaxError
		seen   = make(map[string]bool)
	)
	//
	for i := start; i < l.Len(); i++ {
		symbol := l.Get(i).AsSymbol()
		//
		if symbol == nil || !strings.HasPrefix(symbol.Value, ":") {
			errors = append(errors, *p.translator.SyntaxError(l.Get(i), "expected attribute keyword"))
			continue
		}
		//
		handler, ok := handlers[symbol.Value]
		//
		if !ok {
			msg := fmt.Sprintf("unknown attribute '%s'", symbol.Value)
			errors = append(errors, *p.translator.SyntaxError(l.Get(i), msg))
			//
			continue
		} else if seen[symbol.Value] {
			msg := fmt.Sprintf("duplicate attribute '%s'", symbol.Value)
			errors = append(errors, *p.translator.SyntaxError(l.Get(i), msg))
		}
		//
		seen[symbol.Value] = true
		// Sanity check value present
		if i+1 == l.Len() {
			msg := fmt.Sprintf("missing value for attribute '%s'", symbol.Value)
			errors = append(errors, *p.translator.SyntaxError(l.Get(i), msg))
			//
			break
		}
		//
		i++
		errors = append(errors, handler(l.Get(i))...)
	}
	//
	return errors
}

func selectParserRule(p *Parser) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() < 2 {
			return nil, p.translator.SyntaxErrors(l, "malformed select statement")
		}
		//
		var stmt ast.Select
		//
		result, errors := p.translator.Translate(l.Get(1))
		stmt.Result = result
		//
		errs := p.parseAttributes(l, 2, map[string]attributeHandler{
			":shape":  p.shapeHandler(&stmt.Shape),
			":filter": p.exprHandler(&stmt.Filter),
			":order":  p.orderHandler(&stmt.OrderBy),
			":offset": p.exprHandler(&stmt.Offset),
			":limit":  p.exprHandler(&stmt.Limit),
		})
		//
		if errors = append(errors, errs...); len(errors) > 0 {
			return nil, errors
		}
		//
		return &stmt, nil
	}
}

func forParserRule(p *Parser) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() != 4 {
			return nil, p.translator.SyntaxErrors(l, "malformed for statement")
		}
		//
		name, err := p.parseIdent(l.Get(1))
		if err != nil {
			return nil, []SyntaxError{*err}
		}
		//
		iterator, errors := p.translator.Translate(l.Get(2))
		body, errs := p.translator.Translate(l.Get(3))
		//
		if errors = append(errors, errs...); len(errors) > 0 {
			return nil, errors
		}
		//
		return &ast.For{Name: name, Iterator: iterator, Body: body}, nil
	}
}

func withParserRule(p *Parser) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() != 3 {
			return nil, p.translator.SyntaxErrors(l, "malformed with statement")
		}
		//
		bindings, errors := p.parseAliases(l.Get(1))
		//
		body, errs := p.translator.Translate(l.Get(2))
		//
		if errors = append(errors, errs...); len(errors) > 0 {
			return nil, errors
		}
		//
		return &ast.With{Bindings: bindings, Body: body}, nil
	}
}

func insertParserRule(p *Parser) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() < 2 {
			return nil, p.translator.SyntaxErrors(l, "malformed insert statement")
		}
		//
		target, err := p.parseTypeName(l.Get(1))
		if err != nil {
			return nil, []SyntaxError{*err}
		}
		//
		stmt := ast.Insert{Target: target}
		//
		errors := p.parseAttributes(l, 2, map[string]attributeHandler{
			":shape": p.shapeHandler(&stmt.Shape),
			":unless-conflict": func(term sexp.SExp) []SyntaxError {
				var errs []SyntaxError
				stmt.Conflict, errs = p.parseConflict(term)
				return errs
			},
		})
		//
		if len(errors) > 0 {
			return nil, errors
		}
		//
		return &stmt, nil
	}
}

func updateParserRule(p *Parser) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() < 2 {
			return nil, p.translator.SyntaxErrors(l, "malformed update statement")
		}
		//
		var stmt ast.Update
		//
		subject, errors := p.translator.Translate(l.Get(1))
		stmt.Subject = subject
		//
		errs := p.parseAttributes(l, 2, map[string]attributeHandler{
			":filter": p.exprHandler(&stmt.Filter),
			":set":    p.shapeHandler(&stmt.Shape),
		})
		//
		if errors = append(errors, errs...); len(errors) > 0 {
			return nil, errors
		}
		//
		return &stmt, nil
	}
}

func deleteParserRule(p *Parser) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() < 2 {
			return nil, p.translator.SyntaxErrors(l, "malformed delete statement")
		}
		//
		var stmt ast.Delete
		//
		subject, errors := p.translator.Translate(l.Get(1))
		stmt.Subject = subject
		//
		errs := p.parseAttributes(l, 2, map[string]attributeHandler{
			":filter": p.exprHandler(&stmt.Filter),
			":order":  p.orderHandler(&stmt.OrderBy),
			":offset": p.exprHandler(&stmt.Offset),
			":limit":  p.exprHandler(&stmt.Limit),
		})
		//
		if errors = append(errors, errs...); len(errors) > 0 {
			return nil, errors
		}
		//
		return &stmt, nil
	}
}

func groupParserRule(p *Parser) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() < 2 {
			return nil, p.translator.SyntaxErrors(l, "malformed group statement")
		}
		//
		var stmt ast.Group
		//
		subject, errors := p.translator.Translate(l.Get(1))
		stmt.Subject = subject
		//
		errs := p.parseAttributes(l, 2, map[string]attributeHandler{
			":using": func(term sexp.SExp) []SyntaxError {
				var errs []SyntaxError
				stmt.Using, errs = p.parseAliases(term)
				return errs
			},
			":by": func(term sexp.SExp) []SyntaxError {
				var errs []SyntaxError
				stmt.By, errs = p.parseIdentList(term)
				return errs
			},
		})
		//
		if errors = append(errors, errs...); len(errors) > 0 {
			return nil, errors
		}
		//
		return &stmt, nil
	}
}

// exprHandler translates the attribute value into the given expression slot.
func (p *Parser) exprHandler(slot *ast.Expr) attributeHandler {
	return func(term sexp.SExp) []SyntaxError {
		var errs []SyntaxError
		*slot, errs = p.translator.Translate(term)
		//
		return errs
	}
}

// shapeHandler parses the attribute value as a shape into the given slot.
func (p *Parser) shapeHandler(slot *[]*ast.ShapeElement) attributeHandler {
	return func(term sexp.SExp) []SyntaxError {
		var errs []SyntaxError
		*slot, errs = p.parseShape(term)
		//
		return errs
	}
}

// orderHandler parses the attribute value as a list of sort keys into the
// given slot.
func (p *Parser) orderHandler(slot *[]*ast.SortKey) attributeHandler {
	return func(term sexp.SExp) []SyntaxError {
		var errs []SyntaxError
		*slot, errs = p.parseOrder(term)
		//
		return errs
	}
}

// ===================================================================
// Clause parsing
// ===================================================================

// Parse a shape of the form (element...), where an element is a plain
// pointer name, a computed pointer (:= name expr), a mutation element
// (+= name expr) or (-= name expr), or a nested fetch (name (element...)).
func (p *Parser) parseShape(term sexp.SExp) ([]*ast.ShapeElement, []SyntaxError) {
	l := term.AsList()
	//
	if l == nil {
		return nil, p.translator.SyntaxErrors(term, "expected shape")
	}
	//
	var (
		shape  []*ast.ShapeElement
		errors []SyntaxError
	)
	//
	for _, elTerm := range l.Elements {
		el, errs := p.parseShapeElement(elTerm)
		//
		if len(errs) > 0 {
			errors = append(errors, errs...)
			continue
		}
		//
		shape = append(shape, el)
	}
	//
	return shape, errors
}

func (p *Parser) parseShapeElement(term sexp.SExp) (*ast.ShapeElement, []SyntaxError) {
	// Plain pointer fetch
	if term.AsSymbol() != nil {
		name, err := p.parseIdent(term)
		if err != nil {
			return nil, []SyntaxError{*err}
		}
		//
		el := &ast.ShapeElement{Name: name, Op: ast.ShapeGet}
		p.mapSourceNode(term, el)
		//
		return el, nil
	}
	//
	l := term.AsList()
	//
	if l == nil || l.Len() == 0 || l.Get(0).AsSymbol() == nil {
		return nil, p.translator.SyntaxErrors(term, "malformed shape element")
	}
	//
	head := l.Get(0).AsSymbol().Value
	// Computed pointer
	if op, ok := shapeOpOf(head); ok {
		if l.Len() != 3 {
			return nil, p.translator.SyntaxErrors(l, "malformed shape element")
		}
		//
		name, err := p.parseIdent(l.Get(1))
		if err != nil {
			return nil, []SyntaxError{*err}
		}
		//
		value, errors := p.translator.Translate(l.Get(2))
		if len(errors) > 0 {
			return nil, errors
		}
		//
		el := &ast.ShapeElement{Name: name, Op: op, Value: value}
		p.mapSourceNode(term, el)
		//
		return el, nil
	}
	// Nested fetch
	if l.Len() == 2 {
		name, err := p.parseIdent(l.Get(0))
		if err != nil {
			return nil, []SyntaxError{*err}
		}
		//
		nested, errors := p.parseShape(l.Get(1))
		if len(errors) > 0 {
			return nil, errors
		}
		//
		el := &ast.ShapeElement{Name: name, Op: ast.ShapeGet, Shape: nested}
		p.mapSourceNode(term, el)
		//
		return el, nil
	}
	//
	return nil, p.translator.SyntaxErrors(term, "malformed shape element")
}

func shapeOpOf(head string) (ast.ShapeOp, bool) {
	switch head {
	case ":=":
		return ast.ShapeAssign, true
	case "+=":
		return ast.ShapeAppend, true
	case "-=":
		return ast.ShapeSubtract, true
	}
	//
	return ast.ShapeGet, false
}

// Parse an ordering clause of the form (key...), where a key is an
// expression, (asc expr) or (desc expr).
func (p *Parser) parseOrder(term sexp.SExp) ([]*ast.SortKey, []SyntaxError) {
	l := term.AsList()
	//
	if l == nil {
		return nil, p.translator.SyntaxErrors(term, "expected ordering keys")
	}
	//
	var (
		keys   []*ast.SortKey
		errors []SyntaxError
	)
	//
	for _, keyTerm := range l.Elements {
		var key ast.SortKey
		//
		exprTerm := keyTerm
		//
		if kl := keyTerm.AsList(); kl != nil && kl.Len() == 2 && kl.Get(0).AsSymbol() != nil {
			switch kl.Get(0).AsSymbol().Value {
			case "asc":
				exprTerm = kl.Get(1)
			case "desc":
				exprTerm = kl.Get(1)
				key.Descending = true
			}
		}
		//
		expr, errs := p.translator.Translate(exprTerm)
		//
		if len(errs) > 0 {
			errors = append(errors, errs...)
			continue
		}
		//
		key.Key = expr
		p.mapSourceNode(keyTerm, &key)
		keys = append(keys, &key)
	}
	//
	return keys, errors
}

// Parse a binding list of the form ((name expr)...).
func (p *Parser) parseAliases(term sexp.SExp) ([]*ast.Alias, []SyntaxError) {
	l := term.AsList()
	//
	if l == nil {
		return nil, p.translator.SyntaxErrors(term, "expected binding list")
	}
	//
	var (
		aliases []*ast.Alias
		errors  []SyntaxError
	)
	//
	for _, bindTerm := range l.Elements {
		bl := bindTerm.AsList()
		//
		if bl == nil || bl.Len() != 2 {
			errors = append(errors, *p.translator.SyntaxError(bindTerm, "malformed binding"))
			continue
		}
		//
		name, err := p.parseIdent(bl.Get(0))
		if err != nil {
			errors = append(errors, *err)
			continue
		}
		//
		value, errs := p.translator.Translate(bl.Get(1))
		//
		if len(errs) > 0 {
			errors = append(errors, errs...)
			continue
		}
		//
		alias := &ast.Alias{Name: name, Value: value}
		p.mapSourceNode(bindTerm, alias)
		aliases = append(aliases, alias)
	}
	//
	return aliases, errors
}

// Parse an unless-conflict clause of the form (), (on-expr) or
// (on-expr else-expr).
func (p *Parser) parseConflict(term sexp.SExp) (*ast.OnConflict, []SyntaxError) {
	l := term.AsList()
	//
	if l == nil || l.Len() > 2 {
		return nil, p.translator.SyntaxErrors(term, "malformed unless-conflict clause")
	}
	//
	var (
		conflict ast.OnConflict
		errors   []SyntaxError
	)
	//
	if l.Len() >= 1 {
		conflict.On, errors = p.translator.Translate(l.Get(0))
	}
	//
	if l.Len() == 2 {
		var errs []SyntaxError
		conflict.Else, errs = p.translator.Translate(l.Get(1))
		errors = append(errors, errs...)
	}
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	p.mapSourceNode(term, &conflict)
	//
	return &conflict, nil
}

// Parse a list of bare names, e.g. the :by clause of a group statement.
func (p *Parser) parseIdentList(term sexp.SExp) ([]*ast.Ident, []SyntaxError) {
	l := term.AsList()
	//
	if l == nil {
		return nil, p.translator.SyntaxErrors(term, "expected name list")
	}
	//
	var (
		names  []*ast.Ident
		errors []SyntaxError
	)
	//
	for _, nameTerm := range l.Elements {
		name, err := p.parseIdent(nameTerm)
		//
		if err != nil {
			errors = append(errors, *err)
			continue
		}
		//
		names = append(names, name)
	}
	//
	return names, errors
}

// Parse a bare (unqualified) name, registering it in the node map.
func (p *Parser) parseIdent(term sexp.SExp) (*ast.Ident, *SyntaxError) {
	symbol := term.AsSymbol()
	//
	if symbol == nil || !isIdentifier(symbol.Value) {
		return nil, p.translator.SyntaxError(term, "expected name")
	}
	//
	ident := &ast.Ident{Name: symbol.Value}
	p.mapSourceNode(term, ident)
	//
	return ident, nil
}

// Parse a (possibly qualified) type name, registering it in the node map.
func (p *Parser) parseTypeName(term sexp.SExp) (*ast.TypeName, *SyntaxError) {
	symbol := term.AsSymbol()
	//
	if symbol == nil || !isQualifiedIdentifier(symbol.Value) {
		return nil, p.translator.SyntaxError(term, "expected type name")
	}
	//
	typename := &ast.TypeName{Name: symbol.Value}
	p.mapSourceNode(term, typename)
	//
	return typename, nil
}

// ===================================================================
// Expression rules
// ===================================================================

// operatorSymbols enumerates the operator heads recognized in expression
// position.  Their arities are checked here; resolution against the standard
// library happens in the compiler.
var operatorSymbols = []string{
	"=", "!=", "<", "<=", ">", ">=",
	"+", "-", "*", "/", "++",
	"and", "or", "not", "in",
	"exists", "distinct",
	"union", "except", "intersect",
	"??",
}

func operatorParserRule(name string, args []ast.Expr) (ast.Expr, error) {
	switch name {
	case "not", "exists", "distinct":
		if len(args) != 1 {
			return nil, fmt.Errorf("operator '%s' expects exactly one operand", name)
		}
	case "=", "!=", "<", "<=", ">", ">=", "in":
		if len(args) != 2 {
			return nil, fmt.Errorf("operator '%s' expects exactly two operands", name)
		}
	default:
		if len(args) < 2 {
			return nil, fmt.Errorf("operator '%s' expects at least two operands", name)
		}
	}
	//
	return &ast.Operator{Name: name, Args: args}, nil
}

func setParserRule(_ string, args []ast.Expr) (ast.Expr, error) {
	return &ast.SetExpr{Elements: args}, nil
}

func arrayParserRule(_ string, args []ast.Expr) (ast.Expr, error) {
	return &ast.ArrayExpr{Elements: args}, nil
}

func ifParserRule(_ string, args []ast.Expr) (ast.Expr, error) {
	if len(args) != 3 {
		return nil, errors.New("malformed conditional expression")
	}
	//
	return &ast.If{Cond: args[0], Then: args[1], Else: args[2]}, nil
}

func sliceParserRule(_ string, args []ast.Expr) (ast.Expr, error) {
	if len(args) != 3 {
		return nil, errors.New("malformed slice expression")
	}
	//
	return &ast.Slice{Expr: args[0], Start: args[1], Stop: args[2]}, nil
}

func indexParserRule(_ string, args []ast.Expr) (ast.Expr, error) {
	if len(args) != 2 {
		return nil, errors.New("malformed index expression")
	}
	//
	return &ast.Index{Expr: args[0], Index: args[1]}, nil
}

func pathParserRule(p *Parser, kind ast.StepKind) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() < 3 || (kind != ast.StepForward && l.Len() != 3) {
			return nil, p.translator.SyntaxErrors(l, "malformed path")
		}
		//
		base, errors := p.translator.Translate(l.Get(1))
		//
		var steps []*ast.PathStep
		//
		for i := 2; i < l.Len(); i++ {
			symbol := l.Get(i).AsSymbol()
			//
			if symbol == nil || !isPathStep(symbol.Value) {
				errors = append(errors, *p.translator.SyntaxError(l.Get(i), "invalid path step"))
				continue
			}
			//
			step := &ast.PathStep{Name: symbol.Value, Kind: kind}
			p.mapSourceNode(l.Get(i), step)
			steps = append(steps, step)
		}
		//
		if len(errors) > 0 {
			return nil, errors
		}
		//
		return &ast.Path{Base: base, Steps: steps}, nil
	}
}

func intersectionParserRule(p *Parser) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() != 3 {
			return nil, p.translator.SyntaxErrors(l, "malformed type intersection")
		}
		//
		base, errors := p.translator.Translate(l.Get(1))
		//
		typename, err := p.parseTypeName(l.Get(2))
		if err != nil {
			errors = append(errors, *err)
		}
		//
		if len(errors) > 0 {
			return nil, errors
		}
		//
		return &ast.TypeIntersection{Base: base, Type: typename}, nil
	}
}

func castParserRule(p *Parser) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() != 3 {
			return nil, p.translator.SyntaxErrors(l, "malformed cast expression")
		}
		//
		typename, err := p.parseTypeName(l.Get(1))
		if err != nil {
			return nil, []SyntaxError{*err}
		}
		//
		expr, errors := p.translator.Translate(l.Get(2))
		if len(errors) > 0 {
			return nil, errors
		}
		//
		return &ast.Cast{Type: typename, Expr: expr}, nil
	}
}

func typeCheckParserRule(p *Parser, negated bool) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() != 3 {
			return nil, p.translator.SyntaxErrors(l, "malformed type check")
		}
		//
		expr, errors := p.translator.Translate(l.Get(1))
		//
		typename, err := p.parseTypeName(l.Get(2))
		if err != nil {
			errors = append(errors, *err)
		}
		//
		if len(errors) > 0 {
			return nil, errors
		}
		//
		return &ast.TypeCheck{Expr: expr, Type: typename, Negated: negated}, nil
	}
}

func introspectParserRule(p *Parser) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() != 2 {
			return nil, p.translator.SyntaxErrors(l, "malformed introspect expression")
		}
		//
		typename, err := p.parseTypeName(l.Get(1))
		if err != nil {
			return nil, []SyntaxError{*err}
		}
		//
		return &ast.Introspect{Type: typename}, nil
	}
}

func tupleParserRule(p *Parser) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		var (
			tuple  ast.TupleExpr
			errors []SyntaxError
		)
		//
		for i := 1; i < l.Len(); i++ {
			item, errs := p.parseTupleItem(l.Get(i))
			//
			if len(errs) > 0 {
				errors = append(errors, errs...)
				continue
			}
			//
			tuple.Elements = append(tuple.Elements, item)
		}
		//
		if len(errors) > 0 {
			return nil, errors
		}
		//
		return &tuple, nil
	}
}

func (p *Parser) parseTupleItem(term sexp.SExp) (*ast.TupleItem, []SyntaxError) {
	var item ast.TupleItem
	// Check for a named element
	if l := term.AsList(); l != nil && l.MatchSymbols(1, ":=") {
		if l.Len() != 3 {
			return nil, p.translator.SyntaxErrors(term, "malformed tuple element")
		}
		//
		name, err := p.parseIdent(l.Get(1))
		if err != nil {
			return nil, []SyntaxError{*err}
		}
		//
		value, errors := p.translator.Translate(l.Get(2))
		if len(errors) > 0 {
			return nil, errors
		}
		//
		item.Name, item.Value = name, value
	} else {
		value, errors := p.translator.Translate(term)
		if len(errors) > 0 {
			return nil, errors
		}
		//
		item.Value = value
	}
	//
	p.mapSourceNode(term, &item)
	//
	return &item, nil
}

func invokeParserRule(p *Parser) sexp.ListRule[ast.Expr] {
	return func(l *sexp.List) (ast.Expr, []SyntaxError) {
		if l.Len() == 0 || l.Get(0).AsSymbol() == nil {
			return nil, p.translator.SyntaxErrors(l, "malformed expression")
		}
		//
		name := l.Get(0).AsSymbol().Value
		//
		if !isQualifiedIdentifier(name) {
			msg := fmt.Sprintf("invalid function name '%s'", name)
			return nil, p.translator.SyntaxErrors(l.Get(0), msg)
		}
		//
		var (
			args   []ast.Expr
			errors []SyntaxError
		)
		//
		for i := 1; i < l.Len(); i++ {
			arg, errs := p.translator.Translate(l.Get(i))
			//
			args = append(args, arg)
			errors = append(errors, errs...)
		}
		//
		if len(errors) > 0 {
			return nil, errors
		}
		//
		return &ast.Call{Name: name, Args: args}, nil
	}
}

func setLiteralParserRule(p *Parser) sexp.SetRule[ast.Expr] {
	return func(s *sexp.Set) (ast.Expr, []SyntaxError) {
		var (
			set    ast.SetExpr
			errors []SyntaxError
		)
		//
		for _, term := range s.Elements {
			el, errs := p.translator.Translate(term)
			//
			if len(errs) > 0 {
				errors = append(errors, errs...)
				continue
			}
			//
			set.Elements = append(set.Elements, el)
		}
		//
		if len(errors) > 0 {
			return nil, errors
		}
		//
		return &set, nil
	}
}

func arrayLiteralParserRule(p *Parser) sexp.ArrayRule[ast.Expr] {
	return func(a *sexp.Array) (ast.Expr, []SyntaxError) {
		var (
			array  ast.ArrayExpr
			errors []SyntaxError
		)
		//
		for _, term := range a.Elements {
			el, errs := p.translator.Translate(term)
			//
			if len(errs) > 0 {
				errors = append(errors, errs...)
				continue
			}
			//
			array.Elements = append(array.Elements, el)
		}
		//
		if len(errors) > 0 {
			return nil, errors
		}
		//
		return &array, nil
	}
}

// ===================================================================
// Symbol rules
// ===================================================================

func literalParserRule(symbol string) (ast.Expr, bool, error) {
	if symbol == "" {
		return nil, false, nil
	}
	//
	switch symbol {
	case "true":
		return &ast.BoolLit{Value: true}, true, nil
	case "false":
		return &ast.BoolLit{Value: false}, true, nil
	}
	//
	if symbol[0] == '"' {
		value, err := unquoteString(symbol)
		if err != nil {
			return nil, true, err
		}
		//
		return &ast.StringLit{Value: value}, true, nil
	}
	//
	if symbol[0] == '$' {
		name := symbol[1:]
		//
		if !isIdentifier(name) {
			return nil, true, fmt.Errorf("invalid parameter reference '%s'", symbol)
		}
		//
		return &ast.Param{Name: name}, true, nil
	}
	// Check for a numeric literal
	if startsNumeric(symbol) {
		if _, err := strconv.ParseInt(symbol, 10, 64); err == nil {
			return &ast.IntLit{Value: symbol}, true, nil
		}
		//
		if _, err := strconv.ParseFloat(symbol, 64); err == nil {
			return &ast.FloatLit{Value: symbol}, true, nil
		}
		//
		return nil, true, fmt.Errorf("malformed numeric literal '%s'", symbol)
	}
	//
	return nil, false, nil
}

func nameParserRule(symbol string) (ast.Expr, bool, error) {
	if strings.HasPrefix(symbol, ":") {
		return nil, true, fmt.Errorf("unexpected keyword '%s'", symbol)
	}
	//
	if !isQualifiedIdentifier(symbol) {
		return nil, true, fmt.Errorf("invalid identifier '%s'", symbol)
	}
	//
	return &ast.Ident{Name: symbol}, true, nil
}

// ===================================================================
// Lexical helpers
// ===================================================================

func isIdentifier(s string) bool {
	for i, c := range s {
		if i == 0 && !unicode.IsLetter(c) && c != '_' {
			return false
		} else if i != 0 && !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			return false
		}
	}
	//
	return len(s) > 0
}

func isQualifiedIdentifier(s string) bool {
	for _, part := range strings.Split(s, "::") {
		if !isIdentifier(part) {
			return false
		}
	}
	//
	return len(s) > 0
}

// isPathStep accepts pointer names and tuple element positions.
func isPathStep(s string) bool {
	if isIdentifier(s) {
		return true
	}
	//
	for _, c := range s {
		if !unicode.IsDigit(c) {
			return false
		}
	}
	//
	return len(s) > 0
}

func startsNumeric(s string) bool {
	if s[0] >= '0' && s[0] <= '9' {
		return true
	}
	//
	return s[0] == '-' && len(s) > 1 && s[1] >= '0' && s[1] <= '9'
}

// unquoteString strips the enclosing quotes from a string literal token and
// resolves backslash escapes.
func unquoteString(token string) (string, error) {
	if len(token) < 2 || token[len(token)-1] != '"' {
		return "", errors.New("malformed string literal")
	}
	//
	var (
		builder strings.Builder
		escaped bool
	)
	//
	for _, c := range token[1 : len(token)-1] {
		switch {
		case escaped && (c == '"' || c == '\\'):
			builder.WriteRune(c)
			escaped = false
		case escaped && c == 'n':
			builder.WriteRune('\n')
			escaped = false
		case escaped && c == 't':
			builder.WriteRune('\t')
			escaped = false
		case escaped:
			return "", fmt.Errorf("unknown escape sequence '\\%c'", c)
		case c == '\\':
			escaped = true
		default:
			builder.WriteRune(c)
		}
	}
	//
	if escaped {
		return "", errors.New("malformed string literal")
	}
	//
	return builder.String(), nil
}
