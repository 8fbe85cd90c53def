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
	"github.com/vinelang/go-vine/pkg/util/source"
	"github.com/vinelang/go-vine/pkg/vine/ast"
)

// SyntaxError is a convenient alias.
type SyntaxError = source.SyntaxError

// CompileStatement lowers one parsed statement against the given schema,
// building the scope tree alongside the translation, and then runs the
// analysis passes over the result.  The cardinality, multiplicity and
// volatility of the statement are recorded on the returned statement, and
// the annotations accumulated along the way (call argument cardinalities,
// source spans, etc) live in the returned environment.  Parameter
// declarations apply to every statement of the enclosing script.  The node
// map locates surface nodes in the query text and may be nil for
// programmatically constructed trees, in which case errors are unlocated.
func CompileStatement(stmt ast.Statement, params []*ast.ParamDecl, sch *schema.Schema,
	nodemap *source.Map[ast.Node]) (*ir.Statement, *Environment, []SyntaxError) {
	//
	env := NewEnvironment(sch)
	comp := newCompiler(env, params, nodemap)
	// Statements always compile under a fenced root.
	root := ir.NewScopeTreeNode(true)
	//
	set, errs := comp.compileExpr(stmt, root)
	if len(errs) > 0 {
		return nil, env, errs
	}
	// Expose the accumulated spans for error reporting during analysis.
	env.SrcMap.Join(comp.srcmap)
	//
	compiled := &ir.Statement{Expr: set, ScopeTree: root}
	//
	if errs := analyze(compiled, env); len(errs) > 0 {
		return nil, env, errs
	}
	//
	return compiled, env, nil
}

// CompileScript lowers every statement of a parsed script in turn.  Each
// statement is compiled and analyzed against its own environment, since the
// analysis caches are only valid for a single statement.  The returned
// slices are parallel: the nth statement was compiled in the nth
// environment.
func CompileScript(script *ast.Script, sch *schema.Schema,
	nodemap *source.Map[ast.Node]) ([]*ir.Statement, []*Environment, []SyntaxError) {
	//
	var (
		stmts []*ir.Statement
		envs  []*Environment
		errs  []SyntaxError
	)
	//
	for _, stmt := range script.Statements {
		compiled, env, serrs := CompileStatement(stmt, script.Params, sch, nodemap)
		//
		if len(serrs) > 0 {
			errs = append(errs, serrs...)
			continue
		}
		//
		stmts = append(stmts, compiled)
		envs = append(envs, env)
	}
	//
	return stmts, envs, errs
}

// analyze runs the inference passes over a compiled statement, recording
// their results on the statement itself.
func analyze(stmt *ir.Statement, env *Environment) []SyntaxError {
	card, err := InferCardinality(stmt.Expr, stmt.ScopeTree, env)
	if err != nil {
		return []SyntaxError{*err}
	}
	//
	mult, err := InferMultiplicity(stmt.Expr, stmt.ScopeTree, env)
	if err != nil {
		return []SyntaxError{*err}
	}
	//
	real, err := InferVolatility(stmt.Expr, env, false)
	if err != nil {
		return []SyntaxError{*err}
	}
	//
	materialization, err := InferVolatility(stmt.Expr, env, true)
	if err != nil {
		return []SyntaxError{*err}
	}
	//
	stmt.Cardinality = card
	stmt.Multiplicity = mult
	stmt.Volatility = ir.VolatilityInfo{Real: real, Materialization: materialization}
	//
	return nil
}

// ============================================================================
// Compiler
// ============================================================================

// compiler holds the state threaded through the lowering of one statement:
// the environment being populated, the source maps, the parameter
// declarations in effect and the name bindings currently in scope.
type compiler struct {
	env *Environment
	// nodemap locates surface nodes in the query text (nil when the tree
	// was built programmatically).
	nodemap *source.Map[ast.Node]
	// srcmap locates lowered nodes in the query text, joined into the
	// environment once lowering completes.
	srcmap *source.Map[ir.Node]
	// params declared by the enclosing script, keyed by name.
	params map[string]*ast.ParamDecl
	// bindings introduced by enclosing with, for and group clauses,
	// innermost last.
	bindings []*binding
	// iterators are the paths of enclosing iterator variables, which
	// mutating statements may reference despite their factoring fence.
	iterators []*ir.PathId
	// counter feeds derived names.
	counter uint
}

// binding associates a bound name with the set computing its value.  Every
// reference to the name compiles into a set sharing the binding's path and
// value, so the analysis passes treat all mentions as one set.
type binding struct {
	// name the binding is referenced by.
	name string
	// path identifying the bound set.
	path *ir.PathId
	// typeRef of the bound value.
	typeRef *ir.TypeRef
	// value computing the binding, or nil for iterator variables whose
	// value is carried by the enclosing statement.
	value ir.Node
	// scopeId the value evaluates under, or zero for iterator variables.
	scopeId int
	// kind distinguishes iterator variables from aliases.
	kind ir.BindingKind
}

func newCompiler(env *Environment, params []*ast.ParamDecl, nodemap *source.Map[ast.Node]) *compiler {
	declared := make(map[string]*ast.ParamDecl)
	srcfile := source.NewSourceFile("<query>", nil)
	//
	if nodemap != nil {
		srcfile = nodemap.Source()
	}
	//
	for _, decl := range params {
		declared[decl.Name.Name] = decl
	}
	//
	return &compiler{
		env:     env,
		nodemap: nodemap,
		srcmap:  source.NewSourceMap[ir.Node](srcfile),
		params:  declared,
	}
}

// freshName derives a unique name for a compiler-introduced path or
// namespace.
func (p *compiler) freshName(hint string) string {
	p.counter++
	return fmt.Sprintf("%s~%d", hint, p.counter)
}

// register records the span of a lowered node when the surface node it was
// lowered from carries one.  Every lowered node is registered at most once.
func (p *compiler) register(node ir.Node, from ast.Node) {
	if p.nodemap != nil && from != nil && p.nodemap.Has(from) {
		p.srcmap.Put(node, p.nodemap.Get(from))
	}
}

// syntaxError builds an error located at the given surface node.
func (p *compiler) syntaxError(from ast.Node, msg string) *SyntaxError {
	if p.nodemap != nil && from != nil && p.nodemap.Has(from) {
		srcfile := p.nodemap.Source()
		return srcfile.SyntaxError(p.nodemap.Get(from), msg)
	}
	//
	srcfile := source.NewSourceFile("<query>", nil)
	//
	return srcfile.SyntaxError(source.NewSpan(0, 0), msg)
}

// errorAt wraps syntaxError into the one-element slice most compilation
// methods return.
func (p *compiler) errorAt(from ast.Node, format string, args ...any) []SyntaxError {
	return []SyntaxError{*p.syntaxError(from, fmt.Sprintf(format, args...))}
}

// scopeError converts a scope construction failure into a syntax error at
// the surface node which introduced the offending path.
func (p *compiler) scopeError(from ast.Node, err error) []SyntaxError {
	return p.errorAt(from, "%s", err.Error())
}

// schemaType resolves the schema type behind a type ref, or nil for
// synthesized refs such as unions and collections.
func (p *compiler) schemaType(ref *ir.TypeRef) *schema.Type {
	styp, ok := p.env.Schema.TypeByID(ref.Material().ID)
	if !ok {
		return nil
	}
	//
	return styp
}

// lookupType resolves a (possibly unqualified) type name against the
// schema.  Unqualified names resolve against the default module first, then
// std.
func (p *compiler) lookupType(name string) (*schema.Type, bool) {
	if styp, ok := p.env.Schema.Type(name); ok {
		return styp, true
	}
	//
	if !strings.Contains(name, "::") {
		if styp, ok := p.env.Schema.Type("default::" + name); ok {
			return styp, true
		}
		//
		return p.env.Schema.Type("std::" + name)
	}
	//
	return nil, false
}

// lookupBinding finds the innermost binding with the given name, or nil.
// The from index restricts the search to bindings introduced at or after
// it.
func (p *compiler) lookupBinding(name string, from int) *binding {
	for i := len(p.bindings) - 1; i >= from; i-- {
		if p.bindings[i].name == name {
			return p.bindings[i]
		}
	}
	//
	return nil
}

// attachScope builds the pair of scope nodes clauses with private contents
// hang off: a fence carrying a unique identifier, with a plain branch below
// it.  Paths attached under the branch stay invisible from the fence, so a
// clause registered to the fence never sees its own paths when evaluated.
func (p *compiler) attachScope(parent *ir.ScopeTreeNode) (*ir.ScopeTreeNode, *ir.ScopeTreeNode) {
	fence := parent.AttachFence()
	fence.SetUniqueId(p.env.AllocateScopeId())
	//
	return fence, fence.AttachBranch()
}

// wrapExpr wraps a lowered expression into the set standing for it, under a
// fresh derived identity, registering the spans of both.
func (p *compiler) wrapExpr(expr ir.Node, typeRef *ir.TypeRef, from ast.Node) *ir.Set {
	set := &ir.Set{
		PathId:  ir.NewNamedPathId(typeRef, p.freshName("expr"), nil),
		TypeRef: typeRef,
		Expr:    expr,
	}
	//
	p.register(expr, from)
	p.register(set, from)
	//
	return set
}

// ============================================================================
// Statements
// ============================================================================

// compileSelect lowers a select statement.  Each clause compiles under its
// own branch of the statement fence; paths shared between the result and a
// clause are factored up to the fence, where the whole statement sees them.
func (p *compiler) compileSelect(sel *ast.Select, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	fence := scope.AttachFence()
	fence.SetUniqueId(p.env.AllocateScopeId())
	//
	stmt := &ir.SelectStmt{}
	stmt.ImplicitWrapper = sel.Implicit
	//
	result, errs := p.compileExpr(sel.Result, fence.AttachBranch())
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if len(sel.Shape) > 0 {
		shape, serrs := p.compileShape(result, sel.Shape, fence, false)
		if len(serrs) > 0 {
			return nil, serrs
		}
		//
		result.Shape = shape
	}
	//
	stmt.Result = result
	//
	if sel.Filter != nil {
		if stmt.Where, errs = p.compileClause(sel.Filter, fence); len(errs) > 0 {
			return nil, errs
		}
	}
	//
	for _, key := range sel.OrderBy {
		keySet, kerrs := p.compileClause(key.Key, fence)
		if len(kerrs) > 0 {
			return nil, kerrs
		}
		//
		stmt.OrderBy = append(stmt.OrderBy, &ir.SortExpr{Expr: keySet, Descending: key.Descending})
	}
	//
	if sel.Offset != nil {
		if stmt.Offset, errs = p.compileCardinalityClause(sel.Offset, fence); len(errs) > 0 {
			return nil, errs
		}
	}
	//
	if sel.Limit != nil {
		if stmt.Limit, errs = p.compileCardinalityClause(sel.Limit, fence); len(errs) > 0 {
			return nil, errs
		}
	}
	//
	return p.wrapExpr(stmt, result.TypeRef, sel), nil
}

// compileClause lowers a clause expression under its own identified branch
// of the statement fence.  The clause set is registered to the branch, so
// analysis evaluates it where paths factored up to the fence are visible.
func (p *compiler) compileClause(expr ast.Expr, fence *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	branch := fence.AttachBranch()
	branch.SetUniqueId(p.env.AllocateScopeId())
	//
	set, errs := p.compileExpr(expr, branch)
	if len(errs) > 0 {
		return nil, errs
	}
	// Binding references already evaluate under the scope of their value.
	if set.PathScopeId == 0 {
		set.PathScopeId = branch.UniqueId()
	}
	//
	return set, nil
}

// compileCardinalityClause lowers an offset or limit expression.  These
// evaluate once for the whole statement, so the clause sits behind a
// factoring fence and referencing a set correlated with the statement
// subject is an error.
func (p *compiler) compileCardinalityClause(expr ast.Expr, fence *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	outer := fence.AttachFence()
	outer.SetUniqueId(p.env.AllocateScopeId())
	outer.SetFactoringFence(true)
	//
	set, errs := p.compileExpr(expr, outer.AttachBranch())
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if set.PathScopeId == 0 {
		set.PathScopeId = outer.UniqueId()
	}
	//
	return set, nil
}

// compileFor lowers an iteration.  The iterator variable's path attaches at
// the statement fence, making it visible to the body but not to the
// iterator expression itself; the body compiles behind its own fence so its
// paths stay private to one iteration.
func (p *compiler) compileFor(loop *ast.For, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	fence := scope.AttachFence()
	fence.SetUniqueId(p.env.AllocateScopeId())
	//
	iterFence, iterBranch := p.attachScope(fence)
	//
	iterValue, errs := p.compileExpr(loop.Iterator, iterBranch)
	if len(errs) > 0 {
		return nil, errs
	}
	// The variable gets its own identity within a fresh namespace, so
	// nested iterations binding the same name stay distinct.
	ns := ir.NewNamespaceSet(p.freshName("itr"))
	path := ir.NewNamedPathId(iterValue.TypeRef, loop.Name.Name, ns)
	//
	if err := fence.AttachPath(path, false); err != nil {
		return nil, p.scopeError(loop.Name, err)
	}
	//
	iterator := &ir.Set{
		PathId:      path,
		TypeRef:     iterValue.TypeRef,
		Expr:        iterValue,
		PathScopeId: iterFence.UniqueId(),
	}
	p.register(iterator, loop.Iterator)
	//
	bodyFence, bodyBranch := p.attachScope(fence)
	//
	p.bindings = append(p.bindings, &binding{
		name:    loop.Name.Name,
		path:    path,
		typeRef: iterValue.TypeRef,
		kind:    ir.BindFor,
	})
	p.iterators = append(p.iterators, path)
	//
	body, errs := p.compileExpr(loop.Body, bodyBranch)
	//
	p.bindings = p.bindings[:len(p.bindings)-1]
	p.iterators = p.iterators[:len(p.iterators)-1]
	//
	if len(errs) > 0 {
		return nil, errs
	}
	// A body which is a plain path would be inferred from the statement's
	// vantage point, where the variable is out of scope.  Wrap it so it
	// evaluates inside the iteration.
	if body.Expr == nil && body.PathScopeId == 0 {
		inner := &ir.SelectStmt{}
		inner.Result = body
		inner.ImplicitWrapper = true
		//
		wrapped := &ir.Set{
			PathId:  ir.NewNamedPathId(body.TypeRef, p.freshName("expr"), nil),
			TypeRef: body.TypeRef,
			Expr:    inner,
		}
		p.register(inner, loop.Body)
		p.register(wrapped, loop.Body)
		//
		body = wrapped
	}
	//
	if body.PathScopeId == 0 {
		body.PathScopeId = bodyFence.UniqueId()
	}
	//
	stmt := &ir.SelectStmt{}
	stmt.Result = body
	stmt.Iterator = iterator
	//
	return p.wrapExpr(stmt, body.TypeRef, loop), nil
}

// compileWith lowers a block of name bindings over a body expression.  Each
// value compiles behind its own identified fence; references to the name
// share the value and its scope, so every mention is analyzed as one set.
func (p *compiler) compileWith(with *ast.With, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	fence := scope.AttachFence()
	fence.SetUniqueId(p.env.AllocateScopeId())
	//
	stmt := &ir.SelectStmt{}
	saved := len(p.bindings)
	//
	for _, alias := range with.Bindings {
		def, errs := p.compileBinding(alias, fence)
		if len(errs) > 0 {
			p.bindings = p.bindings[:saved]
			return nil, errs
		}
		//
		stmt.Bindings = append(stmt.Bindings, def)
	}
	//
	body, errs := p.compileExpr(with.Body, fence.AttachBranch())
	p.bindings = p.bindings[:saved]
	//
	if len(errs) > 0 {
		return nil, errs
	}
	//
	stmt.Result = body
	//
	return p.wrapExpr(stmt, body.TypeRef, with), nil
}

// compileBinding lowers one name binding and brings it into scope.  The
// returned set defines the binding: it owns the value expression and the
// scope it evaluates under.
func (p *compiler) compileBinding(alias *ast.Alias, fence *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	bindFence, bindBranch := p.attachScope(fence)
	//
	value, errs := p.compileExpr(alias.Value, bindBranch)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	ns := ir.NewNamespaceSet(p.freshName("ns"))
	path := ir.NewNamedPathId(value.TypeRef, alias.Name.Name, ns)
	//
	def := &ir.Set{
		PathId:      path,
		TypeRef:     value.TypeRef,
		Expr:        value,
		PathScopeId: bindFence.UniqueId(),
	}
	p.register(def, alias)
	//
	p.bindings = append(p.bindings, &binding{
		name:    alias.Name.Name,
		path:    path,
		typeRef: value.TypeRef,
		value:   value,
		scopeId: bindFence.UniqueId(),
		kind:    ir.BindWith,
	})
	//
	return def, nil
}

// mutationFence builds the statement fence of a mutating statement, which
// additionally blocks factoring: correlating the mutation with an outer set
// is an error.  Enclosing iterator variables are exempt, since mutating the
// current element of an iteration is the canonical bulk-mutation pattern.
func (p *compiler) mutationFence(scope *ir.ScopeTreeNode) *ir.ScopeTreeNode {
	fence := scope.AttachFence()
	fence.SetUniqueId(p.env.AllocateScopeId())
	fence.SetFactoringFence(true)
	//
	for _, path := range p.iterators {
		fence.AllowFactoring(path)
	}
	//
	return fence
}

// compileInsert lowers an insert.  The subject denotes the object being
// created: it gets a fresh identity, distinct from the schema type's own
// path, attached at the statement fence where the shape and the conflict
// clauses can see it.
func (p *compiler) compileInsert(ins *ast.Insert, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	fence := p.mutationFence(scope)
	//
	styp, ok := p.lookupType(ins.Target.Name)
	if !ok {
		return nil, p.errorAt(ins.Target, "unknown type '%s'", ins.Target.Name)
	} else if !styp.IsObject() || styp.Abstract {
		return nil, p.errorAt(ins.Target, "cannot insert into '%s'", styp.Name)
	}
	//
	typeRef := p.env.TypeRef(styp)
	subject := &ir.Set{
		PathId:  ir.NewNamedPathId(typeRef, p.freshName(ins.Target.Name), nil),
		TypeRef: typeRef,
	}
	p.register(subject, ins.Target)
	//
	if err := fence.AttachPath(subject.PathId, false); err != nil {
		return nil, p.scopeError(ins.Target, err)
	}
	//
	shape, errs := p.compileShape(subject, ins.Shape, fence, true)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	subject.Shape = shape
	//
	stmt := &ir.InsertStmt{}
	stmt.Subject = subject
	stmt.Result = subject
	//
	if ins.Conflict != nil {
		clause := &ir.OnConflictClause{}
		//
		if ins.Conflict.On != nil {
			if clause.Select, errs = p.compileClause(ins.Conflict.On, fence); len(errs) > 0 {
				return nil, errs
			}
		}
		//
		if ins.Conflict.Else != nil {
			if clause.Else, errs = p.compileClause(ins.Conflict.Else, fence); len(errs) > 0 {
				return nil, errs
			}
		}
		//
		stmt.OnConflict = clause
	}
	//
	return p.wrapExpr(stmt, typeRef, ins), nil
}

// compileUpdate lowers an update.  The subject is an arbitrary expression
// selecting the objects to modify; the filter and the new values compile
// under the same fence and may reference it.
func (p *compiler) compileUpdate(upd *ast.Update, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	fence := p.mutationFence(scope)
	//
	subject, errs := p.compileExpr(upd.Subject, fence.AttachBranch())
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if !ir.IsObjectType(subject.TypeRef) || p.schemaType(subject.TypeRef) == nil {
		return nil, p.errorAt(upd.Subject, "cannot update '%s'", subject.TypeRef.DisplayName())
	}
	//
	stmt := &ir.UpdateStmt{}
	stmt.Subject = subject
	stmt.Result = subject
	//
	if upd.Filter != nil {
		if stmt.Where, errs = p.compileClause(upd.Filter, fence); len(errs) > 0 {
			return nil, errs
		}
	}
	//
	shape, errs := p.compileShape(subject, upd.Shape, fence, true)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	subject.Shape = shape
	//
	return p.wrapExpr(stmt, subject.TypeRef, upd), nil
}

// compileDelete lowers a delete.  Selection clauses attached to the delete
// desugar into an implicit select wrapping the subject, which is where the
// analysis expects them: a delete itself has no clauses of its own.
func (p *compiler) compileDelete(del *ast.Delete, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	fence := p.mutationFence(scope)
	//
	subjectExpr := del.Subject
	if del.Filter != nil || len(del.OrderBy) > 0 || del.Offset != nil || del.Limit != nil {
		subjectExpr = &ast.Select{
			Result:   del.Subject,
			Filter:   del.Filter,
			OrderBy:  del.OrderBy,
			Offset:   del.Offset,
			Limit:    del.Limit,
			Implicit: true,
		}
	}
	//
	subject, errs := p.compileExpr(subjectExpr, fence.AttachBranch())
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if !ir.IsObjectType(subject.TypeRef) || p.schemaType(subject.TypeRef) == nil {
		return nil, p.errorAt(del.Subject, "cannot delete '%s'", subject.TypeRef.DisplayName())
	}
	//
	stmt := &ir.DeleteStmt{}
	stmt.Subject = subject
	stmt.Result = subject
	//
	return p.wrapExpr(stmt, subject.TypeRef, del), nil
}

// compileGroup lowers a grouping.  Keys declared with using compile like
// name bindings; by keys must either name one of those or a pointer of the
// subject, in which case a binding is synthesized.  The result is a fresh
// free object standing for one group.
func (p *compiler) compileGroup(grp *ast.Group, scope *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	fence := scope.AttachFence()
	fence.SetUniqueId(p.env.AllocateScopeId())
	//
	subject, errs := p.compileExpr(grp.Subject, fence.AttachBranch())
	if len(errs) > 0 {
		return nil, errs
	}
	//
	stmt := &ir.GroupStmt{}
	stmt.Subject = subject
	//
	saved := len(p.bindings)
	//
	for _, alias := range grp.Using {
		def, berrs := p.compileBinding(alias, fence)
		if len(berrs) > 0 {
			p.bindings = p.bindings[:saved]
			return nil, berrs
		}
		//
		stmt.Using = append(stmt.Using, def)
	}
	//
	for _, key := range grp.By {
		if p.lookupBinding(key.Name, saved) != nil {
			continue
		}
		//
		def, kerrs := p.compileGroupKey(subject, key, fence)
		if len(kerrs) > 0 {
			p.bindings = p.bindings[:saved]
			return nil, kerrs
		}
		//
		stmt.Using = append(stmt.Using, def)
	}
	//
	p.bindings = p.bindings[:saved]
	//
	freeType, _ := p.env.Schema.Type(schema.FreeObjectName)
	freeRef := p.env.TypeRef(freeType)
	//
	result := &ir.Set{
		PathId:  ir.NewNamedPathId(freeRef, p.freshName("group"), nil),
		TypeRef: freeRef,
	}
	p.register(result, grp)
	stmt.Result = result
	//
	return p.wrapExpr(stmt, freeRef, grp), nil
}

// compileGroupKey synthesizes a binding for a by key naming a pointer of
// the group subject.
func (p *compiler) compileGroupKey(subject *ir.Set, key *ast.Ident,
	fence *ir.ScopeTreeNode) (*ir.Set, []SyntaxError) {
	//
	styp := p.schemaType(subject.TypeRef)
	if styp == nil {
		return nil, p.errorAt(key, "unknown grouping key '%s'", key.Name)
	}
	//
	ptr, ok := styp.Pointer(key.Name)
	if !ok {
		return nil, p.errorAt(key, "unknown grouping key '%s'", key.Name)
	}
	//
	bindFence, bindBranch := p.attachScope(fence)
	//
	ref := p.env.PointerRef(ptr)
	target := p.env.TypeRef(ptr.Target)
	value := &ir.Set{
		PathId:  subject.PathId.Extend(ref, ir.DirOutbound, nil),
		TypeRef: target,
		RPtr: &ir.Pointer{
			Source:         subject,
			Ref:            ref,
			Direction:      ir.DirOutbound,
			SchemaComputed: ptr.Computed,
		},
	}
	p.register(value, key)
	//
	if err := bindBranch.AttachPath(value.PathId, false); err != nil {
		return nil, p.scopeError(key, err)
	}
	//
	ns := ir.NewNamespaceSet(p.freshName("ns"))
	def := &ir.Set{
		PathId:      ir.NewNamedPathId(target, key.Name, ns),
		TypeRef:     target,
		Expr:        value,
		PathScopeId: bindFence.UniqueId(),
	}
	p.register(def, key)
	//
	p.bindings = append(p.bindings, &binding{
		name:    key.Name,
		path:    def.PathId,
		typeRef: target,
		value:   value,
		scopeId: bindFence.UniqueId(),
		kind:    ir.BindWith,
	})
	//
	return def, nil
}
