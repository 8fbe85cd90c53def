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
package vine

import (
	"sort"

	"github.com/vinelang/go-vine/pkg/ir"
	"github.com/vinelang/go-vine/pkg/schema"
	"github.com/vinelang/go-vine/pkg/util/collection/hash"
	"github.com/vinelang/go-vine/pkg/util/source"
	"github.com/vinelang/go-vine/pkg/vine/ast"
	"github.com/vinelang/go-vine/pkg/vine/compiler"
	"github.com/vinelang/go-vine/pkg/vine/parser"
)

// SyntaxError is a convenient alias.
type SyntaxError = source.SyntaxError

// Analysis packages up everything the analyzer determined about one
// statement: its lowered form, the scope tree built alongside it and the
// environment holding the per-node annotations.
type Analysis struct {
	// Statement in its analyzed form.
	Statement *ir.Statement
	// Env the statement was analyzed under.
	Env *compiler.Environment
}

// Cardinality of the whole statement.
func (p *Analysis) Cardinality() ir.Cardinality {
	return p.Statement.Cardinality
}

// Multiplicity of the whole statement.
func (p *Analysis) Multiplicity() ir.MultiplicityInfo {
	return p.Statement.Multiplicity
}

// Volatility of the whole statement.
func (p *Analysis) Volatility() ir.VolatilityInfo {
	return p.Statement.Volatility
}

// ScopeTree built for the statement.
func (p *Analysis) ScopeTree() *ir.ScopeTreeNode {
	return p.Statement.ScopeTree
}

// PathUsage reports how often one distinct path occurs within a statement.
// Every syntactic occurrence of a path compiles to its own expression node,
// so occurrences are folded together by structural path equality rather
// than by node identity.
type PathUsage struct {
	// Path being reported on.
	Path *ir.PathId
	// References gives the number of occurrences of the path.
	References int
}

// Paths reports every distinct path referenced by the statement, along with
// its number of occurrences.  Only genuine path references count: a bare
// root (User), a pointer traversal (User.name) or a binding mention, but
// not computed expressions which merely carry a path for identification.
// Prefixes count as well, since traversing User.name references User too.
// The report is sorted by the rendered path, so repeated runs agree.
func (p *Analysis) Paths() []PathUsage {
	counts := hash.NewMap[*ir.PathId, int](32)
	// Fold all path references together.
	ir.Walk(p.Statement, func(node ir.Node) {
		if set, ok := node.(*ir.Set); ok && referencesPath(set) {
			count, _ := counts.Get(set.PathId)
			counts.Insert(set.PathId, count+1)
		}
	})
	//
	usages := make([]PathUsage, 0, counts.Size())
	//
	counts.Each(func(path *ir.PathId, count int) {
		usages = append(usages, PathUsage{path, count})
	})
	// Impose a deterministic order.
	sort.Slice(usages, func(i, j int) bool {
		return usages[i].Path.String() < usages[j].Path.String()
	})
	//
	return usages
}

// A set references its path when it names a schema pointer directly, is a
// bare root, or mentions a name binding.  Computed sets carry a path purely
// as an identity for their materialized value, so they do not count, and
// neither do binding definitions.
func referencesPath(set *ir.Set) bool {
	if set.PathId == nil {
		return false
	}
	//
	return set.RPtr != nil || set.Binding != ir.BindNone || set.Expr == nil
}

// AnalyzeSourceFile parses one query file and analyzes every statement of
// it against the given schema.  Analysis of the remaining statements
// continues past a failing one, so all errors surface in a single run.
func AnalyzeSourceFile(sch *schema.Schema, srcfile *source.File) ([]*Analysis, []SyntaxError) {
	script, nodemap, errs := parser.ParseSourceFile(srcfile)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return analyzeScript(script, sch, nodemap)
}

// AnalyzeString is a convenience wrapper around AnalyzeSourceFile for
// queries held in memory, e.g. within the testing environment or the repl.
func AnalyzeString(sch *schema.Schema, text string) ([]*Analysis, []SyntaxError) {
	return AnalyzeSourceFile(sch, source.NewSourceFile("<query>", []byte(text)))
}

func analyzeScript(script *ast.Script, sch *schema.Schema,
	nodemap *source.Map[ast.Node]) ([]*Analysis, []SyntaxError) {
	//
	stmts, envs, errs := compiler.CompileScript(script, sch, nodemap)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	analyses := make([]*Analysis, len(stmts))
	for i, stmt := range stmts {
		analyses[i] = &Analysis{Statement: stmt, Env: envs[i]}
	}
	//
	return analyses, nil
}
