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

var (
	volImmutable = ir.VolatilityOf(ir.VolImmutable)
	volStable    = ir.VolatilityOf(ir.VolStable)
	// volModifying splits the answer: the expression modifies data, but
	// its result, once materialized, is stable.
	volModifying = ir.VolatilityInfo{Real: ir.VolModifying, Materialization: ir.VolStable}
)

// InferVolatility determines how stable the value of the given expression
// is across evaluations.  With excludeDML set, data modifications count
// only for the stability of their materialized result, which is what
// matters when deciding whether an expression can be reused.
func InferVolatility(node ir.Node, env *Environment, excludeDML bool) (ir.Volatility, *source.SyntaxError) {
	p := volatilityInferer{env}
	//
	info, err := p.infer(node)
	if err != nil {
		return ir.VolUnknown, err
	}
	//
	vol := info.Component(excludeDML)
	if !validVolatility(vol) {
		return ir.VolUnknown, env.queryError(node, "could not determine the volatility of expression")
	}
	//
	return vol, nil
}

// volatilityInferer computes volatility bottom-up over the expression
// graph.  Unlike the other passes, results do not depend on scope, so
// memoization is per node alone.
type volatilityInferer struct {
	// env holds the schema, caches and source maps for this compilation.
	env *Environment
}

func (p *volatilityInferer) infer(n ir.Node) (ir.VolatilityInfo, *source.SyntaxError) {
	if vol, ok := p.env.volatility[n]; ok {
		return vol, nil
	}
	//
	vol, err := p.inferNode(n)
	if err != nil {
		return vol, err
	}
	// Done
	p.env.volatility[n] = vol
	//
	return vol, nil
}

func (p *volatilityInferer) inferNode(n ir.Node) (ir.VolatilityInfo, *source.SyntaxError) {
	switch n := n.(type) {
	case *ir.EmptySet:
		return volImmutable, nil
	case *ir.Set:
		return p.inferSet(n)
	case *ir.Constant:
		return volImmutable, nil
	case *ir.ConstantSet:
		vol := volImmutable
		//
		for _, el := range n.Elements {
			elVol, err := p.infer(el)
			if err != nil {
				return vol, err
			}
			//
			vol = vol.Max(elVol)
		}
		//
		return vol, nil
	case *ir.Parameter:
		// Globals can be reset mid-session.
		if n.IsGlobal {
			return volStable, nil
		}
		//
		return volImmutable, nil
	case *ir.ClearedExpr:
		return volImmutable, nil
	case *ir.TypeRef:
		return volImmutable, nil
	case *ir.TypeIntrospection:
		return volImmutable, nil
	case *ir.TriggerAnchor:
		return volStable, nil
	case *ir.TypeCheckOp:
		return p.infer(n.Left)
	case *ir.TypeCast:
		return p.infer(n.Expr)
	case *ir.TupleIndirection:
		return p.infer(n.Expr)
	case *ir.SliceIndirection:
		return p.maxParts(n.Expr, n.Start, n.Stop)
	case *ir.IndexIndirection:
		return p.maxParts(n.Expr, n.Index)
	case *ir.Array:
		return p.maxParts(n.Elements...)
	case *ir.Tuple:
		parts := make([]*ir.Set, len(n.Elements))
		for i, el := range n.Elements {
			parts[i] = el.Val
		}
		//
		return p.maxParts(parts...)
	case *ir.FTSDocument:
		return p.maxParts(n.Text, n.Language)
	case *ir.FunctionCall:
		return p.inferCall(&n.Call)
	case *ir.OperatorCall:
		return p.inferCall(&n.Call)
	case *ir.SelectStmt:
		return p.inferSelect(n)
	case *ir.GroupStmt:
		return p.inferGroup(n)
	case *ir.InsertStmt:
		return volModifying, nil
	case *ir.UpdateStmt:
		return volModifying, nil
	case *ir.DeleteStmt:
		return volModifying, nil
	case *ir.Stmt:
		return p.maxParts(append([]*ir.Set{n.Result, n.Iterator}, n.Bindings...)...)
	case *ir.Statement:
		return p.infer(n.Expr)
	case *ir.ConfigSet:
		return volStable, nil
	case *ir.ConfigReset:
		return volStable, nil
	case *ir.ConfigInsert:
		return volStable, nil
	default:
		panic(fmt.Sprintf("unknown expression (%T)", n))
	}
}

// inferSet determines the volatility of a path step or wrapped
// sub-expression.  The result is cached before walking any shape, so
// self-referential shapes settle instead of recursing forever.
func (p *volatilityInferer) inferSet(set *ir.Set) (ir.VolatilityInfo, *source.SyntaxError) {
	vol, err := p.inferSetInner(set)
	if err != nil {
		return vol, err
	}
	//
	p.env.volatility[set] = vol
	//
	for _, el := range set.Shape {
		elVol, err := p.infer(el.Set)
		if err != nil {
			return vol, err
		}
		//
		vol = vol.Max(elVol)
	}
	// A bound name stands for a value computed elsewhere, however
	// volatile the computation that produced it was.
	if set.Binding != ir.BindNone && set.Binding != ir.BindSchema {
		vol = volImmutable
	}
	//
	return vol, nil
}

func (p *volatilityInferer) inferSetInner(set *ir.Set) (ir.VolatilityInfo, *source.SyntaxError) {
	if set.PathId != nil && p.env.Singletons.Contains(set.PathId) {
		return volImmutable, nil
	}
	//
	if rptr := set.RPtr; rptr != nil {
		vol, err := p.infer(rptr.Source)
		if err != nil {
			return vol, err
		}
		// A computed pointer's expression contributes unless it was
		// already fixed in the schema.
		if rptr.Expr != nil && !rptr.SchemaComputed {
			exprVol, err := p.infer(rptr.Expr)
			if err != nil {
				return vol, err
			}
			//
			vol = vol.Max(exprVol)
		}
		// Traversals out of a non-singleton object set depend on the
		// database contents.
		if ir.IsObjectType(rptr.Source.TypeRef) &&
			(rptr.Source.PathId == nil || !p.env.Singletons.Contains(rptr.Source.PathId)) {
			vol = vol.Max(volStable)
		}
		//
		return vol, nil
	} else if set.Expr != nil {
		return p.infer(set.Expr)
	}
	// A bare path root reads the database.
	return volStable, nil
}

// inferCall folds argument volatility over the callee's own, which for an
// inlined call is the volatility of its body.
func (p *volatilityInferer) inferCall(call *ir.Call) (ir.VolatilityInfo, *source.SyntaxError) {
	var (
		vol ir.VolatilityInfo
		err *source.SyntaxError
	)
	//
	if call.Body != nil {
		if vol, err = p.infer(call.Body); err != nil {
			return vol, err
		}
	} else {
		vol = ir.VolatilityOf(call.Volatility)
	}
	//
	for _, arg := range call.Args {
		argVol, err := p.infer(arg.Expr)
		if err != nil {
			return vol, err
		}
		//
		vol = vol.Max(argVol)
	}
	//
	return vol, nil
}

func (p *volatilityInferer) inferSelect(stmt *ir.SelectStmt) (ir.VolatilityInfo, *source.SyntaxError) {
	parts := []*ir.Set{stmt.Iterator, stmt.Result, stmt.Where, stmt.Offset, stmt.Limit}
	parts = append(parts, sortExprs(stmt.OrderBy)...)
	parts = append(parts, stmt.Bindings...)
	//
	return p.maxParts(parts...)
}

func (p *volatilityInferer) inferGroup(stmt *ir.GroupStmt) (ir.VolatilityInfo, *source.SyntaxError) {
	parts := []*ir.Set{stmt.Iterator, stmt.Subject, stmt.Result, stmt.Where}
	parts = append(parts, stmt.Using...)
	parts = append(parts, sortExprs(stmt.OrderBy)...)
	parts = append(parts, stmt.Bindings...)
	//
	return p.maxParts(parts...)
}

// maxParts folds volatility across a group of optional clauses.
func (p *volatilityInferer) maxParts(parts ...*ir.Set) (ir.VolatilityInfo, *source.SyntaxError) {
	vol := volImmutable
	//
	for _, part := range parts {
		if part == nil {
			continue
		}
		//
		partVol, err := p.infer(part)
		if err != nil {
			return vol, err
		}
		//
		vol = vol.Max(partVol)
	}
	//
	return vol, nil
}

// validVolatility checks an inference result narrowed to one of the four
// concrete levels.
func validVolatility(vol ir.Volatility) bool {
	switch vol {
	case ir.VolImmutable, ir.VolStable, ir.VolVolatile, ir.VolModifying:
		return true
	}
	//
	return false
}
