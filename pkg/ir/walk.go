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

import (
	"fmt"
)

// Walk applies fn to the given node and every node beneath it, parents
// before children.  Absent optional children are skipped.
func Walk(node Node, fn func(Node)) {
	fn(node)
	//
	switch n := node.(type) {
	case *EmptySet:
		walkSetParts(&n.Set, fn)
	case *Set:
		walkSetParts(n, fn)
	case *Constant, *Parameter, *ClearedExpr, *TriggerAnchor,
		*TypeIntrospection, *TypeRef:
		// Leaves.
	case *ConstantSet:
		for _, element := range n.Elements {
			Walk(element, fn)
		}
	case *Tuple:
		for _, element := range n.Elements {
			walkSet(element.Val, fn)
		}
	case *Array:
		for _, element := range n.Elements {
			walkSet(element, fn)
		}
	case *TupleIndirection:
		walkSet(n.Expr, fn)
	case *SliceIndirection:
		walkSet(n.Expr, fn)
		walkSet(n.Start, fn)
		walkSet(n.Stop, fn)
	case *IndexIndirection:
		walkSet(n.Expr, fn)
		walkSet(n.Index, fn)
	case *TypeCheckOp:
		walkSet(n.Left, fn)
	case *TypeCast:
		walkSet(n.Expr, fn)
	case *FTSDocument:
		walkSet(n.Text, fn)
		walkSet(n.Language, fn)
	case *FunctionCall:
		walkCall(&n.Call, fn)
	case *OperatorCall:
		walkCall(&n.Call, fn)
	case *SelectStmt:
		walkStmt(&n.Stmt, fn)
		walkSet(n.Where, fn)
		//
		for _, key := range n.OrderBy {
			walkSet(key.Expr, fn)
		}
		//
		walkSet(n.Offset, fn)
		walkSet(n.Limit, fn)
	case *GroupStmt:
		walkStmt(&n.Stmt, fn)
		walkSet(n.Where, fn)
		walkSet(n.Subject, fn)
		//
		for _, using := range n.Using {
			walkSet(using, fn)
		}
		//
		for _, key := range n.OrderBy {
			walkSet(key.Expr, fn)
		}
	case *InsertStmt:
		walkStmt(&n.Stmt, fn)
		walkSet(n.Where, fn)
		walkSet(n.Subject, fn)
		//
		if n.OnConflict != nil {
			walkSet(n.OnConflict.Select, fn)
			walkSet(n.OnConflict.Else, fn)
		}
	case *UpdateStmt:
		walkStmt(&n.Stmt, fn)
		walkSet(n.Where, fn)
		walkSet(n.Subject, fn)
	case *DeleteStmt:
		walkStmt(&n.Stmt, fn)
		walkSet(n.Where, fn)
		walkSet(n.Subject, fn)
	case *Stmt:
		walkStmt(n, fn)
	case *Statement:
		walkSet(n.Expr, fn)
	case *ConfigSet:
		walkSet(n.Expr, fn)
	case *ConfigReset:
		walkSet(n.Where, fn)
	case *ConfigInsert:
		walkSet(n.Expr, fn)
	default:
		panic(fmt.Sprintf("unknown node (%T)", n))
	}
}

// Walk a set when present.
func walkSet(set *Set, fn func(Node)) {
	if set != nil {
		Walk(set, fn)
	}
}

// Walk the children of a set: its computing expression, the traversal
// producing it and its shape elements.
func walkSetParts(set *Set, fn func(Node)) {
	if set.Expr != nil {
		Walk(set.Expr, fn)
	}
	//
	if set.RPtr != nil {
		walkSet(set.RPtr.Source, fn)
		//
		if set.RPtr.Expr != nil {
			Walk(set.RPtr.Expr, fn)
		}
	}
	//
	for _, element := range set.Shape {
		walkSet(element.Set, fn)
	}
}

// Walk the children common to all statement forms.
func walkStmt(stmt *Stmt, fn func(Node)) {
	walkSet(stmt.Result, fn)
	walkSet(stmt.Iterator, fn)
	//
	for _, binding := range stmt.Bindings {
		walkSet(binding, fn)
	}
}

// Walk the children common to function and operator calls.
func walkCall(call *Call, fn func(Node)) {
	for _, arg := range call.Args {
		walkSet(arg.Expr, fn)
	}
	//
	walkSet(call.Body, fn)
}
