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
	"sort"

	"github.com/vinelang/go-vine/pkg/ir"
)

// Qualified names of standard operators given special treatment during
// analysis.
const (
	opUnion     = "std::UNION"
	opExcept    = "std::EXCEPT"
	opIntersect = "std::INTERSECT"
	opDistinct  = "std::DISTINCT"
	opIf        = "std::IF"
	opCoalesce  = "std::??"
	opEquals    = "std::="
	opAnd       = "std::AND"
	opConcat    = "std::++"
)

// Unqualified names of standard functions given special treatment during
// analysis.
const (
	fnAssertDistinct = "assert_distinct"
	fnAssertExists   = "assert_exists"
	fnEnumerate      = "enumerate"
)

// StdFunction describes a standard library function known to the compiler.
type StdFunction struct {
	// Name is the fully qualified name of the function.
	Name string
	// ShortName is the unqualified name the function is called by.
	ShortName string
	// ArgMods gives the declared type modifier of each parameter, in the
	// order arguments are bound.  Functions accepting an optional failure
	// message bind it first, ahead of their input set.
	ArgMods []ir.TypeModifier
	// ReturnMod is the declared type modifier of the result.
	ReturnMod ir.TypeModifier
	// ReturnType names the scalar type of the result, or "" for functions
	// returning (values of) their input type.
	ReturnType string
	// Volatility declared for the function.
	Volatility ir.Volatility
}

// StdOperator describes a standard operator known to the compiler.
type StdOperator struct {
	// Name is the fully qualified name of the operator.
	Name string
	// Symbol is the surface form the operator is written as.
	Symbol string
	// Kind is the syntactic form of the operator.
	Kind ir.OperatorKind
	// ArgMods gives the declared type modifier of each operand, in the
	// order operands are bound.
	ArgMods []ir.TypeModifier
	// ReturnMod is the declared type modifier of the result.
	ReturnMod ir.TypeModifier
	// ReturnType names the scalar type of the result, or "" for operators
	// returning (values of) their operand type.
	ReturnType string
	// Volatility declared for the operator.
	Volatility ir.Volatility
}

var stdFunctions = []StdFunction{
	{"std::count", "count",
		[]ir.TypeModifier{ir.ModSetOf},
		ir.ModSingleton, "std::int64", ir.VolImmutable},
	{"std::sum", "sum",
		[]ir.TypeModifier{ir.ModSetOf},
		ir.ModSingleton, "", ir.VolImmutable},
	{"std::min", "min",
		[]ir.TypeModifier{ir.ModSetOf},
		ir.ModOptional, "", ir.VolImmutable},
	{"std::max", "max",
		[]ir.TypeModifier{ir.ModSetOf},
		ir.ModOptional, "", ir.VolImmutable},
	{"std::all", "all",
		[]ir.TypeModifier{ir.ModSetOf},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{"std::any", "any",
		[]ir.TypeModifier{ir.ModSetOf},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{"std::len", "len",
		[]ir.TypeModifier{ir.ModSingleton},
		ir.ModSingleton, "std::int64", ir.VolImmutable},
	{"std::str_upper", "str_upper",
		[]ir.TypeModifier{ir.ModSingleton},
		ir.ModSingleton, "std::str", ir.VolImmutable},
	{"std::str_lower", "str_lower",
		[]ir.TypeModifier{ir.ModSingleton},
		ir.ModSingleton, "std::str", ir.VolImmutable},
	{"std::enumerate", fnEnumerate,
		[]ir.TypeModifier{ir.ModSetOf},
		ir.ModSetOf, "", ir.VolImmutable},
	{"std::assert_distinct", fnAssertDistinct,
		[]ir.TypeModifier{ir.ModOptional, ir.ModSetOf},
		ir.ModSetOf, "", ir.VolImmutable},
	{"std::assert_exists", fnAssertExists,
		[]ir.TypeModifier{ir.ModOptional, ir.ModSetOf},
		ir.ModSetOf, "", ir.VolImmutable},
	{"std::random", "random",
		nil,
		ir.ModSingleton, "std::float64", ir.VolVolatile},
	{"std::uuid_generate_v1mc", "uuid_generate_v1mc",
		nil,
		ir.ModSingleton, "std::uuid", ir.VolVolatile},
	{"std::datetime_current", "datetime_current",
		nil,
		ir.ModSingleton, "std::datetime", ir.VolVolatile},
	{"std::datetime_of_transaction", "datetime_of_transaction",
		nil,
		ir.ModSingleton, "std::datetime", ir.VolStable},
}

var stdOperators = []StdOperator{
	{opEquals, "=", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{"std::!=", "!=", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{"std::<", "<", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{"std::<=", "<=", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{"std::>", ">", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{"std::>=", ">=", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{"std::+", "+", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "", ir.VolImmutable},
	{"std::-", "-", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "", ir.VolImmutable},
	{"std::*", "*", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "", ir.VolImmutable},
	{"std::/", "/", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "", ir.VolImmutable},
	{opConcat, "++", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "", ir.VolImmutable},
	{opAnd, "and", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{"std::OR", "or", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSingleton},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{"std::NOT", "not", ir.Prefix,
		[]ir.TypeModifier{ir.ModSingleton},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{"std::EXISTS", "exists", ir.Prefix,
		[]ir.TypeModifier{ir.ModSetOf},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{"std::IN", "in", ir.Infix,
		[]ir.TypeModifier{ir.ModSingleton, ir.ModSetOf},
		ir.ModSingleton, "std::bool", ir.VolImmutable},
	{opDistinct, "distinct", ir.Prefix,
		[]ir.TypeModifier{ir.ModSetOf},
		ir.ModSetOf, "", ir.VolImmutable},
	{opUnion, "union", ir.Infix,
		[]ir.TypeModifier{ir.ModSetOf, ir.ModSetOf},
		ir.ModSetOf, "", ir.VolImmutable},
	{opExcept, "except", ir.Infix,
		[]ir.TypeModifier{ir.ModSetOf, ir.ModSetOf},
		ir.ModSetOf, "", ir.VolImmutable},
	{opIntersect, "intersect", ir.Infix,
		[]ir.TypeModifier{ir.ModSetOf, ir.ModSetOf},
		ir.ModSetOf, "", ir.VolImmutable},
	{opCoalesce, "??", ir.Infix,
		[]ir.TypeModifier{ir.ModOptional, ir.ModSetOf},
		ir.ModSetOf, "", ir.VolImmutable},
	// Operands are bound as (then, condition, else), with the condition in
	// the middle mirroring the surface syntax.
	{opIf, "if", ir.Ternary,
		[]ir.TypeModifier{ir.ModSetOf, ir.ModSingleton, ir.ModSetOf},
		ir.ModSetOf, "", ir.VolImmutable},
}

// LookupFunction finds a standard library function from its unqualified
// name.
func LookupFunction(name string) (*StdFunction, bool) {
	for i := range stdFunctions {
		if stdFunctions[i].ShortName == name {
			return &stdFunctions[i], true
		}
	}
	//
	return nil, false
}

// LookupOperator finds a standard operator from its surface symbol and the
// number of operands applied to it.
func LookupOperator(symbol string, arity int) (*StdOperator, bool) {
	for i := range stdOperators {
		if stdOperators[i].Symbol == symbol && len(stdOperators[i].ArgMods) == arity {
			return &stdOperators[i], true
		}
	}
	//
	return nil, false
}

// StdNames enumerates every name the standard library responds to, sorted
// for deterministic presentation (e.g. completion).
func StdNames() []string {
	names := make([]string, 0, len(stdFunctions)+len(stdOperators))
	//
	for i := range stdFunctions {
		names = append(names, stdFunctions[i].ShortName)
	}
	//
	for i := range stdOperators {
		names = append(names, stdOperators[i].Symbol)
	}
	//
	sort.Strings(names)
	//
	return names
}
