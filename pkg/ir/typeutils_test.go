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
	"testing"
)

func Test_TypeUtils_01(t *testing.T) {
	named := testTupleRef("tuple<x: std::str, y: std::int64>",
		&TypeRef{Name: "std::str", IsScalar: true, ElementName: "x"},
		&TypeRef{Name: "std::int64", IsScalar: true, ElementName: "y"})
	//
	if i := TupleElementIndex(named, "y"); i != 1 {
		t.Errorf("element y resolves to %d", i)
	}
	//
	if i := TupleElementIndex(named, "z"); i != -1 {
		t.Errorf("missing element resolves to %d", i)
	}
	// Unnamed elements resolve positionally.
	positional := testTupleRef("tuple<std::str, std::int64>",
		testScalarRef("std::str"), testScalarRef("std::int64"))
	//
	if i := TupleElementIndex(positional, "0"); i != 0 {
		t.Errorf("element 0 resolves to %d", i)
	}
	//
	if i := TupleElementIndex(positional, "2"); i != -1 {
		t.Errorf("out-of-range element resolves to %d", i)
	}
}

func Test_TypeUtils_02(t *testing.T) {
	user := testObjectRef("default::User")
	str := testScalarRef("std::str")
	array := &TypeRef{Name: "array<std::str>", Collection: ArrayTypeName, Subtypes: []*TypeRef{str}}
	tuple := testTupleRef("tuple<std::str>", str)
	//
	if !IsObjectType(user) || IsObjectType(str) || IsObjectType(array) || IsObjectType(nil) {
		t.Errorf("object classification broken")
	}
	//
	if !IsTupleType(tuple) || IsTupleType(array) {
		t.Errorf("tuple classification broken")
	}
	//
	if !IsArrayType(array) || IsArrayType(tuple) {
		t.Errorf("array classification broken")
	}
}

func Test_TypeUtils_03(t *testing.T) {
	user := testObjectRef("default::User")
	admin := testObjectRef("default::Admin")
	union := &TypeRef{Name: "(default::User | default::Admin)", Union: []*TypeRef{user, admin}}
	//
	refs := UnionComponentRefs(union)
	//
	if len(refs) != 2 || refs[0] != user || refs[1] != admin {
		t.Errorf("union components resolved as %v", refs)
	}
	// Non-unions stand for themselves.
	refs = UnionComponentRefs(user)
	//
	if len(refs) != 1 || refs[0] != user {
		t.Errorf("non-union resolved as %v", refs)
	}
}

func Test_TypeUtils_04(t *testing.T) {
	user := testObjectRef("default::User")
	admin := testObjectRef("default::Admin")
	friends := testLinkRef("friends", user, user, CardMany)
	//
	root := &Set{TypeRef: user, PathId: NewPathId(user, nil)}
	step := &Set{TypeRef: user, RPtr: &Pointer{Source: root, Ref: friends, Direction: DirOutbound}}
	narrowed := &Set{TypeRef: admin, RPtr: &Pointer{
		Source:    step,
		Ref:       NewTypeIntersectionRef(user, admin, false, nil),
		Direction: DirOutbound,
	}}
	//
	if GetPathRoot(narrowed) != root {
		t.Errorf("path root lookup broken")
	}
	// Collapsing walks through intersection steps only.
	below, ptrs := CollapseTypeIntersection(narrowed)
	//
	if below != step || len(ptrs) != 1 {
		t.Errorf("collapsed to %v through %d pointers", below, len(ptrs))
	}
	//
	if below, ptrs = CollapseTypeIntersection(step); below != step || ptrs != nil {
		t.Errorf("non-intersection collapsed to %v through %d pointers", below, len(ptrs))
	}
}
