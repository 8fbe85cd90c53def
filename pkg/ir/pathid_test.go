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

	"github.com/vinelang/go-vine/pkg/schema"
)

func Test_PathId_01(t *testing.T) {
	user := testObjectRef("default::User")
	path := NewPathId(user, nil)
	//
	if path.IsEmpty() {
		t.Errorf("root path reported empty")
	}
	//
	if path.Len() != 1 {
		t.Errorf("root path has length %d (expected 1)", path.Len())
	}
	//
	if path.Target() != user {
		t.Errorf("root path targets %s", path.Target())
	}
	//
	if path.RPtr() != nil || path.RPtrName() != "" {
		t.Errorf("root path reported a pointer step")
	}
	//
	if !path.IsObjectPath() || path.IsScalarPath() || path.IsPtrPath() {
		t.Errorf("root path misclassified")
	}
	//
	if path.String() != "User" {
		t.Errorf("root path renders as %q", path.String())
	}
}

func Test_PathId_02(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	path := NewPathId(user, nil).Extend(friends, DirOutbound, nil)
	//
	if path.Len() != 3 {
		t.Errorf("extended path has length %d (expected 3)", path.Len())
	}
	//
	if path.Target() != user {
		t.Errorf("extended path targets %s", path.Target())
	}
	//
	if path.RPtrName() != "friends" {
		t.Errorf("final step is %q", path.RPtrName())
	}
	//
	if path.RPtrDir() != DirOutbound {
		t.Errorf("final step has direction %s", path.RPtrDir())
	}
	//
	if path.String() != "User.friends" {
		t.Errorf("extended path renders as %q", path.String())
	}
	// The immediate prefix is the root itself.
	if src := path.SrcPath(); src == nil || !src.Equals(NewPathId(user, nil)) {
		t.Errorf("source prefix of %s is %s", path, src)
	}
}

func Test_PathId_03(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	name := testPropertyRef("name", user, testScalarRef("std::str"))
	// Identity is structural, hence paths built independently from
	// equivalent refs must coincide.
	lhs := NewPathId(user, nil).Extend(friends, DirOutbound, nil)
	rhs := NewPathId(user, nil).Extend(testLinkRef("friends", user, user, CardMany), DirOutbound, nil)
	check_PathIdEqual(t, lhs, rhs)
	// A step whose target is a view normalizes to the underlying material
	// type, hence coincides with the direct step.
	view := &TypeRef{ID: schema.NameToID("default::UserView"), Name: "default::UserView", MaterialType: user}
	check_PathIdEqual(t, lhs,
		NewPathId(user, nil).Extend(testLinkRef("friends", user, view, CardMany), DirOutbound, nil))
	//
	if lhs.Equals(NewPathId(user, nil)) {
		t.Errorf("%s equals its own prefix", lhs)
	}
	//
	if lhs.Equals(NewPathId(user, nil).Extend(name, DirOutbound, nil)) {
		t.Errorf("distinct steps compare equal")
	}
	// The pointer form of a path is distinct from its target form.
	if lhs.Equals(lhs.PtrPath()) {
		t.Errorf("pointer path equals target path")
	}
	//
	check_PathIdEqual(t, lhs.PtrPath().TgtPath(), lhs)
}

func Test_PathId_04(t *testing.T) {
	user := testObjectRef("default::User")
	post := testObjectRef("default::Post")
	author := testLinkRef("author", post, user, CardOne)
	// Follow the author link backwards from User to Post.
	path := NewPathId(user, nil).Extend(author, DirInbound, nil)
	//
	if path.Target() != post {
		t.Errorf("backlink targets %s", path.Target())
	}
	//
	if path.RPtrDir() != DirInbound {
		t.Errorf("backlink has direction %s", path.RPtrDir())
	}
	//
	if path.String() != "User.<author" {
		t.Errorf("backlink renders as %q", path.String())
	}
	// Direction participates in identity.
	if path.Equals(NewPathId(user, nil).Extend(author, DirOutbound, nil)) {
		t.Errorf("opposite directions compare equal")
	}
}

func Test_PathId_05(t *testing.T) {
	user := testObjectRef("default::User")
	str := testScalarRef("std::str")
	friends := testLinkRef("friends", user, user, CardMany)
	strength := testLinkPropertyRef("strength", friends, str)
	//
	base := NewPathId(user, nil).Extend(friends, DirOutbound, nil)
	path := base.PtrPath().Extend(strength, DirOutbound, nil)
	//
	if !path.IsLinkPropPath() {
		t.Errorf("%s not reported as a link property path", path)
	}
	//
	if path.String() != "User.friends@strength" {
		t.Errorf("link property path renders as %q", path.String())
	}
	//
	if base.PtrPath().String() != "User.friends@" {
		t.Errorf("pointer path renders as %q", base.PtrPath().String())
	}
	// Slicing a link property path at the property boundary yields the
	// pointer form of the enclosing link.
	prefix := path.GetPrefix(3)
	//
	if !prefix.IsPtrPath() {
		t.Errorf("prefix %s not reported as a pointer path", prefix)
	}
	//
	check_PathIdEqual(t, prefix, base.PtrPath())
	check_PathIdEqual(t, prefix.TgtPath(), base)
}

func Test_PathId_06(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	name := testPropertyRef("name", user, testScalarRef("std::str"))
	//
	root := NewPathId(user, nil)
	mid := root.Extend(friends, DirOutbound, nil)
	path := mid.Extend(name, DirOutbound, nil)
	//
	check_PathIdEqual(t, path.GetPrefix(1), root)
	check_PathIdEqual(t, path.GetPrefix(3), mid)
	check_PathIdEqual(t, path.GetPrefix(5), path)
	// Slicing a slice is the same as slicing once.
	check_PathIdEqual(t, path.GetPrefix(3).GetPrefix(1), path.GetPrefix(1))
	// Negative sizes count back from the end.
	check_PathIdEqual(t, path.GetPrefix(-2), mid)
	check_PathIdEqual(t, path.SrcPath(), mid)
	//
	if prefix := path.GetPrefix(0); !prefix.IsEmpty() {
		t.Errorf("zero prefix is %s", prefix)
	}
}

func Test_PathId_07(t *testing.T) {
	user := testObjectRef("default::User")
	str := testScalarRef("std::str")
	friends := testLinkRef("friends", user, user, CardMany)
	strength := testLinkPropertyRef("strength", friends, str)
	//
	root := NewPathId(user, nil)
	base := root.Extend(friends, DirOutbound, nil)
	path := base.PtrPath().Extend(strength, DirOutbound, nil)
	//
	if !path.StartsWith(root, false) {
		t.Errorf("%s does not start with %s", path, root)
	}
	//
	if root.StartsWith(path, false) {
		t.Errorf("%s starts with %s", root, path)
	}
	// The prefix below a link property is the pointer form of the link,
	// which only matches the target form permissively.
	if path.StartsWith(base, false) {
		t.Errorf("%s starts with %s without permissive matching", path, base)
	}
	//
	if !path.StartsWith(base, true) {
		t.Errorf("%s does not start with %s permissively", path, base)
	}
}

func Test_PathId_08(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	name := testPropertyRef("name", user, testScalarRef("std::str"))
	//
	root := NewPathId(user, nil)
	mid := root.Extend(friends, DirOutbound, nil)
	path := mid.Extend(name, DirOutbound, nil)
	//
	check_PathIdPrefixes(t, path.IterPrefixes(false), root, mid, path)
	check_PathIdPrefixes(t, path.IterPrefixes(true), root, mid, path)
}

func Test_PathId_09(t *testing.T) {
	user := testObjectRef("default::User")
	str := testScalarRef("std::str")
	friends := testLinkRef("friends", user, user, CardMany)
	strength := testLinkPropertyRef("strength", friends, str)
	//
	base := NewPathId(user, nil).Extend(friends, DirOutbound, nil)
	path := base.PtrPath().Extend(strength, DirOutbound, nil)
	// Without pointer variants the link contributes only its target form.
	check_PathIdPrefixes(t, path.IterPrefixes(false),
		NewPathId(user, nil), base, path)
	// With pointer variants the pointer form follows its target form.
	check_PathIdPrefixes(t, path.IterPrefixes(true),
		NewPathId(user, nil), base, base.PtrPath(), path)
}

func Test_PathId_10(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	//
	ns := NewNamespaceSet("ns1")
	path := NewPathId(user, nil).Extend(friends, DirOutbound, nil)
	merged := path.MergeNamespace(ns, false)
	//
	if !merged.Namespace().Equals(ns) {
		t.Errorf("merged namespace is %s", merged.Namespace())
	}
	//
	if merged.Equals(path) {
		t.Errorf("namespaced path equals bare path")
	}
	// Merging nothing new hands back the receiver.
	if merged.MergeNamespace(ns, false) != merged {
		t.Errorf("no-op merge allocated a fresh path")
	}
	//
	check_PathIdEqual(t, merged.StripNamespace(ns), path)
	check_PathIdEqual(t, merged.ReplaceNamespace(nil), path)
	// Stripping an absent namespace changes nothing.
	check_PathIdEqual(t, merged.StripNamespace(ns).StripNamespace(ns), merged.StripNamespace(ns))
}

func Test_PathId_11(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	//
	weak := NewNamespaceSet(WeakNamespace("iter"))
	path := NewPathId(user, nil).Extend(friends, DirOutbound, nil).MergeNamespace(weak, false)
	//
	if path.Namespace().IsEmpty() {
		t.Errorf("weak namespace not recorded")
	}
	//
	stripped := path.StripWeakNamespaces()
	//
	if !stripped.Namespace().IsEmpty() {
		t.Errorf("weak namespace survived stripping: %s", stripped.Namespace())
	}
	//
	check_PathIdEqual(t, stripped, NewPathId(user, nil).Extend(friends, DirOutbound, nil))
}

func Test_PathId_12(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	// A namespace added mid-path records a transition: prefixes below the
	// transition keep the narrower namespace.
	root := NewPathId(user, NewNamespaceSet("a"))
	path := root.Extend(friends, DirOutbound, NewNamespaceSet("b"))
	//
	if path.Namespace().Size() != 2 {
		t.Errorf("extended namespace is %s", path.Namespace())
	}
	//
	prefix := path.GetPrefix(1)
	//
	if !prefix.Namespace().Equals(NewNamespaceSet("a")) {
		t.Errorf("prefix namespace is %s", prefix.Namespace())
	}
	//
	check_PathIdEqual(t, prefix, root)
	// Prefix iteration reflects the transition as well.
	check_PathIdPrefixes(t, path.IterPrefixes(false), root, path)
}

func Test_PathId_13(t *testing.T) {
	user := testObjectRef("default::User")
	admin := testObjectRef("default::Admin")
	friends := testLinkRef("friends", user, user, CardMany)
	name := testPropertyRef("name", user, testScalarRef("std::str"))
	//
	path := NewPathId(user, nil).Extend(friends, DirOutbound, nil).Extend(name, DirOutbound, nil)
	replaced := path.ReplacePrefix(NewPathId(user, nil), NewPathId(admin, nil))
	//
	if replaced.String() != "Admin.friends.name" {
		t.Errorf("replaced path renders as %q", replaced.String())
	}
	//
	if replaced.Len() != path.Len() {
		t.Errorf("replacement changed length to %d", replaced.Len())
	}
	// Paths not carrying the prefix pass through untouched.
	if path.ReplacePrefix(NewPathId(admin, nil), NewPathId(user, nil)) != path {
		t.Errorf("prefix replacement rewrote an unrelated path")
	}
}

func Test_PathId_14(t *testing.T) {
	user := testObjectRef("default::User")
	// Views take their identity from an explicit alias, so two views over
	// the same material type remain distinguishable.
	v1 := NewNamedPathId(user, "alias1", nil)
	v2 := NewNamedPathId(user, "alias2", nil)
	//
	if v1.Equals(v2) {
		t.Errorf("distinct aliases compare equal")
	}
	//
	if v1.Equals(NewPathId(user, nil)) {
		t.Errorf("alias equals its material root")
	}
	//
	check_PathIdEqual(t, v1, NewNamedPathId(user, "alias1", nil))
	// Named roots render their name, material roots their type.
	if s := v1.String(); s != "alias1" {
		t.Errorf("named path renders as %q", s)
	}
	//
	if s := NewPathId(user, nil).String(); s != "User" {
		t.Errorf("material path renders as %q", s)
	}
}

func Test_PathId_15(t *testing.T) {
	user := testObjectRef("default::User")
	str := testScalarRef("std::str")
	friends := testLinkRef("friends", user, user, CardMany)
	strength := testLinkPropertyRef("strength", friends, str)
	// Addressing a pointer yields the same id as walking to it.
	check_PathIdEqual(t, PathIdFromPointer(friends, nil),
		NewPathId(user, nil).Extend(friends, DirOutbound, nil))
	// A link property roots at the pointer form of its enclosing link.
	check_PathIdEqual(t, PathIdFromPointer(strength, nil),
		NewPathId(user, nil).
			Extend(friends, DirOutbound, nil).
			PtrPath().
			Extend(strength, DirOutbound, nil))
}

func Test_PathId_16(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	//
	path := NewPathId(user, nil).Extend(friends, DirOutbound, nil)
	//
	if s := path.DebugString(); s != "(default::User).>friends[IS default::User]" {
		t.Errorf("debug rendering is %q", s)
	}
	//
	namespaced := path.MergeNamespace(NewNamespaceSet("ns1"), false)
	//
	if s := namespaced.DebugString(); s != "ns1@@(default::User).>friends[IS default::User]" {
		t.Errorf("namespaced debug rendering is %q", s)
	}
	//
	weak := path.MergeNamespace(NewNamespaceSet(WeakNamespace("it")), false)
	//
	if s := weak.DebugString(); s != "[it]@@(default::User).>friends[IS default::User]" {
		t.Errorf("weak namespace debug rendering is %q", s)
	}
}

func Test_PathId_17(t *testing.T) {
	user := testObjectRef("default::User")
	tuple := testTupleRef("tuple<std::str,std::int64>",
		testScalarRef("std::str"), testScalarRef("std::int64"))
	coords := testPropertyRef("coords", user, tuple)
	element := NewTupleIndirectionRef(tuple, "0", testScalarRef("std::str"))
	//
	base := NewPathId(user, nil).Extend(coords, DirOutbound, nil)
	path := base.Extend(element, DirOutbound, nil)
	//
	if !base.IsTuplePath() {
		t.Errorf("%s not reported as a tuple path", base)
	}
	//
	if !path.IsTupleIndirectionPath() {
		t.Errorf("%s not reported as a tuple indirection", path)
	}
	//
	if base.IsTupleIndirectionPath() {
		t.Errorf("tuple base misreported as an indirection")
	}
}

func Test_PathId_18(t *testing.T) {
	user := testObjectRef("default::User")
	admin := testObjectRef("default::Admin")
	intersect := NewTypeIntersectionRef(user, admin, false, nil)
	//
	path := NewPathId(user, nil).Extend(intersect, DirOutbound, nil)
	//
	if !path.IsTypeIntersectionPath() {
		t.Errorf("%s not reported as a type intersection", path)
	}
	//
	if path.Target() != admin {
		t.Errorf("intersection targets %s", path.Target())
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func testObjectRef(name string) *TypeRef {
	return &TypeRef{ID: schema.NameToID(name), Name: name}
}

func testScalarRef(name string) *TypeRef {
	return &TypeRef{ID: schema.NameToID(name), Name: name, IsScalar: true}
}

func testTupleRef(name string, subtypes ...*TypeRef) *TypeRef {
	return &TypeRef{
		ID:         schema.NameToID(name),
		Name:       name,
		Collection: TupleTypeName,
		Subtypes:   subtypes,
	}
}

func testLinkRef(name string, source *TypeRef, target *TypeRef, card Cardinality) *PointerRef {
	return &PointerRef{BasePointerRef{
		ID:             schema.NameToID(source.Name + "." + name),
		Name:           source.Name + "." + name,
		ShortName:      name,
		OutSource:      source,
		OutTarget:      target,
		OutCardinality: card,
		InCardinality:  CardMany,
	}}
}

func testPropertyRef(name string, source *TypeRef, target *TypeRef) *PointerRef {
	return testLinkRef(name, source, target, CardOne)
}

func testLinkPropertyRef(name string, link PtrRef, target *TypeRef) *PointerRef {
	ref := testLinkRef(name, link.Base().OutSource, target, CardOne)
	ref.SourcePtr = link
	//
	return ref
}

// check_PathIdEqual checks two paths coincide under both Equals and Hash.
func check_PathIdEqual(t *testing.T, lhs *PathId, rhs *PathId) {
	if !lhs.Equals(rhs) {
		t.Errorf("%s != %s", lhs.DebugString(), rhs.DebugString())
	} else if !rhs.Equals(lhs) {
		t.Errorf("equality not symmetric for %s", lhs.DebugString())
	} else if lhs.Hash() != rhs.Hash() {
		t.Errorf("%s hashes inconsistently with %s", lhs.DebugString(), rhs.DebugString())
	}
}

// check_PathIdPrefixes checks an iterated prefix sequence against the
// expected paths, in order.
func check_PathIdPrefixes(t *testing.T, got []*PathId, expected ...*PathId) {
	if len(got) != len(expected) {
		t.Errorf("got %d prefixes (expected %d)", len(got), len(expected))
		return
	}
	//
	for i := range got {
		if !got[i].Equals(expected[i]) {
			t.Errorf("prefix %d is %s (expected %s)", i, got[i].DebugString(), expected[i].DebugString())
		}
	}
}
