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
	"strings"
	"testing"
)

func Test_ScopeTree_01(t *testing.T) {
	root := NewScopeTreeNode(true)
	//
	if !root.IsFenced() {
		t.Errorf("fence not reported fenced")
	}
	//
	fence := root.AttachFence()
	branch := fence.AttachBranch()
	//
	if branch.Root() != root {
		t.Errorf("root lookup broken")
	}
	//
	if branch.Fence() != fence || fence.Fence() != fence {
		t.Errorf("nearest fence lookup broken")
	}
	//
	if branch.ParentFence() != fence || fence.ParentFence() != root {
		t.Errorf("parent fence lookup broken")
	}
	//
	if len(root.Children()) != 1 || len(fence.Children()) != 1 {
		t.Errorf("attachment produced wrong child counts")
	}
}

func Test_ScopeTree_02(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	path := NewPathId(user, nil).Extend(friends, DirOutbound, nil)
	//
	root := NewScopeTreeNode(true)
	//
	if err := root.AttachPath(path, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// The path becomes a vertical chain, longest prefix at the top.
	top := root.FindChild(path)
	//
	if top == nil {
		t.Fatalf("path not attached at the root")
	}
	//
	if below := top.FindChild(NewPathId(user, nil)); below == nil {
		t.Errorf("path prefix not attached below the path")
	}
	//
	expected := strings.Join([]string{
		`"FENCE": {`,
		`    "(default::User).>friends[IS default::User]": {`,
		`        "(default::User)"`,
		`    }`,
		`}`,
	}, "\n")
	//
	if root.String() != expected {
		t.Errorf("tree renders as:\n%s", root.String())
	}
}

func Test_ScopeTree_03(t *testing.T) {
	user := testObjectRef("default::User")
	path := NewPathId(user, nil)
	//
	root := NewScopeTreeNode(true)
	//
	if err := root.AttachChild(NewScopePathNode(path)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// A second sibling with an equal path is a configuration error.
	err := root.AttachChild(NewScopePathNode(path))
	//
	if err == nil {
		t.Fatalf("duplicate sibling path accepted")
	}
	//
	if err.Error() != "'User' is already present in FENCE" {
		t.Errorf("unexpected message: %s", err)
	}
	//
	var sce *InvalidScopeConfiguration
	//
	if sce, _ = err.(*InvalidScopeConfiguration); sce == nil {
		t.Fatalf("unexpected error type: %T", err)
	}
	//
	if sce.ExistingNode == nil || !sce.ExistingNode.PathId().Equals(path) {
		t.Errorf("conflicting node not reported")
	}
}

func Test_ScopeTree_04(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	path := NewPathId(user, nil).Extend(friends, DirOutbound, nil)
	//
	root := NewScopeTreeNode(true)
	//
	if err := root.AttachPath(path, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// Re-attaching an already-visible path collapses into the existing
	// node rather than duplicating it.
	if err := root.AttachPath(path, true); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	if n := len(root.PathDescendants()); n != 2 {
		t.Errorf("tree holds %d path nodes (expected 2)", n)
	}
	// The incoming optional flag transfers onto the surviving node.
	if !root.IsOptional(path) {
		t.Errorf("optional flag lost in the merge")
	}
	//
	if root.IsOptional(NewPathId(user, nil)) {
		t.Errorf("optional flag leaked onto the prefix")
	}
}

func Test_ScopeTree_05(t *testing.T) {
	user := testObjectRef("default::User")
	path := NewPathId(user, nil)
	//
	root := NewScopeTreeNode(true)
	//
	if err := root.AttachPath(path, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	fence := root.AttachFence()
	fence.SetFactoringFence(true)
	branch := fence.AttachBranch()
	// Referencing a path through a factoring fence is rejected.
	err := branch.AttachPath(path, false)
	//
	if err == nil {
		t.Fatalf("factoring fence not enforced")
	}
	//
	if err.Error() != "cannot reference correlated set 'User' here" {
		t.Errorf("unexpected message: %s", err)
	}
	// An allowlisted path crosses the same fence freely.
	fence.AllowFactoring(path)
	//
	if err := branch.AttachPath(path, false); err != nil {
		t.Errorf("allowlisted path rejected: %s", err)
	}
	//
	if !branch.IsVisible(path) {
		t.Errorf("allowlisted path not visible")
	}
}

func Test_ScopeTree_06(t *testing.T) {
	user := testObjectRef("default::User")
	path := NewPathId(user, nil)
	//
	root := NewScopeTreeNode(true)
	branch := root.AttachBranch()
	//
	if err := branch.AttachPath(path, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	guarded := root.AttachBranch()
	guarded.SetUnnestFence(true)
	// Factoring the path out of the guarded subtree would change what the
	// existing reference ranges over, hence is rejected.
	err := guarded.AttachPath(path, false)
	//
	if err == nil {
		t.Fatalf("unnest fence not enforced")
	}
	//
	expected := "reference to 'User' changes the interpretation of 'User' elsewhere in the query"
	//
	if err.Error() != expected {
		t.Errorf("unexpected message: %s", err)
	}
}

func Test_ScopeTree_07(t *testing.T) {
	user := testObjectRef("default::User")
	path := NewPathId(user, nil)
	//
	root := NewScopeTreeNode(true)
	branch := root.AttachBranch()
	//
	if err := branch.AttachPath(path, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	if root.FindChild(path) != nil {
		t.Fatalf("path visible at the root prematurely")
	}
	// Attaching the same path at the root relocates the existing node up
	// to the common fence, so both references share one binding.
	if err := root.AttachPath(path, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	if root.FindChild(path) == nil {
		t.Errorf("path not relocated to the root")
	}
	//
	if branch.FindChild(path) != nil {
		t.Errorf("path still attached inside the branch")
	}
	//
	if n := len(root.PathDescendants()); n != 1 {
		t.Errorf("tree holds %d path nodes (expected 1)", n)
	}
}

func Test_ScopeTree_08(t *testing.T) {
	user := testObjectRef("default::User")
	str := testScalarRef("std::str")
	friends := testLinkRef("friends", user, user, CardMany)
	name := testPropertyRef("name", user, str)
	nick := testPropertyRef("nick", user, str)
	//
	base := NewPathId(user, nil).Extend(friends, DirOutbound, nil)
	namePath := base.Extend(name, DirOutbound, nil)
	nickPath := base.Extend(nick, DirOutbound, nil)
	//
	root := NewScopeTreeNode(true)
	//
	if err := root.AttachPath(namePath, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// The two paths share the User.friends prefix, which is factored out
	// to the common fence when the second path arrives.
	if err := root.AttachPath(nickPath, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	shared := root.FindChild(base)
	//
	if shared == nil {
		t.Fatalf("shared prefix not factored to the root")
	}
	//
	if shared.FindChild(NewPathId(user, nil)) == nil {
		t.Errorf("root prefix lost in the factoring")
	}
	// Both full paths remain visible from the shared node.
	if !shared.IsVisible(namePath) || !shared.IsVisible(nickPath) {
		t.Errorf("factored paths lost visibility")
	}
}

func Test_ScopeTree_09(t *testing.T) {
	user := testObjectRef("default::User")
	str := testScalarRef("std::str")
	friends := testLinkRef("friends", user, user, CardMany)
	strength := testLinkPropertyRef("strength", friends, str)
	//
	base := NewPathId(user, nil).Extend(friends, DirOutbound, nil)
	path := base.PtrPath().Extend(strength, DirOutbound, nil)
	//
	root := NewScopeTreeNode(true)
	//
	if err := root.AttachPath(path, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// A link property chain does not nest the object prefix below it: the
	// prefix re-attaches at the level the property chain started from.
	if root.FindChild(path) == nil {
		t.Errorf("link property path not attached at the root")
	}
	//
	if root.FindChild(NewPathId(user, nil)) == nil {
		t.Errorf("object root not attached alongside the property chain")
	}
}

func Test_ScopeTree_10(t *testing.T) {
	user := testObjectRef("default::User")
	tuple := testTupleRef("tuple<std::str>", testScalarRef("std::str"))
	coords := testPropertyRef("coords", user, tuple)
	element := NewTupleIndirectionRef(tuple, "0", testScalarRef("std::str"))
	//
	base := NewPathId(user, nil).Extend(coords, DirOutbound, nil)
	path := base.Extend(element, DirOutbound, nil)
	//
	root := NewScopeTreeNode(true)
	//
	if err := root.AttachPath(path, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// A tuple element is singular with its tuple, so the indirection step
	// opens no nesting level of its own.
	if root.FindChild(path) == nil {
		t.Errorf("indirection path not attached at the root")
	}
	//
	if root.FindChild(base) == nil {
		t.Errorf("tuple prefix not attached alongside the indirection")
	}
}

func Test_ScopeTree_11(t *testing.T) {
	user := testObjectRef("default::User")
	post := testObjectRef("default::Post")
	userPath := NewPathId(user, nil)
	postPath := NewPathId(post, nil)
	//
	root := NewScopeTreeNode(true)
	//
	if err := root.AttachPath(userPath, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	fence := root.AttachFence()
	//
	if err := fence.AttachPath(postPath, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// Visibility covers ancestors and their immediate children, so fenced
	// subtrees stay opaque from the outside.
	inner := fence.FindChild(postPath)
	//
	if inner == nil {
		t.Fatalf("path not attached inside the fence")
	}
	//
	if !inner.IsVisible(userPath) || !inner.IsVisible(postPath) {
		t.Errorf("visibility broken inside the fence")
	}
	//
	if root.IsVisible(postPath) {
		t.Errorf("fenced path visible from the root")
	}
	//
	visible := inner.GetAllVisible()
	//
	if visible.Size() != 2 || !visible.Contains(userPath) || !visible.Contains(postPath) {
		t.Errorf("visible set has %d paths", visible.Size())
	}
}

func Test_ScopeTree_12(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	name := testPropertyRef("name", user, testScalarRef("std::str"))
	path := NewPathId(user, nil).Extend(friends, DirOutbound, nil).Extend(name, DirOutbound, nil)
	//
	root := NewScopeTreeNode(true)
	//
	if root.IsAnyPrefixVisible(path) {
		t.Errorf("prefix visible in an empty tree")
	}
	//
	if err := root.AttachPath(NewPathId(user, nil), false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	if !root.IsAnyPrefixVisible(path) {
		t.Errorf("attached root prefix not visible")
	}
	//
	if root.IsVisible(path) {
		t.Errorf("full path visible from the prefix alone")
	}
}

func Test_ScopeTree_13(t *testing.T) {
	user := testObjectRef("default::User")
	path := NewPathId(user, nil)
	//
	root := NewScopeTreeNode(true)
	branch := root.AttachBranch()
	branch.AddNamespace("ns1")
	inner := branch.AttachBranch()
	//
	if err := root.AttachPath(path, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// Climbing through the namespace-introducing node strips the
	// namespace, so the hidden reference resolves to the bare binding.
	hidden := path.MergeNamespace(NewNamespaceSet("ns1"), false)
	//
	if !inner.IsVisible(hidden) {
		t.Errorf("namespaced path not visible below the namespace node")
	}
	//
	if root.IsVisible(hidden) {
		t.Errorf("namespaced path visible without crossing the namespace node")
	}
}

func Test_ScopeTree_14(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	path := NewPathId(user, nil).Extend(friends, DirOutbound, nil)
	//
	root := NewScopeTreeNode(true)
	//
	if err := root.AttachPath(path, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// Collapsing the top node hoists its children up to the root.
	if err := root.FindChild(path).Collapse(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	if root.FindDescendant(path) != nil {
		t.Errorf("collapsed node still present")
	}
	//
	if root.FindChild(NewPathId(user, nil)) == nil {
		t.Errorf("collapsed node's child not hoisted")
	}
}

func Test_ScopeTree_15(t *testing.T) {
	user := testObjectRef("default::User")
	path := NewPathId(user, nil)
	//
	root := NewScopeTreeNode(true)
	fence := root.AttachFence()
	//
	if err := fence.AttachPath(path, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	if root.IsVisible(path) {
		t.Fatalf("fenced path visible prematurely")
	}
	//
	parent, err := fence.Unfence()
	//
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	if parent != root {
		t.Errorf("unfencing returned the wrong parent")
	}
	//
	if !root.IsVisible(path) {
		t.Errorf("unfenced path not visible from the root")
	}
}

func Test_ScopeTree_16(t *testing.T) {
	user := testObjectRef("default::User")
	friends := testLinkRef("friends", user, user, CardMany)
	path := NewPathId(user, nil).Extend(friends, DirOutbound, nil)
	//
	root := NewScopeTreeNode(true)
	//
	if err := root.AttachPath(path, false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	snapshot := root.Copy()
	//
	if snapshot.Parent() != nil {
		t.Errorf("copy retained a parent")
	}
	//
	if snapshot.String() != root.String() {
		t.Errorf("copy differs from the original")
	}
	// Mutating the original must not leak into the copy.
	root.MarkPathAsOptional(path)
	//
	if snapshot.IsOptional(path) {
		t.Errorf("mutation leaked into the copy")
	}
	//
	if !root.IsOptional(path) {
		t.Errorf("optional mark lost")
	}
}

func Test_ScopeTree_17(t *testing.T) {
	root := NewScopeTreeNode(true)
	node := NewScopeTreeNode(false)
	node.SetUniqueId(7)
	//
	if err := root.AttachChild(node); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// A second node with the same unique id is silently absorbed.
	if err := root.AttachChild(newUniqueNode(7)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	if len(root.Children()) != 1 {
		t.Errorf("absorbed node was attached anyway")
	}
	//
	if root.FindByUniqueId(7) != node {
		t.Errorf("unique id lookup broken")
	}
	//
	if root.FindByUniqueId(8) != nil {
		t.Errorf("unique id lookup found a ghost")
	}
}

func Test_ScopeTree_18(t *testing.T) {
	user := testObjectRef("default::User")
	//
	root := NewScopeTreeNode(true)
	root.SetUniqueId(3)
	root.SetUnnestFence(true)
	root.SetFactoringFence(true)
	//
	node := NewScopePathNode(NewPathId(user, nil))
	node.MarkAsOptional()
	//
	if err := root.AttachChild(node); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	expected := strings.Join([]string{
		`"FENCE uid:3 no-unnest no-factor": {`,
		`    "(default::User) [OPT]"`,
		`}`,
	}, "\n")
	//
	if root.DebugString() != expected {
		t.Errorf("tree renders as:\n%s", root.DebugString())
	}
}

func Test_ScopeTree_19(t *testing.T) {
	user := testObjectRef("default::User")
	//
	root := NewScopeTreeNode(true)
	//
	if !root.IsEmpty() {
		t.Errorf("fresh tree not empty")
	}
	//
	root.AttachFence().AttachBranch()
	//
	if !root.IsEmpty() {
		t.Errorf("structural nodes made the tree non-empty")
	}
	//
	if err := root.AttachPath(NewPathId(user, nil), false); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	if root.IsEmpty() {
		t.Errorf("tree with a path reported empty")
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func newUniqueNode(id int) *ScopeTreeNode {
	node := NewScopeTreeNode(false)
	node.SetUniqueId(id)
	//
	return node
}
