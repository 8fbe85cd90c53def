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
	"strings"

	"github.com/vinelang/go-vine/pkg/util/collection/hash"
)

// FenceInfo summarizes the fencing restrictions crossed on the way from one
// scope tree node to another.
type FenceInfo struct {
	// UnnestFence indicates an unnest fence was crossed.
	UnnestFence bool
	// FactoringFence indicates a factoring fence was crossed.
	FactoringFence bool
}

// Or combines two fence summaries.
func (p FenceInfo) Or(other FenceInfo) FenceInfo {
	return FenceInfo{
		UnnestFence:    p.UnnestFence || other.UnnestFence,
		FactoringFence: p.FactoringFence || other.FactoringFence,
	}
}

// ScopeTreeNode is one node of the scope tree describing the nested lexical
// scopes of a query.  A node either carries a path (the path is in scope,
// i.e. bound to a single value, wherever the node is visible from) or is a
// structural placeholder: a fence isolating a subquery, or a plain branch.
//
// The tree owns its nodes through the children lists; a node's parent link
// is an observation used for upward traversal only.  The tree is mutable
// and exclusively owned by the single compilation pass building it, so no
// synchronization is provided.  Copy produces an independent tree for
// speculative analysis.
type ScopeTreeNode struct {
	// UniqueId tags this node so sets can refer to it, or zero.
	uniqueID int
	// PathId held by this node, or nil for fences and branches.
	pathID *PathId
	// Fenced marks subtrees whose paths are invisible to the outside, i.e.
	// set-valued arguments and subqueries.
	fenced bool
	// UnnestFence prevents paths inside this subtree from being hoisted
	// into enclosing scopes.
	unnestFence bool
	// FactoringFence prevents paths visible through this node from being
	// referenced inside it, e.g. correlated sets inside mutations.
	factoringFence bool
	// FactoringAllowlist exempts specific paths from the factoring fence.
	factoringAllowlist []*PathId
	// Optional marks paths which may legitimately be absent.
	optional bool
	// Namespaces introduced at this node.  When a path node is pulled up
	// through this node, matching namespaces are stripped from its path.
	namespaces NamespaceSet
	// Children of this node, in attachment order.
	children []*ScopeTreeNode
	// Parent is a non-owning back reference.
	parent *ScopeTreeNode
}

// NewScopeTreeNode constructs a detached branch node, or a fence when fenced
// is set.
func NewScopeTreeNode(fenced bool) *ScopeTreeNode {
	return &ScopeTreeNode{fenced: fenced}
}

// NewScopePathNode constructs a detached node holding the given path.
func NewScopePathNode(pathID *PathId) *ScopeTreeNode {
	return &ScopeTreeNode{pathID: pathID}
}

// ============================================================================
// Accessors
// ============================================================================

// PathId returns the path held by this node, or nil for fences and branches.
func (p *ScopeTreeNode) PathId() *PathId {
	return p.pathID
}

// Parent returns the parent of this node, or nil when detached.
func (p *ScopeTreeNode) Parent() *ScopeTreeNode {
	return p.parent
}

// UniqueId returns the identifier tag of this node, or zero.
func (p *ScopeTreeNode) UniqueId() int {
	return p.uniqueID
}

// SetUniqueId tags this node with an identifier sets can refer to.
func (p *ScopeTreeNode) SetUniqueId(id int) {
	p.uniqueID = id
}

// IsFenced determines whether this node isolates its subtree's paths.
func (p *ScopeTreeNode) IsFenced() bool {
	return p.fenced
}

// SetUnnestFence controls whether paths inside this subtree may be hoisted
// out of it.
func (p *ScopeTreeNode) SetUnnestFence(fence bool) {
	p.unnestFence = fence
}

// SetFactoringFence controls whether paths visible through this node may be
// referenced inside it.
func (p *ScopeTreeNode) SetFactoringFence(fence bool) {
	p.factoringFence = fence
}

// AllowFactoring exempts a path from this node's factoring fence.
func (p *ScopeTreeNode) AllowFactoring(pathID *PathId) {
	p.factoringAllowlist = append(p.factoringAllowlist, pathID)
}

// AddNamespace records a namespace as introduced at this node.
func (p *ScopeTreeNode) AddNamespace(ns string) {
	p.namespaces = p.namespaces.Union(NewNamespaceSet(ns))
}

// MarkAsOptional indicates the path held by this node may legitimately be
// absent.
func (p *ScopeTreeNode) MarkAsOptional() {
	p.optional = true
}

// Root returns the root of the tree this node is attached to.
func (p *ScopeTreeNode) Root() *ScopeTreeNode {
	node := p
	//
	for node.parent != nil {
		node = node.parent
	}
	//
	return node
}

// Fence returns the nearest enclosing fence, this node included.
func (p *ScopeTreeNode) Fence() *ScopeTreeNode {
	if p.fenced {
		return p
	}
	//
	return p.ParentFence()
}

// ParentFence returns the nearest strictly-enclosing fence, or nil.
func (p *ScopeTreeNode) ParentFence() *ScopeTreeNode {
	for node := p.parent; node != nil; node = node.parent {
		if node.fenced {
			return node
		}
	}
	//
	return nil
}

// Children returns the children of this node, in attachment order.  The
// returned slice must not be modified.
func (p *ScopeTreeNode) Children() []*ScopeTreeNode {
	return p.children
}

// PathChildren returns those children of this node which hold paths.
func (p *ScopeTreeNode) PathChildren() []*ScopeTreeNode {
	var nodes []*ScopeTreeNode
	//
	for _, child := range p.children {
		if child.pathID != nil {
			nodes = append(nodes, child)
		}
	}
	//
	return nodes
}

// Descendants returns this node and all nodes below it, top first.
func (p *ScopeTreeNode) Descendants() []*ScopeTreeNode {
	nodes := []*ScopeTreeNode{p}
	//
	for _, child := range p.children {
		nodes = append(nodes, child.Descendants()...)
	}
	//
	return nodes
}

// PathDescendants returns all path-holding nodes of this subtree, this node
// included, top first.
func (p *ScopeTreeNode) PathDescendants() []*ScopeTreeNode {
	var nodes []*ScopeTreeNode
	//
	for _, node := range p.Descendants() {
		if node.pathID != nil {
			nodes = append(nodes, node)
		}
	}
	//
	return nodes
}

// visitPathDescendants walks all path-holding nodes of this subtree, top
// first, snapshotting each child list as it is reached.  The snapshot
// discipline matters: the visitor is allowed to restructure the subtree, and
// nodes spliced out before their level is reached must not be revisited.
func (p *ScopeTreeNode) visitPathDescendants(visit func(*ScopeTreeNode) error) error {
	if p.pathID != nil {
		if err := visit(p); err != nil {
			return err
		}
	}
	//
	children := append([]*ScopeTreeNode(nil), p.children...)
	//
	for _, child := range children {
		if err := child.visitPathDescendants(visit); err != nil {
			return err
		}
	}
	//
	return nil
}

// unfencedDescendants returns this node and all descendants reachable
// without entering a fenced child.
func (p *ScopeTreeNode) unfencedDescendants() []*ScopeTreeNode {
	nodes := []*ScopeTreeNode{p}
	//
	for _, child := range p.children {
		if !child.fenced {
			nodes = append(nodes, child.unfencedDescendants()...)
		}
	}
	//
	return nodes
}

// DescendantNamespaces returns all namespaces introduced within this
// subtree.
func (p *ScopeTreeNode) DescendantNamespaces() NamespaceSet {
	var namespaces NamespaceSet
	//
	for _, node := range p.Descendants() {
		namespaces = namespaces.Union(node.namespaces)
	}
	//
	return namespaces
}

// fenceInfoEx summarizes this node's fencing restrictions as they apply to a
// given path, honouring the factoring allowlist.
func (p *ScopeTreeNode) fenceInfoEx(pathID *PathId, namespaces NamespaceSet) FenceInfo {
	finfo := FenceInfo{UnnestFence: p.unnestFence, FactoringFence: p.factoringFence}
	//
	for _, allowed := range p.factoringAllowlist {
		if pathsEqual(pathID, allowed, namespaces) {
			finfo.FactoringFence = false
			break
		}
	}
	//
	return finfo
}

// IsEmpty determines whether this subtree contains no paths at all.
func (p *ScopeTreeNode) IsEmpty() bool {
	if p.pathID != nil {
		return false
	}
	//
	for _, child := range p.children {
		if !child.IsEmpty() {
			return false
		}
	}
	//
	return true
}

// IsOptional determines whether the visible node holding the given path is
// marked optional.
func (p *ScopeTreeNode) IsOptional(pathID *PathId) bool {
	if node := p.FindVisible(pathID); node != nil {
		return node.optional
	}
	//
	return false
}

// MarkPathAsOptional marks the visible node holding the given path as
// optional, if there is one.
func (p *ScopeTreeNode) MarkPathAsOptional(pathID *PathId) {
	if node := p.FindVisible(pathID); node != nil {
		node.optional = true
	}
}

// ============================================================================
// Attachment
// ============================================================================

// AttachChild attaches a child node to this node.  This is a low-level
// operation performing no tree validation beyond sibling uniqueness: a
// sibling holding an equal path is an error, whilst a sibling with the same
// unique id silently absorbs the attachment (the scope was already
// processed).
func (p *ScopeTreeNode) AttachChild(node *ScopeTreeNode) error {
	if node.pathID != nil {
		for _, child := range p.children {
			if child.pathID != nil && child.pathID.Equals(node.pathID) {
				return &InvalidScopeConfiguration{
					Msg:           fmt.Sprintf("'%s' is already present in %s", node.pathID, p.Name()),
					OffendingNode: node,
					ExistingNode:  child,
				}
			}
		}
	}
	//
	if node.uniqueID != 0 {
		for _, child := range p.children {
			if child.uniqueID == node.uniqueID {
				return nil
			}
		}
	}
	//
	node.setParent(p)
	//
	return nil
}

// AttachFence creates and attaches an empty fence node.
func (p *ScopeTreeNode) AttachFence() *ScopeTreeNode {
	fence := NewScopeTreeNode(true)
	//
	if err := p.AttachChild(fence); err != nil {
		panic(err)
	}
	//
	return fence
}

// AttachBranch creates and attaches an empty branch node.
func (p *ScopeTreeNode) AttachBranch() *ScopeTreeNode {
	branch := NewScopeTreeNode(false)
	//
	if err := p.AttachChild(branch); err != nil {
		panic(err)
	}
	//
	return branch
}

// AttachPath attaches a scope subtree representing the given path: a
// vertical chain of nodes, one per prefix, longest at the top.  Link
// property and tuple indirection steps do not open a new nesting level,
// since they are singleton-guaranteed together with their source, and type
// intersection steps are skipped through when tracking a link property's
// source.
func (p *ScopeTreeNode) AttachPath(pathID *PathId, optional bool) error {
	var (
		subtree   = NewScopeTreeNode(true)
		parent    = subtree
		isLprop   = false
		lpropBase *ScopeTreeNode
		prefixes  = pathID.IterPrefixes(false)
	)
	// Longest prefix first.
	for i := len(prefixes) - 1; i >= 0; i-- {
		prefix := prefixes[i]
		//
		newChild := NewScopePathNode(prefix)
		newChild.optional = optional && parent == subtree
		//
		if prefix.IsLinkPropPath() {
			// Remember the level the link property attached at, since its
			// object prefix must come back to it.
			lpropBase = parent
			isLprop = true
		} else if isLprop {
			if !prefix.IsTypeIntersectionPath() {
				isLprop = false
			}
		} else if lpropBase != nil {
			parent = lpropBase
			lpropBase = nil
		}
		//
		if err := parent.AttachChild(newChild); err != nil {
			return err
		}
		//
		if !prefix.IsTupleIndirectionPath() {
			parent = newChild
		}
	}
	//
	return p.AttachSubtree(subtree)
}

// AttachSubtree attaches a subtree to this node, merging it with the paths
// already in scope.  The subtree's own top node is dissolved: only its
// children are attached.  For every path the subtree carries, either an
// equivalent path is already visible here (the incoming node collapses into
// it), or an equivalent unfenced path elsewhere in the tree is relocated to
// the common fence and the incoming node fused onto it, or the path is
// attached as a new branch.
func (p *ScopeTreeNode) AttachSubtree(node *ScopeTreeNode) error {
	if node.pathID != nil {
		// Wrap path node
		wrapper := NewScopeTreeNode(true)
		//
		if err := wrapper.AttachChild(node); err != nil {
			return err
		}
		//
		node = wrapper
	}
	//
	dns := node.DescendantNamespaces()
	//
	err := node.visitPathDescendants(func(descendant *ScopeTreeNode) error {
		pathID := descendant.pathID.StripNamespace(dns)
		visible, finfo := p.FindVisibleEx(pathID)
		//
		switch {
		case visible != nil:
			// This path is already present in the tree.
			if finfo.FactoringFence {
				return &InvalidScopeConfiguration{
					Msg:           fmt.Sprintf("cannot reference correlated set '%s' here", pathID),
					OffendingNode: descendant,
					ExistingNode:  visible,
				}
			}
			//
			optional := descendant.optional
			descendant.Remove()
			//
			if optional {
				visible.MarkAsOptional()
			}
		case descendant.ParentFence() == node:
			// Unfenced path.  Find an existing descendant with the same
			// path, or failing that an unfenced node reachable from an
			// ancestor, and fuse with it at the appropriate fence.
			var (
				existing      = p.FindDescendant(pathID)
				existingFinfo FenceInfo
				parentFence   *ScopeTreeNode
			)
			//
			if existing == nil {
				existing, existingFinfo = p.FindUnfenced(pathID)
				//
				if existing != nil {
					parentFence = existing.ParentFence()
				}
			} else {
				parentFence = p.Fence()
			}
			//
			if existing == nil {
				return nil
			}
			//
			if existingFinfo.FactoringFence {
				return &InvalidScopeConfiguration{
					Msg:           fmt.Sprintf("cannot reference correlated set '%s' here", pathID),
					OffendingNode: descendant,
					ExistingNode:  existing,
				}
			}
			//
			if parentFence.FindChild(pathID) == nil {
				src := pathID.SrcPath()
				//
				if existingFinfo.UnnestFence && (src == nil || !p.IsVisible(src)) {
					offending := descendant
					//
					if descendant.parent != nil && descendant.parent.pathID != nil {
						offending = descendant.parent
					}
					//
					return &InvalidScopeConfiguration{
						Msg: fmt.Sprintf(
							"reference to '%s' changes the interpretation of '%s' elsewhere in the query",
							offending.pathID, existing.pathID),
						OffendingNode: offending,
						ExistingNode:  existing,
					}
				}
				//
				parentFence.RemoveDescendants(pathID)
				//
				if err := parentFence.AttachChild(existing); err != nil {
					return err
				}
			}
			// Fuse the incoming subtree onto the existing node.
			return existing.FuseSubtree(descendant)
		}
		//
		return nil
	})
	//
	if err != nil {
		return err
	}
	// Attach whatever is remaining in the subtree.
	children := append([]*ScopeTreeNode(nil), node.children...)
	//
	for _, child := range children {
		for _, pd := range child.PathDescendants() {
			if !pd.pathID.Namespace().IsEmpty() {
				toStrip := pd.pathID.Namespace().Intersect(dns)
				pd.pathID = pd.pathID.StripNamespace(toStrip)
			}
		}
		//
		if err := p.AttachChild(child); err != nil {
			return err
		}
	}
	//
	return nil
}

// FuseSubtree merges another node holding an equal path into this one,
// adopting its optional flag and re-attaching its children through the
// regular merge machinery.
func (p *ScopeTreeNode) FuseSubtree(node *ScopeTreeNode) error {
	node.Remove()
	//
	if node.optional {
		p.optional = true
	}
	//
	var subtree *ScopeTreeNode
	//
	if node.pathID != nil {
		subtree = NewScopeTreeNode(true)
		subtree.optional = node.optional
		//
		children := append([]*ScopeTreeNode(nil), node.children...)
		//
		for _, child := range children {
			if err := subtree.AttachChild(child); err != nil {
				return err
			}
		}
	} else {
		subtree = node
	}
	//
	return p.AttachSubtree(subtree)
}

// ============================================================================
// Removal
// ============================================================================

// Remove detaches this node from the tree, its subtree becoming an
// independent tree.
func (p *ScopeTreeNode) Remove() {
	if p.parent != nil {
		p.parent.RemoveSubtree(p)
	}
}

// RemoveSubtree detaches the given child from this node.
func (p *ScopeTreeNode) RemoveSubtree(node *ScopeTreeNode) {
	if node.parent != p {
		panic(fmt.Sprintf("%s is not a child of %s", node.Name(), p.Name()))
	}
	//
	node.setParent(nil)
}

// RemoveDescendants removes all descendant nodes whose path matches the
// given one, where paths differing only by a nested namespace still match.
func (p *ScopeTreeNode) RemoveDescendants(pathID *PathId) {
	var matching []*ScopeTreeNode
	//
	for _, node := range p.Descendants() {
		if node.pathID != nil && pathsEqualToShortestNs(node.pathID, pathID) {
			matching = append(matching, node)
		}
	}
	//
	for _, node := range matching {
		node.Remove()
	}
}

// Collapse removes this node, re-attaching its children to the parent.
func (p *ScopeTreeNode) Collapse() error {
	parent := p.parent
	//
	if parent == nil {
		panic("cannot collapse the root node")
	}
	//
	var subtree *ScopeTreeNode
	//
	if p.pathID != nil {
		subtree = NewScopeTreeNode(false)
		//
		children := append([]*ScopeTreeNode(nil), p.children...)
		//
		for _, child := range children {
			if err := subtree.AttachChild(child); err != nil {
				return err
			}
		}
	} else {
		subtree = p
	}
	//
	p.Remove()
	//
	return parent.AttachSubtree(subtree)
}

// Unfence removes this fence node, re-attaching its children to the parent
// as unfenced siblings subject to the regular merge machinery.  Returns the
// parent.
func (p *ScopeTreeNode) Unfence() (*ScopeTreeNode, error) {
	parent := p.parent
	//
	if parent == nil {
		panic("cannot unfence the root node")
	}
	//
	subtree := NewScopeTreeNode(true)
	children := append([]*ScopeTreeNode(nil), p.children...)
	//
	for _, child := range children {
		if err := subtree.AttachChild(child); err != nil {
			return nil, err
		}
	}
	//
	p.Remove()
	//
	if err := parent.AttachSubtree(subtree); err != nil {
		return nil, err
	}
	//
	return parent, nil
}

// ============================================================================
// Visibility
// ============================================================================

// FindVisible locates the node binding the given path at this point of the
// tree, or nil when the path is not in scope here.
func (p *ScopeTreeNode) FindVisible(pathID *PathId) *ScopeTreeNode {
	node, _ := p.FindVisibleEx(pathID)
	return node
}

// FindVisibleEx locates the node binding the given path at this point of
// the tree, together with a summary of the fencing restrictions crossed on
// the way to it.  Visibility covers ancestors and their immediate children,
// with namespaces introduced below each candidate stripped before
// comparison.
func (p *ScopeTreeNode) FindVisibleEx(pathID *PathId) (*ScopeTreeNode, FenceInfo) {
	var (
		namespaces NamespaceSet
		found      *ScopeTreeNode
		crossed    []*ScopeTreeNode
	)
	//
	for node := p; node != nil && found == nil; node = node.parent {
		if pathsEqual(node.pathID, pathID, namespaces) {
			found = node
			break
		}
		//
		for _, child := range node.children {
			if pathsEqual(child.pathID, pathID, namespaces) {
				found = child
				break
			}
		}
		//
		if found != nil {
			break
		}
		//
		namespaces = namespaces.Union(node.namespaces)
		//
		if node != p {
			crossed = append(crossed, node)
		}
	}
	//
	var finfo FenceInfo
	//
	for _, node := range crossed {
		finfo = finfo.Or(node.fenceInfoEx(pathID, namespaces))
	}
	//
	return found, finfo
}

// IsVisible determines whether the given path is in scope at this point of
// the tree.
func (p *ScopeTreeNode) IsVisible(pathID *PathId) bool {
	return p.FindVisible(pathID) != nil
}

// IsAnyPrefixVisible determines whether any prefix of the given path is in
// scope at this point of the tree.
func (p *ScopeTreeNode) IsAnyPrefixVisible(pathID *PathId) bool {
	prefixes := pathID.IterPrefixes(false)
	//
	for i := len(prefixes) - 1; i >= 0; i-- {
		if p.IsVisible(prefixes[i]) {
			return true
		}
	}
	//
	return false
}

// GetAllVisible returns every path in scope at this point of the tree.
func (p *ScopeTreeNode) GetAllVisible() *hash.Set[*PathId] {
	paths := hash.NewSet[*PathId](32)
	//
	for node := p; node != nil; node = node.parent {
		if node.pathID != nil {
			paths.Insert(node.pathID)
		} else {
			for _, child := range node.children {
				if child.pathID != nil {
					paths.Insert(child.pathID)
				}
			}
		}
	}
	//
	return paths
}

// FindChild locates a direct child holding exactly the given path.
func (p *ScopeTreeNode) FindChild(pathID *PathId) *ScopeTreeNode {
	for _, child := range p.children {
		if child.pathID != nil && child.pathID.Equals(pathID) {
			return child
		}
	}
	//
	return nil
}

// FindDescendant locates a strict descendant holding the given path, where
// namespaces introduced between this node and the descendant are stripped
// before comparison.
func (p *ScopeTreeNode) FindDescendant(pathID *PathId) *ScopeTreeNode {
	return p.findDescendant(pathID, nil)
}

func (p *ScopeTreeNode) findDescendant(pathID *PathId, dns NamespaceSet) *ScopeTreeNode {
	for _, child := range p.children {
		cns := dns.Union(child.namespaces)
		//
		if pathsEqual(child.pathID, pathID, cns) {
			return child
		}
		//
		if found := child.findDescendant(pathID, cns); found != nil {
			return found
		}
	}
	//
	return nil
}

// FindUnfenced locates a node holding the given path reachable from this
// node's ancestors without entering a fenced subtree, together with a
// summary of the fencing restrictions crossed climbing to it.
func (p *ScopeTreeNode) FindUnfenced(pathID *PathId) (*ScopeTreeNode, FenceInfo) {
	var (
		namespaces NamespaceSet
		finfo      FenceInfo
	)
	//
	for node := p; node != nil; node = node.parent {
		for _, descendant := range node.unfencedDescendants() {
			if pathsEqual(descendant.pathID, pathID, namespaces) {
				return descendant, finfo
			}
		}
		//
		namespaces = namespaces.Union(node.namespaces)
		finfo = finfo.Or(node.fenceInfoEx(pathID, namespaces))
	}
	//
	return nil, finfo
}

// FindByUniqueId locates the node tagged with the given identifier within
// this subtree, or nil.
func (p *ScopeTreeNode) FindByUniqueId(id int) *ScopeTreeNode {
	for _, node := range p.Descendants() {
		if node.uniqueID == id {
			return node
		}
	}
	//
	return nil
}

// ============================================================================
// Copying
// ============================================================================

// Copy returns a complete, independent copy of this subtree.
func (p *ScopeTreeNode) Copy() *ScopeTreeNode {
	return p.copyOnto(nil)
}

func (p *ScopeTreeNode) copyOnto(parent *ScopeTreeNode) *ScopeTreeNode {
	cp := &ScopeTreeNode{
		uniqueID:           p.uniqueID,
		pathID:             p.pathID,
		fenced:             p.fenced,
		unnestFence:        p.unnestFence,
		factoringFence:     p.factoringFence,
		factoringAllowlist: append([]*PathId(nil), p.factoringAllowlist...),
		optional:           p.optional,
		namespaces:         p.namespaces,
	}
	//
	cp.setParent(parent)
	//
	for _, child := range p.children {
		child.copyOnto(cp)
	}
	//
	return cp
}

// ============================================================================
// Formatting
// ============================================================================

// Name renders a short label for this node.
func (p *ScopeTreeNode) Name() string {
	if p.pathID == nil {
		if p.fenced {
			return "FENCE"
		}
		//
		return "BRANCH"
	}
	//
	name := p.pathID.DebugString()
	//
	if p.optional {
		name += " [OPT]"
	}
	//
	return name
}

// String renders this subtree in outline form, one node label per line with
// children indented below their parent.
func (p *ScopeTreeNode) String() string {
	if len(p.children) > 0 {
		var childFormats []string
		//
		for _, child := range p.children {
			if cf := child.String(); cf != "" {
				childFormats = append(childFormats, cf)
			}
		}
		//
		if len(childFormats) > 0 {
			children := indent(strings.Join(childFormats, ",\n"), "    ")
			return fmt.Sprintf("\"%s\": {\n%s\n}", p.Name(), children)
		}
	}
	//
	if p.pathID != nil {
		return fmt.Sprintf("\"%s\"", p.Name())
	}
	//
	return ""
}

// DebugString renders this subtree in outline form with fencing and
// namespace annotations included.
func (p *ScopeTreeNode) DebugString() string {
	parts := []string{p.Name()}
	//
	if p.uniqueID != 0 {
		parts = append(parts, fmt.Sprintf("uid:%d", p.uniqueID))
	}
	//
	if !p.namespaces.IsEmpty() {
		parts = append(parts, p.namespaces.String())
	}
	//
	if p.unnestFence {
		parts = append(parts, "no-unnest")
	}
	//
	if p.factoringFence {
		parts = append(parts, "no-factor")
	}
	//
	name := strings.Join(parts, " ")
	//
	if len(p.children) > 0 {
		var childFormats []string
		//
		for _, child := range p.children {
			childFormats = append(childFormats, child.DebugString())
		}
		//
		children := indent(strings.Join(childFormats, ",\n"), "    ")
		//
		return fmt.Sprintf("\"%s\": {\n%s\n}", name, children)
	}
	//
	return fmt.Sprintf("\"%s\"", name)
}

func indent(text string, prefix string) string {
	lines := strings.Split(text, "\n")
	//
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	//
	return strings.Join(lines, "\n")
}

// ============================================================================
// Internals
// ============================================================================

func (p *ScopeTreeNode) setParent(parent *ScopeTreeNode) {
	if p.parent == parent {
		return
	}
	//
	if p.parent != nil {
		p.parent.spliceChild(p)
	}
	//
	p.parent = parent
	//
	if parent != nil {
		parent.children = append(parent.children, p)
	}
}

func (p *ScopeTreeNode) spliceChild(node *ScopeTreeNode) {
	for i, child := range p.children {
		if child == node {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return
		}
	}
}

// pathsEqual compares two paths modulo a set of namespaces to strip from
// both sides first.
func pathsEqual(pathID1 *PathId, pathID2 *PathId, namespaces NamespaceSet) bool {
	if pathID1 == nil || pathID2 == nil {
		return false
	}
	//
	if !namespaces.IsEmpty() {
		pathID1 = pathID1.StripNamespace(namespaces)
		pathID2 = pathID2.StripNamespace(namespaces)
	}
	//
	return pathID1.Equals(pathID2)
}

// pathsEqualToShortestNs compares two paths ignoring namespaces, provided
// one side's namespace is a subset of the other's.
func pathsEqualToShortestNs(pathID1 *PathId, pathID2 *PathId) bool {
	if pathID1 == nil || pathID2 == nil {
		return false
	}
	//
	var (
		ns1 = pathID1.Namespace()
		ns2 = pathID2.Namespace()
	)
	//
	if ns1.IsEmpty() && ns2.IsEmpty() {
		return pathID1.Equals(pathID2)
	}
	//
	extraIn1 := ns1.Diff(ns2)
	extraIn2 := ns2.Diff(ns1)
	// Neither namespace is a proper subset of the other.
	if !extraIn1.IsEmpty() && !extraIn2.IsEmpty() {
		return false
	}
	//
	return pathID1.ReplaceNamespace(nil).Equals(pathID2.ReplaceNamespace(nil))
}
