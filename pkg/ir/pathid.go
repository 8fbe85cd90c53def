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

	"github.com/google/uuid"

	"github.com/vinelang/go-vine/pkg/util/collection/hash"
)

// pathStep records one pointer traversal within a path, pairing the pointer
// with the direction it was followed in and the type it arrived at.
type pathStep struct {
	ptr PtrRef
	dir Direction
	typ *TypeRef
}

// normStep is the normalized image of a pathStep used for identity.  Two
// paths built from different (but equivalent) pointer refs must still compare
// equal, so identity is derived from names and material type ids rather than
// from the refs themselves.
type normStep struct {
	link     string
	dir      Direction
	linkprop bool
	target   uuid.UUID
}

// PathId is the immutable identity of a path expression: a root type
// followed by zero or more pointer traversals, qualified by the set of
// namespaces the path is hidden under.  Equality and hashing are structural,
// which is what allows "the same path" written in two places of a query to be
// factored into one scope tree node.
//
// A PathId additionally remembers, via prefix, the longest proper prefix at
// which its namespace last changed.  This makes namespace arithmetic
// (merging, stripping) proportional to the number of namespace transitions
// rather than the path length, and lets prefix iteration reuse shared
// prefixes rather than reslicing from scratch.
//
// All operations return new values; a PathId is never mutated after
// construction, and hence can be freely shared between IR nodes, scope tree
// nodes and cache keys.
type PathId struct {
	root       *TypeRef
	steps      []pathStep
	normRoot   string
	normSteps  []normStep
	namespace  NamespaceSet
	prefix     *PathId
	isPtr      bool
	isLinkProp bool
}

var _ hash.Hasher[*PathId] = &PathId{}

// ============================================================================
// Construction
// ============================================================================

// NewPathId constructs a path id rooted at the given type.
func NewPathId(root *TypeRef, ns NamespaceSet) *PathId {
	return NewNamedPathId(root, "", ns)
}

// NewNamedPathId constructs a path id rooted at the given type, but with the
// root identity taken from an explicit name rather than the type itself.
// This is how view aliases obtain path ids distinct from their underlying
// material type.
func NewNamedPathId(root *TypeRef, typename string, ns NamespaceSet) *PathId {
	if root == nil {
		panic("invalid PathId: missing root type")
	}
	//
	normRoot := typename
	//
	if normRoot == "" {
		normRoot = root.ID.String()
	}
	//
	return &PathId{root: root, normRoot: normRoot, namespace: ns}
}

// PathIdFromPointer constructs the path id addressing a given pointer, by
// rooting a path at the pointer's source and extending over it.  For link
// properties the source is itself a pointer, handled by recursing onto the
// enclosing link and taking its pointer prefix.
func PathIdFromPointer(ref PtrRef, ns NamespaceSet) *PathId {
	var (
		base   = ref.Base()
		prefix *PathId
	)
	//
	if base.SourcePtr != nil {
		prefix = PathIdFromPointer(base.SourcePtr, ns).PtrPath()
	} else if base.OutSource != nil {
		prefix = NewPathId(base.OutSource, ns)
	} else {
		panic("path id must contain specialized pointers")
	}
	//
	return prefix.Extend(ref, DirOutbound, nil)
}

// Extend constructs the path id describing one further pointer traversal
// from this path.  The extension carries over the namespace, augmented by ns
// when given, recording a namespace transition point when that changes
// anything.
func (p *PathId) Extend(ref PtrRef, direction Direction, ns NamespaceSet) *PathId {
	if p.IsEmpty() {
		panic("cannot extend empty PathId")
	}
	//
	base := ref.Base()
	//
	if base.OutSource == nil {
		panic("path id must contain specialized pointers")
	}
	//
	target := base.DirTarget(direction)
	isLinkprop := base.IsLinkProperty()
	//
	if isLinkprop && !p.isPtr {
		panic("link property path extension on a non-link path")
	}
	//
	steps := make([]pathStep, len(p.steps)+1)
	copy(steps, p.steps)
	steps[len(p.steps)] = pathStep{ptr: ref, dir: direction, typ: target}
	//
	normSteps := make([]normStep, len(p.normSteps)+1)
	copy(normSteps, p.normSteps)
	normSteps[len(p.normSteps)] = normStep{
		link:     base.PathIDRefName(),
		dir:      direction,
		linkprop: isLinkprop,
		target:   target.Material().ID,
	}
	//
	result := &PathId{
		root:       p.root,
		steps:      steps,
		normRoot:   p.normRoot,
		normSteps:  normSteps,
		namespace:  p.namespace.Union(ns),
		isLinkProp: isLinkprop,
	}
	// Record the namespace transition point, if any.
	if !result.namespace.Equals(p.namespace) {
		result.prefix = p
	} else {
		result.prefix = p.prefix
	}
	//
	return result
}

func (p *PathId) copy() *PathId {
	q := *p
	return &q
}

// ============================================================================
// Identity
// ============================================================================

// Equals checks whether two path ids denote the same path, namespaces and
// pointer-versus-target distinction included.
func (p *PathId) Equals(other *PathId) bool {
	if other == nil {
		return false
	} else if p.isPtr != other.isPtr || p.normRoot != other.normRoot {
		return false
	} else if len(p.normSteps) != len(other.normSteps) {
		return false
	}
	//
	for i := range p.normSteps {
		if p.normSteps[i] != other.normSteps[i] {
			return false
		}
	}
	//
	if !p.namespace.Equals(other.namespace) {
		return false
	}
	//
	if p.prefix == nil || other.prefix == nil {
		return p.prefix == other.prefix
	}
	//
	return p.prefix.Equals(other.prefix)
}

// Hash generates a hashcode consistent with Equals.
func (p *PathId) Hash() uint64 {
	code := hashStringInto(hash.Offset64, p.normRoot)
	//
	for _, step := range p.normSteps {
		code = hashStringInto(code, step.link)
		code = (code ^ uint64(step.dir)) * hash.Prime64
		//
		if step.linkprop {
			code = (code ^ 1) * hash.Prime64
		} else {
			code = (code ^ 2) * hash.Prime64
		}
		//
		for _, b := range step.target {
			code = (code ^ uint64(b)) * hash.Prime64
		}
	}
	//
	code = (code ^ p.namespace.Hash()) * hash.Prime64
	//
	if p.prefix != nil {
		code = (code ^ p.prefix.Hash()) * hash.Prime64
	}
	//
	if p.isPtr {
		code = (code ^ 1) * hash.Prime64
	}
	//
	return code
}

func hashStringInto(code uint64, str string) uint64 {
	code = hash.FoldString(code, str)
	// Terminate to keep adjacent strings from running together.
	return (code ^ 0xff) * hash.Prime64
}

// ============================================================================
// Accessors
// ============================================================================

// IsEmpty checks whether this is the empty path.
func (p *PathId) IsEmpty() bool {
	return p.root == nil
}

// Len returns the number of elements in this path, where the root counts as
// one element and every step as two (the pointer and its target).  Prefix
// sizes passed to GetPrefix follow the same convention.
func (p *PathId) Len() int {
	if p.root == nil {
		return 0
	}
	//
	return 2*len(p.steps) + 1
}

// Target returns the type this path evaluates to.
func (p *PathId) Target() *TypeRef {
	if n := len(p.steps); n > 0 {
		return p.steps[n-1].typ
	}
	//
	return p.root
}

// RPtr returns the pointer of the final path step, or nil when this path is
// just a type root.
func (p *PathId) RPtr() PtrRef {
	if n := len(p.steps); n > 0 {
		return p.steps[n-1].ptr
	}
	//
	return nil
}

// RPtrDir returns the traversal direction of the final path step.
func (p *PathId) RPtrDir() Direction {
	if n := len(p.steps); n > 0 {
		return p.steps[n-1].dir
	}
	//
	panic("path id has no pointer step")
}

// RPtrName returns the short name of the final path step's pointer, or the
// empty string when this path is just a type root.
func (p *PathId) RPtrName() string {
	if rptr := p.RPtr(); rptr != nil {
		return rptr.Base().ShortName
	}
	//
	return ""
}

// Namespace returns the set of namespaces this path is hidden under.
func (p *PathId) Namespace() NamespaceSet {
	return p.namespace
}

// named checks whether this path roots at an explicitly named binding
// rather than a material type.
func (p *PathId) named() bool {
	return p.normRoot != p.root.ID.String()
}

// IsPtrPath checks whether this path id denotes the pointer of its final
// step rather than the target, i.e. the common prefix shared by all link
// property paths of one link.
func (p *PathId) IsPtrPath() bool {
	return p.isPtr
}

// IsLinkPropPath checks whether this path terminates in a link property.
func (p *PathId) IsLinkPropPath() bool {
	return p.isLinkProp
}

// IsObjectPath checks whether this path evaluates to an object type.
func (p *PathId) IsObjectPath() bool {
	return !p.isPtr && IsObjectType(p.Target())
}

// IsScalarPath checks whether this path evaluates to a scalar type.
func (p *PathId) IsScalarPath() bool {
	return !p.isPtr && p.Target().IsScalar
}

// IsTuplePath checks whether this path evaluates to a tuple type.
func (p *PathId) IsTuplePath() bool {
	return !p.isPtr && IsTupleType(p.Target())
}

// IsViewPath checks whether this path evaluates to a view.
func (p *PathId) IsViewPath() bool {
	return !p.isPtr && p.Target().IsView
}

// IsTupleIndirectionPath checks whether this path denotes an element access
// into a tuple-typed prefix.
func (p *PathId) IsTupleIndirectionPath() bool {
	src := p.SrcPath()
	return src != nil && src.IsTuplePath()
}

// IsTypeIntersectionPath checks whether this path's final step is a type
// intersection.
func (p *PathId) IsTypeIntersectionPath() bool {
	if rptr := p.RPtr(); rptr != nil {
		return IsTypeIntersectionRef(rptr)
	}
	//
	return false
}

// ============================================================================
// Prefixes
// ============================================================================

// GetPrefix returns the prefix of this path with a given element length,
// which must not cut the path mid-step.
func (p *PathId) GetPrefix(size int) *PathId {
	if size < 0 {
		size = p.Len() + size
	}
	//
	if size > 0 && size < p.Len() && size%2 == 0 {
		panic(fmt.Sprintf("invalid PathId slice: %d", size))
	}
	//
	return p.getPrefix(size)
}

func (p *PathId) getPrefix(size int) *PathId {
	if size < 0 {
		size = p.Len() + size
	}
	//
	if size >= p.Len() {
		return p
	} else if size == 0 {
		return &PathId{}
	}
	// Reuse recorded namespace-transition prefixes where possible.
	if p.prefix != nil {
		prefixLen := p.prefix.Len()
		//
		if prefixLen == size {
			return p.prefix
		} else if prefixLen > size {
			return p.prefix.getPrefix(size)
		}
	}
	//
	nsteps := size / 2
	//
	result := &PathId{
		root:      p.root,
		steps:     p.steps[:nsteps],
		normRoot:  p.normRoot,
		normSteps: p.normSteps[:nsteps],
		namespace: p.namespace,
		prefix:    p.prefix,
	}
	//
	if rptr := result.RPtr(); rptr != nil {
		result.isLinkProp = rptr.Base().IsLinkProperty()
	}
	// A prefix ending where a link property starts denotes the pointer
	// itself.
	if nsteps < len(p.normSteps) && p.normSteps[nsteps].linkprop {
		result.isPtr = true
	}
	//
	return result
}

// SrcPath returns the immediate path prefix, i.e. the path to the source of
// the final step, or nil when this path is just a type root.
func (p *PathId) SrcPath() *PathId {
	if p.Len() > 1 {
		return p.getPrefix(-2)
	}
	//
	return nil
}

// PtrPath returns the variant of this path denoting the final step's pointer
// rather than its target.
func (p *PathId) PtrPath() *PathId {
	if p.isPtr {
		return p
	}
	//
	result := p.copy()
	result.isPtr = true
	//
	return result
}

// TgtPath returns the variant of this path denoting the final step's target.
// This is the inverse of PtrPath.
func (p *PathId) TgtPath() *PathId {
	if !p.isPtr {
		return p
	}
	//
	result := p.copy()
	result.isPtr = false
	//
	return result
}

// StartsWith checks whether another path id is a prefix of this one.  When
// permissive, a pointer prefix also counts as matching its target form.
func (p *PathId) StartsWith(other *PathId, permissive bool) bool {
	if other.Len() > p.Len() {
		return false
	}
	//
	base := p.getPrefix(other.Len())
	//
	return base.Equals(other) || (permissive && base.TgtPath().Equals(other))
}

// IterPrefixes returns all prefixes of this path, shortest first and ending
// with the path itself.  When includePtr is set, the pointer variant of each
// step follows its target variant.
func (p *PathId) IterPrefixes(includePtr bool) []*PathId {
	var (
		prefixes []*PathId
		start    int
	)
	//
	if p.prefix != nil {
		prefixes = p.prefix.IterPrefixes(includePtr)
		start = p.prefix.Len()
	} else {
		prefixes = append(prefixes, p.getPrefix(1))
		start = 1
	}
	//
	for i := start; i < p.Len()-1; i += 2 {
		pathId := p.getPrefix(i + 2)
		//
		if pathId.IsPtrPath() {
			prefixes = append(prefixes, pathId.TgtPath())
			//
			if includePtr {
				prefixes = append(prefixes, pathId)
			}
		} else {
			prefixes = append(prefixes, pathId)
		}
	}
	//
	return prefixes
}

// ReplacePrefix returns a copy of this path with a given prefix substituted
// by a replacement path.  Paths not starting with the prefix are returned
// unchanged.
func (p *PathId) ReplacePrefix(prefix *PathId, replacement *PathId) *PathId {
	if !p.StartsWith(prefix, false) {
		return p
	}
	//
	prefixLen := prefix.Len()
	//
	if prefixLen >= p.Len() {
		return replacement
	}
	//
	nsteps := prefixLen / 2
	//
	steps := make([]pathStep, 0, len(replacement.steps)+len(p.steps)-nsteps)
	steps = append(steps, replacement.steps...)
	steps = append(steps, p.steps[nsteps:]...)
	//
	normSteps := make([]normStep, 0, len(steps))
	normSteps = append(normSteps, replacement.normSteps...)
	normSteps = append(normSteps, p.normSteps[nsteps:]...)
	//
	result := &PathId{
		root:      replacement.root,
		steps:     steps,
		normRoot:  replacement.normRoot,
		normSteps: normSteps,
		namespace: replacement.namespace,
	}
	//
	if p.prefix != nil && p.prefix.Len() > prefixLen {
		result.prefix = p.prefix.ReplacePrefix(prefix, replacement)
	} else {
		result.prefix = replacement.prefix
	}
	//
	return result
}

// ============================================================================
// Namespaces
// ============================================================================

// ReplaceNamespace returns a copy of this path id under a different
// namespace set, rewriting the prefix chain so it remains minimal.
func (p *PathId) ReplaceNamespace(ns NamespaceSet) *PathId {
	result := p.copy()
	result.namespace = ns
	//
	if result.prefix != nil {
		result.prefix = result.minimalPrefix(result.prefix.ReplaceNamespace(ns))
	}
	//
	return result
}

// MergeNamespace returns a copy of this path id with the given namespaces
// added.  When the addition changes nothing (and deep is unset), the receiver
// itself is returned.  A deep merge additionally pushes the merged set into
// the whole prefix chain.
func (p *PathId) MergeNamespace(ns NamespaceSet, deep bool) *PathId {
	newNamespace := p.namespace.Union(ns)
	//
	if newNamespace.Equals(p.namespace) && !deep {
		return p
	}
	//
	result := p.copy()
	result.namespace = newNamespace
	//
	if deep && result.prefix != nil {
		result.prefix = result.prefix.MergeNamespace(newNamespace, false)
	}
	//
	if result.prefix != nil {
		result.prefix = result.minimalPrefix(result.prefix)
	}
	//
	return result
}

// StripNamespace returns a copy of this path id with the given namespaces
// removed.
func (p *PathId) StripNamespace(ns NamespaceSet) *PathId {
	if p.namespace.IsEmpty() || ns.IsEmpty() {
		return p
	}
	//
	result := p.ReplaceNamespace(p.namespace.Diff(ns))
	//
	if result.prefix != nil {
		result.prefix = result.minimalPrefix(result.prefix.StripNamespace(ns))
	}
	//
	return result
}

// StripWeakNamespaces returns a copy of this path id with all weak
// namespaces removed.
func (p *PathId) StripWeakNamespaces() *PathId {
	if p.namespace.IsEmpty() {
		return p
	}
	//
	result := p.ReplaceNamespace(p.namespace.StripWeak())
	//
	if result.prefix != nil {
		result.prefix = result.minimalPrefix(result.prefix.StripWeakNamespaces())
	}
	//
	return result
}

// minimalPrefix discards leading prefix-chain entries whose namespace is
// identical to this path's own, since they record no transition.
func (p *PathId) minimalPrefix(prefix *PathId) *PathId {
	for prefix != nil {
		if prefix.namespace.Equals(p.namespace) {
			prefix = prefix.prefix
		} else {
			break
		}
	}
	//
	return prefix
}

// ============================================================================
// Formatting
// ============================================================================

// String formats this path the way it would appear in a query, e.g.
// "Foo.bar@baz", for use in user-facing messages.  Namespaces are not
// shown.  Paths rooted at a named binding render the binding's name rather
// than its material type.
func (p *PathId) String() string {
	if p.IsEmpty() {
		return ""
	}
	//
	var builder strings.Builder
	//
	if p.named() {
		builder.WriteString(p.normRoot)
	} else {
		builder.WriteString(p.root.ShortName())
	}
	//
	for _, step := range p.steps {
		base := step.ptr.Base()
		//
		if base.IsLinkProperty() {
			builder.WriteString("@")
		} else {
			builder.WriteString(".")
			//
			if step.dir == DirInbound {
				builder.WriteString(step.dir.String())
			}
		}
		//
		builder.WriteString(base.UnqualifiedName())
	}
	//
	if p.isPtr {
		builder.WriteString("@")
	}
	//
	return builder.String()
}

// DebugString formats this path with full namespace, direction and target
// type information, for debug output.
func (p *PathId) DebugString() string {
	if p.IsEmpty() {
		return ""
	}
	//
	var builder strings.Builder
	//
	if !p.namespace.IsEmpty() {
		for i, ns := range p.namespace.Elements() {
			if i > 0 {
				builder.WriteString("@")
			}
			//
			if IsWeakNamespace(ns) {
				builder.WriteString(fmt.Sprintf("[%s]", BareNamespace(ns)))
			} else {
				builder.WriteString(ns)
			}
		}
		//
		builder.WriteString("@@")
	}
	//
	builder.WriteString(fmt.Sprintf("(%s)", p.root.DisplayName()))
	//
	for _, step := range p.steps {
		base := step.ptr.Base()
		//
		if base.IsLinkProperty() {
			builder.WriteString("@")
		} else {
			builder.WriteString(fmt.Sprintf(".%s", step.dir))
		}
		//
		builder.WriteString(base.UnqualifiedName())
		builder.WriteString(fmt.Sprintf("[IS %s]", step.typ.Material().DisplayName()))
	}
	//
	if p.isPtr {
		builder.WriteString("@")
	}
	//
	return builder.String()
}
