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
package source

import (
	"fmt"
)

// Span locates a contiguous region of the original text by index rather
// than by slicing it out, so the enclosing line and surrounding text
// remain recoverable.
type Span struct {
	// start index of the first character covered.
	start int
	// end index, one past the last character covered.
	end int
}

// NewSpan constructs a span, checking it is well formed.
func NewSpan(start int, end int) Span {
	if start > end {
		panic(fmt.Sprintf("invalid span (%d, %d)", start, end))
	}
	//
	return Span{start, end}
}

// Start index of this span in the original text.
func (p Span) Start() int {
	return p.start
}

// End index of this span, one past its last character.
func (p Span) End() int {
	return p.end
}

// Length of this span in characters.
func (p Span) Length() int {
	return p.end - p.start
}

// Map records, for the items of one lowered representation, the span of
// source text each item arose from.  Errors detected long after parsing
// can then still point at the offending text.
type Map[T comparable] struct {
	// spans registered per item.
	spans map[T]Span
	// srcfile the spans index into.
	srcfile *File
}

// NewSourceMap constructs an empty source map over the given file.
func NewSourceMap[T comparable](srcfile *File) *Map[T] {
	return &Map[T]{make(map[T]Span), srcfile}
}

// Source file the spans of this map index into.
func (p *Map[T]) Source() *File {
	return p.srcfile
}

// Put registers the span a given item arose from.  Each item is registered
// at most once; a second registration panics.
func (p *Map[T]) Put(item T, span Span) {
	if _, ok := p.spans[item]; ok {
		panic(fmt.Sprintf("span already registered for %v", item))
	}
	//
	p.spans[item] = span
}

// Has checks whether a given item has a registered span.
func (p *Map[T]) Has(item T) bool {
	_, ok := p.spans[item]
	return ok
}

// Get the span a given item arose from, which must have been registered.
func (p *Map[T]) Get(item T) Span {
	span, ok := p.spans[item]
	if !ok {
		panic(fmt.Sprintf("no span registered for %v", item))
	}
	//
	return span
}

// JoinMaps re-registers every span of one map into another under a
// translation of the item type, for lowering stages which map one
// representation onto the next.
func JoinMaps[S comparable, T comparable](target *Map[S], source *Map[T], mapping func(T) S) {
	for item, span := range source.spans {
		target.Put(mapping(item), span)
	}
}

// Maps aggregates the source maps of several compilation units, so items
// can be located without knowing which unit produced them.
type Maps[T comparable] struct {
	maps []*Map[T]
}

// NewSourceMaps constructs an empty aggregate, populated unit by unit via
// Join.
func NewSourceMaps[T comparable]() *Maps[T] {
	return &Maps[T]{}
}

// Join adds one unit's source map to this aggregate.
func (p *Maps[T]) Join(srcmap *Map[T]) {
	p.maps = append(p.maps, srcmap)
}

// Has checks whether any joined map registered the given item.
func (p *Maps[T]) Has(item T) bool {
	for _, m := range p.maps {
		if m.Has(item) {
			return true
		}
	}
	//
	return false
}

// SyntaxError constructs an error against the span an item arose from,
// reported on the file of whichever joined map registered it.  The item
// must be registered somewhere.
func (p *Maps[T]) SyntaxError(item T, msg string) *SyntaxError {
	for _, m := range p.maps {
		if m.Has(item) {
			return m.srcfile.SyntaxError(m.Get(item), msg)
		}
	}
	//
	panic(fmt.Sprintf("no span registered for %v", item))
}
