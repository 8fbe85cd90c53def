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
package sexp

import (
	"fmt"
	"strings"
	"unicode"
)

// SExp is one parsed term of the surface syntax: either an atom (Symbol)
// or an aggregate of sub-terms.  Aggregates come in three syntactic
// flavours, a parenthesised List, a braced Set and a bracketed Array;
// which one a term is carries no meaning here, that is assigned by the
// translator.
type SExp interface {
	// AsSymbol returns the receiver as a symbol, or nil for aggregates.
	AsSymbol() *Symbol
	// AsList returns the receiver as a list, or nil otherwise.
	AsList() *List
	// AsSet returns the receiver as a set, or nil otherwise.
	AsSet() *Set
	// AsArray returns the receiver as an array, or nil otherwise.
	AsArray() *Array
	// String renders the term on a single line.  With quote set, symbol
	// values which could not be rescanned are quoted; string literals
	// pass through unchanged either way.
	String(quote bool) string
}

var (
	_ SExp = (*Symbol)(nil)
	_ SExp = (*List)(nil)
	_ SExp = (*Set)(nil)
	_ SExp = (*Array)(nil)
)

// ===================================================================
// Symbol
// ===================================================================

// Symbol is an atom: an identifier, a keyword, a number or a string
// literal.  String literals keep their surrounding quotes, which is how
// the scanner hands them over.
type Symbol struct {
	Value string
}

// NewSymbol creates an atom holding the given value.
func NewSymbol(value string) *Symbol {
	return &Symbol{value}
}

// AsSymbol returns the receiver.
func (p *Symbol) AsSymbol() *Symbol { return p }

// AsList returns nil for a symbol.
func (p *Symbol) AsList() *List { return nil }

// AsSet returns nil for a symbol.
func (p *Symbol) AsSet() *Set { return nil }

// AsArray returns nil for a symbol.
func (p *Symbol) AsArray() *Array { return nil }

// IsStringLiteral checks whether this symbol holds a quoted string
// literal.
func (p *Symbol) IsStringLiteral() bool {
	return len(p.Value) >= 2 && p.Value[0] == '"' && p.Value[len(p.Value)-1] == '"'
}

func (p *Symbol) String(quote bool) string {
	if quote && !p.IsStringLiteral() && needsQuotes(p.Value) {
		return fmt.Sprintf("%q", p.Value)
	}
	//
	return p.Value
}

// needsQuotes checks whether a bare symbol value would fail to rescan as
// a single atom.
func needsQuotes(value string) bool {
	for _, r := range value {
		if r == '(' || r == ')' || unicode.IsSpace(r) {
			return true
		}
	}
	//
	return false
}

// ===================================================================
// List
// ===================================================================

// List is the parenthesised aggregate, carrying all compound forms of the
// language.
type List struct {
	Elements []SExp
}

// EmptyList creates a list with no elements.
func EmptyList() *List {
	return &List{}
}

// NewList creates a list over the given elements.
func NewList(elements []SExp) *List {
	return &List{elements}
}

// AsSymbol returns nil for a list.
func (p *List) AsSymbol() *Symbol { return nil }

// AsList returns the receiver.
func (p *List) AsList() *List { return p }

// AsSet returns nil for a list.
func (p *List) AsSet() *Set { return nil }

// AsArray returns nil for a list.
func (p *List) AsArray() *Array { return nil }

// Len returns the number of elements in this list.
func (p *List) Len() int { return len(p.Elements) }

// Get returns the ith element of this list.
func (p *List) Get(i int) SExp { return p.Elements[i] }

// Append adds an element at the end of this list.
func (p *List) Append(element SExp) {
	p.Elements = append(p.Elements, element)
}

// MatchSymbols checks this list has at least n elements, with the leading
// elements being symbols matching the given values in order.
func (p *List) MatchSymbols(n int, symbols ...string) bool {
	if len(p.Elements) < n || len(p.Elements) < len(symbols) {
		return false
	}
	//
	for i, expected := range symbols {
		sym := p.Elements[i].AsSymbol()
		//
		if sym == nil || sym.Value != expected {
			return false
		}
	}
	//
	return true
}

func (p *List) String(quote bool) string {
	return renderElements(p.Elements, "()", quote)
}

// ===================================================================
// Set
// ===================================================================

// Set is the braced aggregate, written "{e1 .. en}" in the surface
// syntax.
type Set struct {
	Elements []SExp
}

// NewSet creates a set over the given elements.
func NewSet(elements []SExp) *Set {
	return &Set{elements}
}

// AsSymbol returns nil for a set.
func (p *Set) AsSymbol() *Symbol { return nil }

// AsList returns nil for a set.
func (p *Set) AsList() *List { return nil }

// AsSet returns the receiver.
func (p *Set) AsSet() *Set { return p }

// AsArray returns nil for a set.
func (p *Set) AsArray() *Array { return nil }

// Len returns the number of elements in this set.
func (p *Set) Len() int { return len(p.Elements) }

// Get returns the ith element of this set.
func (p *Set) Get(i int) SExp { return p.Elements[i] }

func (p *Set) String(quote bool) string {
	return renderElements(p.Elements, "{}", quote)
}

// ===================================================================
// Array
// ===================================================================

// Array is the bracketed aggregate, written "[e1 .. en]" in the surface
// syntax.
type Array struct {
	Elements []SExp
}

// NewArray creates an array over the given elements.
func NewArray(elements []SExp) *Array {
	return &Array{elements}
}

// AsSymbol returns nil for an array.
func (p *Array) AsSymbol() *Symbol { return nil }

// AsList returns nil for an array.
func (p *Array) AsList() *List { return nil }

// AsSet returns nil for an array.
func (p *Array) AsSet() *Set { return nil }

// AsArray returns the receiver.
func (p *Array) AsArray() *Array { return p }

// Len returns the number of elements in this array.
func (p *Array) Len() int { return len(p.Elements) }

// Get returns the ith element of this array.
func (p *Array) Get(i int) SExp { return p.Elements[i] }

func (p *Array) String(quote bool) string {
	return renderElements(p.Elements, "[]", quote)
}

// renderElements renders an aggregate's elements space-separated between
// the given delimiter pair.
func renderElements(elements []SExp, delimiters string, quote bool) string {
	var builder strings.Builder
	//
	builder.WriteByte(delimiters[0])
	//
	for i, element := range elements {
		if i != 0 {
			builder.WriteString(" ")
		}
		//
		builder.WriteString(element.String(quote))
	}
	//
	builder.WriteByte(delimiters[1])
	//
	return builder.String()
}
