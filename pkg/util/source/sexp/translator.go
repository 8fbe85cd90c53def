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

	"github.com/vinelang/go-vine/pkg/util/source"
)

// SymbolRule translates one atom into a node of type T.  A rule reports
// whether it recognised the symbol at all; unrecognised symbols fall
// through to the next registered rule.
type SymbolRule[T comparable] func(string) (T, bool, error)

// ListRule translates one list, as parsed, into a node of type T.  The
// rule drives any recursion over the list's elements itself.
type ListRule[T comparable] func(*List) (T, []source.SyntaxError)

// ArrayRule translates one array, as parsed, into a node of type T.
type ArrayRule[T comparable] func(*Array) (T, []source.SyntaxError)

// SetRule translates one set, as parsed, into a node of type T.
type SetRule[T comparable] func(*Set) (T, []source.SyntaxError)

// RecursiveRule translates a head symbol together with its already
// translated arguments into a node of type T.
type RecursiveRule[T comparable] func(string, []T) (T, error)

// Translator drives the translation of s-expressions into nodes of some
// type T, dispatching each list on its head symbol.  As terms translate,
// their spans carry over from the term source map onto the constructed
// nodes, so later passes can report errors against the original text.
type Translator[T comparable] struct {
	srcfile *source.File
	// Rules for lists, keyed by head symbol.
	lists map[string]ListRule[T]
	// Fallback applied to lists with an unknown head.
	anyList ListRule[T]
	// Fallback applied to arrays.
	anyArray ArrayRule[T]
	// Fallback applied to sets.
	anySet SetRule[T]
	// Rules tried in turn for each atom.
	symbols []SymbolRule[T]
	// Spans of the terms being translated.
	termSpans *source.Map[SExp]
	// Spans carried onto constructed nodes.
	nodeSpans *source.Map[T]
}

// NewTranslator constructs an empty translator over the given term spans.
func NewTranslator[T comparable](srcfile *source.File, srcmap *source.Map[SExp]) *Translator[T] {
	return &Translator[T]{
		srcfile:   srcfile,
		lists:     make(map[string]ListRule[T]),
		termSpans: srcmap,
		nodeSpans: source.NewSourceMap[T](srcmap.Source()),
	}
}

// SourceMap returns the span map over the nodes constructed so far.
func (p *Translator[T]) SourceMap() *source.Map[T] {
	return p.nodeSpans
}

// SpanOf looks up the span a term occupies in the original text.
func (p *Translator[T]) SpanOf(term SExp) source.Span {
	return p.termSpans.Get(term)
}

// AddSymbolRule appends a rule for translating atoms.  Rules are tried in
// registration order.
func (p *Translator[T]) AddSymbolRule(rule SymbolRule[T]) {
	p.symbols = append(p.symbols, rule)
}

// AddListRule registers the rule for lists opening with the given head
// symbol.
func (p *Translator[T]) AddListRule(head string, rule ListRule[T]) {
	p.lists[head] = rule
}

// AddRecursiveListRule registers a rule for lists opening with the given
// head symbol, with the list's remaining elements translated before the
// rule applies.
func (p *Translator[T]) AddRecursiveListRule(head string, rule RecursiveRule[T]) {
	p.lists[head] = func(l *List) (T, []source.SyntaxError) {
		var (
			empty  T
			errors []source.SyntaxError
		)
		//
		args := make([]T, len(l.Elements)-1)
		//
		for i, el := range l.Elements[1:] {
			var errs []source.SyntaxError
			//
			args[i], errs = p.Translate(el)
			errors = append(errors, errs...)
		}
		//
		if len(errors) > 0 {
			return empty, errors
		}
		//
		node, err := rule(head, args)
		//
		if err != nil {
			return empty, p.SyntaxErrors(l, err.Error())
		}
		//
		return node, nil
	}
}

// AddDefaultListRule registers the fallback for lists no keyed rule
// matches.
func (p *Translator[T]) AddDefaultListRule(rule ListRule[T]) {
	p.anyList = rule
}

// AddDefaultArrayRule registers the fallback for arrays.
func (p *Translator[T]) AddDefaultArrayRule(rule ArrayRule[T]) {
	p.anyArray = rule
}

// AddDefaultSetRule registers the fallback for sets.
func (p *Translator[T]) AddDefaultSetRule(rule SetRule[T]) {
	p.anySet = rule
}

// Translate one term into a node, recording the node's span on success.
func (p *Translator[T]) Translate(term SExp) (T, []source.SyntaxError) {
	switch term := term.(type) {
	case *Symbol:
		return p.translateSymbol(term)
	case *List:
		return p.translateList(term)
	case *Set:
		return p.translateSet(term)
	case *Array:
		return p.translateArray(term)
	default:
		var empty T
		//
		return empty, p.SyntaxErrors(term, fmt.Sprintf("invalid s-expression (%T)", term))
	}
}

// SyntaxError constructs a syntax error over the span of the given term.
//
//nolint:revive
func (p *Translator[T]) SyntaxError(term SExp, msg string) *source.SyntaxError {
	return p.srcfile.SyntaxError(p.termSpans.Get(term), msg)
}

// SyntaxErrors wraps SyntaxError for rules reporting error slices.
//
//nolint:revive
func (p *Translator[T]) SyntaxErrors(term SExp, msg string) []source.SyntaxError {
	return []source.SyntaxError{*p.SyntaxError(term, msg)}
}

func (p *Translator[T]) translateSymbol(term *Symbol) (T, []source.SyntaxError) {
	var empty T
	//
	for _, rule := range p.symbols {
		node, ok, err := rule(term.Value)
		//
		if ok && err != nil {
			return empty, p.SyntaxErrors(term, err.Error())
		} else if ok {
			p.noteSpan(node, term)
			//
			return node, nil
		}
	}
	//
	return empty, p.SyntaxErrors(term, fmt.Sprintf("unknown symbol %q", term.Value))
}

func (p *Translator[T]) translateList(l *List) (T, []source.SyntaxError) {
	var empty T
	//
	rule := p.anyList
	// Dispatch on the head symbol where one is present.
	if head := headSymbol(l); head != "" {
		if keyed, ok := p.lists[head]; ok {
			rule = keyed
		}
	}
	//
	if rule == nil {
		return empty, p.SyntaxErrors(l, "unknown list encountered")
	}
	//
	node, errors := rule(l)
	//
	if len(errors) == 0 {
		p.noteSpan(node, l)
	}
	//
	return node, errors
}

func (p *Translator[T]) translateSet(s *Set) (T, []source.SyntaxError) {
	var empty T
	//
	if p.anySet == nil {
		return empty, p.SyntaxErrors(s, "unexpected set")
	}
	//
	node, errors := p.anySet(s)
	//
	if len(errors) == 0 {
		p.noteSpan(node, s)
	}
	//
	return node, errors
}

func (p *Translator[T]) translateArray(a *Array) (T, []source.SyntaxError) {
	var empty T
	//
	if p.anyArray == nil {
		return empty, p.SyntaxErrors(a, "unexpected array")
	}
	//
	node, errors := p.anyArray(a)
	//
	if len(errors) == 0 {
		p.noteSpan(node, a)
	}
	//
	return node, errors
}

// noteSpan records a constructed node as occupying the span of the term
// it came from.
func (p *Translator[T]) noteSpan(node T, term SExp) {
	p.nodeSpans.Put(node, p.termSpans.Get(term))
}

// headSymbol returns a list's leading symbol value, or empty when the
// list is empty or opens with an aggregate.
func headSymbol(l *List) string {
	if len(l.Elements) > 0 {
		if sym := l.Elements[0].AsSymbol(); sym != nil {
			return sym.Value
		}
	}
	//
	return ""
}
