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

import "strings"

// FormattingRule directs how one family of forms splits across lines.
// When the formatter meets a list it cannot fit, each rule in turn is
// given the chance to lay it out.  A rule returns nil chunks for lists it
// does not govern; otherwise it returns one chunk per element, plus
// whether the list as a whole should move onto a line of its own when it
// splits.
type FormattingRule interface {
	Split(*List) ([]Chunk, bool)
}

// ClauseRule lays a statement form out by clauses: the head and subject
// share the first line, and each keyword opens a clause on a fresh
// indented line, keeping its arguments beside it:
//
//	(select User
//	  :filter (= (. User name) "alice")
//	  :limit 1)
type ClauseRule struct {
	// Head symbol governed by this rule.
	Head string
	// Level at which clauses break.
	Level uint
}

// Split one clause per keyword.
func (p *ClauseRule) Split(list *List) ([]Chunk, bool) {
	if !matchesHead(list, p.Head) {
		return nil, false
	}
	//
	chunks := make([]Chunk, list.Len())
	//
	for i := 0; i < list.Len(); i++ {
		level := neverBreak
		// A keyword opens a clause of its own.
		if sym := list.Get(i).AsSymbol(); sym != nil && strings.HasPrefix(sym.Value, ":") {
			level = p.Level
		}
		//
		chunks[i] = Chunk{level, list.Get(i)}
	}
	//
	return chunks, true
}

// BlockRule lays out a form opening with a fixed segment, followed by a
// body placed one element per indented line:
//
//	(for x (. User friends)
//	  (select ...))
type BlockRule struct {
	// Head symbol governed by this rule.
	Head string
	// Fixed counts the elements after the head kept on its line.
	Fixed int
	// Level at which body elements break.
	Level uint
}

// Split the body one element per line.
func (p *BlockRule) Split(list *List) ([]Chunk, bool) {
	if !matchesHead(list, p.Head) {
		return nil, false
	}
	//
	chunks := make([]Chunk, list.Len())
	//
	for i := 0; i < list.Len(); i++ {
		level := neverBreak
		//
		if i > p.Fixed {
			level = p.Level
		}
		//
		chunks[i] = Chunk{level, list.Get(i)}
	}
	//
	return chunks, true
}

// OperandRule lays out a variadic operator with each operand after the
// first on a line of its own, leaving the form in place:
//
//	(union (select ...)
//	  (select ...))
type OperandRule struct {
	// Head symbol governed by this rule.
	Head string
	// Level at which operands break.
	Level uint
}

// Split one operand per line.
func (p *OperandRule) Split(list *List) ([]Chunk, bool) {
	if !matchesHead(list, p.Head) {
		return nil, false
	}
	//
	chunks := make([]Chunk, list.Len())
	chunks[0] = Chunk{neverBreak, list.Get(0)}
	//
	for i := 1; i < list.Len(); i++ {
		level := p.Level
		// The first operand stays beside the operator.
		if i == 1 {
			level = neverBreak
		}
		//
		chunks[i] = Chunk{level, list.Get(i)}
	}
	//
	return chunks, false
}

// matchesHead checks a list opens with the given symbol.
func matchesHead(list *List, head string) bool {
	if list.Len() == 0 {
		return false
	}
	//
	sym := list.Get(0).AsSymbol()
	//
	return sym != nil && sym.Value == head
}
