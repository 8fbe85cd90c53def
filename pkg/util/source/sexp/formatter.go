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
	"strings"
)

// neverBreak marks chunks which stay on their current line at every break
// level.
const neverBreak = ^uint(0)

// maxBreakLevel bounds break-level escalation, ensuring Format terminates
// on input no rule can split far enough.
const maxBreakLevel uint = 4

// Chunk pairs one element of a split list with the break level at which
// it moves onto a fresh line of its own.
type Chunk struct {
	// Level at or above which this chunk starts a new line.
	Level uint
	// Body is the element being laid out.
	Body SExp
}

// Formatter lays s-expressions out within a maximum width, deferring to a
// set of per-form rules for where lines may be broken.
type Formatter struct {
	// Maximum desired width.
	maxWidth uint
	// Rules governing how specific forms split.
	rules []FormattingRule
}

// NewFormatter constructs a formatter aiming to fit its output within the
// given width.
func NewFormatter(width uint) *Formatter {
	return &Formatter{width, nil}
}

// Add registers a formatting rule with this formatter.
func (p *Formatter) Add(rule FormattingRule) {
	p.rules = append(p.rules, rule)
}

// Format lays out the given expression, raising the break level until the
// result fits (or every governed form is fully split).
func (p *Formatter) Format(expr SExp) string {
	var canvas *layoutCanvas
	//
	for level := uint(0); ; level++ {
		canvas = &layoutCanvas{}
		p.render(level, false, expr, canvas)
		//
		if canvas.widest <= int(p.maxWidth) || level >= maxBreakLevel {
			return canvas.String()
		}
	}
}

// render lays out one expression at the given break level.  The fresh
// flag records that the canvas is already at the start of an indented
// line, so forms requesting a line of their own need not break again.
func (p *Formatter) render(level uint, fresh bool, expr SExp, canvas *layoutCanvas) {
	list := expr.AsList()
	// Atoms, sets and arrays render inline.
	if list == nil {
		canvas.write(expr.String(true))
		return
	}
	// A list fitting on the current line is never split.
	if canvas.col+len(list.String(true)) > int(p.maxWidth) {
		for _, rule := range p.rules {
			if chunks, ownLine := rule.Split(list); chunks != nil {
				p.renderChunks(level, fresh, ownLine, chunks, canvas)
				return
			}
		}
	}
	//
	canvas.write("(")
	//
	for i := 0; i < list.Len(); i++ {
		if i != 0 {
			canvas.write(" ")
		}
		//
		p.render(level, false, list.Get(i), canvas)
	}
	//
	canvas.write(")")
}

func (p *Formatter) renderChunks(level uint, fresh, ownLine bool, chunks []Chunk, canvas *layoutCanvas) {
	// A form wanting a line of its own only breaks when mid-line.
	broke := ownLine && !fresh && canvas.col > 0
	//
	if broke {
		canvas.indent++
		canvas.newline()
	}
	//
	canvas.write("(")
	//
	for i, chunk := range chunks {
		broken := chunk.Level <= level
		//
		if broken {
			canvas.indent++
			canvas.newline()
		} else if i != 0 {
			canvas.write(" ")
		}
		//
		p.render(level, broken, chunk.Body, canvas)
		//
		if broken {
			canvas.indent--
		}
	}
	//
	canvas.write(")")
	//
	if broke {
		canvas.indent--
	}
}

// layoutCanvas accumulates rendered text line by line under an
// indentation discipline, tracking the widest line produced.
type layoutCanvas struct {
	builder strings.Builder
	// Current indent depth, two spaces per level.
	indent int
	// Width of the line being written.
	col int
	// Width of the widest line written so far.
	widest int
}

func (p *layoutCanvas) String() string {
	return p.builder.String() + "\n"
}

// write appends text to the current line.
func (p *layoutCanvas) write(str string) {
	p.builder.WriteString(str)
	p.col += len(str)
	//
	if p.col > p.widest {
		p.widest = p.col
	}
}

// newline starts a fresh line at the current indent depth.  On a canvas
// nothing has been written to yet, it only establishes the indent.
func (p *layoutCanvas) newline() {
	if p.builder.Len() > 0 {
		p.builder.WriteString("\n")
	}
	//
	p.col = 0
	p.write(strings.Repeat("  ", p.indent))
}
