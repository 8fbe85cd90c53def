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

// File holds the text of one source file as runes, so spans index
// characters rather than bytes.
type File struct {
	// filename the text was read from, or a placeholder for in-memory
	// sources.
	filename string
	// contents of the file.
	contents []rune
}

// NewSourceFile wraps raw file bytes into a source file.
func NewSourceFile(filename string, bytes []byte) *File {
	return &File{filename, []rune(string(bytes))}
}

// Filename this source file was read from.
func (p *File) Filename() string {
	return p.filename
}

// Contents of this source file.
func (p *File) Contents() []rune {
	return p.contents
}

// SyntaxError constructs an error reported against a given span of this
// file.
func (p *File) SyntaxError(span Span, msg string) *SyntaxError {
	return &SyntaxError{p, span, msg, ""}
}

// FindFirstEnclosingLine locates the line holding the first character of a
// span.  A span starting beyond the end of the file yields the final line,
// and a span covering several lines yields only the first of them.
func (p *File) FindFirstEnclosingLine(span Span) Line {
	start, number := 0, 1
	// Find where the enclosing line begins.
	for i := 0; i < len(p.contents) && i < span.start; i++ {
		if p.contents[i] == '\n' {
			start = i + 1
			number++
		}
	}
	//
	return Line{p.contents, Span{start, p.endOfLine(start)}, number}
}

// endOfLine finds the newline terminating the line beginning at the given
// offset, or the end of the file.
func (p *File) endOfLine(start int) int {
	for i := start; i < len(p.contents); i++ {
		if p.contents[i] == '\n' {
			return i
		}
	}
	//
	return len(p.contents)
}

// Line identifies one line of a source file: its position within the text
// and its 1-based line number.
type Line struct {
	// text of the whole enclosing file.
	text []rune
	// span of this line within the text, excluding the newline.
	span Span
	// number of this line, counting from 1.
	number int
}

// String returns the text of this line.
func (p *Line) String() string {
	return string(p.text[p.span.start:p.span.end])
}

// Number of this line within its file, counting from 1.
func (p *Line) Number() int {
	return p.number
}

// Start index of this line within the original text.
func (p *Line) Start() int {
	return p.span.start
}

// Length of this line in characters.
func (p *Line) Length() int {
	return p.span.Length()
}

// SyntaxError ties an error message to the span of text it arose from,
// optionally carrying an actionable hint.
type SyntaxError struct {
	srcfile *File
	// span of the offending text.
	span Span
	// msg describing what went wrong.
	msg string
	// hint suggesting a remedy, or empty.
	hint string
}

// SourceFile the error was reported against.
func (p *SyntaxError) SourceFile() *File {
	return p.srcfile
}

// Span of the offending text.
func (p *SyntaxError) Span() Span {
	return p.span
}

// Message describing what went wrong.
func (p *SyntaxError) Message() string {
	return p.msg
}

// Hint suggesting how to resolve this error, or the empty string when
// there is none.
func (p *SyntaxError) Hint() string {
	return p.hint
}

// WithHint attaches an actionable hint, returning the error for chaining.
func (p *SyntaxError) WithHint(hint string) *SyntaxError {
	p.hint = hint
	return p
}

// Error implements the error interface.
func (p *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d:%s", p.span.Start(), p.span.End(), p.msg)
}

// FirstEnclosingLine locates the line holding the start of the offending
// span, for rendering the error in context.
func (p *SyntaxError) FirstEnclosingLine() Line {
	return p.srcfile.FindFirstEnclosingLine(p.span)
}
