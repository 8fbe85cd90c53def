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
	"unicode"

	"github.com/vinelang/go-vine/pkg/util/source"
)

// Parse converts the given source file into exactly one S-expression, or
// returns a syntax error if the text is malformed or contains anything beyond
// that one term.  A source map relating every term constructed to its span in
// the original text is returned alongside.
func Parse(srcfile *source.File) (SExp, *source.Map[SExp], *source.SyntaxError) {
	p := newParser(srcfile)
	//
	term, err := p.parse()
	//
	if err != nil {
		return nil, nil, err
	} else if term == nil {
		return nil, nil, p.syntaxError("unexpected end-of-file")
	}
	// Reject trailing content beyond the first term.
	p.skipSpace()
	//
	if p.index != len(p.text) {
		return nil, nil, p.syntaxError("unexpected remainder")
	}
	//
	return term, p.srcmap, nil
}

// ParseAll converts the given source file into zero or more S-expressions, or
// returns a syntax error if the text is malformed.  Unlike Parse, scanning
// continues to the end of the file, hence every top-level term is returned.
func ParseAll(srcfile *source.File) ([]SExp, *source.Map[SExp], *source.SyntaxError) {
	var terms []SExp
	//
	p := newParser(srcfile)
	//
	for {
		term, err := p.parse()
		//
		if err != nil {
			return terms, p.srcmap, err
		} else if term == nil {
			return terms, p.srcmap, nil
		}
		//
		terms = append(terms, term)
	}
}

// parser scans a source file into S-expressions, recording the span of every
// term constructed along the way in a source map.
type parser struct {
	// Source file being scanned.
	srcfile *source.File
	// Text of the source file.
	text []rune
	// Position within the text reached so far.
	index int
	// Mapping from constructed terms to their spans in the text.
	srcmap *source.Map[SExp]
}

func newParser(srcfile *source.File) *parser {
	return &parser{
		srcfile: srcfile,
		text:    srcfile.Contents(),
		index:   0,
		srcmap:  source.NewSourceMap[SExp](srcfile),
	}
}

// Parse a single term, returning nil if the end of the file was reached
// before one began.
func (p *parser) parse() (SExp, *source.SyntaxError) {
	var term SExp
	// Position ourselves on the first character of the term, so its span
	// excludes leading whitespace.
	p.skipSpace()
	//
	start := p.index
	token, err := p.next()
	//
	if err != nil {
		return nil, err
	}
	//
	switch token {
	case "":
		return nil, nil
	case ")":
		p.index-- // point at the offending bracket
		return nil, p.syntaxError("unexpected end-of-list")
	case "}":
		p.index--
		return nil, p.syntaxError("unexpected end-of-set")
	case "]":
		p.index--
		return nil, p.syntaxError("unexpected end-of-array")
	case "(":
		elements, err := p.parseSequence(')')
		//
		if err != nil {
			return nil, err
		}
		//
		term = &List{elements}
	case "{":
		elements, err := p.parseSequence('}')
		//
		if err != nil {
			return nil, err
		}
		//
		term = &Set{elements}
	case "[":
		elements, err := p.parseSequence(']')
		//
		if err != nil {
			return nil, err
		}
		//
		term = &Array{elements}
	default:
		term = &Symbol{token}
	}
	// Record the span this term occupies.
	p.srcmap.Put(term, source.NewSpan(start, p.index))
	//
	return term, nil
}

// Parse elements up to (and including) the given terminating bracket.
func (p *parser) parseSequence(terminator rune) ([]SExp, *source.SyntaxError) {
	elements := make([]SExp, 0)
	//
	for {
		p.skipSpace()
		//
		if p.index >= len(p.text) {
			p.index-- // point at the last character
			return nil, p.syntaxError("unexpected end-of-file")
		} else if p.text[p.index] == terminator {
			p.index++
			return elements, nil
		}
		//
		element, err := p.parse()
		//
		if err != nil {
			return nil, err
		}
		//
		elements = append(elements, element)
	}
}

// Extract the next token from the text, returning the empty string once the
// end of the file is reached.  Brackets form single-character tokens, string
// literals a single token spanning the entire literal (quotes included), and
// anything else begins a symbol.
func (p *parser) next() (string, *source.SyntaxError) {
	p.skipSpace()
	//
	if p.index == len(p.text) {
		return "", nil
	}
	//
	switch c := p.text[p.index]; c {
	case '(', ')', '{', '}', '[', ']':
		p.index++
		return string(c), nil
	case '"':
		return p.scanString()
	default:
		return p.scanSymbol(), nil
	}
}

// Scan a symbol token, which extends up to (but excluding) the next delimiter
// or whitespace character.
func (p *parser) scanSymbol() string {
	start := p.index
	//
	for p.index < len(p.text) && !isDelimiter(p.text[p.index]) && !unicode.IsSpace(p.text[p.index]) {
		p.index++
	}
	//
	return string(p.text[start:p.index])
}

// Scan a double-quoted string literal into a single token, quotes included.
// A backslash escapes whatever character follows it, allowing quotes (and
// backslashes) to be embedded.  Literals cannot span lines.
func (p *parser) scanString() (string, *source.SyntaxError) {
	start := p.index
	// Step over the opening quote.
	p.index++
	//
	for p.index < len(p.text) && p.text[p.index] != '\n' {
		switch p.text[p.index] {
		case '\\':
			// Skip the escaped character as well.
			p.index++
		case '"':
			p.index++
			return string(p.text[start:p.index]), nil
		}
		//
		p.index++
	}
	// Ran off the end of the line (or file) without finding the closing
	// quote.  Rewind so the error points at the opening quote.
	p.index = start
	//
	return "", p.syntaxError("unterminated string literal")
}

// Skip over whitespace and comments, leaving the position either on the first
// character of the next token or at the end of the text.  Comments begin with
// a semicolon and run to the end of the line.
func (p *parser) skipSpace() {
	for p.index < len(p.text) {
		if c := p.text[p.index]; c == ';' {
			for p.index < len(p.text) && p.text[p.index] != '\n' {
				p.index++
			}
		} else if unicode.IsSpace(c) {
			p.index++
		} else {
			return
		}
	}
}

// Delimiters terminate a symbol and (aside from the comment marker and quote)
// form tokens in their own right.
func isDelimiter(c rune) bool {
	switch c {
	case '(', ')', '{', '}', '[', ']', '"', ';':
		return true
	}
	//
	return false
}

// Construct a syntax error pointing at the current position in the text.
func (p *parser) syntaxError(msg string) *source.SyntaxError {
	span := source.NewSpan(p.index, p.index+1)
	//
	return p.srcfile.SyntaxError(span, msg)
}
