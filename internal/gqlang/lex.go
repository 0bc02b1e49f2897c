// Copyright 2019 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package gqlang

import (
	"fmt"
	"strings"
)

// lexer splits a document into the coarse tokens needed to find operation
// definitions: names, braces, parentheses and strings. Everything else is
// reported one byte at a time as unknown.
type lexer struct {
	input string
	pos   Pos
}

func lex(input string) []token {
	l := &lexer{input: input}
	var tokens []token
	for {
		tok := l.next()
		if tok.source == "" {
			// EOF
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func (l *lexer) next() token {
	l.skipIgnored()
	start := l.pos
	if len(l.input) == 0 {
		return token{start: start}
	}
	switch c := l.input[0]; {
	case c == '{' || c == '}' || c == '(' || c == ')':
		return token{
			kind:   punctuators[c],
			source: l.consume(1),
			start:  start,
		}
	case isNameChar(c):
		return token{
			kind:   name,
			source: l.consume(l.span(1, isNameOrDigit)),
			start:  start,
		}
	case c == '-' || isDigit(c):
		// Numbers are not interpreted, but their exponents must not be
		// mistaken for names.
		return token{
			kind:   number,
			source: l.consume(l.span(1, isNumberChar)),
			start:  start,
		}
	case c == '"':
		if strings.HasPrefix(l.input, `"""`) {
			return l.blockString()
		}
		return l.simpleString()
	default:
		return token{
			kind:   unknown,
			source: l.consume(1),
			start:  start,
		}
	}
}

// span returns the length of the prefix of the input, starting at n, whose
// bytes satisfy f.
func (l *lexer) span(n int, f func(byte) bool) int {
	for n < len(l.input) && f(l.input[n]) {
		n++
	}
	return n
}

// simpleString scans a quoted string, stopping at the end of the line if it
// is unterminated.
// https://graphql.github.io/graphql-spec/June2018/#sec-String-Value
func (l *lexer) simpleString() token {
	start := l.pos
	for n := 1; n < len(l.input); n++ {
		switch l.input[n] {
		case '\\':
			n++
		case '\n':
			return token{kind: stringValue, source: l.consume(n), start: start}
		case '"':
			return token{kind: stringValue, source: l.consume(n + 1), start: start}
		}
	}
	return token{kind: stringValue, source: l.consume(len(l.input)), start: start}
}

// blockString scans a triple-quoted string.
// https://graphql.github.io/graphql-spec/June2018/#sec-String-Value
func (l *lexer) blockString() token {
	const marker = `"""`
	start := l.pos
	for i := len(marker); ; {
		j := strings.Index(l.input[i:], marker)
		if j == -1 {
			return token{kind: stringValue, source: l.consume(len(l.input)), start: start}
		}
		if l.input[i+j-1] != '\\' {
			return token{kind: stringValue, source: l.consume(i + j + len(marker)), start: start}
		}
		// Move past escape.
		i += j + len(marker)
	}
}

// skipIgnored skips any ignored tokens.
// https://graphql.github.io/graphql-spec/June2018/#sec-Source-Text.Ignored-Tokens
func (l *lexer) skipIgnored() {
	for len(l.input) > 0 {
		switch l.input[0] {
		case ' ', '\t', '\r', '\n', ',':
			l.consume(1)
		case bom[0]:
			if !strings.HasPrefix(l.input, bom) {
				return
			}
			l.consume(len(bom))
		case '#':
			i := strings.IndexAny(l.input, "\n\r")
			if i == -1 {
				l.consume(len(l.input))
				return
			}
			l.consume(i + 1)
		default:
			return
		}
	}
}

func (l *lexer) consume(n int) string {
	s := l.input[:n]
	l.input = l.input[n:]
	l.pos += Pos(n)
	return s
}

type token struct {
	kind   tokenKind
	source string
	start  Pos
}

// A Pos is a 0-based byte offset in a GraphQL document.
type Pos int

type tokenKind int

const (
	unknown tokenKind = iota

	lparen // '('
	rparen // ')'
	lbrace // '{'
	rbrace // '}'

	name
	number
	stringValue
)

var punctuators = map[byte]tokenKind{
	'(': lparen,
	')': rparen,
	'{': lbrace,
	'}': rbrace,
}

func (kind tokenKind) String() string {
	switch kind {
	case unknown:
		return "unknown"
	case lparen:
		return "lparen"
	case rparen:
		return "rparen"
	case lbrace:
		return "lbrace"
	case rbrace:
		return "rbrace"
	case name:
		return "name"
	case number:
		return "number"
	case stringValue:
		return "stringValue"
	default:
		return fmt.Sprintf("tokenKind(%d)", int(kind))
	}
}

// isNameChar reports whether c could start a name.
// https://graphql.github.io/graphql-spec/June2018/#Name
func isNameChar(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isNameOrDigit(c byte) bool {
	return isNameChar(c) || isDigit(c)
}

func isNumberChar(c byte) bool {
	return isDigit(c) || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-'
}

const bom = "\ufeff"
