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
	"strings"
	"unicode/utf8"
)

// FieldPos returns the position of the field that produces the response
// value at path in the operation that operationName selects. Each element of
// path is a response key: the field's alias, or its name if it has none. List
// indices must be removed from the path before calling FieldPos. Fields
// reached through fragment spreads or inline fragments are found too.
func FieldPos(doc, operationName string, path []string) (Pos, bool) {
	if len(path) == 0 {
		return 0, false
	}
	op, err := selectOperation(Operations(doc), operationName)
	if err != nil {
		return 0, false
	}
	w := &walker{toks: lex(doc)}
	w.fragments = w.findFragments()
	open := -1
	for i, tok := range w.toks {
		if tok.start == op.Start {
			open = w.nextBrace(i)
			break
		}
	}
	var pos Pos
	for _, key := range path {
		if open == -1 {
			return 0, false
		}
		field, sub, ok := w.findField(open, key, make(map[string]bool))
		if !ok {
			return 0, false
		}
		pos = w.toks[field].start
		open = sub
	}
	return pos, true
}

// LineColumn converts a position in doc into a 1-based line and column.
// Columns count characters, not bytes.
func LineColumn(doc string, pos Pos) (line, col int) {
	if int(pos) > len(doc) {
		pos = Pos(len(doc))
	}
	before := doc[:pos]
	line = 1 + strings.Count(before, "\n")
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return line, 1 + utf8.RuneCountInString(before[lineStart:])
}

type walker struct {
	toks []token
	// fragments maps fragment names to the index of their selection set's
	// opening brace.
	fragments map[string]int
}

func (w *walker) findFragments() map[string]int {
	frags := make(map[string]int)
	depth := 0
	for i := 0; i < len(w.toks); i++ {
		switch tok := w.toks[i]; tok.kind {
		case lbrace:
			depth++
		case rbrace:
			if depth > 0 {
				depth--
			}
		case name:
			if depth > 0 || tok.source != "fragment" || i+1 >= len(w.toks) {
				continue
			}
			open := w.nextBrace(i + 1)
			if open == -1 {
				return frags
			}
			frags[w.toks[i+1].source] = open
			i = open
			depth++
		}
	}
	return frags
}

// nextBrace returns the index of the first opening brace at or after i that
// is not inside parentheses, or -1 if there is none.
func (w *walker) nextBrace(i int) int {
	parens := 0
	for ; i < len(w.toks); i++ {
		switch w.toks[i].kind {
		case lparen:
			parens++
		case rparen:
			if parens > 0 {
				parens--
			}
		case lbrace:
			if parens == 0 {
				return i
			}
		}
	}
	return -1
}

// skip returns the index just past the balanced group that opens at i.
func (w *walker) skip(i int, open, close tokenKind) int {
	depth := 0
	for ; i < len(w.toks); i++ {
		switch w.toks[i].kind {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(w.toks)
}

func (w *walker) skipDirectives(i int) int {
	for i+1 < len(w.toks) && w.isPunct(i, "@") {
		i += 2
		if i < len(w.toks) && w.toks[i].kind == lparen {
			i = w.skip(i, lparen, rparen)
		}
	}
	return i
}

func (w *walker) isPunct(i int, s string) bool {
	return i < len(w.toks) && w.toks[i].kind == unknown && w.toks[i].source == s
}

// findField searches the selection set whose opening brace is at index open
// for the field with the given response key. It returns the index of the
// field's first token and the index of its selection set's opening brace,
// or -1 if the field is a leaf.
func (w *walker) findField(open int, key string, seen map[string]bool) (field, sub int, ok bool) {
	i := open + 1
	for i < len(w.toks) && w.toks[i].kind != rbrace {
		switch {
		case w.isPunct(i, "."):
			for w.isPunct(i, ".") {
				i++
			}
			if i < len(w.toks) && w.toks[i].kind == name && w.toks[i].source != "on" {
				// Fragment spread.
				fragName := w.toks[i].source
				i = w.skipDirectives(i + 1)
				if fragOpen, exists := w.fragments[fragName]; exists && !seen[fragName] {
					seen[fragName] = true
					if field, sub, ok := w.findField(fragOpen, key, seen); ok {
						return field, sub, true
					}
				}
				continue
			}
			if i+1 < len(w.toks) && w.toks[i].kind == name {
				// Type condition.
				i += 2
			}
			i = w.skipDirectives(i)
			if i >= len(w.toks) || w.toks[i].kind != lbrace {
				return 0, 0, false
			}
			if field, sub, ok := w.findField(i, key, seen); ok {
				return field, sub, true
			}
			i = w.skip(i, lbrace, rbrace)
		case w.toks[i].kind == name:
			start := i
			responseKey := w.toks[i].source
			i++
			if w.isPunct(i, ":") {
				i += 2
			}
			if i < len(w.toks) && w.toks[i].kind == lparen {
				i = w.skip(i, lparen, rparen)
			}
			i = w.skipDirectives(i)
			sub := -1
			if i < len(w.toks) && w.toks[i].kind == lbrace {
				sub = i
				i = w.skip(i, lbrace, rbrace)
			}
			if responseKey == key {
				return start, sub, true
			}
		default:
			i++
		}
	}
	return 0, 0, false
}
