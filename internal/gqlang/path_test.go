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
	"testing"
)

func TestFieldPos(t *testing.T) {
	tests := []struct {
		name          string
		doc           string
		operationName string
		path          []string
		// want is the text that starts at the returned position.
		want string
	}{
		{
			name: "TopLevel",
			doc:  `mutation { updateAuthor(id: "1", name: "X") { id } }`,
			path: []string{"updateAuthor"},
			want: "updateAuthor(",
		},
		{
			name: "Shorthand",
			doc:  `{ authors { id } book(id: "x") { id } }`,
			path: []string{"book"},
			want: "book(",
		},
		{
			name: "Alias",
			doc:  `mutation { a: createAuthor { id } b: updateAuthor(id: "1") { id } }`,
			path: []string{"b"},
			want: "b: updateAuthor",
		},
		{
			name: "AliasShadowsName",
			doc:  `{ book: author(id: "1") { id } book(id: "2") { id } }`,
			path: []string{"book"},
			want: `book: author`,
		},
		{
			name: "Nested",
			doc:  `{ books { name author { books { genre } } } }`,
			path: []string{"books", "author", "books", "genre"},
			want: "genre",
		},
		{
			name: "SkipsArgumentsAndDirectives",
			doc:  `query Q($n: In = {author: 1}) { book(id: "author") @include(if: true) { id } author(id: "1") { id } }`,
			path: []string{"author"},
			want: `author(id: "1")`,
		},
		{
			name: "InlineFragment",
			doc:  `{ books { ... on Book { author { id } } } }`,
			path: []string{"books", "author"},
			want: "author {",
		},
		{
			name: "FragmentSpread",
			doc: `query Q { books { ...B } }
fragment B on Book { name author { id } }`,
			path: []string{"books", "author"},
			want: "author {",
		},
		{
			name:          "NamedOperation",
			doc:           `query A { books { id } } mutation B { deleteBook(id: "1") { id } }`,
			operationName: "B",
			path:          []string{"deleteBook"},
			want:          "deleteBook(",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pos, ok := FieldPos(test.doc, test.operationName, test.path)
			if !ok {
				t.Fatalf("FieldPos(%q, %q, %q) not found", test.doc, test.operationName, test.path)
			}
			if got := test.doc[pos:]; !strings.HasPrefix(got, test.want) {
				t.Errorf("FieldPos(%q, %q, %q) points at %q; want prefix %q", test.doc, test.operationName, test.path, got, test.want)
			}
		})
	}
}

func TestFieldPosNotFound(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path []string
	}{
		{name: "EmptyPath", doc: `{ books { id } }`},
		{name: "MissingField", doc: `{ books { id } }`, path: []string{"authors"}},
		{name: "LeafHasNoChildren", doc: `{ books { id } }`, path: []string{"books", "id", "x"}},
		{name: "Ambiguous", doc: `query A { a } query B { b }`, path: []string{"a"}},
		{name: "RecursiveFragment", doc: "{ books { ...F } }\nfragment F on Book { ...F }", path: []string{"books", "x"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if pos, ok := FieldPos(test.doc, "", test.path); ok {
				t.Errorf("FieldPos(%q, \"\", %q) = %d, true; want false", test.doc, test.path, pos)
			}
		})
	}
}

func TestLineColumn(t *testing.T) {
	const doc = "mutation {\n\tcreated: createAuthor { id }\n\té: updateAuthor { id }\n}"
	tests := []struct {
		pos      Pos
		wantLine int
		wantCol  int
	}{
		{pos: 0, wantLine: 1, wantCol: 1},
		{pos: 9, wantLine: 1, wantCol: 10},
		{pos: Pos(strings.Index(doc, "created")), wantLine: 2, wantCol: 2},
		{pos: Pos(strings.Index(doc, "updateAuthor")), wantLine: 3, wantCol: 5},
	}
	for _, test := range tests {
		line, col := LineColumn(doc, test.pos)
		if line != test.wantLine || col != test.wantCol {
			t.Errorf("LineColumn(doc, %d) = %d, %d; want %d, %d", test.pos, line, col, test.wantLine, test.wantCol)
		}
	}
}
