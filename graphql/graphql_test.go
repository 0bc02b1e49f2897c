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

package graphql

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"zombiezen.com/go/bookshelf/internal/store"
	"zombiezen.com/go/bookshelf/internal/store/badgerstore"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	db, err := badgerstore.Open(badgerstore.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := db.Close(context.Background()); err != nil {
			t.Error(err)
		}
	})
	srv, err := NewServer(db, nil)
	if err != nil {
		t.Fatal(err)
	}
	return srv, db
}

// execData runs query and returns its decoded data, failing the test if the
// response has any errors.
func execData(ctx context.Context, t *testing.T, srv *Server, query string, vars map[string]interface{}) map[string]interface{} {
	t.Helper()
	resp := srv.Execute(ctx, Request{Query: query, Variables: vars})
	if len(resp.Errors) > 0 {
		t.Fatalf("Execute(%q) errors: %v", query, resp.Errors)
	}
	return decodeData(t, resp)
}

func decodeData(t *testing.T, resp Response) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data %q: %v", resp.Data, err)
	}
	return data
}

func TestNewServer(t *testing.T) {
	if _, err := NewServer(nil, nil); err == nil {
		t.Error("NewServer(nil, nil) did not return an error")
	}
	srv, _ := newTestServer(t)
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
}

func TestAuthorLifecycle(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)

	created := execData(ctx, t, srv, `mutation { createAuthor(name: "Ann", age: 40) { id name age } }`, nil)
	author := created["createAuthor"].(map[string]interface{})
	id, _ := author["id"].(string)
	if id == "" {
		t.Fatalf("createAuthor id = %v; want non-empty string", author["id"])
	}
	want := map[string]interface{}{"id": id, "name": "Ann", "age": float64(40)}
	if diff := cmp.Diff(want, author); diff != "" {
		t.Errorf("createAuthor (-want +got):\n%s", diff)
	}

	got := execData(ctx, t, srv, `query($id: ID) { author(id: $id) { id name age } }`, map[string]interface{}{"id": id})
	if diff := cmp.Diff(map[string]interface{}{"author": want}, got); diff != "" {
		t.Errorf("author after create (-want +got):\n%s", diff)
	}

	// Omitted arguments keep their stored value.
	got = execData(ctx, t, srv, `mutation($id: ID) { updateAuthor(id: $id, age: 41) { name age } }`, map[string]interface{}{"id": id})
	wantUpdate := map[string]interface{}{
		"updateAuthor": map[string]interface{}{"name": "Ann", "age": float64(41)},
	}
	if diff := cmp.Diff(wantUpdate, got); diff != "" {
		t.Errorf("updateAuthor age (-want +got):\n%s", diff)
	}

	// Explicit null clears the field.
	got = execData(ctx, t, srv, `mutation($id: ID) { updateAuthor(id: $id, name: null) { name age } }`, map[string]interface{}{"id": id})
	wantUpdate = map[string]interface{}{
		"updateAuthor": map[string]interface{}{"name": nil, "age": float64(41)},
	}
	if diff := cmp.Diff(wantUpdate, got); diff != "" {
		t.Errorf("updateAuthor name: null (-want +got):\n%s", diff)
	}

	got = execData(ctx, t, srv, `mutation($id: ID) { deleteAuthor(id: $id) { id age } }`, map[string]interface{}{"id": id})
	wantDelete := map[string]interface{}{
		"deleteAuthor": map[string]interface{}{"id": id, "age": float64(41)},
	}
	if diff := cmp.Diff(wantDelete, got); diff != "" {
		t.Errorf("deleteAuthor (-want +got):\n%s", diff)
	}

	got = execData(ctx, t, srv, `query($id: ID) { author(id: $id) { id } authors { id } }`, map[string]interface{}{"id": id})
	wantGone := map[string]interface{}{"author": nil, "authors": []interface{}{}}
	if diff := cmp.Diff(wantGone, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("after delete (-want +got):\n%s", diff)
	}

	// Deleting again is not an error.
	got = execData(ctx, t, srv, `mutation($id: ID) { deleteAuthor(id: $id) { id } }`, map[string]interface{}{"id": id})
	if diff := cmp.Diff(map[string]interface{}{"deleteAuthor": nil}, got); diff != "" {
		t.Errorf("second deleteAuthor (-want +got):\n%s", diff)
	}
}

func TestCreateAuthorWithoutArguments(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	got := execData(ctx, t, srv, `mutation { createAuthor { name age } }`, nil)
	want := map[string]interface{}{
		"createAuthor": map[string]interface{}{"name": nil, "age": nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("createAuthor (-want +got):\n%s", diff)
	}
}

func TestRelations(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)

	created := execData(ctx, t, srv, `mutation { createAuthor(name: "Ann", age: 40) { id } }`, nil)
	authorID := created["createAuthor"].(map[string]interface{})["id"].(string)
	vars := map[string]interface{}{"authorId": authorID}
	execData(ctx, t, srv, `mutation($authorId: ID!) { createBook(name: "A", genre: "sci-fi", authorId: $authorId) { id } }`, vars)
	execData(ctx, t, srv, `mutation($authorId: ID!) { createBook(name: "B", genre: "poetry", authorId: $authorId) { id } }`, vars)
	execData(ctx, t, srv, `mutation { createBook(name: "C", genre: "essay", authorId: "someone-else") { id } }`, nil)

	got := execData(ctx, t, srv, `query($id: ID) { author(id: $id) { name books { name genre author { name } } } }`, map[string]interface{}{"id": authorID})
	want := map[string]interface{}{
		"author": map[string]interface{}{
			"name": "Ann",
			"books": []interface{}{
				map[string]interface{}{"name": "A", "genre": "sci-fi", "author": map[string]interface{}{"name": "Ann"}},
				map[string]interface{}{"name": "B", "genre": "poetry", "author": map[string]interface{}{"name": "Ann"}},
			},
		},
	}
	sortBooks := cmpopts.SortSlices(func(a, b interface{}) bool {
		return a.(map[string]interface{})["name"].(string) < b.(map[string]interface{})["name"].(string)
	})
	if diff := cmp.Diff(want, got, sortBooks); diff != "" {
		t.Errorf("author.books (-want +got):\n%s", diff)
	}

	got = execData(ctx, t, srv, `{ books { name author { name } } }`, nil)
	want = map[string]interface{}{
		"books": []interface{}{
			map[string]interface{}{"name": "A", "author": map[string]interface{}{"name": "Ann"}},
			map[string]interface{}{"name": "B", "author": map[string]interface{}{"name": "Ann"}},
			map[string]interface{}{"name": "C", "author": nil},
		},
	}
	if diff := cmp.Diff(want, got, sortBooks); diff != "" {
		t.Errorf("books (-want +got):\n%s", diff)
	}
}

func TestDeleteAuthorLeavesBooks(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)

	created := execData(ctx, t, srv, `mutation { createAuthor(name: "Ann") { id } }`, nil)
	authorID := created["createAuthor"].(map[string]interface{})["id"].(string)
	execData(ctx, t, srv, `mutation($authorId: ID!) { createBook(name: "A", genre: "g", authorId: $authorId) { id } }`, map[string]interface{}{"authorId": authorID})
	execData(ctx, t, srv, `mutation($id: ID) { deleteAuthor(id: $id) { id } }`, map[string]interface{}{"id": authorID})

	got := execData(ctx, t, srv, `{ books { name author { name } } }`, nil)
	want := map[string]interface{}{
		"books": []interface{}{
			map[string]interface{}{"name": "A", "author": nil},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("books after deleteAuthor (-want +got):\n%s", diff)
	}
}

func TestBookLifecycle(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)

	created := execData(ctx, t, srv, `mutation { createBook(name: "A", genre: "g", authorId: "x") { id name genre } }`, nil)
	book := created["createBook"].(map[string]interface{})
	id := book["id"].(string)

	got := execData(ctx, t, srv, `mutation($id: ID) { updateBook(id: $id, name: "B", genre: "h", authorId: "y") { id name genre } }`, map[string]interface{}{"id": id})
	want := map[string]interface{}{
		"updateBook": map[string]interface{}{"id": id, "name": "B", "genre": "h"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("updateBook (-want +got):\n%s", diff)
	}

	got = execData(ctx, t, srv, `mutation($id: ID) { deleteBook(id: $id) { name } }`, map[string]interface{}{"id": id})
	if diff := cmp.Diff(map[string]interface{}{"deleteBook": map[string]interface{}{"name": "B"}}, got); diff != "" {
		t.Errorf("deleteBook (-want +got):\n%s", diff)
	}

	got = execData(ctx, t, srv, `query($id: ID) { book(id: $id) { name } }`, map[string]interface{}{"id": id})
	if diff := cmp.Diff(map[string]interface{}{"book": nil}, got); diff != "" {
		t.Errorf("book after delete (-want +got):\n%s", diff)
	}
}

func TestDeleteMissingBook(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	const missingID = "000000000000000000000000"
	got := execData(ctx, t, srv, `mutation { deleteBook(id: "`+missingID+`") { id } }`, nil)
	if diff := cmp.Diff(map[string]interface{}{"deleteBook": nil}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestPartialMutationFailure(t *testing.T) {
	ctx := context.Background()
	srv, st := newTestServer(t)
	const missingID = "000000000000000000000000"
	resp := srv.Execute(ctx, Request{Query: `mutation {
		created: createAuthor(name: "Ann") { name }
		updated: updateAuthor(id: "` + missingID + `", name: "X") { name }
	}`})
	wantErrors := []*ResponseError{{
		State:     store.StateNotFound,
		Locations: []Location{{Line: 3, Column: 3}},
		Path:      []PathSegment{{Field: "updated"}},
	}}
	if diff := cmp.Diff(wantErrors, resp.Errors, cmpopts.IgnoreFields(ResponseError{}, "Message")); diff != "" {
		t.Errorf("errors (-want +got):\n%s", diff)
	}
	wantData := map[string]interface{}{
		"created": map[string]interface{}{"name": "Ann"},
		"updated": nil,
	}
	if diff := cmp.Diff(wantData, decodeData(t, resp)); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}
	authors, err := st.Authors().Find(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(authors) != 1 {
		t.Errorf("stored %d authors; want 1", len(authors))
	}
}

func TestNullID(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	got := execData(ctx, t, srv, `{ book { id } author(id: null) { id } }`, nil)
	want := map[string]interface{}{"book": nil, "author": nil}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFieldErrors(t *testing.T) {
	const missingID = "000000000000000000000000"
	tests := []struct {
		name     string
		query    string
		wantData map[string]interface{}
		want     []*ResponseError
	}{
		{
			name:     "UpdateMissingAuthor",
			query:    `mutation { updateAuthor(id: "` + missingID + `", name: "X") { id } }`,
			wantData: map[string]interface{}{"updateAuthor": nil},
			want: []*ResponseError{{
				State:     store.StateNotFound,
				Locations: []Location{{Line: 1, Column: 12}},
				Path:      []PathSegment{{Field: "updateAuthor"}},
			}},
		},
		{
			name:     "UpdateMissingBook",
			query:    `mutation { updateBook(id: "` + missingID + `", name: "X", genre: "Y", authorId: "Z") { id } }`,
			wantData: map[string]interface{}{"updateBook": nil},
			want: []*ResponseError{{
				State:     store.StateNotFound,
				Locations: []Location{{Line: 1, Column: 12}},
				Path:      []PathSegment{{Field: "updateBook"}},
			}},
		},
		{
			name:     "UpdateWithoutID",
			query:    `mutation { updateAuthor(name: "X") { id } }`,
			wantData: map[string]interface{}{"updateAuthor": nil},
			want: []*ResponseError{{
				State:     store.StateNotFound,
				Locations: []Location{{Line: 1, Column: 12}},
				Path:      []PathSegment{{Field: "updateAuthor"}},
			}},
		},
		{
			name:     "MalformedID",
			query:    `{ book(id: "not-an-id") { id } }`,
			wantData: map[string]interface{}{"book": nil},
			want: []*ResponseError{{
				State:     store.StateInvalidID,
				Locations: []Location{{Line: 1, Column: 3}},
				Path:      []PathSegment{{Field: "book"}},
			}},
		},
		{
			name:     "MalformedDeleteID",
			query:    `mutation { deleteAuthor(id: "not-an-id") { id } }`,
			wantData: map[string]interface{}{"deleteAuthor": nil},
			want: []*ResponseError{{
				State:     store.StateInvalidID,
				Locations: []Location{{Line: 1, Column: 12}},
				Path:      []PathSegment{{Field: "deleteAuthor"}},
			}},
		},
	}
	// Message text comes from the store and the execution engine.
	ignoreMessage := cmpopts.IgnoreFields(ResponseError{}, "Message")
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			srv, _ := newTestServer(t)
			resp := srv.Execute(ctx, Request{Query: test.query})
			if diff := cmp.Diff(test.want, resp.Errors, ignoreMessage); diff != "" {
				t.Errorf("errors (-want +got):\n%s", diff)
			}
			for _, e := range resp.Errors {
				if e.Message == "" {
					t.Error("error has empty message")
				}
			}
			if diff := cmp.Diff(test.wantData, decodeData(t, resp)); diff != "" {
				t.Errorf("data (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFieldErrorJSON(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	resp := srv.Execute(ctx, Request{
		Query: `mutation { updateAuthor(id: "000000000000000000000000", name: "X") { id } }`,
	})
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Data   map[string]interface{} `json:"data"`
		Errors []struct {
			State     string        `json:"state"`
			Locations []Location    `json:"locations"`
			Path      []interface{} `json:"path"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Errors) != 1 {
		t.Fatalf("response = %s; want 1 error", data)
	}
	e := got.Errors[0]
	if e.State != store.StateNotFound {
		t.Errorf("state = %q; want %q", e.State, store.StateNotFound)
	}
	if diff := cmp.Diff([]Location{{Line: 1, Column: 12}}, e.Locations); diff != "" {
		t.Errorf("locations (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]interface{}{"updateAuthor"}, e.Path); diff != "" {
		t.Errorf("path (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]interface{}{"updateAuthor": nil}, got.Data); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}
}

func TestNestedFieldErrorLocation(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	req := Request{
		Query:         "query Q {\n  books { name }\n}\nmutation M {\n  gone: updateBook(id: \"000000000000000000000000\", name: \"a\", genre: \"b\", authorId: \"c\") {\n    ...Fields\n  }\n}\nfragment Fields on Book { id }",
		OperationName: "M",
	}
	resp := srv.Execute(ctx, req)
	want := []*ResponseError{{
		State:     store.StateNotFound,
		Locations: []Location{{Line: 5, Column: 3}},
		Path:      []PathSegment{{Field: "gone"}},
	}}
	if diff := cmp.Diff(want, resp.Errors, cmpopts.IgnoreFields(ResponseError{}, "Message")); diff != "" {
		t.Errorf("errors (-want +got):\n%s", diff)
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "MissingRequiredArgument", query: `mutation { createBook(genre: "g", authorId: "a") { id } }`},
		{name: "NullRequiredArgument", query: `mutation { createBook(name: null, genre: "g", authorId: "a") { id } }`},
		{name: "UnknownField", query: `{ books { title } }`},
		{name: "WrongArgumentType", query: `mutation { createAuthor(age: "old") { id } }`},
		{name: "SyntaxError", query: `{ books { id }`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			srv, st := newTestServer(t)
			resp := srv.Execute(ctx, Request{Query: test.query})
			if len(resp.Errors) == 0 {
				t.Fatal("no errors")
			}
			if resp.Data != nil {
				t.Errorf("data = %s; want none", resp.Data)
			}
			for _, e := range resp.Errors {
				if e.State != "" {
					t.Errorf("error %q has state %q", e.Message, e.State)
				}
			}
			books, err := st.Books().Find(ctx, nil)
			if err != nil {
				t.Fatal(err)
			}
			authors, err := st.Authors().Find(ctx, nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(books) > 0 || len(authors) > 0 {
				t.Errorf("store has %d books and %d authors after rejected request; want empty", len(books), len(authors))
			}
		})
	}
}

func TestResponseMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{
			name: "Empty",
			want: `{}`,
		},
		{
			name: "DataOnly",
			resp: Response{Data: json.RawMessage(`{"books":[]}`)},
			want: `{"data":{"books":[]}}`,
		},
		{
			name: "ErrorsOnly",
			resp: Response{Errors: []*ResponseError{{Message: "bad"}}},
			want: `{"errors":[{"message":"bad"}]}`,
		},
		{
			name: "DataAndErrors",
			resp: Response{
				Data: json.RawMessage(`{"book":null}`),
				Errors: []*ResponseError{{
					Message:   "books: invalid id",
					State:     store.StateInvalidID,
					Locations: []Location{{Line: 1, Column: 3}},
					Path:      []PathSegment{{Field: "book"}, {ListIndex: 2}},
				}},
			},
			want: `{"data":{"book":null},"errors":[{"message":"books: invalid id","state":"INVALID_ID","locations":[{"line":1,"column":3}],"path":["book",2]}]}`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := json.Marshal(test.resp)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != test.want {
				t.Errorf("json.Marshal(...) = %s; want %s", got, test.want)
			}
		})
	}
}

func TestPathSegmentUnmarshalJSON(t *testing.T) {
	var got []PathSegment
	if err := json.Unmarshal([]byte(`["authors",3,"books"]`), &got); err != nil {
		t.Fatal(err)
	}
	want := []PathSegment{{Field: "authors"}, {ListIndex: 3}, {Field: "books"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
