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

// Package storetest checks that a store.Store implementation behaves the way
// the GraphQL resolvers expect.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
	"zombiezen.com/go/bookshelf/internal/store"
)

// Backend describes the store under test.
type Backend struct {
	// Open returns a new, empty store. The test closes it.
	Open func(t *testing.T) store.Store
	// MissingID is a well-formed identifier that no document has.
	MissingID string
	// MalformedID is an identifier the backend could never assign.
	MalformedID string
}

// Run runs the conformance tests as subtests of t.
func Run(t *testing.T, b Backend) {
	tests := []struct {
		name string
		f    func(context.Context, *testing.T, store.Store, Backend)
	}{
		{"CreateAndFindByID", testCreateAndFindByID},
		{"OptionalFields", testOptionalFields},
		{"FindByIDMissing", testFindByIDMissing},
		{"MalformedID", testMalformedID},
		{"FindFilter", testFindFilter},
		{"Save", testSave},
		{"SaveDeleted", testSaveDeleted},
		{"FindByIDAndDelete", testFindByIDAndDelete},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			st := b.Open(t)
			t.Cleanup(func() {
				require.NoError(t, st.Close(context.Background()))
			})
			test.f(ctx, t, st, b)
		})
	}
}

func testCreateAndFindByID(ctx context.Context, t *testing.T, st store.Store, b Backend) {
	book := &store.Book{Name: "A Wizard of Earthsea", Genre: "fantasy", AuthorID: b.MissingID}
	require.NoError(t, st.Books().Create(ctx, book))
	require.NotEmpty(t, book.ID)

	got, err := st.Books().FindByID(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, book, got)

	other := &store.Book{Name: "The Dispossessed", Genre: "sci-fi", AuthorID: b.MissingID}
	require.NoError(t, st.Books().Create(ctx, other))
	require.NotEqual(t, book.ID, other.ID)
}

func testOptionalFields(ctx context.Context, t *testing.T, st store.Store, b Backend) {
	bare := &store.Author{}
	require.NoError(t, st.Authors().Create(ctx, bare))
	got, err := st.Authors().FindByID(ctx, bare.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Nil(t, got.Name)
	require.Nil(t, got.Age)

	full := &store.Author{Name: store.String("Ursula"), Age: store.Int32(88)}
	require.NoError(t, st.Authors().Create(ctx, full))
	got, err = st.Authors().FindByID(ctx, full.ID)
	require.NoError(t, err)
	require.Equal(t, full, got)
}

func testFindByIDMissing(ctx context.Context, t *testing.T, st store.Store, b Backend) {
	book, err := st.Books().FindByID(ctx, b.MissingID)
	require.NoError(t, err)
	require.Nil(t, book)
	author, err := st.Authors().FindByID(ctx, b.MissingID)
	require.NoError(t, err)
	require.Nil(t, author)
}

func testMalformedID(ctx context.Context, t *testing.T, st store.Store, b Backend) {
	_, err := st.Books().FindByID(ctx, b.MalformedID)
	require.True(t, store.IsInvalidID(err), "FindByID error = %v", err)
	_, err = st.Authors().FindByIDAndDelete(ctx, b.MalformedID)
	require.True(t, store.IsInvalidID(err), "FindByIDAndDelete error = %v", err)
	err = st.Books().Save(ctx, &store.Book{ID: b.MalformedID, Name: "x", Genre: "y", AuthorID: "z"})
	require.True(t, store.IsInvalidID(err), "Save error = %v", err)
}

func testFindFilter(ctx context.Context, t *testing.T, st store.Store, b Backend) {
	all, err := st.Books().Find(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, all)

	ann := &store.Author{Name: store.String("Ann")}
	require.NoError(t, st.Authors().Create(ctx, ann))
	first := &store.Book{Name: "First", Genre: "g", AuthorID: ann.ID}
	second := &store.Book{Name: "Second", Genre: "g", AuthorID: ann.ID}
	stray := &store.Book{Name: "Stray", Genre: "h", AuthorID: "nobody"}
	for _, book := range []*store.Book{first, second, stray} {
		require.NoError(t, st.Books().Create(ctx, book))
	}

	all, err = st.Books().Find(ctx, store.Filter{})
	require.NoError(t, err)
	require.ElementsMatch(t, []*store.Book{first, second, stray}, all)

	byAuthor, err := st.Books().Find(ctx, store.Filter{store.FieldAuthorID: ann.ID})
	require.NoError(t, err)
	require.ElementsMatch(t, []*store.Book{first, second}, byAuthor)

	byGenre, err := st.Books().Find(ctx, store.Filter{store.FieldGenre: "h"})
	require.NoError(t, err)
	require.Equal(t, []*store.Book{stray}, byGenre)

	none, err := st.Books().Find(ctx, store.Filter{store.FieldAuthorID: b.MissingID})
	require.NoError(t, err)
	require.Empty(t, none)

	authors, err := st.Authors().Find(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, []*store.Author{ann}, authors)
}

func testSave(ctx context.Context, t *testing.T, st store.Store, b Backend) {
	a := &store.Author{Name: store.String("Ann"), Age: store.Int32(40)}
	require.NoError(t, st.Authors().Create(ctx, a))

	a.Age = store.Int32(41)
	a.Name = nil
	require.NoError(t, st.Authors().Save(ctx, a))

	got, err := st.Authors().FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, &store.Author{ID: a.ID, Age: store.Int32(41)}, got)

	book := &store.Book{Name: "A", Genre: "g", AuthorID: a.ID}
	require.NoError(t, st.Books().Create(ctx, book))
	book.Name = "B"
	book.AuthorID = b.MissingID
	require.NoError(t, st.Books().Save(ctx, book))
	gotBook, err := st.Books().FindByID(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, book, gotBook)
}

func testSaveDeleted(ctx context.Context, t *testing.T, st store.Store, b Backend) {
	book := &store.Book{Name: "A", Genre: "g", AuthorID: "x"}
	require.NoError(t, st.Books().Create(ctx, book))
	_, err := st.Books().FindByIDAndDelete(ctx, book.ID)
	require.NoError(t, err)

	err = st.Books().Save(ctx, book)
	require.Error(t, err)
	require.True(t, xerrors.Is(err, store.ErrNotFound), "Save error = %v", err)

	all, err := st.Books().Find(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, all, "Save recreated a deleted document")
}

func testFindByIDAndDelete(ctx context.Context, t *testing.T, st store.Store, b Backend) {
	a := &store.Author{Name: store.String("Ann")}
	require.NoError(t, st.Authors().Create(ctx, a))
	book := &store.Book{Name: "A", Genre: "g", AuthorID: a.ID}
	require.NoError(t, st.Books().Create(ctx, book))

	deleted, err := st.Authors().FindByIDAndDelete(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a, deleted)

	got, err := st.Authors().FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	again, err := st.Authors().FindByIDAndDelete(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, again)

	// Deleting an author leaves its books in place.
	books, err := st.Books().Find(ctx, store.Filter{store.FieldAuthorID: a.ID})
	require.NoError(t, err)
	require.Equal(t, []*store.Book{book}, books)
}
