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

	gqlgo "github.com/graph-gophers/graphql-go"
	"github.com/samber/lo"
	"golang.org/x/xerrors"
	"zombiezen.com/go/bookshelf/internal/store"
)

// bookResolver resolves the fields of a Book object.
type bookResolver struct {
	st   store.Store
	book *store.Book
}

func newBookResolver(st store.Store, b *store.Book) *bookResolver {
	if b == nil {
		return nil
	}
	return &bookResolver{st: st, book: b}
}

func newBookList(st store.Store, books []*store.Book) *[]*bookResolver {
	list := lo.Map(books, func(b *store.Book, _ int) *bookResolver {
		return newBookResolver(st, b)
	})
	return &list
}

func (r *bookResolver) ID() *gqlgo.ID {
	id := gqlgo.ID(r.book.ID)
	return &id
}

func (r *bookResolver) Name() *string {
	return &r.book.Name
}

func (r *bookResolver) Genre() *string {
	return &r.book.Genre
}

// Author returns the book's author. A reference that is malformed or dangling
// resolves to null. Unlike the top-level author query, a malformed identifier
// is not an error here: it was stored unchecked and cannot name any author.
func (r *bookResolver) Author(ctx context.Context) (*authorResolver, error) {
	a, err := r.st.Authors().FindByID(ctx, r.book.AuthorID)
	if store.IsInvalidID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("author of book %s: %w", r.book.ID, err)
	}
	return newAuthorResolver(r.st, a), nil
}

// authorResolver resolves the fields of an Author object.
type authorResolver struct {
	st     store.Store
	author *store.Author
}

func newAuthorResolver(st store.Store, a *store.Author) *authorResolver {
	if a == nil {
		return nil
	}
	return &authorResolver{st: st, author: a}
}

func newAuthorList(st store.Store, authors []*store.Author) *[]*authorResolver {
	list := lo.Map(authors, func(a *store.Author, _ int) *authorResolver {
		return newAuthorResolver(st, a)
	})
	return &list
}

func (r *authorResolver) ID() *gqlgo.ID {
	id := gqlgo.ID(r.author.ID)
	return &id
}

func (r *authorResolver) Name() *string {
	return r.author.Name
}

func (r *authorResolver) Age() *int32 {
	return r.author.Age
}

// Books returns every book that refers to the author.
func (r *authorResolver) Books(ctx context.Context) (*[]*bookResolver, error) {
	books, err := r.st.Books().Find(ctx, store.Filter{store.FieldAuthorID: r.author.ID})
	if err != nil {
		return nil, xerrors.Errorf("books of author %s: %w", r.author.ID, err)
	}
	return newBookList(r.st, books), nil
}
