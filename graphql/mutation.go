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
	"golang.org/x/xerrors"
	"zombiezen.com/go/bookshelf/internal/store"
)

// Mutation resolves the fields of the Mutation root type.
type Mutation struct {
	st store.Store
}

// CreateAuthor stores a new author. Omitted arguments are left unset.
func (m *Mutation) CreateAuthor(ctx context.Context, args struct {
	Name *string
	Age  *int32
}) (*authorResolver, error) {
	a := &store.Author{Name: args.Name, Age: args.Age}
	if err := m.st.Authors().Create(ctx, a); err != nil {
		return nil, xerrors.Errorf("create author: %w", err)
	}
	return newAuthorResolver(m.st, a), nil
}

// UpdateAuthor overwrites the fields of an existing author. Arguments that are
// omitted keep their stored value; arguments that are explicitly null clear
// it.
func (m *Mutation) UpdateAuthor(ctx context.Context, args struct {
	ID   *gqlgo.ID
	Name gqlgo.NullString
	Age  gqlgo.NullInt
}) (*authorResolver, error) {
	var id string
	if args.ID != nil {
		id = string(*args.ID)
	}
	a, err := findForUpdate(ctx, m.st.Authors(), store.AuthorsCollection, id)
	if err != nil {
		return nil, xerrors.Errorf("update author: %w", err)
	}
	if args.Name.Set {
		a.Name = args.Name.Value
	}
	if args.Age.Set {
		a.Age = args.Age.Value
	}
	if err := m.st.Authors().Save(ctx, a); err != nil {
		return nil, xerrors.Errorf("update author: %w", err)
	}
	return newAuthorResolver(m.st, a), nil
}

// DeleteAuthor removes an author and returns it as it was. Books that refer
// to the author are left in place.
func (m *Mutation) DeleteAuthor(ctx context.Context, args idArgs) (*authorResolver, error) {
	if args.ID == nil {
		return nil, nil
	}
	a, err := m.st.Authors().FindByIDAndDelete(ctx, string(*args.ID))
	if err != nil {
		return nil, xerrors.Errorf("delete author: %w", err)
	}
	return newAuthorResolver(m.st, a), nil
}

type bookArgs struct {
	Name     string
	Genre    string
	AuthorID gqlgo.ID
}

// CreateBook stores a new book. The author reference is not checked.
func (m *Mutation) CreateBook(ctx context.Context, args bookArgs) (*bookResolver, error) {
	b := &store.Book{
		Name:     args.Name,
		Genre:    args.Genre,
		AuthorID: string(args.AuthorID),
	}
	if err := m.st.Books().Create(ctx, b); err != nil {
		return nil, xerrors.Errorf("create book: %w", err)
	}
	return newBookResolver(m.st, b), nil
}

// UpdateBook overwrites every field of an existing book.
func (m *Mutation) UpdateBook(ctx context.Context, args struct {
	ID       *gqlgo.ID
	Name     string
	Genre    string
	AuthorID gqlgo.ID
}) (*bookResolver, error) {
	var id string
	if args.ID != nil {
		id = string(*args.ID)
	}
	b, err := findForUpdate(ctx, m.st.Books(), store.BooksCollection, id)
	if err != nil {
		return nil, xerrors.Errorf("update book: %w", err)
	}
	b.Name = args.Name
	b.Genre = args.Genre
	b.AuthorID = string(args.AuthorID)
	if err := m.st.Books().Save(ctx, b); err != nil {
		return nil, xerrors.Errorf("update book: %w", err)
	}
	return newBookResolver(m.st, b), nil
}

// DeleteBook removes a book and returns it as it was.
func (m *Mutation) DeleteBook(ctx context.Context, args idArgs) (*bookResolver, error) {
	if args.ID == nil {
		return nil, nil
	}
	b, err := m.st.Books().FindByIDAndDelete(ctx, string(*args.ID))
	if err != nil {
		return nil, xerrors.Errorf("delete book: %w", err)
	}
	return newBookResolver(m.st, b), nil
}

// findForUpdate loads the document that an update mutation will modify. A
// missing document is an error.
func findForUpdate[T any](ctx context.Context, c store.Collection[T], collection, id string) (*T, error) {
	if id == "" {
		return nil, &store.NotFoundError{Collection: collection, ID: id}
	}
	doc, err := c.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &store.NotFoundError{Collection: collection, ID: id}
	}
	return doc, nil
}
