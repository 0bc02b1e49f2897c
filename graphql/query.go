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

// Query resolves the fields of the Query root type.
type Query struct {
	st store.Store
}

type idArgs struct {
	ID *gqlgo.ID
}

// Book returns the book with the given identifier or null if there is none.
func (q *Query) Book(ctx context.Context, args idArgs) (*bookResolver, error) {
	if args.ID == nil {
		return nil, nil
	}
	b, err := q.st.Books().FindByID(ctx, string(*args.ID))
	if err != nil {
		return nil, xerrors.Errorf("book: %w", err)
	}
	return newBookResolver(q.st, b), nil
}

// Author returns the author with the given identifier or null if there is
// none.
func (q *Query) Author(ctx context.Context, args idArgs) (*authorResolver, error) {
	if args.ID == nil {
		return nil, nil
	}
	a, err := q.st.Authors().FindByID(ctx, string(*args.ID))
	if err != nil {
		return nil, xerrors.Errorf("author: %w", err)
	}
	return newAuthorResolver(q.st, a), nil
}

// Books returns every stored book.
func (q *Query) Books(ctx context.Context) (*[]*bookResolver, error) {
	books, err := q.st.Books().Find(ctx, nil)
	if err != nil {
		return nil, xerrors.Errorf("books: %w", err)
	}
	return newBookList(q.st, books), nil
}

// Authors returns every stored author.
func (q *Query) Authors(ctx context.Context) (*[]*authorResolver, error) {
	authors, err := q.st.Authors().Find(ctx, nil)
	if err != nil {
		return nil, xerrors.Errorf("authors: %w", err)
	}
	return newAuthorList(q.st, authors), nil
}
