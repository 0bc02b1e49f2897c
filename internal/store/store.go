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

// Package store defines the document storage capabilities that the bookshelf
// GraphQL resolvers depend on. Concrete backends live in subpackages.
package store

import (
	"context"
)

// Collection names.
const (
	BooksCollection   = "books"
	AuthorsCollection = "authors"
)

// Document field names usable as Filter keys.
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldGenre    = "genre"
	FieldAuthorID = "authorId"
)

// Book is a stored book. AuthorID refers to an Author by identifier but is
// never checked against the authors collection.
type Book struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Genre    string `json:"genre"`
	AuthorID string `json:"authorId"`
}

// Author is a stored author. Name and Age are optional and nil when unset.
type Author struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
	Age  *int32  `json:"age"`
}

// Filter selects documents whose fields equal the given values. Keys are
// document field names such as FieldAuthorID. Only text fields can be
// filtered on. An empty filter matches every document in a collection.
type Filter map[string]string

// A Collection stores documents of a single type. Implementations must be
// safe to call from multiple goroutines.
type Collection[T any] interface {
	// FindByID returns the document with the given identifier or nil if no
	// such document exists. An identifier that the backend could never have
	// assigned results in an *InvalidIDError.
	FindByID(ctx context.Context, id string) (*T, error)

	// Find returns all documents matching the filter. The order of the
	// documents is backend-specific.
	Find(ctx context.Context, filter Filter) ([]*T, error)

	// Create inserts a new document, assigning its identifier.
	Create(ctx context.Context, doc *T) error

	// Save replaces the stored document having doc's identifier. If the
	// document no longer exists, Save returns a *NotFoundError.
	Save(ctx context.Context, doc *T) error

	// FindByIDAndDelete removes the document with the given identifier and
	// returns it. It returns nil if no such document exists.
	FindByIDAndDelete(ctx context.Context, id string) (*T, error)
}

// Store is a handle to the database holding both collections. A Store is
// opened once per process and shared by all requests.
type Store interface {
	Books() Collection[Book]
	Authors() Collection[Author]
	Close(ctx context.Context) error
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// Int32 returns a pointer to i.
func Int32(i int32) *int32 {
	return &i
}
