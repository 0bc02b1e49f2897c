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

package mongostore

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"zombiezen.com/go/bookshelf/internal/store"
)

type bookDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Name     string             `bson:"name"`
	Genre    string             `bson:"genre"`
	AuthorID string             `bson:"authorId"`
}

func newBookDoc(b *store.Book, id primitive.ObjectID) *bookDoc {
	return &bookDoc{
		ID:       id,
		Name:     b.Name,
		Genre:    b.Genre,
		AuthorID: b.AuthorID,
	}
}

func (d *bookDoc) book() *store.Book {
	return &store.Book{
		ID:       d.ID.Hex(),
		Name:     d.Name,
		Genre:    d.Genre,
		AuthorID: d.AuthorID,
	}
}

// authorDoc leaves unset fields out of the document, like a schemaless
// insert would.
type authorDoc struct {
	ID   primitive.ObjectID `bson:"_id"`
	Name *string            `bson:"name,omitempty"`
	Age  *int32             `bson:"age,omitempty"`
}

func newAuthorDoc(a *store.Author, id primitive.ObjectID) *authorDoc {
	return &authorDoc{
		ID:   id,
		Name: a.Name,
		Age:  a.Age,
	}
}

func (d *authorDoc) author() *store.Author {
	return &store.Author{
		ID:   d.ID.Hex(),
		Name: d.Name,
		Age:  d.Age,
	}
}
