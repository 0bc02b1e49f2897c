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

// Package mongostore implements store.Store on MongoDB. Identifiers are
// hex-encoded ObjectIDs stored in each document's _id field.
package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/xerrors"
	"zombiezen.com/go/bookshelf/internal/store"
)

// DB is a MongoDB-backed store.Store.
type DB struct {
	client  *mongo.Client
	books   *collection[store.Book, bookDoc]
	authors *collection[store.Author, authorDoc]
}

// Open connects to the MongoDB deployment at uri and uses the named database.
// The connection pool is shared by all callers until Close.
func Open(ctx context.Context, uri, database string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, xerrors.Errorf("open mongo store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, xerrors.Errorf("open mongo store: %w", err)
	}
	db := client.Database(database)
	return &DB{
		client: client,
		books: &collection[store.Book, bookDoc]{
			coll:    db.Collection(store.BooksCollection),
			name:    store.BooksCollection,
			getID:   func(b *store.Book) string { return b.ID },
			toDoc:   newBookDoc,
			fromDoc: (*bookDoc).book,
		},
		authors: &collection[store.Author, authorDoc]{
			coll:    db.Collection(store.AuthorsCollection),
			name:    store.AuthorsCollection,
			getID:   func(a *store.Author) string { return a.ID },
			toDoc:   newAuthorDoc,
			fromDoc: (*authorDoc).author,
		},
	}, nil
}

// Books returns the books collection.
func (db *DB) Books() store.Collection[store.Book] { return db.books }

// Authors returns the authors collection.
func (db *DB) Authors() store.Collection[store.Author] { return db.authors }

// Close disconnects from the deployment.
func (db *DB) Close(ctx context.Context) error {
	if err := db.client.Disconnect(ctx); err != nil {
		return xerrors.Errorf("close mongo store: %w", err)
	}
	return nil
}

// collection maps between the store type T and its BSON document type D.
type collection[T, D any] struct {
	coll    *mongo.Collection
	name    string
	getID   func(*T) string
	toDoc   func(*T, primitive.ObjectID) *D
	fromDoc func(*D) *T
}

func (c *collection[T, D]) objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, &store.InvalidIDError{Collection: c.name, ID: id, Err: err}
	}
	return oid, nil
}

func (c *collection[T, D]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := c.objectID(id)
	if err != nil {
		return nil, err
	}
	doc := new(D)
	err = c.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(doc)
	if xerrors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("find %s %s: %w", c.name, id, err)
	}
	return c.fromDoc(doc), nil
}

func (c *collection[T, D]) Find(ctx context.Context, filter store.Filter) ([]*T, error) {
	cur, err := c.coll.Find(ctx, filterDoc(filter))
	if err != nil {
		return nil, xerrors.Errorf("find %s: %w", c.name, err)
	}
	var docs []*D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, xerrors.Errorf("find %s: %w", c.name, err)
	}
	result := make([]*T, 0, len(docs))
	for _, d := range docs {
		result = append(result, c.fromDoc(d))
	}
	return result, nil
}

// filterDoc converts a store filter to a query document. The document field
// names are shared with the store, except for the identifier.
func filterDoc(filter store.Filter) bson.D {
	d := bson.D{}
	for field, value := range filter {
		if field == store.FieldID {
			if oid, err := primitive.ObjectIDFromHex(value); err == nil {
				d = append(d, bson.E{Key: "_id", Value: oid})
				continue
			}
			field = "_id"
		}
		d = append(d, bson.E{Key: field, Value: value})
	}
	return d
}

func (c *collection[T, D]) Create(ctx context.Context, doc *T) error {
	oid := primitive.NewObjectID()
	if _, err := c.coll.InsertOne(ctx, c.toDoc(doc, oid)); err != nil {
		return xerrors.Errorf("create %s: %w", c.name, err)
	}
	*doc = *c.fromDoc(c.toDoc(doc, oid))
	return nil
}

func (c *collection[T, D]) Save(ctx context.Context, doc *T) error {
	id := c.getID(doc)
	oid, err := c.objectID(id)
	if err != nil {
		return err
	}
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": oid}, c.toDoc(doc, oid))
	if err != nil {
		return xerrors.Errorf("save %s %s: %w", c.name, id, err)
	}
	if res.MatchedCount == 0 {
		return &store.NotFoundError{Collection: c.name, ID: id}
	}
	return nil
}

func (c *collection[T, D]) FindByIDAndDelete(ctx context.Context, id string) (*T, error) {
	oid, err := c.objectID(id)
	if err != nil {
		return nil, err
	}
	doc := new(D)
	err = c.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(doc)
	if xerrors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("delete %s %s: %w", c.name, id, err)
	}
	return c.fromDoc(doc), nil
}
