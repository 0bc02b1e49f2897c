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

// Package badgerstore implements store.Store on an embedded Badger database.
// Documents are stored as JSON under the key "<collection>/<id>". Identifiers
// come from store.NewID, so iteration order is roughly creation order.
package badgerstore

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
	"zombiezen.com/go/bookshelf/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures Open.
type Options struct {
	// Dir is the database directory. If empty, the database is kept in memory
	// and discarded on Close.
	Dir string
	// Logger receives Badger's internal log output. If nil, it is discarded.
	Logger *zap.Logger
}

// DB is a Badger-backed store.Store.
type DB struct {
	db      *badger.DB
	books   *collection[store.Book]
	authors *collection[store.Author]
}

// Open opens or creates a database.
func Open(opts Options) (*DB, error) {
	bopts := badger.DefaultOptions(opts.Dir)
	if opts.Dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	if opts.Logger != nil {
		bopts = bopts.WithLogger(zapLogger{opts.Logger.Sugar()})
	} else {
		bopts = bopts.WithLogger(nil)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, xerrors.Errorf("open badger store: %w", err)
	}
	return &DB{
		db: db,
		books: &collection[store.Book]{
			db:    db,
			name:  store.BooksCollection,
			getID: func(b *store.Book) *string { return &b.ID },
		},
		authors: &collection[store.Author]{
			db:    db,
			name:  store.AuthorsCollection,
			getID: func(a *store.Author) *string { return &a.ID },
		},
	}, nil
}

// Books returns the books collection.
func (db *DB) Books() store.Collection[store.Book] { return db.books }

// Authors returns the authors collection.
func (db *DB) Authors() store.Collection[store.Author] { return db.authors }

// Close closes the database.
func (db *DB) Close(ctx context.Context) error {
	if err := db.db.Close(); err != nil {
		return xerrors.Errorf("close badger store: %w", err)
	}
	return nil
}

type collection[T any] struct {
	db    *badger.DB
	name  string
	getID func(*T) *string
}

func (c *collection[T]) prefix() []byte {
	return []byte(c.name + "/")
}

// key returns the key for id, rejecting identifiers that Create could not
// have assigned.
func (c *collection[T]) key(id string) ([]byte, error) {
	id, err := store.ParseID(c.name, id)
	if err != nil {
		return nil, err
	}
	return append(c.prefix(), id...), nil
}

func (c *collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	k, err := c.key(id)
	if err != nil {
		return nil, err
	}
	var doc *T
	err = c.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = c.get(txn, k)
		return err
	})
	if err != nil {
		return nil, xerrors.Errorf("find %s %s: %w", c.name, id, err)
	}
	return doc, nil
}

// get reads and decodes the document at k, returning nil if it is absent.
func (c *collection[T]) get(txn *badger.Txn, k []byte) (*T, error) {
	item, err := txn.Get(k)
	if xerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	doc := new(T)
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, xerrors.Errorf("decode %s: %w", k, err)
	}
	return doc, nil
}

func (c *collection[T]) Find(ctx context.Context, filter store.Filter) ([]*T, error) {
	var docs []*T
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := c.prefix()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			if !matches(data, filter) {
				continue
			}
			doc := new(T)
			if err := json.Unmarshal(data, doc); err != nil {
				return xerrors.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("find %s: %w", c.name, err)
	}
	return docs, nil
}

// matches reports whether every filter field of the JSON document equals the
// filter value. Fields are read lazily without decoding the whole document.
func matches(data []byte, filter store.Filter) bool {
	for field, want := range filter {
		v := json.Get(data, field)
		if v.LastError() != nil || v.ValueType() != jsoniter.StringValue {
			return false
		}
		if v.ToString() != want {
			return false
		}
	}
	return true
}

func (c *collection[T]) Create(ctx context.Context, doc *T) error {
	id := store.NewID()
	*c.getID(doc) = id
	data, err := json.Marshal(doc)
	if err != nil {
		return xerrors.Errorf("create %s: %w", c.name, err)
	}
	k := append(c.prefix(), id...)
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, data)
	})
	if err != nil {
		return xerrors.Errorf("create %s: %w", c.name, err)
	}
	return nil
}

func (c *collection[T]) Save(ctx context.Context, doc *T) error {
	id := *c.getID(doc)
	k, err := c.key(id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return xerrors.Errorf("save %s %s: %w", c.name, id, err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(k); xerrors.Is(err, badger.ErrKeyNotFound) {
			return &store.NotFoundError{Collection: c.name, ID: id}
		} else if err != nil {
			return err
		}
		return txn.Set(k, data)
	})
	if err != nil {
		return xerrors.Errorf("save %s %s: %w", c.name, id, err)
	}
	return nil
}

func (c *collection[T]) FindByIDAndDelete(ctx context.Context, id string) (*T, error) {
	k, err := c.key(id)
	if err != nil {
		return nil, err
	}
	var doc *T
	err = c.db.Update(func(txn *badger.Txn) error {
		var err error
		doc, err = c.get(txn, k)
		if err != nil || doc == nil {
			return err
		}
		return txn.Delete(k)
	})
	if err != nil {
		return nil, xerrors.Errorf("delete %s %s: %w", c.name, id, err)
	}
	return doc, nil
}

// zapLogger adapts a zap logger to badger.Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l zapLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l zapLogger) Infof(format string, args ...interface{})    { l.s.Infof(format, args...) }
func (l zapLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }
