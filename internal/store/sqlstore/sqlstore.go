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

// Package sqlstore implements store.Store on a SQLite database, one table per
// collection. Identifiers come from store.NewID.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/xerrors"
	"zombiezen.com/go/bookshelf/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// DB is a SQLite-backed store.Store.
type DB struct {
	db      *sql.DB
	books   *table[store.Book]
	authors *table[store.Author]
}

// Open creates or opens the SQLite database at path and ensures the tables
// exist.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, xerrors.Errorf("open sql store: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		schemaSQL,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, xerrors.Errorf("open sql store: %w", err)
		}
	}
	return &DB{
		db: db,
		books: &table[store.Book]{
			db:      db,
			name:    store.BooksCollection,
			columns: []string{"id", "name", "genre", "author_id"},
			fields: map[string]string{
				store.FieldID:       "id",
				store.FieldName:     "name",
				store.FieldGenre:    "genre",
				store.FieldAuthorID: "author_id",
			},
			id: func(b *store.Book) *string { return &b.ID },
			ptrs: func(b *store.Book) []interface{} {
				return []interface{}{&b.ID, &b.Name, &b.Genre, &b.AuthorID}
			},
			values: func(b *store.Book) []interface{} {
				return []interface{}{b.ID, b.Name, b.Genre, b.AuthorID}
			},
		},
		authors: &table[store.Author]{
			db:      db,
			name:    store.AuthorsCollection,
			columns: []string{"id", "name", "age"},
			fields: map[string]string{
				store.FieldID:   "id",
				store.FieldName: "name",
			},
			id: func(a *store.Author) *string { return &a.ID },
			ptrs: func(a *store.Author) []interface{} {
				return []interface{}{&a.ID, &a.Name, &a.Age}
			},
			values: func(a *store.Author) []interface{} {
				return []interface{}{a.ID, nullString(a.Name), nullInt32(a.Age)}
			},
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
		return xerrors.Errorf("close sql store: %w", err)
	}
	return nil
}

// table stores documents of type T in rows. columns[0] must be the identifier
// column, and ptrs and values must return one element per column.
type table[T any] struct {
	db      *sql.DB
	name    string
	columns []string
	fields  map[string]string
	id      func(*T) *string
	ptrs    func(*T) []interface{}
	values  func(*T) []interface{}
}

func (t *table[T]) FindByID(ctx context.Context, id string) (*T, error) {
	id, err := store.ParseID(t.name, id)
	if err != nil {
		return nil, err
	}
	doc, err := t.get(ctx, sq.StatementBuilder.RunWith(t.db), id)
	if err != nil {
		return nil, xerrors.Errorf("find %s %s: %w", t.name, id, err)
	}
	return doc, nil
}

func (t *table[T]) get(ctx context.Context, b sq.StatementBuilderType, id string) (*T, error) {
	doc := new(T)
	err := b.Select(t.columns...).
		From(t.name).
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(t.ptrs(doc)...)
	if xerrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (t *table[T]) Find(ctx context.Context, filter store.Filter) ([]*T, error) {
	where := sq.Eq{}
	for field, value := range filter {
		col, ok := t.fields[field]
		if !ok {
			return nil, xerrors.Errorf("find %s: unknown field %q", t.name, field)
		}
		where[col] = value
	}
	rows, err := sq.StatementBuilder.RunWith(t.db).
		Select(t.columns...).
		From(t.name).
		Where(where).
		OrderBy("id").
		QueryContext(ctx)
	if err != nil {
		return nil, xerrors.Errorf("find %s: %w", t.name, err)
	}
	defer rows.Close()
	var docs []*T
	for rows.Next() {
		doc := new(T)
		if err := rows.Scan(t.ptrs(doc)...); err != nil {
			return nil, xerrors.Errorf("find %s: %w", t.name, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Errorf("find %s: %w", t.name, err)
	}
	return docs, nil
}

func (t *table[T]) Create(ctx context.Context, doc *T) error {
	*t.id(doc) = store.NewID()
	_, err := sq.StatementBuilder.RunWith(t.db).
		Insert(t.name).
		Columns(t.columns...).
		Values(t.values(doc)...).
		ExecContext(ctx)
	if err != nil {
		return xerrors.Errorf("create %s: %w", t.name, err)
	}
	return nil
}

func (t *table[T]) Save(ctx context.Context, doc *T) error {
	id, err := store.ParseID(t.name, *t.id(doc))
	if err != nil {
		return err
	}
	set := make(map[string]interface{}, len(t.columns)-1)
	values := t.values(doc)
	for i, col := range t.columns[1:] {
		set[col] = values[i+1]
	}
	res, err := sq.StatementBuilder.RunWith(t.db).
		Update(t.name).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return xerrors.Errorf("save %s %s: %w", t.name, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return xerrors.Errorf("save %s %s: %w", t.name, id, err)
	}
	if n == 0 {
		return &store.NotFoundError{Collection: t.name, ID: id}
	}
	return nil
}

func (t *table[T]) FindByIDAndDelete(ctx context.Context, id string) (_ *T, err error) {
	id, err = store.ParseID(t.name, id)
	if err != nil {
		return nil, err
	}
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, xerrors.Errorf("delete %s %s: %w", t.name, id, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	b := sq.StatementBuilder.RunWith(tx)
	doc, err := t.get(ctx, b, id)
	if err != nil {
		return nil, xerrors.Errorf("delete %s %s: %w", t.name, id, err)
	}
	if doc == nil {
		return nil, tx.Commit()
	}
	if _, err := b.Delete(t.name).Where(sq.Eq{"id": id}).ExecContext(ctx); err != nil {
		return nil, xerrors.Errorf("delete %s %s: %w", t.name, id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, xerrors.Errorf("delete %s %s: %w", t.name, id, err)
	}
	return doc, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt32(i *int32) sql.NullInt32 {
	if i == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: *i, Valid: true}
}
