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
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"zombiezen.com/go/bookshelf/internal/store"
	"zombiezen.com/go/bookshelf/internal/store/storetest"
)

func TestFilterDoc(t *testing.T) {
	oid := primitive.NewObjectID()
	tests := []struct {
		name   string
		filter store.Filter
		want   bson.D
	}{
		{name: "Empty", filter: nil, want: bson.D{}},
		{
			name:   "AuthorID",
			filter: store.Filter{store.FieldAuthorID: "abc"},
			want:   bson.D{{Key: "authorId", Value: "abc"}},
		},
		{
			name:   "ObjectID",
			filter: store.Filter{store.FieldID: oid.Hex()},
			want:   bson.D{{Key: "_id", Value: oid}},
		},
		{
			name:   "MalformedID",
			filter: store.Filter{store.FieldID: "nope"},
			want:   bson.D{{Key: "_id", Value: "nope"}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, filterDoc(test.filter))
		})
	}
}

func TestDocs(t *testing.T) {
	oid := primitive.NewObjectID()

	book := &store.Book{Name: "A", Genre: "g", AuthorID: "x"}
	bd := newBookDoc(book, oid)
	require.Equal(t, oid, bd.ID)
	require.Equal(t, &store.Book{ID: oid.Hex(), Name: "A", Genre: "g", AuthorID: "x"}, bd.book())

	// Unset author fields are left out of the document.
	data, err := bson.Marshal(newAuthorDoc(&store.Author{}, oid))
	require.NoError(t, err)
	var raw bson.M
	require.NoError(t, bson.Unmarshal(data, &raw))
	require.Equal(t, bson.M{"_id": oid}, raw)

	var decoded authorDoc
	require.NoError(t, bson.Unmarshal(data, &decoded))
	require.Equal(t, &store.Author{ID: oid.Hex()}, decoded.author())

	full := &store.Author{Name: store.String("Ann"), Age: store.Int32(40)}
	data, err = bson.Marshal(newAuthorDoc(full, oid))
	require.NoError(t, err)
	decoded = authorDoc{}
	require.NoError(t, bson.Unmarshal(data, &decoded))
	require.Equal(t, &store.Author{ID: oid.Hex(), Name: store.String("Ann"), Age: store.Int32(40)}, decoded.author())
}

// dropOnClose deletes the test database before disconnecting.
type dropOnClose struct {
	*DB
	database string
}

func (d dropOnClose) Close(ctx context.Context) error {
	if err := d.client.Database(d.database).Drop(ctx); err != nil {
		d.DB.Close(ctx)
		return err
	}
	return d.DB.Close(ctx)
}

// TestStore runs against the deployment named by BOOKSHELF_TEST_MONGO_URI.
func TestStore(t *testing.T) {
	uri := os.Getenv("BOOKSHELF_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("BOOKSHELF_TEST_MONGO_URI not set")
	}
	storetest.Run(t, storetest.Backend{
		Open: func(t *testing.T) store.Store {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			name := fmt.Sprintf("bookshelf_test_%s", primitive.NewObjectID().Hex())
			db, err := Open(ctx, uri, name)
			require.NoError(t, err)
			return dropOnClose{DB: db, database: name}
		},
		MissingID:   "000000000000000000000000",
		MalformedID: "not-an-object-id",
	})
}
