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

package graphql_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"zombiezen.com/go/bookshelf/graphql"
	"zombiezen.com/go/bookshelf/internal/store/badgerstore"
)

func Example() {
	ctx := context.Background()

	// A *graphql.Server resolves fields against a store. Here we use an
	// in-memory database.
	db, err := badgerstore.Open(badgerstore.Options{})
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close(ctx)
	server, err := graphql.NewServer(db, nil)
	if err != nil {
		log.Fatal(err)
	}

	// Once created, a *graphql.Server can execute requests.
	response := server.Execute(ctx, graphql.Request{
		Query: `
			mutation($name: String) {
				createAuthor(name: $name, age: 88) {
					name
					age
					books { name }
				}
			}
		`,
		Variables: map[string]interface{}{
			"name": "Ursula",
		},
	})
	if len(response.Errors) > 0 {
		log.Fatal(response.Errors)
	}
	fmt.Println(string(response.Data))
	// Output:
	// {"createAuthor":{"name":"Ursula","age":88,"books":[]}}
}

// GraphQL requests and response can be converted to JSON using the
// standard encoding/json package.
func Example_json() {
	ctx := context.Background()
	db, err := badgerstore.Open(badgerstore.Options{})
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close(ctx)
	server, err := graphql.NewServer(db, nil)
	if err != nil {
		log.Fatal(err)
	}

	// Use json.Unmarshal to parse a GraphQL request from JSON.
	var request graphql.Request
	err = json.Unmarshal([]byte(`{
		"query": "query($id: ID) { book(id: $id) { name } }",
		"variables": {"id": "not-an-id"}
	}`), &request)
	if err != nil {
		log.Fatal(err)
	}

	// Use json.Marshal to serialize a GraphQL server response to JSON.
	response := server.Execute(ctx, request)
	for _, e := range response.Errors {
		fmt.Println(e.State)
	}
	responseJSON, err := json.Marshal(response.Data)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(responseJSON))
	// Output:
	// INVALID_ID
	// {"book":null}
}
