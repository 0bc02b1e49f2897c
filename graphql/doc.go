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

/*
Package graphql provides the bookshelf GraphQL schema and a server that
executes operations against it. During execution, each field a client selects
is turned into a single call on a store.Store.

For serving the schema over HTTP, see the graphqlhttp package in this module.

Schema

The schema declares two object types, Book and Author, which refer to each
other:

	type Book {
		id: ID
		name: String
		genre: String
		author: Author
	}

	type Author {
		id: ID
		name: String
		age: Int
		books: [Book]
	}

Book.author looks up the Author whose identifier equals the book's stored
author reference, or null if there is none. Author.books lists every Book that
refers to the author. Both relation fields are only evaluated when selected.

Errors

Field errors are reported in Response.Errors with the location and path of the
failing field. If any error in the chain returned by a resolver has a method

	State() string

then its result is reported as the error's state.
*/
package graphql
