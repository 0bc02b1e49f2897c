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

// SchemaSource is the GraphQL schema served by Server, in the GraphQL type
// system definition language.
const SchemaSource = `schema {
	query: Query
	mutation: Mutation
}

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

type Query {
	book(id: ID): Book
	author(id: ID): Author
	books: [Book]
	authors: [Author]
}

type Mutation {
	createAuthor(name: String, age: Int): Author
	updateAuthor(id: ID, name: String, age: Int): Author
	deleteAuthor(id: ID): Author
	createBook(name: String!, genre: String!, authorId: ID!): Book
	updateBook(id: ID, name: String!, genre: String!, authorId: ID!): Book
	deleteBook(id: ID): Book
}
`
