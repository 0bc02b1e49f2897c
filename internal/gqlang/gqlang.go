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

// Package gqlang inspects GraphQL documents without fully parsing them.
// Validation is left to the execution engine; this package only answers
// questions that must be decided before a document is executed, like whether
// an HTTP GET request is trying to run a mutation.
package gqlang

import (
	"fmt"

	"golang.org/x/xerrors"
)

// OperationType is one of query, mutation, or subscription.
type OperationType int

// Types of operation.
const (
	Query OperationType = iota
	Mutation
	Subscription
)

// String returns the keyword that corresponds to the operation type.
func (typ OperationType) String() string {
	switch typ {
	case Query:
		return "query"
	case Mutation:
		return "mutation"
	case Subscription:
		return "subscription"
	default:
		return fmt.Sprintf("OperationType(%d)", int(typ))
	}
}

var operationKeywords = map[string]OperationType{
	"query":        Query,
	"mutation":     Mutation,
	"subscription": Subscription,
}

// Operation is an operation definition found in a document.
type Operation struct {
	Type OperationType
	// Name is empty for anonymous operations.
	Name  string
	Start Pos
}

// Operations lists the operation definitions at the top level of a document
// in the order they appear. Fragment and type definitions are skipped.
func Operations(doc string) []Operation {
	var ops []Operation
	depth, parens := 0, 0
	// pending is set between a definition keyword and its opening brace, so
	// that brace is not mistaken for a shorthand query.
	pending := false
	toks := lex(doc)
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch tok.kind {
		case lparen:
			parens++
		case rparen:
			if parens > 0 {
				parens--
			}
		case lbrace:
			if parens > 0 {
				// Input object value inside variable definitions.
				continue
			}
			if depth == 0 && !pending {
				ops = append(ops, Operation{Type: Query, Start: tok.start})
			}
			pending = false
			depth++
		case rbrace:
			if parens == 0 && depth > 0 {
				depth--
			}
		case name:
			if depth > 0 || pending {
				continue
			}
			if tok.source == "fragment" {
				pending = true
				continue
			}
			typ, ok := operationKeywords[tok.source]
			if !ok {
				continue
			}
			op := Operation{Type: typ, Start: tok.start}
			if i+1 < len(toks) && toks[i+1].kind == name {
				i++
				op.Name = toks[i].source
			}
			ops = append(ops, op)
			pending = true
		}
	}
	return ops
}

// OperationTypeOf returns the type of the operation that a request with the
// given operation name would execute. It follows the same selection rules as
// execution: an empty name is only permitted if the document has exactly one
// operation.
func OperationTypeOf(doc, operationName string) (OperationType, error) {
	op, err := selectOperation(Operations(doc), operationName)
	if err != nil {
		return 0, err
	}
	return op.Type, nil
}

func selectOperation(ops []Operation, operationName string) (Operation, error) {
	if operationName != "" {
		for _, op := range ops {
			if op.Name == operationName {
				return op, nil
			}
		}
		return Operation{}, xerrors.Errorf("no such operation %q", operationName)
	}
	switch len(ops) {
	case 0:
		return Operation{}, xerrors.New("document contains no operations")
	case 1:
		return ops[0], nil
	default:
		return Operation{}, xerrors.New("multiple operations; must specify operation name")
	}
}
