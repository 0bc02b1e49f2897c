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

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	gqlgo "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"go.opencensus.io/trace"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
	"zombiezen.com/go/bookshelf/internal/gqlang"
	"zombiezen.com/go/bookshelf/internal/store"
)

// Server manages execution of GraphQL operations.
type Server struct {
	schema *gqlgo.Schema
}

// ServerOptions configures NewServer. A nil *ServerOptions is equivalent to
// the zero value.
type ServerOptions struct {
	// Logger receives resolver panics. If nil, panics are not logged, but are
	// still reported to the client as errors.
	Logger *zap.Logger
	// MaxParallelism bounds the number of fields resolved concurrently within
	// one request. Zero uses the engine default.
	MaxParallelism int
}

// NewServer returns a new server whose resolvers read and write st.
func NewServer(st store.Store, opts *ServerOptions) (*Server, error) {
	if st == nil {
		return nil, xerrors.New("new server: store is required")
	}
	if opts == nil {
		opts = new(ServerOptions)
	}
	schemaOpts := []gqlgo.SchemaOpt{
		gqlgo.Logger(panicLogger{opts.Logger}),
	}
	if opts.MaxParallelism > 0 {
		schemaOpts = append(schemaOpts, gqlgo.MaxParallelism(opts.MaxParallelism))
	}
	root := &rootResolver{
		Query:    &Query{st: st},
		Mutation: &Mutation{st: st},
	}
	schema, err := gqlgo.ParseSchema(SchemaSource, root, schemaOpts...)
	if err != nil {
		return nil, xerrors.Errorf("new server: %w", err)
	}
	return &Server{schema: schema}, nil
}

// rootResolver provides the fields of both root operation types.
type rootResolver struct {
	*Query
	*Mutation
}

// Execute runs a single GraphQL operation. It is safe to call Execute from
// multiple goroutines.
func (srv *Server) Execute(ctx context.Context, req Request) Response {
	ctx, span := trace.StartSpan(ctx, "bookshelf/graphql.Execute")
	defer span.End()
	if req.OperationName != "" {
		span.AddAttributes(trace.StringAttribute("operation", req.OperationName))
	}
	result := srv.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
	resp := Response{Data: result.Data}
	for _, e := range result.Errors {
		re := toResponseError(e)
		if len(re.Locations) == 0 && len(re.Path) > 0 {
			re.Locations = fieldLocations(req, re.Path)
		}
		resp.Errors = append(resp.Errors, re)
	}
	return resp
}

// fieldLocations finds the field in the request document that produced the
// value at path. The engine reports paths but not locations for errors
// returned by resolvers.
func fieldLocations(req Request, path []PathSegment) []Location {
	var keys []string
	for _, seg := range path {
		if seg.Field != "" {
			keys = append(keys, seg.Field)
		}
	}
	pos, ok := gqlang.FieldPos(req.Query, req.OperationName, keys)
	if !ok {
		return nil
	}
	line, col := gqlang.LineColumn(req.Query, pos)
	return []Location{{Line: line, Column: col}}
}

type panicLogger struct {
	log *zap.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	if l.log == nil {
		return
	}
	l.log.Error("panic while resolving field", zap.Any("panic", value), zap.Stack("stack"))
}

// Request holds the inputs for a GraphQL execution.
type Request struct {
	// Query is the GraphQL document text.
	Query string `json:"query"`
	// If OperationName is not empty, then the operation with the given name will
	// be executed. Otherwise, the query must only include a single operation.
	OperationName string `json:"operationName,omitempty"`
	// Variables specifies the values of the operation's variables.
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// Response holds the output of a GraphQL operation.
type Response struct {
	// Data is the JSON result tree. It is nil if the request failed before
	// execution started, like when the document is invalid.
	Data   json.RawMessage  `json:"data"`
	Errors []*ResponseError `json:"errors,omitempty"`
}

// MarshalJSON converts the response to JSON format.
func (resp Response) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	if len(resp.Data) > 0 {
		buf = append(buf, `"data":`...)
		buf = append(buf, resp.Data...)
		if len(resp.Errors) > 0 {
			buf = append(buf, ',')
		}
	}
	if len(resp.Errors) > 0 {
		buf = append(buf, `"errors":`...)
		errorsData, err := json.Marshal(resp.Errors)
		if err != nil {
			return buf, xerrors.Errorf("marshal response: %w", err)
		}
		buf = append(buf, errorsData...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// ResponseError describes an error that occurred during the processing of a
// GraphQL operation.
type ResponseError struct {
	Message string `json:"message"`
	// State is the state of the underlying error, if it reported one.
	State     string        `json:"state,omitempty"`
	Locations []Location    `json:"locations,omitempty"`
	Path      []PathSegment `json:"path,omitempty"`
}

// Error returns e.Message.
func (e *ResponseError) Error() string {
	return e.Message
}

// stater is implemented by errors that carry a client-visible state.
type stater interface {
	State() string
}

func toResponseError(e *gqlerrors.QueryError) *ResponseError {
	re := &ResponseError{Message: e.Message}
	for _, loc := range e.Locations {
		re.Locations = append(re.Locations, Location{Line: loc.Line, Column: loc.Column})
	}
	for _, seg := range e.Path {
		switch seg := seg.(type) {
		case string:
			re.Path = append(re.Path, PathSegment{Field: seg})
		case int:
			re.Path = append(re.Path, PathSegment{ListIndex: seg})
		}
	}
	var s stater
	if e.ResolverError != nil && xerrors.As(e.ResolverError, &s) {
		re.State = s.State()
	}
	return re
}

// Location identifies a position in a GraphQL document. Line and column
// are 1-based.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String returns the location in the form "line:col".
func (loc Location) String() string {
	return fmt.Sprintf("%d:%d", loc.Line, loc.Column)
}

// PathSegment identifies a field or array index in an output object.
type PathSegment struct {
	Field     string
	ListIndex int
}

// String returns the segment's index or field name as a string.
func (seg PathSegment) String() string {
	if seg.Field == "" {
		return strconv.Itoa(seg.ListIndex)
	}
	return seg.Field
}

// MarshalJSON converts the segment to a JSON integer or a JSON string.
func (seg PathSegment) MarshalJSON() ([]byte, error) {
	if seg.Field == "" {
		return strconv.AppendInt(nil, int64(seg.ListIndex), 10), nil
	}
	return json.Marshal(seg.Field)
}

// UnmarshalJSON converts JSON strings into field segments and JSON numbers into
// list index segments.
func (seg *PathSegment) UnmarshalJSON(data []byte) error {
	if !bytes.HasPrefix(data, []byte(`"`)) {
		i, err := json.Number(string(data)).Int64()
		if err != nil {
			return err
		}
		seg.ListIndex = int(i)
		return nil
	}
	err := json.Unmarshal(data, &seg.Field)
	return err
}
