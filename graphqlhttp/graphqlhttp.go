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

// Package graphqlhttp provides functions for serving GraphQL over HTTP as
// described in https://graphql.org/learn/serving-over-http/.
package graphqlhttp

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opencensus.io/tag"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
	"zombiezen.com/go/bookshelf/graphql"
	"zombiezen.com/go/bookshelf/internal/gqlang"
	"zombiezen.com/go/bookshelf/internal/telemetry"
)

// allowedMethods is sent in the Allow header of 405 responses.
const allowedMethods = "GET, HEAD, POST, OPTIONS"

// Handler serves GraphQL HTTP requests by executing them on its server.
type Handler struct {
	server   *graphql.Server
	log      *zap.Logger
	graphiql bool
}

// HandlerOptions configures NewHandler. A nil *HandlerOptions is equivalent to
// the zero value.
type HandlerOptions struct {
	// Logger receives request failures. If nil, nothing is logged.
	Logger *zap.Logger
	// If GraphiQL is true, then browser GET requests without a query are
	// answered with an in-browser IDE.
	GraphiQL bool
}

// NewHandler returns a new handler that sends requests to the given server.
func NewHandler(server *graphql.Server, opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = new(HandlerOptions)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		server:   server,
		log:      log,
		graphiql: opts.GraphiQL,
	}
}

// ServeHTTP executes a GraphQL request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.graphiql && wantsGraphiQL(r) {
		serveGraphiQL(w, r)
		return
	}
	start := time.Now()
	gqlRequest, err := Parse(r)
	if err != nil {
		code := StatusCode(err)
		if code == http.StatusMethodNotAllowed {
			w.Header().Set("Allow", allowedMethods)
		}
		h.log.Debug("rejected graphql request",
			zap.String("method", r.Method),
			zap.Int("status", code),
			zap.Error(err))
		h.record(r, "invalid", err, start)
		http.Error(w, err.Error(), code)
		return
	}
	op := "unknown"
	if typ, err := gqlang.OperationTypeOf(gqlRequest.Query, gqlRequest.OperationName); err == nil {
		op = typ.String()
	}
	gqlResponse := h.server.Execute(r.Context(), gqlRequest)
	var execErr error
	if len(gqlResponse.Errors) > 0 {
		execErr = gqlResponse.Errors[0]
	}
	h.record(r, op, execErr, start)
	WriteResponse(w, gqlResponse)
}

func (h *Handler) record(r *http.Request, op string, err error, start time.Time) {
	mutators := []tag.Mutator{
		tag.Upsert(telemetry.KeyOperation, op),
		tag.Upsert(telemetry.KeyStatus, telemetry.Status(err)),
	}
	telemetry.Record(r.Context(), telemetry.HTTPRequests.M(1), mutators...)
	telemetry.Record(r.Context(), telemetry.HTTPLatencyMs.M(telemetry.SinceMs(start)), mutators...)
}

// Parse parses a GraphQL HTTP request. If an error is returned, StatusCode
// will return the proper HTTP status code to use.
//
// Request methods may be GET, HEAD, or POST. If the method is not one of these,
// then an error is returned that will make StatusCode return
// http.StatusMethodNotAllowed. GET and HEAD requests may only carry queries.
func Parse(r *http.Request) (graphql.Request, error) {
	request := graphql.Request{
		Query: r.URL.Query().Get("query"),
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if err := parseFormFields(r, &request); err != nil {
			return graphql.Request{}, err
		}
		typ, err := gqlang.OperationTypeOf(request.Query, request.OperationName)
		if err == nil && typ != gqlang.Query {
			return graphql.Request{}, &httpError{
				msg:  fmt.Sprintf("parse graphql request: %s operations must use POST", typ),
				code: http.StatusBadRequest,
			}
		}
	case http.MethodPost:
		rawContentType := r.Header.Get("Content-Type")
		contentType, _, err := mime.ParseMediaType(rawContentType)
		if err != nil {
			return graphql.Request{}, &httpError{
				msg:  "parse graphql request: invalid content type: " + rawContentType,
				code: http.StatusUnsupportedMediaType,
			}
		}
		switch contentType {
		case "application/json":
			if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
				return graphql.Request{}, &httpError{
					msg:   "parse graphql request: ",
					code:  http.StatusBadRequest,
					cause: err,
				}
			}
		case "application/x-www-form-urlencoded":
			request.Query = r.FormValue("query")
			if err := parseFormFields(r, &request); err != nil {
				return graphql.Request{}, err
			}
		case "application/graphql":
			data, err := io.ReadAll(r.Body)
			if err != nil {
				return graphql.Request{}, &httpError{
					msg:   "parse graphql request: ",
					code:  http.StatusBadRequest,
					cause: err,
				}
			}
			if len(data) > 0 {
				request.Query = string(data)
			}
		default:
			return graphql.Request{}, &httpError{
				msg:  "parse graphql request: unrecognized content type: " + contentType,
				code: http.StatusUnsupportedMediaType,
			}
		}
	default:
		return graphql.Request{}, &httpError{
			msg:  fmt.Sprintf("parse graphql request: method %s not allowed", r.Method),
			code: http.StatusMethodNotAllowed,
		}
	}
	if request.Query == "" {
		return graphql.Request{}, &httpError{
			msg:  "parse graphql request: missing query",
			code: http.StatusBadRequest,
		}
	}
	return request, nil
}

// parseFormFields fills in the variables and operation name from the URL
// query string or a form body.
func parseFormFields(r *http.Request, request *graphql.Request) error {
	if v := r.FormValue("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &request.Variables); err != nil {
			return &httpError{
				msg:   "parse graphql request: variables: ",
				code:  http.StatusBadRequest,
				cause: err,
			}
		}
	}
	request.OperationName = r.FormValue("operationName")
	return nil
}

type httpError struct {
	msg   string
	code  int
	cause error
}

func (e *httpError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + e.cause.Error()
}

func (e *httpError) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status code an error indicates.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var e *httpError
	if !xerrors.As(err, &e) {
		return http.StatusInternalServerError
	}
	return e.code
}

// WriteResponse writes a GraphQL result as an HTTP response.
func WriteResponse(w http.ResponseWriter, response graphql.Response) {
	payload, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "GraphQL marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	if _, err := w.Write(payload); err != nil {
		return
	}
}

// wantsGraphiQL reports whether r looks like a browser navigating to the
// endpoint.
func wantsGraphiQL(r *http.Request) bool {
	if r.Method != http.MethodGet || r.URL.Query().Get("query") != "" {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
