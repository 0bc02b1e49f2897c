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

package store

import (
	"context"
	"time"

	"go.opencensus.io/tag"
	"go.opencensus.io/trace"
	"zombiezen.com/go/bookshelf/internal/telemetry"
)

// Instrument returns a Store that traces and times every call to st.
func Instrument(st Store) Store {
	return &instrumented{
		Store:   st,
		books:   &instrumentedCollection[Book]{name: BooksCollection, c: st.Books()},
		authors: &instrumentedCollection[Author]{name: AuthorsCollection, c: st.Authors()},
	}
}

type instrumented struct {
	Store
	books   *instrumentedCollection[Book]
	authors *instrumentedCollection[Author]
}

func (st *instrumented) Books() Collection[Book]     { return st.books }
func (st *instrumented) Authors() Collection[Author] { return st.authors }

type instrumentedCollection[T any] struct {
	name string
	c    Collection[T]
}

func (ic *instrumentedCollection[T]) start(ctx context.Context, method string) (context.Context, func(error)) {
	ctx, span := trace.StartSpan(ctx, "bookshelf/store."+ic.name+"."+method)
	start := time.Now()
	return ctx, func(err error) {
		if err != nil {
			span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		}
		span.End()
		telemetry.Record(ctx, telemetry.StoreLatencyMs.M(telemetry.SinceMs(start)),
			tag.Upsert(telemetry.KeyCollection, ic.name),
			tag.Upsert(telemetry.KeyMethod, method),
			tag.Upsert(telemetry.KeyStatus, telemetry.Status(err)))
	}
}

func (ic *instrumentedCollection[T]) FindByID(ctx context.Context, id string) (_ *T, err error) {
	ctx, done := ic.start(ctx, "FindByID")
	defer func() { done(err) }()
	return ic.c.FindByID(ctx, id)
}

func (ic *instrumentedCollection[T]) Find(ctx context.Context, filter Filter) (_ []*T, err error) {
	ctx, done := ic.start(ctx, "Find")
	defer func() { done(err) }()
	return ic.c.Find(ctx, filter)
}

func (ic *instrumentedCollection[T]) Create(ctx context.Context, doc *T) (err error) {
	ctx, done := ic.start(ctx, "Create")
	defer func() { done(err) }()
	return ic.c.Create(ctx, doc)
}

func (ic *instrumentedCollection[T]) Save(ctx context.Context, doc *T) (err error) {
	ctx, done := ic.start(ctx, "Save")
	defer func() { done(err) }()
	return ic.c.Save(ctx, doc)
}

func (ic *instrumentedCollection[T]) FindByIDAndDelete(ctx context.Context, id string) (_ *T, err error) {
	ctx, done := ic.start(ctx, "FindByIDAndDelete")
	defer func() { done(err) }()
	return ic.c.FindByIDAndDelete(ctx, id)
}
