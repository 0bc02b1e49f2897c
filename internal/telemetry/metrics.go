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

package telemetry

import (
	"context"
	"net/http"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"go.opencensus.io/trace"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

// Measures.
var (
	HTTPRequests = stats.Int64("bookshelf/http/requests",
		"Number of GraphQL HTTP requests", stats.UnitDimensionless)
	HTTPLatencyMs = stats.Float64("bookshelf/http/latency",
		"Latency of GraphQL HTTP requests", stats.UnitMilliseconds)
	StoreLatencyMs = stats.Float64("bookshelf/store/latency",
		"Latency of document store calls", stats.UnitMilliseconds)
)

// Tag keys.
var (
	KeyOperation  = tag.MustNewKey("operation")
	KeyStatus     = tag.MustNewKey("status")
	KeyCollection = tag.MustNewKey("collection")
	KeyMethod     = tag.MustNewKey("method")
)

// Status tag values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var latencyDistribution = view.Distribution(
	0, 0.1, 0.5, 1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000)

// Views lists every view recorded by the bookshelf server.
var Views = []*view.View{
	{
		Name:        HTTPRequests.Name(),
		Measure:     HTTPRequests,
		Description: HTTPRequests.Description(),
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{KeyOperation, KeyStatus},
	},
	{
		Name:        HTTPLatencyMs.Name(),
		Measure:     HTTPLatencyMs,
		Description: HTTPLatencyMs.Description(),
		Aggregation: latencyDistribution,
		TagKeys:     []tag.Key{KeyOperation, KeyStatus},
	},
	{
		Name:        StoreLatencyMs.Name(),
		Measure:     StoreLatencyMs,
		Description: StoreLatencyMs.Description(),
		Aggregation: latencyDistribution,
		TagKeys:     []tag.Key{KeyCollection, KeyMethod, KeyStatus},
	},
}

// Exporter serves the recorded views in the Prometheus text format.
type Exporter struct {
	pe *prometheus.Exporter
}

// NewExporter registers Views and returns an exporter backed by a fresh
// Prometheus registry that also carries the Go runtime and process
// collectors. Call Close to unregister the views.
func NewExporter(log *zap.Logger) (*Exporter, error) {
	if err := view.Register(Views...); err != nil {
		return nil, xerrors.Errorf("register views: %w", err)
	}
	reg := prom.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pe, err := prometheus.NewExporter(prometheus.Options{
		Registry: reg,
		OnError: func(err error) {
			log.Error("prometheus export", zap.Error(err))
		},
	})
	if err != nil {
		view.Unregister(Views...)
		return nil, xerrors.Errorf("create prometheus exporter: %w", err)
	}
	view.RegisterExporter(pe)
	return &Exporter{pe: pe}, nil
}

// ServeHTTP writes the current metrics.
func (e *Exporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.pe.ServeHTTP(w, r)
}

// Close stops exporting views.
func (e *Exporter) Close() {
	view.UnregisterExporter(e.pe)
	view.Unregister(Views...)
}

// SetTraceSampling configures the probability with which new traces are
// sampled.
func SetTraceSampling(ratio float64) {
	trace.ApplyConfig(trace.Config{DefaultSampler: trace.ProbabilitySampler(ratio)})
}

// Record records a measurement tagged with mutators. Tagging failures are
// ignored since they can only come from malformed tag values.
func Record(ctx context.Context, m stats.Measurement, mutators ...tag.Mutator) {
	_ = stats.RecordWithTags(ctx, mutators, m)
}

// SinceMs returns the time since start in milliseconds.
func SinceMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

// Status returns StatusError if err is not nil and StatusOK otherwise.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
