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

package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opencensus.io/plugin/ochttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
	"zombiezen.com/go/bookshelf/graphql"
	"zombiezen.com/go/bookshelf/graphqlhttp"
	"zombiezen.com/go/bookshelf/internal/config"
	"zombiezen.com/go/bookshelf/internal/store"
	"zombiezen.com/go/bookshelf/internal/store/badgerstore"
	"zombiezen.com/go/bookshelf/internal/store/mongostore"
	"zombiezen.com/go/bookshelf/internal/store/sqlstore"
	"zombiezen.com/go/bookshelf/internal/telemetry"
)

const metricsPath = "/debug/prometheus_metrics"

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the GraphQL API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, err := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	telemetry.SetTraceSampling(cfg.TraceRatio)
	exporter, err := telemetry.NewExporter(log)
	if err != nil {
		return err
	}
	defer exporter.Close()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Error("close store", zap.Error(err))
		}
	}()

	handler, err := newHandler(cfg, log, store.Instrument(st), exporter)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("path", cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !xerrors.Is(err, http.ErrServerClosed) {
			return xerrors.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return xerrors.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// newHandler builds the HTTP routes: the GraphQL endpoint, metrics, and a
// liveness check.
func newHandler(cfg *config.Config, log *zap.Logger, st store.Store, metrics http.Handler) (http.Handler, error) {
	gqlServer, err := graphql.NewServer(st, &graphql.ServerOptions{
		Logger:         log,
		MaxParallelism: cfg.MaxParallelism,
	})
	if err != nil {
		return nil, err
	}
	var gql http.Handler = graphqlhttp.NewHandler(gqlServer, &graphqlhttp.HandlerOptions{
		Logger:   log,
		GraphiQL: cfg.GraphiQL,
	})
	gql = graphqlhttp.CORS(cfg.CORSOrigins, graphqlhttp.Compress(gql))

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, gql)
	mux.Handle(metricsPath, metrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok\n")
	})
	traced := &ochttp.Handler{Handler: mux}
	return graphqlhttp.AccessLog(log, graphqlhttp.Recover(log, traced)), nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.Store {
	case config.StoreBadger:
		if cfg.BadgerDir == "" {
			log.Warn("badger.dir is empty; data will be lost on exit")
		}
		db, err := badgerstore.Open(badgerstore.Options{
			Dir:    cfg.BadgerDir,
			Logger: log.Named("badger"),
		})
		if err != nil {
			return nil, err
		}
		log.Info("opened badger store", zap.String("dir", cfg.BadgerDir))
		return db, nil
	case config.StoreMongo:
		db, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		log.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))
		return db, nil
	case config.StoreSQLite:
		db, err := sqlstore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("opened sqlite store", zap.String("path", cfg.SQLitePath))
		return db, nil
	default:
		return nil, xerrors.Errorf("open store: unknown backend %q", cfg.Store)
	}
}
