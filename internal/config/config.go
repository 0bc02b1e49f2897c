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

// Package config loads the bookshelf server configuration from flags,
// environment variables, and an optional config file, in that order of
// precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"
	"zombiezen.com/go/bookshelf/internal/telemetry"
)

// EnvPrefix prefixes every environment variable that sets a key. Dots in keys
// become underscores, so badger.dir is read from BOOKSHELF_BADGER_DIR.
const EnvPrefix = "BOOKSHELF"

// Store backends.
const (
	StoreBadger = "badger"
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

// Config is the server configuration.
type Config struct {
	Addr            string
	Path            string
	GraphiQL        bool
	CORSOrigins     []string
	Store           string
	BadgerDir       string
	MongoURI        string
	MongoDatabase   string
	SQLitePath      string
	MaxParallelism  int
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
	TraceRatio      float64
}

// ConfigFlag names the flag that points at a config file.
const ConfigFlag = "config"

// RegisterFlags adds a flag for every configuration key to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("addr", defaultAddr(os.Getenv), "Address to listen on. Defaults to :$PORT when PORT is set.")
	fs.String("path", "/graphql", "URL path of the GraphQL endpoint.")
	fs.Bool("graphiql", true, "Serve GraphiQL to browsers that visit the endpoint.")
	fs.StringSlice("cors_origins", []string{"*"}, "Origins allowed to make cross-origin requests.")
	fs.String("store", StoreBadger, "Document store backend, one of [badger, mongo, sqlite].")
	fs.String("badger.dir", "", "Badger data directory. Empty keeps data in memory.")
	fs.String("mongo.uri", "mongodb://localhost:27017", "MongoDB connection string.")
	fs.String("mongo.database", "bookshelf", "MongoDB database name.")
	fs.String("sqlite.path", "bookshelf.db", "SQLite database file.")
	fs.Int("max_parallelism", 10, "Maximum number of fields resolved concurrently per request.")
	fs.Duration("shutdown_timeout", 10*time.Second, "Time allowed for in-flight requests on shutdown.")
	fs.String("log.level", "info", "Log level, one of [debug, info, warn, error].")
	fs.String("log.format", telemetry.FormatJSON, "Log format, one of [json, console].")
	fs.Float64("trace.ratio", 0.01, "Fraction of requests to trace.")
}

func defaultAddr(getenv func(string) string) string {
	if port := getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":4000"
}

// Load reads the configuration. fs must hold the flags added by RegisterFlags
// and may hold a string flag named ConfigFlag.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, xerrors.Errorf("load config: %w", err)
	}
	if path := v.GetString(ConfigFlag); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, xerrors.Errorf("load config: read %s: %w", path, err)
		}
	}
	cfg := &Config{
		Addr:            v.GetString("addr"),
		Path:            v.GetString("path"),
		GraphiQL:        v.GetBool("graphiql"),
		CORSOrigins:     splitList(v.GetStringSlice("cors_origins")),
		Store:           v.GetString("store"),
		BadgerDir:       v.GetString("badger.dir"),
		MongoURI:        v.GetString("mongo.uri"),
		MongoDatabase:   v.GetString("mongo.database"),
		SQLitePath:      v.GetString("sqlite.path"),
		MaxParallelism:  v.GetInt("max_parallelism"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		LogLevel:        v.GetString("log.level"),
		LogFormat:       v.GetString("log.format"),
		TraceRatio:      v.GetFloat64("trace.ratio"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, xerrors.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Validate reports the first invalid value in cfg.
func (cfg *Config) Validate() error {
	switch cfg.Store {
	case StoreBadger, StoreMongo, StoreSQLite:
	default:
		return xerrors.Errorf("unknown store %q", cfg.Store)
	}
	switch cfg.LogFormat {
	case telemetry.FormatJSON, telemetry.FormatConsole:
	default:
		return xerrors.Errorf("unknown log format %q", cfg.LogFormat)
	}
	if cfg.Addr == "" {
		return xerrors.New("addr is empty")
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return xerrors.Errorf("path %q does not start with a slash", cfg.Path)
	}
	if cfg.MaxParallelism < 0 {
		return xerrors.Errorf("max_parallelism is negative (%d)", cfg.MaxParallelism)
	}
	if cfg.ShutdownTimeout < 0 {
		return xerrors.Errorf("shutdown_timeout is negative (%v)", cfg.ShutdownTimeout)
	}
	if cfg.TraceRatio < 0 || cfg.TraceRatio > 1 {
		return xerrors.Errorf("trace.ratio %v is outside [0, 1]", cfg.TraceRatio)
	}
	return nil
}

// splitList accepts both repeated values and comma-separated values, since
// environment variables can only carry the latter.
func splitList(list []string) []string {
	var out []string
	for _, item := range list {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
