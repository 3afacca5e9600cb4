// Package config loads the CLI/embedder-facing defaults for a Bash instance
// from the process environment, for the `cmd/vbash` CLI. Library embedders
// normally configure a Bash instance entirely through shell.Option values;
// this package exists for the standalone CLI binary only.
package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LimitsEnv seeds internal/limits.Config for the CLI binary.
type LimitsEnv struct {
	MaxCommandCount  int64 `envconfig:"MAX_COMMAND_COUNT" default:"200000"`
	MaxCallDepth     int   `envconfig:"MAX_CALL_DEPTH" default:"256"`
	MaxAwkIterations int64 `envconfig:"MAX_AWK_ITERATIONS" default:"5000000"`
	SQLiteTimeoutMS  int   `envconfig:"SQLITE_TIMEOUT_MS" default:"5000"`
}

// NetworkEnv seeds internal/netfetch.AllowList for the CLI binary. Entries
// are "scheme://host[:port]/path-prefix" tuples, comma-separated.
type NetworkEnv struct {
	AllowList string `envconfig:"NETWORK_ALLOWLIST" default:""`
	TimeoutMS int    `envconfig:"NETWORK_TIMEOUT_MS" default:"10000"`
}

type Env struct {
	BaseEnv
	LimitsEnv
	NetworkEnv
}

const namespace = "VBASH"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
