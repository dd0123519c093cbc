package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a production zap logger at the requested level. Level
// parsing is deliberately strict: node.ValidateConfig already restricts
// log-level to one of debug/info/warn/error before this is ever called in
// practice, but a direct caller of this package gets the same rejection.
func newLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// newPrometheusRegisterer returns a fresh registry rather than the global
// default: a node that export-snapshots and verify-snapshots in the same
// process as a running start (e.g. under test) must not collide on
// prometheus's package-level default registry.
func newPrometheusRegisterer() *prometheus.Registry {
	return prometheus.NewRegistry()
}
