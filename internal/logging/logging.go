// Package logging provides categorized structured logging for crudprobe.
// Each subsystem logs through its own named zap logger so a run transcript
// can be filtered per concern (catalog, session, crud, links, report).
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies a logging subsystem.
type Category string

const (
	CategoryCatalog Category = "catalog" // manifest loading and filtering
	CategorySession Category = "session" // browser session, login, keep-alive
	CategoryCrud    Category = "crud"    // CRUD exercising
	CategoryLinks   Category = "links"   // link sweep
	CategoryReport  Category = "report"  // report and history sinks
	CategoryRunner  Category = "runner"  // run orchestration
)

var (
	mu      sync.RWMutex
	root    *zap.Logger
	loggers = make(map[Category]*zap.Logger)
)

// Initialize installs the root logger. verbose enables debug level.
// Safe to call more than once; the last call wins.
func Initialize(verbose bool) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	root = logger
	loggers = make(map[Category]*zap.Logger)
	return nil
}

// Get returns the named logger for a category. Before Initialize it returns
// a no-op logger so library code never has to nil-check.
func Get(cat Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}
	base := root
	if base == nil {
		base = zap.NewNop()
	}
	l := base.Named(string(cat))
	loggers[cat] = l
	return l
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}
