// Package logging adapts go-logger to the small logging contract used by
// the newsroom packages. Loggers are module scoped so entries can be
// filtered by component.
package logging

import (
	"fmt"
	"sort"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

const rootModule = "newsroom"

// Logger is the structured logger used across the service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config captures the go-logger options exposed through the environment.
type Config struct {
	Level  string
	Format string
}

// Provider hands out module loggers backed by a single go-logger root.
type Provider struct {
	root *glog.BaseLogger
}

// NewProvider constructs a provider backed by go-logger.
func NewProvider(cfg Config) (*Provider, error) {
	options := []glog.Option{}

	if level := normalizeLevel(cfg.Level); level != "" {
		options = append(options, glog.WithLevel(level))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("logging: unsupported format %q", cfg.Format)
	}

	return &Provider{root: glog.NewLogger(options...)}, nil
}

// Module returns a logger tagged with the given module name.
func (p *Provider) Module(name string) Logger {
	if p == nil {
		return NoOp()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return &adapter{inner: p.root, fields: []any{"module", rootModule}}
	}
	module := rootModule + "." + name
	return &adapter{inner: p.root.GetLogger(module), fields: []any{"module", module}}
}

type adapter struct {
	inner  glog.Logger
	fields []any
}

func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, l.with(args)...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, l.with(args)...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, l.with(args)...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, l.with(args)...) }

func (l *adapter) with(args []any) []any {
	if len(l.fields) == 0 {
		return args
	}
	out := make([]any, 0, len(l.fields)+len(args))
	out = append(out, l.fields...)
	return append(out, args...)
}

// With returns a logger that prepends the given fields, sorted by key, to every entry.
func With(logger Logger, fields map[string]any) Logger {
	if logger == nil {
		logger = NoOp()
	}
	if len(fields) == 0 {
		return logger
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return &fieldsLogger{inner: logger, fields: args}
}

type fieldsLogger struct {
	inner  Logger
	fields []any
}

func (l *fieldsLogger) Debug(msg string, args ...any) { l.inner.Debug(msg, l.prepend(args)...) }
func (l *fieldsLogger) Info(msg string, args ...any)  { l.inner.Info(msg, l.prepend(args)...) }
func (l *fieldsLogger) Warn(msg string, args ...any)  { l.inner.Warn(msg, l.prepend(args)...) }
func (l *fieldsLogger) Error(msg string, args ...any) { l.inner.Error(msg, l.prepend(args)...) }

func (l *fieldsLogger) prepend(args []any) []any {
	out := make([]any, 0, len(l.fields)+len(args))
	out = append(out, l.fields...)
	return append(out, args...)
}

// NoOp returns a logger that discards everything.
func NoOp() Logger {
	return noop{}
}

type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return glog.Debug
	case "info":
		return glog.Info
	case "warn", "warning":
		return glog.Warn
	case "error":
		return glog.Error
	default:
		return ""
	}
}
