// Package commands implements the lwm2m-codec CLI commands.
package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/inspect"
	"github.com/mash-protocol/lwm2m-go/pkg/log"
	"github.com/mash-protocol/lwm2m-go/pkg/model"
	"github.com/mash-protocol/lwm2m-go/pkg/version"
	"github.com/mash-protocol/lwm2m-go/pkg/wire"
)

// Config is the configuration shared by every command. It is read from an
// optional YAML file and overridden by flags.
type Config struct {
	// Models lists object model files (YAML or DDF XML) and directories
	// loaded on top of the built-in objects.
	Models []string `yaml:"models"`

	// RootPath is the URI prefix of paths carried in payloads.
	RootPath string `yaml:"root-path"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log-level"`

	// LogFormat is text or json.
	LogFormat string `yaml:"log-format"`

	// TraceFile receives one trace event per codec call when set.
	TraceFile string `yaml:"trace-file"`

	// DefaultFormat is used when a command is given no format.
	DefaultFormat string `yaml:"default-format"`

	// Strict rejects tolerated deviations from the formats.
	Strict bool `yaml:"strict"`

	// LwM2MVersion limits the content formats to those of an enabler
	// version ("1.0", "1.1", "1.2"). Empty allows every format.
	LwM2MVersion string `yaml:"lwm2m-version"`
}

// DefaultConfig returns the configuration used without config file.
func DefaultConfig() Config {
	return Config{
		LogLevel:      "warn",
		LogFormat:     "text",
		DefaultFormat: "senml-json",
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Format returns the content format named s, or the default format when s
// is empty.
func (c Config) Format(s string) (codec.ContentFormat, error) {
	if s == "" {
		s = c.DefaultFormat
	}
	return codec.ParseContentFormat(s)
}

// NewLogger builds the operational logger writing to w.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %s (supported: debug, info, warn, error)", c.LogLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format: %s (supported: text, json)", c.LogFormat)
}

// Env holds what the commands need, built from a Config.
type Env struct {
	Config    Config
	Model     *model.Registry
	Logger    *slog.Logger
	Decoder   *wire.Decoder
	Encoder   *wire.Encoder
	Formatter *inspect.Formatter

	trace *log.FileLogger
}

// NewEnv loads the models and opens the trace file of cfg. Logs go to
// logOut. Close must be called to flush the trace file.
func NewEnv(cfg Config, logOut io.Writer) (*Env, error) {
	logger, err := cfg.NewLogger(logOut)
	if err != nil {
		return nil, err
	}
	registry, err := model.Load(cfg.Models...)
	if err != nil {
		return nil, err
	}
	logger.Debug("models loaded", "objects", registry.Len(), "files", len(cfg.Models))

	options := []wire.Option{
		wire.WithModel(registry),
		wire.WithRootPath(cfg.RootPath),
		wire.WithLogger(logger),
		wire.WithStrict(cfg.Strict),
	}

	if cfg.LwM2MVersion != "" {
		manifest, err := version.LoadManifest(cfg.LwM2MVersion)
		if err != nil {
			return nil, err
		}
		result := version.ValidateObjects(manifest, registry.Objects())
		for _, w := range result.Warnings {
			logger.Info("object model", "version", manifest.Version, "warning", w)
		}
		if !result.Valid {
			return nil, fmt.Errorf("object models do not satisfy LwM2M %s: %s", manifest.Version, strings.Join(result.Errors, "; "))
		}
		options = append(options, wire.WithVersion(manifest))
	}

	env := &Env{Config: cfg, Model: registry, Logger: logger}
	var tracers []log.Logger
	if cfg.TraceFile != "" {
		env.trace, err = log.NewFileLogger(cfg.TraceFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		tracers = append(tracers, env.trace)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		tracers = append(tracers, log.NewSlogAdapter(logger))
	}
	if len(tracers) > 0 {
		options = append(options, wire.WithTraceLogger(log.NewMultiLogger(tracers...)))
	}

	env.Decoder = wire.NewDecoder(options...)
	env.Encoder = wire.NewEncoder(options...)
	env.Formatter = inspect.NewFormatter(registry)
	return env, nil
}

// Close flushes and closes the trace file.
func (e *Env) Close() error {
	if e.trace == nil {
		return nil
	}
	if n := e.trace.Dropped(); n > 0 {
		e.Logger.Warn("trace events dropped", "count", n)
	}
	return e.trace.Close()
}
