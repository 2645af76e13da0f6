// Package config loads the prices configuration file.
//
// The file is YAML decoded strictly (unknown keys are errors) on top of
// Default, then checked against an embedded CUE schema before use.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/prices/internal/comics"
	"github.com/roach88/prices/internal/dataset"
)

//go:embed schema.cue
var schemaSource string

// Config is the full configuration surface.
type Config struct {
	Driver  string  `yaml:"driver"`
	DSN     string  `yaml:"dsn"`
	Load    Load    `yaml:"load"`
	Log     Log     `yaml:"log"`
	Comics  Comics  `yaml:"comics"`
	Metrics Metrics `yaml:"metrics"`
}

// Load bounds the dataset's full-set reload.
type Load struct {
	Attempts int      `yaml:"attempts"`
	Interval Duration `yaml:"interval"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Comics struct {
	BaseURL string `yaml:"base_url"`
}

// Metrics.Addr, when set, is where /metrics is served.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Duration is a time.Duration written as "33ms" in YAML.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML accepts Go duration strings.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Driver: "sqlite3",
		DSN:    "prices.db",
		Load: Load{
			Attempts: dataset.DefaultLoadAttempts,
			Interval: Duration(dataset.DefaultLoadInterval),
		},
		Log:    Log{Level: "info", Format: "text"},
		Comics: Comics{BaseURL: comics.DefaultBaseURL},
	}
}

// LoadFile reads and validates the file at path. An empty path yields Default.
func LoadFile(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks c against the embedded schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := def.Unify(ctx.Encode(c.document()))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Errors: cueerrors.Errors(err)}
	}
	return nil
}

// document is c in the shape the schema describes.
func (c Config) document() map[string]any {
	return map[string]any{
		"driver": c.Driver,
		"dsn":    c.DSN,
		"load": map[string]any{
			"attempts": c.Load.Attempts,
			"interval": c.Load.Interval.String(),
		},
		"log": map[string]any{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
		"comics":  map[string]any{"base_url": c.Comics.BaseURL},
		"metrics": map[string]any{"addr": c.Metrics.Addr},
	}
}

// ValidationError lists every schema violation.
type ValidationError struct {
	Errors []cueerrors.Error
}

func (e *ValidationError) Error() string {
	var b bytes.Buffer
	b.WriteString("invalid config")
	for i, err := range e.Errors {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// LogLevel maps Log.Level onto slog.
func (c Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
