// Package config loads the HCL configuration of the command-line tool and
// the server.
//
// A configuration file may contain the blocks log, tagger, cache, convert,
// annotate and server. Every attribute is optional and falls back to the
// value of Default. Expressions may call env("NAME") and a few string
// functions:
//
//	tagger {
//	  backend  = "process"
//	  command  = ["run_tagger", "--input=untokenized", "--output=vertical", env("MORPHODITA_MODEL")]
//	  guesser  = true
//	}
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	coczefla "github.com/VanaKraus/CoCzeFLA"
	"github.com/VanaKraus/CoCzeFLA/internal/logging"
)

// Tagger backends.
const (
	BackendREST    = "rest"
	BackendProcess = "process"
)

// Defaults.
const (
	DefaultEndpoint = "https://lindat.mff.cuni.cz/services/morphodita/api"
	DefaultModel    = "czech-morfflex2.0-pdtc1.0-220710"
	DefaultTimeout  = 30 * time.Second
	DefaultAddr     = ":8080"
)

// DefaultCommand starts a local tagger reading untokenized text.
var DefaultCommand = []string{"run_tagger", "--input=untokenized", "--output=vertical"}

// Config is the complete configuration.
type Config struct {
	Log      Log
	Tagger   Tagger
	Cache    Cache
	Convert  Convert
	Annotate Annotate
	Server   Server
}

// Log configures logging.
type Log struct {
	Level  string
	Format string
	// File is appended to when set; otherwise logs go to stderr.
	File string
}

// Tagger configures the MorphoDiTa backend.
type Tagger struct {
	Backend   string
	Endpoint  string
	Model     string
	Tokenizer coczefla.TokenizerVariant
	Guesser   bool
	Timeout   time.Duration
	// Command runs the process backend; the model path is its last
	// argument unless it already contains one.
	Command []string
	// Tables overrides the built-in encoder tables when set.
	Tables string
}

// Cache configures the tagger response cache.
type Cache struct {
	// Path of the SQLite database; empty disables the cache.
	Path string
}

// Convert configures the conversion path.
type Convert struct {
	Fix bool
}

// Annotate configures the annotation path.
type Annotate struct {
	// Corrections run after annotation.
	Corrections []string
}

// Server configures the HTTP API.
type Server struct {
	Addr           string
	AllowedOrigins []string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: Log{Level: "info", Format: logging.FormatText},
		Tagger: Tagger{
			Backend:   BackendREST,
			Endpoint:  DefaultEndpoint,
			Model:     DefaultModel,
			Tokenizer: coczefla.TokenizerCzech,
			Timeout:   DefaultTimeout,
			Command:   append([]string(nil), DefaultCommand...),
		},
		Server: Server{Addr: DefaultAddr, AllowedOrigins: []string{"*"}},
	}
}

// file mirrors Config with optional fields so that absent attributes keep
// their defaults.
type file struct {
	Log      *logBlock      `hcl:"log,block"`
	Tagger   *taggerBlock   `hcl:"tagger,block"`
	Cache    *cacheBlock    `hcl:"cache,block"`
	Convert  *convertBlock  `hcl:"convert,block"`
	Annotate *annotateBlock `hcl:"annotate,block"`
	Server   *serverBlock   `hcl:"server,block"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
	File   *string `hcl:"file,optional"`
}

type taggerBlock struct {
	Backend   *string   `hcl:"backend,optional"`
	Endpoint  *string   `hcl:"endpoint,optional"`
	Model     *string   `hcl:"model,optional"`
	Tokenizer *string   `hcl:"tokenizer,optional"`
	Guesser   *bool     `hcl:"guesser,optional"`
	Timeout   *string   `hcl:"timeout,optional"`
	Command   *[]string `hcl:"command,optional"`
	Tables    *string   `hcl:"tables,optional"`
}

type cacheBlock struct {
	Path *string `hcl:"path,optional"`
}

type convertBlock struct {
	Fix *bool `hcl:"fix,optional"`
}

type annotateBlock struct {
	Corrections *[]string `hcl:"corrections,optional"`
}

type serverBlock struct {
	Addr           *string   `hcl:"addr,optional"`
	AllowedOrigins *[]string `hcl:"allowed_origins,optional"`
}

// envFunc reads an environment variable. Unset variables are null, so an
// attribute set to one keeps its default.
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "name", Type: cty.String}},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		v, ok := os.LookupEnv(args[0].AsString())
		if !ok {
			return cty.NullVal(cty.String), nil
		}
		return cty.StringVal(v), nil
	},
})

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env":      envFunc,
			"coalesce": stdlib.CoalesceFunc,
			"lower":    stdlib.LowerFunc,
			"upper":    stdlib.UpperFunc,
			"format":   stdlib.FormatFunc,
		},
	}
}

// Load reads the configuration file at path on top of the defaults. An
// empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &coczefla.ConfigurationError{Setting: "config", Message: "cannot read " + path, Err: err}
	}
	return Parse(src, path)
}

// Parse decodes HCL source on top of the defaults and validates the
// result. filename is used in diagnostics only.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, &coczefla.ConfigurationError{Setting: "config", Message: "cannot parse " + filename, Err: diags}
	}
	var raw file
	if diags := gohcl.DecodeBody(f.Body, evalContext(), &raw); diags.HasErrors() {
		return nil, &coczefla.ConfigurationError{Setting: "config", Message: "cannot decode " + filename, Err: diags}
	}
	cfg := Default()
	if err := raw.apply(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (f *file) apply(cfg *Config) error {
	if b := f.Log; b != nil {
		set(&cfg.Log.Level, b.Level)
		set(&cfg.Log.Format, b.Format)
		set(&cfg.Log.File, b.File)
	}
	if b := f.Tagger; b != nil {
		set(&cfg.Tagger.Backend, b.Backend)
		set(&cfg.Tagger.Endpoint, b.Endpoint)
		set(&cfg.Tagger.Model, b.Model)
		set(&cfg.Tagger.Guesser, b.Guesser)
		set(&cfg.Tagger.Command, b.Command)
		set(&cfg.Tagger.Tables, b.Tables)
		if b.Tokenizer != nil {
			cfg.Tagger.Tokenizer = coczefla.TokenizerVariant(*b.Tokenizer)
		}
		if b.Timeout != nil {
			d, err := time.ParseDuration(*b.Timeout)
			if err != nil {
				return &coczefla.ConfigurationError{Setting: "tagger.timeout", Message: "invalid duration", Err: err}
			}
			cfg.Tagger.Timeout = d
		}
	}
	if b := f.Cache; b != nil {
		set(&cfg.Cache.Path, b.Path)
	}
	if b := f.Convert; b != nil {
		set(&cfg.Convert.Fix, b.Fix)
	}
	if b := f.Annotate; b != nil {
		set(&cfg.Annotate.Corrections, b.Corrections)
	}
	if b := f.Server; b != nil {
		set(&cfg.Server.Addr, b.Addr)
		set(&cfg.Server.AllowedOrigins, b.AllowedOrigins)
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate checks the configuration. Problems are *ConfigurationError.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return &coczefla.ConfigurationError{Setting: "log.level", Message: err.Error()}
	}
	if c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON {
		return &coczefla.ConfigurationError{Setting: "log.format", Message: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}
	tok, err := coczefla.ParseTokenizerVariant(string(c.Tagger.Tokenizer))
	if err != nil {
		return err
	}
	c.Tagger.Tokenizer = tok

	switch c.Tagger.Backend {
	case BackendREST:
		if c.Tagger.Endpoint == "" {
			return &coczefla.ConfigurationError{Setting: "tagger.endpoint", Message: "required by the rest backend"}
		}
	case BackendProcess:
		if len(c.Tagger.Command) == 0 {
			return &coczefla.ConfigurationError{Setting: "tagger.command", Message: "required by the process backend"}
		}
	default:
		return &coczefla.ConfigurationError{Setting: "tagger.backend", Message: fmt.Sprintf("unknown backend %q", c.Tagger.Backend)}
	}
	if c.Tagger.Timeout <= 0 {
		return &coczefla.ConfigurationError{Setting: "tagger.timeout", Message: "must be positive"}
	}
	if _, err := coczefla.ParseCorrections(c.Annotate.Corrections); err != nil {
		return err
	}
	return nil
}

// TagOptions returns the options sent with every tagging request.
func (t Tagger) TagOptions() coczefla.TagOptions {
	return coczefla.TagOptions{Guesser: t.Guesser, Tokenizer: t.Tokenizer}
}
