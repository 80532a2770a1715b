package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	coczefla "github.com/VanaKraus/CoCzeFLA"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load(\"\") mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, BackendREST, cfg.Tagger.Backend)
	require.Equal(t, DefaultTimeout, cfg.Tagger.Timeout)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("COCZEFLA_TEST_MODEL", "/models/czech.tagger")
	src := `
log {
  level  = "debug"
  format = "json"
}

tagger {
  backend   = "process"
  command   = ["run_tagger", "--input=vertical", env("COCZEFLA_TEST_MODEL")]
  tokenizer = upper("vertical") == "VERTICAL" ? "vertical" : "czech"
  guesser   = true
  timeout   = "5s"
}

cache {
  path = coalesce(env("COCZEFLA_UNSET_VAR"), "tags.db")
}

convert {
  fix = true
}

annotate {
  corrections = ["vcop", "people-lemma"]
}
`
	cfg, err := Parse([]byte(src), "test.hcl")
	require.NoError(t, err)

	want := Default()
	want.Log = Log{Level: "debug", Format: "json"}
	want.Tagger.Backend = BackendProcess
	want.Tagger.Command = []string{"run_tagger", "--input=vertical", "/models/czech.tagger"}
	want.Tagger.Tokenizer = coczefla.TokenizerVertical
	want.Tagger.Guesser = true
	want.Tagger.Timeout = 5 * time.Second
	want.Cache.Path = "tags.db"
	want.Convert.Fix = true
	want.Annotate.Corrections = []string{"vcop", "people-lemma"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		setting string
	}{
		{"syntax", `tagger {`, "config"},
		{"unknown block", `tagger {}` + "\n" + `mystery {}`, "config"},
		{"backend", `tagger { backend = "grpc" }`, "tagger.backend"},
		{"tokenizer", `tagger { tokenizer = "english" }`, "tokenizer"},
		{"timeout", `tagger { timeout = "soon" }`, "tagger.timeout"},
		{"negative timeout", `tagger { timeout = "-1s" }`, "tagger.timeout"},
		{"log level", `log { level = "loud" }`, "log.level"},
		{"log format", `log { format = "xml" }`, "log.format"},
		{"corrections", `annotate { corrections = ["spelling"] }`, "corrections"},
		{"empty command", `tagger {
  backend = "process"
  command = []
}`, "tagger.command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl")
			require.Error(t, err)
			require.True(t, errors.Is(err, coczefla.ErrConfiguration), "error %v is not a configuration error", err)
			var ce *coczefla.ConfigurationError
			require.True(t, errors.As(err, &ce))
			require.Equal(t, tt.setting, ce.Setting)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coczefla.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`server { addr = ":9090" }`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)

	_, err = Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.ErrorIs(t, err, coczefla.ErrConfiguration)
}

func TestTagOptions(t *testing.T) {
	cfg := Default()
	cfg.Tagger.Guesser = true
	require.Equal(t, coczefla.TagOptions{Guesser: true, Tokenizer: coczefla.TokenizerCzech}, cfg.Tagger.TagOptions())
}
