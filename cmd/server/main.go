// Command server exposes transcript conversion and MOR annotation as a
// JSON REST API.
//
// Endpoints:
//
//	POST /api/convert     body: {"text":"...","fix":true}
//	POST /api/validate    body: {"text":"..."}
//	POST /api/plaintext   body: {"content":"..."}
//	POST /api/encode      body: {"plain":"...","tokens":[{"word","lemma","tag"}]}
//	POST /api/annotate    body: {"text":"...","convert":true,"corrections":["all"]}
//	GET  /api/ws/annotate websocket; one request, one message per utterance
//	GET  /api/health
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/cors"

	coczefla "github.com/VanaKraus/CoCzeFLA"
	"github.com/VanaKraus/CoCzeFLA/internal/config"
	"github.com/VanaKraus/CoCzeFLA/internal/logging"
	"github.com/VanaKraus/CoCzeFLA/internal/morphodita"
	"github.com/VanaKraus/CoCzeFLA/internal/tagcache"
)

const version = "0.4.0"

type serverCLI struct {
	Config   string `short:"c" help:"HCL configuration file" type:"path" env:"COCZEFLA_CONFIG"`
	Addr     string `help:"Listen address (overrides the config file)"`
	LogLevel string `help:"Log level (overrides the config file)"`
	NoTagger bool   `help:"Serve conversion only; annotation endpoints answer 503"`
}

// routes builds the handler tree. ann may be nil.
func routes(cfg *config.Config, ann *coczefla.Annotator) http.Handler {
	enc := coczefla.NewEncoder(nil)
	tagger := ""
	if ann != nil {
		enc = ann.Encoder()
		tagger = cfg.Tagger.Backend + ":" + cfg.Tagger.Model
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/convert", handleConvert())
	mux.HandleFunc("/api/validate", handleValidate())
	mux.HandleFunc("/api/plaintext", handlePlainText())
	mux.HandleFunc("/api/encode", handleEncode(enc))
	mux.HandleFunc("/api/annotate", handleAnnotate(ann))
	mux.HandleFunc("/api/ws/annotate", handleAnnotateStream(ann, newUpgrader(cfg.Server.AllowedOrigins)))
	mux.HandleFunc("/api/health", handleHealth(tagger))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})
	return logging.CombinedMiddleware(c.Handler(mux))
}

// openAnnotator opens the tagger with its optional cache. The returned
// closers must be closed in order once the server has stopped.
func openAnnotator(ctx context.Context, cfg *config.Config) (*coczefla.Annotator, []io.Closer, error) {
	backend, err := morphodita.Open(ctx, cfg.Tagger)
	if err != nil {
		return nil, nil, err
	}
	var tagger coczefla.Tagger = backend
	closers := []io.Closer{backend}
	if cfg.Cache.Path != "" {
		cache, err := tagcache.Open(cfg.Cache.Path, backend, cfg.Tagger.Backend+":"+cfg.Tagger.Model)
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		tagger = cache
		closers = append([]io.Closer{cache}, closers...)
	}
	ann, err := coczefla.New(tagger, coczefla.Options{Tag: cfg.Tagger.TagOptions(), TablesDir: cfg.Tagger.Tables})
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, nil, err
	}
	return ann, closers, nil
}

func run(ctx context.Context, cli serverCLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.Addr != "" {
		cfg.Server.Addr = cli.Addr
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if _, err := logging.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		return err
	}

	var ann *coczefla.Annotator
	if !cli.NoTagger {
		var closers []io.Closer
		ann, closers, err = openAnnotator(ctx, cfg)
		if err != nil {
			return fmt.Errorf("opening tagger: %w", err)
		}
		defer func() {
			for _, c := range closers {
				if err := c.Close(); err != nil {
					slog.Warn("closing tagger", "error", err)
				}
			}
		}()
		slog.Info("tagger ready", "backend", cfg.Tagger.Backend, "model", cfg.Tagger.Model)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           routes(cfg, ann),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Server.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	var cli serverCLI
	kctx := kong.Parse(&cli,
		kong.Name("server"),
		kong.Description("JSON API for CHAT transcript conversion and MOR annotation"),
		kong.UsageOnError(),
	)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	kctx.FatalIfErrorf(run(ctx, cli))
}
