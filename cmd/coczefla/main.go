// Command coczefla converts CHAT transcripts to the current standard and
// annotates them with a %mor tier through MorphoDiTa.
//
//	coczefla convert --fix -o out/ corpus/
//	coczefla annotate --guess -o annotated/ out/
//	coczefla correct --correction all -o corrected/ annotated/
//	coczefla validate corpus/
//	coczefla plain < file.cha
//
// Without input paths a command reads one transcript from stdin and
// writes it to stdout.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/VanaKraus/CoCzeFLA/internal/config"
	"github.com/VanaKraus/CoCzeFLA/internal/logging"
)

const version = "0.4.0"

// CLI defines the command-line interface.
type CLI struct {
	Config    string `short:"c" help:"HCL configuration file" type:"path" env:"COCZEFLA_CONFIG"`
	LogLevel  string `help:"Log level: debug, info, warn, error (overrides the config file)"`
	LogFormat string `help:"Log format: text or json (overrides the config file)"`
	LogFile   string `help:"Append logs to this file instead of stderr" type:"path"`

	Convert  ConvertCmd  `cmd:"" help:"Rewrite transcripts to the current standard"`
	Annotate AnnotateCmd `cmd:"" help:"Add %mor tiers through the tagger"`
	Correct  CorrectCmd  `cmd:"" help:"Apply corrections to existing %mor tiers"`
	Validate ValidateCmd `cmd:"" help:"Report diagnostics without writing output"`
	Plain    PlainCmd    `cmd:"" help:"Print the plain text sent to the tagger for each utterance"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// app is bound into every command's Run method.
type app struct {
	ctx    context.Context
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// setup loads the configuration and the logger. The returned function
// releases the log file.
func (c *CLI) setup(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) (*app, func(), error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, nil, err
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}
	if c.LogFile != "" {
		cfg.Log.File = c.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var logOut io.Writer = stderr
	cleanup := func() {}
	if cfg.Log.File != "" {
		f, err := logging.OpenLogFile(cfg.Log.File)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		logOut = f
		cleanup = func() { f.Close() }
	}
	logger, err := logging.Init(cfg.Log.Level, cfg.Log.Format, logOut)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return &app{
		ctx:    logging.WithLogger(ctx, logger),
		cfg:    cfg,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, cleanup, nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	_, err := fmt.Fprintf(a.stdout, "coczefla %s\n", version)
	return err
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("coczefla"),
		kong.Description("CHAT transcript conversion and MOR annotation for Czech child language data"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, &cli, kctx, os.Stdin, os.Stdout, os.Stderr)
	stop()
	kctx.FatalIfErrorf(err)
}

// run sets up logging, runs the selected command and releases the log file
// before returning.
func run(ctx context.Context, cli *CLI, kctx *kong.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	a, cleanup, err := cli.setup(ctx, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer cleanup()
	return kctx.Run(a)
}
