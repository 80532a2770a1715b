package batch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"

	coczefla "github.com/VanaKraus/CoCzeFLA"
	"github.com/VanaKraus/CoCzeFLA/internal/logging"
)

// transcriptExts are the extensions picked up in directories, with or
// without a trailing .xz.
var transcriptExts = []string{".txt", ".cha"}

// Input is one file of a batch.
type Input struct {
	Path string
	// Rel is the output path relative to the output directory.
	Rel string
}

// Collect expands paths: files are taken as given, directories are walked
// for transcripts. Output paths mirror the tree below each directory and
// drop a .xz suffix.
func Collect(paths []string) ([]Input, error) {
	var inputs []Input
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("batch: %w", err)
		}
		if !info.IsDir() {
			inputs = append(inputs, Input{Path: p, Rel: outputName(filepath.Base(p))})
			continue
		}
		var found []Input
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isTranscript(path) {
				return nil
			}
			rel, err := filepath.Rel(p, path)
			if err != nil {
				return err
			}
			found = append(found, Input{Path: path, Rel: outputName(rel)})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("batch: walking %s: %w", p, err)
		}
		slices.SortFunc(found, func(a, b Input) int { return strings.Compare(a.Path, b.Path) })
		inputs = append(inputs, found...)
	}
	return inputs, nil
}

func isTranscript(path string) bool {
	ext := filepath.Ext(strings.TrimSuffix(path, ".xz"))
	return slices.Contains(transcriptExts, ext)
}

func outputName(rel string) string {
	return strings.TrimSuffix(rel, ".xz")
}

// Open opens a transcript, decompressing .xz files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".xz") {
		return f, nil
	}
	xzr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	return struct {
		io.Reader
		io.Closer
	}{xzr, f}, nil
}

// Runner processes many files, each in isolation.
type Runner struct {
	Processor *Processor
	// OutDir receives the mirrored outputs; empty writes outputs to Stdout.
	OutDir string
	Stdout io.Writer
	// Summary receives the per-file reports; nil disables them.
	Summary io.Writer
}

// Report is the outcome of a run.
type Report struct {
	RunID    string
	Files    []*Result
	Failed   int
	Duration time.Duration
}

// Count returns how many files ended with status s.
func (r *Report) Count(s coczefla.Status) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == s {
			n++
		}
	}
	return n
}

// Run processes inputs in order. A failed file is logged and reported and
// the run goes on; the error is non-nil only when ctx is done.
func (r *Runner) Run(ctx context.Context, inputs []Input) (*Report, error) {
	start := time.Now()
	rep := &Report{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, rep.RunID)
	log := logging.FromContext(ctx)
	log.Info("batch started", "files", len(inputs), "outdir", r.OutDir)

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res := r.runFile(ctx, in)
		rep.Files = append(rep.Files, res)
		if res.Status == coczefla.StatusFailed {
			rep.Failed++
			log.Error("file failed", "path", in.Path, "error", res.Err)
		} else {
			log.Info("file processed", "path", in.Path, "status", res.Status, "diagnostics", len(res.Diagnostics))
		}
		if r.Summary != nil {
			if err := res.Summary(r.Summary); err != nil {
				return rep, fmt.Errorf("batch: writing summary: %w", err)
			}
		}
	}
	rep.Duration = time.Since(start)
	log.Info("batch finished", "files", len(rep.Files), "failed", rep.Failed, "duration", rep.Duration)
	return rep, nil
}

func (r *Runner) runFile(ctx context.Context, in Input) (res *Result) {
	defer func() {
		if p := recover(); p != nil {
			res = &Result{Path: in.Path, Status: coczefla.StatusFailed, Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	failed := func(err error) *Result {
		return &Result{Path: in.Path, Status: coczefla.StatusFailed, Err: err}
	}

	f, err := Open(in.Path)
	if err != nil {
		return failed(err)
	}
	defer f.Close()

	res, err = r.Processor.Process(ctx, f)
	if err != nil {
		return failed(err)
	}
	res.Path = in.Path
	if r.Processor.opts.Validate {
		return res
	}
	if err := r.write(in, res.Output); err != nil {
		return failed(err)
	}
	return res
}

func (r *Runner) write(in Input, output string) error {
	if r.OutDir == "" {
		_, err := io.WriteString(r.Stdout, output)
		return err
	}
	target := filepath.Join(r.OutDir, in.Rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, []byte(output), 0o644)
}

// RunStream processes one transcript from in and writes it to out.
func (r *Runner) RunStream(ctx context.Context, in io.Reader, out io.Writer) (*Result, error) {
	res, err := r.Processor.Process(ctx, in)
	if err != nil {
		return &Result{Path: "-", Status: coczefla.StatusFailed, Err: err}, err
	}
	res.Path = "-"
	if !r.Processor.opts.Validate {
		if _, err := io.WriteString(out, res.Output); err != nil {
			return res, err
		}
	}
	if r.Summary != nil {
		if err := res.Summary(r.Summary); err != nil {
			return res, err
		}
	}
	return res, nil
}
