package morphodita

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	coczefla "github.com/VanaKraus/CoCzeFLA"
	"github.com/VanaKraus/CoCzeFLA/internal/logging"
)

// sentinel is sent as a paragraph of its own after every request; its
// echo marks the end of the response.
const sentinel = "Xcoczeflakonecx"

// ErrClosed is returned by Tag after Close or after the process died.
var ErrClosed = errors.New("morphodita: tagger process closed")

// Process is a long-lived run_tagger child reading from stdin and writing
// vertical output. Requests are serialized. The guesser setting is part
// of the tagger model and opts.Guesser is ignored.
type Process struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	input  coczefla.TokenizerVariant
	broken bool
	closed bool
}

// Start runs command, e.g. run_tagger --input=untokenized --output=vertical
// model.tagger. An --input argument is replaced to match tokenizer.
func Start(ctx context.Context, command []string, tokenizer coczefla.TokenizerVariant) (*Process, error) {
	if len(command) == 0 {
		return nil, &coczefla.ConfigurationError{Setting: "tagger.command", Message: "empty command"}
	}
	args := make([]string, 0, len(command))
	replaced := false
	for _, a := range command[1:] {
		if strings.HasPrefix(a, "--input=") {
			a = "--input=" + inputFormat(tokenizer)
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append([]string{"--input=" + inputFormat(tokenizer)}, args...)
	}

	// The process outlives ctx; it is stopped by Close.
	cmd := exec.Command(command[0], args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &coczefla.ConfigurationError{Setting: "tagger.command", Message: "cannot open stdin", Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &coczefla.ConfigurationError{Setting: "tagger.command", Message: "cannot open stdout", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &coczefla.ConfigurationError{Setting: "tagger.command", Message: "cannot start " + command[0], Err: err}
	}
	logging.FromContext(ctx).Info("tagger process started", "command", command[0], "pid", cmd.Process.Pid)
	return &Process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		input:  tokenizer,
	}, nil
}

type result struct {
	tokens []coczefla.TaggedToken
	err    error
}

// Tag writes text to the process and reads tokens up to the sentinel. If
// ctx ends first the process is killed and later calls fail.
func (p *Process) Tag(ctx context.Context, text string, _ coczefla.TagOptions) ([]coczefla.TaggedToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.broken {
		return nil, ErrClosed
	}

	done := make(chan result, 1)
	go func() {
		tokens, err := p.exchange(text)
		done <- result{tokens, err}
	}()
	select {
	case r := <-done:
		if r.err != nil {
			p.broken = true
		}
		return r.tokens, r.err
	case <-ctx.Done():
		p.broken = true
		_ = p.cmd.Process.Kill()
		<-done
		return nil, ctx.Err()
	}
}

func (p *Process) exchange(text string) ([]coczefla.TaggedToken, error) {
	// Blank lines would end the paragraph early.
	text = strings.Join(strings.FieldsFunc(text, func(r rune) bool { return r == '\n' }), "\n")
	if _, err := io.WriteString(p.stdin, text+"\n\n"+sentinel+"\n\n"); err != nil {
		return nil, fmt.Errorf("morphodita: writing to tagger: %w", err)
	}
	var tokens []coczefla.TaggedToken
	for {
		line, err := p.stdout.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("morphodita: reading from tagger: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if cols[0] == sentinel {
			// the sentinel sentence ends with a blank line
			if _, err := p.stdout.ReadString('\n'); err != nil {
				return nil, fmt.Errorf("morphodita: reading from tagger: %w", err)
			}
			return tokens, nil
		}
		if len(cols) < 3 {
			return nil, fmt.Errorf("morphodita: malformed tagger line %q", line)
		}
		tokens = append(tokens, coczefla.TaggedToken{Word: cols[0], Lemma: cols[1], Tag: cols[2]})
	}
}

// Close ends the process and waits for it.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.broken = true
	_ = p.stdin.Close()
	err := p.cmd.Wait()
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		// killed after a cancelled request
		return nil
	}
	return err
}
