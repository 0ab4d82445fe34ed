// Package vcsproc spawns svn child processes and collects their output.
//
// It is the one place in automerge that touches os/exec. The retry-with-
// backoff shape for transient races is grounded on the teacher's
// internal/git.Repo.run (exponential backoff over a fixed pattern list);
// here the pattern list is a single well-known svn error code rather than
// a set of substrings, so the retry lives one layer up in the orchestrator
// (it needs to run `update` between attempts, which this package has no
// business doing on its own).
package vcsproc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/creack/pty"
	"golang.org/x/sync/errgroup"

	"github.com/idlemerge/automerge/internal/logging"
)

// passwordPlaceholder replaces the real password in the logged argument
// vector; the child itself receives the real password.
const passwordPlaceholder = "********"

// Result is the structured outcome of a non-streaming invocation.
type Result struct {
	ExitCode int
	Stdout   []string
	Stderr   []string
}

// CombinedStderr joins the captured stderr lines with newlines, for error
// messages and reports. The orchestrator's "svn: E195020" retry check does
// not use it; that check reads only the first line of Stderr.
func (r *Result) CombinedStderr() string {
	return joinLines(r.Stderr)
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// Options controls how a single svn invocation is run.
type Options struct {
	// Username, if non-empty, is passed as --username.
	Username string
	// Password, if non-empty, is passed as --password, and is never written
	// to the verbose log (passwordPlaceholder stands in for it there).
	Password string
	// Verbose causes the argument vector (with the placeholder, not the
	// real password) to be logged at debug level.
	Verbose bool
	// Logger receives the verbose argv trace. Defaults to a discarding
	// logger when nil.
	Logger *logging.Logger
}

func (o Options) logger() *logging.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.New(io.Discard, logging.LevelError)
}

// buildArgs assembles the full argument vector: the fixed non-interactive
// preamble, credentials if configured, then the caller's svn subcommand
// and its arguments.
func buildArgs(args []string, opts Options) []string {
	full := []string{"--non-interactive"}
	if opts.Username != "" {
		full = append(full, "--username", opts.Username)
	}
	if opts.Password != "" {
		full = append(full, "--password", opts.Password)
	}
	full = append(full, args...)
	return full
}

// redactedArgs returns full with any password replaced by a placeholder,
// for logging purposes only.
func redactedArgs(full []string, opts Options) []string {
	if opts.Password == "" {
		return full
	}
	redacted := make([]string, len(full))
	copy(redacted, full)
	for i, a := range redacted {
		if a == opts.Password {
			redacted[i] = passwordPlaceholder
		}
	}
	return redacted
}

// Run spawns `svn <args>` and blocks until it exits, draining stdout and
// stderr concurrently via errgroup so a large write on either stream can
// never block the other (the classic "two full pipe buffers deadlock a
// CombinedOutput-style caller" trap). A nonzero exit code is reported in
// the Result, not as an error; only a failure to even start or read from
// the child is returned as an error.
func Run(ctx context.Context, args []string, opts Options) (*Result, error) {
	full := buildArgs(args, opts)
	if opts.Verbose {
		opts.logger().Debugf("svn %v", redactedArgs(full, opts))
	}

	cmd := exec.CommandContext(ctx, "svn", full...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("vcsproc: stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("vcsproc: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("vcsproc: starting svn: %w", err)
	}

	var stdoutLines, stderrLines []string
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		lines, err := readLines(stdoutPipe)
		stdoutLines = lines
		return err
	})
	g.Go(func() error {
		lines, err := readLines(stderrPipe)
		stderrLines = lines
		return err
	})

	if err := g.Wait(); err != nil {
		_ = cmd.Wait()
		return nil, fmt.Errorf("vcsproc: reading svn output: %w", err)
	}

	waitErr := cmd.Wait()
	exitCode := 0
	if waitErr != nil {
		exitErr, ok := waitErr.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("vcsproc: running svn: %w", waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{ExitCode: exitCode, Stdout: stdoutLines, Stderr: stderrLines}, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return lines, err
	}
	return lines, nil
}

// Stream is a live child process whose stdout is exposed as a byte stream
// for callers that must not buffer the entire output (content-hash compare
// over multi-gigabyte files).
type Stream struct {
	cmd  *exec.Cmd
	ptmx io.ReadCloser
}

// Stdout returns the child's stdout stream.
func (s *Stream) Stdout() io.Reader { return s.ptmx }

// Close releases the pty and waits for the child to exit, returning its
// error (if any). Safe to call once.
func (s *Stream) Close() error {
	_ = s.ptmx.Close()
	return s.cmd.Wait()
}

// RunStreaming spawns `svn <args>` with its stdout attached to a pty rather
// than a plain pipe. svn's libc stdio layer switches to full block
// buffering the moment it detects a non-tty stdout; for a long `cat -r`
// of a large file that means the caller would see nothing until a large,
// unpredictable chunk boundary instead of a steady stream. Allocating a
// pty keeps it line-buffered, exactly as the teacher's engine.invokeAgent
// does for agent subprocess output.
func RunStreaming(ctx context.Context, args []string, opts Options) (*Stream, error) {
	full := buildArgs(args, opts)
	if opts.Verbose {
		opts.logger().Debugf("svn %v (streaming)", redactedArgs(full, opts))
	}

	cmd := exec.CommandContext(ctx, "svn", full...)

	ptmx, pts, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("vcsproc: opening pty: %w", err)
	}
	cmd.Stdout = pts

	if err := cmd.Start(); err != nil {
		pts.Close()
		ptmx.Close()
		return nil, fmt.Errorf("vcsproc: starting svn: %w", err)
	}
	pts.Close()

	return &Stream{cmd: cmd, ptmx: ptmx}, nil
}

// Client binds a set of Options (credentials, verbosity, logger) so callers
// elsewhere in automerge can issue invocations without threading Options
// through every call site. It is the concrete type that satisfies the
// narrow Runner interfaces declared by revision, resolve, and orchestrator.
type Client struct {
	opts Options
}

// NewClient creates a Client bound to opts.
func NewClient(opts Options) *Client {
	return &Client{opts: opts}
}

// Run issues a non-streaming invocation using the bound Options.
func (c *Client) Run(ctx context.Context, args []string) (*Result, error) {
	return Run(ctx, args, c.opts)
}

// Stream issues a streaming invocation using the bound Options.
func (c *Client) Stream(ctx context.Context, args []string) (*Stream, error) {
	return RunStreaming(ctx, args, c.opts)
}
