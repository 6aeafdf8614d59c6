package publish

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sweeplab/sweep/internal/errors"
	"github.com/sweeplab/sweep/internal/logging"
	"github.com/sweeplab/sweep/internal/report"
)

// commandTimeout bounds the command sink so a hung external tool
// cannot hold the run open forever.
const commandTimeout = 2 * time.Minute

// outputTailLimit caps captured sink command output in log entries.
const outputTailLimit = 2048

// StdoutPublisher writes the markdown report to a writer, stdout by
// default.
type StdoutPublisher struct {
	out io.Writer
	log *logging.Logger
}

// NewStdout creates a publisher writing to os.Stdout.
func NewStdout(log *logging.Logger) *StdoutPublisher {
	return &StdoutPublisher{out: os.Stdout, log: log}
}

// NewStdoutTo creates a publisher writing to out.
func NewStdoutTo(out io.Writer, log *logging.Logger) *StdoutPublisher {
	return &StdoutPublisher{out: out, log: log}
}

func (p *StdoutPublisher) Publish(_ context.Context, rep *report.Report) Result {
	start := time.Now()
	res := Result{Sink: SinkStdout, Target: "stdout"}

	if _, err := io.WriteString(p.out, report.RenderMarkdown(rep)); err != nil {
		res.Err = errors.NewPublishError("write report: "+err.Error(), errors.ErrPublishFailed).
			WithSink(SinkStdout)
	}
	res.Duration = time.Since(start)
	logResult(p.log, res)
	return res
}

// FilePublisher writes the markdown report to a file, creating parent
// directories as needed.
type FilePublisher struct {
	path string
	log  *logging.Logger
}

// NewFile creates a publisher writing to path.
func NewFile(path string, log *logging.Logger) *FilePublisher {
	return &FilePublisher{path: path, log: log}
}

func (p *FilePublisher) Publish(_ context.Context, rep *report.Report) Result {
	start := time.Now()
	res := Result{Sink: SinkFile, Target: p.path}

	err := os.MkdirAll(filepath.Dir(p.path), 0o755)
	if err == nil {
		err = os.WriteFile(p.path, []byte(report.RenderMarkdown(rep)), 0o644)
	}
	if err != nil {
		res.Err = errors.NewPublishError("write report file: "+err.Error(), errors.ErrPublishFailed).
			WithSink(SinkFile).
			WithDestination(p.path)
	}
	res.Duration = time.Since(start)
	logResult(p.log, res)
	return res
}

// CommandPublisher pipes the markdown report to an external command's
// stdin, for sinks like a PR-comment CLI.
type CommandPublisher struct {
	name string
	args []string
	log  *logging.Logger
}

// NewCommand creates a publisher piping the report to name with args.
func NewCommand(name string, args []string, log *logging.Logger) *CommandPublisher {
	return &CommandPublisher{name: name, args: args, log: log}
}

func (p *CommandPublisher) Publish(ctx context.Context, rep *report.Report) Result {
	start := time.Now()
	res := Result{Sink: SinkCommand, Target: p.name}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, p.name, p.args...)
	cmd.Stdin = strings.NewReader(report.RenderMarkdown(rep))
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := "sink command failed: " + err.Error()
		if cmdCtx.Err() == context.DeadlineExceeded {
			detail = "sink command timed out after " + commandTimeout.String()
		}
		if tail := outputTail(out); tail != "" {
			detail += ": " + tail
		}
		res.Err = errors.NewPublishError(detail, errors.ErrPublishFailed).
			WithSink(SinkCommand).
			WithDestination(p.name)
	}
	res.Duration = time.Since(start)
	logResult(p.log, res)
	return res
}

func logResult(log *logging.Logger, res Result) {
	if res.Failed() {
		log.Warn("publish failed",
			"sink", res.Sink, "target", res.Target, "error", res.Err)
		return
	}
	log.Info("report published",
		"sink", res.Sink, "target", res.Target, "duration", res.Duration)
}

func outputTail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > outputTailLimit {
		s = s[len(s)-outputTailLimit:]
	}
	return strings.ReplaceAll(s, "\n", " ")
}
