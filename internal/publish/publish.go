// Package publish delivers rendered reports to external sinks. A
// publish failure is an outcome, not an error: the report was already
// computed and stays valid, so every sink returns a Result carrying
// the failure instead of propagating it. Sinks receive the markdown
// rendering; the terminal table is the CLI's own display concern.
package publish

import (
	"context"
	"time"

	"github.com/sweeplab/sweep/internal/errors"
	"github.com/sweeplab/sweep/internal/logging"
	"github.com/sweeplab/sweep/internal/report"
)

// Sink names accepted by New.
const (
	SinkStdout  = "stdout"
	SinkFile    = "file"
	SinkCommand = "command"
)

// Result records one publish attempt.
type Result struct {
	Sink     string
	Target   string
	Err      error
	Duration time.Duration
}

// Failed reports whether the publish attempt failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Publisher delivers a report to one sink.
type Publisher interface {
	// Publish renders and delivers the report. Delivery failure lands
	// in the Result, never in a returned error.
	Publish(ctx context.Context, rep *report.Report) Result
}

// New builds the publisher for a configured sink. target is the file
// path for the file sink and the command name for the command sink;
// args apply to the command sink only.
func New(sink, target string, args []string, log *logging.Logger) (Publisher, error) {
	switch sink {
	case SinkStdout, "":
		return NewStdout(log), nil
	case SinkFile:
		if target == "" {
			return nil, errors.Wrap(errors.ErrInvalidInput, "file sink needs a path")
		}
		return NewFile(target, log), nil
	case SinkCommand:
		if target == "" {
			return nil, errors.Wrap(errors.ErrInvalidInput, "command sink needs a command")
		}
		return NewCommand(target, args, log), nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownSink, "%q (valid: stdout, file, command)", sink)
	}
}
