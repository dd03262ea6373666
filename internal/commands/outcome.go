package commands

import (
	"context"
	"errors"
	"time"

	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-blog/internal/blog"
	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

// TelemetryStatus is the outcome of one command execution.
type TelemetryStatus string

const (
	TelemetryStatusSuccess TelemetryStatus = "success"
	// TelemetryStatusRejected marks blog validation failures raised while executing.
	TelemetryStatusRejected     TelemetryStatus = "rejected"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// Text codes attached to wrapped command errors.
const (
	CodeInvalidMessage   = "BLOG_COMMAND_INVALID_MESSAGE"
	CodeRejected         = "BLOG_COMMAND_REJECTED"
	CodeCanceled         = "BLOG_COMMAND_CANCELED"
	CodeDeadlineExceeded = "BLOG_COMMAND_DEADLINE_EXCEEDED"
	CodeFailed           = "BLOG_COMMAND_FAILED"
)

// TelemetryInfo describes a finished execution.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry is called once per execution after the command returns.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs each outcome at a level matching its status.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	if logger == nil {
		logger = logging.NoOp()
	}
	return func(_ context.Context, _ T, info TelemetryInfo) {
		reportOutcome(logging.WithFields(logger, info.Fields), info)
	}
}

func reportOutcome(logger interfaces.Logger, info TelemetryInfo) {
	args := []any{"status", string(info.Status), "duration_ms", info.Duration.Milliseconds()}
	if info.Error != nil {
		args = append(args, "error", info.Error)
	}
	switch info.Status {
	case TelemetryStatusSuccess:
		logger.Info("blog.command.done", args...)
	case TelemetryStatusRejected, TelemetryStatusContextError:
		logger.Warn("blog.command.aborted", args...)
	default:
		logger.Error("blog.command.failed", args...)
	}
}

// classify maps an execution error to its status and the categorised error
// returned to callers. go-errors keeps the category of an error that is
// already wrapped, so only the text code is guaranteed to be ours.
func classify(err error) (TelemetryStatus, error) {
	if err == nil {
		return TelemetryStatusSuccess, nil
	}
	status := TelemetryStatusFailed
	category, code, message := goerrors.CategoryCommand, CodeFailed, "blog command failed"
	switch {
	case errors.Is(err, context.Canceled):
		status, code, message = TelemetryStatusContextError, CodeCanceled, "blog command canceled"
	case errors.Is(err, context.DeadlineExceeded):
		status, code, message = TelemetryStatusContextError, CodeDeadlineExceeded, "blog command timed out"
	case blog.IsValidationError(err):
		status, code, message = TelemetryStatusRejected, CodeRejected, "blog command rejected"
		category = goerrors.CategoryValidation
	}
	return status, goerrors.Wrap(err, category, message).WithTextCode(code)
}

// invalidMessage tags message validation failures, including the ones
// go-command already wrapped, with CodeInvalidMessage.
func invalidMessage(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "blog command message invalid").
		WithTextCode(CodeInvalidMessage)
}
