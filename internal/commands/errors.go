package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Already-wrapped errors pass through untouched so categories assigned
// closer to the failure win.

func wrapValidationError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode("COMMAND_VALIDATION_FAILED")
}

func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}

	message := "command context error"
	code := "COMMAND_CONTEXT_ERROR"
	switch {
	case errors.Is(err, context.Canceled):
		message = "command execution cancelled"
		code = "COMMAND_CONTEXT_CANCELED"
	case errors.Is(err, context.DeadlineExceeded):
		message = "command execution deadline exceeded"
		code = "COMMAND_CONTEXT_TIMEOUT"
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, message).WithTextCode(code)
}

func wrapExecuteError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode("COMMAND_EXECUTION_FAILED")
}
