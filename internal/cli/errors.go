// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
)

// ErrNotConfirmed is returned by destructive commands run without --confirm.
var ErrNotConfirmed = errors.New("refusing to continue without --confirm")

// UsageError reports a malformed command line.
type UsageError struct {
	Command string
	Reason  string
	Usage   string
}

func (e *UsageError) Error() string {
	msg := e.Reason
	if e.Command != "" {
		msg = e.Command + ": " + msg
	}
	if e.Usage != "" {
		msg += "\nUsage: " + e.Usage
	}
	return msg
}

// CommandError represents a failed subcommand with context.
type CommandError struct {
	Command string // Subcommand that failed (e.g., "export")
	Action  string // What it was doing (e.g., "write file")
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ErrMissingArgument creates a usage error for a required argument.
func ErrMissingArgument(command, argName, usage string) error {
	return &UsageError{
		Command: command,
		Reason:  "missing " + argName,
		Usage:   usage,
	}
}

// WrapError wraps err as a failure of command's action. Nil stays nil.
func WrapError(err error, command, action string) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Action: action, Err: err}
}

// IsUsageError reports whether err is a command line mistake.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}
