package handler

import "errors"

var (
	// ErrMalformedArgument marks a command whose arguments cannot be used
	// (missing path, unparseable line number). The command is dropped.
	ErrMalformedArgument = errors.New("malformed argument")

	// ErrPolicyRefusal marks a command refused by policy: disallowed file
	// extension, disallowed external command, or content that sanitized to
	// nothing. No mutation happens.
	ErrPolicyRefusal = errors.New("refused by policy")

	// ErrTimeout marks an external command that exceeded its time bound.
	// The task is reported failed, never retried.
	ErrTimeout = errors.New("command timed out")
)
