// Package errors provides the classified error primitives used across docpublish.
//
// A ClassifiedError carries a category (which decides the caller-facing status),
// a severity (which decides the log level), a retry hint and a context map. Errors
// are built with the fluent ErrorBuilder:
//
//	err := errors.ValidationError("Description is too long.").
//		WithContext("path", path).
//		Build()
//
// HTTPErrorAdapter and CLIErrorAdapter translate classified errors into HTTP
// responses and process exit codes respectively.
package errors
