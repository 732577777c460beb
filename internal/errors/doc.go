// Package errors provides the classified error type used across pagesmith.
//
// Every failure that leaves the core carries a category (filesystem, metadata,
// validation, ...), a severity, a retry hint and a context map holding the
// path, document or operation involved. Callers inspect errors with
// AsClassified / HasCategory rather than string matching.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "read source").
//		WithContext("path", path).
//		WithContext("operation", "read").
//		Build()
package errors
