// Package errors provides the classified error primitives used across docviewer.
//
// Infrastructure failures (git storage, forge APIs, configuration) are reported as
// ClassifiedError values carrying a category, a severity and a retry strategy, so the
// HTTP and CLI surfaces can map them to status codes and exit codes without string
// matching.
//
// Example usage:
//
//	err := errors.ForgeError("list root entries").
//		WithCause(cause).
//		WithContext("repository", ref.String()).
//		Build()
package errors
