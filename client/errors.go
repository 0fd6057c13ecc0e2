package client

import "errors"

var (
	// ErrAuthentication means Quickbase rejected the user token or realm.
	// Connection-fatal: no stream can make progress, the run must abort.
	ErrAuthentication = errors.New("quickbase authentication rejected")

	// ErrServiceUnavailable means the service could not be reached even
	// after retries. Connection-fatal.
	ErrServiceUnavailable = errors.New("quickbase unreachable")

	// ErrTableNotFound and ErrBadQuery abort only the stream that hit them.
	ErrTableNotFound = errors.New("quickbase table not found")
	ErrBadQuery      = errors.New("quickbase rejected query")
)

// IsConnectionFatal reports whether err should abort the whole run rather
// than just the current stream.
func IsConnectionFatal(err error) bool {
	return errors.Is(err, ErrAuthentication) || errors.Is(err, ErrServiceUnavailable)
}
