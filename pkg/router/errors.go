package router

import "errors"

var (
	// ErrConnectionUnavailable is returned when a tenant database cannot
	// be reached or its credential cannot be decrypted. The gate
	// translates it to a 503: infrastructure trouble, not a bad request.
	ErrConnectionUnavailable = errors.New("tenant database connection unavailable")

	// ErrCredentialDecryption is joined into ErrConnectionUnavailable
	// when the stored ciphertext fails to open, so operators can tell a
	// key problem from a network problem in the logs.
	ErrCredentialDecryption = errors.New("tenant credential decryption failed")

	// ErrConnReleased is returned when a released connection handle is
	// used again.
	ErrConnReleased = errors.New("connection handle already released")

	// ErrNoConnInContext is returned when request code expects a bound
	// connection and none is present.
	ErrNoConnInContext = errors.New("no bound connection in context")

	// ErrRouterClosed is returned by Bind after Close.
	ErrRouterClosed = errors.New("connection router is closed")
)
