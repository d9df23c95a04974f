package storage

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidProvider is returned when a provider value is unknown or no
	// backend is registered for it.
	ErrInvalidProvider = errors.New("invalid storage provider")

	// ErrAuthenticationRequired is returned by operations that need a
	// credential the backend cannot obtain.
	ErrAuthenticationRequired = errors.New("operation requires authentication")

	// ErrUploadFailed is the terminal error after provider fallback is
	// exhausted.
	ErrUploadFailed = errors.New("upload failed on every available storage provider")

	// ErrMissingConfig is wrapped by backend constructors when a required
	// setting is absent.
	ErrMissingConfig = errors.New("missing required storage configuration")
)

// UploadError wraps a failed upload with the provider it failed on and a
// human-readable cause derived from the backend status code.
type UploadError struct {
	Provider Provider
	Status   int
	Cause    string
	Err      error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s upload failed: %s: %v", e.Provider, e.Cause, e.Err)
	}
	return fmt.Sprintf("%s upload failed: %s", e.Provider, e.Cause)
}

func (e *UploadError) Unwrap() error { return e.Err }

// newUploadError classifies common backend status codes into distinct
// causes; anything else gets a generic message carrying the status.
func newUploadError(provider Provider, status int, err error) *UploadError {
	var cause string
	switch status {
	case http.StatusUnauthorized:
		cause = "not authenticated with the storage backend, sign in and retry"
	case http.StatusForbidden:
		cause = "permission denied by the storage backend, check bucket rules"
	case http.StatusNotFound:
		cause = "storage bucket not found"
	case http.StatusConflict:
		cause = "an object with this name already exists"
	case http.StatusRequestEntityTooLarge:
		cause = "file exceeds the storage backend size limit"
	case http.StatusTooManyRequests:
		cause = "rate limited by the storage backend, try again later"
	default:
		cause = fmt.Sprintf("storage backend error (status %d)", status)
	}
	return &UploadError{Provider: provider, Status: status, Cause: cause, Err: err}
}

// DeleteError wraps a non-recoverable delete failure. "Object not found" is
// never a DeleteError; adapters normalize it to success.
type DeleteError struct {
	Provider Provider
	Locator  string
	Err      error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("%s delete failed for %s: %v", e.Provider, e.Locator, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// InvalidLocatorError is returned by Parse when a locator does not match the
// backend's namespace pattern.
type InvalidLocatorError struct {
	Provider Provider
	Locator  string
}

func (e *InvalidLocatorError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("locator %q does not match any known storage backend", e.Locator)
	}
	return fmt.Sprintf("locator %q does not belong to the %s backend", e.Locator, e.Provider)
}
