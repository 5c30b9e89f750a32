package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey is returned when inserting a listing whose id already exists.
	// The store is append-only and does not allow updates.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when a listing fails validation before a write.
	ErrInvalidInput = errors.New("invalid input")

	// ErrParseFailure is returned when a document cannot be parsed at all.
	ErrParseFailure = errors.New("document could not be parsed")
)

// FetchErrorKind classifies fetch failures.
type FetchErrorKind int

const (
	// NetworkFailure covers DNS, connection, TLS and timeout errors.
	NetworkFailure FetchErrorKind = iota + 1
	// HTTPStatusFailure is a completed response with a non-2xx status.
	HTTPStatusFailure
)

func (k FetchErrorKind) String() string {
	switch k {
	case NetworkFailure:
		return "network"
	case HTTPStatusFailure:
		return "http_status"
	default:
		return "unknown"
	}
}

// FetchError is the only error type a PageFetcher returns.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == HTTPStatusFailure {
		return fmt.Sprintf("fetch %s: received status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps a transport-level failure.
func NewNetworkError(url string, err error) *FetchError {
	return &FetchError{Kind: NetworkFailure, URL: url, Err: err}
}

// NewStatusError reports a non-success HTTP status.
func NewStatusError(url string, status int) *FetchError {
	return &FetchError{Kind: HTTPStatusFailure, URL: url, StatusCode: status}
}
