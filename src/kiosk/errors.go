package kiosk

import (
	"errors"
	"net/http"
)

var (
	// Snapshot couldn't be read from the chain, the sync cycle is skipped
	ErrChainUnavailable = errors.New("chain unavailable")

	// Snapshot fields don't have the expected shape
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	ErrUnauthorized = errors.New("no purchase found for this dataset")
	ErrNotFound     = errors.New("dataset not found")
	ErrStore        = errors.New("store error")
)

// Error of a request, carries the HTTP status it maps to
type AccessError struct {
	StatusCode int
	Err        error
}

func (self *AccessError) Error() string {
	return self.Err.Error()
}

func (self *AccessError) Unwrap() error {
	return self.Err
}

func newAccessError(err error) *AccessError {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	}
	return &AccessError{StatusCode: status, Err: err}
}
