// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

package recommend

import (
	"errors"
	"fmt"
)

// NetworkError indicates the ranking backend could not be reached or returned
// a failure status. Callers own any retry policy; the client never retries.
type NetworkError struct {
	// Feed is the feed being fetched when the failure occurred.
	Feed Source

	// StatusCode is the HTTP status, or zero when no response arrived.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s feed: backend returned status %d", e.Feed, e.StatusCode)
	}
	return fmt.Sprintf("%s feed: %v", e.Feed, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error { return e.Err }

// InvalidResponseError indicates a response arrived but did not match the
// expected payload shape.
type InvalidResponseError struct {
	// Feed is the feed whose payload was malformed.
	Feed Source

	// Reason describes what was wrong with the payload.
	Reason string

	// Err is the underlying decode error, if any.
	Err error
}

// Error implements the error interface.
func (e *InvalidResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s feed: invalid response: %s: %v", e.Feed, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s feed: invalid response: %s", e.Feed, e.Reason)
}

// Unwrap returns the underlying decode error.
func (e *InvalidResponseError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is (or wraps) a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsInvalidResponse reports whether err is (or wraps) an InvalidResponseError.
func IsInvalidResponse(err error) bool {
	var ie *InvalidResponseError
	return errors.As(err, &ie)
}
