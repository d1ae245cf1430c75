// Package common contains shared constants and sentinel errors used across
// TruthCast components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Chain errors.
	ErrSignerUnavailable  = errors.New("signer unavailable")
	ErrSubmissionRejected = errors.New("submission rejected")

	// Event subscription errors.
	ErrEventTimeout = errors.New("event timeout")
	ErrSubscription = errors.New("subscription error")

	// External HTTP service errors.
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrServiceRejected    = errors.New("service rejected request")
	ErrMalformedResponse  = errors.New("malformed response")

	// Storage errors.
	ErrUploadFailed = errors.New("upload failed")

	// Publication session errors.
	ErrSessionExpired = errors.New("session expired")
	ErrPostRejected   = errors.New("post rejected")

	// Local store errors.
	ErrNotFound = errors.New("not found")
)
