// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package pulse

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies provider failures. The monitor uses the kind to
// decide between retrying and degrading to an unknown score.
type ErrorKind string

const (
	// KindTimeout means the request exceeded its deadline. Retryable.
	KindTimeout ErrorKind = "timeout"

	// KindNotFound means the provider has no data for the player. Not
	// retryable; retrying a missing profile only burns quota.
	KindNotFound ErrorKind = "not_found"

	// KindRateLimited means the provider rejected the request for quota
	// reasons. Retryable after backoff.
	KindRateLimited ErrorKind = "rate_limited"

	// KindUnknown covers everything else (5xx, malformed payloads,
	// connection resets). Not retryable.
	KindUnknown ErrorKind = "unknown"
)

// Error is the typed failure returned by the provider client.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pulse: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("pulse: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindRateLimited
}

// KindOf extracts the error kind, defaulting to KindUnknown for errors the
// client did not produce.
func KindOf(err error) ErrorKind {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	return KindUnknown
}

// classifyTransport maps a transport-level error to an Error.
func classifyTransport(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	return &Error{Kind: KindUnknown, Op: op, Err: err}
}

// classifyStatus maps a non-2xx HTTP status to an Error.
func classifyStatus(op string, status int) *Error {
	switch {
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf("status %d", status)}
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Op: op, Err: fmt.Errorf("status %d", status)}
	case status == http.StatusGatewayTimeout:
		return &Error{Kind: KindTimeout, Op: op, Err: fmt.Errorf("status %d", status)}
	default:
		return &Error{Kind: KindUnknown, Op: op, Err: fmt.Errorf("status %d", status)}
	}
}
