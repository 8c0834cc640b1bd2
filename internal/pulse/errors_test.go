// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package pulse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusNotFound, KindNotFound},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusGatewayTimeout, KindTimeout},
		{http.StatusInternalServerError, KindUnknown},
		{http.StatusBadGateway, KindUnknown},
		{http.StatusForbidden, KindUnknown},
	}

	for _, tt := range tests {
		got := classifyStatus("test", tt.status)
		if got.Kind != tt.want {
			t.Errorf("classifyStatus(%d).Kind = %s, want %s", tt.status, got.Kind, tt.want)
		}
	}
}

func TestClassifyTransport(t *testing.T) {
	deadlineErr := classifyTransport("test", fmt.Errorf("req: %w", context.DeadlineExceeded))
	if deadlineErr.Kind != KindTimeout {
		t.Errorf("deadline exceeded classified as %s, want %s", deadlineErr.Kind, KindTimeout)
	}

	plainErr := classifyTransport("test", errors.New("connection refused"))
	if plainErr.Kind != KindUnknown {
		t.Errorf("plain error classified as %s, want %s", plainErr.Kind, KindUnknown)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindTimeout, true},
		{KindRateLimited, true},
		{KindNotFound, false},
		{KindUnknown, false},
	}

	for _, tt := range tests {
		err := &Error{Kind: tt.kind, Op: "test"}
		if got := err.Retryable(); got != tt.want {
			t.Errorf("Retryable(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(&Error{Kind: KindNotFound, Op: "test"}); got != KindNotFound {
		t.Errorf("KindOf = %s, want %s", got, KindNotFound)
	}

	wrapped := fmt.Errorf("fetch: %w", &Error{Kind: KindRateLimited, Op: "test"})
	if got := KindOf(wrapped); got != KindRateLimited {
		t.Errorf("KindOf(wrapped) = %s, want %s", got, KindRateLimited)
	}

	if got := KindOf(errors.New("something else")); got != KindUnknown {
		t.Errorf("KindOf(foreign) = %s, want %s", got, KindUnknown)
	}
}

func TestErrorString(t *testing.T) {
	err := &Error{Kind: KindTimeout, Op: "characters", Err: errors.New("deadline")}
	want := "pulse: characters: timeout: deadline"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &Error{Kind: KindNotFound, Op: "characters"}
	if bare.Error() != "pulse: characters: not_found" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &Error{Kind: KindUnknown, Op: "test", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should see through Error")
	}
}
