package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsCarryStatusAndCode(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
		code   string
	}{
		{Unauthorized(errors.New("x")), http.StatusUnauthorized, CodeUnauthorized},
		{Forbidden(errors.New("x")), http.StatusForbidden, CodeForbidden},
		{NotFound(errors.New("x")), http.StatusNotFound, CodeNotFound},
		{Validation(errors.New("x")), http.StatusBadRequest, CodeValidation},
		{Conflict(errors.New("x")), http.StatusConflict, CodeConflict},
		{RateLimited(errors.New("x")), http.StatusTooManyRequests, CodeRateLimitExceeded},
		{Internal(errors.New("x")), http.StatusInternalServerError, CodeServerError},
	}
	for _, tc := range cases {
		if tc.err.Status != tc.status || tc.err.Code != tc.code {
			t.Fatalf("got (%d, %s) want (%d, %s)", tc.err.Status, tc.err.Code, tc.status, tc.code)
		}
	}
}

func TestFromUnwrapsThroughWrapping(t *testing.T) {
	inner := Conflict(errors.New("already decided"))
	wrapped := fmt.Errorf("decide review: %w", inner)

	got := From(wrapped)
	if got.Code != CodeConflict || got.Status != http.StatusConflict {
		t.Fatalf("expected wrapped conflict to survive, got (%d, %s)", got.Status, got.Code)
	}
}

func TestFromDefaultsToServerError(t *testing.T) {
	got := From(errors.New("pq: connection refused"))
	if got.Code != CodeServerError || got.Status != http.StatusInternalServerError {
		t.Fatalf("unclassified errors must map to SERVER_ERROR, got (%d, %s)", got.Status, got.Code)
	}
}

func TestErrorStringFallsBack(t *testing.T) {
	if (&Error{Code: CodeNotFound}).Error() != CodeNotFound {
		t.Fatalf("expected code fallback")
	}
	if (&Error{Err: errors.New("boom")}).Error() != "boom" {
		t.Fatalf("expected wrapped message")
	}
}
