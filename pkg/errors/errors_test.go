package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusBadRequest, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeFollowsWrappedChain(t *testing.T) {
	inner := New(CodeStateConflict, "order is not pending approval")
	outer := fmt.Errorf("approve: %w", inner)
	if !IsCode(outer, CodeStateConflict) {
		t.Fatalf("expected state conflict in chain")
	}
	if IsCode(outer, CodeNotFound) {
		t.Fatalf("unexpected not found match")
	}
	if IsCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(CodeRateLimit, "limit of %d invitations reached", 50)
	if err.Message() != "limit of 50 invitations reached" {
		t.Fatalf("unexpected message %q", err.Message())
	}
}

func TestDeniedEchoesAccessLevel(t *testing.T) {
	err := Denied("Your access has been limited", "limited")
	if err.Code() != CodeForbidden {
		t.Fatalf("unexpected code %s", err.Code())
	}
	details, _ := err.Details().(map[string]any)
	if details["accessLevel"] != "limited" {
		t.Fatalf("unexpected details %#v", err.Details())
	}
}

func TestLimitExceededCarriesRetryAfter(t *testing.T) {
	err := LimitExceeded("daily invitation limit reached", 50, 90*time.Minute)
	if err.Code() != CodeRateLimit {
		t.Fatalf("unexpected code %s", err.Code())
	}
	wait, ok := err.RetryAfter()
	if !ok || wait != 90*time.Minute {
		t.Fatalf("unexpected retry after %v %v", wait, ok)
	}
	details, _ := err.Details().(map[string]any)
	if details["retryAfterSeconds"] != int64(5400) || details["limit"] != int64(50) {
		t.Fatalf("unexpected details %#v", details)
	}
	if _, ok := New(CodeRateLimit, "x").RetryAfter(); ok {
		t.Fatal("plain errors carry no retry hint")
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("connection refused"), "load parts")
	if err.Error() != "DEPENDENCY_ERROR: load parts: connection refused" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}
