package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   NotFound("Booking"),
			expected: "NOT_FOUND: Booking not found",
		},
		{
			name:     "with underlying error",
			appErr:   Network("Payment failed.", errors.New("connection refused")),
			expected: "NETWORK_ERROR: Payment failed. (caused by: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors_StatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Customer"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad form", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad json"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("login required"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("employees only"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("car no longer available"), CodeConflict, http.StatusConflict},
		{"network", Network("Search failed. Please try again.", nil), CodeNetwork, http.StatusBadGateway},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Rental API"), CodeUnavailable, http.StatusServiceUnavailable},
		{"rate limited", RateLimited("slow down"), CodeRateLimited, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.status)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	appErr := Network("Booking creation failed.", cause)

	if !errors.Is(appErr, cause) {
		t.Errorf("errors.Is should reach the cause")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("already cancelled")
	wrapped := fmt.Errorf("cancel booking 7: %w", appErr)
	plain := errors.New("plain")

	if got := AsAppError(wrapped); got != appErr {
		t.Errorf("AsAppError() should unwrap to the original AppError")
	}
	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through wrapping")
	}

	got := AsAppError(plain)
	if got.Code != CodeInternal || got.Err != plain {
		t.Errorf("AsAppError(plain) = %+v, want internal wrapping plain", got)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("context: %w", NotFound("Customer"))
	if !HasCode(err, CodeNotFound) {
		t.Error("HasCode should match wrapped NOT_FOUND")
	}
	if HasCode(err, CodeConflict) {
		t.Error("HasCode should not match a different code")
	}
	if HasCode(errors.New("x"), CodeNotFound) {
		t.Error("HasCode should be false for non-AppError")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	err := Validation("end must be after start", map[string]any{"field": "end"})
	out := string(err.ToJSON())

	for _, want := range []string{`"code":"VALIDATION_ERROR"`, `"end must be after start"`, `"field":"end"`} {
		if !strings.Contains(out, want) {
			t.Errorf("ToJSON() = %s, missing %s", out, want)
		}
	}
}
