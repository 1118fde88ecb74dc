package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrAuthorizationCodeNotFound,
			expected: "Authorization code not found",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("db connection failed")
	newErr := ErrInternal.WithError(underlying)

	if newErr.Code != ErrInternal.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrInternal.Code)
	}

	if newErr.StatusCode != ErrInternal.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrInternal.StatusCode)
	}

	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is(newErr, underlying) = false, want true")
	}

	if ErrInternal.Err != nil {
		t.Errorf("WithError mutated the shared sentinel")
	}
}

func TestAppError_Is(t *testing.T) {
	wrapped := fmt.Errorf("exchange: %w", ErrAuthorizationCodeExpired.WithError(errors.New("late")))

	if !errors.Is(wrapped, ErrAuthorizationCodeExpired) {
		t.Errorf("errors.Is should match on code through wrapping")
	}

	if errors.Is(wrapped, ErrAuthorizationCodeNotFound) {
		t.Errorf("errors.Is matched a different code")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) || appErr.StatusCode != 401 {
		t.Errorf("errors.As did not recover the 401 AppError")
	}
}

func TestPredefinedErrors_StatusCodes(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{ErrMissingAuthorizationCode, 400},
		{ErrAuthorizationCodeNotFound, 404},
		{ErrAuthorizationCodeExpired, 401},
		{ErrAccessTokenNotFound, 401},
		{ErrInvalidClientCredentials, 401},
		{ErrConfiguration, 500},
		{ErrTemplateExists, 409},
		{ErrRateLimitExceeded, 429},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if tt.err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.status)
			}
		})
	}
}
