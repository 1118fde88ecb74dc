package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so wrapped copies created by WithError still satisfy errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrConfiguration = &AppError{
		Code:       "CONFIGURATION_ERROR",
		Message:    "Server is misconfigured, contact the operator",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing access token",
		StatusCode: 401,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	// Authorization code / token exchange

	ErrMissingAuthorizationCode = &AppError{
		Code:       "MISSING_AUTHORIZATION_CODE",
		Message:    "authorizationCode is required",
		StatusCode: 400,
	}

	ErrAuthorizationCodeNotFound = &AppError{
		Code:       "AUTHORIZATION_CODE_NOT_FOUND",
		Message:    "Authorization code not found",
		StatusCode: 404,
	}

	ErrAuthorizationCodeExpired = &AppError{
		Code:       "AUTHORIZATION_CODE_EXPIRED",
		Message:    "Authorization code has expired",
		StatusCode: 401,
	}

	ErrAccessTokenNotFound = &AppError{
		Code:       "ACCESS_TOKEN_NOT_FOUND",
		Message:    "Access token not found",
		StatusCode: 401,
	}

	// Relying applications

	ErrApplicationNotFound = &AppError{
		Code:       "APPLICATION_NOT_FOUND",
		Message:    "Application not found",
		StatusCode: 404,
	}

	ErrInvalidClientCredentials = &AppError{
		Code:       "INVALID_CLIENT_CREDENTIALS",
		Message:    "Application id or client secret is invalid",
		StatusCode: 401,
	}

	ErrRedirectNotAllowed = &AppError{
		Code:       "REDIRECT_NOT_ALLOWED",
		Message:    "Redirect URL does not belong to the application domain",
		StatusCode: 403,
	}

	ErrInvalidHandOff = &AppError{
		Code:       "INVALID_HAND_OFF",
		Message:    "Hand-off ticket is invalid or expired",
		StatusCode: 401,
	}

	// Users and biometric templates

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "User not found",
		StatusCode: 404,
	}

	ErrTemplateExists = &AppError{
		Code:       "TEMPLATE_ALREADY_EXISTS",
		Message:    "A face template is already enrolled for this user",
		StatusCode: 409,
	}

	ErrCaptchaFailed = &AppError{
		Code:       "CAPTCHA_FAILED",
		Message:    "Captcha verification failed",
		StatusCode: 403,
	}
)
