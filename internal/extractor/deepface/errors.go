package deepface

import (
	"errors"
	"fmt"

	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor"
)

var (
	ErrDeepFaceUnavailable = fmt.Errorf("deepface service: %w", extractor.ErrUnavailable)
	ErrInvalidResponse     = fmt.Errorf("invalid response from deepface: %w", extractor.ErrUnavailable)
	ErrRejectedImage       = fmt.Errorf("deepface rejected image: %w", extractor.ErrInvalidFrame)
	errEmptyBaseURL        = errors.New("deepface base url is empty")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.StatusCode, e.Body)
}

// isClientError reports whether err is a 4xx response, which is never retried.
func isClientError(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
}
