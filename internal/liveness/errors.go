package liveness

import (
	"errors"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor"
)

var (
	// ErrDifferentUser means the person who smiled is not the person who was
	// identified on the neutral frame right before
	ErrDifferentUser = errors.New("different user detected mid-capture")

	// ErrFaceNotRecognized means the final descriptor matched no enrolled user
	ErrFaceNotRecognized = errors.New("face not recognized")

	// ErrDuplicateFace means a registration capture matched an enrolled face.
	// The session restarts instead of failing.
	ErrDuplicateFace = errors.New("face already enrolled")

	// ErrSourceUnavailable means the frame source failed (camera gone)
	ErrSourceUnavailable = errors.New("capture source unavailable")
)

// Category separates failures the user can retry from ones an operator must fix
type Category string

const (
	CategoryUser          Category = "user"
	CategoryConfiguration Category = "configuration"
)

// Classify returns the category of a fatal session error
func Classify(err error) Category {
	if errors.Is(err, extractor.ErrUnavailable) || errors.Is(err, domain.ErrConfiguration) {
		return CategoryConfiguration
	}
	return CategoryUser
}
