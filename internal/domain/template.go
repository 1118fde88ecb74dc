package domain

import (
	"time"

	"github.com/google/uuid"
)

// DescriptorSize is the length of every stored face descriptor.
const DescriptorSize = 128

// Descriptor is a fixed-length face embedding.
type Descriptor []float64

// Point is a landmark position as a fraction of image width and height.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmarks holds the facial points the liveness checks rely on.
type Landmarks struct {
	LeftEye    Point `json:"left_eye"`
	RightEye   Point `json:"right_eye"`
	MouthLeft  Point `json:"mouth_left"`
	MouthRight Point `json:"mouth_right"`
	MouthUp    Point `json:"mouth_up"`
	MouthDown  Point `json:"mouth_down"`
}

// FaceDescriptor is produced per detected face per frame.
type FaceDescriptor struct {
	Descriptor Descriptor `json:"descriptor"`
	Landmarks  *Landmarks `json:"landmarks,omitempty"`
}

// EnrolledTemplate representa as amostras faciais que um usuário cadastrou
type EnrolledTemplate struct {
	UserID      uuid.UUID    `json:"user_id"`
	Descriptors []Descriptor `json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
}
