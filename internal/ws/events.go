package ws

import (
	"time"

	"github.com/saturnino-fabrica-de-software/sorria/internal/liveness"
)

type EventType string

const (
	EventStatus    EventType = "status"
	EventProgress  EventType = "progress"
	EventHint      EventType = "hint"
	EventRestarted EventType = "restarted"
	EventSucceeded EventType = "succeeded"
	EventFailed    EventType = "failed"
)

// Event is one server to browser message
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type StatusData struct {
	Status liveness.Status `json:"status"`
}

type ProgressData struct {
	SmileCount      int     `json:"smile_count"`
	Required        int     `json:"required"`
	FacePositioned  bool    `json:"face_positioned"`
	SmileDetected   bool    `json:"smile_detected"`
	SmileConfidence float64 `json:"smile_confidence"`
	Faces           int     `json:"faces"`
}

type HintData struct {
	Hint string `json:"hint"`
}

type RestartedData struct {
	Restarts int    `json:"restarts"`
	Reason   string `json:"reason,omitempty"`
}

type SucceededData struct {
	RedirectURL string `json:"redirect_url,omitempty"`
}

type FailedData struct {
	Category liveness.Category `json:"category"`
	Message  string            `json:"message"`
}

// hintCaptchaRejected is sent when the verifier refuses a token; the user may
// solve the captcha again
const hintCaptchaRejected = "captcha_rejected"

// Control is a browser to server text message
type Control struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

const (
	ControlCaptcha = "captcha"
	ControlRetry   = "retry"
)
