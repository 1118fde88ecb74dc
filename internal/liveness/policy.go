package liveness

import (
	"time"

	"github.com/saturnino-fabrica-de-software/sorria/internal/matcher"
)

// Flow distinguishes login from enrollment captures
type Flow string

const (
	FlowLogin        Flow = "login"
	FlowRegistration Flow = "registration"
)

// Policy holds the per-flow thresholds of a capture session
type Policy struct {
	Flow Flow

	RequiredSmiles     int
	MinSmileConfidence float64
	Cooldown           time.Duration
	MatchThreshold     float64

	// ResetOnMultipleFaces zeroes the smile counter when a second face shows up
	ResetOnMultipleFaces bool

	// CrossCheck compares the final identity with the one seen on the neutral
	// tick before the first smile
	CrossCheck bool

	// CollectSamples keeps one descriptor per registered smile
	CollectSamples bool
}

// LoginPolicy: one smile, lenient confidence
func LoginPolicy() Policy {
	return Policy{
		Flow:               FlowLogin,
		RequiredSmiles:     1,
		MinSmileConfidence: 0.3,
		Cooldown:           1000 * time.Millisecond,
		MatchThreshold:     matcher.LoginThreshold,
		CrossCheck:         true,
	}
}

// RegistrationPolicy: three smiles, stricter confidence, duplicate check at 0.4
func RegistrationPolicy() Policy {
	return Policy{
		Flow:                 FlowRegistration,
		RequiredSmiles:       3,
		MinSmileConfidence:   0.4,
		Cooldown:             800 * time.Millisecond,
		MatchThreshold:       matcher.RegistrationThreshold,
		ResetOnMultipleFaces: true,
		CollectSamples:       true,
	}
}
