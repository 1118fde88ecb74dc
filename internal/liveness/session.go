// Package liveness implements the smile-gesture capture state machine.
//
// A Session holds every piece of state that spans ticks; Tick is a pure state
// transition over one frame's detections and the tick time. Scheduling and
// cancellation live in Runner.
package liveness

import (
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor"
	"github.com/saturnino-fabrica-de-software/sorria/internal/matcher"
)

// Status of a capture session
type Status string

const (
	StatusAwaitingCaptcha Status = "awaiting-captcha"
	StatusCapturing       Status = "capturing"
	StatusIdentifying     Status = "identifying"
	StatusSucceeded       Status = "succeeded"
	StatusFailed          Status = "failed"
)

// Hint is a recoverable per-tick condition shown to the user
type Hint string

const (
	HintNone          Hint = ""
	HintNoFace        Hint = "no_face"
	HintMultipleFaces Hint = "multiple_faces"
	HintCenterFace    Hint = "center_face"
	HintSmile         Hint = "smile"
	HintRelax         Hint = "relax"
	HintHoldStill     Hint = "hold_still"
	HintDuplicateFace Hint = "duplicate_face"
)

// Identifier finds the enrolled user closest to a descriptor.
// *matcher.Matcher satisfies it.
type Identifier interface {
	FindBestMatch(query domain.Descriptor) (matcher.Match, bool)
}

// TickResult describes what a single tick did
type TickResult struct {
	Faces           int
	Hint            Hint
	SmileRegistered bool
	Restarted       bool
}

// Session is one login or registration attempt. Fields are exported for
// inspection; mutate only through methods.
type Session struct {
	Status Status

	SmileCount      int
	LastSmileEnd    time.Time // zero until the first smile ends
	Smiling         bool      // a registered smile has not ended yet
	FacePositioned  bool
	SmileDetected   bool
	SmileConfidence float64

	// CandidateUserID is the identity matched on the neutral tick right
	// before the first smile. uuid.Nil when none was identified.
	CandidateUserID uuid.UUID

	// UserID is the identified user once Status is succeeded (login only)
	UserID   uuid.UUID
	Distance float64

	// Samples collects one descriptor per smile (registration only)
	Samples []domain.Descriptor

	Restarts int
	Err      error

	policy     Policy
	identifier Identifier

	// neutral is the descriptor of the previous tick when that tick had a
	// single positioned, non-smiling face
	neutral domain.Descriptor
}

// NewSession creates a session. With requireCaptcha the session starts in
// awaiting-captcha and ignores frames until ConfirmCaptcha.
func NewSession(policy Policy, identifier Identifier, requireCaptcha bool) *Session {
	s := &Session{
		Status:     StatusCapturing,
		policy:     policy,
		identifier: identifier,
	}
	if requireCaptcha {
		s.Status = StatusAwaitingCaptcha
	}
	return s
}

// Policy returns the session policy
func (s *Session) Policy() Policy {
	return s.policy
}

// Remaining returns how many smiles are still required
func (s *Session) Remaining() int {
	if r := s.policy.RequiredSmiles - s.SmileCount; r > 0 {
		return r
	}
	return 0
}

// Done reports whether the session reached a terminal status
func (s *Session) Done() bool {
	return s.Status == StatusSucceeded || s.Status == StatusFailed
}

// ConfirmCaptcha opens the capture gate. It reports whether the status changed.
func (s *Session) ConfirmCaptcha() bool {
	if s.Status != StatusAwaitingCaptcha {
		return false
	}
	s.Status = StatusCapturing
	return true
}

// Fail terminates the session with err
func (s *Session) Fail(err error) {
	if s.Done() {
		return
	}
	s.Status = StatusFailed
	s.Err = err
}

// Restart discards all progress and resumes capturing. A session that was
// still behind the captcha gate stays there.
func (s *Session) Restart() {
	status := StatusCapturing
	if s.Status == StatusAwaitingCaptcha {
		status = StatusAwaitingCaptcha
	}

	*s = Session{
		Status:     status,
		Restarts:   s.Restarts + 1,
		policy:     s.policy,
		identifier: s.identifier,
	}
}

// Tick advances the machine with the detections of the frame captured at at.
// Only capturing sessions react; other statuses return an empty result.
func (s *Session) Tick(at time.Time, detections []extractor.Detection) TickResult {
	result := TickResult{Faces: len(detections)}
	if s.Status != StatusCapturing {
		return result
	}

	neutral := s.neutral
	s.neutral = nil

	switch {
	case len(detections) == 0:
		s.FacePositioned = false
		s.SmileDetected = false
		result.Hint = HintNoFace
		return result

	case len(detections) > 1:
		s.FacePositioned = false
		s.SmileDetected = false
		if s.policy.ResetOnMultipleFaces {
			s.SmileCount = 0
			s.Samples = nil
		}
		result.Hint = HintMultipleFaces
		return result
	}

	face := detections[0]

	s.FacePositioned = IsPositioned(face.Box)
	s.SmileConfidence = SmileConfidence(face)
	isSmiling := s.SmileConfidence >= s.policy.MinSmileConfidence
	s.SmileDetected = isSmiling

	if !isSmiling {
		if s.Smiling {
			s.Smiling = false
			s.LastSmileEnd = at
		}
		if s.FacePositioned {
			s.neutral = face.Descriptor
			result.Hint = HintSmile
		} else {
			result.Hint = HintCenterFace
		}
		return result
	}

	switch {
	case !s.FacePositioned:
		result.Hint = HintCenterFace
		return result
	case s.Smiling:
		result.Hint = HintRelax
		return result
	case !s.LastSmileEnd.IsZero() && at.Sub(s.LastSmileEnd) < s.policy.Cooldown:
		result.Hint = HintRelax
		return result
	}

	last := s.SmileCount+1 >= s.policy.RequiredSmiles
	if len(face.Descriptor) == 0 && (last || s.policy.CollectSamples) {
		result.Hint = HintHoldStill
		return result
	}

	if s.SmileCount == 0 && s.policy.CrossCheck && neutral != nil {
		if m, ok := s.identify(neutral); ok {
			s.CandidateUserID = m.Label
		}
	}

	s.SmileCount++
	s.Smiling = true
	result.SmileRegistered = true
	if s.policy.CollectSamples {
		s.Samples = append(s.Samples, face.Descriptor)
	}

	if s.SmileCount < s.policy.RequiredSmiles {
		return result
	}

	s.Status = StatusIdentifying
	if s.policy.Flow == FlowRegistration {
		s.finishRegistration(&result)
	} else {
		s.finishLogin(face.Descriptor)
	}
	return result
}

func (s *Session) finishLogin(final domain.Descriptor) {
	m, ok := s.identify(final)
	s.Distance = m.Distance
	if !ok {
		s.Fail(ErrFaceNotRecognized)
		return
	}
	if s.CandidateUserID != uuid.Nil && s.CandidateUserID != m.Label {
		s.Fail(ErrDifferentUser)
		return
	}

	s.UserID = m.Label
	s.Status = StatusSucceeded
}

func (s *Session) finishRegistration(result *TickResult) {
	for _, sample := range s.Samples {
		if _, dup := s.identify(sample); dup {
			s.Restart()
			result.Restarted = true
			result.Hint = HintDuplicateFace
			return
		}
	}
	s.Status = StatusSucceeded
}

func (s *Session) identify(d domain.Descriptor) (matcher.Match, bool) {
	if s.identifier == nil {
		return matcher.Match{}, false
	}
	return s.identifier.FindBestMatch(d)
}
