// Package matcher identifies a face descriptor against enrolled templates by
// Euclidean distance.
package matcher

import (
	"math"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

const (
	// RegistrationThreshold rejects near-duplicates when enrolling a new face
	RegistrationThreshold = 0.4
	// LoginThreshold accepts an identification during login
	LoginThreshold = 0.6
)

// Labeled is the descriptor list enrolled for one user
type Labeled struct {
	Label       uuid.UUID
	Descriptors []domain.Descriptor
}

// Match is the outcome of FindBestMatch
type Match struct {
	Label    uuid.UUID
	Distance float64
}

// Matcher is immutable and safe for concurrent use
type Matcher struct {
	entries   []Labeled
	threshold float64
}

// New creates a Matcher over entries with the given distance threshold
func New(entries []Labeled, threshold float64) *Matcher {
	return &Matcher{
		entries:   entries,
		threshold: threshold,
	}
}

// FromTemplates builds a Matcher from enrolled templates
func FromTemplates(templates []domain.EnrolledTemplate, threshold float64) *Matcher {
	entries := make([]Labeled, 0, len(templates))
	for _, t := range templates {
		entries = append(entries, Labeled{Label: t.UserID, Descriptors: t.Descriptors})
	}
	return New(entries, threshold)
}

// Threshold returns the distance threshold
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Len returns the number of enrolled labels
func (m *Matcher) Len() int {
	return len(m.entries)
}

// FindBestMatch returns the label whose closest descriptor is globally nearest
// to query. ok is false ("unknown") when nothing lies within the threshold.
// The returned distance is the best found even when ok is false.
func (m *Matcher) FindBestMatch(query domain.Descriptor) (match Match, ok bool) {
	match.Distance = math.Inf(1)
	if len(query) == 0 {
		return match, false
	}

	for _, entry := range m.entries {
		for _, d := range entry.Descriptors {
			dist, comparable := EuclideanDistance(query, d)
			if !comparable {
				continue
			}
			if dist < match.Distance {
				match = Match{Label: entry.Label, Distance: dist}
			}
		}
	}

	if match.Distance > m.threshold {
		return Match{Distance: match.Distance}, false
	}
	return match, true
}

// EuclideanDistance returns the L2 distance between a and b. comparable is false
// when the lengths differ.
func EuclideanDistance(a, b domain.Descriptor) (dist float64, comparable bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), true
}
