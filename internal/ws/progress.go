package ws

import (
	"github.com/saturnino-fabrica-de-software/sorria/internal/liveness"
)

// progressTracker turns runner ticks into events, sending status and hint
// only when they change
type progressTracker struct {
	client     *Client
	lastStatus liveness.Status
	lastHint   liveness.Hint
}

func newProgressTracker(client *Client) *progressTracker {
	return &progressTracker{client: client}
}

func (p *progressTracker) observe(s *liveness.Session, r liveness.TickResult) {
	if r.Restarted {
		p.restarted(s, r.Hint)
		return
	}

	p.status(s)
	p.client.Emit(EventProgress, ProgressData{
		SmileCount:      s.SmileCount,
		Required:        s.Policy().RequiredSmiles,
		FacePositioned:  s.FacePositioned,
		SmileDetected:   s.SmileDetected,
		SmileConfidence: s.SmileConfidence,
		Faces:           r.Faces,
	})
	p.hint(r.Hint)
}

func (p *progressTracker) status(s *liveness.Session) {
	if s.Status == p.lastStatus {
		return
	}
	p.lastStatus = s.Status
	p.client.Emit(EventStatus, StatusData{Status: s.Status})
}

func (p *progressTracker) hint(h liveness.Hint) {
	if h == p.lastHint {
		return
	}
	p.lastHint = h
	if h != liveness.HintNone {
		p.client.Emit(EventHint, HintData{Hint: string(h)})
	}
}

func (p *progressTracker) restarted(s *liveness.Session, reason liveness.Hint) {
	p.lastHint = liveness.HintNone
	p.client.Emit(EventRestarted, RestartedData{Restarts: s.Restarts, Reason: string(reason)})
	p.lastStatus = ""
	p.status(s)
}
