package liveness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor"
)

const (
	// DefaultInterval between the end of one tick and the start of the next
	DefaultInterval = 100 * time.Millisecond
	// DefaultDetectTimeout bounds a single Detect call
	DefaultDetectTimeout = 5 * time.Second
	// maxConsecutiveTimeouts turns a stalled extractor into a fatal error
	maxConsecutiveTimeouts = 5
)

// FrameSource yields the latest captured frame. ok is false while the source
// is still initializing.
type FrameSource interface {
	Snapshot(ctx context.Context) (frame []byte, ok bool, err error)
}

// Command is an out-of-band instruction delivered between ticks
type Command int

const (
	// CommandConfirmCaptcha opens the captcha gate
	CommandConfirmCaptcha Command = iota + 1
	// CommandRestart discards progress and starts over
	CommandRestart
)

// Runner drives a Session: one tick at a time, the next scheduled Interval
// after the previous one completes
type Runner struct {
	Extractor     extractor.Extractor
	Source        FrameSource
	Interval      time.Duration
	DetectTimeout time.Duration
	Logger        *slog.Logger

	// Commands is read between ticks. A nil channel is never ready.
	Commands <-chan Command

	// OnTick observes every applied tick and command. Terminal outcomes are
	// reported through Run's return value.
	OnTick func(s *Session, r TickResult)

	// Now and After default to time.Now and time.After
	Now   func() time.Time
	After func(d time.Duration) <-chan time.Time
}

// Run ticks until the session terminates or ctx is cancelled. It returns nil
// on success, the session error on failure and ctx.Err() on cancellation.
// A detection that completes after cancellation is discarded.
func (r *Runner) Run(ctx context.Context, s *Session) error {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	after := r.After
	if after == nil {
		after = time.After
	}

	timeouts := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if s.Status == StatusCapturing {
			result, err := r.tick(ctx, s)
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, context.DeadlineExceeded):
				timeouts++
				if timeouts >= maxConsecutiveTimeouts {
					s.Fail(fmt.Errorf("%w: %d consecutive detect timeouts", extractor.ErrUnavailable, timeouts))
				}
			case err != nil:
				s.Fail(err)
			default:
				timeouts = 0
				r.notify(s, result)
			}
		}

		if s.Done() {
			return s.Err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-r.Commands:
			r.apply(s, cmd)
		case <-after(interval):
		}
	}
}

// tick returns a nil error for skipped ticks (source not ready, bad frame)
func (r *Runner) tick(ctx context.Context, s *Session) (TickResult, error) {
	frame, ok, err := r.Source.Snapshot(ctx)
	if err != nil {
		return TickResult{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if !ok {
		return TickResult{}, nil
	}

	timeout := r.DetectTimeout
	if timeout <= 0 {
		timeout = DefaultDetectTimeout
	}
	detectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	at := r.now()
	detections, err := r.Extractor.Detect(detectCtx, frame)
	if ctx.Err() != nil {
		return TickResult{}, ctx.Err()
	}
	if err != nil {
		if errors.Is(err, extractor.ErrInvalidFrame) {
			r.logger().Debug("skipping invalid frame", "error", err)
			return TickResult{}, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			r.logger().Warn("detect timed out", "timeout", timeout)
			return TickResult{}, context.DeadlineExceeded
		}
		return TickResult{}, err
	}

	return s.Tick(at, detections), nil
}

func (r *Runner) apply(s *Session, cmd Command) {
	switch cmd {
	case CommandConfirmCaptcha:
		if s.ConfirmCaptcha() {
			r.notify(s, TickResult{})
		}
	case CommandRestart:
		s.Restart()
		r.notify(s, TickResult{Restarted: true})
	}
}

func (r *Runner) notify(s *Session, result TickResult) {
	if r.OnTick != nil {
		r.OnTick(s, result)
	}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
