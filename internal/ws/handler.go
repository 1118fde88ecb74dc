package ws

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/sorria/internal/captcha"
	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor"
	"github.com/saturnino-fabrica-de-software/sorria/internal/liveness"
	"github.com/saturnino-fabrica-de-software/sorria/internal/service"
)

const (
	// DefaultMaxFrameBytes limits a single camera frame
	DefaultMaxFrameBytes = 2 << 20

	localsApplication = "capture_application"
	localsSession     = "capture_session"
	localsRedirect    = "capture_redirect"
	localsUserID      = "capture_user_id"
	localsRemoteIP    = "capture_remote_ip"
)

// CaptureService is implemented by *service.CaptureService
type CaptureService interface {
	NewLoginSession(ctx context.Context) (*liveness.Session, error)
	NewRegistrationSession(ctx context.Context, userID uuid.UUID) (*liveness.Session, error)
	CompleteLogin(ctx context.Context, sess *liveness.Session, app *domain.Application, originalRedirect string) (*service.IssuedCode, error)
	CompleteRegistration(ctx context.Context, userID uuid.UUID, sess *liveness.Session) error
	RecordFailure(ctx context.Context, flow liveness.Flow, appID uuid.UUID, err error)
}

// HandOffResolver is implemented by *service.ApplicationService
type HandOffResolver interface {
	ResolveHandOff(ctx context.Context, ticket string) (*domain.Application, error)
}

// Observer receives capture metrics. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveSession(flow, outcome string)
	ObserveDetect(elapsed time.Duration)
}

type HandlerConfig struct {
	Interval      time.Duration
	DetectTimeout time.Duration
	MaxFrameBytes int64
}

// CaptureHandler serves the login and registration capture sockets
type CaptureHandler struct {
	capture   CaptureService
	apps      HandOffResolver
	extractor extractor.Extractor
	verifier  captcha.Verifier
	hub       *Hub
	observer  Observer
	logger    *slog.Logger
	cfg       HandlerConfig
}

func NewCaptureHandler(
	capture CaptureService,
	apps HandOffResolver,
	ext extractor.Extractor,
	verifier captcha.Verifier,
	hub *Hub,
	observer Observer,
	logger *slog.Logger,
	cfg HandlerConfig,
) *CaptureHandler {
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = DefaultMaxFrameBytes
	}
	if observer != nil {
		ext = timedExtractor{Extractor: ext, observe: observer.ObserveDetect}
	}
	return &CaptureHandler{
		capture:   capture,
		apps:      apps,
		extractor: ext,
		verifier:  verifier,
		hub:       hub,
		observer:  observer,
		logger:    logger,
		cfg:       cfg,
	}
}

// PrepareLogin validates the hand-off ticket and builds the session before
// the upgrade, so a bad ticket is answered with a plain HTTP error
func (h *CaptureHandler) PrepareLogin(c *fiber.Ctx) error {
	app, err := h.apps.ResolveHandOff(c.UserContext(), c.Query("hand_off"))
	if err != nil {
		return err
	}

	sess, err := h.capture.NewLoginSession(c.UserContext())
	if err != nil {
		return err
	}

	c.Locals(localsApplication, app)
	c.Locals(localsSession, sess)
	c.Locals(localsRedirect, c.Query("redirect_url"))
	c.Locals(localsRemoteIP, c.IP())
	return c.Next()
}

// PrepareRegistration builds an enrollment session for the user_id query parameter
func (h *CaptureHandler) PrepareRegistration(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	sess, err := h.capture.NewRegistrationSession(c.UserContext(), userID)
	if err != nil {
		return err
	}

	c.Locals(localsUserID, userID)
	c.Locals(localsSession, sess)
	c.Locals(localsRemoteIP, c.IP())
	return c.Next()
}

func (h *CaptureHandler) Login() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		app, ok := c.Locals(localsApplication).(*domain.Application)
		sess, ok2 := c.Locals(localsSession).(*liveness.Session)
		if !ok || !ok2 {
			_ = c.Close()
			return
		}
		redirect, _ := c.Locals(localsRedirect).(string)
		remoteIP, _ := c.Locals(localsRemoteIP).(string)
		c.SetReadLimit(h.cfg.MaxFrameBytes)

		h.Serve(context.Background(), c, remoteIP, sess, app.ID, func(ctx context.Context, s *liveness.Session) (SucceededData, error) {
			issued, err := h.capture.CompleteLogin(ctx, s, app, redirect)
			if err != nil {
				return SucceededData{}, err
			}
			return SucceededData{RedirectURL: issued.RedirectURL}, nil
		})
	})
}

func (h *CaptureHandler) Register() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		userID, ok := c.Locals(localsUserID).(uuid.UUID)
		sess, ok2 := c.Locals(localsSession).(*liveness.Session)
		if !ok || !ok2 {
			_ = c.Close()
			return
		}
		remoteIP, _ := c.Locals(localsRemoteIP).(string)
		c.SetReadLimit(h.cfg.MaxFrameBytes)

		h.Serve(context.Background(), c, remoteIP, sess, uuid.Nil, func(ctx context.Context, s *liveness.Session) (SucceededData, error) {
			return SucceededData{}, h.capture.CompleteRegistration(ctx, userID, s)
		})
	})
}

// FinishFunc turns a succeeded session into the success payload
type FinishFunc func(ctx context.Context, sess *liveness.Session) (SucceededData, error)

// Serve runs sess over conn until it succeeds, the client leaves, or a
// failure the user cannot retry. After a user-category failure the client
// may send a retry control message to start over.
func (h *CaptureHandler) Serve(parent context.Context, conn Conn, remoteIP string, sess *liveness.Session, appID uuid.UUID, finish FinishFunc) {
	flow := sess.Policy().Flow
	logger := h.logger.With("flow", flow, "remote_ip", remoteIP)

	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	client := NewClient(conn, h.verifier, remoteIP, logger, cancel)
	if !h.hub.Register(client, flow) {
		_ = conn.Close()
		return
	}
	defer h.hub.Unregister(client)

	written := make(chan struct{})
	go func() {
		client.WritePump()
		close(written)
	}()
	go client.ReadPump(ctx)

	defer func() {
		client.Close()
		<-written
		_ = conn.Close()
	}()

	tracker := newProgressTracker(client)
	runner := &liveness.Runner{
		Extractor:     h.extractor,
		Source:        client,
		Interval:      h.cfg.Interval,
		DetectTimeout: h.cfg.DetectTimeout,
		Logger:        logger,
		Commands:      client.Commands(),
		OnTick:        tracker.observe,
	}

	tracker.status(sess)
	for {
		err := runner.Run(ctx, sess)
		if err == nil {
			data, finishErr := finish(context.WithoutCancel(ctx), sess)
			if finishErr == nil {
				client.Emit(EventSucceeded, data)
				h.observeSession(flow, "succeeded")
				logger.Info("capture succeeded", "restarts", sess.Restarts)
				return
			}
			err = finishErr
			var appErr *domain.AppError
			if !errors.As(err, &appErr) {
				err = domain.ErrInternal.WithError(err)
			}
		}

		if ctx.Err() != nil {
			cause := context.Cause(ctx)
			if errors.Is(cause, ErrClientGone) {
				h.observeSession(flow, "abandoned")
				return
			}
			err = cause
		}

		category := classify(err)
		h.capture.RecordFailure(context.WithoutCancel(ctx), flow, appID, err)
		h.observeSession(flow, "failed_"+string(category))
		logger.Warn("capture failed", "category", category, "error", err)
		client.Emit(EventFailed, FailedData{Category: category, Message: failureMessage(err, category)})

		if category == liveness.CategoryConfiguration || ctx.Err() != nil || !retryable(err) {
			return
		}
		if !awaitRetry(ctx, client.Commands()) {
			h.observeSession(flow, "abandoned")
			return
		}

		sess.Restart()
		tracker.restarted(sess, "")
	}
}

func (h *CaptureHandler) observeSession(flow liveness.Flow, outcome string) {
	if h.observer != nil {
		h.observer.ObserveSession(string(flow), outcome)
	}
}

// awaitRetry blocks until a retry command; captcha confirmations that arrive
// after a failure are ignored
func awaitRetry(ctx context.Context, commands <-chan liveness.Command) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case cmd := <-commands:
			if cmd == liveness.CommandRestart {
				return true
			}
		}
	}
}

// retryable reports whether a new capture attempt on the same socket can
// succeed. A template enrolled concurrently for the same user cannot.
func retryable(err error) bool {
	return !errors.Is(err, domain.ErrTemplateExists)
}

// classify extends liveness.Classify with failures raised outside the runner
func classify(err error) liveness.Category {
	if errors.Is(err, ErrShuttingDown) {
		return liveness.CategoryConfiguration
	}
	if category := liveness.Classify(err); category == liveness.CategoryConfiguration {
		return category
	}

	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.StatusCode >= 500 {
		return liveness.CategoryConfiguration
	}
	return liveness.CategoryUser
}

func failureMessage(err error, category liveness.Category) string {
	if category == liveness.CategoryConfiguration {
		return "Face capture is temporarily unavailable"
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// timedExtractor reports the latency of every Detect call
type timedExtractor struct {
	extractor.Extractor
	observe func(time.Duration)
}

func (t timedExtractor) Detect(ctx context.Context, frame []byte) ([]extractor.Detection, error) {
	start := time.Now()
	detections, err := t.Extractor.Detect(ctx, frame)
	t.observe(time.Since(start))
	return detections, err
}

// UpgradeMiddleware rejects plain HTTP requests on capture routes
func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
