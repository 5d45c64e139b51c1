package session

import (
	"context"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-capture/errors"
)

// State is the transient per-session lifecycle state
type State string

const (
	StateIdle              State = "idle"
	StateLoading           State = "loading"
	StateAwaitingNameField State = "awaiting_name_field"
	StateJoining           State = "joining"
	StateInSession         State = "in_session"
	StateEnded             State = "ended"
	StateFailed            State = "failed"
)

// Config holds the driver's timing policy
type Config struct {
	// Page load is retried this many times with a fixed backoff between
	// attempts before the join fails
	PageLoadRetries int
	PageLoadBackoff time.Duration

	// NameFieldTimeout bounds the wait for the display-name input
	NameFieldTimeout time.Duration

	// ControlTimeout bounds the wait for each join control label
	ControlTimeout time.Duration

	// EndPollInterval is the cadence of the end-of-session monitor
	EndPollInterval time.Duration
}

// Driver walks one remote session through join, mute, overlay dismissal and
// end detection. One driver instance serves exactly one session attempt.
type Driver struct {
	agent  Agent
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	state  State
	reason string

	endOnce     sync.Once
	monitorDone chan struct{}
}

// NewDriver creates a driver over the given agent
func NewDriver(agent Agent, cfg Config, logger *zap.Logger) *Driver {
	if cfg.PageLoadRetries < 1 {
		cfg.PageLoadRetries = 1
	}
	return &Driver{
		agent:       agent,
		cfg:         cfg,
		logger:      logger,
		state:       StateIdle,
		monitorDone: make(chan struct{}),
	}
}

// State returns the current lifecycle state
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// FailureReason returns the terminal failure reason, empty unless Failed
func (d *Driver) FailureReason() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reason
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// fail records the terminal failure, releases the agent and returns err
func (d *Driver) fail(err error) error {
	d.mu.Lock()
	d.state = StateFailed
	d.reason = apperrors.Reason(err)
	d.mu.Unlock()
	d.agent.Close()
	if d.logger != nil {
		d.logger.Error("❌ Session join failed",
			zap.String("reason", d.reason),
			zap.Error(err),
		)
	}
	return err
}

// Join drives the session from Idle to InSession. Every wait on the
// asynchronously rendered UI is bounded; there are no unbounded sleeps.
// On any failure the state machine lands in Failed and the agent handle is
// released.
func (d *Driver) Join(ctx context.Context, url, botName string) error {
	// Idle → Loading: open the page, bounded retries with fixed backoff
	d.setState(StateLoading)
	openPage := func() error {
		loadCtx, cancel := context.WithTimeout(ctx, d.cfg.ControlTimeout)
		defer cancel()
		return d.agent.Open(loadCtx, url)
	}
	bo := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(d.cfg.PageLoadBackoff),
		uint64(d.cfg.PageLoadRetries-1),
	)
	if err := backoff.Retry(openPage, backoff.WithContext(bo, ctx)); err != nil {
		return d.fail(apperrors.ErrPageLoad(err))
	}

	// Loading → AwaitingNameField: bounded wait for the name input
	d.setState(StateAwaitingNameField)
	nameCtx, cancelName := context.WithTimeout(ctx, d.cfg.NameFieldTimeout)
	err := d.agent.WaitVisible(nameCtx, nameFieldSelector)
	cancelName()
	if err != nil {
		return d.fail(apperrors.ErrNameFieldTimeout(err))
	}

	// AwaitingNameField → Joining
	d.setState(StateJoining)
	typeCtx, cancelType := context.WithTimeout(ctx, d.cfg.ControlTimeout)
	err = d.agent.SendKeys(typeCtx, nameFieldSelector, botName)
	cancelType()
	if err != nil {
		return d.fail(apperrors.ErrAutomationFailed("set display name", err))
	}

	// Mute mic and camera if the controls are present. Some session UIs
	// pre-disable them, so absence is not an error.
	d.clickIfPresent(ctx, muteMicSelector, "mute microphone")
	d.clickIfPresent(ctx, muteCameraSelector, "mute camera")

	// Dismiss any modal overlay found by text match
	d.clickIfPresent(ctx, dismissSelector, "dismiss overlay")

	// Locate the join control: two alternative labels, tried in order
	if err := d.clickJoinControl(ctx); err != nil {
		return d.fail(err)
	}

	// Joining → InSession: optimistic, the UI offers no distinct joined
	// signal; end monitoring starts immediately
	d.setState(StateInSession)
	if d.logger != nil {
		d.logger.Info("✅ Session joined", zap.String("url", url), zap.String("bot_name", botName))
	}
	return nil
}

// clickIfPresent clicks the selector when it matches something; absence and
// click failures are best-effort and only logged
func (d *Driver) clickIfPresent(ctx context.Context, selector, what string) {
	stepCtx, cancel := context.WithTimeout(ctx, d.cfg.ControlTimeout)
	defer cancel()

	present, err := d.agent.ElementExists(stepCtx, selector)
	if err != nil || !present {
		return
	}
	if err := d.agent.Click(stepCtx, selector); err != nil && d.logger != nil {
		d.logger.Debug("best-effort click failed",
			zap.String("step", what),
			zap.Error(err),
		)
	}
}

func (d *Driver) clickJoinControl(ctx context.Context) error {
	for _, selector := range []string{joinNowSelector, askToJoinSelector} {
		waitCtx, cancel := context.WithTimeout(ctx, d.cfg.ControlTimeout)
		err := d.agent.WaitVisible(waitCtx, selector)
		cancel()
		if err != nil {
			continue
		}

		clickCtx, cancelClick := context.WithTimeout(ctx, d.cfg.ControlTimeout)
		err = d.agent.Click(clickCtx, selector)
		cancelClick()
		if err != nil {
			return apperrors.ErrAutomationFailed("activate join control", err)
		}
		return nil
	}
	return apperrors.ErrJoinControlMissing()
}

// StartEndMonitor launches the background end-of-session monitor. It polls
// for the end-of-call text; an unreachable agent is treated identically to
// an explicit end signal, because the agent cannot be resumed. On
// detection it releases the agent and fires cancel, the shared capture
// cancellation. The returned channel closes when the monitor exits.
func (d *Driver) StartEndMonitor(ctx context.Context, cancel context.CancelFunc) <-chan struct{} {
	go func() {
		defer close(d.monitorDone)

		ticker := time.NewTicker(d.cfg.EndPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				// External shutdown; release the agent on the way out
				d.signalEnd(cancel)
				return
			case <-ticker.C:
				if !d.agent.IsReachable(ctx) {
					if d.logger != nil {
						d.logger.Warn("⚠️ Remote agent unreachable, treating session as ended")
					}
					d.signalEnd(cancel)
					return
				}

				pollCtx, cancelPoll := context.WithTimeout(ctx, d.cfg.EndPollInterval)
				ended, err := d.agent.ElementExists(pollCtx, endOfCallSelector)
				cancelPoll()
				if err != nil || ended {
					d.signalEnd(cancel)
					return
				}
			}
		}
	}()
	return d.monitorDone
}

// signalEnd transitions to Ended exactly once: a second, later end signal
// for the same session is a no-op.
func (d *Driver) signalEnd(cancel context.CancelFunc) {
	d.endOnce.Do(func() {
		d.mu.Lock()
		if d.state != StateFailed {
			d.state = StateEnded
		}
		d.mu.Unlock()
		d.agent.Close()
		cancel()
		if d.logger != nil {
			d.logger.Info("🏁 Session ended")
		}
	})
}
