package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-capture/errors"
)

// SnapshotAgent is the slice of the remote session agent the snapshot loop
// needs
type SnapshotAgent interface {
	Screenshot(ctx context.Context) ([]byte, error)
	IsReachable(ctx context.Context) bool
}

// Recorder supervises one audio recording child process
type Recorder interface {
	Start() error
	Stop(ctx context.Context) error
	OutputPath() string
}

// Config holds the supervisor's capture policy
type Config struct {
	MeetingID        string
	ScreenshotsDir   string
	SnapshotInterval time.Duration
}

// Supervisor runs the audio recorder and the periodic screenshot loop for
// one session. Both sides hang off one shared cancellation: when it fires,
// capture winds down regardless of which component noticed the end first.
type Supervisor struct {
	agent    SnapshotAgent
	recorder Recorder
	cfg      Config
	artifact *Artifact
	logger   *zap.Logger

	cancel   context.CancelFunc
	loopDone chan struct{}

	recorderStarted bool
}

func NewSupervisor(agent SnapshotAgent, recorder Recorder, cfg Config, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		agent:    agent,
		recorder: recorder,
		cfg:      cfg,
		artifact: NewArtifact(),
		logger:   logger,
		loopDone: make(chan struct{}),
	}
}

// Artifact exposes the accumulated capture outputs
func (s *Supervisor) Artifact() *Artifact {
	return s.artifact
}

// Start launches the recorder and the snapshot loop under the given shared
// cancellation. A recorder launch failure is returned so the caller can
// record it, but the snapshot loop still runs: a session with screenshots
// and no audio beats a session with nothing.
func (s *Supervisor) Start(ctx context.Context, cancel context.CancelFunc) error {
	s.cancel = cancel

	var recErr error
	if err := s.recorder.Start(); err != nil {
		recErr = apperrors.ErrRecorderStart(err)
		if s.logger != nil {
			s.logger.Error("❌ Audio recorder failed to start, continuing with screenshots only",
				zap.String("meeting_id", s.cfg.MeetingID),
				zap.Error(err),
			)
		}
	} else {
		s.recorderStarted = true
		s.artifact.SetAudioPath(s.recorder.OutputPath())
		if s.logger != nil {
			s.logger.Info("🎙️ Audio recording started",
				zap.String("meeting_id", s.cfg.MeetingID),
				zap.String("output", s.recorder.OutputPath()),
			)
		}
	}

	go s.snapshotLoop(ctx)
	return recErr
}

// snapshotLoop takes the arrival screenshot immediately, then one frame per
// interval until the shared cancellation fires. A failed or unreachable
// snapshot is itself an end signal: it fires the shared cancellation.
func (s *Supervisor) snapshotLoop(ctx context.Context) {
	defer close(s.loopDone)

	if err := os.MkdirAll(s.cfg.ScreenshotsDir, 0o755); err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Cannot create screenshots directory",
				zap.String("dir", s.cfg.ScreenshotsDir),
				zap.Error(err),
			)
		}
		s.cancel()
		return
	}

	// Arrival frame, named so the joined moment is easy to find
	arrival := filepath.Join(s.cfg.ScreenshotsDir, fmt.Sprintf("%s_joined.png", s.cfg.MeetingID))
	if !s.takeSnapshot(ctx, arrival) {
		return
	}

	ticker := time.NewTicker(s.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.agent.IsReachable(ctx) {
				if s.logger != nil {
					s.logger.Warn("⚠️ Agent unreachable during snapshot loop",
						zap.String("meeting_id", s.cfg.MeetingID),
					)
				}
				s.cancel()
				return
			}
			name := fmt.Sprintf("%s_%s.png", s.cfg.MeetingID, time.Now().Format("20060102_150405"))
			if !s.takeSnapshot(ctx, filepath.Join(s.cfg.ScreenshotsDir, name)) {
				return
			}
		}
	}
}

// takeSnapshot captures and persists one frame. It reports false when the
// loop must stop, after firing the shared cancellation.
func (s *Supervisor) takeSnapshot(ctx context.Context, path string) bool {
	data, err := s.agent.Screenshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Screenshot failed, treating session as ended",
					zap.String("meeting_id", s.cfg.MeetingID),
					zap.Error(err),
				)
			}
			s.cancel()
		}
		return false
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Cannot persist screenshot",
				zap.String("path", path),
				zap.Error(err),
			)
		}
		// Disk trouble is not a session-end signal; keep looping
		return true
	}
	s.artifact.AppendScreenshot(path, time.Now())
	return true
}

// Stop winds capture down: it fires the shared cancellation, waits for the
// snapshot loop (bounded by ctx), then stops the recorder. A recorder that
// had to be force-killed yields a degraded-shutdown error; the artifacts
// captured so far remain valid either way.
func (s *Supervisor) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	select {
	case <-s.loopDone:
	case <-ctx.Done():
		if s.logger != nil {
			s.logger.Warn("⚠️ Snapshot loop did not exit before deadline",
				zap.String("meeting_id", s.cfg.MeetingID),
			)
		}
	}

	if !s.recorderStarted {
		return nil
	}
	if err := s.recorder.Stop(ctx); err != nil {
		if s.logger != nil {
			s.logger.Warn("⚠️ Recorder stop degraded",
				zap.String("meeting_id", s.cfg.MeetingID),
				zap.Error(err),
			)
		}
		return apperrors.ErrDegradedShutdown(s.cfg.MeetingID)
	}
	if s.logger != nil {
		s.logger.Info("🛑 Capture stopped",
			zap.String("meeting_id", s.cfg.MeetingID),
			zap.Int("screenshots", len(s.artifact.Screenshots())),
		)
	}
	return nil
}
