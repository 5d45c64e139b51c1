package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-capture/errors"
	"github.com/johnquangdev/meeting-capture/internal/domain/entities"
	"github.com/johnquangdev/meeting-capture/internal/domain/repositories"
	"github.com/johnquangdev/meeting-capture/internal/usecase/capture"
	"github.com/johnquangdev/meeting-capture/internal/usecase/session"
)

// AgentFactory opens a fresh remote session agent for one dispatch
type AgentFactory func() (session.Agent, error)

// RecorderFactory builds the audio recorder for one session
type RecorderFactory func(meetingID string, startedAt time.Time) capture.Recorder

// ArtifactUploader pushes finished recordings to object storage. Optional;
// a nil uploader keeps artifacts on local disk only.
type ArtifactUploader interface {
	UploadRecording(ctx context.Context, localPath string) (string, error)
}

// Config holds per-dispatch policy
type Config struct {
	Driver             session.Config
	ScreenshotsDir     string
	SnapshotInterval   time.Duration
	StopTimeout        time.Duration
	RetryOnJoinFailure bool
}

// Orchestrator runs one meeting capture end to end: claim, join, capture,
// end detection, teardown and persistence. One Dispatch call owns one
// session.
type Orchestrator struct {
	meetings    repositories.MeetingRepository
	screenshots repositories.ScreenshotRepository
	status      repositories.StatusStore
	newAgent    AgentFactory
	newRecorder RecorderFactory
	uploader    ArtifactUploader
	cfg         Config
	logger      *zap.Logger
}

func NewOrchestrator(
	meetings repositories.MeetingRepository,
	screenshots repositories.ScreenshotRepository,
	status repositories.StatusStore,
	newAgent AgentFactory,
	newRecorder RecorderFactory,
	uploader ArtifactUploader,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		meetings:    meetings,
		screenshots: screenshots,
		status:      status,
		newAgent:    newAgent,
		newRecorder: newRecorder,
		uploader:    uploader,
		cfg:         cfg,
		logger:      logger,
	}
}

// Dispatch claims the meeting and drives its capture session to completion.
// The claim happens BEFORE the join attempt, so a meeting is never
// dispatched twice even if the join then fails; a lost claim race is a
// silent no-op.
func (o *Orchestrator) Dispatch(ctx context.Context, m *entities.Meeting) error {
	claimed, err := o.meetings.TrySetJoined(ctx, m.ID)
	if err != nil {
		return err
	}
	if !claimed {
		if o.logger != nil {
			o.logger.Debug("meeting already claimed by another dispatch",
				zap.String("meeting_id", m.ID.String()),
			)
		}
		return nil
	}

	meetingID := m.ID.String()
	o.setStatus(ctx, meetingID, string(entities.CaptureStatusJoining))

	agent, err := o.newAgent()
	if err != nil {
		return o.failJoin(ctx, m, apperrors.ErrAutomationFailed("open browser agent", err))
	}

	driver := session.NewDriver(agent, o.cfg.Driver, o.logger)
	if err := driver.Join(ctx, m.URL, m.BotName); err != nil {
		// Driver already released the agent
		return o.failJoin(ctx, m, err)
	}

	joinedAt := time.Now()
	if err := o.meetings.MarkCapturing(ctx, m.ID, joinedAt); err != nil && o.logger != nil {
		o.logger.Error("❌ Cannot mark meeting capturing", zap.String("meeting_id", meetingID), zap.Error(err))
	}
	o.setStatus(ctx, meetingID, string(entities.CaptureStatusCapturing))

	// One shared cancellation for the whole capture session; end detection,
	// snapshot failure and external shutdown all land here
	sessionCtx, sessionCancel := context.WithCancel(ctx)
	defer sessionCancel()

	recorder := o.newRecorder(meetingID, joinedAt)
	sup := capture.NewSupervisor(agent, recorder, capture.Config{
		MeetingID:        meetingID,
		ScreenshotsDir:   o.cfg.ScreenshotsDir,
		SnapshotInterval: o.cfg.SnapshotInterval,
	}, o.logger)

	if err := sup.Start(sessionCtx, sessionCancel); err != nil && o.logger != nil {
		// Recording is degraded but the session continues
		o.logger.Warn("⚠️ Capture running without audio", zap.String("meeting_id", meetingID), zap.Error(err))
	}
	monitorDone := driver.StartEndMonitor(sessionCtx, sessionCancel)

	<-sessionCtx.Done()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), o.cfg.StopTimeout)
	stopErr := sup.Stop(stopCtx)
	cancelStop()
	agent.Close()
	<-monitorDone

	o.persistOutcome(m, sup.Artifact(), stopErr)
	return nil
}

// failJoin records the failure and, when transient failures are configured
// to re-arm, releases the claim so a later tick can try again
func (o *Orchestrator) failJoin(ctx context.Context, m *entities.Meeting, err error) error {
	meetingID := m.ID.String()
	if markErr := o.meetings.MarkFailed(ctx, m.ID, apperrors.Reason(err)); markErr != nil && o.logger != nil {
		o.logger.Error("❌ Cannot mark meeting failed", zap.String("meeting_id", meetingID), zap.Error(markErr))
	}

	if o.cfg.RetryOnJoinFailure && apperrors.CodeOf(err) == apperrors.ErrorCode_AUTOMATION_TRANSIENT {
		if clearErr := o.meetings.ClearJoined(ctx, m.ID); clearErr != nil && o.logger != nil {
			o.logger.Error("❌ Cannot re-arm meeting", zap.String("meeting_id", meetingID), zap.Error(clearErr))
		} else if o.logger != nil {
			o.logger.Info("🔁 Meeting re-armed after transient join failure", zap.String("meeting_id", meetingID))
		}
	}

	o.clearStatus(meetingID)
	return err
}

// persistOutcome records screenshots, uploads the recording when an
// uploader is configured, and finalizes the meeting row. It runs on a
// fresh context because the session context is already cancelled.
func (o *Orchestrator) persistOutcome(m *entities.Meeting, artifact *capture.Artifact, stopErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	meetingID := m.ID.String()

	for _, shot := range artifact.Screenshots() {
		record := entities.NewScreenshot(m.ID, shot.Path, shot.CapturedAt)
		if err := o.screenshots.Create(ctx, record); err != nil && o.logger != nil {
			o.logger.Error("❌ Cannot persist screenshot record",
				zap.String("meeting_id", meetingID),
				zap.String("path", shot.Path),
				zap.Error(err),
			)
		}
	}

	audioPath := artifact.AudioPath()
	audioURL := ""
	if audioPath != "" && o.uploader != nil {
		url, err := o.uploader.UploadRecording(ctx, audioPath)
		if err != nil {
			if o.logger != nil {
				o.logger.Error("❌ Recording upload failed, keeping local copy",
					zap.String("meeting_id", meetingID),
					zap.String("path", audioPath),
					zap.Error(err),
				)
			}
		} else {
			audioURL = url
		}
	}

	if err := o.meetings.FinalizeEnded(ctx, m.ID, audioPath, audioURL); err != nil && o.logger != nil {
		o.logger.Error("❌ Cannot finalize meeting", zap.String("meeting_id", meetingID), zap.Error(err))
	}

	o.clearStatus(meetingID)

	if o.logger != nil {
		o.logger.Info("✅ Meeting capture finished",
			zap.String("meeting_id", meetingID),
			zap.String("audio_path", audioPath),
			zap.Int("screenshots", len(artifact.Screenshots())),
			zap.Bool("degraded", stopErr != nil),
		)
	}
}

func (o *Orchestrator) setStatus(ctx context.Context, meetingID, state string) {
	if o.status == nil {
		return
	}
	if err := o.status.SetSessionState(ctx, meetingID, state); err != nil && o.logger != nil {
		o.logger.Debug("session status write failed", zap.String("meeting_id", meetingID), zap.Error(err))
	}
}

func (o *Orchestrator) clearStatus(meetingID string) {
	if o.status == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.status.ClearSession(ctx, meetingID); err != nil && o.logger != nil {
		o.logger.Debug("session status clear failed", zap.String("meeting_id", meetingID), zap.Error(err))
	}
}
