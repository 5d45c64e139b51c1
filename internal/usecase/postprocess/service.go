package postprocess

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-capture/internal/domain/entities"
	"github.com/johnquangdev/meeting-capture/internal/domain/repositories"
	"github.com/johnquangdev/meeting-capture/pkg/jobcontext"
)

// Submitter hands a finished recording to the transcription provider
type Submitter interface {
	SubmitRecording(ctx context.Context, recordingURL string, metadata map[string]string) (string, error)
}

// RecordingUploader makes a local recording reachable by URL. Optional; a
// nil uploader means only meetings that already carry a URL are handed off.
type RecordingUploader interface {
	UploadRecording(ctx context.Context, localPath string) (string, error)
}

// Config holds the hand-off worker policy
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	JobTimeout   time.Duration
	MaxAttempts  int

	// RetryBaseDelay seeds the exponential backoff between submit attempts
	RetryBaseDelay time.Duration
}

// Service scans for ended meetings with audio and hands each one off to
// transcription exactly once. The claim is a conditional update, so two
// workers scanning the same batch never double-submit.
type Service struct {
	meetings  repositories.MeetingRepository
	submitter Submitter
	uploader  RecordingUploader
	cfg       Config
	logger    *zap.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	running bool
}

func NewService(meetings repositories.MeetingRepository, submitter Submitter, uploader RecordingUploader, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 10
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	return &Service{
		meetings:  meetings,
		submitter: submitter,
		uploader:  uploader,
		cfg:       cfg,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the polling loop
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("🚀 Transcription hand-off worker started",
			zap.Duration("poll_interval", s.cfg.PollInterval),
		)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.ProcessOnce(ctx)
			}
		}
	}()
}

// Stop stops the polling loop and waits for the current pass to finish
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
}

// ProcessOnce runs one scan-and-submit pass. Exported so a single pass can
// be driven directly.
func (s *Service) ProcessOnce(ctx context.Context) {
	meetings, err := s.meetings.FindAwaitingTranscription(ctx, s.cfg.BatchSize)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Cannot query meetings awaiting transcription", zap.Error(err))
		}
		return
	}

	for _, m := range meetings {
		claimed, err := s.meetings.ClaimForTranscription(ctx, m.ID)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("❌ Transcription claim failed", zap.String("meeting_id", m.ID.String()), zap.Error(err))
			}
			continue
		}
		if !claimed {
			continue
		}

		jobCtx, cancel := jobcontext.JobBegin(ctx, m.ID, jobcontext.JobTypeTranscription, s.cfg.JobTimeout)
		s.handOff(jobCtx, m)
		cancel()
	}
}

// handOff uploads the recording when needed and submits it, retrying
// transient errors with exponential backoff before marking the hand-off
// failed
func (s *Service) handOff(ctx context.Context, m *entities.Meeting) {
	meetingID := m.ID.String()

	audioURL := m.AudioURL
	if audioURL == "" {
		if s.uploader == nil {
			s.fail(ctx, m, "no reachable audio URL and no uploader configured")
			return
		}
		url, err := s.uploader.UploadRecording(ctx, m.AudioPath)
		if err != nil {
			s.fail(ctx, m, "recording upload failed: "+err.Error())
			return
		}
		audioURL = url
	}

	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				s.fail(ctx, m, "hand-off cancelled: "+ctx.Err().Error())
				return
			case <-time.After(jobcontext.CalculateBackoff(attempt, s.cfg.RetryBaseDelay)):
			}
		}

		transcriptionID, err := s.submitter.SubmitRecording(ctx, audioURL, map[string]string{
			"meeting_id":   meetingID,
			"meeting_name": m.Name,
		})
		if err == nil {
			if err := s.meetings.CompleteTranscriptionHandoff(ctx, m.ID, transcriptionID, audioURL); err != nil && s.logger != nil {
				s.logger.Error("❌ Cannot record transcription hand-off", zap.String("meeting_id", meetingID), zap.Error(err))
			}
			if s.logger != nil {
				s.logger.Info("📤 Recording handed off for transcription",
					zap.String("meeting_id", meetingID),
					zap.String("transcription_id", transcriptionID),
				)
			}
			return
		}

		lastErr = err
		if !jobcontext.IsRetryableError(err) {
			break
		}
		if s.logger != nil {
			s.logger.Warn("⚠️ Transcription submit failed, retrying",
				zap.String("meeting_id", meetingID),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
		}
	}

	s.fail(ctx, m, "transcription submit failed: "+lastErr.Error())
}

func (s *Service) fail(ctx context.Context, m *entities.Meeting, reason string) {
	if err := s.meetings.FailTranscriptionHandoff(ctx, m.ID, reason); err != nil && s.logger != nil {
		s.logger.Error("❌ Cannot mark hand-off failed", zap.String("meeting_id", m.ID.String()), zap.Error(err))
	}
	if s.logger != nil {
		s.logger.Error("❌ Transcription hand-off failed",
			zap.String("meeting_id", m.ID.String()),
			zap.String("reason", reason),
		)
	}
}
