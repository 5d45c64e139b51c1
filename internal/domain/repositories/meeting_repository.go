package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-capture/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// Create creates a new meeting
	Create(ctx context.Context, meeting *entities.Meeting) error

	// FindByID retrieves a meeting by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// List retrieves meetings ordered by creation time
	List(ctx context.Context, limit, offset int) ([]*entities.Meeting, error)

	// GetDueMeetings retrieves active, unjoined meetings whose join time
	// falls inside the window
	GetDueMeetings(ctx context.Context, window entities.Window) ([]*entities.Meeting, error)

	// TrySetJoined atomically flips joined from false to true. Returns
	// false when another dispatch already claimed the meeting.
	TrySetJoined(ctx context.Context, id uuid.UUID) (bool, error)

	// ClearJoined re-arms a meeting so the scheduler may dispatch it again
	ClearJoined(ctx context.Context, id uuid.UUID) error

	// MarkFailed records a terminal join failure reason
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error

	// MarkCapturing records that capture is running and when the bot joined
	MarkCapturing(ctx context.Context, id uuid.UUID, joinedAt time.Time) error

	// FinalizeEnded records session end and the audio artifact location.
	// audioURL is empty when the recording was not uploaded.
	FinalizeEnded(ctx context.Context, id uuid.UUID, audioPath, audioURL string) error

	// ClaimForTranscription atomically moves an ended meeting from
	// transcription status none to submitting. Returns false when another
	// worker already claimed it.
	ClaimForTranscription(ctx context.Context, id uuid.UUID) (bool, error)

	// FindAwaitingTranscription retrieves ended meetings with audio not yet
	// handed off downstream
	FindAwaitingTranscription(ctx context.Context, limit int) ([]*entities.Meeting, error)

	// CompleteTranscriptionHandoff records the downstream job id and URL
	CompleteTranscriptionHandoff(ctx context.Context, id uuid.UUID, transcriptionID, audioURL string) error

	// FailTranscriptionHandoff marks the hand-off as failed
	FailTranscriptionHandoff(ctx context.Context, id uuid.UUID, reason string) error
}

// ScreenshotRepository defines the interface for screenshot data access
type ScreenshotRepository interface {
	// Create persists a screenshot record
	Create(ctx context.Context, screenshot *entities.Screenshot) error

	// FindByMeetingID retrieves all screenshots for a meeting ordered by
	// capture time
	FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Screenshot, error)
}
