package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-capture/internal/domain/entities"
)

// MeetingRepository handles meeting data operations
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create creates a new meeting
func (r *MeetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	return r.db.WithContext(ctx).Create(meeting).Error
}

// FindByID retrieves a meeting by ID
func (r *MeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// List retrieves meetings ordered by creation time
func (r *MeetingRepository) List(ctx context.Context, limit, offset int) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

// GetDueMeetings retrieves active, unjoined meetings inside the window.
// join_time is a zero-padded "HH:MM" string, so range comparison in SQL is
// chronological; a window that crosses midnight splits into two half-ranges.
func (r *MeetingRepository) GetDueMeetings(ctx context.Context, window entities.Window) ([]*entities.Meeting, error) {
	q := r.db.WithContext(ctx).
		Where("joined = ?", false).
		Where("active = ?", true)

	if window.Wraps() {
		q = q.Where("join_time >= ? OR join_time < ?", window.From, window.To)
	} else {
		q = q.Where("join_time >= ? AND join_time < ?", window.From, window.To)
	}

	var meetings []*entities.Meeting
	if err := q.Order("join_time ASC").Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

// TrySetJoined atomically claims the meeting for one dispatch. The
// conditional update only matches while joined is still false, so under
// concurrent dispatches exactly one caller observes RowsAffected == 1.
func (r *MeetingRepository) TrySetJoined(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND joined = ?", id, false).
		Updates(map[string]interface{}{
			"joined":         true,
			"capture_status": entities.CaptureStatusJoining,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClearJoined re-arms a meeting for another dispatch
func (r *MeetingRepository) ClearJoined(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"joined":         false,
			"capture_status": entities.CaptureStatusPending,
			"failure_reason": "",
			"updated_at":     time.Now(),
		}).Error
}

// MarkFailed records a terminal join failure reason
func (r *MeetingRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"capture_status": entities.CaptureStatusFailed,
			"failure_reason": reason,
			"updated_at":     time.Now(),
		}).Error
}

// MarkCapturing records that the capture supervisor is running
func (r *MeetingRepository) MarkCapturing(ctx context.Context, id uuid.UUID, joinedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"capture_status": entities.CaptureStatusCapturing,
			"joined_at":      joinedAt,
			"updated_at":     time.Now(),
		}).Error
}

// FinalizeEnded records session end and the audio artifact location
func (r *MeetingRepository) FinalizeEnded(ctx context.Context, id uuid.UUID, audioPath, audioURL string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"capture_status": entities.CaptureStatusEnded,
		"ended_at":       now,
		"updated_at":     now,
	}
	if audioPath != "" {
		updates["audio_path"] = audioPath
	}
	if audioURL != "" {
		updates["audio_url"] = audioURL
	}
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ClaimForTranscription atomically claims an ended meeting for the
// downstream hand-off. Same idiom as TrySetJoined: only one worker wins.
func (r *MeetingRepository) ClaimForTranscription(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND transcription_status = ? AND capture_status = ?",
			id, entities.TranscriptionStatusNone, entities.CaptureStatusEnded).
		Updates(map[string]interface{}{
			"transcription_status": entities.TranscriptionStatusSubmitting,
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindAwaitingTranscription retrieves ended meetings with audio not yet
// handed off downstream
func (r *MeetingRepository) FindAwaitingTranscription(ctx context.Context, limit int) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting
	if err := r.db.WithContext(ctx).
		Where("capture_status = ?", entities.CaptureStatusEnded).
		Where("transcription_status = ?", entities.TranscriptionStatusNone).
		Where("audio_path <> ''").
		Order("ended_at ASC").
		Limit(limit).
		Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

// CompleteTranscriptionHandoff records the downstream job id and audio URL
func (r *MeetingRepository) CompleteTranscriptionHandoff(ctx context.Context, id uuid.UUID, transcriptionID, audioURL string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"transcription_status": entities.TranscriptionStatusSubmitted,
			"transcription_id":     transcriptionID,
			"audio_url":            audioURL,
			"updated_at":           time.Now(),
		}).Error
}

// FailTranscriptionHandoff marks the hand-off as failed
func (r *MeetingRepository) FailTranscriptionHandoff(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"transcription_status": entities.TranscriptionStatusFailed,
			"failure_reason":       reason,
			"updated_at":           time.Now(),
		}).Error
}
