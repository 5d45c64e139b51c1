package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-capture/internal/domain/entities"
)

// ScreenshotRepository handles screenshot data operations
type ScreenshotRepository struct {
	db *gorm.DB
}

// NewScreenshotRepository creates a new screenshot repository
func NewScreenshotRepository(db *gorm.DB) *ScreenshotRepository {
	return &ScreenshotRepository{db: db}
}

// Create persists a screenshot record
func (r *ScreenshotRepository) Create(ctx context.Context, screenshot *entities.Screenshot) error {
	if screenshot == nil {
		return errors.New("screenshot cannot be nil")
	}
	return r.db.WithContext(ctx).Create(screenshot).Error
}

// FindByMeetingID retrieves all screenshots for a meeting ordered by capture time
func (r *ScreenshotRepository) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Screenshot, error) {
	var screenshots []*entities.Screenshot
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("captured_at ASC").
		Find(&screenshots).Error; err != nil {
		return nil, err
	}
	return screenshots, nil
}
