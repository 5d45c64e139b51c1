package entities

import (
	"time"

	"github.com/google/uuid"
)

// Screenshot represents one visual snapshot captured during a session
type Screenshot struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID  uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index"`
	ImagePath  string    `json:"image_path" gorm:"type:varchar(255);not null"`
	CapturedAt time.Time `json:"captured_at" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Screenshot) TableName() string {
	return "screenshots"
}

// NewScreenshot creates a screenshot record for a meeting
func NewScreenshot(meetingID uuid.UUID, imagePath string, capturedAt time.Time) *Screenshot {
	return &Screenshot{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		ImagePath:  imagePath,
		CapturedAt: capturedAt,
	}
}
