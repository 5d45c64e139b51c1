package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CaptureStatus represents the capture lifecycle of a meeting
type CaptureStatus string

const (
	CaptureStatusPending   CaptureStatus = "pending"
	CaptureStatusJoining   CaptureStatus = "joining"
	CaptureStatusCapturing CaptureStatus = "capturing"
	CaptureStatusEnded     CaptureStatus = "ended"
	CaptureStatusFailed    CaptureStatus = "failed"
)

// TranscriptionStatus represents the downstream transcription hand-off state
type TranscriptionStatus string

const (
	TranscriptionStatusNone       TranscriptionStatus = "none"
	TranscriptionStatusSubmitting TranscriptionStatus = "submitting"
	TranscriptionStatusSubmitted  TranscriptionStatus = "submitted"
	TranscriptionStatusFailed     TranscriptionStatus = "failed"
)

// Meeting represents a scheduled meeting the bot attends
type Meeting struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name     string    `json:"name" gorm:"type:varchar(100);not null"`
	BotName  string    `json:"bot_name" gorm:"type:varchar(100);not null"`
	URL      string    `json:"url" gorm:"type:text;not null;column:meeting_url"`
	JoinTime string    `json:"join_time" gorm:"type:varchar(5);not null;index"` // "HH:MM", zero-padded

	// Joined transitions false→true exactly once, via conditional update,
	// before a Session Driver is started. It never reverts automatically.
	Joined bool `json:"joined" gorm:"not null;default:false;index"`
	Active bool `json:"active" gorm:"not null;default:true;index"`

	CaptureStatus CaptureStatus `json:"capture_status" gorm:"type:varchar(20);not null;default:'pending'"`
	FailureReason string        `json:"failure_reason,omitempty" gorm:"type:text;not null;default:''"`

	AudioPath string     `json:"audio_path,omitempty" gorm:"type:text;not null;default:''"`
	AudioURL  string     `json:"audio_url,omitempty" gorm:"type:text;not null;default:''"`
	JoinedAt  *time.Time `json:"joined_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	TranscriptionStatus TranscriptionStatus `json:"transcription_status" gorm:"type:varchar(20);not null;default:'none';index"`
	TranscriptionID     string              `json:"transcription_id,omitempty" gorm:"type:varchar(255);not null;default:''"`

	Metadata  datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb;default:'{}'"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a meeting scheduled at the given time of day
func NewMeeting(name, botName, url, joinTime string) *Meeting {
	return &Meeting{
		ID:                  uuid.New(),
		Name:                name,
		BotName:             botName,
		URL:                 url,
		JoinTime:            joinTime,
		Active:              true,
		CaptureStatus:       CaptureStatusPending,
		TranscriptionStatus: TranscriptionStatusNone,
	}
}

// IsEnded checks if the meeting's capture has ended
func (m *Meeting) IsEnded() bool {
	return m.CaptureStatus == CaptureStatusEnded
}

// IsFailed checks if the meeting's capture failed
func (m *Meeting) IsFailed() bool {
	return m.CaptureStatus == CaptureStatusFailed
}

// MarkEnded marks the capture as ended and records the artifact location
func (m *Meeting) MarkEnded(audioPath string, endedAt time.Time) {
	m.CaptureStatus = CaptureStatusEnded
	m.EndedAt = &endedAt
	if audioPath != "" {
		m.AudioPath = audioPath
	}
}

// MarkFailed marks the capture as failed with a reason
func (m *Meeting) MarkFailed(reason string) {
	m.CaptureStatus = CaptureStatusFailed
	m.FailureReason = reason
}
