package meeting

import (
	"time"

	"github.com/johnquangdev/meeting-capture/internal/domain/entities"
)

// MeetingResponse is the API view of a meeting
type MeetingResponse struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	BotName             string     `json:"bot_name"`
	URL                 string     `json:"url"`
	JoinTime            string     `json:"join_time"`
	Joined              bool       `json:"joined"`
	Active              bool       `json:"active"`
	CaptureStatus       string     `json:"capture_status"`
	FailureReason       string     `json:"failure_reason,omitempty"`
	AudioPath           string     `json:"audio_path,omitempty"`
	AudioURL            string     `json:"audio_url,omitempty"`
	TranscriptionStatus string     `json:"transcription_status"`
	TranscriptionID     string     `json:"transcription_id,omitempty"`
	JoinedAt            *time.Time `json:"joined_at,omitempty"`
	EndedAt             *time.Time `json:"ended_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// ToMeetingResponse maps a meeting entity to its API view
func ToMeetingResponse(m *entities.Meeting) *MeetingResponse {
	return &MeetingResponse{
		ID:                  m.ID.String(),
		Name:                m.Name,
		BotName:             m.BotName,
		URL:                 m.URL,
		JoinTime:            m.JoinTime,
		Joined:              m.Joined,
		Active:              m.Active,
		CaptureStatus:       string(m.CaptureStatus),
		FailureReason:       m.FailureReason,
		AudioPath:           m.AudioPath,
		AudioURL:            m.AudioURL,
		TranscriptionStatus: string(m.TranscriptionStatus),
		TranscriptionID:     m.TranscriptionID,
		JoinedAt:            m.JoinedAt,
		EndedAt:             m.EndedAt,
		CreatedAt:           m.CreatedAt,
	}
}

// ListMeetingsResponse wraps a page of meetings
type ListMeetingsResponse struct {
	Meetings []*MeetingResponse `json:"meetings"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// ScreenshotResponse is the API view of one captured frame
type ScreenshotResponse struct {
	ID         string    `json:"id"`
	MeetingID  string    `json:"meeting_id"`
	ImagePath  string    `json:"image_path"`
	CapturedAt time.Time `json:"captured_at"`
}

// ToScreenshotResponse maps a screenshot entity to its API view
func ToScreenshotResponse(s *entities.Screenshot) *ScreenshotResponse {
	return &ScreenshotResponse{
		ID:         s.ID.String(),
		MeetingID:  s.MeetingID.String(),
		ImagePath:  s.ImagePath,
		CapturedAt: s.CapturedAt,
	}
}

// SessionStatusResponse is one live capture session
type SessionStatusResponse struct {
	MeetingID string `json:"meeting_id"`
	State     string `json:"state"`
}
