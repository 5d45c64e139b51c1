package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	meetingDTO "github.com/johnquangdev/meeting-capture/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-capture/internal/domain/entities"
	"github.com/johnquangdev/meeting-capture/internal/domain/repositories"
)

// Meeting handles meeting-related HTTP requests
type Meeting struct {
	meetings    repositories.MeetingRepository
	screenshots repositories.ScreenshotRepository
	status      repositories.StatusStore
	logger      *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(
	meetings repositories.MeetingRepository,
	screenshots repositories.ScreenshotRepository,
	status repositories.StatusStore,
	logger *zap.Logger,
) *Meeting {
	return &Meeting{
		meetings:    meetings,
		screenshots: screenshots,
		status:      status,
		logger:      logger,
	}
}

// CreateMeeting handles POST /meetings
func (h *Meeting) CreateMeeting(c echo.Context) error {
	var req meetingDTO.CreateMeetingRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "validation_failed", err.Error())
	}

	m := entities.NewMeeting(req.Name, req.BotName, req.URL, req.JoinTime)
	if req.Active != nil {
		m.Active = *req.Active
	}

	if err := h.meetings.Create(c.Request().Context(), m); err != nil {
		if h.logger != nil {
			h.logger.Error("❌ Cannot create meeting", zap.Error(err))
		}
		return errorJSON(c, http.StatusInternalServerError, "failed_to_create_meeting", err.Error())
	}

	return c.JSON(http.StatusCreated, meetingDTO.ToMeetingResponse(m))
}

// ListMeetings handles GET /meetings
func (h *Meeting) ListMeetings(c echo.Context) error {
	var req meetingDTO.ListMeetingsRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
	}
	req.Normalize()

	meetings, err := h.meetings.List(c.Request().Context(), req.PageSize, (req.Page-1)*req.PageSize)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "failed_to_list_meetings", err.Error())
	}

	out := make([]*meetingDTO.MeetingResponse, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, meetingDTO.ToMeetingResponse(m))
	}
	return c.JSON(http.StatusOK, &meetingDTO.ListMeetingsResponse{
		Meetings: out,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// GetMeeting handles GET /meetings/:id
func (h *Meeting) GetMeeting(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_meeting_id", "meeting ID must be a valid UUID")
	}

	m, err := h.meetings.FindByID(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "failed_to_get_meeting", err.Error())
	}
	if m == nil {
		return errorJSON(c, http.StatusNotFound, "meeting_not_found", "no meeting with that ID")
	}

	return c.JSON(http.StatusOK, meetingDTO.ToMeetingResponse(m))
}

// RearmMeeting handles POST /meetings/:id/rearm. It releases the dispatch
// claim so the scheduler may pick the meeting up again on a later tick.
func (h *Meeting) RearmMeeting(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_meeting_id", "meeting ID must be a valid UUID")
	}

	m, err := h.meetings.FindByID(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "failed_to_get_meeting", err.Error())
	}
	if m == nil {
		return errorJSON(c, http.StatusNotFound, "meeting_not_found", "no meeting with that ID")
	}
	if m.CaptureStatus == entities.CaptureStatusCapturing {
		return errorJSON(c, http.StatusConflict, "capture_in_progress", "cannot re-arm a meeting while its capture is running")
	}

	if err := h.meetings.ClearJoined(c.Request().Context(), id); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "failed_to_rearm_meeting", err.Error())
	}

	if h.logger != nil {
		h.logger.Info("🔁 Meeting re-armed via API", zap.String("meeting_id", id.String()))
	}
	return c.NoContent(http.StatusNoContent)
}

// ListScreenshots handles GET /meetings/:id/screenshots
func (h *Meeting) ListScreenshots(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_meeting_id", "meeting ID must be a valid UUID")
	}

	shots, err := h.screenshots.FindByMeetingID(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "failed_to_list_screenshots", err.Error())
	}

	out := make([]*meetingDTO.ScreenshotResponse, 0, len(shots))
	for _, s := range shots {
		out = append(out, meetingDTO.ToScreenshotResponse(s))
	}
	return c.JSON(http.StatusOK, out)
}

// ActiveSessions handles GET /sessions
func (h *Meeting) ActiveSessions(c echo.Context) error {
	if h.status == nil {
		return c.JSON(http.StatusOK, []meetingDTO.SessionStatusResponse{})
	}

	sessions, err := h.status.ListSessions(c.Request().Context())
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "failed_to_list_sessions", err.Error())
	}

	out := make([]meetingDTO.SessionStatusResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, meetingDTO.SessionStatusResponse{
			MeetingID: s.MeetingID,
			State:     s.State,
		})
	}
	return c.JSON(http.StatusOK, out)
}
