package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-capture/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	meetingHandler *Meeting
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, meetingHandler *Meeting) *Router {
	return &Router{
		cfg:            cfg,
		meetingHandler: meetingHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	v1 := e.Group("/v1")
	rt.setupMeetingRoutes(v1)
}

func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetingGroup := g.Group("/meetings")
	meetingGroup.POST("", rt.meetingHandler.CreateMeeting)
	meetingGroup.GET("", rt.meetingHandler.ListMeetings)
	meetingGroup.GET("/:id", rt.meetingHandler.GetMeeting)
	meetingGroup.POST("/:id/rearm", rt.meetingHandler.RearmMeeting)
	meetingGroup.GET("/:id/screenshots", rt.meetingHandler.ListScreenshots)

	g.GET("/sessions", rt.meetingHandler.ActiveSessions)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
