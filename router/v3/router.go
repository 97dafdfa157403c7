package v3

import (
	"github.com/labstack/echo/v4"
	"github.com/leandro-lugaresi/hub"
	"go.uber.org/zap"

	"github.com/taskflow-dev/taskflow/repository"
	"github.com/taskflow-dev/taskflow/router/middlewares"
	"github.com/taskflow-dev/taskflow/service/events"
	"github.com/taskflow-dev/taskflow/service/presence"
	"github.com/taskflow-dev/taskflow/service/room"
	"github.com/taskflow-dev/taskflow/service/ws"
	"github.com/taskflow-dev/taskflow/utils/authtoken"
)

type Handlers struct {
	Repo      repository.Repository
	WS        *ws.Streamer
	Rooms     *room.Manager
	Presence  *presence.Manager
	Events    *events.Manager
	AuthToken *authtoken.Manager
	Hub       *hub.Hub
	Logger    *zap.Logger

	Version  string
	Revision string
}

// Setup APIルーティングを行います
func (h *Handlers) Setup(e *echo.Group) {
	api := e.Group("/v3", middlewares.UserAuthenticate(h.Repo, h.AuthToken))
	{
		apiUsers := api.Group("/users")
		{
			apiUsersMe := apiUsers.Group("/me")
			{
				apiUsersMe.GET("/presence", h.GetMyPresence)
			}
			apiUsers.GET("/:userID/presence", h.GetUserPresence)
		}
		apiProjects := api.Group("/projects")
		{
			apiProjectsPID := apiProjects.Group("/:projectID")
			{
				apiProjectsPID.GET("/presence", h.GetProjectPresence)
				apiProjectsPID.GET("/activity", h.GetProjectActivity)
				apiProjectsPID.GET("/activity/tasks/:taskID", h.GetTaskActivity)
			}
		}
		api.GET("/stats", h.GetStats)
		api.GET("/ws", echo.WrapHandler(h.WS))
	}
}
