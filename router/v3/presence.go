package v3

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskflow-dev/taskflow/router/extension/herror"
)

// GetMyPresence GET /users/me/presence
func (h *Handlers) GetMyPresence(c echo.Context) error {
	r := h.Presence.GetUserPresence(getRequestUserID(c))
	if r == nil {
		return herror.NotFound("presence record not found")
	}
	return c.JSON(http.StatusOK, r)
}

// GetUserPresence GET /users/:userID/presence
func (h *Handlers) GetUserPresence(c echo.Context) error {
	userID, err := getParamAsUUID(c, "userID")
	if err != nil {
		return err
	}

	r := h.Presence.GetUserPresence(userID)
	if r == nil {
		return herror.NotFound("presence record not found")
	}
	return c.JSON(http.StatusOK, r)
}

// GetProjectPresence GET /projects/:projectID/presence
func (h *Handlers) GetProjectPresence(c echo.Context) error {
	projectID, err := getParamAsUUID(c, "projectID")
	if err != nil {
		return err
	}
	if err := h.ensureProjectMember(c, projectID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.Presence.GetActiveUsersInProject(projectID))
}
