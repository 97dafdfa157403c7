package v3

import (
	"net/http"

	vd "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"
)

// GetProjectActivityRequest GET /projects/:projectID/activity リクエストクエリ
type GetProjectActivityRequest struct {
	Limit int `query:"limit"`
}

func (r *GetProjectActivityRequest) Validate() error {
	if r.Limit == 0 {
		r.Limit = 50
	}
	return vd.ValidateStruct(r,
		vd.Field(&r.Limit, vd.Required, vd.Min(1), vd.Max(100)),
	)
}

// GetProjectActivity GET /projects/:projectID/activity
func (h *Handlers) GetProjectActivity(c echo.Context) error {
	projectID, err := getParamAsUUID(c, "projectID")
	if err != nil {
		return err
	}
	if err := h.ensureProjectMember(c, projectID); err != nil {
		return err
	}

	var req GetProjectActivityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.Events.GetProjectEventHistory(projectID, req.Limit))
}

// GetTaskActivity GET /projects/:projectID/activity/tasks/:taskID
func (h *Handlers) GetTaskActivity(c echo.Context) error {
	projectID, err := getParamAsUUID(c, "projectID")
	if err != nil {
		return err
	}
	taskID, err := getParamAsUUID(c, "taskID")
	if err != nil {
		return err
	}
	if err := h.ensureProjectMember(c, projectID); err != nil {
		return err
	}

	var req GetProjectActivityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.Events.GetTaskEventHistory(projectID, taskID, req.Limit))
}
