package v3

import (
	"net/http"

	vd "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskflow-dev/taskflow/model"
	"github.com/taskflow-dev/taskflow/router/consts"
	"github.com/taskflow-dev/taskflow/router/extension/herror"
)

// NotImplemented 未実装API. 501 NotImplementedを返す
func NotImplemented(c echo.Context) error {
	return echo.NewHTTPError(http.StatusNotImplemented)
}

// bindAndValidate 構造体iにFormDataまたはJsonをデシリアライズします
func bindAndValidate(c echo.Context, i interface{}) error {
	if err := c.Bind(i); err != nil {
		return err
	}
	if err := vd.Validate(i); err != nil {
		if e, ok := err.(vd.InternalError); ok {
			return herror.InternalServerError(e.InternalError())
		}
		return herror.BadRequest(err)
	}
	return nil
}

// getRequestUser リクエストしてきたユーザーの情報を取得
func getRequestUser(c echo.Context) *model.User {
	return c.Get(consts.KeyUser).(*model.User)
}

// getRequestUserID リクエストしてきたユーザーUUIDを取得
func getRequestUserID(c echo.Context) uuid.UUID {
	return c.Get(consts.KeyUserID).(uuid.UUID)
}

// getParamAsUUID URLパラメータをUUIDとして取得
func getParamAsUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, herror.BadRequest("invalid " + name)
	}
	return id, nil
}

// ensureProjectMember リクエストユーザーがプロジェクトのメンバーであることを確認します
func (h *Handlers) ensureProjectMember(c echo.Context, projectID uuid.UUID) error {
	ok, err := h.Repo.IsProjectMember(c.Request().Context(), projectID, getRequestUserID(c))
	if err != nil {
		return herror.InternalServerError(err)
	}
	if !ok {
		return herror.Forbidden("you are not a member of the project")
	}
	return nil
}
