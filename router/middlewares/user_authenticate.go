package middlewares

import (
	"context"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"

	"github.com/taskflow-dev/taskflow/model"
	"github.com/taskflow-dev/taskflow/repository"
	"github.com/taskflow-dev/taskflow/router/consts"
	"github.com/taskflow-dev/taskflow/router/extension/ctxkey"
	"github.com/taskflow-dev/taskflow/router/extension/herror"
	"github.com/taskflow-dev/taskflow/utils/authtoken"
)

const authScheme = "Bearer"

// UserAuthenticate リクエスト認証ミドルウェア
//
// AuthorizationヘッダーのBearerトークン、またはtokenクエリパラメータ
// (WebSocket用)を検証します。
func UserAuthenticate(repo repository.Repository, tokens *authtoken.Manager) echo.MiddlewareFunc {
	var sfUser singleflight.Group

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var raw string

			if ah := c.Request().Header.Get(echo.HeaderAuthorization); len(ah) > 0 {
				// Authorizationスキーム検証
				l := len(authScheme)
				if !(len(ah) > l+1 && ah[:l] == authScheme) {
					return herror.Unauthorized("invalid authorization scheme")
				}
				raw = ah[l+1:]
			} else if t := c.QueryParam("token"); len(t) > 0 {
				// ブラウザのWebSocket APIはヘッダーを付与できない
				raw = t
			} else {
				return herror.Unauthorized("missing token")
			}

			uid, err := tokens.Verify(raw)
			if err != nil {
				return herror.Unauthorized("invalid token")
			}

			// ユーザー取得
			uI, err, _ := sfUser.Do(uid.String(), func() (interface{}, error) { return repo.GetUser(c.Request().Context(), uid) })
			if err != nil {
				switch err {
				case repository.ErrNotFound:
					return herror.Unauthorized("invalid token")
				default:
					return herror.InternalServerError(err)
				}
			}
			user := uI.(*model.User)

			c.Set(consts.KeyUser, user)
			c.Set(consts.KeyUserID, user.ID)
			c.SetRequest(c.Request().WithContext(context.WithValue(c.Request().Context(), ctxkey.UserID, user.ID))) // WebSocketストリーマーで使う
			return next(c)
		}
	}
}
