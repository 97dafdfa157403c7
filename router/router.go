package router

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/leandro-lugaresi/hub"
	"go.uber.org/zap"

	"github.com/taskflow-dev/taskflow/repository"
	"github.com/taskflow-dev/taskflow/router/consts"
	"github.com/taskflow-dev/taskflow/router/extension"
	"github.com/taskflow-dev/taskflow/router/middlewares"
	v3 "github.com/taskflow-dev/taskflow/router/v3"
	"github.com/taskflow-dev/taskflow/service"
	"github.com/taskflow-dev/taskflow/utils/authtoken"
)

// Setup APIサーバーをセットアップします
func Setup(hub *hub.Hub, repo repository.Repository, ss *service.Services, tokens *authtoken.Manager, logger *zap.Logger, config *Config) *echo.Echo {
	e := newEcho(logger.Named("router"), config)

	api := e.Group("/api")
	api.GET("/metrics", echoprometheus.NewHandler())
	api.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, http.StatusText(http.StatusOK)) })

	h := &v3.Handlers{
		Repo:      repo,
		WS:        ss.WS,
		Rooms:     ss.RoomManager,
		Presence:  ss.Presence,
		Events:    ss.Events,
		AuthToken: tokens,
		Hub:       hub,
		Logger:    logger.Named("router"),
		Version:   config.Version,
		Revision:  config.Revision,
	}
	h.Setup(api)

	return e
}

func newEcho(logger *zap.Logger, config *Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = extension.ErrorHandler(logger)

	// ミドルウェア設定
	e.Use(middlewares.ServerVersion(config.Version))
	e.Use(middlewares.RequestID())
	if config.AccessLogging {
		e.Use(middlewares.AccessLogging(logger.Named("access_log"), config.Development))
	}
	e.Use(middlewares.Recovery(logger))
	if config.Gzipped {
		e.Use(middleware.Gzip())
	}
	e.Use(extension.Wrap())
	e.Use(middlewares.RequestCounter())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  config.Origins,
		ExposeHeaders: []string{consts.HeaderVersion, echo.HeaderXRequestID},
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAuthorization},
		MaxAge:        3600,
	}))
	e.Use(echoprometheus.NewMiddleware("taskflow"))

	return e
}
