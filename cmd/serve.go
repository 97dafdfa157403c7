package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leandro-lugaresi/hub"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	gormrepo "github.com/taskflow-dev/taskflow/repository/gorm"
	"github.com/taskflow-dev/taskflow/router"
	"github.com/taskflow-dev/taskflow/service"
	"github.com/taskflow-dev/taskflow/utils/authtoken"
	"github.com/taskflow-dev/taskflow/utils/gormzap"
	"github.com/taskflow-dev/taskflow/utils/random"
)

// serveCommand サーバー起動コマンド
func serveCommand() *cobra.Command {
	cmd := cobra.Command{
		Use:   "serve",
		Short: "Serve TaskFlow API",
		Run: func(cmd *cobra.Command, args []string) {
			// Logger
			logger := getLogger()
			defer logger.Sync()

			logger.Info(fmt.Sprintf("TaskFlow %s (revision %s)", Version, Revision))

			// Message Hub
			hub := hub.New()

			// Database
			logger.Info("connecting database...")
			engine, err := c.getDatabase(gormzap.New(logger.Named("gorm")))
			if err != nil {
				logger.Fatal("failed to connect database", zap.Error(err))
			}
			db, err := engine.DB()
			if err != nil {
				logger.Fatal("failed to get *sql.DB", zap.Error(err))
			}
			defer db.Close()
			logger.Info("database connection was established")

			// Repository
			logger.Info("setting up repository...")
			repo, _, err := gormrepo.NewGormRepository(engine, hub, logger)
			if err != nil {
				logger.Fatal("failed to initialize repository", zap.Error(err))
			}
			logger.Info("repository was set up")

			// Auth Token
			secret := c.JWT.Secret
			if len(secret) == 0 {
				// 一時シークレットを発行
				secret = random.SecureAlphaNumeric(64)
				logger.Warn("a temporary secret for auth tokens was generated. Tokens are valid only during this running.")
			}
			tokens := authtoken.NewManager(secret, c.Origin)

			// Services
			ss := service.NewServices(hub, repo, logger, c.presenceConfig(), c.eventsConfig())

			// Router
			e := router.Setup(hub, repo, ss, tokens, logger, c.routerConfig())

			go func() {
				if err := e.Start(fmt.Sprintf(":%d", c.Port)); err != nil {
					logger.Info("shutting down the server")
				}
			}()

			logger.Info("TaskFlow started")
			waitSIGINT()
			logger.Info("TaskFlow shutting down...")

			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.ShutdownTimeout)*time.Second)
			defer cancel()

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				err := e.Shutdown(ctx)
				logger.Info("Router shutdown")
				return err
			})
			eg.Go(func() error {
				err := ss.WS.Close()
				logger.Info("WebSocket shutdown")
				return err
			})
			if err := eg.Wait(); err != nil {
				logger.Warn("abnormal shutdown", zap.Error(err))
			}
			logger.Info("TaskFlow shutdown")
		},
	}
	return &cmd
}

func waitSIGINT() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
}
