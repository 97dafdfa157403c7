package gorm

import (
	"github.com/leandro-lugaresi/hub"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/taskflow-dev/taskflow/migration"
	"github.com/taskflow-dev/taskflow/repository"
)

// Repository リポジトリ実装
type Repository struct {
	*userRepository
	*projectRepository
	db  *gorm.DB
	hub *hub.Hub
}

// NewGormRepository リポジトリ実装を初期化して生成します
//
// 未適用のデータベースマイグレーションがあれば適用します。
// 初回実行の場合はinitがtrueになります。
func NewGormRepository(db *gorm.DB, hub *hub.Hub, logger *zap.Logger) (repo repository.Repository, init bool, err error) {
	init, err = migration.Migrate(db)
	if err != nil {
		return nil, false, err
	}
	if init {
		logger.Named("repository").Info("database schema was initialized")
	}
	return &Repository{
		userRepository:    makeUserRepository(db, hub),
		projectRepository: makeProjectRepository(db, hub),
		db:                db,
		hub:               hub,
	}, init, nil
}
