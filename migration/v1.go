package migration

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// v1 project_membersにuser_id単体のインデックスを追加
// GetUserRooms相当のメンバーシップ逆引きをカバーする
func v1() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "1",
		Migrate: func(db *gorm.DB) error {
			return db.Exec("CREATE INDEX idx_project_members_user_id ON project_members (user_id)").Error
		},
		Rollback: func(db *gorm.DB) error {
			return db.Exec("DROP INDEX idx_project_members_user_id ON project_members").Error
		},
	}
}
