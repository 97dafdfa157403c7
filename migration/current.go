package migration

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/taskflow-dev/taskflow/model"
)

// Migrations 全てのデータベースマイグレーション
//
// 新たなマイグレーションを行う場合は、この配列の末尾に必ず追加すること
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		v1(), // project_membersにuser_id単体のインデックスを追加
	}
}

// AllTables 最新のスキーマの全テーブル
func AllTables() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Project{},
		&model.ProjectMember{},
	}
}

// Migrate データベースマイグレーションを実行します
//
// 初回実行の場合はinitがtrueになります。
func Migrate(db *gorm.DB) (init bool, err error) {
	m := gormigrate.New(db, &gormigrate.Options{
		TableName:      "migrations",
		IDColumnName:   "id",
		IDColumnSize:   190,
		UseTransaction: false,
	}, Migrations())
	m.InitSchema(func(db *gorm.DB) error {
		// 初回のみに呼ばれる
		// 全ての最新のデータベース定義を書く事
		init = true
		return db.AutoMigrate(AllTables()...)
	})
	err = m.Migrate()
	return
}
