package model

import (
	"time"

	"github.com/gofrs/uuid"
)

// Project プロジェクト構造体
type Project struct {
	ID          uuid.UUID `gorm:"type:char(36);not null;primaryKey"    json:"id"`
	Name        string    `gorm:"type:varchar(100);not null"           json:"name"`
	Description string    `gorm:"type:text"                            json:"description"`
	OwnerID     uuid.UUID `gorm:"type:char(36);not null"               json:"ownerId"`
	CreatedAt   time.Time `gorm:"precision:6"                          json:"createdAt"`
	UpdatedAt   time.Time `gorm:"precision:6"                          json:"updatedAt"`
}

// TableName Project構造体のテーブル名
func (*Project) TableName() string {
	return "projects"
}

// ProjectMember プロジェクトメンバー構造体
type ProjectMember struct {
	ProjectID uuid.UUID `gorm:"type:char(36);not null;primaryKey"     json:"projectId"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;primaryKey"     json:"userId"`
	Role      string    `gorm:"type:varchar(30);not null;default:'member'" json:"role"`
	JoinedAt  time.Time `gorm:"precision:6"                           json:"joinedAt"`
}

// TableName ProjectMember構造体のテーブル名
func (*ProjectMember) TableName() string {
	return "project_members"
}
