package model

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

// User ユーザー構造体
type User struct {
	ID        uuid.UUID `gorm:"type:char(36);not null;primaryKey"             json:"id"`
	Username  string    `gorm:"type:varchar(32);not null;unique"              json:"username"`
	FirstName string    `gorm:"type:varchar(64);not null;default:''"          json:"firstName"`
	LastName  string    `gorm:"type:varchar(64);not null;default:''"          json:"lastName"`
	AvatarURL string    `gorm:"type:text"                                     json:"avatarUrl"`
	CreatedAt time.Time `gorm:"precision:6"                                   json:"createdAt"`
	UpdatedAt time.Time `gorm:"precision:6"                                   json:"updatedAt"`
}

// TableName User構造体のテーブル名
func (*User) TableName() string {
	return "users"
}

// DisplayName 表示名を返します
//
// 姓名が両方空の場合はユーザー名を返します。
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
