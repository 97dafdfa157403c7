package presence

import (
	"time"

	"github.com/gofrs/uuid"
)

// Record ユーザーの在席情報
//
// 表示用フィールドはオンライン遷移時にアイデンティティストアから一度だけ読み込みます。
type Record struct {
	UserID        uuid.UUID     `json:"userId"`
	Username      string        `json:"username"`
	DisplayName   string        `json:"displayName"`
	AvatarURL     string        `json:"avatarUrl"`
	Status        Status        `json:"status"`
	LastActivity  time.Time     `json:"lastActivity"`
	CurrentTaskID uuid.NullUUID `json:"currentTaskId"`
	IsTyping      bool          `json:"isTyping"`
	TypingTaskID  uuid.NullUUID `json:"typingTaskId"`
	ConnectionID  string        `json:"connectionId,omitempty"`

	// 入力中のプロジェクト。タイマー失火時の通知先の解決にのみ使用する
	typingProjectID uuid.UUID
}

// Clone 防御的コピーを返します
func (r *Record) Clone() *Record {
	c := *r
	return &c
}
