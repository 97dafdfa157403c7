package events

import (
	"time"

	"github.com/gofrs/uuid"
)

// Type イベント種別
type Type string

const (
	// TaskCreated タスクが作成された
	TaskCreated Type = "created"
	// TaskUpdated タスクが更新された
	TaskUpdated Type = "updated"
	// TaskDeleted タスクが削除された
	TaskDeleted Type = "deleted"
	// TaskMoved タスクのステータス・位置が変更された
	TaskMoved Type = "moved"
	// TaskAssigned タスクの担当者が変更された
	TaskAssigned Type = "assigned"

	// MemberJoined メンバーがプロジェクトに参加した
	MemberJoined Type = "member_joined"
	// MemberLeft メンバーがプロジェクトから脱退した
	MemberLeft Type = "member_left"
	// MemberInvited メンバーがプロジェクトに招待された
	MemberInvited Type = "member_invited"

	// CommentAdded コメントが追加された
	CommentAdded Type = "comment_added"
	// CommentUpdated コメントが更新された
	CommentUpdated Type = "comment_updated"
	// CommentDeleted コメントが削除された
	CommentDeleted Type = "comment_deleted"
)

// Event プロジェクトの変更イベント
//
// TaskEvent・ProjectEvent・CommentEventのいずれかです。
// 消費側は必ず3種への型switchで網羅的に処理すること。
type Event interface {
	// EventBase イベントの共通フィールド
	EventBase() *Base
	isEvent()
}

// Base 全イベント共通のフィールド
type Base struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	ProjectID uuid.UUID `json:"projectId"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskEvent タスクの変更イベント
type TaskEvent struct {
	Base
	TaskID uuid.UUID     `json:"taskId"`
	Data   TaskEventData `json:"data"`
}

// TaskEventData タスクイベントのペイロード
//
// 変更前の値は差分表示のために変更系イベントにのみ載ります。
type TaskEventData struct {
	Title            string                 `json:"title,omitempty"`
	Status           string                 `json:"status,omitempty"`
	Position         *int                   `json:"position,omitempty"`
	PreviousStatus   string                 `json:"previousStatus,omitempty"`
	PreviousPosition *int                   `json:"previousPosition,omitempty"`
	AssigneeID       uuid.NullUUID          `json:"assigneeId,omitempty"`
	AssigneeName     string                 `json:"assigneeName,omitempty"`
	Changes          map[string]interface{} `json:"changes,omitempty"`
}

// ProjectEvent プロジェクトメンバーシップの変更イベント
type ProjectEvent struct {
	Base
	Data MemberEventData `json:"data"`
}

// MemberEventData プロジェクトイベントのペイロード
type MemberEventData struct {
	MemberID     uuid.UUID `json:"memberId"`
	MemberName   string    `json:"memberName,omitempty"`
	InvitedEmail string    `json:"invitedEmail,omitempty"`
}

// CommentEvent コメントの変更イベント
type CommentEvent struct {
	Base
	TaskID    uuid.UUID        `json:"taskId"`
	CommentID uuid.UUID        `json:"commentId"`
	Data      CommentEventData `json:"data"`
}

// CommentEventData コメントイベントのペイロード
type CommentEventData struct {
	Preview string `json:"preview,omitempty"`
}

// EventBase implements Event interface.
func (e *TaskEvent) EventBase() *Base { return &e.Base }

// EventBase implements Event interface.
func (e *ProjectEvent) EventBase() *Base { return &e.Base }

// EventBase implements Event interface.
func (e *CommentEvent) EventBase() *Base { return &e.Base }

func (*TaskEvent) isEvent()    {}
func (*ProjectEvent) isEvent() {}
func (*CommentEvent) isEvent() {}
