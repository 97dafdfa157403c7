package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/taskflow-dev/taskflow/event"
	"github.com/taskflow-dev/taskflow/utils/random"
)

var recordedEventsCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "taskflow",
	Name:      "recorded_events_total",
})

const (
	defaultCapacity      = 100
	defaultRetention     = 7 * 24 * time.Hour
	defaultSweepInterval = time.Hour
)

// Config イベントマネージャーの設定
//
// ゼロ値のフィールドには既定値が使用されます。
type Config struct {
	// Capacity プロジェクトごとの履歴の最大保持件数 (default: 100)
	Capacity int
	// Retention イベントの最大保持期間 (default: 168h)
	Retention time.Duration
	// SweepInterval 期限切れイベントの掃除周期 (default: 1h)
	SweepInterval time.Duration
	// Clock タイムスタンプ・掃除に使用するクロック (default: 実時間)
	Clock clock.Clock
}

// Manager プロジェクトイベントマネージャ
//
// タスク/プロジェクト/コメントの変更イベントを構築し、
// プロジェクトごとの有界な履歴を保持します。
type Manager struct {
	hub    *hub.Hub
	logger *zap.Logger
	clock  clock.Clock

	capacity  int
	retention time.Duration

	histories map[uuid.UUID][]Event
	mu        sync.RWMutex
}

// Stats イベント履歴の集計情報
type Stats struct {
	Projects int          `json:"projects"`
	Events   int          `json:"events"`
	ByType   map[Type]int `json:"byType"`
}

// NewManager プロジェクトイベントマネージャーを生成します
func NewManager(hub *hub.Hub, logger *zap.Logger, cfg Config) *Manager {
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultCapacity
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	m := &Manager{
		hub:       hub,
		logger:    logger.Named("events"),
		clock:     cfg.Clock,
		capacity:  cfg.Capacity,
		retention: cfg.Retention,
		histories: map[uuid.UUID][]Event{},
	}

	go func() {
		for range m.clock.Ticker(cfg.SweepInterval).C {
			m.CleanupOldEvents()
		}
	}()
	return m
}

// CreateTaskEvent タスクイベントを構築して履歴に記録します
func (m *Manager) CreateTaskEvent(t Type, projectID, userID uuid.UUID, userName string, taskID uuid.UUID, data TaskEventData) *TaskEvent {
	e := &TaskEvent{
		Base:   m.newBase(t, projectID, userID, userName),
		TaskID: taskID,
		Data:   data,
	}
	m.record(e)
	return e
}

// CreateProjectEvent プロジェクトイベントを構築して履歴に記録します
func (m *Manager) CreateProjectEvent(t Type, projectID, userID uuid.UUID, userName string, data MemberEventData) *ProjectEvent {
	e := &ProjectEvent{
		Base: m.newBase(t, projectID, userID, userName),
		Data: data,
	}
	m.record(e)
	return e
}

// CreateCommentEvent コメントイベントを構築して履歴に記録します
func (m *Manager) CreateCommentEvent(t Type, projectID, userID uuid.UUID, userName string, taskID, commentID uuid.UUID, data CommentEventData) *CommentEvent {
	e := &CommentEvent{
		Base:      m.newBase(t, projectID, userID, userName),
		TaskID:    taskID,
		CommentID: commentID,
		Data:      data,
	}
	m.record(e)
	return e
}

func (m *Manager) newBase(t Type, projectID, userID uuid.UUID, userName string) Base {
	now := m.clock.Now()
	return Base{
		// 時刻+ランダムサフィックス。単一プロセス内で十分な一意性があれば良い
		ID:        fmt.Sprintf("%d-%s", now.UnixNano(), random.AlphaNumeric(8)),
		Type:      t,
		ProjectID: projectID,
		UserID:    userID,
		UserName:  userName,
		Timestamp: now,
	}
}

func (m *Manager) record(e Event) {
	base := e.EventBase()

	m.mu.Lock()
	h := append(m.histories[base.ProjectID], e)
	if len(h) > m.capacity {
		// 容量超過時は最古のものから捨てる
		h = h[len(h)-m.capacity:]
	}
	m.histories[base.ProjectID] = h
	m.mu.Unlock()

	recordedEventsCounter.Inc()
	m.hub.Publish(hub.Message{
		Name: event.ProjectEventRecorded,
		Fields: hub.Fields{
			"project_id": base.ProjectID,
			"event":      e,
		},
	})
}

// HandleTaskCreated タスク作成イベントを記録します
func (m *Manager) HandleTaskCreated(projectID, userID uuid.UUID, userName string, taskID uuid.UUID, title, status string) *TaskEvent {
	return m.CreateTaskEvent(TaskCreated, projectID, userID, userName, taskID, TaskEventData{
		Title:  title,
		Status: status,
	})
}

// HandleTaskUpdated タスク更新イベントを記録します
//
// changesには変更されたフィールドの新しい値を渡します。
func (m *Manager) HandleTaskUpdated(projectID, userID uuid.UUID, userName string, taskID uuid.UUID, title string, changes map[string]interface{}) *TaskEvent {
	return m.CreateTaskEvent(TaskUpdated, projectID, userID, userName, taskID, TaskEventData{
		Title:   title,
		Changes: changes,
	})
}

// HandleTaskDeleted タスク削除イベントを記録します
func (m *Manager) HandleTaskDeleted(projectID, userID uuid.UUID, userName string, taskID uuid.UUID, title string) *TaskEvent {
	return m.CreateTaskEvent(TaskDeleted, projectID, userID, userName, taskID, TaskEventData{
		Title: title,
	})
}

// HandleTaskMoved タスク移動イベントを記録します
//
// 消費側が差分を表示できるよう、移動前後のステータスと位置の両方が必要です。
func (m *Manager) HandleTaskMoved(projectID, userID uuid.UUID, userName string, taskID uuid.UUID, status string, position int, previousStatus string, previousPosition int) *TaskEvent {
	return m.CreateTaskEvent(TaskMoved, projectID, userID, userName, taskID, TaskEventData{
		Status:           status,
		Position:         &position,
		PreviousStatus:   previousStatus,
		PreviousPosition: &previousPosition,
	})
}

// HandleTaskAssigned タスク担当者変更イベントを記録します
func (m *Manager) HandleTaskAssigned(projectID, userID uuid.UUID, userName string, taskID uuid.UUID, assigneeID uuid.UUID, assigneeName string) *TaskEvent {
	return m.CreateTaskEvent(TaskAssigned, projectID, userID, userName, taskID, TaskEventData{
		AssigneeID:   uuid.NullUUID{UUID: assigneeID, Valid: assigneeID != uuid.Nil},
		AssigneeName: assigneeName,
	})
}

// HandleMemberJoined メンバー参加イベントを記録します
func (m *Manager) HandleMemberJoined(projectID, userID uuid.UUID, userName string) *ProjectEvent {
	return m.CreateProjectEvent(MemberJoined, projectID, userID, userName, MemberEventData{
		MemberID:   userID,
		MemberName: userName,
	})
}

// HandleMemberLeft メンバー脱退イベントを記録します
func (m *Manager) HandleMemberLeft(projectID, userID uuid.UUID, userName string) *ProjectEvent {
	return m.CreateProjectEvent(MemberLeft, projectID, userID, userName, MemberEventData{
		MemberID:   userID,
		MemberName: userName,
	})
}

// HandleMemberInvited メンバー招待イベントを記録します
func (m *Manager) HandleMemberInvited(projectID, userID uuid.UUID, userName, invitedEmail string) *ProjectEvent {
	return m.CreateProjectEvent(MemberInvited, projectID, userID, userName, MemberEventData{
		MemberID:     userID,
		MemberName:   userName,
		InvitedEmail: invitedEmail,
	})
}

// HandleCommentAdded コメント追加イベントを記録します
func (m *Manager) HandleCommentAdded(projectID, userID uuid.UUID, userName string, taskID, commentID uuid.UUID, preview string) *CommentEvent {
	return m.CreateCommentEvent(CommentAdded, projectID, userID, userName, taskID, commentID, CommentEventData{
		Preview: preview,
	})
}

// HandleCommentUpdated コメント更新イベントを記録します
func (m *Manager) HandleCommentUpdated(projectID, userID uuid.UUID, userName string, taskID, commentID uuid.UUID, preview string) *CommentEvent {
	return m.CreateCommentEvent(CommentUpdated, projectID, userID, userName, taskID, commentID, CommentEventData{
		Preview: preview,
	})
}

// HandleCommentDeleted コメント削除イベントを記録します
func (m *Manager) HandleCommentDeleted(projectID, userID uuid.UUID, userName string, taskID, commentID uuid.UUID) *CommentEvent {
	return m.CreateCommentEvent(CommentDeleted, projectID, userID, userName, taskID, commentID, CommentEventData{})
}

// GetProjectEventHistory 指定したプロジェクトの履歴を新しい順に最大limit件返します
func (m *Manager) GetProjectEventHistory(projectID uuid.UUID, limit int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.histories[projectID]
	if limit <= 0 || limit > len(h) {
		limit = len(h)
	}

	result := make([]Event, 0, limit)
	for i := len(h) - 1; i >= len(h)-limit; i-- {
		result = append(result, h[i])
	}
	return result
}

// GetTaskEventHistory 指定したタスクに関するイベントを新しい順に最大limit件返します
func (m *Manager) GetTaskEventHistory(projectID, taskID uuid.UUID, limit int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.histories[projectID]
	result := make([]Event, 0)
	for i := len(h) - 1; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		switch e := h[i].(type) {
		case *TaskEvent:
			if e.TaskID == taskID {
				result = append(result, e)
			}
		case *CommentEvent:
			if e.TaskID == taskID {
				result = append(result, e)
			}
		case *ProjectEvent:
			// タスクを参照しない
		}
	}
	return result
}

// ClearProjectHistory 指定したプロジェクトの履歴を全て破棄します
//
// プロジェクト削除時に使用します。
func (m *Manager) ClearProjectHistory(projectID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.histories, projectID)
}

// CleanupOldEvents 保持期間を超えたイベントを全プロジェクトの履歴から削除します
//
// 履歴が空になったプロジェクトのエントリ自体も削除します。定期的に呼び出されます。
func (m *Manager) CleanupOldEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := m.clock.Now().Add(-m.retention)
	for projectID, h := range m.histories {
		// 履歴は追記順なので、期限内の最初の位置より前を落とすだけで良い
		i := 0
		for i < len(h) && !h[i].EventBase().Timestamp.After(deadline) {
			i++
		}
		if i == 0 {
			continue
		}
		if i == len(h) {
			delete(m.histories, projectID)
			continue
		}
		m.histories[projectID] = h[i:]
	}
}

// GetEventStats イベント履歴の集計情報を返します
func (m *Manager) GetEventStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		Projects: len(m.histories),
		ByType:   map[Type]int{},
	}
	for _, h := range m.histories {
		stats.Events += len(h)
		for _, e := range h {
			stats.ByType[e.EventBase().Type]++
		}
	}
	return stats
}
