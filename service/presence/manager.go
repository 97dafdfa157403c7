package presence

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/taskflow-dev/taskflow/event"
	"github.com/taskflow-dev/taskflow/model"
)

const (
	defaultIdleTimeout      = 5 * time.Minute
	defaultTypingTimeout    = 3 * time.Second
	defaultOfflineRetention = 10 * time.Minute
	defaultSweepInterval    = time.Minute
)

// UserGetter 在席情報の表示用フィールドを引くためのアイデンティティストア
type UserGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Config 在席マネージャーの設定
//
// ゼロ値のフィールドには既定値が使用されます。
type Config struct {
	// IdleTimeout 無操作でアイドル状態に遷移するまでの時間 (default: 5m)
	IdleTimeout time.Duration
	// TypingTimeout 入力中表示が自動で解除されるまでの時間 (default: 3s)
	TypingTimeout time.Duration
	// OfflineRetention オフラインの在席情報を保持する時間 (default: 10m)
	OfflineRetention time.Duration
	// SweepInterval オフライン情報の掃除周期 (default: 1m)
	SweepInterval time.Duration
	// Clock タイマー・時刻取得に使用するクロック (default: 実時間)
	Clock clock.Clock
}

// Manager ユーザー在席マネージャ
//
// ユーザーごとのonline/idle/offline状態・入力中状態・最終操作時刻と、
// アイドル検知/入力解除の2本のタイマーを管理します。
type Manager struct {
	hub    *hub.Hub
	users  UserGetter
	logger *zap.Logger
	clock  clock.Clock

	idleTimeout      time.Duration
	typingTimeout    time.Duration
	offlineRetention time.Duration

	records      map[uuid.UUID]*Record
	projectUsers map[uuid.UUID]map[uuid.UUID]struct{}
	idleTimers   map[uuid.UUID]*clock.Timer
	typingTimers map[uuid.UUID]*clock.Timer
	mu           sync.RWMutex
}

// Stats 在席状態ごとのユーザー数
type Stats struct {
	Online  int `json:"online"`
	Idle    int `json:"idle"`
	Offline int `json:"offline"`
	Total   int `json:"total"`
}

// NewManager ユーザー在席マネージャーを生成します
func NewManager(hub *hub.Hub, users UserGetter, logger *zap.Logger, cfg Config) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.TypingTimeout <= 0 {
		cfg.TypingTimeout = defaultTypingTimeout
	}
	if cfg.OfflineRetention <= 0 {
		cfg.OfflineRetention = defaultOfflineRetention
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	m := &Manager{
		hub:              hub,
		users:            users,
		logger:           logger.Named("presence"),
		clock:            cfg.Clock,
		idleTimeout:      cfg.IdleTimeout,
		typingTimeout:    cfg.TypingTimeout,
		offlineRetention: cfg.OfflineRetention,
		records:          map[uuid.UUID]*Record{},
		projectUsers:     map[uuid.UUID]map[uuid.UUID]struct{}{},
		idleTimers:       map[uuid.UUID]*clock.Timer{},
		typingTimers:     map[uuid.UUID]*clock.Timer{},
	}

	go func() {
		for range m.clock.Ticker(cfg.SweepInterval).C {
			m.CleanupOfflineUsers()
		}
	}()
	return m
}

// SetUserOnline 指定したユーザーをオンラインにします
//
// アイデンティティストアからユーザーが引けなかった場合はログを出して
// 在席情報を作成せずに戻ります。認証済みコネクションでは起こらないはずです。
func (m *Manager) SetUserOnline(ctx context.Context, userID uuid.UUID, connID string) {
	user, err := m.users.GetUser(ctx, userID)
	if err != nil {
		m.logger.Warn("failed to fetch user for presence record",
			zap.Stringer("userId", userID), zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[userID] = &Record{
		UserID:       userID,
		Username:     user.Username,
		DisplayName:  user.DisplayName(),
		AvatarURL:    user.AvatarURL,
		Status:       StatusOnline,
		LastActivity: m.clock.Now(),
		ConnectionID: connID,
	}
	m.startIdleTimer(userID)

	m.hub.Publish(hub.Message{
		Name: event.UserOnline,
		Fields: hub.Fields{
			"user_id": userID,
		},
	})
}

// SetUserOffline 指定したユーザーをオフラインにします
//
// 在席情報は削除せずに保持します。両タイマーを停止します。
func (m *Manager) SetUserOffline(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[userID]
	if !ok {
		return
	}

	r.Status = StatusOffline
	r.IsTyping = false
	r.TypingTaskID = uuid.NullUUID{}
	r.typingProjectID = uuid.Nil
	r.LastActivity = m.clock.Now()
	r.ConnectionID = ""
	m.stopIdleTimer(userID)
	m.stopTypingTimer(userID)

	m.hub.Publish(hub.Message{
		Name: event.UserOffline,
		Fields: hub.Fields{
			"user_id":  userID,
			"datetime": r.LastActivity,
		},
	})
}

// アイドルタイマーの失火時のみ呼ばれる
func (m *Manager) onIdleTimeout(userID uuid.UUID, t *clock.Timer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// タイマーが打ち直されていた場合、失火済みの古いコールバックは無視する
	if m.idleTimers[userID] != t {
		return
	}
	delete(m.idleTimers, userID)

	r, ok := m.records[userID]
	if !ok || r.Status != StatusOnline {
		return
	}

	r.Status = StatusIdle
	// isTyping=trueはstatus=onlineを要求する
	if r.IsTyping {
		m.clearTyping(r)
	}

	m.hub.Publish(hub.Message{
		Name: event.UserIdle,
		Fields: hub.Fields{
			"user_id": userID,
		},
	})
}

// UpdateUserActivity ユーザーの操作を記録します
//
// 最終操作時刻を更新してオンラインに戻し、アイドルタイマーを再始動します。
// 在席情報が存在しない場合は何もしません。
func (m *Manager) UpdateUserActivity(userID, projectID uuid.UUID, taskID uuid.NullUUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[userID]
	if !ok {
		return
	}

	r.LastActivity = m.clock.Now()
	r.Status = StatusOnline
	if taskID.Valid {
		r.CurrentTaskID = taskID
	}
	m.addProjectUser(projectID, userID)
	m.startIdleTimer(userID)

	m.hub.Publish(hub.Message{
		Name: event.UserActivityUpdated,
		Fields: hub.Fields{
			"user_id":    userID,
			"project_id": projectID,
			"task_id":    taskID,
		},
	})
}

// SetUserTyping 指定したユーザーをタスクへの入力中にします
//
// 入力中の間の再呼び出しは入力解除タイマーを打ち直すだけです(デバウンス)。
func (m *Manager) SetUserTyping(userID, projectID, taskID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[userID]
	if !ok {
		return
	}

	r.IsTyping = true
	r.TypingTaskID = uuid.NullUUID{UUID: taskID, Valid: true}
	r.typingProjectID = projectID
	r.LastActivity = m.clock.Now()
	r.Status = StatusOnline
	m.addProjectUser(projectID, userID)
	m.startIdleTimer(userID)
	m.startTypingTimer(userID)

	m.hub.Publish(hub.Message{
		Name: event.UserTyping,
		Fields: hub.Fields{
			"user_id":    userID,
			"project_id": projectID,
			"task_id":    taskID,
		},
	})
}

// ClearUserTyping 指定したユーザーの入力中状態を解除します
//
// クライアントからの明示的な通知、または入力解除タイマーの失火により呼ばれます。
func (m *Manager) ClearUserTyping(userID, projectID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearTypingAndNotify(userID, projectID)
}

// 入力解除タイマーの失火時のみ呼ばれる
func (m *Manager) onTypingTimeout(userID uuid.UUID, t *clock.Timer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// タイマーが打ち直されていた場合、失火済みの古いコールバックは無視する
	if m.typingTimers[userID] != t {
		return
	}
	m.clearTypingAndNotify(userID, uuid.Nil)
}

// ロックを取得した状態で呼ぶこと
func (m *Manager) clearTypingAndNotify(userID, projectID uuid.UUID) {
	r, ok := m.records[userID]
	if !ok || !r.IsTyping {
		return
	}

	if projectID == uuid.Nil {
		projectID = r.typingProjectID
	}
	m.clearTyping(r)

	m.hub.Publish(hub.Message{
		Name: event.UserTypingStopped,
		Fields: hub.Fields{
			"user_id":    userID,
			"project_id": projectID,
		},
	})
}

// ロックを取得した状態で呼ぶこと
func (m *Manager) clearTyping(r *Record) {
	r.IsTyping = false
	r.TypingTaskID = uuid.NullUUID{}
	r.typingProjectID = uuid.Nil
	m.stopTypingTimer(r.UserID)
}

// GetUserPresence 指定したユーザーの在席情報のコピーを返します
//
// 不明なユーザーの場合はnilを返します。
func (m *Manager) GetUserPresence(userID uuid.UUID) *Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[userID]
	if !ok {
		return nil
	}
	return r.Clone()
}

// GetActiveUsersInProject 指定したプロジェクトでアクティブなユーザーの在席情報を返します
//
// オフラインのユーザーは除外されます。返り値は防御的コピーです。
func (m *Manager) GetActiveUsersInProject(projectID uuid.UUID) []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := m.projectUsers[projectID]
	result := make([]*Record, 0, len(users))
	for userID := range users {
		r, ok := m.records[userID]
		if !ok || r.Status == StatusOffline {
			continue
		}
		result = append(result, r.Clone())
	}
	return result
}

// GetAllUserPresences 全ユーザーの在席情報を返します
func (m *Manager) GetAllUserPresences() []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return lo.MapToSlice(m.records, func(_ uuid.UUID, r *Record) *Record {
		return r.Clone()
	})
}

// CleanupOfflineUsers オフラインになってから保持期限を超えた在席情報を削除します
//
// 定期的に呼び出されます。削除したユーザーは各プロジェクトの
// アクティブユーザーインデックスからも取り除きます。
func (m *Manager) CleanupOfflineUsers() {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := m.clock.Now().Add(-m.offlineRetention)
	for userID, r := range m.records {
		if r.Status != StatusOffline || r.LastActivity.After(deadline) {
			continue
		}
		delete(m.records, userID)
		for projectID, users := range m.projectUsers {
			delete(users, userID)
			if len(users) == 0 {
				delete(m.projectUsers, projectID)
			}
		}
	}
}

// GetPresenceStats 在席状態ごとのユーザー数を返します
func (m *Manager) GetPresenceStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{Total: len(m.records)}
	for _, r := range m.records {
		switch r.Status {
		case StatusOnline:
			stats.Online++
		case StatusIdle:
			stats.Idle++
		case StatusOffline:
			stats.Offline++
		}
	}
	return stats
}

// ロックを取得した状態で呼ぶこと
func (m *Manager) addProjectUser(projectID, userID uuid.UUID) {
	users, ok := m.projectUsers[projectID]
	if !ok {
		users = map[uuid.UUID]struct{}{}
		m.projectUsers[projectID] = users
	}
	users[userID] = struct{}{}
}

// ロックを取得した状態で呼ぶこと
// 同一ユーザーの既存のタイマーは必ず先に停止する
func (m *Manager) startIdleTimer(userID uuid.UUID) {
	m.stopIdleTimer(userID)
	var t *clock.Timer
	t = m.clock.AfterFunc(m.idleTimeout, func() {
		m.onIdleTimeout(userID, t)
	})
	m.idleTimers[userID] = t
}

// ロックを取得した状態で呼ぶこと
func (m *Manager) stopIdleTimer(userID uuid.UUID) {
	if t, ok := m.idleTimers[userID]; ok {
		t.Stop()
		delete(m.idleTimers, userID)
	}
}

// ロックを取得した状態で呼ぶこと
// 同一ユーザーの既存のタイマーは必ず先に停止する
func (m *Manager) startTypingTimer(userID uuid.UUID) {
	m.stopTypingTimer(userID)
	var t *clock.Timer
	t = m.clock.AfterFunc(m.typingTimeout, func() {
		m.onTypingTimeout(userID, t)
	})
	m.typingTimers[userID] = t
}

// ロックを取得した状態で呼ぶこと
func (m *Manager) stopTypingTimer(userID uuid.UUID) {
	if t, ok := m.typingTimers[userID]; ok {
		t.Stop()
		delete(m.typingTimers, userID)
	}
}
