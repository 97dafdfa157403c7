package room

import (
	"sync"

	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/taskflow-dev/taskflow/event"
)

var roomsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "taskflow",
	Name:      "realtime_rooms",
})

// Manager プロジェクトルームマネージャ
//
// どのユーザーがどのプロジェクトルームに参加しているか、
// 及びユーザーの各WebSocketコネクションIDを管理します。
type Manager struct {
	hub         *hub.Hub
	logger      *zap.Logger
	rooms       map[uuid.UUID]map[uuid.UUID]struct{}
	userRooms   map[uuid.UUID]map[uuid.UUID]struct{}
	connections map[uuid.UUID]map[string]struct{}
	mu          sync.RWMutex
}

// Stats ルームの集計情報
type Stats struct {
	TotalRooms       int `json:"totalRooms"`
	TotalUsers       int `json:"totalUsers"`
	TotalConnections int `json:"totalConnections"`
}

// NewManager プロジェクトルームマネージャーを生成します
func NewManager(hub *hub.Hub, logger *zap.Logger) *Manager {
	return &Manager{
		hub:         hub,
		logger:      logger.Named("room"),
		rooms:       map[uuid.UUID]map[uuid.UUID]struct{}{},
		userRooms:   map[uuid.UUID]map[uuid.UUID]struct{}{},
		connections: map[uuid.UUID]map[string]struct{}{},
	}
}

// AddUserToRoom 指定したユーザーをプロジェクトルームに参加させます
//
// 既に参加済みの場合、メンバーシップは重複しません。
// connIDはいずれの場合もユーザーのコネクション集合に記録されます。
func (m *Manager) AddUserToRoom(userID, projectID uuid.UUID, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.connections[userID]
	if !ok {
		conns = map[string]struct{}{}
		m.connections[userID] = conns
	}
	conns[connID] = struct{}{}

	members, ok := m.rooms[projectID]
	if !ok {
		members = map[uuid.UUID]struct{}{}
		m.rooms[projectID] = members
		roomsGauge.Inc()
	}
	if _, ok := members[userID]; ok {
		return
	}
	members[userID] = struct{}{}

	ur, ok := m.userRooms[userID]
	if !ok {
		ur = map[uuid.UUID]struct{}{}
		m.userRooms[userID] = ur
	}
	ur[projectID] = struct{}{}

	m.hub.Publish(hub.Message{
		Name: event.ProjectUserJoined,
		Fields: hub.Fields{
			"project_id": projectID,
			"user_id":    userID,
		},
	})
}

// RemoveUserFromRoom 指定したユーザーをプロジェクトルームから退出させます
//
// 参加していない場合は何もしません。
// 最後のメンバーが退出した場合、ルームのエントリ自体を削除します。
func (m *Manager) RemoveUserFromRoom(userID, projectID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeMembership(userID, projectID)
}

// RemoveConnection 指定したコネクションIDをユーザーのコネクション集合から削除します
//
// ルームのメンバーシップには影響しません。
func (m *Manager) RemoveConnection(userID uuid.UUID, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.connections[userID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(m.connections, userID)
	}
}

// RemoveUserFromAllRooms 指定したユーザーを全ルームから退出させ、コネクション集合を破棄します
//
// 完全切断時に使用します。
func (m *Manager) RemoveUserFromAllRooms(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for projectID := range m.userRooms[userID] {
		m.removeMembership(userID, projectID)
	}
	delete(m.connections, userID)
}

// ロックを取得した状態で呼ぶこと
func (m *Manager) removeMembership(userID, projectID uuid.UUID) {
	members, ok := m.rooms[projectID]
	if !ok {
		return
	}
	if _, ok := members[userID]; !ok {
		return
	}

	delete(members, userID)
	if len(members) == 0 {
		delete(m.rooms, projectID)
		roomsGauge.Dec()
	}

	if ur, ok := m.userRooms[userID]; ok {
		delete(ur, projectID)
		if len(ur) == 0 {
			delete(m.userRooms, userID)
		}
	}

	m.hub.Publish(hub.Message{
		Name: event.ProjectUserLeft,
		Fields: hub.Fields{
			"project_id": projectID,
			"user_id":    userID,
		},
	})
}

// GetUsersInRoom 指定したルームの現在のメンバーのユーザーIDを返します
func (m *Manager) GetUsersInRoom(projectID uuid.UUID) []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := m.rooms[projectID]
	result := make([]uuid.UUID, 0, len(members))
	for id := range members {
		result = append(result, id)
	}
	return result
}

// GetUserRooms 指定したユーザーが参加中の全ルームのプロジェクトIDを返します
func (m *Manager) GetUserRooms(userID uuid.UUID) []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := m.userRooms[userID]
	result := make([]uuid.UUID, 0, len(rooms))
	for id := range rooms {
		result = append(result, id)
	}
	return result
}

// GetUserConnections 指定したユーザーのアクティブな全コネクションIDを返します
//
// 複数タブ・複数デバイスへのユーザー宛て送信のファンアウトに使用します。
func (m *Manager) GetUserConnections(userID uuid.UUID) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := m.connections[userID]
	result := make([]string, 0, len(conns))
	for id := range conns {
		result = append(result, id)
	}
	return result
}

// IsUserInRoom 指定したユーザーがルームに参加中かどうかを返します
func (m *Manager) IsUserInRoom(userID, projectID uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.rooms[projectID][userID]
	return ok
}

// GetRoomStats ルームの集計情報を返します
func (m *Manager) GetRoomStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		TotalRooms: len(m.rooms),
		TotalUsers: len(m.userRooms),
	}
	for _, conns := range m.connections {
		stats.TotalConnections += len(conns)
	}
	return stats
}
