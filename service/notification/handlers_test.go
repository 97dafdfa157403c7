package notification

import (
	"sync"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskflow-dev/taskflow/event"
	"github.com/taskflow-dev/taskflow/service/events"
	"github.com/taskflow-dev/taskflow/service/presence"
	"github.com/taskflow-dev/taskflow/service/room"
	"github.com/taskflow-dev/taskflow/service/ws"
)

type pushedMessage struct {
	t      string
	body   interface{}
	target ws.TargetFunc
}

type capturePusher struct {
	mu       sync.Mutex
	messages []pushedMessage
}

func (p *capturePusher) WriteMessage(t string, body interface{}, targetFunc ws.TargetFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, pushedMessage{t: t, body: body, target: targetFunc})
}

func (p *capturePusher) popAll() []pushedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := p.messages
	p.messages = nil
	return m
}

type fakeSession struct {
	key    string
	userID uuid.UUID
}

func (s *fakeSession) Key() string       { return s.key }
func (s *fakeSession) UserID() uuid.UUID { return s.userID }

func newTestService(t *testing.T) (*Service, *capturePusher, *room.Manager) {
	t.Helper()
	h := hub.New()
	logger := zap.NewNop()
	rooms := room.NewManager(h, logger)
	pm := presence.NewManager(h, nil, logger, presence.Config{})
	pusher := &capturePusher{}
	return &Service{
		hub:      h,
		logger:   logger,
		pusher:   pusher,
		rooms:    rooms,
		presence: pm,
	}, pusher, rooms
}

func TestProjectUserJoinedHandler(t *testing.T) {
	t.Parallel()
	ns, pusher, rooms := newTestService(t)

	projectID := uuid.Must(uuid.NewV7())
	joiner := uuid.Must(uuid.NewV7())
	other := uuid.Must(uuid.NewV7())

	rooms.AddUserToRoom(other, projectID, "conn-other")
	rooms.AddUserToRoom(joiner, projectID, "conn-joiner")

	projectUserJoinedHandler(ns, hub.Message{
		Name: event.ProjectUserJoined,
		Fields: hub.Fields{
			"project_id": projectID,
			"user_id":    joiner,
		},
	})

	messages := pusher.popAll()
	require.Len(t, messages, 1)
	assert.Equal(t, "user-joined", messages[0].t)
	// 参加者本人は対象外、同室の他メンバーのみ対象
	assert.False(t, messages[0].target(&fakeSession{key: "conn-joiner", userID: joiner}))
	assert.True(t, messages[0].target(&fakeSession{key: "conn-other", userID: other}))
	assert.False(t, messages[0].target(&fakeSession{key: "conn-else", userID: uuid.Must(uuid.NewV7())}))
}

func TestUserTypingHandler(t *testing.T) {
	t.Parallel()
	ns, pusher, rooms := newTestService(t)

	projectID := uuid.Must(uuid.NewV7())
	taskID := uuid.Must(uuid.NewV7())
	typist := uuid.Must(uuid.NewV7())
	other := uuid.Must(uuid.NewV7())

	rooms.AddUserToRoom(typist, projectID, "conn-typist")
	rooms.AddUserToRoom(other, projectID, "conn-other")

	userTypingHandler(ns, hub.Message{
		Name: event.UserTyping,
		Fields: hub.Fields{
			"user_id":    typist,
			"project_id": projectID,
			"task_id":    taskID,
		},
	})

	messages := pusher.popAll()
	require.Len(t, messages, 1)
	assert.Equal(t, "user-typing", messages[0].t)
	body := messages[0].body.(map[string]interface{})
	assert.Equal(t, taskID, body["taskId"])
	assert.False(t, messages[0].target(&fakeSession{key: "conn-typist", userID: typist}))
	assert.True(t, messages[0].target(&fakeSession{key: "conn-other", userID: other}))
}

func TestProjectEventRecordedHandler(t *testing.T) {
	t.Parallel()
	ns, pusher, rooms := newTestService(t)

	h := hub.New()
	em := events.NewManager(h, zap.NewNop(), events.Config{})

	projectID := uuid.Must(uuid.NewV7())
	actor := uuid.Must(uuid.NewV7())
	other := uuid.Must(uuid.NewV7())

	rooms.AddUserToRoom(actor, projectID, "conn-actor")
	rooms.AddUserToRoom(other, projectID, "conn-other")

	e := em.HandleTaskCreated(projectID, actor, "bob", uuid.Must(uuid.NewV7()), "Fix bug", "A_FAIRE")

	projectEventRecordedHandler(ns, hub.Message{
		Name: event.ProjectEventRecorded,
		Fields: hub.Fields{
			"project_id": projectID,
			"event":      events.Event(e),
		},
	})

	messages := pusher.popAll()
	require.Len(t, messages, 1)
	assert.Equal(t, "task-created", messages[0].t)
	assert.Equal(t, events.Event(e), messages[0].body)
	// 変更イベントは操作者本人を含むルーム全員に配送される
	assert.True(t, messages[0].target(&fakeSession{key: "conn-actor", userID: actor}))
	assert.True(t, messages[0].target(&fakeSession{key: "conn-other", userID: other}))
	assert.False(t, messages[0].target(&fakeSession{key: "conn-else", userID: uuid.Must(uuid.NewV7())}))
}

func TestRoomCastEmptyRoom(t *testing.T) {
	t.Parallel()
	ns, pusher, _ := newTestService(t)

	roomCast(ns, uuid.Must(uuid.NewV7()), uuid.Nil, "user-left", nil)
	assert.Empty(t, pusher.popAll())
}

func TestUserOnlineHandlerBroadcastsToAll(t *testing.T) {
	t.Parallel()
	ns, pusher, _ := newTestService(t)

	userID := uuid.Must(uuid.NewV7())
	userOnlineHandler(ns, hub.Message{
		Name:   event.UserOnline,
		Fields: hub.Fields{"user_id": userID},
	})

	messages := pusher.popAll()
	require.Len(t, messages, 1)
	assert.Equal(t, "user-online", messages[0].t)
	assert.True(t, messages[0].target(&fakeSession{key: "any", userID: uuid.Must(uuid.NewV7())}))
}
