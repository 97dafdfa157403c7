package ws_test

import (
	"context"
	stdjson "encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"github.com/leandro-lugaresi/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskflow-dev/taskflow/model"
	"github.com/taskflow-dev/taskflow/repository"
	"github.com/taskflow-dev/taskflow/router/extension/ctxkey"
	"github.com/taskflow-dev/taskflow/service/events"
	"github.com/taskflow-dev/taskflow/service/notification"
	"github.com/taskflow-dev/taskflow/service/presence"
	"github.com/taskflow-dev/taskflow/service/room"
	"github.com/taskflow-dev/taskflow/service/ws"
)

type userStore map[uuid.UUID]*model.User

func (s userStore) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

type memberStore map[uuid.UUID]map[uuid.UUID]bool

func (s memberStore) IsProjectMember(_ context.Context, projectID, userID uuid.UUID) (bool, error) {
	return s[projectID][userID], nil
}

type testEnv struct {
	streamer *ws.Streamer
	presence *presence.Manager
	events   *events.Manager
	server   *httptest.Server
}

func setupEnv(t *testing.T, users userStore, members memberStore) *testEnv {
	t.Helper()
	h := hub.New()
	logger := zap.NewNop()

	rooms := room.NewManager(h, logger)
	pm := presence.NewManager(h, users, logger, presence.Config{})
	em := events.NewManager(h, logger, events.Config{})
	streamer := ws.NewStreamer(h, rooms, pm, presence.NewOnlineCounter(), members, logger)
	notification.NewService(h, logger, streamer, rooms, pm)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.FromString(r.Header.Get("X-Test-User"))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		streamer.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxkey.UserID, userID)))
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { _ = streamer.Close() })

	return &testEnv{streamer: streamer, presence: pm, events: em, server: server}
}

func (env *testEnv) dial(t *testing.T, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"X-Test-User": {userID.String()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendCommand(t *testing.T, conn *websocket.Conn, cmdType string, body interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(&ws.Message{Type: cmdType, Body: body}))
}

// readUntil 指定した種類のメッセージを受信するまで他のメッセージを読み飛ばします
func readUntil(t *testing.T, conn *websocket.Conn, want string) stdjson.RawMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var m struct {
			Type string             `json:"type"`
			Body stdjson.RawMessage `json:"body"`
		}
		require.NoError(t, conn.ReadJSON(&m), "timed out waiting for %q", want)
		if m.Type == want {
			return m.Body
		}
	}
}

func TestStreamer_JoinBroadcastAndHistory(t *testing.T) {
	t.Parallel()

	alice := uuid.Must(uuid.NewV7())
	bob := uuid.Must(uuid.NewV7())
	projectID := uuid.Must(uuid.NewV7())

	env := setupEnv(t,
		userStore{
			alice: {ID: alice, Username: "alice"},
			bob:   {ID: bob, Username: "bob"},
		},
		memberStore{projectID: {alice: true, bob: true}},
	)

	connA := env.dial(t, alice)
	sendCommand(t, connA, "join-project", map[string]interface{}{"projectId": projectID})
	body := readUntil(t, connA, "active-users")
	assert.Contains(t, string(body), alice.String())

	connB := env.dial(t, bob)
	sendCommand(t, connB, "join-project", map[string]interface{}{"projectId": projectID})
	readUntil(t, connB, "active-users")

	// 同室のAにはBの参加が通知される
	body = readUntil(t, connA, "user-joined")
	assert.Contains(t, string(body), bob.String())

	taskID := uuid.Must(uuid.NewV7())
	env.events.HandleTaskCreated(projectID, bob, "Bob", taskID, "Fix bug", "A_FAIRE")

	body = readUntil(t, connA, "task-created")
	assert.Contains(t, string(body), taskID.String())
	readUntil(t, connB, "task-created")

	history := env.events.GetProjectEventHistory(projectID, 10)
	require.NotEmpty(t, history)
	assert.Equal(t, events.TaskCreated, history[0].EventBase().Type)
}

func TestStreamer_JoinDeniedKeepsConnection(t *testing.T) {
	t.Parallel()

	alice := uuid.Must(uuid.NewV7())
	projectID := uuid.Must(uuid.NewV7())
	otherProjectID := uuid.Must(uuid.NewV7())

	env := setupEnv(t,
		userStore{alice: {ID: alice, Username: "alice"}},
		memberStore{projectID: {alice: true}},
	)

	conn := env.dial(t, alice)
	sendCommand(t, conn, "join-project", map[string]interface{}{"projectId": otherProjectID})
	body := readUntil(t, conn, "error")
	assert.Contains(t, string(body), "member")

	// エラー後もコネクションは維持され、正当なコマンドは処理される
	sendCommand(t, conn, "join-project", map[string]interface{}{"projectId": projectID})
	readUntil(t, conn, "active-users")
}

func TestStreamer_InvalidCommands(t *testing.T) {
	t.Parallel()

	alice := uuid.Must(uuid.NewV7())
	env := setupEnv(t, userStore{alice: {ID: alice, Username: "alice"}}, memberStore{})

	conn := env.dial(t, alice)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	readUntil(t, conn, "error")

	sendCommand(t, conn, "no-such-command", nil)
	body := readUntil(t, conn, "error")
	assert.Contains(t, string(body), "unknown command")

	sendCommand(t, conn, "join-project", map[string]interface{}{})
	body = readUntil(t, conn, "error")
	assert.Contains(t, string(body), "invalid")
}

func TestStreamer_TypingBroadcast(t *testing.T) {
	t.Parallel()

	alice := uuid.Must(uuid.NewV7())
	bob := uuid.Must(uuid.NewV7())
	projectID := uuid.Must(uuid.NewV7())
	taskID := uuid.Must(uuid.NewV7())

	env := setupEnv(t,
		userStore{
			alice: {ID: alice, Username: "alice"},
			bob:   {ID: bob, Username: "bob"},
		},
		memberStore{projectID: {alice: true, bob: true}},
	)

	connA := env.dial(t, alice)
	sendCommand(t, connA, "join-project", map[string]interface{}{"projectId": projectID})
	readUntil(t, connA, "active-users")

	connB := env.dial(t, bob)
	sendCommand(t, connB, "join-project", map[string]interface{}{"projectId": projectID})
	readUntil(t, connB, "active-users")

	sendCommand(t, connB, "user-typing", map[string]interface{}{"projectId": projectID, "taskId": taskID})
	body := readUntil(t, connA, "user-typing")
	assert.Contains(t, string(body), bob.String())
	assert.Contains(t, string(body), taskID.String())

	sendCommand(t, connB, "user-stopped-typing", map[string]interface{}{"projectId": projectID})
	body = readUntil(t, connA, "user-stopped-typing")
	assert.Contains(t, string(body), bob.String())
}

func TestStreamer_DisconnectMarksOffline(t *testing.T) {
	t.Parallel()

	alice := uuid.Must(uuid.NewV7())
	env := setupEnv(t, userStore{alice: {ID: alice, Username: "alice"}}, memberStore{})

	conn := env.dial(t, alice)
	require.Eventually(t, func() bool {
		r := env.presence.GetUserPresence(alice)
		return r != nil && r.Status == presence.StatusOnline
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		r := env.presence.GetUserPresence(alice)
		return r != nil && r.Status == presence.StatusOffline
	}, time.Second, 5*time.Millisecond)
}
