package events

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskflow-dev/taskflow/event"
)

func newTestManager(t *testing.T) (*Manager, *hub.Hub, *clock.Mock) {
	t.Helper()
	h := hub.New()
	mock := clock.NewMock()
	m := NewManager(h, zap.NewNop(), Config{Clock: mock})
	return m, h, mock
}

func TestManager_HistoryBounded(t *testing.T) {
	t.Parallel()
	m, _, _ := newTestManager(t)

	projectID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())

	var last *TaskEvent
	for i := 0; i < 150; i++ {
		last = m.HandleTaskCreated(projectID, userID, "alice", uuid.Must(uuid.NewV7()), "task", "todo")
	}

	h := m.GetProjectEventHistory(projectID, 0)
	require.Len(t, h, 100)
	// 新しい順で返り、最古の50件が捨てられている
	assert.Equal(t, last.Base.ID, h[0].EventBase().ID)
}

func TestManager_HistoryOrderAndLimit(t *testing.T) {
	t.Parallel()
	m, _, mock := newTestManager(t)

	projectID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		mock.Add(time.Second)
		e := m.HandleTaskDeleted(projectID, userID, "alice", uuid.Must(uuid.NewV7()), "task")
		ids = append(ids, e.Base.ID)
	}

	h := m.GetProjectEventHistory(projectID, 3)
	require.Len(t, h, 3)
	assert.Equal(t, ids[4], h[0].EventBase().ID)
	assert.Equal(t, ids[3], h[1].EventBase().ID)
	assert.Equal(t, ids[2], h[2].EventBase().ID)
}

func TestManager_GetTaskEventHistory(t *testing.T) {
	t.Parallel()
	m, _, _ := newTestManager(t)

	projectID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())
	taskID := uuid.Must(uuid.NewV7())
	otherTaskID := uuid.Must(uuid.NewV7())

	m.HandleTaskCreated(projectID, userID, "alice", taskID, "mine", "todo")
	m.HandleTaskCreated(projectID, userID, "alice", otherTaskID, "other", "todo")
	m.HandleCommentAdded(projectID, userID, "alice", taskID, uuid.Must(uuid.NewV7()), "lgtm")
	m.HandleMemberJoined(projectID, userID, "alice")
	m.HandleTaskMoved(projectID, userID, "alice", taskID, "doing", 0, "todo", 2)

	h := m.GetTaskEventHistory(projectID, taskID, 0)
	require.Len(t, h, 3)
	assert.Equal(t, TaskMoved, h[0].EventBase().Type)
	assert.Equal(t, CommentAdded, h[1].EventBase().Type)
	assert.Equal(t, TaskCreated, h[2].EventBase().Type)

	h = m.GetTaskEventHistory(projectID, taskID, 1)
	require.Len(t, h, 1)
	assert.Equal(t, TaskMoved, h[0].EventBase().Type)
}

func TestManager_RecordPublishesEvent(t *testing.T) {
	t.Parallel()
	m, h, _ := newTestManager(t)

	projectID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())

	sub := h.Subscribe(1, event.ProjectEventRecorded)
	e := m.HandleTaskCreated(projectID, userID, "alice", uuid.Must(uuid.NewV7()), "task", "todo")

	select {
	case msg := <-sub.Receiver:
		assert.Equal(t, projectID, msg.Fields["project_id"])
		assert.Equal(t, Event(e), msg.Fields["event"])
	case <-time.After(time.Second):
		t.Fatal("event was not published")
	}
}

func TestManager_CleanupOldEvents(t *testing.T) {
	t.Parallel()
	m, _, mock := newTestManager(t)

	projectID := uuid.Must(uuid.NewV7())
	staleProjectID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())

	m.HandleTaskCreated(projectID, userID, "alice", uuid.Must(uuid.NewV7()), "old", "todo")
	m.HandleMemberJoined(staleProjectID, userID, "alice")

	mock.Add(6 * 24 * time.Hour)
	kept := m.HandleTaskCreated(projectID, userID, "alice", uuid.Must(uuid.NewV7()), "fresh", "todo")

	// 2日経過で最初の2件のみ期限切れ
	mock.Add(2 * 24 * time.Hour)
	m.CleanupOldEvents()

	h := m.GetProjectEventHistory(projectID, 0)
	require.Len(t, h, 1)
	assert.Equal(t, kept.Base.ID, h[0].EventBase().ID)
	assert.Empty(t, m.GetProjectEventHistory(staleProjectID, 0))

	stats := m.GetEventStats()
	assert.Equal(t, 1, stats.Projects)
}

func TestManager_ClearProjectHistory(t *testing.T) {
	t.Parallel()
	m, _, _ := newTestManager(t)

	projectID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())

	m.HandleTaskCreated(projectID, userID, "alice", uuid.Must(uuid.NewV7()), "task", "todo")
	m.ClearProjectHistory(projectID)
	assert.Empty(t, m.GetProjectEventHistory(projectID, 0))
}

func TestManager_GetEventStats(t *testing.T) {
	t.Parallel()
	m, _, _ := newTestManager(t)

	p1 := uuid.Must(uuid.NewV7())
	p2 := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())

	m.HandleTaskCreated(p1, userID, "alice", uuid.Must(uuid.NewV7()), "a", "todo")
	m.HandleTaskCreated(p1, userID, "alice", uuid.Must(uuid.NewV7()), "b", "todo")
	m.HandleMemberJoined(p2, userID, "alice")

	stats := m.GetEventStats()
	assert.Equal(t, 2, stats.Projects)
	assert.Equal(t, 3, stats.Events)
	assert.Equal(t, 2, stats.ByType[TaskCreated])
	assert.Equal(t, 1, stats.ByType[MemberJoined])
}
