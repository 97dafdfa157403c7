package v3

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/leandro-lugaresi/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskflow-dev/taskflow/model"
	"github.com/taskflow-dev/taskflow/repository"
	"github.com/taskflow-dev/taskflow/router/consts"
	"github.com/taskflow-dev/taskflow/service/events"
	"github.com/taskflow-dev/taskflow/service/presence"
)

type testRepo struct {
	repository.Repository
	users   map[uuid.UUID]*model.User
	members map[uuid.UUID]map[uuid.UUID]bool
}

func (r *testRepo) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *testRepo) IsProjectMember(_ context.Context, projectID, userID uuid.UUID) (bool, error) {
	return r.members[projectID][userID], nil
}

func newTestHandlers(t *testing.T) (*Handlers, *testRepo) {
	t.Helper()
	h := hub.New()
	logger := zap.NewNop()
	repo := &testRepo{
		users:   map[uuid.UUID]*model.User{},
		members: map[uuid.UUID]map[uuid.UUID]bool{},
	}
	return &Handlers{
		Repo:     repo,
		Presence: presence.NewManager(h, repo, logger, presence.Config{}),
		Events:   events.NewManager(h, logger, events.Config{}),
		Hub:      h,
		Logger:   logger,
		Version:  "test",
		Revision: "test",
	}, repo
}

func newTestContext(uid uuid.UUID, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(consts.KeyUserID, uid)
	return c, rec
}

func TestHandlers_GetMyPresence(t *testing.T) {
	t.Parallel()
	h, repo := newTestHandlers(t)
	uid := uuid.Must(uuid.NewV7())
	repo.users[uid] = &model.User{ID: uid, Username: "alice"}

	c, _ := newTestContext(uid, "/")
	err := h.GetMyPresence(c)
	if assert.Error(t, err) {
		herr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, herr.Code)
	}

	h.Presence.SetUserOnline(context.Background(), uid, "conn1")

	c, rec := newTestContext(uid, "/")
	require.NoError(t, h.GetMyPresence(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "alice", body["username"])
}

func TestHandlers_GetUserPresence_InvalidID(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandlers(t)

	c, _ := newTestContext(uuid.Must(uuid.NewV7()), "/")
	c.SetParamNames("userID")
	c.SetParamValues("not-a-uuid")

	err := h.GetUserPresence(c)
	require.Error(t, err)
	herr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, herr.Code)
}

func TestHandlers_GetProjectActivity(t *testing.T) {
	t.Parallel()
	h, repo := newTestHandlers(t)
	uid := uuid.Must(uuid.NewV7())
	pid := uuid.Must(uuid.NewV7())
	repo.members[pid] = map[uuid.UUID]bool{uid: true}

	for i := 0; i < 3; i++ {
		h.Events.HandleTaskCreated(pid, uid, "alice", uuid.Must(uuid.NewV7()), "task", "A_FAIRE")
	}

	c, rec := newTestContext(uid, "/?limit=10")
	c.SetParamNames("projectID")
	c.SetParamValues(pid.String())
	require.NoError(t, h.GetProjectActivity(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 3)
}

func TestHandlers_GetProjectActivity_NotMember(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandlers(t)

	c, _ := newTestContext(uuid.Must(uuid.NewV7()), "/")
	c.SetParamNames("projectID")
	c.SetParamValues(uuid.Must(uuid.NewV7()).String())

	err := h.GetProjectActivity(c)
	require.Error(t, err)
	herr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, herr.Code)
}

func TestHandlers_GetProjectActivity_LimitTooLarge(t *testing.T) {
	t.Parallel()
	h, repo := newTestHandlers(t)
	uid := uuid.Must(uuid.NewV7())
	pid := uuid.Must(uuid.NewV7())
	repo.members[pid] = map[uuid.UUID]bool{uid: true}

	c, _ := newTestContext(uid, "/?limit=500")
	c.SetParamNames("projectID")
	c.SetParamValues(pid.String())

	err := h.GetProjectActivity(c)
	require.Error(t, err)
	herr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, herr.Code)
}
