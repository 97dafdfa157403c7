package gorm

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow-dev/taskflow/event"
	"github.com/taskflow-dev/taskflow/model"
)

func waitMessage(t *testing.T, sub hub.Subscription) hub.Message {
	t.Helper()
	select {
	case msg := <-sub.Receiver:
		return msg
	case <-time.After(1 * time.Second):
		t.Fatal("timeout: message was not published")
		return hub.Message{}
	}
}

func TestUserRepository_PublishUserCreated(t *testing.T) {
	t.Parallel()

	h := hub.New()
	r := &userRepository{hub: h}
	sub := h.Subscribe(1, event.UserCreated)

	user := &model.User{ID: uuid.Must(uuid.NewV7()), Username: "alice"}
	r.publishUserCreated(user)

	msg := waitMessage(t, sub)
	require.Equal(t, event.UserCreated, msg.Name)
	assert.Equal(t, user.ID, msg.Fields["user_id"])
	assert.Equal(t, user, msg.Fields["user"])
}

func TestProjectRepository_PublishMemberAdded(t *testing.T) {
	t.Parallel()

	h := hub.New()
	r := &projectRepository{hub: h}
	sub := h.Subscribe(1, event.ProjectMemberAdded)

	pid := uuid.Must(uuid.NewV7())
	uid := uuid.Must(uuid.NewV7())
	r.publishMemberAdded(pid, uid)

	msg := waitMessage(t, sub)
	require.Equal(t, event.ProjectMemberAdded, msg.Name)
	assert.Equal(t, pid, msg.Fields["project_id"])
	assert.Equal(t, uid, msg.Fields["user_id"])
}

func TestProjectRepository_PublishMemberRemoved(t *testing.T) {
	t.Parallel()

	h := hub.New()
	r := &projectRepository{hub: h}
	sub := h.Subscribe(1, event.ProjectMemberRemoved)

	pid := uuid.Must(uuid.NewV7())
	uid := uuid.Must(uuid.NewV7())
	r.publishMemberRemoved(pid, uid)

	msg := waitMessage(t, sub)
	require.Equal(t, event.ProjectMemberRemoved, msg.Name)
	assert.Equal(t, pid, msg.Fields["project_id"])
	assert.Equal(t, uid, msg.Fields["user_id"])
}
