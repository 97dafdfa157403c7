package notification

import (
	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"
	"go.uber.org/zap"

	"github.com/taskflow-dev/taskflow/event"
	"github.com/taskflow-dev/taskflow/service/events"
	"github.com/taskflow-dev/taskflow/service/ws"
)

type eventHandler func(ns *Service, ev hub.Message)

var handlerMap = map[string]eventHandler{
	event.UserOnline:           userOnlineHandler,
	event.UserOffline:          userOfflineHandler,
	event.UserIdle:             userIdleHandler,
	event.UserTyping:           userTypingHandler,
	event.UserTypingStopped:    userTypingStoppedHandler,
	event.ProjectUserJoined:    projectUserJoinedHandler,
	event.ProjectUserLeft:      projectUserLeftHandler,
	event.ProjectEventRecorded: projectEventRecordedHandler,
}

func userOnlineHandler(ns *Service, ev hub.Message) {
	broadcast(ns, "user-online", map[string]interface{}{
		"userId": ev.Fields["user_id"].(uuid.UUID),
	})
}

func userOfflineHandler(ns *Service, ev hub.Message) {
	broadcast(ns, "user-offline", map[string]interface{}{
		"userId": ev.Fields["user_id"].(uuid.UUID),
	})
}

func userIdleHandler(ns *Service, ev hub.Message) {
	broadcast(ns, "user-idle", map[string]interface{}{
		"userId": ev.Fields["user_id"].(uuid.UUID),
	})
}

func userTypingHandler(ns *Service, ev hub.Message) {
	userID := ev.Fields["user_id"].(uuid.UUID)
	projectID := ev.Fields["project_id"].(uuid.UUID)
	roomCast(ns, projectID, userID, "user-typing", map[string]interface{}{
		"userId":    userID,
		"projectId": projectID,
		"taskId":    ev.Fields["task_id"].(uuid.UUID),
	})
}

func userTypingStoppedHandler(ns *Service, ev hub.Message) {
	userID := ev.Fields["user_id"].(uuid.UUID)
	projectID := ev.Fields["project_id"].(uuid.UUID)
	roomCast(ns, projectID, userID, "user-stopped-typing", map[string]interface{}{
		"userId":    userID,
		"projectId": projectID,
	})
}

func projectUserJoinedHandler(ns *Service, ev hub.Message) {
	userID := ev.Fields["user_id"].(uuid.UUID)
	projectID := ev.Fields["project_id"].(uuid.UUID)
	// 本人にはGatewayが直接active-usersを返すので、他のメンバーにのみ通知する
	roomCast(ns, projectID, userID, "user-joined", map[string]interface{}{
		"userId":    userID,
		"projectId": projectID,
		"user":      ns.presence.GetUserPresence(userID),
	})
}

func projectUserLeftHandler(ns *Service, ev hub.Message) {
	userID := ev.Fields["user_id"].(uuid.UUID)
	projectID := ev.Fields["project_id"].(uuid.UUID)
	roomCast(ns, projectID, userID, "user-left", map[string]interface{}{
		"userId":    userID,
		"projectId": projectID,
	})
}

func projectEventRecordedHandler(ns *Service, ev hub.Message) {
	projectID := ev.Fields["project_id"].(uuid.UUID)
	e := ev.Fields["event"].(events.Event)

	var t string
	switch e.EventBase().Type {
	case events.TaskCreated:
		t = "task-created"
	case events.TaskUpdated:
		t = "task-updated"
	case events.TaskDeleted:
		t = "task-deleted"
	case events.TaskMoved:
		t = "task-moved"
	case events.TaskAssigned:
		t = "task-assigned"
	case events.MemberJoined:
		t = "member-joined"
	case events.MemberLeft:
		t = "member-left"
	case events.MemberInvited:
		t = "member-invited"
	case events.CommentAdded:
		t = "comment-added"
	case events.CommentUpdated:
		t = "comment-updated"
	case events.CommentDeleted:
		t = "comment-deleted"
	default:
		ns.logger.Warn("unknown project event type",
			zap.String("type", string(e.EventBase().Type)),
			zap.Stringer("projectId", projectID))
		return
	}

	roomCast(ns, projectID, uuid.Nil, t, e)
}

func broadcast(ns *Service, t string, payload interface{}) {
	ns.pusher.WriteMessage(t, payload, ws.TargetAll())
}

// roomCast プロジェクトルームの現在のメンバーへメッセージを送出します
//
// excludeを指定した場合、そのユーザーのコネクションを対象から外します。
func roomCast(ns *Service, projectID, exclude uuid.UUID, t string, payload interface{}) {
	members := ns.rooms.GetUsersInRoom(projectID)
	if len(members) == 0 {
		return
	}

	target := ws.TargetUsers(members...)
	if exclude != uuid.Nil {
		target = ws.And(target, ws.Not(ws.TargetUsers(exclude)))
	}
	ns.pusher.WriteMessage(t, payload, target)
}
