package ws

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// commandHandler 受信したコマンドを処理します
//
// コマンドの処理に失敗してもコネクションは維持し、errorメッセージで通知します。
func (s *session) commandHandler(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.streamer.logger.Error("panic in ws command handler",
				zap.Any("recover", r),
				zap.Stringer("userID", s.userID))
			s.sendErrorMessage("internal error")
		}
	}()

	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.sendErrorMessage("invalid message format")
		return
	}

	switch cmd.Type {
	case "join-project":
		var p joinProjectPayload
		if err := json.Unmarshal(cmd.Body, &p); err != nil {
			s.sendErrorMessage("invalid message body")
			break
		}
		if err := p.Validate(); err != nil {
			s.sendErrorMessage(fmt.Sprintf("invalid message body: %s", err))
			break
		}
		s.joinProject(p.ProjectID)

	case "leave-project":
		var p leaveProjectPayload
		if err := json.Unmarshal(cmd.Body, &p); err != nil {
			s.sendErrorMessage("invalid message body")
			break
		}
		if err := p.Validate(); err != nil {
			s.sendErrorMessage(fmt.Sprintf("invalid message body: %s", err))
			break
		}
		s.streamer.rooms.RemoveUserFromRoom(s.userID, p.ProjectID)

	case "user-typing":
		var p typingPayload
		if err := json.Unmarshal(cmd.Body, &p); err != nil {
			s.sendErrorMessage("invalid message body")
			break
		}
		if err := p.Validate(); err != nil {
			s.sendErrorMessage(fmt.Sprintf("invalid message body: %s", err))
			break
		}
		if !s.streamer.rooms.IsUserInRoom(s.userID, p.ProjectID) {
			s.sendErrorMessage("you are not in the project room")
			break
		}
		s.streamer.presence.SetUserTyping(s.userID, p.ProjectID, p.TaskID)

	case "user-stopped-typing":
		var p stoppedTypingPayload
		if err := json.Unmarshal(cmd.Body, &p); err != nil {
			s.sendErrorMessage("invalid message body")
			break
		}
		s.streamer.presence.ClearUserTyping(s.userID, p.ProjectID)

	default:
		// 不明なコマンド
		s.sendErrorMessage(fmt.Sprintf("unknown command: %s", cmd.Type))
	}
}

func (s *session) joinProject(projectID uuid.UUID) {
	ok, err := s.streamer.members.IsProjectMember(s.req.Context(), projectID, s.userID)
	if err != nil {
		s.streamer.logger.Error("failed to check project membership", zap.Error(err),
			zap.Stringer("userID", s.userID), zap.Stringer("projectID", projectID))
		s.sendErrorMessage("failed to check project membership")
		return
	}
	if !ok {
		s.sendErrorMessage("you are not a member of the project")
		return
	}

	s.streamer.rooms.AddUserToRoom(s.userID, projectID, s.key)
	s.streamer.presence.UpdateUserActivity(s.userID, projectID, uuid.NullUUID{})

	// 参加者本人には現在のアクティブユーザー一覧を返す
	_ = s.writeMessage(&rawMessage{
		t: websocket.TextMessage,
		data: makeMessage("active-users", map[string]interface{}{
			"projectId": projectID,
			"users":     s.streamer.presence.GetActiveUsersInProject(projectID),
		}).toJSON(),
	})
}

func (s *session) sendErrorMessage(message string) {
	_ = s.writeMessage(&rawMessage{
		t:    websocket.TextMessage,
		data: makeMessage("error", message).toJSON(),
	})
}
