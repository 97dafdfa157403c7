package notification

import (
	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"
	"go.uber.org/zap"

	"github.com/taskflow-dev/taskflow/service/presence"
	"github.com/taskflow-dev/taskflow/service/room"
	"github.com/taskflow-dev/taskflow/service/ws"
)

// Pusher WebSocketメッセージの送出先
type Pusher interface {
	WriteMessage(t string, body interface{}, targetFunc ws.TargetFunc)
}

// Service 通知サービス
//
// ハブに流れるドメインイベントをWebSocketメッセージへ変換して配送します。
type Service struct {
	hub      *hub.Hub
	logger   *zap.Logger
	pusher   Pusher
	rooms    *room.Manager
	presence *presence.Manager
}

// NewService 通知サービスを作成して起動します
func NewService(hub *hub.Hub, logger *zap.Logger, pusher Pusher, rooms *room.Manager, pm *presence.Manager) *Service {
	service := &Service{
		hub:      hub,
		logger:   logger.Named("notification"),
		pusher:   pusher,
		rooms:    rooms,
		presence: pm,
	}
	go func() {
		topics := make([]string, 0, len(handlerMap))
		for k := range handlerMap {
			topics = append(topics, k)
		}
		for msg := range hub.Subscribe(200, topics...).Receiver {
			h, ok := handlerMap[msg.Topic()]
			if ok {
				go h(service, msg)
			}
		}
	}()
	return service
}

// PushToUser 指定したユーザーの全コネクションへメッセージを送出します
func (ns *Service) PushToUser(userID uuid.UUID, payload interface{}) {
	ns.pusher.WriteMessage("notification-received", payload, ws.TargetUsers(userID))
}
