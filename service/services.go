package service

import (
	"github.com/leandro-lugaresi/hub"
	"go.uber.org/zap"

	"github.com/taskflow-dev/taskflow/repository"
	"github.com/taskflow-dev/taskflow/service/events"
	"github.com/taskflow-dev/taskflow/service/notification"
	"github.com/taskflow-dev/taskflow/service/presence"
	"github.com/taskflow-dev/taskflow/service/room"
	"github.com/taskflow-dev/taskflow/service/ws"
)

// Services サービスコンテナ
type Services struct {
	OnlineCounter *presence.OnlineCounter
	RoomManager   *room.Manager
	Presence      *presence.Manager
	Events        *events.Manager
	Notification  *notification.Service
	WS            *ws.Streamer
}

// NewServices 全サービスを生成して起動します
func NewServices(hub *hub.Hub, repo repository.Repository, logger *zap.Logger, presenceCfg presence.Config, eventsCfg events.Config) *Services {
	counter := presence.NewOnlineCounter()
	rooms := room.NewManager(hub, logger)
	pm := presence.NewManager(hub, repo, logger, presenceCfg)
	em := events.NewManager(hub, logger, eventsCfg)
	streamer := ws.NewStreamer(hub, rooms, pm, counter, repo, logger)
	ns := notification.NewService(hub, logger, streamer, rooms, pm)

	return &Services{
		OnlineCounter: counter,
		RoomManager:   rooms,
		Presence:      pm,
		Events:        em,
		Notification:  ns,
		WS:            streamer,
	}
}
