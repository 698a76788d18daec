package controller

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/noiva/watchparty/internal/repository/connection"
	"github.com/noiva/watchparty/internal/service/room"
	"github.com/noiva/watchparty/pkg/validator"
	"github.com/noiva/watchparty/pkg/wsrouter"
)

type iRoomService interface {
	NewSession(connectionId string) *room.Session
	GetRoom(roomId string) (room.Room, error)
}

type iConnRepo interface {
	Add(connectionId string, sender connection.Sender) error
	Remove(connectionId string) (connection.Sender, error)
}

type controller struct {
	roomService iRoomService
	connRepo    iConnRepo
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsRouter    *wsrouter.WSRouter
	logger      *slog.Logger
	sendBuffer  int
}

func NewController(roomService iRoomService, connRepo iConnRepo, logger *slog.Logger, sendBuffer int) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		connRepo:    connRepo,
		validate:    validator.NewValidator(),
		logger:      logger,
		sendBuffer:  sendBuffer,
	}
	c.wsRouter = c.getWSRouter()

	return c
}
