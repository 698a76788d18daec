package controller

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/noiva/watchparty/internal/service/room"
	"github.com/noiva/watchparty/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdWSMw(), c.memberWSMw(), c.loggerWSMw())
	mux.OnError(c.handleWSError)

	// room
	wsrouter.Handle(mux, "join-room", c.handleJoinRoom)
	wsrouter.Handle(mux, "leave-room", c.handleLeaveRoom)

	// player
	wsrouter.Handle(mux, "video-action", c.handleVideoAction)
	wsrouter.Handle(mux, "video-progress", c.handleVideoProgress)

	// chat
	wsrouter.Handle(mux, "chat-message", c.handleChatMessage)

	return mux
}

func (c controller) handleWSError(ctx context.Context, _ *websocket.Conn, err error) {
	switch {
	case errors.Is(err, room.ErrNotHost),
		errors.Is(err, room.ErrNotInRoom),
		errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrSessionClosed):
		c.logger.DebugContext(ctx, "event ignored", "reason", err)
	case errors.Is(err, room.ErrMalformedEvent),
		errors.Is(err, wsrouter.ErrInvalidMessage),
		errors.Is(err, wsrouter.ErrUnknownMessageType),
		errors.Is(err, wsrouter.ErrInvalidPayload):
		c.logger.InfoContext(ctx, "malformed event", "error", err)
	default:
		c.logger.ErrorContext(ctx, "failed to handle event", "error", err)
	}
}
