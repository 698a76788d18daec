package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/noiva/watchparty/internal/service/room"
	"github.com/noiva/watchparty/pkg/ctxlogger"
)

func (c controller) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}

	connectionId := uuid.NewString()
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("connection_id", connectionId))

	wc := newWSConn(conn, c.sendBuffer, c.logger)
	if err := c.connRepo.Add(connectionId, wc); err != nil {
		c.logger.ErrorContext(ctx, "failed to add connection", "error", err)
		conn.Close()
		return
	}

	session := c.roomService.NewSession(connectionId)
	ctx = context.WithValue(ctx, sessionCtxKey, session)

	// closes the socket on server shutdown
	stop := context.AfterFunc(ctx, func() { wc.Close() })
	defer stop()

	go wc.writePump(ctx)
	wc.prepareRead()
	c.logger.InfoContext(ctx, "connection opened")

	err = c.wsRouter.ServeConn(ctx, conn)

	session.Close(ctx)
	c.connRepo.Remove(connectionId)
	wc.Close()
	c.logger.InfoContext(ctx, "connection closed", "reason", err)
}

type JoinRoomInput struct {
	RoomId   string  `json:"roomId" validate:"required,max=128"`
	UserId   string  `json:"userId" validate:"required,max=128"`
	UserName string  `json:"userName" validate:"max=100"`
	PhotoURL *string `json:"photoURL" validate:"omitempty,max=2048"`
	IsHost   bool    `json:"isHost"`
}

func (c controller) handleJoinRoom(ctx context.Context, _ *websocket.Conn, input JoinRoomInput) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %w", room.ErrMalformedEvent, errs)
	}

	session := c.getSessionFromCtx(ctx)
	resp, err := session.Join(ctx, &room.SessionJoinParams{
		RoomId:      input.RoomId,
		UserId:      input.UserId,
		DisplayName: input.UserName,
		AvatarURL:   input.PhotoURL,
		RequestHost: input.IsHost,
	})
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "joined room",
		"room_id", input.RoomId,
		"user_id", input.UserId,
		"is_host", resp.Participant.IsHost,
		"participants", len(resp.Participants),
	)

	return nil
}

type LeaveRoomInput struct {
	RoomId string `json:"roomId"`
	UserId string `json:"userId"`
}

func (c controller) handleLeaveRoom(ctx context.Context, _ *websocket.Conn, input LeaveRoomInput) error {
	session := c.getSessionFromCtx(ctx)
	if _, userId, ok := session.Member(); ok && input.UserId != "" && input.UserId != userId {
		return fmt.Errorf("leave for user %q: %w", input.UserId, room.ErrNotInRoom)
	}

	return session.Leave(ctx, input.RoomId)
}

type VideoActionInput struct {
	Type  string   `json:"type" validate:"required,oneof=play pause seek"`
	Value *float64 `json:"value" validate:"omitempty,gte=0"`
}

func (c controller) handleVideoAction(ctx context.Context, _ *websocket.Conn, input VideoActionInput) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %w", room.ErrMalformedEvent, errs)
	}

	var action room.PlaybackAction
	switch room.ActionType(input.Type) {
	case room.ActionPlay:
		action = room.Play()
	case room.ActionPause:
		action = room.Pause()
	case room.ActionSeek:
		if input.Value == nil {
			return fmt.Errorf("seek without value: %w", room.ErrMalformedEvent)
		}
		action = room.Seek(*input.Value)
	}

	return c.getSessionFromCtx(ctx).SubmitAction(ctx, action)
}

type VideoProgressInput struct {
	PositionSeconds *float64 `json:"positionSeconds" validate:"required,gte=0"`
	IsPlaying       bool     `json:"isPlaying"`
}

func (c controller) handleVideoProgress(ctx context.Context, _ *websocket.Conn, input VideoProgressInput) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %w", room.ErrMalformedEvent, errs)
	}

	return c.getSessionFromCtx(ctx).SubmitProgress(ctx, *input.PositionSeconds, input.IsPlaying)
}

type ChatMessageInput struct {
	Text string `json:"text" validate:"required"`
}

func (c controller) handleChatMessage(ctx context.Context, _ *websocket.Conn, input ChatMessageInput) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %w", room.ErrMalformedEvent, errs)
	}

	msg, err := c.getSessionFromCtx(ctx).SendChat(ctx, input.Text)
	if err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "chat message relayed", "message_id", msg.Id)

	return nil
}
