package room

import (
	"context"
	"fmt"
	"sync"
)

type SessionState int

const (
	SessionConnected SessionState = iota
	SessionInRoom
	SessionClosed
)

func (st SessionState) String() string {
	switch st {
	case SessionConnected:
		return "connected"
	case SessionInRoom:
		return "in_room"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session tracks the room membership of one transport connection.
type Session struct {
	service      *service
	connectionId string

	mu     sync.Mutex
	state  SessionState
	roomId string
	userId string
}

func (s *service) NewSession(connectionId string) *Session {
	return &Session{
		service:      s,
		connectionId: connectionId,
		state:        SessionConnected,
	}
}

func (ss *Session) ConnectionId() string {
	return ss.connectionId
}

func (ss *Session) State() SessionState {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	return ss.state
}

// Member returns the room and user the session joined as.
func (ss *Session) Member() (roomId, userId string, ok bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	return ss.roomId, ss.userId, ss.state == SessionInRoom
}

type SessionJoinParams struct {
	RoomId      string
	UserId      string
	DisplayName string
	AvatarURL   *string
	RequestHost bool
}

// Join enters a room. A session already in another room, or in the same room
// as a different user, leaves it first.
func (ss *Session) Join(ctx context.Context, params *SessionJoinParams) (JoinRoomResponse, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.state == SessionClosed {
		return JoinRoomResponse{}, ErrSessionClosed
	}

	if ss.state == SessionInRoom && (ss.roomId != params.RoomId || ss.userId != params.UserId) {
		ss.leave(ctx)
	}

	resp, err := ss.service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:       params.RoomId,
		UserId:       params.UserId,
		DisplayName:  params.DisplayName,
		AvatarURL:    params.AvatarURL,
		RequestHost:  params.RequestHost,
		ConnectionId: ss.connectionId,
	})
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to join room: %w", err)
	}

	ss.state = SessionInRoom
	ss.roomId = params.RoomId
	ss.userId = params.UserId

	return resp, nil
}

// Leave exits the current room. roomId must match the joined room when set.
func (ss *Session) Leave(ctx context.Context, roomId string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if err := ss.inRoom(); err != nil {
		return err
	}

	if roomId != "" && roomId != ss.roomId {
		return fmt.Errorf("leave for room %q while in %q: %w", roomId, ss.roomId, ErrNotInRoom)
	}

	ss.leave(ctx)

	return nil
}

func (ss *Session) leave(ctx context.Context) {
	if err := ss.service.LeaveRoom(ctx, &LeaveRoomParams{
		RoomId:       ss.roomId,
		UserId:       ss.userId,
		ConnectionId: ss.connectionId,
	}); err != nil {
		ss.service.logger.DebugContext(ctx, "leave had no effect", "room_id", ss.roomId, "error", err)
	}

	ss.state = SessionConnected
	ss.roomId = ""
	ss.userId = ""
}

func (ss *Session) SubmitAction(ctx context.Context, action PlaybackAction) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if err := ss.inRoom(); err != nil {
		return err
	}

	return ss.service.SubmitAction(ctx, &SubmitActionParams{
		RoomId:       ss.roomId,
		UserId:       ss.userId,
		ConnectionId: ss.connectionId,
		Action:       action,
	})
}

func (ss *Session) SubmitProgress(ctx context.Context, positionSeconds float64, isPlaying bool) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if err := ss.inRoom(); err != nil {
		return err
	}

	return ss.service.SubmitProgress(ctx, &SubmitProgressParams{
		RoomId:          ss.roomId,
		UserId:          ss.userId,
		ConnectionId:    ss.connectionId,
		PositionSeconds: positionSeconds,
		IsPlaying:       isPlaying,
	})
}

func (ss *Session) SendChat(ctx context.Context, text string) (ChatMessage, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if err := ss.inRoom(); err != nil {
		return ChatMessage{}, err
	}

	return ss.service.RelayChat(ctx, &RelayChatParams{
		RoomId:       ss.roomId,
		UserId:       ss.userId,
		ConnectionId: ss.connectionId,
		Text:         text,
	})
}

// Close handles a transport disconnect. It is idempotent.
func (ss *Session) Close(ctx context.Context) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.state == SessionClosed {
		return
	}

	ss.service.Disconnect(ctx, ss.connectionId)
	ss.state = SessionClosed
	ss.roomId = ""
	ss.userId = ""
}

func (ss *Session) inRoom() error {
	switch ss.state {
	case SessionClosed:
		return ErrSessionClosed
	case SessionConnected:
		return ErrNotInRoom
	}

	return nil
}
