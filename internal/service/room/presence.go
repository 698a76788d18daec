package room

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

func (s *service) broadcastPresence(ctx context.Context, rm *room) {
	s.broadcast(ctx, rm, "", &Output{
		Type:    EventUsersUpdate,
		Payload: UsersPayload(rm.list()),
	})
}

func (s *service) broadcastHostChange(ctx context.Context, rm *room, newHostUserId string) {
	p, ok := rm.participants[newHostUserId]
	if !ok {
		return
	}

	s.logger.InfoContext(ctx, "host changed", "room_id", rm.id, "user_id", newHostUserId)
	s.send(ctx, p.ConnectionId, &Output{
		Type:    EventHostUpdate,
		Payload: HostUpdatePayload{IsHost: true},
	})
}

func (s *service) sendVideoState(ctx context.Context, connectionId string, state *VideoState) {
	s.send(ctx, connectionId, &Output{
		Type:    EventVideoState,
		Payload: videoStatePayload(state),
	})
}

type RelayChatParams struct {
	RoomId       string
	UserId       string
	ConnectionId string
	Text         string
}

// RelayChat delivers a chat message to every participant of the room,
// including the sender.
func (s *service) RelayChat(ctx context.Context, params *RelayChatParams) (ChatMessage, error) {
	text := strings.TrimSpace(params.Text)
	if text == "" {
		return ChatMessage{}, fmt.Errorf("empty chat message: %w", ErrMalformedEvent)
	}

	if s.cfg.ChatMaxLength > 0 && utf8.RuneCountInString(text) > s.cfg.ChatMaxLength {
		return ChatMessage{}, fmt.Errorf("chat message longer than %d: %w", s.cfg.ChatMaxLength, ErrMalformedEvent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rm := s.registry.room(params.RoomId)
	if rm == nil {
		return ChatMessage{}, ErrRoomNotFound
	}

	sender, ok := member(rm, params.UserId, params.ConnectionId)
	if !ok {
		return ChatMessage{}, ErrNotInRoom
	}

	now := s.now()
	s.chatSeq++
	msg := ChatMessage{
		Id:              fmt.Sprintf("%d-%s-%d", now.UnixMilli(), sender.UserId, s.chatSeq),
		RoomId:          rm.id,
		SenderId:        sender.UserId,
		SenderName:      sender.DisplayName,
		SenderAvatarURL: sender.AvatarURL,
		Text:            text,
		TimestampMillis: now.UnixMilli(),
	}

	s.broadcast(ctx, rm, "", &Output{
		Type:    EventChatMessage,
		Payload: chatMessagePayload(&msg),
	})

	return msg, nil
}
