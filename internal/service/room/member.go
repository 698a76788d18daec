package room

import (
	"context"
	"fmt"
)

type JoinRoomParams struct {
	RoomId       string
	UserId       string
	DisplayName  string
	AvatarURL    *string
	RequestHost  bool
	ConnectionId string
}

type JoinRoomResponse struct {
	Participant  Participant
	Participants []Participant
	VideoState   *VideoState
}

// JoinRoom registers the participant, announces the new roster to the room
// and sends the cached video state to the joining connection. When the room
// has no known video yet, the state is fetched asynchronously and sent once
// it arrives.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if params.RoomId == "" || params.UserId == "" || params.ConnectionId == "" {
		return JoinRoomResponse{}, fmt.Errorf("join without room, user or connection: %w", ErrMalformedEvent)
	}

	s.mu.Lock()
	joined := s.registry.Join(&JoinParams{
		RoomId:       params.RoomId,
		UserId:       params.UserId,
		DisplayName:  params.DisplayName,
		AvatarURL:    params.AvatarURL,
		ConnectionId: params.ConnectionId,
		RequestHost:  params.RequestHost,
	})
	rm := s.registry.room(params.RoomId)

	s.logger.InfoContext(ctx, "member joined", "room_id", rm.id, "user_id", joined.UserId, "is_host", joined.IsHost)
	s.broadcastPresence(ctx, rm)

	resp := JoinRoomResponse{
		Participant:  joined,
		Participants: rm.list(),
	}
	if rm.videoState != nil {
		state := *rm.videoState
		resp.VideoState = &state
	}

	lookup := s.roomMetaRepo != nil && (rm.videoState == nil || rm.videoState.VideoURL == "")
	if rm.videoState != nil && !lookup {
		s.sendVideoState(ctx, params.ConnectionId, rm.videoState)
	}
	s.mu.Unlock()

	if lookup {
		s.lookups.Add(1)
		go s.resyncVideoState(ctx, params.RoomId, params.ConnectionId)
	}

	return resp, nil
}

type LeaveRoomParams struct {
	RoomId       string
	UserId       string
	ConnectionId string
}

func (s *service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm := s.registry.room(params.RoomId)
	if rm == nil {
		return ErrRoomNotFound
	}

	if _, ok := member(rm, params.UserId, params.ConnectionId); !ok {
		return ErrNotInRoom
	}

	res, _ := s.registry.Leave(params.RoomId, params.UserId)
	s.afterLeave(ctx, res)

	return nil
}

// Disconnect removes whichever participant is bound to connectionId.
// Connections that were replaced by a rejoin are ignored.
func (s *service) Disconnect(ctx context.Context, connectionId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.registry.LeaveByConnection(connectionId)
	if !ok {
		return
	}

	s.afterLeave(ctx, res)
}

func (s *service) afterLeave(ctx context.Context, res LeaveResult) {
	s.logger.InfoContext(ctx, "member left", "room_id", res.RoomId, "user_id", res.Participant.UserId)
	if res.RoomDeleted {
		s.logger.InfoContext(ctx, "room deleted", "room_id", res.RoomId)
		return
	}

	rm := s.registry.room(res.RoomId)
	if res.NewHost != nil {
		s.broadcastHostChange(ctx, rm, res.NewHost.UserId)
	}
	s.broadcastPresence(ctx, rm)
}
