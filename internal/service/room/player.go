package room

import (
	"context"
	"fmt"
	"math"
)

type SubmitActionParams struct {
	RoomId       string
	UserId       string
	ConnectionId string
	Action       PlaybackAction
}

// SubmitAction applies a host's playback action to the room cache and relays
// it to every other participant.
func (s *service) SubmitAction(ctx context.Context, params *SubmitActionParams) error {
	action := params.Action
	switch action.Type {
	case ActionPlay, ActionPause:
	case ActionSeek:
		if math.IsNaN(action.PositionSeconds) || math.IsInf(action.PositionSeconds, 0) || action.PositionSeconds < 0 {
			return fmt.Errorf("invalid seek position %v: %w", action.PositionSeconds, ErrMalformedEvent)
		}
	default:
		return fmt.Errorf("unknown action %q: %w", action.Type, ErrMalformedEvent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rm, err := s.hostRoom(params.RoomId, params.UserId, params.ConnectionId)
	if err != nil {
		return err
	}

	state := rm.ensureVideoState()
	switch action.Type {
	case ActionPlay:
		state.IsPlaying = true
	case ActionPause:
		state.IsPlaying = false
	case ActionSeek:
		state.PositionSeconds = action.PositionSeconds
	}
	state.UpdatedAt = s.now()

	payload := VideoActionPayload{Type: action.Type}
	if action.Type == ActionSeek {
		position := action.PositionSeconds
		payload.Value = &position
	}

	s.logger.DebugContext(ctx, "playback action accepted", "room_id", rm.id, "action", action.Type)
	s.broadcast(ctx, rm, params.ConnectionId, &Output{
		Type:    EventVideoAction,
		Payload: payload,
	})

	return nil
}

type SubmitProgressParams struct {
	RoomId          string
	UserId          string
	ConnectionId    string
	PositionSeconds float64
	IsPlaying       bool
}

// SubmitProgress records the host's reported position. The relay to other
// participants is throttled per room by Config.ProgressInterval.
func (s *service) SubmitProgress(ctx context.Context, params *SubmitProgressParams) error {
	if math.IsNaN(params.PositionSeconds) || math.IsInf(params.PositionSeconds, 0) || params.PositionSeconds < 0 {
		return fmt.Errorf("invalid progress position %v: %w", params.PositionSeconds, ErrMalformedEvent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rm, err := s.hostRoom(params.RoomId, params.UserId, params.ConnectionId)
	if err != nil {
		return err
	}

	now := s.now()
	state := rm.ensureVideoState()
	state.PositionSeconds = params.PositionSeconds
	state.IsPlaying = params.IsPlaying
	state.UpdatedAt = now

	interval := s.cfg.ProgressInterval
	if interval > 0 && !rm.lastProgressBroadcast.IsZero() && now.Sub(rm.lastProgressBroadcast) < interval {
		return nil
	}
	rm.lastProgressBroadcast = now

	s.broadcast(ctx, rm, params.ConnectionId, &Output{
		Type: EventVideoProgress,
		Payload: VideoProgressPayload{
			PositionSeconds: params.PositionSeconds,
			IsPlaying:       params.IsPlaying,
		},
	})

	return nil
}

func (s *service) hostRoom(roomId, userId, connectionId string) (*room, error) {
	rm := s.registry.room(roomId)
	if rm == nil || rm.hostUserId != userId {
		return nil, ErrNotHost
	}

	if _, ok := member(rm, userId, connectionId); !ok {
		return nil, ErrNotHost
	}

	return rm, nil
}

func (r *room) ensureVideoState() *VideoState {
	if r.videoState == nil {
		r.videoState = &VideoState{}
	}

	return r.videoState
}
