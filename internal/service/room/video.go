package room

import (
	"context"
	"errors"

	"github.com/noiva/watchparty/internal/repository/roommeta"
)

func (s *service) resyncVideoState(ctx context.Context, roomId, connectionId string) {
	defer s.lookups.Done()

	ctx = context.WithoutCancel(ctx)
	if s.cfg.MetadataTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.MetadataTimeout)
		defer cancel()
	}

	info, err := s.roomMetaRepo.GetVideoInfo(ctx, roomId)
	switch {
	case errors.Is(err, roommeta.ErrNotFound):
		s.logger.DebugContext(ctx, "no video info for room", "room_id", roomId)
	case err != nil:
		s.logger.WarnContext(ctx, "failed to fetch video info", "room_id", roomId, "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rm := s.registry.room(roomId)
	if rm == nil {
		return
	}

	if err == nil {
		state := rm.ensureVideoState()
		if state.VideoURL == "" {
			state.VideoURL = info.VideoURL
			state.VideoTitle = info.VideoTitle
			if state.UpdatedAt.IsZero() {
				state.UpdatedAt = s.now()
			}
		}
	}

	if rm.videoState == nil {
		return
	}

	if ref, ok := s.registry.connections[connectionId]; !ok || ref.roomId != roomId {
		return
	}

	s.sendVideoState(ctx, connectionId, rm.videoState)
}
