package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/noiva/watchparty/internal/service/room"
)

type participantsResponse struct {
	RoomId     string             `json:"roomId"`
	HostUserId string             `json:"hostUserId,omitempty"`
	Users      []room.UserPayload `json:"users"`
}

func (c controller) getParticipants(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	rm, err := c.roomService.GetRoom(roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		c.logger.ErrorContext(r.Context(), "failed to get room", "room_id", roomId, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	c.writeJSON(w, http.StatusOK, participantsResponse{
		RoomId:     rm.Id,
		HostUserId: rm.HostUserId,
		Users:      room.UsersPayload(rm.Participants),
	})
}
