package room

import (
	"slices"
	"time"
)

type room struct {
	id                    string
	hostUserId            string
	videoState            *VideoState
	participants          map[string]*Participant
	lastProgressBroadcast time.Time
}

func (r *room) list() []Participant {
	participants := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		participants = append(participants, *p)
	}
	slices.SortFunc(participants, byJoinOrder)

	return participants
}

func (r *room) setHost(userId string) {
	r.hostUserId = userId
	for id, p := range r.participants {
		p.IsHost = id == userId
	}
}

type connRef struct {
	roomId string
	userId string
}

type JoinParams struct {
	RoomId       string
	UserId       string
	DisplayName  string
	AvatarURL    *string
	ConnectionId string
	RequestHost  bool
}

type LeaveResult struct {
	RoomId      string
	Participant Participant
	RoomDeleted bool
	// NewHost is set when the departing participant was host and someone was promoted.
	NewHost *Participant
}

// Registry maps room ids to their participants.
// It is not safe for concurrent use; callers serialize access.
type Registry struct {
	rooms       map[string]*room
	connections map[string]connRef
	seq         uint64
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]*room),
		connections: make(map[string]connRef),
	}
}

// Join adds or refreshes a participant, creating the room when absent, and
// applies the join election.
func (r *Registry) Join(params *JoinParams) Participant {
	rm, ok := r.rooms[params.RoomId]
	if !ok {
		rm = &room{
			id:           params.RoomId,
			participants: make(map[string]*Participant),
		}
		r.rooms[params.RoomId] = rm
	}

	p, ok := rm.participants[params.UserId]
	if ok {
		if p.ConnectionId != params.ConnectionId {
			delete(r.connections, p.ConnectionId)
		}
		p.DisplayName = params.DisplayName
		p.AvatarURL = params.AvatarURL
		p.ConnectionId = params.ConnectionId
	} else {
		r.seq++
		p = &Participant{
			UserId:       params.UserId,
			DisplayName:  params.DisplayName,
			AvatarURL:    params.AvatarURL,
			ConnectionId: params.ConnectionId,
			joinSeq:      r.seq,
		}
		rm.participants[params.UserId] = p
	}
	r.connections[params.ConnectionId] = connRef{roomId: params.RoomId, userId: params.UserId}

	if ElectOnJoin(rm.hostUserId, params.UserId, params.RequestHost) {
		rm.setHost(params.UserId)
	}

	return *p
}

// Leave removes a participant. The room is deleted when it becomes empty,
// otherwise a departing host is replaced before Leave returns.
func (r *Registry) Leave(roomId, userId string) (LeaveResult, bool) {
	rm, ok := r.rooms[roomId]
	if !ok {
		return LeaveResult{}, false
	}

	p, ok := rm.participants[userId]
	if !ok {
		return LeaveResult{}, false
	}

	delete(rm.participants, userId)
	if ref, ok := r.connections[p.ConnectionId]; ok && ref.roomId == roomId && ref.userId == userId {
		delete(r.connections, p.ConnectionId)
	}

	res := LeaveResult{RoomId: roomId, Participant: *p}
	if len(rm.participants) == 0 {
		delete(r.rooms, roomId)
		res.RoomDeleted = true
		return res, true
	}

	if rm.hostUserId == userId {
		rm.hostUserId = ""
		if successor, ok := ElectSuccessor(rm.list()); ok {
			rm.setHost(successor.UserId)
			newHost := *rm.participants[successor.UserId]
			res.NewHost = &newHost
		}
	}

	return res, true
}

func (r *Registry) LeaveByConnection(connectionId string) (LeaveResult, bool) {
	ref, ok := r.connections[connectionId]
	if !ok {
		return LeaveResult{}, false
	}

	return r.Leave(ref.roomId, ref.userId)
}

// ListParticipants returns the room's participants in join order.
func (r *Registry) ListParticipants(roomId string) []Participant {
	rm, ok := r.rooms[roomId]
	if !ok {
		return []Participant{}
	}

	return rm.list()
}

func (r *Registry) GetRoom(roomId string) (Room, bool) {
	rm, ok := r.rooms[roomId]
	if !ok {
		return Room{}, false
	}

	snapshot := Room{
		Id:           rm.id,
		HostUserId:   rm.hostUserId,
		Participants: rm.list(),
	}
	if rm.videoState != nil {
		state := *rm.videoState
		snapshot.VideoState = &state
	}

	return snapshot, true
}

func (r *Registry) room(roomId string) *room {
	return r.rooms[roomId]
}

func (r *Registry) Len() int {
	return len(r.rooms)
}
