package room

const (
	EventUsersUpdate   = "users-update"
	EventVideoState    = "video-state"
	EventHostUpdate    = "host-update"
	EventVideoAction   = "video-action"
	EventVideoProgress = "video-progress"
	EventChatMessage   = "chat-message"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type UserPayload struct {
	Id       string  `json:"id"`
	Name     string  `json:"name"`
	PhotoURL *string `json:"photoURL,omitempty"`
	IsHost   bool    `json:"isHost"`
	SocketId string  `json:"socketId"`
}

type VideoStatePayload struct {
	VideoURL        string  `json:"videoUrl,omitempty"`
	VideoTitle      string  `json:"videoTitle,omitempty"`
	IsPlaying       bool    `json:"isPlaying"`
	PositionSeconds float64 `json:"positionSeconds"`
	UpdatedAt       int64   `json:"updatedAt"`
}

type HostUpdatePayload struct {
	IsHost bool `json:"isHost"`
}

type VideoActionPayload struct {
	Type  ActionType `json:"type"`
	Value *float64   `json:"value,omitempty"`
}

type VideoProgressPayload struct {
	PositionSeconds float64 `json:"positionSeconds"`
	IsPlaying       bool    `json:"isPlaying"`
}

type ChatUserPayload struct {
	Id       string  `json:"id"`
	Name     string  `json:"name"`
	PhotoURL *string `json:"photoURL,omitempty"`
}

type ChatMessagePayload struct {
	Id        string          `json:"id"`
	User      ChatUserPayload `json:"user"`
	Text      string          `json:"text"`
	Timestamp int64           `json:"timestamp"`
}

// UsersPayload renders participants as the users-update roster.
func UsersPayload(participants []Participant) []UserPayload {
	users := make([]UserPayload, 0, len(participants))
	for _, p := range participants {
		users = append(users, UserPayload{
			Id:       p.UserId,
			Name:     p.DisplayName,
			PhotoURL: p.AvatarURL,
			IsHost:   p.IsHost,
			SocketId: p.ConnectionId,
		})
	}

	return users
}

func videoStatePayload(state *VideoState) VideoStatePayload {
	return VideoStatePayload{
		VideoURL:        state.VideoURL,
		VideoTitle:      state.VideoTitle,
		IsPlaying:       state.IsPlaying,
		PositionSeconds: state.PositionSeconds,
		UpdatedAt:       state.UpdatedAt.UnixMilli(),
	}
}

func chatMessagePayload(msg *ChatMessage) ChatMessagePayload {
	return ChatMessagePayload{
		Id: msg.Id,
		User: ChatUserPayload{
			Id:       msg.SenderId,
			Name:     msg.SenderName,
			PhotoURL: msg.SenderAvatarURL,
		},
		Text:      msg.Text,
		Timestamp: msg.TimestampMillis,
	}
}
