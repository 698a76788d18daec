package room

import (
	"time"
)

type Participant struct {
	UserId       string
	DisplayName  string
	AvatarURL    *string
	IsHost       bool
	ConnectionId string
	joinSeq      uint64
}

type VideoState struct {
	VideoURL        string
	VideoTitle      string
	IsPlaying       bool
	PositionSeconds float64
	UpdatedAt       time.Time
}

// Room is a point-in-time copy of a room held by the Registry.
type Room struct {
	Id           string
	HostUserId   string
	VideoState   *VideoState
	Participants []Participant
}

type ChatMessage struct {
	Id              string
	RoomId          string
	SenderId        string
	SenderName      string
	SenderAvatarURL *string
	Text            string
	TimestampMillis int64
}

type ActionType string

const (
	ActionPlay  ActionType = "play"
	ActionPause ActionType = "pause"
	ActionSeek  ActionType = "seek"
)

type PlaybackAction struct {
	Type            ActionType
	PositionSeconds float64
}

func Play() PlaybackAction {
	return PlaybackAction{Type: ActionPlay}
}

func Pause() PlaybackAction {
	return PlaybackAction{Type: ActionPause}
}

func Seek(positionSeconds float64) PlaybackAction {
	return PlaybackAction{Type: ActionSeek, PositionSeconds: positionSeconds}
}
