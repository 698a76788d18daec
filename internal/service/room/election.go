package room

import (
	"cmp"
	"slices"
)

func byJoinOrder(a, b Participant) int {
	return cmp.Compare(a.joinSeq, b.joinSeq)
}

// ElectOnJoin reports whether userId holds the host role after joining a room
// whose current host is hostUserId ("" when vacant).
func ElectOnJoin(hostUserId, userId string, requested bool) bool {
	if hostUserId != "" {
		return hostUserId == userId
	}

	return requested
}

// ElectSuccessor picks the participant that joined earliest.
func ElectSuccessor(remaining []Participant) (Participant, bool) {
	if len(remaining) == 0 {
		return Participant{}, false
	}

	return slices.MinFunc(remaining, byJoinOrder), true
}
