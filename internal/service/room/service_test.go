package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/noiva/watchparty/internal/repository/roommeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinBroadcastsPresence(t *testing.T) {
	h := newHarness(t, nil)
	a, aOut := h.connect("ca")
	b, bOut := h.connect("cb")

	resp := h.join(a, "r1", "a", true)
	assert.True(t, resp.Participant.IsHost)
	h.join(b, "r1", "b", false)

	users := bOut.last(t, EventUsersUpdate).Payload.([]UserPayload)
	require.Len(t, users, 2)
	assert.Equal(t, UserPayload{Id: "a", Name: "name-a", IsHost: true, SocketId: "ca"}, users[0])
	assert.Equal(t, UserPayload{Id: "b", Name: "name-b", IsHost: false, SocketId: "cb"}, users[1])

	assert.Len(t, aOut.ofType(EventUsersUpdate), 2)
	assert.Empty(t, bOut.ofType(EventVideoState), "no cached state yet")
	assert.Equal(t, SessionInRoom, b.State())
}

func TestHostSeekReachesOthersOnly(t *testing.T) {
	h := newHarness(t, nil)
	a, aOut := h.connect("ca")
	b, bOut := h.connect("cb")
	h.join(a, "r1", "a", true)
	h.join(b, "r1", "b", false)

	require.NoError(t, a.SubmitAction(h.ctx, Seek(42)))

	action := bOut.last(t, EventVideoAction).Payload.(VideoActionPayload)
	assert.Equal(t, ActionSeek, action.Type)
	require.NotNil(t, action.Value)
	assert.Equal(t, float64(42), *action.Value)
	assert.Empty(t, aOut.ofType(EventVideoAction))

	c, cOut := h.connect("cc")
	resp := h.join(c, "r1", "c", false)
	require.NotNil(t, resp.VideoState)
	assert.Equal(t, float64(42), resp.VideoState.PositionSeconds)

	assert.Equal(t, []string{EventUsersUpdate, EventVideoState}, cOut.types())
	state := cOut.last(t, EventVideoState).Payload.(VideoStatePayload)
	assert.Equal(t, float64(42), state.PositionSeconds)
	assert.False(t, state.IsPlaying)
	assert.Equal(t, h.now.UnixMilli(), state.UpdatedAt)
	assert.Empty(t, bOut.ofType(EventVideoState), "video state goes to the joiner only")
}

func TestPlayPauseUpdateCache(t *testing.T) {
	h := newHarness(t, nil)
	a, _ := h.connect("ca")
	b, bOut := h.connect("cb")
	h.join(a, "r1", "a", true)
	h.join(b, "r1", "b", false)

	require.NoError(t, a.SubmitAction(h.ctx, Play()))
	rm, err := h.svc.GetRoom("r1")
	require.NoError(t, err)
	assert.True(t, rm.VideoState.IsPlaying)

	require.NoError(t, a.SubmitAction(h.ctx, Pause()))
	rm, _ = h.svc.GetRoom("r1")
	assert.False(t, rm.VideoState.IsPlaying)

	actions := bOut.ofType(EventVideoAction)
	require.Len(t, actions, 2)
	assert.Equal(t, VideoActionPayload{Type: ActionPlay}, actions[0].Payload)
	assert.Equal(t, VideoActionPayload{Type: ActionPause}, actions[1].Payload)
}

func TestNonHostActionRejected(t *testing.T) {
	h := newHarness(t, nil)
	a, aOut := h.connect("ca")
	b, bOut := h.connect("cb")
	h.join(a, "r1", "a", true)
	h.join(b, "r1", "b", false)

	err := b.SubmitAction(h.ctx, Play())
	assert.ErrorIs(t, err, ErrNotHost)
	assert.Empty(t, aOut.ofType(EventVideoAction))
	assert.Empty(t, bOut.ofType(EventVideoAction))

	rm, _ := h.svc.GetRoom("r1")
	assert.Nil(t, rm.VideoState, "rejected action leaves cache untouched")

	err = b.SubmitProgress(h.ctx, 10, true)
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestMalformedActions(t *testing.T) {
	h := newHarness(t, nil)
	a, _ := h.connect("ca")
	h.join(a, "r1", "a", true)

	assert.ErrorIs(t, a.SubmitAction(h.ctx, Seek(-1)), ErrMalformedEvent)
	assert.ErrorIs(t, a.SubmitAction(h.ctx, PlaybackAction{Type: "rewind"}), ErrMalformedEvent)
	assert.ErrorIs(t, a.SubmitProgress(h.ctx, -3, true), ErrMalformedEvent)
}

func TestHostDisconnectPromotesOldest(t *testing.T) {
	h := newHarness(t, nil)
	a, _ := h.connect("ca")
	b, bOut := h.connect("cb")
	c, cOut := h.connect("cc")
	h.join(a, "r1", "a", true)
	h.join(b, "r1", "b", false)
	h.join(c, "r1", "c", false)
	bOut.reset()
	cOut.reset()

	a.Close(h.ctx)
	assert.Equal(t, SessionClosed, a.State())

	assert.Equal(t, []string{EventHostUpdate, EventUsersUpdate}, bOut.types())
	assert.Equal(t, HostUpdatePayload{IsHost: true}, bOut.last(t, EventHostUpdate).Payload)
	assert.Equal(t, []string{EventUsersUpdate}, cOut.types())

	users := cOut.last(t, EventUsersUpdate).Payload.([]UserPayload)
	require.Len(t, users, 2)
	assert.Equal(t, "b", users[0].Id)
	assert.True(t, users[0].IsHost)
	assert.False(t, users[1].IsHost)

	require.NoError(t, b.SubmitAction(h.ctx, Play()), "promoted host can act")
}

func TestLeaveRoomPromotesAndDeletes(t *testing.T) {
	h := newHarness(t, nil)
	a, _ := h.connect("ca")
	b, bOut := h.connect("cb")
	h.join(a, "r1", "a", true)
	h.join(b, "r1", "b", false)

	require.NoError(t, a.Leave(h.ctx, "r1"))
	assert.Equal(t, SessionConnected, a.State())
	assert.Len(t, bOut.ofType(EventHostUpdate), 1)

	users := bOut.last(t, EventUsersUpdate).Payload.([]UserPayload)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsHost)

	require.NoError(t, b.SubmitAction(h.ctx, Seek(12)))
	require.NoError(t, b.Leave(h.ctx, ""))

	_, err := h.svc.GetRoom("r1")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	resp := h.join(b, "r1", "b", false)
	assert.Nil(t, resp.VideoState, "deleted room does not keep video state")
}

func TestLeaveMismatchedRoomIgnored(t *testing.T) {
	h := newHarness(t, nil)
	a, _ := h.connect("ca")
	h.join(a, "r1", "a", true)

	assert.ErrorIs(t, a.Leave(h.ctx, "r2"), ErrNotInRoom)
	assert.Equal(t, SessionInRoom, a.State())
}

func TestEventsBeforeJoinIgnored(t *testing.T) {
	h := newHarness(t, nil)
	a, aOut := h.connect("ca")

	assert.ErrorIs(t, a.SubmitAction(h.ctx, Play()), ErrNotInRoom)
	_, err := a.SendChat(h.ctx, "hi")
	assert.ErrorIs(t, err, ErrNotInRoom)
	assert.ErrorIs(t, a.Leave(h.ctx, "r1"), ErrNotInRoom)
	assert.Empty(t, aOut.types())

	a.Close(h.ctx)
	_, err = a.Join(h.ctx, &SessionJoinParams{RoomId: "r1", UserId: "a"})
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, a.SubmitAction(h.ctx, Play()), ErrSessionClosed)
}

func TestJoinAnotherRoomLeavesFirst(t *testing.T) {
	h := newHarness(t, nil)
	a, _ := h.connect("ca")
	b, bOut := h.connect("cb")
	h.join(a, "r1", "a", true)
	h.join(b, "r1", "b", false)

	h.join(a, "r2", "a", true)

	users := bOut.last(t, EventUsersUpdate).Payload.([]UserPayload)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsHost)

	roomId, userId, ok := a.Member()
	assert.True(t, ok)
	assert.Equal(t, "r2", roomId)
	assert.Equal(t, "a", userId)
}

func TestRejoinFromNewConnection(t *testing.T) {
	h := newHarness(t, nil)
	old, _ := h.connect("c-old")
	b, bOut := h.connect("cb")
	h.join(old, "r1", "a", true)
	h.join(b, "r1", "b", false)

	fresh, _ := h.connect("c-new")
	resp := h.join(fresh, "r1", "a", false)
	assert.True(t, resp.Participant.IsHost)

	users := bOut.last(t, EventUsersUpdate).Payload.([]UserPayload)
	require.Len(t, users, 2)
	assert.Equal(t, "c-new", users[0].SocketId)

	assert.ErrorIs(t, old.SubmitAction(h.ctx, Play()), ErrNotHost, "stale connection lost host rights")

	bOut.reset()
	old.Close(h.ctx)
	assert.Empty(t, bOut.types(), "stale disconnect is a no-op")

	rm, err := h.svc.GetRoom("r1")
	require.NoError(t, err)
	assert.Len(t, rm.Participants, 2)
	assert.Equal(t, "a", rm.HostUserId)
}

func TestSingleHostUnderConcurrentJoins(t *testing.T) {
	h := newHarness(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("u%d", i)
		ss, _ := h.connect("c" + id)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ss.Join(h.ctx, &SessionJoinParams{RoomId: "r1", UserId: id, RequestHost: true})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rm, err := h.svc.GetRoom("r1")
	require.NoError(t, err)
	assert.Len(t, rm.Participants, 50)
	assert.Len(t, hosts(rm.Participants), 1)
}

func TestChatDeliveredToEveryone(t *testing.T) {
	h := newHarness(t, nil)
	a, aOut := h.connect("ca")
	b, bOut := h.connect("cb")
	h.join(a, "r1", "a", true)
	h.join(b, "r1", "b", false)

	msg, err := b.SendChat(h.ctx, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.True(t, strings.HasPrefix(msg.Id, "1700000000000-b"))

	fromA := aOut.last(t, EventChatMessage).Payload.(ChatMessagePayload)
	fromB := bOut.last(t, EventChatMessage).Payload.(ChatMessagePayload)
	assert.Equal(t, fromA, fromB)
	assert.Equal(t, msg.Id, fromA.Id)
	assert.Equal(t, ChatUserPayload{Id: "b", Name: "name-b"}, fromA.User)
	assert.Equal(t, h.now.UnixMilli(), fromA.Timestamp)

	second, err := b.SendChat(h.ctx, "again")
	require.NoError(t, err)
	assert.NotEqual(t, msg.Id, second.Id, "ids are unique within one millisecond")
}

func TestChatValidation(t *testing.T) {
	h := newHarness(t, nil)
	a, aOut := h.connect("ca")
	h.join(a, "r1", "a", true)
	aOut.reset()

	_, err := a.SendChat(h.ctx, "   ")
	assert.ErrorIs(t, err, ErrMalformedEvent)
	_, err = a.SendChat(h.ctx, strings.Repeat("ж", 21))
	assert.ErrorIs(t, err, ErrMalformedEvent)
	_, err = a.SendChat(h.ctx, strings.Repeat("ж", 20))
	assert.NoError(t, err)

	assert.Len(t, aOut.ofType(EventChatMessage), 1)
}

func TestProgressThrottled(t *testing.T) {
	h := newHarness(t, nil)
	a, aOut := h.connect("ca")
	b, bOut := h.connect("cb")
	h.join(a, "r1", "a", true)
	h.join(b, "r1", "b", false)

	require.NoError(t, a.SubmitProgress(h.ctx, 1, true))
	h.now = h.now.Add(2 * time.Second)
	require.NoError(t, a.SubmitProgress(h.ctx, 3, true))

	progress := bOut.ofType(EventVideoProgress)
	require.Len(t, progress, 1)
	assert.Equal(t, VideoProgressPayload{PositionSeconds: 1, IsPlaying: true}, progress[0].Payload)

	rm, _ := h.svc.GetRoom("r1")
	assert.Equal(t, float64(3), rm.VideoState.PositionSeconds, "cache follows every ping")

	h.now = h.now.Add(3 * time.Second)
	require.NoError(t, a.SubmitProgress(h.ctx, 6, false))
	assert.Len(t, bOut.ofType(EventVideoProgress), 2)
	assert.Empty(t, aOut.ofType(EventVideoProgress))
}

func TestProgressUnthrottled(t *testing.T) {
	h := newHarness(t, nil)
	h.svc.cfg.ProgressInterval = 0
	a, _ := h.connect("ca")
	b, bOut := h.connect("cb")
	h.join(a, "r1", "a", true)
	h.join(b, "r1", "b", false)

	for i := 0; i < 3; i++ {
		require.NoError(t, a.SubmitProgress(h.ctx, float64(i), true))
	}
	assert.Len(t, bOut.ofType(EventVideoProgress), 3)
}

type stubMeta struct {
	mu    sync.Mutex
	info  roommeta.VideoInfo
	err   error
	calls int
	gate  chan struct{}
}

func (s *stubMeta) GetVideoInfo(ctx context.Context, _ string) (roommeta.VideoInfo, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return roommeta.VideoInfo{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	return s.info, s.err
}

func TestJoinFetchesVideoInfo(t *testing.T) {
	meta := &stubMeta{info: roommeta.VideoInfo{VideoURL: "https://youtu.be/dQw4w9WgXcQ", VideoTitle: "Song"}}
	h := newHarness(t, meta)
	a, aOut := h.connect("ca")
	h.join(a, "r1", "a", true)
	h.svc.Wait()

	state := aOut.last(t, EventVideoState).Payload.(VideoStatePayload)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", state.VideoURL)
	assert.Equal(t, "Song", state.VideoTitle)
	assert.False(t, state.IsPlaying)

	b, bOut := h.connect("cb")
	h.join(b, "r1", "b", false)
	h.svc.Wait()

	assert.Len(t, bOut.ofType(EventVideoState), 1)
	assert.Equal(t, 1, meta.calls, "seeded room is not looked up again")
}

func TestJoinMergesFetchedInfoIntoCachedState(t *testing.T) {
	meta := &stubMeta{err: errors.New("db down")}
	h := newHarness(t, meta)
	a, _ := h.connect("ca")
	h.join(a, "r1", "a", true)
	h.svc.Wait()
	require.NoError(t, a.SubmitAction(h.ctx, Seek(30)))

	meta.err = nil
	meta.info = roommeta.VideoInfo{VideoURL: "u", VideoTitle: "t"}

	b, bOut := h.connect("cb")
	h.join(b, "r1", "b", false)
	h.svc.Wait()

	states := bOut.ofType(EventVideoState)
	require.Len(t, states, 1, "video state is sent once")
	state := states[0].Payload.(VideoStatePayload)
	assert.Equal(t, "u", state.VideoURL)
	assert.Equal(t, float64(30), state.PositionSeconds)
}

func TestJoinLookupFailureSendsCachedState(t *testing.T) {
	meta := &stubMeta{err: roommeta.ErrNotFound}
	h := newHarness(t, meta)
	a, aOut := h.connect("ca")
	h.join(a, "r1", "a", true)
	h.svc.Wait()
	assert.Empty(t, aOut.ofType(EventVideoState))

	require.NoError(t, a.SubmitAction(h.ctx, Seek(7)))

	b, bOut := h.connect("cb")
	h.join(b, "r1", "b", false)
	h.svc.Wait()

	state := bOut.last(t, EventVideoState).Payload.(VideoStatePayload)
	assert.Equal(t, float64(7), state.PositionSeconds)
	assert.Empty(t, state.VideoURL)
}

func TestJoinLookupAfterLeave(t *testing.T) {
	meta := &stubMeta{info: roommeta.VideoInfo{VideoURL: "u"}, gate: make(chan struct{})}
	h := newHarness(t, meta)
	a, _ := h.connect("ca")
	b, bOut := h.connect("cb")
	h.join(a, "r1", "a", true)
	h.join(b, "r1", "b", false)
	require.NoError(t, b.Leave(h.ctx, "r1"))

	close(meta.gate)
	h.svc.Wait()

	assert.Empty(t, bOut.ofType(EventVideoState), "departed connection gets nothing")
	rm, err := h.svc.GetRoom("r1")
	require.NoError(t, err)
	require.NotNil(t, rm.VideoState)
	assert.Equal(t, "u", rm.VideoState.VideoURL)
}
