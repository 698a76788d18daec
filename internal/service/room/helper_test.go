package room

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/noiva/watchparty/internal/repository/connection"
	"github.com/noiva/watchparty/internal/repository/connection/inmemory"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu      sync.Mutex
	outputs []*Output
}

func (f *fakeSender) Send(msg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.outputs = append(f.outputs, msg.(*Output))
	return nil
}

func (f *fakeSender) Close() error { return nil }

func (f *fakeSender) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	types := make([]string, 0, len(f.outputs))
	for _, o := range f.outputs {
		types = append(types, o.Type)
	}

	return types
}

func (f *fakeSender) ofType(eventType string) []*Output {
	f.mu.Lock()
	defer f.mu.Unlock()

	var res []*Output
	for _, o := range f.outputs {
		if o.Type == eventType {
			res = append(res, o)
		}
	}

	return res
}

func (f *fakeSender) last(t *testing.T, eventType string) *Output {
	t.Helper()
	outputs := f.ofType(eventType)
	require.NotEmpty(t, outputs, "no %s received", eventType)

	return outputs[len(outputs)-1]
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.outputs = nil
}

type harness struct {
	t   *testing.T
	ctx context.Context
	svc *service
	add func(string, connection.Sender) error
	now time.Time
}

func newHarness(t *testing.T, meta iRoomMetaRepo) *harness {
	t.Helper()
	h := &harness{
		t:   t,
		ctx: context.Background(),
		now: time.UnixMilli(1_700_000_000_000),
	}

	connRepo := inmemory.NewRepo()
	svc := NewService(NewRegistry(), connRepo, meta, &Config{
		ProgressInterval: 5 * time.Second,
		ChatMaxLength:    20,
		MetadataTimeout:  time.Second,
	}, slog.Default())
	svc.now = func() time.Time { return h.now }
	h.svc = svc
	h.add = connRepo.Add

	return h
}

func (h *harness) connect(connectionId string) (*Session, *fakeSender) {
	h.t.Helper()
	sender := &fakeSender{}
	require.NoError(h.t, h.add(connectionId, sender))

	return h.svc.NewSession(connectionId), sender
}

func (h *harness) join(ss *Session, roomId, userId string, host bool) JoinRoomResponse {
	h.t.Helper()
	resp, err := ss.Join(h.ctx, &SessionJoinParams{
		RoomId:      roomId,
		UserId:      userId,
		DisplayName: "name-" + userId,
		RequestHost: host,
	})
	require.NoError(h.t, err)

	return resp
}
