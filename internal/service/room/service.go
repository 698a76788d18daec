package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/noiva/watchparty/internal/repository/connection"
	"github.com/noiva/watchparty/internal/repository/roommeta"
)

var (
	ErrNotHost        = errors.New("not host")
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotInRoom      = errors.New("not in room")
	ErrSessionClosed  = errors.New("session closed")
	ErrMalformedEvent = errors.New("malformed event")
)

type iConnRepo interface {
	GetConn(connectionId string) (connection.Sender, error)
}

type iRoomMetaRepo interface {
	GetVideoInfo(ctx context.Context, roomId string) (roommeta.VideoInfo, error)
}

type Config struct {
	ProgressInterval time.Duration
	ChatMaxLength    int
	MetadataTimeout  time.Duration
}

type service struct {
	// mu guards registry and chatSeq.
	mu           sync.Mutex
	registry     *Registry
	connRepo     iConnRepo
	roomMetaRepo iRoomMetaRepo
	cfg          Config
	logger       *slog.Logger
	now          func() time.Time
	chatSeq      uint64
	lookups      sync.WaitGroup
}

// NewService wires the registry to outbound senders. roomMetaRepo may be nil.
func NewService(registry *Registry, connRepo iConnRepo, roomMetaRepo iRoomMetaRepo, cfg *Config, logger *slog.Logger) *service {
	return &service{
		registry:     registry,
		connRepo:     connRepo,
		roomMetaRepo: roomMetaRepo,
		cfg:          *cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *service) GetRoom(roomId string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.registry.GetRoom(roomId)
	if !ok {
		return Room{}, ErrRoomNotFound
	}

	return rm, nil
}

// Wait blocks until pending metadata lookups finish.
func (s *service) Wait() {
	s.lookups.Wait()
}

// send must be called with mu held so that per-connection order follows
// registry order.
func (s *service) send(ctx context.Context, connectionId string, output *Output) {
	conn, err := s.connRepo.GetConn(connectionId)
	if err != nil {
		s.logger.DebugContext(ctx, "no sender for connection", "connection_id", connectionId, "error", err)
		return
	}

	if err := conn.Send(output); err != nil {
		s.logger.InfoContext(ctx, "failed to send", "connection_id", connectionId, "type", output.Type, "error", err)
	}
}

func (s *service) broadcast(ctx context.Context, rm *room, exceptConnectionId string, output *Output) {
	for _, p := range rm.list() {
		if p.ConnectionId == exceptConnectionId {
			continue
		}
		s.send(ctx, p.ConnectionId, output)
	}
}

// member returns the participant bound to userId in rm when connectionId is
// still its current connection. An empty connectionId matches any.
func member(rm *room, userId, connectionId string) (*Participant, bool) {
	p, ok := rm.participants[userId]
	if !ok {
		return nil, false
	}

	if connectionId != "" && p.ConnectionId != connectionId {
		return nil, false
	}

	return p, true
}
