package connection

import "errors"

var (
	ErrAlreadyExists = errors.New("connection already exists")
	ErrNotFound      = errors.New("connection not found")
)

// Sender delivers outbound messages to one live connection.
// Send must not block.
type Sender interface {
	Send(msg any) error
	Close() error
}
