// Package entity contains the domain logic for the omnisharp client.
package entity

import (
	"context"
	"sync"

	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/transport"
	"github.com/gofrs/uuid"
)

type keyType string

// SessionContextKey indicates the key to be used to identify the session UUID in the context.
const SessionContextKey keyType = "SessionUUID"

// Status is the connection lifecycle state of a Session.
type Status int32

const (
	// StatusDisconnected is both the rest state before first use and the terminal state after disposal.
	StatusDisconnected Status = iota
	// StatusInitializing indicates transport setup is in progress.
	StatusInitializing
	// StatusConnected indicates the transport is live.
	StatusConnected
	// StatusDisconnecting indicates teardown is in progress.
	StatusDisconnecting
	// StatusError indicates an unrecoverable failure; reachable from any state.
	StatusError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusInitializing:
		return "initializing"
	case StatusConnected:
		return "connected"
	case StatusDisconnecting:
		return "disconnecting"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// NotificationKind is the closed set of session notifications.
type NotificationKind int

const (
	// NotificationStatusChanged carries an old/new status pair.
	NotificationStatusChanged NotificationKind = iota
	// NotificationError carries the failure that moved the session to StatusError.
	NotificationError
)

// Notification is delivered synchronously to session listeners on the
// goroutine that changed the status. Listeners must not block.
type Notification struct {
	Kind NotificationKind
	Old  Status
	New  Status
	Err  error
}

// Listener receives session notifications.
type Listener func(Notification)

// Session entity representing one workspace's connection lifecycle to the
// external analysis server.
type Session struct {
	UUID          uuid.UUID
	WorkspaceRoot string
	ServerPath    string

	mu        sync.Mutex
	status    Status
	transport transport.Transport
	listeners map[uuid.UUID]Listener
}

// NewSession creates a Session at rest, owning the given transport.
func NewSession(id uuid.UUID, workspaceRoot string, serverPath string, t transport.Transport) *Session {
	return &Session{
		UUID:          id,
		WorkspaceRoot: workspaceRoot,
		ServerPath:    serverPath,
		status:        StatusDisconnected,
		transport:     t,
		listeners:     make(map[uuid.UUID]Listener),
	}
}

// Initialize performs transport setup, moving the session through
// Initializing to Connected, or to Error on failure.
func (s *Session) Initialize(ctx context.Context) error {
	s.setStatus(StatusInitializing)
	if err := s.transport.Connect(ctx, s.ServerPath, s.WorkspaceRoot); err != nil {
		s.Fail(err)
		return err
	}
	s.setStatus(StatusConnected)
	return nil
}

// Dispose releases the transport and drops all listener registrations.
// Disposing an already-disconnected session is a no-op beyond re-clearing
// listeners.
func (s *Session) Dispose() error {
	s.mu.Lock()
	alreadyDown := s.status == StatusDisconnected
	s.mu.Unlock()

	var err error
	if !alreadyDown {
		s.setStatus(StatusDisconnecting)
		err = s.transport.Disconnect()
		s.setStatus(StatusDisconnected)
	}

	s.mu.Lock()
	s.listeners = make(map[uuid.UUID]Listener)
	s.mu.Unlock()
	return err
}

// Fail moves the session to StatusError and notifies listeners of the cause.
func (s *Session) Fail(err error) {
	old := s.setStatus(StatusError)
	if old == StatusError {
		return
	}
	s.notify(Notification{Kind: NotificationError, Old: old, New: StatusError, Err: err})
}

// IsActive reports whether the session status is exactly Connected.
func (s *Session) IsActive() bool {
	return s.Status() == StatusConnected
}

// Status returns the current lifecycle status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Transport exposes the owned transport to the feature layer. Serializing
// transport use behind the session is the intended discipline.
func (s *Session) Transport() transport.Transport {
	return s.transport
}

// AddListener registers a listener and returns a token for removal.
// Safe to call from within a notification callback.
func (s *Session) AddListener(l Listener) uuid.UUID {
	token := uuid.Must(uuid.NewV4())
	s.mu.Lock()
	s.listeners[token] = l
	s.mu.Unlock()
	return token
}

// RemoveListener drops the listener registered under token.
func (s *Session) RemoveListener(token uuid.UUID) {
	s.mu.Lock()
	delete(s.listeners, token)
	s.mu.Unlock()
}

// setStatus transitions to next and notifies listeners, returning the
// previous status. Redundant transitions do not notify.
func (s *Session) setStatus(next Status) Status {
	s.mu.Lock()
	old := s.status
	if old == next {
		s.mu.Unlock()
		return old
	}
	s.status = next
	s.mu.Unlock()

	if next != StatusError {
		s.notify(Notification{Kind: NotificationStatusChanged, Old: old, New: next})
	}
	return old
}

// notify dispatches synchronously to a snapshot of the listener set, so
// listeners added or removed mid-pass cannot corrupt the iteration.
func (s *Session) notify(n Notification) {
	s.mu.Lock()
	snapshot := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		snapshot = append(snapshot, l)
	}
	s.mu.Unlock()

	for _, l := range snapshot {
		l(n)
	}
}
