package session

import (
	"context"
	"sync"

	"github.com/a793181018/omnisharp-intellij/src/omnisharp/entity"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/errors"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/transport"
	"github.com/gofrs/uuid"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_configKeyServerPath    = "server.path"
	_configKeyWorkspaceRoot = "workspace.root"
)

// Module is the Fx module for this package.
var Module = fx.Provide(NewRegistry)

// Registry owns the sessions of a single workspace context. At most one
// session is designated active; it is created lazily and reused.
type Registry interface {
	// GetOrCreateSession returns the active session, constructing and
	// initializing exactly one when none exists. Concurrent first callers
	// all observe the same instance.
	GetOrCreateSession(ctx context.Context) (*entity.Session, error)
	// Get returns the session registered under id.
	Get(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	// CloseSession disposes and removes the named session, clearing the
	// active designation when it held it.
	CloseSession(ctx context.Context, id uuid.UUID) error
	// CloseAllSessions disposes every tracked session and clears the registry.
	CloseAllSessions(ctx context.Context) error
	// SessionCount returns the total count of tracked sessions.
	SessionCount(ctx context.Context) (int, error)
}

type registry struct {
	mu       sync.Mutex
	memstore map[uuid.UUID]*entity.Session
	active   uuid.UUID

	serverPath    string
	workspaceRoot string
	transports    transport.Factory
	logger        *zap.SugaredLogger
	stats         tally.Scope
}

// Params are inbound parameters to construct a Registry.
type Params struct {
	fx.In

	Config     config.Provider
	Logger     *zap.SugaredLogger
	Stats      tally.Scope
	Transports transport.Factory
}

// NewRegistry returns a Registry backed by an in-memory session store.
func NewRegistry(p Params) (Registry, error) {
	var serverPath, workspaceRoot string
	if err := p.Config.Get(_configKeyServerPath).Populate(&serverPath); err != nil {
		return nil, err
	}
	if err := p.Config.Get(_configKeyWorkspaceRoot).Populate(&workspaceRoot); err != nil {
		return nil, err
	}

	return &registry{
		memstore:      make(map[uuid.UUID]*entity.Session),
		serverPath:    serverPath,
		workspaceRoot: workspaceRoot,
		transports:    p.Transports,
		logger:        p.Logger,
		stats:         p.Stats,
	}, nil
}

// GetOrCreateSession holds the registry lock across construction and
// initialization, so the creation race cannot yield two active sessions.
func (r *registry) GetOrCreateSession(ctx context.Context) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != uuid.Nil {
		if s, ok := r.memstore[r.active]; ok {
			return s, nil
		}
		r.active = uuid.Nil
	}

	s := entity.NewSession(uuid.Must(uuid.NewV4()), r.workspaceRoot, r.serverPath, r.transports())
	r.memstore[s.UUID] = s
	r.stats.Gauge("active_sessions").Update(float64(len(r.memstore)))

	if err := s.Initialize(ctx); err != nil {
		delete(r.memstore, s.UUID)
		r.stats.Gauge("active_sessions").Update(float64(len(r.memstore)))
		return nil, err
	}

	r.active = s.UUID
	r.logger.Infow("session created", "uuid", s.UUID, "workspaceRoot", s.WorkspaceRoot)
	return s, nil
}

// Get returns the Session associated with the given id.
func (r *registry) Get(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.memstore[id]
	if !ok {
		return nil, &errors.UUIDNotFoundError{UUID: id}
	}
	return s, nil
}

// CloseSession removes and disposes the Session associated with the given id.
func (r *registry) CloseSession(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	s, ok := r.memstore[id]
	if !ok {
		r.mu.Unlock()
		return &errors.UUIDNotFoundError{UUID: id}
	}
	delete(r.memstore, id)
	if r.active == id {
		r.active = uuid.Nil
	}
	r.stats.Gauge("active_sessions").Update(float64(len(r.memstore)))
	r.mu.Unlock()

	return s.Dispose()
}

// CloseAllSessions disposes every tracked session; used on workspace teardown.
func (r *registry) CloseAllSessions(ctx context.Context) error {
	r.mu.Lock()
	sessions := make([]*entity.Session, 0, len(r.memstore))
	for _, s := range r.memstore {
		sessions = append(sessions, s)
	}
	r.memstore = make(map[uuid.UUID]*entity.Session)
	r.active = uuid.Nil
	r.stats.Gauge("active_sessions").Update(0)
	r.mu.Unlock()

	var err error
	for _, s := range sessions {
		err = multierr.Append(err, s.Dispose())
	}
	return err
}

// SessionCount returns the total count of tracked sessions.
func (r *registry) SessionCount(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.memstore), nil
}
