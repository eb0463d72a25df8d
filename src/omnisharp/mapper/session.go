package mapper

import (
	"context"

	"github.com/a793181018/omnisharp-intellij/src/omnisharp/entity"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/errors"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/model"
	"github.com/gofrs/uuid"
)

// SessionToInfo maps a Session entity to its reporting snapshot.
func SessionToInfo(s *entity.Session) *model.SessionInfo {
	return &model.SessionInfo{
		UUID:          s.UUID,
		WorkspaceRoot: s.WorkspaceRoot,
		ServerPath:    s.ServerPath,
		Status:        s.Status().String(),
		Active:        s.IsActive(),
		ServerPID:     s.Transport().ProcessID(),
	}
}

// ContextToSessionUUID extracts the UUID from a context
func ContextToSessionUUID(c context.Context) (uuid.UUID, error) {
	s, ok := c.Value(entity.SessionContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, &errors.NoSessionFoundError{}
	}
	return s, nil
}

// SessionUUIDToContext stamps the session UUID onto a context for downstream calls.
func SessionUUIDToContext(c context.Context, id uuid.UUID) context.Context {
	return context.WithValue(c, entity.SessionContextKey, id)
}
