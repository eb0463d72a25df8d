// Package factory contains user-defined factories for entities used in tests
// and wiring.
package factory

import (
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/controller/codeintel"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/repository/resultcache"
	"github.com/gofrs/uuid"
	"go.lsp.dev/uri"
)

// UUID is a user-defined factory for a random uuid.UUID.
func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// Position is a factory for a code-intel request site in the given file.
func Position(file string, line, column int, fingerprint string) codeintel.Position {
	return codeintel.Position{
		File:        uri.File(file),
		Line:        line,
		Column:      column,
		Fingerprint: fingerprint,
	}
}

// CacheKey is a factory for a result cache key in the given file.
func CacheKey(file string, line, column int, fingerprint string) resultcache.Key {
	return resultcache.Key{
		File:        uri.File(file),
		Line:        line,
		Column:      column,
		Fingerprint: fingerprint,
	}
}
