package app

import (
	"context"
	"os"
	"time"

	"github.com/a793181018/omnisharp-intellij/src/omnisharp/controller/codeintel"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/controller/workspace"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/clock"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/core"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/executor"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/fs"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/serverinfofile"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/transport"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/repository/resultcache"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/repository/session"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/config"
	"go.uber.org/fx"
)

// OpenWorkspaceParams are the dependencies of the startup workspace hook.
type OpenWorkspaceParams struct {
	fx.In

	Config    config.Provider
	Lifecycle fx.Lifecycle
	Workspace workspace.Controller
}

// Module defines the omnisharp client application module.
var Module = fx.Options(
	core.ConfigModule,
	core.LoggerModule,
	clock.Module,
	fs.Module,
	executor.Module,
	serverinfofile.Module,
	transport.Module,
	session.Module,
	resultcache.Module,
	codeintel.Module,
	workspace.Module,
	fx.Provide(func(lc fx.Lifecycle) tally.Scope {
		rs, closer := tally.NewRootScope(tally.ScopeOptions{
			Tags: map[string]string{
				"service": "omnisharp-client",
			},
		}, 1*time.Second)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})

		return rs
	}),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        EnvLocal,
			RuntimeEnvironment: EnvLocal,
		}
	}),
	fx.Invoke(func(c codeintel.Controller) {}),
	fx.Invoke(openWorkspaceOnStart),
)

// openWorkspaceOnStart resolves the workspace root and opens it once the
// application is running. The configured root wins; otherwise the root is
// resolved from the current directory.
func openWorkspaceOnStart(p OpenWorkspaceParams) error {
	var root string
	if err := p.Config.Get("workspace.root").Populate(&root); err != nil {
		return err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if root == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				root = p.Workspace.ResolveRoot(wd)
			}
			return p.Workspace.OpenWorkspace(ctx, root)
		},
	})
	return nil
}
