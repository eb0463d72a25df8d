// Package workspace drives the session lifecycle around workspace open and
// close, and keeps the result cache honest when files change on disk.
package workspace

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/executor"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/fs"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/serverinfofile"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/mapper"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/repository/resultcache"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/repository/session"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyAutoStart  = "server.autoStart"
	_configKeyServerPath = "server.path"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Controller coordinates workspace-level session lifecycle.
type Controller interface {
	// OpenWorkspace auto-starts a session for root when configured and the
	// server executable exists. A failed auto-start logs and degrades; the
	// workspace is left without an active session.
	OpenWorkspace(ctx context.Context, root string) error
	// CloseWorkspace tears down every session and clears the cache.
	CloseWorkspace(ctx context.Context) error
	// ResolveRoot returns the git toplevel for path, falling back to path itself.
	ResolveRoot(path string) string
}

// Params are inbound parameters to construct a Controller.
type Params struct {
	fx.In

	Config     config.Provider
	Logger     *zap.SugaredLogger
	Lifecycle  fx.Lifecycle
	FS         fs.WorkspaceFS
	Executor   executor.Executor
	Sessions   session.Registry
	Cache      resultcache.Cache
	ServerInfo serverinfofile.ServerInfoFile
}

type controller struct {
	autoStart  bool
	serverPath string

	logger     *zap.SugaredLogger
	fs         fs.WorkspaceFS
	executor   executor.Executor
	sessions   session.Registry
	cache      resultcache.Cache
	serverInfo serverinfofile.ServerInfoFile

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// New constructs the workspace controller.
func New(p Params) (Controller, error) {
	c := &controller{
		logger:     p.Logger,
		fs:         p.FS,
		executor:   p.Executor,
		sessions:   p.Sessions,
		cache:      p.Cache,
		serverInfo: p.ServerInfo,
	}

	if err := p.Config.Get(_configKeyAutoStart).Populate(&c.autoStart); err != nil {
		return nil, err
	}
	if err := p.Config.Get(_configKeyServerPath).Populate(&c.serverPath); err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.CloseWorkspace(ctx)
		},
	})

	return c, nil
}

func (c *controller) OpenWorkspace(ctx context.Context, root string) error {
	if !c.autoStart {
		c.logger.Infow("auto-start disabled, workspace opened without a session", "root", root)
		return nil
	}

	ok, err := c.fs.IsExecutable(c.serverPath)
	if err != nil || !ok {
		c.logger.Warnw("analysis server executable unavailable, skipping auto-start",
			"path", c.serverPath, "error", err)
		return nil
	}

	sess, err := c.sessions.GetOrCreateSession(ctx)
	if err != nil {
		// Degrade gracefully: no session means no diagnostics, not a crash.
		c.logger.Warnw("auto-start failed", "root", root, "error", err)
		return nil
	}

	info := mapper.SessionToInfo(sess)
	c.serverInfo.UpdateField("session", info.UUID.String())
	c.serverInfo.UpdateField("workspaceRoot", info.WorkspaceRoot)
	c.serverInfo.UpdateField("serverPid", strconv.Itoa(info.ServerPID))

	// A broken watcher costs cache freshness, never the session.
	if err := c.watch(root); err != nil {
		c.logger.Warnw("workspace watcher unavailable, cached results will not invalidate on file changes",
			"root", root, "error", err)
	}
	return nil
}

func (c *controller) CloseWorkspace(ctx context.Context) error {
	c.mu.Lock()
	watcher := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if watcher != nil {
		watcher.Close()
	}

	err := c.sessions.CloseAllSessions(ctx)
	c.cache.Clear()
	return err
}

// ResolveRoot asks git for the toplevel directory containing path.
func (c *controller) ResolveRoot(path string) string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = path
	stdout, _, _, err := c.executor.Run(cmd)
	if err != nil || strings.TrimSpace(stdout) == "" {
		return path
	}
	return strings.TrimSpace(stdout)
}

// watch invalidates cached results for files that change on disk.
func (c *controller) watch(root string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(root); err != nil {
		watcher.Close()
		return err
	}

	c.mu.Lock()
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.watcher = watcher
	c.mu.Unlock()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					c.cache.ClearScope(event.Name)
					c.logger.Debugw("cache scope invalidated", "path", event.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warnw("workspace watcher error", "error", err)
			}
		}
	}()

	return nil
}
