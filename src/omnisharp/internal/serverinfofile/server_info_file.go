package serverinfofile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _configKeyInfoFile = "serverInfoFilePath"

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// ServerInfoFile is an interface to manage contents of a single server info file.
// It records the active session and spawned server process for reference by
// the host editor and other tools, and is removed at shutdown.
type ServerInfoFile interface {
	UpdateField(key string, value string) error
}

type module struct {
	infofile     string
	logger       *zap.SugaredLogger
	fileContents map[string]string
	mu           sync.Mutex
}

// Params define values to be used by ServerInfoFile.
type Params struct {
	fx.In

	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

// New creates a new ServerInfoFile which manages contents of a single server info file.
func New(p Params) (ServerInfoFile, error) {
	m := module{
		logger:       p.Logger,
		fileContents: make(map[string]string),
	}

	if err := m.processConfig(p.Config); err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: m.OnStop,
	})

	return &m, nil
}

func (m *module) OnStop(ctx context.Context) error {
	if m.infofile == "" {
		return nil
	}
	if err := os.Remove(m.infofile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// UpdateField sets one key and rewrites the file. A disabled info file
// (empty path) makes this a no-op.
func (m *module) UpdateField(key string, value string) error {
	if m.infofile == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fileContents[key] = value
	data, err := json.MarshalIndent(m.fileContents, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling server info: %w", err)
	}
	if err := os.WriteFile(m.infofile, data, 0600); err != nil {
		return fmt.Errorf("writing server info file: %w", err)
	}

	m.logger.Debugw("server info updated", "key", key, "value", value)
	return nil
}

func (m *module) processConfig(cfg config.Provider) error {
	return cfg.Get(_configKeyInfoFile).Populate(&m.infofile)
}
