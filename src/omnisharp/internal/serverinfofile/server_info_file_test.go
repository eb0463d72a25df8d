package serverinfofile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func newInfoFile(t *testing.T, path string) ServerInfoFile {
	t.Helper()
	cfg, err := config.NewStaticProvider(map[string]interface{}{
		"serverInfoFilePath": path,
	})
	require.NoError(t, err)

	info, err := New(Params{
		Config:    cfg,
		Lifecycle: fxtest.NewLifecycle(t),
		Logger:    zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return info
}

func TestUpdateField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omnisharp-info.json")
	info := newInfoFile(t, path)

	require.NoError(t, info.UpdateField("session", "abc-123"))
	require.NoError(t, info.UpdateField("serverPid", "4242"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var contents map[string]string
	require.NoError(t, json.Unmarshal(data, &contents))
	assert.Equal(t, "abc-123", contents["session"])
	assert.Equal(t, "4242", contents["serverPid"])
}

func TestUpdateFieldDisabled(t *testing.T) {
	info := newInfoFile(t, "")
	assert.NoError(t, info.UpdateField("session", "abc-123"))
}

func TestOnStopRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omnisharp-info.json")
	info := newInfoFile(t, path)
	require.NoError(t, info.UpdateField("session", "abc-123"))

	m := info.(*module)
	require.NoError(t, m.OnStop(context.Background()))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing an already-absent file is not an error.
	assert.NoError(t, m.OnStop(context.Background()))
}
