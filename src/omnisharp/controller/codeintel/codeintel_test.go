package codeintel

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/clock/clockfake"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/errors"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/transport"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/transport/transportmock"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/repository/resultcache"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/repository/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fixture struct {
	controller Controller
	transport  *transportmock.MockTransport
	cache      resultcache.Cache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	tr := transportmock.NewMockTransport(ctrl)
	tr.EXPECT().Connect(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	tr.EXPECT().Disconnect().Return(nil).AnyTimes()
	tr.EXPECT().ReadTimeout().Return(time.Second).AnyTimes()

	cfg, err := config.NewStaticProvider(map[string]interface{}{
		"server":    map[string]interface{}{"path": "/usr/local/bin/omnisharp"},
		"workspace": map[string]interface{}{"root": "/workspace"},
	})
	require.NoError(t, err)

	stats := tally.NewTestScope("testing", make(map[string]string, 0))
	registry, err := session.NewRegistry(session.Params{
		Config:     cfg,
		Logger:     zap.NewNop().Sugar(),
		Stats:      stats,
		Transports: transport.Factory(func() transport.Transport { return tr }),
	})
	require.NoError(t, err)

	cache := resultcache.New(time.Minute, clockfake.New(time.Unix(1700000000, 0)), stats)
	return &fixture{
		controller: New(Params{
			Logger:   zap.NewNop().Sugar(),
			Sessions: registry,
			Cache:    cache,
		}),
		transport: tr,
		cache:     cache,
	}
}

func pos(fingerprint string) Position {
	return Position{File: uri.File("/workspace/a.cs"), Line: 12, Column: 8, Fingerprint: fingerprint}
}

func response(seq int64, body string) string {
	return fmt.Sprintf(`{"Request_seq":%d,"Success":true,"Body":%s}`, seq, body)
}

func TestCompletionMissThenHit(t *testing.T) {
	f := newFixture(t)

	f.transport.EXPECT().Send(gomock.Any()).Return(nil).Times(1)
	f.transport.EXPECT().Receive().Return(response(1, `[{"label":"Console"},{"label":"Convert"}]`), nil).Times(1)

	items, err := f.controller.Completion(context.Background(), pos("v1"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Console", items[0].Label)

	// Identical request: served from cache, transport untouched.
	again, err := f.controller.Completion(context.Background(), pos("v1"))
	require.NoError(t, err)
	assert.Equal(t, items, again)
	assert.Equal(t, uint64(1), f.cache.Hits())
}

func TestCompletionFingerprintChangeMisses(t *testing.T) {
	f := newFixture(t)

	f.transport.EXPECT().Send(gomock.Any()).Return(nil).Times(2)
	gomock.InOrder(
		f.transport.EXPECT().Receive().Return(response(1, `[{"label":"old"}]`), nil),
		f.transport.EXPECT().Receive().Return(response(2, `[{"label":"new"}]`), nil),
	)

	before, err := f.controller.Completion(context.Background(), pos("before-edit"))
	require.NoError(t, err)
	after, err := f.controller.Completion(context.Background(), pos("after-edit"))
	require.NoError(t, err)

	assert.Equal(t, "old", before[0].Label)
	assert.Equal(t, "new", after[0].Label)
}

func TestExchangeSkipsUnframedChatter(t *testing.T) {
	f := newFixture(t)

	f.transport.EXPECT().Send(gomock.Any()).Return(nil)
	gomock.InOrder(
		f.transport.EXPECT().Receive().Return("[info] project loaded", nil),
		f.transport.EXPECT().Receive().Return(response(1, `[]`), nil),
	)

	diags, err := f.controller.Diagnostics(context.Background(), pos("v1"))
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestExchangeSkipsMismatchedSeq(t *testing.T) {
	f := newFixture(t)

	f.transport.EXPECT().Send(gomock.Any()).Return(nil)
	gomock.InOrder(
		f.transport.EXPECT().Receive().Return(response(99, `[]`), nil),
		f.transport.EXPECT().Receive().Return(response(1, `[{"uri":"file:///workspace/b.cs"}]`), nil),
	)

	locations, err := f.controller.Definition(context.Background(), pos("v1"))
	require.NoError(t, err)
	require.Len(t, locations, 1)
}

func TestExchangeServerFailure(t *testing.T) {
	f := newFixture(t)

	f.transport.EXPECT().Send(gomock.Any()).Return(nil)
	f.transport.EXPECT().Receive().Return(`{"Request_seq":1,"Success":false,"Message":"project not loaded"}`, nil)
	f.transport.EXPECT().IsConnected().Return(true).AnyTimes()

	_, err := f.controller.Completion(context.Background(), pos("v1"))
	var failed *errors.RequestFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "project not loaded", failed.Message)
}

func TestExchangeReadTimeoutAbandonsWait(t *testing.T) {
	ctrl := gomock.NewController(t)
	slow := transportmock.NewMockTransport(ctrl)
	slow.EXPECT().Connect(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	slow.EXPECT().Disconnect().Return(nil).AnyTimes()
	slow.EXPECT().ReadTimeout().Return(50 * time.Millisecond).AnyTimes()
	slow.EXPECT().Send(gomock.Any()).Return(nil)
	slow.EXPECT().IsConnected().Return(true).AnyTimes()
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	slow.EXPECT().Receive().DoAndReturn(func() (string, error) {
		<-block
		return "", nil
	}).AnyTimes()

	f := replaceTransport(t, slow)
	_, err := f.controller.Completion(context.Background(), pos("v1"))

	var timeout *errors.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "receive", timeout.Op)
}

func TestLateResponseAfterTimeoutIsAdopted(t *testing.T) {
	ctrl := gomock.NewController(t)
	slow := transportmock.NewMockTransport(ctrl)
	slow.EXPECT().Connect(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	slow.EXPECT().Disconnect().Return(nil).AnyTimes()
	slow.EXPECT().ReadTimeout().Return(50 * time.Millisecond).AnyTimes()
	slow.EXPECT().IsConnected().Return(true).AnyTimes()
	slow.EXPECT().Send(gomock.Any()).Return(nil).Times(2)

	// The first read outlives its request; the second request must adopt it
	// rather than start a competing read, then skip the stale seq and take
	// its own answer from the next sequential read.
	release := make(chan struct{})
	gomock.InOrder(
		slow.EXPECT().Receive().DoAndReturn(func() (string, error) {
			<-release
			return response(1, `[{"label":"stale"}]`), nil
		}),
		slow.EXPECT().Receive().Return(response(2, `[{"label":"fresh"}]`), nil),
	)

	f := replaceTransport(t, slow)

	_, err := f.controller.Completion(context.Background(), pos("v1"))
	var timeout *errors.TimeoutError
	require.ErrorAs(t, err, &timeout)

	close(release)
	items, err := f.controller.Completion(context.Background(), pos("v2"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fresh", items[0].Label)
}

func TestTransportErrorFailsDeadSession(t *testing.T) {
	f := newFixture(t)

	sendErr := errors.New("broken pipe")
	f.transport.EXPECT().Send(gomock.Any()).Return(sendErr)
	f.transport.EXPECT().IsConnected().Return(false)

	_, err := f.controller.Completion(context.Background(), pos("v1"))
	require.ErrorIs(t, err, sendErr)
}

// replaceTransport builds a fixture wired to the given transport.
func replaceTransport(t *testing.T, tr transport.Transport) *fixture {
	t.Helper()

	cfg, err := config.NewStaticProvider(map[string]interface{}{
		"server":    map[string]interface{}{"path": "/usr/local/bin/omnisharp"},
		"workspace": map[string]interface{}{"root": "/workspace"},
	})
	require.NoError(t, err)

	stats := tally.NewTestScope("testing", make(map[string]string, 0))
	registry, err := session.NewRegistry(session.Params{
		Config:     cfg,
		Logger:     zap.NewNop().Sugar(),
		Stats:      stats,
		Transports: func() transport.Transport { return tr },
	})
	require.NoError(t, err)

	cache := resultcache.New(time.Minute, clockfake.New(time.Unix(1700000000, 0)), stats)
	return &fixture{
		controller: New(Params{
			Logger:   zap.NewNop().Sugar(),
			Sessions: registry,
			Cache:    cache,
		}),
		cache: cache,
	}
}
