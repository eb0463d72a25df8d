// Package codeintel implements the completion, navigation and diagnostics
// request paths against the analysis server, shielded by the result cache.
package codeintel

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/a793181018/omnisharp-intellij/src/omnisharp/entity"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/errors"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/transport"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/repository/resultcache"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/repository/session"
	"github.com/gofrs/uuid"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/atomic"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_commandCompletion  = "/autocomplete"
	_commandDefinition  = "/gotodefinition"
	_commandDiagnostics = "/codecheck"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Position identifies the request site within a document. Fingerprint is the
// caller-supplied content-state marker; two identical requests over identical
// content share it, and an edit changes it.
type Position struct {
	File        uri.URI
	Line        int
	Column      int
	Fingerprint string
}

// Controller serves code-intel requests for the workspace's active session.
type Controller interface {
	Completion(ctx context.Context, pos Position) ([]protocol.CompletionItem, error)
	Definition(ctx context.Context, pos Position) ([]protocol.Location, error)
	Diagnostics(ctx context.Context, pos Position) ([]protocol.Diagnostic, error)
}

// Params are inbound parameters to construct a Controller.
type Params struct {
	fx.In

	Logger   *zap.SugaredLogger
	Sessions session.Registry
	Cache    resultcache.Cache
}

type controller struct {
	logger   *zap.SugaredLogger
	sessions session.Registry
	cache    resultcache.Cache
	seq      atomic.Int64

	mu       sync.Mutex
	inflight map[uuid.UUID]chan receiveResult
}

// New constructs the code-intel controller.
func New(p Params) Controller {
	return &controller{
		logger:   p.Logger,
		sessions: p.Sessions,
		cache:    p.Cache,
		inflight: make(map[uuid.UUID]chan receiveResult),
	}
}

// requestEnvelope is the stdio protocol request body.
type requestEnvelope struct {
	Seq       int64       `json:"Seq"`
	Type      string      `json:"Type"`
	Command   string      `json:"Command"`
	Arguments interface{} `json:"Arguments,omitempty"`
}

// responseEnvelope is the stdio protocol response body.
type responseEnvelope struct {
	RequestSeq int64           `json:"Request_seq"`
	Success    bool            `json:"Success"`
	Message    string          `json:"Message,omitempty"`
	Body       json.RawMessage `json:"Body,omitempty"`
}

// positionArguments is the common argument shape for position-keyed commands.
type positionArguments struct {
	FileName string `json:"FileName"`
	Line     int    `json:"Line"`
	Column   int    `json:"Column"`
}

func (c *controller) Completion(ctx context.Context, pos Position) ([]protocol.CompletionItem, error) {
	var items []protocol.CompletionItem
	if err := c.roundTrip(ctx, _commandCompletion, pos, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *controller) Definition(ctx context.Context, pos Position) ([]protocol.Location, error) {
	var locations []protocol.Location
	if err := c.roundTrip(ctx, _commandDefinition, pos, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

func (c *controller) Diagnostics(ctx context.Context, pos Position) ([]protocol.Diagnostic, error) {
	var diagnostics []protocol.Diagnostic
	if err := c.roundTrip(ctx, _commandDiagnostics, pos, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

// roundTrip consults the cache, and on a miss marshals the request through
// the active session's transport and caches the parsed result.
func (c *controller) roundTrip(ctx context.Context, command string, pos Position, out interface{}) error {
	key := cacheKey(command, pos)
	if cached, ok := c.cache.Get(key); ok {
		if cached == nil {
			return nil
		}
		return json.Unmarshal(cached.(json.RawMessage), out)
	}

	sess, err := c.sessions.GetOrCreateSession(ctx)
	if err != nil {
		return err
	}

	body, err := c.exchange(ctx, sess, command, positionArguments{
		FileName: pos.File.Filename(),
		Line:     pos.Line,
		Column:   pos.Column,
	})
	if err != nil {
		return err
	}

	if len(body) == 0 {
		// The server answered with no result; cache the absence.
		c.cache.Put(key, nil)
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return err
	}
	c.cache.Put(key, body)
	return nil
}

// exchange performs one framed request/response pair. The read-timeout wait
// is caller-side: on expiry the response is abandoned, never the process.
func (c *controller) exchange(ctx context.Context, sess *entity.Session, command string, args interface{}) (json.RawMessage, error) {
	tr := sess.Transport()
	seq := c.seq.Inc()

	raw, err := json.Marshal(requestEnvelope{
		Seq:       seq,
		Type:      "request",
		Command:   command,
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}

	if err := tr.Send(transport.Frame(string(raw))); err != nil {
		return nil, c.surface(sess, err)
	}

	deadline := time.Now().Add(tr.ReadTimeout())
	for {
		msg, err := c.receiveOne(ctx, sess.UUID, tr, time.Until(deadline))
		if err != nil {
			return nil, c.surface(sess, err)
		}

		var resp responseEnvelope
		if err := json.Unmarshal([]byte(msg), &resp); err != nil {
			// Raw unframed server chatter; skip it and keep waiting.
			c.logger.Debugw("skipping unframed server output", "line", msg)
			continue
		}
		if resp.RequestSeq != seq {
			continue
		}
		if !resp.Success {
			return nil, &errors.RequestFailedError{Command: command, Message: resp.Message}
		}
		return resp.Body, nil
	}
}

type receiveResult struct {
	msg string
	err error
}

// receiveOne waits for one message up to the remaining budget. An expired
// wait returns TimeoutError and leaves its read in flight; the next wait on
// the same session adopts that read instead of starting a second one, so two
// readers never run over the shared stream.
func (c *controller) receiveOne(ctx context.Context, id uuid.UUID, tr transport.Transport, remaining time.Duration) (string, error) {
	if remaining <= 0 {
		return "", &errors.TimeoutError{Op: "receive", Timeout: tr.ReadTimeout()}
	}

	ch := c.adoptRead(id, tr)

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case r := <-ch:
		c.finishRead(id)
		return r.msg, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", &errors.TimeoutError{Op: "receive", Timeout: tr.ReadTimeout()}
	}
}

// adoptRead returns the session's in-flight read, starting one when none exists.
func (c *controller) adoptRead(id uuid.UUID, tr transport.Transport) chan receiveResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.inflight[id]; ok {
		return ch
	}
	ch := make(chan receiveResult, 1)
	c.inflight[id] = ch
	go func() {
		msg, err := tr.Receive()
		ch <- receiveResult{msg: msg, err: err}
	}()
	return ch
}

func (c *controller) finishRead(id uuid.UUID) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}

// surface propagates a transport error, failing the session only when the
// connection check reports it dead.
func (c *controller) surface(sess *entity.Session, err error) error {
	if !sess.Transport().IsConnected() {
		sess.Fail(err)
	}
	return err
}

func cacheKey(command string, pos Position) resultcache.Key {
	return resultcache.Key{
		File:        pos.File,
		Line:        pos.Line,
		Column:      pos.Column,
		Fingerprint: command + "|" + pos.Fingerprint,
	}
}
