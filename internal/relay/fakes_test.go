package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"go-relay/internal/gateway"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func frame(t *testing.T, event string, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	raw, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return raw
}

type emitted struct {
	event   string
	payload any
}

type fakeConn struct {
	id     string
	mu     sync.Mutex
	events []emitted
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Emit(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, emitted{event: event, payload: payload})
	return nil
}

func (c *fakeConn) emitted() []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]emitted, len(c.events))
	copy(out, c.events)
	return out
}

type blobCall struct {
	data []byte
	name string
	kind string
}

type textCall struct {
	chatID   string
	fromUser string
	text     string
	msgType  string
}

type audioCall struct {
	chatID   string
	fromUser string
	url      string
}

type batchCall struct {
	chatID   string
	fromUser string
	items    []gateway.FileArtifact
	kind     string
}

// fakeGateway records every persistence call. Handlers run persistence
// asynchronously, so tests poll the snapshots with require.Eventually.
type fakeGateway struct {
	mu      sync.Mutex
	blobErr error

	blobs   []blobCall
	texts   []textCall
	audios  []audioCall
	batches []batchCall
}

func (g *fakeGateway) StoreBlob(_ context.Context, data []byte, name, kind string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.blobErr != nil {
		return "", g.blobErr
	}
	g.blobs = append(g.blobs, blobCall{data: data, name: name, kind: kind})
	return "blob://" + kind + "/" + name, nil
}

func (g *fakeGateway) SaveTextMessage(_ context.Context, chatID, fromUser, text, msgType string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, textCall{chatID: chatID, fromUser: fromUser, text: text, msgType: msgType})
	return nil
}

func (g *fakeGateway) SaveAudioMessage(_ context.Context, chatID, fromUser, url string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.audios = append(g.audios, audioCall{chatID: chatID, fromUser: fromUser, url: url})
	return nil
}

func (g *fakeGateway) SaveFileBatch(_ context.Context, chatID, fromUser string, items []gateway.FileArtifact, kind string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.batches = append(g.batches, batchCall{chatID: chatID, fromUser: fromUser, items: items, kind: kind})
	return nil
}

func (g *fakeGateway) ListChatMembers(context.Context, string) ([]string, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) Notify(context.Context, string, string, string, gateway.Notification) error {
	return nil
}

func (g *fakeGateway) EditMessage(context.Context, string, string, string) error {
	return nil
}

func (g *fakeGateway) DeleteMessage(context.Context, string, string) error {
	return nil
}

func (g *fakeGateway) setBlobErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blobErr = err
}

func (g *fakeGateway) blobCalls() []blobCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]blobCall, len(g.blobs))
	copy(out, g.blobs)
	return out
}

func (g *fakeGateway) textCalls() []textCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]textCall, len(g.texts))
	copy(out, g.texts)
	return out
}

func (g *fakeGateway) audioCalls() []audioCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]audioCall, len(g.audios))
	copy(out, g.audios)
	return out
}

func (g *fakeGateway) batchCalls() []batchCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]batchCall, len(g.batches))
	copy(out, g.batches)
	return out
}
