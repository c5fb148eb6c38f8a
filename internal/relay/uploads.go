package relay

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go-relay/internal/assemble"
	"go-relay/internal/gateway"
)

// UploadCoordinator owns the in-progress uploads of a single connection:
// file chunks keyed by upload id, audio chunks keyed by chat id, and the
// batch of completed files belonging to one logical multi-file send. It dies
// with the connection; nothing here outlives a disconnect.
//
// Chunk bookkeeping is synchronous under one lock. Persistence runs in its
// own goroutine per completed artifact and reports failures to the log only;
// the sender never hears about them.
type UploadCoordinator struct {
	mu    sync.Mutex
	files *assemble.ChunkSet
	audio *assemble.SlotBuffer
	batch *fileBatch
	gw    gateway.Gateway
	log   *slog.Logger
}

func NewUploadCoordinator(gw gateway.Gateway, log *slog.Logger) *UploadCoordinator {
	return &UploadCoordinator{
		files: assemble.NewChunkSet(),
		audio: assemble.NewSlotBuffer(),
		batch: &fileBatch{},
		gw:    gw,
		log:   log,
	}
}

// HandleFileChunk feeds one file/image chunk in. When the upload completes,
// the payload is decoded and stored asynchronously, and the resulting URL
// joins the send's batch; reaching the declared batch size persists the
// whole batch exactly once.
func (u *UploadCoordinator) HandleFileChunk(ctx context.Context, ev FileChunkEvent) {
	u.mu.Lock()
	payload, done := u.files.Submit(ev.DataFileID, ev.ChunkIndex, ev.Chunk, ev.TotalChunks)
	u.mu.Unlock()
	if !done {
		return
	}
	go u.storeFile(ctx, ev, payload)
}

func (u *UploadCoordinator) storeFile(ctx context.Context, ev FileChunkEvent, payload string) {
	// The payload is a data URI; everything before the first comma is
	// metadata the store does not want.
	if i := strings.Index(payload, ","); i >= 0 {
		payload = payload[i+1:]
	}
	bin, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		u.log.Error("file decode failed", "file", ev.FileName, "upload", ev.DataFileID, "err", err)
		return
	}

	name := fmt.Sprintf("%d_%s_%s_%s", time.Now().UnixMilli(), ev.ChatID, ev.DataFileID, ev.FileName)
	url, err := u.gw.StoreBlob(ctx, bin, name, ev.Type)
	if err != nil {
		u.log.Error("file store failed", "file", ev.FileName, "err", err)
		return
	}

	items, full := u.batch.add(gateway.FileArtifact{URL: url, FileName: ev.FileName}, ev.DataFilesCount)
	if !full {
		return
	}
	if err := u.gw.SaveFileBatch(ctx, ev.ChatID, ev.FromUser, items, ev.Type); err != nil {
		u.log.Error("file batch save failed", "chat", ev.ChatID, "count", len(items), "err", err)
	}
}

// HandleAudioChunk feeds one audio chunk in. A completed recording is stored
// as one ogg blob and persisted as a single audio message.
func (u *UploadCoordinator) HandleAudioChunk(ctx context.Context, ev AudioChunkEvent) {
	u.mu.Lock()
	buf, done := u.audio.Submit(ev.ChatID, ev.ChunkIndex, ev.Chunk, ev.TotalChunks)
	u.mu.Unlock()
	if !done {
		return
	}
	go u.storeAudio(ctx, ev, buf)
}

func (u *UploadCoordinator) storeAudio(ctx context.Context, ev AudioChunkEvent, buf []byte) {
	name := fmt.Sprintf("%d_%s.ogg", time.Now().UnixMilli(), ev.ChatID)
	url, err := u.gw.StoreBlob(ctx, buf, name, "audio")
	if err != nil {
		u.log.Error("audio store failed", "chat", ev.ChatID, "err", err)
		return
	}
	if err := u.gw.SaveAudioMessage(ctx, ev.ChatID, ev.FromUser, url); err != nil {
		u.log.Error("audio save failed", "chat", ev.ChatID, "err", err)
	}
}

// PendingUploads reports incomplete file and audio sessions, in that order.
func (u *UploadCoordinator) PendingUploads() (files, audio int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.files.Pending(), u.audio.Pending()
}

// fileBatch is the shared container completed files accumulate into. It is
// cleared in place on flush: in-flight completions from the next send keep
// appending to the same container, never a stale copy.
type fileBatch struct {
	mu    sync.Mutex
	items []gateway.FileArtifact
}

// add appends one artifact. When the batch reaches want items it returns a
// snapshot and empties the container for the next send.
func (b *fileBatch) add(item gateway.FileArtifact, want int) ([]gateway.FileArtifact, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, item)
	if want <= 0 || len(b.items) < want {
		return nil, false
	}
	snapshot := make([]gateway.FileArtifact, len(b.items))
	copy(snapshot, b.items)
	b.items = b.items[:0]
	return snapshot, true
}
