package gateway

import (
	"context"
	"time"
)

// FileArtifact is one completed upload inside a multi-file send.
type FileArtifact struct {
	URL      string `json:"fileURL"`
	FileName string `json:"fileName"`
}

// Notification carries the user-facing content of a push notification row.
type Notification struct {
	Content  string
	Type     string
	Quantity int
	SentAt   time.Time
}

// Gateway is the persistence collaborator of the relay: a blob store that
// returns addressable URLs plus a document store for messages and
// notifications. Every message write also refreshes the parent chat's
// last-message summary atomically with the message itself.
type Gateway interface {
	// StoreBlob writes binary data under a derived name and returns the URL
	// it can be fetched from. Kind is the logical folder ("image", "file",
	// "audio").
	StoreBlob(ctx context.Context, data []byte, name, kind string) (string, error)

	SaveTextMessage(ctx context.Context, chatID, fromUser, text, msgType string) error
	SaveAudioMessage(ctx context.Context, chatID, fromUser, url string) error
	SaveFileBatch(ctx context.Context, chatID, fromUser string, items []FileArtifact, kind string) error

	ListChatMembers(ctx context.Context, chatID string) ([]string, error)
	Notify(ctx context.Context, fromUser, toUser, chatID string, n Notification) error

	EditMessage(ctx context.Context, chatID, messageID, newContent string) error
	DeleteMessage(ctx context.Context, chatID, messageID string) error
}
