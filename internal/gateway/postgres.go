package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the Postgres-backed Gateway. Blobs go to a BlobStore; everything
// else lands in the chats/messages/notifications tables. Message writes and
// the parent chat's last-message summary commit in one transaction.
type Store struct {
	db    *sql.DB
	blobs *BlobStore
	log   *slog.Logger
}

func NewStore(db *sql.DB, blobs *BlobStore, log *slog.Logger) *Store {
	return &Store{db: db, blobs: blobs, log: log}
}

func (s *Store) StoreBlob(ctx context.Context, data []byte, name, kind string) (string, error) {
	return s.blobs.Save(ctx, data, name, kind)
}

func (s *Store) SaveTextMessage(ctx context.Context, chatID, fromUser, text, msgType string) error {
	return s.insertMessage(ctx, chatID, fromUser, textSummary(text, msgType), text, nil, msgType)
}

func (s *Store) SaveAudioMessage(ctx context.Context, chatID, fromUser, url string) error {
	return s.insertMessage(ctx, chatID, fromUser, audioSummary, url, nil, "audio")
}

func (s *Store) SaveFileBatch(ctx context.Context, chatID, fromUser string, items []FileArtifact, kind string) error {
	dataFiles, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.insertMessage(ctx, chatID, fromUser, batchSummary(len(items), kind), "", dataFiles, kind)
}

const audioSummary = "audio.xyz"

// textSummary derives the parent chat's last-message line. Link previews
// keep the summary generic; plain text is summarized verbatim with HTML
// line breaks folded back to newlines.
func textSummary(text, msgType string) string {
	if msgType == "link" {
		return "link.xyz"
	}
	return ": " + strings.ReplaceAll(text, "<br/>", "\n")
}

func batchSummary(count int, kind string) string {
	return fmt.Sprintf("had sent %d %s(s).", count, kind)
}

// notificationContent is what the receiver sees; image sends override the
// caller-supplied content with a count line.
func notificationContent(n Notification, senderName string) string {
	if n.Type == "image" {
		return fmt.Sprintf("%s has sent %d image(s)", senderName, n.Quantity)
	}
	return n.Content
}

// insertMessage writes one message row and refreshes the chat summary in the
// same transaction. A sender without a profile row is skipped, not an error:
// the relay accepts events before it knows who is talking.
func (s *Store) insertMessage(ctx context.Context, chatID, fromUser, summary, text string, dataFiles []byte, msgType string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sender, err := getProfile(ctx, tx, fromUser)
	if err != nil {
		if errors.Is(err, errNoProfile) {
			s.log.Warn("message dropped, sender has no profile", "sender", fromUser, "chat", chatID)
			return nil
		}
		return err
	}

	msgID := uuid.New()
	_, err = tx.ExecContext(ctx, `
		UPDATE chats
		SET last_message = $1, last_message_date = now(), last_message_id = $2,
		    last_sender_id = $3, last_sender_name = $4
		WHERE id = $5
	`, summary, msgID, sender.ID, sender.DisplayName, chatID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender_id, display_name, avatar, text, data_files, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, msgID, chatID, sender.ID, sender.DisplayName, sender.AvatarURL, text, dataFiles, msgType)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) ListChatMembers(ctx context.Context, chatID string) ([]string, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT user_ids FROM chats WHERE id = $1", chatID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []string{}, nil
		}
		return nil, err
	}

	var members []string
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Store) Notify(ctx context.Context, fromUser, toUser, chatID string, n Notification) error {
	sender, err := getProfile(ctx, s.db, fromUser)
	if err != nil {
		if errors.Is(err, errNoProfile) {
			s.log.Warn("notification dropped, sender has no profile", "sender", fromUser)
			return nil
		}
		return err
	}

	groupChatName := ""
	if chatID != "" {
		err := s.db.QueryRowContext(ctx,
			"SELECT group_chat_name FROM chats WHERE id = $1", chatID).Scan(&groupChatName)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}

	content := notificationContent(n, sender.DisplayName)
	sentAt := n.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, sender_id, sender_name, sender_avatar, receiver_id,
		                           chat_id, group_chat_name, content, type, send_at, is_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false)
	`, uuid.New(), sender.ID, sender.DisplayName, sender.AvatarURL, toUser,
		chatID, groupChatName, content, n.Type, sentAt)
	return err
}

func (s *Store) EditMessage(ctx context.Context, chatID, messageID, newContent string) error {
	return s.rewriteMessage(ctx, chatID, messageID, ": "+newContent,
		func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				"UPDATE messages SET text = $1, is_edited = true WHERE id = $2 AND chat_id = $3",
				newContent, messageID, chatID)
			return err
		})
}

func (s *Store) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	return s.rewriteMessage(ctx, chatID, messageID, "deleted a message",
		func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				UPDATE messages SET is_edited = false, is_deleted = true,
				       text = 'This message is deleted', type = 'text'
				WHERE id = $1 AND chat_id = $2
			`, messageID, chatID)
			return err
		})
}

// rewriteMessage updates a message row and, only when that message is still
// the chat's latest, rewrites the chat summary to match.
func (s *Store) rewriteMessage(ctx context.Context, chatID, messageID, summary string, update func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var lastMessageID sql.NullString
	err = tx.QueryRowContext(ctx,
		"SELECT last_message_id FROM chats WHERE id = $1 FOR UPDATE", chatID).Scan(&lastMessageID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if lastMessageID.Valid && lastMessageID.String == messageID {
		if _, err := tx.ExecContext(ctx,
			"UPDATE chats SET last_message = $1 WHERE id = $2", summary, chatID); err != nil {
			return err
		}
	}

	if err := update(tx); err != nil {
		return err
	}
	return tx.Commit()
}
