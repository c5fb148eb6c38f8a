package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Database struct {
	Conn *sql.DB
}

func NewDatabase(dsn string) (*Database, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return &Database{Conn: conn}, nil
}

func (d *Database) AutoMigrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id VARCHAR(100) PRIMARY KEY,
            display_name VARCHAR(100) NOT NULL,
            avatar_url TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS chats (
            id VARCHAR(100) PRIMARY KEY,
            group_chat_name VARCHAR(200) NOT NULL DEFAULT '',
            user_ids JSONB NOT NULL DEFAULT '[]',
            last_message TEXT NOT NULL DEFAULT '',
            last_message_date TIMESTAMP,
            last_message_id UUID,
            last_sender_id VARCHAR(100),
            last_sender_name VARCHAR(100),
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS messages (
            id UUID PRIMARY KEY,
            chat_id VARCHAR(100) REFERENCES chats(id) ON DELETE CASCADE,
            sender_id VARCHAR(100) NOT NULL,
            display_name VARCHAR(100) NOT NULL,
            avatar TEXT NOT NULL DEFAULT '',
            text TEXT NOT NULL DEFAULT '',
            data_files JSONB,
            type VARCHAR(20) NOT NULL,
            sent_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            is_edited BOOLEAN NOT NULL DEFAULT false,
            is_deleted BOOLEAN NOT NULL DEFAULT false
        )`,

		`CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY,
            sender_id VARCHAR(100) NOT NULL,
            sender_name VARCHAR(100) NOT NULL,
            sender_avatar TEXT NOT NULL DEFAULT '',
            receiver_id VARCHAR(100) NOT NULL,
            chat_id VARCHAR(100),
            group_chat_name VARCHAR(200) NOT NULL DEFAULT '',
            content TEXT NOT NULL DEFAULT '',
            type VARCHAR(20) NOT NULL,
            send_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            is_seen BOOLEAN NOT NULL DEFAULT false
        )`,
	}

	for _, query := range queries {
		_, err := d.Conn.Exec(query)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
