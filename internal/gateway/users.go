package gateway

import (
	"context"
	"database/sql"
	"errors"
)

// profile is the denormalized sender info copied into every message row.
type profile struct {
	ID          string
	DisplayName string
	AvatarURL   string
}

var errNoProfile = errors.New("user profile not found")

// querier covers both *sql.DB and *sql.Tx so profile lookups can run inside
// the message transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getProfile(ctx context.Context, q querier, userID string) (*profile, error) {
	p := &profile{}
	query := "SELECT id, display_name, avatar_url FROM users WHERE id = $1"

	err := q.QueryRowContext(ctx, query, userID).Scan(&p.ID, &p.DisplayName, &p.AvatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNoProfile
		}
		return nil, err
	}
	return p, nil
}
