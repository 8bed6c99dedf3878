package db

import (
	"context"
	"time"
)

func (s *DB) IsRevoked(ctx context.Context, tokenID string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "IsRevoked")
	defer func() { s.endSpan(span, err) }()

	var revoked bool
	err = s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM auth_revoked_tokens WHERE token_id = $1)`,
		tokenID,
	).Scan(&revoked)
	if err != nil {
		return false, s.mapError(err)
	}

	return revoked, nil
}

// Revoke records tokenID. An existing record is left untouched.
func (s *DB) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "Revoke")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO auth_revoked_tokens (token_id, expires_at) VALUES ($1, $2)
		ON CONFLICT (token_id) DO NOTHING`,
		tokenID, expiresAt,
	)
	return s.mapError(err)
}

func (s *DB) PurgeExpiredRevocations(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "PurgeExpiredRevocations")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM auth_revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
