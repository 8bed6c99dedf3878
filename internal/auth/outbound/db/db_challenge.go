package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/pkg/goerror"
)

const challengeColumns = `id, user_id, email, purpose, otp_hash, created_at, expires_at,
	attempts, max_attempts, consumed_at, last_sent_at, resend_count, metadata`

func (s *DB) GetActiveChallenge(ctx context.Context, email string, purpose entity.OtpPurpose) (_ *entity.OtpChallenge, err error) {
	ctx, span := s.startSpan(ctx, "GetActiveChallenge")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM auth_otp_challenges
		WHERE email = $1 AND purpose = $2 AND consumed_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		email, purpose.String(),
	)

	ch, err := scanChallenge(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return ch, nil
}

// ReplaceChallenge consumes superseded (when given) and inserts next in one
// transaction.
func (s *DB) ReplaceChallenge(ctx context.Context, superseded *entity.OtpChallenge, next entity.OtpChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceChallenge")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	if superseded != nil {
		if err := supersedeChallenge(ctx, tx, *superseded); err != nil {
			return s.mapError(err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO auth_otp_challenges (`+challengeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		next.ID,
		pgtype.Int8{Int64: next.UserID, Valid: next.UserID != 0},
		next.Email,
		next.Purpose.String(),
		next.OtpHash,
		next.CreatedAt,
		next.ExpiresAt,
		next.Attempts,
		next.MaxAttempts,
		next.ConsumedAt,
		next.LastSentAt,
		next.ResendCount,
		next.Metadata,
	); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// SaveChallenge persists the attempt counter and the consumed time. The
// write only lands while the row is unconsumed and still holds
// seenAttempts; otherwise it reports goerror.ErrConflict.
func (s *DB) SaveChallenge(ctx context.Context, ch entity.OtpChallenge, seenAttempts int) (err error) {
	ctx, span := s.startSpan(ctx, "SaveChallenge")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE auth_otp_challenges
		SET attempts = $2, consumed_at = $3
		WHERE id = $1 AND consumed_at IS NULL AND attempts = $4`,
		ch.ID, ch.Attempts, ch.ConsumedAt, seenAttempts,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM auth_otp_challenges WHERE id = $1)`, ch.ID,
	).Scan(&exists); err != nil {
		return s.mapError(err)
	}
	if !exists {
		return goerror.ErrNotFound
	}
	return goerror.ErrConflict
}

func (s *DB) PurgeConsumedChallenges(ctx context.Context, before time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "PurgeConsumedChallenges")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`DELETE FROM auth_otp_challenges WHERE consumed_at IS NOT NULL AND consumed_at < $1`,
		before,
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// supersedeChallenge stamps consumed_at once. Attempts are left to
// SaveChallenge so a racing verify keeps its count.
func supersedeChallenge(ctx context.Context, db execer, ch entity.OtpChallenge) error {
	tag, err := db.Exec(ctx,
		`UPDATE auth_otp_challenges
		SET consumed_at = COALESCE(consumed_at, $2)
		WHERE id = $1`,
		ch.ID, ch.ConsumedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

func scanChallenge(row pgx.Row) (*entity.OtpChallenge, error) {
	var (
		ch      entity.OtpChallenge
		userID  pgtype.Int8
		purpose string
	)

	if err := row.Scan(
		&ch.ID,
		&userID,
		&ch.Email,
		&purpose,
		&ch.OtpHash,
		&ch.CreatedAt,
		&ch.ExpiresAt,
		&ch.Attempts,
		&ch.MaxAttempts,
		&ch.ConsumedAt,
		&ch.LastSentAt,
		&ch.ResendCount,
		&ch.Metadata,
	); err != nil {
		return nil, err
	}

	ch.UserID = userID.Int64
	ch.Purpose = entity.OtpPurposeFromString(purpose)

	return &ch, nil
}
