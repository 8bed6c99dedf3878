package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/pkg/goerror"
)

// GetIdentityByEmail resolves a user and its roles from the user-management
// tables. Soft-deleted users are not found.
func (s *DB) GetIdentityByEmail(ctx context.Context, email string) (_ *entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityByEmail")
	defer func() { s.endSpan(span, err) }()

	var (
		id     entity.Identity
		status int16
	)
	err = s.conn.QueryRow(ctx,
		`SELECT id, email, username, status FROM auth_users
		WHERE lower(email) = lower($1) AND deleted_at IS NULL`,
		email,
	).Scan(&id.ID, &id.Email, &id.Username, &status)
	if err != nil {
		return nil, s.mapError(err)
	}
	id.Status = entity.UserStatus(status)

	rows, err := s.conn.Query(ctx,
		`SELECT r.code, r.priority FROM auth_roles r
		JOIN auth_user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.priority DESC, r.code`,
		id.ID,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	id.Roles, err = pgx.CollectRows(rows, pgx.RowToStructByPos[entity.Role])
	if err != nil {
		return nil, s.mapError(err)
	}

	return &id, nil
}

// UpdatePassword stores a new password hash. The user is matched by id and,
// when that finds nothing, by email.
func (s *DB) UpdatePassword(ctx context.Context, userID int64, email, passwordHash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdatePassword")
	defer func() { s.endSpan(span, err) }()

	if userID != 0 {
		tag, err := s.conn.Exec(ctx,
			`UPDATE auth_users SET password_hash = $2 WHERE id = $1 AND deleted_at IS NULL`,
			userID, passwordHash,
		)
		if err != nil {
			return s.mapError(err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
	}

	if email == "" {
		return goerror.ErrNotFound
	}

	tag, err := s.conn.Exec(ctx,
		`UPDATE auth_users SET password_hash = $2 WHERE lower(email) = lower($1) AND deleted_at IS NULL`,
		email, passwordHash,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}
