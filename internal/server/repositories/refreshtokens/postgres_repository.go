package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bankauth/internal/common"
	"github.com/dmitrijs2005/bankauth/internal/dbx"
	"github.com/dmitrijs2005/bankauth/internal/server/auth"
	"github.com/dmitrijs2005/bankauth/internal/server/models"
	"github.com/oklog/ulid/v2"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db       dbx.DBTX
	settings Settings
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX, settings Settings) *PostgresRepository {
	return &PostgresRepository{db: db, settings: settings.WithDefaults()}
}

func (r *PostgresRepository) Insert(ctx context.Context, userID string) (string, error) {
	raw, err := r.settings.Generate()
	if err != nil {
		return "", fmt.Errorf("error generating refresh token: %w", err)
	}

	now := r.settings.now()
	query := `
		INSERT INTO refresh_tokens (id, token_hash, user_id, created_at, expires_at, is_revoked)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`
	_, err = r.db.ExecContext(ctx, query,
		ulid.Make().String(), auth.HashRefreshToken(raw), userID, now, now.Add(r.settings.Validity))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return "", fmt.Errorf("db error: %w", common.ErrTokenCollision)
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return raw, nil
}

func (r *PostgresRepository) FindActive(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	query := `
		SELECT id, token_hash, user_id, created_at, expires_at, is_revoked
		FROM refresh_tokens
		WHERE user_id = $1 AND is_revoked = FALSE AND expires_at > $2
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, r.settings.now())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tokens []*models.RefreshToken
	for rows.Next() {
		t := &models.RefreshToken{}
		if err := rows.Scan(&t.ID, &t.TokenHash, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.IsRevoked); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tokens, nil
}

func (r *PostgresRepository) FindByRawValue(ctx context.Context, raw string) (*models.RefreshToken, error) {
	query := `
		SELECT id, token_hash, user_id, created_at, expires_at, is_revoked
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	t := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, auth.HashRefreshToken(raw)).
		Scan(&t.ID, &t.TokenHash, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.IsRevoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Remove(ctx context.Context, token *models.RefreshToken) (bool, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE id = $1
	`
	n, err := r.exec(ctx, query, token.ID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepository) RemoveExpiredOrRevoked(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE is_revoked OR expires_at <= $1
	`
	return r.exec(ctx, query, r.settings.now())
}

func (r *PostgresRepository) RemoveAllForUser(ctx context.Context, userID string) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1
	`
	return r.exec(ctx, query, userID)
}

func (r *PostgresRepository) LockUser(ctx context.Context, userID string) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
