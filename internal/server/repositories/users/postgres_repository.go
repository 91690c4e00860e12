package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bankauth/internal/common"
	"github.com/dmitrijs2005/bankauth/internal/dbx"
	"github.com/dmitrijs2005/bankauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, first_name, last_name, birth_date, password_hash)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	user.Email = strings.ToLower(user.Email)

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.FirstName, user.LastName, nullDate(user), user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, first_name, last_name, birth_date, password_hash, created_at FROM users
		 WHERE email = $1
		 `
	return r.getOne(ctx, query, strings.ToLower(email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, email, first_name, last_name, birth_date, password_hash, created_at FROM users
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var birth sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &birth, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if birth.Valid {
		user.BirthDate = birth.Time
	}

	return user, nil
}

func nullDate(u *models.User) sql.NullTime {
	return sql.NullTime{Time: u.BirthDate, Valid: !u.BirthDate.IsZero()}
}
