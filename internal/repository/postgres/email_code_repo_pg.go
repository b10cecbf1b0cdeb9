package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/njprem/User_Hub_APP_BackEnd/internal/domain"
)

type EmailCodeRepository struct {
	db *sqlx.DB
}

func NewEmailCodeRepo(db *sqlx.DB) *EmailCodeRepository {
	return &EmailCodeRepository{db: db}
}

func (r *EmailCodeRepository) Create(ctx context.Context, code string, userID int64, expiresAt time.Time) (*domain.EmailCode, error) {
	const query = `
        INSERT INTO email_code (code, user_id, expires_at)
        VALUES ($1, $2, $3)
        RETURNING code, user_id, expires_at, created_at
    `
	row := r.db.QueryRowxContext(ctx, query, code, userID, expiresAt)
	var emailCode domain.EmailCode
	if err := row.StructScan(&emailCode); err != nil {
		return nil, err
	}
	return &emailCode, nil
}

func (r *EmailCodeRepository) FindByCode(ctx context.Context, code string) (*domain.EmailCode, error) {
	const query = `
        SELECT code, user_id, expires_at, created_at
        FROM email_code
        WHERE code = $1
    `
	var emailCode domain.EmailCode
	if err := r.db.GetContext(ctx, &emailCode, query, code); err != nil {
		return nil, err
	}
	return &emailCode, nil
}

// Consume deletes the code and returns the deleted row. The single DELETE
// ... RETURNING keeps consumption atomic: two concurrent consumers of the
// same code cannot both succeed.
func (r *EmailCodeRepository) Consume(ctx context.Context, code string) (*domain.EmailCode, error) {
	const query = `
        DELETE FROM email_code
        WHERE code = $1
        RETURNING code, user_id, expires_at, created_at
    `
	row := r.db.QueryRowxContext(ctx, query, code)
	var emailCode domain.EmailCode
	if err := row.StructScan(&emailCode); err != nil {
		return nil, err
	}
	return &emailCode, nil
}
