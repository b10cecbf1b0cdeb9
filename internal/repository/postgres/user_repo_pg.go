package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/njprem/User_Hub_APP_BackEnd/internal/domain"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/repository/ports"
)

const userColumns = "id, email, password_hash, first_name, last_name, country, image, is_verified, created_at, updated_at"

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, email, passwordHash, firstName, lastName, country, image string) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (email, password_hash, first_name, last_name, country, image)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, email, passwordHash, firstName, lastName, country, image)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user_account WHERE id = $1`
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user_account WHERE email = $1`
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user_account ORDER BY id`
	users := []domain.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, id int64, fields ports.UserUpdate) (*domain.User, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		set = append(set, column+" = $"+strconv.Itoa(len(args)))
	}
	add("email", fields.Email)
	add("first_name", fields.FirstName)
	add("last_name", fields.LastName)
	add("country", fields.Country)
	add("image", fields.Image)

	query := `
        UPDATE user_account
        SET ` + strings.Join(set, ", ") + `
        WHERE id = $1
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, args...)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) SetVerified(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET is_verified = TRUE,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, id)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET password_hash = $2,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, id, passwordHash)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM user_account WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
