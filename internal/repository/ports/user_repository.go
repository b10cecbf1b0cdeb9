package ports

import (
	"context"

	"github.com/njprem/User_Hub_APP_BackEnd/internal/domain"
)

// UserUpdate carries the optional profile fields of a partial update.
// Nil fields are left untouched.
type UserUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
	Country   *string
	Image     *string
}

type UserRepository interface {
	Create(ctx context.Context, email, passwordHash, firstName, lastName, country, image string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id int64, fields UserUpdate) (*domain.User, error)
	SetVerified(ctx context.Context, id int64) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
