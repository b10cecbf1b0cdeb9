package ports

import (
	"context"
	"time"

	"github.com/njprem/User_Hub_APP_BackEnd/internal/domain"
)

// EmailCodeRepository persists single-use verification and reset codes.
// Consume must be atomic: of two concurrent consumers of the same code,
// exactly one succeeds.
type EmailCodeRepository interface {
	Create(ctx context.Context, code string, userID int64, expiresAt time.Time) (*domain.EmailCode, error)
	FindByCode(ctx context.Context, code string) (*domain.EmailCode, error)
	Consume(ctx context.Context, code string) (*domain.EmailCode, error)
}
