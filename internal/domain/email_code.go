package domain

import "time"

// EmailCode is a single-use verification or password-reset code. The code
// string doubles as the lookup key and the bearer secret.
type EmailCode struct {
	Code      string    `db:"code" json:"code"`
	UserID    int64     `db:"user_id" json:"userId"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (c *EmailCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
