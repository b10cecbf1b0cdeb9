package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/njprem/User_Hub_APP_BackEnd/internal/domain"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/media"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/repository/ports"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/util"
)

var (
	ErrValidation         = errors.New("missing required field")
	ErrEmailAlreadyUsed   = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidLogin       = errors.New("invalid login")
	ErrAccountNotVerified = errors.New("account not verified")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidCode        = errors.New("invalid code")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAccountNotFound    = errors.New("account does not exist")
	ErrImageInvalid       = errors.New("invalid profile image")
	ErrImageStorage       = errors.New("image storage not configured")
)

// Mailer is the outbound notification sink. Delivery failures are logged
// by the service and never fail the request that triggered them.
type Mailer interface {
	SendVerification(ctx context.Context, to, firstName, lastName, link string) error
	SendPasswordReset(ctx context.Context, to, firstName, lastName, link string) error
}

type RegisterInput struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Country      string
	Image        string
	FrontBaseURL string
}

type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AccountService orchestrates the account lifecycle: registration with
// email verification, login, password reset, and user CRUD.
type AccountService struct {
	users         ports.UserRepository
	codes         ports.EmailCodeRepository
	mailer        Mailer
	jwt           *util.JWTManager
	storage       ports.ObjectStorage
	probe         *media.Probe
	profileBucket string
	codeTTL       time.Duration
}

func NewAccountService(users ports.UserRepository, codes ports.EmailCodeRepository, mailer Mailer, jwt *util.JWTManager, codeTTL time.Duration) *AccountService {
	if codeTTL <= 0 {
		codeTTL = 24 * time.Hour
	}
	return &AccountService{
		users:   users,
		codes:   codes,
		mailer:  mailer,
		jwt:     jwt,
		codeTTL: codeTTL,
	}
}

// WithImageStorage enables profile-image uploads.
func (s *AccountService) WithImageStorage(storage ports.ObjectStorage, probe *media.Probe, bucket string) *AccountService {
	s.storage = storage
	s.probe = probe
	s.profileBucket = bucket
	return s
}

// Register creates an unverified account, issues a verification code, and
// mails the verification link. The account persists even when mail
// delivery fails.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	for field, value := range map[string]string{
		"email":        input.Email,
		"password":     input.Password,
		"firstName":    input.FirstName,
		"lastName":     input.LastName,
		"country":      input.Country,
		"image":        input.Image,
		"frontBaseUrl": input.FrontBaseURL,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("%w: %s", ErrValidation, field)
		}
	}

	email := normalizeEmail(input.Email)
	passwordHash, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, passwordHash, input.FirstName, input.LastName, input.Country, input.Image)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyUsed
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.issueAndMailCode(ctx, user, input.FrontBaseURL, s.mailVerification); err != nil {
		return nil, err
	}
	return user, nil
}

// Verify consumes a verification code and marks the referenced account
// verified. The code is deleted only after the account update succeeds.
func (s *AccountService) Verify(ctx context.Context, code string) (*domain.User, error) {
	emailCode, err := s.findValidCode(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := s.users.SetVerified(ctx, emailCode.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("mark verified: %w", err)
	}

	if _, err := s.codes.Consume(ctx, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race against a concurrent consumer.
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("consume code: %w", err)
	}
	return user, nil
}

// Login authenticates credentials and issues a session token. The
// verification state is checked before the password so an unverified
// account never learns whether its password was correct.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidLogin
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsVerified {
		return nil, ErrAccountNotVerified
	}
	if !util.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidPassword
	}

	token, expiresAt, err := s.jwt.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// RequestPasswordReset issues a reset code for the account and mails the
// reset link. The account itself is left unchanged.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email, frontBaseURL string) (*domain.User, error) {
	if strings.TrimSpace(frontBaseURL) == "" {
		return nil, fmt.Errorf("%w: frontBaseUrl", ErrValidation)
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.issueAndMailCode(ctx, user, frontBaseURL, s.mailPasswordReset); err != nil {
		return nil, err
	}
	return user, nil
}

// ConfirmPasswordReset consumes a reset code and replaces the account
// password. Like Verify, the code is deleted only after the password
// update succeeds.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, code, newPassword string) (*domain.User, error) {
	if strings.TrimSpace(newPassword) == "" {
		return nil, fmt.Errorf("%w: password", ErrValidation)
	}
	emailCode, err := s.findValidCode(ctx, code)
	if err != nil {
		return nil, err
	}

	passwordHash, err := util.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.UpdatePassword(ctx, emailCode.UserID, passwordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update password: %w", err)
	}

	if _, err := s.codes.Consume(ctx, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("consume code: %w", err)
	}
	return user, nil
}

// Authenticate verifies a session token statelessly and returns the user
// embedded in its claims.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user := claims.User
	return &user, nil
}

func (s *AccountService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *AccountService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, id int64, fields ports.UserUpdate) (*domain.User, error) {
	if fields.Email != nil {
		normalized := normalizeEmail(*fields.Email)
		fields.Email = &normalized
	}
	user, err := s.users.Update(ctx, id, fields)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrUserNotFound
		case isUniqueViolation(err):
			return nil, ErrEmailAlreadyUsed
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete removes an account. Deleting an absent account is not an error:
// the operation is idempotent at the HTTP boundary.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// UpdateImage validates an uploaded profile image, stores it, and points
// the account image at the stored object.
func (s *AccountService) UpdateImage(ctx context.Context, id int64, upload media.Upload) (*domain.User, error) {
	if s.storage == nil || s.probe == nil {
		return nil, ErrImageStorage
	}

	result, err := s.probe.Check(upload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageInvalid, err)
	}

	objectName := fmt.Sprintf("profiles/%d/%s%s", id, uuid.NewString(), extensionFor(result.ContentType))
	url, err := s.storage.Upload(ctx, s.profileBucket, objectName, result.ContentType, bytes.NewReader(result.Bytes), int64(len(result.Bytes)))
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	return s.UpdateProfile(ctx, id, ports.UserUpdate{Image: &url})
}

type mailFunc func(ctx context.Context, user *domain.User, link string) error

func (s *AccountService) issueAndMailCode(ctx context.Context, user *domain.User, frontBaseURL string, send mailFunc) error {
	code, err := util.GenerateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if _, err := s.codes.Create(ctx, code, user.ID, time.Now().Add(s.codeTTL)); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	link := strings.TrimRight(frontBaseURL, "/") + "/" + code
	if err := send(ctx, user, link); err != nil {
		// Fire and forget: the account and code persist, the caller can
		// re-request a code if the mail never arrives.
		log.Printf("mail delivery failed for user %d: %v", user.ID, err)
	}
	return nil
}

func (s *AccountService) mailVerification(ctx context.Context, user *domain.User, link string) error {
	return s.mailer.SendVerification(ctx, user.Email, user.FirstName, user.LastName, link)
}

func (s *AccountService) mailPasswordReset(ctx context.Context, user *domain.User, link string) error {
	return s.mailer.SendPasswordReset(ctx, user.Email, user.FirstName, user.LastName, link)
}

// findValidCode looks a code up and enforces its TTL. Expired codes are
// consumed eagerly so they cannot linger in the table.
func (s *AccountService) findValidCode(ctx context.Context, code string) (*domain.EmailCode, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidCode
	}
	emailCode, err := s.codes.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("find code: %w", err)
	}
	if emailCode.Expired(time.Now()) {
		if _, err := s.codes.Consume(ctx, code); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("consume expired code: %w", err)
		}
		return nil, ErrInvalidCode
	}
	return emailCode, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
