package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/njprem/User_Hub_APP_BackEnd/internal/domain"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/media"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/repository/ports"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/util"
)

type fakeUserRepo struct {
	nextID  int64
	byID    map[int64]*domain.User
	byEmail map[string]*domain.User

	createErr      error
	findByEmailErr error
	listErr        error

	deleteInputs []int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID:  1,
		byID:    map[int64]*domain.User{},
		byEmail: map[string]*domain.User{},
	}
}

func (f *fakeUserRepo) add(user *domain.User) *domain.User {
	if user.ID == 0 {
		user.ID = f.nextID
		f.nextID++
	}
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user
	return user
}

func (f *fakeUserRepo) Create(ctx context.Context, email, passwordHash, firstName, lastName, country, image string) (*domain.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.byEmail[email]; exists {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	now := time.Now()
	user := f.add(&domain.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Country:      country,
		Image:        image,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.findByEmailErr != nil {
		return nil, f.findByEmailErr
	}
	user, ok := f.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	users := make([]domain.User, 0, len(f.byID))
	for _, user := range f.byID {
		users = append(users, *user)
	}
	return users, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, id int64, fields ports.UserUpdate) (*domain.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if fields.Email != nil {
		delete(f.byEmail, user.Email)
		user.Email = *fields.Email
		f.byEmail[user.Email] = user
	}
	if fields.FirstName != nil {
		user.FirstName = *fields.FirstName
	}
	if fields.LastName != nil {
		user.LastName = *fields.LastName
	}
	if fields.Country != nil {
		user.Country = *fields.Country
	}
	if fields.Image != nil {
		user.Image = *fields.Image
	}
	user.UpdatedAt = time.Now()
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) SetVerified(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	user.IsVerified = true
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) (*domain.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	f.deleteInputs = append(f.deleteInputs, id)
	if user, ok := f.byID[id]; ok {
		delete(f.byEmail, user.Email)
		delete(f.byID, id)
	}
	return nil
}

type fakeCodeRepo struct {
	codes map[string]*domain.EmailCode

	createErr error
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{codes: map[string]*domain.EmailCode{}}
}

func (f *fakeCodeRepo) Create(ctx context.Context, code string, userID int64, expiresAt time.Time) (*domain.EmailCode, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	emailCode := &domain.EmailCode{Code: code, UserID: userID, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	f.codes[code] = emailCode
	copied := *emailCode
	return &copied, nil
}

func (f *fakeCodeRepo) FindByCode(ctx context.Context, code string) (*domain.EmailCode, error) {
	emailCode, ok := f.codes[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *emailCode
	return &copied, nil
}

func (f *fakeCodeRepo) Consume(ctx context.Context, code string) (*domain.EmailCode, error) {
	emailCode, ok := f.codes[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	delete(f.codes, code)
	copied := *emailCode
	return &copied, nil
}

func (f *fakeCodeRepo) only(t *testing.T) *domain.EmailCode {
	t.Helper()
	if len(f.codes) != 1 {
		t.Fatalf("expected exactly one stored code, got %d", len(f.codes))
	}
	for _, emailCode := range f.codes {
		return emailCode
	}
	return nil
}

type sentMail struct {
	kind string
	to   string
	link string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendVerification(ctx context.Context, to, firstName, lastName, link string) error {
	f.sent = append(f.sent, sentMail{kind: "verification", to: to, link: link})
	return f.err
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, to, firstName, lastName, link string) error {
	f.sent = append(f.sent, sentMail{kind: "reset", to: to, link: link})
	return f.err
}

type fakeStorage struct {
	url     string
	err     error
	uploads []string
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	f.uploads = append(f.uploads, objectName)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newServiceForTests(users ports.UserRepository, codes ports.EmailCodeRepository, mailer Mailer) *AccountService {
	return NewAccountService(users, codes, mailer, util.NewJWTManager("test-secret", time.Hour), 24*time.Hour)
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:        "a@x.com",
		Password:     "pw1",
		FirstName:    "A",
		LastName:     "B",
		Country:      "US",
		Image:        "http://i",
		FrontBaseURL: "http://front.example.com/verify",
	}
}

func TestRegisterSuccess(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	codes := newFakeCodeRepo()
	mailer := &fakeMailer{}
	svc := newServiceForTests(users, codes, mailer)

	user, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.IsVerified {
		t.Fatal("freshly registered user must not be verified")
	}
	if user.PasswordHash == "pw1" {
		t.Fatal("password must be stored hashed")
	}
	if !util.VerifyPassword("pw1", user.PasswordHash) {
		t.Fatal("stored hash should verify against the plaintext")
	}

	code := codes.only(t)
	if code.UserID != user.ID {
		t.Fatalf("code bound to user %d, want %d", code.UserID, user.ID)
	}
	if !code.ExpiresAt.After(time.Now()) {
		t.Fatal("expected code expiry in the future")
	}

	if len(mailer.sent) != 1 || mailer.sent[0].kind != "verification" {
		t.Fatalf("expected one verification mail, got %+v", mailer.sent)
	}
	wantLink := "http://front.example.com/verify/" + code.Code
	if mailer.sent[0].link != wantLink {
		t.Fatalf("expected link %q, got %q", wantLink, mailer.sent[0].link)
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	users := newFakeUserRepo()
	svc := newServiceForTests(users, newFakeCodeRepo(), &fakeMailer{})

	input := registerInput()
	input.Email = " A@X.Com "
	user, err := svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Email != "a@x.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
}

func TestRegisterMissingField(t *testing.T) {
	svc := newServiceForTests(newFakeUserRepo(), newFakeCodeRepo(), &fakeMailer{})

	input := registerInput()
	input.Country = ""
	_, err := svc.Register(context.Background(), input)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	codes := newFakeCodeRepo()
	mailer := &fakeMailer{}
	svc := newServiceForTests(users, codes, mailer)

	if _, err := svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	_, err := svc.Register(ctx, registerInput())
	if !errors.Is(err, ErrEmailAlreadyUsed) {
		t.Fatalf("expected ErrEmailAlreadyUsed, got %v", err)
	}
	if len(users.byID) != 1 {
		t.Fatalf("expected no duplicate row, got %d rows", len(users.byID))
	}
	if len(codes.codes) != 1 {
		t.Fatalf("expected no code for the failed registration, got %d", len(codes.codes))
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected no mail for the failed registration, got %d", len(mailer.sent))
	}
}

func TestRegisterMailFailureDoesNotFail(t *testing.T) {
	users := newFakeUserRepo()
	codes := newFakeCodeRepo()
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc := newServiceForTests(users, codes, mailer)

	user, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("mail failure must not fail registration, got %v", err)
	}
	if _, ok := users.byID[user.ID]; !ok {
		t.Fatal("expected user row to persist")
	}
	if len(codes.codes) != 1 {
		t.Fatal("expected code to persist despite mail failure")
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	codes := newFakeCodeRepo()
	svc := newServiceForTests(users, codes, &fakeMailer{})

	registered, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	code := codes.only(t).Code

	verified, err := svc.Verify(ctx, code)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !verified.IsVerified {
		t.Fatal("expected user to be verified")
	}
	if verified.ID != registered.ID {
		t.Fatalf("verified wrong user: %d", verified.ID)
	}

	t.Run("code is single use", func(t *testing.T) {
		if _, err := svc.Verify(ctx, code); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("expected ErrInvalidCode on second use, got %v", err)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		if _, err := svc.Verify(ctx, "nope"); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("expected ErrInvalidCode, got %v", err)
		}
	})
}

func TestVerifyExpiredCode(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	codes := newFakeCodeRepo()
	svc := newServiceForTests(users, codes, &fakeMailer{})

	user := users.add(&domain.User{Email: "a@x.com"})
	if _, err := codes.Create(ctx, "stale-code", user.ID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("seed code: %v", err)
	}

	if _, err := svc.Verify(ctx, "stale-code"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode for expired code, got %v", err)
	}
	if len(codes.codes) != 0 {
		t.Fatal("expected expired code to be consumed")
	}
	if users.byID[user.ID].IsVerified {
		t.Fatal("expired code must not verify the account")
	}
}

func TestVerifyUserRowGone(t *testing.T) {
	ctx := context.Background()
	codes := newFakeCodeRepo()
	svc := newServiceForTests(newFakeUserRepo(), codes, &fakeMailer{})

	if _, err := codes.Create(ctx, "orphan", 99, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("seed code: %v", err)
	}
	if _, err := svc.Verify(ctx, "orphan"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(codes.codes) != 1 {
		t.Fatal("code must survive when the dependent update fails")
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	codes := newFakeCodeRepo()
	svc := newServiceForTests(users, codes, &fakeMailer{})

	if _, err := svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "none@x.com", "pw1")
		if !errors.Is(err, ErrInvalidLogin) {
			t.Fatalf("expected ErrInvalidLogin, got %v", err)
		}
	})

	t.Run("unverified account rejected before password check", func(t *testing.T) {
		_, err := svc.Login(ctx, "a@x.com", "completely-wrong")
		if !errors.Is(err, ErrAccountNotVerified) {
			t.Fatalf("expected ErrAccountNotVerified, got %v", err)
		}
		_, err = svc.Login(ctx, "a@x.com", "pw1")
		if !errors.Is(err, ErrAccountNotVerified) {
			t.Fatalf("expected ErrAccountNotVerified even with correct password, got %v", err)
		}
	})

	if _, err := svc.Verify(ctx, codes.only(t).Code); err != nil {
		t.Fatalf("verify: %v", err)
	}

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "a@x.com", "wrong")
		if !errors.Is(err, ErrInvalidPassword) {
			t.Fatalf("expected ErrInvalidPassword, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		result, err := svc.Login(ctx, "a@x.com", "pw1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Token == "" {
			t.Fatal("expected session token")
		}
		if !result.User.IsVerified {
			t.Fatal("expected verified user in result")
		}

		authed, err := svc.Authenticate(ctx, result.Token)
		if err != nil {
			t.Fatalf("token should authenticate, got %v", err)
		}
		if authed.ID != result.User.ID || authed.Email != "a@x.com" {
			t.Fatalf("unexpected user from token: %+v", authed)
		}
	})

	t.Run("case-insensitive email", func(t *testing.T) {
		if _, err := svc.Login(ctx, "A@X.COM", "pw1"); err != nil {
			t.Fatalf("expected login with upper-case email to succeed, got %v", err)
		}
	})
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	svc := newServiceForTests(newFakeUserRepo(), newFakeCodeRepo(), &fakeMailer{})
	if _, err := svc.Authenticate(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRequestPasswordReset(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	codes := newFakeCodeRepo()
	mailer := &fakeMailer{}
	svc := newServiceForTests(users, codes, mailer)

	user := users.add(&domain.User{Email: "reset@x.com", FirstName: "R", LastName: "S", IsVerified: true})

	returned, err := svc.RequestPasswordReset(ctx, "reset@x.com", "http://front/reset")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if returned.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, returned.ID)
	}
	code := codes.only(t)
	if code.UserID != user.ID {
		t.Fatalf("code bound to wrong user %d", code.UserID)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].kind != "reset" {
		t.Fatalf("expected one reset mail, got %+v", mailer.sent)
	}
	if mailer.sent[0].link != "http://front/reset/"+code.Code {
		t.Fatalf("unexpected reset link %q", mailer.sent[0].link)
	}

	t.Run("unknown account", func(t *testing.T) {
		_, err := svc.RequestPasswordReset(ctx, "ghost@x.com", "http://front/reset")
		if !errors.Is(err, ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("mail failure is fire and forget", func(t *testing.T) {
		failing := &fakeMailer{err: errors.New("smtp down")}
		svc := newServiceForTests(users, newFakeCodeRepo(), failing)
		if _, err := svc.RequestPasswordReset(ctx, "reset@x.com", "http://front/reset"); err != nil {
			t.Fatalf("expected no error when mail fails, got %v", err)
		}
	})
}

func TestConfirmPasswordReset(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	codes := newFakeCodeRepo()
	svc := newServiceForTests(users, codes, &fakeMailer{})

	oldHash, err := util.HashPassword("old-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users.add(&domain.User{Email: "reset@x.com", PasswordHash: oldHash, IsVerified: true})

	if _, err := svc.RequestPasswordReset(ctx, "reset@x.com", "http://front/reset"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	code := codes.only(t).Code

	updated, err := svc.ConfirmPasswordReset(ctx, code, "new-pass")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if util.VerifyPassword("old-pass", updated.PasswordHash) {
		t.Fatal("old password must no longer verify")
	}
	if !util.VerifyPassword("new-pass", updated.PasswordHash) {
		t.Fatal("new password must verify")
	}
	if _, ok := codes.codes[code]; ok {
		t.Fatal("expected code to be consumed")
	}

	t.Run("second use fails", func(t *testing.T) {
		if _, err := svc.ConfirmPasswordReset(ctx, code, "another-pass"); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("expected ErrInvalidCode, got %v", err)
		}
	})

	t.Run("login with new password", func(t *testing.T) {
		if _, err := svc.Login(ctx, "reset@x.com", "old-pass"); !errors.Is(err, ErrInvalidPassword) {
			t.Fatalf("expected old password to be rejected, got %v", err)
		}
		if _, err := svc.Login(ctx, "reset@x.com", "new-pass"); err != nil {
			t.Fatalf("expected new password to log in, got %v", err)
		}
	})

	t.Run("user row gone", func(t *testing.T) {
		if _, err := codes.Create(ctx, "orphan", 123, time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("seed code: %v", err)
		}
		if _, err := svc.ConfirmPasswordReset(ctx, "orphan", "whatever"); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	svc := newServiceForTests(users, newFakeCodeRepo(), &fakeMailer{})

	user := users.add(&domain.User{Email: "a@x.com", FirstName: "A", Country: "US"})

	first := "Changed"
	email := " New@X.Com "
	updated, err := svc.UpdateProfile(ctx, user.ID, ports.UserUpdate{FirstName: &first, Email: &email})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.FirstName != "Changed" {
		t.Fatalf("expected first name update, got %q", updated.FirstName)
	}
	if updated.Email != "new@x.com" {
		t.Fatalf("expected normalized email, got %q", updated.Email)
	}
	if updated.Country != "US" {
		t.Fatalf("untouched field changed: %q", updated.Country)
	}

	t.Run("missing user", func(t *testing.T) {
		if _, err := svc.UpdateProfile(ctx, 999, ports.UserUpdate{FirstName: &first}); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	svc := newServiceForTests(users, newFakeCodeRepo(), &fakeMailer{})

	user := users.add(&domain.User{Email: "a@x.com"})
	if err := svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("expected repeat delete to succeed, got %v", err)
	}
	if len(users.deleteInputs) != 2 {
		t.Fatalf("expected two delete calls, got %d", len(users.deleteInputs))
	}
}

func TestUpdateImage(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	payload := buf.Bytes()

	t.Run("storage not configured", func(t *testing.T) {
		svc := newServiceForTests(newFakeUserRepo(), newFakeCodeRepo(), &fakeMailer{})
		_, err := svc.UpdateImage(ctx, 1, media.Upload{Reader: bytes.NewReader(payload), Size: int64(len(payload))})
		if !errors.Is(err, ErrImageStorage) {
			t.Fatalf("expected ErrImageStorage, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		users := newFakeUserRepo()
		user := users.add(&domain.User{Email: "a@x.com", Image: "http://old"})
		storage := &fakeStorage{url: "http://cdn.example.com/profiles/new.png"}
		svc := newServiceForTests(users, newFakeCodeRepo(), &fakeMailer{}).
			WithImageStorage(storage, media.NewProbe(0, 0), "userhub-profiles")

		updated, err := svc.UpdateImage(ctx, user.ID, media.Upload{Reader: bytes.NewReader(payload), Size: int64(len(payload)), FileName: "a.png"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if updated.Image != storage.url {
			t.Fatalf("expected image %q, got %q", storage.url, updated.Image)
		}
		if len(storage.uploads) != 1 || !strings.HasPrefix(storage.uploads[0], "profiles/") {
			t.Fatalf("unexpected uploads %+v", storage.uploads)
		}
	})

	t.Run("rejects non-image", func(t *testing.T) {
		users := newFakeUserRepo()
		user := users.add(&domain.User{Email: "a@x.com"})
		svc := newServiceForTests(users, newFakeCodeRepo(), &fakeMailer{}).
			WithImageStorage(&fakeStorage{}, media.NewProbe(0, 0), "userhub-profiles")

		_, err := svc.UpdateImage(ctx, user.ID, media.Upload{Reader: strings.NewReader("plain text"), Size: 10})
		if !errors.Is(err, ErrImageInvalid) {
			t.Fatalf("expected ErrImageInvalid, got %v", err)
		}
	})
}
