package service

import (
	"context"
	"io"
	"testing"
	"time"

	"ecoscan/internal/model"
	"ecoscan/internal/repository"
	"ecoscan/internal/session"
	"ecoscan/internal/storage"
	"ecoscan/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type authFixture struct {
	svc      AuthService
	users    repository.UserRepository
	sessions *session.Manager
}

func newAuthFixture(t *testing.T, bonus int) *authFixture {
	t.Helper()
	users, err := storage.Open[model.User](t.TempDir(), "users", testLogger())
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(users)
	sessions := session.NewManager(30 * time.Minute)
	jwtUtil := utils.NewJWTUtil("test-secret", 1)
	admin := AdminCredentials{Phone: "96500000000", Password: "admin-secret"}

	return &authFixture{
		svc:      NewAuthService(userRepo, sessions, jwtUtil, admin, bonus, testLogger()),
		users:    userRepo,
		sessions: sessions,
	}
}

func (f *authFixture) newSession(t *testing.T) string {
	t.Helper()
	return f.sessions.Start().ID
}

func signupReq() model.SignupRequest {
	return model.SignupRequest{
		Name:        "Ahmad",
		Phone:       "12345678",
		CountryCode: "+965",
		Area:        "Hawalli",
		Password:    "secret123",
	}
}

func TestSignup_CreatesCanonicalUser(t *testing.T) {
	f := newAuthFixture(t, 0)
	ctx := context.Background()

	user, token, err := f.svc.Signup(ctx, f.newSession(t), signupReq())
	require.NoError(t, err)
	assert.Equal(t, "96512345678", user.Phone)
	assert.Equal(t, model.RoleMember, user.Role)
	assert.Equal(t, 0, user.Points)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	all, err := f.users.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSignup_SignupBonusIsConfigurable(t *testing.T) {
	f := newAuthFixture(t, 10)

	user, _, err := f.svc.Signup(context.Background(), f.newSession(t), signupReq())
	require.NoError(t, err)
	assert.Equal(t, 10, user.Points)
}

func TestSignup_DuplicateCanonicalPhone(t *testing.T) {
	f := newAuthFixture(t, 0)
	ctx := context.Background()

	_, _, err := f.svc.Signup(ctx, f.newSession(t), signupReq())
	require.NoError(t, err)

	// Same number entered with the country code already attached.
	dup := signupReq()
	dup.Name = "Other"
	dup.Phone = "965 1234 5678"
	_, _, err = f.svc.Signup(ctx, f.newSession(t), dup)
	assert.ErrorIs(t, err, ErrDuplicatePhone)

	all, err := f.users.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSignup_UnknownArea(t *testing.T) {
	f := newAuthFixture(t, 0)
	req := signupReq()
	req.Area = "Atlantis"

	_, _, err := f.svc.Signup(context.Background(), f.newSession(t), req)
	assert.ErrorIs(t, err, ErrInvalidArea)
}

func TestLogin_ExactPhone(t *testing.T) {
	f := newAuthFixture(t, 0)
	ctx := context.Background()
	_, _, err := f.svc.Signup(ctx, f.newSession(t), signupReq())
	require.NoError(t, err)

	user, token, err := f.svc.Login(ctx, f.newSession(t), "96512345678", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Ahmad", user.Name)
	assert.NotEmpty(t, token)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture(t, 0)
	ctx := context.Background()
	_, _, err := f.svc.Signup(ctx, f.newSession(t), signupReq())
	require.NoError(t, err)

	_, _, err = f.svc.Login(ctx, f.newSession(t), "96512345678", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnregisteredPhone(t *testing.T) {
	f := newAuthFixture(t, 0)

	_, _, err := f.svc.Login(context.Background(), f.newSession(t), "96599999999", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_SuffixFallback(t *testing.T) {
	f := newAuthFixture(t, 0)
	ctx := context.Background()
	_, _, err := f.svc.Signup(ctx, f.newSession(t), signupReq())
	require.NoError(t, err)

	// Local digits without the country code resolve to the one account
	// whose canonical phone ends with them.
	user, _, err := f.svc.Login(ctx, f.newSession(t), "12345678", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "96512345678", user.Phone)
}

func TestLogin_AmbiguousSuffixRejected(t *testing.T) {
	f := newAuthFixture(t, 0)
	ctx := context.Background()

	first := signupReq()
	_, _, err := f.svc.Signup(ctx, f.newSession(t), first)
	require.NoError(t, err)

	second := signupReq()
	second.Name = "Badr"
	second.CountryCode = "+971"
	_, _, err = f.svc.Signup(ctx, f.newSession(t), second)
	require.NoError(t, err)

	// "12345678" is a suffix of both 96512345678 and 97112345678: the
	// service must refuse to guess, even with the right password.
	_, _, err = f.svc.Login(ctx, f.newSession(t), "12345678", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResetPassword(t *testing.T) {
	f := newAuthFixture(t, 0)
	ctx := context.Background()
	_, _, err := f.svc.Signup(ctx, f.newSession(t), signupReq())
	require.NoError(t, err)

	require.NoError(t, f.svc.ResetPassword(ctx, "96512345678", "newsecret"))

	_, _, err = f.svc.Login(ctx, f.newSession(t), "96512345678", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.svc.Login(ctx, f.newSession(t), "96512345678", "newsecret")
	assert.NoError(t, err)
}

func TestResetPassword_UnknownPhone(t *testing.T) {
	f := newAuthFixture(t, 0)

	err := f.svc.ResetPassword(context.Background(), "96599999999", "whatever")
	assert.ErrorIs(t, err, ErrPhoneNotFound)
}

func TestLogin_AdminBackdoor(t *testing.T) {
	f := newAuthFixture(t, 0)
	ctx := context.Background()

	user, token, err := f.svc.Login(ctx, f.newSession(t), "96500000000", "admin-secret")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.NotEmpty(t, token)

	// The admin identity is never stored.
	all, err := f.users.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLogin_AdminBackdoorWrongPassword(t *testing.T) {
	f := newAuthFixture(t, 0)

	_, _, err := f.svc.Login(context.Background(), f.newSession(t), "96500000000", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
