package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"ecoscan/internal/model"
	"ecoscan/internal/repository"
	"ecoscan/internal/session"
	"ecoscan/internal/utils"

	"github.com/sirupsen/logrus"
)

var (
	ErrDuplicatePhone     = errors.New("an account with this phone number already exists")
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrPhoneNotFound      = errors.New("no account with this phone number")
	ErrInvalidArea        = errors.New("unknown area")
)

// AdminCredentials is the out-of-band admin identity, resolved from
// configuration at startup. It bypasses the user store entirely and is
// never persisted.
type AdminCredentials struct {
	Phone    string
	Password string
}

// AuthService provides signup, login and password reset
type AuthService interface {
	Signup(ctx context.Context, sessionID string, req model.SignupRequest) (*model.User, string, error)
	Login(ctx context.Context, sessionID, phone, password string) (*model.User, string, error)
	ResetPassword(ctx context.Context, phone, newPassword string) error
}

type authService struct {
	userRepo          repository.UserRepository
	sessions          *session.Manager
	jwtUtil           *utils.JWTUtil
	admin             AdminCredentials
	signupBonusPoints int
	logger            *logrus.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, sessions *session.Manager, jwtUtil *utils.JWTUtil, admin AdminCredentials, signupBonusPoints int, logger *logrus.Logger) AuthService {
	return &authService{
		userRepo:          userRepo,
		sessions:          sessions,
		jwtUtil:           jwtUtil,
		admin:             admin,
		signupBonusPoints: signupBonusPoints,
		logger:            logger,
	}
}

// Signup creates a new member account, authenticates the session and
// returns the user with a token. The duplicate check happens inside the
// repository insert, under the users collection lock, so two racing
// signups with the same phone cannot both succeed.
func (s *authService) Signup(ctx context.Context, sessionID string, req model.SignupRequest) (*model.User, string, error) {
	if !model.ValidArea(req.Area) {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidArea, req.Area)
	}

	phone := utils.CanonicalPhone(req.CountryCode, req.Phone)
	if phone == "" {
		return nil, "", ErrInvalidCredentials
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{
		Phone:        phone,
		Name:         req.Name,
		Area:         req.Area,
		PasswordHash: hash,
		Points:       s.signupBonusPoints,
		Role:         model.RoleMember,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrDuplicatePhone
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"phone": phone,
		"area":  req.Area,
	}).Info("user signed up")

	token, err := s.authenticate(sessionID, &user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Login authenticates a user. The primary match is exact canonical
// phone plus password. If no account has that exact phone, a fallback
// accepts the entered digits as a suffix of exactly one stored phone;
// an ambiguous suffix is rejected outright rather than guessing.
func (s *authService) Login(ctx context.Context, sessionID, phone, password string) (*model.User, string, error) {
	digits := utils.DigitsOnly(phone)
	if digits == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	if s.isAdmin(digits, password) {
		admin := &model.User{
			Phone: s.admin.Phone,
			Name:  "Administrator",
			Role:  model.RoleAdmin,
		}
		s.logger.WithField("phone", digits).Info("admin login")
		token, err := s.authenticate(sessionID, admin)
		if err != nil {
			return nil, "", err
		}
		return admin, token, nil
	}

	user, err := s.userRepo.FindByPhone(ctx, digits)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user by phone: %w", err)
	}
	if user == nil {
		user, err = s.loginBySuffix(ctx, digits)
		if err != nil {
			return nil, "", err
		}
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.authenticate(sessionID, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ResetPassword replaces the credential for an existing account
func (s *authService) ResetPassword(ctx context.Context, phone, newPassword string) error {
	digits := utils.DigitsOnly(phone)
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, digits, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPhoneNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.logger.WithField("phone", digits).Info("password reset")
	return nil
}

// loginBySuffix resolves digits entered without a country code. Only an
// unambiguous match counts: two stored phones sharing the suffix means
// we cannot know which account was meant.
func (s *authService) loginBySuffix(ctx context.Context, digits string) (*model.User, error) {
	matches, err := s.userRepo.FindByPhoneSuffix(ctx, digits)
	if err != nil {
		return nil, fmt.Errorf("failed to find users by suffix: %w", err)
	}
	if len(matches) > 1 {
		s.logger.WithFields(logrus.Fields{
			"digits":  digits,
			"matches": len(matches),
		}).Warn("ambiguous phone suffix at login, rejecting")
		return nil, ErrInvalidCredentials
	}
	if len(matches) == 0 {
		return nil, nil
	}
	user := matches[0]
	return &user, nil
}

func (s *authService) isAdmin(digits, password string) bool {
	if s.admin.Phone == "" || s.admin.Password == "" {
		return false
	}
	phoneOK := subtle.ConstantTimeCompare([]byte(digits), []byte(s.admin.Phone)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.admin.Password)) == 1
	return phoneOK && passOK
}

// authenticate moves the session to the authenticated view and issues a
// token bound to it.
func (s *authService) authenticate(sessionID string, user *model.User) (string, error) {
	if _, err := s.sessions.Authenticate(sessionID, session.Principal{
		Phone: user.Phone,
		Name:  user.Name,
		Role:  user.Role,
	}); err != nil {
		return "", err
	}
	token, err := s.jwtUtil.GenerateToken(user.Phone, user.Role, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}
