package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"medreport-backend/internal/shared/auth"
	"medreport-backend/internal/shared/util"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("incorrect email or password")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// TokenPair is the credential pair issued at login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Service implements registration, login, and token refresh.
type Service struct {
	Repo  Repo
	Codec *auth.Codec
}

// NewService constructs a Service.
func NewService(repo Repo, codec *auth.Codec) *Service {
	return &Service{Repo: repo, Codec: codec}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if !util.ValidateName(name) {
		return User{}, fmt.Errorf("%w: name must contain only letters, spaces and hyphens", ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return User{}, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if !util.ValidatePassword(password) {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters with upper, lower, digit and special characters", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.Repo.Insert(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Login verifies credentials and issues an access/refresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, User{}, ErrInvalidCredentials
		}
		return TokenPair{}, User{}, err
	}
	if user.PasswordHash == "" {
		return TokenPair{}, User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return TokenPair{}, User{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return TokenPair{}, User{}, err
	}
	return pair, user, nil
}

// Refresh validates a refresh credential and issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.Codec.Validate(refreshToken, auth.KindRefresh)
	if err != nil {
		return "", err
	}
	return s.Codec.IssueAccess(claims.Subject, claims.OwnerID)
}

// LoginExternal upserts an externally authenticated identity and issues a
// token pair for it.
func (s *Service) LoginExternal(ctx context.Context, name, email string) (TokenPair, User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return TokenPair{}, User{}, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		name = email
	}

	user, err := s.Repo.Upsert(ctx, User{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(name),
		Email: email,
	})
	if err != nil {
		return TokenPair{}, User{}, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return TokenPair{}, User{}, err
	}
	return pair, user, nil
}

func (s *Service) issuePair(user User) (TokenPair, error) {
	access, err := s.Codec.IssueAccess(user.Email, user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.Codec.IssueRefresh(user.Email, user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}
