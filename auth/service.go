// Package auth registers local users and issues and verifies the bearer
// tokens that guard the image API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/aljonleynes11/media-coding-exam-backend/models"
	"github.com/aljonleynes11/media-coding-exam-backend/repository"
	"github.com/go-pkgz/auth/v2/token"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost  = 10
	minPassword = 8
	TokenType   = "bearer"
)

var (
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrEmailTaken         = errors.New("auth: email already registered")
)

// ValidationError is returned for malformed registration or login input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Identity is the authenticated caller extracted from a token.
type Identity struct {
	UserID string
	Email  string
}

type Verifier interface {
	Verify(tokenStr string) (Identity, error)
}

// UserStore is satisfied by *repository.Users.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type Options struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        *models.User `json:"user"`
}

type Service struct {
	users  UserStore
	tokens *token.Service
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(users UserStore, opts Options) *Service {
	secret := opts.Secret
	tokens := token.NewService(token.Opts{
		SecretReader: token.SecretFunc(func(string) (string, error) {
			return secret, nil
		}),
		TokenDuration: opts.TokenTTL,
		Issuer:        opts.Issuer,
	})
	return &Service{
		users:  users,
		tokens: tokens,
		issuer: opts.Issuer,
		ttl:    opts.TokenTTL,
		now:    time.Now,
	}
}

// Register creates a local user. The password is stored as a bcrypt hash.
func (s *Service) Register(ctx context.Context, email, password, confirm string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" || confirm == "" {
		return nil, &ValidationError{Message: "email, password and confirm_password are required"}
	}
	if password != confirm {
		return nil, &ValidationError{Message: "password and confirm_password do not match"}
	}
	if !isEmail(email) {
		return nil, &ValidationError{Message: "email is not a valid address"}
	}
	if len(password) < minPassword {
		return nil, &ValidationError{Message: fmt.Sprintf("password must be at least %d characters", minPassword)}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user := &models.User{Email: email, Password: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	return user, nil
}

// Login checks the credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, &ValidationError{Message: "email and password are required"}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	if !checkPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	tokenStr, err := s.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: tokenStr,
		TokenType:   TokenType,
		ExpiresIn:   int(s.ttl / time.Second),
		User:        user,
	}, nil
}

// Issue signs a token for user valid for the configured TTL.
func (s *Service) Issue(user *models.User) (string, error) {
	now := s.now()
	claims := token.Claims{
		User: &token.User{
			ID:    user.ID,
			Name:  user.Email,
			Email: user.Email,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	tokenStr, err := s.tokens.Token(claims)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return tokenStr, nil
}

// Verify parses tokenStr and checks signature, issuer and expiry.
func (s *Service) Verify(tokenStr string) (Identity, error) {
	claims, err := s.tokens.Parse(tokenStr)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	// Parse checks the signature only.
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return Identity{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	if claims.Issuer != s.issuer {
		return Identity{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.User == nil || claims.User.ID == "" {
		return Identity{}, fmt.Errorf("%w: no user", ErrInvalidToken)
	}
	return Identity{UserID: claims.User.ID, Email: claims.User.Email}, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashed), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func isEmail(identity string) bool {
	addr, err := mail.ParseAddress(identity)
	return err == nil && addr.Address == identity
}
