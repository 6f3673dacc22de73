package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

const minPasswordLength = 8

var (
	ErrAccountExists      = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidEmail       = errors.New("a valid email address is required")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

// AccountStore is the subset of storage used for accounts
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

// Claims carried by session tokens
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Service manages accounts and session tokens
type Service struct {
	store  AccountStore
	secret []byte
	issuer string
	expiry time.Duration
	cost   int
	log    zerolog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithBcryptCost overrides the hashing cost
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates a new auth service. A JWT secret is required.
func NewService(store AccountStore, cfg config.AuthConfig, log zerolog.Logger, opts ...Option) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	s := &Service{
		store:  store,
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		expiry: cfg.TokenExpiry,
		cost:   bcrypt.DefaultCost,
		log:    log,
	}
	if s.expiry <= 0 {
		s.expiry = 24 * time.Hour
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SignUp creates an account with a bcrypt password hash
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	s.log.Info().Str("user_id", account.ID).Msg("Account created")
	return account, nil
}

// SignIn verifies credentials and returns a session token
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *models.Account, error) {
	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.IssueToken(account.ID)
	if err != nil {
		return "", nil, err
	}
	return token, account, nil
}

// DeleteAccount removes an account; used to undo a failed signup
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Msg("Account deleted")
	return nil
}

// IssueToken signs an HS256 session token for userID
func (s *Service) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates a session token and returns its user id
func (s *Service) ParseToken(token string) (string, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
