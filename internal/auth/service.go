package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

const minPasswordLength = 6

var (
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrWeakPassword         = errors.New("password should be at least 6 characters")
	ErrEmailTaken           = errors.New("user already registered")
	ErrInvalidCredentials   = errors.New("invalid login credentials")
	ErrEmailNotConfirmed    = errors.New("email not confirmed")
	ErrConfirmationRequired = errors.New("check your inbox to confirm your email")
	ErrInvalidToken         = errors.New("invalid or expired token")
)

const codeUniqueViolation = "23505"

type Options struct {
	Secret              string
	TTL                 time.Duration
	RequireConfirmation bool
	BcryptCost          int
}

// Service owns the users table and issues HS256 session tokens.
type Service struct {
	db                  *sql.DB
	secret              []byte
	ttl                 time.Duration
	requireConfirmation bool
	cost                int
	now                 func() time.Time
}

func NewService(db *sql.DB, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		db:                  db,
		secret:              []byte(opts.Secret),
		ttl:                 opts.TTL,
		requireConfirmation: opts.RequireConfirmation,
		cost:                opts.BcryptCost,
		now:                 time.Now,
	}
}

type claims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates the user and its customer profile. When confirmation is
// required the user is stored unconfirmed and ErrConfirmationRequired is
// returned without a token.
func (s *Service) SignUp(ctx context.Context, email, password string) (User, string, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return User{}, "", ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return User{}, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, "", fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	u := User{Email: email, Role: RoleCustomer}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, confirmed) VALUES ($1, $2, $3) RETURNING id`,
		email, string(hash), !s.requireConfirmation,
	).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation {
			return User{}, "", ErrEmailTaken
		}
		return User{}, "", fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (id, email, role) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		u.ID, email, string(RoleCustomer),
	)
	if err != nil {
		return User{}, "", fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return User{}, "", fmt.Errorf("commit: %w", err)
	}

	if s.requireConfirmation {
		return u, "", ErrConfirmationRequired
	}
	token, err := s.issue(u)
	if err != nil {
		return User{}, "", err
	}
	return u, token, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (User, string, error) {
	var (
		u         User
		hash      string
		confirmed bool
		role      string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT u.id, u.email, u.password_hash, u.confirmed, COALESCE(p.role, 'customer')
         FROM users u LEFT JOIN profiles p ON p.id = u.id
         WHERE u.email = $1`,
		normalizeEmail(email),
	).Scan(&u.ID, &u.Email, &hash, &confirmed, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", fmt.Errorf("select user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return User{}, "", ErrInvalidCredentials
	}
	if !confirmed {
		return User{}, "", ErrEmailNotConfirmed
	}

	u.Role = Role(role)
	token, err := s.issue(u)
	if err != nil {
		return User{}, "", err
	}
	return u, token, nil
}

func (s *Service) issue(u User) (string, error) {
	now := s.now()
	c := claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify parses a session token. The role is the one held at sign-in; callers
// that gate on it re-read the profile.
func (s *Service) Verify(token string) (User, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || c.Subject == "" {
		return User{}, ErrInvalidToken
	}
	return User{ID: c.Subject, Email: c.Email, Role: c.Role}, nil
}
