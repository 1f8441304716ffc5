// Package auth signs users up and in, issues HS256 session tokens and
// revokes them on sign-out.
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
	"golang.org/x/crypto/bcrypt"

	"organizapay/internal/cache"
	"organizapay/internal/core"
	"organizapay/internal/log"
	"organizapay/internal/records"
)

const minPasswordLength = 6

var (
	ErrUserExists         = errors.New("user already registered")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrInvalidToken       = errors.New("invalid or expired session token")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrEmptyName          = errors.New("display name is required")
)

// Config holds the token and hashing parameters.
type Config struct {
	Secret      []byte
	Issuer      string
	TTL         time.Duration
	RevokedSize int
	BcryptCost  int
}

// Claims is the session token payload.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Session is what a successful sign-up or sign-in hands back to the client.
type Session struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      core.User `json:"user"`
}

type Service struct {
	users    records.UserStore
	profiles records.ProfileStore
	cfg      Config
	revoked  *cache.LRUCache[struct{}]
	logger   *log.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l.WithComponent(log.ComponentAuth) }
}

// WithClock replaces time.Now for token issue, validation and revocation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds the auth service. Sign-up writes the user's initial profile and
// subscription through profiles.
func New(users records.UserStore, profiles records.ProfileStore, cfg Config, opts ...Option) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.RevokedSize <= 0 {
		cfg.RevokedSize = 10000
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	s := &Service{
		users:    users,
		profiles: profiles,
		cfg:      cfg,
		logger:   log.Discard().WithComponent(log.ComponentAuth),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// A revoked id only has to outlive the token it names.
	s.revoked = cache.NewLRUCache(cfg.RevokedSize, cfg.TTL, cache.WithClock[struct{}](s.now))
	return s, nil
}

// Revoked exposes the revocation set so it can be registered for cleanup.
func (s *Service) Revoked() *cache.LRUCache[struct{}] {
	return s.revoked
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// SignUp registers a new user with an individual profile on the free plan
// and signs them in.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if len(password) < minPasswordLength {
		return Session{}, ErrWeakPassword
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return Session{}, ErrEmptyName
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := core.User{ID: uuid.NewString(), Email: email, DisplayName: displayName}
	err = s.users.CreateUser(ctx, records.UserRecord{User: user, PasswordHash: hash, CreatedAt: s.now().UTC()})
	if errors.Is(err, records.ErrConflict) {
		return Session{}, ErrUserExists
	}
	if err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.profiles.UpsertProfile(ctx, core.Profile{
		UserID:      user.ID,
		DisplayName: displayName,
		ProfileType: core.ProfileIndividual,
	}); err != nil {
		return Session{}, fmt.Errorf("create profile: %w", err)
	}
	if err := s.profiles.UpsertSubscription(ctx, core.Subscription{UserID: user.ID, Plan: core.PlanFree}); err != nil {
		return Session{}, fmt.Errorf("create subscription: %w", err)
	}

	s.logger.InfoContext(ctx, "User signed up", log.FieldUserID, user.ID, log.FieldOperation, log.OpSignUp)
	return s.issue(user)
}

// SignIn checks the password and returns a fresh session. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	rec, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, records.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Sign-in rejected", log.FieldUserID, rec.ID, log.FieldOperation, log.OpSignIn)
		return Session{}, ErrInvalidCredentials
	}

	s.logger.InfoContext(ctx, "User signed in", log.FieldUserID, rec.ID, log.FieldOperation, log.OpSignIn)
	return s.issue(rec.User)
}

// SignOut revokes the token. Signing out an already invalid token is an error
// so the caller can tell the client its session was gone.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	s.revoked.Set(claims.ID, struct{}{})
	s.logger.InfoContext(ctx, "User signed out", log.FieldUserID, claims.Subject, log.FieldOperation, log.OpSignOut)
	return nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(_ context.Context, token string) (core.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return core.User{}, err
	}
	return core.User{ID: claims.Subject, Email: claims.Email, DisplayName: claims.Name}, nil
}

func (s *Service) issue(user core.User) (Session, error) {
	now := s.now()
	expires := now.Add(s.cfg.TTL)
	claims := &Claims{
		Email: user.Email,
		Name:  user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{Token: signed, ExpiresAt: expires.UTC().Truncate(time.Second), User: user}, nil
}

func (s *Service) parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if _, revoked := s.revoked.Get(claims.ID); revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
