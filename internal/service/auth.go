package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sample-app/internal/domain"
	"sample-app/internal/session"
)

const tokenBytes = 32

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	IsAdmin   bool
}

// AuthService registers users and manages login sessions.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
	UserFromToken(ctx context.Context, token string) (*domain.User, error)
	GetUser(ctx context.Context, username string) (*domain.User, error)
	Deactivate(ctx context.Context, username string) error
}

// AuthOptions tunes NewAuthService. Zero values fall back to the defaults.
type AuthOptions struct {
	TokenTTL time.Duration
	Scheme   domain.PasswordScheme
	Now      func() time.Time
	Logger   logrus.FieldLogger
}

type authService struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	sessions session.Store
	ttl      time.Duration
	scheme   domain.PasswordScheme
	now      func() time.Time
	log      logrus.FieldLogger
}

func NewAuthService(sessions session.Store, opts AuthOptions) AuthService {
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = domain.SessionTTL
	}
	if opts.Scheme == "" {
		opts.Scheme = domain.SchemeSHA256
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &authService{
		users:    make(map[string]*domain.User),
		sessions: sessions,
		ttl:      opts.TokenTTL,
		scheme:   opts.Scheme,
		now:      opts.Now,
		log:      loggerOrDiscard(opts.Logger),
	}
}

func (s *authService) Register(_ context.Context, in RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, ErrInvalidUsername
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[in.Username]; exists {
		return nil, fmt.Errorf("%w: %q is already taken", ErrUserAlreadyExists, in.Username)
	}

	user, err := domain.NewUserWithScheme(in.Username, in.Email, in.Password, domain.Profile{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		IsAdmin:   in.IsAdmin,
	}, s.scheme)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidEmail):
			return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, in.Email)
		case errors.Is(err, domain.ErrWeakPassword):
			return nil, ErrWeakPassword
		default:
			return nil, fmt.Errorf("create user: %w", err)
		}
	}
	user.CreatedAt = s.now().UTC()

	s.users[in.Username] = user
	s.log.WithField("username", in.Username).Info("Registered new user")
	return snapshot(user), nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok || !user.CheckPassword(password) {
		return "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", ErrAccountInactive
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	if err := s.sessions.Put(ctx, token, domain.Session{
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	user.MarkLogin(now)

	s.log.WithField("username", username).Info("User logged in")
	return token, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok, err := s.sessions.Get(ctx, token)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.log.WithField("username", sess.Username).Info("User logged out")
	return nil
}

// UserFromToken resolves a session token. It returns nil without an error
// when the token is unknown or expired; expired sessions are removed.
func (s *authService) UserFromToken(ctx context.Context, token string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	if sess.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			return nil, fmt.Errorf("delete session: %w", err)
		}
		return nil, nil
	}

	user, ok := s.users[sess.Username]
	if !ok {
		return nil, nil
	}
	return snapshot(user), nil
}

func (s *authService) GetUser(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return snapshot(user), nil
}

// Deactivate blocks future logins. Existing sessions stay valid until they
// expire or are logged out.
func (s *authService) Deactivate(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	user.IsActive = false
	s.log.WithField("username", username).Info("User deactivated")
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// snapshot copies a stored user so callers never share it with the service.
func snapshot(user *domain.User) *domain.User {
	cp := *user
	if user.LastLogin != nil {
		at := *user.LastLogin
		cp.LastLogin = &at
	}
	return &cp
}
