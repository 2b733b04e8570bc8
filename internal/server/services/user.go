package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/dmitrijs2005/clipshare/internal/common"
	"github.com/dmitrijs2005/clipshare/internal/logging"
	"github.com/dmitrijs2005/clipshare/internal/server/auth"
	"github.com/dmitrijs2005/clipshare/internal/server/config"
	"github.com/dmitrijs2005/clipshare/internal/server/events"
	"github.com/dmitrijs2005/clipshare/internal/server/metrics"
	"github.com/dmitrijs2005/clipshare/internal/server/models"
	"github.com/dmitrijs2005/clipshare/internal/server/repositories/repomanager"
)

// Client-facing messages of the auth flow.
const (
	MsgUserExists         = "user already exists"
	MsgUserNotFound       = "user not found"
	MsgInvalidPassword    = "invalid password"
	MsgInvalidCredentials = "invalid username or password"
)

const (
	maxUserNameLen = 64
	dummyPassword  = "clipshare-dummy-password"
)

// TokenIssuer mints and checks bearer tokens.
type TokenIssuer interface {
	Issue(subjectID string, ttl time.Duration) (string, time.Time, error)
	Validate(token string) (string, error)
}

// Session is the result of a successful Register or Login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// UserService registers users, verifies credentials and issues tokens.
// It keeps no per-request state; the store is the source of truth for
// uniqueness.
type UserService struct {
	repomanager       repomanager.RepositoryManager
	hasher            auth.PasswordHasher
	tokens            TokenIssuer
	tokenTTL          time.Duration
	uniformAuthErrors bool
	publisher         events.Publisher
	metrics           *metrics.Metrics
	logger            logging.Logger

	dummyMu   sync.Mutex
	dummyHash string
}

func NewUserService(m repomanager.RepositoryManager, hasher auth.PasswordHasher, tokens TokenIssuer,
	cfg *config.Config, logger logging.Logger, opts ...Option) *UserService {
	o := buildOptions(opts)
	return &UserService{
		repomanager:       m,
		hasher:            hasher,
		tokens:            tokens,
		tokenTTL:          cfg.TokenValidityDuration,
		uniformAuthErrors: cfg.UniformAuthErrors,
		publisher:         o.publisher,
		metrics:           o.metrics,
		logger:            logger.With("module", "users"),
	}
}

func validationError(msg string) error {
	return common.NewError(common.ErrorValidation, msg)
}

func (s *UserService) internal(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}

func validateRegistration(username, email, password string) error {
	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return validationError("username, email and password are required")
	}
	if len(username) > maxUserNameLen {
		return validationError("username is too long")
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return validationError("username must not contain spaces")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return validationError("invalid email address")
	}
	if len(password) > common.MaxPasswordBytes {
		return validationError("password must be at most 72 bytes")
	}
	return nil
}

// Register creates an account and returns a session for it.
// Username and email are trimmed, email is lower-cased.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validateRegistration(username, email, password); err != nil {
		s.metrics.RecordAuth("register", metrics.ResultFailure)
		return nil, err
	}

	repo := s.repomanager.Users(s.repomanager.DB())

	_, err := repo.FindByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		s.metrics.RecordAuth("register", metrics.ResultFailure)
		return nil, common.NewError(common.ErrorAlreadyExists, MsgUserExists)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, s.internal(ctx, "user lookup failed", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.internal(ctx, "password hashing failed", err)
	}

	user, err := repo.Create(ctx, &models.User{UserName: username, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.metrics.RecordAuth("register", metrics.ResultFailure)
			return nil, common.NewError(common.ErrorAlreadyExists, MsgUserExists)
		}
		return nil, s.internal(ctx, "user insert failed", err)
	}

	session, err := s.newSession(user)
	if err != nil {
		return nil, s.internal(ctx, "token issue failed", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	s.metrics.RecordAuth("register", metrics.ResultSuccess)

	ev := events.UserRegistered{UserID: user.ID, UserName: user.UserName, OccurredAt: user.CreatedAt}
	if err := s.publisher.Publish(ctx, events.KeyUserRegistered, ev); err != nil {
		s.logger.Warn(ctx, "event publish failed", "key", events.KeyUserRegistered, "error", err)
		s.metrics.RecordEvent(events.KeyUserRegistered, metrics.ResultError)
	} else {
		s.metrics.RecordEvent(events.KeyUserRegistered, metrics.ResultSuccess)
	}

	return session, nil
}

// Login verifies username and password and returns a fresh session.
func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)

	repo := s.repomanager.Users(s.repomanager.DB())

	user, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.RecordAuth("login", metrics.ResultFailure)
			if s.uniformAuthErrors {
				s.hasher.Verify(password, s.getDummyHash(ctx))
				return nil, common.NewError(common.ErrorUnauthorized, MsgInvalidCredentials)
			}
			return nil, common.NewError(common.ErrorUnauthorized, MsgUserNotFound)
		}
		return nil, s.internal(ctx, "user lookup failed", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.RecordAuth("login", metrics.ResultFailure)
		if s.uniformAuthErrors {
			return nil, common.NewError(common.ErrorUnauthorized, MsgInvalidCredentials)
		}
		return nil, common.NewError(common.ErrorUnauthorized, MsgInvalidPassword)
	}

	session, err := s.newSession(user)
	if err != nil {
		return nil, s.internal(ctx, "token issue failed", err)
	}

	s.metrics.RecordAuth("login", metrics.ResultSuccess)
	return session, nil
}

// Authenticate resolves a bearer token to a user ID. Errors are
// common.ErrTokenExpired or common.ErrInvalidToken.
func (s *UserService) Authenticate(_ context.Context, token string) (string, error) {
	return s.tokens.Validate(token)
}

// Profile returns the account of userID.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.repomanager.DB()).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorNotFound, MsgUserNotFound)
		}
		return nil, s.internal(ctx, "user lookup failed", err)
	}
	return user, nil
}

func (s *UserService) newSession(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// getDummyHash returns a hash to verify against when the user does not
// exist, so both login failures cost one bcrypt comparison. A failed hash
// is logged and retried on the next call.
func (s *UserService) getDummyHash(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyHash == "" {
		h, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Error(ctx, "dummy hash failed", "error", err)
			return ""
		}
		s.dummyHash = h
	}
	return s.dummyHash
}
