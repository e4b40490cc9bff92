package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/replykit/pkg/logger"
	"github.com/dmitrymomot/replykit/pkg/sanitizer"
	"github.com/dmitrymomot/replykit/pkg/token"
	"github.com/dmitrymomot/replykit/pkg/validator"
)

// Service covers the credential lifecycle: registration, login, email
// verification and password reset. Sessions are handled by pkg/session.
type Service interface {
	Register(ctx context.Context, username, password, email string) (*User, error)

	// Authenticate returns ErrInvalidCredentials for an unknown user and a
	// wrong password alike.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	GetUser(ctx context.Context, userID int64) (*User, error)

	// RequestPasswordReset mails a single-use reset link. Unknown usernames
	// succeed silently.
	RequestPasswordReset(ctx context.Context, username string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error

	VerifyEmail(ctx context.Context, verificationToken string) (*User, error)
	ResendVerification(ctx context.Context, userID int64) error
}

type service struct {
	store          Store
	mailer         Mailer
	bcryptCost     int
	resetTokenTTL  time.Duration
	passwordPolicy validator.PasswordPolicy
	logger         *slog.Logger
	dummyHash      []byte
}

type Option func(*service)

func WithLogger(l *slog.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBcryptCost sets the bcrypt cost for password hashing.
func WithBcryptCost(cost int) Option {
	return func(s *service) {
		s.bcryptCost = cost
	}
}

// WithResetTokenTTL sets how long a password reset link stays valid.
func WithResetTokenTTL(ttl time.Duration) Option {
	return func(s *service) {
		if ttl > 0 {
			s.resetTokenTTL = ttl
		}
	}
}

// NewService creates the account service. It panics on nil dependencies.
func NewService(store Store, mailer Mailer, opts ...Option) Service {
	if store == nil {
		panic("account: Store is required")
	}
	if mailer == nil {
		panic("account: Mailer is required")
	}

	s := &service{
		store:          store,
		mailer:         mailer,
		bcryptCost:     bcrypt.DefaultCost,
		resetTokenTTL:  time.Hour,
		passwordPolicy: validator.DefaultPasswordPolicy(),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Compared against when the user does not exist so both paths pay for
	// one bcrypt comparison.
	hash, err := bcrypt.GenerateFromPassword([]byte("replykit-timing-equalizer"), s.bcryptCost)
	if err != nil {
		panic(fmt.Sprintf("account: invalid bcrypt cost %d: %v", s.bcryptCost, err))
	}
	s.dummyHash = hash

	return s
}

func (s *service) Register(ctx context.Context, username, password, email string) (*User, error) {
	username = sanitizer.NormalizeEmail(username)
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		email = username
	}

	if err := validator.Apply(
		validator.Required("username", username),
		validator.ValidEmail("username", username),
		validator.ValidEmail("email", email),
		validator.StrongPassword("password", password, s.passwordPolicy),
	); err != nil {
		return nil, err
	}

	_, err := s.store.UserByUsername(ctx, username)
	if err == nil {
		return nil, ErrDuplicateUsername
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verification := token.Random()
	digest := token.Hash(verification)

	user := &User{
		Username:          username,
		Email:             email,
		PasswordHash:      hash,
		VerificationToken: &digest,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", logger.UserID(user.ID), logger.Component("account"))

	go func(u User) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("verification email panicked",
					logger.UserID(u.ID),
					slog.Any("panic", r),
					logger.Component("account"),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.mailer.SendVerification(ctx, &u, verification); err != nil {
			s.logger.Error("failed to send verification email",
				logger.UserID(u.ID),
				logger.Error(err),
				logger.Component("account"),
			)
		}
	}(*user)

	return user, nil
}

func (s *service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = sanitizer.NormalizeEmail(username)

	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *service) GetUser(ctx context.Context, userID int64) (*User, error) {
	return s.store.UserByID(ctx, userID)
}

func (s *service) RequestPasswordReset(ctx context.Context, username string) error {
	username = sanitizer.NormalizeEmail(username)

	user, err := s.store.UserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	reset := token.Random()
	if err := s.store.SetResetToken(ctx, user.ID, token.Hash(reset), time.Now().Add(s.resetTokenTTL)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user, reset); err != nil {
		s.logger.ErrorContext(ctx, "failed to send password reset email",
			logger.UserID(user.ID),
			logger.Error(err),
			logger.Component("account"),
		)
		return errors.Join(ErrEmailDeliveryFailed, err)
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if err := validator.Apply(
		validator.StrongPassword("password", newPassword, s.passwordPolicy),
	); err != nil {
		return err
	}

	resetToken = strings.TrimSpace(resetToken)
	if resetToken == "" {
		return ErrInvalidOrExpiredToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.store.ConsumeResetToken(ctx, token.Hash(resetToken), hash, time.Now())
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password reset", logger.UserID(userID), logger.Component("account"))
	return nil
}

func (s *service) VerifyEmail(ctx context.Context, verificationToken string) (*User, error) {
	verificationToken = strings.TrimSpace(verificationToken)
	if verificationToken == "" {
		return nil, ErrInvalidToken
	}

	user, wasVerified, err := s.store.ConsumeVerificationToken(ctx, token.Hash(verificationToken))
	if err != nil {
		return nil, err
	}
	if wasVerified {
		return nil, ErrAlreadyVerified
	}

	if err := s.mailer.SendWelcome(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "failed to send welcome email",
			logger.UserID(user.ID),
			logger.Error(err),
			logger.Component("account"),
		)
	}
	return user, nil
}

func (s *service) ResendVerification(ctx context.Context, userID int64) error {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	verification := token.Random()
	if err := s.store.SetVerificationToken(ctx, user.ID, token.Hash(verification)); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	if err := s.mailer.SendVerification(ctx, user, verification); err != nil {
		s.logger.ErrorContext(ctx, "failed to resend verification email",
			logger.UserID(user.ID),
			logger.Error(err),
			logger.Component("account"),
		)
		return errors.Join(ErrEmailDeliveryFailed, err)
	}
	return nil
}
