package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"carburapp/internal/models"
	"carburapp/internal/password"
	"carburapp/internal/repository"
)

var (
	// ErrEmailInUse is returned when attempting to register duplicate email.
	ErrEmailInUse = errors.New("auth: email already registered")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrPrivacyNotAccepted is returned when the privacy flag is missing on signup.
	ErrPrivacyNotAccepted = errors.New("auth: privacy policy must be accepted")
)

// UserRepository defines storage contract used by the service.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetVerified(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// CodeStore keeps pending email verification codes.
type CodeStore interface {
	Save(ctx context.Context, email, code string) error
	Consume(ctx context.Context, email, code string) error
}

// MailSender delivers verification codes.
type MailSender interface {
	SendVerificationCode(email, code string) error
}

// CodeGenerator produces verification codes; swapped out in tests.
type CodeGenerator func() (string, error)

// AuthService contains registration, login and account lifecycle logic.
type AuthService struct {
	repo      UserRepository
	hasher    password.Hasher
	tokenizer *TokenService
	codes     CodeStore
	mailer    MailSender
	newCode   CodeGenerator
	logger    *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(repo UserRepository, hasher password.Hasher, tokenizer *TokenService, codes CodeStore, mailer MailSender, newCode CodeGenerator, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokenizer: tokenizer,
		codes:     codes,
		mailer:    mailer,
		newCode:   newCode,
		logger:    logger,
	}
}

// Signup registers a new user. The privacy flag must be accepted.
func (s *AuthService) Signup(ctx context.Context, email, plain string, privacyAccepted bool) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("auth: email required")
	}
	if plain == "" {
		return nil, errors.New("auth: password required")
	}
	if !privacyAccepted {
		return nil, ErrPrivacyNotAccepted
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:           email,
		PasswordHash:    hash,
		PrivacyAccepted: true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// Login authenticates a user and produces a JWT.
func (s *AuthService) Login(ctx context.Context, email, plain string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || plain == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, plain); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenizer.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// SendVerification issues a fresh code and mails it to the user.
func (s *AuthService) SendVerification(ctx context.Context, userID int64) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return err
	}
	if err := s.codes.Save(ctx, user.Email, code); err != nil {
		return err
	}
	if err := s.mailer.SendVerificationCode(user.Email, code); err != nil {
		return err
	}

	s.logger.Info("verification code sent", zap.Int64("user_id", user.ID))
	return nil
}

// ConfirmVerification consumes the code and marks the account verified.
func (s *AuthService) ConfirmVerification(ctx context.Context, userID int64, code string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.codes.Consume(ctx, user.Email, strings.TrimSpace(code)); err != nil {
		return err
	}
	return s.repo.SetVerified(ctx, user.ID)
}

// DeleteAccount removes the user's profile row.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.Int64("user_id", userID))
	return nil
}

// Profile returns the user with the derived level attached.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.User, Level, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, Level{}, err
	}
	return user, LevelFor(user.Points), nil
}
