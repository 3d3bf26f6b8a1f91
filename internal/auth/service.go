package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/zheli/invoice-bun/internal/logging"
	"github.com/zheli/invoice-bun/internal/user"
)

var (
	ErrInvalidCredentials   = errors.New("incorrect email or password")
	ErrInactiveUser         = errors.New("inactive user")
	ErrEmailRequired        = errors.New("email is required")
	ErrPasswordRequired     = errors.New("password is required")
	ErrInvalidEmailFormat   = errors.New("invalid email format")
	ErrProviderEmailMissing = errors.New("no email returned from provider")
	ErrProviderIDMissing    = errors.New("no id returned from provider")
)

const providerGoogle = "google"

// Service handles authentication business logic
type Service struct {
	userRepo            *user.Repository
	tokenService        TokenService
	logger              *logging.Logger
	accessTokenDuration time.Duration
}

func NewService(
	userRepo *user.Repository,
	tokenService TokenService,
	logger *logging.Logger,
	accessTokenDuration time.Duration,
) *Service {
	return &Service{
		userRepo:            userRepo,
		tokenService:        tokenService,
		logger:              logger,
		accessTokenDuration: accessTokenDuration,
	}
}

// Register creates a new user account with a hashed password
func (s *Service) Register(ctx context.Context, email, password string, fullName, companyName *string) (*user.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, user.CreateParams{
		Email:          email,
		HashedPassword: hashedPassword,
		FullName:       fullName,
		CompanyName:    companyName,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", newUser.ID, "email", newUser.Email)

	return newUser, nil
}

// Login authenticates a user by email and password and returns an access token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.HashedPassword, password) {
		return "", ErrInvalidCredentials
	}

	if !existingUser.IsActive {
		return "", ErrInactiveUser
	}

	return s.issueToken(existingUser)
}

// LoginWithGoogle logs in the user asserted by the provider profile, creating a
// local account on first login.
//
// An existing account with a matching email is logged in without checking
// provider linkage; the provider has verified the email, and users who
// registered with a password first keep access to their account.
func (s *Service) LoginWithGoogle(ctx context.Context, profile *Profile) (string, error) {
	if profile == nil || profile.Email == "" {
		return "", ErrProviderEmailMissing
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, profile.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return "", fmt.Errorf("failed to get user: %w", err)
		}

		if profile.ID == "" {
			return "", ErrProviderIDMissing
		}

		existingUser, err = s.registerFederatedUser(ctx, profile)
		if err != nil {
			return "", err
		}

		s.logger.Info("registered user via google", "user_id", existingUser.ID, "email", existingUser.Email)
	}

	if !existingUser.IsActive {
		return "", ErrInactiveUser
	}

	return s.issueToken(existingUser)
}

// registerFederatedUser creates a local account with an unusable random password
func (s *Service) registerFederatedUser(ctx context.Context, profile *Profile) (*user.User, error) {
	randomPassword, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}

	hashedPassword, err := HashPassword(randomPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	params := user.CreateParams{
		Email:          profile.Email,
		HashedPassword: hashedPassword,
		Provider:       providerGoogle,
		ProviderID:     profile.ID,
	}
	if profile.Name != "" {
		params.FullName = &profile.Name
	}

	newUser, err := s.userRepo.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

func (s *Service) issueToken(u *user.User) (string, error) {
	token, err := s.tokenService.CreateToken(u.ID, s.accessTokenDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create access token: %w", err)
	}

	return token, nil
}
