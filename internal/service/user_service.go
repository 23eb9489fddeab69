package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/biblio/internal/auth"
	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
)

// UserService handles account management and authentication.
type UserService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	logger   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, tokens *auth.TokenManager, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// RegisterInput contains the data for public self-registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthOutput contains an authenticated user and their bearer token.
type AuthOutput struct {
	User  *domain.User
	Token string
}

// Register creates a new member account and logs it in.
// Self-registered accounts always get the Member role.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*AuthOutput, error) {
	user, err := s.create(ctx, input.Name, input.Email, input.Password, domain.RoleMember)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("email", user.Email).
		Msg("user registered")

	return &AuthOutput{User: user, Token: token}, nil
}

// Login verifies credentials and returns the user with a fresh token.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthOutput, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Log but don't expose whether the email exists.
			s.logger.Debug().Str("email", email).Msg("user not found during login")
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Str("email", email).Msg("failed to fetch user during login")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !user.CanAuthenticate() {
		s.logger.Debug().Str("email", email).Msg("inactive user attempted login")
		return nil, domain.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug().Str("email", email).Msg("invalid password during login")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("email", user.Email).
		Msg("user logged in")

	return &AuthOutput{User: user, Token: token}, nil
}

// CreateUserInput contains the data for admin-driven account creation.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Create creates a user with an explicit role. Admin only.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.create(ctx, input.Name, input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("user created")

	return user, nil
}

// create validates input, hashes the password, and persists the user.
func (s *UserService) create(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if len(name) < 1 || len(name) > 255 {
		return nil, ErrInvalidName
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrInvalidPassword
	}

	// Uniqueness holds across active and soft-deleted accounts.
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to check email existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmailTaken, email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(name, email, string(passwordHash), role)

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("email", email).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return user, nil
}

// GetByID retrieves a user. Members may only fetch themselves.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if _, err := auth.RequireSelfOrAdmin(ctx, id); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return user, nil
}

// Me returns the calling user's own account.
func (s *UserService) Me(ctx context.Context) (*domain.User, error) {
	caller, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, caller.UserID)
}

// ListUsersInput contains pagination options for listing users.
type ListUsersInput struct {
	Limit  int
	Offset int
}

// ListUsersOutput contains the result of listing users.
type ListUsersOutput struct {
	Users      []*domain.User
	TotalCount int64
}

// List returns all users with pagination. Admin only.
func (s *UserService) List(ctx context.Context, input ListUsersInput) (*ListUsersOutput, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	result, err := s.userRepo.List(ctx, repository.ListOptions{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListUsersOutput{
		Users:      result.Items,
		TotalCount: result.Total,
	}, nil
}

// UpdateUserInput contains the patch for updating a user.
// Nil fields are left unchanged.
type UpdateUserInput struct {
	ID       int64
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
	IsActive *bool
}

// Update applies a partial update. Members may update their own name,
// email, and password; role and active status are admin-only.
func (s *UserService) Update(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	caller, err := auth.RequireSelfOrAdmin(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if (input.Role != nil || input.IsActive != nil) && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("user_id", input.ID).Msg("failed to get user for update")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if input.Name != nil {
		if len(*input.Name) < 1 || len(*input.Name) > 255 {
			return nil, ErrInvalidName
		}
		user.Name = *input.Name
	}

	if input.Email != nil && *input.Email != user.Email {
		if _, err := mail.ParseAddress(*input.Email); err != nil {
			return nil, ErrInvalidEmail
		}
		exists, err := s.userRepo.ExistsByEmail(ctx, *input.Email)
		if err != nil {
			s.logger.Error().Err(err).Str("email", *input.Email).Msg("failed to check email existence")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", domain.ErrEmailTaken, *input.Email)
		}
		user.Email = *input.Email
	}

	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, ErrInvalidPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
		}
		user.PasswordHash = string(hash)
	}

	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}

	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user updated")
	return user, nil
}

// Delete soft-deletes a user account. Admin only.
// The account row is kept so the borrow ledger stays resolvable.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user for delete")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	user.IsActive = false
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to deactivate user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", id).Msg("user deactivated")
	return nil
}
