package service

import (
	"context"

	"hearth/internal/models"
	"hearth/internal/repository"
	"hearth/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService owns profile reads and updates.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService wires the user service.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// UpdateProfileInput is a partial profile patch; nil fields are unchanged.
type UpdateProfileInput struct {
	Username *string
	Email    *string
	Avatar   *string
	Password *string
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile patches the caller's own profile. Username and email
// uniqueness is checked before the write so the caller gets a clear
// validation error instead of a database constraint failure.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil && *in.Username != user.Username {
		if err := validation.ValidateUsername(*in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		existing, err := s.userRepo.GetByUsername(ctx, *in.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, models.NewValidationError("username is already taken")
		}
		user.Username = *in.Username
	}

	if in.Email != nil && *in.Email != user.Email {
		if err := validation.ValidateEmail(*in.Email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		existing, err := s.userRepo.GetByEmail(ctx, *in.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, models.NewValidationError("email is already in use")
		}
		user.Email = *in.Email
	}

	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}

	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
