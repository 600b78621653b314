package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	apperrors "bookshelf/internal/errors"
	"bookshelf/internal/model"
	"bookshelf/internal/repository"
)

const bcryptCost = 10

// dummyHash is compared against when a username is unknown so that the
// miss path costs the same bcrypt comparison as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("bookshelf-timing-equaliser"), bcryptCost)
	return h
})

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// UpdateUserInput carries optional profile changes. Nil fields are left untouched.
type UpdateUserInput struct {
	Username *string
	Email    *string
	FullName *string
	Password *string
}

// UserService is the credential store: registration, lookup and password checks.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	VerifyCredentials(ctx context.Context, username, password string) (*model.User, error)
	Update(ctx context.Context, id uint, in UpdateUserInput) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
	log  *slog.Logger
}

// NewUserService builds a UserService on top of the user repository.
func NewUserService(repo repository.UserRepository, log *slog.Logger) UserService {
	return &userService{repo: repo, log: log}
}

// Register creates a new active user with a bcrypt password hash.
func (s *userService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Active:       true,
	}

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if err := ensureFree(ctx, repo, in.Username, in.Email, 0); err != nil {
			return err
		}
		// The unique indexes still guard the race between the check above and this insert;
		// the repository reports a violation as ErrDuplicateIdentity.
		return repo.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)), slog.String("username", user.Username))
	return user, nil
}

func (s *userService) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *userService) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

// VerifyCredentials returns the active user whose password matches, or ErrInvalidCredentials.
func (s *userService) VerifyCredentials(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// Update applies profile changes. Username and email must stay unique among active users.
func (s *userService) Update(ctx context.Context, id uint, in UpdateUserInput) (*model.User, error) {
	columns := make(map[string]interface{})
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		columns["password_hash"] = hash
	}

	var updated *model.User
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		user, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		var username, email string
		if in.Username != nil && *in.Username != user.Username {
			username = *in.Username
			columns["username"] = username
		}
		if in.Email != nil && *in.Email != user.Email {
			email = *in.Email
			columns["email"] = email
		}
		if in.FullName != nil {
			columns["full_name"] = *in.FullName
		}
		if err := ensureFree(ctx, repo, username, email, user.ID); err != nil {
			return err
		}

		if err := repo.Update(ctx, user, columns); err != nil {
			return err
		}
		updated, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		if apperrors.IsDomain(err) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// ensureFree fails with ErrDuplicateIdentity when another active user holds
// username or email. Empty values are not checked.
func ensureFree(ctx context.Context, repo repository.UserRepository, username, email string, selfID uint) error {
	lookups := []struct {
		value string
		find  func(context.Context, string) (*model.User, error)
	}{
		{username, repo.FindByUsername},
		{email, repo.FindByEmail},
	}
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		existing, err := l.find(ctx, l.value)
		if err == nil && existing.ID != selfID {
			return apperrors.ErrDuplicateIdentity
		}
		if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
			return fmt.Errorf("check user existence: %w", err)
		}
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password longer than 72 bytes", apperrors.ErrValidation)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}
