package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/urbancart/urbancart-backend/pkg/db"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
)

const (
	msgEmailTaken    = "A user with that email already exists."
	msgUsernameTaken = "A user with that username already exists."
)

// ErrEmailTaken and ErrUsernameTaken are the duplicate-identity errors shared
// by registration and profile edits.
var (
	ErrEmailTaken    = pkgerrors.New(pkgerrors.CodeConflict, msgEmailTaken)
	ErrUsernameTaken = pkgerrors.New(pkgerrors.CodeConflict, msgUsernameTaken)
)

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	EmailTaken(ctx context.Context, email string, exceptID uuid.UUID) (bool, error)
	UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error)
	ApplyPatch(ctx context.Context, id uuid.UUID, patch ProfilePatch) error
}

// Service reads and edits the caller's profile.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Edit(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*Profile, error)
	IsSuperuser(ctx context.Context, userID uuid.UUID) (bool, error)
}

type service struct {
	repo repository
}

func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("users repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) Edit(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*Profile, error) {
	if patch.Username != nil && strings.TrimSpace(*patch.Username) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username cannot be blank")
	}
	if patch.Email != nil && NormalizeEmail(*patch.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be blank")
	}
	if patch.Phone != nil && len(strings.TrimSpace(*patch.Phone)) > 15 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone must be at most 15 characters")
	}

	if err := CheckAvailable(ctx, s.repo, patch.Email, patch.Username, userID); err != nil {
		return nil, err
	}

	if err := s.repo.ApplyPatch(ctx, userID, patch); err != nil {
		if mapped := MapUniqueViolation(err); mapped != nil {
			return nil, mapped
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return s.Get(ctx, userID)
}

// IsSuperuser reads the flag from the stored account, so a demotion applies
// before the caller's access token expires. A deleted account is not one.
func (s *service) IsSuperuser(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user.IsSuperuser, nil
}

type availabilityChecker interface {
	EmailTaken(ctx context.Context, email string, exceptID uuid.UUID) (bool, error)
	UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error)
}

// CheckAvailable rejects an email or username already held by another user.
// Nil values are skipped.
func CheckAvailable(ctx context.Context, repo availabilityChecker, email, username *string, exceptID uuid.UUID) error {
	if email != nil {
		taken, err := repo.EmailTaken(ctx, *email, exceptID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		}
		if taken {
			return ErrEmailTaken
		}
	}
	if username != nil {
		taken, err := repo.UsernameTaken(ctx, *username, exceptID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
		}
		if taken {
			return ErrUsernameTaken
		}
	}
	return nil
}

// MapUniqueViolation turns a racing insert/update into the matching conflict.
func MapUniqueViolation(err error) error {
	if !db.IsUniqueViolation(err, "") {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "username") {
		return ErrUsernameTaken
	}
	return ErrEmailTaken
}
