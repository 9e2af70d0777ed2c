package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oelhadidy/agrovet-backend/pkg/auth"
	"github.com/oelhadidy/agrovet-backend/pkg/config"
	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
	"github.com/oelhadidy/agrovet-backend/pkg/security"
)

// RegisterInput carries sign-up fields.
type RegisterInput struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
}

// LoginInput carries sign-in fields.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is the issued token plus the account it belongs to.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Service exposes account registration, login, and profile reads.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, name string, phone *string) (*models.User, error)
}

// ServiceParams groups dependencies for the users service.
type ServiceParams struct {
	Repo     *Repository
	JWT      config.JWTConfig
	Password config.PasswordConfig
	Logger   *logger.Logger
}

type service struct {
	repo        *Repository
	jwtConfig   config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService validates dependencies and builds the service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users logger required")
	}
	if params.JWT.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "jwt secret required")
	}
	return &service{
		repo:        params.Repo,
		jwtConfig:   params.JWT,
		passwordCfg: params.Password,
		logg:        params.Logger,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Phone:        input.Phone,
		Role:         enums.UserRoleCustomer,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user registered")
	return s.issueToken(user)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		// A missing account and a wrong password answer the same way.
		if pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	return s.issueToken(user)
}

func (s *service) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, name string, phone *string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := s.repo.UpdateProfile(ctx, userID, name, phone); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *service) issueToken(user *models.User) (*AuthResult, error) {
	token, err := auth.MintAccessToken(s.jwtConfig, time.Now().UTC(), auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
