package service

import (
	"context"

	"github.com/hourstack-io/hourstack/internal/config"
	"github.com/hourstack-io/hourstack/internal/modules/model"
	"github.com/hourstack-io/hourstack/internal/modules/repo"
	"github.com/hourstack-io/hourstack/internal/scope"
)

type UserService interface {
	// GetOrCreate resolves the profile for an authenticated identity,
	// creating a member profile on first sign-in.
	GetOrCreate(ctx context.Context, ident scope.Identity) (*model.UserProfile, error)
	Get(ctx context.Context, id string) (*model.UserProfile, error)
	List(ctx context.Context) ([]model.UserProfile, error)
	UpdateRole(ctx context.Context, userID, role string) error
	// UpdateRate sets the hourly rate, or clears it when rate is nil.
	UpdateRate(ctx context.Context, userID string, rate *float64) error
}

type userService struct {
	r   repo.UserRepo
	cfg *config.Config
}

func NewUserService(r repo.UserRepo, cfg *config.Config) UserService {
	return &userService{r: r, cfg: cfg}
}

func (s *userService) GetOrCreate(ctx context.Context, ident scope.Identity) (*model.UserProfile, error) {
	if ident.ID == "" {
		return nil, invalidf("identity is required")
	}
	return s.r.GetOrCreate(ctx, ident.ID, ident.Email)
}

func (s *userService) Get(ctx context.Context, id string) (*model.UserProfile, error) {
	if id == "" {
		return nil, invalidf("user id is empty")
	}
	return s.r.Get(ctx, id)
}

func (s *userService) List(ctx context.Context) ([]model.UserProfile, error) {
	return s.r.List(ctx)
}

func (s *userService) UpdateRole(ctx context.Context, userID, role string) error {
	if userID == "" {
		return invalidf("user id is empty")
	}
	if role != model.RoleAdmin && role != model.RoleMember {
		return invalidf("role must be admin or member")
	}
	return awaitWrite(ctx, s.cfg.WriteTimeout(), func(ctx context.Context) error {
		return s.r.SetRole(ctx, userID, role)
	})
}

func (s *userService) UpdateRate(ctx context.Context, userID string, rate *float64) error {
	if userID == "" {
		return invalidf("user id is empty")
	}
	if rate != nil && *rate < 0 {
		return invalidf("hourly rate must not be negative")
	}
	return awaitWrite(ctx, s.cfg.WriteTimeout(), func(ctx context.Context) error {
		return s.r.SetHourlyRate(ctx, userID, rate)
	})
}
