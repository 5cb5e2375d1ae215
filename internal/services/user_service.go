package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"mobileplanet/internal/apperr"
	"mobileplanet/internal/auth"
	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
	"mobileplanet/internal/repos"
)

type UserService struct {
	Users  *repos.UserRepo
	Prods  *repos.ProductRepo
	Tokens *auth.TokenService
}

func NewUserService(users *repos.UserRepo, prods *repos.ProductRepo, tokens *auth.TokenService) *UserService {
	return &UserService{Users: users, Prods: prods, Tokens: tokens}
}

type RegisterInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=buyer seller"`
	Image string `json:"image" validate:"omitempty,max=2048"`
}

// IssueToken signs a token for a registered email. Unknown emails get apperr.Forbidden.
func (s *UserService) IssueToken(ctx context.Context, email string) (string, error) {
	if _, err := s.Users.ByEmail(ctx, email); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", apperr.Forbidden
		}
		return "", storeErr(err, "lookup user")
	}
	tok, err := s.Tokens.Issue(email)
	if err != nil {
		return "", apperr.UpstreamFailure.Wrap(errors.Wrap(err, "sign token"))
	}
	return tok, nil
}

// Register creates a buyer or seller. An existing email returns the stored user and created=false.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	role := in.Role
	if role == "" {
		role = domain.RoleBuyer
	}
	if role == domain.RoleAdmin {
		return nil, false, apperr.InvalidInput.With("role must be buyer or seller")
	}

	if u, err := s.Users.ByEmail(ctx, email); err == nil {
		return u, false, nil
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return nil, false, storeErr(err, "lookup user")
	}

	u := &domain.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Role:      role,
		Image:     in.Image,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			// lost a registration race; the winner's record stands
			existing, gerr := s.Users.ByEmail(ctx, email)
			if gerr != nil {
				return nil, false, storeErr(gerr, "lookup user")
			}
			return existing, false, nil
		}
		return nil, false, storeErr(err, "create user")
	}
	return u, true, nil
}

// ByEmail returns apperr.NotFound when nobody is registered under email.
func (s *UserService) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, storeErr(err, "lookup user")
	}
	return u, nil
}

// HasRole reports whether email belongs to a user with role. Unknown users have no role.
func (s *UserService) HasRole(ctx context.Context, email, role string) (bool, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeErr(err, "lookup user")
	}
	return u.Role == role, nil
}

func (s *UserService) List(ctx context.Context, role string) ([]domain.User, error) {
	out, err := s.Users.ListNonAdmin(ctx, role)
	return out, storeErr(err, "list users")
}

// ToggleVerified flips the user's verified flag and copies it onto every product they sell.
func (s *UserService) ToggleVerified(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "get user")
	}
	n, err := s.Users.SetVerified(ctx, id, u.Verified)
	if err != nil {
		return nil, storeErr(err, "update user")
	}
	if n == 0 {
		return nil, apperr.Conflict.With("user was modified concurrently, retry")
	}
	u.Verified = !u.Verified
	if _, err := s.Prods.SetVerifiedSeller(ctx, u.Email, u.Verified); err != nil {
		return nil, storeErr(err, "propagate verified seller")
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	n, err := s.Users.Delete(ctx, id)
	if err != nil {
		return storeErr(err, "delete user")
	}
	if n == 0 {
		return apperr.NotFound
	}
	return nil
}
