package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ids"
	"github.com/aalvaropc/tether/internal/ports"
	"github.com/aalvaropc/tether/internal/validate"
)

// UserService manages the local user repository.
type UserService struct {
	repo  ports.Repository[domain.User]
	newID func() string
}

func NewUserService(repo ports.Repository[domain.User]) *UserService {
	return &UserService{repo: repo, newID: ids.UUID}
}

// NewUserInput is what `users add` collects.
type NewUserInput struct {
	Email       string
	Name        string
	Role        string
	Permissions []string
}

// Add validates in, rejects a duplicate email and saves a new user.
func (s *UserService) Add(ctx context.Context, in NewUserInput) (domain.User, error) {
	const op = "users.add"

	email := strings.TrimSpace(in.Email)
	if err := validate.All(
		validate.Email(email, "email"),
		validate.NotEmpty(in.Name, "name"),
		validate.Length(in.Name, "name", 1, 100),
	); err != nil {
		return domain.User{}, &domain.OpError{Op: op, Kind: domain.KindValidation, Err: err}
	}

	u := domain.NewUser(s.newID(), email, strings.TrimSpace(in.Name))
	if in.Role != "" {
		role, err := domain.ParseUserRole(in.Role)
		if err != nil {
			return domain.User{}, err
		}
		u = u.WithRole(role)
	}
	for _, raw := range in.Permissions {
		p, err := domain.ParsePermission(raw)
		if err != nil {
			return domain.User{}, err
		}
		u = u.WithPermission(p)
	}

	existing, err := s.repo.FindAll(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, e := range existing {
		if strings.EqualFold(e.Email, email) {
			return domain.User{}, &domain.OpError{Op: op, Kind: domain.KindAlreadyExists, Path: email, Err: fmt.Errorf("email already registered to %s", e.ID)}
		}
	}

	return s.repo.Save(ctx, u)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.FindAll(ctx)
}

// Show finds a user by ID or, failing that, by email.
func (s *UserService) Show(ctx context.Context, idOrEmail string) (domain.User, error) {
	u, ok, err := s.repo.FindByID(ctx, idOrEmail)
	if err != nil {
		return domain.User{}, err
	}
	if ok {
		return u, nil
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range all {
		if strings.EqualFold(u.Email, idOrEmail) {
			return u, nil
		}
	}
	return domain.User{}, &domain.OpError{Op: "users.show", Kind: domain.KindNotFound, Path: idOrEmail, Err: domain.ErrNotFound}
}

// Authorize returns the user when it holds p, directly or through its role.
// Disabled users hold nothing.
func (s *UserService) Authorize(ctx context.Context, idOrEmail string, p domain.Permission) (domain.User, error) {
	u, err := s.Show(ctx, idOrEmail)
	if err != nil {
		return domain.User{}, err
	}
	if !u.Enabled || !(u.HasPermission(p) || u.AllPermissions().Has(p)) {
		return domain.User{}, &domain.OpError{
			Op:   "users.authorize",
			Kind: domain.KindPermissionDenied,
			Path: u.ID,
			Err:  fmt.Errorf("user %s lacks %s", u.Email, p),
		}
	}
	return u, nil
}
