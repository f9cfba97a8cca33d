package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/repository"
)

type RoleService interface {
	List(ctx context.Context) ([]*domain.Role, error)
	Get(ctx context.Context, id int64) (*domain.Role, error)
	Create(ctx context.Context, in *domain.RoleInput) (*domain.Role, error)
	Update(ctx context.Context, id int64, in *domain.RoleInput) (*domain.Role, error)
	Delete(ctx context.Context, id int64) error
	Grid(ctx context.Context) (*domain.PermissionGrid, error)
	// SavePermissions persists exactly the given permission list per role.
	SavePermissions(ctx context.Context, items []domain.RolePermissions) error
	SaveGrid(ctx context.Context, grid *domain.PermissionGrid) error
}

type roleService struct {
	roles repository.RoleRepository
}

func NewRoleService(roles repository.RoleRepository) RoleService {
	return &roleService{roles: roles}
}

func (s *roleService) List(ctx context.Context) ([]*domain.Role, error) {
	return s.roles.List(ctx)
}

func (s *roleService) Get(ctx context.Context, id int64) (*domain.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	if role == nil {
		return nil, domain.ErrNotFound
	}
	return role, nil
}

func normalizeRole(in *domain.RoleInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return domain.Invalid("title is required")
	}
	perms, err := domain.NormalizePermissions(in.Permissions)
	if err != nil {
		return err
	}
	in.Permissions = perms
	return nil
}

func (s *roleService) Create(ctx context.Context, in *domain.RoleInput) (*domain.Role, error) {
	if err := normalizeRole(in); err != nil {
		return nil, err
	}
	return s.roles.Create(ctx, in)
}

func (s *roleService) Update(ctx context.Context, id int64, in *domain.RoleInput) (*domain.Role, error) {
	if err := normalizeRole(in); err != nil {
		return nil, err
	}
	role, err := s.roles.Update(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if role == nil {
		return nil, domain.ErrNotFound
	}
	return role, nil
}

func (s *roleService) Delete(ctx context.Context, id int64) error {
	return s.roles.SoftDelete(ctx, id)
}

func (s *roleService) Grid(ctx context.Context) (*domain.PermissionGrid, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return domain.BuildGrid(roles), nil
}

func (s *roleService) SavePermissions(ctx context.Context, items []domain.RolePermissions) error {
	if len(items) == 0 {
		return domain.Invalid("no roles given")
	}
	seen := make(map[int64]bool, len(items))
	clean := make([]domain.RolePermissions, 0, len(items))
	for _, it := range items {
		if it.ID <= 0 {
			return domain.Invalid("role id is required")
		}
		if seen[it.ID] {
			return domain.Invalid("role %d listed twice", it.ID)
		}
		seen[it.ID] = true

		perms, err := domain.NormalizePermissions(it.Permissions)
		if err != nil {
			return err
		}
		clean = append(clean, domain.RolePermissions{ID: it.ID, Permissions: perms})
	}
	return s.roles.SetPermissions(ctx, clean)
}

func (s *roleService) SaveGrid(ctx context.Context, grid *domain.PermissionGrid) error {
	items, err := grid.Flatten()
	if err != nil {
		return err
	}
	return s.SavePermissions(ctx, items)
}
