package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/maritime-school/training-admin/internal/datatable"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"github.com/maritime-school/training-admin/internal/tables"
	"gorm.io/gorm"
)

type roleService struct {
	deps        Dependencies
	log         *ServiceLogger
	audit       *recorder
	permissions PermissionInvalidator
}

// NewRoleService returns the role service. permissions may be nil when no
// permission maps are cached.
func NewRoleService(deps Dependencies, permissions PermissionInvalidator) RoleService {
	log := NewServiceLogger(deps.Logger, EntityRoles)
	return &roleService{deps: deps, log: log, audit: newRecorder(deps, log), permissions: permissions}
}

// ListAll also serves the permission resolver.
func (s *roleService) ListAll(ctx context.Context) ([]*models.Role, error) {
	roles, err := s.deps.Repo.Role().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	counts, err := s.deps.Repo.User().CountByRole(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count role users: %w", err)
	}
	for _, r := range roles {
		r.UserCount = counts[r.Name]
	}
	return roles, nil
}

func (s *roleService) List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.Role], error) {
	roles, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return listPage(tables.Roles(), roles, q)
}

func (s *roleService) Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error) {
	roles, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	file, err := exportView(tables.Roles(), roles, q, format, s.deps.now())
	if err != nil {
		return nil, err
	}
	s.audit.recordOnly(ctx, mutation{entity: EntityRoles, action: models.AuditExported, actor: actor}, "", map[string]interface{}{"format": format})
	return file, nil
}

func (s *roleService) GetByName(ctx context.Context, name string) (*models.Role, error) {
	role, err := s.deps.Repo.Role().GetByID(ctx, nil, name)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	counts, err := s.deps.Repo.User().CountByRole(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count role users: %w", err)
	}
	role.UserCount = counts[role.Name]
	return role, nil
}

func (s *roleService) Create(ctx context.Context, req *RoleRequest, actor Actor) (role *models.Role, err error) {
	cl := s.log.WithOperation(ctx, "create_role", actor.UserID)
	defer func() { cl.LogResult(req.Name, EntityRoles, err) }()

	req.Name = strings.ToLower(strings.TrimSpace(req.Name))
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}

	role = &models.Role{Name: req.Name}
	applyRole(role, req)
	_, err = s.audit.run(ctx, mutation{entity: EntityRoles, action: models.AuditCreated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if _, err := s.deps.Repo.Role().GetByID(ctx, tx, role.Name); err == nil {
			return mutationResult{}, ErrRoleExists
		} else if !repositories.IsNotFoundError(err) {
			return mutationResult{}, fmt.Errorf("failed to check role: %w", err)
		}
		if err := s.deps.Repo.Role().Create(ctx, tx, role); err != nil {
			if repositories.IsUniqueViolation(err) {
				return mutationResult{}, ErrRoleExists
			}
			return mutationResult{}, fmt.Errorf("failed to create role: %w", err)
		}
		return mutationResult{entityID: role.Name, changes: role}, nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return role, nil
}

// Update edits everything but the name, which is the role's key.
func (s *roleService) Update(ctx context.Context, name string, req *RoleRequest, actor Actor) (role *models.Role, err error) {
	cl := s.log.WithOperation(ctx, "update_role", actor.UserID)
	defer func() { cl.LogResult(name, EntityRoles, err) }()

	role, err = s.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if req.Name == "" {
		req.Name = name
	}
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(req.Name), name) {
		return nil, NewValidationError("name", "cannot be changed", "immutable", req.Name)
	}

	before := *role
	applyRole(role, req)
	_, err = s.audit.run(ctx, mutation{entity: EntityRoles, action: models.AuditUpdated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Role().Update(ctx, tx, role); err != nil {
			return mutationResult{}, fmt.Errorf("failed to update role: %w", err)
		}
		return mutationResult{entityID: name, changes: beforeAfter(before, role)}, nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return role, nil
}

func (s *roleService) Delete(ctx context.Context, name string, actor Actor) (err error) {
	cl := s.log.WithOperation(ctx, "delete_role", actor.UserID)
	defer func() { cl.LogResult(name, EntityRoles, err) }()

	role, err := s.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return ErrRoleIsSystem
	}

	_, err = s.audit.run(ctx, mutation{entity: EntityRoles, action: models.AuditDeleted, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		counts, err := s.deps.Repo.User().CountByRole(ctx, tx)
		if err != nil {
			return mutationResult{}, fmt.Errorf("failed to count role users: %w", err)
		}
		if counts[name] > 0 {
			return mutationResult{}, fmt.Errorf("%w: %d users", ErrRoleInUse, counts[name])
		}
		if err := s.deps.Repo.Role().Delete(ctx, tx, name); err != nil {
			if repositories.IsNotFoundError(err) {
				return mutationResult{}, ErrRoleNotFound
			}
			return mutationResult{}, fmt.Errorf("failed to delete role: %w", err)
		}
		return mutationResult{entityID: name, changes: role}, nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *roleService) EnsureDefaults(ctx context.Context) error {
	created := 0
	for _, def := range models.DefaultRoles {
		_, err := s.deps.Repo.Role().GetByID(ctx, nil, def.Name)
		if err == nil {
			continue
		}
		if !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to check role %s: %w", def.Name, err)
		}
		role := def
		if err := s.deps.Repo.Role().Create(ctx, nil, &role); err != nil {
			return fmt.Errorf("failed to create role %s: %w", def.Name, err)
		}
		created++
	}
	if created > 0 {
		s.log.Logger().InfoContext(ctx, "Created default roles", "count", created)
		s.invalidate(ctx)
	}
	return nil
}

func (s *roleService) invalidate(ctx context.Context) {
	if s.permissions != nil {
		s.permissions.Invalidate(ctx)
	}
}

func applyRole(role *models.Role, req *RoleRequest) {
	role.DisplayName = strings.TrimSpace(req.DisplayName)
	role.Description = req.Description
	role.Permissions = models.StringList(req.Permissions...)
	role.UIComponents = models.StringList(req.UIComponents...)
	role.Color = models.ColorGray
	if req.Color != "" {
		role.Color = models.RoleColor(req.Color)
	}
}
