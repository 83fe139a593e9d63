package permissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maritime-school/training-admin/internal/cache"
	"github.com/maritime-school/training-admin/internal/models"
)

const (
	cacheKey   = "permissions:maps"
	DefaultTTL = 5 * time.Minute
)

// RoleSource lists the roles the maps are built from.
type RoleSource interface {
	ListAll(ctx context.Context) ([]*models.Role, error)
}

// RoleSourceFunc adapts a function to RoleSource.
type RoleSourceFunc func(ctx context.Context) ([]*models.Role, error)

func (f RoleSourceFunc) ListAll(ctx context.Context) ([]*models.Role, error) {
	return f(ctx)
}

// Maps is the resolved permission state of every role.
type Maps struct {
	Permissions  Map   `json:"permissions"`
	UIComponents UIMap `json:"uiComponents"`
}

// Can is shorthand for the package-level Can over m.
func (m *Maps) Can(role, resource, action string) bool {
	return Can(role, resource, action, m.Permissions)
}

func (m *Maps) CanAccessUIComponent(role, component string) bool {
	return CanAccessUIComponent(role, component, m.UIComponents)
}

// Build derives Maps from role records.
func Build(roles []*models.Role) *Maps {
	maps := &Maps{
		Permissions:  make(Map, len(roles)),
		UIComponents: make(UIMap, len(roles)),
	}
	for _, r := range roles {
		list := r.PermissionList()
		perms := make([]Permission, 0, len(list))
		for _, p := range list {
			perms = append(perms, Permission(p))
		}
		maps.Permissions[r.Name] = perms
		maps.UIComponents[r.Name] = r.UIComponentList()
	}
	return maps
}

// Resolver builds Maps from the roles table and caches them until a role changes.
type Resolver struct {
	source RoleSource
	cache  cache.CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewResolver(source RoleSource, c cache.CacheService, ttl time.Duration, logger *slog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{source: source, cache: c, ttl: ttl, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context) (*Maps, error) {
	var maps Maps
	err := r.cache.Get(ctx, cacheKey, &maps)
	if err == nil {
		return &maps, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Permission cache unavailable, reading roles", "error", err)
	}

	roles, err := r.source.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	built := Build(roles)
	if err := r.cache.Set(ctx, cacheKey, built, r.ttl); err != nil {
		r.logger.Warn("Failed to cache permission maps", "error", err)
	}
	return built, nil
}

// Invalidate drops the cached maps. Call it after any role mutation.
func (r *Resolver) Invalidate(ctx context.Context) {
	if err := r.cache.Delete(ctx, cacheKey); err != nil {
		r.logger.Warn("Failed to invalidate permission maps", "error", err)
	}
}
