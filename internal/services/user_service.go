package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/maritime-school/training-admin/internal/datatable"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"github.com/maritime-school/training-admin/internal/tables"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// passwordCost is lowered by tests.
var passwordCost = bcrypt.DefaultCost

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

type userService struct {
	deps  Dependencies
	log   *ServiceLogger
	audit *recorder
}

func NewUserService(deps Dependencies) UserService {
	log := NewServiceLogger(deps.Logger, EntityUsers)
	return &userService{deps: deps, log: log, audit: newRecorder(deps, log)}
}

func (s *userService) load(ctx context.Context) ([]*models.User, error) {
	users, err := s.deps.Repo.User().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	active, err := s.deps.Repo.AuthSession().ActiveUserIDs(ctx, nil, s.deps.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	for _, u := range users {
		u.HasActiveSession = active[u.ID]
	}
	return users, nil
}

func (s *userService) List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.User], error) {
	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return listPage(tables.Users(), users, q)
}

func (s *userService) Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error) {
	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	file, err := exportView(tables.Users(), users, q, format, s.deps.now())
	if err != nil {
		return nil, err
	}
	s.audit.recordOnly(ctx, mutation{entity: EntityUsers, action: models.AuditExported, actor: actor}, "", map[string]interface{}{"format": format})
	return file, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.get(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	active, err := s.deps.Repo.AuthSession().ActiveUserIDs(ctx, nil, s.deps.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	user.HasActiveSession = active[user.ID]
	return user, nil
}

func (s *userService) get(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	user, err := s.deps.Repo.User().GetByID(ctx, tx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, req *CreateUserRequest, actor Actor) (user *models.User, err error) {
	cl := s.log.WithOperation(ctx, "create_user", actor.UserID)
	defer func() {
		id := ""
		if user != nil {
			id = user.ID
		}
		cl.LogResult(id, EntityUsers, err)
	}()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.DefaultRole
	}
	if err := s.requireRole(ctx, nil, role); err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		ID:       uuid.NewString(),
		Email:    req.Email,
		Name:     strings.TrimSpace(req.Name),
		Password: hash,
		Role:     role,
	}
	_, err = s.audit.run(ctx, mutation{entity: EntityUsers, action: models.AuditCreated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.checkEmail(ctx, tx, user.Email, ""); err != nil {
			return mutationResult{}, err
		}
		if err := s.deps.Repo.User().Create(ctx, tx, user); err != nil {
			if repositories.IsUniqueViolation(err) {
				return mutationResult{}, ErrEmailTaken
			}
			return mutationResult{}, fmt.Errorf("failed to create user: %w", err)
		}
		return mutationResult{entityID: user.ID, changes: user}, nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id string, req *UpdateUserRequest, actor Actor) (user *models.User, err error) {
	cl := s.log.WithOperation(ctx, "update_user", actor.UserID)
	defer func() { cl.LogResult(id, EntityUsers, err) }()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}

	_, err = s.audit.run(ctx, mutation{entity: EntityUsers, action: models.AuditUpdated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		current, err := s.get(ctx, tx, id)
		if err != nil {
			return mutationResult{}, err
		}
		if err := s.checkEmail(ctx, tx, req.Email, id); err != nil {
			return mutationResult{}, err
		}
		before := *current
		current.Email = req.Email
		current.Name = strings.TrimSpace(req.Name)
		current.EmailVerified = req.EmailVerified
		if err := s.deps.Repo.User().Update(ctx, tx, current); err != nil {
			if repositories.IsUniqueViolation(err) {
				return mutationResult{}, ErrEmailTaken
			}
			return mutationResult{}, fmt.Errorf("failed to update user: %w", err)
		}
		return mutationResult{entityID: id, changes: beforeAfter(before, current)}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *userService) Delete(ctx context.Context, id string, actor Actor) (err error) {
	cl := s.log.WithOperation(ctx, "delete_user", actor.UserID)
	defer func() { cl.LogResult(id, EntityUsers, err) }()

	if id == actor.UserID {
		return NewBusinessRuleError("self_delete", "users cannot delete their own account", map[string]interface{}{"userId": id})
	}

	_, err = s.audit.run(ctx, mutation{entity: EntityUsers, action: models.AuditDeleted, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		user, err := s.get(ctx, tx, id)
		if err != nil {
			return mutationResult{}, err
		}
		if _, err := s.deps.Repo.AuthSession().DeleteByUser(ctx, tx, id); err != nil {
			return mutationResult{}, fmt.Errorf("failed to delete user sessions: %w", err)
		}
		if err := s.deps.Repo.User().Delete(ctx, tx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return mutationResult{}, ErrUserNotFound
			}
			return mutationResult{}, fmt.Errorf("failed to delete user: %w", err)
		}
		return mutationResult{entityID: id, changes: user}, nil
	})
	if err != nil {
		return err
	}
	dropSessionCache(ctx, s.deps, s.log, id)
	return nil
}

// KillSessions signs the user out everywhere and returns how many sessions ended.
func (s *userService) KillSessions(ctx context.Context, userID string, actor Actor) (killed int64, err error) {
	cl := s.log.WithOperation(ctx, "kill_sessions", actor.UserID)
	defer func() { cl.LogResult(userID, EntityUsers, err) }()

	_, err = s.audit.run(ctx, mutation{entity: EntityUsers, action: models.AuditSessionKill, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if _, err := s.get(ctx, tx, userID); err != nil {
			return mutationResult{}, err
		}
		n, err := s.deps.Repo.AuthSession().DeleteByUser(ctx, tx, userID)
		if err != nil {
			return mutationResult{}, fmt.Errorf("failed to delete user sessions: %w", err)
		}
		killed = n
		return mutationResult{entityID: userID, changes: map[string]interface{}{"sessions": n}}, nil
	})
	if err != nil {
		return 0, err
	}

	dropSessionCache(ctx, s.deps, s.log, userID)
	s.log.Security(ctx, SecurityEventSessionKill, actor, "Sessions killed by administrator", "user_id", userID, "sessions", killed)
	return killed, nil
}

func (s *userService) AssignRole(ctx context.Context, userID string, role string, actor Actor) (user *models.User, err error) {
	cl := s.log.WithOperation(ctx, "assign_role", actor.UserID)
	defer func() { cl.LogResult(userID, EntityUsers, err) }()

	if err := s.deps.validate(&AssignRoleRequest{Role: role}); err != nil {
		return nil, err
	}

	var previous string
	_, err = s.audit.run(ctx, mutation{entity: EntityUsers, action: models.AuditRoleAssigned, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		current, err := s.get(ctx, tx, userID)
		if err != nil {
			return mutationResult{}, err
		}
		if err := s.requireRole(ctx, tx, role); err != nil {
			return mutationResult{}, err
		}
		previous = current.Role
		if err := s.deps.Repo.User().UpdateRole(ctx, tx, userID, role); err != nil {
			if repositories.IsNotFoundError(err) {
				return mutationResult{}, ErrUserNotFound
			}
			return mutationResult{}, fmt.Errorf("failed to update user role: %w", err)
		}
		return mutationResult{entityID: userID, changes: beforeAfter(previous, role)}, nil
	})
	if err != nil {
		return nil, err
	}

	// Cached sessions carry the old role.
	dropSessionCache(ctx, s.deps, s.log, userID)
	s.log.Security(ctx, SecurityEventRoleChange, actor, "Role changed", "user_id", userID, "from", previous, "to", role)
	return s.GetByID(ctx, userID)
}

func (s *userService) ResetRole(ctx context.Context, userID string, actor Actor) (*models.User, error) {
	return s.AssignRole(ctx, userID, models.DefaultRole, actor)
}

func (s *userService) ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest, actor Actor) (err error) {
	cl := s.log.WithOperation(ctx, "change_password", actor.UserID)
	defer func() { cl.LogResult(userID, EntityUsers, err) }()

	if err := s.deps.validate(req); err != nil {
		return err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}

	_, err = s.audit.run(ctx, mutation{entity: EntityUsers, action: models.AuditUpdated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.User().UpdatePassword(ctx, tx, userID, hash); err != nil {
			if repositories.IsNotFoundError(err) {
				return mutationResult{}, ErrUserNotFound
			}
			return mutationResult{}, fmt.Errorf("failed to update password: %w", err)
		}
		return mutationResult{entityID: userID, changes: map[string]interface{}{"password": "changed"}}, nil
	})
	return err
}

func (s *userService) checkEmail(ctx context.Context, tx *gorm.DB, email, excludeID string) error {
	exists, err := s.deps.Repo.User().ExistsByEmail(ctx, tx, email, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return ErrEmailTaken
	}
	return nil
}

func (s *userService) requireRole(ctx context.Context, tx *gorm.DB, role string) error {
	if _, err := s.deps.Repo.Role().GetByID(ctx, tx, role); err != nil {
		if repositories.IsNotFoundError(err) {
			return fmt.Errorf("%w: %s", ErrInvalidRole, role)
		}
		return fmt.Errorf("failed to get role: %w", err)
	}
	return nil
}
