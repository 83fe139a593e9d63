package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maritime-school/training-admin/internal/cache"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const sessionCacheTTL = 5 * time.Minute

// Principal is the caller behind a valid access token.
type Principal struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func sessionCacheKey(userID, sessionID string) string {
	return fmt.Sprintf("session:%s:%s", userID, sessionID)
}

// dropSessionCache forgets every cached session of userID.
func dropSessionCache(ctx context.Context, deps Dependencies, log *ServiceLogger, userID string) {
	if deps.Cache == nil {
		return
	}
	if err := deps.Cache.DeletePattern(ctx, sessionCacheKey(userID, "*")); err != nil {
		log.Logger().WarnContext(ctx, "Failed to drop cached sessions", "user_id", userID, "error", err)
	}
}

type authService struct {
	deps       Dependencies
	log        *ServiceLogger
	audit      *recorder
	tokens     *TokenService
	verifier   IdentityVerifier
	sessionTTL time.Duration
}

// NewAuthService returns the auth service. verifier is nil unless an external
// identity provider is configured.
func NewAuthService(deps Dependencies, tokens *TokenService, verifier IdentityVerifier, sessionTTL time.Duration) AuthService {
	log := NewServiceLogger(deps.Logger, EntityAuth)
	return &authService{
		deps:       deps,
		log:        log,
		audit:      newRecorder(deps, log),
		tokens:     tokens,
		verifier:   verifier,
		sessionTTL: sessionTTL,
	}
}

func (s *authService) Login(ctx context.Context, req *LoginRequest, client Actor) (*LoginResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}

	user, err := s.deps.Repo.User().GetByEmail(ctx, nil, req.Email)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		s.log.Security(ctx, SecurityEventFailedLogin, client, "Invalid email or password", "email", req.Email)
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, user, client, "password")
}

func (s *authService) LoginWithProvider(ctx context.Context, req *CasdoorCallbackRequest, client Actor) (*LoginResult, error) {
	if s.verifier == nil {
		return nil, ErrAuthProviderDisabled
	}
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}

	identity, err := s.verifier.Verify(ctx, req.Code, req.State)
	if err != nil {
		s.log.Security(ctx, SecurityEventFailedLogin, client, "Identity provider rejected the code", "error", err)
		return nil, err
	}

	user, err := s.deps.Repo.User().GetByEmail(ctx, nil, identity.Email)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if user, err = s.provision(ctx, identity); err != nil {
			return nil, err
		}
	}
	return s.issue(ctx, user, client, "casdoor")
}

// provision creates a local account for a first external login. Its password
// is random, so it can only sign in through the provider until reset.
func (s *authService) provision(ctx context.Context, identity *ExternalIdentity) (*models.User, error) {
	hash, err := hashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}
	name := identity.Name
	if name == "" {
		name = identity.Email
	}
	user := &models.User{
		ID:            uuid.NewString(),
		Email:         identity.Email,
		Name:          name,
		Password:      hash,
		Role:          models.DefaultRole,
		EmailVerified: true,
	}
	_, err = s.audit.run(ctx, mutation{entity: EntityUsers, action: models.AuditCreated, actor: Actor{UserID: user.ID}}, func(tx *gorm.DB) (mutationResult, error) {
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

func (s *authService) issue(ctx context.Context, user *models.User, client Actor, method string) (*LoginResult, error) {
	now := s.deps.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}

	token, err := s.tokens.Generate(user.ID, user.Email, user.Role, session.ID, now, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	actor := Actor{UserID: user.ID, Role: user.Role, IPAddress: client.IPAddress, UserAgent: client.UserAgent}
	_, err = s.audit.run(ctx, mutation{entity: EntityAuth, action: models.AuditLogin, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.AuthSession().Create(ctx, tx, session); err != nil {
			return mutationResult{}, fmt.Errorf("failed to create session: %w", err)
		}
		return mutationResult{entityID: user.ID, changes: map[string]interface{}{"method": method, "ipAddress": client.IPAddress}}, nil
	})
	if err != nil {
		return nil, err
	}

	user.HasActiveSession = true
	return &LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

func (s *authService) Logout(ctx context.Context, principal *Principal) error {
	actor := Actor{UserID: principal.UserID, Role: principal.Role}
	_, err := s.audit.run(ctx, mutation{entity: EntityAuth, action: models.AuditLogout, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.AuthSession().Delete(ctx, tx, principal.SessionID); err != nil {
			return mutationResult{}, fmt.Errorf("failed to delete session: %w", err)
		}
		return mutationResult{entityID: principal.UserID}, nil
	})
	if err != nil {
		return err
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Delete(ctx, sessionCacheKey(principal.UserID, principal.SessionID)); err != nil {
			s.log.Logger().WarnContext(ctx, "Failed to drop cached session", "user_id", principal.UserID, "error", err)
		}
	}
	return nil
}

// Authenticate checks the token signature and that its session is still open.
// The role comes from the user record, not the token, so role changes apply
// without signing in again.
func (s *authService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		s.log.Security(ctx, SecurityEventInvalidToken, Actor{}, "Token rejected", "error", err)
		if errors.Is(err, ErrInvalidToken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	now := s.deps.now()
	key := sessionCacheKey(claims.UserID, claims.ID)
	if s.deps.Cache != nil {
		var cached Principal
		err := s.deps.Cache.Get(ctx, key, &cached)
		if err == nil && now.Before(cached.ExpiresAt) {
			return &cached, nil
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Logger().WarnContext(ctx, "Session cache unavailable", "error", err)
		}
	}

	session, err := s.deps.Repo.AuthSession().GetByID(ctx, nil, claims.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}
	if session.IsExpired(now) {
		return nil, ErrSessionExpired
	}

	user, err := s.deps.Repo.User().GetByID(ctx, nil, session.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	principal := &Principal{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}
	if s.deps.Cache != nil {
		ttl := min(sessionCacheTTL, session.ExpiresAt.Sub(now))
		if err := s.deps.Cache.Set(ctx, key, principal, ttl); err != nil {
			s.log.Logger().WarnContext(ctx, "Failed to cache session", "error", err)
		}
	}
	return principal, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.deps.Repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.HasActiveSession = true
	return user, nil
}

// PurgeExpiredSessions deletes sessions past their expiry. Cached entries
// expire with their session.
func (s *authService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.deps.Repo.AuthSession().DeleteExpired(ctx, nil, s.deps.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	if n > 0 {
		s.log.Logger().InfoContext(ctx, "Purged expired sessions", "count", n)
	}
	return n, nil
}
