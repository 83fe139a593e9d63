package services

import (
	"context"
	"fmt"

	"github.com/maritime-school/training-admin/internal/datatable"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"github.com/maritime-school/training-admin/internal/tables"
	"gorm.io/gorm"
)

type sessionFormationService struct {
	deps  Dependencies
	log   *ServiceLogger
	audit *recorder
}

func NewSessionFormationService(deps Dependencies) SessionFormationService {
	return newSessionFormationService(deps)
}

func newSessionFormationService(deps Dependencies) *sessionFormationService {
	log := NewServiceLogger(deps.Logger, EntitySessions)
	return &sessionFormationService{deps: deps, log: log, audit: newRecorder(deps, log)}
}

// decorate fills the derived display status and enrolled count.
func (s *sessionFormationService) decorate(ctx context.Context, sessions []*models.SessionFormation) error {
	counts, err := s.deps.Repo.SessionFormation().EnrolledCounts(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to count enrolled agents: %w", err)
	}
	now := s.deps.now()
	for _, session := range sessions {
		session.DisplayStatus = session.StatusAt(now)
		session.EnrolledCount = counts[session.ID]
	}
	return nil
}

func (s *sessionFormationService) load(ctx context.Context) ([]*models.SessionFormation, error) {
	rows, err := s.deps.Repo.SessionFormation().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if err := s.decorate(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *sessionFormationService) List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.SessionFormation], error) {
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return listPage(tables.Sessions(), rows, q)
}

func (s *sessionFormationService) Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error) {
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	file, err := exportView(tables.Sessions(), rows, q, format, s.deps.now())
	if err != nil {
		return nil, err
	}
	s.audit.recordOnly(ctx, mutation{entity: EntitySessions, action: models.AuditExported, actor: actor}, "", map[string]interface{}{"format": format})
	return file, nil
}

func (s *sessionFormationService) get(ctx context.Context, tx *gorm.DB, id uint) (*models.SessionFormation, error) {
	session, err := s.deps.Repo.SessionFormation().GetByID(ctx, tx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTrainingSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (s *sessionFormationService) GetByID(ctx context.Context, id uint) (*models.SessionFormation, error) {
	session, err := s.get(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.deps.Repo.AgentFormation().CountBySession(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count enrolled agents: %w", err)
	}
	session.EnrolledCount = enrolled
	session.DisplayStatus = session.StatusAt(s.deps.now())
	return session, nil
}

func (s *sessionFormationService) Create(ctx context.Context, req *SessionFormationRequest, actor Actor) (session *models.SessionFormation, err error) {
	cl := s.log.WithOperation(ctx, "create_session", actor.UserID)
	defer func() {
		id := ""
		if session != nil {
			id = idString(session.ID)
		}
		cl.LogResult(id, EntitySessions, err)
	}()

	if err := s.deps.validate(req); err != nil {
		return nil, err
	}
	if _, err := requireFormation(ctx, s.deps.Repo, req.FormationID); err != nil {
		return nil, err
	}

	created := &models.SessionFormation{}
	s.apply(created, req)
	_, err = s.audit.run(ctx, mutation{entity: EntitySessions, action: models.AuditCreated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.SessionFormation().Create(ctx, tx, created); err != nil {
			return mutationResult{}, fmt.Errorf("failed to create session: %w", err)
		}
		return mutationResult{entityID: idString(created.ID), changes: created}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, created.ID)
}

func (s *sessionFormationService) Update(ctx context.Context, id uint, req *SessionFormationRequest, actor Actor) (session *models.SessionFormation, err error) {
	cl := s.log.WithOperation(ctx, "update_session", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntitySessions, err) }()

	session, err = s.get(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}
	if req.FormationID != session.FormationID {
		if _, err := requireFormation(ctx, s.deps.Repo, req.FormationID); err != nil {
			return nil, err
		}
	}

	before := *session
	s.apply(session, req)
	session.Formation = nil
	_, err = s.audit.run(ctx, mutation{entity: EntitySessions, action: models.AuditUpdated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		enrolled, err := s.deps.Repo.AgentFormation().CountBySession(ctx, tx, id)
		if err != nil {
			return mutationResult{}, fmt.Errorf("failed to count enrolled agents: %w", err)
		}
		if int64(session.NombreParticipants) < enrolled {
			return mutationResult{}, NewBusinessRuleError("capacity_below_enrolled",
				"nombreParticipants cannot be lower than the number of enrolled agents",
				map[string]interface{}{"enrolled": enrolled, "capacity": session.NombreParticipants})
		}
		if err := s.deps.Repo.SessionFormation().Update(ctx, tx, session); err != nil {
			return mutationResult{}, fmt.Errorf("failed to update session: %w", err)
		}
		if session.FormationID != before.FormationID || !session.DateDebut.Equal(before.DateDebut) || !session.DateFin.Equal(before.DateFin) {
			if _, err := s.deps.Repo.AgentFormation().AlignWithSession(ctx, tx, session); err != nil {
				return mutationResult{}, fmt.Errorf("failed to align session enrollments: %w", err)
			}
		}
		return mutationResult{entityID: idString(id), changes: beforeAfter(before, session)}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete removes the session and keeps its enrollments, detached from it.
func (s *sessionFormationService) Delete(ctx context.Context, id uint, actor Actor) (err error) {
	cl := s.log.WithOperation(ctx, "delete_session", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntitySessions, err) }()

	session, err := s.get(ctx, nil, id)
	if err != nil {
		return err
	}

	_, err = s.audit.run(ctx, mutation{entity: EntitySessions, action: models.AuditDeleted, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.AgentFormation().DetachSession(ctx, tx, id); err != nil {
			return mutationResult{}, fmt.Errorf("failed to detach session enrollments: %w", err)
		}
		if err := s.deps.Repo.SessionFormation().Delete(ctx, tx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return mutationResult{}, ErrTrainingSessionNotFound
			}
			return mutationResult{}, fmt.Errorf("failed to delete session: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: session}, nil
	})
	return err
}

func (s *sessionFormationService) SyncStatuses(ctx context.Context) (int, error) {
	sessions, err := s.deps.Repo.SessionFormation().ListAll(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	now := s.deps.now()
	changed := 0
	for _, session := range sessions {
		status := session.StatusAt(now)
		if status == session.Statut {
			continue
		}
		if err := s.deps.Repo.SessionFormation().UpdateStatut(ctx, nil, session.ID, status); err != nil {
			return changed, fmt.Errorf("failed to update session %d status: %w", session.ID, err)
		}
		changed++
	}

	if changed > 0 {
		s.log.Logger().InfoContext(ctx, "Session statuses synchronised", "changed", changed)
	}
	return changed, nil
}

func (s *sessionFormationService) apply(session *models.SessionFormation, req *SessionFormationRequest) {
	session.FormationID = req.FormationID
	session.DateDebut = req.DateDebut.Time
	session.DateFin = req.DateFin.Time
	session.NombreParticipants = req.NombreParticipants
	session.Reference = req.Reference
	session.Color = req.Color
	session.Statut = req.Statut
	if session.Statut == "" {
		session.Statut = session.StatusAt(s.deps.now())
	}
}
