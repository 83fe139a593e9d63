package services

import (
	"context"
	"fmt"

	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"github.com/maritime-school/training-admin/internal/utils"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const candidateLimit = 10

type sessionAgentService struct {
	deps     Dependencies
	log      *ServiceLogger
	audit    *recorder
	sessions *sessionFormationService
}

func NewSessionAgentService(deps Dependencies) SessionAgentService {
	log := NewServiceLogger(deps.Logger, EntitySessionAgents)
	return &sessionAgentService{
		deps:     deps,
		log:      log,
		audit:    newRecorder(deps, log),
		sessions: newSessionFormationService(deps),
	}
}

func (s *sessionAgentService) Roster(ctx context.Context, sessionID uint) (*models.SessionRoster, error) {
	var (
		session *models.SessionFormation
		rows    []*models.AgentFormation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		session, err = s.sessions.get(gctx, nil, sessionID)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.deps.Repo.AgentFormation().List(gctx, nil, repositories.AgentFormationFilters{SessionFormationID: &sessionID})
		if err != nil {
			return fmt.Errorf("failed to list session agents: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	session.DisplayStatus = session.StatusAt(s.deps.now())
	session.EnrolledCount = int64(len(rows))
	if rows == nil {
		rows = []*models.AgentFormation{}
	}
	return &models.SessionRoster{
		Session:   session,
		Agents:    rows,
		Capacity:  session.NombreParticipants,
		Remaining: max(session.NombreParticipants-len(rows), 0),
	}, nil
}

// Candidates lists agents matching a matricule prefix that are not yet in the session.
func (s *sessionAgentService) Candidates(ctx context.Context, sessionID uint, matriculePrefix string) ([]*models.Agent, error) {
	if _, err := s.sessions.get(ctx, nil, sessionID); err != nil {
		return nil, err
	}
	rows, err := s.deps.Repo.AgentFormation().List(ctx, nil, repositories.AgentFormationFilters{SessionFormationID: &sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to list session agents: %w", err)
	}
	exclude := make([]uint, 0, len(rows))
	for _, row := range rows {
		exclude = append(exclude, row.AgentID)
	}

	agents, err := s.deps.Repo.Agent().Search(ctx, nil, repositories.AgentSearch{
		MatriculePrefix: utils.MaskMatricule(matriculePrefix),
		ExcludeIDs:      exclude,
		Limit:           candidateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search agents: %w", err)
	}
	return agents, nil
}

func (s *sessionAgentService) Add(ctx context.Context, req *models.AddSessionAgentRequest, actor Actor) (row *models.AgentFormation, err error) {
	cl := s.log.WithOperation(ctx, "add_session_agent", actor.UserID)
	defer func() {
		id := ""
		if row != nil {
			id = idString(row.ID)
		}
		cl.LogResult(id, EntitySessionAgents, err)
	}()

	req.Matricule = utils.MaskMatricule(req.Matricule)
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}
	agent, err := s.resolveAgent(ctx, req)
	if err != nil {
		return nil, err
	}

	created := &models.AgentFormation{AgentID: agent.ID}
	_, err = s.audit.run(ctx, mutation{entity: EntitySessionAgents, action: models.AuditCreated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		session, err := s.sessions.get(ctx, tx, req.SessionID)
		if err != nil {
			return mutationResult{}, err
		}

		enrolled, err := s.deps.Repo.AgentFormation().CountBySession(ctx, tx, session.ID)
		if err != nil {
			return mutationResult{}, fmt.Errorf("failed to count enrolled agents: %w", err)
		}
		if enrolled >= int64(session.NombreParticipants) {
			return mutationResult{}, fmt.Errorf("%w: capacity %d", ErrSessionFull, session.NombreParticipants)
		}
		if err := s.ensureNotEnrolled(ctx, tx, session.ID, agent.ID, 0); err != nil {
			return mutationResult{}, err
		}

		sessionID := session.ID
		created.FormationID = session.FormationID
		created.SessionFormationID = &sessionID
		created.DateDebut = session.DateDebut
		created.DateFin = session.DateFin
		created.Reference = optional(session.Reference)
		if err := s.deps.Repo.AgentFormation().Create(ctx, tx, created); err != nil {
			return mutationResult{}, fmt.Errorf("failed to add session agent: %w", err)
		}
		return mutationResult{entityID: idString(created.ID), changes: created}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, nil, created.ID)
}

// Update replaces the agent of a row and sets its outcome in one write.
func (s *sessionAgentService) Update(ctx context.Context, id uint, req *models.UpdateSessionAgentRequest, actor Actor) (row *models.AgentFormation, err error) {
	cl := s.log.WithOperation(ctx, "update_session_agent", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntitySessionAgents, err) }()

	if err := s.deps.validate(req); err != nil {
		return nil, err
	}

	_, err = s.audit.run(ctx, mutation{entity: EntitySessionAgents, action: models.AuditUpdated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		current, err := s.get(ctx, tx, id)
		if err != nil {
			return mutationResult{}, err
		}
		before := *current
		current.Agent, current.Formation = nil, nil

		if req.AgentID != nil && *req.AgentID != current.AgentID {
			if _, err := s.deps.Repo.Agent().GetByID(ctx, tx, *req.AgentID); err != nil {
				if repositories.IsNotFoundError(err) {
					return mutationResult{}, ErrAgentNotFound
				}
				return mutationResult{}, fmt.Errorf("failed to get agent: %w", err)
			}
			if err := s.ensureNotEnrolled(ctx, tx, *current.SessionFormationID, *req.AgentID, id); err != nil {
				return mutationResult{}, err
			}
			current.AgentID = *req.AgentID
		}
		if req.Resultat != nil {
			current.Resultat = req.Resultat
		}
		if req.Moyenne != nil {
			current.Moyenne = req.Moyenne
		}

		if err := s.deps.Repo.AgentFormation().Update(ctx, tx, current); err != nil {
			return mutationResult{}, fmt.Errorf("failed to update session agent: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: beforeAfter(before, current)}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, nil, id)
}

// Confirm marks a participant with the default outcome.
func (s *sessionAgentService) Confirm(ctx context.Context, id uint, actor Actor) (*models.AgentFormation, error) {
	resultat := models.ResultatAbsent
	return s.Update(ctx, id, &models.UpdateSessionAgentRequest{Resultat: &resultat}, actor)
}

func (s *sessionAgentService) Remove(ctx context.Context, id uint, actor Actor) (err error) {
	cl := s.log.WithOperation(ctx, "remove_session_agent", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntitySessionAgents, err) }()

	_, err = s.audit.run(ctx, mutation{entity: EntitySessionAgents, action: models.AuditDeleted, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		row, err := s.get(ctx, tx, id)
		if err != nil {
			return mutationResult{}, err
		}
		if err := s.deps.Repo.AgentFormation().Delete(ctx, tx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return mutationResult{}, ErrSessionAgentNotFound
			}
			return mutationResult{}, fmt.Errorf("failed to remove session agent: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: row}, nil
	})
	return err
}

// get loads an enrollment that belongs to a session.
func (s *sessionAgentService) get(ctx context.Context, tx *gorm.DB, id uint) (*models.AgentFormation, error) {
	row, err := s.deps.Repo.AgentFormation().GetByID(ctx, tx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionAgentNotFound
		}
		return nil, fmt.Errorf("failed to get session agent: %w", err)
	}
	if row.SessionFormationID == nil {
		return nil, ErrSessionAgentNotFound
	}
	return row, nil
}

func (s *sessionAgentService) resolveAgent(ctx context.Context, req *models.AddSessionAgentRequest) (*models.Agent, error) {
	var (
		agent *models.Agent
		err   error
	)
	if req.AgentID != 0 {
		agent, err = s.deps.Repo.Agent().GetByID(ctx, nil, req.AgentID)
	} else {
		agent, err = s.deps.Repo.Agent().GetByMatricule(ctx, nil, req.Matricule)
	}
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return agent, nil
}

func (s *sessionAgentService) ensureNotEnrolled(ctx context.Context, tx *gorm.DB, sessionID, agentID, excludeID uint) error {
	exists, err := s.deps.Repo.AgentFormation().ExistsInSession(ctx, tx, sessionID, agentID, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check session roster: %w", err)
	}
	if exists {
		return ErrAlreadyEnrolled
	}
	return nil
}
