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

type agentFormationService struct {
	deps  Dependencies
	log   *ServiceLogger
	audit *recorder
}

func NewAgentFormationService(deps Dependencies) AgentFormationService {
	log := NewServiceLogger(deps.Logger, EntityAgentFormations)
	return &agentFormationService{deps: deps, log: log, audit: newRecorder(deps, log)}
}

func (s *agentFormationService) List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.AgentFormation], error) {
	rows, err := s.deps.Repo.AgentFormation().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent formations: %w", err)
	}
	return listPage(tables.AgentFormations(), rows, q)
}

func (s *agentFormationService) Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error) {
	rows, err := s.deps.Repo.AgentFormation().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent formations: %w", err)
	}
	file, err := exportView(tables.AgentFormations(), rows, q, format, s.deps.now())
	if err != nil {
		return nil, err
	}
	s.audit.recordOnly(ctx, mutation{entity: EntityAgentFormations, action: models.AuditExported, actor: actor}, "", map[string]interface{}{"format": format})
	return file, nil
}

func (s *agentFormationService) GetByID(ctx context.Context, id uint) (*models.AgentFormation, error) {
	row, err := s.deps.Repo.AgentFormation().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAgentFormationNotFound
		}
		return nil, fmt.Errorf("failed to get agent formation: %w", err)
	}
	return row, nil
}

func (s *agentFormationService) Create(ctx context.Context, req *AgentFormationRequest, actor Actor) (row *models.AgentFormation, err error) {
	cl := s.log.WithOperation(ctx, "create_agent_formation", actor.UserID)
	defer func() {
		id := ""
		if row != nil {
			id = idString(row.ID)
		}
		cl.LogResult(id, EntityAgentFormations, err)
	}()

	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	created := &models.AgentFormation{}
	applyAgentFormation(created, req)
	_, err = s.audit.run(ctx, mutation{entity: EntityAgentFormations, action: models.AuditCreated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.checkSession(ctx, tx, created, 0, nil); err != nil {
			return mutationResult{}, err
		}
		if err := s.deps.Repo.AgentFormation().Create(ctx, tx, created); err != nil {
			return mutationResult{}, fmt.Errorf("failed to create agent formation: %w", err)
		}
		return mutationResult{entityID: idString(created.ID), changes: created}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, created.ID)
}

func (s *agentFormationService) Update(ctx context.Context, id uint, req *AgentFormationRequest, actor Actor) (row *models.AgentFormation, err error) {
	cl := s.log.WithOperation(ctx, "update_agent_formation", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntityAgentFormations, err) }()

	row, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	before := *row
	applyAgentFormation(row, req)
	row.Agent, row.Formation = nil, nil
	_, err = s.audit.run(ctx, mutation{entity: EntityAgentFormations, action: models.AuditUpdated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.checkSession(ctx, tx, row, id, before.SessionFormationID); err != nil {
			return mutationResult{}, err
		}
		if err := s.deps.Repo.AgentFormation().Update(ctx, tx, row); err != nil {
			return mutationResult{}, fmt.Errorf("failed to update agent formation: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: beforeAfter(before, row)}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *agentFormationService) Delete(ctx context.Context, id uint, actor Actor) (err error) {
	cl := s.log.WithOperation(ctx, "delete_agent_formation", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntityAgentFormations, err) }()

	row, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.audit.run(ctx, mutation{entity: EntityAgentFormations, action: models.AuditDeleted, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.AgentFormation().Delete(ctx, tx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return mutationResult{}, ErrAgentFormationNotFound
			}
			return mutationResult{}, fmt.Errorf("failed to delete agent formation: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: row}, nil
	})
	return err
}

func (s *agentFormationService) validate(ctx context.Context, req *AgentFormationRequest) error {
	if err := s.deps.validate(req); err != nil {
		return err
	}
	if _, err := s.deps.Repo.Agent().GetByID(ctx, nil, req.AgentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewValidationError("agentId", "must reference an existing agent", "exists", req.AgentID)
		}
		return fmt.Errorf("failed to get agent: %w", err)
	}
	_, err := requireFormation(ctx, s.deps.Repo, req.FormationID)
	return err
}

// checkSession applies the roster rules when the enrollment belongs to a session.
// previous is the session the row was stored under; capacity is checked only
// when the row joins a session it was not already counted in.
func (s *agentFormationService) checkSession(ctx context.Context, tx *gorm.DB, row *models.AgentFormation, excludeID uint, previous *uint) error {
	if row.SessionFormationID == nil {
		return nil
	}
	sessionID := *row.SessionFormationID
	session, err := s.deps.Repo.SessionFormation().GetByID(ctx, tx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewValidationError("sessionFormationId", "must reference an existing session", "exists", sessionID)
		}
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session.FormationID != row.FormationID {
		return NewBusinessRuleError("session_formation_mismatch",
			"the session belongs to another formation",
			map[string]interface{}{"sessionFormationId": sessionID, "formationId": row.FormationID})
	}

	exists, err := s.deps.Repo.AgentFormation().ExistsInSession(ctx, tx, sessionID, row.AgentID, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check session roster: %w", err)
	}
	if exists {
		return ErrAlreadyEnrolled
	}

	if previous == nil || *previous != sessionID {
		enrolled, err := s.deps.Repo.AgentFormation().CountBySession(ctx, tx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to count enrolled agents: %w", err)
		}
		if enrolled >= int64(session.NombreParticipants) {
			return fmt.Errorf("%w: capacity %d", ErrSessionFull, session.NombreParticipants)
		}
	}
	return nil
}

func applyAgentFormation(row *models.AgentFormation, req *AgentFormationRequest) {
	row.AgentID = req.AgentID
	row.FormationID = req.FormationID
	row.SessionFormationID = req.SessionFormationID
	row.DateDebut = req.DateDebut.Time
	row.DateFin = req.DateFin.Time
	row.Reference = optional(req.Reference)
	row.Resultat = optional(req.Resultat)
	row.Moyenne = req.Moyenne
}

// ===== COURS FORMATEURS =====

type coursFormateurService struct {
	deps  Dependencies
	log   *ServiceLogger
	audit *recorder
}

func NewCoursFormateurService(deps Dependencies) CoursFormateurService {
	log := NewServiceLogger(deps.Logger, EntityCoursFormateurs)
	return &coursFormateurService{deps: deps, log: log, audit: newRecorder(deps, log)}
}

func (s *coursFormateurService) List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.CoursFormateur], error) {
	rows, err := s.deps.Repo.CoursFormateur().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list cours formateurs: %w", err)
	}
	return listPage(tables.CoursFormateurs(), rows, q)
}

func (s *coursFormateurService) Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error) {
	rows, err := s.deps.Repo.CoursFormateur().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list cours formateurs: %w", err)
	}
	file, err := exportView(tables.CoursFormateurs(), rows, q, format, s.deps.now())
	if err != nil {
		return nil, err
	}
	s.audit.recordOnly(ctx, mutation{entity: EntityCoursFormateurs, action: models.AuditExported, actor: actor}, "", map[string]interface{}{"format": format})
	return file, nil
}

func (s *coursFormateurService) GetByID(ctx context.Context, id uint) (*models.CoursFormateur, error) {
	row, err := s.deps.Repo.CoursFormateur().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCoursFormateurNotFound
		}
		return nil, fmt.Errorf("failed to get cours formateur: %w", err)
	}
	return row, nil
}

func (s *coursFormateurService) Create(ctx context.Context, req *CoursFormateurRequest, actor Actor) (row *models.CoursFormateur, err error) {
	cl := s.log.WithOperation(ctx, "create_cours_formateur", actor.UserID)
	defer func() {
		id := ""
		if row != nil {
			id = idString(row.ID)
		}
		cl.LogResult(id, EntityCoursFormateurs, err)
	}()

	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	created := &models.CoursFormateur{}
	applyCoursFormateur(created, req)
	_, err = s.audit.run(ctx, mutation{entity: EntityCoursFormateurs, action: models.AuditCreated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.CoursFormateur().Create(ctx, tx, created); err != nil {
			return mutationResult{}, fmt.Errorf("failed to create cours formateur: %w", err)
		}
		return mutationResult{entityID: idString(created.ID), changes: created}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, created.ID)
}

func (s *coursFormateurService) Update(ctx context.Context, id uint, req *CoursFormateurRequest, actor Actor) (row *models.CoursFormateur, err error) {
	cl := s.log.WithOperation(ctx, "update_cours_formateur", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntityCoursFormateurs, err) }()

	row, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	before := *row
	applyCoursFormateur(row, req)
	row.Formateur, row.Cours = nil, nil
	_, err = s.audit.run(ctx, mutation{entity: EntityCoursFormateurs, action: models.AuditUpdated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.CoursFormateur().Update(ctx, tx, row); err != nil {
			return mutationResult{}, fmt.Errorf("failed to update cours formateur: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: beforeAfter(before, row)}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *coursFormateurService) Delete(ctx context.Context, id uint, actor Actor) (err error) {
	cl := s.log.WithOperation(ctx, "delete_cours_formateur", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntityCoursFormateurs, err) }()

	row, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.audit.run(ctx, mutation{entity: EntityCoursFormateurs, action: models.AuditDeleted, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.CoursFormateur().Delete(ctx, tx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return mutationResult{}, ErrCoursFormateurNotFound
			}
			return mutationResult{}, fmt.Errorf("failed to delete cours formateur: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: row}, nil
	})
	return err
}

func (s *coursFormateurService) validate(ctx context.Context, req *CoursFormateurRequest) error {
	if err := s.deps.validate(req); err != nil {
		return err
	}
	if _, err := s.deps.Repo.Formateur().GetByID(ctx, nil, req.FormateurID); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewValidationError("formateurId", "must reference an existing formateur", "exists", req.FormateurID)
		}
		return fmt.Errorf("failed to get formateur: %w", err)
	}
	if _, err := s.deps.Repo.Cours().GetByID(ctx, nil, req.CoursID); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewValidationError("coursId", "must reference an existing cours", "exists", req.CoursID)
		}
		return fmt.Errorf("failed to get cours: %w", err)
	}
	return nil
}

func applyCoursFormateur(row *models.CoursFormateur, req *CoursFormateurRequest) {
	row.FormateurID = req.FormateurID
	row.CoursID = req.CoursID
	row.DateDebut = req.DateDebut.Time
	row.DateFin = req.DateFin.Time
	row.NombreHeures = req.NombreHeures
	row.Reference = optional(req.Reference)
}
