package services

import (
	"context"
	"fmt"

	"github.com/maritime-school/training-admin/internal/datatable"
	"github.com/maritime-school/training-admin/internal/grades"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"github.com/maritime-school/training-admin/internal/tables"
	"gorm.io/gorm"
)

type agentService struct {
	deps  Dependencies
	log   *ServiceLogger
	audit *recorder
}

func NewAgentService(deps Dependencies) AgentService {
	log := NewServiceLogger(deps.Logger, EntityAgents)
	return &agentService{deps: deps, log: log, audit: newRecorder(deps, log)}
}

// load reads every agent with its last formation date.
func (s *agentService) load(ctx context.Context) ([]*models.Agent, error) {
	agents, err := s.deps.Repo.Agent().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	dates, err := s.deps.Repo.Agent().LastFormationDates(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load last formation dates: %w", err)
	}
	for _, a := range agents {
		if d, ok := dates[a.ID]; ok {
			a.LastFormationDate = &d
		}
	}
	return agents, nil
}

func (s *agentService) List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.Agent], error) {
	agents, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return listPage(tables.Agents(), agents, q)
}

func (s *agentService) Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error) {
	agents, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	file, err := exportView(tables.Agents(), agents, q, format, s.deps.now())
	if err != nil {
		return nil, err
	}
	s.audit.recordOnly(ctx, mutation{entity: EntityAgents, action: models.AuditExported, actor: actor}, "", map[string]interface{}{"format": format})
	return file, nil
}

func (s *agentService) GetByID(ctx context.Context, id uint) (*models.Agent, error) {
	agent, err := s.deps.Repo.Agent().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	rows, err := s.deps.Repo.AgentFormation().List(ctx, nil, repositories.AgentFormationFilters{AgentID: &id})
	if err != nil {
		return nil, fmt.Errorf("failed to load agent formations: %w", err)
	}
	for _, row := range rows {
		if agent.LastFormationDate == nil || row.DateDebut.After(*agent.LastFormationDate) {
			d := row.DateDebut
			agent.LastFormationDate = &d
		}
	}
	return agent, nil
}

func (s *agentService) Create(ctx context.Context, req *AgentRequest, actor Actor) (agent *models.Agent, err error) {
	cl := s.log.WithOperation(ctx, "create_agent", actor.UserID)
	defer func() { cl.LogResult(agentID(agent), EntityAgents, err) }()

	req.Mask()
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}
	if err := s.checkMatricule(ctx, req.Matricule, 0); err != nil {
		return nil, err
	}

	agent = &models.Agent{
		NomPrenom:      req.NomPrenom,
		Grade:          grades.Canonical(req.Grade),
		Matricule:      req.Matricule,
		Responsabilite: req.Responsabilite,
		Telephone:      optional(req.Telephone),
	}
	_, err = s.audit.run(ctx, mutation{entity: EntityAgents, action: models.AuditCreated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Agent().Create(ctx, tx, agent); err != nil {
			if repositories.IsUniqueViolation(err) {
				return mutationResult{}, ErrDuplicateMatricule
			}
			return mutationResult{}, fmt.Errorf("failed to create agent: %w", err)
		}
		return mutationResult{entityID: idString(agent.ID), changes: agent}, nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *agentService) Update(ctx context.Context, id uint, req *AgentRequest, actor Actor) (agent *models.Agent, err error) {
	cl := s.log.WithOperation(ctx, "update_agent", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntityAgents, err) }()

	agent, err = s.deps.Repo.Agent().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	req.Mask()
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}
	if err := s.checkMatricule(ctx, req.Matricule, id); err != nil {
		return nil, err
	}

	before := *agent
	agent.NomPrenom = req.NomPrenom
	agent.Grade = grades.Canonical(req.Grade)
	agent.Matricule = req.Matricule
	agent.Responsabilite = req.Responsabilite
	agent.Telephone = optional(req.Telephone)

	_, err = s.audit.run(ctx, mutation{entity: EntityAgents, action: models.AuditUpdated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Agent().Update(ctx, tx, agent); err != nil {
			if repositories.IsUniqueViolation(err) {
				return mutationResult{}, ErrDuplicateMatricule
			}
			return mutationResult{}, fmt.Errorf("failed to update agent: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: beforeAfter(before, agent)}, nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *agentService) Delete(ctx context.Context, id uint, actor Actor) (err error) {
	cl := s.log.WithOperation(ctx, "delete_agent", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntityAgents, err) }()

	agent, err := s.deps.Repo.Agent().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAgentNotFound
		}
		return fmt.Errorf("failed to get agent: %w", err)
	}

	count, err := s.deps.Repo.AgentFormation().CountByAgent(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to count agent formations: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d enrollments", ErrAgentInUse, count)
	}

	_, err = s.audit.run(ctx, mutation{entity: EntityAgents, action: models.AuditDeleted, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Agent().Delete(ctx, tx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return mutationResult{}, ErrAgentNotFound
			}
			return mutationResult{}, fmt.Errorf("failed to delete agent: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: agent}, nil
	})
	return err
}

func (s *agentService) Formations(ctx context.Context, id uint, q datatable.Query) (*datatable.Page[*models.AgentFormation], error) {
	if _, err := s.deps.Repo.Agent().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	rows, err := s.deps.Repo.AgentFormation().List(ctx, nil, repositories.AgentFormationFilters{AgentID: &id})
	if err != nil {
		return nil, fmt.Errorf("failed to list agent formations: %w", err)
	}
	return listPage(tables.AgentFormations(), rows, q)
}

func (s *agentService) checkMatricule(ctx context.Context, matricule string, excludeID uint) error {
	exists, err := s.deps.Repo.Agent().ExistsByMatricule(ctx, nil, matricule, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check matricule: %w", err)
	}
	if exists {
		return ErrDuplicateMatricule
	}
	return nil
}

func agentID(a *models.Agent) string {
	if a == nil {
		return ""
	}
	return idString(a.ID)
}

// ===== FORMATEURS =====

type formateurService struct {
	deps  Dependencies
	log   *ServiceLogger
	audit *recorder
}

func NewFormateurService(deps Dependencies) FormateurService {
	log := NewServiceLogger(deps.Logger, EntityFormateurs)
	return &formateurService{deps: deps, log: log, audit: newRecorder(deps, log)}
}

func (s *formateurService) List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.Formateur], error) {
	rows, err := s.deps.Repo.Formateur().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list formateurs: %w", err)
	}
	return listPage(tables.Formateurs(), rows, q)
}

func (s *formateurService) Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error) {
	rows, err := s.deps.Repo.Formateur().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list formateurs: %w", err)
	}
	file, err := exportView(tables.Formateurs(), rows, q, format, s.deps.now())
	if err != nil {
		return nil, err
	}
	s.audit.recordOnly(ctx, mutation{entity: EntityFormateurs, action: models.AuditExported, actor: actor}, "", map[string]interface{}{"format": format})
	return file, nil
}

func (s *formateurService) GetByID(ctx context.Context, id uint) (*models.Formateur, error) {
	formateur, err := s.deps.Repo.Formateur().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFormateurNotFound
		}
		return nil, fmt.Errorf("failed to get formateur: %w", err)
	}
	return formateur, nil
}

func (s *formateurService) Create(ctx context.Context, req *FormateurRequest, actor Actor) (formateur *models.Formateur, err error) {
	cl := s.log.WithOperation(ctx, "create_formateur", actor.UserID)
	defer func() {
		id := ""
		if formateur != nil {
			id = idString(formateur.ID)
		}
		cl.LogResult(id, EntityFormateurs, err)
	}()

	req.Mask()
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}

	formateur = &models.Formateur{}
	applyFormateur(formateur, req)
	_, err = s.audit.run(ctx, mutation{entity: EntityFormateurs, action: models.AuditCreated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Formateur().Create(ctx, tx, formateur); err != nil {
			return mutationResult{}, fmt.Errorf("failed to create formateur: %w", err)
		}
		return mutationResult{entityID: idString(formateur.ID), changes: formateur}, nil
	})
	if err != nil {
		return nil, err
	}
	return formateur, nil
}

func (s *formateurService) Update(ctx context.Context, id uint, req *FormateurRequest, actor Actor) (formateur *models.Formateur, err error) {
	cl := s.log.WithOperation(ctx, "update_formateur", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntityFormateurs, err) }()

	formateur, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Mask()
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}

	before := *formateur
	applyFormateur(formateur, req)
	_, err = s.audit.run(ctx, mutation{entity: EntityFormateurs, action: models.AuditUpdated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Formateur().Update(ctx, tx, formateur); err != nil {
			return mutationResult{}, fmt.Errorf("failed to update formateur: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: beforeAfter(before, formateur)}, nil
	})
	if err != nil {
		return nil, err
	}
	return formateur, nil
}

func (s *formateurService) Delete(ctx context.Context, id uint, actor Actor) (err error) {
	cl := s.log.WithOperation(ctx, "delete_formateur", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntityFormateurs, err) }()

	formateur, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.deps.Repo.CoursFormateur().CountByFormateur(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to count course assignments: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d assignments", ErrFormateurInUse, count)
	}

	_, err = s.audit.run(ctx, mutation{entity: EntityFormateurs, action: models.AuditDeleted, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Formateur().Delete(ctx, tx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return mutationResult{}, ErrFormateurNotFound
			}
			return mutationResult{}, fmt.Errorf("failed to delete formateur: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: formateur}, nil
	})
	return err
}

func (s *formateurService) Cours(ctx context.Context, id uint, q datatable.Query) (*datatable.Page[*models.CoursFormateur], error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.deps.Repo.CoursFormateur().List(ctx, nil, repositories.CoursFormateurFilters{FormateurID: &id})
	if err != nil {
		return nil, fmt.Errorf("failed to list course assignments: %w", err)
	}
	return listPage(tables.CoursFormateurs(), rows, q)
}

func applyFormateur(f *models.Formateur, req *FormateurRequest) {
	f.NomPrenom = req.NomPrenom
	f.Grade = grades.Canonical(req.Grade)
	f.Unite = req.Unite
	f.Responsabilite = req.Responsabilite
	f.Telephone = req.Telephone
	f.RIB = optional(req.RIB)
}
