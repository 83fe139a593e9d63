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

type formationService struct {
	deps     Dependencies
	log      *ServiceLogger
	audit    *recorder
	sessions *sessionFormationService
}

func NewFormationService(deps Dependencies) FormationService {
	log := NewServiceLogger(deps.Logger, EntityFormations)
	return &formationService{
		deps:     deps,
		log:      log,
		audit:    newRecorder(deps, log),
		sessions: newSessionFormationService(deps),
	}
}

func (s *formationService) List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.Formation], error) {
	rows, err := s.deps.Repo.Formation().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list formations: %w", err)
	}
	return listPage(tables.Formations(), rows, q)
}

func (s *formationService) Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error) {
	rows, err := s.deps.Repo.Formation().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list formations: %w", err)
	}
	file, err := exportView(tables.Formations(), rows, q, format, s.deps.now())
	if err != nil {
		return nil, err
	}
	s.audit.recordOnly(ctx, mutation{entity: EntityFormations, action: models.AuditExported, actor: actor}, "", map[string]interface{}{"format": format})
	return file, nil
}

func (s *formationService) GetByID(ctx context.Context, id uint) (*models.Formation, error) {
	formation, err := s.deps.Repo.Formation().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFormationNotFound
		}
		return nil, fmt.Errorf("failed to get formation: %w", err)
	}
	return formation, nil
}

func (s *formationService) Create(ctx context.Context, req *FormationRequest, actor Actor) (formation *models.Formation, err error) {
	cl := s.log.WithOperation(ctx, "create_formation", actor.UserID)
	defer func() {
		id := ""
		if formation != nil {
			id = idString(formation.ID)
		}
		cl.LogResult(id, EntityFormations, err)
	}()

	if err := s.deps.validate(req); err != nil {
		return nil, err
	}

	formation = &models.Formation{}
	applyFormation(formation, req)
	_, err = s.audit.run(ctx, mutation{entity: EntityFormations, action: models.AuditCreated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Formation().Create(ctx, tx, formation); err != nil {
			return mutationResult{}, fmt.Errorf("failed to create formation: %w", err)
		}
		return mutationResult{entityID: idString(formation.ID), changes: formation}, nil
	})
	if err != nil {
		return nil, err
	}
	return formation, nil
}

func (s *formationService) Update(ctx context.Context, id uint, req *FormationRequest, actor Actor) (formation *models.Formation, err error) {
	cl := s.log.WithOperation(ctx, "update_formation", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntityFormations, err) }()

	formation, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.deps.validate(req); err != nil {
		return nil, err
	}

	before := *formation
	applyFormation(formation, req)
	_, err = s.audit.run(ctx, mutation{entity: EntityFormations, action: models.AuditUpdated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Formation().Update(ctx, tx, formation); err != nil {
			return mutationResult{}, fmt.Errorf("failed to update formation: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: beforeAfter(before, formation)}, nil
	})
	if err != nil {
		return nil, err
	}
	return formation, nil
}

func (s *formationService) Delete(ctx context.Context, id uint, actor Actor) (err error) {
	cl := s.log.WithOperation(ctx, "delete_formation", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntityFormations, err) }()

	formation, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	refs, err := s.deps.Repo.Formation().CountReferences(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to count formation references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: %d references", ErrFormationInUse, refs)
	}

	_, err = s.audit.run(ctx, mutation{entity: EntityFormations, action: models.AuditDeleted, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Formation().Delete(ctx, tx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return mutationResult{}, ErrFormationNotFound
			}
			return mutationResult{}, fmt.Errorf("failed to delete formation: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: formation}, nil
	})
	return err
}

func (s *formationService) Sessions(ctx context.Context, id uint, q datatable.Query) (*datatable.Page[*models.SessionFormation], error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.deps.Repo.SessionFormation().ListByFormation(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list formation sessions: %w", err)
	}
	if err := s.sessions.decorate(ctx, rows); err != nil {
		return nil, err
	}
	return listPage(tables.Sessions(), rows, q)
}

func applyFormation(f *models.Formation, req *FormationRequest) {
	f.Formation = req.Formation
	f.TypeFormation = req.TypeFormation
	f.Specialite = optional(req.Specialite)
	f.Duree = req.Duree
	f.CapaciteAbsorption = req.CapaciteAbsorption
}

// requireFormation turns a dangling formation reference into a field error.
func requireFormation(ctx context.Context, repo repositories.Repository, id uint) (*models.Formation, error) {
	formation, err := repo.Formation().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewValidationError("formationId", "must reference an existing formation", "exists", id)
		}
		return nil, fmt.Errorf("failed to get formation: %w", err)
	}
	return formation, nil
}

// ===== COURS =====

type coursService struct {
	deps  Dependencies
	log   *ServiceLogger
	audit *recorder
}

func NewCoursService(deps Dependencies) CoursService {
	log := NewServiceLogger(deps.Logger, EntityCours)
	return &coursService{deps: deps, log: log, audit: newRecorder(deps, log)}
}

func (s *coursService) List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.Cours], error) {
	rows, err := s.deps.Repo.Cours().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list cours: %w", err)
	}
	return listPage(tables.Cours(), rows, q)
}

func (s *coursService) Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error) {
	rows, err := s.deps.Repo.Cours().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list cours: %w", err)
	}
	file, err := exportView(tables.Cours(), rows, q, format, s.deps.now())
	if err != nil {
		return nil, err
	}
	s.audit.recordOnly(ctx, mutation{entity: EntityCours, action: models.AuditExported, actor: actor}, "", map[string]interface{}{"format": format})
	return file, nil
}

func (s *coursService) GetByID(ctx context.Context, id uint) (*models.Cours, error) {
	cours, err := s.deps.Repo.Cours().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCoursNotFound
		}
		return nil, fmt.Errorf("failed to get cours: %w", err)
	}
	return cours, nil
}

func (s *coursService) Create(ctx context.Context, req *CoursRequest, actor Actor) (cours *models.Cours, err error) {
	cl := s.log.WithOperation(ctx, "create_cours", actor.UserID)
	defer func() {
		id := ""
		if cours != nil {
			id = idString(cours.ID)
		}
		cl.LogResult(id, EntityCours, err)
	}()

	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	created := &models.Cours{Cours: req.Cours, FormationID: req.FormationID}
	_, err = s.audit.run(ctx, mutation{entity: EntityCours, action: models.AuditCreated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Cours().Create(ctx, tx, created); err != nil {
			return mutationResult{}, fmt.Errorf("failed to create cours: %w", err)
		}
		return mutationResult{entityID: idString(created.ID), changes: created}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, created.ID)
}

func (s *coursService) Update(ctx context.Context, id uint, req *CoursRequest, actor Actor) (cours *models.Cours, err error) {
	cl := s.log.WithOperation(ctx, "update_cours", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntityCours, err) }()

	cours, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	before := *cours
	cours.Cours = req.Cours
	cours.FormationID = req.FormationID
	cours.Formation = nil
	_, err = s.audit.run(ctx, mutation{entity: EntityCours, action: models.AuditUpdated, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Cours().Update(ctx, tx, cours); err != nil {
			return mutationResult{}, fmt.Errorf("failed to update cours: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: beforeAfter(before, cours)}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *coursService) Delete(ctx context.Context, id uint, actor Actor) (err error) {
	cl := s.log.WithOperation(ctx, "delete_cours", actor.UserID)
	defer func() { cl.LogResult(idString(id), EntityCours, err) }()

	cours, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.deps.Repo.Cours().CountAssignments(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to count cours assignments: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d assignments", ErrCoursInUse, count)
	}

	_, err = s.audit.run(ctx, mutation{entity: EntityCours, action: models.AuditDeleted, actor: actor}, func(tx *gorm.DB) (mutationResult, error) {
		if err := s.deps.Repo.Cours().Delete(ctx, tx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return mutationResult{}, ErrCoursNotFound
			}
			return mutationResult{}, fmt.Errorf("failed to delete cours: %w", err)
		}
		return mutationResult{entityID: idString(id), changes: cours}, nil
	})
	return err
}

func (s *coursService) validate(ctx context.Context, req *CoursRequest) error {
	if err := s.deps.validate(req); err != nil {
		return err
	}
	if req.FormationID != nil {
		if _, err := requireFormation(ctx, s.deps.Repo, *req.FormationID); err != nil {
			return err
		}
	}
	return nil
}
