package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/maritime-school/training-admin/internal/events"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const auditPageSize = 50

// mutation describes one audited write.
type mutation struct {
	entity string
	action models.AuditAction
	actor  Actor
}

// mutationResult is returned by the write callback of runMutation.
type mutationResult struct {
	entityID string
	changes  interface{}
}

// recorder writes audit rows inside the caller's transaction and publishes the
// matching event once the transaction has committed.
type recorder struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	log       *ServiceLogger
}

func newRecorder(deps Dependencies, log *ServiceLogger) *recorder {
	return &recorder{repo: deps.Repo, publisher: deps.Publisher, log: log}
}

// run executes write in a transaction together with its audit row.
func (r *recorder) run(ctx context.Context, m mutation, write func(tx *gorm.DB) (mutationResult, error)) (string, error) {
	var res mutationResult
	err := r.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		res, err = write(tx)
		if err != nil {
			return err
		}
		return r.record(ctx, tx, m, res)
	})
	if err != nil {
		return "", err
	}

	r.publish(ctx, m, res.entityID)
	return res.entityID, nil
}

func (r *recorder) record(ctx context.Context, tx *gorm.DB, m mutation, res mutationResult) error {
	entry := &models.AuditLog{
		Entity:   m.entity,
		EntityID: res.entityID,
		Action:   m.action,
		ActorID:  m.actor.UserID,
	}
	if res.changes != nil {
		data, err := json.Marshal(res.changes)
		if err != nil {
			return fmt.Errorf("failed to encode audit changes: %w", err)
		}
		entry.Changes = datatypes.JSON(data)
	}
	if err := r.repo.AuditLog().Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// publish never fails the request: a broker outage is only logged.
func (r *recorder) publish(ctx context.Context, m mutation, entityID string) {
	if r.publisher == nil {
		return
	}
	event := events.NewEntityChangedEvent(m.entity, entityID, string(m.action), m.actor.UserID)
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.log.Logger().WarnContext(ctx, "Failed to publish entity event",
			"entity", m.entity,
			"entity_id", entityID,
			"action", m.action,
			"error", err)
	}
}

// recordOnly audits an action that changes no row, such as an export.
func (r *recorder) recordOnly(ctx context.Context, m mutation, entityID string, details interface{}) {
	if err := r.record(ctx, nil, m, mutationResult{entityID: entityID, changes: details}); err != nil {
		r.log.Logger().WarnContext(ctx, "Failed to audit action", "entity", m.entity, "action", m.action, "error", err)
	}
}

func beforeAfter(before, after interface{}) map[string]interface{} {
	return map[string]interface{}{"before": before, "after": after}
}

// ===== AUDIT LOG QUERIES =====

type AuditLogQuery struct {
	Entity   string `form:"entity"`
	EntityID string `form:"entityId"`
	ActorID  string `form:"actorId"`
	Page     int    `form:"page"`
}

type AuditLogPage struct {
	Items     []*models.AuditLog `json:"items"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"pageSize"`
	PageCount int                `json:"pageCount"`
}

type auditService struct {
	repo repositories.Repository
	log  *ServiceLogger
}

func NewAuditService(deps Dependencies) AuditService {
	return &auditService{
		repo: deps.Repo,
		log:  NewServiceLogger(deps.Logger, "audit"),
	}
}

func (s *auditService) List(ctx context.Context, q AuditLogQuery) (*AuditLogPage, error) {
	page := max(q.Page, 1)
	items, total, err := s.repo.AuditLog().List(ctx, nil, repositories.AuditLogFilters{
		Entity:   q.Entity,
		EntityID: q.EntityID,
		ActorID:  q.ActorID,
		Limit:    auditPageSize,
		Offset:   (page - 1) * auditPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	pageCount := int((total + auditPageSize - 1) / auditPageSize)
	return &AuditLogPage{
		Items:     items,
		Total:     total,
		Page:      page,
		PageSize:  auditPageSize,
		PageCount: max(pageCount, 1),
	}, nil
}
