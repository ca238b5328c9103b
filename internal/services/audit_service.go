package services

import (
	"context"

	"convocore/internal/logger"
	"convocore/internal/models"
	"convocore/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuditService interface {
	// Record appends an event best-effort: a failing audit write is logged
	// but never fails the operation being audited.
	Record(ctx context.Context, event *models.AuditEvent)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.AuditEvent, error)
	ListByActor(ctx context.Context, tenantID, actorID uuid.UUID, limit, offset int) ([]*models.AuditEvent, error)
}

type auditService struct {
	auditRepo repositories.AuditRepository
}

func NewAuditService(auditRepo repositories.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) Record(ctx context.Context, event *models.AuditEvent) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if err := s.auditRepo.Create(ctx, event); err != nil {
		logger.L().Warn("audit write failed",
			zap.String("action", event.Action),
			zap.String("tenant_id", event.TenantID.String()),
			zap.Error(err))
	}
}

func (s *auditService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.AuditEvent, error) {
	return s.auditRepo.List(ctx, tenantID, limit, offset)
}

func (s *auditService) ListByActor(ctx context.Context, tenantID, actorID uuid.UUID, limit, offset int) ([]*models.AuditEvent, error) {
	return s.auditRepo.ListByActor(ctx, tenantID, actorID, limit, offset)
}
