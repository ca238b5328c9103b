package repositories

import (
	"context"

	"convocore/internal/models"

	"github.com/google/uuid"
)

// AuditRepository is append-only: events are never updated or deleted, so
// deactivated users and tenants keep their history.
type AuditRepository interface {
	Create(ctx context.Context, event *models.AuditEvent) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.AuditEvent, error)
	ListByActor(ctx context.Context, tenantID, actorID uuid.UUID, limit, offset int) ([]*models.AuditEvent, error)
}

type auditRepo struct {
	db DB
}

func NewAuditRepo(db DB) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, event *models.AuditEvent) error {
	if err := requireTenant(event.TenantID); err != nil {
		return err
	}
	query := `
		INSERT INTO audit_events (id, tenant_id, actor_id, action, entity_type, entity_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	id := event.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := r.db.Exec(ctx, query, id, event.TenantID, event.ActorID, event.Action, event.EntityType, event.EntityID, event.Detail)
	return translate(err)
}

func (r *auditRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.AuditEvent, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	query := `
		SELECT id, tenant_id, actor_id, action, entity_type, entity_id, detail, created_at
		FROM audit_events
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		event := &models.AuditEvent{}
		if err := rows.Scan(&event.ID, &event.TenantID, &event.ActorID, &event.Action, &event.EntityType, &event.EntityID, &event.Detail, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *auditRepo) ListByActor(ctx context.Context, tenantID, actorID uuid.UUID, limit, offset int) ([]*models.AuditEvent, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	query := `
		SELECT id, tenant_id, actor_id, action, entity_type, entity_id, detail, created_at
		FROM audit_events
		WHERE tenant_id = $1 AND actor_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, actorID, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		event := &models.AuditEvent{}
		if err := rows.Scan(&event.ID, &event.TenantID, &event.ActorID, &event.Action, &event.EntityType, &event.EntityID, &event.Detail, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
