package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent is an append-only record of an identity operation. Rows are
// never updated or physically deleted.
type AuditEvent struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TenantID   uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty" db:"actor_id"`
	Action     string     `json:"action" db:"action"`
	EntityType string     `json:"entity_type" db:"entity_type"`
	EntityID   *string    `json:"entity_id,omitempty" db:"entity_id"`
	Detail     *string    `json:"detail,omitempty" db:"detail"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Audit actions
const (
	AuditLoginSucceeded  = "auth.login_succeeded"
	AuditLoginFailed     = "auth.login_failed"
	AuditTokenRefreshed  = "auth.token_refreshed"
	AuditLogout          = "auth.logout"
	AuditRoleAssigned    = "rbac.role_assigned"
	AuditRoleRemoved     = "rbac.role_removed"
	AuditUserCreated     = "users.created"
	AuditUserDeactivated = "users.deactivated"
	AuditUserDeleted     = "users.deleted"
	AuditTenantCreated   = "tenants.created"
	AuditTenantUpdated   = "tenants.updated"
	AuditTenantDeleted   = "tenants.deleted"
)
