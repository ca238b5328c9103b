package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is either scoped to a single tenant or, when IsSystemRole is set,
// a global row shared by every tenant (TenantID is nil in that case).
type Role struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     *uuid.UUID `json:"tenant_id,omitempty" db:"tenant_id"`
	Name         string     `json:"name" db:"name"`
	Description  *string    `json:"description,omitempty" db:"description"`
	IsSystemRole bool       `json:"is_system_role" db:"is_system_role"`
	IsDeleted    bool       `json:"-" db:"is_deleted"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
