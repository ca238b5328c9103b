package models

import (
	"time"

	"github.com/google/uuid"
)

// Permission is a global catalog entry; roles reference it, tenants never
// get their own copy.
type Permission struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	Category           string    `json:"category" db:"category"`
	Description        *string   `json:"description,omitempty" db:"description"`
	IsSystemPermission bool      `json:"is_system_permission" db:"is_system_permission"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}
