package models

import (
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Subdomain        string    `json:"subdomain" db:"subdomain"`
	MaxUsers         int       `json:"max_users" db:"max_users"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	DefaultLanguage  string    `json:"default_language" db:"default_language"`
	SubscriptionPlan string    `json:"subscription_plan" db:"subscription_plan"`
	IsDeleted        bool      `json:"-" db:"is_deleted"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
