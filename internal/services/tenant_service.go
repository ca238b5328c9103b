package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"convocore/internal/common"
	"convocore/internal/models"
	"convocore/internal/repositories"

	"github.com/google/uuid"
)

// subdomainPattern matches DNS-label style subdomains: lowercase
// alphanumerics and hyphens, no leading or trailing hyphen, max 63 chars.
var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

var ErrInvalidSubdomain = errors.New("invalid subdomain")

// TenantUpdate carries a partial update; nil fields are left unchanged.
// Subdomain is immutable after creation and has no field here.
type TenantUpdate struct {
	Name             *string `json:"name,omitempty"`
	MaxUsers         *int    `json:"max_users,omitempty"`
	DefaultLanguage  *string `json:"default_language,omitempty"`
	SubscriptionPlan *string `json:"subscription_plan,omitempty"`
}

type TenantService interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	Update(ctx context.Context, id uuid.UUID, update *TenantUpdate) (*models.Tenant, error)
	Activate(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CanAddUser reports whether the tenant has a free seat: the count of
	// active, non-deleted users is below max_users. A cap of zero means no
	// seats at all.
	CanAddUser(ctx context.Context, tenantID uuid.UUID) (bool, error)
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
	userRepo   repositories.UserRepository
	audit      AuditService
}

func NewTenantService(tenantRepo repositories.TenantRepository, userRepo repositories.UserRepository, audit AuditService) TenantService {
	return &tenantService{tenantRepo: tenantRepo, userRepo: userRepo, audit: audit}
}

func (s *tenantService) Create(ctx context.Context, tenant *models.Tenant) error {
	tenant.Subdomain = strings.ToLower(strings.TrimSpace(tenant.Subdomain))
	if !subdomainPattern.MatchString(tenant.Subdomain) {
		return ErrInvalidSubdomain
	}
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	if tenant.DefaultLanguage == "" {
		tenant.DefaultLanguage = "en"
	}

	// The unique index on subdomain is the real guard; this check just
	// produces the duplicate error without waiting for the constraint.
	if _, err := s.tenantRepo.GetBySubdomain(ctx, tenant.Subdomain); err == nil {
		return common.ErrDuplicate
	} else if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return err
	}

	s.recordTenantEvent(ctx, tenant.ID, models.AuditTenantCreated, tenant.Subdomain)
	return nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, id)
}

func (s *tenantService) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	return s.tenantRepo.GetBySubdomain(ctx, strings.ToLower(strings.TrimSpace(subdomain)))
}

func (s *tenantService) Update(ctx context.Context, id uuid.UUID, update *TenantUpdate) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		tenant.Name = *update.Name
	}
	if update.MaxUsers != nil {
		tenant.MaxUsers = *update.MaxUsers
	}
	if update.DefaultLanguage != nil {
		tenant.DefaultLanguage = *update.DefaultLanguage
	}
	if update.SubscriptionPlan != nil {
		tenant.SubscriptionPlan = *update.SubscriptionPlan
	}

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}

	s.recordTenantEvent(ctx, tenant.ID, models.AuditTenantUpdated, tenant.Subdomain)
	return tenant, nil
}

func (s *tenantService) Activate(ctx context.Context, id uuid.UUID) error {
	if err := s.tenantRepo.SetActive(ctx, id, true); err != nil {
		return err
	}
	s.recordTenantEvent(ctx, id, models.AuditTenantUpdated, "activated")
	return nil
}

func (s *tenantService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.tenantRepo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.recordTenantEvent(ctx, id, models.AuditTenantUpdated, "deactivated")
	return nil
}

func (s *tenantService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.tenantRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.recordTenantEvent(ctx, id, models.AuditTenantDeleted, "")
	return nil
}

func (s *tenantService) CanAddUser(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return false, err
	}
	count, err := s.userRepo.CountActive(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return count < tenant.MaxUsers, nil
}

func (s *tenantService) recordTenantEvent(ctx context.Context, tenantID uuid.UUID, action, detail string) {
	actorID, _ := common.GetUserIDFromContext(ctx)
	entityID := tenantID.String()
	event := &models.AuditEvent{
		TenantID:   tenantID,
		ActorID:    nullableID(actorID),
		Action:     action,
		EntityType: "tenant",
		EntityID:   &entityID,
	}
	if detail != "" {
		event.Detail = &detail
	}
	s.audit.Record(ctx, event)
}
