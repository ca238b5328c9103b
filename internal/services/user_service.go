package services

import (
	"context"
	"strings"

	"convocore/internal/common"
	"convocore/internal/models"
	"convocore/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultUserRole is granted to every newly created user.
const DefaultUserRole = "user"

type UserService interface {
	// Create provisions a user in the caller's tenant. A zero TenantID on
	// the input is filled from the context; a non-zero TenantID that does
	// not match the context is rejected, never silently honored.
	Create(ctx context.Context, user *models.User, password string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	userRepo  repositories.UserRepository
	tenantSvc TenantService
	rbac      RBACService
	audit     AuditService
}

func NewUserService(userRepo repositories.UserRepository, tenantSvc TenantService, rbac RBACService, audit AuditService) UserService {
	return &userService{userRepo: userRepo, tenantSvc: tenantSvc, rbac: rbac, audit: audit}
}

func (s *userService) Create(ctx context.Context, user *models.User, password string) error {
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.ErrTenantRequired
	}
	if user.TenantID == uuid.Nil {
		user.TenantID = tenantID
	} else if user.TenantID != tenantID {
		return common.ErrCrossTenantViolation
	}

	canAdd, err := s.tenantSvc.CanAddUser(ctx, tenantID)
	if err != nil {
		return err
	}
	if !canAdd {
		return common.ErrTenantCapacityExceeded
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.PasswordHash = string(hash)
	user.IsActive = true

	if err := s.userRepo.Create(ctx, user); err != nil {
		return err
	}

	if err := s.rbac.AssignRoleByName(ctx, tenantID, user.ID, DefaultUserRole); err != nil {
		return err
	}

	s.recordUserEvent(ctx, tenantID, user.ID, models.AuditUserCreated)
	return nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return nil, common.ErrTenantRequired
	}
	return s.userRepo.GetByID(ctx, tenantID, id)
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return nil, common.ErrTenantRequired
	}
	return s.userRepo.List(ctx, tenantID, limit, offset)
}

func (s *userService) Update(ctx context.Context, user *models.User) error {
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.ErrTenantRequired
	}
	if user.TenantID != uuid.Nil && user.TenantID != tenantID {
		return common.ErrCrossTenantViolation
	}
	user.TenantID = tenantID
	return s.userRepo.Update(ctx, user)
}

func (s *userService) Deactivate(ctx context.Context, id uuid.UUID) error {
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.ErrTenantRequired
	}
	if err := s.userRepo.SetActive(ctx, tenantID, id, false); err != nil {
		return err
	}
	s.recordUserEvent(ctx, tenantID, id, models.AuditUserDeactivated)
	return nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.ErrTenantRequired
	}
	if err := s.userRepo.SoftDelete(ctx, tenantID, id); err != nil {
		return err
	}
	s.recordUserEvent(ctx, tenantID, id, models.AuditUserDeleted)
	return nil
}

func (s *userService) recordUserEvent(ctx context.Context, tenantID, userID uuid.UUID, action string) {
	actorID, _ := common.GetUserIDFromContext(ctx)
	entityID := userID.String()
	s.audit.Record(ctx, &models.AuditEvent{
		TenantID:   tenantID,
		ActorID:    nullableID(actorID),
		Action:     action,
		EntityType: "user",
		EntityID:   &entityID,
	})
}
