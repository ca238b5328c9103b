package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"convocore/internal/caching"
	"convocore/internal/common"
	"convocore/internal/logger"
	"convocore/internal/metrics"
	"convocore/internal/models"
	"convocore/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminRole is the system role that bypasses explicit grants: holding it
// makes every permission check succeed.
const AdminRole = "admin"

const permissionCacheTTL = 5 * time.Minute

type RBACService interface {
	GetUserRoles(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error)
	// GetUserPermissions returns the deduplicated, sorted union of the
	// permissions granted through every role the user holds.
	GetUserPermissions(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error)
	UserHasPermission(ctx context.Context, tenantID, userID uuid.UUID, permission string) (bool, error)
	AssignRole(ctx context.Context, tenantID, userID, roleID uuid.UUID) error
	AssignRoleByName(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error
	RemoveRole(ctx context.Context, tenantID, userID, roleID uuid.UUID) error
	RemoveRoleByName(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error

	CreateRole(ctx context.Context, tenantID uuid.UUID, role *models.Role) error
	ListRoles(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Role, error)
	GrantPermission(ctx context.Context, tenantID, roleID, permissionID uuid.UUID) error
	RevokePermission(ctx context.Context, tenantID, roleID, permissionID uuid.UUID) error
	ListRolePermissions(ctx context.Context, tenantID, roleID uuid.UUID) ([]*models.Permission, error)
}

type rbacService struct {
	userRoleRepo       repositories.UserRoleRepository
	rolePermissionRepo repositories.RolePermissionRepository
	roleRepo           repositories.RoleRepository
	cache              caching.CacheService
	audit              AuditService
}

func NewRBACService(
	userRoleRepo repositories.UserRoleRepository,
	rolePermissionRepo repositories.RolePermissionRepository,
	roleRepo repositories.RoleRepository,
	cache caching.CacheService,
	audit AuditService,
) RBACService {
	return &rbacService{
		userRoleRepo:       userRoleRepo,
		rolePermissionRepo: rolePermissionRepo,
		roleRepo:           roleRepo,
		cache:              cache,
		audit:              audit,
	}
}

func permissionCacheKey(tenantID, userID uuid.UUID) string {
	return fmt.Sprintf("convocore:perms:%s:%s", tenantID, userID)
}

func (s *rbacService) GetUserRoles(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error) {
	roles, err := s.userRoleRepo.ListRolesByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *rbacService) GetUserPermissions(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error) {
	key := permissionCacheKey(tenantID, userID)
	if cached, err := s.cache.GetString(ctx, key); err == nil && cached != "" {
		var perms []string
		if err := json.Unmarshal([]byte(cached), &perms); err == nil {
			return perms, nil
		}
	}

	roles, err := s.userRoleRepo.ListRolesByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, role := range roles {
		perms, err := s.rolePermissionRepo.ListPermissionsByRole(ctx, tenantID, role.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range perms {
			seen[p.Name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	if data, err := json.Marshal(names); err == nil {
		if err := s.cache.SetString(ctx, key, string(data), permissionCacheTTL); err != nil {
			logger.L().Warn("permission cache write failed", zap.Error(err))
		}
	}

	return names, nil
}

func (s *rbacService) UserHasPermission(ctx context.Context, tenantID, userID uuid.UUID, permission string) (bool, error) {
	roles, err := s.GetUserRoles(ctx, tenantID, userID)
	if err != nil {
		metrics.PermissionChecks.WithLabelValues("error").Inc()
		return false, err
	}
	for _, role := range roles {
		if role == AdminRole {
			metrics.PermissionChecks.WithLabelValues("granted").Inc()
			return true, nil
		}
	}

	perms, err := s.GetUserPermissions(ctx, tenantID, userID)
	if err != nil {
		metrics.PermissionChecks.WithLabelValues("error").Inc()
		return false, err
	}
	for _, p := range perms {
		if p == permission {
			metrics.PermissionChecks.WithLabelValues("granted").Inc()
			return true, nil
		}
	}

	metrics.PermissionChecks.WithLabelValues("denied").Inc()
	return false, nil
}

func (s *rbacService) AssignRole(ctx context.Context, tenantID, userID, roleID uuid.UUID) error {
	userRole := &models.UserRole{
		ID:     uuid.New(),
		UserID: userID,
		RoleID: roleID,
	}
	if err := s.userRoleRepo.Create(ctx, tenantID, userRole); err != nil {
		return err
	}

	s.invalidatePermissions(ctx, tenantID, userID)

	actorID, _ := common.GetUserIDFromContext(ctx)
	entityID := userID.String()
	detail := fmt.Sprintf("role %s assigned", roleID)
	s.audit.Record(ctx, &models.AuditEvent{
		TenantID:   tenantID,
		ActorID:    nullableID(actorID),
		Action:     models.AuditRoleAssigned,
		EntityType: "user",
		EntityID:   &entityID,
		Detail:     &detail,
	})
	return nil
}

func (s *rbacService) AssignRoleByName(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error {
	role, err := s.roleRepo.GetByName(ctx, tenantID, roleName)
	if err != nil {
		return err
	}
	return s.AssignRole(ctx, tenantID, userID, role.ID)
}

func (s *rbacService) RemoveRole(ctx context.Context, tenantID, userID, roleID uuid.UUID) error {
	if err := s.userRoleRepo.Delete(ctx, tenantID, userID, roleID); err != nil {
		return err
	}

	s.invalidatePermissions(ctx, tenantID, userID)

	actorID, _ := common.GetUserIDFromContext(ctx)
	entityID := userID.String()
	detail := fmt.Sprintf("role %s removed", roleID)
	s.audit.Record(ctx, &models.AuditEvent{
		TenantID:   tenantID,
		ActorID:    nullableID(actorID),
		Action:     models.AuditRoleRemoved,
		EntityType: "user",
		EntityID:   &entityID,
		Detail:     &detail,
	})
	return nil
}

// RemoveRoleByName treats an unknown role name as a no-op: removing a role
// the user does not hold succeeds either way.
func (s *rbacService) RemoveRoleByName(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error {
	role, err := s.roleRepo.GetByName(ctx, tenantID, roleName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.RemoveRole(ctx, tenantID, userID, role.ID)
}

func (s *rbacService) CreateRole(ctx context.Context, tenantID uuid.UUID, role *models.Role) error {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	// Tenant-defined roles only; system roles come from the seed.
	role.TenantID = &tenantID
	role.IsSystemRole = false
	return s.roleRepo.Create(ctx, role)
}

func (s *rbacService) ListRoles(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Role, error) {
	return s.roleRepo.List(ctx, tenantID, limit, offset)
}

func (s *rbacService) GrantPermission(ctx context.Context, tenantID, roleID, permissionID uuid.UUID) error {
	rolePermission := &models.RolePermission{
		ID:           uuid.New(),
		RoleID:       roleID,
		PermissionID: permissionID,
	}
	return s.rolePermissionRepo.Create(ctx, tenantID, rolePermission)
}

func (s *rbacService) RevokePermission(ctx context.Context, tenantID, roleID, permissionID uuid.UUID) error {
	return s.rolePermissionRepo.Delete(ctx, tenantID, roleID, permissionID)
}

func (s *rbacService) ListRolePermissions(ctx context.Context, tenantID, roleID uuid.UUID) ([]*models.Permission, error) {
	return s.rolePermissionRepo.ListPermissionsByRole(ctx, tenantID, roleID)
}

func (s *rbacService) invalidatePermissions(ctx context.Context, tenantID, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, permissionCacheKey(tenantID, userID)); err != nil {
		logger.L().Warn("permission cache invalidation failed", zap.Error(err))
	}
}

func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
