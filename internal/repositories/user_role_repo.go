package repositories

import (
	"context"

	"convocore/internal/common"
	"convocore/internal/models"

	"github.com/google/uuid"
)

type UserRoleRepository interface {
	// Create is idempotent: assigning a role the user already holds is a
	// no-op success, not an error. The EXISTS guards keep both sides of
	// the edge inside the caller's tenant (system roles are visible to
	// all); a user or role that does not resolve there is ErrNotFound.
	Create(ctx context.Context, tenantID uuid.UUID, userRole *models.UserRole) error
	Delete(ctx context.Context, tenantID, userID, roleID uuid.UUID) error
	ListByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*models.UserRole, error)
	ListRolesByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*models.Role, error)
}

type userRoleRepo struct {
	db DB
}

func NewUserRoleRepo(db DB) UserRoleRepository {
	return &userRoleRepo{db: db}
}

func (r *userRoleRepo) Create(ctx context.Context, tenantID uuid.UUID, userRole *models.UserRole) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	query := `
		INSERT INTO user_roles (id, user_id, role_id, created_at)
		SELECT $1, $2, $3, NOW()
		WHERE EXISTS (SELECT 1 FROM users WHERE id = $2 AND tenant_id = $4 AND is_deleted = FALSE)
		AND EXISTS (SELECT 1 FROM roles WHERE id = $3 AND (tenant_id = $4 OR is_system_role = TRUE) AND is_deleted = FALSE)
		ON CONFLICT (user_id, role_id) DO NOTHING
	`
	id := userRole.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	tag, err := r.db.Exec(ctx, query, id, userRole.UserID, userRole.RoleID, tenantID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		// Zero rows is either a repeat of an existing assignment or a
		// target that does not resolve in this tenant. Only the former
		// is a success.
		probe := `
			SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND tenant_id = $3 AND is_deleted = FALSE)
			   AND EXISTS (SELECT 1 FROM roles WHERE id = $2 AND (tenant_id = $3 OR is_system_role = TRUE) AND is_deleted = FALSE)
		`
		var resolvable bool
		if err := r.db.QueryRow(ctx, probe, userRole.UserID, userRole.RoleID, tenantID).Scan(&resolvable); err != nil {
			return translate(err)
		}
		if !resolvable {
			return common.ErrNotFound
		}
	}
	return nil
}

func (r *userRoleRepo) Delete(ctx context.Context, tenantID, userID, roleID uuid.UUID) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	query := `
		DELETE FROM user_roles
		WHERE user_id = $1 AND role_id = $2
		AND EXISTS (SELECT 1 FROM users WHERE id = $1 AND tenant_id = $3 AND is_deleted = FALSE)
	`
	_, err := r.db.Exec(ctx, query, userID, roleID, tenantID)
	return translate(err)
}

func (r *userRoleRepo) ListByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*models.UserRole, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	query := `
		SELECT ur.id, ur.user_id, ur.role_id, ur.created_at
		FROM user_roles ur
		JOIN users u ON ur.user_id = u.id
		WHERE u.tenant_id = $1 AND u.is_deleted = FALSE AND ur.user_id = $2
		ORDER BY ur.created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var userRoles []*models.UserRole
	for rows.Next() {
		userRole := &models.UserRole{}
		if err := rows.Scan(&userRole.ID, &userRole.UserID, &userRole.RoleID, &userRole.CreatedAt); err != nil {
			return nil, err
		}
		userRoles = append(userRoles, userRole)
	}
	return userRoles, rows.Err()
}

func (r *userRoleRepo) ListRolesByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*models.Role, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	query := `
		SELECT ro.id, ro.tenant_id, ro.name, ro.description, ro.is_system_role, ro.created_at, ro.updated_at
		FROM user_roles ur
		JOIN users u ON ur.user_id = u.id
		JOIN roles ro ON ur.role_id = ro.id
		WHERE u.tenant_id = $1 AND u.is_deleted = FALSE AND ur.user_id = $2 AND ro.is_deleted = FALSE
		ORDER BY ro.name
	`
	rows, err := r.db.Query(ctx, query, tenantID, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var roles []*models.Role
	for rows.Next() {
		role := &models.Role{}
		if err := rows.Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
