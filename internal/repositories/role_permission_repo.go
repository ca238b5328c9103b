package repositories

import (
	"context"

	"convocore/internal/models"

	"github.com/google/uuid"
)

type RolePermissionRepository interface {
	// Create is idempotent on the (role_id, permission_id) pair.
	Create(ctx context.Context, tenantID uuid.UUID, rolePermission *models.RolePermission) error
	Delete(ctx context.Context, tenantID, roleID, permissionID uuid.UUID) error
	ListByRole(ctx context.Context, tenantID, roleID uuid.UUID) ([]*models.RolePermission, error)
	ListPermissionsByRole(ctx context.Context, tenantID, roleID uuid.UUID) ([]*models.Permission, error)
}

type rolePermissionRepo struct {
	db DB
}

func NewRolePermissionRepo(db DB) RolePermissionRepository {
	return &rolePermissionRepo{db: db}
}

func (r *rolePermissionRepo) Create(ctx context.Context, tenantID uuid.UUID, rolePermission *models.RolePermission) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	query := `
		INSERT INTO role_permissions (id, role_id, permission_id, created_at)
		SELECT $1, $2, $3, NOW()
		WHERE EXISTS (SELECT 1 FROM roles WHERE id = $2 AND (tenant_id = $4 OR is_system_role = TRUE) AND is_deleted = FALSE)
		AND EXISTS (SELECT 1 FROM permissions WHERE id = $3)
		ON CONFLICT (role_id, permission_id) DO NOTHING
	`
	id := rolePermission.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := r.db.Exec(ctx, query, id, rolePermission.RoleID, rolePermission.PermissionID, tenantID)
	return translate(err)
}

func (r *rolePermissionRepo) Delete(ctx context.Context, tenantID, roleID, permissionID uuid.UUID) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	query := `
		DELETE FROM role_permissions
		WHERE role_id = $1 AND permission_id = $2
		AND EXISTS (SELECT 1 FROM roles WHERE id = $1 AND tenant_id = $3 AND is_deleted = FALSE)
	`
	_, err := r.db.Exec(ctx, query, roleID, permissionID, tenantID)
	return translate(err)
}

func (r *rolePermissionRepo) ListByRole(ctx context.Context, tenantID, roleID uuid.UUID) ([]*models.RolePermission, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	query := `
		SELECT rp.id, rp.role_id, rp.permission_id, rp.created_at
		FROM role_permissions rp
		JOIN roles ro ON rp.role_id = ro.id
		WHERE (ro.tenant_id = $1 OR ro.is_system_role = TRUE) AND ro.is_deleted = FALSE AND rp.role_id = $2
		ORDER BY rp.created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, roleID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var rolePermissions []*models.RolePermission
	for rows.Next() {
		rolePermission := &models.RolePermission{}
		if err := rows.Scan(&rolePermission.ID, &rolePermission.RoleID, &rolePermission.PermissionID, &rolePermission.CreatedAt); err != nil {
			return nil, err
		}
		rolePermissions = append(rolePermissions, rolePermission)
	}
	return rolePermissions, rows.Err()
}

func (r *rolePermissionRepo) ListPermissionsByRole(ctx context.Context, tenantID, roleID uuid.UUID) ([]*models.Permission, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	query := `
		SELECT p.id, p.name, p.category, p.description, p.is_system_permission, p.created_at
		FROM role_permissions rp
		JOIN roles ro ON rp.role_id = ro.id
		JOIN permissions p ON rp.permission_id = p.id
		WHERE (ro.tenant_id = $1 OR ro.is_system_role = TRUE) AND ro.is_deleted = FALSE AND rp.role_id = $2
		ORDER BY p.name
	`
	rows, err := r.db.Query(ctx, query, tenantID, roleID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var permissions []*models.Permission
	for rows.Next() {
		permission := &models.Permission{}
		if err := rows.Scan(&permission.ID, &permission.Name, &permission.Category, &permission.Description, &permission.IsSystemPermission, &permission.CreatedAt); err != nil {
			return nil, err
		}
		permissions = append(permissions, permission)
	}
	return permissions, rows.Err()
}
