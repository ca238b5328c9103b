package repositories

import (
	"context"

	"convocore/internal/common"
	"convocore/internal/models"

	"github.com/google/uuid"
)

type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Role, error)
	// GetByName resolves a tenant-scoped role first and falls back to the
	// global system roles, which every tenant sees.
	GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Role, error)
}

type roleRepo struct {
	db DB
}

func NewRoleRepo(db DB) RoleRepository {
	return &roleRepo{db: db}
}

const roleColumns = `id, tenant_id, name, description, is_system_role, created_at, updated_at`

func (r *roleRepo) Create(ctx context.Context, role *models.Role) error {
	if !role.IsSystemRole {
		if role.TenantID == nil {
			return common.ErrTenantRequired
		}
		if err := requireTenant(*role.TenantID); err != nil {
			return err
		}
	}
	query := `
		INSERT INTO roles (id, tenant_id, name, description, is_system_role, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, role.ID, role.TenantID, role.Name, role.Description, role.IsSystemRole)
	return translate(err)
}

func (r *roleRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Role, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	role := &models.Role{}
	query := `
		SELECT ` + roleColumns + `
		FROM roles
		WHERE (tenant_id = $1 OR is_system_role = TRUE) AND id = $2 AND is_deleted = FALSE
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return role, nil
}

func (r *roleRepo) GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Role, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	role := &models.Role{}
	query := `
		SELECT ` + roleColumns + `
		FROM roles
		WHERE (tenant_id = $1 OR is_system_role = TRUE) AND name = $2 AND is_deleted = FALSE
		ORDER BY is_system_role ASC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, tenantID, name).Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return role, nil
}

// Update only touches tenant-defined roles; system roles are immutable
// through this surface.
func (r *roleRepo) Update(ctx context.Context, role *models.Role) error {
	if role.TenantID == nil {
		return common.ErrTenantRequired
	}
	if err := requireTenant(*role.TenantID); err != nil {
		return err
	}
	query := `
		UPDATE roles
		SET name = $1, description = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND id = $4 AND is_system_role = FALSE AND is_deleted = FALSE
	`
	tag, err := r.db.Exec(ctx, query, role.Name, role.Description, role.TenantID, role.ID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *roleRepo) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	query := `
		UPDATE roles
		SET is_deleted = TRUE, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND is_system_role = FALSE AND is_deleted = FALSE
	`
	tag, err := r.db.Exec(ctx, query, tenantID, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *roleRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Role, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	query := `
		SELECT ` + roleColumns + `
		FROM roles
		WHERE (tenant_id = $1 OR is_system_role = TRUE) AND is_deleted = FALSE
		ORDER BY is_system_role DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
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
