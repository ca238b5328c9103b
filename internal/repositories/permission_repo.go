package repositories

import (
	"context"

	"convocore/internal/models"

	"github.com/google/uuid"
)

// PermissionRepository manages the global permission catalog. Entries are
// shared by reference across tenants and are not tenant-scoped.
type PermissionRepository interface {
	Create(ctx context.Context, permission *models.Permission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Permission, error)
	GetByName(ctx context.Context, name string) (*models.Permission, error)
	List(ctx context.Context, limit, offset int) ([]*models.Permission, error)
	ListByCategory(ctx context.Context, category string) ([]*models.Permission, error)
}

type permissionRepo struct {
	db DB
}

func NewPermissionRepo(db DB) PermissionRepository {
	return &permissionRepo{db: db}
}

const permissionColumns = `id, name, category, description, is_system_permission, created_at`

func (r *permissionRepo) Create(ctx context.Context, permission *models.Permission) error {
	query := `
		INSERT INTO permissions (id, name, category, description, is_system_permission, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (name) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, permission.ID, permission.Name, permission.Category, permission.Description, permission.IsSystemPermission)
	return translate(err)
}

func (r *permissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Permission, error) {
	permission := &models.Permission{}
	query := `
		SELECT ` + permissionColumns + `
		FROM permissions
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&permission.ID, &permission.Name, &permission.Category, &permission.Description, &permission.IsSystemPermission, &permission.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return permission, nil
}

func (r *permissionRepo) GetByName(ctx context.Context, name string) (*models.Permission, error) {
	permission := &models.Permission{}
	query := `
		SELECT ` + permissionColumns + `
		FROM permissions
		WHERE name = $1
	`
	err := r.db.QueryRow(ctx, query, name).Scan(&permission.ID, &permission.Name, &permission.Category, &permission.Description, &permission.IsSystemPermission, &permission.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return permission, nil
}

func (r *permissionRepo) List(ctx context.Context, limit, offset int) ([]*models.Permission, error) {
	query := `
		SELECT ` + permissionColumns + `
		FROM permissions
		ORDER BY category, name
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
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

func (r *permissionRepo) ListByCategory(ctx context.Context, category string) ([]*models.Permission, error) {
	query := `
		SELECT ` + permissionColumns + `
		FROM permissions
		WHERE category = $1
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query, category)
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
