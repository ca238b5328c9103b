package repositories

import (
	"context"

	"convocore/internal/common"
	"convocore/internal/models"

	"github.com/google/uuid"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
}

type tenantRepo struct {
	db DB
}

func NewTenantRepo(db DB) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, subdomain, max_users, is_active, default_language, subscription_plan, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Subdomain, tenant.MaxUsers, tenant.IsActive, tenant.DefaultLanguage, tenant.SubscriptionPlan)
	return translate(err)
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `
		SELECT id, name, subdomain, max_users, is_active, default_language, subscription_plan, created_at, updated_at
		FROM tenants
		WHERE id = $1 AND is_deleted = FALSE
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&tenant.ID, &tenant.Name, &tenant.Subdomain, &tenant.MaxUsers, &tenant.IsActive, &tenant.DefaultLanguage, &tenant.SubscriptionPlan, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return tenant, nil
}

func (r *tenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `
		SELECT id, name, subdomain, max_users, is_active, default_language, subscription_plan, created_at, updated_at
		FROM tenants
		WHERE subdomain = $1 AND is_deleted = FALSE
	`
	err := r.db.QueryRow(ctx, query, subdomain).Scan(&tenant.ID, &tenant.Name, &tenant.Subdomain, &tenant.MaxUsers, &tenant.IsActive, &tenant.DefaultLanguage, &tenant.SubscriptionPlan, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return tenant, nil
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, max_users = $2, default_language = $3, subscription_plan = $4, updated_at = NOW()
		WHERE id = $5 AND is_deleted = FALSE
	`
	_, err := r.db.Exec(ctx, query, tenant.Name, tenant.MaxUsers, tenant.DefaultLanguage, tenant.SubscriptionPlan, tenant.ID)
	return translate(err)
}

func (r *tenantRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `
		UPDATE tenants
		SET is_active = $1, updated_at = NOW()
		WHERE id = $2 AND is_deleted = FALSE
	`
	tag, err := r.db.Exec(ctx, query, active, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *tenantRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tenants
		SET is_deleted = TRUE, is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	query := `
		SELECT id, name, subdomain, max_users, is_active, default_language, subscription_plan, created_at, updated_at
		FROM tenants
		WHERE is_deleted = FALSE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant := &models.Tenant{}
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.Subdomain, &tenant.MaxUsers, &tenant.IsActive, &tenant.DefaultLanguage, &tenant.SubscriptionPlan, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}
