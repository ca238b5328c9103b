package repositories

import (
	"context"

	"convocore/internal/common"
	"convocore/internal/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error)
	// FindByEmail serves the login path before a tenant context exists;
	// email is globally unique so at most one row matches.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error
	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error)
	CountActive(ctx context.Context, tenantID uuid.UUID) (int, error)
	GetTenantIDByUserID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type userRepo struct {
	db DB
}

func NewUserRepo(db DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, tenant_id, email, password_hash, first_name, last_name, is_active, created_at, updated_at`

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	if err := requireTenant(user.TenantID); err != nil {
		return err
	}
	query := `
		INSERT INTO users (id, tenant_id, email, password_hash, first_name, last_name, is_active, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.TenantID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.IsActive)
	return translate(err)
}

func (r *userRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	user := &models.User{}
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1 AND id = $2 AND is_deleted = FALSE
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	user := &models.User{}
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1 AND email = $2 AND is_deleted = FALSE
	`
	err := r.db.QueryRow(ctx, query, tenantID, email).Scan(&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 AND is_deleted = FALSE
	`
	err := r.db.QueryRow(ctx, query, email).Scan(&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

// Update changes mutable profile fields only; tenant_id is immutable after
// creation and the WHERE clause keeps the write inside the caller's tenant.
func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	if err := requireTenant(user.TenantID); err != nil {
		return err
	}
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, is_active = $3, updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5 AND is_deleted = FALSE
	`
	tag, err := r.db.Exec(ctx, query, user.FirstName, user.LastName, user.IsActive, user.TenantID, user.ID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	query := `
		UPDATE users
		SET is_active = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND is_deleted = FALSE
	`
	tag, err := r.db.Exec(ctx, query, active, tenantID, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *userRepo) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	query := `
		UPDATE users
		SET is_deleted = TRUE, is_active = FALSE, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND is_deleted = FALSE
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

func (r *userRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1 AND is_deleted = FALSE
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepo) CountActive(ctx context.Context, tenantID uuid.UUID) (int, error) {
	if err := requireTenant(tenantID); err != nil {
		return 0, err
	}
	var count int
	query := `
		SELECT COUNT(*)
		FROM users
		WHERE tenant_id = $1 AND is_active = TRUE AND is_deleted = FALSE
	`
	err := r.db.QueryRow(ctx, query, tenantID).Scan(&count)
	if err != nil {
		return 0, translate(err)
	}
	return count, nil
}

func (r *userRepo) GetTenantIDByUserID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var tenantID uuid.UUID
	query := `
		SELECT tenant_id
		FROM users
		WHERE id = $1 AND is_deleted = FALSE
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(&tenantID)
	if err != nil {
		return uuid.Nil, translate(err)
	}
	return tenantID, nil
}
