// Package seed bootstraps the global permission catalog and the system
// roles every tenant shares. Every statement is idempotent so the seed can
// run on each startup.
package seed

import (
	"context"

	"convocore/internal/logger"
	"convocore/internal/repositories"

	"go.uber.org/zap"
)

type permissionSeed struct {
	name        string
	category    string
	description string
}

var permissionCatalog = []permissionSeed{
	{"users.read", "users", "View users in the tenant"},
	{"users.write", "users", "Create and update users"},
	{"users.delete", "users", "Deactivate and delete users"},
	{"roles.read", "roles", "View roles and their permissions"},
	{"roles.write", "roles", "Create roles and manage grants"},
	{"tenants.read", "tenants", "View tenant details"},
	{"tenants.manage", "tenants", "Provision and manage tenants"},
	{"chat.read", "chat", "Read conversations"},
	{"chat.write", "chat", "Send messages in conversations"},
	{"chat.manage", "chat", "Assign and close conversations"},
	{"agents.read", "agents", "View agent configurations"},
	{"agents.manage", "agents", "Create and update agent configurations"},
	{"audit.read", "audit", "Read the audit trail"},
}

// systemRoleGrants maps each system role to its permission grants. The
// admin role carries no grants: it passes every check by the wildcard rule,
// so listing permissions here would be dead data.
var systemRoleGrants = map[string][]string{
	"admin": {},
	"user":  {"users.read", "chat.read", "chat.write"},
	"agent": {"chat.read", "chat.write", "chat.manage", "agents.read"},
}

// Run installs the permission catalog and system roles. Safe to call on
// every startup; existing rows are left untouched.
func Run(ctx context.Context, db repositories.DB) error {
	for _, p := range permissionCatalog {
		query := `
			INSERT INTO permissions (id, name, category, description, is_system_permission, created_at)
			VALUES (gen_random_uuid(), $1, $2, $3, TRUE, NOW())
			ON CONFLICT (name) DO NOTHING
		`
		if _, err := db.Exec(ctx, query, p.name, p.category, p.description); err != nil {
			return err
		}
	}

	for name, grants := range systemRoleGrants {
		query := `
			INSERT INTO roles (id, tenant_id, name, description, is_system_role, is_deleted, created_at, updated_at)
			SELECT gen_random_uuid(), NULL, $1, NULL, TRUE, FALSE, NOW(), NOW()
			WHERE NOT EXISTS (
				SELECT 1 FROM roles WHERE name = $1 AND is_system_role = TRUE AND is_deleted = FALSE
			)
		`
		if _, err := db.Exec(ctx, query, name); err != nil {
			return err
		}

		for _, grant := range grants {
			query := `
				INSERT INTO role_permissions (id, role_id, permission_id, created_at)
				SELECT gen_random_uuid(), r.id, p.id, NOW()
				FROM roles r, permissions p
				WHERE r.name = $1 AND r.is_system_role = TRUE AND r.is_deleted = FALSE AND p.name = $2
				ON CONFLICT (role_id, permission_id) DO NOTHING
			`
			if _, err := db.Exec(ctx, query, name, grant); err != nil {
				return err
			}
		}
	}

	logger.L().Info("seed applied",
		zap.Int("permissions", len(permissionCatalog)),
		zap.Int("system_roles", len(systemRoleGrants)))
	return nil
}
