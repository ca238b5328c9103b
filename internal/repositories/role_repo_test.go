package repositories

import (
	"context"
	"testing"
	"time"

	"convocore/internal/common"
	"convocore/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type RoleRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     RoleRepository
	tenantID uuid.UUID
	roleID   uuid.UUID
	ctx      context.Context
}

func (suite *RoleRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewRoleRepo(mock)
	suite.tenantID = uuid.New()
	suite.roleID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *RoleRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestRoleRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RoleRepoTestSuite))
}

func roleRow(role *models.Role) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "tenant_id", "name", "description", "is_system_role", "created_at", "updated_at"}).
		AddRow(role.ID, role.TenantID, role.Name, role.Description, role.IsSystemRole, time.Now(), time.Now())
}

func stringPtr(s string) *string {
	return &s
}

func (suite *RoleRepoTestSuite) TestCreate_TenantRole() {
	role := &models.Role{
		ID:          suite.roleID,
		TenantID:    &suite.tenantID,
		Name:        "support",
		Description: stringPtr("Support staff"),
	}

	suite.mock.ExpectExec(`INSERT INTO roles`).
		WithArgs(role.ID, role.TenantID, role.Name, role.Description, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.ctx, role)
	assert.NoError(suite.T(), err)
}

func (suite *RoleRepoTestSuite) TestCreate_TenantRoleWithoutTenantFailsClosed() {
	role := &models.Role{
		ID:   suite.roleID,
		Name: "support",
	}

	err := suite.repo.Create(suite.ctx, role)
	assert.ErrorIs(suite.T(), err, common.ErrTenantRequired)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *RoleRepoTestSuite) TestCreate_SystemRoleBypassesTenantGuard() {
	role := &models.Role{
		ID:           suite.roleID,
		Name:         "admin",
		IsSystemRole: true,
	}

	suite.mock.ExpectExec(`INSERT INTO roles`).
		WithArgs(role.ID, role.TenantID, role.Name, role.Description, true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.ctx, role)
	assert.NoError(suite.T(), err)
}

func (suite *RoleRepoTestSuite) TestGetByName_TenantRolePreferredOverSystem() {
	role := &models.Role{
		ID:       suite.roleID,
		TenantID: &suite.tenantID,
		Name:     "user",
	}

	suite.mock.ExpectQuery(`SELECT (.+) FROM roles`).
		WithArgs(suite.tenantID, "user").
		WillReturnRows(roleRow(role))

	got, err := suite.repo.GetByName(suite.ctx, suite.tenantID, "user")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), got.IsSystemRole)
	assert.Equal(suite.T(), suite.tenantID, *got.TenantID)
}

func (suite *RoleRepoTestSuite) TestGetByName_NotFound() {
	suite.mock.ExpectQuery(`SELECT (.+) FROM roles`).
		WithArgs(suite.tenantID, "missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetByName(suite.ctx, suite.tenantID, "missing")
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *RoleRepoTestSuite) TestUpdate_SystemRoleUntouchable() {
	// A system role never matches the tenant-scoped WHERE clause, so the
	// update reports zero rows.
	role := &models.Role{
		ID:       suite.roleID,
		TenantID: &suite.tenantID,
		Name:     "admin",
	}

	suite.mock.ExpectExec(`UPDATE roles`).
		WithArgs(role.Name, role.Description, role.TenantID, role.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.Update(suite.ctx, role)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *RoleRepoTestSuite) TestSoftDelete_Success() {
	suite.mock.ExpectExec(`UPDATE roles`).
		WithArgs(suite.tenantID, suite.roleID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.SoftDelete(suite.ctx, suite.tenantID, suite.roleID)
	assert.NoError(suite.T(), err)
}

func (suite *RoleRepoTestSuite) TestList_IncludesSystemRoles() {
	system := &models.Role{ID: uuid.New(), Name: "admin", IsSystemRole: true}

	rows := pgxmock.NewRows([]string{"id", "tenant_id", "name", "description", "is_system_role", "created_at", "updated_at"}).
		AddRow(system.ID, nil, system.Name, nil, true, time.Now(), time.Now()).
		AddRow(suite.roleID, &suite.tenantID, "support", nil, false, time.Now(), time.Now())

	suite.mock.ExpectQuery(`SELECT (.+) FROM roles`).
		WithArgs(suite.tenantID, 50, 0).
		WillReturnRows(rows)

	roles, err := suite.repo.List(suite.ctx, suite.tenantID, 50, 0)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), roles, 2)
	assert.True(suite.T(), roles[0].IsSystemRole)
}
