package services

import (
	"context"
	"testing"
	"time"

	"convocore/internal/common"
	"convocore/internal/config"
	"convocore/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceTestSuite struct {
	suite.Suite
	userRepo   *MockUserRepository
	tenantRepo *MockTenantRepository
	userRole   *MockUserRoleRepository
	rolePerm   *MockRolePermissionRepository
	roleRepo   *MockRoleRepository
	cache      *fakeCache
	jwtCfg     config.JWTConfig
	service    AuthService
	tenantID   uuid.UUID
	userID     uuid.UUID
	user       *models.User
	tenant     *models.Tenant
	ctx        context.Context
}

const testPassword = "correct horse battery"

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.userRepo = &MockUserRepository{}
	suite.tenantRepo = &MockTenantRepository{}
	suite.userRole = &MockUserRoleRepository{}
	suite.rolePerm = &MockRolePermissionRepository{}
	suite.roleRepo = &MockRoleRepository{}
	suite.cache = newFakeCache()

	suite.jwtCfg = config.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "convocore",
		Audience:   "convocore-api",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
	authCfg := config.AuthConfig{LoginAttemptLimit: 10, LoginAttemptWindow: time.Minute}

	rbac := NewRBACService(suite.userRole, suite.rolePerm, suite.roleRepo, suite.cache, stubAudit{})
	tenants := NewTenantService(suite.tenantRepo, suite.userRepo, stubAudit{})
	suite.service = NewAuthService(suite.userRepo, tenants, rbac, suite.cache, stubAudit{}, suite.jwtCfg, authCfg)

	suite.tenantID = uuid.New()
	suite.userID = uuid.New()
	suite.ctx = context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	assert.NoError(suite.T(), err)

	suite.user = &models.User{
		ID:           suite.userID,
		TenantID:     suite.tenantID,
		Email:        "agent@acme.example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	suite.tenant = &models.Tenant{ID: suite.tenantID, Subdomain: "acme", IsActive: true, MaxUsers: 10}

	suite.userRepo.Test(suite.T())
	suite.tenantRepo.Test(suite.T())
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) expectRoleResolution() {
	agent := &models.Role{ID: uuid.New(), Name: "agent", IsSystemRole: true}
	suite.userRole.On("ListRolesByUser", suite.ctx, suite.tenantID, suite.userID).
		Return([]*models.Role{agent}, nil)
	suite.rolePerm.On("ListPermissionsByRole", suite.ctx, suite.tenantID, agent.ID).
		Return([]*models.Permission{permNamed("chat.read"), permNamed("chat.write")}, nil)
}

func (suite *AuthServiceTestSuite) TestAuthenticate_RoundTrip() {
	suite.userRepo.On("FindByEmail", suite.ctx, suite.user.Email).Return(suite.user, nil)
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(suite.tenant, nil)
	suite.expectRoleResolution()

	result, err := suite.service.Authenticate(suite.ctx, suite.user.Email, testPassword, "")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Bearer", result.TokenType)
	assert.NotEmpty(suite.T(), result.RefreshToken)
	assert.Equal(suite.T(), []string{"agent"}, result.User.Roles)
	assert.Equal(suite.T(), []string{"chat.read", "chat.write"}, result.User.Permissions)

	principal, err := suite.service.Validate(suite.ctx, result.AccessToken)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.userID, principal.UserID)
	assert.Equal(suite.T(), suite.tenantID, principal.TenantID)
	assert.Equal(suite.T(), []string{"agent"}, principal.Roles)
}

func (suite *AuthServiceTestSuite) TestAuthenticate_TenantHintScopesLookup() {
	suite.tenantRepo.On("GetBySubdomain", suite.ctx, "acme").Return(suite.tenant, nil)
	suite.userRepo.On("GetByEmail", suite.ctx, suite.tenantID, suite.user.Email).Return(suite.user, nil)
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(suite.tenant, nil)
	suite.expectRoleResolution()

	result, err := suite.service.Authenticate(suite.ctx, suite.user.Email, testPassword, "acme")
	assert.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), result.AccessToken)
}

func (suite *AuthServiceTestSuite) TestAuthenticate_UnknownEmail() {
	suite.userRepo.On("FindByEmail", suite.ctx, "ghost@example.com").Return(nil, common.ErrNotFound)

	_, err := suite.service.Authenticate(suite.ctx, "ghost@example.com", testPassword, "")
	assert.ErrorIs(suite.T(), err, common.ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestAuthenticate_WrongPasswordSameError() {
	suite.userRepo.On("FindByEmail", suite.ctx, suite.user.Email).Return(suite.user, nil)
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(suite.tenant, nil)

	_, err := suite.service.Authenticate(suite.ctx, suite.user.Email, "wrong password", "")
	assert.ErrorIs(suite.T(), err, common.ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestAuthenticate_InactiveTenantSameError() {
	inactive := &models.Tenant{ID: suite.tenantID, Subdomain: "acme", IsActive: false}

	suite.userRepo.On("FindByEmail", suite.ctx, suite.user.Email).Return(suite.user, nil)
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(inactive, nil)

	_, err := suite.service.Authenticate(suite.ctx, suite.user.Email, testPassword, "")
	assert.ErrorIs(suite.T(), err, common.ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestAuthenticate_ThrottledSameError() {
	suite.cache.limited = true

	_, err := suite.service.Authenticate(suite.ctx, suite.user.Email, testPassword, "")
	assert.ErrorIs(suite.T(), err, common.ErrInvalidCredentials)
	suite.userRepo.AssertNotCalled(suite.T(), "FindByEmail", suite.ctx, suite.user.Email)
}

func (suite *AuthServiceTestSuite) TestRefresh_RotatesAndBlocksReplay() {
	suite.userRepo.On("FindByEmail", suite.ctx, suite.user.Email).Return(suite.user, nil)
	suite.userRepo.On("GetByID", suite.ctx, suite.tenantID, suite.userID).Return(suite.user, nil)
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(suite.tenant, nil)
	suite.expectRoleResolution()

	first, err := suite.service.Authenticate(suite.ctx, suite.user.Email, testPassword, "")
	assert.NoError(suite.T(), err)

	second, err := suite.service.Refresh(suite.ctx, first.RefreshToken)
	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), first.RefreshToken, second.RefreshToken)

	// The consumed token is gone; replaying it must fail.
	_, err = suite.service.Refresh(suite.ctx, first.RefreshToken)
	assert.ErrorIs(suite.T(), err, common.ErrTokenInvalid)

	// The rotated token still works.
	_, err = suite.service.Refresh(suite.ctx, second.RefreshToken)
	assert.NoError(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestRefresh_InactiveTenantRejected() {
	suite.userRepo.On("FindByEmail", suite.ctx, suite.user.Email).Return(suite.user, nil)
	suite.userRepo.On("GetByID", suite.ctx, suite.tenantID, suite.userID).Return(suite.user, nil)
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(suite.tenant, nil)
	suite.expectRoleResolution()

	result, err := suite.service.Authenticate(suite.ctx, suite.user.Email, testPassword, "")
	assert.NoError(suite.T(), err)

	// Deactivating the tenant must cut off refresh, not just fresh logins.
	suite.tenant.IsActive = false

	_, err = suite.service.Refresh(suite.ctx, result.RefreshToken)
	assert.ErrorIs(suite.T(), err, common.ErrTokenInvalid)
}

func (suite *AuthServiceTestSuite) TestRefresh_UnknownTokenInvalid() {
	_, err := suite.service.Refresh(suite.ctx, "never-issued")
	assert.ErrorIs(suite.T(), err, common.ErrTokenInvalid)
}

func (suite *AuthServiceTestSuite) TestValidate_ExpiredToken() {
	// Issue through a service whose access tokens are already expired.
	expiredCfg := suite.jwtCfg
	expiredCfg.AccessTTL = -time.Minute

	rbac := NewRBACService(suite.userRole, suite.rolePerm, suite.roleRepo, suite.cache, stubAudit{})
	tenants := NewTenantService(suite.tenantRepo, suite.userRepo, stubAudit{})
	expiredSvc := NewAuthService(suite.userRepo, tenants, rbac, suite.cache, stubAudit{}, expiredCfg, config.AuthConfig{LoginAttemptLimit: 10, LoginAttemptWindow: time.Minute})

	suite.userRepo.On("FindByEmail", suite.ctx, suite.user.Email).Return(suite.user, nil)
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(suite.tenant, nil)
	suite.expectRoleResolution()

	result, err := expiredSvc.Authenticate(suite.ctx, suite.user.Email, testPassword, "")
	assert.NoError(suite.T(), err)

	_, err = suite.service.Validate(suite.ctx, result.AccessToken)
	assert.ErrorIs(suite.T(), err, common.ErrTokenExpired)
}

func (suite *AuthServiceTestSuite) TestValidate_WrongIssuerInvalid() {
	otherCfg := suite.jwtCfg
	otherCfg.Issuer = "someone-else"

	rbac := NewRBACService(suite.userRole, suite.rolePerm, suite.roleRepo, suite.cache, stubAudit{})
	tenants := NewTenantService(suite.tenantRepo, suite.userRepo, stubAudit{})
	otherSvc := NewAuthService(suite.userRepo, tenants, rbac, suite.cache, stubAudit{}, otherCfg, config.AuthConfig{LoginAttemptLimit: 10, LoginAttemptWindow: time.Minute})

	suite.userRepo.On("FindByEmail", suite.ctx, suite.user.Email).Return(suite.user, nil)
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(suite.tenant, nil)
	suite.expectRoleResolution()

	result, err := otherSvc.Authenticate(suite.ctx, suite.user.Email, testPassword, "")
	assert.NoError(suite.T(), err)

	_, err = suite.service.Validate(suite.ctx, result.AccessToken)
	assert.ErrorIs(suite.T(), err, common.ErrTokenInvalid)
}

func (suite *AuthServiceTestSuite) TestValidate_GarbageInvalid() {
	_, err := suite.service.Validate(suite.ctx, "not.a.token")
	assert.ErrorIs(suite.T(), err, common.ErrTokenInvalid)
}

func (suite *AuthServiceTestSuite) TestSignup_BootstrapsTenantAndAdmin() {
	adminRole := &models.Role{ID: uuid.New(), Name: AdminRole, IsSystemRole: true}
	var createdTenant *models.Tenant
	var createdUser *models.User

	suite.tenantRepo.On("GetBySubdomain", suite.ctx, "newco").Return(nil, common.ErrNotFound)
	suite.tenantRepo.On("Create", suite.ctx, mock.MatchedBy(func(t *models.Tenant) bool {
		createdTenant = t
		return t.Subdomain == "newco"
	})).Return(nil)
	suite.userRepo.On("Create", suite.ctx, mock.MatchedBy(func(u *models.User) bool {
		createdUser = u
		return u.Email == "founder@newco.example.com"
	})).Return(nil)
	suite.roleRepo.On("GetByName", suite.ctx, mock.Anything, AdminRole).Return(adminRole, nil)
	suite.userRole.On("Create", suite.ctx, mock.Anything, mock.Anything).Return(nil)
	suite.userRole.On("ListRolesByUser", suite.ctx, mock.Anything, mock.Anything).
		Return([]*models.Role{adminRole}, nil)
	suite.rolePerm.On("ListPermissionsByRole", suite.ctx, mock.Anything, adminRole.ID).
		Return([]*models.Permission{}, nil)

	result, err := suite.service.Signup(suite.ctx, SignupInput{
		TenantName: "NewCo",
		Subdomain:  "NewCo",
		Email:      "Founder@NewCo.example.com",
		Password:   "a long passphrase",
		FirstName:  "Fay",
		LastName:   "Ounder",
	})
	assert.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), result.AccessToken)
	assert.NotEmpty(suite.T(), result.RefreshToken)
	assert.Equal(suite.T(), []string{AdminRole}, result.User.Roles)

	assert.Equal(suite.T(), defaultSignupSeats, createdTenant.MaxUsers)
	assert.True(suite.T(), createdTenant.IsActive)
	assert.Equal(suite.T(), createdTenant.ID, createdUser.TenantID)
	assert.True(suite.T(), createdUser.IsActive)
	assert.NoError(suite.T(), bcrypt.CompareHashAndPassword([]byte(createdUser.PasswordHash), []byte("a long passphrase")))

	principal, err := suite.service.Validate(suite.ctx, result.AccessToken)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), createdTenant.ID, principal.TenantID)
	assert.Equal(suite.T(), createdUser.ID, principal.UserID)
}

func (suite *AuthServiceTestSuite) TestSignup_DuplicateSubdomain() {
	suite.tenantRepo.On("GetBySubdomain", suite.ctx, "acme").Return(suite.tenant, nil)

	_, err := suite.service.Signup(suite.ctx, SignupInput{
		TenantName: "Acme Again",
		Subdomain:  "acme",
		Email:      "dup@acme.example.com",
		Password:   "a long passphrase",
	})
	assert.ErrorIs(suite.T(), err, common.ErrDuplicate)
	suite.userRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestSignup_InvalidSubdomain() {
	_, err := suite.service.Signup(suite.ctx, SignupInput{
		TenantName: "Bad",
		Subdomain:  "Not A Subdomain!",
		Email:      "bad@example.com",
		Password:   "a long passphrase",
	})
	assert.ErrorIs(suite.T(), err, ErrInvalidSubdomain)
}

func (suite *AuthServiceTestSuite) TestSignup_UserCreateFailureRollsBackTenant() {
	suite.tenantRepo.On("GetBySubdomain", suite.ctx, "newco").Return(nil, common.ErrNotFound)
	suite.tenantRepo.On("Create", suite.ctx, mock.Anything).Return(nil)
	suite.userRepo.On("Create", suite.ctx, mock.Anything).Return(common.ErrDuplicate)
	suite.tenantRepo.On("SoftDelete", suite.ctx, mock.Anything).Return(nil)

	_, err := suite.service.Signup(suite.ctx, SignupInput{
		TenantName: "NewCo",
		Subdomain:  "newco",
		Email:      "taken@example.com",
		Password:   "a long passphrase",
	})
	assert.ErrorIs(suite.T(), err, common.ErrDuplicate)
	suite.tenantRepo.AssertCalled(suite.T(), "SoftDelete", suite.ctx, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestLogout_RevokesRefreshToken() {
	suite.userRepo.On("FindByEmail", suite.ctx, suite.user.Email).Return(suite.user, nil)
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(suite.tenant, nil)
	suite.expectRoleResolution()

	result, err := suite.service.Authenticate(suite.ctx, suite.user.Email, testPassword, "")
	assert.NoError(suite.T(), err)

	assert.NoError(suite.T(), suite.service.Logout(suite.ctx, suite.userID, suite.tenantID))

	_, err = suite.service.Refresh(suite.ctx, result.RefreshToken)
	assert.ErrorIs(suite.T(), err, common.ErrTokenInvalid)
}
