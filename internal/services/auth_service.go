package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"convocore/internal/caching"
	"convocore/internal/common"
	"convocore/internal/config"
	"convocore/internal/logger"
	"convocore/internal/metrics"
	"convocore/internal/models"
	"convocore/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	refreshKeyPrefix     = "convocore:refresh:"
	userRefreshKeyPrefix = "convocore:user_refresh:"
	loginRateKeyPrefix   = "convocore:login_rate:"
)

// TokenClaims are the claims embedded in every access token. The tenant
// claim is authoritative for the token's lifetime: request scoping never
// consults client-supplied hints after issuance.
type TokenClaims struct {
	UserID      string   `json:"uid"`
	TenantID    string   `json:"tid"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// SignupInput carries a self-service registration: a new tenant and the
// first user inside it.
type SignupInput struct {
	TenantName string
	Subdomain  string
	MaxUsers   int
	Email      string
	Password   string
	FirstName  string
	LastName   string
}

// defaultSignupSeats is the seat allowance a self-registered tenant starts
// with until provisioning raises it.
const defaultSignupSeats = 5

type AuthService interface {
	// Authenticate verifies credentials and issues a token pair. The
	// optional tenantHint (a subdomain) selects which tenant's user row is
	// authenticated; it is never trusted after this call. Every failure
	// mode returns the same ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password, tenantHint string) (*models.AuthResult, error)
	// Signup provisions a new tenant together with its first user, grants
	// that user the admin role, and issues an initial token pair. It is
	// the only way a fresh deployment mints its first credentials.
	Signup(ctx context.Context, input SignupInput) (*models.AuthResult, error)
	// Refresh rotates a refresh token: the presented token is atomically
	// consumed, so a replayed token always fails.
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResult, error)
	Validate(ctx context.Context, accessToken string) (*common.Principal, error)
	Logout(ctx context.Context, userID, tenantID uuid.UUID) error
}

type authService struct {
	userRepo repositories.UserRepository
	tenants  TenantService
	rbac     RBACService
	cache    caching.CacheService
	audit    AuditService
	jwtCfg   config.JWTConfig
	authCfg  config.AuthConfig
}

func NewAuthService(
	userRepo repositories.UserRepository,
	tenants TenantService,
	rbac RBACService,
	cache caching.CacheService,
	audit AuditService,
	jwtCfg config.JWTConfig,
	authCfg config.AuthConfig,
) AuthService {
	return &authService{
		userRepo: userRepo,
		tenants:  tenants,
		rbac:     rbac,
		cache:    cache,
		audit:    audit,
		jwtCfg:   jwtCfg,
		authCfg:  authCfg,
	}
}

func (s *authService) Authenticate(ctx context.Context, email, password, tenantHint string) (*models.AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	limited, err := s.cache.IsRateLimited(ctx, loginRateKeyPrefix+email, s.authCfg.LoginAttemptLimit, s.authCfg.LoginAttemptWindow)
	if err != nil {
		logger.L().Warn("login rate limiter unavailable", zap.Error(err))
	}
	if limited {
		metrics.LoginAttempts.WithLabelValues("throttled").Inc()
		return nil, common.ErrInvalidCredentials
	}

	user, err := s.lookupUser(ctx, email, tenantHint)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, common.ErrInvalidCredentials
	}

	tenant, err := s.tenants.GetByID(ctx, user.TenantID)
	if err != nil || !tenant.IsActive || !user.IsActive {
		s.recordLogin(ctx, user, models.AuditLoginFailed)
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, common.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordLogin(ctx, user, models.AuditLoginFailed)
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, common.ErrInvalidCredentials
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recordLogin(ctx, user, models.AuditLoginSucceeded)
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return result, nil
}

// lookupUser resolves the user row being authenticated. With a hint the
// lookup is scoped to that tenant; without one the globally unique email
// identifies the row directly.
func (s *authService) lookupUser(ctx context.Context, email, tenantHint string) (*models.User, error) {
	if tenantHint != "" {
		tenant, err := s.tenants.GetBySubdomain(ctx, tenantHint)
		if err != nil {
			return nil, err
		}
		return s.userRepo.GetByEmail(ctx, tenant.ID, email)
	}
	return s.userRepo.FindByEmail(ctx, email)
}

func (s *authService) Signup(ctx context.Context, input SignupInput) (*models.AuthResult, error) {
	seats := input.MaxUsers
	if seats <= 0 {
		seats = defaultSignupSeats
	}
	tenant := &models.Tenant{
		Name:      input.TenantName,
		Subdomain: input.Subdomain,
		MaxUsers:  seats,
		IsActive:  true,
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// A tenant without its owning user is unusable; take it back out.
		if delErr := s.tenants.Delete(ctx, tenant.ID); delErr != nil {
			logger.L().Warn("signup tenant rollback failed", zap.Error(delErr))
		}
		return nil, err
	}

	if err := s.rbac.AssignRoleByName(ctx, tenant.ID, user.ID, AdminRole); err != nil {
		return nil, err
	}

	actorID := user.ID
	entityID := user.ID.String()
	s.audit.Record(ctx, &models.AuditEvent{
		TenantID:   tenant.ID,
		ActorID:    &actorID,
		Action:     models.AuditUserCreated,
		EntityType: "user",
		EntityID:   &entityID,
	})

	return s.issueTokens(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResult, error) {
	hash := hashToken(refreshToken)

	// GETDEL makes the claim atomic: of two concurrent refreshes with the
	// same token, exactly one sees the value.
	stored, err := s.cache.GetDel(ctx, refreshKeyPrefix+hash)
	if err != nil {
		return nil, err
	}
	if stored == "" {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return nil, common.ErrTokenInvalid
	}

	userID, tenantID, expiry, err := parseRefreshRecord(stored)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return nil, common.ErrTokenInvalid
	}
	if time.Now().After(expiry) {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return nil, common.ErrTokenExpired
	}

	// Deactivating a tenant cuts off refresh too, not just fresh logins.
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil || !tenant.IsActive {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return nil, common.ErrTokenInvalid
	}

	user, err := s.userRepo.GetByID(ctx, tenantID, userID)
	if err != nil || !user.IsActive {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return nil, common.ErrTokenInvalid
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recordLogin(ctx, user, models.AuditTokenRefreshed)
	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	return result, nil
}

func (s *authService) Validate(ctx context.Context, accessToken string) (*common.Principal, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtCfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.jwtCfg.Issuer),
		jwt.WithAudience(s.jwtCfg.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		metrics.TokenValidations.WithLabelValues("failure").Inc()
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		metrics.TokenValidations.WithLabelValues("failure").Inc()
		return nil, common.ErrTokenInvalid
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		metrics.TokenValidations.WithLabelValues("failure").Inc()
		return nil, common.ErrTokenInvalid
	}

	metrics.TokenValidations.WithLabelValues("success").Inc()
	return &common.Principal{
		UserID:      userID,
		TenantID:    tenantID,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
	}, nil
}

func (s *authService) Logout(ctx context.Context, userID, tenantID uuid.UUID) error {
	hash, err := s.cache.GetDel(ctx, userRefreshKeyPrefix+userID.String())
	if err != nil {
		return err
	}
	if hash != "" {
		if err := s.cache.Delete(ctx, refreshKeyPrefix+hash); err != nil {
			return err
		}
	}

	actorID := userID
	entityID := userID.String()
	s.audit.Record(ctx, &models.AuditEvent{
		TenantID:   tenantID,
		ActorID:    &actorID,
		Action:     models.AuditLogout,
		EntityType: "user",
		EntityID:   &entityID,
	})
	return nil
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*models.AuthResult, error) {
	roles, err := s.rbac.GetUserRoles(ctx, user.TenantID, user.ID)
	if err != nil {
		return nil, err
	}
	perms, err := s.rbac.GetUserPermissions(ctx, user.TenantID, user.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtCfg.AccessTTL)
	claims := &TokenClaims{
		UserID:      user.ID.String(),
		TenantID:    user.TenantID.String(),
		Roles:       roles,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtCfg.Issuer,
			Audience:  jwt.ClaimStrings{s.jwtCfg.Audience},
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return nil, err
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, user, refreshToken, now.Add(s.jwtCfg.RefreshTTL)); err != nil {
		return nil, err
	}

	return &models.AuthResult{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
		ExpiresIn:    int(s.jwtCfg.AccessTTL.Seconds()),
		RefreshToken: refreshToken,
		User: &models.UserInfo{
			ID:          user.ID,
			TenantID:    user.TenantID,
			Email:       user.Email,
			FirstName:   user.FirstName,
			LastName:    user.LastName,
			Roles:       roles,
			Permissions: perms,
		},
	}, nil
}

// storeRefreshToken persists the hashed token and a per-user pointer to it.
// The pointer keeps a single refresh token live per user: issuing a new one
// revokes whatever was outstanding.
func (s *authService) storeRefreshToken(ctx context.Context, user *models.User, token string, expiry time.Time) error {
	previous, err := s.cache.GetDel(ctx, userRefreshKeyPrefix+user.ID.String())
	if err != nil {
		return err
	}
	if previous != "" {
		if err := s.cache.Delete(ctx, refreshKeyPrefix+previous); err != nil {
			return err
		}
	}

	hash := hashToken(token)
	record := fmt.Sprintf("%s:%s:%d", user.ID, user.TenantID, expiry.Unix())
	ttl := time.Until(expiry)
	if err := s.cache.SetString(ctx, refreshKeyPrefix+hash, record, ttl); err != nil {
		return err
	}
	return s.cache.SetString(ctx, userRefreshKeyPrefix+user.ID.String(), hash, ttl)
}

func (s *authService) recordLogin(ctx context.Context, user *models.User, action string) {
	actorID := user.ID
	entityID := user.ID.String()
	s.audit.Record(ctx, &models.AuditEvent{
		TenantID:   user.TenantID,
		ActorID:    &actorID,
		Action:     action,
		EntityType: "user",
		EntityID:   &entityID,
	})
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func parseRefreshRecord(record string) (userID, tenantID uuid.UUID, expiry time.Time, err error) {
	parts := strings.Split(record, ":")
	if len(parts) != 3 {
		return uuid.Nil, uuid.Nil, time.Time{}, common.ErrTokenInvalid
	}
	userID, err = uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, err
	}
	tenantID, err = uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, err
	}
	unix, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, err
	}
	return userID, tenantID, time.Unix(unix, 0), nil
}
