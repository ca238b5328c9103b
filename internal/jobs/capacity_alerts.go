package jobs

import (
	"context"

	"convocore/internal/logger"
	"convocore/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// alertThreshold is the fraction of max_users at which a tenant is
// considered close to capacity.
const alertThreshold = 0.9

type CapacityAlertService struct {
	tenantRepo repositories.TenantRepository
	userRepo   repositories.UserRepository
}

type CapacityAlert struct {
	TenantID    uuid.UUID
	TenantName  string
	ActiveUsers int
	MaxUsers    int
}

func NewCapacityAlertService(tenantRepo repositories.TenantRepository, userRepo repositories.UserRepository) *CapacityAlertService {
	return &CapacityAlertService{
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
	}
}

// CheckTenantCapacity returns the tenants at or above the alert threshold.
func (s *CapacityAlertService) CheckTenantCapacity(ctx context.Context) ([]CapacityAlert, error) {
	tenants, err := s.tenantRepo.List(ctx, 1000, 0)
	if err != nil {
		return nil, err
	}

	var alerts []CapacityAlert
	for _, tenant := range tenants {
		if !tenant.IsActive || tenant.MaxUsers <= 0 {
			continue
		}

		count, err := s.userRepo.CountActive(ctx, tenant.ID)
		if err != nil {
			logger.L().Warn("capacity check failed for tenant",
				zap.String("tenant_id", tenant.ID.String()),
				zap.Error(err))
			continue
		}

		if float64(count) >= alertThreshold*float64(tenant.MaxUsers) {
			alerts = append(alerts, CapacityAlert{
				TenantID:    tenant.ID,
				TenantName:  tenant.Name,
				ActiveUsers: count,
				MaxUsers:    tenant.MaxUsers,
			})
		}
	}

	return alerts, nil
}

// Sweep is the scheduled entrypoint: it logs every tenant close to its
// seat cap so provisioning can raise it before user creation starts
// failing.
func (s *CapacityAlertService) Sweep(ctx context.Context) error {
	alerts, err := s.CheckTenantCapacity(ctx)
	if err != nil {
		logger.L().Error("capacity sweep failed", zap.Error(err))
		return err
	}

	for _, alert := range alerts {
		logger.L().Warn("tenant near user capacity",
			zap.String("tenant_id", alert.TenantID.String()),
			zap.String("tenant", alert.TenantName),
			zap.Int("active_users", alert.ActiveUsers),
			zap.Int("max_users", alert.MaxUsers))
	}

	logger.L().Info("capacity sweep completed", zap.Int("alerts", len(alerts)))
	return nil
}
