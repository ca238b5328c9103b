package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "convocore_login_attempts_total",
		Help: "Login attempts partitioned by result.",
	}, []string{"result"})

	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "convocore_token_refreshes_total",
		Help: "Refresh-token rotations partitioned by result.",
	}, []string{"result"})

	TokenValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "convocore_token_validations_total",
		Help: "Access-token validations partitioned by result.",
	}, []string{"result"})

	PermissionChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "convocore_permission_checks_total",
		Help: "Permission checks partitioned by outcome.",
	}, []string{"result"})
)
