package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"convocore/internal/caching"
	"convocore/internal/config"
	"convocore/internal/handlers"
	"convocore/internal/jobs"
	"convocore/internal/logger"
	"convocore/internal/middleware"
	"convocore/internal/repositories"
	"convocore/internal/seed"
	"convocore/internal/services"
	"convocore/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.Init(cfg)
	defer logger.L().Sync()

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	cache := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// Repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	roleRepo := repositories.NewRoleRepo(pool)
	permissionRepo := repositories.NewPermissionRepo(pool)
	userRoleRepo := repositories.NewUserRoleRepo(pool)
	rolePermissionRepo := repositories.NewRolePermissionRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	if err := seed.Run(ctx, pool); err != nil {
		logger.L().Fatal("failed to apply seed", zap.Error(err))
	}

	// Services
	auditService := services.NewAuditService(auditRepo)
	rbacService := services.NewRBACService(userRoleRepo, rolePermissionRepo, roleRepo, cache, auditService)
	tenantService := services.NewTenantService(tenantRepo, userRepo, auditService)
	userService := services.NewUserService(userRepo, tenantService, rbacService, auditService)
	authService := services.NewAuthService(userRepo, tenantService, rbacService, cache, auditService, cfg.JWT, cfg.Auth)

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authService, rbacService)
	tenantHandlers := handlers.NewTenantHandlers(tenantService)
	userHandlers := handlers.NewUserHandlers(userService, rbacService)
	roleHandlers := handlers.NewRoleHandlers(rbacService, permissionRepo)
	healthHandlers := handlers.NewHealthHandlers(pool, cache)

	rbacMiddleware := middleware.NewRBACMiddleware(rbacService)

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	e.GET("/health", healthHandlers.Live)
	e.GET("/health/ready", healthHandlers.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)

	protected := v1.Group("")
	protected.Use(middleware.Auth(authService))

	protected.POST("/auth/logout", authHandlers.Logout)
	protected.GET("/auth/me", authHandlers.Me)

	tenants := protected.Group("/tenants")
	tenants.GET("", tenantHandlers.List, rbacMiddleware.RequirePermission("tenants.read"))
	tenants.GET("/:id", tenantHandlers.Get, rbacMiddleware.RequirePermission("tenants.read"))
	tenants.PATCH("/:id", tenantHandlers.Update, rbacMiddleware.RequirePermission("tenants.manage"))
	tenants.POST("/:id/activate", tenantHandlers.Activate, rbacMiddleware.RequirePermission("tenants.manage"))
	tenants.POST("/:id/deactivate", tenantHandlers.Deactivate, rbacMiddleware.RequirePermission("tenants.manage"))
	tenants.DELETE("/:id", tenantHandlers.Delete, rbacMiddleware.RequirePermission("tenants.manage"))

	users := protected.Group("/users")
	users.POST("", userHandlers.Create, rbacMiddleware.RequirePermission("users.write"))
	users.GET("", userHandlers.List, rbacMiddleware.RequirePermission("users.read"))
	users.GET("/:id", userHandlers.Get, rbacMiddleware.RequirePermission("users.read"))
	users.PATCH("/:id", userHandlers.Update, rbacMiddleware.RequirePermission("users.write"))
	users.POST("/:id/deactivate", userHandlers.Deactivate, rbacMiddleware.RequirePermission("users.delete"))
	users.DELETE("/:id", userHandlers.Delete, rbacMiddleware.RequirePermission("users.delete"))
	users.POST("/:id/roles", userHandlers.AssignRole, rbacMiddleware.RequirePermission("roles.write"))
	users.DELETE("/:id/roles/:roleId", userHandlers.RemoveRole, rbacMiddleware.RequirePermission("roles.write"))
	users.GET("/:id/roles", userHandlers.GetRoles, rbacMiddleware.RequirePermission("roles.read"))
	users.GET("/:id/permissions", userHandlers.GetPermissions, rbacMiddleware.RequirePermission("roles.read"))

	roles := protected.Group("/roles")
	roles.POST("", roleHandlers.Create, rbacMiddleware.RequirePermission("roles.write"))
	roles.GET("", roleHandlers.List, rbacMiddleware.RequirePermission("roles.read"))
	roles.POST("/:id/permissions", roleHandlers.GrantPermission, rbacMiddleware.RequirePermission("roles.write"))
	roles.DELETE("/:id/permissions/:permissionId", roleHandlers.RevokePermission, rbacMiddleware.RequirePermission("roles.write"))
	roles.GET("/:id/permissions", roleHandlers.ListPermissions, rbacMiddleware.RequirePermission("roles.read"))

	protected.GET("/permissions", roleHandlers.ListCatalog, rbacMiddleware.RequirePermission("roles.read"))

	// Background jobs
	capacityService := jobs.NewCapacityAlertService(tenantRepo, userRepo)
	scheduler, err := jobs.NewScheduler(capacityService)
	if err != nil {
		logger.L().Fatal("failed to create scheduler", zap.Error(err))
	}
	scheduler.Start()

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.L().Info("shutting down")
	if err := scheduler.Stop(); err != nil {
		logger.L().Error("scheduler shutdown failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("server shutdown failed", zap.Error(err))
	}
}
