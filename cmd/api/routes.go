package main

import (
	"database/sql"
	"net/http"
	"time"

	"agency-platform/internal/httpapi"
	"agency-platform/internal/rbac"
	"agency-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type deps struct {
	handlers httpapi.Handlers
	authMW   gin.HandlerFunc
	submitMW gin.HandlerFunc
	healthz  gin.HandlerFunc
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, d deps) {
	r.GET("/healthz", d.healthz)

	api := r.Group("/api")

	// public: the contact form submits here, rate limited per client IP
	api.POST("/inquiries", d.submitMW, d.handlers.CreateInquiry)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", d.handlers.Login)
		authGroup.POST("/refresh", d.handlers.Refresh)
	}

	// admin back office
	admin := api.Group("")
	admin.Use(d.authMW)
	{
		inquiries := admin.Group("/inquiries")
		{
			anyStaff := rbac.RequireAnyRole(rbac.RoleManager, rbac.RoleStaff)

			inquiries.GET("", anyStaff, d.handlers.ListInquiries)
			inquiries.GET("/summary", rbac.RequireAnyRole(rbac.RoleManager), d.handlers.InquirySummary)
			inquiries.GET("/:id", anyStaff, d.handlers.GetInquiry)
			inquiries.PATCH("/:id", anyStaff, d.handlers.UpdateInquiry)
			inquiries.POST("/:id/respond", anyStaff, d.handlers.RespondInquiry)

			// destructive delete is admin-only
			inquiries.DELETE("/:id", rbac.RequireAnyRole(), d.handlers.DeleteInquiry)
		}
	}
}

// healthz pings the backing stores with a short timeout.
func healthz(db *sql.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := utils.HealthCheck(ctx, db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
