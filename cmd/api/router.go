package api

import (
	"net/http"

	adherenceDelivery "medbs-backend/internal/adherence/delivery"
	authDelivery "medbs-backend/internal/auth/delivery"
	authUsecase "medbs-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, adherenceHandler *adherenceDelivery.AdherenceHandler, deviceHandler *authDelivery.DeviceHandler) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		protected := api.Group("")
		protected.Use(authDelivery.AuthMiddleware(authUsecase))

		// Dose log routes
		adherenceHandler.RegisterRoutes(protected)

		// Push device routes
		tokens := protected.Group("/notifications/tokens")
		{
			tokens.POST("", deviceHandler.RegisterDevice)
			tokens.DELETE("/:token", deviceHandler.UnregisterDevice)
		}
	}
}
