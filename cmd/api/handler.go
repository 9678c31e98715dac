package api

import (
	"net/http"

	adherenceDelivery "medbs-backend/internal/adherence/delivery"
	adherenceUsecase "medbs-backend/internal/adherence/usecase"
	authDelivery "medbs-backend/internal/auth/delivery"
	authUsecase "medbs-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	authUsecase      authUsecase.AuthUsecase
	adherenceHandler *adherenceDelivery.AdherenceHandler
	deviceHandler    *authDelivery.DeviceHandler
	log              *zap.Logger
}

func NewHandler(authUc authUsecase.AuthUsecase, adherenceUc adherenceUsecase.AdherenceUsecase, log *zap.Logger) *Handler {
	return &Handler{
		authUsecase:      authUc,
		adherenceHandler: adherenceDelivery.NewAdherenceHandler(adherenceUc, log),
		deviceHandler:    authDelivery.NewDeviceHandler(authUc, log),
		log:              log,
	}
}

// Router builds the gin engine with CORS and every route mounted.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.adherenceHandler, h.deviceHandler)
	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("request",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Int("status", c.Writer.Status()))
		}
	}
}
