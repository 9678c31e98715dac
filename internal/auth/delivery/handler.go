package delivery

import (
	"net/http"

	authdto "medbs-backend/internal/auth/dto"
	"medbs-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeviceHandler handles push device registration
type DeviceHandler struct {
	authUsecase usecase.AuthUsecase
	log         *zap.Logger
}

func NewDeviceHandler(authUsecase usecase.AuthUsecase, log *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		authUsecase: authUsecase,
		log:         log.Named("device_handler"),
	}
}

// RegisterDevice stores an FCM token for the caller
// POST /api/notifications/tokens
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	userID := c.GetString("userID")

	var req authdto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.RegisterDevice(c.Request.Context(), userID, req.Token, req.DeviceInfo); err != nil {
		h.log.Error("register device", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device registered"})
}

// UnregisterDevice removes one of the caller's FCM tokens
// DELETE /api/notifications/tokens/:token
func (h *DeviceHandler) UnregisterDevice(c *gin.Context) {
	userID := c.GetString("userID")
	token := c.Param("token")

	if err := h.authUsecase.UnregisterDevice(c.Request.Context(), userID, token); err != nil {
		h.log.Error("unregister device", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unregister device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device unregistered"})
}
