package handler

import (
	"net/http"

	"quickpoll/internal/middleware"
	"quickpoll/internal/services"
	"quickpoll/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// DeviceHandler manages anonymous device identities.
type DeviceHandler struct {
	service *services.IdentityService
}

func NewDeviceHandler(service *services.IdentityService) *DeviceHandler {
	return &DeviceHandler{service: service}
}

// Ensure issues a fingerprint on first contact and reuses the stored device
// afterwards. Calling it repeatedly with the same fingerprint is a no-op.
func (h *DeviceHandler) Ensure(c *gin.Context) {
	fingerprint, _ := services.DeviceFromContext(c.Request.Context())

	d, err := h.service.EnsureDevice(c.Request.Context(), fingerprint)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetDeviceCookie(c, d.Fingerprint)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.DeviceResponse{
		Fingerprint: d.Fingerprint,
		DisplayName: d.DisplayName,
	}))
}

// ClaimName stores the anonymous voter's display name on the device.
func (h *DeviceHandler) ClaimName(c *gin.Context) {
	var req httpdto.ClaimNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	fingerprint, _ := services.DeviceFromContext(c.Request.Context())

	d, err := h.service.ClaimDisplayName(c.Request.Context(), fingerprint, req.DisplayName)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetDeviceCookie(c, d.Fingerprint)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.DeviceResponse{
		Fingerprint: d.Fingerprint,
		DisplayName: d.DisplayName,
	}))
}
