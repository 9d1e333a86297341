package middleware

import (
	"quickpoll/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	deviceHeader = "X-Device-Fingerprint"
	deviceCookie = "qp_device"

	deviceCookieMaxAge = 60 * 60 * 24 * 365
)

// DeviceMiddleware reads the client's device fingerprint from the header or
// cookie and mirrors it into the request context. It never mints a new
// fingerprint itself; issuing one is the device endpoint's job.
func DeviceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		fingerprint := c.GetHeader(deviceHeader)
		if fingerprint == "" {
			if cookie, err := c.Cookie(deviceCookie); err == nil {
				fingerprint = cookie
			}
		}

		if fingerprint != "" {
			ctx := services.WithDeviceContext(c.Request.Context(), fingerprint)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// SetDeviceCookie persists the fingerprint client-side so later visits reuse
// the same anonymous identity.
func SetDeviceCookie(c *gin.Context, fingerprint string) {
	c.SetCookie(deviceCookie, fingerprint, deviceCookieMaxAge, "/", "", false, true)
}
