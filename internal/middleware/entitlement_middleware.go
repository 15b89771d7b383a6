package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parkgate/parkgate/internal/helpers"
)

// EntitlementMiddleware gates virtual-queue routes behind the enterprise
// entitlement. The predicate is opaque to us; today it is a config flag,
// tomorrow it may ask a billing service.
func EntitlementMiddleware(entitled func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !entitled() {
			helpers.RespondWithError(c, http.StatusForbidden, "Virtual queue requires an enterprise plan.")
			c.Abort()
			return
		}
		c.Next()
	}
}
