package middleware

import (
	"crypto/subtle"
	"strings"

	"solera/config"
	"solera/utils"

	"github.com/gin-gonic/gin"
)

// CronAuthMiddleware gates the scheduler-triggered entry points behind the
// shared secret the external cron caller supplies. No work happens before
// this check. Comparison is constant-time so the secret cannot be probed
// byte by byte.
func CronAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := config.AppConfig.CronSecret
		if secret == "" {
			// A deployment without a configured secret must fail closed,
			// not run unauthenticated.
			utils.RespondError(c, utils.NewUnauthorizedError())
			c.Abort()
			return
		}

		presented := c.GetHeader("X-Cron-Secret")
		if presented == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				presented = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			utils.RespondError(c, utils.NewUnauthorizedError())
			c.Abort()
			return
		}
		c.Next()
	}
}
