package middleware

import (
	"errors"
	"strings"

	"solera/config"
	"solera/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// Context keys set by AdminAuthMiddleware.
const (
	CtxAdminID    = "adminID"
	CtxAdminEmail = "adminEmail"
)

// AdminAuthMiddleware verifies the identity provider's session token and
// enforces the domain restriction. The token is an HS256 JWT carrying the
// verified {sub, email} of the signed-in admin; the session email must belong
// to the configured allowed domain. Failures are answered with the same
// generic unauthorized body regardless of cause.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, utils.NewUnauthorizedError())
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		id, email, err := parseSessionToken(tokenString)
		if err != nil {
			utils.RespondError(c, utils.NewUnauthorizedError())
			c.Abort()
			return
		}

		if !emailInDomain(email, config.AppConfig.AdminAllowedDomain) {
			utils.RespondError(c, utils.NewUnauthorizedError())
			c.Abort()
			return
		}

		c.Set(CtxAdminID, id)
		c.Set(CtxAdminEmail, email)
		c.Next()
	}
}

// parseSessionToken validates the JWT signature and extracts identity claims.
func parseSessionToken(tokenString string) (id, email string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", "", errors.New("token does not contain a valid 'sub' claim")
	}
	mail, ok := claims["email"].(string)
	if !ok || mail == "" {
		return "", "", errors.New("token does not contain a valid 'email' claim")
	}
	return sub, mail, nil
}

// emailInDomain performs the pure domain-restriction comparison.
func emailInDomain(email, domain string) bool {
	if domain == "" {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return strings.EqualFold(email[at+1:], domain)
}
