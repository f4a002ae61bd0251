package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// orgClaims is the minimum the control plane needs from a token: an opaque
// organization id and a role. Who issues the token and how organizations map
// to users is someone else's problem.
type orgClaims struct {
	OrganizationID string `json:"org"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

const (
	ctxOrgKey  = "auth_org"
	ctxRoleKey = "auth_role"

	ROLE_ADMIN = "admin"
)

// AuthRequired validates the Bearer token and loads the organization id into
// the context.
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		raw := strings.TrimSpace(h[len("Bearer "):])

		claims := &orgClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid || strings.TrimSpace(claims.OrganizationID) == "" {
			RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}

		c.Set(ctxOrgKey, claims.OrganizationID)
		c.Set(ctxRoleKey, claims.Role)
		c.Next()
	}
}

// GetOrganizationLogged returns the organization resolved by AuthRequired.
func GetOrganizationLogged(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxOrgKey)
	if !ok {
		return "", false
	}
	org, _ := v.(string)
	return org, org != ""
}

// Adminizer blocks non-admin roles.
func Adminizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(ctxRoleKey)
		role, _ := v.(string)
		if role != ROLE_ADMIN {
			RespondError(c, "sem acesso", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
