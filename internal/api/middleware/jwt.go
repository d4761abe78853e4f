package middleware

import (
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by JWTAuth.
const (
	ActorIDKey = "actor_id"
	RoleKey    = "role"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

type JWTConfig struct {
	Secret   string
	Issuer   string // optional
	Audience string // optional
}

func JWTConfigFromEnv() JWTConfig {
	return JWTConfig{
		Secret:   os.Getenv("JWT_SECRET"),
		Issuer:   os.Getenv("JWT_ISSUER"),
		Audience: os.Getenv("JWT_AUDIENCE"),
	}
}

// staffClaims carries the back-office user id in "sub" and the app role
// in app_metadata.role.
type staffClaims struct {
	jwt.RegisteredClaims
	AppMetadata map[string]any `json:"app_metadata"`
}

func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{
				Code:    utils.CodeInternal,
				Message: "JWT_SECRET is not set",
			})
			return
		}

		auth := c.GetHeader("Authorization")
		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if !strings.HasPrefix(auth, "Bearer ") || raw == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		claims := &staffClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return []byte(cfg.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || tok == nil || !tok.Valid {
			unauthorized(c, "invalid token")
			return
		}

		if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
			unauthorized(c, "invalid token issuer")
			return
		}
		if cfg.Audience != "" && !slices.Contains(claims.Audience, cfg.Audience) {
			unauthorized(c, "invalid token audience")
			return
		}

		actorID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil || actorID == 0 {
			unauthorized(c, "invalid subject")
			return
		}

		role := "user"
		if v, ok := claims.AppMetadata["role"].(string); ok && v != "" {
			role = v
		}

		c.Set(ActorIDKey, uint(actorID))
		c.Set(RoleKey, role)
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
		Code:    utils.CodeUnauthorized,
		Message: msg,
	})
}
