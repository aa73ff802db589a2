package handler

import (
	"errors"
	"net/http"
	"strings"

	"netshop/pkg/metrics"
	"netshop/shop-service/internal/app/shop/entity"
	"netshop/shop-service/internal/app/shop/policy"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorKey = "actor"

// JWTClaims - токен выпускает внешний сервис авторизации
type JWTClaims struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	RoleID      int      `json:"role_id"`
	RoleName    string   `json:"role_name"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	jwtSecret string
	adminRole string
	policy    *policy.Policy
}

func NewAuthMiddleware(jwtSecret, adminRole string, p *policy.Policy) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		adminRole: adminRole,
		policy:    p,
	}
}

// Identify определяет актора по Bearer токену. Запрос без заголовка
// Authorization проходит как анонимный, неверный токен - 401.
func (m *AuthMiddleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(actorKey, policy.Anonymous)
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Invalid authorization header format"})
			return
		}

		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(m.jwtSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Invalid or expired token"})
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil || userID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Invalid token claims"})
			return
		}

		c.Set(actorKey, policy.Actor{ID: userID, IsAdmin: claims.RoleName == m.adminRole})
		c.Set("user_id", userID)
		c.Set("role_name", claims.RoleName)

		c.Next()
	}
}

// Authorize - статическая фаза политики для маршрута. Проверку владельца
// выполняет сервис после загрузки записи.
func (m *AuthMiddleware) Authorize(e policy.Entity, action policy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := m.policy.Check(e, action, actorFrom(c)); err != nil {
			reason := "forbidden"
			if errors.Is(err, policy.ErrUnauthenticated) {
				reason = "unauthenticated"
			}
			metrics.RecordAccessDenied(string(e), string(action), reason)
			respondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// actorFrom возвращает актора запроса; без Identify запрос считается анонимным
func actorFrom(c *gin.Context) policy.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(policy.Actor); ok {
			return actor
		}
	}
	return policy.Anonymous
}
