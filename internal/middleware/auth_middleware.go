package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"spa_backend/internal/models"
	"spa_backend/pkg/utils"
)

const (
	actorKey     = "actor"
	requestIDKey = "requestID"
	// RequestIDHeader is echoed on every response.
	RequestIDHeader = "X-Request-ID"
)

// AuthMiddleware validates the bearer access token and stores the actor in the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required", nil))
			c.Abort()
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid authorization header format. Use Bearer <token>", nil))
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token", nil))
			c.Abort()
			return
		}

		actor := models.Actor{
			Kind:     models.PrincipalKind(claims.Kind),
			ID:       claims.UserID,
			Role:     models.Role(claims.Role),
			Username: claims.Username,
		}
		if !actor.IsCustomer() && !actor.IsStaff() {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid token subject", nil))
			c.Abort()
			return
		}
		if actor.IsCustomer() {
			actor.Role = models.RoleCustomer
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the actor set by AuthMiddleware.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// SetActor is used by tests to bypass token parsing.
func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(actorKey, actor)
}

// RequestID tags each request with an id, reusing the caller's X-Request-ID when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
