package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
	"github.com/Marga-Ghale/ora-tracker/internal/policy"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/service"
)

var log = logutils.Component("http")

const (
	userIDKey = "userID"
	actorKey  = "actor"
	userKey   = "user"
)

// TokenParser turns a bearer token into a user ID. service.AuthService satisfies it.
type TokenParser interface {
	UserIDFromAccessToken(token string) (string, error)
}

// ActorResolver loads the user behind a token. service.UserService satisfies it.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID string) (*repository.User, policy.Actor, error)
}

// AuthMiddleware validates the JWT, loads the user and stores the policy actor in the context.
func AuthMiddleware(tokens TokenParser, users ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := log.WithField("path", c.Request.URL.Path)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			entry.Debug("missing Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			entry.Debug("invalid Authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		userID, err := tokens.UserIDFromAccessToken(parts[1])
		if err != nil {
			entry.WithError(err).Debug("invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// Roles come from the database on every request, never from the token.
		user, actor, err := users.ResolveActor(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User no longer exists"})
				return
			}
			entry.WithError(err).Error("failed to load user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}

		c.Set(userIDKey, userID)
		c.Set(userKey, user)
		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireAdmin rejects requests from actors without the Administrator role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := RequireActor(c)
		if !ok {
			c.Abort()
			return
		}
		if !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "forbidden",
				"message":  "Administrator access is required.",
				"redirect": "/projects",
			})
			return
		}
		c.Next()
	}
}

// RequestLogger logs all incoming requests with details
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logutils.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}
		if userID := GetUserID(c); userID != "" {
			fields["user"] = userID
		}
		entry := log.WithFields(fields)

		for _, e := range c.Errors {
			entry = entry.WithError(e.Err)
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	}
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetUser returns the authenticated user, or nil.
func GetUser(c *gin.Context) *repository.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*repository.User)
	return u
}

// GetActor returns the policy actor stored by AuthMiddleware.
func GetActor(c *gin.Context) (policy.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return policy.Actor{}, false
	}
	actor, ok := v.(policy.Actor)
	return actor, ok && actor.UserID != ""
}

// RequireActor writes a 401 when no actor is in the context.
func RequireActor(c *gin.Context) (policy.Actor, bool) {
	actor, ok := GetActor(c)
	if !ok {
		log.WithField("path", c.Request.URL.Path).Warn("user not authenticated")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return policy.Actor{}, false
	}
	return actor, true
}
