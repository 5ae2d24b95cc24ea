package middleware

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ourcity/internal/apperr"
	"ourcity/internal/logger"
	"ourcity/internal/models"
	"ourcity/internal/policy"
	"ourcity/internal/services"
)

const CheckUserKey = "user"

// SessionUserKey holds the signed-in user id, as a string, in the session.
const SessionUserKey = "user_id"

// UserResolver turns a session user id into a live user, or nil.
type UserResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CurrentUser returns the user LoadUser attached, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func abort(c *gin.Context, kind apperr.Kind, detail string) {
	status := apperr.Status(kind)
	c.AbortWithStatusJSON(status, gin.H{"status": status, "detail": detail})
}

// LoadUser retrieves the user from the session and sets it on the context.
// Stale sessions (bad id, deleted user) are cleared.
func LoadUser(users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw, _ := session.Get(SessionUserKey).(string)
		if raw == "" {
			c.Next()
			return
		}

		id, err := uuid.Parse(raw)
		var user *models.User
		if err == nil {
			user, err = users.Resolve(c.Request.Context(), id)
			if err != nil {
				logger.Log.WithError(err).Error("load session user")
				abort(c, apperr.Internal, apperr.GenericDetail)
				return
			}
		}
		if user == nil {
			session.Delete(SessionUserKey)
			_ = session.Save()
			c.Next()
			return
		}

		c.Set(CheckUserKey, user)
		c.Set(logger.UserIDKey, user.ID.String())
		c.Next()
	}
}

// AuthRequired rejects anonymous callers with 401.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			abort(c, apperr.Unauthorized, services.MsgUserNotAuthenticated)
			return
		}
		c.Next()
	}
}

// AdminRequired rejects callers that are not administrators. It expects
// AuthRequired to run first.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !policy.CanAdministrate(CurrentUser(c)) {
			abort(c, apperr.Forbidden, services.MsgUnauthorized)
			return
		}
		c.Next()
	}
}

// Recovery turns panics into the generic 500 body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Log.WithField("panic", err).WithField("path", c.Request.URL.Path).Error("handler panicked")
		abort(c, apperr.Internal, apperr.GenericDetail)
	})
}

// Login stores the user id in the session.
func Login(c *gin.Context, id uuid.UUID) error {
	session := sessions.Default(c)
	session.Set(SessionUserKey, id.String())
	return session.Save()
}

// Logout clears the session.
func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}
