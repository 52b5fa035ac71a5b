package app

import (
	"context"
	"net/http"

	"campuslink/models"
	"campuslink/session"

	"github.com/gin-gonic/gin"
)

const (
	AppSessionCookie = "app_session"
	AuthTokenHeader  = "x-auth-token"
)

type SessionReader interface {
	Get(ctx context.Context, id string) (*session.AppSession, error)
	Delete(ctx context.Context, id string) error
	Refresh(ctx context.Context, id, userID string) error
}

type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// SessionToken reads the session id from the cookie, falling back to the
// x-auth-token header.
func SessionToken(c *gin.Context) string {
	if ck, err := c.Request.Cookie(AppSessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	return c.GetHeader(AuthTokenHeader)
}

// IsAdminFunc decides admin status; ADMIN_EMAILS entries count as admins.
type IsAdminFunc func(u *models.User) bool

func AuthRequired(sessions SessionReader, users UserFinder, isAdmin IsAdminFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "no token, authorization denied"})
			return
		}
		as, err := sessions.Get(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}

		// 确认用户仍存在
		u, err := users.FindUserByID(c.Request.Context(), as.UserID)
		if err != nil {
			_ = sessions.Delete(c.Request.Context(), token)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		_ = sessions.Refresh(c.Request.Context(), token, u.ID) // 滑动续期

		c.Set("userID", u.ID)
		c.Set("userEmail", u.Email)
		c.Set("isAdmin", isAdmin(u))
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get("userID"); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if !c.GetBool("isAdmin") {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "admin resources, access denied"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id, "" when absent.
func UserID(c *gin.Context) string { return c.GetString("userID") }
