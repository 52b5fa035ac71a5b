// controllers/srv.go
package controllers

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"campuslink/app"
	"campuslink/config"
	"campuslink/logger"
	"campuslink/models"
	"campuslink/notify"
	"campuslink/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserStore is the account side of the repository.
type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	RegisterVerifiedUser(ctx context.Context, u *models.User) error
}

type Srv struct {
	Users    UserStore
	AppSess  *session.AppSessionStore
	OTP      *session.OTPStore
	Notifier notify.Channel
	Cfg      config.Config
	Log      *zap.Logger

	EmailRule *regexp.Regexp
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Users:    a.Repo,
		AppSess:  a.AppSessions(),
		OTP:      a.OTPs(),
		Notifier: a.Notifier,
		Cfg:      a.Config,
		Log:      logger.Named("auth"),

		EmailRule: collegeEmailRule(a.Config.CollegeEmailDomain),
	}
}

// IsAdmin 角色为 admin 或邮箱在 ADMIN_EMAILS 中
func (s *Srv) IsAdmin(u *models.User) bool {
	return u.IsAdmin() || s.Cfg.IsAdminEmail(u.Email)
}

// --- helpers ---

// 统一设置业务会话 Cookie
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.Cfg.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

// 登录成功：创建会话，返回 token（同时写入 Cookie）
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, u *models.User) (string, error) {
	id := uuid.NewString()
	if err := s.AppSess.Create(ctx, id, u.ID, u.Role); err != nil {
		return "", err
	}
	s.setAppCookie(w, id, s.AppSess.TTL())
	return id, nil
}
