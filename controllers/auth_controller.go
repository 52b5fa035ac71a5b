package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"campuslink/app"
	"campuslink/db"
	"campuslink/models"
	"campuslink/notify"
	"campuslink/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type sendOtpReq struct {
	Email string `json:"email" binding:"required"`
}

type registerReq struct {
	Email    string `json:"email" binding:"required"`
	OTP      string `json:"otp" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=student admin"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// collegeEmailRule matches name@domain, with letters, digits and dots in the name only.
func collegeEmailRule(domain string) *regexp.Regexp {
	return regexp.MustCompile(`^[a-zA-Z0-9.]+@` + regexp.QuoteMeta(domain) + `$`)
}

// POST /api/auth/send-otp
func (s *Srv) SendOtp(c *gin.Context) {
	var req sendOtpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "bad request"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !s.EmailRule.MatchString(email) {
		c.JSON(http.StatusBadRequest, app.H{"error": fmt.Sprintf("please use your official college email ID (@%s)", s.Cfg.CollegeEmailDomain)})
		return
	}

	ctx := c.Request.Context()
	u, err := s.Users.FindUserByEmail(ctx, email)
	switch {
	case err == nil && u.IsVerified:
		c.JSON(http.StatusBadRequest, app.H{"error": db.ErrEmailTaken.Error()})
		return
	case err != nil && !errors.Is(err, db.ErrUserNotFound):
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}

	code, err := session.NewCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}
	if err := s.OTP.Save(ctx, email, code); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}

	if err := s.Notifier.Send(ctx, otpMessage(email, code, s.OTP.TTL().String())); err != nil {
		s.Log.Error("send otp failed", zap.String("recipient", email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "failed to send OTP email"})
		return
	}
	c.JSON(http.StatusOK, app.H{"msg": "OTP sent to your college email address"})
}

func otpMessage(email, code, validFor string) notify.Message {
	return notify.Message{
		To:      email,
		Subject: "CampusLink - Your Registration OTP",
		HTML: `<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">` +
			`<h2 style="color: #007bff;">CampusLink Registration OTP</h2>` +
			`<p>Please use the following One-Time Password to complete your registration:</p>` +
			`<h3 style="font-size: 28px; text-align: center; letter-spacing: 2px;">` + code + `</h3>` +
			`<p>This OTP is valid for <strong>` + validFor + `</strong>. Do not share it with anyone.</p>` +
			`<p>Best regards,<br/>The CampusLink Team</p></div>`,
	}
}

// POST /api/auth/verify-otp-and-register
func (s *Srv) VerifyOtpAndRegister(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "bad request"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	ctx := c.Request.Context()

	stored, err := s.OTP.Load(ctx, email)
	if errors.Is(err, session.ErrOTPNotFound) {
		c.JSON(http.StatusBadRequest, app.H{"error": "OTP expired or invalid, please request a new one"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}
	if err := s.OTP.Attempt(ctx, email); err != nil {
		if errors.Is(err, session.ErrTooManyOTPAttempts) {
			c.JSON(http.StatusTooManyRequests, app.H{"error": "too many attempts, please request a new OTP"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}
	if stored != strings.TrimSpace(req.OTP) {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid OTP"})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	// 管理员只能来自 ADMIN_EMAILS
	if role == models.RoleAdmin && !s.Cfg.IsAdminEmail(email) {
		c.JSON(http.StatusForbidden, app.H{"error": "admin registration is restricted"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.Users.RegisterVerifiedUser(ctx, u); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
			return
		}
		s.Log.Error("register user", zap.String("email", email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}
	s.OTP.Delete(ctx, email)

	token, err := s.issueSession(ctx, c.Writer, u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "session error"})
		return
	}
	c.JSON(http.StatusCreated, app.H{"token": token, "user": u.Public()})
}

// POST /api/auth/login
func (s *Srv) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "bad request"})
		return
	}
	ctx := c.Request.Context()

	u, err := s.Users.FindUserByEmail(ctx, req.Email)
	if errors.Is(err, db.ErrUserNotFound) {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}
	if !u.IsVerified {
		c.JSON(http.StatusBadRequest, app.H{"error": "your email address is not verified"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid credentials"})
		return
	}
	if req.Role != "" && req.Role != u.Role {
		c.JSON(http.StatusForbidden, app.H{"error": fmt.Sprintf("access denied, you are registered as a %s", u.Role)})
		return
	}

	token, err := s.issueSession(ctx, c.Writer, u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "session error"})
		return
	}
	c.JSON(http.StatusOK, app.H{"token": token, "user": u.Public()})
}

// POST /api/auth/logout
func (s *Srv) Logout(c *gin.Context) {
	if token := app.SessionToken(c); token != "" {
		_ = s.AppSess.Delete(c.Request.Context(), token)
	}
	s.setAppCookie(c.Writer, "", -time.Second) // 删除
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/auth/me
func (s *Srv) Me(c *gin.Context) {
	u, err := s.Users.FindUserByID(c.Request.Context(), app.UserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u.Public(), "isAdmin": s.IsAdmin(u)})
}
