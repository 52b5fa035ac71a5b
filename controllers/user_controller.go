package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"campuslink/app"
	"campuslink/config"
	"campuslink/db"
	"campuslink/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserAdminRepo interface {
	ListUsers(ctx context.Context, q string, page, size int) (db.ListUsersResult, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	DeleteUserByID(ctx context.Context, id string) error
}

type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) error
}

type UserController struct {
	repo    UserAdminRepo
	appSess SessionRevoker
	cfg     config.Config
}

func GetUserController(repo UserAdminRepo, appSess SessionRevoker, cfg config.Config) *UserController {
	return &UserController{repo: repo, appSess: appSess, cfg: cfg}
}

// GET /api/users?q=alice&page=1&size=20
func (uc *UserController) ListUsers(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := uc.repo.ListUsers(c.Request.Context(), q, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{
		"total": res.Total,
		"users": res.Users,
	})
}

// GET /api/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil { // 校验 UUID 格式
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	user, err := uc.repo.FindUserByID(c.Request.Context(), id)
	if errors.Is(err, db.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": user})
}

// DELETE /api/users/:id
func (uc *UserController) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "missing id"})
		return
	}

	// 不允许删除自己，避免锁死
	if app.UserID(c) == id {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot delete yourself"})
		return
	}

	target, err := uc.repo.FindUserByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	if target.IsAdmin() || uc.cfg.IsAdminEmail(target.Email) {
		c.JSON(http.StatusForbidden, app.H{"error": "cannot delete an admin"})
		return
	}

	// 会连带删除其失物招领记录
	if err := uc.repo.DeleteUserByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	// 撤销该用户的所有登录会话
	_ = uc.appSess.RevokeAllForUser(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"ok": true})
}
