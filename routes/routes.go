package routes

import (
	"net/http"
	"time"

	"campuslink/app"
	"campuslink/controllers"
	"campuslink/metrics"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	uc := controllers.GetUserController(a.Repo, a.AppSessions(), a.Config)
	lf := controllers.NewLostFoundController(a.LostFound, a.Repo)

	// 复用的中间件
	authMW := app.AuthRequired(a.AppSessions(), a.Repo, s.IsAdmin)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(a.Repo, a.RDB, 5*time.Minute)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })
	r.GET("/metrics", metrics.Handler())

	// ------------------------------
	// 账号：OTP 注册 / 登录
	// ------------------------------
	auth := r.Group("/api/auth")
	{
		auth.POST("/send-otp", s.SendOtp)
		auth.POST("/verify-otp-and-register", s.VerifyOtpAndRegister)
		auth.POST("/login", s.Login)
	}
	authed := auth.Group("", authMW, seenMW)
	{
		authed.GET("/me", s.Me)
		authed.POST("/logout", s.Logout)
	}

	// ------------------------------
	// 失物招领
	// ------------------------------
	r.GET("/api/lost-and-found", lf.List)
	items := r.Group("/api/lost-and-found", authMW, seenMW)
	{
		items.GET("/mine", lf.Mine)
		items.POST("", lf.Create)
		items.PUT("/:id", lf.Update)
		items.DELETE("/:id", lf.Delete)
	}

	// ------------------------------
	// 用户管理（仅管理员）
	// ------------------------------
	users := r.Group("/api/users", authMW, adminMW)
	{
		users.GET("", uc.ListUsers)   // ?q=&page=&size=
		users.GET("/:id", uc.GetUser) // 精确查单个
		users.DELETE("/:id", uc.DeleteUser)
	}
}
