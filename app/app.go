package app

import (
	"context"
	"time"

	"campuslink/config"
	"campuslink/db"
	"campuslink/logger"
	"campuslink/lostfound"
	"campuslink/matching"
	"campuslink/metrics"
	"campuslink/notify"
	"campuslink/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config config.Config
	Log    *zap.Logger

	Repo      *db.Repo
	Notifier  notify.Channel
	LostFound *lostfound.Service

	appSess     *session.AppSessionStore
	otps        *session.OTPStore
	closeNotify func() error
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }
func (a *App) OTPs() *session.OTPStore               { return a.otps }

func MustNew(cfg config.Config) *App {
	log := logger.Get()

	// --- DB: Postgres ---
	dbConn, err := db.ConnectDB(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis", zap.Error(err), zap.String("addr", cfg.RedisAddr))
	}

	// --- Notifications ---
	channel, closeNotify, err := notify.New(cfg.Notify, logger.Named("notify"))
	if err != nil {
		log.Fatal("notification channel", zap.Error(err))
	}
	log.Info("notification channel ready", zap.String("driver", cfg.Notify.Driver))

	repo := db.NewRepo(dbConn)
	policy := matching.Policy{TextThreshold: cfg.Match.TextThreshold, AIThreshold: cfg.Match.AIThreshold}
	dispatcher := lostfound.NewDispatcher(channel, cfg.Notify.Concurrency, cfg.Notify.Timeout, logger.Named("dispatcher"))

	metrics.Register()

	// --- Gin ---
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(logger.Named("http")))
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router: r, DB: dbConn, RDB: rdb, Config: cfg, Log: log,
		Repo:        repo,
		Notifier:    channel,
		LostFound:   lostfound.NewService(repo, policy, dispatcher, logger.Named("lostfound")),
		appSess:     session.NewAppSessionStore(rdb, cfg.SessionTTL),
		otps:        session.NewOTPStore(rdb, cfg.OTPTTL),
		closeNotify: closeNotify,
	}
}

func (a *App) Close() {
	if a.closeNotify != nil {
		_ = a.closeNotify()
	}
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
