package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"campuslink/matching"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config 从环境变量（以及可选的 .env）读取
type Config struct {
	Port string

	DatabaseURL string
	RedisAddr   string
	RedisPwd    string

	WebOrigin          string
	SessionTTL         time.Duration
	OTPTTL             time.Duration
	CollegeEmailDomain string
	AdminEmails        []string

	LogLevel  string
	LogFormat string

	Notify NotifyConfig
	Match  MatchConfig

	// Warnings 收集被忽略的配置，logger 初始化后由 main 输出
	Warnings []string
}

type NotifyConfig struct {
	Driver      string // log | smtp | sendgrid | amqp
	FromName    string
	FromEmail   string
	Concurrency int
	Timeout     time.Duration

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string

	SendGridAPIKey string

	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

type MatchConfig struct {
	TextThreshold float64
	AIThreshold   float64
}

// LoadEnv loads .env into the process environment. A missing file is fine.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "config: .env: %v\n", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3001")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campuslink")
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("WEB_ORIGIN", "http://localhost:5173")
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("OTP_TTL_MINUTES", 5)
	v.SetDefault("COLLEGE_EMAIL_DOMAIN", "sece.ac.in")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("NOTIFY_DRIVER", "log")
	v.SetDefault("NOTIFY_FROM_NAME", "CampusLink")
	v.SetDefault("NOTIFY_CONCURRENCY", 4)
	v.SetDefault("NOTIFY_TIMEOUT_SECONDS", 10)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("AMQP_EXCHANGE", "campuslink")
	v.SetDefault("AMQP_ROUTING_KEY", "notifications.email")

	v.SetDefault("MATCH_TEXT_THRESHOLD", matching.DefaultTextThreshold)
	v.SetDefault("MATCH_AI_THRESHOLD", matching.DefaultAIThreshold)
}

// Load builds the Config from the environment.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	dsn := v.GetString("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			v.GetString("DB_HOST"),
			v.GetString("DB_USER"),
			v.GetString("DB_PASSWORD"),
			v.GetString("DB_NAME"),
			v.GetString("DB_PORT"),
		)
	}

	var admins []string
	for _, s := range strings.Split(v.GetString("ADMIN_EMAILS"), ",") {
		if t := strings.TrimSpace(s); t != "" {
			admins = append(admins, strings.ToLower(t))
		}
	}

	fromEmail := v.GetString("NOTIFY_FROM_EMAIL")
	if fromEmail == "" {
		fromEmail = v.GetString("EMAIL_USER")
	}
	concurrency := v.GetInt("NOTIFY_CONCURRENCY")
	if concurrency <= 0 {
		concurrency = 1
	}

	var warnings []string
	textThreshold, w := threshold(v, "MATCH_TEXT_THRESHOLD", matching.DefaultTextThreshold)
	warnings = appendWarning(warnings, w)
	aiThreshold, w := threshold(v, "MATCH_AI_THRESHOLD", matching.DefaultAIThreshold)
	warnings = appendWarning(warnings, w)

	return Config{
		Port:               v.GetString("PORT"),
		DatabaseURL:        dsn,
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPwd:           v.GetString("REDIS_PASSWORD"),
		WebOrigin:          v.GetString("WEB_ORIGIN"),
		SessionTTL:         time.Duration(v.GetInt("SESSION_TTL_HOURS")) * time.Hour,
		OTPTTL:             time.Duration(v.GetInt("OTP_TTL_MINUTES")) * time.Minute,
		CollegeEmailDomain: strings.ToLower(strings.TrimPrefix(v.GetString("COLLEGE_EMAIL_DOMAIN"), "@")),
		AdminEmails:        admins,
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		Notify: NotifyConfig{
			Driver:         strings.ToLower(v.GetString("NOTIFY_DRIVER")),
			FromName:       v.GetString("NOTIFY_FROM_NAME"),
			FromEmail:      fromEmail,
			Concurrency:    concurrency,
			Timeout:        time.Duration(v.GetInt("NOTIFY_TIMEOUT_SECONDS")) * time.Second,
			SMTPHost:       v.GetString("SMTP_HOST"),
			SMTPPort:       v.GetString("SMTP_PORT"),
			SMTPUser:       v.GetString("EMAIL_USER"),
			SMTPPass:       v.GetString("EMAIL_PASS"),
			SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
			AMQPURL:        v.GetString("AMQP_URL"),
			AMQPExchange:   v.GetString("AMQP_EXCHANGE"),
			AMQPRoutingKey: v.GetString("AMQP_ROUTING_KEY"),
		},
		Match: MatchConfig{
			TextThreshold: textThreshold,
			AIThreshold:   aiThreshold,
		},
		Warnings: warnings,
	}
}

// threshold reads a similarity threshold in [0,1]. A malformed or out of
// range value falls back to def and yields a warning.
func threshold(v *viper.Viper, key string, def float64) (float64, string) {
	raw := v.Get(key)
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return def, fmt.Sprintf("%s=%q is not a number, using %v", key, fmt.Sprint(raw), def)
	}
	if math.IsNaN(f) || f < 0 || f > 1 {
		return def, fmt.Sprintf("%s=%v is outside [0,1], using %v", key, f, def)
	}
	return f, ""
}

func appendWarning(ws []string, w string) []string {
	if w == "" {
		return ws
	}
	return append(ws, w)
}

// IsAdminEmail checks the ADMIN_EMAILS allow-list.
func (c Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range c.AdminEmails {
		if a == email {
			return true
		}
	}
	return false
}
