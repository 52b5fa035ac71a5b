package db

import (
	"fmt"

	"campuslink/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectDB(dsn string, log *zap.Logger) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate models: %w", err)
	}
	log.Info("Database connected")
	return conn, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.LostFoundItem{}); err != nil {
		return err
	}

	// 扫描时按类型取全部、列表按时间倒序
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_type_created_desc
	  ON %s (type, created_at DESC);
	`, models.LostFoundTable, models.LostFoundTable)).Error; err != nil {
		return err
	}
	return nil
}
