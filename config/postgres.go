package config

import (
	"errors"
	"os"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/sirupsen/logrus"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var PostgresDB *gorm.DB

func InitPostgres(l *logrus.Logger) error {
	uri := os.Getenv("POSTGRES_URI")
	if uri == "" {
		return errors.New("POSTGRES_URI environment variable is not set")
	}

	level := logger.Warn
	if l != nil && l.IsLevelEnabled(logrus.DebugLevel) {
		level = logger.Info
	}

	db, err := gorm.Open(pgdriver.Open(uri), &gorm.Config{
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
		Logger: logger.New(l, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	// Connection Pooling settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if os.Getenv("DB_AUTO_MIGRATE") != "false" {
		if err := postgres.AutoMigrate(db); err != nil {
			return err
		}
	}

	PostgresDB = db
	return nil
}
