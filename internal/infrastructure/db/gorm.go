package db

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

var DefaultPool = Pool{MaxOpen: 30, MaxIdle: 10, MaxLifetime: 30 * time.Minute, MaxIdleTime: 10 * time.Minute}

func OpenGorm(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	return Open(mysql.Open(dsn), DefaultPool, log)
}

// Open turns driver unique violations into gorm.ErrDuplicatedKey, which
// the transaction repository depends on.
func Open(dial gorm.Dialector, p Pool, log *logrus.Logger) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:               logger.Default.LogMode(gormLevel(log)),
		TranslateError:       true,
		DisableAutomaticPing: true,
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(p.MaxOpen)
	sqlDB.SetMaxIdleConns(p.MaxIdle)
	sqlDB.SetConnMaxLifetime(p.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(p.MaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"dialect": dial.Name(), "max_open": p.MaxOpen}).Info("gorm: connected")
	return db, nil
}

// gormLevel follows the service log level; SQL is traced only at debug.
func gormLevel(log *logrus.Logger) logger.LogLevel {
	switch {
	case log.Out == io.Discard:
		return logger.Silent
	case log.IsLevelEnabled(logrus.DebugLevel):
		return logger.Info
	case !log.IsLevelEnabled(logrus.WarnLevel):
		return logger.Error
	default:
		return logger.Warn
	}
}
