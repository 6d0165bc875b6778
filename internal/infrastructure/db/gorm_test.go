package db

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mockDialector(t *testing.T, pingErr error) (gorm.Dialector, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	mock.ExpectPing().WillReturnError(pingErr)

	return mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), mock
}

func TestOpen_AppliesPoolAndTranslatesErrors(t *testing.T) {
	dial, mock := mockDialector(t, nil)
	log, hook := test.NewNullLogger()

	gdb, err := Open(dial, Pool{MaxOpen: 7, MaxIdle: 2}, log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !gdb.Config.TranslateError {
		t.Fatal("TranslateError must be enabled for duplicate external refs")
	}
	sqlDB, _ := gdb.DB()
	if got := sqlDB.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("MaxOpenConnections = %d, want 7", got)
	}
	if e := hook.LastEntry(); e == nil || e.Data["dialect"] != "mysql" {
		t.Fatalf("connect log entry = %+v", e)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpen_PingFails(t *testing.T) {
	dial, mock := mockDialector(t, errors.New("no ping"))
	log, hook := test.NewNullLogger()

	if _, err := Open(dial, DefaultPool, log); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(hook.AllEntries()) != 0 {
		t.Fatal("failed open must not log a connect entry")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGormLevel(t *testing.T) {
	mk := func(out io.Writer, lvl logrus.Level) *logrus.Logger {
		l := logrus.New()
		l.Out = out
		l.SetLevel(lvl)
		return l
	}
	tests := []struct {
		name string
		log  *logrus.Logger
		want logger.LogLevel
	}{
		{"discarded", mk(io.Discard, logrus.DebugLevel), logger.Silent},
		{"debug", mk(os.Stderr, logrus.DebugLevel), logger.Info},
		{"info", mk(os.Stderr, logrus.InfoLevel), logger.Warn},
		{"error", mk(os.Stderr, logrus.ErrorLevel), logger.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gormLevel(tt.log); got != tt.want {
				t.Fatalf("gormLevel = %v, want %v", got, tt.want)
			}
		})
	}
}
