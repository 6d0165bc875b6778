// Package dbtest opens migrated in-memory sqlite databases for tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"microfinance-payments/internal/adapter/repository/mysql"
	"microfinance-payments/internal/domain/loan"
	"microfinance-payments/internal/domain/schedule"
	infradb "microfinance-payments/internal/infrastructure/db"
	"microfinance-payments/pkg/id"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a fresh database with every table migrated. A single
// connection keeps the in-memory database alive and serializes writers.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	log, _ := test.NewNullLogger()
	db, err := infradb.Open(sqlite.Open(":memory:"), infradb.Pool{MaxOpen: 1, MaxIdle: 1}, log)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := mysql.Migrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// SeedLoan inserts a loan whose outstanding balance equals its principal.
func SeedLoan(t *testing.T, db *gorm.DB, status loan.Status, principal string) *loan.Loan {
	t.Helper()
	p := decimal.RequireFromString(principal)
	l := &loan.Loan{
		LoanID:             id.NewID32(),
		BorrowerID:         id.NewID32(),
		Principal:          p,
		OutstandingBalance: p,
		DrawDownBalance:    decimal.Zero,
		Status:             status,
		StatusUpdatedAt:    time.Now().UTC(),
	}
	if err := mysql.NewLoanRepository(db).Create(context.Background(), l); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return l
}

// SeedItem inserts one unpaid installment; interest is zero so total equals principal.
func SeedItem(t *testing.T, db *gorm.DB, loanID string, due time.Time, total string) *schedule.Item {
	t.Helper()
	amt := decimal.RequireFromString(total)
	it := &schedule.Item{
		ItemID:       id.NewID32(),
		LoanID:       loanID,
		DueDate:      due,
		PrincipalDue: amt,
		InterestDue:  decimal.Zero,
		TotalDue:     amt,
		AmountPaid:   decimal.Zero,
		Status:       schedule.StatusPending,
	}
	if err := mysql.NewScheduleRepository(db).Create(context.Background(), it); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return it
}

// Reload fetches the loan's current row.
func Reload(t *testing.T, db *gorm.DB, loanID string) *loan.Loan {
	t.Helper()
	l, err := mysql.NewLoanRepository(db).GetByLoanID(context.Background(), loanID)
	if err != nil {
		t.Fatalf("reload loan: %v", err)
	}
	return l
}
