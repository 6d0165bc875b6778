package mysql

import (
	"microfinance-payments/internal/domain/drawdown"
	"microfinance-payments/internal/domain/intent"
	"microfinance-payments/internal/domain/loan"
	"microfinance-payments/internal/domain/schedule"
	"microfinance-payments/internal/domain/transaction"

	"gorm.io/gorm"
)

// Models lists every table owned by this service.
func Models() []any {
	return []any{
		&loan.Loan{},
		&schedule.Item{},
		&transaction.Transaction{},
		&drawdown.GlobalAccount{},
		&drawdown.Entry{},
		&intent.Intent{},
	}
}

func Migrate(db *gorm.DB) error { return db.AutoMigrate(Models()...) }
