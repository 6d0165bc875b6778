package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	httpadp "microfinance-payments/internal/adapter/http"
	"microfinance-payments/internal/adapter/gateway/mpesa"
	"microfinance-payments/internal/adapter/middleware"
	"microfinance-payments/internal/adapter/repository/mysql"
	"microfinance-payments/internal/config"
	"microfinance-payments/internal/infrastructure/cache"
	"microfinance-payments/internal/infrastructure/db"
	"microfinance-payments/internal/infrastructure/lock"
	"microfinance-payments/internal/infrastructure/scheduler"
	"microfinance-payments/internal/usecase/drawdown"
	"microfinance-payments/internal/usecase/ledger"
	"microfinance-payments/internal/usecase/loan"
	"microfinance-payments/internal/usecase/reconcile"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
	if err != nil {
		log.WithError(err).Fatal("open mysql")
	}
	if err := mysql.Migrate(gdb); err != nil {
		log.WithError(err).Fatal("migrate")
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB, log)
	if err != nil {
		log.WithError(err).Fatal("open redis")
	}
	defer rdb.Close()

	var locks lock.Keyed = lock.NewLocal()
	if cfg.LockBackend == "redis" {
		locks = lock.NewRedis(rdb, cfg.LockTTL, cfg.LockWait, log)
	}

	// repositories
	uow := mysql.NewGormUoW(gdb)
	loans := mysql.NewLoanRepository(gdb)
	schedules := mysql.NewScheduleRepository(gdb)
	txs := mysql.NewTransactionRepository(gdb)

	// usecases
	writer := ledger.NewWriter(uow, locks, log)
	drawDowns := drawdown.NewManager(writer, uow, log)
	loanUC := loan.NewUsecase(loans, schedules, txs)
	gateway := mpesa.NewClient(mpesa.Config{
		BaseURL:        cfg.Mpesa.BaseURL,
		ConsumerKey:    cfg.Mpesa.ConsumerKey,
		ConsumerSecret: cfg.Mpesa.ConsumerSecret,
		ShortCode:      cfg.Mpesa.ShortCode,
		PassKey:        cfg.Mpesa.PassKey,
		CallbackURL:    cfg.Mpesa.CallbackURL,
		Timeout:        cfg.Mpesa.Timeout,
	}, nil, log)
	recon := reconcile.NewService(writer, uow, gateway, cfg.IntentTimeout, log)

	sweep, err := scheduler.NewExpirySweep(cfg.ExpirySweepSpec, recon, 30*time.Second, log)
	if err != nil {
		log.WithError(err).Fatal("expiry sweep")
	}
	sweep.Start()

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover(), echomw.RequestID())

	httpadp.Register(e, httpadp.Handlers{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "mysql", Ping: func(ctx context.Context) error {
				sqlDB, err := gdb.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			}},
			httpadp.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		),
		Loans:    httpadp.NewLoanHandler(loanUC, log),
		Payments: httpadp.NewPaymentHandler(writer, drawDowns, log),
		Mpesa:    httpadp.NewMpesaHandler(recon, log),
	}, middleware.Idempotency(rdb, cfg.IdempotencyTTL(), log))

	go func() {
		addr := ":" + cfg.AppPort
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	sweep.Stop(ctx)
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
