package main

import (
	"context"
	"log"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/transfer"
	auditsvc "github.com/trezcool/shule/services/audit"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	notifsvc "github.com/trezcool/shule/services/notification"
	"github.com/trezcool/shule/storage/database"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

func main() {
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile), core.Conf)
	logger.Enable(!core.Conf.Debug)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lshortfile), core.Conf)
	defer dbLogger.Close()

	if err := run(logger, dbLogger); err != nil {
		logger.Fatal("error", "error", err)
	}
}

func run(logger, dbLogger core.Logger) error {
	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return errors.Wrap(err, "creating database")
	}
	db, err := database.Open(core.Conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() {
		dbLogger.Info("closing database connection", "host", core.Conf.Database.Host)
		_ = db.Close()
	}()
	if err = database.Migrate(db.DB); err != nil {
		return errors.Wrap(err, "migrating database")
	}

	// set up services
	var emailSvc core.EmailService
	if core.Conf.Debug {
		emailSvc = emailsvc.NewConsoleService()
	} else {
		emailSvc = emailsvc.NewSendgridService(logger)
	}
	notifier := notifsvc.NewEmailSink(emailSvc, mail.Address{Name: "School Office", Address: "office@shule.cd"})
	audit := auditsvc.NewLogSink(logger)

	transferSvc := transfer.NewService(
		db,
		sqlxrepos.NewTransferRepository(db),
		sqlxrepos.NewLedgerRepository(db),
		sqlxrepos.NewHistoryRepository(db),
		sqlxrepos.NewMemberRepository(db),
		sqlxrepos.NewDirectory(db),
		notifier,
		audit,
		logger,
	)

	// start server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	server := echoapi.NewServer(&echoapi.Options{
		Address:     core.Conf.Server.Address(),
		Logger:      logger,
		TransferSvc: transferSvc,
		MemberRepo:  sqlxrepos.NewMemberRepository(db),
		SignalShutdown: func() {
			shutdown <- syscall.SIGTERM
		},
	})
	go func() {
		logger.Info("server listening", "address", core.Conf.Server.Address())
		serverErrors <- server.Start()
	}()

	// await shutdown
	select {
	case err := <-serverErrors:
		return errors.Wrap(err, "server error")
	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
	}
	return nil
}
