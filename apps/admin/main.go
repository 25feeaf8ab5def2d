package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/coaching/apps/api/di"
	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/fee"
	"github.com/trezcool/coaching/core/notification"
	"github.com/trezcool/coaching/core/student"
	emailsvc "github.com/trezcool/coaching/services/email"
	logsvc "github.com/trezcool/coaching/services/logger"
	pushsvc "github.com/trezcool/coaching/services/push"
	"github.com/trezcool/coaching/storage/database"
	pgrepos "github.com/trezcool/coaching/storage/database/postgres"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New("ADMIN : ", conf)
	ctx := context.Background()

	// set up DB
	db, err := database.Open(ctx, conf)
	errAndDie(logger, err)
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	provider, err := pushsvc.New(ctx, conf, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up push provider: %v", err), err)
	}

	stdSvc := student.NewService(pgrepos.NewStudentRepository(db))
	feeSvc := fee.NewService(pgrepos.NewPaymentRepository(db), stdSvc, mailSvc, logger)
	dispatcher := notification.NewDispatcher(pgrepos.NewTokenRepository(db), provider, conf.Push.BatchSize, logger)

	// start CLI
	cli := commandLine{
		conf:      conf,
		db:        db.DB,
		logger:    logger,
		notifSvc:  notification.NewService(pgrepos.NewTokenRepository(db), dispatcher, stdSvc, logger),
		reminders: fee.NewReminderScheduler(feeSvc, stdSvc, dispatcher, di.ReminderMessage(conf), logger),
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
