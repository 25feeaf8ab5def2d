// Package di wires the API dependencies with a dig.Container.
package di

import (
	"context"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/coaching/apps/api/echo"
	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/fee"
	"github.com/trezcool/coaching/core/notification"
	"github.com/trezcool/coaching/core/student"
	emailsvc "github.com/trezcool/coaching/services/email"
	logsvc "github.com/trezcool/coaching/services/logger"
	pushsvc "github.com/trezcool/coaching/services/push"
	"github.com/trezcool/coaching/storage/database"
	inmemdb "github.com/trezcool/coaching/storage/database/inmem"
	pgrepos "github.com/trezcool/coaching/storage/database/postgres"
)

// EngineMemory keeps all data in memory (debug runs without Postgres).
const EngineMemory = "memory"

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	repositories struct {
		dig.Out
		Students student.Repository
		Payments fee.Repository
		Tokens   notification.Repository
	}

	serverParams struct {
		dig.In
		Conf            *core.Config
		Logger          core.Logger
		Validate        *validator.Validate
		Translator      ut.Translator
		StudentSvc      student.Service
		FeeSvc          fee.Service
		NotificationSvc notification.Service
		Reminders       *fee.ReminderScheduler
	}
)

func newLogger(conf *core.Config) core.Logger {
	return logsvc.New("API : ", conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.New("DB : ", conf)
}

// newDB returns nil when running on the in-memory engine.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.Engine == EngineMemory {
		return nil
	}
	db, err := database.Setup(context.Background(), conf, loggerParam.Logger)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(db *sqlx.DB) repositories {
	if db == nil {
		mem := inmemdb.Open()
		return repositories{
			Students: inmemdb.NewStudentRepository(mem),
			Payments: inmemdb.NewPaymentRepository(mem),
			Tokens:   inmemdb.NewTokenRepository(mem),
		}
	}
	return repositories{
		Students: pgrepos.NewStudentRepository(db),
		Payments: pgrepos.NewPaymentRepository(db),
		Tokens:   pgrepos.NewTokenRepository(db),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	fee.InitValidators(validate, translator)
	return validate
}

func newPushProvider(conf *core.Config, logger core.Logger) notification.Provider {
	provider, err := pushsvc.New(context.Background(), conf, logger)
	if err != nil {
		// keep serving: dispatches report the provider as not configured
		logger.Error(fmt.Sprintf("setting up push provider: %v", err), err)
		return nil
	}
	return provider
}

func newDispatcher(conf *core.Config, repo notification.Repository, provider notification.Provider, logger core.Logger) *notification.Dispatcher {
	return notification.NewDispatcher(repo, provider, conf.Push.BatchSize, logger)
}

// ReminderMessage is the push notification sent to students whose fee is due.
func ReminderMessage(conf *core.Config) notification.Message {
	return notification.Message{
		Title:       conf.Fees.ReminderTitle,
		Body:        conf.Fees.ReminderBody,
		ClickAction: conf.Fees.ReminderURL,
		Data:        map[string]string{"type": "fee_reminder"},
	}
}

func newReminderScheduler(
	conf *core.Config,
	feeSvc fee.Service,
	stdSvc student.Service,
	dispatcher *notification.Dispatcher,
	logger core.Logger,
) *fee.ReminderScheduler {
	return fee.NewReminderScheduler(feeSvc, stdSvc, dispatcher, ReminderMessage(conf), logger)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(p.Conf, &echoapi.Deps{
		Logger:          p.Logger,
		Validate:        p.Validate,
		Translator:      p.Translator,
		StudentSvc:      p.StudentSvc,
		FeeSvc:          p.FeeSvc,
		NotificationSvc: p.NotificationSvc,
		Reminders:       p.Reminders,
	})
}

// New returns a new dependency injection dig.Container
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newPushProvider))
	must(c.Provide(newDispatcher))
	must(c.Provide(student.NewService))
	must(c.Provide(fee.NewService))
	must(c.Provide(notification.NewService))
	must(c.Provide(newReminderScheduler))
	must(c.Provide(newCron))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
