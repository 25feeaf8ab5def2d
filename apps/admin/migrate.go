package main

import (
	"github.com/trezcool/coaching/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	if err := database.InitMigrations(cli.logger); err != nil {
		return err
	}
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}
