package main

import (
	"fmt"
	"os"

	"github.com/trezcool/dalant/apps/shared"
	"github.com/trezcool/dalant/core"
	emailsvc "github.com/trezcool/dalant/services/email"
	logsvc "github.com/trezcool/dalant/services/logger"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	logger.Enable(!conf.Debug)

	app, err := shared.NewApp(conf, logger, emailsvc.NewConsoleService(conf, logger))
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up app: %v", err), err)
	}

	validate, translator := shared.NewValidator(logger)
	cli := &commandLine{app: app, validate: validate, translator: translator}
	if app.DB != nil {
		cli.db = app.DB.DB
	}

	err = cli.execute(newRootCmd(cli), os.Stderr)
	_ = app.Close()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
