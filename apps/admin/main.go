package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/ministry/apps/shared"
	"github.com/trezcool/ministry/core"
	emailsvc "github.com/trezcool/ministry/services/email"
	locksvc "github.com/trezcool/ministry/services/lock"
	"github.com/trezcool/ministry/storage/database"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.NewConfig()
	logger := shared.NewLogger(conf, "ADMIN")
	ctx := context.Background()

	// set up DB
	store, err := database.Open(ctx, conf)
	if err != nil {
		logger.Error(fmt.Sprintf("opening database: %v", err), err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close", err)
		}
	}()

	locker, closeLocker, err := locksvc.NewLocker(ctx, conf, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up locker: %v", err), err)
		return 1
	}
	defer closeLocker()

	// start CLI
	validate, _ := shared.NewValidator()
	cli := commandLine{
		store:      store,
		svcs:       shared.NewServices(conf, store, validate, locker, logger),
		mailSvc:    emailsvc.NewService(conf, logger),
		recipients: conf.ReportRecipients,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		return 1
	}
	return 0
}
