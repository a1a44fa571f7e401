package main

import (
	"context"

	"github.com/trezcool/ministry/storage/database"
)

var migrateFunc = func(ctx context.Context, store *database.Store, command string, args ...string) error { // mockable
	return store.Migrate(ctx, command, args...)
}

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrateFunc(ctx, cli.store, args[0], arguments...)
}
