package main

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/dalant/storage/database"
)

var (
	gooseRunFunc = database.RunMigrations // mockable

	errNoSQLDatabase = errors.New("migrations need the postgres database engine")
)

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run database migrations",
		Long: `Run a goose command against the embedded migrations.

Commands: up, up-by-one, up-to VERSION, down, down-to VERSION, redo, reset, status, version, fix.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.migrate(cli.db, args[0], args[1:]...)
		},
	}
}

func (cli *commandLine) migrate(db *sql.DB, command string, args ...string) error {
	if db == nil {
		return errNoSQLDatabase
	}
	return gooseRunFunc(db, command, args...)
}
