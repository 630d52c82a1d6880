package main

import (
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/dalant/apps/shared"
	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/church"
)

var readPasswordFunc = term.ReadPassword // mockable

type commandLine struct {
	app        *shared.App
	db         *sql.DB // nil with the memory engine
	validate   *validator.Validate
	translator ut.Translator
}

func newRootCmd(cli *commandLine) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Dalant administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		cli.migrateCmd(),
		cli.addChurchCmd(),
		cli.addTeacherCmd(),
		cli.resetPasswordCmd(),
		cli.importQuestionsCmd(),
	)
	return root
}

// execute runs the root command and prints a readable error.
func (cli *commandLine) execute(root *cobra.Command, stderr io.Writer) error {
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", describeError(err, cli.translator))
		return err
	}
	return nil
}

func (cli *commandLine) church(cmd *cobra.Command, code string) (church.Church, error) {
	ch, err := cli.app.ChurchSvc.GetByCode(cmd.Context(), code)
	if err != nil {
		return church.Church{}, errors.Wrapf(err, "church %q", church.NormalizeCode(code))
	}
	return ch, nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}

var errEmptyPassword = errors.New("password cannot be empty")

// describeError flattens validation errors into "field: message" pairs.
func describeError(err error, translator ut.Translator) string {
	var msgs []string
	switch cause := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fe := range cause {
			msgs = append(msgs, fe.Field()+": "+fe.Translate(translator))
		}
	case *core.ValidationError:
		for _, fe := range cause.Fields {
			msgs = append(msgs, fe.Field+": "+fe.Error)
		}
	}
	if len(msgs) == 0 {
		return err.Error()
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
