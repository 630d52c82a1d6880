package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (cli *commandLine) importQuestionsCmd() *cobra.Command {
	var churchCode string
	cmd := &cobra.Command{
		Use:   "importquestions FILE",
		Short: "Import quiz questions from a YAML file",
		Long: `Import quiz questions from a YAML file, either a list or a document with a "questions" list:

  questions:
    - prompt: "Who built the ark?"
      answer: "Noah"
      reference: "Gen 6:14"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := cli.church(cmd, churchCode)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "opening question file")
			}
			defer f.Close()

			n, err := cli.app.QuizSvc.Import(cmd.Context(), ch.ID, f, cli.validate)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d questions imported into %s\n", n, ch.Code)
			return nil
		},
	}
	cmd.Flags().StringVar(&churchCode, "church", "", "the church code")
	_ = cmd.MarkFlagRequired("church")
	return cmd
}
