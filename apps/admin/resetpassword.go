package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var churchCode, loginID string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Set a teacher's password; the new password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := cli.church(cmd, churchCode)
			if err != nil {
				return err
			}
			t, err := cli.app.TeacherSvc.GetByLoginID(cmd.Context(), ch.ID, loginID)
			if err != nil {
				return err
			}
			pwd, err := promptPassword(cmd, "Enter new password:")
			if err != nil {
				return err
			}
			if _, err = cli.app.TeacherSvc.SetPassword(cmd.Context(), t, pwd); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password of %s updated\n", t.LoginID)
			return nil
		},
	}
	cmd.Flags().StringVar(&churchCode, "church", "", "the church code")
	cmd.Flags().StringVar(&loginID, "login", "", "the teacher login id")
	_ = cmd.MarkFlagRequired("church")
	_ = cmd.MarkFlagRequired("login")
	return cmd
}
