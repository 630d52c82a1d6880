package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trezcool/dalant/core/teacher"
)

func (cli *commandLine) addTeacherCmd() *cobra.Command {
	var (
		churchCode string
		nt         teacher.NewTeacher
	)
	cmd := &cobra.Command{
		Use:   "addteacher",
		Short: "Create a teacher account; the password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := cli.church(cmd, churchCode)
			if err != nil {
				return err
			}
			pwd, err := promptPassword(cmd, "Enter password:")
			if err != nil {
				return err
			}
			nt.ChurchID = ch.ID
			nt.Password = pwd
			nt.PasswordConfirm = pwd

			t, err := cli.addTeacher(cmd, nt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "teacher %s created: %s\n", t.LoginID, t.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&churchCode, "church", "", "the church code")
	cmd.Flags().StringVar(&nt.LoginID, "login", "", "the teacher login id")
	cmd.Flags().StringVar(&nt.Name, "name", "", "the teacher name")
	cmd.Flags().StringVar(&nt.Email, "email", "", "the teacher email, used for password resets")
	cmd.Flags().BoolVar(&nt.IsAdmin, "admin", false, "whether the teacher manages the church")
	_ = cmd.MarkFlagRequired("church")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (cli *commandLine) addTeacher(cmd *cobra.Command, nt teacher.NewTeacher) (teacher.Teacher, error) {
	ctx := cmd.Context()
	if err := nt.Validate(ctx, cli.validate, cli.app.TeacherSvc); err != nil {
		return teacher.Teacher{}, err
	}
	return cli.app.TeacherSvc.Create(ctx, nt)
}
