package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trezcool/dalant/core/church"
)

func (cli *commandLine) addChurchCmd() *cobra.Command {
	var nc church.NewChurch
	cmd := &cobra.Command{
		Use:   "addchurch",
		Short: "Register a church",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := cli.addChurch(cmd, nc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "church %s (%s) created: %s\n", ch.Code, ch.Name, ch.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&nc.Code, "code", "", "the church code typed at login (3 to 20 letters or digits)")
	cmd.Flags().StringVar(&nc.Name, "name", "", "the church display name")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (cli *commandLine) addChurch(cmd *cobra.Command, nc church.NewChurch) (church.Church, error) {
	ctx := cmd.Context()
	if err := nc.Validate(ctx, cli.validate, cli.app.ChurchSvc); err != nil {
		return church.Church{}, err
	}
	return cli.app.ChurchSvc.Create(ctx, nc)
}
