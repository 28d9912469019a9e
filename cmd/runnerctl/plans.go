package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlansCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plans <set>",
		Short: "List the plans within a plan set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(root.endpoint, root.clientConfigPath)
			if err != nil {
				return err
			}

			var plans []string
			if err := client.do("GET", "/v1/plan-sets/"+args[0], nil, &plans); err != nil {
				return err
			}
			for _, p := range plans {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
