package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlanSetsCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan-sets",
		Short: "List the plan sets known to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(root.endpoint, root.clientConfigPath)
			if err != nil {
				return err
			}

			var sets []string
			if err := client.do("GET", "/v1/plan-sets", nil, &sets); err != nil {
				return err
			}
			for _, s := range sets {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}
