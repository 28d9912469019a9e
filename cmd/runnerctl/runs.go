package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type runKey struct {
	ID       uint32
	Set      string
	PlanName string
}

func newRunsCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List known runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(root.endpoint, root.clientConfigPath)
			if err != nil {
				return err
			}

			var keys []runKey
			if err := client.do("GET", "/v1/runs", nil, &keys); err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s/%s\n", k.ID, k.Set, k.PlanName)
			}
			return nil
		},
	}
}
