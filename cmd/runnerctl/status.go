package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show a run's log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return argError("invalid run id: %s", args[0])
			}

			client, err := newAPIClient(root.endpoint, root.clientConfigPath)
			if err != nil {
				return err
			}

			var lines []string
			if err := client.do("GET", fmt.Sprintf("/v1/runs/%d", id), nil, &lines); err != nil {
				return err
			}
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
}
