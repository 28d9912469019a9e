package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newArchiveCmd(root *rootFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "archive [id]",
		Short: "Archive and evict a run (or every run with --all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(root.endpoint, root.clientConfigPath)
			if err != nil {
				return err
			}

			if all {
				var result struct {
					Archived []runKey
					Failed   int
				}
				if err := client.do("DELETE", "/v1/runs/all", nil, &result); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "archived %d run(s), %d failure(s)\n", len(result.Archived), result.Failed)
				return nil
			}

			if len(args) != 1 {
				return argError("archive requires exactly one <id> unless --all is set")
			}
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return argError("invalid run id: %s", args[0])
			}

			if err := client.do("DELETE", fmt.Sprintf("/v1/runs/%d", id), nil, &struct{ OK bool }{}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %d archived\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "archive every run")
	return cmd
}
