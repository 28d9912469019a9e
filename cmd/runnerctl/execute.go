package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExecuteCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "execute <set> <plan>",
		Short: "Submit a plan for execution",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(root.endpoint, root.clientConfigPath)
			if err != nil {
				return err
			}

			key, submitErr := client.execute(args[0], args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "run %d submitted\n", key.ID)
			return submitErr
		},
	}
}
