package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type stepRecord struct {
	Name        string
	Description string
	Kind        string
	User        string
	Command     string
	Parent      string
	Env         map[string]string
}

func newPlanCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <set> <plan>",
		Short: "Show a plan's parsed steps",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(root.endpoint, root.clientConfigPath)
			if err != nil {
				return err
			}

			var records []stepRecord
			if err := client.do("GET", "/v1/plan-sets/"+args[0]+"/"+args[1], nil, &records); err != nil {
				return err
			}
			for _, r := range records {
				parent := r.Parent
				if parent == "" {
					parent = "-"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] parent=%s user=%s\n  %s\n", r.Name, r.Kind, parent, r.User, r.Command)
			}
			return nil
		},
	}
}
