package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	endpoint         string
	clientConfigPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "runnerctl",
		Short:         "runnerctl drives a runnerd plan-execution service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.endpoint, "endpoint", "e", "http://127.0.0.1:7070", "runnerd endpoint: http://, https://, or cfg://<name>")
	cmd.PersistentFlags().StringVar(&flags.clientConfigPath, "client-config", "", "path to the client-side cfg:// resolution file")

	cmd.AddCommand(newPlanSetsCmd(flags))
	cmd.AddCommand(newPlansCmd(flags))
	cmd.AddCommand(newPlanCmd(flags))
	cmd.AddCommand(newRunsCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newExecuteCmd(flags))
	cmd.AddCommand(newArchiveCmd(flags))

	return cmd
}
