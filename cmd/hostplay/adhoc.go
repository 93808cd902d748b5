package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jimyag/hostplay/pkg/runner"
)

var adhocCommand string

var adhocCmd = &cobra.Command{
	Use:   "adhoc <pattern>",
	Short: "Run one shell command on hosts from the host config",
	Long: `Run one shell command on the hosts matched by pattern.
Pattern is "all" or a comma separated list of addresses.`,
	Example: `  hostplay adhoc -c hosts.yml -a uptime all
  hostplay adhoc -c hosts.yml -a "df -h" 10.0.0.1,10.0.0.2`,
	Args: cobra.ExactArgs(1),
	RunE: runAdhoc,
}

func init() {
	adhocCmd.Flags().StringVarP(&adhocCommand, "args", "a", "", "shell command to run")
	_ = adhocCmd.MarkFlagRequired("args")
}

func runAdhoc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, err := newEngine(ctx, ".")
	if err != nil {
		return err
	}
	defer eng.Close()

	hosts, err := runner.ResolvePattern(args[0], eng.inv)
	if err != nil {
		return err
	}
	pb, err := runner.AdhocPlaybook(hosts, adhocCommand)
	if err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	report := eng.orchestrator.Run(ctx, pb, eng.inv, nil)
	return eng.finish([]*runner.RunReport{report})
}
