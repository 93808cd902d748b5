package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jimyag/hostplay/pkg/playbook"
	"github.com/jimyag/hostplay/pkg/runner"
)

var runTags string

var runCmd = &cobra.Command{
	Use:   "run <playbook.yml>",
	Short: "Run a playbook and its includes",
	Example: `  hostplay run -c hosts.yml site.yml
  hostplay run -s ./hosts.sh -t files,diagnostics site.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runPlaybook,
}

func init() {
	runCmd.Flags().StringVarP(&runTags, "tags", "t", "", "only run tasks with these tags (comma separated)")
}

func runPlaybook(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	plays, err := playbook.Load(path)
	if err != nil {
		return err
	}

	eng, err := newEngine(ctx, filepath.Dir(path))
	if err != nil {
		return err
	}
	defer eng.Close()

	filter := playbook.ParseTagFilter(runTags)
	reports := make([]*runner.RunReport, 0, len(plays))
	for _, pb := range plays {
		if ctx.Err() != nil {
			break
		}
		reports = append(reports, eng.orchestrator.Run(ctx, pb, eng.inv, filter))
	}
	return eng.finish(reports)
}
