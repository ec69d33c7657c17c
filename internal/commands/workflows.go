package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/recon/internal/config"
	"github.com/cleared-dev/recon/internal/output"
)

// workflowList renders configured workflows.
type workflowList []config.Workflow

func (ws workflowList) Table() output.Data {
	d := output.Data{
		Headers: []string{"name", "label", "group_by", "recalculate", "source", "reference"},
	}
	for _, w := range ws {
		ref := w.Reference.Key + " / " + w.Reference.Amount
		if w.Reference.Alternate != "" {
			ref += " (alt " + w.Reference.Alternate + ")"
		}
		d.Rows = append(d.Rows, []string{
			w.Name,
			w.Label,
			string(w.GroupBy),
			strconv.FormatBool(w.Recalculate),
			w.Source.Key + " / " + w.Source.Amount,
			ref,
		})
	}
	return d
}

func newWorkflowsCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "List configured workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			f, err := a.format(format, cfg)
			if err != nil {
				return err
			}
			var data any = workflowList(cfg.Workflows)
			if f != output.FormatTable {
				data = cfg.Workflows
			}
			return output.NewFormatter(f).Format(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format (table, json, yaml)")

	return cmd
}
