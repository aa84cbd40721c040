package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tablostudio/guestflow/internal/services"
)

func newMonitoringCommand(ctx *commandContext) *cobra.Command {
	var scope scopeFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "monitoring",
		Short: "Show the selection progress of every roster person",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			resp, err := a.monitoring.GetMonitoring(cmd.Context(), scope.projectID, scope.galleryID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderMonitoring(resp))
			return nil
		},
	}
	scope.register(cmd, true)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON response")
	return cmd
}

func renderMonitoring(resp *services.MonitoringResponse) string {
	headers := []string{"Name", "Type", "Opened", "Step", "Status", "Claimed", "Retouch", "Tablo", "Last activity", "Stale"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft}

	rows := make([][]string, 0, len(resp.Persons))
	for _, p := range resp.Persons {
		rows = append(rows, []string{
			p.Name,
			string(p.Type),
			yesNo(p.HasOpened),
			orDash(p.CurrentStep),
			orDash(p.WorkflowStatus),
			itoa(p.ClaimedCount),
			itoa(p.RetouchCount),
			yesNo(p.HasTabloPhoto),
			relativeTime(p.LastActivityAt),
			staleLabel(p),
		})
	}

	s := resp.Summary
	return renderTable(headers, rows, aligns) + fmt.Sprintf(
		"\n%d persons: %d opened, %d not opened, %d finalized, %d in progress, %d stale",
		s.TotalPersons, s.Opened, s.NotOpened, s.Finalized, s.InProgress, s.StaleCount,
	)
}

func staleLabel(p services.MonitoringRow) string {
	if !p.StaleWarning {
		return ""
	}
	return fmt.Sprintf("%d days", *p.DaysSinceLastActivity)
}

func newProgressCommand(ctx *commandContext) *cobra.Command {
	var scope scopeFlags

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Count workflow records of a gallery per step",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			counts, err := a.monitoring.GetProgressSummary(cmd.Context(), scope.galleryID)
			if err != nil {
				return err
			}
			rows := [][]string{
				{"claiming", itoa(counts.Claiming)},
				{"retouch", itoa(counts.Retouch)},
				{"tablo", itoa(counts.Tablo)},
				{"completed", itoa(counts.Completed)},
				{"finalized", itoa(counts.Finalized)},
				{"total", itoa(counts.Total)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Step", "Guests"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	scope.register(cmd, false)
	return cmd
}
