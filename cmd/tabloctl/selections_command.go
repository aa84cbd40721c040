package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tablostudio/guestflow/internal/services"
)

func newSelectionsCommand(ctx *commandContext) *cobra.Command {
	var scope scopeFlags
	var personID uint
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "selections",
		Short: "List the photos one person selected in each step",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			view, err := a.selection.GetPersonSelections(cmd.Context(), scope.projectID, scope.galleryID, personID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}

			var rows [][]string
			for _, ref := range view.Claimed {
				rows = append(rows, selectionRow("claimed", ref))
			}
			for _, ref := range view.Retouch {
				rows = append(rows, selectionRow("retouch", ref))
			}
			if view.Tablo != nil {
				rows = append(rows, selectionRow("tablo", *view.Tablo))
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Step", "Media ID", "File name"}, rows, []columnAlignment{alignLeft, alignRight}))
			printf(cmd, "workflow: %s / %s\n", orDash(view.CurrentStep), orDash(view.WorkflowStatus))
			return nil
		},
	}
	scope.register(cmd, true)
	cmd.Flags().UintVar(&personID, "person", 0, "Roster person id")
	_ = cmd.MarkFlagRequired("person")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON response")
	return cmd
}

func selectionRow(step string, ref services.PhotoRef) []string {
	name := "(missing)"
	if !ref.IsPlaceholder() {
		name = *ref.Filename
	}
	return []string{step, itoa(int(ref.ID)), name}
}
