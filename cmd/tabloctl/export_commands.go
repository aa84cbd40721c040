package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tablostudio/guestflow/internal/services/export"
)

func newExportReportCommand(ctx *commandContext) *cobra.Command {
	var scope scopeFlags
	var status string
	var out string

	cmd := &cobra.Command{
		Use:   "export-report",
		Short: "Write the monitoring spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := export.ParseStatusFilter(status)
			if err != nil {
				return err
			}
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			project, err := a.store.GetProject(cmd.Context(), scope.projectID)
			if err != nil {
				return err
			}
			path, err := a.exporter.ExportMonitoringReport(cmd.Context(), scope.projectID, scope.galleryID, filter)
			if err != nil {
				return err
			}
			if out == "" {
				out = export.ReportName(project)
			}
			if err := export.MoveFile(path, out); err != nil {
				os.Remove(path)
				return err
			}
			printf(cmd, "Wrote %s (%s)\n", out, fileSize(out))
			return nil
		},
	}
	scope.register(cmd, true)
	cmd.Flags().StringVar(&status, "status", "all", "Status filter: all, finalized, in_progress, not_started")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default \"<project> monitoring.xlsx\")")
	return cmd
}

func newExportZipCommand(ctx *commandContext) *cobra.Command {
	var scope scopeFlags
	var personIDs []uint
	var content, filenames, personType string
	var withReport bool
	var out string

	cmd := &cobra.Command{
		Use:   "export-zip",
		Short: "Build the per person selection archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &export.ZipRequest{GalleryID: scope.galleryID, PersonIDs: personIDs}
			var err error
			if req.Content, err = export.ParseZipContent(content); err != nil {
				return err
			}
			if req.Filenames, err = export.ParseFilenamePolicy(filenames); err != nil {
				return err
			}
			if req.PersonType, err = export.ParsePersonTypeFilter(personType); err != nil {
				return err
			}

			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			project, err := a.store.GetProject(cmd.Context(), scope.projectID)
			if err != nil {
				return err
			}
			req.Project = *project

			if withReport {
				report, err := a.exporter.ExportMonitoringReport(cmd.Context(), scope.projectID, scope.galleryID, export.StatusAll)
				if err != nil {
					return err
				}
				defer os.Remove(report)
				req.ReportPath = report
			}

			result, err := a.exporter.ExportGalleryZip(cmd.Context(), req)
			if err != nil {
				return err
			}
			if out == "" {
				out = export.ArchiveName(project)
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return err
				}
			}
			if err := export.MoveFile(result.Path, out); err != nil {
				os.Remove(result.Path)
				return err
			}
			printf(cmd, "Wrote %s (%s): %d files from %d persons, %d skipped\n",
				out, fileSize(out), result.Added, result.Persons, result.Skipped)
			return nil
		},
	}
	scope.register(cmd, true)
	cmd.Flags().UintSliceVar(&personIDs, "persons", nil, "Only export these roster person ids")
	cmd.Flags().StringVar(&content, "content", string(export.ContentRetouchAndTablo), "Archive content: retouch_only, tablo_only, retouch_and_tablo, all")
	cmd.Flags().StringVar(&filenames, "filenames", string(export.FilenameOriginal), "File naming: original, name_based, name_with_embedded_metadata")
	cmd.Flags().StringVar(&personType, "person-type", "", "Person type filter: student, teacher")
	cmd.Flags().BoolVar(&withReport, "report", false, "Add the monitoring spreadsheet to the archive root")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default \"<project> (<id>).zip\")")
	return cmd
}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired export artifacts once",
		RunE: func(cmd *cobra.Command, args []string) error {
			janitor, err := ctx.janitor()
			if err != nil {
				return err
			}
			removed, err := janitor.Sweep()
			if err != nil {
				return err
			}
			printf(cmd, "Removed %d expired files\n", removed)
			return nil
		},
	}
}
