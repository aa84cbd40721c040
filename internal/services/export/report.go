package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tablostudio/guestflow/internal/models"
	"github.com/tablostudio/guestflow/internal/services"
	"github.com/xuri/excelize/v2"
)

// Sheet titles of the monitoring report, one per selection category.
const (
	SheetClaimed = "Own photos"
	SheetRetouch = "Retouched photos"
	SheetTablo   = "Tablo photo"
)

var reportHeader = []string{"Name", "Type", "Status", "Media ID", "File name"}

// reportSheet lists one (person, photo) row per selected id of a category.
type reportSheet struct {
	title string
	ids   func(p *models.WorkflowProgress) []uint
}

var reportSheets = []reportSheet{
	{title: SheetClaimed, ids: func(p *models.WorkflowProgress) []uint { return p.ClaimedIDs() }},
	{title: SheetRetouch, ids: func(p *models.WorkflowProgress) []uint { return p.EffectiveRetouchIDs() }},
	{title: SheetTablo, ids: func(p *models.WorkflowProgress) []uint { return categoryIDs(p, categoryTablo) }},
}

// ExportMonitoringReport writes the selection spreadsheet of a gallery to a new
// file in the temp dir and returns its path. The caller owns the file. Persons
// without a photo in a category still get one placeholder row there.
func (e *Exporter) ExportMonitoringReport(ctx context.Context, projectID, galleryID uint, status StatusFilter) (string, error) {
	start := time.Now()

	links, err := e.linker.Link(ctx, projectID, galleryID)
	if err != nil {
		return "", err
	}
	links = filterStatus(links, status)

	var ids []uint
	for i := range links {
		if p := links[i].Progress; p != nil {
			for _, sheet := range reportSheets {
				ids = append(ids, sheet.ids(p)...)
			}
		}
	}
	media, err := services.LoadMediaIndex(ctx, e.media, services.UniqueMediaIDs(ids, nil, nil))
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	for i, sheet := range reportSheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.title); err != nil {
				return "", err
			}
		} else if _, err := f.NewSheet(sheet.title); err != nil {
			return "", err
		}
		if err := writeSheet(f, sheet, links, media, headerStyle); err != nil {
			return "", fmt.Errorf("write sheet %q: %w", sheet.title, err)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(e.tempDir, 0755); err != nil {
		return "", err
	}
	out := filepath.Join(e.tempDir, fmt.Sprintf("monitoring_%d_%d_%s.xlsx", projectID, galleryID, uuid.NewString()))
	if err := f.SaveAs(out); err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("save report: %w", err)
	}

	elapsed := time.Since(start)
	services.ExportDuration.WithLabelValues("report").Observe(elapsed.Seconds())
	e.log.Info().
		Uint("project_id", projectID).
		Uint("gallery_id", galleryID).
		Str("status", string(status)).
		Int("persons", len(links)).
		Dur("duration", elapsed).
		Msg("Monitoring report exported")
	return out, nil
}

func writeSheet(f *excelize.File, sheet reportSheet, links []services.PersonLink, media map[uint]*models.MediaAsset, headerStyle int) error {
	sw, err := f.NewStreamWriter(sheet.title)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 1, 32); err != nil {
		return err
	}
	if err := sw.SetColWidth(2, 4, 14); err != nil {
		return err
	}
	if err := sw.SetColWidth(5, 5, 40); err != nil {
		return err
	}

	header := make([]interface{}, len(reportHeader))
	for i, title := range reportHeader {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: title}
	}
	row := 1
	if err := setRow(sw, row, header); err != nil {
		return err
	}

	for i := range links {
		link := &links[i]
		var ids []uint
		if link.Progress != nil {
			ids = sheet.ids(link.Progress)
		}
		if len(ids) == 0 {
			row++
			if err := setRow(sw, row, personCells(link, "", "-")); err != nil {
				return err
			}
			continue
		}
		for _, id := range ids {
			name := "(missing)"
			if asset := media[id]; asset != nil {
				name = asset.FileName
			}
			row++
			if err := setRow(sw, row, personCells(link, id, name)); err != nil {
				return err
			}
		}
	}
	return sw.Flush()
}

func personCells(link *services.PersonLink, mediaID interface{}, fileName string) []interface{} {
	return []interface{}{link.Person.Name, string(link.Person.Type), string(link.Status()), mediaID, fileName}
}

func setRow(sw *excelize.StreamWriter, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return sw.SetRow(cell, values)
}

func filterStatus(links []services.PersonLink, status StatusFilter) []services.PersonLink {
	if status == "" || status == StatusAll {
		return links
	}
	out := make([]services.PersonLink, 0, len(links))
	for _, link := range links {
		if string(link.Status()) == string(status) {
			out = append(out, link)
		}
	}
	return out
}
