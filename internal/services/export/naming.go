package export

import (
	"fmt"
	"strconv"

	"github.com/tablostudio/guestflow/internal/models"
	"github.com/tablostudio/guestflow/internal/utils"
)

// category is one subfolder of a person folder. token is the word used in
// name based file names.
type category struct {
	folder string
	token  string
}

var (
	categoryRetouch = category{folder: "retouched", token: "retusalt"}
	categoryTablo   = category{folder: "tablo photo", token: "tablo"}
	categoryAll     = category{folder: "all", token: "osszes"}
)

func (c ZipContent) includes(cat category) bool {
	switch cat {
	case categoryRetouch:
		return c == ContentRetouchOnly || c == ContentRetouchAndTablo || c == ContentAll
	case categoryTablo:
		return c == ContentTabloOnly || c == ContentRetouchAndTablo || c == ContentAll
	case categoryAll:
		return c == ContentAll
	}
	return false
}

// projectFolder is the top level folder of an archive, e.g. "12.A (42)".
func projectFolder(project *models.Project) string {
	return fmt.Sprintf("%s (%d)", utils.SanitizeName(project.Name, "project"), project.ID)
}

func personFolder(person *models.RosterPerson) string {
	return utils.SanitizeName(person.Name, "person_"+strconv.FormatUint(uint64(person.ID), 10))
}

// entryName returns the candidate file name of the index-th (1-based) photo of
// a category before collision handling.
func entryName(policy FilenamePolicy, personName string, cat category, index int, asset *models.MediaAsset) string {
	if policy != FilenameNameBased {
		return utils.SanitizeName(asset.FileName, "media_"+strconv.FormatUint(uint64(asset.ID), 10))
	}
	name := personName + "_" + cat.token + "_" + strconv.Itoa(index)
	if ext := asset.Extension(); ext != "" {
		name += "." + ext
	}
	return name
}

func isJPEG(asset *models.MediaAsset) bool {
	if asset.MimeType == "image/jpeg" {
		return true
	}
	ext := asset.Extension()
	return ext == "jpg" || ext == "jpeg"
}

// ArchiveName is the download name of a project's archive.
func ArchiveName(project *models.Project) string {
	return projectFolder(project) + ".zip"
}

// ReportName is the download name of a project's monitoring report.
func ReportName(project *models.Project) string {
	return utils.SanitizeName(project.Name, "project") + " monitoring.xlsx"
}
