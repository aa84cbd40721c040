// Package export generates downloadable artifacts from gallery workflow data:
// the monitoring spreadsheet and the per-person ZIP archive of selections.
package export

import "fmt"

// InvalidOptionError is returned when an export option value is not one of
// the accepted choices.
type InvalidOptionError struct {
	Option string
	Value  string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Option, e.Value)
}

// ZipContent selects which categories are written for each person.
type ZipContent string

const (
	ContentRetouchOnly     ZipContent = "retouch_only"
	ContentTabloOnly       ZipContent = "tablo_only"
	ContentRetouchAndTablo ZipContent = "retouch_and_tablo"
	ContentAll             ZipContent = "all"
)

// ParseZipContent defaults to retouch_and_tablo when s is empty.
func ParseZipContent(s string) (ZipContent, error) {
	switch c := ZipContent(s); c {
	case "":
		return ContentRetouchAndTablo, nil
	case ContentRetouchOnly, ContentTabloOnly, ContentRetouchAndTablo, ContentAll:
		return c, nil
	}
	return "", &InvalidOptionError{Option: "zip_content", Value: s}
}

// FilenamePolicy decides how archive entries are named.
type FilenamePolicy string

const (
	FilenameOriginal  FilenamePolicy = "original"
	FilenameNameBased FilenamePolicy = "name_based"
	// FilenameEmbedded keeps the original name and writes the person's name
	// into the IPTC block of a temporary copy.
	FilenameEmbedded  FilenamePolicy = "name_with_embedded_metadata"
)

// ParseFilenamePolicy defaults to original when s is empty.
func ParseFilenamePolicy(s string) (FilenamePolicy, error) {
	switch p := FilenamePolicy(s); p {
	case "":
		return FilenameOriginal, nil
	case FilenameOriginal, FilenameNameBased, FilenameEmbedded:
		return p, nil
	}
	return "", &InvalidOptionError{Option: "filename_mode", Value: s}
}

// StatusFilter limits the monitoring report to persons in one workflow state.
type StatusFilter string

const (
	StatusAll        StatusFilter = "all"
	StatusFinalized  StatusFilter = "finalized"
	StatusInProgress StatusFilter = "in_progress"
	StatusNotStarted StatusFilter = "not_started"
)

func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(s); f {
	case "":
		return StatusAll, nil
	case StatusAll, StatusFinalized, StatusInProgress, StatusNotStarted:
		return f, nil
	}
	return "", &InvalidOptionError{Option: "status", Value: s}
}

// PersonTypeFilter limits the archive to students or teachers.
type PersonTypeFilter string

const (
	PersonTypeAll     PersonTypeFilter = "all"
	PersonTypeStudent PersonTypeFilter = "student"
	PersonTypeTeacher PersonTypeFilter = "teacher"
)

func ParsePersonTypeFilter(s string) (PersonTypeFilter, error) {
	switch f := PersonTypeFilter(s); f {
	case "":
		return PersonTypeAll, nil
	case PersonTypeAll, PersonTypeStudent, PersonTypeTeacher:
		return f, nil
	}
	return "", &InvalidOptionError{Option: "person_type", Value: s}
}
