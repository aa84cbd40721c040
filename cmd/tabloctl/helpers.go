package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// scopeFlags are the project and gallery every gallery command works on.
type scopeFlags struct {
	projectID uint
	galleryID uint
}

func (s *scopeFlags) register(cmd *cobra.Command, withProject bool) {
	if withProject {
		cmd.Flags().UintVarP(&s.projectID, "project", "p", 0, "Project id")
		_ = cmd.MarkFlagRequired("project")
	}
	cmd.Flags().UintVarP(&s.galleryID, "gallery", "g", 0, "Gallery id")
	_ = cmd.MarkFlagRequired("gallery")
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func orDash[T ~string](v *T) string {
	if v == nil {
		return "-"
	}
	return string(*v)
}

func relativeTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return humanize.Time(*t)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// fileSize formats the size of path, or "?" when it cannot be read.
func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(info.Size()))
}

func printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
