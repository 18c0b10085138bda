// Package ingest discovers vehicle photos on disk and infers which field
// each one shows.
package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/vehicle-intake/constants"
)

// Photo is one discovered file ready to become an intake job.
type Photo struct {
	Path         string
	Ext          string
	Field        constants.Field
	FieldKnown   bool
	HashHex      string
	Deduplicated bool
	Err          string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Deduplicated uint32
	Unclassified uint32
	Failed       uint32
}

// AllowedExt checks if a file extension is one intake accepts.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
