package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// BuildPeriodSuffix returns the year-range suffix used in output names
func BuildPeriodSuffix(startYear, endYear int) string {
	return fmt.Sprintf("%d_%d", startYear, endYear)
}

// AppendPeriodToFilename inserts _<suffix> before the extension of filename
func AppendPeriodToFilename(filename, suffix string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "_" + suffix + ext
}
