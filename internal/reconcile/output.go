package reconcile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrOutputWrite is returned when an output workbook cannot be written even
// after falling back to a timestamp-suffixed path.
var ErrOutputWrite = errors.New("output workbook could not be written")

// Palette maps each status to the ARGB-less hex fill color used in the
// output artifacts. Writers take it explicitly instead of reading shared
// styling state.
type Palette map[Status]string

// DefaultPalette returns the product colors: green for matched, red for
// mismatched, yellow for omitted. Yellow doubles as the discrepancy-cell
// fill in the destination artifact.
func DefaultPalette() Palette {
	return Palette{
		StatusMatched:    "C8E6C9",
		StatusNotMatched: "FFCDD2",
		StatusOmitted:    "FFF59D",
	}
}

// saveWorkbook saves to path, retrying once against a timestamp-suffixed
// sibling when the target is unwritable (typically open in Excel).
func saveWorkbook(f *excelize.File, path string) (string, error) {
	if err := f.SaveAs(path); err == nil {
		return path, nil
	}

	ext := filepath.Ext(path)
	alt := strings.TrimSuffix(path, ext) + "_" + time.Now().Format("20060102_150405") + ext
	if err := f.SaveAs(alt); err != nil {
		return "", fmt.Errorf("%w: %q (fallback %q): %v", ErrOutputWrite, path, alt, err)
	}
	return alt, nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
}
