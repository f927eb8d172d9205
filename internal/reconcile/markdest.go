package reconcile

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"conciliador/internal/config"
	"conciliador/internal/excel"
	"conciliador/internal/logger"
	"conciliador/internal/normalize"
)

// tangoColumnFor maps a compared column name to the destination header it
// lives under. The canonical IMP_* names go through the Tango importes
// mapping; anything else is expected verbatim.
func tangoColumnFor(name string, m config.TangoMapping) string {
	switch name {
	case "IMP_EXENTO":
		return m.Importes.Exento
	case "IMP_NETO":
		return m.Importes.Neto
	case "IMP_IVA":
		return m.Importes.IVA
	case "IMP_TOTAL":
		return m.Importes.Total
	}
	return name
}

// MarkDestination writes the destination artifact: a copy of the Tango
// workbook where every mismatched field of every NotMatched origin record
// gets its cell filled and its text emphasized. Omitted records cause no
// mutation. The original input file is never touched; the marked copy is
// saved to outPath (or a timestamp-suffixed fallback). Returns the path
// actually written.
func MarkDestination(results []RowResult, destinoPath, sheet string, m config.TangoMapping, cols []config.Column, outPath string, palette Palette) (string, error) {
	const op = "MarkDestination"
	log := logger.WithComponent("mark-destino")

	f, err := excelize.OpenFile(destinoPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %q (close the file if it is open in Excel): %v", op, excel.ErrWorkbookOpen, destinoPath, err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return "", fmt.Errorf("%s: %w: sheet %q in %q", op, excel.ErrSheetNotFound, sheet, destinoPath)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("%s: failed to read sheet %q: %w", op, sheet, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%s: sheet %q in %q is empty", op, sheet, destinoPath)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	table := &excel.Table{File: destinoPath, Sheet: sheet, Header: header}

	// Resolve the key columns plus every compared field against the header.
	var missing []string
	ncompIdx, ok := table.Resolve(m.NCompColumn)
	if !ok {
		missing = append(missing, m.NCompColumn)
	}
	cuitIdx, ok := table.Resolve(m.CUIT)
	if !ok {
		missing = append(missing, m.CUIT)
	}
	fieldIdx := make(map[string]int, len(cols))
	for _, col := range cols {
		name := tangoColumnFor(col.Name, m)
		j, ok := table.Resolve(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		fieldIdx[col.Name] = j
	}
	if len(missing) > 0 {
		return "", &excel.SchemaError{Sheet: sheet, Missing: missing}
	}

	// First physical row per composite key; later duplicates are ignored,
	// matching the first-match rule of the engine.
	keyRow := make(map[Key]int, len(rows))
	for i, row := range rows[1:] {
		key := Key{
			NComp: CanonicalNComp(excel.Cell(row, ncompIdx)),
			CUIT:  normalize.CUITDigits(excel.Cell(row, cuitIdx)),
		}
		if _, seen := keyRow[key]; !seen {
			keyRow[key] = i + 2
		}
	}

	diffStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{palette[StatusOmitted]}, Pattern: 1},
		Font: &excelize.Font{Bold: true, Underline: "single"},
	})
	if err != nil {
		return "", fmt.Errorf("%s: failed to create style: %w", op, err)
	}

	marked := 0
	for i := range results {
		res := &results[i]
		if res.Status != StatusNotMatched {
			continue
		}
		rowNum, ok := keyRow[res.Invoice.Key()]
		if !ok {
			continue
		}
		for _, diff := range res.Diffs {
			j, ok := fieldIdx[diff.Name]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, rowNum)
			if err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
			if err := f.SetCellStyle(sheet, cell, cell, diffStyle); err != nil {
				return "", fmt.Errorf("%s: failed to style %s: %w", op, cell, err)
			}
			marked++
		}
	}

	written, err := saveWorkbook(f, outPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info().
		Str("output", written).
		Int("marked_cells", marked).
		Int("omitted", CountOmitted(results)).
		Msg("Destination artifact written")
	return written, nil
}
