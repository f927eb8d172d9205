package reconcile

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"conciliador/internal/config"
	"conciliador/internal/excel"
	"conciliador/internal/logger"
)

// origenSheetName is the single sheet of the origin artifact.
const origenSheetName = "Origen"

// statusHeader is the derived column appended to the origin artifact.
const statusHeader = "Estado_Validación"

// WriteOrigenValidado writes the origin artifact: every column of the AFIP
// sheet as-is, one appended status column, and a full-row fill per status.
// Classification goes through the same CompareInvoice as the message path.
// Returns the path actually written.
func WriteOrigenValidado(origenPath, sheet string, m config.AFIPMapping, dest map[Key]Invoice, cols []config.Column, outPath string, palette Palette) (string, error) {
	const op = "WriteOrigenValidado"
	log := logger.WithComponent("origen-validado")

	t, err := excel.ReadTable(origenPath, sheet, afipHeaderRow)
	if err != nil {
		return "", err
	}
	acols, err := resolveAFIP(t, m)
	if err != nil {
		return "", err
	}

	out := excelize.NewFile()
	defer out.Close()
	if err := out.SetSheetName(out.GetSheetName(0), origenSheetName); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	statusCol := len(t.Header) + 1
	for j, h := range t.Header {
		cell, _ := excelize.CoordinatesToCellName(j+1, 1)
		if err := out.SetCellValue(origenSheetName, cell, h); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}
	headCell, _ := excelize.CoordinatesToCellName(statusCol, 1)
	if err := out.SetCellValue(origenSheetName, headCell, statusHeader); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	styles := make(map[Status]int, len(palette))
	for status, color := range palette {
		id, err := fillStyle(out, color)
		if err != nil {
			return "", fmt.Errorf("%s: failed to create style: %w", op, err)
		}
		styles[status] = id
	}

	counts := make(map[Status]int)
	for i, row := range t.Rows {
		inv := buildAFIPInvoice(row, acols, m.BuildPattern)
		var counterpart *Invoice
		if d, ok := dest[inv.Key()]; ok {
			counterpart = &d
		}
		res := CompareInvoice(&inv, counterpart, cols)
		counts[res.Status]++

		rowNum := i + 2
		for j := 0; j < len(t.Header); j++ {
			cell, _ := excelize.CoordinatesToCellName(j+1, rowNum)
			if err := out.SetCellValue(origenSheetName, cell, excel.Cell(row, j)); err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(statusCol, rowNum)
		if err := out.SetCellValue(origenSheetName, cell, res.Status.Label()); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		first, _ := excelize.CoordinatesToCellName(1, rowNum)
		last, _ := excelize.CoordinatesToCellName(statusCol, rowNum)
		if err := out.SetCellStyle(origenSheetName, first, last, styles[res.Status]); err != nil {
			return "", fmt.Errorf("%s: failed to style row %d: %w", op, rowNum, err)
		}
	}

	written, err := saveWorkbook(out, outPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info().
		Str("output", written).
		Int("coincide", counts[StatusMatched]).
		Int("no_coincide", counts[StatusNotMatched]).
		Int("omitidas", counts[StatusOmitted]).
		Msg("Origin artifact written")
	return written, nil
}
