package reconcile

import (
	"conciliador/internal/config"
	"conciliador/internal/excel"
	"conciliador/internal/logger"
	"conciliador/internal/normalize"
)

// afipHeaderRow is the zero-based header position of the AFIP export: the
// first physical row is a free-text document banner, the real headers sit
// on the second row.
const afipHeaderRow = 1

// tangoHeaderRow is the zero-based header position of the Tango export.
const tangoHeaderRow = 0

// afipColumns holds the resolved column indexes of the origin export.
// Optional columns are -1 when the mapping or the sheet does not provide
// them; their values degrade to absent.
type afipColumns struct {
	tipo   int
	pv     int
	num    int
	cuit   int
	tc     int
	exento int
	neto   int
	iva    int
	total  int
}

func optional(t *excel.Table, key string) int {
	if key == "" {
		return -1
	}
	idx, ok := t.Resolve(key)
	if !ok {
		return -1
	}
	return idx
}

// resolveAFIP resolves the origin mapping against a loaded table. The three
// key-building columns are required; everything else is optional.
func resolveAFIP(t *excel.Table, m config.AFIPMapping) (afipColumns, error) {
	cols := afipColumns{
		cuit:   optional(t, m.CUIT),
		tc:     optional(t, m.ExchangeRate),
		exento: optional(t, m.Importes.Exento),
		neto:   optional(t, m.Importes.Neto),
		iva:    optional(t, m.Importes.IVA),
		total:  optional(t, m.Importes.Total),
	}

	var missing []string
	var ok bool
	if cols.tipo, ok = t.Resolve(m.Tipo); !ok {
		missing = append(missing, m.Tipo)
	}
	if cols.pv, ok = t.Resolve(m.PV); !ok {
		missing = append(missing, m.PV)
	}
	if cols.num, ok = t.Resolve(m.Num); !ok {
		missing = append(missing, m.Num)
	}
	if len(missing) > 0 {
		return cols, &excel.SchemaError{Sheet: t.Sheet, Missing: missing}
	}
	return cols, nil
}

func takeNumber(row []string, idx int) normalize.Number {
	if idx < 0 {
		return normalize.None()
	}
	return normalize.ParseNumber(excel.Cell(row, idx))
}

// buildAFIPInvoice turns one raw origin row into a canonical record.
func buildAFIPInvoice(row []string, cols afipColumns, pattern string) Invoice {
	inv := Invoice{
		NComp: BuildNComp(
			excel.Cell(row, cols.tipo),
			excel.Cell(row, cols.pv),
			excel.Cell(row, cols.num),
			pattern,
		),
		TC:     takeNumber(row, cols.tc).Or(1.0),
		Exento: takeNumber(row, cols.exento),
		Neto:   takeNumber(row, cols.neto),
		IVA:    takeNumber(row, cols.iva),
		Total:  takeNumber(row, cols.total),
	}
	if cols.cuit >= 0 {
		inv.CUIT = normalize.CUITDigits(excel.Cell(row, cols.cuit))
	}
	return inv
}

// LoadAFIP reads the origin export into canonical records. Every data row
// yields a record; cell-level parse failures degrade to absent values and
// are never fatal.
func LoadAFIP(path, sheet string, m config.AFIPMapping) ([]Invoice, error) {
	log := logger.WithComponent("afip-loader")

	t, err := excel.ReadTable(path, sheet, afipHeaderRow)
	if err != nil {
		return nil, err
	}
	cols, err := resolveAFIP(t, m)
	if err != nil {
		return nil, err
	}

	invoices := make([]Invoice, 0, len(t.Rows))
	for i, row := range t.Rows {
		inv := buildAFIPInvoice(row, cols, m.BuildPattern)
		if _, rule := LetterForTipo(excel.Cell(row, cols.tipo)); rule == RuleDefault {
			log.Debug().
				Int("row", i+afipHeaderRow+2).
				Str("tipo", excel.Cell(row, cols.tipo)).
				Msg("Comprobante type not recognized, defaulted to letter A")
		}
		invoices = append(invoices, inv)
	}

	log.Info().
		Str("sheet", sheet).
		Int("rows", len(t.Rows)).
		Int("invoices", len(invoices)).
		Msg("AFIP export loaded")
	return invoices, nil
}

// LoadTango reads the destination export and aggregates rows sharing a
// composite key, since Tango may split one invoice across several lines.
func LoadTango(path, sheet string, m config.TangoMapping) ([]Invoice, error) {
	log := logger.WithComponent("tango-loader")

	t, err := excel.ReadTable(path, sheet, tangoHeaderRow)
	if err != nil {
		return nil, err
	}

	ncompIdx, ok := t.Resolve(m.NCompColumn)
	if !ok {
		return nil, &excel.SchemaError{Sheet: t.Sheet, Missing: []string{m.NCompColumn}}
	}
	cuitIdx := optional(t, m.CUIT)
	exentoIdx := optional(t, m.Importes.Exento)
	netoIdx := optional(t, m.Importes.Neto)
	ivaIdx := optional(t, m.Importes.IVA)
	totalIdx := optional(t, m.Importes.Total)

	records := make([]Invoice, 0, len(t.Rows))
	for _, row := range t.Rows {
		inv := Invoice{
			NComp:  CanonicalNComp(excel.Cell(row, ncompIdx)),
			Exento: takeNumber(row, exentoIdx),
			Neto:   takeNumber(row, netoIdx),
			IVA:    takeNumber(row, ivaIdx),
			Total:  takeNumber(row, totalIdx),
		}
		if cuitIdx >= 0 {
			inv.CUIT = normalize.CUITDigits(excel.Cell(row, cuitIdx))
		}
		records = append(records, inv)
	}

	aggregated := aggregate(records)
	log.Info().
		Str("sheet", sheet).
		Int("rows", len(records)).
		Int("invoices", len(aggregated)).
		Msg("Tango export loaded")
	return aggregated, nil
}

// aggregate sums the monetary fields of records sharing a composite key,
// keeping first-appearance order. Absent stays absent unless at least one
// row carries a value for the field.
func aggregate(records []Invoice) []Invoice {
	out := make([]Invoice, 0, len(records))
	byKey := make(map[Key]int, len(records))

	for _, rec := range records {
		key := rec.Key()
		if i, ok := byKey[key]; ok {
			out[i].Exento = out[i].Exento.Add(rec.Exento)
			out[i].Neto = out[i].Neto.Add(rec.Neto)
			out[i].IVA = out[i].IVA.Add(rec.IVA)
			out[i].Total = out[i].Total.Add(rec.Total)
			continue
		}
		byKey[key] = len(out)
		out = append(out, rec)
	}
	return out
}

// Index builds the composite-key lookup for the destination table.
func Index(records []Invoice) map[Key]Invoice {
	idx := make(map[Key]Invoice, len(records))
	for _, rec := range records {
		if _, ok := idx[rec.Key()]; !ok {
			idx[rec.Key()] = rec
		}
	}
	return idx
}
