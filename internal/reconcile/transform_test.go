package reconcile

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"conciliador/internal/config"
	"conciliador/internal/excel"
	"conciliador/internal/normalize"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func afipMapping() config.AFIPMapping {
	return config.AFIPMapping{
		Tipo:         "B",
		PV:           "C",
		Num:          "D",
		CUIT:         "E",
		ExchangeRate: "F",
		BuildPattern: config.DefaultBuildPattern,
		Importes: config.Importes{
			Neto:   "G",
			Exento: "H",
			IVA:    "I",
			Total:  "J",
		},
	}
}

func tangoMapping() config.TangoMapping {
	return config.TangoMapping{
		NCompColumn: "N_COMP",
		CUIT:        "IDENTIFTRI",
		Importes: config.Importes{
			Exento: "IMP_EXENTO",
			Neto:   "IMP_NETO",
			IVA:    "IMP_IVA",
			Total:  "IMP_TOTAL",
		},
	}
}

func afipFixture(t *testing.T) string {
	return writeWorkbook(t, "Sheet1", [][]any{
		{"Mis Comprobantes Emitidos - CUIT 20999999994"},
		{"Fecha", "Tipo", "Punto de Venta", "Número Desde", "Nro. Doc. Receptor", "Tipo Cambio", "Imp. Neto Gravado", "Imp. Exento", "IVA", "Imp. Total"},
		{"02/07/2025", "1 - Factura A", 1, 916, "20-12345678-6", "", 1000, "", 210, 1210},
		{"03/07/2025", "11 - Factura C", 2, 916, "27-22222222-2", "1,00", "", "", "", "500,50"},
	})
}

func TestLoadAFIP(t *testing.T) {
	path := afipFixture(t)

	invoices, err := LoadAFIP(path, "Sheet1", afipMapping())
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	first := invoices[0]
	require.Equal(t, "A000100000916", first.NComp)
	require.Equal(t, "20123456786", first.CUIT)
	require.Equal(t, 1.0, first.TC) // absent exchange rate defaults
	require.Equal(t, normalize.Num(1000), first.Neto)
	require.False(t, first.Exento.Valid)
	require.Equal(t, normalize.Num(210), first.IVA)
	require.Equal(t, normalize.Num(1210), first.Total)

	second := invoices[1]
	require.Equal(t, "C000200000916", second.NComp)
	require.Equal(t, "27222222222", second.CUIT)
	require.Equal(t, 1.0, second.TC)
	require.Equal(t, normalize.Num(500.50), second.Total)
	require.False(t, second.Neto.Valid)
}

func TestLoadAFIPMissingRequiredColumn(t *testing.T) {
	path := afipFixture(t)

	m := afipMapping()
	m.Tipo = "TIPO_INEXISTENTE"
	_, err := LoadAFIP(path, "Sheet1", m)
	require.Error(t, err)

	var schemaErr *excel.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	require.Equal(t, "Sheet1", schemaErr.Sheet)
	require.Contains(t, schemaErr.Missing, "TIPO_INEXISTENTE")
}

func TestLoadAFIPSheetNotFound(t *testing.T) {
	path := afipFixture(t)

	_, err := LoadAFIP(path, "NoExiste", afipMapping())
	require.Error(t, err)
	require.True(t, errors.Is(err, excel.ErrSheetNotFound))
}

func TestLoadTangoAggregates(t *testing.T) {
	path := writeWorkbook(t, "Hoja1", [][]any{
		{"N_COMP", "IDENTIFTRI", "IMP_EXENTO", "IMP_NETO", "IMP_IVA", "IMP_TOTAL"},
		{"B0000100000001", "20123456786", "", 100, "", ""},
		{"B0000100000001", "20123456786", "", "", 50, ""},
		{"b 00001 00000002", "30-11111111-1", 1, 2, 3, 6},
	})

	invoices, err := LoadTango(path, "Hoja1", tangoMapping())
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	split := invoices[0]
	require.Equal(t, "B0000100000001", split.NComp)
	require.Equal(t, "20123456786", split.CUIT)
	require.Equal(t, normalize.Num(100), split.Neto)
	require.Equal(t, normalize.Num(50), split.IVA)
	require.False(t, split.Exento.Valid)
	require.False(t, split.Total.Valid)

	// Invoice numbers are canonicalized before keying.
	other := invoices[1]
	require.Equal(t, "B0000100000002", other.NComp)
	require.Equal(t, "30111111111", other.CUIT)
	require.Equal(t, normalize.Num(6), other.Total)
}

func TestLoadTangoMissingNCompColumn(t *testing.T) {
	path := writeWorkbook(t, "Hoja1", [][]any{
		{"OTRA", "IDENTIFTRI"},
		{"x", "y"},
	})

	_, err := LoadTango(path, "Hoja1", tangoMapping())
	require.Error(t, err)

	var schemaErr *excel.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	require.Contains(t, schemaErr.Missing, "N_COMP")
}

func TestIndexFirstWins(t *testing.T) {
	records := []Invoice{
		{NComp: "A1", CUIT: "1", Total: normalize.Num(10)},
		{NComp: "A1", CUIT: "1", Total: normalize.Num(20)},
	}
	idx := Index(records)
	require.Len(t, idx, 1)
	require.Equal(t, normalize.Num(10), idx[Key{NComp: "A1", CUIT: "1"}].Total)
}
