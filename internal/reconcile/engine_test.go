package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"conciliador/internal/config"
	"conciliador/internal/normalize"
)

func numberColumns(tol float64) []config.Column {
	cols := config.DefaultColumns()
	for i := range cols {
		cols[i].Tolerance = tol
	}
	return cols
}

func TestCompareInvoiceOmitted(t *testing.T) {
	origin := Invoice{NComp: "A00010000000001", CUIT: "20123456786", TC: 1, Total: normalize.Num(100)}
	res := CompareInvoice(&origin, nil, numberColumns(0.01))
	require.Equal(t, StatusOmitted, res.Status)
	require.Empty(t, res.Diffs)
}

func TestCompareInvoiceToleranceBoundary(t *testing.T) {
	cols := numberColumns(0.01)
	origin := Invoice{NComp: "B00010000000001", TC: 1, Total: normalize.Num(1000)}

	// Difference exactly equal to the tolerance matches.
	dest := Invoice{NComp: origin.NComp, Total: normalize.Num(1000.01)}
	res := CompareInvoice(&origin, &dest, cols)
	require.Equal(t, StatusMatched, res.Status)

	// One cent beyond does not.
	dest.Total = normalize.Num(1000.02)
	res = CompareInvoice(&origin, &dest, cols)
	require.Equal(t, StatusNotMatched, res.Status)
	require.Len(t, res.Diffs, 1)
	require.Equal(t, "IMP_TOTAL", res.Diffs[0].Name)
}

func TestCompareInvoiceAbsentSymmetry(t *testing.T) {
	cols := numberColumns(0)

	// Both absent on every field: match.
	origin := Invoice{NComp: "B00010000000001", TC: 1}
	dest := Invoice{NComp: origin.NComp}
	res := CompareInvoice(&origin, &dest, cols)
	require.Equal(t, StatusMatched, res.Status)

	// Present vs absent: mismatch, in either direction.
	origin.Neto = normalize.Num(10)
	res = CompareInvoice(&origin, &dest, cols)
	require.Equal(t, StatusNotMatched, res.Status)

	origin.Neto = normalize.None()
	dest.Neto = normalize.Num(10)
	res = CompareInvoice(&origin, &dest, cols)
	require.Equal(t, StatusNotMatched, res.Status)
}

func TestCompareInvoiceCategoryRestriction(t *testing.T) {
	cols := numberColumns(0)

	// Category C checks only IMP_TOTAL, so a net mismatch is invisible.
	origin := Invoice{NComp: "C00010000000001", TC: 1, Neto: normalize.Num(100), Total: normalize.Num(500)}
	dest := Invoice{NComp: origin.NComp, Neto: normalize.Num(999), Total: normalize.Num(500)}
	res := CompareInvoice(&origin, &dest, cols)
	require.Equal(t, StatusMatched, res.Status)

	// The same mismatch on a category B invoice is a failure.
	origin.NComp = "B00010000000001"
	dest.NComp = origin.NComp
	res = CompareInvoice(&origin, &dest, cols)
	require.Equal(t, StatusNotMatched, res.Status)
	require.Equal(t, "IMP_NETO", res.Diffs[0].Name)
}

func TestCompareInvoiceExchangeRate(t *testing.T) {
	cols := numberColumns(0)

	origin := Invoice{NComp: "A00010000000001", TC: 10, Total: normalize.Num(100)}
	dest := Invoice{NComp: origin.NComp, Total: normalize.Num(1000)}
	res := CompareInvoice(&origin, &dest, cols)
	require.Equal(t, StatusMatched, res.Status)

	// The adjusted origin value is what lands in the diff.
	dest.Total = normalize.Num(900)
	res = CompareInvoice(&origin, &dest, cols)
	require.Equal(t, StatusNotMatched, res.Status)
	require.Equal(t, normalize.Num(1000), res.Diffs[0].Origen)
	require.Equal(t, normalize.Num(900), res.Diffs[0].Destino)

	// An absent origin value stays absent after adjustment.
	origin.Total = normalize.None()
	res = CompareInvoice(&origin, &dest, cols)
	require.Equal(t, StatusNotMatched, res.Status)
	require.False(t, res.Diffs[0].Origen.Valid)
}

func TestAggregate(t *testing.T) {
	key := Key{NComp: "B00010000000001", CUIT: "20123456786"}
	records := []Invoice{
		{NComp: key.NComp, CUIT: key.CUIT, Neto: normalize.Num(100)},
		{NComp: key.NComp, CUIT: key.CUIT, IVA: normalize.Num(50)},
		{NComp: "A00010000000002", CUIT: key.CUIT, Total: normalize.Num(7)},
	}

	out := aggregate(records)
	require.Len(t, out, 2)
	require.Equal(t, key, out[0].Key())
	require.Equal(t, normalize.Num(100), out[0].Neto)
	require.Equal(t, normalize.Num(50), out[0].IVA)
	// No row carried these fields, so they stay absent.
	require.False(t, out[0].Exento.Valid)
	require.False(t, out[0].Total.Valid)
}

func TestReconcileMessagesAndCounts(t *testing.T) {
	cols := numberColumns(0.01)

	origen := []Invoice{
		{NComp: "A000100000916", CUIT: "20123456786", TC: 1, Total: normalize.Num(1000)},
		{NComp: "A000100000917", CUIT: "20123456786", TC: 1, Total: normalize.Num(1000)},
		{NComp: "A00010000000918", CUIT: "20123456786", TC: 1, Total: normalize.Num(500)},
	}
	dest := map[Key]Invoice{
		{NComp: "A000100000916", CUIT: "20123456786"}: {NComp: "A000100000916", Total: normalize.Num(1000.01)},
		{NComp: "A000100000917", CUIT: "20123456786"}: {NComp: "A000100000917", Total: normalize.Num(1000.02)},
	}

	results, messages := Reconcile(origen, dest, cols)
	require.Len(t, results, 3)
	require.Len(t, messages, 3)

	require.Equal(t, StatusMatched, results[0].Status)
	require.Equal(t, "✅ Factura A000100000916 coincide entre origen y destino.", messages[0])

	require.Equal(t, StatusNotMatched, results[1].Status)
	require.Equal(t, "❌ Factura A000100000917: diferencia en Total. Origen: 1.000,00 - Destino: 1.000,02", messages[1])

	require.Equal(t, StatusOmitted, results[2].Status)
	require.Equal(t, "⚠️ Factura A00010000000918 del proveedor 20-12345678-6 no se encuentra en destino. Se omite.", messages[2])

	require.Equal(t, 1, CountOmitted(results))
}

// The origin artifact recomputes statuses through the same CompareInvoice
// used for messages; both classifications must agree on identical fixtures.
func TestClassificationAgreesWithMessages(t *testing.T) {
	cols := numberColumns(0.01)

	origen := []Invoice{
		{NComp: "A00010000000001", CUIT: "1", TC: 1, Total: normalize.Num(10)},
		{NComp: "B00010000000002", CUIT: "2", TC: 1, Neto: normalize.Num(5), Total: normalize.Num(10)},
		{NComp: "C00010000000003", CUIT: "3", TC: 1, Neto: normalize.Num(5), Total: normalize.Num(10)},
		{NComp: "A00010000000004", CUIT: "4", TC: 1, Total: normalize.Num(10)},
	}
	dest := map[Key]Invoice{
		origen[0].Key(): {NComp: origen[0].NComp, Total: normalize.Num(10)},
		origen[1].Key(): {NComp: origen[1].NComp, Neto: normalize.Num(99), Total: normalize.Num(10)},
		origen[2].Key(): {NComp: origen[2].NComp, Neto: normalize.Num(99), Total: normalize.Num(10)},
	}

	results, _ := Reconcile(origen, dest, cols)

	for i := range origen {
		var counterpart *Invoice
		if d, ok := dest[origen[i].Key()]; ok {
			counterpart = &d
		}
		standalone := CompareInvoice(&origen[i], counterpart, cols)
		require.Equal(t, standalone.Status, results[i].Status, "record %d", i)
	}

	require.Equal(t, StatusMatched, results[0].Status)
	require.Equal(t, StatusNotMatched, results[1].Status)
	require.Equal(t, StatusMatched, results[2].Status) // C: net ignored
	require.Equal(t, StatusOmitted, results[3].Status)
}

func TestFieldLabel(t *testing.T) {
	require.Equal(t, "Total", fieldLabel("IMP_TOTAL"))
	require.Equal(t, "Iva", fieldLabel("IMP_IVA"))
	require.Equal(t, "Exento", fieldLabel("IMP_EXENTO"))
	require.Equal(t, "Fecha", fieldLabel("FECHA"))
}
