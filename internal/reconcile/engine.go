package reconcile

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"conciliador/internal/config"
	"conciliador/internal/normalize"
)

var titleCaser = cases.Title(language.Spanish)

// compareSet restricts the configured columns to the invoice category:
// category C compares only IMP_TOTAL, everything else compares the full
// configured set.
func compareSet(letter string, cols []config.Column) []config.Column {
	if letter != "C" {
		return cols
	}
	out := make([]config.Column, 0, 1)
	for _, col := range cols {
		if col.Name == "IMP_TOTAL" {
			out = append(out, col)
		}
	}
	return out
}

// CompareInvoice classifies one origin record against its destination
// counterpart (nil when the composite key has no match). Both the message
// path and the origin-artifact status column go through this function, so
// the two can never disagree for the same inputs.
//
// Per field: the origin value is scaled by the origin exchange rate
// (absent stays absent); both absent is a match, one absent is a mismatch,
// both present match iff the absolute difference is within the field
// tolerance.
func CompareInvoice(origin *Invoice, dest *Invoice, cols []config.Column) RowResult {
	res := RowResult{Invoice: *origin}

	if dest == nil {
		res.Status = StatusOmitted
		return res
	}

	// Loaders default TC to 1.0, but a hand-built record may carry NaN.
	tc := origin.TC
	if math.IsNaN(tc) {
		tc = 1.0
	}

	for _, col := range compareSet(origin.Letter(), cols) {
		a := origin.Amount(col.Name).Mul(tc)
		b := dest.Amount(col.Name)

		if !a.Valid && !b.Valid {
			continue
		}
		if a.Valid && b.Valid && withinTolerance(a.Val, b.Val, col.Tolerance) {
			continue
		}
		res.Diffs = append(res.Diffs, FieldDiff{Name: col.Name, Origen: a, Destino: b})
	}

	if len(res.Diffs) == 0 {
		res.Status = StatusMatched
	} else {
		res.Status = StatusNotMatched
	}
	return res
}

// withinTolerance compares in decimal space so a difference exactly equal
// to the tolerance matches regardless of binary float representation
// (1000.01 against 1000 at tolerance 0.01 must match).
func withinTolerance(a, b, tol float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.Cmp(decimal.NewFromFloat(tol)) <= 0
}

// Reconcile runs the engine over every origin record in order, producing
// the per-row results and the user-facing per-invoice messages. Origin
// duplicates are not deduplicated; each row is matched independently.
func Reconcile(origen []Invoice, dest map[Key]Invoice, cols []config.Column) ([]RowResult, []string) {
	results := make([]RowResult, 0, len(origen))
	messages := make([]string, 0, len(origen))

	for i := range origen {
		inv := &origen[i]
		var counterpart *Invoice
		if d, ok := dest[inv.Key()]; ok {
			counterpart = &d
		}
		res := CompareInvoice(inv, counterpart, cols)
		results = append(results, res)
		messages = append(messages, message(res))
	}
	return results, messages
}

// CountOmitted counts origin records without a destination counterpart.
func CountOmitted(results []RowResult) int {
	n := 0
	for i := range results {
		if results[i].Status == StatusOmitted {
			n++
		}
	}
	return n
}

// fieldLabel renders a column name for messages: monetary prefix stripped,
// title-cased (IMP_IVA → Iva).
func fieldLabel(name string) string {
	return titleCaser.String(strings.ToLower(strings.TrimPrefix(name, "IMP_")))
}

func message(res RowResult) string {
	ncomp := res.Invoice.NComp
	switch res.Status {
	case StatusOmitted:
		cuit := normalize.FormatCUIT(res.Invoice.CUIT)
		return fmt.Sprintf("⚠️ Factura %s del proveedor %s no se encuentra en destino. Se omite.", ncomp, cuit)
	case StatusMatched:
		return fmt.Sprintf("✅ Factura %s coincide entre origen y destino.", ncomp)
	}

	parts := make([]string, 0, len(res.Diffs))
	for _, d := range res.Diffs {
		parts = append(parts, fmt.Sprintf("diferencia en %s. Origen: %s - Destino: %s",
			fieldLabel(d.Name), normalize.FormatMoney(d.Origen), normalize.FormatMoney(d.Destino)))
	}
	return fmt.Sprintf("❌ Factura %s: %s", ncomp, strings.Join(parts, "; "))
}
