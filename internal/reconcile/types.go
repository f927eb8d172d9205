// Package reconcile aligns the AFIP (origin) export against the Tango
// (destination) export by composite invoice key and compares monetary
// fields under per-field tolerance and the origin exchange rate.
package reconcile

import (
	"conciliador/internal/normalize"
)

// Invoice is one canonical record of either source. NComp and CUIT are
// already canonicalized; TC is the origin exchange rate and defaults to 1.0
// when the export does not carry one.
type Invoice struct {
	NComp  string
	CUIT   string
	TC     float64
	Exento normalize.Number
	Neto   normalize.Number
	IVA    normalize.Number
	Total  normalize.Number
}

// Key identifies an invoice across both sources. Unique in the destination
// table after aggregation; origin duplicates are kept as-is.
type Key struct {
	NComp string
	CUIT  string
}

// Key returns the composite key of the invoice.
func (inv *Invoice) Key() Key {
	return Key{NComp: inv.NComp, CUIT: inv.CUIT}
}

// Letter is the invoice category: the first character of the canonical
// invoice number. Category C invoices compare only IMP_TOTAL.
func (inv *Invoice) Letter() string {
	if inv.NComp == "" {
		return ""
	}
	return inv.NComp[:1]
}

// Amount resolves a compared column name to the corresponding monetary
// field. Unknown names are absent, which pairs with the absent-vs-absent
// matching rule.
func (inv *Invoice) Amount(name string) normalize.Number {
	switch name {
	case "IMP_EXENTO":
		return inv.Exento
	case "IMP_NETO":
		return inv.Neto
	case "IMP_IVA":
		return inv.IVA
	case "IMP_TOTAL":
		return inv.Total
	}
	return normalize.None()
}

// Status is the terminal classification of one origin record.
type Status int

const (
	// StatusMatched means every compared field matched within tolerance.
	StatusMatched Status = iota
	// StatusNotMatched means at least one compared field differed.
	StatusNotMatched
	// StatusOmitted means the composite key has no destination counterpart.
	StatusOmitted
)

// Label is the user-facing Spanish status written into the origin artifact.
func (s Status) Label() string {
	switch s {
	case StatusMatched:
		return "Coincide"
	case StatusNotMatched:
		return "No coincide"
	default:
		return "Omitida"
	}
}

// FieldDiff is one mismatched field: the origin value already adjusted by
// the exchange rate, and the destination value.
type FieldDiff struct {
	Name    string
	Origen  normalize.Number
	Destino normalize.Number
}

// RowResult is the outcome for one origin record. Diffs is populated only
// for mismatched fields.
type RowResult struct {
	Invoice Invoice
	Status  Status
	Diffs   []FieldDiff
}

// Matched reports whether every compared field matched.
func (r *RowResult) Matched() bool {
	return r.Status == StatusMatched
}
