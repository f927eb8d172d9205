package reconcile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"conciliador/internal/normalize"
)

// ClassifyRule tags which rule of the tipo→letter chain produced a result,
// so callers and tests can tell a confident classification from the
// fallback.
type ClassifyRule int

const (
	// RuleCode matched a numeric comprobante code (1=A, 6=B, 11=C).
	RuleCode ClassifyRule = iota
	// RuleText matched a textual marker such as "FACTURA B".
	RuleText
	// RuleDefault is the terminal fallback to A.
	RuleDefault
)

// tipoCodes maps AFIP comprobante type codes to the invoice letter.
// Extendable: 2/7/12 are ND, 3/8/13 are NC.
var tipoCodes = map[int]string{
	1:  "A",
	6:  "B",
	11: "C",
}

var (
	firstInt   = regexp.MustCompile(`\d+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// LetterForTipo classifies a raw comprobante-type cell ("11 - FACTURA C",
// "Factura B", "6") into an invoice letter. Rules apply in order: numeric
// code table, textual markers, default A. The default is deliberately lossy
// and tagged so the loader can log when it fires.
func LetterForTipo(raw string) (string, ClassifyRule) {
	s := normalize.Canonical(raw)

	if m := firstInt.FindString(s); m != "" {
		if code, err := strconv.Atoi(m); err == nil {
			if letter, ok := tipoCodes[code]; ok {
				return letter, RuleCode
			}
		}
	}

	for _, letter := range []string{"A", "B", "C"} {
		if strings.Contains(s, "FACTURA "+letter) || strings.HasSuffix(s, " "+letter) || s == letter {
			return letter, RuleText
		}
	}
	for _, letter := range []string{"A", "B", "C"} {
		if strings.Contains(s, letter) {
			return letter, RuleText
		}
	}

	return "A", RuleDefault
}

// CanonicalNComp canonicalizes an invoice number: trimmed, upper-cased,
// all internal whitespace removed ("C 00002 00000916" → "C0000200000916").
// Idempotent.
func CanonicalNComp(raw string) string {
	return whitespace.ReplaceAllString(normalize.Canonical(raw), "")
}

// BuildNComp derives the canonical invoice number from the raw type,
// point-of-sale and sequence cells. pattern is a fmt pattern taking the
// letter, pv and num in that order (default "%s%04d%08d").
func BuildNComp(tipoRaw, pvRaw, numRaw, pattern string) string {
	letter, _ := LetterForTipo(tipoRaw)
	return CanonicalNComp(fmt.Sprintf(pattern, letter, normalize.IntSafe(pvRaw), normalize.IntSafe(numRaw)))
}
