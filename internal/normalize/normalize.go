// Package normalize holds the value-level coercions shared by the AFIP and
// Tango loaders: locale-aware number parsing, CUIT digit extraction, string
// canonicalization and the es-AR money formatting used in diagnostics.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Number is an optional float64. The zero value is absent. Absence replaces
// the pandas NaN the source data carries for empty cells: arithmetic and
// comparisons must propagate it deliberately instead of silently producing
// NaN results.
type Number struct {
	Val   float64
	Valid bool
}

// Num returns a present Number.
func Num(v float64) Number {
	return Number{Val: v, Valid: true}
}

// None returns an absent Number.
func None() Number {
	return Number{}
}

// Mul scales a present value by rate; absent stays absent.
func (n Number) Mul(rate float64) Number {
	if !n.Valid {
		return n
	}
	return Num(n.Val * rate)
}

// Add sums two optional values with min_count=1 semantics: absent+absent is
// absent, one present wins, both present sum. Used by the destination
// aggregator for invoices split across several rows.
func (n Number) Add(o Number) Number {
	switch {
	case !n.Valid && !o.Valid:
		return None()
	case !n.Valid:
		return o
	case !o.Valid:
		return n
	}
	return Num(n.Val + o.Val)
}

// Or returns n when present, otherwise a present fallback.
func (n Number) Or(fallback float64) float64 {
	if n.Valid {
		return n.Val
	}
	return fallback
}

var nonDigits = regexp.MustCompile(`\D+`)

// ParseNumber coerces a raw cell value to an optional float64. Numeric input
// passes through as-is. String input follows the es-AR convention: period is
// the thousands separator, comma the decimal separator ("1.234,56" is
// 1234.56). Strings without a comma parse directly, so values excelize
// serializes from native numeric cells ("1234.56") keep their meaning.
// Empty, nil or unparseable input is absent, never an error.
func ParseNumber(v any) Number {
	switch x := v.(type) {
	case nil:
		return None()
	case float64:
		return Num(x)
	case float32:
		return Num(float64(x))
	case int:
		return Num(float64(x))
	case int64:
		return Num(float64(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return None()
		}
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			// ParseFloat accepts "NaN" and "Inf"; neither is a usable
			// monetary value.
			return None()
		}
		return Num(f)
	default:
		return None()
	}
}

// IntSafe coerces a raw cell to a non-negative int, tolerating locale
// decorations ("1.234", "916,0"). Anything unparseable or negative is 0.
func IntSafe(raw string) int {
	n := ParseNumber(raw)
	if !n.Valid || n.Val < 0 {
		return 0
	}
	return int(n.Val)
}

// CUITDigits strips everything but digits from a raw CUIT cell. An empty
// result means the CUIT is absent. Length is not validated here; an
// 11-digit check only happens when formatting for display.
func CUITDigits(raw string) string {
	return nonDigits.ReplaceAllString(raw, "")
}

// FormatCUIT renders an 11-digit CUIT as DD-DDDDDDDD-D for messages.
// Anything else comes back unchanged.
func FormatCUIT(digits string) string {
	s := strings.TrimSpace(digits)
	if len(s) != 11 {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	return s[0:2] + "-" + s[2:10] + "-" + s[10:11]
}

// Canonical trims and upper-cases a raw string cell.
func Canonical(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Kind selects the coercion applied to a compared column.
type Kind string

const (
	KindNumber Kind = "number"
	KindDate   Kind = "date"
	KindString Kind = "string"
)

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
}

// ParseDate parses a day-first calendar date. ok is false when no layout
// matches.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// Coerce dispatches a raw cell to the parser for kind. For KindNumber the
// result is a Number; for KindDate a time.Time with ok=false on parse
// failure; for KindString the canonical form (always ok).
func Coerce(raw string, kind Kind) (any, bool) {
	switch kind {
	case KindNumber:
		n := ParseNumber(raw)
		return n, n.Valid
	case KindDate:
		d, ok := ParseDate(raw)
		return d, ok
	default:
		return Canonical(raw), true
	}
}

// FormatMoney renders a present value as es-AR currency text: period for
// thousands, comma for decimals, always two decimals ("1.234,56"). Absent
// renders empty. decimal handles the half-up rounding so 1000.005 does not
// wobble on float representation.
func FormatMoney(n Number) string {
	if !n.Valid {
		return ""
	}
	fixed := decimal.NewFromFloat(n.Val).StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, decPart, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(decPart)
	return b.String()
}
