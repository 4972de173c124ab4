package draft

import (
	"github.com/shopspring/decimal"
)

// Origin distinguishes who asked for a quantity change. Direct operator
// entries above the ceiling are rejected; engine-initiated recomputes
// (a presentation switch lowering the ceiling) clamp instead.
type Origin int

const (
	OriginOperator Origin = iota
	OriginRecompute
)

// Verdict is the outcome of a quantity check.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictClamped
	VerdictRejected
)

// Check carries the verdict plus the quantity to commit and the ceiling
// that produced it.
type Check struct {
	Verdict  Verdict
	Quantity int
	Max      int
}

// MaxAdmissibleQuantity computes the stock ceiling for one line, in
// presentation units. Sale drafts are capped at floor(stock / factor);
// purchase drafts are unbounded (bounded == false). Stock is per product,
// so the ceiling always reflects the currently selected presentation.
func MaxAdmissibleQuantity(kind Kind, stockBaseUnits, factor decimal.Decimal) (max int, bounded bool) {
	if kind != Sale {
		return 0, false
	}
	if factor.Sign() <= 0 {
		return 0, true
	}
	if stockBaseUnits.Sign() <= 0 {
		return 0, true
	}
	return int(stockBaseUnits.Div(factor).Floor().IntPart()), true
}

// ValidateQuantity checks a candidate quantity against a ceiling. Every
// quantity commit goes through here; the ceiling is never bypassed.
func ValidateQuantity(candidate, max int, bounded bool, origin Origin) Check {
	if !bounded || candidate <= max {
		return Check{Verdict: VerdictOK, Quantity: candidate, Max: max}
	}
	if origin == OriginRecompute {
		return Check{Verdict: VerdictClamped, Quantity: max, Max: max}
	}
	return Check{Verdict: VerdictRejected, Quantity: candidate, Max: max}
}
