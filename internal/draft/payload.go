package draft

import (
	"time"

	"order-service/internal/catalog"

	"github.com/shopspring/decimal"
)

// Payload is the wire shape accepted by the order submission service.
// Display-only fields (product name, code, presentation label) are dropped;
// the receiver resolves them from the ids.
type Payload struct {
	Kind           Kind          `json:"kind"`
	OrderNumber    string        `json:"order_number"`
	CounterpartyID uint          `json:"counterparty_id"`
	EffectiveDate  time.Time     `json:"effective_date"`
	Lines          []PayloadLine `json:"lines"`
}

// PayloadLine is the wire shape of one draft line. UnitPrice is present
// only for purchase drafts; the server is authoritative for sale pricing.
type PayloadLine struct {
	ProductID      uint             `json:"product_id"`
	PresentationID uint             `json:"presentation_id"`
	Quantity       int              `json:"quantity"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
}

// BuildPayload projects a draft into its submission payload. It refuses to
// build when the draft has no lines or a required header field is missing,
// and re-validates every sale line against the given snapshot, which should
// be freshly loaded: stock may have moved since lines were added, and this
// courtesy re-check reduces the chance of submitting an infeasible order.
// The authoritative stock check still belongs to the submission service.
func BuildPayload(d *Draft, snap *catalog.Snapshot) (Payload, error) {
	if len(d.Lines) == 0 {
		return Payload{}, validationErrorf("lines", "draft has no lines")
	}
	if d.Header.OrderNumber == "" {
		return Payload{}, validationErrorf("order_number", "order number is required")
	}
	if d.Header.CounterpartyID == 0 {
		return Payload{}, validationErrorf("counterparty_id", "counterparty is required")
	}
	if d.Header.EffectiveDate.IsZero() {
		return Payload{}, validationErrorf("effective_date", "effective date is required")
	}

	payload := Payload{
		Kind:           d.Kind,
		OrderNumber:    d.Header.OrderNumber,
		CounterpartyID: d.Header.CounterpartyID,
		EffectiveDate:  d.Header.EffectiveDate,
		Lines:          make([]PayloadLine, 0, len(d.Lines)),
	}

	for _, l := range d.Lines {
		product, ok := snap.Product(l.ProductID)
		if !ok {
			return Payload{}, validationErrorf("product_id", "product %d is no longer in the catalog", l.ProductID)
		}
		if _, ok := snap.Presentation(l.PresentationID); !ok {
			return Payload{}, validationErrorf("presentation_id", "presentation %d is no longer in the catalog", l.PresentationID)
		}

		max, bounded := MaxAdmissibleQuantity(d.Kind, product.StockBaseUnits, l.Factor)
		if check := ValidateQuantity(l.Quantity, max, bounded, OriginOperator); check.Verdict == VerdictRejected {
			return Payload{}, &ValidationError{
				Field:   "quantity",
				Message: "stock for " + product.Name + " changed and no longer covers this line",
				Max:     check.Max,
			}
		}

		pl := PayloadLine{
			ProductID:      l.ProductID,
			PresentationID: l.PresentationID,
			Quantity:       l.Quantity,
		}
		if d.Kind == Purchase {
			price := l.UnitPrice
			pl.UnitPrice = &price
		}
		payload.Lines = append(payload.Lines, pl)
	}

	return payload, nil
}
