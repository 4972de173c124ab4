package draft

import (
	"time"

	"order-service/internal/catalog"

	"github.com/shopspring/decimal"
)

// Kind selects purchase or sale semantics for a draft. The two kinds share
// the whole engine except for the stock ceiling (sales only) and the
// pricing unit of a line (per presentation unit for purchases, per base
// unit for sales).
type Kind string

const (
	Purchase Kind = "purchase"
	Sale     Kind = "sale"
)

// Valid reports whether k names a known draft kind.
func (k Kind) Valid() bool {
	return k == Purchase || k == Sale
}

// Line is one (product, presentation) entry of a draft. The pair is the
// uniqueness key: the same product under two presentations yields two
// independent lines. ProductName, ProductCode and PresentationName are
// carried only so the UI can echo them; they never reach the submission
// payload.
type Line struct {
	ProductID        uint
	PresentationID   uint
	ProductName      string
	ProductCode      string
	PresentationName string
	Factor           decimal.Decimal
	Quantity         int
	UnitPrice        decimal.Decimal
}

// Subtotal derives the line amount from current state. Sale prices are per
// base unit, so the conversion factor participates; purchase prices are per
// presentation unit and the factor does not. The asymmetry is inherited
// business behavior and must not be unified.
func (l *Line) Subtotal(kind Kind) decimal.Decimal {
	qty := decimal.NewFromInt(int64(l.Quantity))
	if kind == Sale {
		return qty.Mul(l.Factor).Mul(l.UnitPrice)
	}
	return qty.Mul(l.UnitPrice)
}

// Header holds the order-level fields entered by the operator.
type Header struct {
	OrderNumber    string    `json:"order_number"`
	CounterpartyID uint      `json:"counterparty_id"`
	EffectiveDate  time.Time `json:"effective_date"`
}

// Draft is an in-memory, unsaved order being assembled. It has no persisted
// identity until successfully submitted.
type Draft struct {
	Kind   Kind
	Header Header
	Lines  []*Line
}

// New creates an empty draft of the given kind.
func New(kind Kind) *Draft {
	return &Draft{Kind: kind}
}

// Total recomputes the grand total from current line state on every call.
// Nothing is cached, so the total can never go stale after a mutation.
func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(l.Subtotal(d.Kind))
	}
	return total
}

// Line returns the line for the (product, presentation) key, or nil.
func (d *Draft) Line(productID, presentationID uint) *Line {
	for _, l := range d.Lines {
		if l.ProductID == productID && l.PresentationID == presentationID {
			return l
		}
	}
	return nil
}

// AddOrMerge adds a line for (product, presentation) or, when the key
// already exists, increments its quantity. The merged total quantity is
// validated against the stock ceiling before anything is committed; a
// rejection leaves the draft untouched. On merge the unit price recorded at
// first insertion is retained.
//
// For purchase drafts unitPrice is the operator-entered price per
// presentation unit. For sale drafts it is ignored; the catalog price per
// base unit is authoritative.
func (d *Draft) AddOrMerge(snap *catalog.Snapshot, productID, presentationID uint, quantity int, unitPrice decimal.Decimal) (line *Line, merged bool, err error) {
	if quantity < 1 {
		return nil, false, validationErrorf("quantity", "quantity must be at least 1")
	}

	product, ok := snap.Product(productID)
	if !ok {
		return nil, false, validationErrorf("product_id", "product %d is not in the catalog", productID)
	}
	presentation, ok := snap.Presentation(presentationID)
	if !ok || presentation.ProductID != productID {
		return nil, false, validationErrorf("presentation_id", "presentation %d does not belong to product %d", presentationID, productID)
	}

	price := unitPrice
	if d.Kind == Sale {
		price = product.UnitPrice
	} else if price.Sign() <= 0 {
		return nil, false, validationErrorf("unit_price", "unit price must be greater than zero")
	}

	existing := d.Line(productID, presentationID)
	candidate := quantity
	if existing != nil {
		candidate = existing.Quantity + quantity
	}

	max, bounded := MaxAdmissibleQuantity(d.Kind, product.StockBaseUnits, presentation.Factor)
	check := ValidateQuantity(candidate, max, bounded, OriginOperator)
	if check.Verdict == VerdictRejected {
		return nil, false, &ValidationError{
			Field:   "quantity",
			Message: "requested quantity exceeds available stock",
			Max:     check.Max,
		}
	}

	if existing != nil {
		existing.Quantity = check.Quantity
		return existing, true, nil
	}

	line = &Line{
		ProductID:        productID,
		PresentationID:   presentationID,
		ProductName:      product.Name,
		ProductCode:      product.Code,
		PresentationName: presentation.Name,
		Factor:           presentation.Factor,
		Quantity:         check.Quantity,
		UnitPrice:        price,
	}
	d.Lines = append(d.Lines, line)
	return line, false, nil
}

// ChangePresentation re-keys a line to a new presentation of the same
// product, copying the new conversion factor and display name. The quantity
// is re-validated against the new presentation's ceiling and clamped down
// when the new ceiling is lower, never rejected. Switching onto a key that
// already has its own line is refused to preserve line uniqueness.
func (d *Draft) ChangePresentation(snap *catalog.Snapshot, productID, oldPresentationID, newPresentationID uint) (line *Line, clamped bool, err error) {
	line = d.Line(productID, oldPresentationID)
	if line == nil {
		return nil, false, ErrLineNotFound
	}
	if oldPresentationID == newPresentationID {
		return line, false, nil
	}
	if d.Line(productID, newPresentationID) != nil {
		return nil, false, validationErrorf("presentation_id", "a line for this product and presentation already exists")
	}

	product, ok := snap.Product(productID)
	if !ok {
		return nil, false, validationErrorf("product_id", "product %d is not in the catalog", productID)
	}
	presentation, ok := snap.Presentation(newPresentationID)
	if !ok || presentation.ProductID != productID {
		return nil, false, validationErrorf("presentation_id", "presentation %d does not belong to product %d", newPresentationID, productID)
	}

	max, bounded := MaxAdmissibleQuantity(d.Kind, product.StockBaseUnits, presentation.Factor)
	if bounded && max == 0 {
		return nil, false, &ValidationError{
			Field:   "presentation_id",
			Message: "no stock is available in this presentation",
		}
	}

	check := ValidateQuantity(line.Quantity, max, bounded, OriginRecompute)

	line.PresentationID = presentation.ID
	line.PresentationName = presentation.Name
	line.Factor = presentation.Factor
	line.Quantity = check.Quantity
	return line, check.Verdict == VerdictClamped, nil
}

// UpdateQuantity commits an operator-entered quantity for a line. A blank
// entry reaches the engine as a value below 1 and is forced to 1; an entry
// above the sale stock ceiling is rejected with the ceiling attached.
func (d *Draft) UpdateQuantity(snap *catalog.Snapshot, productID, presentationID uint, quantity int) (*Line, error) {
	line := d.Line(productID, presentationID)
	if line == nil {
		return nil, ErrLineNotFound
	}

	if quantity < 1 {
		quantity = 1
	}

	product, ok := snap.Product(productID)
	if !ok {
		return nil, validationErrorf("product_id", "product %d is not in the catalog", productID)
	}

	max, bounded := MaxAdmissibleQuantity(d.Kind, product.StockBaseUnits, line.Factor)
	check := ValidateQuantity(quantity, max, bounded, OriginOperator)
	if check.Verdict == VerdictRejected {
		return nil, &ValidationError{
			Field:   "quantity",
			Message: "requested quantity exceeds available stock",
			Max:     check.Max,
		}
	}

	line.Quantity = check.Quantity
	return line, nil
}

// UpdatePrice changes the unit price of a purchase line. Sale prices are
// catalog data and immutable here.
func (d *Draft) UpdatePrice(productID, presentationID uint, unitPrice decimal.Decimal) (*Line, error) {
	if d.Kind == Sale {
		return nil, validationErrorf("unit_price", "sale prices are fixed by the catalog")
	}

	line := d.Line(productID, presentationID)
	if line == nil {
		return nil, ErrLineNotFound
	}
	if unitPrice.Sign() <= 0 {
		return nil, validationErrorf("unit_price", "unit price must be greater than zero")
	}

	line.UnitPrice = unitPrice
	return line, nil
}

// Remove deletes the line for the (product, presentation) key, leaving all
// other lines untouched.
func (d *Draft) Remove(productID, presentationID uint) error {
	for i, l := range d.Lines {
		if l.ProductID == productID && l.PresentationID == presentationID {
			d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}
