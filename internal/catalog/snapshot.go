package catalog

import (
	"github.com/shopspring/decimal"
)

// Product is the read-only catalog view of a product used while composing
// a draft. UnitPrice is the catalog price per base unit; stock is expressed
// in base units.
type Product struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	StockBaseUnits decimal.Decimal `json:"stock_base_units"`
}

// Presentation is the read-only catalog view of a unit-of-measure variant.
type Presentation struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Factor    decimal.Decimal `json:"factor"`
}

// Snapshot is an immutable view of the active catalog, loaded once per draft
// session. Presentations are grouped by product id preserving source order.
type Snapshot struct {
	products      map[uint]Product
	productOrder  []uint
	byProduct     map[uint][]Presentation
	presentations map[uint]Presentation
}

// NewSnapshot builds a snapshot from flat product and presentation lists.
func NewSnapshot(products []Product, presentations []Presentation) *Snapshot {
	s := &Snapshot{
		products:      make(map[uint]Product, len(products)),
		productOrder:  make([]uint, 0, len(products)),
		byProduct:     make(map[uint][]Presentation),
		presentations: make(map[uint]Presentation, len(presentations)),
	}
	for _, p := range products {
		if _, dup := s.products[p.ID]; dup {
			continue
		}
		s.products[p.ID] = p
		s.productOrder = append(s.productOrder, p.ID)
	}
	for _, pr := range presentations {
		s.byProduct[pr.ProductID] = append(s.byProduct[pr.ProductID], pr)
		s.presentations[pr.ID] = pr
	}
	return s
}

// Product looks up a product by id.
func (s *Snapshot) Product(id uint) (Product, bool) {
	p, ok := s.products[id]
	return p, ok
}

// Products returns all products in source order.
func (s *Snapshot) Products() []Product {
	out := make([]Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		out = append(out, s.products[id])
	}
	return out
}

// PresentationsFor returns the presentations of a product in source order.
// Unknown product ids yield an empty list, never an error.
func (s *Snapshot) PresentationsFor(productID uint) []Presentation {
	return s.byProduct[productID]
}

// Presentation looks up a presentation by id.
func (s *Snapshot) Presentation(id uint) (Presentation, bool) {
	pr, ok := s.presentations[id]
	return pr, ok
}
