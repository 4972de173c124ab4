package orders

import (
	"context"
	"errors"
	"fmt"

	"order-service/internal/draft"
	"order-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateOrderNumber is returned when an order with the same number
// already exists for the same kind. It is recoverable: the operator changes
// the number and resubmits.
var ErrDuplicateOrderNumber = errors.New("order number already exists")

// StockError reports a sale line whose requested base units exceed the
// stock held server-side at submission time.
type StockError struct {
	ProductID uint
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %s base units, %s available", e.ProductID, e.Requested, e.Available)
}

// Store persists submitted orders. It is the authoritative stock check:
// submission runs in one transaction that verifies the order number is
// unique within its kind, re-checks sale stock, applies the stock movement
// (sales decrement, purchases increment) and writes the order with its
// lines.
type Store struct {
	db *gorm.DB
}

// NewStore creates an order store backed by the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Submit implements draft.Submitter.
func (s *Store) Submit(ctx context.Context, payload draft.Payload) (draft.SubmitResult, error) {
	var orderID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Order{}).
			Where("kind = ? AND order_number = ?", string(payload.Kind), payload.OrderNumber).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check order number: %w", err)
		}
		if count > 0 {
			return ErrDuplicateOrderNumber
		}

		order := model.Order{
			Kind:           string(payload.Kind),
			OrderNumber:    payload.OrderNumber,
			CounterpartyID: payload.CounterpartyID,
			EffectiveDate:  payload.EffectiveDate,
			Total:          decimal.Zero,
		}

		for _, pl := range payload.Lines {
			// The row is locked until commit so two concurrent submissions
			// for the same product cannot both pass the stock check.
			var product model.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, pl.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &draft.ValidationError{Field: "product_id", Message: fmt.Sprintf("product %d not found", pl.ProductID)}
				}
				return fmt.Errorf("load product %d: %w", pl.ProductID, err)
			}

			var presentation model.Presentation
			if err := tx.First(&presentation, pl.PresentationID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &draft.ValidationError{Field: "presentation_id", Message: fmt.Sprintf("presentation %d not found", pl.PresentationID)}
				}
				return fmt.Errorf("load presentation %d: %w", pl.PresentationID, err)
			}
			if presentation.ProductID != product.ID {
				return &draft.ValidationError{Field: "presentation_id", Message: fmt.Sprintf("presentation %d does not belong to product %d", pl.PresentationID, pl.ProductID)}
			}

			qty := decimal.NewFromInt(int64(pl.Quantity))
			baseUnits := qty.Mul(presentation.Factor)

			var unitPrice, subtotal decimal.Decimal
			switch payload.Kind {
			case draft.Sale:
				if baseUnits.GreaterThan(product.StockBaseUnits) {
					return &StockError{
						ProductID: product.ID,
						Requested: baseUnits,
						Available: product.StockBaseUnits,
					}
				}
				// Sale pricing is server-side: price per base unit from the catalog.
				unitPrice = product.UnitPrice
				subtotal = qty.Mul(presentation.Factor).Mul(unitPrice)
				product.StockBaseUnits = product.StockBaseUnits.Sub(baseUnits)
			case draft.Purchase:
				if pl.UnitPrice == nil || pl.UnitPrice.Sign() <= 0 {
					return &draft.ValidationError{Field: "unit_price", Message: fmt.Sprintf("purchase line for product %d requires a positive unit price", pl.ProductID)}
				}
				// Purchase pricing is per presentation unit as entered by the operator.
				unitPrice = *pl.UnitPrice
				subtotal = qty.Mul(unitPrice)
				product.StockBaseUnits = product.StockBaseUnits.Add(baseUnits)
			default:
				return &draft.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown order kind %q", payload.Kind)}
			}

			if err := tx.Model(&model.Product{}).
				Where("id = ?", product.ID).
				Update("stock_base_units", product.StockBaseUnits).Error; err != nil {
				return fmt.Errorf("update stock for product %d: %w", product.ID, err)
			}

			order.Lines = append(order.Lines, model.OrderLine{
				ProductID:      pl.ProductID,
				PresentationID: pl.PresentationID,
				Quantity:       pl.Quantity,
				UnitPrice:      unitPrice,
				Subtotal:       subtotal,
			})
			order.Total = order.Total.Add(subtotal)
		}

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		orderID = order.ID
		return nil
	})

	if err != nil {
		return draft.SubmitResult{}, err
	}
	return draft.SubmitResult{OrderID: orderID}, nil
}

// List returns submitted orders, optionally filtered by kind, newest first.
func (s *Store) List(ctx context.Context, kind string) ([]model.Order, error) {
	query := s.db.WithContext(ctx).Preload("Lines").Order("id DESC")
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	var out []model.Order
	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

// Get returns one submitted order with its lines.
func (s *Store) Get(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := s.db.WithContext(ctx).Preload("Lines").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}
