package catalog

import (
	"context"
	"fmt"

	"order-service/internal/model"

	"gorm.io/gorm"
)

// SnapshotSource loads a catalog snapshot for a new draft session.
type SnapshotSource interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Store loads snapshots from the catalog tables. Only active products and
// active presentations are included.
type Store struct {
	db *gorm.DB
}

// NewStore creates a catalog store backed by the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Load fetches active products and presentations and groups them into a
// snapshot.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	var products []model.Product
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	var presentations []model.Presentation
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&presentations).Error; err != nil {
		return nil, fmt.Errorf("load presentations: %w", err)
	}

	catProducts := make([]Product, 0, len(products))
	for _, p := range products {
		catProducts = append(catProducts, Product{
			ID:             p.ID,
			Name:           p.Name,
			Code:           p.Code,
			UnitPrice:      p.UnitPrice,
			StockBaseUnits: p.StockBaseUnits,
		})
	}

	catPresentations := make([]Presentation, 0, len(presentations))
	for _, pr := range presentations {
		catPresentations = append(catPresentations, Presentation{
			ID:        pr.ID,
			ProductID: pr.ProductID,
			Name:      pr.Name,
			Factor:    pr.Factor,
		})
	}

	return NewSnapshot(catProducts, catPresentations), nil
}
