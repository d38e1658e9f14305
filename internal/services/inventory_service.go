package services

import (
	"database/sql"
	"errors"

	"encore/internal/domain"
	"encore/internal/repos"
)

const lowStockBelow = 5

type InventoryService struct {
	Inv *repos.InventoryRepo
}

func NewInventoryService(inv *repos.InventoryRepo) *InventoryService {
	return &InventoryService{Inv: inv}
}

// CheckAvailability converts qty to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(productID, variant string) (domain.Availability, error) {
	qty, err := s.Inv.Qty(productID, variant)
	if err != nil {
		// No inventory row means the size is not stocked at all.
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Availability{Status: "OUT_OF_STOCK", Variant: variant}, nil
		}
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= lowStockBelow:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Variant: variant, Qty: qty}, nil
}
