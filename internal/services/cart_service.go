package services

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"encore/internal/repos"
)

var (
	ErrUnknownProduct = errors.New("product not available")
	ErrUnknownVariant = errors.New("size not offered for this product")
)

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

func (s *CartService) Add(sessionID, productID, variant string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	p, err := s.Prods.Get(productID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !p.Active) {
		return ErrUnknownProduct
	}
	if err != nil {
		return err
	}
	variants, err := s.Prods.Variants(productID)
	if err != nil {
		return err
	}
	if !slices.Contains(variants, variant) {
		return fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	return s.Carts.UpsertItem(cartID, productID, variant, qty, p.Price)
}

func (s *CartService) Remove(sessionID, productID, variant string) error {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	return s.Carts.RemoveItem(cartID, productID, variant)
}

type CartView struct {
	Items []repos.CartItemRow
	Total decimal.Decimal
}

func (s *CartService) View(sessionID string) (CartView, error) {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return CartView{}, err
	}
	items, total, err := s.Carts.View(cartID)
	if err != nil {
		return CartView{}, err
	}
	return CartView{Items: items, Total: total}, nil
}
