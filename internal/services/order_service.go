package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"encore/internal/repos"
)

var ErrCartEmpty = errors.New("cart empty")

type Contact struct {
	Name  string
	Email string
}

type OrderService struct {
	Carts  *repos.CartRepo
	Orders *repos.OrderRepo
	Prods  *repos.ProductRepo
}

func NewOrderService(carts *repos.CartRepo, orders *repos.OrderRepo, prods *repos.ProductRepo) *OrderService {
	return &OrderService{Carts: carts, Orders: orders, Prods: prods}
}

// Place turns the session's cart into an order awaiting payment. Lines are
// re-priced from the catalog; cartTotal is what the cart rows claimed and is
// only returned for auditing.
func (s *OrderService) Place(sessionID, country, fulfillment string, contact Contact) (orderID string, total, cartTotal decimal.Decimal, err error) {
	if country == "" {
		return "", total, cartTotal, errors.New("missing country")
	}
	if fulfillment == "" {
		fulfillment = "ship"
	}

	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return "", total, cartTotal, err
	}
	items, err := s.Carts.Items(cartID)
	if err != nil {
		return "", total, cartTotal, err
	}
	if len(items) == 0 {
		return "", total, cartTotal, ErrCartEmpty
	}

	lines := make([]repos.NewOrderItem, 0, len(items))
	for _, it := range items {
		p, err := s.Prods.Get(it.ProductID)
		if err != nil || !p.Active {
			return "", total, cartTotal, fmt.Errorf("%w: %s", ErrUnknownProduct, it.ProductID)
		}
		qty := decimal.NewFromInt(int64(it.Qty))
		total = total.Add(p.Price.Mul(qty))
		cartTotal = cartTotal.Add(it.PriceAtAdd.Mul(qty))
		lines = append(lines, repos.NewOrderItem{
			ProductID: it.ProductID, Variant: it.Variant, Qty: it.Qty, Price: p.Price, Kind: p.Kind,
		})
	}

	orderID = uuid.NewString()
	if err := s.Orders.CreateWithHold(repos.NewOrder{
		ID: orderID, SessionID: sessionID, Country: country, Fulfillment: fulfillment,
		Name: contact.Name, Email: contact.Email, Total: total,
	}, lines, cartID); err != nil {
		return "", total, cartTotal, err
	}
	return orderID, total, cartTotal, nil
}
