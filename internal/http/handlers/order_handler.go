package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"encore/internal/domain"
	applog "encore/internal/log"
	"encore/internal/repos"
	"encore/internal/services"
	"encore/internal/validate"
)

type OrderHandler struct {
	Cart  *services.CartService
	Order *services.OrderService
	Repo  *repos.OrderRepo
	Auth  *services.AuthService
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	cv, err := h.Cart.View(ensureSID(c))
	if err != nil {
		applog.Error(c, "checkout.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "checkout", fiber.Map{"Cart": cv})
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sid := ensureSID(c)

	country, ok := validate.Country(c.FormValue("country"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "country"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid country code")
	}
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid email")
	}
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "name"})
		return c.Status(fiber.StatusBadRequest).SendString("name must be 1-40 characters")
	}
	fulfillment, ok := validate.Fulfillment(c.FormValue("fulfillment"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "fulfillment"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid fulfillment option")
	}

	orderID, serverTotal, cartTotal, err := h.Order.Place(sid, country, fulfillment, services.Contact{Name: name, Email: email})
	if err != nil {
		if errors.Is(err, services.ErrCartEmpty) || errors.Is(err, repos.ErrInsufficientStock) || errors.Is(err, services.ErrUnknownProduct) {
			applog.Security(c, "order.place.fail", map[string]any{"sid": sid, "error": err.Error()})
			return c.Status(fiber.StatusBadRequest).SendString("Could not place order. Please review quantities and try again.")
		}
		applog.Error(c, "order.place.fail", err, map[string]any{"sid": sid})
		return c.Status(fiber.StatusInternalServerError).SendString("Could not place order. Please try again.")
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id":     orderID,
		"server_total": serverTotal.StringFixed(2),
		"cart_total":   cartTotal.StringFixed(2),
		"mismatch":     !serverTotal.Equal(cartTotal),
	})

	return c.Redirect("/order/" + orderID)
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid := c.Params("id")
	if oid == "" {
		return notFound(c, "Order not found")
	}

	o, items, err := h.Repo.Get(oid)
	if err != nil {
		return notFound(c, "Order not found")
	}

	// Session owner, the same user through sessions.user_id, or an admin.
	sid := c.Cookies("sid")
	var u *domain.User
	if h.Auth != nil && sid != "" {
		u, _ = h.Auth.CurrentUser(sid)
	}
	owner := (sid != "" && sid == o.SessionID) || (u != nil && u.ID == o.UserID)
	if !owner && !u.IsAdmin() {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return notFound(c, "Order not found")
	}

	return render(c, "order", fiber.Map{"Order": o, "Items": items, "Cents": services.Cents(o.Total)})
}

// History lists orders for the current logged-in user.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	if u == nil {
		return notFound(c, "Orders not available")
	}
	orders, err := h.Repo.ListByUser(u.ID)
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	// Fallback: show session orders if none linked to user (e.g., pre-login)
	if len(orders) == 0 {
		if sid := c.Cookies("sid"); sid != "" {
			if sessOrders, err := h.Repo.ListBySession(sid); err == nil && len(sessOrders) > 0 {
				orders = sessOrders
			}
		}
	}
	return render(c, "order_history", fiber.Map{"Orders": orders})
}
