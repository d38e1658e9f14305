package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "encore/internal/log"
	"encore/internal/services"
	"encore/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	variant, ok := validate.Variant(c.FormValue("variant"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "variant"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid size")
	}
	qty := validate.Qty(c.FormValue("qty"))

	if err := h.Cart.Add(sid, productID, variant, qty); err != nil {
		if errors.Is(err, services.ErrUnknownProduct) || errors.Is(err, services.ErrUnknownVariant) {
			return c.Status(fiber.StatusBadRequest).SendString("That item or size is not available")
		}
		applog.Error(c, "cart.add.fail", err, map[string]any{"product": productID})
		return c.Status(fiber.StatusInternalServerError).SendString("Could not update cart")
	}
	applog.Info(c, "cart.add", map[string]any{"product": productID, "variant": variant, "qty": qty})
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	variant, okV := validate.Variant(c.FormValue("variant"))
	if !ok || !okV {
		return c.Status(fiber.StatusBadRequest).SendString("invalid item")
	}
	if err := h.Cart.Remove(sid, productID, variant); err != nil {
		applog.Error(c, "cart.remove.fail", err, map[string]any{"product": productID})
		return c.Status(fiber.StatusInternalServerError).SendString("Could not update cart")
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(ensureSID(c))
	if err != nil {
		applog.Error(c, "cart.view.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "cart", fiber.Map{"Cart": cv})
}
