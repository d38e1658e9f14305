package handlers

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "encore/internal/log"
	"encore/internal/repos"
	"encore/internal/services"
	"encore/internal/validate"
)

type AdminHandler struct {
	OrderRepo *repos.OrderRepo
	Inv       *repos.InventoryRepo
	Users     *repos.UserRepo
	Patrons   *repos.PatronRepo
	Tracks    *services.TrackService
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	counts, err := h.OrderRepo.CountByStatus()
	if err != nil {
		return err
	}
	patrons, err := h.Patrons.CountActive(time.Now().Unix())
	if err != nil {
		return err
	}
	tracks, err := h.Tracks.List()
	if err != nil {
		return err
	}
	return render(c, "admin_dashboard", fiber.Map{"Counts": counts, "Patrons": patrons, "Tracks": tracks})
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	ords, err := h.OrderRepo.ListLatest(100)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "admin_orders", fiber.Map{"Orders": ords})
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	status, ok := validate.Status(c.FormValue("status"))
	if !okID || !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing id or status")
	}
	from, err := h.OrderRepo.Transition(id, status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return notFound(c, "Order not found")
	case errors.Is(err, repos.ErrBadTransition):
		applog.Security(c, "admin.orders.update.refused", map[string]any{"order_id": id, "from": from, "to": status})
		return c.Status(fiber.StatusConflict).SendString("status change not allowed from " + from)
	case err != nil:
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return c.Status(fiber.StatusInternalServerError).SendString("could not update status")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "from": from, "status": status})
	return c.Redirect("/admin/orders")
}

// GET /admin/inventory
func (h *AdminHandler) Inventory(c *fiber.Ctx) error {
	rows, err := h.Inv.ListAll()
	if err != nil {
		applog.Error(c, "admin.inventory.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load inventory"})
	}
	ords, _ := h.OrderRepo.ListLatest(25)
	return render(c, "admin_inventory", fiber.Map{"Rows": rows, "Orders": ords})
}

// POST /admin/inventory
func (h *AdminHandler) UpdateInventory(c *fiber.Ctx) error {
	pid := c.FormValue("product_id")
	variant, ok := validate.Variant(c.FormValue("variant"))
	qty, err := strconv.Atoi(c.FormValue("qty"))
	if _, okID := validate.ID(pid); !okID || !ok || err != nil || qty < 0 {
		return c.Status(fiber.StatusBadRequest).SendString("invalid input")
	}
	if err := h.Inv.UpsertQty(pid, variant, qty); err != nil {
		applog.Error(c, "admin.inventory.save.fail", err, map[string]any{"product": pid, "variant": variant, "qty": qty})
		return c.Status(fiber.StatusBadRequest).SendString("could not save inventory")
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"product": pid, "variant": variant, "qty": qty})
	return c.Redirect("/admin/inventory")
}

// UsersPage lists users (excluding admin).
func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	users, err := h.Users.ListCustomers()
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load users"})
	}
	return render(c, "admin_users", fiber.Map{"Users": users})
}

// DeleteUser deletes a user and related data, cancels their unpaid orders.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing id")
	}
	if u := currentUser(c); u != nil && u.ID == id {
		return c.Status(fiber.StatusBadRequest).SendString("cannot delete your own account")
	}
	if err := h.Users.DeleteUserCascade(id); err != nil {
		applog.Error(c, "admin.users.delete.fail", err, map[string]any{"user_id": id})
		return c.Status(fiber.StatusBadRequest).SendString("could not delete user")
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.Redirect("/admin/users")
}
