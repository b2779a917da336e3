package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_order/internal/cart"
	"github.com/Skotchmaster/food_order/internal/service"
	"github.com/Skotchmaster/food_order/internal/transport"
	"github.com/Skotchmaster/food_order/pkg/logging"
)

// CartHTTP serves the session's in-memory cart. Products are read through the catalog.
type CartHTTP struct {
	Carts   *cart.Store
	Catalog *service.CatalogService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart.get_cart")

	sess, err := currentSession(c)
	if err != nil {
		l.Warn("get_cart_error", "status", 401, "reason", "no session", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(http.StatusOK, cartResponse(h.Carts.Get(sess.ID).Snapshot()))
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	sess, err := currentSession(c)
	if err != nil {
		l.Warn("add_item_error", "status", 401, "reason", "no session", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return fail(l, "add_item_error", err)
	}

	crt := h.Carts.Get(sess.ID)
	line, err := crt.AddItem(*p, req.Size)
	if err != nil {
		return fail(l, "add_item_error", err)
	}

	l.Info("add_item_success", "line_id", line.ID, "product_id", p.ID, "size", line.Size, "quantity", line.Quantity)
	return c.JSON(http.StatusOK, cartResponse(crt.Snapshot()))
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart.update_item")

	sess, err := currentSession(c)
	if err != nil {
		l.Warn("update_item_error", "status", 401, "reason", "no session", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	lineID, err := parseID(c, "id")
	if err != nil {
		l.Warn("update_item_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	crt := h.Carts.Get(sess.ID)
	if err := crt.UpdateQuantity(lineID, req.Delta); err != nil {
		return fail(l, "update_item_error", err)
	}

	return c.JSON(http.StatusOK, cartResponse(crt.Snapshot()))
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart.clear_cart")

	sess, err := currentSession(c)
	if err != nil {
		l.Warn("clear_cart_error", "status", 401, "reason", "no session", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	h.Carts.Get(sess.ID).Clear()
	l.Info("clear_cart_success")
	return c.NoContent(http.StatusNoContent)
}

func cartResponse(snap cart.Snapshot) transport.CartResponse {
	items := make([]transport.CartLineResponse, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		items = append(items, transport.CartLineResponse{
			ID:        line.ID,
			Product:   line.Product,
			ProductID: line.Product.ID,
			Size:      line.Size,
			Quantity:  line.Quantity,
			LineTotal: line.Total(),
		})
	}
	return transport.CartResponse{Items: items, Total: snap.Total}
}
