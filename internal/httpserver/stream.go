package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_order/internal/realtime"
	"github.com/Skotchmaster/food_order/internal/service"
	"github.com/Skotchmaster/food_order/pkg/logging"
)

const defaultHeartbeat = 25 * time.Second

// StreamHTTP serves realtime order events as server-sent events.
type StreamHTTP struct {
	Hub       *realtime.Hub
	Orders    *service.OrderService
	Heartbeat time.Duration
}

// AdminOrders streams every new order.
func (h *StreamHTTP) AdminOrders(c echo.Context) error {
	return h.stream(c, realtime.Filter{Type: realtime.EventInsert})
}

// Order streams status updates of one order to its owner or an admin.
func (h *StreamHTTP) Order(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "stream.order")

	sess, err := currentSession(c)
	if err != nil {
		l.Warn("order_stream_error", "status", 401, "reason", "no session", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("order_stream_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if _, err := h.Orders.GetOrder(ctx, sess, id); err != nil {
		return fail(l, "order_stream_error", err)
	}

	return h.stream(c, realtime.Filter{Type: realtime.EventUpdate, OrderID: id})
}

func (h *StreamHTTP) stream(c echo.Context, f realtime.Filter) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "stream", "event_type", f.Type)

	sub := h.Hub.Subscribe(f)
	defer sub.Cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	l.Info("stream_opened")
	for {
		select {
		case <-ctx.Done():
			l.Info("stream_closed")
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case e, ok := <-sub.C:
			if !ok {
				return nil
			}
			data, err := json.Marshal(e)
			if err != nil {
				l.Error("stream_encode_failed", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", e.Type, data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
