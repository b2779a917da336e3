package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/food_order/internal/middleware/auth"
)

type Deps struct {
	Auth     *AuthHTTP
	Catalog  *CatalogHTTP
	Orders   *OrderHTTP
	Cart     *CartHTTP
	Checkout *CheckoutHTTP
	Stream   *StreamHTTP

	JWTSecret []byte
	Checker   authmw.SessionChecker
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := authmw.NewSessionMiddleware(d.JWTSecret, d.Checker)

	auth := e.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout, authMW.RequireAuth)
	auth.GET("/me", d.Auth.Me, authMW.RequireAuth)

	products := e.Group("/products")
	products.GET("", d.Catalog.ListProducts)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/:id", d.Catalog.GetProduct)
	products.POST("", d.Catalog.CreateProduct, authMW.RequireAdmin)
	products.PATCH("/:id", d.Catalog.PatchProduct, authMW.RequireAdmin)
	products.DELETE("/:id", d.Catalog.DeleteProduct, authMW.RequireAdmin)

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.DELETE("", d.Cart.ClearCart)
	cart.POST("/items", d.Cart.AddItem)
	cart.PATCH("/items/:id", d.Cart.UpdateItem)

	checkout := e.Group("/checkout", authMW.RequireAuth)
	checkout.GET("", d.Checkout.Current)
	checkout.POST("", d.Checkout.Begin)
	checkout.POST("/confirm", d.Checkout.Confirm)
	checkout.POST("/cancel", d.Checkout.Cancel)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.GET("", d.Orders.ListMyOrders)
	orders.GET("/:id", d.Orders.GetOrder)
	orders.GET("/:id/stream", d.Stream.Order)

	admin := e.Group("/admin", authMW.RequireAdmin)
	admin.GET("/orders", d.Orders.ListOrders)
	admin.GET("/orders/stream", d.Stream.AdminOrders)
	admin.PATCH("/orders/:id", d.Orders.UpdateOrderStatus)
}
