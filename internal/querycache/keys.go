package querycache

import "github.com/google/uuid"

func ProductsKey() Key               { return K("products") }
func ProductKey(id uuid.UUID) Key    { return K("products", id) }
func OrdersKey() Key                 { return K("orders") }
func OrderKey(id uuid.UUID) Key      { return K("orders", id) }
func OrderListKey(archived bool) Key { return K("orders", map[string]any{"archived": archived}) }

func UserOrdersKey(userID uuid.UUID) Key {
	return K("orders", map[string]any{"userId": userID.String()})
}
