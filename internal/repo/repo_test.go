package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_order/internal/models"
	"github.com/Skotchmaster/food_order/internal/transport"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return New(db)
}

func seedProduct(t *testing.T, r *GormRepo, name, price string) *models.Product {
	t.Helper()
	p, err := r.CreateProduct(context.Background(), &models.Product{Name: name, Price: decimal.RequireFromString(price)})
	require.NoError(t, err)
	return p
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "pq unique", err: &pq.Error{Code: pqUniqueViolation}, want: ErrDuplicate},
		{name: "pq fk", err: &pq.Error{Code: pqForeignKeyViolation}, want: ErrReferenced},
		{name: "gorm duplicated", err: gorm.ErrDuplicatedKey, want: ErrDuplicate},
		{name: "gorm fk", err: gorm.ErrForeignKeyViolated, want: ErrReferenced},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := translate(tt.err)
			require.ErrorIs(t, got, tt.want)
			require.ErrorIs(t, got, tt.err)
		})
	}

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
	assert.NoError(t, translate(nil))
}

func TestProducts_CRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)

	p := seedProduct(t, r, "Margherita", "9.99")
	require.NotEqual(t, uuid.Nil, p.ID)

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Margherita", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("9.99")))

	name := "Marinara"
	price := decimal.RequireFromString("8.50")
	patched, err := r.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Marinara", patched.Name)
	assert.True(t, patched.Price.Equal(price))

	_, err = r.PatchProduct(ctx, uuid.New(), transport.PatchProductRequest{Name: &name})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	list, err := r.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, r.DeleteProduct(ctx, p.ID))
	require.ErrorIs(t, r.DeleteProduct(ctx, p.ID), gorm.ErrRecordNotFound)

	_, err = r.GetProduct(ctx, p.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSearchProducts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)
	seedProduct(t, r, "Pepperoni Pizza", "12")
	seedProduct(t, r, "Cheese Pizza", "10")
	seedProduct(t, r, "Tomato Soup", "5")

	total, items, err := r.SearchProducts(ctx, "pizza", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "Cheese Pizza", items[0].Name)

	total, items, err = r.SearchProducts(ctx, "pizza", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 1)
}

func TestOrders_PlaceAndDetails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)
	p := seedProduct(t, r, "Burger", "9.99")
	intent := "pi_1"

	order := &models.Order{UserID: uuid.New(), Total: decimal.RequireFromString("19.98"), PaymentIntentID: &intent}
	items := []models.OrderItem{{ProductID: p.ID, Size: models.SizeM, Quantity: 2}}
	require.NoError(t, r.PlaceOrder(ctx, order, items))

	got, err := r.GetOrderDetails(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusNew, got.Status)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, "Burger", got.Items[0].Product.Name)
	assert.Equal(t, 2, got.Items[0].Quantity)

	dup := &models.Order{UserID: uuid.New(), Total: decimal.NewFromInt(1), PaymentIntentID: &intent}
	require.ErrorIs(t, r.PlaceOrder(ctx, dup, nil), ErrDuplicate)
}

func TestOrders_PlaceOrderRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)
	p := seedProduct(t, r, "Burger", "1")

	order := &models.Order{UserID: uuid.New(), Total: decimal.NewFromInt(2)}
	items := []models.OrderItem{
		{ProductID: p.ID, Size: models.SizeM, Quantity: 1},
		{ProductID: p.ID, Size: models.SizeM, Quantity: 1},
	}
	require.Error(t, r.PlaceOrder(ctx, order, items))

	var count int64
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOrders_Stepwise(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)
	p := seedProduct(t, r, "Fries", "2.50")

	order, err := r.CreateOrder(ctx, &models.Order{UserID: uuid.New(), Total: decimal.RequireFromString("2.50")})
	require.NoError(t, err)
	require.NoError(t, r.CreateOrderItems(ctx, order.ID, []models.OrderItem{{ProductID: p.ID, Size: models.SizeS, Quantity: 1}}))
	require.NoError(t, r.CreateOrderItems(ctx, order.ID, nil))

	got, err := r.GetOrderDetails(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, order.ID, got.Items[0].OrderID)
}

func TestOrders_Lists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)
	me, other := uuid.New(), uuid.New()
	base := time.Now().Add(-time.Hour)

	mk := func(user uuid.UUID, status models.OrderStatus, offset time.Duration) *models.Order {
		o, err := r.CreateOrder(ctx, &models.Order{
			UserID: user, Total: decimal.NewFromInt(1), Status: status, CreatedAt: base.Add(offset),
		})
		require.NoError(t, err)
		return o
	}
	oldNew := mk(me, models.OrderStatusNew, 0)
	cooking := mk(other, models.OrderStatusCooking, time.Minute)
	delivered := mk(me, models.OrderStatusDelivered, 2*time.Minute)

	active, err := r.ListOrdersByStatus(ctx, models.ActiveStatuses)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, cooking.ID, active[0].ID)
	assert.Equal(t, oldNew.ID, active[1].ID)

	archived, err := r.ListOrdersByStatus(ctx, models.ArchivedStatuses)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, delivered.ID, archived[0].ID)

	mine, err := r.ListUserOrders(ctx, me)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, delivered.ID, mine[0].ID)
}

func TestOrders_UpdateStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)

	o, err := r.CreateOrder(ctx, &models.Order{UserID: uuid.New(), Total: decimal.NewFromInt(3)})
	require.NoError(t, err)

	updated, err := r.UpdateOrderStatus(ctx, o.ID, models.OrderStatusDelivering)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivering, updated.Status)
	assert.Equal(t, o.UserID, updated.UserID)

	_, err = r.UpdateOrderStatus(ctx, uuid.New(), models.OrderStatusDelivered)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProfiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)

	p := &models.Profile{Username: "alice", PasswordHash: "hash", Role: "regular"}
	require.NoError(t, r.CreateProfileIfNotExists(ctx, p))
	require.ErrorIs(t, r.CreateProfileIfNotExists(ctx, &models.Profile{Username: "alice", PasswordHash: "x"}), ErrUserAlreadyExist)

	found, err := r.FindProfileByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
	assert.Nil(t, found.PaymentCustomerID)

	require.NoError(t, r.SetPaymentCustomerID(ctx, p.ID, "cus_1"))
	got, err := r.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaymentCustomerID)
	assert.Equal(t, "cus_1", *got.PaymentCustomerID)
}

func TestRefresh_RotateAndSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)
	user := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	first := &models.RefreshToken{Token: "h1", UserID: user, JTI: "j1", SessionID: "s1", ExpiresAt: exp}
	require.NoError(t, r.AddRefresh(ctx, first))

	active, err := r.SessionActive(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, active)

	second := &models.RefreshToken{Token: "h2", UserID: user, JTI: "j2", SessionID: "s1", ExpiresAt: exp}
	require.NoError(t, r.RotateRefreshToken(ctx, "j1", second))

	third := &models.RefreshToken{Token: "h3", UserID: user, JTI: "j3", SessionID: "s1", ExpiresAt: exp}
	require.ErrorIs(t, r.RotateRefreshToken(ctx, "j1", third), ErrTokenExpiredOrRevoked)

	active, err = r.SessionActive(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, active, "rotation keeps the session")

	require.NoError(t, r.RevokeSession(ctx, "s1"))
	active, err = r.SessionActive(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, active)

	active, err = r.SessionActive(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRefresh_ExpiredSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)

	tok := &models.RefreshToken{Token: "h", UserID: uuid.New(), JTI: "j", SessionID: "s", ExpiresAt: time.Now().Add(-time.Minute).Unix()}
	require.NoError(t, r.AddRefresh(ctx, tok))

	active, err := r.SessionActive(ctx, "s")
	require.NoError(t, err)
	assert.False(t, active)

	_, err = r.FindRefreshByJTI(ctx, "j")
	require.NoError(t, err)
	require.ErrorIs(t, r.RotateRefreshToken(ctx, "j", &models.RefreshToken{Token: "h2", JTI: "j2", SessionID: "s"}), ErrTokenExpiredOrRevoked)
}
