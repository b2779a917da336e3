package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/food_order/internal/models"
)

type fakeReader struct {
	msgs chan kafka.Message
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-f.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (f *fakeReader) Close() error { return nil }

func TestConsumer_Run(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(4)
	sub := hub.Subscribe(Filter{Type: EventUpdate})
	defer sub.Cancel()

	reader := &fakeReader{msgs: make(chan kafka.Message, 2)}
	c := &Consumer{reader: reader, hub: hub}

	e := OrderUpdated(models.Order{ID: uuid.New(), UserID: uuid.New(), Status: models.OrderStatusDelivering}, time.Now().UTC())
	raw, err := json.Marshal(e)
	require.NoError(t, err)

	reader.msgs <- kafka.Message{Value: []byte("{not json")}
	reader.msgs <- kafka.Message{Value: raw}

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	got := recv(t, sub.C)
	assert.Equal(t, e.OrderID, got.OrderID)
	assert.Equal(t, models.OrderStatusDelivering, got.Status)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	require.NoError(t, c.Close())
}

func TestGroupID_StablePerInstance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, GroupID("api-1"), GroupID("api-1"))
	assert.Equal(t, "food_order-realtime-api-1", GroupID("api-1"))
	assert.NotEqual(t, GroupID("api-1"), GroupID("api-2"))
}
