package querycache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func TestKey_Encode(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("7a4c2f5e-1b2d-4c3e-9f10-112233445566")

	tests := []struct {
		name string
		key  Key
		want string
	}{
		{name: "single", key: K("products"), want: `"products"|`},
		{name: "uuid", key: K("orders", id), want: `"orders"|"7a4c2f5e-1b2d-4c3e-9f10-112233445566"|`},
		{name: "object sorted", key: K("orders", map[string]any{"userId": "u", "archived": false}),
			want: `"orders"|{"archived":false,"userId":"u"}|`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.key.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := K().Encode()
	require.Error(t, err)
}

func TestKey_PrefixProperty(t *testing.T) {
	t.Parallel()

	parent, _ := K("orders").Encode()
	child, _ := K("orders", uuid.New()).Encode()
	other, _ := K("ordersX").Encode()

	assert.True(t, strings.HasPrefix(child, parent))
	assert.False(t, strings.HasPrefix(other, parent))
}

func TestFetch_MissThenHit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(NewMemoryStore(), time.Minute)

	calls := 0
	load := func(context.Context) ([]item, error) {
		calls++
		return []item{{Name: "Pizza"}}, nil
	}

	got, err := Fetch(ctx, c, K("products"), load)
	require.NoError(t, err)
	assert.Equal(t, []item{{Name: "Pizza"}}, got)

	got, err = Fetch(ctx, c, K("products"), load)
	require.NoError(t, err)
	assert.Equal(t, []item{{Name: "Pizza"}}, got)
	assert.Equal(t, 1, calls)
}

func TestFetch_ErrorNotCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	c := New(store, time.Minute)
	boom := errors.New("boom")

	_, err := Fetch(ctx, c, K("products"), func(context.Context) (item, error) { return item{}, boom })
	require.ErrorIs(t, err, boom)
	assert.Zero(t, store.Len())
}

func TestFetch_NilCache(t *testing.T) {
	t.Parallel()

	got, err := Fetch(context.Background(), nil, K("x"), func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	require.NoError(t, (*Cache)(nil).Invalidate(context.Background(), K("x")))
}

func TestFetch_CoalescesMisses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(NewMemoryStore(), time.Minute)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (item, error) {
		calls.Add(1)
		<-release
		return item{Name: "Soup"}, nil
	}

	var wg sync.WaitGroup
	results := make([]item, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(ctx, c, K("products"), load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "Soup", r.Name)
	}
}

func TestInvalidate_Prefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	c := New(store, time.Minute)

	a, b := uuid.New(), uuid.New()
	keys := []Key{
		K("orders", map[string]any{"archived": false}),
		K("orders", map[string]any{"archived": true}),
		K("orders", a),
		K("orders", b),
		K("products"),
	}
	for _, k := range keys {
		_, err := Fetch(ctx, c, k, func(context.Context) (int, error) { return 1, nil })
		require.NoError(t, err)
	}
	require.Equal(t, 5, store.Len())

	require.NoError(t, c.Invalidate(ctx, K("orders", a)))
	assert.Equal(t, 4, store.Len())

	require.NoError(t, c.Invalidate(ctx, K("orders")))
	assert.Equal(t, 1, store.Len())

	enc, _ := K("products").Encode()
	_, err := store.Get(ctx, enc)
	require.NoError(t, err)
}

func TestFetch_SkipsStoreAfterConcurrentInvalidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	c := New(store, time.Minute)

	_, err := Fetch(ctx, c, K("orders"), func(ctx context.Context) (int, error) {
		require.NoError(t, c.Invalidate(ctx, K("orders")))
		return 1, nil
	})
	require.NoError(t, err)
	assert.Zero(t, store.Len())
}

func TestFetch_ReaderAfterInvalidateDoesNotJoinOlderLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(NewMemoryStore(), time.Minute)

	var db atomic.Int64
	db.Store(1)

	started := make(chan struct{})
	release := make(chan struct{})
	oldDone := make(chan int, 1)
	go func() {
		v, err := Fetch(ctx, c, K("orders"), func(context.Context) (int, error) {
			v := int(db.Load())
			close(started)
			<-release
			return v, nil
		})
		assert.NoError(t, err)
		oldDone <- v
	}()
	<-started

	db.Store(2)
	require.NoError(t, c.Invalidate(ctx, K("orders")))

	got, err := Fetch(ctx, c, K("orders"), func(context.Context) (int, error) {
		return int(db.Load()), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	close(release)
	assert.Equal(t, 1, <-oldDone)

	got, err = Fetch(ctx, c, K("orders"), func(context.Context) (int, error) { return -1, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now()
	m := NewMemoryStore()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Second))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Second)
	_, err = m.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)
}
