package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/pharma-billing/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) hasInfo(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.infos {
		if info == msg {
			return true
		}
	}
	return false
}

func (m *mockLogger) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func committed() *event.Event {
	return event.NewEvent(event.TypeOrderCommitted, "order-1", map[string]interface{}{
		event.PayloadCustomerID: "cust-1",
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("runs handlers in registration order", func(t *testing.T) {
		d := NewDispatcher()
		var order []string

		d.Subscribe(event.TypeOrderCommitted, func(ctx context.Context, evt *event.Event) error {
			order = append(order, "first")
			return nil
		})
		d.Subscribe(event.TypeOrderCommitted, func(ctx context.Context, evt *event.Event) error {
			order = append(order, "second")
			return nil
		})

		require.NoError(t, d.Dispatch(context.Background(), committed()))
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("ignores other event types", func(t *testing.T) {
		d := NewDispatcher()
		called := false
		d.Subscribe(event.TypeOrderExported, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		require.NoError(t, d.Dispatch(context.Background(), committed()))
		assert.False(t, called)
	})

	t.Run("logs registration", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))

		d.SubscribeNamed(event.TypeOrderCommitted, "movements", "records stock movements", func(ctx context.Context, evt *event.Event) error {
			return nil
		})

		assert.True(t, logger.hasInfo("Handler registered"))
	})
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	var calls []string
	d.SubscribeNamed(event.TypeOrderCommitted, "keep", "", func(ctx context.Context, evt *event.Event) error {
		calls = append(calls, "keep")
		return nil
	})
	d.SubscribeNamed(event.TypeOrderCommitted, "drop", "", func(ctx context.Context, evt *event.Event) error {
		calls = append(calls, "drop")
		return nil
	})

	d.Unsubscribe(event.TypeOrderCommitted, "drop")

	require.NoError(t, d.Dispatch(context.Background(), committed()))
	assert.Equal(t, []string{"keep"}, calls)
}

func TestDispatch(t *testing.T) {
	t.Run("returns first error and stops", func(t *testing.T) {
		d := NewDispatcher(WithLogger(&mockLogger{}))
		boom := errors.New("boom")
		secondCalled := false

		d.SubscribeNamed(event.TypeOrderCommitted, "failing", "", func(ctx context.Context, evt *event.Event) error {
			return boom
		})
		d.SubscribeNamed(event.TypeOrderCommitted, "after", "", func(ctx context.Context, evt *event.Event) error {
			secondCalled = true
			return nil
		})

		err := d.Dispatch(context.Background(), committed())

		require.Error(t, err)
		assert.True(t, errors.Is(err, boom))
		assert.Contains(t, err.Error(), "handler failing failed")
		assert.False(t, secondCalled)
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeOrderCommitted, func(ctx context.Context, evt *event.Event) error {
			panic("bad handler")
		})

		err := d.Dispatch(context.Background(), committed())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "handler panic: bad handler")
		assert.Equal(t, 2, logger.errorCount())
	})

	t.Run("handler may unsubscribe itself", func(t *testing.T) {
		d := NewDispatcher()
		calls := 0
		d.SubscribeNamed(event.TypeOrderCommitted, "once", "", func(ctx context.Context, evt *event.Event) error {
			calls++
			d.Unsubscribe(event.TypeOrderCommitted, "once")
			return nil
		})

		require.NoError(t, d.Dispatch(context.Background(), committed()))
		require.NoError(t, d.Dispatch(context.Background(), committed()))
		assert.Equal(t, 1, calls)
	})

	t.Run("closed dispatcher rejects events", func(t *testing.T) {
		d := NewDispatcher()
		require.NoError(t, d.Close())

		err := d.Dispatch(context.Background(), committed())
		assert.True(t, errors.Is(err, ErrClosed))
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("runs handlers in background", func(t *testing.T) {
		d := NewDispatcher()
		var count atomic.Int32
		for i := 0; i < 3; i++ {
			d.Subscribe(event.TypeOrderCommitted, func(ctx context.Context, evt *event.Event) error {
				count.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), committed())
		require.NoError(t, d.Close())

		assert.Equal(t, int32(3), count.Load())
	})

	t.Run("handlers outlive a cancelled request context", func(t *testing.T) {
		d := NewDispatcher()
		var ctxErr atomic.Value
		release := make(chan struct{})

		d.Subscribe(event.TypeOrderCommitted, func(ctx context.Context, evt *event.Event) error {
			<-release
			ctxErr.Store(fmt.Sprint(ctx.Err()))
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		d.DispatchAsync(ctx, committed())
		cancel()
		close(release)
		require.NoError(t, d.Close())

		assert.Equal(t, "<nil>", ctxErr.Load())
	})

	t.Run("logs handler errors", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeOrderCommitted, func(ctx context.Context, evt *event.Event) error {
			return errors.New("async failure")
		})

		d.DispatchAsync(context.Background(), committed())
		require.NoError(t, d.Close())

		assert.Equal(t, 1, logger.errorCount())
	})

	t.Run("closed dispatcher drops events", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		called := false
		d.Subscribe(event.TypeOrderCommitted, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})
		require.NoError(t, d.Close())

		d.DispatchAsync(context.Background(), committed())

		time.Sleep(10 * time.Millisecond)
		assert.False(t, called)
		assert.Equal(t, 1, logger.errorCount())
	})
}

func TestListHandlers(t *testing.T) {
	d := NewDispatcher()
	assert.Empty(t, d.ListHandlers(event.TypeOrderCommitted))

	d.SubscribeNamed(event.TypeOrderCommitted, "movements", "records stock movements", func(ctx context.Context, evt *event.Event) error {
		return nil
	})

	handlers := d.ListHandlers(event.TypeOrderCommitted)
	require.Len(t, handlers, 1)
	assert.Equal(t, "movements", handlers[0].Name)
	assert.Equal(t, "records stock movements", handlers[0].Description)
	assert.Nil(t, handlers[0].Handler)
}

func TestClose(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.Close())

	err := d.Close()
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestConcurrentDispatch(t *testing.T) {
	d := NewDispatcher()
	var count atomic.Int64
	d.Subscribe(event.TypeOrderCommitted, func(ctx context.Context, evt *event.Event) error {
		count.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), committed())
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), count.Load())
}
