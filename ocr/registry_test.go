package ocr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	text string
}

func (s *stubEngine) Recognize(_ context.Context, _ []byte) (string, error) {
	return s.text, nil
}

func TestRegistryLoadsExactlyOnce(t *testing.T) {
	var loads atomic.Int32
	engine := &stubEngine{text: "ready"}

	r := NewRegistry(func() (Engine, error) {
		loads.Add(1)
		// Make the load slow enough that every caller arrives while
		// it's still in flight
		time.Sleep(50 * time.Millisecond)
		return engine, nil
	})

	const callers = 32

	var wg sync.WaitGroup
	results := make([]Engine, callers)
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = r.Get(context.Background())
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, loads.Load())

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Same(t, engine, results[i])
	}
}

func TestRegistryFailureFansOutAndResets(t *testing.T) {
	var loads atomic.Int32
	boom := errors.New("traineddata missing")

	r := NewRegistry(func() (Engine, error) {
		if loads.Add(1) == 1 {
			time.Sleep(20 * time.Millisecond)
			return nil, boom
		}
		return &stubEngine{text: "recovered"}, nil
	})

	const callers = 8

	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = r.Get(context.Background())
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, loads.Load())
	for i := range callers {
		assert.ErrorIs(t, errs[i], ErrModelLoad)
	}

	// A failed load must not be cached, the next call retries and
	// succeeds
	e, err := r.Get(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, loads.Load())

	text, err := e.Recognize(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
}

func TestRegistryNeverReloadsAfterReady(t *testing.T) {
	var loads atomic.Int32
	engine := &stubEngine{text: "ready"}

	// An instant loader maximizes the window between a caller reading
	// a nil engine and joining the shared load, which is where a
	// second load could slip in
	r := NewRegistry(func() (Engine, error) {
		loads.Add(1)
		return engine, nil
	})

	var wg sync.WaitGroup
	var wrong atomic.Int32

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 5000 {
				e, err := r.Get(context.Background())
				if err != nil || e != engine {
					wrong.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 0, wrong.Load())
	assert.EqualValues(t, 1, loads.Load())
}

func TestRegistryReadyIsCheap(t *testing.T) {
	var loads atomic.Int32

	r := NewRegistry(func() (Engine, error) {
		loads.Add(1)
		return &stubEngine{}, nil
	})

	for range 10 {
		_, err := r.Get(context.Background())
		require.NoError(t, err)
	}

	assert.EqualValues(t, 1, loads.Load())
}

func TestRegistryGetHonorsContext(t *testing.T) {
	r := NewRegistry(func() (Engine, error) {
		time.Sleep(time.Second)
		return &stubEngine{}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
