package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrModelLoad = errors.New("OCR model failed to load")

// Registry hands out the process-wide OCR engine, loading it on first
// use. Concurrent first-time callers share a single in-flight load
// instead of triggering redundant ones. A failed load leaves the
// registry uninitialized so a later call may retry; a ready engine is
// kept for the process lifetime.
type Registry struct {
	mu     sync.RWMutex
	engine Engine

	group singleflight.Group
	load  func() (Engine, error)
}

func NewRegistry(load func() (Engine, error)) *Registry {
	return &Registry{load: load}
}

// Get returns the ready engine, loading it at most once under
// concurrency. Once loaded this is a cheap read.
func (r *Registry) Get(ctx context.Context) (Engine, error) {
	r.mu.RLock()
	if e := r.engine; e != nil {
		r.mu.RUnlock()
		return e, nil
	}
	r.mu.RUnlock()

	ch := r.group.DoChan("load", func() (any, error) {
		// Re-check under the lock. Singleflight forgets the key the
		// moment a call finishes, so a caller that read a nil engine
		// above can still arrive here after another flight already
		// completed; without this check it would start a second load
		// and could replace a ready engine.
		r.mu.RLock()
		if e := r.engine; e != nil {
			r.mu.RUnlock()
			return e, nil
		}
		r.mu.RUnlock()

		zap.L().Info("Loading OCR model")

		e, err := r.load()
		if err != nil {
			zap.L().Error("OCR model load failed", zap.Error(err))
			return nil, fmt.Errorf("%w, %v", ErrModelLoad, err)
		}

		r.mu.Lock()
		r.engine = e
		r.mu.Unlock()

		zap.L().Info("OCR model ready")
		return e, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Engine), nil
	case <-ctx.Done():
		// The shared load keeps running for the other waiters
		return nil, ctx.Err()
	}
}
