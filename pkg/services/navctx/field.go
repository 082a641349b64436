package navctx

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/de-tools/wasteops/pkg/store/kv"
	"github.com/rs/zerolog"
)

// field holds one piece of shared context and mirrors it into storage under key.
// Storage failures never surface: a failed read means "no stored value" and a
// failed write leaves the in-memory value authoritative.
type field[T any] struct {
	key     string
	storage kv.Storage
	isZero  func(T) bool

	mu    sync.RWMutex
	value T
}

func newField[T any](key string, storage kv.Storage, isZero func(T) bool) *field[T] {
	return &field[T]{key: key, storage: storage, isZero: isZero}
}

// initialize adopts fromURL when ok, writing it through; otherwise it loads the stored value.
func (f *field[T]) initialize(ctx context.Context, fromURL T, ok bool) {
	if ok && !f.isZero(fromURL) {
		f.set(ctx, fromURL)
		return
	}

	stored, found := f.load(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	if found {
		f.value = stored
	} else {
		var zero T
		f.value = zero
	}
}

func (f *field[T]) load(ctx context.Context) (T, bool) {
	var zero T
	logger := zerolog.Ctx(ctx)

	raw, err := f.storage.Get(ctx, f.key)
	if errors.Is(err, kv.ErrNotFound) {
		return zero, false
	}
	if err != nil {
		logger.Warn().Err(err).Str("key", f.key).Msg("failed to read stored context value")
		return zero, false
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		logger.Warn().Err(err).Str("key", f.key).Msg("ignoring malformed stored context value")
		return zero, false
	}
	if f.isZero(v) {
		return zero, false
	}
	return v, true
}

func (f *field[T]) get() T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

func (f *field[T]) set(ctx context.Context, v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.value = v
	f.persist(ctx, v)
}

// persist must be called with f.mu held so that storage writes follow the
// order of in-memory writes.
func (f *field[T]) persist(ctx context.Context, v T) {
	logger := zerolog.Ctx(ctx)

	if f.isZero(v) {
		if err := f.storage.Remove(ctx, f.key); err != nil {
			logger.Warn().Err(err).Str("key", f.key).Msg("failed to remove stored context value")
		}
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		logger.Warn().Err(err).Str("key", f.key).Msg("failed to encode context value")
		return
	}
	if err := f.storage.Set(ctx, f.key, string(raw)); err != nil {
		logger.Warn().Err(err).Str("key", f.key).Msg("failed to write stored context value")
	}
}
