package services

import (
	"context"
	"time"

	"github.com/fachrudin/misteri-backend/models"
	"github.com/fachrudin/misteri-backend/shared"
	"github.com/sirupsen/logrus"
)

// ReadingStore is the persistence boundary of the resolver. Get returns
// (nil, nil) on a cache miss. Put must be an idempotent upsert: multiple
// users can resolve the same key on the same day.
type ReadingStore interface {
	Get(ctx context.Context, def ReadingDefinition, key models.NaturalKey) (models.Payload, error)
	Put(ctx context.Context, def ReadingDefinition, key models.NaturalKey, payload models.Payload) error
}

// Generator produces a structured reading payload for a prompt. A single
// best-effort call per resolution; no retries.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema Schema) (models.Payload, error)
}

// WriteResult reports the outcome of a fire-and-forget persistence write.
// It exists so tests and metrics can observe the write without coupling
// resolution success to its outcome.
type WriteResult struct {
	Type models.ReadingType
	Key  models.NaturalKey
	Err  error
}

// Resolver implements the cache-then-generate pattern shared by every
// reading type: look up by natural key, short-circuit on a hit, otherwise
// generate, validate, persist asynchronously, and return.
type Resolver struct {
	store        ReadingStore
	generator    Generator
	metrics      *shared.ResolverMetrics
	writeTimeout time.Duration
	onWrite      func(WriteResult)
}

func NewResolver(store ReadingStore, generator Generator, metrics *shared.ResolverMetrics) *Resolver {
	return &Resolver{
		store:        store,
		generator:    generator,
		metrics:      metrics,
		writeTimeout: 10 * time.Second,
	}
}

// SetWriteHook registers an observer for fire-and-forget write results.
func (r *Resolver) SetWriteHook(fn func(WriteResult)) {
	r.onWrite = fn
}

// Resolve produces a payload for the given definition and natural key.
//
// A cache hit never invokes the generator; a store read failure is treated
// as a miss, never surfaced. On generation failure the caller gets
// shared.ErrNoReading and nothing is persisted. On success the payload is
// returned immediately and the cache write happens on a detached goroutine.
func (r *Resolver) Resolve(ctx context.Context, def ReadingDefinition, key models.NaturalKey) (models.Payload, error) {
	cached, err := r.store.Get(ctx, def, key)
	if err != nil {
		// Best-effort cache: a read failure degrades to a miss.
		r.metrics.RecordCacheReadFailure()
		shared.WrapError(err, shared.ErrorCategoryCacheRead, "CACHE_READ_FAILED",
			"reading-resolver", "resolve:"+string(def.Type), true).LogError()
	} else if cached != nil {
		r.metrics.RecordCacheHit()
		return cached, nil
	} else {
		r.metrics.RecordCacheMiss()
	}

	payload, err := r.generator.Generate(ctx, def.Prompt(key), def.Schema)
	if err != nil {
		r.metrics.RecordGeneration(false)
		logrus.WithFields(logrus.Fields{
			"reading_type": def.Type,
			"error":        err,
		}).Warn("Generation failed, no reading produced")
		return nil, shared.ErrNoReading
	}

	if err := def.Schema.Validate(payload); err != nil {
		r.metrics.RecordGeneration(false)
		logrus.WithFields(logrus.Fields{
			"reading_type": def.Type,
			"error":        err,
		}).Warn("Generated payload failed schema validation")
		return nil, shared.ErrNoReading
	}

	r.metrics.RecordGeneration(true)
	r.persistAsync(def, key, payload)

	return payload, nil
}

// persistAsync issues the post-generation cache write without blocking the
// caller. The write uses a detached context so user-initiated cancellation
// cannot abort it; it is attempted at most once per resolution and its
// failure is logged, never surfaced.
func (r *Resolver) persistAsync(def ReadingDefinition, key models.NaturalKey, payload models.Payload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		defer cancel()

		err := r.store.Put(ctx, def, key, payload)
		r.metrics.RecordPersistenceWrite(err == nil)
		if err != nil {
			shared.WrapError(err, shared.ErrorCategoryPersistenceWrite, "CACHE_WRITE_FAILED",
				"reading-resolver", "persist:"+string(def.Type), true).LogError()
		}

		if r.onWrite != nil {
			r.onWrite(WriteResult{Type: def.Type, Key: key, Err: err})
		}
	}()
}
