package service

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-client/internal/api/metrics"
	"github.com/clinicdesk/clinic-client/internal/core/domain"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

// Entity is a server-owned record with an immutable id. Clone returns a
// deep copy; the cache only ever hands out clones.
type Entity[T any] interface {
	EntityID() int64
	Clone() T
}

// MutationOption customises a single create/update/delete call.
type MutationOption func(*mutationOptions)

type mutationOptions struct {
	apply    func()
	rollback func()
}

// WithOptimistic runs apply before the request is sent and rollback if it
// fails. Either may be nil.
func WithOptimistic(apply, rollback func()) MutationOption {
	return func(o *mutationOptions) {
		o.apply = apply
		o.rollback = rollback
	}
}

// Collection is the cached view of one server collection. T is the record
// type, F the create/update payload.
type Collection[T Entity[T], F any] struct {
	name       string
	path       string
	dispatcher ports.Dispatcher
	cache      *EntityCache
	guard      ports.SessionGuard
	log        zerolog.Logger
	now        func() time.Time

	pmu     sync.Mutex
	pending map[string]domain.PendingMutation
}

// PatientCollection is the patient records collection.
type PatientCollection = Collection[domain.Patient, domain.PatientFields]

// NewCollection creates a collection served at path. guard may be nil.
func NewCollection[T Entity[T], F any](name, path string, dispatcher ports.Dispatcher, cache *EntityCache, guard ports.SessionGuard, logger zerolog.Logger) *Collection[T, F] {
	return &Collection[T, F]{
		name:       name,
		path:       path,
		dispatcher: dispatcher,
		cache:      cache,
		guard:      guard,
		log:        logger.With().Str("component", "cache").Str("collection", name).Logger(),
		now:        time.Now,
		pending:    make(map[string]domain.PendingMutation),
	}
}

// NewPatientCollection creates the /patients collection.
func NewPatientCollection(dispatcher ports.Dispatcher, cache *EntityCache, guard ports.SessionGuard, logger zerolog.Logger) *PatientCollection {
	return NewCollection[domain.Patient, domain.PatientFields](domain.CollectionPatients, "/patients", dispatcher, cache, guard, logger)
}

// Name returns the collection name.
func (c *Collection[T, F]) Name() string { return c.name }

// List returns every record, from the cache when the list entry is fresh.
func (c *Collection[T, F]) List(ctx context.Context) ([]T, error) {
	if err := c.checkSession(); err != nil {
		return nil, err
	}

	if v, res := c.lookup(allKey); res == lookupHit {
		return cloneAll(v.([]T)), nil
	}

	gen := c.cache.generation(c.name)
	resp, err := c.dispatcher.Send(ctx, http.MethodGet, c.path, nil)
	if err != nil {
		return nil, err
	}

	var items []T
	if err := resp.Decode(&items); err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	if items == nil {
		items = []T{}
	}

	if c.cache.put(c.name, allKey, cloneAll(items), gen) {
		for _, item := range items {
			c.cache.put(c.name, idKey(item.EntityID()), item.Clone(), gen)
		}
	} else {
		c.log.Debug().Msg("list fetched across an invalidation, not cached")
	}
	return items, nil
}

// Get returns one record, from the cache when its entry is fresh.
func (c *Collection[T, F]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	if err := c.checkSession(); err != nil {
		return zero, err
	}

	key := idKey(id)
	if v, res := c.lookup(key); res == lookupHit {
		return v.(T).Clone(), nil
	}

	gen := c.cache.generation(c.name)
	resp, err := c.dispatcher.Send(ctx, http.MethodGet, c.itemPath(id), nil)
	if err != nil {
		return zero, err
	}

	var item T
	if err := resp.Decode(&item); err != nil {
		return zero, fmt.Errorf("get %s %d: %w", c.name, id, err)
	}
	if !c.cache.put(c.name, key, item.Clone(), gen) {
		c.log.Debug().Int64("id", id).Msg("record fetched across an invalidation, not cached")
	}
	return item, nil
}

// Create sends a new record. The server assigns its id.
func (c *Collection[T, F]) Create(ctx context.Context, fields F, opts ...MutationOption) (T, error) {
	var zero T
	resp, err := c.mutate(ctx, domain.OpCreate, nil, opts, func() (*ports.Response, error) {
		return c.dispatcher.Send(ctx, http.MethodPost, c.path, fields)
	})
	if err != nil {
		return zero, err
	}

	var created T
	if err := resp.Decode(&created); err != nil {
		return zero, fmt.Errorf("create %s: %w", c.name, err)
	}
	return created, nil
}

// Update sends changed fields for id.
func (c *Collection[T, F]) Update(ctx context.Context, id int64, fields F, opts ...MutationOption) (T, error) {
	var zero T
	resp, err := c.mutate(ctx, domain.OpUpdate, &id, opts, func() (*ports.Response, error) {
		return c.dispatcher.Send(ctx, http.MethodPut, c.itemPath(id), fields)
	})
	if err != nil {
		return zero, err
	}

	var updated T
	if err := resp.Decode(&updated); err != nil {
		return zero, fmt.Errorf("update %s %d: %w", c.name, id, err)
	}
	return updated, nil
}

// Delete removes id. A missing id surfaces the server's error.
func (c *Collection[T, F]) Delete(ctx context.Context, id int64, opts ...MutationOption) error {
	_, err := c.mutate(ctx, domain.OpDelete, &id, opts, func() (*ports.Response, error) {
		return c.dispatcher.Send(ctx, http.MethodDelete, c.itemPath(id), nil)
	})
	return err
}

// Pending lists unsettled mutations, oldest first.
func (c *Collection[T, F]) Pending() []domain.PendingMutation {
	c.pmu.Lock()
	defer c.pmu.Unlock()

	out := make([]domain.PendingMutation, 0, len(c.pending))
	for _, pm := range c.pending {
		out = append(out, pm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// mutate runs send as a tracked mutation. Only a successful request
// invalidates the collection; a failed one leaves the cache untouched and
// rolls back the caller's optimistic state.
func (c *Collection[T, F]) mutate(ctx context.Context, op domain.MutationOp, target *int64, opts []MutationOption, send func() (*ports.Response, error)) (*ports.Response, error) {
	if err := c.checkSession(); err != nil {
		return nil, err
	}

	var o mutationOptions
	for _, opt := range opts {
		opt(&o)
	}

	pm := domain.PendingMutation{
		ID:         uuid.New().String(),
		Collection: c.name,
		Op:         op,
		TargetID:   target,
		StartedAt:  c.now(),
	}
	c.track(pm)
	defer c.settle(pm.ID)

	if o.apply != nil {
		o.apply()
	}

	resp, err := send()
	if err != nil {
		if o.rollback != nil {
			o.rollback()
		}
		c.log.Info().Str("op", string(op)).Str("reason", domain.Reason(err)).Msg("mutation failed")
		return nil, err
	}

	c.cache.Invalidate(c.name)
	metrics.CacheInvalidationsTotal.WithLabelValues(c.name, string(op)).Inc()
	c.log.Debug().Str("op", string(op)).Msg("mutation settled, collection invalidated")
	return resp, nil
}

func (c *Collection[T, F]) track(pm domain.PendingMutation) {
	c.pmu.Lock()
	c.pending[pm.ID] = pm
	c.pmu.Unlock()
	metrics.PendingMutations.WithLabelValues(c.name).Inc()
}

func (c *Collection[T, F]) settle(id string) {
	c.pmu.Lock()
	delete(c.pending, id)
	c.pmu.Unlock()
	metrics.PendingMutations.WithLabelValues(c.name).Dec()
}

func (c *Collection[T, F]) lookup(id string) (any, lookupResult) {
	v, res := c.cache.lookup(c.name, id)
	metrics.CacheLookupsTotal.WithLabelValues(c.name, string(res)).Inc()
	return v, res
}

func (c *Collection[T, F]) checkSession() error {
	if c.guard == nil {
		return nil
	}
	return c.guard.RequireAuthenticated()
}

func (c *Collection[T, F]) itemPath(id int64) string {
	return c.path + "/" + strconv.FormatInt(id, 10)
}

func cloneAll[T Entity[T]](items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

func idKey(id int64) string { return strconv.FormatInt(id, 10) }
