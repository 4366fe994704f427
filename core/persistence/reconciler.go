package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-hati/core/schema"
	"github.com/asaidimu/go-hati/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcilerOptions configures a Reconciler.
type ReconcilerOptions struct {
	Logger *zap.Logger
	// Metrics enables Prometheus instrumentation when non-nil.
	Metrics *Metrics
	// AutoCreateIndexes defaults to true when nil. The flag is scoped to
	// this reconciler, which is a per-logical-connection object.
	AutoCreateIndexes *bool
}

// Reconciler diffs a schema's canonical index spec list against the live
// catalog of its backing collection and creates exactly the missing indexes.
// It never drops anything, re-queries the catalog on every call, and is safe
// to call any number of times. Concurrent reconciliation of the same schema
// may race on check-then-create; the interactor's idempotent-create guarantee
// is the correctness mechanism for that, not an in-process lock.
type Reconciler struct {
	interactor CatalogInteractor
	logger     *zap.Logger
	bus        *events.TypedEventBus[IndexEvent]
	metrics    *Metrics

	mu         sync.RWMutex
	autoCreate bool

	subscriptions map[string]*SubscriptionInfo
	subMu         sync.RWMutex
}

// NewReconciler creates a Reconciler over the given catalog interactor.
func NewReconciler(interactor CatalogInteractor, options *ReconcilerOptions) (*Reconciler, error) {
	bus, err := events.NewTypedEventBus[IndexEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}

	logger := zap.NewNop()
	var metrics *Metrics
	autoCreate := true
	if options != nil {
		if options.Logger != nil {
			logger = options.Logger
		}
		metrics = options.Metrics
		if options.AutoCreateIndexes != nil {
			autoCreate = *options.AutoCreateIndexes
		}
	}

	return &Reconciler{
		interactor:    interactor,
		logger:        logger,
		bus:           bus,
		metrics:       metrics,
		autoCreate:    autoCreate,
		subscriptions: make(map[string]*SubscriptionInfo),
	}, nil
}

// SetAutoCreate toggles index creation for this reconciler. When disabled,
// EnsureIndexes is a no-op and callers relying on indexes existing must
// re-enable and call it explicitly.
func (r *Reconciler) SetAutoCreate(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoCreate = enabled
}

// AutoCreate reports whether index creation is enabled.
func (r *Reconciler) AutoCreate() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autoCreate
}

// EnsureIndexes guarantees that every spec in the schema's canonical list and
// its geo index list exists in the live catalog, plus an implicit
// discriminator index for polymorphic schemas whose list does not cover it. On
// failure the error identifies the failing spec; creates after the failing
// one are aborted. The canonical list cached on the schema is never touched.
func (r *Reconciler) EnsureIndexes(ctx context.Context, s *schema.SchemaDefinition) error {
	if s.Abstract {
		return fmt.Errorf("cannot ensure indexes for abstract schema %q: it has no collection", s.Name)
	}

	if !r.AutoCreate() {
		r.logger.Debug("Index auto-creation disabled, skipping", zap.String("schema", s.Name))
		return nil
	}

	specs, err := r.targetSpecs(s)
	if err != nil {
		return err
	}

	collection := s.CollectionName()
	start := time.Now()
	r.emitEvent(createEvent(IndexEnsureStart, "ensure_indexes", collection, s.Name, nil, nil, start))

	created, err := r.reconcile(ctx, collection, s, specs)
	if err != nil {
		errStr := err.Error()
		r.emitEvent(createEvent(IndexEnsureFailed, "ensure_indexes", collection, s.Name, nil, &errStr, start))
		r.metrics.recordEnsure("failed", created, time.Since(start))
		return err
	}

	r.emitEvent(createEvent(IndexEnsureSuccess, "ensure_indexes", collection, s.Name, created, nil, start))
	r.metrics.recordEnsure("success", created, time.Since(start))
	return nil
}

// targetSpecs assembles the full set of indexes the collection must carry.
func (r *Reconciler) targetSpecs(s *schema.SchemaDefinition) ([]schema.IndexSpec, error) {
	specs, err := s.IndexSpecs()
	if err != nil {
		return nil, err
	}

	geo, err := s.GeoIndexes()
	if err != nil {
		return nil, err
	}
	for _, spec := range geo {
		if !specsContain(specs, spec) {
			specs = append(specs, spec)
		}
	}

	// A polymorphic schema needs the discriminator covered by some index.
	// Compound specs already starting with it count; otherwise a bare
	// single-field index is created here, without touching the cached list.
	if s.Polymorphic() {
		discriminator := s.Discriminator()
		covered := false
		for _, spec := range specs {
			if len(spec.Keys) > 0 && spec.Keys[0].Field == discriminator {
				covered = true
				break
			}
		}
		if !covered {
			clsSpec := schema.IndexSpec{Keys: []schema.IndexKey{{Field: discriminator, Direction: schema.Ascending}}}
			specs = append([]schema.IndexSpec{clsSpec}, specs...)
		}
	}

	return specs, nil
}

func (r *Reconciler) reconcile(ctx context.Context, collection string, s *schema.SchemaDefinition, specs []schema.IndexSpec) (int, error) {
	exists, err := r.interactor.CollectionExists(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("error looking up collection %q: %w", collection, err)
	}
	if !exists {
		if err := r.interactor.CreateCollection(ctx, s); err != nil {
			return 0, fmt.Errorf("failed to create collection %q: %w", collection, err)
		}
		r.emitEvent(createEvent(CollectionCreateSuccess, "create_collection", collection, s.Name, nil, nil, time.Now()))
	}

	// The catalog is shared mutable external state; never cached across
	// calls.
	catalog, err := r.interactor.ListIndexes(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("failed to query index catalog of %q: %w", collection, err)
	}

	created := 0
	for _, spec := range specs {
		if entry := findByKeys(catalog, spec); entry != nil {
			if !entry.Spec.Equal(spec) {
				return created, &ReconciliationError{
					Collection: collection,
					Index:      spec.IndexName(),
					Err:        fmt.Errorf("existing index %q has the same keys but different options", entry.Name),
				}
			}
			continue
		}

		r.logger.Debug("Creating missing index",
			zap.String("collection", collection),
			zap.String("index", spec.IndexName()))

		if err := r.interactor.CreateIndex(ctx, collection, spec); err != nil {
			return created, &ReconciliationError{Collection: collection, Index: spec.IndexName(), Err: err}
		}
		created++

		input, mapErr := utils.StructToMap(spec)
		if mapErr != nil {
			input = nil
		}
		r.emitEvent(createEvent(IndexCreateSuccess, "create_index", collection, input, spec.IndexName(), nil, time.Now()))
	}

	return created, nil
}

func findByKeys(catalog []CatalogEntry, spec schema.IndexSpec) *CatalogEntry {
	for i := range catalog {
		if catalog[i].Spec.SameKeys(spec) {
			return &catalog[i]
		}
	}
	return nil
}

func specsContain(specs []schema.IndexSpec, spec schema.IndexSpec) bool {
	for _, sp := range specs {
		if sp.Equal(spec) {
			return true
		}
	}
	return false
}

// emitEvent is a helper method to emit events.
func (r *Reconciler) emitEvent(event IndexEvent) {
	if r.bus != nil {
		r.bus.Emit(string(event.Type), event)
	}
}

// RegisterSubscription registers a callback for a specific index event. It
// returns a unique ID that can be used to unregister the subscription later.
func (r *Reconciler) RegisterSubscription(options RegisterSubscriptionOptions) string {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	unsubscribe := r.bus.Subscribe(string(options.Event), options.Callback)
	id := uuid.New().String()

	r.subscriptions[id] = &SubscriptionInfo{
		Event:       options.Event,
		Unsubscribe: unsubscribe,
		Label:       options.Label,
		Description: options.Description,
	}
	return id
}

// UnregisterSubscription removes a subscription by its ID.
func (r *Reconciler) UnregisterSubscription(id string) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	if info, ok := r.subscriptions[id]; ok {
		info.Unsubscribe()
		delete(r.subscriptions, id)
	}
}

// Subscriptions returns a list of all currently active subscriptions.
func (r *Reconciler) Subscriptions() []SubscriptionInfo {
	r.subMu.RLock()
	defer r.subMu.RUnlock()

	subs := make([]SubscriptionInfo, 0, len(r.subscriptions))
	for _, sub := range r.subscriptions {
		subs = append(subs, *sub)
	}
	return subs
}
