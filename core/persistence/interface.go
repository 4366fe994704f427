// Package persistence reconciles compiled index specifications against the
// live index catalog of a backing store. The store itself is reached through
// the CatalogInteractor interface; this package owns the diff-and-create
// policy, the event surface, and the error taxonomy, never the wire protocol.
package persistence

import (
	"context"

	"github.com/asaidimu/go-hati/core/schema"
)

// IndexEventType defines the possible event types for index operations.
type IndexEventType string

const (
	IndexEnsureStart        IndexEventType = "index:ensure:start"
	IndexEnsureSuccess      IndexEventType = "index:ensure:success"
	IndexEnsureFailed       IndexEventType = "index:ensure:failed"
	IndexCreateSuccess      IndexEventType = "index:create:success"
	CollectionCreateSuccess IndexEventType = "collection:create:success"
	SubscriptionRegister    IndexEventType = "subscription:register"
	SubscriptionUnregister  IndexEventType = "subscription:unregister"
)

// IndexEvent is emitted for every reconciliation lifecycle step.
type IndexEvent struct {
	Type       IndexEventType `json:"type"`
	Timestamp  int64          `json:"timestamp"` // Unix milliseconds
	Operation  string         `json:"operation"`
	Collection *string        `json:"collection,omitempty"`
	Input      any            `json:"input,omitempty"`
	Output     any            `json:"output,omitempty"`
	Error      *string        `json:"error,omitempty"`
	Duration   *int64         `json:"duration,omitempty"` // milliseconds
}

// EventCallbackFunction handles a single emitted index event.
type EventCallbackFunction func(ctx context.Context, event IndexEvent) error

// SubscriptionInfo describes a registered event subscription.
type SubscriptionInfo struct {
	Event       IndexEventType `json:"event"`
	Label       *string        `json:"label,omitempty"`
	Description *string        `json:"description,omitempty"`
	Unsubscribe func()
}

// RegisterSubscriptionOptions defines options for registering a subscription.
type RegisterSubscriptionOptions struct {
	Event       IndexEventType `json:"event"`
	Label       *string        `json:"label,omitempty"`
	Description *string        `json:"description,omitempty"`
	Callback    EventCallbackFunction
}

// CatalogEntry is a snapshot of one physically existing index, as reported
// by the backing store. It is read-only external state and may be stale
// between a catalog query and a create call.
type CatalogEntry struct {
	Name string           `json:"name"`
	Spec schema.IndexSpec `json:"spec"`
}

// CatalogInteractor abstracts the backing store's collection and index
// management API. Implementations must treat creating an index identical to
// an existing one as a no-op, not an error: the reconciler's check-then-create
// sequence is not atomic and concurrent callers may race.
type CatalogInteractor interface {
	CollectionExists(ctx context.Context, collection string) (bool, error)
	CreateCollection(ctx context.Context, s *schema.SchemaDefinition) error
	DropCollection(ctx context.Context, collection string) error

	// ListIndexes returns the live index catalog of a collection, including
	// the store's default primary key index.
	ListIndexes(ctx context.Context, collection string) ([]CatalogEntry, error)

	// CreateIndex creates one index. Creating an identical existing index
	// succeeds; a same-keyed index with different options is an error.
	CreateIndex(ctx context.Context, collection string, spec schema.IndexSpec) error
}
