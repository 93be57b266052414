package services

import (
	"context"
	"fmt"

	"catalog-migrator/internal/clients/shopify"
	"go.uber.org/zap"
)

// CollectionResolver resolves destination collections by title, creating them
// when missing. Successful resolutions are memoized for the run, so one title
// maps to exactly one collection identity. Failures are not memoized; a later
// product may still resolve the same title.
type CollectionResolver struct {
	destination *shopify.Client
	logger      *zap.SugaredLogger
	byTitle     map[string]int64
}

// NewCollectionResolver creates a resolver scoped to one migration run
func NewCollectionResolver(destination *shopify.Client, logger *zap.SugaredLogger) *CollectionResolver {
	return &CollectionResolver{
		destination: destination,
		logger:      logger,
		byTitle:     make(map[string]int64),
	}
}

// GetOrCreate returns the collection id for a title. The lookup-then-create
// against the destination is idempotent; callers treat an error as "skip this
// collection" rather than retrying.
func (r *CollectionResolver) GetOrCreate(ctx context.Context, title string) (int64, error) {
	if id, ok := r.byTitle[title]; ok {
		return id, nil
	}

	existing, err := r.destination.FindCustomCollection(ctx, title)
	if err != nil {
		return 0, fmt.Errorf("find collection %q: %w", title, err)
	}
	if existing != nil {
		r.byTitle[title] = existing.ID
		return existing.ID, nil
	}

	created, err := r.destination.CreateCustomCollection(ctx, title)
	if err != nil {
		return 0, fmt.Errorf("create collection %q: %w", title, err)
	}
	r.logger.Infow("created collection", "title", title, "collectionId", created.ID)
	r.byTitle[title] = created.ID
	return created.ID, nil
}
