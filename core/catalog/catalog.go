package catalog

import (
	"context"
	"fmt"
	"sync"

	"fitting-console/core/models"

	"github.com/rs/zerolog/log"
)

// Source fetches the algorithm schemas offered by the fitting service
type Source interface {
	ListAlgorithms(ctx context.Context) ([]models.AlgorithmSchema, error)
}

// Catalog caches the algorithm schemas for the lifetime of the process.
// Schemas are read-only once loaded; a failed fetch is not cached.
type Catalog struct {
	source Source

	mu      sync.Mutex
	loaded  bool
	order   []string
	schemas map[string]*models.AlgorithmSchema
}

// NewCatalog creates a catalog backed by source
func NewCatalog(source Source) *Catalog {
	return &Catalog{source: source}
}

// NewStaticCatalog creates an already loaded catalog
func NewStaticCatalog(schemas []models.AlgorithmSchema) *Catalog {
	c := &Catalog{}
	c.store(schemas)
	return c
}

// All returns every schema in the order the service declared them
func (c *Catalog) All(ctx context.Context) ([]*models.AlgorithmSchema, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.AlgorithmSchema, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.schemas[id])
	}
	return out, nil
}

// Get returns the schema for an algorithm id. An id outside the catalog is a
// validation error.
func (c *Catalog) Get(ctx context.Context, id string) (*models.AlgorithmSchema, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	schema, ok := c.schemas[id]
	if !ok {
		return nil, models.NewValidationError("model_type", "unknown algorithm %q", id)
	}
	return schema, nil
}

// Signed reports the family flag for a model type, falling back to the
// static family table when the catalog does not know the type.
func (c *Catalog) Signed(ctx context.Context, modelType string) bool {
	schema, err := c.Get(ctx, modelType)
	if err != nil {
		return models.SignedFamily(modelType)
	}
	return schema.Signed
}

func (c *Catalog) ensureLoaded(ctx context.Context) error {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if c.source == nil {
		return fmt.Errorf("algorithm catalog has no source")
	}

	schemas, err := c.source.ListAlgorithms(ctx)
	if err != nil {
		return fmt.Errorf("failed to load algorithm catalog: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.store(schemas)
		log.Info().Int("algorithms", len(c.order)).Msg("Algorithm catalog loaded")
	}
	return nil
}

// store must be called with mu held or before the catalog is shared
func (c *Catalog) store(schemas []models.AlgorithmSchema) {
	c.schemas = make(map[string]*models.AlgorithmSchema, len(schemas))
	c.order = make([]string, 0, len(schemas))
	for i := range schemas {
		schema := schemas[i]
		if err := schema.Validate(); err != nil {
			log.Warn().Err(err).Str("algorithm", schema.ID).Msg("Skipping invalid algorithm schema")
			continue
		}
		if _, dup := c.schemas[schema.ID]; dup {
			log.Warn().Str("algorithm", schema.ID).Msg("Skipping duplicate algorithm schema")
			continue
		}
		c.schemas[schema.ID] = &schema
		c.order = append(c.order, schema.ID)
	}
	c.loaded = true
}
