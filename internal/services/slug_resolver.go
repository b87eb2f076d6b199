package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finewatch/internal/core"
)

// Kind selects which slug index a lookup runs against.
type Kind string

const (
	KindFirm     Kind = "firm"
	KindCategory Kind = "category"
	KindSector   Kind = "sector"
)

// DefaultIndexTTL is how long a built slug index stays fresh. The underlying
// name set only changes when new notices are ingested, at most daily, so a
// short TTL is plenty.
const DefaultIndexTTL = 15 * time.Minute

// SlugResolver maps opaque URL slugs back to the canonical display names
// they were derived from, one lazily-built index per entity kind. A name that
// was present at the last rebuild always resolves; a name added since
// resolves after the TTL forces a rebuild. There is no other invalidation.
type SlugResolver struct {
	source NameSource
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	indexes map[Kind]*slugIndex
}

type slugIndex struct {
	builtAt time.Time
	names   map[string]string // slug -> canonical name
}

func NewSlugResolver(source NameSource, ttl time.Duration) *SlugResolver {
	if ttl <= 0 {
		ttl = DefaultIndexTTL
	}
	return &SlugResolver{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		indexes: make(map[Kind]*slugIndex),
	}
}

// Resolve translates a slug into its canonical name, or the empty string
// when no indexed name maps to it. Unknown slugs are not an error.
func (r *SlugResolver) Resolve(ctx context.Context, kind Kind, slug string) (string, error) {
	names, err := r.getOrRebuild(ctx, kind)
	if err != nil {
		return "", err
	}
	return names[slug], nil
}

// Invalidate drops every cached index so the next lookup rebuilds. The
// ingest path calls this after inserting new records.
func (r *SlugResolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexes = make(map[Kind]*slugIndex)
}

// getOrRebuild returns the slug index for a kind, rebuilding when absent or
// older than the TTL. The rebuild runs under the mutex: a full-map
// replacement is idempotent, the lock just keeps readers from observing a
// torn index.
func (r *SlugResolver) getOrRebuild(ctx context.Context, kind Kind) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.indexes[kind]; ok && r.now().Sub(idx.builtAt) < r.ttl {
		return idx.names, nil
	}

	names, err := r.buildIndex(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("rebuild %s slug index: %w", kind, err)
	}

	r.indexes[kind] = &slugIndex{builtAt: r.now(), names: names}
	slog.DebugContext(ctx, "Slug index rebuilt", "kind", string(kind), "entries", len(names))
	return names, nil
}

func (r *SlugResolver) buildIndex(ctx context.Context, kind Kind) (map[string]string, error) {
	names := make(map[string]string)

	switch kind {
	case KindFirm:
		firms, err := r.source.DistinctFirmNames(ctx)
		if err != nil {
			return nil, err
		}
		for _, name := range firms {
			names[core.FirmSlug(name)] = name
		}
	case KindCategory:
		cats, err := r.source.GroupByCategory(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range cats {
			names[core.Slugify(c.Name)] = c.Name
		}
	case KindSector:
		sectors, err := r.source.GroupBySector(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range sectors {
			names[core.Slugify(s.Name)] = s.Name
		}
	default:
		return nil, fmt.Errorf("unknown slug kind %q", kind)
	}

	return names, nil
}
