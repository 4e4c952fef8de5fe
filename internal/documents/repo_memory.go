package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string][]Record
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: make(map[string][]Record)}
}

func (r *MemoryRepo) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	urls := make(map[Type]string, len(rec.URLs))
	for t, url := range rec.URLs {
		urls[t] = url
	}
	rec.URLs = urls
	r.records[rec.ApplicationID] = append(r.records[rec.ApplicationID], rec)
	return nil
}

func (r *MemoryRepo) ListByApplication(ctx context.Context, applicationID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.records[applicationID]
	out := make([]Record, len(src))
	for i, rec := range src {
		urls := make(map[Type]string, len(rec.URLs))
		for t, url := range rec.URLs {
			urls[t] = url
		}
		rec.URLs = urls
		out[i] = rec
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) ClearType(ctx context.Context, applicationID string, t Type) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records[applicationID] {
		delete(rec.URLs, t)
	}
	return nil
}

func (r *MemoryRepo) DeleteByApplication(ctx context.Context, applicationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, applicationID)
	return nil
}
