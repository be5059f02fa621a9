package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"restate_api/internal/domain"
)

// PropertyService serves the browsing read paths: filtered lists, the
// featured rail and the composite detail view, with cache-aside reads.
type PropertyService struct {
	store    domain.DocumentStore
	cols     domain.Collections
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewPropertyService(store domain.DocumentStore, cols domain.Collections, cache domain.Cache, ttl time.Duration) *PropertyService {
	return &PropertyService{store: store, cols: cols, cache: cache, cacheTTL: ttl}
}

func (s *PropertyService) List(ctx context.Context, p domain.FetchParams) ([]domain.Property, error) {
	key := fmt.Sprintf("properties:%s:%s:%d", p.Filter, p.Query, p.Limit)
	var out []domain.Property
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	docs, err := s.store.ListDocuments(ctx, s.cols.Properties, BuildListQuery(p))
	if err != nil {
		return nil, err
	}
	out = make([]domain.Property, 0, len(docs))
	for _, d := range docs {
		out = append(out, mapProperty(d))
	}

	if b, _ := json.Marshal(out); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

func (s *PropertyService) Featured(ctx context.Context, limit int) ([]domain.Property, error) {
	key := fmt.Sprintf("properties:featured:%d", limit)
	var out []domain.Property
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	docs, err := s.store.ListDocuments(ctx, s.cols.Properties, BuildFeaturedQuery(limit))
	if err != nil {
		return nil, err
	}
	out = make([]domain.Property, 0, len(docs))
	for _, d := range docs {
		out = append(out, mapProperty(d))
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *PropertyService) Detail(ctx context.Context, id string) (domain.PropertyDetail, error) {
	key := "property:" + id
	var pd domain.PropertyDetail
	if ok, _ := s.cache.Get(ctx, key, &pd); ok {
		return pd, nil
	}

	pd, err := s.resolveDetail(ctx, id)
	if err != nil {
		return domain.PropertyDetail{}, err
	}
	_ = s.cache.Set(ctx, key, pd, int(s.cacheTTL.Seconds()))
	return pd, nil
}
