package app

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"restate_api/internal/domain"
)

// reviewFanout bounds concurrent review lookups during a detail resolution.
const reviewFanout = 4

// resolveDetail composes the detail view. Only the base document lookup can
// fail; agent, gallery and reviews degrade independently to nil/empty.
func (s *PropertyService) resolveDetail(ctx context.Context, id string) (domain.PropertyDetail, error) {
	doc, err := s.store.GetDocument(ctx, s.cols.Properties, id)
	if err != nil {
		return domain.PropertyDetail{}, err
	}

	pd := domain.PropertyDetail{Property: mapProperty(doc)}
	pd.Agent = s.resolveAgent(ctx, pd.Property)
	pd.Gallery = s.resolveGallery(ctx, pd.Property)
	pd.Reviews = s.resolveReviews(ctx, pd.Property)
	return pd, nil
}

func (s *PropertyService) resolveAgent(ctx context.Context, p domain.Property) *domain.Agent {
	switch p.Agent.Kind {
	case domain.RefEmbedded:
		a := p.Agent.Value
		return &a
	case domain.RefByID:
		doc, err := s.store.GetDocument(ctx, s.cols.Agents, p.Agent.ID)
		if err != nil {
			log.Warn().Str("property", p.ID).Str("agent", p.Agent.ID).Err(err).Msg("agent lookup failed")
			return nil
		}
		a := mapAgent(doc)
		return &a
	default:
		return nil
	}
}

func (s *PropertyService) resolveGallery(ctx context.Context, p domain.Property) []domain.GalleryImage {
	switch p.Gallery.Kind {
	case domain.RefEmbedded:
		return p.Gallery.Value
	case domain.RefCollection:
		docs, err := s.store.ListDocuments(ctx, p.Gallery.ID, nil)
		if err != nil {
			log.Warn().Str("property", p.ID).Str("collection", p.Gallery.ID).Err(err).Msg("gallery lookup failed")
			return nil
		}
		out := make([]domain.GalleryImage, 0, len(docs))
		for _, d := range docs {
			out = append(out, mapGalleryImage(d))
		}
		return out
	default:
		return nil
	}
}

// resolveReviews fetches an id list concurrently, keeping the id order.
// A failed member is logged and omitted; it never aborts the siblings.
func (s *PropertyService) resolveReviews(ctx context.Context, p domain.Property) []domain.Review {
	switch p.Reviews.Kind {
	case domain.RefEmbedded:
		return p.Reviews.Value

	case domain.RefByIDList:
		slots := make([]*domain.Review, len(p.Reviews.IDs))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(reviewFanout)
		for i, rid := range p.Reviews.IDs {
			i, rid := i, rid
			g.Go(func() error {
				doc, err := s.store.GetDocument(gctx, s.cols.Reviews, rid)
				if err != nil {
					log.Warn().Str("property", p.ID).Str("review", rid).Err(err).Msg("review lookup failed")
					return nil
				}
				rv := mapReview(doc)
				slots[i] = &rv
				return nil
			})
		}
		_ = g.Wait() // workers never return errors
		out := make([]domain.Review, 0, len(slots))
		for _, rv := range slots {
			if rv != nil {
				out = append(out, *rv)
			}
		}
		return out

	case domain.RefCollection:
		docs, err := s.store.ListDocuments(ctx, p.Reviews.ID, []domain.Predicate{domain.OrderDesc(attrCreatedAt)})
		if err != nil {
			log.Warn().Str("property", p.ID).Str("collection", p.Reviews.ID).Err(err).Msg("reviews lookup failed")
			return nil
		}
		out := make([]domain.Review, 0, len(docs))
		for _, d := range docs {
			out = append(out, mapReview(d))
		}
		return out

	default:
		return nil
	}
}
