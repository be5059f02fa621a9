package app

import "restate_api/internal/domain"

// Attribute names on property documents.
const (
	attrCreatedAt = "$createdAt"
	attrName      = "name"
	attrType      = "type"
	attrAddress   = "address"
	attrRating    = "rating"
)

// searchAttrs are the fields a free-text term is matched against. One OR
// clause: a listing matches if the term appears in any of them.
var searchAttrs = []string{attrName, attrAddress, attrType}

// BuildListQuery translates a list intent into the ordered predicate
// sequence handed to the document store. Order is fixed: newest-first
// ordering, then category equality, then text search, then the result cap.
// Callers may rely on that sequence when predicates are logged or replayed.
func BuildListQuery(p domain.FetchParams) []domain.Predicate {
	preds := []domain.Predicate{domain.OrderDesc(attrCreatedAt)}

	if p.Filter != "" && p.Filter != domain.FilterAll {
		preds = append(preds, domain.Equal(attrType, p.Filter))
	}
	if p.Query != "" {
		preds = append(preds, domain.SearchAny(searchAttrs, p.Query))
	}
	if p.Limit > 0 {
		preds = append(preds, domain.LimitTo(p.Limit))
	}
	return preds
}

// BuildFeaturedQuery selects the top-rated listings for the home screen.
func BuildFeaturedQuery(limit int) []domain.Predicate {
	if limit <= 0 {
		limit = 5
	}
	return []domain.Predicate{domain.OrderDesc(attrRating), domain.LimitTo(limit)}
}
