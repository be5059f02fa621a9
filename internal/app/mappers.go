package app

import (
	"strings"
	"time"

	"restate_api/internal/domain"
)

/********** alias registries (single source of truth) **********/

var propertyAliases = map[string][]string{
	"name":        {"name", "title"},
	"type":        {"type", "category", "property_type"},
	"address":     {"address", "full_address", "location.address"},
	"description": {"description", "details"},
	"image":       {"image", "cover", "thumbnail"},
}

var agentAliases = map[string][]string{
	"name":   {"name", "full_name", "fullName"},
	"email":  {"email", "contact_email"},
	"avatar": {"avatar", "photo", "image"},
}

var reviewAliases = map[string][]string{
	"author": {"name", "author", "userName", "reviewer"},
	"avatar": {"avatar", "photo"},
	"text":   {"review", "text", "comment", "body"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func lookupF64(m map[string]any, path string) float64 {
	switch v := lookupAny(m, path).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// firstAlias returns the first non-empty string among the alias paths for key.
func firstAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

func strSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func parseWhen(m map[string]any, fallback time.Time) time.Time {
	if s := lookupStr(m, "$createdAt"); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return fallback
}

/********** documents -> domain **********/

func mapProperty(d domain.Document) domain.Property {
	f := d.Fields
	p := domain.Property{
		ID:          d.ID,
		Name:        firstAlias(f, propertyAliases, "name"),
		Type:        firstAlias(f, propertyAliases, "type"),
		Address:     firstAlias(f, propertyAliases, "address"),
		Description: firstAlias(f, propertyAliases, "description"),
		Image:       firstAlias(f, propertyAliases, "image"),
		Price:       lookupF64(f, "price"),
		Rating:      lookupF64(f, "rating"),
		Area:        lookupF64(f, "area"),
		Bedrooms:    int(lookupF64(f, "bedrooms")),
		Bathrooms:   int(lookupF64(f, "bathrooms")),
		Facilities:  strSlice(f["facilities"]),
		CreatedAt:   parseWhen(f, d.CreatedAt),
		Agent:       tagAgentRef(f["agent"]),
		Gallery:     tagGalleryRef(f),
		Reviews:     tagReviewsRef(f["reviews"]),
	}
	return p
}

// tagAgentRef decodes the agent field once: id string, embedded object, or absent.
func tagAgentRef(v any) domain.Ref[domain.Agent] {
	switch a := v.(type) {
	case string:
		if a == "" {
			return domain.Absent[domain.Agent]()
		}
		return domain.ByID[domain.Agent](a)
	case map[string]any:
		return domain.Embedded(mapAgentFields(lookupStr(a, "$id"), a))
	default:
		return domain.Absent[domain.Agent]()
	}
}

// tagGalleryRef prefers a dedicated collection reference over an embedded array.
func tagGalleryRef(f map[string]any) domain.Ref[[]domain.GalleryImage] {
	if col := lookupStr(f, "galleryCollectionId"); col != "" {
		return domain.Collection[[]domain.GalleryImage](col)
	}
	if arr, ok := f["gallery"].([]any); ok {
		imgs := make([]domain.GalleryImage, 0, len(arr))
		for _, e := range arr {
			switch g := e.(type) {
			case string:
				imgs = append(imgs, domain.GalleryImage{Image: g})
			case map[string]any:
				imgs = append(imgs, domain.GalleryImage{
					ID:    lookupStr(g, "$id"),
					Image: lookupStr(g, "image"),
				})
			}
		}
		return domain.Embedded(imgs)
	}
	return domain.Absent[[]domain.GalleryImage]()
}

// tagReviewsRef decodes the reviews field: id list, embedded objects,
// collection reference, or absent.
func tagReviewsRef(v any) domain.Ref[[]domain.Review] {
	switch r := v.(type) {
	case string:
		if r == "" {
			return domain.Absent[[]domain.Review]()
		}
		return domain.Collection[[]domain.Review](r)
	case []any:
		if len(r) == 0 {
			return domain.Absent[[]domain.Review]()
		}
		if _, ok := r[0].(string); ok {
			return domain.ByIDs[[]domain.Review](strSlice(v))
		}
		revs := make([]domain.Review, 0, len(r))
		for _, e := range r {
			if m, ok := e.(map[string]any); ok {
				revs = append(revs, mapReviewFields(lookupStr(m, "$id"), m))
			}
		}
		return domain.Embedded(revs)
	default:
		return domain.Absent[[]domain.Review]()
	}
}

func mapAgent(d domain.Document) domain.Agent { return mapAgentFields(d.ID, d.Fields) }

func mapAgentFields(id string, f map[string]any) domain.Agent {
	return domain.Agent{
		ID:     id,
		Name:   firstAlias(f, agentAliases, "name"),
		Email:  firstAlias(f, agentAliases, "email"),
		Avatar: firstAlias(f, agentAliases, "avatar"),
	}
}

func mapReview(d domain.Document) domain.Review {
	rv := mapReviewFields(d.ID, d.Fields)
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = d.CreatedAt
	}
	return rv
}

func mapReviewFields(id string, f map[string]any) domain.Review {
	return domain.Review{
		ID:        id,
		Author:    firstAlias(f, reviewAliases, "author"),
		Avatar:    firstAlias(f, reviewAliases, "avatar"),
		Text:      firstAlias(f, reviewAliases, "text"),
		Rating:    lookupF64(f, "rating"),
		CreatedAt: parseWhen(f, time.Time{}),
	}
}

func mapGalleryImage(d domain.Document) domain.GalleryImage {
	return domain.GalleryImage{ID: d.ID, Image: lookupStr(d.Fields, "image")}
}
