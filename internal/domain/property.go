package domain

import "time"

type Property struct {
	ID          string
	Name        string
	Type        string
	Address     string
	Description string
	Price       float64
	Rating      float64
	Area        float64
	Bedrooms    int
	Bathrooms   int
	Facilities  []string
	Image       string
	CreatedAt   time.Time

	// Relations as found on the raw document; resolved in PropertyDetail.
	Agent   Ref[Agent]
	Gallery Ref[[]GalleryImage]
	Reviews Ref[[]Review]
}

type Agent struct {
	ID     string
	Name   string
	Email  string
	Avatar string
}

type GalleryImage struct {
	ID    string
	Image string
}

// PropertyDetail is the denormalized read model for a single listing.
// Each relation is resolved independently; a missing agent or a failed
// review lookup never voids the base record.
type PropertyDetail struct {
	Property
	Agent   *Agent
	Gallery []GalleryImage
	Reviews []Review
}
