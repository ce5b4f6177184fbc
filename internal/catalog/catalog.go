// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package catalog defines the read-only view of media items the scoring
// and generation engine consumes, plus two reference adapters
// (in-memory and rate-limited HTTP) over the CatalogSource interface.
package catalog

import "context"

// Kind identifies the category of a playable Item.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
	KindFiller  Kind = "filler"
)

// Item is one playable unit from the media catalog. Items are immutable
// within a single job; a job operates on a snapshot taken at start.
type Item struct {
	ID               string   `json:"id" validate:"required"`
	Title            string   `json:"title" validate:"required"`
	Kind             Kind     `json:"kind" validate:"required,oneof=movie episode filler"`
	DurationSeconds  int      `json:"duration_seconds" validate:"required,gt=0"`
	Year             *int     `json:"year,omitempty"`
	AgeRating        *string  `json:"age_rating,omitempty"`
	Rating           *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10"`
	VoteCount        *int     `json:"vote_count,omitempty" validate:"omitempty,gte=0"`
	Genres           []string `json:"genres,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	Studios          []string `json:"studios,omitempty"`
	Collection       *string  `json:"collection,omitempty"`
	Budget           *int64   `json:"budget,omitempty"`
	Revenue          *int64   `json:"revenue,omitempty"`
	SourceLibraryID  string   `json:"source_library_id"`
}

// DurationMinutes returns the item's runtime in minutes, matching the
// minute-granular thresholds used throughout scoring.
func (i Item) DurationMinutes() float64 {
	return float64(i.DurationSeconds) / 60.0
}

// Filters narrows a ListItems call. All fields are optional; a zero-value
// Filters matches every item in the requested libraries.
type Filters struct {
	Kinds  []Kind
	Genres []string
}

// CatalogSource is the narrow, read-only interface the engine consumes
// over an external media server's enriched metadata cache. Implementations
// must return items with every field populated or explicitly null/zero,
// never by omitting a struct field.
type CatalogSource interface {
	ListItems(ctx context.Context, libraryIDs []string, filters Filters) ([]Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
}
