// Package models defines data structures shared across the client:
// recipe metadata, derived facets, filter state, and share payloads.
package models

import "strings"

// RecipeSummary is one entry of the collection listing returned by the
// server. Duration fields carry the raw header text; normalization into
// minutes happens in pkg/facets.
type RecipeSummary struct {
	Slug         string   `json:"slug" yaml:"slug"`
	Title        string   `json:"title" yaml:"title"`
	URL          string   `json:"url,omitempty" yaml:"url,omitempty"`
	Meal         []string `json:"meal,omitempty" yaml:"meal,omitempty"`
	Category     string   `json:"category,omitempty" yaml:"category,omitempty"`
	Ethnicity    []string `json:"ethnicity,omitempty" yaml:"ethnicity,omitempty"`
	DietFriendly []string `json:"diet_friendly,omitempty" yaml:"diet_friendly,omitempty"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	TotalTime    string   `json:"total_time,omitempty" yaml:"total_time,omitempty"`
}

// DisplayTitle returns the best human-readable name for the recipe.
func (r RecipeSummary) DisplayTitle() string {
	if strings.TrimSpace(r.Title) != "" {
		return r.Title
	}
	if r.Slug != "" {
		return r.Slug
	}
	return "Untitled recipe"
}

// Recipe is the full detail response: metadata plus the markdown document
// (header block included).
type Recipe struct {
	Metadata RecipeSummary `json:"metadata" yaml:"metadata"`
	Markdown string        `json:"markdown" yaml:"markdown"`
}

// Facets holds the normalized filterable attributes derived from one recipe.
// All values are trimmed and lowercased. A zero TotalMinutes means no
// strictly positive duration could be derived.
type Facets struct {
	Meal         []string
	Category     string
	Ethnicity    []string
	Diet         []string
	Tags         []string
	TotalMinutes int
}

// FilterState maps a facet key to the set of selected normalized values.
// An empty or missing set means the facet matches every recipe.
type FilterState map[string]map[string]bool

// Facet keys used by FilterState and the options builder.
const (
	FacetMeal      = "meal"
	FacetCategory  = "category"
	FacetEthnicity = "ethnicity"
	FacetDiet      = "diet"
	FacetTags      = "tags"
	FacetTime      = "time"
)

// FacetKeys lists every facet in display order.
var FacetKeys = []string{FacetMeal, FacetCategory, FacetEthnicity, FacetDiet, FacetTags, FacetTime}

// NewFilterState returns a FilterState with an empty selection per facet.
func NewFilterState() FilterState {
	s := make(FilterState, len(FacetKeys))
	for _, key := range FacetKeys {
		s[key] = map[string]bool{}
	}
	return s
}

// Select adds a value to a facet's selection set.
func (s FilterState) Select(facet, value string) {
	if s[facet] == nil {
		s[facet] = map[string]bool{}
	}
	s[facet][value] = true
}

// Empty reports whether no facet has a selection.
func (s FilterState) Empty() bool {
	for _, set := range s {
		if len(set) > 0 {
			return false
		}
	}
	return true
}

// SharePayload carries the fields of a share-intake submission. All fields
// are trimmed on construction; the payload is consumed exactly once.
type SharePayload struct {
	URL   string
	Title string
	Text  string
}

// NewSharePayload trims the raw fields and returns nil when every field is
// empty, matching the capture rule for the share-intake routes.
func NewSharePayload(url, title, text string) *SharePayload {
	p := SharePayload{
		URL:   strings.TrimSpace(url),
		Title: strings.TrimSpace(title),
		Text:  strings.TrimSpace(text),
	}
	if p.URL == "" && p.Title == "" && p.Text == "" {
		return nil
	}
	return &p
}

// User is the authenticated account object returned by auth/me.
type User struct {
	ID       int64  `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	IsActive bool   `json:"is_active" yaml:"is_active"`
	IsAdmin  bool   `json:"is_admin" yaml:"is_admin"`
}
