// Package facets derives normalized filterable attributes from recipes,
// aggregates the available facet values across a collection, and evaluates
// multi-facet selections. Matching is AND across facets and OR among the
// selected values within one facet; a recipe with an absent value fails any
// facet that has a non-empty selection.
package facets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/recipesmd/recipesmd/models"
	"github.com/recipesmd/recipesmd/pkg/duration"
)

// TimeBucket is one fixed, inclusive minute range backing the time facet.
// The last bucket is unbounded above.
type TimeBucket struct {
	ID    string
	Label string
	Min   int
	Max   int // -1 means unbounded
}

// Buckets lists the time buckets in ascending order. A recipe contributes
// to at most the first bucket containing its total minutes.
var Buckets = []TimeBucket{
	{ID: "under-30", Label: "Under 30 min", Min: 0, Max: 29},
	{ID: "30-60", Label: "30-60 min", Min: 30, Max: 59},
	{ID: "60-120", Label: "1-2 hours", Min: 60, Max: 119},
	{ID: "120-plus", Label: "2+ hours", Min: 120, Max: -1},
}

// BucketID returns the id of the bucket containing the given minutes, or ""
// when minutes is absent (non-positive).
func BucketID(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	for _, b := range Buckets {
		if minutes >= b.Min && (b.Max < 0 || minutes <= b.Max) {
			return b.ID
		}
	}
	return ""
}

// normalizeValue trims and lowercases a facet value.
func normalizeValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// normalizeList normalizes every element and drops empties.
func normalizeList(values []string) []string {
	var out []string
	for _, v := range values {
		if n := normalizeValue(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// normalizeScalar returns the first non-empty normalized element.
func normalizeScalar(values ...string) string {
	for _, v := range values {
		if n := normalizeValue(v); n != "" {
			return n
		}
	}
	return ""
}

// Derive computes the normalized facets for one recipe. It is called once
// per fetch; matching operates on the derived values only.
func Derive(r models.RecipeSummary) models.Facets {
	f := models.Facets{
		Meal:      normalizeList(r.Meal),
		Category:  normalizeScalar(r.Category),
		Ethnicity: normalizeList(r.Ethnicity),
		Diet:      normalizeList(r.DietFriendly),
		Tags:      normalizeList(r.Tags),
	}
	if minutes, ok := duration.ParseMinutes(r.TotalTime); ok {
		f.TotalMinutes = minutes
	}
	return f
}

// Options holds the facet values available across a collection, sorted, plus
// the recipe count per time bucket.
type Options struct {
	Meal        []string
	Category    []string
	Ethnicity   []string
	Diet        []string
	Tags        []string
	BucketCount map[string]int
}

// BuildOptions unions each facet's values across all recipes. Recipes with
// no derivable total time contribute to no bucket.
func BuildOptions(all []models.Facets) Options {
	sets := map[string]map[string]bool{
		models.FacetMeal:      {},
		models.FacetCategory:  {},
		models.FacetEthnicity: {},
		models.FacetDiet:      {},
		models.FacetTags:      {},
	}
	counts := make(map[string]int, len(Buckets))
	for _, b := range Buckets {
		counts[b.ID] = 0
	}

	for _, f := range all {
		addAll(sets[models.FacetMeal], f.Meal)
		if f.Category != "" {
			sets[models.FacetCategory][f.Category] = true
		}
		addAll(sets[models.FacetEthnicity], f.Ethnicity)
		addAll(sets[models.FacetDiet], f.Diet)
		addAll(sets[models.FacetTags], f.Tags)
		if id := BucketID(f.TotalMinutes); id != "" {
			counts[id]++
		}
	}

	return Options{
		Meal:        sorted(sets[models.FacetMeal]),
		Category:    sorted(sets[models.FacetCategory]),
		Ethnicity:   sorted(sets[models.FacetEthnicity]),
		Diet:        sorted(sets[models.FacetDiet]),
		Tags:        sorted(sets[models.FacetTags]),
		BucketCount: counts,
	}
}

// Values returns the selectable values for a facet key. The time facet
// exposes its fixed bucket ids regardless of the collection.
func (o Options) Values(facet string) []string {
	switch facet {
	case models.FacetMeal:
		return o.Meal
	case models.FacetCategory:
		return o.Category
	case models.FacetEthnicity:
		return o.Ethnicity
	case models.FacetDiet:
		return o.Diet
	case models.FacetTags:
		return o.Tags
	case models.FacetTime:
		ids := make([]string, len(Buckets))
		for i, b := range Buckets {
			ids[i] = b.ID
		}
		return ids
	}
	return nil
}

// Matches reports whether a recipe's facets pass every facet of the
// selection. Empty selections are wildcards; absent values fail non-empty
// selections.
func Matches(f models.Facets, state models.FilterState) bool {
	if !matchesList(f.Meal, state[models.FacetMeal]) {
		return false
	}
	if !matchesScalar(f.Category, state[models.FacetCategory]) {
		return false
	}
	if !matchesList(f.Ethnicity, state[models.FacetEthnicity]) {
		return false
	}
	if !matchesList(f.Diet, state[models.FacetDiet]) {
		return false
	}
	if !matchesList(f.Tags, state[models.FacetTags]) {
		return false
	}
	return matchesScalar(BucketID(f.TotalMinutes), state[models.FacetTime])
}

func matchesScalar(value string, selected map[string]bool) bool {
	if len(selected) == 0 {
		return true
	}
	if value == "" {
		return false
	}
	return selected[value]
}

func matchesList(values []string, selected map[string]bool) bool {
	if len(selected) == 0 {
		return true
	}
	for _, v := range values {
		if selected[v] {
			return true
		}
	}
	return false
}

// ParseSelection builds a FilterState from CLI arguments of the form
// "facet=value". Repeating a facet ORs its values. Unknown facets and
// unknown time bucket ids are rejected.
func ParseSelection(args []string) (models.FilterState, error) {
	state := models.NewFilterState()
	for _, arg := range args {
		facet, value, found := strings.Cut(arg, "=")
		if !found {
			return nil, fmt.Errorf("invalid filter %q: expected facet=value", arg)
		}
		facet = normalizeValue(facet)
		value = normalizeValue(value)
		if value == "" {
			return nil, fmt.Errorf("invalid filter %q: empty value", arg)
		}

		switch facet {
		case models.FacetMeal, models.FacetCategory, models.FacetEthnicity,
			models.FacetDiet, models.FacetTags:
			state.Select(facet, value)
		case models.FacetTime:
			if BucketLabel(value) == "" {
				return nil, fmt.Errorf("invalid time bucket %q: known buckets are %s", value, strings.Join(bucketIDs(), ", "))
			}
			state.Select(facet, value)
		default:
			return nil, fmt.Errorf("unknown facet %q: known facets are %s", facet, strings.Join(models.FacetKeys, ", "))
		}
	}
	return state, nil
}

// BucketLabel returns the display label for a bucket id, or "" when the id
// is unknown.
func BucketLabel(id string) string {
	for _, b := range Buckets {
		if b.ID == id {
			return b.Label
		}
	}
	return ""
}

func bucketIDs() []string {
	ids := make([]string, len(Buckets))
	for i, b := range Buckets {
		ids[i] = b.ID
	}
	return ids
}

func addAll(set map[string]bool, values []string) {
	for _, v := range values {
		if v != "" {
			set[v] = true
		}
	}
}

func sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
