package facets

import (
	"reflect"
	"testing"

	"github.com/recipesmd/recipesmd/models"
)

func TestDerive(t *testing.T) {
	r := models.RecipeSummary{
		Slug:         "shakshuka",
		Title:        "Shakshuka",
		Meal:         []string{" Breakfast ", "BRUNCH", ""},
		Category:     " Main ",
		Ethnicity:    []string{"Middle_Eastern"},
		DietFriendly: []string{"Vegetarian"},
		Tags:         []string{"Eggs", "one-pan"},
		TotalTime:    "PT45M",
	}

	f := Derive(r)

	if got, want := f.Meal, []string{"breakfast", "brunch"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Meal = %v, want %v", got, want)
	}
	if f.Category != "main" {
		t.Errorf("Category = %q, want %q", f.Category, "main")
	}
	if got, want := f.Tags, []string{"eggs", "one-pan"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tags = %v, want %v", got, want)
	}
	if f.TotalMinutes != 45 {
		t.Errorf("TotalMinutes = %d, want 45", f.TotalMinutes)
	}
}

func TestDerive_AbsentTime(t *testing.T) {
	f := Derive(models.RecipeSummary{Slug: "x", TotalTime: "a while"})
	if f.TotalMinutes != 0 {
		t.Errorf("TotalMinutes = %d, want 0", f.TotalMinutes)
	}
}

func TestBucketID(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, ""},
		{-5, ""},
		{1, "under-30"},
		{29, "under-30"},
		{30, "30-60"},
		{59, "30-60"},
		{60, "60-120"},
		{119, "60-120"},
		{120, "120-plus"},
		{600, "120-plus"},
	}
	for _, tt := range tests {
		if got := BucketID(tt.minutes); got != tt.want {
			t.Errorf("BucketID(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestBuildOptions(t *testing.T) {
	all := []models.Facets{
		{Meal: []string{"dinner"}, Category: "main", Tags: []string{"spicy"}, TotalMinutes: 25},
		{Meal: []string{"dinner", "lunch"}, Category: "soup", TotalMinutes: 45},
		{Meal: []string{"breakfast"}, Tags: []string{"quick", "spicy"}},
	}

	opts := BuildOptions(all)

	if got, want := opts.Meal, []string{"breakfast", "dinner", "lunch"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Meal = %v, want %v", got, want)
	}
	if got, want := opts.Category, []string{"main", "soup"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Category = %v, want %v", got, want)
	}
	if got, want := opts.Tags, []string{"quick", "spicy"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tags = %v, want %v", got, want)
	}
	if opts.BucketCount["under-30"] != 1 || opts.BucketCount["30-60"] != 1 {
		t.Errorf("BucketCount = %v, want under-30:1 30-60:1", opts.BucketCount)
	}
	// The no-time recipe contributes to no bucket.
	if total := opts.BucketCount["under-30"] + opts.BucketCount["30-60"] + opts.BucketCount["60-120"] + opts.BucketCount["120-plus"]; total != 2 {
		t.Errorf("bucket total = %d, want 2", total)
	}
}

func TestMatches_EmptySelectionIsWildcard(t *testing.T) {
	f := models.Facets{Meal: []string{"dinner"}}
	if !Matches(f, models.NewFilterState()) {
		t.Error("empty selection should match everything")
	}
}

func TestMatches_OrWithinFacet(t *testing.T) {
	state := models.NewFilterState()
	state.Select(models.FacetMeal, "lunch")
	state.Select(models.FacetMeal, "dinner")

	if !Matches(models.Facets{Meal: []string{"dinner"}}, state) {
		t.Error("recipe with one of the selected meals should match")
	}
	if Matches(models.Facets{Meal: []string{"breakfast"}}, state) {
		t.Error("recipe with none of the selected meals should not match")
	}
}

func TestMatches_AndAcrossFacets(t *testing.T) {
	state := models.NewFilterState()
	state.Select(models.FacetMeal, "dinner")
	state.Select(models.FacetDiet, "vegan")

	f := models.Facets{Meal: []string{"dinner"}, Diet: []string{"vegetarian"}}
	if Matches(f, state) {
		t.Error("recipe failing one facet should not match")
	}
	f.Diet = []string{"vegan", "vegetarian"}
	if !Matches(f, state) {
		t.Error("recipe passing every facet should match")
	}
}

func TestMatches_AbsentValueFailsClosed(t *testing.T) {
	state := models.NewFilterState()
	state.Select(models.FacetCategory, "main")
	if Matches(models.Facets{}, state) {
		t.Error("recipe with no category should fail a category selection")
	}

	state = models.NewFilterState()
	state.Select(models.FacetTime, "under-30")
	if Matches(models.Facets{TotalMinutes: 0}, state) {
		t.Error("recipe with no total time should fail a time selection")
	}
	if !Matches(models.Facets{TotalMinutes: 20}, state) {
		t.Error("20-minute recipe should pass the under-30 selection")
	}
}

func TestParseSelection(t *testing.T) {
	state, err := ParseSelection([]string{"meal=Dinner", "meal=lunch", "time=under-30", "tags= Spicy "})
	if err != nil {
		t.Fatalf("ParseSelection error: %v", err)
	}
	if !state[models.FacetMeal]["dinner"] || !state[models.FacetMeal]["lunch"] {
		t.Errorf("meal selection = %v, want dinner and lunch", state[models.FacetMeal])
	}
	if !state[models.FacetTime]["under-30"] {
		t.Errorf("time selection = %v, want under-30", state[models.FacetTime])
	}
	if !state[models.FacetTags]["spicy"] {
		t.Errorf("tags selection = %v, want spicy", state[models.FacetTags])
	}
}

func TestParseSelection_Errors(t *testing.T) {
	tests := []string{
		"meal",            // no separator
		"meal=",           // empty value
		"season=summer",   // unknown facet
		"time=under-5",    // unknown bucket
	}
	for _, arg := range tests {
		if _, err := ParseSelection([]string{arg}); err == nil {
			t.Errorf("ParseSelection(%q) expected error, got nil", arg)
		}
	}
}
