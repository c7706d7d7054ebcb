package usecase

import (
	"slices"
	"strings"

	"cultura-chat/internal/domain/entity"
)

const (
	CategoryEntertainment = "entertainment"
	CategoryDining        = "dining"

	defaultStyle = "indie"
)

type styleList struct {
	key     string
	records []entity.RecommendationRecord
}

type category struct {
	name   string
	styles []styleList // matched in this order
}

// catalogue stands in for a taste-graph API. It is never mutated after init.
var catalogue = []category{
	{
		name: CategoryEntertainment,
		styles: []styleList{
			{key: "indie", records: []entity.RecommendationRecord{
				{Name: "Moonlight", Type: "movie", Description: "Coming-of-age drama with artistic cinematography"},
				{Name: "The National", Type: "music", Description: "Indie rock band with melancholic themes"},
				{Name: "Norwegian Wood", Type: "book", Description: "Haruki Murakami's contemplative novel"},
			}},
			{key: "cozy", records: []entity.RecommendationRecord{
				{Name: "Studio Ghibli Collection", Type: "movies", Description: "Whimsical animated films perfect for cozy evenings"},
				{Name: "Bon Iver", Type: "music", Description: "Atmospheric folk music for quiet moments"},
				{Name: "The Little Prince", Type: "book", Description: "Timeless tale perfect for reflection"},
			}},
		},
	},
	{
		name: CategoryDining,
		styles: []styleList{
			{key: "indie", records: []entity.RecommendationRecord{
				{Name: "Local Coffee Roasters", Type: "cafe", Description: "Independent coffee shops with unique blends"},
				{Name: "Farm-to-table Bistros", Type: "restaurant", Description: "Small restaurants focusing on local ingredients"},
			}},
			{key: "cozy", records: []entity.RecommendationRecord{
				{Name: "Bookstore Cafes", Type: "cafe", Description: "Quiet spaces combining books and coffee"},
				{Name: "Wine Bars", Type: "bar", Description: "Intimate settings with curated wine selections"},
			}},
		},
	},
}

type Recommender struct {
	table []category
}

func NewRecommender() *Recommender {
	return &Recommender{table: catalogue}
}

// Lookup returns the records of the first style whose key occurs in
// preferences, falling back to the category's indie list. Unknown categories
// yield an empty, non-nil slice.
func (r *Recommender) Lookup(preferences, categoryName string) []entity.RecommendationRecord {
	cat, ok := r.category(categoryName)
	if !ok {
		return []entity.RecommendationRecord{}
	}

	prefs := strings.ToLower(preferences)
	for _, style := range cat.styles {
		if strings.Contains(prefs, strings.ToLower(style.key)) {
			return slices.Clone(style.records)
		}
	}

	for _, style := range cat.styles {
		if style.key == defaultStyle {
			return slices.Clone(style.records)
		}
	}
	return []entity.RecommendationRecord{}
}

func (r *Recommender) category(name string) (category, bool) {
	for _, c := range r.table {
		if c.name == name {
			return c, true
		}
	}
	return category{}, false
}
