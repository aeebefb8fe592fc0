package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTour() *Tour {
	return &Tour{
		ID:           NewID("tour"),
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   DifficultyEasy,
		Price:        397,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:   "tour-1-cover.jpg",
	}
}

func TestTourBeforeSaveDerivesSlug(t *testing.T) {
	tour := validTour()
	tour.BeforeSave()

	assert.Equal(t, "the-forest-hiker", tour.Slug)
	assert.Equal(t, 4.5, tour.RatingsAverage)
	assert.Equal(t, 0, tour.RatingsQuantity)
	assert.False(t, tour.CreatedAt.IsZero())

	// 名称变化后 slug 重新生成
	tour.Name = "The Forest Hiker Deluxe"
	tour.BeforeSave()
	assert.Equal(t, "the-forest-hiker-deluxe", tour.Slug)
}

func TestTourBeforeSaveRoundsRatings(t *testing.T) {
	tour := validTour()
	tour.RatingsAverage = 4.6666667
	tour.BeforeSave()
	assert.Equal(t, 4.7, tour.RatingsAverage)
}

func TestTourValidation(t *testing.T) {
	tour := validTour()
	tour.BeforeSave()
	require.NoError(t, Validate(tour))

	tests := []struct {
		name   string
		mutate func(*Tour)
	}{
		{"missing name", func(tr *Tour) { tr.Name = "" }},
		{"name too short", func(tr *Tour) { tr.Name = "Short" }},
		{"bad difficulty", func(tr *Tour) { tr.Difficulty = "extreme" }},
		{"zero price", func(tr *Tour) { tr.Price = 0 }},
		{"discount not below price", func(tr *Tour) { tr.PriceDiscount = 397 }},
		{"rating above bound", func(tr *Tour) { tr.RatingsAverage = 5.5 }},
		{"missing cover image", func(tr *Tour) { tr.ImageCover = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := validTour()
			bad.BeforeSave()
			tt.mutate(bad)
			assert.Error(t, Validate(bad))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Forest Hiker", "forest-hiker"},
		{"The  Snow   Adventurer", "the-snow-adventurer"},
		{"Tour #1 (2026)!", "tour-1-2026"},
		{"  trimmed  ", "trimmed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.5, RoundRating(4.5))
	assert.Equal(t, 4.7, RoundRating(4.66667))
	assert.Equal(t, 4.0, RoundRating(4.04))
	assert.Equal(t, 1.0, RoundRating(1.0))
}
