package model

import "time"

// TourDifficulty 行程难度
type TourDifficulty string

const (
	DifficultyEasy      TourDifficulty = "easy"
	DifficultyMedium    TourDifficulty = "medium"
	DifficultyDifficult TourDifficulty = "difficult"
)

// GeoPoint GeoJSON Point，coordinates 为 [lng, lat]
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Day         int       `json:"day,omitempty" bson:"day,omitempty"`
}

// Tour 行程
//
// Secret 为 true 的行程被集合默认约束排除在所有常规读取之外。
// Slug 由名称派生，名称变化时重新生成。
type Tour struct {
	ID              string         `json:"id" bson:"_id" validate:"required"`
	Name            string         `json:"name" bson:"name" validate:"required,min=10,max=40"`
	Slug            string         `json:"slug" bson:"slug"`
	Duration        int            `json:"duration" bson:"duration" validate:"required,min=1"`
	MaxGroupSize    int            `json:"maxGroupSize" bson:"max_group_size" validate:"required,min=1"`
	Difficulty      TourDifficulty `json:"difficulty" bson:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64        `json:"ratingsAverage" bson:"ratings_average" validate:"min=1,max=5"`
	RatingsQuantity int            `json:"ratingsQuantity" bson:"ratings_quantity" validate:"min=0"`
	Price           float64        `json:"price" bson:"price" validate:"required,gt=0"`
	PriceDiscount   float64        `json:"priceDiscount,omitempty" bson:"price_discount,omitempty" validate:"omitempty,gt=0,ltfield=Price"`
	Summary         string         `json:"summary" bson:"summary" validate:"required"`
	Description     string         `json:"description,omitempty" bson:"description,omitempty"`
	ImageCover      string         `json:"imageCover" bson:"image_cover" validate:"required"`
	Images          []string       `json:"images,omitempty" bson:"images,omitempty"`
	StartDates      []time.Time    `json:"startDates,omitempty" bson:"start_dates,omitempty"`
	Secret          bool           `json:"secret,omitempty" bson:"secret"`
	StartLocation   *GeoPoint      `json:"startLocation,omitempty" bson:"start_location,omitempty"`
	Locations       []GeoPoint     `json:"locations,omitempty" bson:"locations,omitempty"`
	Guides          []string       `json:"guides,omitempty" bson:"guides,omitempty"`
	GuideProfiles   []*User        `json:"guideProfiles,omitempty" bson:"-"`
	CreatedAt       time.Time      `json:"createdAt" bson:"created_at"`
}

func (t *Tour) GetID() string   { return t.ID }
func (t *Tour) SetID(id string) { t.ID = id }

func (t *Tour) BeforeSave() {
	t.Slug = Slugify(t.Name)
	if t.RatingsAverage == 0 {
		t.RatingsAverage = 4.5
	}
	t.RatingsAverage = RoundRating(t.RatingsAverage)
	if t.StartLocation != nil && t.StartLocation.Type == "" {
		t.StartLocation.Type = "Point"
	}
	for i := range t.Locations {
		if t.Locations[i].Type == "" {
			t.Locations[i].Type = "Point"
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
}

// TourStats 按难度聚合的行程统计
type TourStats struct {
	Difficulty TourDifficulty `json:"difficulty" bson:"_id"`
	NumTours   int            `json:"numTours" bson:"num_tours"`
	NumRatings int            `json:"numRatings" bson:"num_ratings"`
	AvgRating  float64        `json:"avgRating" bson:"avg_rating"`
	AvgPrice   float64        `json:"avgPrice" bson:"avg_price"`
	MinPrice   float64        `json:"minPrice" bson:"min_price"`
	MaxPrice   float64        `json:"maxPrice" bson:"max_price"`
}
