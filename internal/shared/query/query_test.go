package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var tourSpec = FieldSpec{
	"name":           {Column: "name", Kind: KindString},
	"difficulty":     {Column: "difficulty", Kind: KindString},
	"duration":       {Column: "duration", Kind: KindNumber},
	"price":          {Column: "price", Kind: KindNumber},
	"ratingsAverage": {Column: "ratings_average", Kind: KindNumber},
	"createdAt":      {Column: "created_at", Kind: KindString},
}

func mustParse(t *testing.T, rawQuery string) *Options {
	t.Helper()
	values, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	opts, err := Parse(values, tourSpec)
	require.NoError(t, err)
	return opts
}

func TestParseEqualityFilter(t *testing.T) {
	opts := mustParse(t, "difficulty=easy&duration=5")

	assert.Equal(t, bson.D{
		{Key: "difficulty", Value: "easy"},
		{Key: "duration", Value: float64(5)},
	}, opts.Filter)
}

func TestParseComparisonOperators(t *testing.T) {
	opts := mustParse(t, "price[gte]=100&price[lte]=500&ratingsAverage[gt]=4")

	assert.Equal(t, bson.D{
		{Key: "price", Value: bson.D{
			{Key: "$gte", Value: float64(100)},
			{Key: "$lte", Value: float64(500)},
		}},
		{Key: "ratings_average", Value: bson.D{{Key: "$gt", Value: float64(4)}}},
	}, opts.Filter)
}

func TestParseIndependentOfParameterOrder(t *testing.T) {
	a := mustParse(t, "difficulty=easy&price[gte]=100&sort=-price&limit=10&page=2")
	b := mustParse(t, "page=2&sort=-price&price[gte]=100&limit=10&difficulty=easy")

	assert.Equal(t, a, b)
}

func TestParseRejectsUnknownField(t *testing.T) {
	values := url.Values{"passwordHash": {"x"}}
	_, err := Parse(values, tourSpec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot filter by")
}

func TestParseRejectsUnknownOperator(t *testing.T) {
	values := url.Values{"price[ne]": {"10"}}
	_, err := Parse(values, tourSpec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operator")
}

func TestParseRejectsBadNumber(t *testing.T) {
	values := url.Values{"price[gte]": {"cheap"}}
	_, err := Parse(values, tourSpec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a number")
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bson.D
	}{
		{
			name: "default sort is created_at descending",
			raw:  "",
			want: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			name: "single ascending",
			raw:  "sort=price",
			want: bson.D{{Key: "price", Value: 1}},
		},
		{
			name: "multi field with descending prefix keeps priority order",
			raw:  "sort=-ratingsAverage,price",
			want: bson.D{{Key: "ratings_average", Value: -1}, {Key: "price", Value: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := mustParse(t, tt.raw)
			assert.Equal(t, tt.want, opts.Sort)
		})
	}
}

func TestParseSortUnknownField(t *testing.T) {
	values := url.Values{"sort": {"secretField"}}
	_, err := Parse(values, tourSpec)
	require.Error(t, err)
}

func TestParseProjection(t *testing.T) {
	opts := mustParse(t, "fields=name,price,ratingsAverage")

	assert.Equal(t, bson.D{
		{Key: "name", Value: 1},
		{Key: "price", Value: 1},
		{Key: "ratings_average", Value: 1},
	}, opts.Projection)

	assert.Nil(t, mustParse(t, "").Projection)
}

func TestParsePagination(t *testing.T) {
	opts := mustParse(t, "page=2&limit=10")
	assert.Equal(t, int64(10), opts.Skip)
	assert.Equal(t, int64(10), opts.Limit)
	assert.True(t, opts.PageSet)

	opts = mustParse(t, "")
	assert.Equal(t, int64(0), opts.Skip)
	assert.Equal(t, int64(DefaultLimit), opts.Limit)
	assert.False(t, opts.PageSet)
}

func TestParsePaginationRejectsInvalid(t *testing.T) {
	for _, raw := range []string{
		"page=0", "page=abc", "limit=0", "limit=-5",
		// 超出上限的取值会让 skip 溢出，一律拒绝
		"page=9223372036854775807&limit=9223372036854775807",
		"page=1000001", "limit=1001",
	} {
		values, err := url.ParseQuery(raw)
		require.NoError(t, err)
		_, err = Parse(values, tourSpec)
		assert.Error(t, err, raw)
	}
}
