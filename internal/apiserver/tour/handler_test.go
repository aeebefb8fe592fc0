package tour

import (
	"net/url"
	"testing"

	"tourbook/internal/shared/query"
)

func TestParseLatLng(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLat float64
		wantLng float64
		wantErr bool
	}{
		{"valid", "34.111745,-118.113491", 34.111745, -118.113491, false},
		{"with spaces", " 40.7128 , -74.0060 ", 40.7128, -74.0060, false},
		{"missing comma", "34.111745", 0, 0, true},
		{"not numbers", "north,west", 0, 0, true},
		{"latitude out of range", "91,0", 0, 0, true},
		{"longitude out of range", "0,181", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lng, err := parseLatLng(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLatLng: %v", err)
			}
			if lat != tt.wantLat || lng != tt.wantLng {
				t.Errorf("got (%v, %v), want (%v, %v)", lat, lng, tt.wantLat, tt.wantLng)
			}
		})
	}
}

// 行程字段白名单必须能表达 top-5-cheap 预设的排序和投影
func TestFieldsSupportTopCheapPreset(t *testing.T) {
	values := url.Values{}
	values.Set(query.ParamLimit, "5")
	values.Set(query.ParamSort, "-ratingsAverage,price")
	values.Set(query.ParamFields, "name,price,ratingsAverage,summary,difficulty")

	opts, err := query.Parse(values, Fields)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if opts.Limit != 5 {
		t.Errorf("limit = %d", opts.Limit)
	}
	if len(opts.Sort) != 2 || opts.Sort[0].Key != "ratings_average" || opts.Sort[0].Value != -1 {
		t.Errorf("sort = %v", opts.Sort)
	}
	if len(opts.Projection) != 5 {
		t.Errorf("projection = %v", opts.Projection)
	}
}

func TestFieldsRejectInternalColumns(t *testing.T) {
	// secret 和 guides 不在白名单内，不可被外部过滤
	for _, param := range []string{"secret", "guides", "password_hash"} {
		values := url.Values{}
		values.Set(param, "true")
		if _, err := query.Parse(values, Fields); err == nil {
			t.Errorf("filter by %q unexpectedly allowed", param)
		}
	}
}
