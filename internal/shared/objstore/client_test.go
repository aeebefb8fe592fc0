package objstore

import "testing"

func TestTourCoverKey(t *testing.T) {
	tests := []struct {
		name     string
		tourID   string
		filename string
		want     string
	}{
		{"jpg", "tour-abc123", "photo.jpg", "tours/tour-abc123/cover.jpg"},
		{"png", "tour-abc123", "IMG_001.PNG", "tours/tour-abc123/cover.png"},
		{"webp", "tour-abc123", "cover.webp", "tours/tour-abc123/cover.webp"},
		{"no extension", "tour-abc123", "upload", "tours/tour-abc123/cover.jpg"},
		{"unknown extension", "tour-abc123", "file.bmp", "tours/tour-abc123/cover.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TourCoverKey(tt.tourID, tt.filename); got != tt.want {
				t.Errorf("TourCoverKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCoverContentType(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"tours/t/cover.jpg", "image/jpeg"},
		{"tours/t/cover.png", "image/png"},
		{"tours/t/cover.webp", "image/webp"},
		{"tours/t/cover", "image/jpeg"},
	}
	for _, tt := range tests {
		if got := CoverContentType(tt.key); got != tt.want {
			t.Errorf("CoverContentType(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
