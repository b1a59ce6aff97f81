package photos

import (
	"testing"
	"time"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"Summer Dress.JPG":      "summer-dress",
		"  --Weird__Name!!.png": "weird-name",
		"żółta sukienka.jpeg":   "ta-sukienka",
		"archive.tar.gz":        "archive-tar",
		"....":                  "image",
		"":                      "image",
		"no-extension":          "no-extension",
		"photo.backup.PNG.jpg":  "photo-backup-png",
	}
	for in, want := range tests {
		if got := SanitizeName(in); got != want {
			t.Fatalf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtension(t *testing.T) {
	if got := Extension("SHIRT.PNG"); got != ".png" {
		t.Fatalf("expected .png, got %s", got)
	}
	if got := Extension("photo.png.jpeg"); got != ".png" {
		t.Fatalf("names mentioning .png anywhere map to .png, got %s", got)
	}
	if got := Extension("photo.webp"); got != ".jpg" {
		t.Fatalf("expected .jpg fallback, got %s", got)
	}
}

func TestBuildKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	tests := []struct {
		name    string
		base    string
		ordinal int
		file    string
		wantKey string
		wantURL string
	}{
		{
			name:    "png",
			base:    "https://cdn.example.com/photos",
			ordinal: 4,
			file:    "Red Shirt.png",
			wantKey: "1700000000123-4-red-shirt.png",
			wantURL: "https://cdn.example.com/photos/1700000000123-4-red-shirt.png",
		},
		{
			name:    "fallback name",
			base:    "https://cdn.example.com/photos",
			ordinal: 0,
			file:    "!!!",
			wantKey: "1700000000123-0-image.jpg",
			wantURL: "https://cdn.example.com/photos/1700000000123-0-image.jpg",
		},
		{
			name:    "base with trailing slash",
			base:    "https://store.example/images/",
			ordinal: 0,
			file:    "My Photo!.jpg",
			wantKey: "1700000000123-0-my-photo.jpg",
			wantURL: "https://store.example/images/1700000000123-0-my-photo.jpg",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key := BuildKey(now, tc.ordinal, tc.file)
			if key != tc.wantKey {
				t.Fatalf("BuildKey = %q, want %q", key, tc.wantKey)
			}
			if got := NewResolver(tc.base).Resolve(key); got != tc.wantURL {
				t.Fatalf("Resolve = %q, want %q", got, tc.wantURL)
			}
		})
	}
}

func TestKeyFromURL(t *testing.T) {
	tests := map[string]string{
		"https://cdn.example.com/photos/1700-0-a.jpg":         "1700-0-a.jpg",
		"https://cdn.example.com/photos/1700-0-a.jpg?sv=2020": "1700-0-a.jpg",
		"https://cdn.example.com/photos/1700-0-a.jpg#frag":    "1700-0-a.jpg",
		"https://cdn.example.com/photos/":                     "photos",
		"1700-0-a.jpg":                                        "1700-0-a.jpg",
		"":                                                    "",
		"?x=1":                                                "",
	}
	for in, want := range tests {
		if got := KeyFromURL(in); got != want {
			t.Fatalf("KeyFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
