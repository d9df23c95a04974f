package storage

import (
	"errors"
	"testing"
)

func TestNewGCSServerBackend_RequiresCredentials(t *testing.T) {
	if _, err := NewGCSServerBackend(GCSServerConfig{AccessKey: "k", SecretKey: "s"}); !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("missing bucket: expected ErrMissingConfig, got %v", err)
	}
	if _, err := NewGCSServerBackend(GCSServerConfig{Bucket: "b"}); !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("missing keys: expected ErrMissingConfig, got %v", err)
	}
	if _, err := NewGCSServerBackend(GCSServerConfig{Bucket: "b", AccessKey: "k", SecretKey: "s", Endpoint: "://bad"}); !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("bad endpoint: expected ErrMissingConfig, got %v", err)
	}
}

func TestGCSServerLocateParse(t *testing.T) {
	b, err := NewGCSServerBackend(GCSServerConfig{
		Bucket:    "trail-photos",
		AccessKey: "k",
		SecretKey: "s",
	})
	if err != nil {
		t.Fatalf("NewGCSServerBackend: %v", err)
	}

	locator := b.Locate("photo_1.jpg", "photos")
	if locator != "https://trail-photos.storage.googleapis.com/photos/photo_1.jpg" {
		t.Fatalf("unexpected locator %q", locator)
	}

	path, err := b.Parse(locator)
	if err != nil {
		t.Fatalf("Parse(%q): %v", locator, err)
	}
	if path.Folder != "photos" || path.Name != "photo_1.jpg" {
		t.Errorf("round trip gave %+v", path)
	}
}

func TestGCSServerParse_RejectsForeignLocators(t *testing.T) {
	b, err := NewGCSServerBackend(GCSServerConfig{
		Bucket:    "trail-photos",
		AccessKey: "k",
		SecretKey: "s",
	})
	if err != nil {
		t.Fatalf("NewGCSServerBackend: %v", err)
	}

	foreign := []string{
		// Path-style URL for the same bucket belongs to the browser backend.
		"https://storage.googleapis.com/trail-photos/photos/a.jpg",
		"https://other-bucket.storage.googleapis.com/photos/a.jpg",
		"https://firebasestorage.googleapis.com/v0/b/trail-photos/o/photos%2Fa.jpg",
		"https://trail-photos.storage.googleapis.com/",
	}
	for _, locator := range foreign {
		if _, err := b.Parse(locator); err == nil {
			t.Errorf("Parse(%q) should fail", locator)
		}
	}
}
