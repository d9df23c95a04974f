package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newGCSTestBackend(t *testing.T, tokens TokenSource, handler http.HandlerFunc) *GCSBrowserBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := NewGCSBrowserBackend(GCSBrowserConfig{
		ProjectID: "test-project",
		Bucket:    "test-bucket",
		Endpoint:  srv.URL,
		Tokens:    tokens,
		Client:    srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewGCSBrowserBackend: %v", err)
	}
	return b
}

func TestNewGCSBrowserBackend_RequiresProjectAndBucket(t *testing.T) {
	if _, err := NewGCSBrowserBackend(GCSBrowserConfig{Bucket: "b"}); !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("missing project id: expected ErrMissingConfig, got %v", err)
	}
	if _, err := NewGCSBrowserBackend(GCSBrowserConfig{ProjectID: "p"}); !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("missing bucket: expected ErrMissingConfig, got %v", err)
	}
}

func TestGCSUpload(t *testing.T) {
	var gotPath, gotName string
	b := newGCSTestBackend(t, nil, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotName = r.URL.Query().Get("name")
		w.WriteHeader(http.StatusOK)
	})

	locator, err := b.Upload(context.Background(), []byte("img"), "photo_1.jpg", "photos", "image/jpeg")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if gotPath != "/upload/storage/v1/b/test-bucket/o" {
		t.Errorf("unexpected upload path %q", gotPath)
	}
	if gotName != "photos/photo_1.jpg" {
		t.Errorf("unexpected object name %q", gotName)
	}
	if !strings.HasSuffix(locator, "/test-bucket/photos/photo_1.jpg") {
		t.Errorf("unexpected locator %q", locator)
	}

	path, err := b.Parse(locator)
	if err != nil {
		t.Fatalf("Parse(%q): %v", locator, err)
	}
	if path.Folder != "photos" || path.Name != "photo_1.jpg" {
		t.Errorf("round trip gave %+v", path)
	}
}

func TestGCSUpload_Tokenless(t *testing.T) {
	var gotAuth string
	b := newGCSTestBackend(t, nil, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	})

	if _, err := b.Upload(context.Background(), []byte("img"), "a.jpg", "", ""); err != nil {
		t.Fatalf("tokenless upload should work: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("tokenless upload sent Authorization %q", gotAuth)
	}
}

func TestGCSDelete_RequiresToken(t *testing.T) {
	b := newGCSTestBackend(t, nil, func(w http.ResponseWriter, r *http.Request) {
		t.Error("tokenless delete should not reach the backend")
	})

	err := b.Delete(context.Background(), b.Locate("a.jpg", "photos"))
	if !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
}

func TestGCSDelete_WithToken(t *testing.T) {
	var gotMethod, gotAuth string
	b := newGCSTestBackend(t, StaticToken("access-token"), func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	if err := b.Delete(context.Background(), b.Locate("a.jpg", "photos")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %s", gotMethod)
	}
	if gotAuth != "Bearer access-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestGCSDelete_NotFoundIsSuccess(t *testing.T) {
	b := newGCSTestBackend(t, StaticToken("tok"), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if err := b.Delete(context.Background(), b.Locate("gone.jpg", "photos")); err != nil {
		t.Fatalf("delete of missing object should succeed, got %v", err)
	}
}

func TestGCSParse_RejectsAPIPaths(t *testing.T) {
	b := newGCSTestBackend(t, nil, func(w http.ResponseWriter, r *http.Request) {})

	endpoint := strings.TrimSuffix(b.Locate("x", "y"), "/test-bucket/y/x")
	rejected := []string{
		endpoint + "/test-bucket/storage/v1/b/test-bucket",
		endpoint + "/test-bucket/upload/storage/v1/b/test-bucket/o",
		endpoint + "/other-bucket/photos/a.jpg",
		"https://firebasestorage.googleapis.com/v0/b/test-bucket/o/photos%2Fa.jpg",
	}
	for _, locator := range rejected {
		if _, err := b.Parse(locator); err == nil {
			t.Errorf("Parse(%q) should fail", locator)
		}
	}
}

func TestGCSProbe(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, true},
		{http.StatusForbidden, true},
		{http.StatusNotFound, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		b := newGCSTestBackend(t, nil, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/storage/v1/b/test-bucket" {
				t.Errorf("probe hit %q", r.URL.Path)
			}
			w.WriteHeader(tt.status)
		})

		if got := b.Probe(context.Background()); got != tt.want {
			t.Errorf("status %d: Probe() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

// Locators must resolve to exactly one backend even when both use the same
// host in production.
func TestLocatorNamespacesAreDisjoint(t *testing.T) {
	fb, err := NewFirebaseBackend(FirebaseConfig{Bucket: "shared-bucket"})
	if err != nil {
		t.Fatalf("NewFirebaseBackend: %v", err)
	}
	gcs, err := NewGCSBrowserBackend(GCSBrowserConfig{ProjectID: "p", Bucket: "shared-bucket"})
	if err != nil {
		t.Fatalf("NewGCSBrowserBackend: %v", err)
	}

	fbLocator := fb.Locate("a.jpg", "photos")
	gcsLocator := gcs.Locate("a.jpg", "photos")

	if _, err := gcs.Parse(fbLocator); err == nil {
		t.Errorf("gcs backend claimed firebase locator %q", fbLocator)
	}
	if _, err := fb.Parse(gcsLocator); err == nil {
		t.Errorf("firebase backend claimed gcs locator %q", gcsLocator)
	}
}
