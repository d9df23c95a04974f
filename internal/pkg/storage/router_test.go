package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubBackend is an in-memory Backend for router tests.
type stubBackend struct {
	provider  Provider
	reachable bool
	uploadErr error
	uploads   []string
	deletes   []string
}

func (s *stubBackend) Provider() Provider { return s.provider }

func (s *stubBackend) Upload(ctx context.Context, data []byte, name, folder, contentType string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads = append(s.uploads, name)
	return s.Locate(name, folder), nil
}

func (s *stubBackend) Delete(ctx context.Context, locator string) error {
	s.deletes = append(s.deletes, locator)
	return nil
}

func (s *stubBackend) Exists(ctx context.Context, name, folder string) bool { return false }

func (s *stubBackend) Locate(name, folder string) string {
	if folder == "" {
		folder = DefaultFolder
	}
	return "stub://" + string(s.provider) + "/" + folder + "/" + name
}

func (s *stubBackend) Parse(locator string) (ObjectPath, error) {
	prefix := "stub://" + string(s.provider) + "/"
	rest, ok := strings.CutPrefix(locator, prefix)
	if !ok {
		return ObjectPath{}, &InvalidLocatorError{Provider: s.provider, Locator: locator}
	}
	i := strings.LastIndexByte(rest, '/')
	if i <= 0 {
		return ObjectPath{}, &InvalidLocatorError{Provider: s.provider, Locator: locator}
	}
	return ObjectPath{Folder: rest[:i], Name: rest[i+1:]}, nil
}

func (s *stubBackend) Probe(ctx context.Context) bool { return s.reachable }

func TestRouterDefaultsToFirebase(t *testing.T) {
	r := NewRouter(
		&stubBackend{provider: ProviderGCSBrowser},
		&stubBackend{provider: ProviderFirebase},
	)
	if got := r.Active(); got != ProviderFirebase {
		t.Fatalf("Active() = %s, want %s", got, ProviderFirebase)
	}
}

func TestRouterSetProvider(t *testing.T) {
	r := NewRouter(
		&stubBackend{provider: ProviderFirebase},
		&stubBackend{provider: ProviderGCSBrowser},
	)

	if err := r.SetProvider(ProviderGCSBrowser); err != nil {
		t.Fatalf("SetProvider: %v", err)
	}
	if got := r.Active(); got != ProviderGCSBrowser {
		t.Fatalf("Active() = %s after SetProvider", got)
	}

	if err := r.SetProvider("dropbox"); !errors.Is(err, ErrInvalidProvider) {
		t.Fatalf("unknown provider: expected ErrInvalidProvider, got %v", err)
	}
	if err := r.SetProvider(ProviderGCSServer); !errors.Is(err, ErrInvalidProvider) {
		t.Fatalf("unregistered provider: expected ErrInvalidProvider, got %v", err)
	}
	if got := r.Active(); got != ProviderGCSBrowser {
		t.Fatalf("failed SetProvider must not change active provider, got %s", got)
	}
}

func TestSelectBestProvider(t *testing.T) {
	tests := []struct {
		name     string
		firebase bool
		gcs      bool
		want     Provider
	}{
		{"firebase wins when reachable", true, true, ProviderFirebase},
		{"gcs when firebase is down", false, true, ProviderGCSBrowser},
		{"firebase fallback when all probes fail", false, false, ProviderFirebase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(
				&stubBackend{provider: ProviderFirebase, reachable: tt.firebase},
				&stubBackend{provider: ProviderGCSBrowser, reachable: tt.gcs},
			)

			got := r.SelectBestProvider(context.Background())
			if got != tt.want {
				t.Fatalf("SelectBestProvider() = %s, want %s", got, tt.want)
			}
			if r.Active() != tt.want {
				t.Fatalf("Active() = %s after selection", r.Active())
			}
		})
	}
}

func TestSelectBestProvider_Deterministic(t *testing.T) {
	r := NewRouter(
		&stubBackend{provider: ProviderFirebase, reachable: true},
		&stubBackend{provider: ProviderGCSBrowser, reachable: true},
	)

	for i := 0; i < 10; i++ {
		if got := r.SelectBestProvider(context.Background()); got != ProviderFirebase {
			t.Fatalf("run %d: SelectBestProvider() = %s", i, got)
		}
	}
}

func TestRouterUploadDispatchesToActive(t *testing.T) {
	fb := &stubBackend{provider: ProviderFirebase}
	gcs := &stubBackend{provider: ProviderGCSBrowser}
	r := NewRouter(fb, gcs)

	if _, err := r.Upload(context.Background(), []byte("x"), "a.jpg", "", ""); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(fb.uploads) != 1 || len(gcs.uploads) != 0 {
		t.Fatalf("upload went to the wrong backend: fb=%d gcs=%d", len(fb.uploads), len(gcs.uploads))
	}

	if err := r.SetProvider(ProviderGCSBrowser); err != nil {
		t.Fatalf("SetProvider: %v", err)
	}
	if _, err := r.Upload(context.Background(), []byte("x"), "b.jpg", "", ""); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(gcs.uploads) != 1 {
		t.Fatalf("upload did not follow the provider switch")
	}
}

func TestRouterDeleteResolvesOwningBackend(t *testing.T) {
	fb := &stubBackend{provider: ProviderFirebase}
	gcs := &stubBackend{provider: ProviderGCSBrowser}
	r := NewRouter(fb, gcs)

	// Active is firebase, but the locator belongs to gcs.
	locator := gcs.Locate("old.jpg", "photos")
	if err := r.Delete(context.Background(), locator); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(gcs.deletes) != 1 || len(fb.deletes) != 0 {
		t.Fatalf("delete went to the wrong backend: fb=%d gcs=%d", len(fb.deletes), len(gcs.deletes))
	}
}

func TestRouterDelete_UnknownLocator(t *testing.T) {
	r := NewRouter(&stubBackend{provider: ProviderFirebase})

	var locErr *InvalidLocatorError
	err := r.Delete(context.Background(), "https://unrelated.example/object")
	if !errors.As(err, &locErr) {
		t.Fatalf("expected *InvalidLocatorError, got %v", err)
	}
}

func TestRouterProbeAll(t *testing.T) {
	r := NewRouter(
		&stubBackend{provider: ProviderFirebase, reachable: true},
		&stubBackend{provider: ProviderGCSBrowser, reachable: false},
	)

	got := r.ProbeAll(context.Background())
	if !got[ProviderFirebase] || got[ProviderGCSBrowser] {
		t.Fatalf("ProbeAll() = %v", got)
	}
	if r.Active() != ProviderFirebase {
		t.Fatalf("ProbeAll must not change the active provider")
	}
}
