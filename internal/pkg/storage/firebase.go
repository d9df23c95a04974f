package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const firebaseDefaultEndpoint = "https://firebasestorage.googleapis.com"

// probeObject is a permission-scoped object name used for reachability
// checks. It normally does not exist; a clean 404 still proves the backend
// answered.
const probeObject = "connection-probe"

// FirebaseConfig configures the managed Firebase Storage backend.
type FirebaseConfig struct {
	Bucket   string
	Endpoint string       // override for tests; defaults to the Google endpoint
	Tokens   TokenSource  // optional; public-rules buckets work tokenless
	Client   *http.Client // optional
}

// FirebaseBackend stores objects through the Firebase Storage REST surface.
// No caller-held credential is required when the bucket rules allow public
// writes; the token source then simply yields nothing.
type FirebaseBackend struct {
	bucket   string
	endpoint string
	tokens   TokenSource
	client   *http.Client
}

// NewFirebaseBackend validates configuration and builds the backend.
// Missing required settings fail here, not at first use.
func NewFirebaseBackend(cfg FirebaseConfig) (*FirebaseBackend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: firebase storage bucket", ErrMissingConfig)
	}
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = firebaseDefaultEndpoint
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FirebaseBackend{
		bucket:   cfg.Bucket,
		endpoint: endpoint,
		tokens:   cfg.Tokens,
		client:   client,
	}, nil
}

func (b *FirebaseBackend) Provider() Provider { return ProviderFirebase }

// objectURL is the metadata URL for an object. Firebase encodes the whole
// object path as a single URL segment.
func (b *FirebaseBackend) objectURL(path string) string {
	return fmt.Sprintf("%s/v0/b/%s/o/%s", b.endpoint, b.bucket, url.PathEscape(path))
}

// Upload sends the object through the simple-upload endpoint and returns its
// download locator. The uploaded object is publicly readable through that
// locator (bucket read rules plus the embedded download token).
func (b *FirebaseBackend) Upload(ctx context.Context, data []byte, name, folder, contentType string) (string, error) {
	if folder == "" {
		folder = DefaultFolder
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	path := folder + "/" + name

	uploadURL := fmt.Sprintf("%s/v0/b/%s/o?name=%s", b.endpoint, b.bucket, url.QueryEscape(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", &UploadError{Provider: ProviderFirebase, Cause: "failed to build upload request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Goog-Meta-Uploaded-At", time.Now().UTC().Format(time.RFC3339))
	req.Header.Set("X-Goog-Meta-Original-Name", name)
	if tok := tokenOf(ctx, b.tokens); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", &UploadError{Provider: ProviderFirebase, Cause: "could not reach firebase storage", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", newUploadError(ProviderFirebase, resp.StatusCode, fmt.Errorf("response body: %s", body))
	}

	// The upload response carries the download token that makes the object
	// dereferenceable without auth.
	var meta struct {
		DownloadTokens string `json:"downloadTokens"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&meta)

	locator := b.objectURL(path) + "?alt=media"
	if meta.DownloadTokens != "" {
		locator += "&token=" + meta.DownloadTokens
	}
	return locator, nil
}

// Delete removes the object the locator points at. A backend 404 is success:
// the object may already be gone from a prior partial attempt.
func (b *FirebaseBackend) Delete(ctx context.Context, locator string) error {
	path, err := b.Parse(locator)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.objectURL(path.String()), nil)
	if err != nil {
		return &DeleteError{Provider: ProviderFirebase, Locator: locator, Err: err}
	}
	if tok := tokenOf(ctx, b.tokens); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return &DeleteError{Provider: ProviderFirebase, Locator: locator, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &DeleteError{
			Provider: ProviderFirebase,
			Locator:  locator,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}
	return nil
}

// Exists checks object metadata. Transport failures read as false.
func (b *FirebaseBackend) Exists(ctx context.Context, name, folder string) bool {
	if folder == "" {
		folder = DefaultFolder
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.objectURL(folder+"/"+name), nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Locate builds the public locator for an object without any I/O. The
// download-token query parameter is absent; buckets with public read rules
// serve the object regardless.
func (b *FirebaseBackend) Locate(name, folder string) string {
	if folder == "" {
		folder = DefaultFolder
	}
	return b.objectURL(folder+"/"+name) + "?alt=media"
}

// Parse inverts Locate. Locators from other backends fail with
// InvalidLocatorError: only this backend's host/path pattern matches.
func (b *FirebaseBackend) Parse(locator string) (ObjectPath, error) {
	prefix := fmt.Sprintf("%s/v0/b/%s/o/", b.endpoint, b.bucket)
	rest, ok := strings.CutPrefix(locator, prefix)
	if !ok {
		return ObjectPath{}, &InvalidLocatorError{Provider: ProviderFirebase, Locator: locator}
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}
	path, err := url.PathUnescape(rest)
	if err != nil {
		return ObjectPath{}, &InvalidLocatorError{Provider: ProviderFirebase, Locator: locator}
	}
	i := strings.LastIndexByte(path, '/')
	if i <= 0 || i == len(path)-1 {
		return ObjectPath{}, &InvalidLocatorError{Provider: ProviderFirebase, Locator: locator}
	}
	return ObjectPath{Folder: path[:i], Name: path[i+1:]}, nil
}

// Probe checks reachability with a read-only metadata call. A 404 for the
// probe object proves the backend answered and is treated as reachable.
func (b *FirebaseBackend) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.objectURL(probeObject), nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound
}
