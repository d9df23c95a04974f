package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const gcsDefaultEndpoint = "https://storage.googleapis.com"

// GCSBrowserConfig configures the REST-based GCS backend.
type GCSBrowserConfig struct {
	ProjectID string
	Bucket    string
	Endpoint  string       // override for tests; defaults to the Google endpoint
	Tokens    TokenSource  // optional for upload; required for delete
	Client    *http.Client // optional
}

// GCSBrowserBackend drives Google Cloud Storage through its JSON API, the
// way a browser client without the server SDK would. Uploads can run
// tokenless against a public-write bucket policy; Delete cannot, which is a
// known asymmetry of this variant.
type GCSBrowserBackend struct {
	projectID string
	bucket    string
	endpoint  string
	tokens    TokenSource
	client    *http.Client
}

// NewGCSBrowserBackend validates configuration and builds the backend.
func NewGCSBrowserBackend(cfg GCSBrowserConfig) (*GCSBrowserBackend, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("%w: gcs project id", ErrMissingConfig)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: gcs bucket", ErrMissingConfig)
	}
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = gcsDefaultEndpoint
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GCSBrowserBackend{
		projectID: cfg.ProjectID,
		bucket:    cfg.Bucket,
		endpoint:  endpoint,
		tokens:    cfg.Tokens,
		client:    client,
	}, nil
}

func (b *GCSBrowserBackend) Provider() Provider { return ProviderGCSBrowser }

// metadataURL is the JSON API URL for object metadata and deletion.
func (b *GCSBrowserBackend) metadataURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/b/%s/o/%s", b.endpoint, b.bucket, url.QueryEscape(path))
}

// escapeSegments percent-encodes each path element, keeping the separators.
func escapeSegments(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func unescapeSegments(path string) (string, error) {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		u, err := url.PathUnescape(p)
		if err != nil {
			return "", err
		}
		parts[i] = u
	}
	return strings.Join(parts, "/"), nil
}

// Upload sends the object via the media upload endpoint and returns its
// public URL. Public readability comes from the bucket policy, not a
// per-object ACL step.
func (b *GCSBrowserBackend) Upload(ctx context.Context, data []byte, name, folder, contentType string) (string, error) {
	if folder == "" {
		folder = DefaultFolder
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	path := folder + "/" + name

	uploadURL := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		b.endpoint, b.bucket, url.QueryEscape(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", &UploadError{Provider: ProviderGCSBrowser, Cause: "failed to build upload request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	if tok := tokenOf(ctx, b.tokens); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", &UploadError{Provider: ProviderGCSBrowser, Cause: "could not reach google cloud storage", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", newUploadError(ProviderGCSBrowser, resp.StatusCode, fmt.Errorf("response body: %s", body))
	}
	return b.Locate(name, folder), nil
}

// Delete removes the object behind the locator. This variant needs a bearer
// credential: without one it fails with ErrAuthenticationRequired rather
// than attempting a request the backend would reject.
func (b *GCSBrowserBackend) Delete(ctx context.Context, locator string) error {
	path, err := b.Parse(locator)
	if err != nil {
		return err
	}

	tok := tokenOf(ctx, b.tokens)
	if tok == "" {
		return fmt.Errorf("gcs delete of %s: %w", locator, ErrAuthenticationRequired)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.metadataURL(path.String()), nil)
	if err != nil {
		return &DeleteError{Provider: ProviderGCSBrowser, Locator: locator, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := b.client.Do(req)
	if err != nil {
		return &DeleteError{Provider: ProviderGCSBrowser, Locator: locator, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &DeleteError{
			Provider: ProviderGCSBrowser,
			Locator:  locator,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}
	return nil
}

// Exists checks object metadata; any failure reads as false.
func (b *GCSBrowserBackend) Exists(ctx context.Context, name, folder string) bool {
	if folder == "" {
		folder = DefaultFolder
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.metadataURL(folder+"/"+name), nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Locate builds the public object URL without any I/O.
func (b *GCSBrowserBackend) Locate(name, folder string) string {
	if folder == "" {
		folder = DefaultFolder
	}
	return fmt.Sprintf("%s/%s/%s", b.endpoint, b.bucket, escapeSegments(folder+"/"+name))
}

// Parse inverts Locate; locators from other backends fail with
// InvalidLocatorError.
func (b *GCSBrowserBackend) Parse(locator string) (ObjectPath, error) {
	prefix := fmt.Sprintf("%s/%s/", b.endpoint, b.bucket)
	rest, ok := strings.CutPrefix(locator, prefix)
	if !ok || rest == "" {
		return ObjectPath{}, &InvalidLocatorError{Provider: ProviderGCSBrowser, Locator: locator}
	}
	// The JSON API surface lives under the same host; those URLs are not
	// object locators.
	if strings.HasPrefix(rest, "storage/v1/") || strings.HasPrefix(rest, "upload/") {
		return ObjectPath{}, &InvalidLocatorError{Provider: ProviderGCSBrowser, Locator: locator}
	}
	path, err := unescapeSegments(rest)
	if err != nil {
		return ObjectPath{}, &InvalidLocatorError{Provider: ProviderGCSBrowser, Locator: locator}
	}
	i := strings.LastIndexByte(path, '/')
	if i <= 0 || i == len(path)-1 {
		return ObjectPath{}, &InvalidLocatorError{Provider: ProviderGCSBrowser, Locator: locator}
	}
	return ObjectPath{Folder: path[:i], Name: path[i+1:]}, nil
}

// Probe lists bucket metadata. Permission denied still proves network
// reachability, so 403 counts as reachable.
func (b *GCSBrowserBackend) Probe(ctx context.Context) bool {
	probeURL := fmt.Sprintf("%s/storage/v1/b/%s", b.endpoint, b.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusForbidden
}
