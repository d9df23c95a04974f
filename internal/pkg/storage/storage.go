package storage

import "context"

// Provider identifies one interchangeable object-storage backend.
type Provider string

const (
	// ProviderFirebase is the managed backend (Firebase Storage REST surface).
	ProviderFirebase Provider = "firebase"
	// ProviderGCSBrowser is the GCS JSON API backend (tokenless upload capable).
	ProviderGCSBrowser Provider = "gcs-browser"
	// ProviderGCSServer is the GCS backend driven through the S3-interoperable
	// XML endpoint with HMAC credentials.
	ProviderGCSServer Provider = "gcs-server"
)

// Valid reports whether p is a recognized provider value.
func (p Provider) Valid() bool {
	switch p {
	case ProviderFirebase, ProviderGCSBrowser, ProviderGCSServer:
		return true
	}
	return false
}

// DefaultFolder is the folder objects land in when the caller passes none.
const DefaultFolder = "photos"

// ObjectPath is the (folder, name) pair a locator resolves back to.
type ObjectPath struct {
	Folder string
	Name   string
}

func (p ObjectPath) String() string {
	return p.Folder + "/" + p.Name
}

// Backend is the uniform contract every object-store adapter implements.
//
// Upload must make the object publicly readable as part of the call and
// return a locator that dereferences via plain HTTP GET. Delete is
// idempotent: a backend reporting "not found" is success. Exists never
// returns an error; transport failures read as false. Locate and Parse are
// pure and must use mutually disjoint URL namespaces across backends.
// Probe is a read-only reachability check that must not mutate state.
type Backend interface {
	Provider() Provider
	Upload(ctx context.Context, data []byte, name, folder, contentType string) (string, error)
	Delete(ctx context.Context, locator string) error
	Exists(ctx context.Context, name, folder string) bool
	Locate(name, folder string) string
	Parse(locator string) (ObjectPath, error)
	Probe(ctx context.Context) bool
}

// TokenSource supplies a bearer credential for backend calls. A source may
// legitimately return an empty token (public-rules bucket).
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource with a fixed value. The empty string means
// "no credential".
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

// tokenOf reads a token from an optional source.
func tokenOf(ctx context.Context, src TokenSource) string {
	if src == nil {
		return ""
	}
	tok, err := src.Token(ctx)
	if err != nil {
		return ""
	}
	return tok
}
