package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// GCSServerConfig configures the server-credential GCS backend.
type GCSServerConfig struct {
	Bucket    string
	AccessKey string // HMAC interoperability key
	SecretKey string
	Endpoint  string // override for tests; defaults to the Google endpoint
}

// GCSServerBackend drives Google Cloud Storage through its S3-interoperable
// XML endpoint with HMAC credentials. Objects get a public-read ACL at
// upload so the returned locator dereferences via plain GET.
type GCSServerBackend struct {
	client     *s3.Client
	bucket     string
	publicHost string // <bucket>.<endpoint host>
	scheme     string
}

// NewGCSServerBackend validates configuration and builds the S3-compatible
// client against the GCS endpoint.
func NewGCSServerBackend(cfg GCSServerConfig) (*GCSServerBackend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: gcs bucket", ErrMissingConfig)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: gcs hmac access key and secret", ErrMissingConfig)
	}
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = gcsDefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: gcs endpoint %q is not a valid URL", ErrMissingConfig, endpoint)
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               endpoint,
			HostnameImmutable: true,
			SigningRegion:     "auto",
		}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load gcs interop config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &GCSServerBackend{
		client:     client,
		bucket:     cfg.Bucket,
		publicHost: cfg.Bucket + "." + u.Host,
		scheme:     u.Scheme,
	}, nil
}

func (b *GCSServerBackend) Provider() Provider { return ProviderGCSServer }

// Upload puts the object with a public-read ACL and returns its
// virtual-hosted public URL.
func (b *GCSServerBackend) Upload(ctx context.Context, data []byte, name, folder, contentType string) (string, error) {
	if folder == "" {
		folder = DefaultFolder
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := folder + "/" + name

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", newUploadError(ProviderGCSServer, statusOf(err), err)
	}
	return b.Locate(name, folder), nil
}

// Delete removes the object behind the locator. Missing objects are success;
// the XML API already answers deletes of absent keys with 204.
func (b *GCSServerBackend) Delete(ctx context.Context, locator string) error {
	path, err := b.Parse(locator)
	if err != nil {
		return err
	}

	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path.String()),
	})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return &DeleteError{Provider: ProviderGCSServer, Locator: locator, Err: err}
	}
	return nil
}

// Exists heads the object; any failure reads as false.
func (b *GCSServerBackend) Exists(ctx context.Context, name, folder string) bool {
	if folder == "" {
		folder = DefaultFolder
	}
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(folder + "/" + name),
	})
	return err == nil
}

// Locate builds the virtual-hosted public URL without any I/O.
func (b *GCSServerBackend) Locate(name, folder string) string {
	if folder == "" {
		folder = DefaultFolder
	}
	return fmt.Sprintf("%s://%s/%s", b.scheme, b.publicHost, escapeSegments(folder+"/"+name))
}

// Parse inverts Locate; locators from other backends fail with
// InvalidLocatorError.
func (b *GCSServerBackend) Parse(locator string) (ObjectPath, error) {
	prefix := fmt.Sprintf("%s://%s/", b.scheme, b.publicHost)
	rest, ok := strings.CutPrefix(locator, prefix)
	if !ok || rest == "" {
		return ObjectPath{}, &InvalidLocatorError{Provider: ProviderGCSServer, Locator: locator}
	}
	path, err := unescapeSegments(rest)
	if err != nil {
		return ObjectPath{}, &InvalidLocatorError{Provider: ProviderGCSServer, Locator: locator}
	}
	i := strings.LastIndexByte(path, '/')
	if i <= 0 || i == len(path)-1 {
		return ObjectPath{}, &InvalidLocatorError{Provider: ProviderGCSServer, Locator: locator}
	}
	return ObjectPath{Folder: path[:i], Name: path[i+1:]}, nil
}

// Probe heads the bucket. Permission denied still proves reachability.
func (b *GCSServerBackend) Probe(ctx context.Context) bool {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err == nil {
		return true
	}
	return statusOf(err) == 403
}

// statusOf digs the HTTP status out of an SDK error chain, 0 if absent.
func statusOf(err error) int {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var ae smithy.APIError
	if errors.As(err, &ae) && ae.ErrorCode() == "NotFound" {
		return true
	}
	return statusOf(err) == 404
}
