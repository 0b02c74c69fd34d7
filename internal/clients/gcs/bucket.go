package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// ErrNotConfigured signals a missing bucket configuration, distinct from a
// missing object, so callers can tell "never set up" from "not found".
var ErrNotConfigured = errors.New("object storage is not configured")

// ErrObjectNotFound signals that the key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

type SignedUpload struct {
	URL       string
	ExpiresAt time.Time
}

type BucketService interface {
	// SignedUploadURL returns a time-limited V4 PUT URL for key. It has no
	// side effect on any asset record.
	SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (SignedUpload, error)
	// SignedDownloadURL returns a time-limited GET URL. displayFilename, when
	// set, drives the Content-Disposition of the download.
	SignedDownloadURL(ctx context.Context, key, displayFilename string, ttl time.Duration) (string, error)
	// ObjectExists confirms an upload actually landed.
	ObjectExists(ctx context.Context, key string) (bool, error)
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	// Ping probes bucket reachability for health reporting.
	Ping(ctx context.Context) error
}

type bucketService struct {
	log        *logger.Logger
	client     *storage.Client
	bucketName string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	bucketName := strings.TrimSpace(os.Getenv("GCS_BUCKET_NAME"))
	if bucketName == "" {
		serviceLog.Warn("GCS_BUCKET_NAME not set, storage operations will fail with a configuration error")
	}

	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &bucketService{
		log:        serviceLog,
		client:     client,
		bucketName: bucketName,
	}, nil
}

func (bs *bucketService) bucket() (*storage.BucketHandle, error) {
	if bs.bucketName == "" {
		return nil, ErrNotConfigured
	}
	return bs.client.Bucket(bs.bucketName), nil
}

func (bs *bucketService) SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (SignedUpload, error) {
	b, err := bs.bucket()
	if err != nil {
		return SignedUpload{}, err
	}
	expires := time.Now().Add(ttl)
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "PUT",
		Expires: expires,
	}
	if ct := strings.TrimSpace(contentType); ct != "" {
		opts.ContentType = ct
	}
	u, err := b.SignedURL(key, opts)
	if err != nil {
		return SignedUpload{}, fmt.Errorf("sign upload url for %q: %w", key, err)
	}
	return SignedUpload{URL: u, ExpiresAt: expires}, nil
}

func (bs *bucketService) SignedDownloadURL(ctx context.Context, key, displayFilename string, ttl time.Duration) (string, error) {
	b, err := bs.bucket()
	if err != nil {
		return "", err
	}
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	}
	if name := strings.TrimSpace(displayFilename); name != "" {
		opts.QueryParameters = url.Values{
			"response-content-disposition": {fmt.Sprintf("attachment; filename=%q", name)},
		}
	}
	u, err := b.SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("sign download url for %q: %w", key, err)
	}
	return u, nil
}

func (bs *bucketService) ObjectExists(ctx context.Context, key string) (bool, error) {
	b, err := bs.bucket()
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err = b.Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat object %q: %w", key, err)
	}
	return true, nil
}

func (bs *bucketService) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	b, err := bs.bucket()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.Object(key).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %q: %w", key, err)
	}
	return nil
}

// Cancel must ride on the reader's Close; canceling before the caller reads
// would yield zero bytes.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *bucketService) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	b, err := bs.bucket()
	if err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := b.Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open reader for %q: %w", key, err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (bs *bucketService) Delete(ctx context.Context, key string) error {
	b, err := bs.bucket()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := b.Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (bs *bucketService) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	b, err := bs.bucket()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := b.Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *bucketService) Ping(ctx context.Context) error {
	b, err := bs.bucket()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := b.Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %q unreachable: %w", bs.bucketName, err)
	}
	return nil
}
