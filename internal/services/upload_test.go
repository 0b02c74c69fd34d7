package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultmedia/vaultmedia-backend/internal/clients/gcs"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// fakeBucket records signing calls and serves a configurable object set.
type fakeBucket struct {
	signed  []string
	objects map[string]bool
}

func (f *fakeBucket) SignedUploadURL(_ context.Context, key, contentType string, ttl time.Duration) (gcs.SignedUpload, error) {
	f.signed = append(f.signed, key)
	return gcs.SignedUpload{
		URL:       "https://storage.example/" + key,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func (f *fakeBucket) SignedDownloadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.example/" + key, nil
}

func (f *fakeBucket) ObjectExists(_ context.Context, key string) (bool, error) {
	return f.objects[key], nil
}

func (f *fakeBucket) Upload(_ context.Context, key, _ string, _ io.Reader) error {
	if f.objects == nil {
		f.objects = map[string]bool{}
	}
	f.objects[key] = true
	return nil
}

func (f *fakeBucket) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if !f.objects[key] {
		return nil, gcs.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader("data")), nil
}

func (f *fakeBucket) Delete(_ context.Context, key string) error {
	if !f.objects[key] {
		return gcs.ErrObjectNotFound
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBucket) ListKeys(_ context.Context, prefix string) ([]string, error) {
	keys := []string{}
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeBucket) Ping(context.Context) error { return nil }

func newUploadServiceForTest(t *testing.T, bucket gcs.BucketService) UploadService {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return NewUploadService(nil, log, bucket, nil, nil, nil)
}

func TestPrepareUploadBuildsOwnerScopedKey(t *testing.T) {
	bucket := &fakeBucket{}
	svc := newUploadServiceForTest(t, bucket)
	uploader := uuid.New()

	prepared, err := svc.PrepareUpload(dbctx.Context{Ctx: context.Background()}, uploader, PrepareRequest{
		FileName: "Team Photo (final).jpg",
		FileSize: 1024,
		FileType: "image/jpeg",
	})
	require.NoError(t, err)

	prefix := fmt.Sprintf("image/%s/", uploader)
	assert.True(t, strings.HasPrefix(prepared.FileKey, prefix), "key %q must start with %q", prepared.FileKey, prefix)
	assert.True(t, strings.HasSuffix(prepared.FileKey, "-Team_Photo__final_.jpg"))
	assert.NotEqual(t, uuid.Nil, prepared.UploadID)
	assert.NotEmpty(t, prepared.UploadURL)
	assert.True(t, prepared.ExpiresAt.After(time.Now()))
}

func TestPrepareUploadRejectsBeforeSigning(t *testing.T) {
	bucket := &fakeBucket{}
	svc := newUploadServiceForTest(t, bucket)
	uploader := uuid.New()
	dbc := dbctx.Context{Ctx: context.Background()}

	cases := []PrepareRequest{
		{FileName: "a.exe", FileSize: 100, FileType: "application/x-msdownload"},
		{FileName: "a.jpg", FileSize: 0, FileType: "image/jpeg"},
		{FileName: "a.jpg", FileSize: 26 * megabyte, FileType: "image/jpeg"},
		{FileName: "   ", FileSize: 100, FileType: "image/jpeg"},
	}
	for _, req := range cases {
		_, err := svc.PrepareUpload(dbc, uploader, req)
		require.Error(t, err, "request %+v", req)
		assert.Equal(t, apierr.CodeValidation, apierr.From(err).Code)
	}
	assert.Empty(t, bucket.signed, "no URL may be signed for a rejected request")
}

func TestPrepareBatchIsAllOrNothing(t *testing.T) {
	bucket := &fakeBucket{}
	svc := newUploadServiceForTest(t, bucket)
	dbc := dbctx.Context{Ctx: context.Background()}

	_, err := svc.PrepareBatch(dbc, uuid.New(), []PrepareRequest{
		{FileName: "ok.jpg", FileSize: 100, FileType: "image/jpeg"},
		{FileName: "bad.bin", FileSize: 100, FileType: "application/x-msdownload"},
	})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeValidation, apierr.From(err).Code)
	assert.Empty(t, bucket.signed, "a bad entry must fail the batch before any signing")

	batch, err := svc.PrepareBatch(dbc, uuid.New(), []PrepareRequest{
		{FileName: "a.jpg", FileSize: 100, FileType: "image/jpeg"},
		{FileName: "b.mp4", FileSize: 100, FileType: "video/mp4"},
	})
	require.NoError(t, err)
	assert.Len(t, batch.Files, 2)
	assert.Len(t, bucket.signed, 2)
}

func TestPrepareBatchGroupsFilesUnderOneID(t *testing.T) {
	svc := newUploadServiceForTest(t, &fakeBucket{})
	dbc := dbctx.Context{Ctx: context.Background()}

	batch, err := svc.PrepareBatch(dbc, uuid.New(), []PrepareRequest{
		{FileName: "a.jpg", FileSize: 100, FileType: "image/jpeg"},
		{FileName: "b.jpg", FileSize: 100, FileType: "image/jpeg"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, batch.BatchID)

	// Per-file ids stay distinct under the shared batch id.
	assert.NotEqual(t, batch.Files[0].UploadID, batch.Files[1].UploadID)

	other, err := svc.PrepareBatch(dbc, uuid.New(), []PrepareRequest{
		{FileName: "c.jpg", FileSize: 100, FileType: "image/jpeg"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, batch.BatchID, other.BatchID)
}

func TestPrepareBatchEnforcesSizeBounds(t *testing.T) {
	svc := newUploadServiceForTest(t, &fakeBucket{})
	dbc := dbctx.Context{Ctx: context.Background()}

	_, err := svc.PrepareBatch(dbc, uuid.New(), nil)
	assert.Equal(t, apierr.CodeValidation, apierr.From(err).Code)

	oversized := make([]PrepareRequest, MaxBatchSize+1)
	for i := range oversized {
		oversized[i] = PrepareRequest{FileName: fmt.Sprintf("f%d.jpg", i), FileSize: 100, FileType: "image/jpeg"}
	}
	_, err = svc.PrepareBatch(dbc, uuid.New(), oversized)
	assert.Equal(t, apierr.CodeValidation, apierr.From(err).Code)
}

func TestBuildFileKeyShape(t *testing.T) {
	uploader := uuid.New()
	uploadID := uuid.New()

	key := buildFileKey("video/mp4", uploader, uploadID, "clip.mp4")
	assert.Equal(t, fmt.Sprintf("video/%s/%s-clip.mp4", uploader, uploadID), key)

	// Unknown or empty coarse types land in a catch-all prefix.
	key = buildFileKey("", uploader, uploadID, "x")
	assert.True(t, strings.HasPrefix(key, "other/"))

	assert.Equal(t, uploader.String(), keyOwnerSegment(key))
	assert.Equal(t, "", keyOwnerSegment("no-slashes"))
}

func TestSanitizeFilenameStripsPathAndOddRunes(t *testing.T) {
	assert.Equal(t, "passwd", sanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "r_sum_.pdf", sanitizeFilename("résumé.pdf"))
	assert.Equal(t, "file", sanitizeFilename(""))
}
