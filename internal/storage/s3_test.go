//go:build integration

package storage

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclink-ai/doclink/internal/testutil"
)

func newTestArchive(ctx context.Context, t *testing.T) *Archive {
	rc := testutil.NewRustFSContainer(ctx, t)
	t.Cleanup(func() { rc.Terminate(context.Background()) })

	archive, err := NewArchive(ctx, ArchiveConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-uploads",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, archive.EnsureBucket(ctx))

	return archive
}

func TestArchive_RoundTrip(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(ctx, t)

	content := []byte("Raw upload bytes kept for the audit trail.")
	require.NoError(t, archive.Archive(ctx, "user-1", "notes.txt", content))

	url, err := archive.GenerateDownloadURL(ctx, "user-1", "notes.txt")
	require.NoError(t, err)
	require.NotEmpty(t, url)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestArchive_OverwriteKeepsLatest(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(ctx, t)

	require.NoError(t, archive.Archive(ctx, "user-1", "notes.txt", []byte("first")))
	require.NoError(t, archive.Archive(ctx, "user-1", "notes.txt", []byte("second")))

	url, err := archive.GenerateDownloadURL(ctx, "user-1", "notes.txt")
	require.NoError(t, err)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestArchive_Delete(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(ctx, t)

	require.NoError(t, archive.Archive(ctx, "user-1", "gone.txt", []byte("soon removed")))
	require.NoError(t, archive.Delete(ctx, "user-1", "gone.txt"))

	url, err := archive.GenerateDownloadURL(ctx, "user-1", "gone.txt")
	require.NoError(t, err)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestArchive_EnsureBucketIdempotent(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(ctx, t)

	// second call hits the HeadBucket fast path
	require.NoError(t, archive.EnsureBucket(ctx))
}
