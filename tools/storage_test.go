package tools

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Storage_PresignPutOffline(t *testing.T) {
	s, err := NewS3Storage(context.Background(), S3Config{
		Bucket:          "corretor-uploads",
		Region:          "sa-east-1",
		AccessKeyID:     "AKIAEXAMPLE",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	raw, err := s.PresignPut(context.Background(), "attachment/1/abc-proposta.pdf", "application/pdf", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Contains(t, u.Host, "corretor-uploads")
	assert.True(t, strings.HasSuffix(u.Path, "/attachment/1/abc-proposta.pdf"))
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), S3Config{})
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.local/avatar/1/a.png", publicURL(S3Config{PublicBaseURL: "https://cdn.local/", Bucket: "b"}, "avatar/1/a.png"))
	assert.Equal(t, "http://minio:9000/b/avatar/1/a.png", publicURL(S3Config{Endpoint: "http://minio:9000", Bucket: "b"}, "avatar/1/a.png"))
	assert.Equal(t, "https://b.s3.sa-east-1.amazonaws.com/k%20x.png", publicURL(S3Config{Bucket: "b", Region: "sa-east-1"}, "k x.png"))
}

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage("http://blob.local/")
	require.NoError(t, m.Put(context.Background(), "k", "text/plain", strings.NewReader("oi"), 2))
	assert.True(t, m.Has("k"))
	assert.Equal(t, "http://blob.local/k", m.PublicURL("k"))
	require.NoError(t, m.Delete(context.Background(), "k"))
	assert.False(t, m.Has("k"))
}
