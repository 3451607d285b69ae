package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) *local {
	p, err := NewLocal(config.Storage{
		BaseURL: "https://cdn.bloom.shop/files/",
		Secret:  "0123456789abcdef",
	}, afero.NewMemMapFs())
	require.NoError(t, err)
	return p.(*local)
}

func TestLocalUploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	link, err := l.Upload(ctx, "blobs/ab/cd ef.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.bloom.shop/files/blobs/ab/cd%20ef.png", link)

	r, err := l.Download(ctx, "blobs/ab/cd ef.png")
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "png", string(body))

	removed, err := l.Delete(ctx, "blobs/ab/cd ef.png")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = l.Delete(ctx, "blobs/ab/cd ef.png")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = l.Download(ctx, "blobs/ab/cd ef.png")
	assert.True(t, IsNotFound(err))
}

func TestLocalInvalidKeys(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	for _, key := range []string{"", "/etc/passwd", "../secret", "a/../../b", "a\\b", "a//b", "."} {
		_, err := l.Upload(ctx, key, strings.NewReader("x"), "text/plain")
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestLocalPresignedURL(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	_, err := l.PresignedURL(ctx, "missing.pdf", time.Minute)
	assert.True(t, IsNotFound(err))

	_, err = l.Upload(ctx, "kyc/id.pdf", strings.NewReader("pdf"), "application/pdf")
	require.NoError(t, err)

	link, err := l.PresignedURL(ctx, "kyc/id.pdf", time.Minute)
	require.NoError(t, err)
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	expires, signature := parsed.Query().Get("expires"), parsed.Query().Get("signature")

	require.NoError(t, l.Verify("kyc/id.pdf", expires, signature))
	assert.ErrorIs(t, l.Verify("kyc/other.pdf", expires, signature), ErrInvalidSignature)
	assert.ErrorIs(t, l.Verify("kyc/id.pdf", "not-a-time", signature), ErrInvalidSignature)

	current = current.Add(2 * time.Minute)
	assert.ErrorIs(t, l.Verify("kyc/id.pdf", expires, signature), ErrExpired)
}

func TestNewLocalRequiresSecret(t *testing.T) {
	_, err := NewLocal(config.Storage{}, afero.NewMemMapFs())
	assert.ErrorIs(t, err, ErrMissingSecret)
}
