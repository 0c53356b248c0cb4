package storage

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresignPutProducesVerifiableURL(t *testing.T) {
	p := NewPresigner("https://cdn.example.com", "cly-media", "AK123", "topsecret", 10*time.Minute)
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return frozen }

	upload, err := p.PresignPut("products", "saree.jpg", "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, frozen.Add(10*time.Minute).Unix(), upload.ExpiresAt)
	assert.Contains(t, upload.Key, "products/")
	assert.Contains(t, upload.Key, ".jpg")
	assert.Contains(t, upload.UploadURL, "https://cdn.example.com/cly-media/"+upload.Key)
	assert.Equal(t, "https://cdn.example.com/cly-media/"+upload.Key, upload.PublicURL)

	parsed, err := url.Parse(upload.UploadURL)
	require.NoError(t, err)
	q := parsed.Query()
	expires, err := strconv.ParseInt(q.Get("X-Expires"), 10, 64)
	require.NoError(t, err)

	require.NoError(t, p.Verify(upload.Key, expires, "image/jpeg", q.Get("X-Signature")))
}

func TestVerifyRejectsExpiredURL(t *testing.T) {
	p := NewPresigner("https://cdn.example.com", "cly-media", "AK123", "topsecret", time.Minute)
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return frozen }

	upload, err := p.PresignPut("products", "saree.png", "image/png")
	require.NoError(t, err)

	p.now = func() time.Time { return frozen.Add(2 * time.Minute) }
	err = p.Verify(upload.Key, upload.ExpiresAt, "image/png", "")
	assert.ErrorContains(t, err, "expired")
}

func TestVerifyRejectsTamperedKey(t *testing.T) {
	p := NewPresigner("https://cdn.example.com", "cly-media", "AK123", "topsecret", time.Minute)

	upload, err := p.PresignPut("products", "saree.webp", "image/webp")
	require.NoError(t, err)

	parsed, err := url.Parse(upload.UploadURL)
	require.NoError(t, err)
	sig := parsed.Query().Get("X-Signature")

	err = p.Verify("products/other-object.webp", upload.ExpiresAt, "image/webp", sig)
	assert.ErrorContains(t, err, "signature mismatch")
}

func TestPresignPutRejectsUnknownExtension(t *testing.T) {
	p := NewPresigner("https://cdn.example.com", "cly-media", "AK123", "topsecret", time.Minute)
	_, err := p.PresignPut("products", "malware.exe", "application/octet-stream")
	assert.ErrorContains(t, err, "unsupported file type")
}
