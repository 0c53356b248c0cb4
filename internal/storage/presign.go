// Package storage issues presigned upload URLs for the object store that
// holds product and slider imagery. Signing happens here so the bucket
// credentials never reach the browser; the browser only ever sees a
// short-lived signed PUT URL.
package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PresignedUpload is what the browser receives: where to PUT the bytes and
// the public URL the record should reference afterwards.
type PresignedUpload struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at"`
}

// Presigner signs PUT URLs against the object store.
type Presigner struct {
	endpoint  string
	bucket    string
	accessKey string
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewPresigner constructs a Presigner. ttl bounds how long an issued URL
// stays valid.
func NewPresigner(endpoint, bucket, accessKey, secretKey string, ttl time.Duration) *Presigner {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Presigner{
		endpoint:  strings.TrimRight(endpoint, "/"),
		bucket:    bucket,
		accessKey: accessKey,
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

// PresignPut issues a signed PUT URL for a new object under prefix. The
// object key gets a random component so concurrent uploads never collide.
func (p *Presigner) PresignPut(prefix, filename, contentType string) (PresignedUpload, error) {
	if p == nil || len(p.secretKey) == 0 {
		return PresignedUpload{}, fmt.Errorf("presigner not configured")
	}
	ext := path.Ext(filename)
	if !validExtension(ext) {
		return PresignedUpload{}, fmt.Errorf("unsupported file type %q", ext)
	}

	key := path.Join(prefix, uuid.NewString()+ext)
	expires := p.now().Add(p.ttl).Unix()

	q := url.Values{}
	q.Set("X-Access-Key", p.accessKey)
	q.Set("X-Expires", strconv.FormatInt(expires, 10))
	if contentType != "" {
		q.Set("X-Content-Type", contentType)
	}
	q.Set("X-Signature", p.sign(key, expires, contentType))

	base := fmt.Sprintf("%s/%s/%s", p.endpoint, p.bucket, key)
	return PresignedUpload{
		UploadURL: base + "?" + q.Encode(),
		PublicURL: base,
		Key:       key,
		ExpiresAt: expires,
	}, nil
}

// Verify checks a signature produced by PresignPut. The upload proxy calls
// it before accepting bytes.
func (p *Presigner) Verify(key string, expires int64, contentType, signature string) error {
	if p.now().Unix() > expires {
		return fmt.Errorf("upload url expired")
	}
	expected := p.sign(key, expires, contentType)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("upload signature mismatch")
	}
	return nil
}

func (p *Presigner) sign(key string, expires int64, contentType string) string {
	mac := hmac.New(sha256.New, p.secretKey)
	fmt.Fprintf(mac, "PUT\n%s\n%s\n%d\n%s", p.bucket, key, expires, contentType)
	return hex.EncodeToString(mac.Sum(nil))
}

func validExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif", ".svg":
		return true
	}
	return false
}
