package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/spf13/afero"
)

// Provider stores blobs under flat keys
type Provider interface {
	// Upload writes r under key and returns its public URL
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. The bool reports whether something was removed
	Delete(ctx context.Context, key string) (bool, error)
	// PresignedURL returns a URL to key that stops working after ttl
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	URL(key string) string
	// Verify checks the query of a presigned URL
	Verify(key string, expires string, signature string) error
}

type local struct {
	fs      afero.Fs
	baseURL string
	secret  []byte
	now     func() time.Time
}

// NewLocal stores files on fs. A nil fs writes under cfg.Root on disk
func NewLocal(cfg config.Storage, fs afero.Fs) (Provider, error) {
	if cfg.Secret == "" {
		return nil, &Error{Op: OpConfig, Err: ErrMissingSecret}
	}
	if fs == nil {
		if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
			return nil, &Error{Op: OpConfig, Key: cfg.Root, Err: err}
		}
		fs = afero.NewBasePathFs(afero.NewOsFs(), cfg.Root)
	}
	return &local{
		fs:      fs,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		secret:  []byte(cfg.Secret),
		now:     time.Now,
	}, nil
}

// validKey rejects keys that are not clean relative paths inside the root
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	cleaned := path.Clean(key)
	return cleaned == key && cleaned != "." && !strings.HasPrefix(cleaned, "..")
}

func (l *local) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	if !validKey(key) {
		return "", &Error{Op: OpUpload, Key: key, Err: ErrInvalidKey}
	}
	if err := ctx.Err(); err != nil {
		return "", &Error{Op: OpUpload, Key: key, Err: err}
	}
	if err := l.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return "", &Error{Op: OpUpload, Key: key, Err: err}
	}
	if err := afero.WriteReader(l.fs, key, r); err != nil {
		_ = l.fs.Remove(key)
		return "", &Error{Op: OpUpload, Key: key, Err: err}
	}
	return l.URL(key), nil
}

func (l *local) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, &Error{Op: OpDownload, Key: key, Err: ErrInvalidKey}
	}
	f, err := l.fs.Open(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Op: OpNotFound, Key: key, Err: err}
		}
		return nil, &Error{Op: OpDownload, Key: key, Err: err}
	}
	return f, nil
}

func (l *local) Delete(ctx context.Context, key string) (bool, error) {
	if !validKey(key) {
		return false, &Error{Op: OpDelete, Key: key, Err: ErrInvalidKey}
	}
	if err := ctx.Err(); err != nil {
		return false, &Error{Op: OpDelete, Key: key, Err: err}
	}
	if _, err := l.fs.Stat(key); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &Error{Op: OpDelete, Key: key, Err: err}
	}
	if err := l.fs.Remove(key); err != nil {
		return false, &Error{Op: OpDelete, Key: key, Err: err}
	}
	return true, nil
}

func (l *local) URL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return l.baseURL + "/" + strings.Join(parts, "/")
}

func (l *local) sign(key string, expires string) string {
	mac := hmac.New(sha256.New, l.secret)
	mac.Write([]byte(key))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(expires))
	return hex.EncodeToString(mac.Sum(nil))
}

func (l *local) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if !validKey(key) {
		return "", &Error{Op: OpDownload, Key: key, Err: ErrInvalidKey}
	}
	if _, err := l.fs.Stat(key); err != nil {
		if os.IsNotExist(err) {
			return "", &Error{Op: OpNotFound, Key: key, Err: err}
		}
		return "", &Error{Op: OpDownload, Key: key, Err: err}
	}
	expires := strconv.FormatInt(l.now().Add(ttl).Unix(), 10)
	q := url.Values{}
	q.Set("expires", expires)
	q.Set("signature", l.sign(key, expires))
	return l.URL(key) + "?" + q.Encode(), nil
}

func (l *local) Verify(key string, expires string, signature string) error {
	at, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return &Error{Op: OpDownload, Key: key, Err: ErrInvalidSignature}
	}
	if !hmac.Equal([]byte(l.sign(key, expires)), []byte(signature)) {
		return &Error{Op: OpDownload, Key: key, Err: ErrInvalidSignature}
	}
	if l.now().Unix() > at {
		return &Error{Op: OpDownload, Key: key, Err: ErrExpired}
	}
	return nil
}
