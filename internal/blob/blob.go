// Package blob provides the object store the agent uploads originals to.
// Every upload gets a fresh collision-resistant key; overwriting an
// existing object is never permitted.
package blob

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"time"
)

// UploadPrefix is the logical folder all uploaded originals live under.
const UploadPrefix = "uploads/"

// DefaultCacheControl mirrors the upload policy for stored originals.
const DefaultCacheControl = "public, max-age=3600"

var ErrObjectExists = errors.New("object already exists")

type PutOptions struct {
	ContentType  string
	CacheControl string
}

// Store is the object store contract. Put must fail with ErrObjectExists
// when the key is already taken.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, opts PutOptions) error
	Count(ctx context.Context, prefix string) (int, error)
}

// NewKey generates a collision-resistant storage key for an upload,
// preserving the original file extension: uploads/<unix-millis>-<suffix><ext>.
func NewKey(originalName string) string {
	ext := path.Ext(originalName)
	return fmt.Sprintf("%s%d-%s%s", UploadPrefix, time.Now().UnixMilli(), randomSuffix(), ext)
}

func randomSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
