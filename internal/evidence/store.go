// Package evidence persists the photos submitted with reports and mission proofs.
// Objects are addressed by the SHA-256 of their content.
package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotImage   = errors.New("evidence must be an image")
	ErrEmpty      = errors.New("evidence is empty")
	ErrNotFound   = errors.New("evidence not found")
	ErrInvalidRef = errors.New("invalid evidence reference")
)

const refPrefix = "sha256:"

// Object describes a stored blob. Created is false when identical content was already stored,
// so callers rolling back a failed write must leave it alone.
type Object struct {
	Ref         string
	ContentType string
	Size        int
	Created     bool
}

type Store interface {
	Put(ctx context.Context, data []byte) (Object, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}

// SniffImage returns the detected image MIME type, or ErrNotImage.
func SniffImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, contentType)
	}
	return contentType, nil
}

func contentRef(data []byte) (ref, hash string) {
	sum := sha256.Sum256(data)
	hash = hex.EncodeToString(sum[:])
	return refPrefix + hash, hash
}

func parseRef(ref string) (string, error) {
	hash, ok := strings.CutPrefix(ref, refPrefix)
	if !ok || len(hash) != sha256.Size*2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return hash, nil
}
