package evidence

import (
	"context"
	"fmt"

	"github.com/civicpulse/pulse-backend/internal/config"
)

// Open builds the store selected by EVIDENCE_BACKEND.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.EvidenceBackend {
	case "", "local":
		return NewLocalStore(cfg.EvidenceDir)
	case "s3":
		return NewS3Store(ctx, S3StoreConfig{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown evidence backend %q", cfg.EvidenceBackend)
	}
}
