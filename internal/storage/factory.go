package storage

import (
	"context"
	"fmt"
	"os"
)

type FactoryResult struct {
	Driver  string
	Storage Storage
}

// FromEnv builds the dispatch-audit archive. "none" disables archiving
// entirely (Storage is nil); callers must tolerate that.
func FromEnv(ctx context.Context) (FactoryResult, error) {
	driver := os.Getenv("ARCHIVE_DRIVER")
	if driver == "" {
		driver = "local"
	}

	switch driver {
	case "none":
		return FactoryResult{Driver: "none", Storage: nil}, nil

	case "local":
		baseDir := envOr("ARCHIVE_LOCAL_DIR", "./storage/dispatch-audit")
		return FactoryResult{Driver: "local", Storage: NewLocal(baseDir)}, nil

	case "s3":
		region := envOr("ARCHIVE_S3_REGION", "")
		bucket := envOr("ARCHIVE_S3_BUCKET", "")
		prefix := envOr("ARCHIVE_S3_PREFIX", "dispatch-audit")
		if region == "" || bucket == "" {
			return FactoryResult{}, fmt.Errorf("S3 config missing: ARCHIVE_S3_REGION, ARCHIVE_S3_BUCKET required")
		}
		s, err := NewS3(ctx, S3Config{
			Region: region,
			Bucket: bucket,
			Prefix: prefix,
		})
		if err != nil {
			return FactoryResult{}, err
		}
		return FactoryResult{Driver: "s3", Storage: s}, nil

	default:
		return FactoryResult{}, fmt.Errorf("unknown ARCHIVE_DRIVER: %s", driver)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
