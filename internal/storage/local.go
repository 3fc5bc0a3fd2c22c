package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Local struct {
	BaseDir string
}

func NewLocal(baseDir string) *Local {
	return &Local{BaseDir: baseDir}
}

func (l *Local) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	_ = ctx

	key := objectKey(in.Key)
	dstPath := filepath.Join(l.BaseDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return PutResult{}, err
	}

	f, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return PutResult{}, err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return PutResult{}, err
	}

	return PutResult{Key: key, URL: "file://" + dstPath}, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	_ = ctx
	key = filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(key, "..") {
		return fmt.Errorf("invalid key: %s", key)
	}
	return os.Remove(filepath.Join(l.BaseDir, key))
}

// objectKey appends a unique suffix so re-dispatches of the same refund never
// overwrite an earlier audit record.
func objectKey(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "/" + uuid.NewString()
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }
