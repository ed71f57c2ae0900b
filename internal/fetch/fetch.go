// Package fetch mirrors the staged mod bundle from an S3-compatible
// bucket into the staging directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/overviewer/bg3-modsync/internal/config"
	"github.com/overviewer/bg3-modsync/pkg/utils"
)

// Fetcher downloads new and changed bundle objects. Local files that no
// longer exist remotely are left alone.
type Fetcher struct {
	client *minio.Client
	cfg    config.FetchConfig
	dest   string
}

// Summary reports what one mirror run did.
type Summary struct {
	Fetched int64
	Skipped int64
	Bytes   int64
}

func (s *Summary) String() string {
	return fmt.Sprintf("fetched %d object(s) (%s), %d up to date",
		s.Fetched, utils.FormatSize(s.Bytes), s.Skipped)
}

// New builds a fetcher for the configured bucket, writing into dest.
func New(cfg config.FetchConfig, dest string) (*Fetcher, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("fetch requires endpoint and bucket in the [fetch] section of " + config.FileName)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client: %v", err)
	}
	return &Fetcher{client: client, cfg: cfg, dest: dest}, nil
}

// Mirror lists the remote bundle and downloads every object that is new
// or differs in size from the local copy.
func (f *Fetcher) Mirror(ctx context.Context) (*Summary, error) {
	prefix := f.cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	summary := &Summary{}
	objects := f.client.ListObjects(ctx, f.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objects {
		if object.Err != nil {
			return summary, fmt.Errorf("failed to list bucket %s: %v", f.cfg.Bucket, object.Err)
		}

		rel := relKey(object.Key, prefix)
		if rel == "" {
			continue
		}
		local := filepath.Join(f.dest, filepath.FromSlash(rel))

		info, err := os.Stat(local)
		if !shouldDownload(info, err, object.Size) {
			summary.Skipped++
			continue
		}

		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return summary, err
		}
		fmt.Printf("Fetching %s (%s)\n", rel, utils.FormatSize(object.Size))
		if err := f.client.FGetObject(ctx, f.cfg.Bucket, object.Key, local, minio.GetObjectOptions{}); err != nil {
			return summary, fmt.Errorf("failed to fetch %s: %v", object.Key, err)
		}
		summary.Fetched++
		summary.Bytes += object.Size
	}
	return summary, nil
}

// relKey maps an object key to a path relative to the staging root.
// Directory markers and keys outside the prefix yield "".
func relKey(key, prefix string) string {
	if !strings.HasPrefix(key, prefix) {
		return ""
	}
	rel := strings.TrimPrefix(key, prefix)
	if rel == "" || strings.HasSuffix(rel, "/") {
		return ""
	}
	return rel
}

// shouldDownload decides whether the local copy needs replacing.
func shouldDownload(info os.FileInfo, statErr error, remoteSize int64) bool {
	if statErr != nil {
		return true
	}
	if info.IsDir() {
		return true
	}
	return info.Size() != remoteSize
}
