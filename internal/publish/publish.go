// Package publish uploads a run's final reports to S3-compatible storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stevehiehn/theaterdash/internal/config"
)

const (
	bucketTimeout = 30 * time.Second
	putTimeout    = 10 * time.Minute
	defaultRegion = "us-east-1"
)

type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Object is one uploaded file.
type Object struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
}

// Publisher uploads files under <prefix>/<run_id>/.
type Publisher struct {
	cfg   config.Publish
	store objectStore
}

// Validate checks a publish block. A block without an endpoint is disabled
// and always valid.
func Validate(p config.Publish) error {
	if !p.Enabled() {
		return nil
	}
	if strings.Contains(p.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", p.Endpoint)
	}
	if strings.TrimSpace(p.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if strings.TrimSpace(p.AccessKey) == "" || strings.TrimSpace(p.SecretKey) == "" {
		return errors.New("access key and secret key are required")
	}
	return nil
}

// New builds a MinIO-backed publisher.
func New(p config.Publish) (*Publisher, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	if p.Region == "" {
		p.Region = defaultRegion
	}
	client, err := minio.New(p.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(p.AccessKey, p.SecretKey, ""),
		Secure:    p.UseSSL,
		Region:    p.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating object store client: %w", err)
	}
	return &Publisher{cfg: p, store: client}, nil
}

// Publish uploads each existing file. Missing files are skipped; the first
// upload error stops the remaining uploads.
func (p *Publisher) Publish(ctx context.Context, runID string, files []string) ([]Object, error) {
	if err := p.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", p.cfg.Bucket, err)
	}

	var out []Object
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		key := ObjectKey(p.cfg.Prefix, runID, filepath.Base(f))
		putCtx, cancel := context.WithTimeout(ctx, putTimeout)
		_, err = p.store.FPutObject(putCtx, p.cfg.Bucket, key, f, minio.PutObjectOptions{ContentType: contentType(f)})
		cancel()
		if err != nil {
			return out, fmt.Errorf("uploading %s: %w", key, err)
		}
		out = append(out, Object{Bucket: p.cfg.Bucket, Key: key, Size: info.Size()})
	}
	return out, nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, bucketTimeout)
	defer cancel()
	exists, err := p.store.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.store.MakeBucket(ctx, p.cfg.Bucket, minio.MakeBucketOptions{Region: p.cfg.Region})
}

// ObjectKey joins prefix, run ID and file name with forward slashes.
func ObjectKey(prefix, runID, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return path.Join(runID, name)
	}
	return path.Join(prefix, runID, name)
}

func contentType(f string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(f))); t != "" {
		return t
	}
	return "application/octet-stream"
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
