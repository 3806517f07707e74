package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

// BucketService stores distribution archives in a single GCS bucket.
type BucketService interface {
	UploadFile(ctx context.Context, key string, file io.Reader) error
	DeleteFile(ctx context.Context, key string) error
	GetPublicURL(key string) string
	Close() error
}

type BucketConfig struct {
	Name          string
	Prefix        string
	CDNDomain     string
	PublicBaseURL string
	Credentials   string
	Storage       ObjectStorageConfig
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	storageMode   ObjectStorageMode
	emulatorHost  string
	name          string
	prefix        string
	cdnDomain     string
	publicBaseURL string
}

// NewBucketService returns nil, nil when object storage is disabled.
func NewBucketService(ctx context.Context, log *logger.Logger, cfg BucketConfig) (BucketService, error) {
	if !cfg.Storage.Enabled() {
		return nil, nil
	}
	if err := ValidateObjectStorageConfig(cfg.Storage); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingBucket, Mode: string(cfg.Storage.Mode)}
	}
	serviceLog := log.With("service", "BucketService")

	publicBaseURL, publicBaseSource, err := resolvePublicBaseURL(cfg)
	if err != nil {
		return nil, err
	}
	client, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Storage.Mode,
		"mode_source", cfg.Storage.ModeSource(),
		"emulator_host", cfg.Storage.EmulatorHost,
		"public_base_source", publicBaseSource,
		"bucket", cfg.Name,
	)
	return &bucketService{
		log:           serviceLog,
		storageClient: client,
		storageMode:   cfg.Storage.Mode,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(cfg.Storage.EmulatorHost), "/"),
		name:          strings.TrimSpace(cfg.Name),
		prefix:        strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
		cdnDomain:     strings.TrimSpace(cfg.CDNDomain),
		publicBaseURL: publicBaseURL,
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg BucketConfig) (*storage.Client, error) {
	switch cfg.Storage.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptions(cfg.Credentials)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		// The storage client reads the emulator endpoint from the environment.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(strings.TrimSpace(cfg.Storage.EmulatorHost), "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(cfg.Storage.Mode)}
	}
}

func resolvePublicBaseURL(cfg BucketConfig) (baseURL string, source string, err error) {
	raw := strings.TrimSpace(cfg.PublicBaseURL)
	if raw != "" {
		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
			return "", "", fmt.Errorf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443", raw)
		}
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url", nil
	}
	if cfg.Storage.IsEmulatorMode() {
		return strings.TrimRight(strings.TrimSpace(cfg.Storage.EmulatorHost), "/"), "storage_emulator_host", nil
	}
	return "", "gcs_default", nil
}

func (bs *bucketService) objectKey(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if bs.prefix == "" {
		return key
	}
	return path.Join(bs.prefix, key)
}

func (bs *bucketService) UploadFile(ctx context.Context, key string, file io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	objectKey := bs.objectKey(key)
	w := bs.storageClient.Bucket(bs.name).Object(objectKey).NewWriter(ctx)
	w.ContentType = contentTypeForKey(objectKey)
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

// DeleteFile treats a missing object as already deleted.
func (bs *bucketService) DeleteFile(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	objectKey := bs.objectKey(key)
	err := bs.storageClient.Bucket(bs.name).Object(objectKey).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", objectKey, bs.name, err)
	}
	return nil
}

func (bs *bucketService) GetPublicURL(key string) string {
	objectKey := bs.objectKey(key)
	if bs.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.cdnDomain, objectKey)
	}
	if bs.storageMode == ObjectStorageModeGCSEmulator {
		base := bs.publicBaseURL
		if base == "" {
			base = bs.emulatorHost
		}
		if base != "" {
			return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(bs.name), url.PathEscape(objectKey))
		}
	}
	if bs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, bs.name, objectKey)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.name, objectKey)
}

func (bs *bucketService) Close() error {
	if bs == nil || bs.storageClient == nil {
		return nil
	}
	return bs.storageClient.Close()
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".zip"):
		return "application/zip"
	case strings.HasSuffix(s, ".xml"):
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}
