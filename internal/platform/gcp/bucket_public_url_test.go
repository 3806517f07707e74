package gcp

import (
	"context"
	"testing"

	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

func TestResolvePublicBaseURL(t *testing.T) {
	cases := []struct {
		name       string
		cfg        BucketConfig
		wantURL    string
		wantSource string
	}{
		{
			name:       "gcs default",
			cfg:        BucketConfig{Storage: ObjectStorageConfig{Mode: ObjectStorageModeGCS}},
			wantSource: "gcs_default",
		},
		{
			name:       "emulator fallback",
			cfg:        BucketConfig{Storage: ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"}},
			wantURL:    "http://fake-gcs:4443",
			wantSource: "storage_emulator_host",
		},
		{
			name: "explicit override",
			cfg: BucketConfig{
				PublicBaseURL: "http://localhost:4443/",
				Storage:       ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"},
			},
			wantURL:    "http://localhost:4443",
			wantSource: "object_storage_public_base_url",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			baseURL, source, err := resolvePublicBaseURL(tc.cfg)
			if err != nil {
				t.Fatalf("resolvePublicBaseURL: %v", err)
			}
			if baseURL != tc.wantURL || source != tc.wantSource {
				t.Fatalf("got url=%q source=%q, want url=%q source=%q", baseURL, source, tc.wantURL, tc.wantSource)
			}
		})
	}

	if _, _, err := resolvePublicBaseURL(BucketConfig{PublicBaseURL: "localhost:4443"}); err == nil {
		t.Fatalf("relative public base URL: expected error")
	}
}

func TestGetPublicURL(t *testing.T) {
	cases := []struct {
		name string
		bs   *bucketService
		key  string
		want string
	}{
		{
			name: "gcs default",
			bs:   &bucketService{name: "course-bucket"},
			key:  "math101.zip",
			want: "https://storage.googleapis.com/course-bucket/math101.zip",
		},
		{
			name: "prefix",
			bs:   &bucketService{name: "course-bucket", prefix: "courses"},
			key:  "/math101.zip",
			want: "https://storage.googleapis.com/course-bucket/courses/math101.zip",
		},
		{
			name: "cdn",
			bs:   &bucketService{name: "course-bucket", cdnDomain: "cdn.example.com"},
			key:  "math101.zip",
			want: "https://cdn.example.com/math101.zip",
		},
		{
			name: "public base",
			bs:   &bucketService{name: "course-bucket", publicBaseURL: "http://localhost:4443"},
			key:  "math101.zip",
			want: "http://localhost:4443/course-bucket/math101.zip",
		},
		{
			name: "emulator media endpoint",
			bs:   &bucketService{name: "course-bucket", prefix: "courses", storageMode: ObjectStorageModeGCSEmulator, emulatorHost: "http://fake-gcs:4443"},
			key:  "math101.zip",
			want: "http://fake-gcs:4443/storage/v1/b/course-bucket/o/courses%2Fmath101.zip?alt=media",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.bs.GetPublicURL(tc.key); got != tc.want {
				t.Fatalf("GetPublicURL: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestNewBucketServiceDisabled(t *testing.T) {
	bs, err := NewBucketService(context.Background(), logger.Nop(), BucketConfig{Storage: ObjectStorageConfig{Mode: ObjectStorageModeNone}})
	if err != nil || bs != nil {
		t.Fatalf("disabled storage: want nil, nil got %v, %v", bs, err)
	}
}

func TestContentTypeForKey(t *testing.T) {
	if got := contentTypeForKey("a/B.ZIP"); got != "application/zip" {
		t.Fatalf("zip: got=%q", got)
	}
	if got := contentTypeForKey("module.xml"); got != "application/xml" {
		t.Fatalf("xml: got=%q", got)
	}
	if got := contentTypeForKey("x.bin"); got != "application/octet-stream" {
		t.Fatalf("default: got=%q", got)
	}
}
