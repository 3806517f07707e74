package gcp

import (
	"errors"
	"testing"
)

func TestResolveObjectStorageConfigInferred(t *testing.T) {
	cases := []struct {
		name     string
		bucket   string
		emulator string
		want     ObjectStorageMode
	}{
		{name: "no bucket", want: ObjectStorageModeNone},
		{name: "bucket", bucket: "courses", want: ObjectStorageModeGCS},
		{name: "bucket and emulator", bucket: "courses", emulator: "http://fake-gcs:4443", want: ObjectStorageModeGCSEmulator},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ResolveObjectStorageConfig("", tc.bucket, tc.emulator)
			if err != nil {
				t.Fatalf("ResolveObjectStorageConfig: %v", err)
			}
			if cfg.Mode != tc.want {
				t.Fatalf("mode: want=%q got=%q", tc.want, cfg.Mode)
			}
			if !cfg.Inferred || cfg.ModeSource() != "inferred" {
				t.Fatalf("mode source: want inferred got=%q", cfg.ModeSource())
			}
		})
	}
}

func TestResolveObjectStorageConfigExplicit(t *testing.T) {
	cfg, err := ResolveObjectStorageConfig("GCS", "courses", "http://fake-gcs:4443")
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfig: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS || cfg.Inferred {
		t.Fatalf("explicit gcs: got mode=%q inferred=%v", cfg.Mode, cfg.Inferred)
	}
	if !cfg.Enabled() || cfg.IsEmulatorMode() {
		t.Fatalf("gcs should be enabled and not emulator")
	}

	cfg, err = ResolveObjectStorageConfig("none", "courses", "")
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfig(none): %v", err)
	}
	if cfg.Enabled() {
		t.Fatalf("none mode should be disabled")
	}
}

func TestResolveObjectStorageConfigErrors(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		bucket   string
		emulator string
		want     ObjectStorageConfigErrorCode
	}{
		{name: "invalid mode", mode: "s3", bucket: "b", want: ObjectStorageConfigErrorInvalidMode},
		{name: "gcs without bucket", mode: "gcs", want: ObjectStorageConfigErrorMissingBucket},
		{name: "emulator without host", mode: "gcs_emulator", bucket: "b", want: ObjectStorageConfigErrorMissingEmulatorHost},
		{name: "emulator bad host", mode: "gcs_emulator", bucket: "b", emulator: "fake-gcs:4443", want: ObjectStorageConfigErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveObjectStorageConfig(tc.mode, tc.bucket, tc.emulator)
			var cfgErr *ObjectStorageConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("want *ObjectStorageConfigError, got %v", err)
			}
			if cfgErr.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, cfgErr.Code)
			}
			if cfgErr.Error() == "" {
				t.Fatalf("empty error message")
			}
		})
	}
}

func TestObjectStorageModeHelpers(t *testing.T) {
	for _, mode := range []ObjectStorageMode{ObjectStorageModeNone, ObjectStorageModeGCS, ObjectStorageModeGCSEmulator} {
		if !IsSupportedObjectStorageMode(mode) {
			t.Fatalf("%q should be supported", mode)
		}
	}
	if IsSupportedObjectStorageMode(ObjectStorageMode("invalid")) {
		t.Fatalf("invalid mode should not be supported")
	}
	if (ObjectStorageConfig{Mode: ObjectStorageModeNone}).Enabled() {
		t.Fatalf("none should not be enabled")
	}
}
