package gcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

func TestBucketServiceEmulatorLifecycle(t *testing.T) {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("COURSEPACK_RUN_GCS_EMULATOR_INTEGRATION")), "true") {
		t.Skip("set COURSEPACK_RUN_GCS_EMULATOR_INTEGRATION=true to run emulator integration tests")
	}
	emulatorHost := strings.TrimRight(strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")), "/")
	if emulatorHost == "" {
		emulatorHost = "http://127.0.0.1:4443"
	}
	if !isEmulatorReachable(emulatorHost) {
		t.Skipf("storage emulator not reachable at %s", emulatorHost)
	}

	bucketName := fmt.Sprintf("coursepack-it-%d", time.Now().UnixNano())
	createBucketIfMissing(t, emulatorHost, bucketName)

	ctx := context.Background()
	bucket, err := NewBucketService(ctx, logger.Nop(), BucketConfig{
		Name:    bucketName,
		Prefix:  "courses",
		Storage: ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: emulatorHost},
	})
	if err != nil {
		t.Fatalf("NewBucketService: %v", err)
	}
	defer bucket.Close()

	if err := bucket.UploadFile(ctx, "math101.zip", strings.NewReader("zipbytes")); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	body, err := fetch(bucket.GetPublicURL("math101.zip"))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if body != "zipbytes" {
		t.Fatalf("download body: want=%q got=%q", "zipbytes", body)
	}
	if err := bucket.DeleteFile(ctx, "math101.zip"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if err := bucket.DeleteFile(ctx, "math101.zip"); err != nil {
		t.Fatalf("DeleteFile of a missing object: %v", err)
	}
}

func isEmulatorReachable(emulatorHost string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(emulatorHost + "/storage/v1/b?project=local-dev")
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 500
}

func createBucketIfMissing(t *testing.T, emulatorHost string, bucket string) {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"name": bucket})
	if err != nil {
		t.Fatalf("json.Marshal(bucket): %v", err)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(emulatorHost+"/storage/v1/b?project=local-dev", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("create bucket %q: %v", bucket, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusConflict {
		return
	}
	b, _ := io.ReadAll(resp.Body)
	t.Fatalf("create bucket %q failed: status=%d body=%s", bucket, resp.StatusCode, strings.TrimSpace(string(b)))
}

func fetch(u string) (string, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(u)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return string(b), nil
}
