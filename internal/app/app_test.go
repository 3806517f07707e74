package app

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/yungbote/neurobridge-coursepack/internal/config"
	"github.com/yungbote/neurobridge-coursepack/internal/data/repos/testutil"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/locks"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

const appManifest = `<module>
  <meta><versionid>1</versionid><shortname>app101</shortname><title lang="en">App 101</title></meta>
  <structure>
    <section order="1"><title lang="en">One</title><activities>
      <activity type="page" order="1" digest="app-p1"><title lang="en">P1</title><location lang="en">p1.html</location></activity>
    </activities></section>
  </structure>
  <media/>
</module>`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.LogMode = "test"
	cfg.Database.SQLitePath = filepath.Join(dir, "coursepack.db")
	cfg.Paths.UploadDir = filepath.Join(dir, "upload")
	cfg.Paths.MediaRoot = filepath.Join(dir, "media")
	cfg.Paths.WorkDir = filepath.Join(dir, "work")
	cfg.Telemetry.MetricsTextfile = filepath.Join(dir, "coursepack.prom")
	return cfg
}

func appArchive(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	w, err := zw.Create("app101/module.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte(appManifest)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf
}

func TestAppUploadEndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := NewWithLogger(ctx, logger.Nop(), cfg, Options{Migrate: true})
	if err != nil {
		t.Fatalf("NewWithLogger: %v", err)
	}
	if a.Clients.Bucket != nil {
		t.Fatalf("bucket: want nil without storage config")
	}
	if _, ok := a.Clients.Locker.(*locks.Local); !ok {
		t.Fatalf("locker: want *locks.Local, got %T", a.Clients.Locker)
	}

	owner := testutil.SeedUser(t, ctx, a.DB, "owner@example.com")
	u, err := a.Services.CourseUpload.ResolveUser(ctx, "", "owner@example.com")
	if err != nil {
		t.Fatalf("ResolveUser: %v", err)
	}
	if u.ID != owner.ID {
		t.Fatalf("user: want=%s got=%s", owner.ID, u.ID)
	}

	res, err := a.Services.CourseUpload.UploadArchive(ctx, owner.ID, "app101.zip", appArchive(t))
	if err != nil {
		t.Fatalf("UploadArchive: %v", err)
	}
	if !res.IsNew || res.Course.Shortname != "app101" {
		t.Fatalf("result: new=%v shortname=%q", res.IsNew, res.Course.Shortname)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.UploadDir, "app101.zip")); err != nil {
		t.Fatalf("distribution archive: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.MediaRoot, "courses", "app101", "module.xml")); err != nil {
		t.Fatalf("preview tree: %v", err)
	}

	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	prom, err := os.ReadFile(cfg.Telemetry.MetricsTextfile)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(prom), `coursepack_uploads_total{outcome="ok"} 1`) {
		t.Fatalf("metrics textfile missing upload counter:\n%s", prom)
	}
}

func TestAppRedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Telemetry.MetricsTextfile = ""
	cfg.Lock.Backend = "redis"
	cfg.Lock.RedisURL = "redis://" + mr.Addr()

	a, err := NewWithLogger(ctx, logger.Nop(), cfg, Options{Migrate: true})
	if err != nil {
		t.Fatalf("NewWithLogger: %v", err)
	}
	defer a.Close(ctx)

	if _, ok := a.Clients.Locker.(*locks.Redis); !ok {
		t.Fatalf("locker: want *locks.Redis, got %T", a.Clients.Locker)
	}
	unlock, err := a.Clients.Locker.Lock(ctx, "app101")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	unlock()
}

func TestAppRejectsBadStorageConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Mode = "gcs"

	_, err := NewWithLogger(context.Background(), logger.Nop(), cfg, Options{})
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorMissingBucket {
		t.Fatalf("code: want=%q got=%q (err=%v)", StorageProviderBootstrapErrorMissingBucket, got, err)
	}
}
